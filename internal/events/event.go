// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"backoffice_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Finance Domain Events
// =============================================================================

// FinancialSummaryDegraded is published when a client summary was computed on
// the simplified aggregation path because the snapshot exceeded the precision
// thresholds. Subscribers (UI refresh, ops alerting) react without the engine
// knowing about them.
type FinancialSummaryDegraded struct {
	BaseEvent
	ClientID     uuid.UUID `json:"clientId"`
	JobCount     int       `json:"jobCount"`
	InvoiceCount int       `json:"invoiceCount"`
}

func (e FinancialSummaryDegraded) EventName() string { return "finance.summary.degraded" }

// FinancialSummaryTimedOut is published when the aggregation safety valve
// fired and a zeroed fallback summary was returned instead of real figures.
type FinancialSummaryTimedOut struct {
	BaseEvent
	ClientID uuid.UUID `json:"clientId"`
}

func (e FinancialSummaryTimedOut) EventName() string { return "finance.summary.timed_out" }

// RecordsDropped is published when raw records were excluded from a snapshot
// because they failed normalization. One bad record never fails the
// computation, but someone should know the data needs repair. ClientID or
// JobID may be zero depending on which scope the snapshot was fetched for.
type RecordsDropped struct {
	BaseEvent
	ClientID uuid.UUID `json:"clientId"`
	JobID    uuid.UUID `json:"jobId"`
	Entity   string    `json:"entity"`
	Count    int       `json:"count"`
}

func (e RecordsDropped) EventName() string { return "finance.records.dropped" }
