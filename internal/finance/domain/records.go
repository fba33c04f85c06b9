// Package domain provides the core business rules for the finance bounded
// context: payment allocation, invoice classification, job/client financial
// status derivation and status indicators. Everything in this package is a
// pure function over an in-memory snapshot; no stage performs I/O or keeps
// state between calls, so concurrent callers need no locking.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillType is the optional invoice tag carried by the source data.
// It may be absent or unreliable; the classifier treats it as a hint.
type BillType string

const (
	BillTypeNone      BillType = ""
	BillTypeDeposit   BillType = "deposit"
	BillTypeRemaining BillType = "remaining"
	BillTypeFull      BillType = "full"
)

// InvoiceKind is the derived category of an invoice.
type InvoiceKind string

const (
	KindDeposit   InvoiceKind = "deposit"
	KindRemaining InvoiceKind = "remaining"
	KindFull      InvoiceKind = "full"
	KindCustom    InvoiceKind = "custom"
)

// JobStatus is the derived payment status of a job. It is independent of the
// job's lifecycle status (scheduled, completed, ...) which is pass-through.
type JobStatus string

const (
	StatusNotInvoiced   JobStatus = "not_invoiced"
	StatusPending       JobStatus = "pending"
	StatusDueSoon       JobStatus = "due_soon"
	StatusOverdue       JobStatus = "overdue"
	StatusDepositPaid   JobStatus = "deposit_paid"
	StatusPartiallyPaid JobStatus = "partially_paid"
	StatusFullyPaid     JobStatus = "fully_paid"
)

// DueSoonWindowDays is the default window for Pending -> DueSoon refinement.
const DueSoonWindowDays = 7

// Client is a canonical, read-only client record.
type Client struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// Job is a canonical job record. ContractValue is the single monetary amount
// resolved from the historical field variants by the normalizer.
type Job struct {
	ID            string
	ClientID      string
	Title         string
	Lifecycle     string
	ContractValue decimal.Decimal
	CreatedAt     time.Time
}

// Invoice is a canonical invoice record. Total is fixed at creation;
// corrections happen by issuing a new invoice.
type Invoice struct {
	ID          string
	JobID       string
	Number      string
	Description string
	BillType    BillType
	Total       decimal.Decimal
	DueDate     *time.Time
	CreatedAt   time.Time
}

// Payment is a canonical payment record. InvoiceID may be empty or dangling;
// such payments are pooled by the allocator.
type Payment struct {
	ID        string
	InvoiceID string
	JobID     string
	Amount    decimal.Decimal
	Date      time.Time
}

// InvoiceFinancialState is the derived, per-invoice allocation result.
type InvoiceFinancialState struct {
	InvoiceID   string          `json:"invoiceId"`
	AmountPaid  decimal.Decimal `json:"amountPaid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	IsPaid      bool            `json:"isPaid"`
}

// ClassifiedInvoice pairs an invoice with its derived kind and allocation
// state. The indicator generator works off these.
type ClassifiedInvoice struct {
	Invoice Invoice
	Kind    InvoiceKind
	State   InvoiceFinancialState
}

// JobFinancialState is the derived, per-job financial view.
type JobFinancialState struct {
	JobID             string
	JobTitle          string
	Status            JobStatus
	TotalValue        decimal.Decimal
	TotalPaid         decimal.Decimal
	OutstandingAmount decimal.Decimal
	DueDate           *time.Time
	DaysUntilDue      *int
	Invoices          []ClassifiedInvoice
}

// ClientFinancialSummary is the derived, client-level rollup.
type ClientFinancialSummary struct {
	TotalOutstanding      decimal.Decimal
	TotalPaid             decimal.Decimal
	TotalValue            decimal.Decimal
	JobCount              int
	ActiveJobsWithBalance int
	LastPaymentDate       *time.Time

	// Degraded is set when the snapshot exceeded the precision threshold and
	// the simplified aggregation path was taken. Not an error.
	Degraded bool
}

// IndicatorSeverity orders indicators from most to least urgent. Lower sorts
// first.
type IndicatorSeverity int

const (
	SeverityOverdue IndicatorSeverity = iota
	SeverityDepositOverdue
	SeverityRemainingOverdue
	SeverityFullUnpaid
	SeverityDepositSent
	SeverityRemainingSent
	SeverityDepositPaid
	SeverityFullyPaid
)

// Indicator is a single prioritized "needs attention" entry for a job.
type Indicator struct {
	JobID           string            `json:"jobId"`
	Text            string            `json:"text"`
	Severity        IndicatorSeverity `json:"severity"`
	TargetInvoiceID string            `json:"targetInvoiceId,omitempty"`
}
