// Package transport defines the serializable request/response shapes for the
// finance module. UI screens and the PDF/export collaborator consume these;
// they must stay flat and stable so no consumer has to re-derive the
// financial logic.
package transport

import (
	"time"

	"backoffice_backend/internal/finance/domain"

	"github.com/shopspring/decimal"
)

// InvoiceStateResponse is the per-invoice financial view. The export
// collaborator renders "balance due" on documents straight from Outstanding
// and AmountPaid.
type InvoiceStateResponse struct {
	InvoiceID   string          `json:"invoiceId"`
	Number      string          `json:"number,omitempty"`
	Kind        string          `json:"kind"`
	Total       decimal.Decimal `json:"total"`
	AmountPaid  decimal.Decimal `json:"amountPaid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	IsPaid      bool            `json:"isPaid"`
	DueDate     *time.Time      `json:"dueDate,omitempty"`
}

// JobFinancialStateResponse is the per-job financial view.
type JobFinancialStateResponse struct {
	JobID             string                 `json:"jobId"`
	Title             string                 `json:"title,omitempty"`
	Status            string                 `json:"status"`
	TotalValue        decimal.Decimal        `json:"totalValue"`
	TotalPaid         decimal.Decimal        `json:"totalPaid"`
	OutstandingAmount decimal.Decimal        `json:"outstandingAmount"`
	DueDate           *time.Time             `json:"dueDate,omitempty"`
	DaysUntilDue      *int                   `json:"daysUntilDue,omitempty"`
	Invoices          []InvoiceStateResponse `json:"invoices"`
}

// ClientFinancialSummaryResponse is the client-level rollup. Degraded and
// TimedOut are distinct states: degraded figures are exact totals computed on
// the simplified path, timed-out figures are zeroed fallbacks and must not be
// presented as authoritative.
type ClientFinancialSummaryResponse struct {
	ClientID              string          `json:"clientId"`
	TotalOutstanding      decimal.Decimal `json:"totalOutstanding"`
	TotalPaid             decimal.Decimal `json:"totalPaid"`
	TotalValue            decimal.Decimal `json:"totalValue"`
	JobCount              int             `json:"jobCount"`
	ActiveJobsWithBalance int             `json:"activeJobsWithBalance"`
	LastPaymentDate       *time.Time      `json:"lastPaymentDate,omitempty"`
	Degraded              bool            `json:"degraded"`
	TimedOut              bool            `json:"timedOut"`
}

// ListInvoicesQuery filters the job invoice list by inferred kind.
type ListInvoicesQuery struct {
	Kind string `form:"kind" validate:"omitempty,oneof=deposit remaining full custom"`
}

// InvoiceListResponse is the classified invoice list for one job.
type InvoiceListResponse struct {
	JobID    string                 `json:"jobId"`
	Invoices []InvoiceStateResponse `json:"invoices"`
}

// IndicatorResponse is one prioritized "needs attention" badge.
type IndicatorResponse struct {
	JobID           string `json:"jobId"`
	Text            string `json:"text"`
	Severity        int    `json:"severity"`
	TargetInvoiceID string `json:"targetInvoiceId,omitempty"`
}

// IndicatorListResponse is the ordered badge list for a client overview.
type IndicatorListResponse struct {
	ClientID   string              `json:"clientId"`
	Indicators []IndicatorResponse `json:"indicators"`
}

// FromJobState maps a derived job state onto the wire shape.
func FromJobState(state domain.JobFinancialState) JobFinancialStateResponse {
	invoices := make([]InvoiceStateResponse, 0, len(state.Invoices))
	for _, ci := range state.Invoices {
		invoices = append(invoices, InvoiceStateResponse{
			InvoiceID:   ci.Invoice.ID,
			Number:      ci.Invoice.Number,
			Kind:        string(ci.Kind),
			Total:       ci.Invoice.Total,
			AmountPaid:  ci.State.AmountPaid,
			Outstanding: ci.State.Outstanding,
			IsPaid:      ci.State.IsPaid,
			DueDate:     ci.Invoice.DueDate,
		})
	}
	return JobFinancialStateResponse{
		JobID:             state.JobID,
		Title:             state.JobTitle,
		Status:            string(state.Status),
		TotalValue:        state.TotalValue,
		TotalPaid:         state.TotalPaid,
		OutstandingAmount: state.OutstandingAmount,
		DueDate:           state.DueDate,
		DaysUntilDue:      state.DaysUntilDue,
		Invoices:          invoices,
	}
}

// FromInvoiceStates maps a job's classified invoices onto the wire shape.
func FromInvoiceStates(state domain.JobFinancialState) InvoiceListResponse {
	full := FromJobState(state)
	return InvoiceListResponse{JobID: full.JobID, Invoices: full.Invoices}
}

// FromSummary maps a derived client summary onto the wire shape.
func FromSummary(clientID string, summary domain.ClientFinancialSummary, timedOut bool) ClientFinancialSummaryResponse {
	return ClientFinancialSummaryResponse{
		ClientID:              clientID,
		TotalOutstanding:      summary.TotalOutstanding,
		TotalPaid:             summary.TotalPaid,
		TotalValue:            summary.TotalValue,
		JobCount:              summary.JobCount,
		ActiveJobsWithBalance: summary.ActiveJobsWithBalance,
		LastPaymentDate:       summary.LastPaymentDate,
		Degraded:              summary.Degraded,
		TimedOut:              timedOut,
	}
}

// FromIndicators maps derived indicators onto the wire shape.
func FromIndicators(clientID string, indicators []domain.Indicator) IndicatorListResponse {
	out := make([]IndicatorResponse, 0, len(indicators))
	for _, ind := range indicators {
		out = append(out, IndicatorResponse{
			JobID:           ind.JobID,
			Text:            ind.Text,
			Severity:        int(ind.Severity),
			TargetInvoiceID: ind.TargetInvoiceID,
		})
	}
	return IndicatorListResponse{ClientID: clientID, Indicators: out}
}
