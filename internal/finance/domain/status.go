package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComputeJobFinancialState derives the full financial view of one job from a
// snapshot of its invoices and payments. now is injected so due-date
// comparisons are testable.
//
// The status is recomputed fresh on every call from the allocation result;
// there is no stored state machine that could drift between the call sites
// that render it.
func ComputeJobFinancialState(job Job, invoices []Invoice, payments []Payment, now time.Time) JobFinancialState {
	states := Allocate(invoices, payments)

	totalPaid := decimal.Zero
	for _, p := range payments {
		totalPaid = totalPaid.Add(p.Amount)
	}

	outstanding := decimal.Zero
	for _, st := range states {
		outstanding = outstanding.Add(st.Outstanding)
	}

	classified := make([]ClassifiedInvoice, 0, len(invoices))
	for _, inv := range sortInvoicesForAllocation(invoices) {
		classified = append(classified, ClassifiedInvoice{
			Invoice: inv,
			Kind:    ClassifyInvoice(inv, invoices, job.ContractValue),
			State:   states[inv.ID],
		})
	}

	state := JobFinancialState{
		JobID:             job.ID,
		JobTitle:          job.Title,
		TotalValue:        job.ContractValue,
		TotalPaid:         totalPaid,
		OutstandingAmount: outstanding,
		Invoices:          classified,
	}

	state.Status = deriveJobStatus(job.ContractValue, totalPaid, outstanding, len(invoices), classified, now)

	if due := nearestUnpaidDueDate(classified); due != nil {
		state.DueDate = due
		days := daysUntil(*due, now)
		state.DaysUntilDue = &days
	}

	return state
}

// deriveJobStatus is the status transition rule: a pure function of the
// allocation result and the contract value.
func deriveJobStatus(contractValue, totalPaid, outstanding decimal.Decimal, invoiceCount int, classified []ClassifiedInvoice, now time.Time) JobStatus {
	if invoiceCount == 0 {
		return StatusNotInvoiced
	}

	// A zero contract value can never reach FullyPaid; it falls through to
	// the payment-based statuses below, so an invoiced zero-value job shows
	// deposit_paid or partially_paid rather than not_invoiced.
	// TODO: confirm with product whether a zero-value job with invoices
	// should instead stay not_invoiced.
	if contractValue.IsPositive() && totalPaid.GreaterThanOrEqual(contractValue) {
		return StatusFullyPaid
	}

	if totalPaid.IsPositive() && outstanding.IsZero() {
		// Issued invoices are covered but the contract value is not fully
		// invoiced yet.
		return StatusDepositPaid
	}

	if totalPaid.IsPositive() && outstanding.IsPositive() {
		return StatusPartiallyPaid
	}

	if outstanding.IsPositive() {
		if due := nearestUnpaidDueDate(classified); due != nil {
			switch {
			case due.Before(now):
				return StatusOverdue
			case daysUntil(*due, now) <= DueSoonWindowDays:
				return StatusDueSoon
			}
		}
		return StatusPending
	}

	return StatusNotInvoiced
}

// nearestUnpaidDueDate returns the earliest due date among unpaid invoices,
// or nil when no unpaid invoice carries one.
func nearestUnpaidDueDate(classified []ClassifiedInvoice) *time.Time {
	var nearest *time.Time
	for i := range classified {
		ci := classified[i]
		if ci.State.IsPaid || ci.Invoice.DueDate == nil {
			continue
		}
		if nearest == nil || ci.Invoice.DueDate.Before(*nearest) {
			nearest = ci.Invoice.DueDate
		}
	}
	return nearest
}

// daysUntil counts whole days from now to due, negative when past.
func daysUntil(due, now time.Time) int {
	return int(due.Sub(now).Hours() / 24)
}
