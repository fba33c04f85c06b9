package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Allocate distributes a job's payments across its invoices and returns the
// per-invoice financial state, keyed by invoice ID.
//
// Payments carrying an invoiceId that matches one of the given invoices are
// credited to that invoice directly. Everything else (no invoiceId, or an id
// that no longer resolves) is pooled and consumed FIFO against the invoices
// sorted by creation date: earlier invoices are paid off first. This matches
// how clients actually pay (in issue order) and gives a deterministic answer
// even when the payment/invoice linkage is ambiguous.
//
// Outstanding is clamped at zero; overpayment is never represented as a
// negative balance.
func Allocate(invoices []Invoice, payments []Payment) map[string]InvoiceFinancialState {
	states := make(map[string]InvoiceFinancialState, len(invoices))
	if len(invoices) == 0 {
		return states
	}

	ordered := sortInvoicesForAllocation(invoices)

	known := make(map[string]bool, len(invoices))
	for _, inv := range invoices {
		known[inv.ID] = true
	}

	direct := make(map[string]decimal.Decimal, len(invoices))
	pool := decimal.Zero
	for _, p := range payments {
		if p.InvoiceID != "" && known[p.InvoiceID] {
			direct[p.InvoiceID] = direct[p.InvoiceID].Add(p.Amount)
			continue
		}
		pool = pool.Add(p.Amount)
	}

	for _, inv := range ordered {
		paid := direct[inv.ID]

		// Consume the unlinked pool against whatever this invoice's total
		// does not already cover.
		uncovered := inv.Total.Sub(paid)
		if uncovered.IsPositive() && pool.IsPositive() {
			consumed := decimal.Min(uncovered, pool)
			paid = paid.Add(consumed)
			pool = pool.Sub(consumed)
		}

		outstanding := inv.Total.Sub(paid)
		if outstanding.IsNegative() {
			outstanding = decimal.Zero
		}

		states[inv.ID] = InvoiceFinancialState{
			InvoiceID:   inv.ID,
			AmountPaid:  paid,
			Outstanding: outstanding,
			IsPaid:      outstanding.IsZero(),
		}
	}

	return states
}

// sortInvoicesForAllocation returns the invoices ordered by createdAt
// ascending, ties broken by ID string comparison for determinism.
func sortInvoicesForAllocation(invoices []Invoice) []Invoice {
	ordered := make([]Invoice, len(invoices))
	copy(ordered, invoices)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}
