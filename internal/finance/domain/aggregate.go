package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AggregateLimits bounds the precise aggregation path. Snapshots larger than
// either limit take the simplified path: a documented precision/performance
// trade-off, not a failure.
type AggregateLimits struct {
	MaxJobs     int
	MaxInvoices int
}

// DefaultAggregateLimits are the thresholds above which per-job breakdown is
// skipped.
var DefaultAggregateLimits = AggregateLimits{MaxJobs: 50, MaxInvoices: 200}

// ComputeClientFinancialSummary rolls a client's jobs, invoices and payments
// into a single summary using the default limits.
func ComputeClientFinancialSummary(jobs []Job, invoices []Invoice, payments []Payment, now time.Time) ClientFinancialSummary {
	return ComputeClientFinancialSummaryWithLimits(jobs, invoices, payments, now, DefaultAggregateLimits)
}

// ComputeClientFinancialSummaryWithLimits is ComputeClientFinancialSummary
// with explicit degradation thresholds.
//
// TotalPaid is summed from the payment records themselves, never derived by
// subtraction, so allocation rounding can not compound into it. Likewise
// TotalOutstanding is the sum of per-invoice outstanding balances rather than
// TotalValue - TotalPaid, which would understate risk whenever a job still
// has uninvoiced remaining value.
func ComputeClientFinancialSummaryWithLimits(jobs []Job, invoices []Invoice, payments []Payment, now time.Time, limits AggregateLimits) ClientFinancialSummary {
	summary := ClientFinancialSummary{
		TotalOutstanding: decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalValue:       decimal.Zero,
		JobCount:         len(jobs),
	}

	for _, p := range payments {
		summary.TotalPaid = summary.TotalPaid.Add(p.Amount)
	}
	for _, j := range jobs {
		summary.TotalValue = summary.TotalValue.Add(j.ContractValue)
	}

	invoicesByJob := groupInvoicesByJob(invoices)
	paymentsByJob := groupPaymentsByJob(payments, invoices, jobs)

	degraded := len(jobs) > limits.MaxJobs || len(invoices) > limits.MaxInvoices
	summary.Degraded = degraded

	paidInvoices := make(map[string]bool, len(invoices))

	for _, job := range jobs {
		jobInvoices := invoicesByJob[job.ID]
		jobPayments := paymentsByJob[job.ID]

		var jobOutstanding decimal.Decimal
		var states map[string]InvoiceFinancialState
		if degraded {
			// Simplified path: allocation only, no classification or status
			// derivation per job.
			states = Allocate(jobInvoices, jobPayments)
			for _, st := range states {
				jobOutstanding = jobOutstanding.Add(st.Outstanding)
			}
		} else {
			state := ComputeJobFinancialState(job, jobInvoices, jobPayments, now)
			jobOutstanding = state.OutstandingAmount
			states = make(map[string]InvoiceFinancialState, len(state.Invoices))
			for _, ci := range state.Invoices {
				states[ci.Invoice.ID] = ci.State
			}
		}

		summary.TotalOutstanding = summary.TotalOutstanding.Add(jobOutstanding)
		if jobOutstanding.IsPositive() {
			summary.ActiveJobsWithBalance++
		}
		for id, st := range states {
			if st.IsPaid {
				paidInvoices[id] = true
			}
		}
	}

	summary.LastPaymentDate = lastPaymentOnPaidInvoices(payments, paidInvoices)
	return summary
}

// lastPaymentOnPaidInvoices returns the latest payment date among payments
// tied to settled invoices, or nil when there is none.
func lastPaymentOnPaidInvoices(payments []Payment, paidInvoices map[string]bool) *time.Time {
	var latest *time.Time
	for i := range payments {
		p := payments[i]
		if p.InvoiceID == "" || !paidInvoices[p.InvoiceID] {
			continue
		}
		if latest == nil || p.Date.After(*latest) {
			latest = &p.Date
		}
	}
	return latest
}

func groupInvoicesByJob(invoices []Invoice) map[string][]Invoice {
	byJob := make(map[string][]Invoice)
	for _, inv := range invoices {
		byJob[inv.JobID] = append(byJob[inv.JobID], inv)
	}
	return byJob
}

// groupPaymentsByJob assigns each payment to a job, resolving through the
// invoice when the payment carries no jobId of its own. A payment with no
// resolvable link still belongs to the client's pool: when the client has
// exactly one job the attribution is unambiguous and the payment joins that
// job's pool; with several jobs it stays unattributed (it counts toward the
// client's TotalPaid but no job's allocation may guess at it).
func groupPaymentsByJob(payments []Payment, invoices []Invoice, jobs []Job) map[string][]Payment {
	invoiceJob := make(map[string]string, len(invoices))
	for _, inv := range invoices {
		invoiceJob[inv.ID] = inv.JobID
	}

	byJob := make(map[string][]Payment)
	for _, p := range payments {
		jobID := p.JobID
		if jobID == "" && p.InvoiceID != "" {
			jobID = invoiceJob[p.InvoiceID]
		}
		if jobID == "" && len(jobs) == 1 {
			jobID = jobs[0].ID
		}
		if jobID == "" {
			continue
		}
		byJob[jobID] = append(byJob[jobID], p)
	}
	return byJob
}
