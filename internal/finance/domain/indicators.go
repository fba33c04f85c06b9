package domain

import (
	"sort"
	"time"
)

// severityLabels is the UI wording for each indicator severity.
var severityLabels = map[IndicatorSeverity]string{
	SeverityOverdue:          "Overdue",
	SeverityDepositOverdue:   "Deposit Overdue",
	SeverityRemainingOverdue: "Remaining Overdue",
	SeverityFullUnpaid:       "Invoice Sent",
	SeverityDepositSent:      "Deposit Sent",
	SeverityRemainingSent:    "Remaining Sent",
	SeverityDepositPaid:      "Deposit Paid",
	SeverityFullyPaid:        "Fully Paid",
}

// GenerateStatusIndicators converts per-job financial states into a
// prioritized, deduplicated list of actionable badges. Each job contributes
// at most one indicator: the single most urgent thing about it. The result
// is totally ordered (severity, then job title ascending, case-sensitive) so
// the UI can render the list top-down without re-deriving priority.
func GenerateStatusIndicators(states []JobFinancialState, now time.Time) []Indicator {
	indicators := make([]Indicator, 0, len(states))
	titles := make(map[string]string, len(states))
	for _, state := range states {
		titles[state.JobID] = state.JobTitle
		if ind, ok := jobIndicator(state, now); ok {
			indicators = append(indicators, ind)
		}
	}

	sort.SliceStable(indicators, func(i, j int) bool {
		if indicators[i].Severity != indicators[j].Severity {
			return indicators[i].Severity < indicators[j].Severity
		}
		return titles[indicators[i].JobID] < titles[indicators[j].JobID]
	})
	return indicators
}

// jobIndicator picks the single indicator that best represents a job's
// current actionability. Jobs with no invoices have nothing actionable.
func jobIndicator(state JobFinancialState, now time.Time) (Indicator, bool) {
	if state.Status == StatusNotInvoiced {
		return Indicator{}, false
	}
	if state.Status == StatusFullyPaid {
		return makeIndicator(state, SeverityFullyPaid, ""), true
	}

	best := Indicator{}
	found := false
	for _, ci := range state.Invoices {
		sev, ok := invoiceSeverity(ci, now)
		if !ok {
			continue
		}
		if !found || sev < best.Severity {
			best = makeIndicator(state, sev, ci.Invoice.ID)
			found = true
		}
	}
	if !found {
		return Indicator{}, false
	}
	return best, true
}

// invoiceSeverity maps one classified invoice's allocation state onto the
// severity ladder. Custom invoices carry no special urgency semantics and
// ride the remaining rungs.
func invoiceSeverity(ci ClassifiedInvoice, now time.Time) (IndicatorSeverity, bool) {
	overdue := ci.Invoice.DueDate != nil && ci.Invoice.DueDate.Before(now)

	if !ci.State.IsPaid {
		switch ci.Kind {
		case KindDeposit:
			if overdue {
				return SeverityDepositOverdue, true
			}
			return SeverityDepositSent, true
		case KindRemaining, KindCustom:
			if overdue {
				return SeverityRemainingOverdue, true
			}
			return SeverityRemainingSent, true
		default:
			if overdue {
				return SeverityOverdue, true
			}
			return SeverityFullUnpaid, true
		}
	}

	if ci.Kind == KindDeposit {
		return SeverityDepositPaid, true
	}
	return 0, false
}

func makeIndicator(state JobFinancialState, sev IndicatorSeverity, invoiceID string) Indicator {
	text := severityLabels[sev]
	if state.JobTitle != "" {
		text = state.JobTitle + " — " + text
	}
	return Indicator{
		JobID:           state.JobID,
		Text:            text,
		Severity:        sev,
		TargetInvoiceID: invoiceID,
	}
}
