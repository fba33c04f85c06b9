package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// classifyRule is one step of the classification chain. match returns the
// kind and true when the rule decides; otherwise the chain moves on.
type classifyRule struct {
	name  string
	match func(in classifyInput) (InvoiceKind, bool)
}

type classifyInput struct {
	invoice          Invoice
	siblings         []Invoice
	jobContractValue decimal.Decimal
}

// fullThreshold is the share of the job contract value above which a single
// untagged invoice is treated as the full bill.
var fullThreshold = decimal.NewFromFloat(0.8)

// classifyChain is evaluated in order; the first match wins. The order is a
// behavioral contract inherited from years of historical data: do not reorder
// or tighten these rules without product sign-off, or previously classified
// invoices silently change category.
var classifyChain = []classifyRule{
	{
		name: "explicit full tag",
		match: func(in classifyInput) (InvoiceKind, bool) {
			if in.invoice.BillType == BillTypeFull {
				return KindFull, true
			}
			return "", false
		},
	},
	{
		name: "single untagged invoice covering most of the contract",
		match: func(in classifyInput) (InvoiceKind, bool) {
			if len(in.siblings) != 0 || in.invoice.BillType != BillTypeNone {
				return "", false
			}
			if in.jobContractValue.IsPositive() &&
				in.invoice.Total.GreaterThanOrEqual(in.jobContractValue.Mul(fullThreshold)) {
				return KindFull, true
			}
			return "", false
		},
	},
	{
		name: "deposit tag or deposit wording",
		match: func(in classifyInput) (InvoiceKind, bool) {
			if in.invoice.BillType == BillTypeDeposit || mentionsAny(in.invoice, "deposit") {
				return KindDeposit, true
			}
			return "", false
		},
	},
	{
		name: "remaining tag or remaining/balance wording",
		match: func(in classifyInput) (InvoiceKind, bool) {
			if in.invoice.BillType == BillTypeRemaining || mentionsAny(in.invoice, "remaining", "balance") {
				return KindRemaining, true
			}
			return "", false
		},
	},
	{
		name: "untagged pair: smaller is the deposit",
		match: func(in classifyInput) (InvoiceKind, bool) {
			if len(in.siblings) != 1 {
				return "", false
			}
			other := in.siblings[0]
			if in.invoice.BillType != BillTypeNone || other.BillType != BillTypeNone {
				return "", false
			}
			switch in.invoice.Total.Cmp(other.Total) {
			case -1:
				return KindDeposit, true
			case 1:
				return KindRemaining, true
			default:
				// Equal amounts: lower ID is the deposit, so two runs over
				// the same data never disagree.
				if in.invoice.ID < other.ID {
					return KindDeposit, true
				}
				return KindRemaining, true
			}
		},
	},
}

// ClassifyInvoice labels an invoice as deposit, remaining, full or custom
// given its sibling invoices on the same job. It is a total function: every
// invoice gets exactly one kind, falling through to KindCustom.
//
// The chain is best-effort and can misclassify unusual relative amounts or
// jobs with three or more invoices; that ambiguity is inherited from the
// source data and deliberately preserved.
func ClassifyInvoice(invoice Invoice, siblings []Invoice, jobContractValue decimal.Decimal) InvoiceKind {
	in := classifyInput{
		invoice:          invoice,
		siblings:         otherInvoices(invoice, siblings),
		jobContractValue: jobContractValue,
	}
	for _, rule := range classifyChain {
		if kind, ok := rule.match(in); ok {
			return kind
		}
	}
	return KindCustom
}

// otherInvoices filters the invoice itself out of its sibling list so callers
// may pass either "the other invoices" or "all invoices for the job".
func otherInvoices(invoice Invoice, siblings []Invoice) []Invoice {
	others := make([]Invoice, 0, len(siblings))
	for _, s := range siblings {
		if s.ID != invoice.ID {
			others = append(others, s)
		}
	}
	return others
}

func mentionsAny(inv Invoice, words ...string) bool {
	haystack := strings.ToLower(inv.Description + " " + inv.Number)
	for _, w := range words {
		if strings.Contains(haystack, w) {
			return true
		}
	}
	return false
}
