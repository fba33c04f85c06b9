package domain

import (
	"testing"
)

func stateFor(t *testing.T, job Job, invoices []Invoice, payments []Payment) JobFinancialState {
	t.Helper()
	return ComputeJobFinancialState(job, invoices, payments, statusNow)
}

func TestIndicatorsEmptyForNotInvoicedJob(t *testing.T) {
	state := stateFor(t, jobWithValue("j1", "Kitchen Fit", "1000"), nil, nil)
	indicators := GenerateStatusIndicators([]JobFinancialState{state}, statusNow)
	if len(indicators) != 0 {
		t.Fatalf("expected no indicators, got %+v", indicators)
	}
}

func TestIndicatorsFullyPaidJobEmitsExactlyOne(t *testing.T) {
	invoices := []Invoice{
		{ID: "i1", JobID: "j1", BillType: BillTypeDeposit, Total: dec("300"), CreatedAt: day(1)},
		{ID: "i2", JobID: "j1", BillType: BillTypeRemaining, Total: dec("700"), CreatedAt: day(2)},
	}
	payments := []Payment{pay("p1", "i1", "300", day(3)), pay("p2", "i2", "700", day(4))}
	state := stateFor(t, jobWithValue("j1", "Kitchen Fit", "1000"), invoices, payments)

	indicators := GenerateStatusIndicators([]JobFinancialState{state}, statusNow)
	if len(indicators) != 1 {
		t.Fatalf("expected exactly one indicator, got %d", len(indicators))
	}
	if indicators[0].Severity != SeverityFullyPaid {
		t.Fatalf("severity = %d, want fully paid", indicators[0].Severity)
	}
	if indicators[0].Text != "Kitchen Fit — Fully Paid" {
		t.Fatalf("text = %q", indicators[0].Text)
	}
}

func TestIndicatorDepositOverdueBeatsDepositSentAndPaid(t *testing.T) {
	overdueDue := statusNow.AddDate(0, 0, -3)
	deposit := Invoice{ID: "i1", JobID: "j1", BillType: BillTypeDeposit, Total: dec("300"), CreatedAt: day(1), DueDate: &overdueDue}
	remaining := Invoice{ID: "i2", JobID: "j1", BillType: BillTypeRemaining, Total: dec("700"), CreatedAt: day(2)}
	state := stateFor(t, jobWithValue("j1", "Kitchen Fit", "1000"), []Invoice{deposit, remaining}, nil)

	indicators := GenerateStatusIndicators([]JobFinancialState{state}, statusNow)
	if len(indicators) != 1 {
		t.Fatalf("expected one indicator per job, got %d", len(indicators))
	}
	got := indicators[0]
	if got.Severity != SeverityDepositOverdue {
		t.Fatalf("severity = %d, want deposit overdue", got.Severity)
	}
	if got.Text != "Kitchen Fit — Deposit Overdue" {
		t.Fatalf("text = %q", got.Text)
	}
	if got.TargetInvoiceID != "i1" {
		t.Fatalf("target invoice = %q, want i1", got.TargetInvoiceID)
	}
}

func TestIndicatorDepositPaidWhenNothingMoreUrgent(t *testing.T) {
	deposit := Invoice{ID: "i1", JobID: "j1", BillType: BillTypeDeposit, Total: dec("300"), CreatedAt: day(1)}
	payments := []Payment{pay("p1", "i1", "300", day(2))}
	state := stateFor(t, jobWithValue("j1", "Kitchen Fit", "1000"), []Invoice{deposit}, payments)

	indicators := GenerateStatusIndicators([]JobFinancialState{state}, statusNow)
	if len(indicators) != 1 || indicators[0].Severity != SeverityDepositPaid {
		t.Fatalf("expected deposit paid indicator, got %+v", indicators)
	}
}

func TestIndicatorFullInvoiceUnpaid(t *testing.T) {
	full := Invoice{ID: "i1", JobID: "j1", BillType: BillTypeFull, Total: dec("1000"), CreatedAt: day(1)}
	state := stateFor(t, jobWithValue("j1", "Kitchen Fit", "1000"), []Invoice{full}, nil)

	indicators := GenerateStatusIndicators([]JobFinancialState{state}, statusNow)
	if len(indicators) != 1 || indicators[0].Severity != SeverityFullUnpaid {
		t.Fatalf("expected full unpaid indicator, got %+v", indicators)
	}
}

func TestIndicatorFullInvoiceOverdueIsMostSevere(t *testing.T) {
	due := statusNow.AddDate(0, 0, -1)
	full := Invoice{ID: "i1", JobID: "j1", BillType: BillTypeFull, Total: dec("1000"), CreatedAt: day(1), DueDate: &due}
	state := stateFor(t, jobWithValue("j1", "Kitchen Fit", "1000"), []Invoice{full}, nil)

	indicators := GenerateStatusIndicators([]JobFinancialState{state}, statusNow)
	if len(indicators) != 1 || indicators[0].Severity != SeverityOverdue {
		t.Fatalf("expected overdue indicator, got %+v", indicators)
	}
}

func TestIndicatorSortOrderAndTitleTieBreak(t *testing.T) {
	due := statusNow.AddDate(0, 0, -2)

	// Job A: deposit overdue. Job B: deposit paid. Jobs C and D: deposit
	// sent, tie broken by title.
	depositOverdue := Invoice{ID: "a1", JobID: "ja", BillType: BillTypeDeposit, Total: dec("100"), CreatedAt: day(1), DueDate: &due}
	depositPaid := Invoice{ID: "b1", JobID: "jb", BillType: BillTypeDeposit, Total: dec("100"), CreatedAt: day(1)}
	depositSentC := Invoice{ID: "c1", JobID: "jc", BillType: BillTypeDeposit, Total: dec("100"), CreatedAt: day(1)}
	depositSentD := Invoice{ID: "d1", JobID: "jd", BillType: BillTypeDeposit, Total: dec("100"), CreatedAt: day(1)}

	states := []JobFinancialState{
		stateFor(t, jobWithValue("jb", "Garage", "500"), []Invoice{depositPaid}, []Payment{pay("pb", "b1", "100", day(2))}),
		stateFor(t, jobWithValue("jd", "Loft", "500"), []Invoice{depositSentD}, nil),
		stateFor(t, jobWithValue("jc", "Bathroom", "500"), []Invoice{depositSentC}, nil),
		stateFor(t, jobWithValue("ja", "Kitchen", "500"), []Invoice{depositOverdue}, nil),
	}

	indicators := GenerateStatusIndicators(states, statusNow)
	if len(indicators) != 4 {
		t.Fatalf("expected 4 indicators, got %d", len(indicators))
	}

	wantOrder := []string{"ja", "jc", "jd", "jb"}
	for i, want := range wantOrder {
		if indicators[i].JobID != want {
			t.Fatalf("position %d: job = %s, want %s (full order: %+v)", i, indicators[i].JobID, want, indicators)
		}
	}
}

func TestIndicatorOrderIsStableAcrossRuns(t *testing.T) {
	deposit := Invoice{ID: "i1", JobID: "j1", BillType: BillTypeDeposit, Total: dec("100"), CreatedAt: day(1)}
	state := stateFor(t, jobWithValue("j1", "Kitchen", "500"), []Invoice{deposit}, nil)

	first := GenerateStatusIndicators([]JobFinancialState{state, state}, statusNow)
	second := GenerateStatusIndicators([]JobFinancialState{state, state}, statusNow)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("indicator %d differs between runs", i)
		}
	}
}
