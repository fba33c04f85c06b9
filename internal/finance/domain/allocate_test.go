package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(n int) time.Time {
	return time.Date(2026, 1, n, 0, 0, 0, 0, time.UTC)
}

func inv(id, jobID, total string, created time.Time) Invoice {
	return Invoice{ID: id, JobID: jobID, Total: dec(total), CreatedAt: created}
}

func pay(id, invoiceID, amount string, date time.Time) Payment {
	return Payment{ID: id, InvoiceID: invoiceID, Amount: dec(amount), Date: date}
}

func TestAllocateEmptyInvoices(t *testing.T) {
	states := Allocate(nil, []Payment{pay("p1", "", "100", day(1))})
	if len(states) != 0 {
		t.Fatalf("expected empty map, got %d entries", len(states))
	}
}

func TestAllocateUnlinkedPoolFIFO(t *testing.T) {
	invoices := []Invoice{
		inv("i2", "j1", "700", day(10)),
		inv("i1", "j1", "300", day(1)),
	}
	// One untagged payment covering the first invoice and part of the second.
	payments := []Payment{pay("p1", "", "500", day(12))}

	states := Allocate(invoices, payments)

	first := states["i1"]
	if first.AmountPaid.String() != "300" || !first.IsPaid || !first.Outstanding.IsZero() {
		t.Fatalf("earliest invoice not paid off first: %+v", first)
	}
	second := states["i2"]
	if second.AmountPaid.String() != "200" {
		t.Fatalf("second invoice amountPaid = %s, want 200", second.AmountPaid)
	}
	if second.Outstanding.String() != "500" || second.IsPaid {
		t.Fatalf("second invoice outstanding = %s, isPaid = %v", second.Outstanding, second.IsPaid)
	}
}

func TestAllocateTaggedPaymentCreditsItsInvoice(t *testing.T) {
	invoices := []Invoice{
		inv("i1", "j1", "300", day(1)),
		inv("i2", "j1", "700", day(2)),
	}
	payments := []Payment{pay("p1", "i2", "700", day(3))}

	states := Allocate(invoices, payments)

	if !states["i2"].IsPaid {
		t.Fatalf("tagged invoice should be settled: %+v", states["i2"])
	}
	if states["i1"].IsPaid || states["i1"].Outstanding.String() != "300" {
		t.Fatalf("untagged invoice should be untouched: %+v", states["i1"])
	}
}

func TestAllocateDanglingInvoiceIDJoinsPool(t *testing.T) {
	invoices := []Invoice{inv("i1", "j1", "400", day(1))}
	// The payment references an invoice that no longer exists; treat it as
	// an unlinked payment rather than losing it.
	payments := []Payment{pay("p1", "gone", "400", day(2))}

	states := Allocate(invoices, payments)
	if !states["i1"].IsPaid {
		t.Fatalf("dangling payment should flow into the pool: %+v", states["i1"])
	}
}

func TestAllocateOverpaymentClampsToZeroOutstanding(t *testing.T) {
	invoices := []Invoice{inv("i1", "j1", "100", day(1))}
	payments := []Payment{pay("p1", "i1", "150", day(2))}

	states := Allocate(invoices, payments)
	st := states["i1"]
	if st.Outstanding.Sign() != 0 {
		t.Fatalf("outstanding = %s, want 0", st.Outstanding)
	}
	if !st.IsPaid {
		t.Fatal("overpaid invoice must read as paid")
	}
	if st.AmountPaid.String() != "150" {
		t.Fatalf("amountPaid = %s, want 150", st.AmountPaid)
	}
}

func TestAllocateExactPayment(t *testing.T) {
	invoices := []Invoice{inv("i1", "j1", "250", day(1))}
	payments := []Payment{pay("p1", "", "250", day(2))}

	st := Allocate(invoices, payments)["i1"]
	if !st.Outstanding.IsZero() || !st.IsPaid {
		t.Fatalf("exact payment should settle the invoice: %+v", st)
	}
}

func TestAllocateCreatedAtTieBreaksOnID(t *testing.T) {
	invoices := []Invoice{
		inv("i-b", "j1", "100", day(1)),
		inv("i-a", "j1", "100", day(1)),
	}
	payments := []Payment{pay("p1", "", "100", day(2))}

	states := Allocate(invoices, payments)
	if !states["i-a"].IsPaid {
		t.Fatalf("lower id should be consumed first: %+v", states["i-a"])
	}
	if states["i-b"].IsPaid {
		t.Fatalf("higher id should stay outstanding: %+v", states["i-b"])
	}
}

func TestAllocateIsIdempotent(t *testing.T) {
	invoices := []Invoice{
		inv("i1", "j1", "300", day(1)),
		inv("i2", "j1", "700", day(5)),
		inv("i3", "j1", "150", day(3)),
	}
	payments := []Payment{
		pay("p1", "i2", "100", day(6)),
		pay("p2", "", "400", day(7)),
	}

	first := Allocate(invoices, payments)
	second := Allocate(invoices, payments)

	if len(first) != len(second) {
		t.Fatalf("result sizes differ: %d vs %d", len(first), len(second))
	}
	for id, a := range first {
		b := second[id]
		if !a.AmountPaid.Equal(b.AmountPaid) || !a.Outstanding.Equal(b.Outstanding) || a.IsPaid != b.IsPaid {
			t.Fatalf("allocation for %s differs between runs: %+v vs %+v", id, a, b)
		}
	}
}

func TestAllocateInvariants(t *testing.T) {
	invoices := []Invoice{
		inv("i1", "j1", "320", day(2)),
		inv("i2", "j1", "180", day(4)),
		inv("i3", "j1", "500", day(6)),
	}
	payments := []Payment{
		pay("p1", "i3", "200", day(7)),
		pay("p2", "", "350", day(8)),
		pay("p3", "i1", "50", day(9)),
	}

	states := Allocate(invoices, payments)
	byID := map[string]Invoice{}
	for _, i := range invoices {
		byID[i.ID] = i
	}
	for id, st := range states {
		if st.Outstanding.IsNegative() {
			t.Fatalf("%s: outstanding is negative: %s", id, st.Outstanding)
		}
		if st.Outstanding.GreaterThan(byID[id].Total) {
			t.Fatalf("%s: outstanding %s exceeds total %s", id, st.Outstanding, byID[id].Total)
		}
		if st.IsPaid != st.Outstanding.IsZero() {
			t.Fatalf("%s: isPaid must mirror zero outstanding: %+v", id, st)
		}
	}
}
