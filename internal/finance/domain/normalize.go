package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"backoffice_backend/platform/phone"
	"backoffice_backend/platform/sanitize"

	"github.com/shopspring/decimal"
)

// RawRecord is an untyped record as returned by the data-access layer. The
// source carries several generations of field names, so nothing downstream of
// this file is allowed to touch raw maps.
type RawRecord map[string]any

// NormalizationError reports a raw record that cannot be normalized. Callers
// drop the record and continue; one bad record must not blank out a client's
// whole summary.
type NormalizationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s: field %q %s", e.Entity, e.Field, e.Reason)
}

func missingField(entity, field string) *NormalizationError {
	return &NormalizationError{Entity: entity, Field: field, Reason: "is missing"}
}

// contractValueFields is the resolution order for a job's canonical contract
// value. VAT-inclusive totals must always win over pre-VAT estimates, so the
// order is a hard contract: first non-null, non-zero candidate is taken.
var contractValueFields = []string{"total", "estimatedValue", "value", "amount", "quoteTotal", "budget"}

// NormalizeClient maps a raw client record into a canonical Client.
func NormalizeClient(raw RawRecord) (Client, error) {
	id, ok := rawString(raw, "id", "_id", "clientId", "client_id")
	if !ok {
		return Client{}, missingField("client", "id")
	}

	name, _ := rawString(raw, "name", "fullName", "full_name", "companyName", "company_name")
	email, _ := rawString(raw, "email", "emailAddress", "email_address")
	phoneNum, _ := rawString(raw, "phone", "phoneNumber", "phone_number", "mobile", "tel")

	return Client{
		ID:    id,
		Name:  sanitize.Text(name),
		Email: email,
		Phone: phone.NormalizeE164(phoneNum),
	}, nil
}

// NormalizeJob maps a raw job record into a canonical Job, resolving the
// contract value through the historical field-name chain.
func NormalizeJob(raw RawRecord) (Job, error) {
	id, ok := rawString(raw, "id", "_id", "jobId", "job_id")
	if !ok {
		return Job{}, missingField("job", "id")
	}

	clientID, _ := rawString(raw, "clientId", "client_id", "customerId", "customer_id")
	title, _ := rawString(raw, "title", "name", "description", "jobTitle", "job_title")
	lifecycle, _ := rawString(raw, "status", "jobStatus", "job_status", "state")
	createdAt, _ := rawTime(raw, "createdAt", "created_at", "dateCreated", "date_created")

	return Job{
		ID:            id,
		ClientID:      clientID,
		Title:         sanitize.Text(title),
		Lifecycle:     lifecycle,
		ContractValue: resolveContractValue(raw),
		CreatedAt:     createdAt,
	}, nil
}

// NormalizeInvoice maps a raw invoice record into a canonical Invoice.
func NormalizeInvoice(raw RawRecord) (Invoice, error) {
	id, ok := rawString(raw, "id", "_id", "invoiceId", "invoice_id")
	if !ok {
		return Invoice{}, missingField("invoice", "id")
	}

	jobID, _ := rawString(raw, "jobId", "job_id", "projectId", "project_id")
	number, _ := rawString(raw, "number", "invoiceNumber", "invoice_number", "reference")
	description, _ := rawString(raw, "description", "notes", "memo")
	total, _ := rawDecimal(raw, "total", "totalAmount", "total_amount", "amount", "grandTotal", "grand_total")
	createdAt, _ := rawTime(raw, "createdAt", "created_at", "issuedAt", "issued_at", "date")

	inv := Invoice{
		ID:          id,
		JobID:       jobID,
		Number:      number,
		Description: sanitize.Text(description),
		BillType:    normalizeBillType(raw),
		Total:       total,
		CreatedAt:   createdAt,
	}
	if due, ok := rawTime(raw, "dueDate", "due_date", "due"); ok {
		inv.DueDate = &due
	}
	return inv, nil
}

// NormalizePayment maps a raw payment record into a canonical Payment.
// Non-positive amounts are invalid input and rejected here so the allocator
// never has to defend against them.
func NormalizePayment(raw RawRecord) (Payment, error) {
	id, ok := rawString(raw, "id", "_id", "paymentId", "payment_id")
	if !ok {
		return Payment{}, missingField("payment", "id")
	}

	amount, ok := rawDecimal(raw, "amount", "value", "paid", "amountPaid", "amount_paid")
	if !ok {
		return Payment{}, missingField("payment", "amount")
	}
	if !amount.IsPositive() {
		return Payment{}, &NormalizationError{Entity: "payment", Field: "amount", Reason: "must be positive"}
	}

	invoiceID, _ := rawString(raw, "invoiceId", "invoice_id", "billId", "bill_id")
	jobID, _ := rawString(raw, "jobId", "job_id")
	date, _ := rawTime(raw, "date", "paidAt", "paid_at", "paymentDate", "payment_date", "createdAt", "created_at")

	return Payment{
		ID:        id,
		InvoiceID: invoiceID,
		JobID:     jobID,
		Amount:    amount,
		Date:      date,
	}, nil
}

// resolveContractValue walks the priority chain and returns the first
// non-null, non-zero candidate, accepting snake_case variants of each field.
func resolveContractValue(raw RawRecord) decimal.Decimal {
	for _, field := range contractValueFields {
		if v, ok := rawDecimal(raw, field, camelToSnake(field)); ok && !v.IsZero() {
			return v
		}
	}
	return decimal.Zero
}

func normalizeBillType(raw RawRecord) BillType {
	s, _ := rawString(raw, "billType", "bill_type", "type", "invoiceType", "invoice_type")
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deposit":
		return BillTypeDeposit
	case "remaining":
		return BillTypeRemaining
	case "full":
		return BillTypeFull
	default:
		return BillTypeNone
	}
}

// rawString returns the first named field holding a non-empty scalar,
// stringified.
func rawString(raw RawRecord, fields ...string) (string, bool) {
	for _, field := range fields {
		v, present := raw[field]
		if !present || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if trimmed := strings.TrimSpace(val); trimmed != "" {
				return trimmed, true
			}
		case json.Number:
			return val.String(), true
		case float64:
			return decimal.NewFromFloat(val).String(), true
		case int:
			return fmt.Sprintf("%d", val), true
		case int64:
			return fmt.Sprintf("%d", val), true
		}
	}
	return "", false
}

// rawDecimal returns the first named field parseable as a monetary amount.
// Strings may carry currency symbols and thousands separators.
func rawDecimal(raw RawRecord, fields ...string) (decimal.Decimal, bool) {
	for _, field := range fields {
		v, present := raw[field]
		if !present || v == nil {
			continue
		}
		switch val := v.(type) {
		case float64:
			return decimal.NewFromFloat(val), true
		case int:
			return decimal.NewFromInt(int64(val)), true
		case int64:
			return decimal.NewFromInt(val), true
		case json.Number:
			if d, err := decimal.NewFromString(val.String()); err == nil {
				return d, true
			}
		case string:
			cleaned := strings.TrimSpace(val)
			cleaned = strings.TrimLeft(cleaned, "£$€ ")
			cleaned = strings.ReplaceAll(cleaned, ",", "")
			if cleaned == "" {
				continue
			}
			if d, err := decimal.NewFromString(cleaned); err == nil {
				return d, true
			}
		case decimal.Decimal:
			return val, true
		}
	}
	return decimal.Zero, false
}

// rawTime returns the first named field parseable as a timestamp. Accepts
// time.Time, RFC 3339 strings, bare dates and unix epochs.
func rawTime(raw RawRecord, fields ...string) (time.Time, bool) {
	for _, field := range fields {
		v, present := raw[field]
		if !present || v == nil {
			continue
		}
		switch val := v.(type) {
		case time.Time:
			return val, true
		case string:
			for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
				if t, err := time.Parse(layout, strings.TrimSpace(val)); err == nil {
					return t, true
				}
			}
		case float64:
			return time.Unix(int64(val), 0).UTC(), true
		case int64:
			return time.Unix(val, 0).UTC(), true
		case json.Number:
			if n, err := val.Int64(); err == nil {
				return time.Unix(n, 0).UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func camelToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
