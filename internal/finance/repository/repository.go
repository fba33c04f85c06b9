package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backoffice_backend/internal/finance/domain"
	"backoffice_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clientNotFoundMsg = "client not found"
const jobNotFoundMsg = "job not found"

// Repository provides database operations for finance records.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new finance repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ SnapshotReader = (*Repository)(nil)

// GetClient returns one raw client record.
func (r *Repository) GetClient(ctx context.Context, clientID uuid.UUID) (domain.RawRecord, error) {
	query := `SELECT id, attrs FROM clients WHERE id = $1`

	var id uuid.UUID
	var attrs []byte
	if err := r.pool.QueryRow(ctx, query, clientID).Scan(&id, &attrs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(clientNotFoundMsg)
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return buildRecord(id, attrs, nil)
}

// GetJob returns one raw job record, including the owning client id.
func (r *Repository) GetJob(ctx context.Context, jobID uuid.UUID) (domain.RawRecord, error) {
	query := `SELECT id, client_id, attrs FROM jobs WHERE id = $1`

	var id, clientID uuid.UUID
	var attrs []byte
	if err := r.pool.QueryRow(ctx, query, jobID).Scan(&id, &clientID, &attrs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(jobNotFoundMsg)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return buildRecord(id, attrs, map[string]string{"clientId": clientID.String()})
}

// ListJobsByClient returns the raw job records owned by a client.
func (r *Repository) ListJobsByClient(ctx context.Context, clientID uuid.UUID) ([]domain.RawRecord, error) {
	query := `
		SELECT id, client_id, attrs
		FROM jobs
		WHERE client_id = $1
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var records []domain.RawRecord
	for rows.Next() {
		var id, cid uuid.UUID
		var attrs []byte
		if err := rows.Scan(&id, &cid, &attrs); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		record, err := buildRecord(id, attrs, map[string]string{"clientId": cid.String()})
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// ListInvoicesByClient returns the raw invoice records for all of a client's
// jobs.
func (r *Repository) ListInvoicesByClient(ctx context.Context, clientID uuid.UUID) ([]domain.RawRecord, error) {
	query := `
		SELECT i.id, i.job_id, i.attrs
		FROM invoices i
		JOIN jobs j ON j.id = i.job_id
		WHERE j.client_id = $1
		ORDER BY i.created_at`

	return r.listWithParent(ctx, query, clientID, "jobId")
}

// ListPaymentsByClient returns the raw payment records for all of a client's
// jobs. Payments may reference an invoice, a job, both or neither; whatever
// linkage the row has is passed through.
func (r *Repository) ListPaymentsByClient(ctx context.Context, clientID uuid.UUID) ([]domain.RawRecord, error) {
	query := `
		SELECT p.id, p.invoice_id, p.job_id, p.attrs
		FROM payments p
		LEFT JOIN jobs j ON j.id = p.job_id
		LEFT JOIN invoices i ON i.id = p.invoice_id
		LEFT JOIN jobs ij ON ij.id = i.job_id
		WHERE j.client_id = $1 OR ij.client_id = $1
		ORDER BY p.created_at`

	return r.listPayments(ctx, query, clientID)
}

// ListInvoicesByJob returns the raw invoice records for one job.
func (r *Repository) ListInvoicesByJob(ctx context.Context, jobID uuid.UUID) ([]domain.RawRecord, error) {
	query := `SELECT id, job_id, attrs FROM invoices WHERE job_id = $1 ORDER BY created_at`
	return r.listWithParent(ctx, query, jobID, "jobId")
}

// ListPaymentsByJob returns the raw payment records for one job.
func (r *Repository) ListPaymentsByJob(ctx context.Context, jobID uuid.UUID) ([]domain.RawRecord, error) {
	query := `
		SELECT p.id, p.invoice_id, p.job_id, p.attrs
		FROM payments p
		LEFT JOIN invoices i ON i.id = p.invoice_id
		WHERE p.job_id = $1 OR i.job_id = $1
		ORDER BY p.created_at`

	return r.listPayments(ctx, query, jobID)
}

func (r *Repository) listWithParent(ctx context.Context, query string, arg uuid.UUID, parentField string) ([]domain.RawRecord, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []domain.RawRecord
	for rows.Next() {
		var id, parent uuid.UUID
		var attrs []byte
		if err := rows.Scan(&id, &parent, &attrs); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		record, err := buildRecord(id, attrs, map[string]string{parentField: parent.String()})
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *Repository) listPayments(ctx context.Context, query string, arg uuid.UUID) ([]domain.RawRecord, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var records []domain.RawRecord
	for rows.Next() {
		var id uuid.UUID
		var invoiceID, jobID *uuid.UUID
		var attrs []byte
		if err := rows.Scan(&id, &invoiceID, &jobID, &attrs); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		relations := map[string]string{}
		if invoiceID != nil {
			relations["invoiceId"] = invoiceID.String()
		}
		if jobID != nil {
			relations["jobId"] = jobID.String()
		}
		record, err := buildRecord(id, attrs, relations)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// buildRecord merges the jsonb attrs with the row identity and relation
// columns. Column values win over whatever stale copies the attrs may carry.
// Numbers are decoded as json.Number so monetary values survive untouched.
func buildRecord(id uuid.UUID, attrs []byte, relations map[string]string) (domain.RawRecord, error) {
	record := domain.RawRecord{}
	if len(attrs) > 0 {
		dec := json.NewDecoder(bytes.NewReader(attrs))
		dec.UseNumber()
		if err := dec.Decode(&record); err != nil {
			return nil, fmt.Errorf("decode attrs for %s: %w", id, err)
		}
	}
	record["id"] = id.String()
	for field, value := range relations {
		record[field] = value
	}
	return record, nil
}
