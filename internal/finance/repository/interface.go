// Package repository provides database access for the finance module. Rows
// keep their historical, loosely-typed shape in a jsonb attrs column; the
// repository hands raw records to the service layer and all field-name
// ambiguity is resolved by the domain normalizer, never here.
package repository

import (
	"context"

	"backoffice_backend/internal/finance/domain"

	"github.com/google/uuid"
)

// SnapshotReader is the read surface the finance service needs. All
// computation runs on an in-memory snapshot assembled from these calls;
// nothing downstream goes back to the database.
type SnapshotReader interface {
	GetClient(ctx context.Context, clientID uuid.UUID) (domain.RawRecord, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (domain.RawRecord, error)
	ListJobsByClient(ctx context.Context, clientID uuid.UUID) ([]domain.RawRecord, error)
	ListInvoicesByClient(ctx context.Context, clientID uuid.UUID) ([]domain.RawRecord, error)
	ListPaymentsByClient(ctx context.Context, clientID uuid.UUID) ([]domain.RawRecord, error)
	ListInvoicesByJob(ctx context.Context, jobID uuid.UUID) ([]domain.RawRecord, error)
	ListPaymentsByJob(ctx context.Context, jobID uuid.UUID) ([]domain.RawRecord, error)
}
