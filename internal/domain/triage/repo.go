package triage

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("triage report not found")

type ReportRepository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Report, int, error)
}
