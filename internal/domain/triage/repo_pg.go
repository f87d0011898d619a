package triage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type reportRepoPG struct {
	pool querier
}

func NewReportRepo(pool *pgxpool.Pool) ReportRepository {
	return &reportRepoPG{pool: pool}
}

const reportCols = `id, patient_id, symptoms, results, created_at`

func (r *reportRepoPG) Create(ctx context.Context, rep *Report) error {
	rep.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO triage_reports (id, patient_id, symptoms, results)
		VALUES ($1,$2,$3,$4)`,
		rep.ID, rep.PatientID, rep.Symptoms, rep.Results,
	)
	return err
}

func (r *reportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	var rep Report
	err := r.pool.QueryRow(ctx, `SELECT `+reportCols+` FROM triage_reports WHERE id = $1`, id).
		Scan(&rep.ID, &rep.PatientID, &rep.Symptoms, &rep.Results, &rep.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan triage report: %w", err)
	}
	return &rep, nil
}

func (r *reportRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Report, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM triage_reports WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+reportCols+` FROM triage_reports WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		var rep Report
		if err := rows.Scan(&rep.ID, &rep.PatientID, &rep.Symptoms, &rep.Results, &rep.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan triage report: %w", err)
		}
		reports = append(reports, &rep)
	}
	return reports, total, nil
}
