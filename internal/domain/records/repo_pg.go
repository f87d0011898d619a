package records

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

type recordRepoPG struct {
	pool querier
}

func NewRecordRepo(pool *pgxpool.Pool) RecordRepository {
	return &recordRepoPG{pool: pool}
}

const recordCols = `id, patient_id, doctor_id, record_type, title, content, recorded_at, created_at, updated_at`

func (r *recordRepoPG) Create(ctx context.Context, rec *MedicalRecord) error {
	rec.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO medical_records (id, patient_id, doctor_id, record_type, title, content, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rec.ID, rec.PatientID, rec.DoctorID, rec.RecordType, rec.Title, rec.Content, rec.RecordedAt,
	)
	return err
}

func (r *recordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	var rec MedicalRecord
	err := r.pool.QueryRow(ctx, `SELECT `+recordCols+` FROM medical_records WHERE id = $1`, id).
		Scan(&rec.ID, &rec.PatientID, &rec.DoctorID, &rec.RecordType, &rec.Title, &rec.Content,
			&rec.RecordedAt, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan medical record: %w", err)
	}
	return &rec, nil
}

func (r *recordRepoPG) Update(ctx context.Context, rec *MedicalRecord) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE medical_records SET record_type=$2, title=$3, content=$4, recorded_at=$5, updated_at=NOW()
		WHERE id = $1`,
		rec.ID, rec.RecordType, rec.Title, rec.Content, rec.RecordedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *recordRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *recordRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, recordType string, limit, offset int) ([]*MedicalRecord, int, error) {
	where := `patient_id = $1`
	args := []interface{}{patientID}
	if recordType != "" {
		where += ` AND record_type = $2`
		args = append(args, recordType)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM medical_records WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM medical_records WHERE %s ORDER BY recorded_at DESC LIMIT $%d OFFSET $%d`,
		recordCols, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*MedicalRecord
	for rows.Next() {
		var rec MedicalRecord
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.DoctorID, &rec.RecordType, &rec.Title,
			&rec.Content, &rec.RecordedAt, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan medical record: %w", err)
		}
		result = append(result, &rec)
	}
	return result, total, nil
}
