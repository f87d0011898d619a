package records

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var validRecordTypes = map[string]bool{
	TypeConsultation: true, TypePrescription: true, TypeVitalSigns: true, TypeLabResult: true,
}

type Service struct {
	records RecordRepository
}

func NewService(records RecordRepository) *Service {
	return &Service{records: records}
}

func (s *Service) Create(ctx context.Context, rec *MedicalRecord) error {
	if rec.PatientID == uuid.Nil || rec.DoctorID == uuid.Nil {
		return fmt.Errorf("patient_id and doctor_id are required")
	}
	if !validRecordTypes[rec.RecordType] {
		return fmt.Errorf("invalid record type: %s", rec.RecordType)
	}
	if rec.Title == "" {
		return fmt.Errorf("title is required")
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}

	if err := s.records.Create(ctx, rec); err != nil {
		return fmt.Errorf("create medical record: %w", err)
	}
	log.Info().Str("record_id", rec.ID.String()).Str("type", rec.RecordType).
		Str("patient_id", rec.PatientID.String()).Msg("medical record created")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	return s.records.GetByID(ctx, id)
}

// Update replaces the mutable fields. Only the authoring doctor may update,
// which the handler enforces.
func (s *Service) Update(ctx context.Context, rec *MedicalRecord) error {
	if !validRecordTypes[rec.RecordType] {
		return fmt.Errorf("invalid record type: %s", rec.RecordType)
	}
	if rec.Title == "" {
		return fmt.Errorf("title is required")
	}
	return s.records.Update(ctx, rec)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.records.Delete(ctx, id)
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, recordType string, limit, offset int) ([]*MedicalRecord, int, error) {
	if recordType != "" && !validRecordTypes[recordType] {
		return nil, 0, fmt.Errorf("invalid record type: %s", recordType)
	}
	return s.records.ListByPatient(ctx, patientID, recordType, limit, offset)
}
