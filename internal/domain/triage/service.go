package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Service struct {
	reports ReportRepository
}

func NewService(reports ReportRepository) *Service {
	return &Service{reports: reports}
}

// Diagnose runs the engine over the symptom text and records the report for
// the patient's history.
func (s *Service) Diagnose(ctx context.Context, patientID uuid.UUID, symptomsText string) (*Report, error) {
	symptomsText = strings.TrimSpace(symptomsText)
	if symptomsText == "" {
		return nil, fmt.Errorf("symptoms are required")
	}

	rep := &Report{
		PatientID: patientID,
		Symptoms:  symptomsText,
		Results:   Diagnose(symptomsText),
	}
	if err := s.reports.Create(ctx, rep); err != nil {
		return nil, fmt.Errorf("save triage report: %w", err)
	}

	log.Info().Str("report_id", rep.ID.String()).Int("candidates", len(rep.Results)).
		Msg("triage report created")
	return rep, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.reports.GetByID(ctx, id)
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Report, int, error) {
	return s.reports.ListByPatient(ctx, patientID, limit, offset)
}
