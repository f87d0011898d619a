package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrSlotTaken = errors.New("the doctor already has an appointment in this time range")

	ErrBadTransition = errors.New("invalid status transition")
)

var validStatuses = map[string]bool{
	StatusPending: true, StatusConfirmed: true, StatusCancelled: true, StatusCompleted: true,
}

// validTransitions lists the allowed next statuses. Cancelled and completed
// are terminal.
var validTransitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

type Service struct {
	appointments AppointmentRepository
}

func NewService(appointments AppointmentRepository) *Service {
	return &Service{appointments: appointments}
}

// Book creates a pending appointment after checking the doctor's calendar
// for overlap with other pending or confirmed appointments.
func (s *Service) Book(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil || a.DoctorID == uuid.Nil {
		return fmt.Errorf("patient_id and doctor_id are required")
	}
	if a.StartTime.IsZero() || a.EndTime.IsZero() {
		return fmt.Errorf("start_time and end_time are required")
	}
	if !a.EndTime.After(a.StartTime) {
		return fmt.Errorf("end_time must be after start_time")
	}
	if a.StartTime.Before(time.Now()) {
		return fmt.Errorf("appointment must be in the future")
	}
	if a.Motif == "" {
		return fmt.Errorf("motif is required")
	}

	n, err := s.appointments.CountOverlapping(ctx, a.DoctorID, a.StartTime, a.EndTime)
	if err != nil {
		return fmt.Errorf("check calendar: %w", err)
	}
	if n > 0 {
		return ErrSlotTaken
	}

	a.Status = StatusPending
	if err := s.appointments.Create(ctx, a); err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}

	log.Info().Str("appointment_id", a.ID.String()).Str("doctor_id", a.DoctorID.String()).
		Time("start", a.StartTime).Msg("appointment booked")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// UpdateStatus moves the appointment through its lifecycle. Terminal states
// reject every transition.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Appointment, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("invalid appointment status: %s", status)
	}

	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, next := range validTransitions[a.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s -> %s", ErrBadTransition, a.Status, status)
	}

	a.Status = status
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByDoctor(ctx, doctorID, limit, offset)
}
