package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Appointment Repository --

type mockAppointmentRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	m.appointments[a.ID] = a
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockAppointmentRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.appointments[a.ID]; !ok {
		return ErrNotFound
	}
	m.appointments[a.ID] = a
	return nil
}

func (m *mockAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appointments {
		if a.PatientID == patientID {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

func (m *mockAppointmentRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appointments {
		if a.DoctorID == doctorID {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

func (m *mockAppointmentRepo) CountOverlapping(_ context.Context, doctorID uuid.UUID, start, end time.Time) (int, error) {
	n := 0
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && a.Active() && a.StartTime.Before(end) && a.EndTime.After(start) {
			n++
		}
	}
	return n, nil
}

func futureSlot(hours int) (time.Time, time.Time) {
	start := time.Now().Add(time.Duration(hours) * time.Hour).Truncate(time.Minute)
	return start, start.Add(30 * time.Minute)
}

func newAppointment(patientID, doctorID uuid.UUID, start, end time.Time) *Appointment {
	return &Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartTime: start,
		EndTime:   end,
		Motif:     "consultation",
	}
}

func TestBook(t *testing.T) {
	svc := NewService(newMockAppointmentRepo())
	start, end := futureSlot(24)

	a := newAppointment(uuid.New(), uuid.New(), start, end)
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("book: %v", err)
	}
	if a.Status != StatusPending {
		t.Errorf("new appointments start pending, got %s", a.Status)
	}
}

func TestBook_Validation(t *testing.T) {
	svc := NewService(newMockAppointmentRepo())
	start, end := futureSlot(24)
	patientID, doctorID := uuid.New(), uuid.New()

	cases := []struct {
		name string
		a    *Appointment
	}{
		{"missing doctor", newAppointment(patientID, uuid.Nil, start, end)},
		{"missing patient", newAppointment(uuid.Nil, doctorID, start, end)},
		{"end before start", newAppointment(patientID, doctorID, end, start)},
		{"in the past", newAppointment(patientID, doctorID, start.Add(-48*time.Hour), end.Add(-48*time.Hour))},
		{"missing motif", &Appointment{PatientID: patientID, DoctorID: doctorID, StartTime: start, EndTime: end}},
	}
	for _, tc := range cases {
		if err := svc.Book(context.Background(), tc.a); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestBook_OverlapRejected(t *testing.T) {
	repo := newMockAppointmentRepo()
	svc := NewService(repo)
	doctorID := uuid.New()
	start, end := futureSlot(24)

	if err := svc.Book(context.Background(), newAppointment(uuid.New(), doctorID, start, end)); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// same slot, other patient
	err := svc.Book(context.Background(), newAppointment(uuid.New(), doctorID, start, end))
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	// partial overlap
	err = svc.Book(context.Background(), newAppointment(uuid.New(), doctorID, start.Add(15*time.Minute), end.Add(15*time.Minute)))
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken for partial overlap, got %v", err)
	}

	// back to back is fine
	if err := svc.Book(context.Background(), newAppointment(uuid.New(), doctorID, end, end.Add(30*time.Minute))); err != nil {
		t.Fatalf("adjacent slot rejected: %v", err)
	}

	// other doctor, same slot is fine
	if err := svc.Book(context.Background(), newAppointment(uuid.New(), uuid.New(), start, end)); err != nil {
		t.Fatalf("other doctor's slot rejected: %v", err)
	}
}

func TestBook_CancelledSlotReusable(t *testing.T) {
	repo := newMockAppointmentRepo()
	svc := NewService(repo)
	doctorID := uuid.New()
	start, end := futureSlot(24)

	a := newAppointment(uuid.New(), doctorID, start, end)
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), a.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if err := svc.Book(context.Background(), newAppointment(uuid.New(), doctorID, start, end)); err != nil {
		t.Fatalf("cancelled slot should be free again: %v", err)
	}
}

func TestUpdateStatus_Transitions(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
	}
	for _, tc := range cases {
		repo := newMockAppointmentRepo()
		svc := NewService(repo)
		start, end := futureSlot(24)
		a := newAppointment(uuid.New(), uuid.New(), start, end)
		if err := svc.Book(context.Background(), a); err != nil {
			t.Fatalf("book: %v", err)
		}
		a.Status = tc.from
		repo.appointments[a.ID] = a

		_, err := svc.UpdateStatus(context.Background(), a.ID, tc.to)
		if tc.ok && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok && !errors.Is(err, ErrBadTransition) {
			t.Errorf("%s -> %s: expected ErrBadTransition, got %v", tc.from, tc.to, err)
		}
	}
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	svc := NewService(newMockAppointmentRepo())
	if _, err := svc.UpdateStatus(context.Background(), uuid.New(), "archived"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
