package records

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeConsultation = "consultation"
	TypePrescription = "prescription"
	TypeVitalSigns   = "vital-signs"
	TypeLabResult    = "lab-result"
)

// MedicalRecord maps to the medical_records table. Content is free-form JSON
// whose shape depends on the record type.
type MedicalRecord struct {
	ID         uuid.UUID              `db:"id" json:"id"`
	PatientID  uuid.UUID              `db:"patient_id" json:"patient_id"`
	DoctorID   uuid.UUID              `db:"doctor_id" json:"doctor_id"`
	RecordType string                 `db:"record_type" json:"record_type"`
	Title      string                 `db:"title" json:"title"`
	Content    map[string]interface{} `db:"content" json:"content"`
	RecordedAt time.Time              `db:"recorded_at" json:"recorded_at"`
	CreatedAt  time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time              `db:"updated_at" json:"updated_at"`
}
