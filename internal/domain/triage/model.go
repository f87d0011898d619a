package triage

import (
	"time"

	"github.com/google/uuid"
)

// Report maps to the triage_reports table and keeps a patient's symptom
// submission together with the candidates the engine produced.
type Report struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	PatientID uuid.UUID   `db:"patient_id" json:"patient_id"`
	Symptoms  string      `db:"symptoms" json:"symptoms"`
	Results   []Diagnosis `db:"results" json:"results"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}
