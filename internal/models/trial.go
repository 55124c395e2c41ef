package models

import "time"

const (
	TrialStatusOpen     = "open"
	TrialStatusAssigned = "assigned"
	TrialStatusAccepted = "accepted"
)

// TrialAppointment is a prospective student's trial lesson. Declining an
// assignment returns the appointment to open; there is no declined status.
type TrialAppointment struct {
	ID          int64     `json:"id"`
	Status      string    `json:"status"`
	TeacherID   *int64    `json:"teacher_id"`
	StudentName string    `json:"student_name"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
