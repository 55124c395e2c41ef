package models

import "time"

const (
	NotificationTypeFulfilled     = "contract_fulfilled"
	NotificationTypeTrialOpen     = "trial_open"
	NotificationTypeTrialAssigned = "trial_assigned"
	NotificationTypeTrialAccepted = "trial_accepted"
)

type Notification struct {
	ID         int64     `json:"id"`
	Type       string    `json:"type"`
	ContractID *int64    `json:"contract_id"`
	TrialID    *int64    `json:"trial_id"`
	TeacherID  *int64    `json:"teacher_id"`
	StudentID  *int64    `json:"student_id"`
	Message    string    `json:"message"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}
