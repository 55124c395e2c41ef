package models

import "time"

type Lesson struct {
	ID           int64      `json:"id"`
	ContractID   int64      `json:"contract_id"`
	LessonNumber int        `json:"lesson_number"`
	Date         *time.Time `json:"date"`
	IsAvailable  bool       `json:"is_available"`
	Comment      *string    `json:"comment"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
