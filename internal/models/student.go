package models

import "time"

type Student struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	TeacherID    *int64    `json:"teacher_id"`
	PriceVersion *int      `json:"price_version"`
	CreatedAt    time.Time `json:"created_at"`
}
