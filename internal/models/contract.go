package models

import "time"

const (
	ContractStatusActive    = "active"
	ContractStatusCompleted = "completed"
	ContractStatusCancelled = "cancelled"
)

type Contract struct {
	ID              int64           `json:"id"`
	StudentID       int64           `json:"student_id"`
	VariantID       *int64          `json:"variant_id"`
	ContractType    *string         `json:"contract_type"`
	Status          string          `json:"status"`
	AttendanceCount AttendanceCount `json:"attendance_count"`
	AttendanceDates []time.Time     `json:"attendance_dates"`
	Discounts       *[]string       `json:"discounts"`
	PricePerLesson  *float64        `json:"price_per_lesson"`
	MonthlyPrice    *float64        `json:"monthly_price"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ContractVariant struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	LessonCount     *int     `json:"lesson_count"`
	DurationMinutes *int     `json:"duration_minutes"`
	MonthlyPrice    *float64 `json:"monthly_price"`
	PriceVersion    int      `json:"price_version"`
	IsActive        bool     `json:"is_active"`
}
