package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
)

var lessonWritableColumns = []string{
	"lesson_number",
	"date",
	"is_available",
	"comment",
}

const lessonSelectColumns = `id, contract_id, lesson_number, date, is_available,
		comment, created_at, updated_at`

type LessonRepository struct {
	db DBTX
}

func NewLessonRepository(db DBTX) *LessonRepository {
	return &LessonRepository{db: db}
}

type CreateLessonInput struct {
	ContractID   int64
	LessonNumber int
	Date         *time.Time
	IsAvailable  bool
	Comment      *string
}

func (r *LessonRepository) Create(ctx context.Context, input CreateLessonInput) (*models.Lesson, error) {
	query := `
		INSERT INTO lessons (contract_id, lesson_number, date, is_available, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + lessonSelectColumns
	return scanLesson(r.db.QueryRow(
		ctx,
		query,
		input.ContractID,
		input.LessonNumber,
		input.Date,
		input.IsAvailable,
		input.Comment,
	))
}

func (r *LessonRepository) GetByID(ctx context.Context, id int64) (*models.Lesson, error) {
	query := `
		SELECT ` + lessonSelectColumns + `
		FROM lessons
		WHERE id = $1
	`
	return scanLesson(r.db.QueryRow(ctx, query, id))
}

// Update changes only the columns present in fields, matching the contract
// writer's presence semantics.
func (r *LessonRepository) Update(ctx context.Context, id int64, fields map[string]any) (*models.Lesson, error) {
	assignments := []string{"updated_at = now()"}
	args := []any{id}
	for _, column := range lessonWritableColumns {
		value, present := fields[column]
		if !present {
			continue
		}
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	for key := range fields {
		known := false
		for _, column := range lessonWritableColumns {
			if key == column {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown lesson field %q", key)
		}
	}

	query := fmt.Sprintf(`
		UPDATE lessons
		SET %s
		WHERE id = $1
		RETURNING `+lessonSelectColumns,
		strings.Join(assignments, ", "),
	)
	return scanLesson(r.db.QueryRow(ctx, query, args...))
}

// Delete removes the lesson and reports which contract it belonged to, so the
// caller can recompute that contract's attendance.
func (r *LessonRepository) Delete(ctx context.Context, id int64) (int64, error) {
	query := `
		DELETE FROM lessons
		WHERE id = $1
		RETURNING contract_id
	`
	var contractID int64
	if err := r.db.QueryRow(ctx, query, id).Scan(&contractID); err != nil {
		return 0, err
	}
	return contractID, nil
}

func (r *LessonRepository) ListByContract(ctx context.Context, contractID int64) ([]models.Lesson, error) {
	query := `
		SELECT ` + lessonSelectColumns + `
		FROM lessons
		WHERE contract_id = $1
		ORDER BY lesson_number
	`
	rows, err := r.db.Query(ctx, query, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		var lesson models.Lesson
		err := rows.Scan(
			&lesson.ID,
			&lesson.ContractID,
			&lesson.LessonNumber,
			&lesson.Date,
			&lesson.IsAvailable,
			&lesson.Comment,
			&lesson.CreatedAt,
			&lesson.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}
	return lessons, rows.Err()
}

type AttendanceFacts struct {
	Available int
	Completed int
	Dates     []time.Time
}

// AttendanceFacts derives the aggregation inputs for one contract: how many
// lessons are available, how many of those carry a date, and the ordered date
// list (available, dated lessons by lesson_number).
func (r *LessonRepository) AttendanceFacts(ctx context.Context, contractID int64) (*AttendanceFacts, error) {
	query := `
		SELECT date, is_available
		FROM lessons
		WHERE contract_id = $1
		ORDER BY lesson_number
	`
	rows, err := r.db.Query(ctx, query, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	facts := &AttendanceFacts{Dates: []time.Time{}}
	for rows.Next() {
		var date *time.Time
		var available bool
		if err := rows.Scan(&date, &available); err != nil {
			return nil, err
		}
		if !available {
			continue
		}
		facts.Available++
		if date != nil {
			facts.Completed++
			facts.Dates = append(facts.Dates, *date)
		}
	}
	return facts, rows.Err()
}

func scanLesson(row pgx.Row) (*models.Lesson, error) {
	var lesson models.Lesson
	err := row.Scan(
		&lesson.ID,
		&lesson.ContractID,
		&lesson.LessonNumber,
		&lesson.Date,
		&lesson.IsAvailable,
		&lesson.Comment,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}
