package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
)

const trialSelectColumns = `id, status, teacher_id, student_name, created_by,
		created_at, updated_at`

type TrialRepository struct {
	db DBTX
}

func NewTrialRepository(db DBTX) *TrialRepository {
	return &TrialRepository{db: db}
}

func (r *TrialRepository) Create(ctx context.Context, studentName string, createdBy int64) (*models.TrialAppointment, error) {
	query := `
		INSERT INTO trial_appointments (status, student_name, created_by)
		VALUES ($1, $2, $3)
		RETURNING ` + trialSelectColumns
	return scanTrial(r.db.QueryRow(ctx, query, models.TrialStatusOpen, studentName, createdBy))
}

func (r *TrialRepository) GetByID(ctx context.Context, id int64) (*models.TrialAppointment, error) {
	query := `
		SELECT ` + trialSelectColumns + `
		FROM trial_appointments
		WHERE id = $1
	`
	return scanTrial(r.db.QueryRow(ctx, query, id))
}

func (r *TrialRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.TrialAppointment, error) {
	query := `
		SELECT ` + trialSelectColumns + `
		FROM trial_appointments
		WHERE id = $1
		FOR UPDATE
	`
	return scanTrial(r.db.QueryRow(ctx, query, id))
}

func (r *TrialRepository) SetStatus(
	ctx context.Context,
	id int64,
	status string,
	teacherID *int64,
) (*models.TrialAppointment, error) {
	query := `
		UPDATE trial_appointments
		SET status = $2, teacher_id = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + trialSelectColumns
	return scanTrial(r.db.QueryRow(ctx, query, id, status, teacherID))
}

func scanTrial(row pgx.Row) (*models.TrialAppointment, error) {
	var trial models.TrialAppointment
	err := row.Scan(
		&trial.ID,
		&trial.Status,
		&trial.TeacherID,
		&trial.StudentName,
		&trial.CreatedBy,
		&trial.CreatedAt,
		&trial.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &trial, nil
}
