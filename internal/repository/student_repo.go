package repository

import (
	"context"

	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
)

type StudentRepository struct {
	db DBTX
}

func NewStudentRepository(db DBTX) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	query := `
		INSERT INTO students (name, teacher_id, price_version)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query, student.Name, student.TeacherID, student.PriceVersion).
		Scan(&student.ID, &student.CreatedAt)
}

func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	query := `
		SELECT id, name, teacher_id, price_version, created_at
		FROM students
		WHERE id = $1
	`
	var student models.Student
	err := r.db.QueryRow(ctx, query, id).
		Scan(&student.ID, &student.Name, &student.TeacherID, &student.PriceVersion, &student.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *StudentRepository) UpdatePriceVersion(ctx context.Context, id int64, version int) error {
	query := `UPDATE students SET price_version = $2 WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id, version)
	return err
}
