package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
)

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateFulfillmentIfAbsent inserts the single allowed fulfillment
// notification for a contract. Returns false when one already exists.
func (r *NotificationRepository) CreateFulfillmentIfAbsent(
	ctx context.Context,
	contractID int64,
	studentID *int64,
	teacherID *int64,
	message string,
) (bool, error) {
	query := `
		INSERT INTO notifications (type, contract_id, student_id, teacher_id, message)
		SELECT $1, $2, $3, $4, $5
		WHERE NOT EXISTS (
			SELECT 1 FROM notifications WHERE contract_id = $2 AND type = $1
		)
	`
	tag, err := r.db.Exec(
		ctx,
		query,
		models.NotificationTypeFulfilled,
		contractID,
		studentID,
		teacherID,
		message,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CreateTrialIfAbsent inserts a trial notification for one recipient,
// deduplicated by the (trial_id, teacher_id, type) unique index.
func (r *NotificationRepository) CreateTrialIfAbsent(
	ctx context.Context,
	trialID int64,
	recipientID int64,
	notificationType string,
	message string,
) (bool, error) {
	query := `
		INSERT INTO notifications (type, trial_id, teacher_id, message)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (trial_id, teacher_id, type) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, notificationType, trialID, recipientID, message)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *NotificationRepository) DeleteByTrialAndType(
	ctx context.Context,
	trialID int64,
	notificationType string,
) error {
	query := `DELETE FROM notifications WHERE trial_id = $1 AND type = $2`
	_, err := r.db.Exec(ctx, query, trialID, notificationType)
	return err
}

// DeleteAssignment removes one teacher's assignment notification for a trial.
func (r *NotificationRepository) DeleteAssignment(
	ctx context.Context,
	trialID int64,
	teacherID int64,
) error {
	query := `
		DELETE FROM notifications
		WHERE trial_id = $1 AND teacher_id = $2 AND type = $3
	`
	_, err := r.db.Exec(ctx, query, trialID, teacherID, models.NotificationTypeTrialAssigned)
	return err
}

func (r *NotificationRepository) DeleteAllForTrial(ctx context.Context, trialID int64) error {
	query := `DELETE FROM notifications WHERE trial_id = $1`
	_, err := r.db.Exec(ctx, query, trialID)
	return err
}

// ListForRecipient returns notifications addressed to a user, newest first.
// The teacher_id column holds the recipient for both teacher and admin
// notifications.
func (r *NotificationRepository) ListForRecipient(ctx context.Context, userID int64) ([]models.Notification, error) {
	query := `
		SELECT id, type, contract_id, trial_id, teacher_id, student_id, message, is_read, created_at
		FROM notifications
		WHERE teacher_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(
			&n.ID,
			&n.Type,
			&n.ContractID,
			&n.TrialID,
			&n.TeacherID,
			&n.StudentID,
			&n.Message,
			&n.IsRead,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id int64, userID int64) error {
	query := `
		UPDATE notifications
		SET is_read = true
		WHERE id = $1 AND teacher_id = $2
	`
	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
