package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/logger"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/repository"
)

type userDirectory interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	ListByRole(ctx context.Context, role string) ([]models.User, error)
}

// TrialService routes trial appointment notifications. Each event resolves
// the actor's role once, mutates the appointment under a blocking advisory
// lock, and rewrites the notification set for the trial inside the same
// transaction; the dedupe lives in the (trial, recipient, type) unique index.
type TrialService struct {
	db    *pgxpool.Pool
	users userDirectory
	hub   notificationPusher
	log   *logger.Logger
}

func NewTrialService(
	db *pgxpool.Pool,
	users userDirectory,
	hub notificationPusher,
	log *logger.Logger,
) *TrialService {
	return &TrialService{db: db, users: users, hub: hub, log: log}
}

func (s *TrialService) CreateTrial(ctx context.Context, actorID int64, studentName string) (*models.TrialAppointment, error) {
	studentName = strings.TrimSpace(studentName)
	if studentName == "" {
		return nil, fmt.Errorf("%w: student_name is required", ErrInvalidInput)
	}

	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	teachers, err := s.users.ListByRole(ctx, models.RoleTeacher)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	trial, err := repository.NewTrialRepository(tx).Create(ctx, studentName, actorID)
	if err != nil {
		return nil, err
	}

	recipients := excludeUsers(teachers, openBroadcastExclusions(actor)...)
	notifications, err := s.insertTrialNotifications(
		ctx, tx, trial.ID, recipients,
		models.NotificationTypeTrialOpen,
		fmt.Sprintf("New trial lesson request from %s", studentName),
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.pushAll(notifications)
	return trial, nil
}

// Assign hands an open trial to one teacher: open-trial broadcasts are
// withdrawn and only the assignee is notified. Teachers may only claim for
// themselves; admins may assign anyone.
func (s *TrialService) Assign(ctx context.Context, actorID, trialID, teacherID int64) (*models.TrialAppointment, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleTeacher && teacherID != actorID {
		return nil, ErrForbidden
	}

	teacher, err := s.users.GetByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: teacher %d", ErrInvalidInput, teacherID)
		}
		return nil, err
	}
	if teacher.Role != models.RoleTeacher {
		return nil, fmt.Errorf("%w: user %d is not a teacher", ErrInvalidInput, teacherID)
	}

	var notifications []*models.Notification
	trial, err := s.inTrialTx(ctx, trialID, func(tx pgx.Tx, trial *models.TrialAppointment) (*models.TrialAppointment, error) {
		if trial.Status != models.TrialStatusOpen {
			return nil, ErrInvalidStateTransition
		}

		txNotifRepo := repository.NewNotificationRepository(tx)
		if err := txNotifRepo.DeleteByTrialAndType(ctx, trial.ID, models.NotificationTypeTrialOpen); err != nil {
			return nil, err
		}

		updated, err := repository.NewTrialRepository(tx).
			SetStatus(ctx, trial.ID, models.TrialStatusAssigned, &teacherID)
		if err != nil {
			return nil, err
		}

		notifications, err = s.insertTrialNotifications(
			ctx, tx, trial.ID, []models.User{*teacher},
			models.NotificationTypeTrialAssigned,
			fmt.Sprintf("Trial lesson with %s has been assigned to you", trial.StudentName),
		)
		if err != nil {
			return nil, err
		}
		return updated, nil
	})
	if err != nil {
		return nil, err
	}

	s.pushAll(notifications)
	return trial, nil
}

// Decline returns an assigned trial to open: the decliner's assignment
// notification is removed and the trial is rebroadcast to all other teachers.
func (s *TrialService) Decline(ctx context.Context, actorID, trialID int64) (*models.TrialAppointment, error) {
	if _, err := s.resolveActor(ctx, actorID); err != nil {
		return nil, err
	}

	teachers, err := s.users.ListByRole(ctx, models.RoleTeacher)
	if err != nil {
		return nil, err
	}

	var notifications []*models.Notification
	trial, err := s.inTrialTx(ctx, trialID, func(tx pgx.Tx, trial *models.TrialAppointment) (*models.TrialAppointment, error) {
		if trial.Status != models.TrialStatusAssigned || trial.TeacherID == nil {
			return nil, ErrInvalidStateTransition
		}
		if *trial.TeacherID != actorID {
			return nil, ErrForbidden
		}

		txNotifRepo := repository.NewNotificationRepository(tx)
		if err := txNotifRepo.DeleteAssignment(ctx, trial.ID, *trial.TeacherID); err != nil {
			return nil, err
		}

		updated, err := repository.NewTrialRepository(tx).
			SetStatus(ctx, trial.ID, models.TrialStatusOpen, nil)
		if err != nil {
			return nil, err
		}

		notifications, err = s.insertTrialNotifications(
			ctx, tx, trial.ID, excludeUsers(teachers, actorID),
			models.NotificationTypeTrialOpen,
			fmt.Sprintf("New trial lesson request from %s", trial.StudentName),
		)
		if err != nil {
			return nil, err
		}
		return updated, nil
	})
	if err != nil {
		return nil, err
	}

	s.pushAll(notifications)
	return trial, nil
}

// Accept finalizes an assigned trial: every notification for the trial is
// withdrawn and the admins are informed, except an admin accepting their own
// action.
func (s *TrialService) Accept(ctx context.Context, actorID, trialID int64) (*models.TrialAppointment, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	admins, err := s.users.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	var notifications []*models.Notification
	trial, err := s.inTrialTx(ctx, trialID, func(tx pgx.Tx, trial *models.TrialAppointment) (*models.TrialAppointment, error) {
		if trial.Status != models.TrialStatusAssigned || trial.TeacherID == nil {
			return nil, ErrInvalidStateTransition
		}
		if actor.Role == models.RoleTeacher && *trial.TeacherID != actorID {
			return nil, ErrForbidden
		}

		txNotifRepo := repository.NewNotificationRepository(tx)
		if err := txNotifRepo.DeleteAllForTrial(ctx, trial.ID); err != nil {
			return nil, err
		}

		updated, err := repository.NewTrialRepository(tx).
			SetStatus(ctx, trial.ID, models.TrialStatusAccepted, trial.TeacherID)
		if err != nil {
			return nil, err
		}

		teacherName := fmt.Sprintf("teacher %d", *trial.TeacherID)
		if teacher, err := s.users.GetByID(ctx, *trial.TeacherID); err == nil {
			teacherName = teacher.Name
		}

		recipients := admins
		if actor.Role == models.RoleAdmin {
			recipients = excludeUsers(admins, actorID)
		}
		notifications, err = s.insertTrialNotifications(
			ctx, tx, trial.ID, recipients,
			models.NotificationTypeTrialAccepted,
			fmt.Sprintf("Trial lesson with %s was accepted by %s", trial.StudentName, teacherName),
		)
		if err != nil {
			return nil, err
		}
		return updated, nil
	})
	if err != nil {
		return nil, err
	}

	s.pushAll(notifications)
	return trial, nil
}

func (s *TrialService) GetTrial(ctx context.Context, trialID int64) (*models.TrialAppointment, error) {
	trial, err := repository.NewTrialRepository(s.db).GetByID(ctx, trialID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrialNotFound
		}
		return nil, err
	}
	return trial, nil
}

func (s *TrialService) resolveActor(ctx context.Context, actorID int64) (*models.User, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	return actor, nil
}

// inTrialTx loads the trial under a blocking advisory lock and row lock, runs
// the event, and commits. Double-assign races serialize here.
func (s *TrialService) inTrialTx(
	ctx context.Context,
	trialID int64,
	event func(tx pgx.Tx, trial *models.TrialAppointment) (*models.TrialAppointment, error),
) (*models.TrialAppointment, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := advisoryLock(ctx, tx, trialLockKey(trialID)); err != nil {
		return nil, err
	}

	trial, err := repository.NewTrialRepository(tx).GetByIDForUpdate(ctx, trialID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrialNotFound
		}
		return nil, err
	}

	updated, err := event(tx, trial)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *TrialService) insertTrialNotifications(
	ctx context.Context,
	tx pgx.Tx,
	trialID int64,
	recipients []models.User,
	notificationType string,
	message string,
) ([]*models.Notification, error) {
	txNotifRepo := repository.NewNotificationRepository(tx)
	var inserted []*models.Notification
	for _, recipient := range recipients {
		recipientID := recipient.ID
		created, err := txNotifRepo.CreateTrialIfAbsent(ctx, trialID, recipientID, notificationType, message)
		if err != nil {
			return nil, err
		}
		if !created {
			continue
		}
		trialRef := trialID
		inserted = append(inserted, &models.Notification{
			Type:      notificationType,
			TrialID:   &trialRef,
			TeacherID: &recipientID,
			Message:   message,
		})
	}
	return inserted, nil
}

func (s *TrialService) pushAll(notifications []*models.Notification) {
	if s.hub == nil {
		return
	}
	for _, notification := range notifications {
		if notification.TeacherID != nil {
			s.hub.PushNotification(*notification.TeacherID, notification)
		}
	}
}

// openBroadcastExclusions suppresses the creator's own notification when the
// creator is a teacher; admins creating a trial still broadcast to everyone.
func openBroadcastExclusions(creator *models.User) []int64 {
	if creator.Role == models.RoleTeacher {
		return []int64{creator.ID}
	}
	return nil
}

func excludeUsers(users []models.User, excluded ...int64) []models.User {
	if len(excluded) == 0 {
		return users
	}
	result := make([]models.User, 0, len(users))
	for _, user := range users {
		skip := false
		for _, id := range excluded {
			if user.ID == id {
				skip = true
				break
			}
		}
		if !skip {
			result = append(result, user)
		}
	}
	return result
}
