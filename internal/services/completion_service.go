package services

import (
	"context"
	"fmt"

	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/logger"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
)

// evaluateCompletion decides the post-aggregation status of a contract and
// whether the fulfillment notification should fire. The transition is one-way:
// only an active contract that just reached completed==total flips, and a
// completed contract never reverts even if its ratio later drops.
func evaluateCompletion(oldCount, newCount models.AttendanceCount, status string) (string, bool) {
	if status == models.ContractStatusActive && newCount.Complete() && !oldCount.Complete() {
		return models.ContractStatusCompleted, true
	}
	return status, false
}

type fulfillmentStore interface {
	CreateFulfillmentIfAbsent(
		ctx context.Context,
		contractID int64,
		studentID *int64,
		teacherID *int64,
		message string,
	) (bool, error)
}

type studentReader interface {
	GetByID(ctx context.Context, id int64) (*models.Student, error)
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type notificationPusher interface {
	PushNotification(recipientID int64, notification *models.Notification)
}

// CompletionNotifier emits the single fulfillment notification for a
// completed contract. It is strictly best-effort: the completion status on
// the contract row is authoritative and has already been committed, so every
// failure here is logged and swallowed.
type CompletionNotifier struct {
	notifications fulfillmentStore
	students      studentReader
	users         userReader
	variants      variantReader
	hub           notificationPusher
	log           *logger.Logger
}

func NewCompletionNotifier(
	notifications fulfillmentStore,
	students studentReader,
	users userReader,
	variants variantReader,
	hub notificationPusher,
	log *logger.Logger,
) *CompletionNotifier {
	return &CompletionNotifier{
		notifications: notifications,
		students:      students,
		users:         users,
		variants:      variants,
		hub:           hub,
		log:           log,
	}
}

// NotifyFulfilled inserts the fulfillment notification for a contract unless
// one already exists. Callers invoke it after their transaction committed.
func (n *CompletionNotifier) NotifyFulfilled(ctx context.Context, contract *models.Contract) {
	studentID := contract.StudentID
	teacherID := n.resolveTeacherID(ctx, contract)
	message := n.composeMessage(ctx, contract)

	inserted, err := n.notifications.CreateFulfillmentIfAbsent(ctx, contract.ID, &studentID, teacherID, message)
	if err != nil {
		n.log.Error("fulfillment notification insert failed",
			"contract_id", contract.ID, "error", err)
		return
	}
	if !inserted {
		return
	}

	n.log.Info("contract fulfilled", "contract_id", contract.ID,
		"attendance", contract.AttendanceCount.String())

	if n.hub != nil && teacherID != nil {
		n.hub.PushNotification(*teacherID, &models.Notification{
			Type:       models.NotificationTypeFulfilled,
			ContractID: &contract.ID,
			StudentID:  &studentID,
			TeacherID:  teacherID,
			Message:    message,
		})
	}
}

func (n *CompletionNotifier) resolveTeacherID(ctx context.Context, contract *models.Contract) *int64 {
	student, err := n.students.GetByID(ctx, contract.StudentID)
	if err != nil {
		return nil
	}
	return student.TeacherID
}

// composeMessage builds the human-readable notification text. Lookups are
// best-effort; a missing name degrades to a placeholder instead of failing
// the notification.
func (n *CompletionNotifier) composeMessage(ctx context.Context, contract *models.Contract) string {
	studentName := fmt.Sprintf("student %d", contract.StudentID)
	teacherName := "unassigned teacher"
	variantName := "legacy contract"

	if student, err := n.students.GetByID(ctx, contract.StudentID); err == nil {
		studentName = student.Name
		if student.TeacherID != nil {
			if teacher, err := n.users.GetByID(ctx, *student.TeacherID); err == nil {
				teacherName = teacher.Name
			}
		}
	}
	if contract.VariantID != nil {
		if variant, err := n.variants.GetByID(ctx, *contract.VariantID); err == nil {
			variantName = variant.Name
		}
	}

	return fmt.Sprintf(
		"Contract fulfilled: %s with %s (%s), completed on %s",
		studentName,
		teacherName,
		variantName,
		contract.UpdatedAt.Format("02.01.2006 15:04"),
	)
}
