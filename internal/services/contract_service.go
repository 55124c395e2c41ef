package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/logger"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/repository"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrOperationInProgress    = errors.New("contract operation already in progress")
	ErrContractNotFound       = errors.New("contract not found")
	ErrStudentNotFound        = errors.New("student not found")
	ErrLessonNotFound         = errors.New("lesson not found")
	ErrTrialNotFound          = errors.New("trial appointment not found")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrIntegrity              = errors.New("integrity violation")
	ErrDownstreamSync         = errors.New("attendance sync failed")
)

type auditAppender interface {
	Append(ctx context.Context, entry *models.ContractOperationLog) error
}

// ContractService is the single write path for contracts. Every call is
// serialized per contract by a transaction-scoped advisory lock, audited
// before and after the mutation, and followed by an attendance recompute in
// the same transaction.
type ContractService struct {
	db         *pgxpool.Pool
	auditLog   auditAppender
	attendance *AttendanceService
	notifier   *CompletionNotifier
	log        *logger.Logger
}

func NewContractService(
	db *pgxpool.Pool,
	auditLog auditAppender,
	attendance *AttendanceService,
	notifier *CompletionNotifier,
	log *logger.Logger,
) *ContractService {
	return &ContractService{
		db:         db,
		auditLog:   auditLog,
		attendance: attendance,
		notifier:   notifier,
		log:        log,
	}
}

type SaveContractInput struct {
	Payload    map[string]any
	IsUpdate   bool
	ContractID *int64
	ActorID    *int64
}

type SaveContractResult struct {
	ContractID int64  `json:"contract_id"`
	Message    string `json:"message"`
	Created    bool   `json:"created"`
}

// SaveAndSync creates or updates a contract from a field map and reconciles
// its attendance projection. Update semantics are presence-based: a column
// changes only when its key appears in the payload, and status is never
// touched unless the caller named it. The audit trail is written through the
// pool, outside the operation's transaction, so the failed entry survives the
// rollback it reports.
func (s *ContractService) SaveAndSync(ctx context.Context, input SaveContractInput) (*SaveContractResult, error) {
	operationType := "create"
	if input.IsUpdate {
		operationType = "update"
	}
	if input.IsUpdate && input.ContractID == nil {
		return nil, fmt.Errorf("%w: contract_id is required for updates", ErrInvalidInput)
	}
	if !input.IsUpdate && input.ContractID != nil {
		return nil, fmt.Errorf("%w: contract_id must not be set on create", ErrInvalidInput)
	}

	fields, err := normalizeContractFields(input.Payload, input.IsUpdate)
	if err != nil {
		return nil, err
	}

	details := describeFields(fields)
	if err := s.auditLog.Append(ctx, &models.ContractOperationLog{
		ContractID:    input.ContractID,
		OperationType: operationType,
		Status:        models.OperationStatusStarted,
		Details:       &details,
		ActorID:       input.ActorID,
	}); err != nil {
		return nil, err
	}

	contract, recompute, err := s.execute(ctx, input, fields)
	if err != nil {
		errText := err.Error()
		s.appendTerminalAudit(ctx, &models.ContractOperationLog{
			ContractID:    input.ContractID,
			OperationType: operationType,
			Status:        models.OperationStatusFailed,
			Error:         &errText,
			ActorID:       input.ActorID,
		})
		return nil, err
	}

	s.appendTerminalAudit(ctx, &models.ContractOperationLog{
		ContractID:    &contract.ID,
		OperationType: operationType,
		Status:        models.OperationStatusSuccess,
		Details:       &details,
		ActorID:       input.ActorID,
	})

	if recompute != nil && recompute.Fulfilled {
		s.notifier.NotifyFulfilled(ctx, recompute.Contract)
	}

	message := "contract updated"
	if !input.IsUpdate {
		message = "contract created"
	}
	return &SaveContractResult{
		ContractID: contract.ID,
		Message:    message,
		Created:    !input.IsUpdate,
	}, nil
}

func (s *ContractService) execute(
	ctx context.Context,
	input SaveContractInput,
	fields map[string]any,
) (*models.Contract, *RecomputeResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var lockKey int64
	if input.IsUpdate {
		lockKey = contractLockKey(*input.ContractID)
	} else {
		lockKey = tokenLockKey(uuid.NewString())
	}
	locked, err := tryAdvisoryLock(ctx, tx, lockKey)
	if err != nil {
		return nil, nil, err
	}
	if !locked {
		return nil, nil, ErrOperationInProgress
	}

	txContractRepo := repository.NewContractRepository(tx)
	txStudentRepo := repository.NewStudentRepository(tx)

	var contract *models.Contract
	if input.IsUpdate {
		contract, err = txContractRepo.Update(ctx, *input.ContractID, fields)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil, ErrContractNotFound
			}
			return nil, nil, mapIntegrityError(err)
		}
	} else {
		studentID := fields["student_id"].(int64)
		if _, err := txStudentRepo.GetByID(ctx, studentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil, ErrStudentNotFound
			}
			return nil, nil, err
		}
		contract, err = txContractRepo.Create(ctx, fields)
		if err != nil {
			return nil, nil, mapIntegrityError(err)
		}
	}

	// Reconciliation: re-derive the attendance projection in the same
	// transaction. Errors propagate and roll back the whole write.
	recompute, err := s.attendance.Recompute(ctx, tx, contract.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDownstreamSync, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return contract, recompute, nil
}

// appendTerminalAudit never fails the operation it documents.
func (s *ContractService) appendTerminalAudit(ctx context.Context, entry *models.ContractOperationLog) {
	if err := s.auditLog.Append(ctx, entry); err != nil {
		s.log.Error("contract audit append failed",
			"operation", entry.OperationType, "status", entry.Status, "error", err)
	}
}

var contractStatuses = map[string]bool{
	models.ContractStatusActive:    true,
	models.ContractStatusCompleted: true,
	models.ContractStatusCancelled: true,
}

// normalizeContractFields coerces the semi-structured payload into typed
// column values. Presence is meaning: keys absent from the payload are absent
// from the result and leave the stored value untouched. Empty and missing
// discount lists both normalize to NULL so "no discounts" has one encoding.
func normalizeContractFields(payload map[string]any, isUpdate bool) (map[string]any, error) {
	fields := make(map[string]any, len(payload))
	for key, value := range payload {
		switch key {
		case "student_id", "variant_id":
			id, err := toID(value)
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be a positive integer", ErrInvalidInput, key)
			}
			fields[key] = id
		case "contract_type":
			text, err := toNullableString(value)
			if err != nil {
				return nil, fmt.Errorf("%w: contract_type must be a string", ErrInvalidInput)
			}
			fields[key] = text
		case "status":
			text, ok := value.(string)
			if !ok || !contractStatuses[text] {
				return nil, fmt.Errorf("%w: status must be one of active, completed, cancelled", ErrInvalidInput)
			}
			fields[key] = text
		case "discounts":
			discounts, err := toDiscountList(value)
			if err != nil {
				return nil, fmt.Errorf("%w: discounts must be a list of strings", ErrInvalidInput)
			}
			fields[key] = discounts
		case "price_per_lesson", "monthly_price":
			price, err := toNullableFloat(value)
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidInput, key)
			}
			fields[key] = price
		default:
			return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidInput, key)
		}
	}

	if !isUpdate {
		if _, present := fields["student_id"]; !present {
			return nil, fmt.Errorf("%w: student_id is required", ErrInvalidInput)
		}
	}
	return fields, nil
}

func toID(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		if v > 0 {
			return v, nil
		}
	case int:
		if v > 0 {
			return int64(v), nil
		}
	case float64:
		if v > 0 && v == float64(int64(v)) {
			return int64(v), nil
		}
	}
	return 0, fmt.Errorf("not a positive integer")
}

func toNullableString(value any) (*string, error) {
	if value == nil {
		return nil, nil
	}
	text, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("not a string")
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return &text, nil
}

func toNullableFloat(value any) (*float64, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64:
		return &v, nil
	case int:
		f := float64(v)
		return &f, nil
	case int64:
		f := float64(v)
		return &f, nil
	}
	return nil, fmt.Errorf("not a number")
}

// toDiscountList returns nil for both empty and absent-style values: an empty
// collection is never stored.
func toDiscountList(value any) (*[]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []string:
		if len(v) == 0 {
			return nil, nil
		}
		list := v
		return &list, nil
	case []any:
		if len(v) == 0 {
			return nil, nil
		}
		list := make([]string, 0, len(v))
		for _, item := range v {
			text, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("not a string list")
			}
			list = append(list, text)
		}
		return &list, nil
	}
	return nil, fmt.Errorf("not a string list")
}

func describeFields(fields map[string]any) string {
	if len(fields) == 0 {
		return "no fields"
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return "fields: " + strings.Join(keys, ", ")
}

func mapIntegrityError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %s", ErrIntegrity, pgErr.Message)
	}
	return err
}
