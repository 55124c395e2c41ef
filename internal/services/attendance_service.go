package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/logger"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/queue"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/repository"
)

// fallbackLessonTotal is the denominator of last resort for contracts whose
// variant is missing a lesson count and whose legacy type is unknown.
const fallbackLessonTotal = 12

// legacyLessonTotals maps pre-variant contract types to their lesson counts.
var legacyLessonTotals = map[string]int{
	"ten_lessons":    10,
	"twenty_lessons": 20,
	"half_year":      18,
	"full_year":      36,
}

type variantReader interface {
	GetByID(ctx context.Context, id int64) (*models.ContractVariant, error)
}

type AttendanceService struct {
	db       *pgxpool.Pool
	queue    queue.RecomputeQueue
	notifier *CompletionNotifier
	log      *logger.Logger
}

func NewAttendanceService(
	db *pgxpool.Pool,
	recomputeQueue queue.RecomputeQueue,
	notifier *CompletionNotifier,
	log *logger.Logger,
) *AttendanceService {
	return &AttendanceService{
		db:       db,
		queue:    recomputeQueue,
		notifier: notifier,
		log:      log,
	}
}

type RecomputeResult struct {
	Skipped   bool
	Changed   bool
	Fulfilled bool
	Available int
	OldCount  models.AttendanceCount
	NewCount  models.AttendanceCount
	Contract  *models.Contract
}

// Recompute re-derives a contract's attendance counts and date list from its
// lessons, inside the caller's transaction. On advisory lock contention the
// update is skipped, not blocked: the contract id goes on the follow-up queue
// and the next lesson mutation (or the queue worker) repairs it.
func (s *AttendanceService) Recompute(
	ctx context.Context,
	tx repository.DBTX,
	contractID int64,
) (*RecomputeResult, error) {
	locked, err := tryAdvisoryLock(ctx, tx, contractLockKey(contractID))
	if err != nil {
		return nil, err
	}
	if !locked {
		if err := s.queue.Enqueue(ctx, contractID); err != nil {
			s.log.Warn("follow-up recompute enqueue failed",
				"contract_id", contractID, "error", err)
		}
		s.log.Info("attendance recompute skipped, contract locked elsewhere",
			"contract_id", contractID)
		return &RecomputeResult{Skipped: true}, nil
	}
	return s.recomputeLocked(ctx, tx, contractID)
}

func (s *AttendanceService) recomputeLocked(
	ctx context.Context,
	tx repository.DBTX,
	contractID int64,
) (*RecomputeResult, error) {
	contractRepo := repository.NewContractRepository(tx)
	lessonRepo := repository.NewLessonRepository(tx)
	variantRepo := repository.NewVariantRepository(tx)

	// Row lock on top of the advisory lock: writers outside the advisory
	// protocol still serialize against the recompute.
	contract, err := contractRepo.GetByIDForUpdate(ctx, contractID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContractNotFound
		}
		return nil, err
	}

	facts, err := lessonRepo.AttendanceFacts(ctx, contractID)
	if err != nil {
		return nil, err
	}

	total, err := resolveLessonTotal(ctx, variantRepo, contract)
	if err != nil {
		return nil, err
	}

	newCount := buildAttendanceCount(facts.Completed, total)
	status, fulfilled := evaluateCompletion(contract.AttendanceCount, newCount, contract.Status)

	result := &RecomputeResult{
		Available: facts.Available,
		OldCount:  contract.AttendanceCount,
		NewCount:  newCount,
		Fulfilled: fulfilled,
		Contract:  contract,
	}

	if newCount == contract.AttendanceCount &&
		status == contract.Status &&
		datesEqual(facts.Dates, contract.AttendanceDates) {
		return result, nil
	}

	if err := contractRepo.UpdateAttendance(ctx, contractID, newCount.String(), facts.Dates, status); err != nil {
		return nil, err
	}
	result.Changed = true
	contract.AttendanceCount = newCount
	contract.AttendanceDates = facts.Dates
	contract.Status = status
	contract.UpdatedAt = time.Now().UTC()
	return result, nil
}

// FixAttendance is the privileged deterministic recompute. Unlike the
// in-pipeline variant it blocks on the advisory lock instead of skipping, so
// the caller always gets a recomputed row.
func (s *AttendanceService) FixAttendance(ctx context.Context, contractID int64) (string, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := advisoryLock(ctx, tx, contractLockKey(contractID)); err != nil {
		return "", err
	}

	result, err := s.recomputeLocked(ctx, tx, contractID)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}

	if result.Fulfilled {
		s.notifier.NotifyFulfilled(ctx, result.Contract)
	}

	summary := fmt.Sprintf(
		"attendance recomputed for contract %d: %s, %d available lessons, %d dates",
		contractID, result.NewCount, result.Available, len(result.Contract.AttendanceDates),
	)
	if !result.Changed {
		summary = fmt.Sprintf(
			"attendance already consistent for contract %d: %s",
			contractID, result.NewCount,
		)
	}
	return summary, nil
}

// buildAttendanceCount forms the pair that gets persisted. More dated lessons
// than the denominator can exist (legacy imports, manually added rows); the
// completed value is capped at the total so the stored ratio never exceeds it
// and full attendance still completes the contract.
func buildAttendanceCount(completed, total int) models.AttendanceCount {
	if total > 0 && completed > total {
		completed = total
	}
	return models.AttendanceCount{Completed: completed, Total: total}
}

// resolveLessonTotal picks the contract's denominator: the variant's lesson
// count wins, then the legacy type default, then the constant fallback.
func resolveLessonTotal(ctx context.Context, variants variantReader, contract *models.Contract) (int, error) {
	if contract.VariantID != nil {
		variant, err := variants.GetByID(ctx, *contract.VariantID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return 0, err
		}
		if err == nil && variant.LessonCount != nil && *variant.LessonCount > 0 {
			return *variant.LessonCount, nil
		}
	}
	if contract.ContractType != nil {
		if total, ok := legacyLessonTotals[*contract.ContractType]; ok {
			return total, nil
		}
	}
	return fallbackLessonTotal, nil
}

func datesEqual(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
