package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/logger"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/repository"
)

// LessonService is the lesson ledger's write path. Every mutation recomputes
// the owning contract's attendance in the same transaction, mirroring the
// synchronous trigger chain the schema was built around.
type LessonService struct {
	db         *pgxpool.Pool
	attendance *AttendanceService
	notifier   *CompletionNotifier
	log        *logger.Logger
}

func NewLessonService(
	db *pgxpool.Pool,
	attendance *AttendanceService,
	notifier *CompletionNotifier,
	log *logger.Logger,
) *LessonService {
	return &LessonService{
		db:         db,
		attendance: attendance,
		notifier:   notifier,
		log:        log,
	}
}

type CreateLessonInput struct {
	ContractID   int64
	LessonNumber int
	Date         *time.Time
	IsAvailable  bool
	Comment      *string
}

func (s *LessonService) CreateLesson(ctx context.Context, input CreateLessonInput) (*models.Lesson, error) {
	if input.ContractID <= 0 || input.LessonNumber <= 0 {
		return nil, fmt.Errorf("%w: contract_id and lesson_number must be positive", ErrInvalidInput)
	}

	var lesson *models.Lesson
	recompute, err := s.inLessonTx(ctx, func(tx pgx.Tx) (int64, error) {
		created, err := repository.NewLessonRepository(tx).Create(ctx, repository.CreateLessonInput{
			ContractID:   input.ContractID,
			LessonNumber: input.LessonNumber,
			Date:         input.Date,
			IsAvailable:  input.IsAvailable,
			Comment:      input.Comment,
		})
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return 0, ErrContractNotFound
			}
			return 0, mapIntegrityError(err)
		}
		lesson = created
		return created.ContractID, nil
	})
	if err != nil {
		return nil, err
	}
	s.notifyIfFulfilled(ctx, recompute)
	return lesson, nil
}

func (s *LessonService) UpdateLesson(ctx context.Context, lessonID int64, payload map[string]any) (*models.Lesson, error) {
	fields, err := normalizeLessonFields(payload)
	if err != nil {
		return nil, err
	}

	var lesson *models.Lesson
	recompute, err := s.inLessonTx(ctx, func(tx pgx.Tx) (int64, error) {
		updated, err := repository.NewLessonRepository(tx).Update(ctx, lessonID, fields)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, ErrLessonNotFound
			}
			return 0, mapIntegrityError(err)
		}
		lesson = updated
		return updated.ContractID, nil
	})
	if err != nil {
		return nil, err
	}
	s.notifyIfFulfilled(ctx, recompute)
	return lesson, nil
}

func (s *LessonService) DeleteLesson(ctx context.Context, lessonID int64) error {
	recompute, err := s.inLessonTx(ctx, func(tx pgx.Tx) (int64, error) {
		contractID, err := repository.NewLessonRepository(tx).Delete(ctx, lessonID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, ErrLessonNotFound
			}
			return 0, err
		}
		return contractID, nil
	})
	if err != nil {
		return err
	}
	s.notifyIfFulfilled(ctx, recompute)
	return nil
}

func (s *LessonService) GetLesson(ctx context.Context, lessonID int64) (*models.Lesson, error) {
	lesson, err := repository.NewLessonRepository(s.db).GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}
	return lesson, nil
}

func (s *LessonService) ListLessons(ctx context.Context, contractID int64) ([]models.Lesson, error) {
	return repository.NewLessonRepository(s.db).ListByContract(ctx, contractID)
}

// inLessonTx runs one lesson mutation plus the attendance recompute for the
// affected contract in a single transaction.
func (s *LessonService) inLessonTx(
	ctx context.Context,
	mutate func(tx pgx.Tx) (int64, error),
) (*RecomputeResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	contractID, err := mutate(tx)
	if err != nil {
		return nil, err
	}

	recompute, err := s.attendance.Recompute(ctx, tx, contractID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return recompute, nil
}

func (s *LessonService) notifyIfFulfilled(ctx context.Context, recompute *RecomputeResult) {
	if recompute != nil && recompute.Fulfilled {
		s.notifier.NotifyFulfilled(ctx, recompute.Contract)
	}
}

// normalizeLessonFields applies the same presence-based semantics as contract
// writes: only keys in the payload change columns.
func normalizeLessonFields(payload map[string]any) (map[string]any, error) {
	fields := make(map[string]any, len(payload))
	for key, value := range payload {
		switch key {
		case "lesson_number":
			number, err := toID(value)
			if err != nil {
				return nil, fmt.Errorf("%w: lesson_number must be a positive integer", ErrInvalidInput)
			}
			fields[key] = number
		case "date":
			date, err := toNullableDate(value)
			if err != nil {
				return nil, fmt.Errorf("%w: date must be a YYYY-MM-DD string or null", ErrInvalidInput)
			}
			fields[key] = date
		case "is_available":
			available, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: is_available must be a boolean", ErrInvalidInput)
			}
			fields[key] = available
		case "comment":
			comment, err := toNullableString(value)
			if err != nil {
				return nil, fmt.Errorf("%w: comment must be a string", ErrInvalidInput)
			}
			fields[key] = comment
		default:
			return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidInput, key)
		}
	}
	return fields, nil
}

func toNullableDate(value any) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	text, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("not a date string")
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(text))
	if err != nil {
		return nil, err
	}
	return &date, nil
}
