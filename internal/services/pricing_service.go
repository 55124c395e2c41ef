package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/logger"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/repository"
)

type variantLister interface {
	ListActiveByPriceVersion(ctx context.Context, priceVersion int) ([]models.ContractVariant, error)
}

type studentStore interface {
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	UpdatePriceVersion(ctx context.Context, id int64, version int) error
}

type contractHistoryReader interface {
	EarliestByStudent(ctx context.Context) ([]repository.StudentFirstContract, error)
}

// PricingService resolves which pricing cohort a student belongs to and which
// contract variants that cohort may purchase.
type PricingService struct {
	variants       variantLister
	students       studentStore
	contracts      contractHistoryReader
	currentVersion int
	log            *logger.Logger
}

func NewPricingService(
	variants variantLister,
	students studentStore,
	contracts contractHistoryReader,
	currentVersion int,
	log *logger.Logger,
) *PricingService {
	return &PricingService{
		variants:       variants,
		students:       students,
		contracts:      contracts,
		currentVersion: currentVersion,
		log:            log,
	}
}

// VariantsForStudent returns the active variants of the student's cohort, or
// of the process-wide current cohort when no student is given. A student
// without an assigned version also falls back to the current cohort.
func (s *PricingService) VariantsForStudent(ctx context.Context, studentID *int64) ([]models.ContractVariant, error) {
	version := s.currentVersion
	if studentID != nil {
		student, err := s.students.GetByID(ctx, *studentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrStudentNotFound
			}
			return nil, err
		}
		if student.PriceVersion != nil {
			version = *student.PriceVersion
		}
	}
	return s.variants.ListActiveByPriceVersion(ctx, version)
}

type CreateStudentInput struct {
	Name         string
	TeacherID    *int64
	PriceVersion *int
}

// CreateStudent stores a new student, defaulting the price version to the
// current cohort unless one was explicitly supplied.
func (s *PricingService) CreateStudent(ctx context.Context, input CreateStudentInput) (*models.Student, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	version := input.PriceVersion
	if version == nil {
		current := s.currentVersion
		version = &current
	}

	student := &models.Student{
		Name:         name,
		TeacherID:    input.TeacherID,
		PriceVersion: version,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, mapIntegrityError(err)
	}
	return student, nil
}

type PriceVersionRecompute struct {
	StudentsUpdated int    `json:"students_updated"`
	CountV1         int    `json:"count_v1"`
	CountV2         int    `json:"count_v2"`
	Cutoff          string `json:"cutoff"`
}

// RecomputePriceVersions reclassifies every student with at least one
// contract: earliest contract before the cutoff puts them in cohort 1,
// otherwise cohort 2. Intended for one-off pricing policy changes.
func (s *PricingService) RecomputePriceVersions(ctx context.Context, cutoff time.Time) (*PriceVersionRecompute, error) {
	entries, err := s.contracts.EarliestByStudent(ctx)
	if err != nil {
		return nil, err
	}

	summary := &PriceVersionRecompute{Cutoff: cutoff.Format("2006-01-02")}
	for _, entry := range entries {
		version := 2
		if entry.FirstDate.Before(cutoff) {
			version = 1
		}
		if err := s.students.UpdatePriceVersion(ctx, entry.StudentID, version); err != nil {
			return nil, err
		}
		summary.StudentsUpdated++
		if version == 1 {
			summary.CountV1++
		} else {
			summary.CountV2++
		}
	}

	s.log.Info("price versions recomputed",
		"students_updated", summary.StudentsUpdated,
		"count_v1", summary.CountV1,
		"count_v2", summary.CountV2,
		"cutoff", summary.Cutoff)
	return summary, nil
}
