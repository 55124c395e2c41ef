package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/logger"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/repository"
)

type stubVariantLister struct {
	lastVersion int
	variants    []models.ContractVariant
	err         error
}

func (s *stubVariantLister) ListActiveByPriceVersion(_ context.Context, priceVersion int) ([]models.ContractVariant, error) {
	s.lastVersion = priceVersion
	return s.variants, s.err
}

type stubStudentStore struct {
	students map[int64]*models.Student
	updates  map[int64]int
	created  *models.Student
}

func newStubStudentStore(students ...*models.Student) *stubStudentStore {
	store := &stubStudentStore{
		students: make(map[int64]*models.Student),
		updates:  make(map[int64]int),
	}
	for _, student := range students {
		store.students[student.ID] = student
	}
	return store
}

func (s *stubStudentStore) GetByID(_ context.Context, id int64) (*models.Student, error) {
	student, ok := s.students[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return student, nil
}

func (s *stubStudentStore) Create(_ context.Context, student *models.Student) error {
	student.ID = int64(len(s.students) + 1)
	s.students[student.ID] = student
	s.created = student
	return nil
}

func (s *stubStudentStore) UpdatePriceVersion(_ context.Context, id int64, version int) error {
	s.updates[id] = version
	return nil
}

type stubContractHistory struct {
	entries []repository.StudentFirstContract
	err     error
}

func (s *stubContractHistory) EarliestByStudent(_ context.Context) ([]repository.StudentFirstContract, error) {
	return s.entries, s.err
}

func TestVariantsForStudentDefaultsToCurrentVersion(t *testing.T) {
	lister := &stubVariantLister{}
	service := NewPricingService(lister, newStubStudentStore(), &stubContractHistory{}, 2, logger.NewNop())

	if _, err := service.VariantsForStudent(context.Background(), nil); err != nil {
		t.Fatalf("VariantsForStudent: %v", err)
	}
	if lister.lastVersion != 2 {
		t.Fatalf("no student should resolve to current version 2, got %d", lister.lastVersion)
	}
}

func TestVariantsForStudentUsesStudentCohort(t *testing.T) {
	version := 1
	studentID := int64(5)
	lister := &stubVariantLister{}
	service := NewPricingService(
		lister,
		newStubStudentStore(&models.Student{ID: 5, Name: "Mia Bauer", PriceVersion: &version}),
		&stubContractHistory{},
		2,
		logger.NewNop(),
	)

	if _, err := service.VariantsForStudent(context.Background(), &studentID); err != nil {
		t.Fatalf("VariantsForStudent: %v", err)
	}
	if lister.lastVersion != 1 {
		t.Fatalf("student cohort must win over current version, got %d", lister.lastVersion)
	}
}

func TestVariantsForStudentWithoutCohortFallsBack(t *testing.T) {
	studentID := int64(5)
	lister := &stubVariantLister{}
	service := NewPricingService(
		lister,
		newStubStudentStore(&models.Student{ID: 5, Name: "Mia Bauer"}),
		&stubContractHistory{},
		2,
		logger.NewNop(),
	)

	if _, err := service.VariantsForStudent(context.Background(), &studentID); err != nil {
		t.Fatalf("VariantsForStudent: %v", err)
	}
	if lister.lastVersion != 2 {
		t.Fatalf("unversioned student must fall back to current, got %d", lister.lastVersion)
	}
}

func TestVariantsForStudentUnknownStudent(t *testing.T) {
	studentID := int64(404)
	service := NewPricingService(&stubVariantLister{}, newStubStudentStore(), &stubContractHistory{}, 2, logger.NewNop())

	_, err := service.VariantsForStudent(context.Background(), &studentID)
	if !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("expected ErrStudentNotFound, got %v", err)
	}
}

func TestCreateStudentDefaultsPriceVersion(t *testing.T) {
	store := newStubStudentStore()
	service := NewPricingService(&stubVariantLister{}, store, &stubContractHistory{}, 2, logger.NewNop())

	student, err := service.CreateStudent(context.Background(), CreateStudentInput{Name: "  Jonas Vogel  "})
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	if student.Name != "Jonas Vogel" {
		t.Fatalf("name must be trimmed, got %q", student.Name)
	}
	if student.PriceVersion == nil || *student.PriceVersion != 2 {
		t.Fatalf("price version must default to current cohort, got %v", student.PriceVersion)
	}

	explicit := 1
	student, err = service.CreateStudent(context.Background(), CreateStudentInput{Name: "Lena Roth", PriceVersion: &explicit})
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	if *student.PriceVersion != 1 {
		t.Fatalf("explicit price version must be kept, got %d", *student.PriceVersion)
	}
}

func TestCreateStudentRequiresName(t *testing.T) {
	service := NewPricingService(&stubVariantLister{}, newStubStudentStore(), &stubContractHistory{}, 2, logger.NewNop())

	_, err := service.CreateStudent(context.Background(), CreateStudentInput{Name: "   "})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRecomputePriceVersionsSplitsCohortsAtCutoff(t *testing.T) {
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	history := &stubContractHistory{entries: []repository.StudentFirstContract{
		{StudentID: 1, FirstDate: cutoff.AddDate(-1, 0, 0)},
		{StudentID: 2, FirstDate: cutoff.Add(-time.Second)},
		{StudentID: 3, FirstDate: cutoff},
		{StudentID: 4, FirstDate: cutoff.AddDate(0, 3, 0)},
	}}
	store := newStubStudentStore()
	service := NewPricingService(&stubVariantLister{}, store, history, 2, logger.NewNop())

	summary, err := service.RecomputePriceVersions(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("RecomputePriceVersions: %v", err)
	}

	if summary.StudentsUpdated != 4 {
		t.Fatalf("students_updated = %d, want 4", summary.StudentsUpdated)
	}
	if summary.CountV1 != 2 || summary.CountV2 != 2 {
		t.Fatalf("cohort split = %d/%d, want 2/2", summary.CountV1, summary.CountV2)
	}
	if summary.Cutoff != "2026-01-01" {
		t.Fatalf("cutoff = %q, want 2026-01-01", summary.Cutoff)
	}
	// The exact cutoff instant belongs to the new cohort.
	if store.updates[3] != 2 {
		t.Fatalf("student at cutoff instant must be cohort 2, got %d", store.updates[3])
	}
	if store.updates[2] != 1 {
		t.Fatalf("student just before cutoff must be cohort 1, got %d", store.updates[2])
	}
}
