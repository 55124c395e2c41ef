package services

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
)

func TestResolveLessonTotalPrefersVariant(t *testing.T) {
	variantID := int64(2)
	legacyType := "ten_lessons"
	lessonCount := 18
	contract := &models.Contract{VariantID: &variantID, ContractType: &legacyType}

	total, err := resolveLessonTotal(context.Background(), &stubVariantReader{
		variant: &models.ContractVariant{ID: 2, LessonCount: &lessonCount},
	}, contract)
	if err != nil {
		t.Fatalf("resolveLessonTotal: %v", err)
	}
	if total != 18 {
		t.Fatalf("variant lesson count must win, got %d", total)
	}
}

func TestResolveLessonTotalFallsBackToLegacyType(t *testing.T) {
	cases := map[string]int{
		"ten_lessons":    10,
		"twenty_lessons": 20,
		"half_year":      18,
		"full_year":      36,
	}
	for legacyType, want := range cases {
		contractType := legacyType
		contract := &models.Contract{ContractType: &contractType}
		total, err := resolveLessonTotal(context.Background(), &stubVariantReader{err: pgx.ErrNoRows}, contract)
		if err != nil {
			t.Fatalf("resolveLessonTotal(%s): %v", legacyType, err)
		}
		if total != want {
			t.Fatalf("resolveLessonTotal(%s) = %d, want %d", legacyType, total, want)
		}
	}
}

func TestResolveLessonTotalMissingVariantUsesLegacyType(t *testing.T) {
	variantID := int64(99)
	legacyType := "half_year"
	contract := &models.Contract{VariantID: &variantID, ContractType: &legacyType}

	total, err := resolveLessonTotal(context.Background(), &stubVariantReader{err: pgx.ErrNoRows}, contract)
	if err != nil {
		t.Fatalf("resolveLessonTotal: %v", err)
	}
	if total != 18 {
		t.Fatalf("missing variant row should fall through to legacy type, got %d", total)
	}
}

func TestResolveLessonTotalConstantFallback(t *testing.T) {
	unknown := "workshop"
	contract := &models.Contract{ContractType: &unknown}

	total, err := resolveLessonTotal(context.Background(), &stubVariantReader{err: pgx.ErrNoRows}, contract)
	if err != nil {
		t.Fatalf("resolveLessonTotal: %v", err)
	}
	if total != fallbackLessonTotal {
		t.Fatalf("unknown type should use fallback %d, got %d", fallbackLessonTotal, total)
	}
}

func TestResolveLessonTotalVariantWithoutCount(t *testing.T) {
	variantID := int64(4)
	contract := &models.Contract{VariantID: &variantID}

	total, err := resolveLessonTotal(context.Background(), &stubVariantReader{
		variant: &models.ContractVariant{ID: 4},
	}, contract)
	if err != nil {
		t.Fatalf("resolveLessonTotal: %v", err)
	}
	if total != fallbackLessonTotal {
		t.Fatalf("variant without lesson count should use fallback, got %d", total)
	}
}

func TestBuildAttendanceCountCapsAtTotal(t *testing.T) {
	cases := []struct {
		completed int
		total     int
		want      string
	}{
		{completed: 0, total: 10, want: "0/10"},
		{completed: 9, total: 10, want: "9/10"},
		{completed: 10, total: 10, want: "10/10"},
		{completed: 11, total: 10, want: "10/10"},
		{completed: 37, total: 36, want: "36/36"},
		{completed: 3, total: 0, want: "3/0"},
	}
	for _, tc := range cases {
		got := buildAttendanceCount(tc.completed, tc.total)
		if got.String() != tc.want {
			t.Fatalf("buildAttendanceCount(%d, %d) = %s, want %s", tc.completed, tc.total, got, tc.want)
		}
		if got.Total > 0 && got.Completed > got.Total {
			t.Fatalf("buildAttendanceCount(%d, %d) exceeds its denominator", tc.completed, tc.total)
		}
	}
}

func TestOverAttendedContractStillCompletes(t *testing.T) {
	// A ten_lessons contract with eleven dated available lessons must not
	// persist 11/10 and stay active forever; the capped pair completes it.
	oldCount := models.ParseAttendanceCount("9/10")
	newCount := buildAttendanceCount(11, 10)

	if !newCount.Complete() {
		t.Fatalf("capped count %s must report complete", newCount)
	}

	status, fulfilled := evaluateCompletion(oldCount, newCount, models.ContractStatusActive)
	if status != models.ContractStatusCompleted {
		t.Fatalf("status = %q, want completed", status)
	}
	if !fulfilled {
		t.Fatal("over-full attendance must fire the fulfillment notification")
	}
}

func TestDatesEqual(t *testing.T) {
	march := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

	if !datesEqual([]time.Time{march, april}, []time.Time{march, april}) {
		t.Fatal("identical date lists must compare equal")
	}
	if datesEqual([]time.Time{march}, []time.Time{march, april}) {
		t.Fatal("different lengths must not compare equal")
	}
	if datesEqual([]time.Time{march, april}, []time.Time{april, march}) {
		t.Fatal("order matters, lessons are sorted by number")
	}
	if !datesEqual(nil, nil) {
		t.Fatal("two empty lists must compare equal")
	}
}
