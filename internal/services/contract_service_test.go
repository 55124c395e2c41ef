package services

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestNormalizeContractFieldsPresenceSemantics(t *testing.T) {
	fields, err := normalizeContractFields(map[string]any{
		"variant_id": float64(3),
	}, true)
	if err != nil {
		t.Fatalf("normalizeContractFields: %v", err)
	}
	if len(fields) != 1 {
		t.Fatalf("only named keys may appear in the result, got %v", fields)
	}
	if fields["variant_id"] != int64(3) {
		t.Fatalf("variant_id = %v, want int64(3)", fields["variant_id"])
	}
	if _, present := fields["status"]; present {
		t.Fatal("status must stay untouched when the payload does not name it")
	}
}

func TestNormalizeContractFieldsCreateRequiresStudent(t *testing.T) {
	_, err := normalizeContractFields(map[string]any{"monthly_price": 89.0}, false)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing student_id, got %v", err)
	}

	fields, err := normalizeContractFields(map[string]any{"student_id": float64(12)}, false)
	if err != nil {
		t.Fatalf("normalizeContractFields: %v", err)
	}
	if fields["student_id"] != int64(12) {
		t.Fatalf("student_id = %v, want int64(12)", fields["student_id"])
	}
}

func TestNormalizeContractFieldsRejectsUnknownKeys(t *testing.T) {
	_, err := normalizeContractFields(map[string]any{"attendance_count": "10/10"}, true)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("derived columns must be rejected, got %v", err)
	}
}

func TestNormalizeContractFieldsStatusValidation(t *testing.T) {
	_, err := normalizeContractFields(map[string]any{"status": "paused"}, true)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown status must be rejected, got %v", err)
	}

	fields, err := normalizeContractFields(map[string]any{"status": "cancelled"}, true)
	if err != nil {
		t.Fatalf("normalizeContractFields: %v", err)
	}
	if fields["status"] != "cancelled" {
		t.Fatalf("status = %v, want cancelled", fields["status"])
	}
}

func TestNormalizeContractFieldsDiscountNormalization(t *testing.T) {
	for name, value := range map[string]any{
		"nil":         nil,
		"empty slice": []any{},
	} {
		fields, err := normalizeContractFields(map[string]any{"discounts": value}, true)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		discounts, present := fields["discounts"]
		if !present {
			t.Fatalf("%s: discounts key must survive normalization", name)
		}
		if discounts.(*[]string) != nil {
			t.Fatalf("%s: empty discounts must normalize to nil, got %v", name, discounts)
		}
	}

	fields, err := normalizeContractFields(map[string]any{
		"discounts": []any{"sibling", "early_bird"},
	}, true)
	if err != nil {
		t.Fatalf("normalizeContractFields: %v", err)
	}
	discounts := fields["discounts"].(*[]string)
	if discounts == nil || len(*discounts) != 2 || (*discounts)[0] != "sibling" {
		t.Fatalf("discounts = %v, want [sibling early_bird]", discounts)
	}
}

func TestNormalizeContractFieldsRejectsBadIDs(t *testing.T) {
	for name, value := range map[string]any{
		"zero":       float64(0),
		"negative":   float64(-4),
		"fractional": 2.5,
		"string":     "7",
	} {
		_, err := normalizeContractFields(map[string]any{"student_id": value}, true)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s id must be rejected, got %v", name, err)
		}
	}
}

func TestNormalizeContractFieldsNullablePrices(t *testing.T) {
	fields, err := normalizeContractFields(map[string]any{
		"price_per_lesson": nil,
		"monthly_price":    42.5,
	}, true)
	if err != nil {
		t.Fatalf("normalizeContractFields: %v", err)
	}
	if fields["price_per_lesson"].(*float64) != nil {
		t.Fatal("explicit null must map to a nil pointer")
	}
	if price := fields["monthly_price"].(*float64); price == nil || *price != 42.5 {
		t.Fatalf("monthly_price = %v, want 42.5", price)
	}
}

func TestDescribeFieldsIsSortedAndStable(t *testing.T) {
	got := describeFields(map[string]any{
		"monthly_price": 1.0,
		"student_id":    int64(4),
		"discounts":     nil,
	})
	want := "fields: discounts, monthly_price, student_id"
	if got != want {
		t.Fatalf("describeFields = %q, want %q", got, want)
	}
	if describeFields(nil) != "no fields" {
		t.Fatal("empty field map should describe as no fields")
	}
}

func TestMapIntegrityError(t *testing.T) {
	fk := &pgconn.PgError{Code: "23503", Message: "violates foreign key"}
	if !errors.Is(mapIntegrityError(fk), ErrIntegrity) {
		t.Fatal("constraint class 23 errors must map to ErrIntegrity")
	}

	other := &pgconn.PgError{Code: "40001", Message: "serialization failure"}
	if errors.Is(mapIntegrityError(other), ErrIntegrity) {
		t.Fatal("non-constraint errors must pass through unchanged")
	}

	plain := errors.New("network down")
	if mapIntegrityError(plain) != plain {
		t.Fatal("plain errors must pass through unchanged")
	}
}
