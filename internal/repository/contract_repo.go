package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// contractWritableColumns is the whitelist for field-map writes. A payload key
// outside this list is rejected before any SQL is built.
var contractWritableColumns = []string{
	"student_id",
	"variant_id",
	"contract_type",
	"status",
	"discounts",
	"price_per_lesson",
	"monthly_price",
}

const contractSelectColumns = `id, student_id, variant_id, contract_type, status,
		attendance_count, attendance_dates, discounts, price_per_lesson,
		monthly_price, created_at, updated_at`

type ContractRepository struct {
	db DBTX
}

func NewContractRepository(db DBTX) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) GetByID(ctx context.Context, id int64) (*models.Contract, error) {
	query := `
		SELECT ` + contractSelectColumns + `
		FROM contracts
		WHERE id = $1
	`
	return scanContract(r.db.QueryRow(ctx, query, id))
}

func (r *ContractRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Contract, error) {
	query := `
		SELECT ` + contractSelectColumns + `
		FROM contracts
		WHERE id = $1
		FOR UPDATE
	`
	return scanContract(r.db.QueryRow(ctx, query, id))
}

// Create inserts a contract from a field map. Only whitelisted keys are
// written; everything else takes its column default.
func (r *ContractRepository) Create(ctx context.Context, fields map[string]any) (*models.Contract, error) {
	if err := rejectUnknownColumns(fields); err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(fields))
	placeholders := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for _, column := range contractWritableColumns {
		value, present := fields[column]
		if !present {
			continue
		}
		columns = append(columns, column)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
		args = append(args, value)
	}

	query := fmt.Sprintf(`
		INSERT INTO contracts (%s)
		VALUES (%s)
		RETURNING `+contractSelectColumns,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
	return scanContract(r.db.QueryRow(ctx, query, args...))
}

// Update modifies only the columns named in fields; absent keys keep their
// stored value. updated_at is always refreshed.
func (r *ContractRepository) Update(ctx context.Context, id int64, fields map[string]any) (*models.Contract, error) {
	if err := rejectUnknownColumns(fields); err != nil {
		return nil, err
	}

	assignments := []string{"updated_at = now()"}
	args := []any{id}
	for _, column := range contractWritableColumns {
		value, present := fields[column]
		if !present {
			continue
		}
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	query := fmt.Sprintf(`
		UPDATE contracts
		SET %s
		WHERE id = $1
		RETURNING `+contractSelectColumns,
		strings.Join(assignments, ", "),
	)
	return scanContract(r.db.QueryRow(ctx, query, args...))
}

// UpdateAttendance writes the aggregation result in a single statement.
func (r *ContractRepository) UpdateAttendance(
	ctx context.Context,
	id int64,
	count string,
	dates []time.Time,
	status string,
) error {
	query := `
		UPDATE contracts
		SET attendance_count = $2, attendance_dates = $3, status = $4, updated_at = now()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, count, dates, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type StudentFirstContract struct {
	StudentID int64
	FirstDate time.Time
}

// EarliestByStudent returns each student's earliest contract creation date,
// used by the price version recompute.
func (r *ContractRepository) EarliestByStudent(ctx context.Context) ([]StudentFirstContract, error) {
	query := `
		SELECT student_id, MIN(created_at)
		FROM contracts
		GROUP BY student_id
		ORDER BY student_id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []StudentFirstContract
	for rows.Next() {
		var entry StudentFirstContract
		if err := rows.Scan(&entry.StudentID, &entry.FirstDate); err != nil {
			return nil, err
		}
		results = append(results, entry)
	}
	return results, rows.Err()
}

func rejectUnknownColumns(fields map[string]any) error {
	for key := range fields {
		known := false
		for _, column := range contractWritableColumns {
			if key == column {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown contract field %q", key)
		}
	}
	return nil
}

func scanContract(row pgx.Row) (*models.Contract, error) {
	var contract models.Contract
	var packed string
	err := row.Scan(
		&contract.ID,
		&contract.StudentID,
		&contract.VariantID,
		&contract.ContractType,
		&contract.Status,
		&packed,
		&contract.AttendanceDates,
		&contract.Discounts,
		&contract.PricePerLesson,
		&contract.MonthlyPrice,
		&contract.CreatedAt,
		&contract.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	contract.AttendanceCount = models.ParseAttendanceCount(packed)
	return &contract, nil
}
