package repository

import (
	"context"

	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/models"
)

// OperationLogRepository appends contract audit rows. The contract writer
// constructs it over the pool, never over the operation's transaction, so the
// trail survives a rollback.
type OperationLogRepository struct {
	db DBTX
}

func NewOperationLogRepository(db DBTX) *OperationLogRepository {
	return &OperationLogRepository{db: db}
}

func (r *OperationLogRepository) Append(ctx context.Context, entry *models.ContractOperationLog) error {
	query := `
		INSERT INTO contract_operation_logs (contract_id, operation_type, status, details, error, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		entry.ContractID,
		entry.OperationType,
		entry.Status,
		entry.Details,
		entry.Error,
		entry.ActorID,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *OperationLogRepository) ListByContract(ctx context.Context, contractID int64) ([]models.ContractOperationLog, error) {
	query := `
		SELECT id, contract_id, operation_type, status, details, error, actor_id, created_at
		FROM contract_operation_logs
		WHERE contract_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ContractOperationLog
	for rows.Next() {
		var entry models.ContractOperationLog
		err := rows.Scan(
			&entry.ID,
			&entry.ContractID,
			&entry.OperationType,
			&entry.Status,
			&entry.Details,
			&entry.Error,
			&entry.ActorID,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
