package models

import "time"

const (
	OperationStatusStarted = "started"
	OperationStatusSuccess = "success"
	OperationStatusFailed  = "failed"
)

// ContractOperationLog is an append-only audit row for contract writes. The
// failed entry is written outside the operation's transaction so it survives
// the rollback it documents.
type ContractOperationLog struct {
	ID            int64     `json:"id"`
	ContractID    *int64    `json:"contract_id"`
	OperationType string    `json:"operation_type"`
	Status        string    `json:"status"`
	Details       *string   `json:"details"`
	Error         *string   `json:"error"`
	ActorID       *int64    `json:"actor_id"`
	CreatedAt     time.Time `json:"created_at"`
}
