package services

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/repository"
)

// Advisory lock keys are derived from stable strings so every component that
// touches the same contract or trial contends on the same key. The locks are
// transaction-scoped: Postgres releases them at commit or rollback, and a
// session that already holds a key re-acquires it without blocking, so the
// contract writer and the aggregator can nest within one transaction.

func contractLockKey(contractID int64) int64 {
	return advisoryKey(fmt.Sprintf("contract:%d", contractID))
}

func trialLockKey(trialID int64) int64 {
	return advisoryKey(fmt.Sprintf("trial:%d", trialID))
}

// tokenLockKey keys an insert operation that has no row id yet. The token is
// unique per operation, so inserts never contend with each other.
func tokenLockKey(token string) int64 {
	return advisoryKey("contract-insert:" + token)
}

func advisoryKey(value string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(value))
	return int64(h.Sum64())
}

func tryAdvisoryLock(ctx context.Context, tx repository.DBTX, key int64) (bool, error) {
	var locked bool
	err := tx.QueryRow(ctx, "SELECT pg_try_advisory_xact_lock($1)", key).Scan(&locked)
	if err != nil {
		return false, err
	}
	return locked, nil
}

func advisoryLock(ctx context.Context, tx repository.DBTX, key int64) error {
	_, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", key)
	return err
}
