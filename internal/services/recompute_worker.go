package services

import (
	"context"
	"time"

	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/logger"
	"github.com/liliaaaaaGit/MusikAkademie-sub001/internal/queue"
)

// RecomputeWorker drains the follow-up queue that the aggregator fills when
// it loses a lock race, so skipped recomputes converge even when no further
// lesson edits arrive for the contract.
type RecomputeWorker struct {
	queue      queue.RecomputeQueue
	attendance *AttendanceService
	interval   time.Duration
	log        *logger.Logger
}

func NewRecomputeWorker(
	recomputeQueue queue.RecomputeQueue,
	attendance *AttendanceService,
	interval time.Duration,
	log *logger.Logger,
) *RecomputeWorker {
	return &RecomputeWorker{
		queue:      recomputeQueue,
		attendance: attendance,
		interval:   interval,
		log:        log,
	}
}

func (w *RecomputeWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *RecomputeWorker) drain(ctx context.Context) {
	for {
		contractID, ok, err := w.queue.Pop(ctx)
		if err != nil {
			w.log.Warn("recompute queue pop failed", "error", err)
			return
		}
		if !ok {
			return
		}

		summary, err := w.attendance.FixAttendance(ctx, contractID)
		if err != nil {
			w.log.Warn("follow-up recompute failed",
				"contract_id", contractID, "error", err)
			// Re-queue so the contract is retried on the next tick.
			if err := w.queue.Enqueue(ctx, contractID); err != nil {
				w.log.Error("follow-up recompute re-enqueue failed",
					"contract_id", contractID, "error", err)
			}
			return
		}
		w.log.Info("follow-up recompute finished", "contract_id", contractID, "summary", summary)
	}
}
