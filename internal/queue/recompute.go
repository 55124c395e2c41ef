package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RecomputeQueue holds contract ids whose attendance recompute was skipped on
// lock contention. A background worker drains it, restoring eventual
// consistency without blocking the transaction that lost the lock race.
type RecomputeQueue interface {
	Enqueue(ctx context.Context, contractID int64) error
	Pop(ctx context.Context) (int64, bool, error)
}

const recomputeKey = "contracts:recompute"

type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(redisAddr string) (*RedisQueue, error) {
	const op = "queue.NewRedisQueue"

	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisQueue{client: client}, nil
}

// Enqueue is a set add, so re-queuing the same contract collapses into one
// pending recompute.
func (q *RedisQueue) Enqueue(ctx context.Context, contractID int64) error {
	const op = "queue.RedisQueue.Enqueue"

	if err := q.client.SAdd(ctx, recomputeKey, contractID).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (q *RedisQueue) Pop(ctx context.Context) (int64, bool, error) {
	const op = "queue.RedisQueue.Pop"

	value, err := q.client.SPop(ctx, recomputeKey).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	contractID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	return contractID, true, nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// NoopQueue is used when no Redis address is configured. Skipped recomputes
// are then only repaired by the next lesson mutation on the contract.
type NoopQueue struct{}

func (NoopQueue) Enqueue(ctx context.Context, contractID int64) error { return nil }

func (NoopQueue) Pop(ctx context.Context) (int64, bool, error) { return 0, false, nil }
