package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// QuotaStore counts report generations per owner per calendar month.
type QuotaStore struct {
	rdb *redis.Client
	cap int
}

func NewQuotaStore(rdb *redis.Client, monthlyCap int) *QuotaStore {
	return &QuotaStore{rdb: rdb, cap: monthlyCap}
}

// CheckAndIncrement consumes one generation from the owner's monthly quota.
// It returns false without incrementing when the cap is already reached.
func (q *QuotaStore) CheckAndIncrement(ctx context.Context, ownerID string) (bool, error) {
	key := fmt.Sprintf("report_quota:%s:%s", ownerID, time.Now().Format("2006-01"))

	count, err := q.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("quota incr: %w", err)
	}
	if count == 1 {
		// First generation this month sets the expiry past month end.
		q.rdb.Expire(ctx, key, 32*24*time.Hour)
	}
	if count > int64(q.cap) {
		q.rdb.Decr(ctx, key)
		return false, nil
	}
	return true, nil
}

// Refund returns one generation to the owner's monthly quota after a run
// that produced nothing to deliver.
func (q *QuotaStore) Refund(ctx context.Context, ownerID string) error {
	key := fmt.Sprintf("report_quota:%s:%s", ownerID, time.Now().Format("2006-01"))
	return q.rdb.Decr(ctx, key).Err()
}

// Remaining reports how many generations the owner has left this month.
func (q *QuotaStore) Remaining(ctx context.Context, ownerID string) (int, error) {
	key := fmt.Sprintf("report_quota:%s:%s", ownerID, time.Now().Format("2006-01"))
	count, err := q.rdb.Get(ctx, key).Int()
	if err != nil && err != redis.Nil {
		return 0, err
	}
	left := q.cap - count
	if left < 0 {
		left = 0
	}
	return left, nil
}
