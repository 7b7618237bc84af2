package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore shares counters between instances through the rate_limits
// table. Every Hit is a single upsert, so concurrent instances never lose
// increments.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Hit always increments; a request is admitted while the count stays within
// the limit. The count of a rejected key keeps growing until the window
// resets, which does not change who is admitted.
func (s *PostgresStore) Hit(ctx context.Context, class Class, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	const q = `
		INSERT INTO rate_limits (class, client_key, count, reset_time)
		VALUES ($1, $2, 1, $3::timestamptz + $4::interval)
		ON CONFLICT (class, client_key) DO UPDATE
		SET count = CASE WHEN rate_limits.reset_time <= $3 THEN 1 ELSE rate_limits.count + 1 END,
		    reset_time = CASE WHEN rate_limits.reset_time <= $3 THEN $3::timestamptz + $4::interval ELSE rate_limits.reset_time END
		RETURNING count, reset_time
	`
	var count int
	var reset time.Time
	if err := s.pool.QueryRow(ctx, q, string(class), key, now, window).Scan(&count, &reset); err != nil {
		return Result{}, fmt.Errorf("recording rate limit hit for %s/%s: %w", class, key, err)
	}
	return Result{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: max(limit-count, 0),
		ResetTime: reset,
	}, nil
}

func (s *PostgresStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rate_limits WHERE reset_time <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("sweeping rate limits: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Close is a no-op; the pool is owned by the caller.
func (s *PostgresStore) Close() error { return nil }
