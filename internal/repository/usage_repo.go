package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"complianceai/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrQuotaExceeded is returned when the active subscription has no documents left.
	ErrQuotaExceeded = errors.New("quota_exceeded")
	// ErrNoActiveSubscription is returned when the company has no active subscription.
	ErrNoActiveSubscription = errors.New("no_active_subscription")
)

// UsageRepository tracks documents_used on the active subscription.
type UsageRepository interface {
	// ReserveDocument atomically takes one document from the active
	// subscription's quota. Returns ErrQuotaExceeded or ErrNoActiveSubscription.
	ReserveDocument(ctx context.Context, companyID string, now time.Time) (*model.QuotaStatus, error)
	// ReleaseDocument gives back a reserved document. It never drops below zero.
	ReleaseDocument(ctx context.Context, companyID string, now time.Time) error
	// IncrementUsage counts a document without checking the limit.
	IncrementUsage(ctx context.Context, companyID string, now time.Time) error
}

type usageRepo struct {
	pool *pgxpool.Pool
}

// NewUsageRepo creates a new UsageRepository.
func NewUsageRepo(pool *pgxpool.Pool) UsageRepository {
	return &usageRepo{pool: pool}
}

// activeSubscriptionRow locks the row the gate operates on. Concurrent
// reservations queue on the lock and re-check the limit on the latest row.
const activeSubscriptionRow = `
	SELECT id FROM subscriptions
	WHERE company_id = $1 AND status = 'active' AND current_period_end >= $2
	ORDER BY current_period_end DESC
	LIMIT 1
	FOR UPDATE
`

func (r *usageRepo) ReserveDocument(ctx context.Context, companyID string, now time.Time) (*model.QuotaStatus, error) {
	q := `
		UPDATE subscriptions
		SET documents_used = documents_used + 1, updated_at = NOW()
		WHERE id = (` + activeSubscriptionRow + `)
		  AND (documents_limit = -1 OR documents_used < documents_limit)
		RETURNING documents_used, documents_limit
	`
	var qs model.QuotaStatus
	err := r.pool.QueryRow(ctx, q, companyID, now).Scan(&qs.DocumentsUsed, &qs.DocumentsLimit)
	if err == nil {
		qs.CanGenerate = qs.DocumentsLimit == model.UnlimitedDocuments || qs.DocumentsUsed < qs.DocumentsLimit
		return &qs, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reserving document for company %s: %w", companyID, err)
	}

	// Nothing updated: either there is no active subscription or it is full.
	const existsQ = `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE company_id = $1 AND status = 'active' AND current_period_end >= $2
		)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, existsQ, companyID, now).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking subscription for company %s: %w", companyID, err)
	}
	if !exists {
		return nil, ErrNoActiveSubscription
	}
	return nil, ErrQuotaExceeded
}

func (r *usageRepo) ReleaseDocument(ctx context.Context, companyID string, now time.Time) error {
	q := `
		UPDATE subscriptions
		SET documents_used = GREATEST(documents_used - 1, 0), updated_at = NOW()
		WHERE id = (` + activeSubscriptionRow + `)
	`
	if _, err := r.pool.Exec(ctx, q, companyID, now); err != nil {
		return fmt.Errorf("releasing document for company %s: %w", companyID, err)
	}
	return nil
}

func (r *usageRepo) IncrementUsage(ctx context.Context, companyID string, now time.Time) error {
	q := `
		UPDATE subscriptions
		SET documents_used = documents_used + 1, updated_at = NOW()
		WHERE id = (` + activeSubscriptionRow + `)
	`
	tag, err := r.pool.Exec(ctx, q, companyID, now)
	if err != nil {
		return fmt.Errorf("incrementing usage for company %s: %w", companyID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoActiveSubscription
	}
	return nil
}
