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

// SubscriptionRepository defines methods for accessing subscription data.
type SubscriptionRepository interface {
	// GetActiveSubscription returns the company's active subscription at now,
	// or nil when there is none.
	GetActiveSubscription(ctx context.Context, companyID string, now time.Time) (*model.Subscription, error)
	// ActivatePlan expires the company's current subscriptions, opens a new
	// period and records the payment, all in one transaction.
	ActivatePlan(ctx context.Context, companyID string, plan model.Plan, start, end time.Time, payment *model.Payment) (*model.Subscription, error)
	// ExpireEnded marks active subscriptions whose period ended before now.
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
}

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, company_id, plan_type, status, current_period_start, current_period_end,
       razorpay_subscription_id, monthly_price, documents_used, documents_limit, created_at, updated_at`

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	var plan string
	err := row.Scan(
		&s.ID,
		&s.CompanyID,
		&plan,
		&s.Status,
		&s.CurrentPeriodStart,
		&s.CurrentPeriodEnd,
		&s.RazorpaySubscriptionID,
		&s.MonthlyPrice,
		&s.DocumentsUsed,
		&s.DocumentsLimit,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.PlanType = model.PlanType(plan)
	return &s, nil
}

func (r *subscriptionRepo) GetActiveSubscription(ctx context.Context, companyID string, now time.Time) (*model.Subscription, error) {
	q := `
        SELECT ` + subscriptionColumns + `
        FROM subscriptions
        WHERE company_id = $1
          AND status = 'active'
          AND current_period_end >= $2
        ORDER BY current_period_end DESC
        LIMIT 1
    `
	sub, err := scanSubscription(r.pool.QueryRow(ctx, q, companyID, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch active subscription for company %s: %w", companyID, err)
	}
	return sub, nil
}

func (r *subscriptionRepo) ActivatePlan(ctx context.Context, companyID string, plan model.Plan, start, end time.Time, payment *model.Payment) (*model.Subscription, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("starting transaction for plan activation: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const expireQ = `
		UPDATE subscriptions
		SET status = 'expired', updated_at = NOW()
		WHERE company_id = $1 AND status = 'active'
	`
	if _, err := tx.Exec(ctx, expireQ, companyID); err != nil {
		return nil, fmt.Errorf("expiring previous subscriptions for company %s: %w", companyID, err)
	}

	insertQ := `
		INSERT INTO subscriptions (company_id, plan_type, status, current_period_start, current_period_end,
			monthly_price, documents_used, documents_limit)
		VALUES ($1, $2, 'active', $3, $4, $5, 0, $6)
		RETURNING ` + subscriptionColumns
	sub, err := scanSubscription(tx.QueryRow(ctx, insertQ, companyID, string(plan.Type), start, end, plan.Price, plan.DocumentsLimit))
	if err != nil {
		return nil, fmt.Errorf("creating %s subscription for company %s: %w", plan.Type, companyID, err)
	}

	if payment != nil {
		const paymentQ = `
			INSERT INTO payments (company_id, razorpay_payment_id, razorpay_order_id, amount, currency, status, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`
		err := tx.QueryRow(ctx, paymentQ, companyID, payment.RazorpayPaymentID, payment.RazorpayOrderID,
			payment.Amount, payment.Currency, payment.Status, payment.Description).Scan(&payment.ID, &payment.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("recording payment %s: %w", payment.RazorpayPaymentID, err)
		}
		payment.CompanyID = companyID
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing plan activation for company %s: %w", companyID, err)
	}
	return sub, nil
}

func (r *subscriptionRepo) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		UPDATE subscriptions
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'active' AND current_period_end < $1
	`
	tag, err := r.pool.Exec(ctx, q, now)
	if err != nil {
		return 0, fmt.Errorf("expiring ended subscriptions: %w", err)
	}
	return tag.RowsAffected(), nil
}
