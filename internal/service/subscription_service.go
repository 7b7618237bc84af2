package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"complianceai/internal/metrics"
	"complianceai/internal/model"
	"complianceai/internal/pubsub"
	"complianceai/internal/repository"

	"github.com/rs/zerolog"
)

// SubscriptionService is the quota gate in front of document generation and
// the owner of billing periods.
type SubscriptionService interface {
	// CheckLimits reports the quota of the company's active subscription.
	// Without one it returns CanGenerate=false and zero counters.
	CheckLimits(ctx context.Context, companyID string) (*model.QuotaStatus, error)
	IncrementUsage(ctx context.Context, companyID string) error
	// ReserveDocument atomically takes one document from the quota. It
	// returns ErrQuotaExceeded or ErrNoActiveSubscription when it cannot.
	ReserveDocument(ctx context.Context, companyID string) (*model.QuotaStatus, error)
	ReleaseDocument(ctx context.Context, companyID string) error
	// ActivatePlan opens a one-month period of planType and records the
	// payment when paymentID is set.
	ActivatePlan(ctx context.Context, companyID string, planType model.PlanType, paymentID, orderID string) (*model.Subscription, error)
	Active(ctx context.Context, companyID string) (*model.Subscription, error)
	// ExpireEnded marks subscriptions past their period end as expired.
	ExpireEnded(ctx context.Context) (int64, error)
}

type subscriptionService struct {
	subs      repository.SubscriptionRepository
	usage     repository.UsageRepository
	publisher pubsub.Publisher
	topic     string
	metrics   *metrics.Metrics
	now       func() time.Time
	logger    zerolog.Logger
}

// SubscriptionOption configures a SubscriptionService.
type SubscriptionOption func(*subscriptionService)

// WithSubscriptionEvents publishes subscription.activated to topic.
func WithSubscriptionEvents(p pubsub.Publisher, topic string) SubscriptionOption {
	return func(s *subscriptionService) {
		s.publisher = p
		s.topic = topic
	}
}

func WithSubscriptionMetrics(m *metrics.Metrics) SubscriptionOption {
	return func(s *subscriptionService) { s.metrics = m }
}

func WithSubscriptionClock(now func() time.Time) SubscriptionOption {
	return func(s *subscriptionService) { s.now = now }
}

// NewSubscriptionService creates a new SubscriptionService with a scoped logger.
func NewSubscriptionService(
	subs repository.SubscriptionRepository,
	usage repository.UsageRepository,
	logger zerolog.Logger,
	opts ...SubscriptionOption,
) SubscriptionService {
	s := &subscriptionService{
		subs:   subs,
		usage:  usage,
		now:    time.Now,
		logger: logger.With().Str("service", "SubscriptionService").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *subscriptionService) CheckLimits(ctx context.Context, companyID string) (*model.QuotaStatus, error) {
	sub, err := s.subs.GetActiveSubscription(ctx, companyID, s.now())
	if err != nil {
		s.logger.Error().Err(err).Str("company_id", companyID).Msg("Failed to fetch active subscription")
		return nil, err
	}
	qs := model.QuotaFor(sub)
	return &qs, nil
}

func (s *subscriptionService) IncrementUsage(ctx context.Context, companyID string) error {
	if err := s.usage.IncrementUsage(ctx, companyID, s.now()); err != nil {
		s.logger.Error().Err(err).Str("company_id", companyID).Msg("Failed to increment usage")
		return err
	}
	return nil
}

func (s *subscriptionService) ReserveDocument(ctx context.Context, companyID string) (*model.QuotaStatus, error) {
	qs, err := s.usage.ReserveDocument(ctx, companyID, s.now())
	switch {
	case errors.Is(err, repository.ErrQuotaExceeded):
		s.metrics.QuotaDenied("exhausted")
		return nil, ErrQuotaExceeded
	case errors.Is(err, repository.ErrNoActiveSubscription):
		s.metrics.QuotaDenied("no_subscription")
		// Same client-facing answer as an exhausted quota.
		return nil, ErrQuotaExceeded
	case err != nil:
		s.logger.Error().Err(err).Str("company_id", companyID).Msg("Failed to reserve document")
		return nil, err
	}
	return qs, nil
}

func (s *subscriptionService) ReleaseDocument(ctx context.Context, companyID string) error {
	if err := s.usage.ReleaseDocument(ctx, companyID, s.now()); err != nil {
		s.logger.Error().Err(err).Str("company_id", companyID).Msg("Failed to release document reservation")
		return err
	}
	return nil
}

func (s *subscriptionService) ActivatePlan(ctx context.Context, companyID string, planType model.PlanType, paymentID, orderID string) (*model.Subscription, error) {
	plan, ok := model.LookupPlan(planType)
	if !ok {
		return nil, ErrInvalidPlan
	}
	start := s.now()
	end := start.AddDate(0, 1, 0)

	var payment *model.Payment
	if paymentID != "" {
		payment = &model.Payment{
			CompanyID:         companyID,
			RazorpayPaymentID: paymentID,
			RazorpayOrderID:   orderID,
			Amount:            plan.Price,
			Currency:          "INR",
			Status:            "completed",
			Description:       fmt.Sprintf("%s plan subscription", plan.Name),
		}
	}

	sub, err := s.subs.ActivatePlan(ctx, companyID, plan, start, end, payment)
	if err != nil {
		s.logger.Error().Err(err).Str("company_id", companyID).Str("plan", string(planType)).Msg("Failed to activate plan")
		return nil, err
	}
	s.logger.Info().Str("company_id", companyID).Str("plan", string(planType)).Time("period_end", end).Msg("Plan activated")

	if _, err := pubsub.PublishEvent(ctx, s.publisher, s.topic, pubsub.Event{
		Type:       pubsub.EventSubscriptionActivated,
		CompanyID:  companyID,
		EntityID:   sub.ID,
		Attributes: map[string]string{"plan_type": string(planType)},
		OccurredAt: start,
	}); err != nil {
		s.logger.Warn().Err(err).Str("subscription_id", sub.ID).Msg("Failed to publish subscription event")
	}
	return sub, nil
}

func (s *subscriptionService) Active(ctx context.Context, companyID string) (*model.Subscription, error) {
	return s.subs.GetActiveSubscription(ctx, companyID, s.now())
}

func (s *subscriptionService) ExpireEnded(ctx context.Context) (int64, error) {
	n, err := s.subs.ExpireEnded(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expiring subscriptions: %w", err)
	}
	return n, nil
}
