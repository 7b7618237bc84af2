package service

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"complianceai/internal/model"
	"complianceai/internal/pubsub"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSubscription(b *fakeBilling, companyID string, plan model.PlanType, used int, start time.Time) *model.Subscription {
	p := model.Plans[plan]
	sub := &model.Subscription{
		ID:                 "sub-" + companyID,
		CompanyID:          companyID,
		PlanType:           plan,
		Status:             model.SubscriptionActive,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   start.AddDate(0, 1, 0),
		MonthlyPrice:       p.Price,
		DocumentsLimit:     p.DocumentsLimit,
		DocumentsUsed:      used,
	}
	b.subs = append(b.subs, sub)
	return sub
}

func TestCheckLimitsTruthTable(t *testing.T) {
	clock := newFakeClock()
	now := clock.Now()

	cases := []struct {
		name      string
		seed      func(b *fakeBilling)
		wantCan   bool
		wantUsed  int
		wantLimit int
	}{
		{"no subscription", func(*fakeBilling) {}, false, 0, 0},
		{"starter under limit", func(b *fakeBilling) { seedSubscription(b, "c1", model.PlanStarter, 4, now) }, true, 4, 5},
		{"starter at limit", func(b *fakeBilling) { seedSubscription(b, "c1", model.PlanStarter, 5, now) }, false, 5, 5},
		{"scale unlimited", func(b *fakeBilling) { seedSubscription(b, "c1", model.PlanScale, 1000, now) }, true, 1000, model.UnlimitedDocuments},
		{"period ended", func(b *fakeBilling) { seedSubscription(b, "c1", model.PlanGrowth, 0, now.AddDate(0, -2, 0)) }, false, 0, 0},
		{"cancelled", func(b *fakeBilling) {
			seedSubscription(b, "c1", model.PlanGrowth, 0, now).Status = model.SubscriptionCancelled
		}, false, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := &fakeBilling{}
			tc.seed(b)
			svc := NewSubscriptionService(b, b, testLogger, WithSubscriptionClock(clock.Now))

			qs, err := svc.CheckLimits(context.Background(), "c1")
			require.NoError(t, err)
			assert.Equal(t, tc.wantCan, qs.CanGenerate)
			assert.Equal(t, tc.wantUsed, qs.DocumentsUsed)
			assert.Equal(t, tc.wantLimit, qs.DocumentsLimit)
		})
	}
}

func TestReserveDocumentDenials(t *testing.T) {
	clock := newFakeClock()
	b := &fakeBilling{}
	svc := NewSubscriptionService(b, b, testLogger, WithSubscriptionClock(clock.Now))
	ctx := context.Background()

	_, err := svc.ReserveDocument(ctx, "c1")
	assert.ErrorIs(t, err, ErrQuotaExceeded, "no subscription is reported like an exhausted quota")

	seedSubscription(b, "c1", model.PlanStarter, 5, clock.Now())
	_, err = svc.ReserveDocument(ctx, "c1")
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, 5, b.used("c1", clock.Now()))
}

func TestReserveDocumentNeverOvershootsUnderConcurrency(t *testing.T) {
	clock := newFakeClock()
	b := &fakeBilling{}
	const limit = 25
	seedSubscription(b, "c1", model.PlanGrowth, 0, clock.Now())
	svc := NewSubscriptionService(b, b, testLogger, WithSubscriptionClock(clock.Now))

	var ok, denied atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < limit+5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ReserveDocument(context.Background(), "c1"); err != nil {
				assert.ErrorIs(t, err, ErrQuotaExceeded)
				denied.Add(1)
				return
			}
			ok.Add(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(limit), ok.Load())
	assert.Equal(t, int32(5), denied.Load())
	assert.Equal(t, limit, b.used("c1", clock.Now()))
}

func TestReleaseDocumentGivesQuotaBack(t *testing.T) {
	clock := newFakeClock()
	b := &fakeBilling{}
	seedSubscription(b, "c1", model.PlanStarter, 5, clock.Now())
	svc := NewSubscriptionService(b, b, testLogger, WithSubscriptionClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, svc.ReleaseDocument(ctx, "c1"))
	qs, err := svc.ReserveDocument(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 5, qs.DocumentsUsed)
}

func TestActivatePlan(t *testing.T) {
	clock := newFakeClock()
	b := &fakeBilling{}
	old := seedSubscription(b, "c1", model.PlanStarter, 3, clock.Now().AddDate(0, 0, -10))
	pub := &fakePublisher{}
	svc := NewSubscriptionService(b, b, testLogger,
		WithSubscriptionClock(clock.Now),
		WithSubscriptionEvents(pub, "subscriptions"),
	)

	sub, err := svc.ActivatePlan(context.Background(), "c1", model.PlanGrowth, "pay_1", "order_1")
	require.NoError(t, err)

	assert.Equal(t, model.PlanGrowth, sub.PlanType)
	assert.Equal(t, 25, sub.DocumentsLimit)
	assert.Equal(t, 0, sub.DocumentsUsed)
	assert.Equal(t, clock.Now().AddDate(0, 1, 0), sub.CurrentPeriodEnd)
	assert.Equal(t, model.SubscriptionExpired, old.Status)

	require.Len(t, b.payments, 1)
	p := b.payments[0]
	assert.Equal(t, int64(7999), p.Amount)
	assert.Equal(t, "INR", p.Currency)
	assert.Equal(t, "completed", p.Status)
	assert.Equal(t, "Growth plan subscription", p.Description)
	assert.Equal(t, "pay_1", p.RazorpayPaymentID)

	require.Equal(t, 1, pub.count())
	var evt pubsub.Event
	require.NoError(t, json.Unmarshal(pub.payloads[0], &evt))
	assert.Equal(t, pubsub.EventSubscriptionActivated, evt.Type)
	assert.Equal(t, "growth", evt.Attributes["plan_type"])
}

func TestActivatePlanRejectsUnknownPlan(t *testing.T) {
	b := &fakeBilling{}
	svc := NewSubscriptionService(b, b, testLogger)
	_, err := svc.ActivatePlan(context.Background(), "c1", "enterprise", "", "")
	assert.ErrorIs(t, err, ErrInvalidPlan)
	assert.Empty(t, b.subs)
}

func TestExpireEnded(t *testing.T) {
	clock := newFakeClock()
	b := &fakeBilling{}
	seedSubscription(b, "c1", model.PlanStarter, 0, clock.Now().AddDate(0, -2, 0))
	seedSubscription(b, "c2", model.PlanStarter, 0, clock.Now())
	svc := NewSubscriptionService(b, b, testLogger, WithSubscriptionClock(clock.Now))

	n, err := svc.ExpireEnded(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	active, err := svc.Active(context.Background(), "c2")
	require.NoError(t, err)
	assert.NotNil(t, active)
}
