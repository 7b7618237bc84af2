package ratelimit

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultWindow is the window shared by the stock tiers.
const DefaultWindow = 15 * time.Minute

// DefaultTiers are the stock per-class limits.
func DefaultTiers() map[Class]Tier {
	return map[Class]Tier{
		ClassAuth:      {Limit: 5, Window: DefaultWindow},
		ClassAIChat:    {Limit: 20, Window: DefaultWindow},
		ClassDocuments: {Limit: 10, Window: DefaultWindow},
		ClassGeneral:   {Limit: 100, Window: DefaultWindow},
		ClassPublic:    {Limit: 200, Window: DefaultWindow},
	}
}

// Limiter applies tiers to a Store and owns the background sweep of
// closed windows. Call Shutdown to stop the sweep.
type Limiter struct {
	store   Store
	tiers   map[Class]Tier
	premium map[string]struct{}
	// premiumTier replaces the general tier for premium keys.
	premiumTier   Tier
	trusted       []*net.IPNet
	now           func() time.Time
	sweepInterval time.Duration
	logger        zerolog.Logger

	stop     chan struct{}
	done     chan struct{}
	shutdown sync.Once
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithSweepInterval sets how often closed windows are removed. Zero disables
// the background sweep.
func WithSweepInterval(d time.Duration) Option {
	return func(l *Limiter) { l.sweepInterval = d }
}

// WithPremium grants keys the premium tier on general routes.
func WithPremium(keys []string, tier Tier) Option {
	return func(l *Limiter) {
		for _, k := range keys {
			if k != "" {
				l.premium[k] = struct{}{}
			}
		}
		l.premiumTier = tier
	}
}

// WithTrustedProxies lets requests from these networks name the client in
// forwarding headers.
func WithTrustedProxies(nets []*net.IPNet) Option {
	return func(l *Limiter) { l.trusted = nets }
}

// New builds a Limiter and starts its sweeper.
func New(store Store, tiers map[Class]Tier, logger zerolog.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		store:         store,
		tiers:         tiers,
		premium:       make(map[string]struct{}),
		now:           time.Now,
		sweepInterval: 5 * time.Minute,
		logger:        logger.With().Str("component", "RateLimiter").Logger(),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.sweepInterval > 0 {
		go l.sweepLoop()
	} else {
		close(l.done)
	}
	return l
}

// Tier returns the tier that applies to key on class.
func (l *Limiter) Tier(class Class, key string) (Tier, bool) {
	if class == ClassGeneral {
		if _, ok := l.premium[key]; ok && l.premiumTier.Limit > 0 {
			return l.premiumTier, true
		}
	}
	t, ok := l.tiers[class]
	return t, ok
}

// Allow records one request from key on class.
func (l *Limiter) Allow(ctx context.Context, class Class, key string) (Result, error) {
	tier, ok := l.Tier(class, key)
	if !ok {
		return Result{}, fmt.Errorf("unknown rate limit class %q", class)
	}
	return l.store.Hit(ctx, class, key, tier.Limit, tier.Window, l.now())
}

// Now is the limiter's clock.
func (l *Limiter) Now() time.Time { return l.now() }

// Sweep removes closed windows immediately.
func (l *Limiter) Sweep(ctx context.Context) (int, error) {
	return l.store.Sweep(ctx, l.now())
}

func (l *Limiter) sweepLoop() {
	defer close(l.done)
	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			n, err := l.Sweep(ctx)
			cancel()
			if err != nil {
				l.logger.Error().Err(err).Msg("Rate limit sweep failed")
				continue
			}
			if n > 0 {
				l.logger.Debug().Int("removed", n).Msg("Swept expired rate limit windows")
			}
		}
	}
}

// Shutdown stops the sweeper and closes the store. It is safe to call more
// than once.
func (l *Limiter) Shutdown() error {
	var err error
	l.shutdown.Do(func() {
		close(l.stop)
		<-l.done
		err = l.store.Close()
	})
	return err
}
