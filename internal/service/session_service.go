package service

import (
	"context"
	"fmt"
	"time"

	"complianceai/internal/model"
	"complianceai/internal/repository"
	"complianceai/internal/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionService issues and validates session credentials. A token is only
// accepted when its signature verifies AND a persisted, unexpired session
// row for the same user exists.
type SessionService interface {
	Create(ctx context.Context, userID string) (token string, expires time.Time, err error)
	// Resolve returns the session's user. Every authentication failure is
	// reported as ErrInvalidSession.
	Resolve(ctx context.Context, token string) (*model.User, error)
	Destroy(ctx context.Context, token string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type sessionService struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	secret   string
	ttl      time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// SessionOption configures a SessionService.
type SessionOption func(*sessionService)

// WithSessionClock replaces time.Now.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *sessionService) { s.now = now }
}

func NewSessionService(
	sessions repository.SessionRepository,
	users repository.UserRepository,
	secret string,
	ttl time.Duration,
	logger zerolog.Logger,
	opts ...SessionOption,
) SessionService {
	s := &sessionService{
		sessions: sessions,
		users:    users,
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With().Str("service", "SessionService").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *sessionService) Create(ctx context.Context, userID string) (string, time.Time, error) {
	now := s.now()
	token, err := util.SignSessionToken(userID, uuid.NewString(), s.secret, now, s.ttl)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing session token: %w", err)
	}
	sess := &model.Session{
		SessionToken: token,
		UserID:       userID,
		Expires:      now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to persist session")
		return "", time.Time{}, fmt.Errorf("persisting session: %w", err)
	}
	return token, sess.Expires, nil
}

func (s *sessionService) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	claims, err := util.ValidateJWT(token, s.secret)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Rejected session token")
		return nil, ErrInvalidSession
	}

	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if sess == nil || sess.Expired(s.now()) || sess.UserID != claims.Subject {
		return nil, ErrInvalidSession
	}

	user, err := s.users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading session user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidSession
	}
	return user, nil
}

func (s *sessionService) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *sessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	return n, nil
}
