package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"complianceai/internal/apperr"
	"complianceai/internal/model"
	"complianceai/internal/service"

	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const (
	UserContextKey = contextKey("user_id")
	userKey        = contextKey("user")
)

// SessionToken returns the session token from the named cookie, falling
// back to an "Authorization: Bearer" header.
func SessionToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthMiddleware resolves the session and stores the user id and user in
// the request context.
func AuthMiddleware(sessions service.SessionService, cookieName string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := sessions.Resolve(r.Context(), SessionToken(r, cookieName))
			if err != nil {
				if errors.Is(err, service.ErrInvalidSession) {
					logger.Debug().Str("path", r.URL.Path).Msg("Rejected unauthenticated request")
					writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
					return
				}
				logger.Error().Err(err).Str("path", r.URL.Path).Msg("Session lookup failed")
				writeJSONError(w, http.StatusInternalServerError, apperr.Internal(err).Message)
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, user.ID)
			ctx = context.WithValue(ctx, userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user id.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserContextKey).(string)
	return id, ok && id != ""
}

// User returns the authenticated user, or nil.
func User(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey).(*model.User)
	return u
}

// WithUser returns ctx carrying u as the authenticated user.
func WithUser(ctx context.Context, u *model.User) context.Context {
	ctx = context.WithValue(ctx, UserContextKey, u.ID)
	return context.WithValue(ctx, userKey, u)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success":    false,
		"error":      msg,
		"statusCode": status,
	})
}
