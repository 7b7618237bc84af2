package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"complianceai/internal/model"
	"complianceai/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessions struct {
	users map[string]*model.User
	err   error
}

func (s *stubSessions) Create(context.Context, string) (string, time.Time, error) {
	return "", time.Time{}, nil
}

func (s *stubSessions) Resolve(_ context.Context, token string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, service.ErrInvalidSession
}

func (s *stubSessions) Destroy(context.Context, string) error       { return nil }
func (s *stubSessions) PurgeExpired(context.Context) (int64, error) { return 0, nil }

func protected(sessions service.SessionService) http.Handler {
	mw := AuthMiddleware(sessions, "session", zerolog.New(io.Discard))
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserID(r.Context())
		if !ok || User(r.Context()) == nil {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(id))
	}))
}

func TestAuthMiddleware(t *testing.T) {
	sessions := &stubSessions{users: map[string]*model.User{"good": {ID: "u1"}}}
	h := protected(sessions)

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: "good"}) }, http.StatusOK},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusOK},
		{"lowercase bearer", func(r *http.Request) { r.Header.Set("Authorization", "bearer good") }, http.StatusOK},
		{"missing", func(*http.Request) {}, http.StatusUnauthorized},
		{"unknown token", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: "bad"}) }, http.StatusUnauthorized},
		{"other cookie name", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session-token", Value: "good"}) }, http.StatusUnauthorized},
		{"basic auth", func(r *http.Request) { r.Header.Set("Authorization", "Basic good") }, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "u1", rec.Body.String())
				return
			}
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "Unauthorized", body["error"])
			assert.Equal(t, float64(401), body["statusCode"])
		})
	}
}

func TestAuthMiddlewareStoreFailure(t *testing.T) {
	h := protected(&stubSessions{err: errors.New("connection refused")})
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "good"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestLoggerMiddlewareRecordsStatus(t *testing.T) {
	h := LoggerMiddleware(zerolog.New(io.Discard), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/companies", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
}
