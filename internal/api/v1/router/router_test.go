package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"complianceai/internal/config"
	"complianceai/internal/metrics"
	"complianceai/internal/ratelimit"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassFor(t *testing.T) {
	cases := []struct {
		method, path string
		want         ratelimit.Class
	}{
		{http.MethodPost, "/api/auth/login", ratelimit.ClassAuth},
		{http.MethodPost, "/api/auth/register/", ratelimit.ClassAuth},
		{http.MethodPost, "/api/auth/logout", ratelimit.ClassGeneral},
		{http.MethodGet, "/api/auth/me", ratelimit.ClassGeneral},
		{http.MethodPost, "/api/ai/chat", ratelimit.ClassAIChat},
		{http.MethodDelete, "/api/ai/insights", ratelimit.ClassAIChat},
		{http.MethodPost, "/api/documents/generate", ratelimit.ClassDocuments},
		{http.MethodGet, "/api/documents/templates", ratelimit.ClassPublic},
		{http.MethodGet, "/api/payments/plans", ratelimit.ClassPublic},
		{http.MethodPost, "/api/payments/create-order", ratelimit.ClassGeneral},
		{http.MethodGet, "/api/documents", ratelimit.ClassGeneral},
		{http.MethodGet, "/api/companies", ratelimit.ClassGeneral},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassFor(tc.method, tc.path), "%s %s", tc.method, tc.path)
	}
}

func TestTiersFromConfig(t *testing.T) {
	cfg := &config.Config{RateLimitWindow: time.Minute, RateLimitAuth: 3, RateLimitPublic: 0}
	tiers := Tiers(cfg)

	assert.Equal(t, ratelimit.Tier{Limit: 3, Window: time.Minute}, tiers[ratelimit.ClassAuth])
	assert.Equal(t, ratelimit.DefaultTiers()[ratelimit.ClassPublic], tiers[ratelimit.ClassPublic])
	assert.Len(t, tiers, 5)
}

func TestAllowedOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, allowedOrigins(&config.Config{Environment: "development"}))
	assert.Nil(t, allowedOrigins(&config.Config{Environment: "production"}))
	assert.Equal(t, []string{"https://app.example.in"}, allowedOrigins(&config.Config{Environment: "production", AllowedOrigins: []string{"https://app.example.in"}}))
}

type pingRoutes struct{}

func (pingRoutes) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	mux.HandleFunc("POST /auth/login", ok)
	mux.Handle("GET /companies", authMw(http.HandlerFunc(ok)))
}

func newTestHandler(t *testing.T, origins []string) http.Handler {
	t.Helper()
	limiter := ratelimit.New(ratelimit.NewMemoryStore(), map[ratelimit.Class]ratelimit.Tier{
		ratelimit.ClassAuth:      {Limit: 2, Window: time.Minute},
		ratelimit.ClassAIChat:    {Limit: 10, Window: time.Minute},
		ratelimit.ClassDocuments: {Limit: 10, Window: time.Minute},
		ratelimit.ClassGeneral:   {Limit: 10, Window: time.Minute},
		ratelimit.ClassPublic:    {Limit: 10, Window: time.Minute},
	}, zerolog.New(io.Discard), ratelimit.WithSweepInterval(0))
	t.Cleanup(func() { _ = limiter.Shutdown() })

	passThrough := func(next http.Handler) http.Handler { return next }
	return Handler([]Routes{pingRoutes{}}, passThrough, limiter, metrics.New(), origins, zerolog.New(io.Discard))
}

func TestHandlerRateLimitsByClass(t *testing.T) {
	h := newTestHandler(t, []string{"*"})

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "203.0.113.7:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do(http.MethodPost, "/api/auth/login").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodPost, "/api/auth/login").Code)
	rejected := do(http.MethodPost, "/api/auth/login")
	require.Equal(t, http.StatusTooManyRequests, rejected.Code)
	assert.Equal(t, "0", rejected.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rejected.Header().Get("Retry-After"))

	// Other classes keep their own counters.
	rec := do(http.MethodGet, "/api/companies")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/health").Code)
	metricsRec := do(http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), `complianceai_rate_limit_rejections_total{class="auth"} 1`)
}

func TestHandlerCORS(t *testing.T) {
	preflight := func(h http.Handler) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/companies", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight(newTestHandler(t, []string{"*"}))
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = preflight(newTestHandler(t, nil))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
