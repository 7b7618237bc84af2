package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"complianceai/internal/middleware"
	"complianceai/internal/model"
	"complianceai/internal/service"
	"complianceai/internal/validation"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testLogger = zerolog.New(io.Discard)

var testUser = &model.User{ID: "user-1", Name: "Asha Rao", Email: "asha@example.in", CreatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)}

// fakeAuth stands in for the session middleware and authenticates every
// request with a cookie or bearer token as testUser.
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if middleware.SessionToken(r, "session") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), testUser)))
	})
}

type routes interface {
	RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler)
}

func serve(t *testing.T, h routes, method, path string, body interface{}, authed bool) (*httptest.ResponseRecorder, envelopeBody) {
	t.Helper()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, fakeAuth)

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if authed {
		req.Header.Set("Authorization", "Bearer token")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var env envelopeBody
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

type envelopeBody struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	StatusCode int             `json:"statusCode"`
}

var testValidate = validation.New()

type stubUsers struct {
	registered []service.RegisterInput
	err        error
}

func (s *stubUsers) Register(_ context.Context, in service.RegisterInput) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.registered = append(s.registered, in)
	return &model.User{ID: "user-2", Name: in.Name, Email: in.Email, Phone: in.Phone}, nil
}

func (s *stubUsers) Login(_ context.Context, email, password string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if email != testUser.Email || password != "Secret@123" {
		return nil, service.ErrInvalidCredentials
	}
	return testUser, nil
}

func (s *stubUsers) Get(context.Context, string) (*model.User, error) { return testUser, nil }

func (s *stubUsers) UpdateProfile(_ context.Context, id, name string, phone *string) (*model.User, error) {
	return &model.User{ID: id, Name: name, Email: testUser.Email, Phone: phone}, nil
}

type stubSessions struct {
	destroyed []string
	err       error
}

func (s *stubSessions) Create(context.Context, string) (string, time.Time, error) {
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	return "signed-token", time.Now().Add(7 * 24 * time.Hour), nil
}

func (s *stubSessions) Resolve(context.Context, string) (*model.User, error) { return testUser, nil }

func (s *stubSessions) Destroy(_ context.Context, token string) error {
	s.destroyed = append(s.destroyed, token)
	return s.err
}

func (s *stubSessions) PurgeExpired(context.Context) (int64, error) { return 0, nil }

type stubCompanies struct {
	owned   map[string]*model.Company
	created []*model.Company
}

func (s *stubCompanies) Create(_ context.Context, userID string, c *model.Company) (*model.Company, error) {
	c.ID = "company-new"
	c.UserID = userID
	s.created = append(s.created, c)
	return c, nil
}

func (s *stubCompanies) ListByUser(context.Context, string) ([]model.Company, error) {
	out := []model.Company{}
	for _, c := range s.owned {
		out = append(out, *c)
	}
	return out, nil
}

func (s *stubCompanies) GetOwned(_ context.Context, _, companyID string) (*model.Company, error) {
	if c, ok := s.owned[companyID]; ok {
		return c, nil
	}
	return nil, service.ErrCompanyNotFound
}

func (s *stubCompanies) Primary(context.Context, string) (*model.Company, error) {
	for _, c := range s.owned {
		return c, nil
	}
	return nil, service.ErrCompanyNotFound
}

type stubSubscriptions struct {
	service.SubscriptionService
	quota model.QuotaStatus
}

func (s *stubSubscriptions) CheckLimits(context.Context, string) (*model.QuotaStatus, error) {
	q := s.quota
	return &q, nil
}
