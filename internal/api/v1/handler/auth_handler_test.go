package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"complianceai/internal/api/v1/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthHandler(users *stubUsers, sessions *stubSessions, production bool) *AuthHandler {
	return NewAuthHandler(users, sessions, "session", 7*24*time.Hour, testValidate, production, testLogger)
}

func TestRegisterSetsSessionCookie(t *testing.T) {
	users := &stubUsers{}
	h := newAuthHandler(users, &stubSessions{}, true)

	rec, env := serve(t, h, http.MethodPost, "/auth/register", map[string]string{
		"name":     "  Ravi Kumar ",
		"email":    "ravi@example.in",
		"password": "Secret@123",
		"phone":    "9876543210",
	}, false)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	var resp dto.AuthResponseDTO
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "ravi@example.in", resp.User.Email)
	require.Len(t, users.registered, 1)
	assert.Equal(t, "Ravi Kumar", users.registered[0].Name)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "session", c.Name)
	assert.Equal(t, "signed-token", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 7*24*60*60, c.MaxAge)
	assert.Equal(t, "/", c.Path)
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name string
		body interface{}
		want string
	}{
		{"weak password", map[string]string{"name": "Ravi", "email": "ravi@example.in", "password": "password1"}, "password: Password must contain"},
		{"short password", map[string]string{"name": "Ravi", "email": "ravi@example.in", "password": "Ab@1"}, "password: Must be at least 8"},
		{"bad phone", map[string]string{"name": "Ravi", "email": "ravi@example.in", "password": "Secret@123", "phone": "5876543210"}, "phone: Invalid Indian phone number"},
		{"bad email", map[string]string{"name": "Ravi", "email": "ravi", "password": "Secret@123"}, "email: Invalid email"},
		{"digits in name", map[string]string{"name": "R2D2", "email": "ravi@example.in", "password": "Secret@123"}, "name: Name must contain only letters"},
		{"malformed json", "{", "Invalid JSON payload"},
		{"empty body", nil, "Request body is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := &stubUsers{}
			rec, env := serve(t, newAuthHandler(users, &stubSessions{}, false), http.MethodPost, "/auth/register", tc.body, false)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, env.Success)
			assert.Equal(t, http.StatusBadRequest, env.StatusCode)
			assert.Contains(t, env.Error, tc.want)
			assert.Empty(t, users.registered)
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestLogin(t *testing.T) {
	h := newAuthHandler(&stubUsers{}, &stubSessions{}, false)

	rec, env := serve(t, h, http.MethodPost, "/auth/login", map[string]string{"email": testUser.Email, "password": "Secret@123"}, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.False(t, rec.Result().Cookies()[0].Secure)

	rec, env = serve(t, h, http.MethodPost, "/auth/login", map[string]string{"email": testUser.Email, "password": "Wrong@123"}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", env.Error)
	assert.Empty(t, rec.Result().Cookies())
}

func TestLoginStoreFailureIsMaskedInProduction(t *testing.T) {
	h := newAuthHandler(&stubUsers{err: errors.New("dial tcp: connection refused")}, &stubSessions{}, true)
	rec, env := serve(t, h, http.MethodPost, "/auth/login", map[string]string{"email": testUser.Email, "password": "Secret@123"}, false)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", env.Error)
}

func TestLogoutExpiresCookie(t *testing.T) {
	sessions := &stubSessions{}
	h := newAuthHandler(&stubUsers{}, sessions, false)

	rec, env := serve(t, h, http.MethodPost, "/auth/logout", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", env.Message)
	assert.Equal(t, []string{"token"}, sessions.destroyed)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)

	// No credential and a failing store still log out cleanly.
	sessions = &stubSessions{err: errors.New("boom")}
	rec, _ = serve(t, newAuthHandler(&stubUsers{}, sessions, false), http.MethodPost, "/auth/logout", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, sessions.destroyed)
}

func TestMe(t *testing.T) {
	h := newAuthHandler(&stubUsers{}, &stubSessions{}, false)

	rec, _ := serve(t, h, http.MethodGet, "/auth/me", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := serve(t, h, http.MethodGet, "/auth/me", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var u dto.UserResponseDTO
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, testUser.ID, u.ID)
	assert.NotContains(t, string(env.Data), "password")

	rec, env = serve(t, h, http.MethodPatch, "/auth/me", map[string]string{"name": "Asha Iyer", "phone": "9123456789"}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "Asha Iyer", u.Name)
	require.NotNil(t, u.Phone)
	assert.Equal(t, "9123456789", *u.Phone)
}
