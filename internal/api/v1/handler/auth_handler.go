package handler

import (
	"net/http"
	"time"

	"complianceai/internal/api/v1/dto"
	"complianceai/internal/middleware"
	"complianceai/internal/service"
	"complianceai/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	base
	users      service.UserService
	sessions   service.SessionService
	cookieName string
	sessionTTL time.Duration
}

func NewAuthHandler(
	users service.UserService,
	sessions service.SessionService,
	cookieName string,
	sessionTTL time.Duration,
	v *validator.Validate,
	production bool,
	logger zerolog.Logger,
) *AuthHandler {
	return &AuthHandler{
		base:       base{validate: v, production: production, logger: logger.With().Str("handler", "AuthHandler").Logger()},
		users:      users,
		sessions:   sessions,
		cookieName: cookieName,
		sessionTTL: sessionTTL,
	}
}

// RegisterRoutes mounts v1 auth routes
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /auth/register", h.register)
	mux.HandleFunc("POST /auth/login", h.login)
	mux.HandleFunc("POST /auth/logout", h.logout)
	mux.Handle("GET /auth/me", authMw(http.HandlerFunc(h.me)))
	mux.Handle("PATCH /auth/me", authMw(http.HandlerFunc(h.updateMe)))
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterDTO
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		Name:     validation.SanitizeString(req.Name),
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	expires, err := h.startSession(w, r, user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusCreated, dto.AuthResponseDTO{User: dto.NewUserResponse(user), ExpiresAt: expires})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginDTO
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	expires, err := h.startSession(w, r, user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, dto.AuthResponseDTO{User: dto.NewUserResponse(user), ExpiresAt: expires})
}

// logout always clears the cookie, even when the session is already gone.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r, h.cookieName); token != "" {
		if err := h.sessions.Destroy(r.Context(), token); err != nil {
			h.logger.Warn().Err(err).Msg("Failed to destroy session")
		}
	}
	http.SetCookie(w, h.cookie("", -1))
	h.message(w, "Logged out successfully")
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	if u := middleware.User(r.Context()); u != nil {
		h.ok(w, http.StatusOK, dto.NewUserResponse(u))
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, dto.NewUserResponse(user))
}

func (h *AuthHandler) updateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req dto.UpdateProfileDTO
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), userID, validation.SanitizeString(req.Name), req.Phone)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, dto.NewUserResponse(user))
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, userID string) (time.Time, error) {
	token, expires, err := h.sessions.Create(r.Context(), userID)
	if err != nil {
		return time.Time{}, err
	}
	http.SetCookie(w, h.cookie(token, int(h.sessionTTL.Seconds())))
	return expires, nil
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	}
}
