package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"complianceai/internal/apperr"
	"complianceai/internal/middleware"
	"complianceai/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// envelope is the shape of every JSON response.
type envelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Error      string      `json:"error,omitempty"`
	StatusCode int         `json:"statusCode,omitempty"`
}

// base holds what every handler needs to decode, validate and answer.
type base struct {
	validate   *validator.Validate
	production bool
	logger     zerolog.Logger
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (b *base) ok(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func (b *base) message(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msg})
}

// fail translates err to a status and a client-safe message.
func (b *base) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		b.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeJSON(w, status, envelope{
		Success:    false,
		Error:      apperr.PublicMessage(err, b.production),
		StatusCode: status,
	})
}

// decode reads a JSON body into dst and validates it.
func (b *base) decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required")
		}
		return apperr.Validation("Invalid JSON payload")
	}
	return b.check(dst)
}

func (b *base) check(v interface{}) error {
	if b.validate == nil {
		return nil
	}
	return validation.Struct(b.validate, v)
}

// userID returns the authenticated caller or writes a 401.
func (b *base) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Error: "Unauthorized", StatusCode: http.StatusUnauthorized})
	}
	return id, ok
}
