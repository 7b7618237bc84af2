// Package apperr is the error taxonomy shared by services and handlers.
// Every error that reaches an HTTP boundary is either an *Error or is
// treated as an unexpected internal failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindAuthentication  Kind = "authentication"
	KindAuthorization   Kind = "authorization"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindRateLimit       Kind = "rate_limit"
	KindDatabase        Kind = "database"
	KindExternalService Kind = "external_service"
	KindInternal        Kind = "internal"
)

// Error carries an HTTP status and whether it is an expected (operational)
// failure or a programmer error.
type Error struct {
	Kind        Kind
	Status      int
	Message     string
	Operational bool
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind so sentinels can be compared with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func newError(kind Kind, status int, msg string, err error) *Error {
	return &Error{Kind: kind, Status: status, Message: msg, Operational: true, Err: err}
}

func Validation(msg string) *Error {
	return newError(KindValidation, http.StatusBadRequest, msg, nil)
}

// ValidationField prefixes msg with the offending field.
func ValidationField(field, msg string) *Error {
	return Validation(field + ": " + msg)
}

func Authentication(msg string) *Error {
	if msg == "" {
		msg = "Authentication failed"
	}
	return newError(KindAuthentication, http.StatusUnauthorized, msg, nil)
}

func Authorization(msg string) *Error {
	if msg == "" {
		msg = "Access denied"
	}
	return newError(KindAuthorization, http.StatusForbidden, msg, nil)
}

func NotFound(resource string) *Error {
	if resource == "" {
		resource = "Resource"
	}
	return newError(KindNotFound, http.StatusNotFound, resource+" not found", nil)
}

func Conflict(msg string) *Error {
	if msg == "" {
		msg = "Resource already exists"
	}
	return newError(KindConflict, http.StatusConflict, msg, nil)
}

func RateLimit(msg string) *Error {
	if msg == "" {
		msg = "Rate limit exceeded"
	}
	return newError(KindRateLimit, http.StatusTooManyRequests, msg, nil)
}

func Database(err error) *Error {
	return newError(KindDatabase, http.StatusInternalServerError, "Database operation failed", err)
}

func ExternalService(service string, err error) *Error {
	return newError(KindExternalService, http.StatusBadGateway, service+": External service error", err)
}

// Internal wraps an unexpected failure. It is never operational, so its
// message is masked in production responses.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: "Internal server error", Err: err}
}

// As returns err as an *Error, wrapping unknown errors with Internal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if mapped := FromDatabase(err); mapped != nil {
		return mapped
	}
	return Internal(err)
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return As(err).Status
}

// PublicMessage is the message safe to show a client. Non-operational
// errors reveal their cause only outside production.
func PublicMessage(err error, production bool) string {
	ae := As(err)
	if ae.Operational || !production {
		if !ae.Operational && ae.Err != nil {
			return ae.Err.Error()
		}
		return ae.Message
	}
	return "Internal server error"
}
