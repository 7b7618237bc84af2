package apperr

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes mapped to client-facing statuses.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// FromDatabase maps well-known pgx errors to the taxonomy. It returns nil
// when err is not a database error.
func FromDatabase(err error) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: "Resource not found", Operational: true, Err: err}
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		msg := "Resource already exists"
		if pgErr.ConstraintName != "" {
			msg += " (" + pgErr.ConstraintName + ")"
		}
		return &Error{Kind: KindConflict, Status: http.StatusConflict, Message: msg, Operational: true, Err: err}
	case pgForeignKeyViolation:
		return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: "Foreign key constraint failed", Operational: true, Err: err}
	case pgCheckViolation:
		return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: "Check constraint failed", Operational: true, Err: err}
	default:
		return Database(err)
	}
}
