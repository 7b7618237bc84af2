package model

import "time"

// User represents an account holder.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Session is the persisted half of a session credential. A signed token is
// only usable while a matching row exists and Expires is in the future.
type Session struct {
	SessionToken string    `db:"session_token"`
	UserID       string    `db:"user_id"`
	Expires      time.Time `db:"expires"`
	CreatedAt    time.Time `db:"created_at"`
}

// Expired reports whether the session can no longer be used at now.
func (s *Session) Expired(now time.Time) bool {
	return s.Expires.Before(now)
}
