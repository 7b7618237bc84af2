// Package ratelimit implements fixed-window request limiting per client key
// and route class.
//
// A window for a key opens on its first request with count 1 and closes at
// ResetTime. While open, requests are admitted until count reaches the
// class limit; once closed the key starts over.
package ratelimit

import (
	"context"
	"time"
)

// Class is a route category with its own limit.
type Class string

const (
	ClassAuth      Class = "auth"
	ClassAIChat    Class = "ai_chat"
	ClassDocuments Class = "document_generation"
	ClassGeneral   Class = "general"
	ClassPublic    Class = "public"
)

// Tier is the limit applied to one class.
type Tier struct {
	Limit  int
	Window time.Duration
}

// Result is the outcome of one Hit.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

// RetryAfter returns the whole seconds until ResetTime, rounded up.
func (r Result) RetryAfter(now time.Time) int {
	d := r.ResetTime.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

// Store keeps the counters. Hit must be atomic per (class, key).
type Store interface {
	Hit(ctx context.Context, class Class, key string, limit int, window time.Duration, now time.Time) (Result, error)
	// Sweep removes windows that closed before now and reports how many.
	Sweep(ctx context.Context, now time.Time) (int, error)
	Close() error
}

func expired(resetTime, now time.Time) bool {
	return !now.Before(resetTime)
}
