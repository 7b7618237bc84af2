package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryKey struct {
	class Class
	key   string
}

type memoryRecord struct {
	count     int
	resetTime time.Time
}

// MemoryStore keeps counters in process memory. It suits single-instance
// deployments and tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[memoryKey]*memoryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[memoryKey]*memoryRecord)}
}

// Hit records a request. A rejected request does not change the count.
func (s *MemoryStore) Hit(_ context.Context, class Class, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := memoryKey{class: class, key: key}
	rec, ok := s.data[k]
	if !ok || expired(rec.resetTime, now) {
		rec = &memoryRecord{count: 1, resetTime: now.Add(window)}
		s.data[k] = rec
		return Result{Allowed: limit > 0, Limit: limit, Remaining: max(limit-1, 0), ResetTime: rec.resetTime}, nil
	}
	if rec.count >= limit {
		return Result{Allowed: false, Limit: limit, Remaining: 0, ResetTime: rec.resetTime}, nil
	}
	rec.count++
	return Result{Allowed: true, Limit: limit, Remaining: limit - rec.count, ResetTime: rec.resetTime}, nil
}

func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, rec := range s.data {
		if expired(rec.resetTime, now) {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[memoryKey]*memoryRecord)
	return nil
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
