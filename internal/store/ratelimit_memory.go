package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/serroba/recipebox/internal/ratelimit"
)

// RateLimitMemoryStore is an in-memory sliding-window implementation of
// ratelimit.Store. It is used when no Redis address is configured.
type RateLimitMemoryStore struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	now      func() time.Time
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return NewRateLimitMemoryStoreWithClock(time.Now)
}

// NewRateLimitMemoryStoreWithClock creates a store that reads time from now.
func NewRateLimitMemoryStoreWithClock(now func() time.Time) *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		requests: make(map[string][]time.Time),
		now:      now,
	}
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	// timestamps are appended in order, so everything before the first
	// in-window entry has expired
	timestamps := s.requests[key]
	first, _ := slices.BinarySearchFunc(timestamps, cutoff, func(ts, c time.Time) int {
		if ts.After(c) {
			return 1
		}

		return -1
	})

	valid := append(slices.Clone(timestamps[first:]), now)
	s.requests[key] = valid

	return int64(len(valid)), nil
}

var _ ratelimit.Store = (*RateLimitMemoryStore)(nil)
