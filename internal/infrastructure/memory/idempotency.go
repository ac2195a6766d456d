package memory

import (
	"context"
	"sync"
	"time"
)

// IdempotencyStore keeps idempotency keys in memory until their TTL passes.
type IdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]idempotencyEntry
}

type idempotencyEntry struct {
	orderID   string
	expiresAt time.Time
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]idempotencyEntry),
	}
}

func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if s.ttl > 0 && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return "", false, nil
	}
	return e.orderID, true, nil
}

// Remember keeps the first order recorded for key.
func (s *IdempotencyStore) Remember(ctx context.Context, key, orderID string) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && (s.ttl <= 0 || now.Before(e.expiresAt)) {
		return nil
	}
	s.entries[key] = idempotencyEntry{orderID: orderID, expiresAt: now.Add(s.ttl)}
	return nil
}
