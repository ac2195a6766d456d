package memory

import (
	"context"
	"testing"
	"time"
)

func TestIdempotencyStoreKeepsFirstUntilExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewIdempotencyStore(time.Minute)
	s.now = func() time.Time { return now }

	if _, found, _ := s.Lookup(ctx, "k"); found {
		t.Fatalf("expected empty store")
	}
	_ = s.Remember(ctx, "k", "o-1")
	_ = s.Remember(ctx, "k", "o-2")

	id, found, err := s.Lookup(ctx, "k")
	if err != nil || !found || id != "o-1" {
		t.Fatalf("expected o-1, got %q found=%v err=%v", id, found, err)
	}

	now = now.Add(2 * time.Minute)
	if _, found, _ := s.Lookup(ctx, "k"); found {
		t.Fatalf("expected key to expire")
	}
}
