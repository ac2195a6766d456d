package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "idem:order:"

// IdempotencyStore maps idempotency keys to order ids in Redis with a TTL.
type IdempotencyStore struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

func NewIdempotencyStore(rdb goredis.Cmdable, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func NewClient(addr string) *goredis.Client {
	return goredis.NewClient(&goredis.Options{Addr: addr})
}

func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	orderID, err := s.rdb.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis: lookup: %w", err)
	}
	return orderID, true, nil
}

// Remember keeps the first order recorded for key.
func (s *IdempotencyStore) Remember(ctx context.Context, key, orderID string) error {
	if _, err := s.rdb.SetNX(ctx, keyPrefix+key, orderID, s.ttl).Result(); err != nil {
		return fmt.Errorf("redis: remember: %w", err)
	}
	return nil
}
