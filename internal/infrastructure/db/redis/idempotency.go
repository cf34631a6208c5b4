package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nextlevel/order-desk/internal/core/ports"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed create can hold its key.
	pendingTTL    = time.Minute
	pendingMarker = "pending"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore tracks the order each client Idempotency-Key created.
// Key format: idem:<client_id>:<key> -> "pending" | <order_id>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates a store whose bound keys expire after ttl (24h when zero).
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims the key with SETNX. Only the caller that gets reserved=true
// may create the order.
func (s *IdempotencyStore) Reserve(ctx context.Context, clientID int64, key string) (int64, bool, error) {
	k := s.key(clientID, key)
	won, err := s.client.SetNX(ctx, k, pendingMarker, pendingTTL).Result()
	if err != nil {
		return 0, false, fmt.Errorf("idempotency reserve: %w", err)
	}
	if won {
		return 0, true, nil
	}

	val, err := s.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Released or expired since the SETNX; the owner is still deciding.
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("idempotency reserve: %w", err)
	}
	if val == pendingMarker {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency reserve: corrupt value %q: %w", val, err)
	}
	return id, false, nil
}

// Complete replaces the pending marker with orderID for the full TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, clientID int64, key string, orderID int64) error {
	if err := s.client.Set(ctx, s.key(clientID, key), orderID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, clientID int64, key string) error {
	if err := s.client.Del(ctx, s.key(clientID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(clientID int64, key string) string {
	return fmt.Sprintf("idem:%d:%s", clientID, key)
}
