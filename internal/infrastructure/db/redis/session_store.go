package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
)

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore keeps server-side sessions as expiring keys.
// Key format: session:<session_id> -> <user_id>
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Save binds sessionID to userID until ttl elapses.
func (s *SessionStore) Save(ctx context.Context, sessionID string, userID int64, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("save session: ttl must be positive")
	}
	if err := s.client.Set(ctx, s.key(sessionID), userID, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Lookup returns the user bound to sessionID, or domain.ErrSessionExpired
// when the key is gone.
func (s *SessionStore) Lookup(ctx context.Context, sessionID string) (int64, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, domain.ErrSessionExpired
		}
		return 0, fmt.Errorf("lookup session: %w", err)
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("lookup session: corrupt value: %w", err)
	}
	return id, nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) key(sessionID string) string {
	return "session:" + sessionID
}
