package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const ownerKeyPrefix = "session:owner:"

// SessionCache caches session ownership (session id to owner user id) in
// Redis so the hot path of the streaming endpoint can skip a database lookup.
// All methods are nil-receiver safe and treat cache errors as misses; the
// database remains the source of truth.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache wraps a Redis client. A nil client yields a disabled cache
// on which every lookup misses.
func NewSessionCache(client *redis.Client, ttl time.Duration) *SessionCache {
	if client == nil {
		return nil
	}
	return &SessionCache{client: client, ttl: ttl}
}

// GetOwner returns the cached owner of a session. The second return reports
// whether the entry was present.
func (c *SessionCache) GetOwner(ctx context.Context, sessionID string) (string, bool) {
	if c == nil {
		return "", false
	}
	owner, err := c.client.Get(ctx, ownerKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) || err != nil {
		return "", false
	}
	return owner, true
}

func (c *SessionCache) SetOwner(ctx context.Context, sessionID, userID string) {
	if c == nil {
		return
	}
	// Best effort; a failed set only costs a future database lookup.
	_ = c.client.Set(ctx, ownerKeyPrefix+sessionID, userID, c.ttl).Err()
}

// Invalidate drops the ownership entry. Must be called when a session is
// deleted so a stale entry cannot authorize access to a dead session.
func (c *SessionCache) Invalidate(ctx context.Context, sessionID string) {
	if c == nil {
		return
	}
	_ = c.client.Del(ctx, ownerKeyPrefix+sessionID).Err()
}
