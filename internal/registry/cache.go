package registry

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/notiteams/activity-api/pkg/logging"
)

// Resolver is anything that can resolve a conversation token.
type Resolver interface {
	Resolve(ctx context.Context, token uuid.UUID) (*Binding, error)
}

// CachedStore puts a Redis read-through cache in front of a Resolver.
// Bindings are immutable once issued, so a positive cache entry can only
// go stale by token revocation; the TTL bounds that window. Misses and
// cache failures fall through to the inner resolver.
type CachedStore struct {
	inner  Resolver
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedStore wraps inner with a Redis cache.
func NewCachedStore(inner Resolver, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedStore {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedStore{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(token uuid.UUID) string {
	return "binding:" + token.String()
}

// Resolve returns the cached binding when present, otherwise resolves
// through the inner store and caches the result. NotFound is never cached.
func (c *CachedStore) Resolve(ctx context.Context, token uuid.UUID) (*Binding, error) {
	key := cacheKey(token)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var b Binding
		if unmarshalErr := json.Unmarshal(raw, &b); unmarshalErr == nil {
			return &b, nil
		}
		// Corrupt entry; fall through and overwrite.
		c.logger.Warn("corrupt binding cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("binding cache read failed", "error", err)
	}

	b, err := c.inner.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(b)
	if err == nil {
		if setErr := c.client.Set(ctx, key, encoded, c.ttl).Err(); setErr != nil {
			c.logger.Warn("binding cache write failed", "error", setErr)
		}
	}
	return b, nil
}
