package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwulff/steno/player/internal/transcript"
)

const keyPrefix = "steno-player:transcript:"

// Cached is a read-through Redis cache in front of another Source. Only
// transcripts are cached; listings always go to the underlying source.
// Redis failures are logged and fall through.
type Cached struct {
	next   Source
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// ConnectCache dials Redis at addr and wraps next.
func ConnectCache(ctx context.Context, next Source, addr string, ttl time.Duration) (*Cached, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Cached{next: next, client: client, ttl: ttl, logger: slog.Default()}, nil
}

// List delegates to the underlying source.
func (c *Cached) List(ctx context.Context) ([]transcript.ListItem, error) {
	return c.next.List(ctx)
}

// Get returns the cached transcript, fetching and storing it on a miss.
func (c *Cached) Get(ctx context.Context, id transcript.ID) (*transcript.Transcript, error) {
	key := cacheKey(id)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var t transcript.Transcript
		if err := json.Unmarshal(data, &t); err == nil {
			return &t, nil
		}
		c.logger.Warn("discarding corrupt cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("cache read failed", "key", key, "err", err)
	}

	t, err := c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(t); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", "key", key, "err", err)
		}
	}
	return t, nil
}

// Invalidate removes a transcript from the cache.
func (c *Cached) Invalidate(ctx context.Context, id transcript.ID) error {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("error invalidating cache: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *Cached) Close() error {
	return c.client.Close()
}

func cacheKey(id transcript.ID) string {
	return keyPrefix + id.String()
}
