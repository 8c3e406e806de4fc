// Package cache is the ephemeral key-value collaborator. Every value stored
// here is idempotently re-derivable from the upstream source, so the store
// is strictly best-effort: read and write failures are logged and swallowed,
// never surfaced to the request path.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store is a string-key TTL cache with fire-and-forget semantics.
// Using an interface keeps services testable and allows running without a
// cache backend at all.
type Store interface {
	// Get returns the cached bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool)

	// SetEx stores the value under key with the given TTL. Last write wins.
	SetEx(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Delete removes a key.
	Delete(ctx context.Context, key string)
}

// RedisStore implements Store on a shared Redis client.
type RedisStore struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisStore(client *redis.Client, log zerolog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		log:    log.With().Str("component", "cache").Logger(),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		return nil, false
	}
	return value, true
}

func (s *RedisStore) SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

func (s *RedisStore) Delete(ctx context.Context, key string) {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache delete failed")
	}
}

// Noop serves when no cache backend is configured. Every read misses.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool)           { return nil, false }
func (Noop) SetEx(context.Context, string, []byte, time.Duration) {}
func (Noop) Delete(context.Context, string)                       {}
