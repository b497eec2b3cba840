// Package idempotency rejects repeated checkout submissions that carry the
// same Idempotency-Key.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "checkout:"

// Guard claims idempotency keys.
type Guard interface {
	// Acquire claims key. It returns false when the key is already held.
	Acquire(ctx context.Context, key string) (bool, error)

	// Release frees key so the request can be retried.
	Release(ctx context.Context, key string) error
}

// redisGuard implements Guard with SETNX and a TTL.
type redisGuard struct {
	client redis.Cmdable
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisGuard creates a Redis-backed guard. Keys expire after ttl.
func NewRedisGuard(client redis.Cmdable, ttl time.Duration, logger zerolog.Logger) Guard {
	return &redisGuard{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "idempotency-guard").Logger(),
	}
}

// Acquire claims key with SETNX.
func (g *redisGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, keyPrefix+key, 1, g.ttl).Result()
	if err != nil {
		g.logger.Error().Err(err).Str("key", key).Msg("failed to acquire idempotency key")
		return false, fmt.Errorf("failed to acquire idempotency key: %w", err)
	}

	if !ok {
		g.logger.Info().Str("key", key).Msg("idempotency key already held")
	}

	return ok, nil
}

// Release deletes key.
func (g *redisGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		g.logger.Error().Err(err).Str("key", key).Msg("failed to release idempotency key")
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// nopGuard accepts every key.
type nopGuard struct{}

// NewNopGuard returns a Guard that never reports duplicates.
func NewNopGuard() Guard {
	return nopGuard{}
}

func (nopGuard) Acquire(context.Context, string) (bool, error) { return true, nil }

func (nopGuard) Release(context.Context, string) error { return nil }
