// Package cache is a thin Redis layer for the hot counters discovery
// surfaces read constantly: per-user like counts and fame ratings. All
// values are advisory; storage remains the source of truth and a cold
// cache only costs a repository read.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds staleness for cached counters. Entries are
// refreshed on access and rewritten by the fame recompute job.
const DefaultTTL = time.Hour

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New wraps an existing Redis client. A non-positive ttl falls back to
// DefaultTTL; a nil logger falls back to slog.Default.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func ratingKey(userID string) string {
	return fmt.Sprintf("fame:rating:%s", userID)
}

func likeCountKey(userID string) string {
	return fmt.Sprintf("likes:count:%s", userID)
}

// SetRating stores a user's fame rating. Called by the recompute job
// after every successful write, so readers see fresh values without a
// database round trip.
func (c *Cache) SetRating(ctx context.Context, userID string, rating int) error {
	return c.client.Set(ctx, ratingKey(userID), rating, c.ttl).Err()
}

// GetRating returns a cached fame rating. A miss is (0, false, nil),
// not an error.
func (c *Cache) GetRating(ctx context.Context, userID string) (int, bool, error) {
	val, err := c.client.Get(ctx, ratingKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get cached rating: %w", err)
	}
	rating, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("parse cached rating: %w", err)
	}
	return rating, true, nil
}

// LikeCount serves a user's received-like count cache-first. On a miss
// it calls load, stores the result, and returns it. On a hit the TTL is
// refreshed so active users stay cached.
func (c *Cache) LikeCount(ctx context.Context, userID string, load func(context.Context) (int, error)) (int, error) {
	key := likeCountKey(userID)
	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if refreshErr := c.client.Expire(ctx, key, c.ttl).Err(); refreshErr != nil {
			c.logger.Warn("like count TTL refresh failed", "user_id", userID, "error", refreshErr)
		}
		return strconv.Atoi(val)
	case errors.Is(err, redis.Nil):
		// fall through to the loader
	default:
		// Redis trouble should not take down read paths; serve from
		// storage and leave the cache alone.
		c.logger.Warn("like count cache read failed", "user_id", userID, "error", err)
	}

	count, err := load(ctx)
	if err != nil {
		return 0, err
	}
	if setErr := c.client.Set(ctx, key, count, c.ttl).Err(); setErr != nil {
		c.logger.Warn("like count cache write failed", "user_id", userID, "error", setErr)
	}
	return count, nil
}

// InvalidateLikeCount drops a user's cached like count. Called when a
// like for the user is created or removed.
func (c *Cache) InvalidateLikeCount(ctx context.Context, userID string) error {
	return c.client.Del(ctx, likeCountKey(userID)).Err()
}
