// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"cognitio/internal/models"
)

const (
	// feedKey prefixes the JSON-encoded list of live posts. The current
	// generation is appended, so a feed computed before an invalidation
	// lands under a key nobody reads anymore.
	feedKey = "feed:anonymous:"

	// generationKey counts invalidations.
	generationKey = "feed:generation"

	// DefaultFeedTTL is how long the anonymous feed stays cached.
	DefaultFeedTTL = 5 * time.Minute
)

// FeedCache stores the post list shown to anonymous visitors. Only posts
// already filtered for anonymous visibility may be stored.
type FeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFeedCache creates a feed cache backed by the given Valkey client.
func NewFeedCache(client *redis.Client, ttl time.Duration) *FeedCache {
	if ttl == 0 {
		ttl = DefaultFeedTTL
	}
	return &FeedCache{client: client, ttl: ttl}
}

func feedKeyFor(gen int64) string {
	return feedKey + strconv.FormatInt(gen, 10)
}

// generation returns the current invalidation count, 0 before the first
// invalidation.
func (c *FeedCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetFeed returns the cached feed and the generation it was read at. On a
// miss the generation is still reported so the caller can store a freshly
// computed feed with SetFeed. A negative generation means the cache is
// unusable and nothing should be stored.
func (c *FeedCache) GetFeed(ctx context.Context) ([]models.Post, int64, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		slog.Warn("feed cache generation error", "error", err)
		return nil, -1, false
	}
	raw, err := c.client.Get(ctx, feedKeyFor(gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false
	}
	if err != nil {
		slog.Warn("feed cache get error", "error", err)
		return nil, gen, false
	}
	var posts []models.Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		slog.Warn("feed cache decode error", "error", err)
		return nil, gen, false
	}
	slog.Debug("feed cache hit", "posts", len(posts), "generation", gen)
	return posts, gen, true
}

// SetFeed stores posts under generation gen, as returned by GetFeed before
// the posts were loaded. If the feed was invalidated in between, the entry
// is written under a stale key and simply expires.
func (c *FeedCache) SetFeed(ctx context.Context, gen int64, posts []models.Post) {
	if gen < 0 {
		return
	}
	raw, err := json.Marshal(posts)
	if err != nil {
		slog.Warn("feed cache encode error", "error", err)
		return
	}
	if err := c.client.Set(ctx, feedKeyFor(gen), raw, c.ttl).Err(); err != nil {
		slog.Warn("feed cache set error", "error", err)
	}
}

// InvalidateFeed bumps the generation so every earlier entry, including
// one still being computed, is never served again.
func (c *FeedCache) InvalidateFeed(ctx context.Context) {
	gen, err := c.client.Incr(ctx, generationKey).Result()
	if err != nil {
		slog.Warn("feed cache invalidate error", "error", err)
		return
	}
	if err := c.client.Del(ctx, feedKeyFor(gen-1)).Err(); err != nil {
		slog.Warn("feed cache cleanup error", "error", err)
	}
	slog.Debug("feed cache invalidated", "generation", gen)
}
