package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"collection-planning-service/internal/ports"
)

// RedisDistanceCache keeps distance results in Redis hashes, one hash
// per origin. Road distances drift so slowly that entries carry a long
// TTL instead of explicit invalidation.
type RedisDistanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDistanceCache(client *redis.Client, ttl time.Duration) *RedisDistanceCache {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RedisDistanceCache{client: client, ttl: ttl}
}

func originHashKey(origin string) string { return "dist:" + origin }

// encode packs a result as "meters|seconds" for hash storage.
func encode(r ports.DistanceResult) string {
	return strconv.Itoa(r.DistanceMeters) + "|" + strconv.Itoa(r.DurationSeconds)
}

func decode(s string) (ports.DistanceResult, error) {
	meters, seconds, ok := strings.Cut(s, "|")
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("malformed cache value %q", s)
	}
	m, err := strconv.Atoi(meters)
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("malformed cache meters %q", s)
	}
	sec, err := strconv.Atoi(seconds)
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("malformed cache seconds %q", s)
	}
	return ports.DistanceResult{DistanceMeters: m, DurationSeconds: sec}, nil
}

func (c *RedisDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (map[string]ports.DistanceResult, error) {
	if c.client == nil {
		return nil, errors.New("redis distance cache: client is nil")
	}
	if origin == "" {
		return nil, errors.New("get distance cache: origin must not be empty")
	}
	if len(destinations) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	vals, err := c.client.HMGet(ctx, originHashKey(origin), destinations...).Result()
	if err != nil {
		return nil, fmt.Errorf("get distance cache: hmget origin=%s: %w", origin, err)
	}

	out := make(map[string]ports.DistanceResult, len(destinations))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		r, err := decode(s)
		if err != nil {
			// Skip corrupt entries; they will be refetched and rewritten.
			continue
		}
		out[destinations[i]] = r
	}
	return out, nil
}

func (c *RedisDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) error {
	if c.client == nil {
		return errors.New("redis distance cache: client is nil")
	}
	if origin == "" {
		return errors.New("insert distance cache: origin must not be empty")
	}
	if len(results) == 0 {
		return nil
	}

	fields := make(map[string]any, len(results))
	for dest, r := range results {
		if strings.TrimSpace(dest) == "" {
			return fmt.Errorf("insert distance cache: empty destination key")
		}
		fields[dest] = encode(r)
	}

	key := originHashKey(origin)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert distance cache: origin=%s: %w", origin, err)
	}
	return nil
}
