package distance

import (
	"context"

	"collection-planning-service/internal/ports"
)

// memCache is a throwaway in-memory DistanceCache for provider tests.
type memCache struct {
	m map[string]ports.DistanceResult
}

func newMemCache() *memCache {
	return &memCache{m: make(map[string]ports.DistanceResult)}
}

func (c *memCache) GetMany(ctx context.Context, origin string, destinations []string) (map[string]ports.DistanceResult, error) {
	out := make(map[string]ports.DistanceResult)
	for _, d := range destinations {
		if r, ok := c.m[origin+"|"+d]; ok {
			out[d] = r
		}
	}
	return out, nil
}

func (c *memCache) PutMany(ctx context.Context, origin string, results map[string]ports.DistanceResult) error {
	for d, r := range results {
		c.m[origin+"|"+d] = r
	}
	return nil
}
