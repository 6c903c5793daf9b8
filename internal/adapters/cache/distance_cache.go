package cache

import (
	"context"

	"collection-planning-service/internal/ports"
)

// DistanceCache stores origin->destination distance results keyed by
// coordinate keys. Callers are expected to pass already-normalized keys
// (domain.Coordinates.Key output).
type DistanceCache interface {
	// Fetch cached results for one origin and multiple destinations.
	// Missing destinations are simply absent from the returned map.
	GetMany(ctx context.Context, origin string, destinations []string) (map[string]ports.DistanceResult, error)
	// Store many results for a single origin.
	PutMany(ctx context.Context, origin string, results map[string]ports.DistanceResult) error
}
