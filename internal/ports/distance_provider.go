package ports

import (
	"context"

	"collection-planning-service/internal/domain"
)

// Distance and travel duration between two points.
type DistanceResult struct {
	DistanceMeters  int
	DurationSeconds int
}

// Contract for retrieving travel distance and duration between points.
type DistanceProvider interface {
	// Return travel distance and estimated duration between two points.
	GetDistance(ctx context.Context, origin, destination domain.Coordinates) (DistanceResult, error)
}
