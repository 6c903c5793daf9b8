package distance

import (
	"context"
	"math"

	"collection-planning-service/internal/domain"
	"collection-planning-service/internal/ports"
)

// Mean Earth radius in meters.
const earthRadiusMeters = 6_371_000

// minSpeedKmh floors the travel speed so duration never divides by
// zero when speed is unset.
const minSpeedKmh = 1e-3

// Haversine returns the great-circle distance in meters between two
// points. Symmetric, non-negative, zero iff the points are equal.
func Haversine(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// TravelSeconds converts a distance to an estimated travel time at the
// given average speed.
func TravelSeconds(meters float64, speedKmh float64) int {
	speed := math.Max(speedKmh, minSpeedKmh) * 1000 / 3600
	return int(math.Round(meters / speed))
}

// HaversineProvider computes straight-line distances locally. It is the
// default provider and the fallback for every external one; it cannot
// fail.
type HaversineProvider struct {
	speedKmh float64
}

func NewHaversineProvider(speedKmh float64) *HaversineProvider {
	return &HaversineProvider{speedKmh: speedKmh}
}

func (h *HaversineProvider) GetDistance(
	ctx context.Context,
	origin, destination domain.Coordinates,
) (ports.DistanceResult, error) {
	meters := Haversine(origin, destination)
	return ports.DistanceResult{
		DistanceMeters:  int(math.Round(meters)),
		DurationSeconds: TravelSeconds(meters, h.speedKmh),
	}, nil
}

// GetDistances computes one origin->many results locally.
func (h *HaversineProvider) GetDistances(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) (map[string]ports.DistanceResult, error) {
	out := make(map[string]ports.DistanceResult, len(destinations))
	for _, d := range destinations {
		r, _ := h.GetDistance(ctx, origin, d)
		out[d.Key()] = r
	}
	return out, nil
}
