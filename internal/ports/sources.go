package ports

import (
	"context"

	"collection-planning-service/internal/domain"
)

// Port: a boundary for retrieving Client entities from a data source.
// The planner treats clients as read-only input.
type ClientSource interface {
	// Retrieve all clients eligible for planning.
	ListClients(ctx context.Context) ([]domain.Client, error)
}

// Port: a boundary for retrieving the available fleet.
type VehicleSource interface {
	ListVehicles(ctx context.Context) ([]domain.Vehicle, error)
}
