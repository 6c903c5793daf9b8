package api

import (
	"net/http"

	"collection-planning-service/internal/api/handlers"
	"collection-planning-service/internal/ports"
	"collection-planning-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root (handlers stay
// unaware of concrete adapters).
func NewRouter(planner *services.Planner, lister ports.AssignmentLister) http.Handler {
	mux := http.NewServeMux()

	fleetHandler := &handlers.FleetHandler{
		Clients:  planner.Clients,
		Vehicles: planner.Vehicles,
	}
	planHandler := &handlers.PlanHandler{
		Planner: planner,
		Lister:  lister,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/clients", fleetHandler.ListClients)
	mux.HandleFunc("/vehicles", fleetHandler.ListVehicles)
	mux.HandleFunc("/plans/monthly", planHandler.PlanMonthly)
	mux.HandleFunc("/plans/daily", planHandler.PlanDaily)
	mux.HandleFunc("/assignments", planHandler.ListAssignments)

	return loggingMiddleware(mux)
}
