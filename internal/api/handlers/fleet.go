package handlers

import (
	"log"
	"net/http"

	"collection-planning-service/internal/api/dto"
	"collection-planning-service/internal/ports"
	"collection-planning-service/internal/services"
)

// FleetHandler exposes read-only client and vehicle endpoints.
type FleetHandler struct {
	Clients  ports.ClientSource
	Vehicles ports.VehicleSource
}

func (h *FleetHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	clients, err := h.Clients.ListClients(r.Context())
	if err != nil {
		log.Printf("list clients failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListClientsResponse{
		Clients: make([]dto.ClientResponse, 0, len(clients)),
	}
	for _, c := range clients {
		cr := dto.ClientResponse{
			ClientID:        c.ID,
			Name:            c.Name,
			MonthlyDemandKg: c.MonthlyDemandKg,
			VisitsPerMonth:  services.VisitsPerMonth(c.Rule),
			Zone:            c.Zone,
			Category:        string(c.Category),
		}
		if c.HasLocation {
			lat, lon := c.Location.Lat, c.Location.Lon
			cr.Lat, cr.Lon = &lat, &lon
		}
		res.Clients = append(res.Clients, cr)
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *FleetHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	vehicles, err := h.Vehicles.ListVehicles(r.Context())
	if err != nil {
		log.Printf("list vehicles failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListVehiclesResponse{
		Vehicles: make([]dto.VehicleResponse, 0, len(vehicles)),
	}
	for _, v := range vehicles {
		res.Vehicles = append(res.Vehicles, dto.VehicleResponse{
			VehicleID:  v.ID,
			Name:       v.Name,
			CapacityKg: v.CapacityKg,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
