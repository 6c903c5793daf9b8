package dto

type ClientResponse struct {
	ClientID        int64    `json:"client_id"`
	Name            string   `json:"name"`
	Lat             *float64 `json:"lat"`
	Lon             *float64 `json:"lon"`
	MonthlyDemandKg float64  `json:"monthly_demand_kg"`
	VisitsPerMonth  int      `json:"visits_per_month"`
	Zone            string   `json:"zone"`
	Category        string   `json:"category"`
}

type ListClientsResponse struct {
	Clients []ClientResponse `json:"clients"`
}

type VehicleResponse struct {
	VehicleID  int64   `json:"vehicle_id"`
	Name       string  `json:"name"`
	CapacityKg float64 `json:"capacity_kg"`
}

type ListVehiclesResponse struct {
	Vehicles []VehicleResponse `json:"vehicles"`
}
