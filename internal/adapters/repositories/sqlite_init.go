package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the SQLite schema for planning inputs and the local
// distance cache.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createClientsQuery := `
	CREATE TABLE IF NOT EXISTS clients (
		client_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		lat REAL,
		lon REAL,
		monthly_demand_kg REAL NOT NULL DEFAULT 0,
		fixed_weekday INTEGER,
		passages_per_week INTEGER,
		every_k_days INTEGER,
		zone TEXT,
		category TEXT,
		road_distance_meters INTEGER
	);
	`

	createVehiclesQuery := `
	CREATE TABLE IF NOT EXISTS vehicles (
		vehicle_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		capacity_kg REAL NOT NULL DEFAULT 0
	);
	`

	createDistanceCacheQuery := `
	CREATE TABLE IF NOT EXISTS distance_cache (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        distance_meters INTEGER NOT NULL,
        duration_seconds INTEGER NOT NULL,
        PRIMARY KEY (origin, destination)
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_distance_cache_destination_origin
    ON distance_cache(destination, origin);
	`

	statements := []string{
		createClientsQuery,
		createVehiclesQuery,
		createDistanceCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type ClientSeed struct {
	ClientID        int64    `json:"client_id"`
	Name            string   `json:"name"`
	Lat             *float64 `json:"lat"`
	Lon             *float64 `json:"lon"`
	MonthlyDemandKg float64  `json:"monthly_demand_kg"`
	FixedWeekday    *int     `json:"fixed_weekday"`
	PassagesPerWeek *int     `json:"passages_per_week"`
	EveryKDays      *int     `json:"every_k_days"`
	Zone            string   `json:"zone"`
	Category        string   `json:"category"`
	RoadDistanceM   *int     `json:"road_distance_meters"`
}

type VehicleSeed struct {
	VehicleID  int64   `json:"vehicle_id"`
	Name       string  `json:"name"`
	CapacityKg float64 `json:"capacity_kg"`
}

type FleetSeed struct {
	Clients  []ClientSeed  `json:"clients"`
	Vehicles []VehicleSeed `json:"vehicles"`
}

// Populate the database with fleet data from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed fleet: read %q: %w", jsonPath, err)
	}

	var seed FleetSeed
	if err := json.Unmarshal(bytes, &seed); err != nil {
		return fmt.Errorf("seed fleet: parse json: %w", err)
	}

	for i, c := range seed.Clients {
		if c.ClientID <= 0 {
			return fmt.Errorf("seed fleet: invalid client_id at index %d: %d", i, c.ClientID)
		}
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("seed fleet: client at index %d: name cannot be empty", i)
		}
	}
	for i, v := range seed.Vehicles {
		if v.VehicleID <= 0 {
			return fmt.Errorf("seed fleet: invalid vehicle_id at index %d: %d", i, v.VehicleID)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed fleet: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	clientStmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO clients (
		client_id,
		name,
		lat,
		lon,
		monthly_demand_kg,
		fixed_weekday,
		passages_per_week,
		every_k_days,
		zone,
		category,
		road_distance_meters
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed fleet: prepare client insert: %w", err)
	}
	defer clientStmt.Close()

	for _, c := range seed.Clients {
		if _, err := clientStmt.Exec(c.ClientID, c.Name, c.Lat, c.Lon, c.MonthlyDemandKg,
			c.FixedWeekday, c.PassagesPerWeek, c.EveryKDays, c.Zone, c.Category, c.RoadDistanceM); err != nil {
			return fmt.Errorf("seed fleet: insert client_id=%d: %w", c.ClientID, err)
		}
	}

	vehicleStmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO vehicles (
		vehicle_id,
		name,
		capacity_kg
	)
	VALUES (?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed fleet: prepare vehicle insert: %w", err)
	}
	defer vehicleStmt.Close()

	for _, v := range seed.Vehicles {
		if _, err := vehicleStmt.Exec(v.VehicleID, v.Name, v.CapacityKg); err != nil {
			return fmt.Errorf("seed fleet: insert vehicle_id=%d: %w", v.VehicleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed fleet: commit tx: %w", err)
	}

	return nil
}
