package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"collection-planning-service/internal/domain"
)

// SQLite-backed implementation of the ClientSource and VehicleSource
// ports. Client cadence fields are stored raw (fixed weekday, passages
// per week, every-K-days) and folded into a single tagged VisitRule at
// scan time, so the precedence decision lives in exactly one place.
type SqliteFleetStore struct{ DB *sql.DB }

func NewSqliteFleetStore(db *sql.DB) *SqliteFleetStore {
	return &SqliteFleetStore{DB: db}
}

// Return all clients with their collection cadence resolved.
func (s *SqliteFleetStore) ListClients(ctx context.Context) ([]domain.Client, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite fleet store: DB is nil")
	}

	query := `
	SELECT
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
	FROM clients
	ORDER BY client_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list clients: query clients table: %w", err)
	}
	defer rows.Close()

	clients := make([]domain.Client, 0, 64)
	for rows.Next() {
		var (
			id              int64
			name            string
			lat, lon        sql.NullFloat64
			monthly         float64
			fixedWeekday    sql.NullInt64
			passagesPerWeek sql.NullInt64
			everyKDays      sql.NullInt64
			zone            sql.NullString
			category        sql.NullString
			roadDistance    sql.NullInt64
		)
		if err := rows.Scan(&id, &name, &lat, &lon, &monthly, &fixedWeekday,
			&passagesPerWeek, &everyKDays, &zone, &category, &roadDistance); err != nil {
			return nil, fmt.Errorf("list clients: scan row: %w", err)
		}

		c := domain.Client{
			ID:              id,
			Name:            name,
			MonthlyDemandKg: monthly,
			Zone:            zone.String,
			Category:        domain.ClientCategory(category.String),
			Rule:            resolveRule(fixedWeekday, passagesPerWeek, everyKDays),
		}
		if roadDistance.Valid {
			c.RoadDistanceMeters = int(roadDistance.Int64)
		}
		if lat.Valid && lon.Valid {
			c.Location = domain.Coordinates{Lat: lat.Float64, Lon: lon.Float64}
			c.HasLocation = true
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list clients: row iteration: %w", err)
	}

	return clients, nil
}

// resolveRule folds the three raw cadence fields into one variant.
// When several are populated the first matching branch wins: fixed
// weekday, then passages per week, then every-K-days. Tests pin this
// order.
func resolveRule(fixedWeekday, passagesPerWeek, everyKDays sql.NullInt64) domain.VisitRule {
	switch {
	case fixedWeekday.Valid:
		return domain.VisitRule{
			Kind:    domain.VisitFixedWeekday,
			Weekday: time.Weekday(fixedWeekday.Int64),
		}
	case passagesPerWeek.Valid && passagesPerWeek.Int64 > 0:
		return domain.VisitRule{
			Kind: domain.VisitTimesPerWeek,
			N:    int(passagesPerWeek.Int64),
		}
	case everyKDays.Valid && everyKDays.Int64 > 0:
		return domain.VisitRule{
			Kind: domain.VisitEveryKDays,
			K:    int(everyKDays.Int64),
		}
	default:
		return domain.VisitRule{Kind: domain.VisitNone}
	}
}

// Return the available fleet.
func (s *SqliteFleetStore) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite fleet store: DB is nil")
	}

	query := `
	SELECT
		vehicle_id,
		name,
		capacity_kg
	FROM vehicles
	ORDER BY vehicle_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: query vehicles table: %w", err)
	}
	defer rows.Close()

	vehicles := make([]domain.Vehicle, 0, 8)
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.Name, &v.CapacityKg); err != nil {
			return nil, fmt.Errorf("list vehicles: scan row: %w", err)
		}
		vehicles = append(vehicles, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles: row iteration: %w", err)
	}

	return vehicles, nil
}
