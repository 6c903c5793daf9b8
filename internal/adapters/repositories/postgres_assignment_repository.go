package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"collection-planning-service/internal/domain"
	"collection-planning-service/internal/platform/obs"
)

// Postgres-backed implementation of the AssignmentSink port. Planning
// output for a date range is always replaced wholesale: one transaction
// deletes the prior assignments for the range and inserts the new ones,
// so no partial run is ever visible.
type PostgresAssignmentRepository struct{ DB *sql.DB }

func NewPostgresAssignmentRepository(db *sql.DB) *PostgresAssignmentRepository {
	return &PostgresAssignmentRepository{DB: db}
}

func (r *PostgresAssignmentRepository) ReplaceAssignments(
	ctx context.Context,
	from, to time.Time,
	assignments []domain.RouteAssignment,
) (err error) {
	defer obs.Time(ctx, "assignments.Replace")(&err)

	if r.DB == nil {
		return errors.New("assignment repository: DB is nil")
	}
	if to.Before(from) {
		return fmt.Errorf("replace assignments: range end %s precedes start %s",
			to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace assignments: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Stops go with their assignment via ON DELETE CASCADE.
	if _, err := tx.ExecContext(ctx, `
	DELETE FROM route_assignments
	WHERE date >= $1 AND date <= $2;
	`, from, to); err != nil {
		return fmt.Errorf("replace assignments: delete prior range: %w", err)
	}

	assignmentStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO route_assignments (
		run_id, date, vehicle_id,
		total_weight_kg, total_distance_meters, total_duration_seconds
	)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING assignment_id;
	`)
	if err != nil {
		return fmt.Errorf("replace assignments: prepare assignment insert: %w", err)
	}
	defer assignmentStmt.Close()

	stopStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO route_stops (
		assignment_id, sequence, client_id, weight_kg,
		leg_distance_meters, cumulative_seconds, arrive_at, depart_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`)
	if err != nil {
		return fmt.Errorf("replace assignments: prepare stop insert: %w", err)
	}
	defer stopStmt.Close()

	for _, a := range assignments {
		var assignmentID int64
		if err := assignmentStmt.QueryRowContext(ctx,
			a.RunID, a.Date, a.VehicleID,
			a.TotalWeightKg, a.TotalDistanceMeters, a.TotalDurationSeconds,
		).Scan(&assignmentID); err != nil {
			return fmt.Errorf("replace assignments: insert vehicle=%d date=%s: %w",
				a.VehicleID, a.Date.Format("2006-01-02"), err)
		}

		for _, s := range a.Stops {
			if _, err := stopStmt.ExecContext(ctx,
				assignmentID, s.Sequence, s.ClientID, s.WeightKg,
				s.LegDistanceMeters, s.CumulativeSeconds, s.ArriveAt, s.DepartAt,
			); err != nil {
				return fmt.Errorf("replace assignments: insert stop client=%d: %w", s.ClientID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace assignments: commit tx: %w", err)
	}

	return nil
}

// ListAssignments returns persisted assignments for a date range,
// stops ordered by sequence. Used by the read-side API.
func (r *PostgresAssignmentRepository) ListAssignments(
	ctx context.Context,
	from, to time.Time,
) ([]domain.RouteAssignment, error) {
	if r.DB == nil {
		return nil, errors.New("assignment repository: DB is nil")
	}

	rows, err := r.DB.QueryContext(ctx, `
	SELECT
		a.assignment_id, a.run_id, a.date, a.vehicle_id,
		a.total_weight_kg, a.total_distance_meters, a.total_duration_seconds,
		s.sequence, s.client_id, s.weight_kg,
		s.leg_distance_meters, s.cumulative_seconds, s.arrive_at, s.depart_at
	FROM route_assignments a
	LEFT JOIN route_stops s ON s.assignment_id = a.assignment_id
	WHERE a.date >= $1 AND a.date <= $2
	ORDER BY a.date, a.vehicle_id, s.sequence;
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list assignments: query: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*domain.RouteAssignment)
	order := make([]int64, 0, 16)

	for rows.Next() {
		var (
			assignmentID int64
			a            domain.RouteAssignment
			seq          sql.NullInt64
			clientID     sql.NullInt64
			weight       sql.NullFloat64
			legMeters    sql.NullInt64
			cumSeconds   sql.NullInt64
			arriveAt     sql.NullTime
			departAt     sql.NullTime
		)
		if err := rows.Scan(&assignmentID, &a.RunID, &a.Date, &a.VehicleID,
			&a.TotalWeightKg, &a.TotalDistanceMeters, &a.TotalDurationSeconds,
			&seq, &clientID, &weight, &legMeters, &cumSeconds, &arriveAt, &departAt); err != nil {
			return nil, fmt.Errorf("list assignments: scan row: %w", err)
		}

		existing, ok := byID[assignmentID]
		if !ok {
			rec := a
			rec.Stops = []domain.RouteStop{}
			byID[assignmentID] = &rec
			order = append(order, assignmentID)
			existing = &rec
		}

		if seq.Valid {
			existing.Stops = append(existing.Stops, domain.RouteStop{
				Sequence:          int(seq.Int64),
				ClientID:          clientID.Int64,
				WeightKg:          weight.Float64,
				LegDistanceMeters: int(legMeters.Int64),
				CumulativeSeconds: int(cumSeconds.Int64),
				ArriveAt:          arriveAt.Time,
				DepartAt:          departAt.Time,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assignments: row iteration: %w", err)
	}

	out := make([]domain.RouteAssignment, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

// Initialize the Postgres schema for planning output.
func InitAssignmentSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init assignment schema: DB is nil")
	}

	statements := []string{
		`
	CREATE TABLE IF NOT EXISTS route_assignments (
		assignment_id BIGSERIAL PRIMARY KEY,
		run_id TEXT NOT NULL,
		date DATE NOT NULL,
		vehicle_id BIGINT NOT NULL,
		total_weight_kg DOUBLE PRECISION NOT NULL,
		total_distance_meters BIGINT NOT NULL,
		total_duration_seconds BIGINT NOT NULL
	);
	`,
		`
	CREATE TABLE IF NOT EXISTS route_stops (
		assignment_id BIGINT NOT NULL REFERENCES route_assignments(assignment_id) ON DELETE CASCADE,
		sequence INT NOT NULL,
		client_id BIGINT NOT NULL,
		weight_kg DOUBLE PRECISION NOT NULL,
		leg_distance_meters BIGINT NOT NULL,
		cumulative_seconds BIGINT NOT NULL,
		arrive_at TIMESTAMPTZ NOT NULL,
		depart_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (assignment_id, sequence)
	);
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_route_assignments_date
	ON route_assignments(date);
	`,
	}

	for i, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init assignment schema: exec statement #%d: %w", i+1, err)
		}
	}

	return nil
}
