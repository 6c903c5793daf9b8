package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"collection-planning-service/internal/adapters/distance"
	"collection-planning-service/internal/config"
	"collection-planning-service/internal/domain"
	"collection-planning-service/internal/ports"
)

func solverConfig() config.PlannerConfig {
	cfg := config.Load()
	cfg.DepotLat = 36.80650
	cfg.DepotLon = 10.18150
	cfg.AvgSpeedKmh = 40
	cfg.WorkStartSec = 8 * 3600
	cfg.WorkEndSec = 17 * 3600
	cfg.ServiceBaseSec = 300
	cfg.ServicePerKgSec = 0
	cfg.SolverBudget = 500 * time.Millisecond
	return cfg
}

// Three stops around central Tunis, all inside working hours.
func tunisJobs(cfg config.PlannerConfig) []domain.PlanningJob {
	coords := []domain.Coordinates{
		{Lat: 36.8190, Lon: 10.1658},
		{Lat: 36.8008, Lon: 10.1862},
		{Lat: 36.8380, Lon: 10.1950},
	}
	jobs := make([]domain.PlanningJob, len(coords))
	for i, c := range coords {
		jobs[i] = domain.PlanningJob{
			ClientID:       int64(i + 1),
			Location:       c,
			WeightKg:       50,
			WindowStartSec: cfg.WorkStartSec,
			WindowEndSec:   cfg.WorkEndSec,
			ServiceSec:     300,
		}
	}
	return jobs
}

func TestSolveBucketVisitsEveryJob(t *testing.T) {
	cfg := solverConfig()
	jobs := tunisJobs(cfg)
	vehicles := []domain.Vehicle{{ID: 1, Name: "truck-1", CapacityKg: 1000}}
	provider := distance.NewHaversineProvider(cfg.AvgSpeedKmh)
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	assignments, unassigned, err := SolveBucket(context.Background(), date, 0, jobs, vehicles, provider, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unassigned) != 0 {
		t.Fatalf("unassigned = %d, want 0", len(unassigned))
	}
	if len(assignments) != 1 {
		t.Fatalf("assignments = %d, want 1", len(assignments))
	}

	a := assignments[0]
	if len(a.Stops) != 3 {
		t.Fatalf("stops = %d, want 3", len(a.Stops))
	}
	if a.VehicleID != 1 {
		t.Fatalf("vehicle = %d, want 1", a.VehicleID)
	}
	if a.TotalWeightKg != 150 {
		t.Fatalf("weight = %v, want 150", a.TotalWeightKg)
	}

	// Arrival times are non-decreasing and inside the working window.
	workStart := date.Add(time.Duration(cfg.WorkStartSec) * time.Second)
	workEnd := date.Add(time.Duration(cfg.WorkEndSec) * time.Second)
	prev := workStart
	for i, s := range a.Stops {
		if s.Sequence != i+1 {
			t.Fatalf("stop %d sequence = %d", i, s.Sequence)
		}
		if s.ArriveAt.Before(prev) {
			t.Fatalf("stop %d arrival %s precedes %s", i, s.ArriveAt, prev)
		}
		if s.ArriveAt.After(workEnd) {
			t.Fatalf("stop %d arrives after the working window", i)
		}
		if !s.DepartAt.After(s.ArriveAt) {
			t.Fatalf("stop %d departure not after arrival", i)
		}
		prev = s.DepartAt
	}
}

func TestSolveBucketAtMostAsLongAsNaiveOrder(t *testing.T) {
	cfg := solverConfig()
	jobs := tunisJobs(cfg)
	for i := range jobs {
		jobs[i].DepotDistanceMeters = int(distance.Haversine(
			domain.Coordinates{Lat: cfg.DepotLat, Lon: cfg.DepotLon}, jobs[i].Location))
	}
	vehicles := []domain.Vehicle{{ID: 1, CapacityKg: 1000}}
	provider := distance.NewHaversineProvider(cfg.AvgSpeedKmh)
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	solved, _, err := SolveBucket(context.Background(), date, 0, jobs, vehicles, provider, cfg)
	if err != nil {
		t.Fatalf("solver: %v", err)
	}
	packed, _, err := PackBucket(context.Background(), date, jobs, vehicles, provider, cfg)
	if err != nil {
		t.Fatalf("packer: %v", err)
	}

	var solvedMeters, packedMeters int
	for _, a := range solved {
		solvedMeters += a.TotalDistanceMeters
	}
	for _, a := range packed {
		packedMeters += a.TotalDistanceMeters
	}
	if solvedMeters > packedMeters {
		t.Fatalf("solver drove %d m, naive order %d m", solvedMeters, packedMeters)
	}
}

func TestSolveBucketRespectsCapacity(t *testing.T) {
	cfg := solverConfig()
	jobs := tunisJobs(cfg)
	// Capacity fits two jobs, not three.
	vehicles := []domain.Vehicle{{ID: 1, CapacityKg: 100}}
	provider := distance.NewHaversineProvider(cfg.AvgSpeedKmh)
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	assignments, unassigned, err := SolveBucket(context.Background(), date, 0, jobs, vehicles, provider, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unassigned) != 1 {
		t.Fatalf("unassigned = %d, want 1", len(unassigned))
	}
	for _, a := range assignments {
		if a.TotalWeightKg > 100 {
			t.Fatalf("route weight %v exceeds capacity 100", a.TotalWeightKg)
		}
	}
}

func TestSolveBucketTightWindowsInfeasible(t *testing.T) {
	cfg := solverConfig()
	jobs := tunisJobs(cfg)
	// Windows close before the workday even starts.
	for i := range jobs {
		jobs[i].WindowEndSec = cfg.WorkStartSec - 1
	}
	vehicles := []domain.Vehicle{{ID: 1, CapacityKg: 1000}}
	provider := distance.NewHaversineProvider(cfg.AvgSpeedKmh)
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	assignments, unassigned, err := SolveBucket(context.Background(), date, 0, jobs, vehicles, provider, cfg)
	if err == nil {
		t.Fatal("expected an infeasibility error")
	}
	var inf *InfeasibleError
	if !errors.As(err, &inf) {
		t.Fatalf("error = %v, want InfeasibleError", err)
	}
	if len(assignments) != 0 {
		t.Fatalf("assignments = %d, want 0", len(assignments))
	}
	if len(unassigned) != 3 {
		t.Fatalf("unassigned = %d, want all 3 jobs back", len(unassigned))
	}
}

func TestSolveBucketEmptyInput(t *testing.T) {
	cfg := solverConfig()
	provider := distance.NewHaversineProvider(cfg.AvgSpeedKmh)
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	assignments, unassigned, err := SolveBucket(context.Background(), date, 0, nil,
		[]domain.Vehicle{{ID: 1, CapacityKg: 100}}, provider, cfg)
	if err != nil || len(assignments) != 0 || len(unassigned) != 0 {
		t.Fatalf("empty bucket should be a no-op, got %v/%v/%v", assignments, unassigned, err)
	}
}

func TestSolveBucketFollowsCheapDirection(t *testing.T) {
	cfg := solverConfig()
	depot := domain.Coordinates{Lat: cfg.DepotLat, Lon: cfg.DepotLon}
	a := domain.Coordinates{Lat: 36.8190, Lon: 10.1658}
	b := domain.Coordinates{Lat: 36.8380, Lon: 10.1950}

	// Asymmetric pairs make one tour order ten times cheaper, so the
	// expected stop sequence is unambiguous.
	provider := distance.NewMockDistanceProvider([]distance.MockPair{
		{From: depot, To: a, Meters: 1000, Seconds: 100},
		{From: a, To: b, Meters: 1000, Seconds: 100},
		{From: b, To: depot, Meters: 1000, Seconds: 100},
		{From: depot, To: b, Meters: 10000, Seconds: 1000},
		{From: b, To: a, Meters: 10000, Seconds: 1000},
		{From: a, To: depot, Meters: 10000, Seconds: 1000},
	})

	jobs := []domain.PlanningJob{
		{ClientID: 1, Location: a, WeightKg: 50, WindowStartSec: cfg.WorkStartSec, WindowEndSec: cfg.WorkEndSec, ServiceSec: 300},
		{ClientID: 2, Location: b, WeightKg: 50, WindowStartSec: cfg.WorkStartSec, WindowEndSec: cfg.WorkEndSec, ServiceSec: 300},
	}
	vehicles := []domain.Vehicle{{ID: 1, Name: "truck-1", CapacityKg: 1000}}
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	assignments, unassigned, err := SolveBucket(context.Background(), date, 0, jobs, vehicles, provider, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unassigned) != 0 {
		t.Fatalf("unassigned = %d, want 0", len(unassigned))
	}
	if len(assignments) != 1 {
		t.Fatalf("assignments = %d, want 1", len(assignments))
	}

	route := assignments[0]
	if len(route.Stops) != 2 || route.Stops[0].ClientID != 1 || route.Stops[1].ClientID != 2 {
		t.Fatalf("stop order = %+v, want client 1 then client 2", route.Stops)
	}
	if route.TotalDistanceMeters != 3000 {
		t.Fatalf("total meters = %d, want 3000", route.TotalDistanceMeters)
	}
}

func TestSolveBucketPropagatesProviderError(t *testing.T) {
	cfg := solverConfig()
	jobs := tunisJobs(cfg)[:1]
	vehicles := []domain.Vehicle{{ID: 1, CapacityKg: 1000}}
	provider := distance.NewMockDistanceProvider(nil)
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	_, _, err := SolveBucket(context.Background(), date, 0, jobs, vehicles, provider, cfg)
	if err == nil {
		t.Fatal("expected a provider error")
	}
	var inf *InfeasibleError
	if errors.As(err, &inf) {
		t.Fatalf("provider failure reported as infeasibility: %v", err)
	}
}

// failingPairProvider fails immediately for one origin and holds every
// other lookup until the shared context is canceled.
type failingPairProvider struct {
	poison  domain.Coordinates
	rootErr error
}

func (f *failingPairProvider) GetDistance(ctx context.Context, origin, destination domain.Coordinates) (ports.DistanceResult, error) {
	if origin == f.poison {
		return ports.DistanceResult{}, f.rootErr
	}
	<-ctx.Done()
	return ports.DistanceResult{}, ctx.Err()
}

func TestBuildMatrixReportsRootCauseNotCancellation(t *testing.T) {
	cfg := solverConfig()
	depot := domain.Coordinates{Lat: cfg.DepotLat, Lon: cfg.DepotLon}
	jobs := tunisJobs(cfg)[:2]
	rootErr := errors.New("matrix upstream unreachable")
	provider := &failingPairProvider{poison: jobs[0].Location, rootErr: rootErr}

	_, err := buildMatrix(context.Background(), provider, depot, jobs)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, rootErr) {
		t.Fatalf("error = %v, want the originating row error", err)
	}
	if errors.Is(err, context.Canceled) {
		t.Fatalf("root cause masked by cancellation: %v", err)
	}
}
