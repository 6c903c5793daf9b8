package services

import (
	"context"
	"testing"
	"time"

	"collection-planning-service/internal/adapters/distance"
	"collection-planning-service/internal/domain"
)

func TestPackBucketOrdersByDepotDistance(t *testing.T) {
	cfg := solverConfig()
	jobs := tunisJobs(cfg)
	jobs[0].DepotDistanceMeters = 3000
	jobs[1].DepotDistanceMeters = 1000
	jobs[2].DepotDistanceMeters = 2000

	vehicles := []domain.Vehicle{{ID: 1, CapacityKg: 1000}}
	provider := distance.NewHaversineProvider(cfg.AvgSpeedKmh)
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	assignments, unassigned, err := PackBucket(context.Background(), date, jobs, vehicles, provider, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unassigned) != 0 {
		t.Fatalf("unassigned = %d, want 0", len(unassigned))
	}
	if len(assignments) != 1 {
		t.Fatalf("assignments = %d, want 1", len(assignments))
	}

	got := []int64{}
	for _, s := range assignments[0].Stops {
		got = append(got, s.ClientID)
	}
	want := []int64{2, 3, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stop order = %v, want %v", got, want)
		}
	}
}

func TestPackBucketSpillsToSecondVehicle(t *testing.T) {
	cfg := solverConfig()
	jobs := tunisJobs(cfg)

	vehicles := []domain.Vehicle{
		{ID: 1, CapacityKg: 100},
		{ID: 2, CapacityKg: 100},
	}
	provider := distance.NewHaversineProvider(cfg.AvgSpeedKmh)
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	assignments, unassigned, err := PackBucket(context.Background(), date, jobs, vehicles, provider, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assignments) != 2 {
		t.Fatalf("assignments = %d, want 2", len(assignments))
	}
	if len(assignments[0].Stops) != 2 || len(assignments[1].Stops) != 1 {
		t.Fatalf("stops split %d/%d, want 2/1",
			len(assignments[0].Stops), len(assignments[1].Stops))
	}
	if len(unassigned) != 0 {
		t.Fatalf("unassigned = %d, want 0", len(unassigned))
	}
}

func TestPackBucketReportsOverflow(t *testing.T) {
	cfg := solverConfig()
	jobs := tunisJobs(cfg)

	vehicles := []domain.Vehicle{{ID: 1, CapacityKg: 100}}
	provider := distance.NewHaversineProvider(cfg.AvgSpeedKmh)
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	_, unassigned, err := PackBucket(context.Background(), date, jobs, vehicles, provider, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unassigned) != 1 {
		t.Fatalf("unassigned = %d, want 1", len(unassigned))
	}
}

func TestPackBucketIncludesReturnLeg(t *testing.T) {
	cfg := solverConfig()
	jobs := tunisJobs(cfg)[:1]

	vehicles := []domain.Vehicle{{ID: 1, CapacityKg: 1000}}
	provider := distance.NewHaversineProvider(cfg.AvgSpeedKmh)
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	assignments, _, err := PackBucket(context.Background(), date, jobs, vehicles, provider, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := assignments[0]

	// Out and back over the same leg: the total must be twice the leg.
	if a.TotalDistanceMeters != 2*a.Stops[0].LegDistanceMeters {
		t.Fatalf("total = %d, leg = %d", a.TotalDistanceMeters, a.Stops[0].LegDistanceMeters)
	}
	if a.TotalDurationSeconds <= a.Stops[0].CumulativeSeconds {
		t.Fatalf("duration %d must include the return leg beyond %d",
			a.TotalDurationSeconds, a.Stops[0].CumulativeSeconds)
	}
}
