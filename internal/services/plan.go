package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"collection-planning-service/internal/config"
	"collection-planning-service/internal/domain"
	"collection-planning-service/internal/platform/obs"
	"collection-planning-service/internal/ports"
)

// fallbackCounter is implemented by providers that track degraded
// lookups. Providers without the notion simply report zero.
type fallbackCounter interface {
	FallbackCount() int64
}

// Planner wires the full pipeline: load fleet data, normalize demand,
// cluster, allocate the calendar, route each bucket, and replace the
// stored assignments in one shot.
type Planner struct {
	Clients   ports.ClientSource
	Vehicles  ports.VehicleSource
	Provider  ports.DistanceProvider
	Clusterer ports.Clusterer
	Sink      ports.AssignmentSink
	Notifier  ports.Notifier
	Cfg       config.PlannerConfig
}

// GenerateMonthlyPlan builds the full plan for one month and replaces
// every stored assignment in that range. Nothing is written until the
// whole month has been planned.
func (p *Planner) GenerateMonthlyPlan(ctx context.Context, year int, month time.Month) (_ domain.RunReport, err error) {
	runID := uuid.NewString()
	ctx = obs.WithRunID(ctx, runID)
	defer obs.Time(ctx, "planner.monthly")(&err)

	report := domain.RunReport{RunID: runID}

	if err := p.Cfg.Validate(); err != nil {
		return report, &ConfigError{Reason: err.Error()}
	}

	vehicles, err := p.loadVehicles(ctx)
	if err != nil {
		return report, err
	}

	allocations, err := p.buildAllocations(ctx, &report)
	if err != nil {
		return report, err
	}
	if len(allocations) == 0 {
		return report, &ConfigError{Reason: "no schedulable clients"}
	}

	clusterOrder, err := p.clusterAllocations(allocations)
	if err != nil {
		return report, fmt.Errorf("monthly plan: %w", err)
	}

	alloc := AllocateMonth(year, month, allocations, clusterOrder, p.Cfg.DailyCapacityKg)
	report.VisitsRequested = alloc.VisitsRequested
	report.VisitsPlaced = alloc.VisitsPlaced

	assignments, err := p.routeBuckets(ctx, alloc.Buckets, vehicles, &report)
	if err != nil {
		return report, err
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	if err := p.writeAssignments(ctx, runID, from, to, assignments, &report); err != nil {
		return report, err
	}

	p.notify(ctx, &report)
	return report, nil
}

// GenerateDailyPlan plans a single date and replaces only that day's
// assignments. Clients are included when their visit rule makes the
// date due.
func (p *Planner) GenerateDailyPlan(ctx context.Context, date time.Time) (_ domain.RunReport, err error) {
	runID := uuid.NewString()
	ctx = obs.WithRunID(ctx, runID)
	defer obs.Time(ctx, "planner.daily")(&err)

	report := domain.RunReport{RunID: runID}

	if err := p.Cfg.Validate(); err != nil {
		return report, &ConfigError{Reason: err.Error()}
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if day.Weekday() == time.Sunday {
		return report, &ConfigError{Reason: "no collections on Sundays"}
	}

	vehicles, err := p.loadVehicles(ctx)
	if err != nil {
		return report, err
	}

	allocations, err := p.buildAllocations(ctx, &report)
	if err != nil {
		return report, err
	}

	due := make([]ClientAllocation, 0, len(allocations))
	for _, ca := range allocations {
		if ca.Client.HasLocation && IsDue(ca.Client.Rule, day) {
			due = append(due, ca)
		}
	}
	if len(due) == 0 && p.Notifier != nil {
		p.Notifier.PostMessage(ctx, fmt.Sprintf("no eligible clients for date %s", day.Format("2006-01-02")))
	}

	clusterOrder, err := p.clusterAllocations(due)
	if err != nil {
		return report, fmt.Errorf("daily plan: %w", err)
	}

	// The single date carries the same tonnage ceiling as any calendar
	// day; due clients beyond it are a soft shortfall, same as the
	// monthly allocator.
	byCluster := make(map[int][]domain.PlanningJob)
	committedKg := 0.0
	for _, ca := range due {
		report.VisitsRequested++
		if committedKg+ca.WeightKg > p.Cfg.DailyCapacityKg {
			log.Printf("daily capacity reached date=%s client=%d weight_kg=%.1f committed_kg=%.1f",
				day.Format("2006-01-02"), ca.Client.ID, ca.WeightKg, committedKg)
			continue
		}
		committedKg += ca.WeightKg
		report.VisitsPlaced++
		byCluster[ca.Cluster] = append(byCluster[ca.Cluster], ca.Job)
	}

	buckets := make([]DayBucket, 0, len(byCluster))
	for _, c := range clusterOrder {
		if jobs, ok := byCluster[c]; ok {
			buckets = append(buckets, DayBucket{Date: day, Cluster: c, Jobs: jobs})
		}
	}

	assignments, err := p.routeBuckets(ctx, buckets, vehicles, &report)
	if err != nil {
		return report, err
	}

	if err := p.writeAssignments(ctx, runID, day, day, assignments, &report); err != nil {
		return report, err
	}

	p.notify(ctx, &report)
	return report, nil
}

func (p *Planner) loadVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	vehicles, err := p.Vehicles.ListVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vehicles: %w", err)
	}
	if len(vehicles) == 0 {
		return nil, &ConfigError{Reason: "no vehicles configured"}
	}
	for i := range vehicles {
		if vehicles[i].CapacityKg <= 0 {
			log.Printf("vehicle id=%d has no capacity, treating as unlimited", vehicles[i].ID)
			vehicles[i].CapacityKg = domain.UnlimitedCapacityKg
		}
	}
	return sortVehiclesByCapacity(vehicles), nil
}

// buildAllocations turns the client roster into per-client monthly
// quotas with a routable job template attached where coordinates are
// known. Zero-demand clients are dropped here.
func (p *Planner) buildAllocations(ctx context.Context, report *domain.RunReport) ([]ClientAllocation, error) {
	clients, err := p.Clients.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	report.ClientsConsidered = len(clients)

	zoneIndex := indexZones(clients)

	out := make([]ClientAllocation, 0, len(clients))
	for _, c := range clients {
		visits, perVisitKg := NormalizeDemand(c)
		if visits == 0 || perVisitKg <= 0 {
			report.ClientsNoDemand++
			continue
		}

		ca := ClientAllocation{
			Client:   c,
			Visits:   visits,
			WeightKg: perVisitKg,
			Cluster:  -1,
		}

		if !c.HasLocation {
			report.ClientsNoLocation++
			out = append(out, ca)
			continue
		}

		depotMeters := c.RoadDistanceMeters
		if depotMeters <= 0 {
			depotLeg, err := p.Provider.GetDistance(ctx, depotCoords(p.Cfg), c.Location)
			if err != nil {
				return nil, fmt.Errorf("depot distance for client %d: %w", c.ID, err)
			}
			depotMeters = depotLeg.DistanceMeters
		}

		windowEnd := p.Cfg.WorkEndSec
		if c.Category == domain.CategoryPrivate {
			windowEnd = p.Cfg.PrivateWorkEndSec
		}

		ca.Job = domain.PlanningJob{
			ClientID:            c.ID,
			Location:            c.Location,
			WeightKg:            perVisitKg,
			WindowStartSec:      p.Cfg.WorkStartSec,
			WindowEndSec:        windowEnd,
			ServiceSec:          p.Cfg.ServiceBaseSec + int(float64(p.Cfg.ServicePerKgSec)*perVisitKg),
			Zone:                c.Zone,
			ZoneIndex:           zoneIndex[c.Zone],
			DepotDistanceMeters: depotMeters,
			Cluster:             -1,
		}
		out = append(out, ca)
	}
	return out, nil
}

// clusterAllocations partitions the routable jobs and writes the
// resulting cluster label back onto each allocation.
func (p *Planner) clusterAllocations(allocations []ClientAllocation) ([]int, error) {
	routable := make([]int, 0, len(allocations))
	jobs := make([]domain.PlanningJob, 0, len(allocations))
	for i, ca := range allocations {
		if ca.Client.HasLocation {
			routable = append(routable, i)
			jobs = append(jobs, ca.Job)
		}
	}

	clustered, order, err := PartitionJobs(jobs, p.Clusterer, p.Cfg)
	if err != nil {
		return nil, err
	}

	for i, idx := range routable {
		allocations[idx].Cluster = clustered[i].Cluster
		allocations[idx].Job = clustered[i]
	}
	return order, nil
}

// routeBuckets routes every bucket in order. Jobs a bucket cannot
// serve are carried to the next bucket of the same cluster; whatever
// is left at month end is reported unserved.
func (p *Planner) routeBuckets(
	ctx context.Context,
	buckets []DayBucket,
	vehicles []domain.Vehicle,
	report *domain.RunReport,
) ([]domain.RouteAssignment, error) {
	carried := make(map[int][]domain.PlanningJob)
	var out []domain.RouteAssignment

	for _, b := range buckets {
		jobs := b.Jobs
		if extra := carried[b.Cluster]; len(extra) > 0 {
			jobs = append(append([]domain.PlanningJob{}, jobs...), extra...)
			delete(carried, b.Cluster)
		}

		var (
			assignments []domain.RouteAssignment
			unassigned  []domain.PlanningJob
			err         error
		)
		switch p.Cfg.Routing {
		case config.RoutePacker:
			assignments, unassigned, err = PackBucket(ctx, b.Date, jobs, vehicles, p.Provider, p.Cfg)
		default:
			assignments, unassigned, err = SolveBucket(ctx, b.Date, b.Cluster, jobs, vehicles, p.Provider, p.Cfg)
		}

		if err != nil {
			var inf *InfeasibleError
			if errors.As(err, &inf) {
				report.InfeasibleBuckets++
				log.Printf("infeasible bucket date=%s cluster=%d jobs=%d",
					b.Date.Format("2006-01-02"), b.Cluster, inf.Jobs)
			} else {
				return nil, fmt.Errorf("route bucket %s: %w", b.Date.Format("2006-01-02"), err)
			}
		}

		for i := range assignments {
			report.JobsRouted += len(assignments[i].Stops)
		}
		out = append(out, assignments...)

		if len(unassigned) > 0 {
			carried[b.Cluster] = append(carried[b.Cluster], unassigned...)
		}
	}

	// Deterministic order over whatever never found a later bucket.
	leftovers := make([]int, 0, len(carried))
	for c := range carried {
		leftovers = append(leftovers, c)
	}
	sort.Ints(leftovers)
	for _, c := range leftovers {
		report.JobsUnserved += len(carried[c])
		for _, j := range carried[c] {
			log.Printf("unserved job client=%d cluster=%d weight=%.1f", j.ClientID, c, j.WeightKg)
		}
	}

	return out, nil
}

func (p *Planner) writeAssignments(
	ctx context.Context,
	runID string,
	from, to time.Time,
	assignments []domain.RouteAssignment,
	report *domain.RunReport,
) error {
	for i := range assignments {
		assignments[i].RunID = runID
	}

	if err := p.Sink.ReplaceAssignments(ctx, from, to, assignments); err != nil {
		return fmt.Errorf("replace assignments %s..%s: %w",
			from.Format("2006-01-02"), to.Format("2006-01-02"), err)
	}
	report.AssignmentsWritten = len(assignments)
	return nil
}

func (p *Planner) notify(ctx context.Context, report *domain.RunReport) {
	if fc, ok := p.Provider.(fallbackCounter); ok {
		report.DistanceFallbacks = int(fc.FallbackCount())
	}

	if p.Notifier == nil {
		return
	}
	p.Notifier.PostMessage(ctx, fmt.Sprintf(
		"plan run %s: clients=%d visits=%d/%d routed=%d unserved=%d infeasible=%d fallbacks=%d written=%d",
		report.RunID,
		report.ClientsConsidered,
		report.VisitsPlaced, report.VisitsRequested,
		report.JobsRouted, report.JobsUnserved,
		report.InfeasibleBuckets,
		report.DistanceFallbacks,
		report.AssignmentsWritten,
	))
}

// indexZones assigns each distinct zone name a stable index by sorted
// order, so clustering features do not depend on roster order.
func indexZones(clients []domain.Client) map[string]int {
	names := make([]string, 0)
	seen := make(map[string]bool)
	for _, c := range clients {
		if !seen[c.Zone] {
			seen[c.Zone] = true
			names = append(names, c.Zone)
		}
	}
	sort.Strings(names)

	out := make(map[string]int, len(names))
	for i, n := range names {
		out[n] = i
	}
	return out
}
