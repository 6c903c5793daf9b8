package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"collection-planning-service/internal/config"
	"collection-planning-service/internal/domain"
	"collection-planning-service/internal/platform/obs"
	"collection-planning-service/internal/ports"
)

// travelMatrix holds pairwise distance results over {depot} U jobs.
// Index 0 is the depot; job i sits at index i+1.
type travelMatrix struct {
	dist [][]ports.DistanceResult
}

func (m *travelMatrix) between(a, b int) ports.DistanceResult {
	if a == b {
		return ports.DistanceResult{}
	}
	return m.dist[a][b]
}

type matrixRow struct {
	origin  int
	results []ports.DistanceResult
	err     error
}

// buildMatrix computes the full pairwise matrix for a bucket, using
// batched lookups with a bounded fan-out when the provider supports
// them. A run's provider already degrades to haversine internally, so
// an error here means the provider itself is misconfigured.
func buildMatrix(
	ctx context.Context,
	provider ports.DistanceProvider,
	depot domain.Coordinates,
	jobs []domain.PlanningJob,
) (_ *travelMatrix, err error) {
	defer obs.Time(ctx, "solver.buildMatrix")(&err)

	points := make([]domain.Coordinates, 0, 1+len(jobs))
	points = append(points, depot)
	for _, j := range jobs {
		points = append(points, j.Location)
	}

	n := len(points)
	dist := make([][]ports.DistanceResult, n)
	for i := range dist {
		dist[i] = make([]ports.DistanceResult, n)
	}

	mp, hasMatrix := provider.(ports.DistanceMatrixProvider)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, 5)
	rowsCh := make(chan matrixRow, n)
	var wg sync.WaitGroup

	for origin := 0; origin < n; origin++ {
		wg.Add(1)
		go func(origin int) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			row := make([]ports.DistanceResult, n)

			if hasMatrix {
				targets := make([]domain.Coordinates, 0, n-1)
				for t := 0; t < n; t++ {
					if t != origin {
						targets = append(targets, points[t])
					}
				}
				results, e := mp.GetDistances(ctx, points[origin], targets)
				if e != nil {
					rowsCh <- matrixRow{origin: origin, err: fmt.Errorf("matrix row %d: %w", origin, e)}
					cancel()
					return
				}
				for t := 0; t < n; t++ {
					if t != origin {
						row[t] = results[points[t].Key()]
					}
				}
			} else {
				for t := 0; t < n; t++ {
					if t == origin {
						continue
					}
					r, e := provider.GetDistance(ctx, points[origin], points[t])
					if e != nil {
						rowsCh <- matrixRow{origin: origin, err: fmt.Errorf("matrix pair %d->%d: %w", origin, t, e)}
						cancel()
						return
					}
					row[t] = r
				}
			}

			rowsCh <- matrixRow{origin: origin, results: row}
		}(origin)
	}

	wg.Wait()
	close(rowsCh)

	// A failing row cancels its siblings, so the channel also carries
	// context.Canceled errors; keep the one that caused the cancel.
	var rowErr error
	for row := range rowsCh {
		if row.err != nil {
			if rowErr == nil || (errors.Is(rowErr, context.Canceled) && !errors.Is(row.err, context.Canceled)) {
				rowErr = row.err
			}
			continue
		}
		dist[row.origin] = row.results
	}
	if rowErr != nil {
		return nil, rowErr
	}

	return &travelMatrix{dist: dist}, nil
}

// vehicleRoute is a working route during search: job indices into the
// matrix (1-based; 0 is the depot).
type vehicleRoute struct {
	vehicle domain.Vehicle
	stops   []int
	loadKg  float64
}

// SolveBucket solves one (date, cluster) bucket as a capacitated
// vehicle routing problem with time windows: cheapest-arc insertion
// builds initial routes, then 2-opt and relocate moves improve them
// until the wall-clock budget runs out. This is an anytime search: it
// returns the best feasible solution found within the budget.
//
// Jobs no vehicle can feasibly serve are returned for the caller to
// retry on a later day. An InfeasibleError means the bucket produced
// no assignment at all.
func SolveBucket(
	ctx context.Context,
	date time.Time,
	cluster int,
	jobs []domain.PlanningJob,
	vehicles []domain.Vehicle,
	provider ports.DistanceProvider,
	cfg config.PlannerConfig,
) ([]domain.RouteAssignment, []domain.PlanningJob, error) {
	if len(jobs) == 0 {
		return nil, nil, nil
	}
	if len(vehicles) == 0 {
		return nil, nil, &ConfigError{Reason: "no vehicles available"}
	}

	matrix, err := buildMatrix(ctx, provider, depotCoords(cfg), jobs)
	if err != nil {
		return nil, nil, fmt.Errorf("solve bucket %s cluster %d: %w",
			date.Format("2006-01-02"), cluster, err)
	}

	deadline := time.Now().Add(cfg.SolverBudget)

	// No point opening more routes than there are jobs.
	nVehicles := len(vehicles)
	if nVehicles > len(jobs) {
		nVehicles = len(jobs)
	}

	s := &bucketSolver{
		jobs:     jobs,
		matrix:   matrix,
		cfg:      cfg,
		deadline: deadline,
	}
	for i := 0; i < nVehicles; i++ {
		s.routes = append(s.routes, &vehicleRoute{vehicle: vehicles[i]})
	}

	s.construct()
	s.improve()

	assignments := s.emit(date)
	if len(assignments) == 0 {
		return nil, s.unassignedJobs(), &InfeasibleError{
			Date: date, Cluster: cluster, Jobs: len(jobs),
		}
	}
	return assignments, s.unassignedJobs(), nil
}

type bucketSolver struct {
	jobs     []domain.PlanningJob
	matrix   *travelMatrix
	cfg      config.PlannerConfig
	deadline time.Time
	routes   []*vehicleRoute
	routed   map[int]bool
}

func (s *bucketSolver) budgetLeft() bool { return time.Now().Before(s.deadline) }

func (s *bucketSolver) capacityOf(r *vehicleRoute) float64 {
	if r.vehicle.CapacityKg > 0 {
		return r.vehicle.CapacityKg
	}
	return domain.UnlimitedCapacityKg
}

func (s *bucketSolver) serviceSec(job domain.PlanningJob) int {
	if job.ServiceSec > 0 {
		return job.ServiceSec
	}
	return s.cfg.ServiceBaseSec + int(float64(s.cfg.ServicePerKgSec)*job.WeightKg)
}

// schedule simulates a route and reports feasibility. Returned slices
// are arrival and departure times in seconds from midnight per stop,
// plus the route's total driven meters including the return leg.
func (s *bucketSolver) schedule(stops []int) (arrive, depart []int, meters int, ok bool) {
	t := s.cfg.WorkStartSec
	prev := 0

	arrive = make([]int, len(stops))
	depart = make([]int, len(stops))

	for i, node := range stops {
		job := s.jobs[node-1]
		leg := s.matrix.between(prev, node)
		meters += leg.DistanceMeters

		at := t + leg.DurationSeconds
		if at < job.WindowStartSec {
			at = job.WindowStartSec
		}
		if at > job.WindowEndSec {
			return nil, nil, 0, false
		}

		arrive[i] = at
		depart[i] = at + s.serviceSec(job)
		t = depart[i]
		prev = node
	}

	// The vehicle must be back at the depot inside working hours.
	back := s.matrix.between(prev, 0)
	meters += back.DistanceMeters
	if t+back.DurationSeconds > s.cfg.WorkEndSec {
		return nil, nil, 0, false
	}

	return arrive, depart, meters, true
}

func (s *bucketSolver) routeMeters(stops []int) (int, bool) {
	_, _, m, ok := s.schedule(stops)
	return m, ok
}

func insertAt(stops []int, pos, node int) []int {
	out := make([]int, 0, len(stops)+1)
	out = append(out, stops[:pos]...)
	out = append(out, node)
	out = append(out, stops[pos:]...)
	return out
}

// construct runs cheapest-arc insertion: repeatedly place the
// unrouted job whose best feasible insertion costs the least extra
// distance, anywhere across the fleet.
func (s *bucketSolver) construct() {
	s.routed = make(map[int]bool, len(s.jobs))

	for {
		bestCost := -1
		bestJob, bestPos := -1, -1
		var bestRoute *vehicleRoute

		for jobIdx := range s.jobs {
			node := jobIdx + 1
			if s.routed[node] {
				continue
			}
			job := s.jobs[jobIdx]

			for _, r := range s.routes {
				if r.loadKg+job.WeightKg > s.capacityOf(r) {
					continue
				}

				base, ok := s.routeMeters(r.stops)
				if !ok {
					continue
				}

				for pos := 0; pos <= len(r.stops); pos++ {
					cand := insertAt(r.stops, pos, node)
					m, ok := s.routeMeters(cand)
					if !ok {
						continue
					}
					cost := m - base
					if bestCost < 0 || cost < bestCost {
						bestCost = cost
						bestJob = node
						bestPos = pos
						bestRoute = r
					}
				}
			}
		}

		if bestJob < 0 {
			return
		}

		bestRoute.stops = insertAt(bestRoute.stops, bestPos, bestJob)
		bestRoute.loadKg += s.jobs[bestJob-1].WeightKg
		s.routed[bestJob] = true
	}
}

// improve runs first-improvement local search (intra-route 2-opt and
// inter-route relocate) until no move helps or the budget expires.
func (s *bucketSolver) improve() {
	for s.budgetLeft() {
		if !s.twoOptPass() && !s.relocatePass() {
			return
		}
	}
}

// twoOptPass reverses one segment when that shortens a route while
// staying feasible. Returns true when a move was applied.
func (s *bucketSolver) twoOptPass() bool {
	for _, r := range s.routes {
		if len(r.stops) < 3 {
			continue
		}
		base, ok := s.routeMeters(r.stops)
		if !ok {
			continue
		}

		for i := 0; i < len(r.stops)-1; i++ {
			for j := i + 1; j < len(r.stops); j++ {
				if !s.budgetLeft() {
					return false
				}

				cand := make([]int, len(r.stops))
				copy(cand, r.stops)
				for a, b := i, j; a < b; a, b = a+1, b-1 {
					cand[a], cand[b] = cand[b], cand[a]
				}

				if m, ok := s.routeMeters(cand); ok && m < base {
					r.stops = cand
					return true
				}
			}
		}
	}
	return false
}

// relocatePass moves one stop to a better position on another route.
func (s *bucketSolver) relocatePass() bool {
	for _, from := range s.routes {
		for si, node := range from.stops {
			job := s.jobs[node-1]

			removed := make([]int, 0, len(from.stops)-1)
			removed = append(removed, from.stops[:si]...)
			removed = append(removed, from.stops[si+1:]...)

			fromBase, _ := s.routeMeters(from.stops)
			fromAfter, okFrom := s.routeMeters(removed)
			if !okFrom {
				continue
			}

			for _, to := range s.routes {
				if to == from {
					continue
				}
				if to.loadKg+job.WeightKg > s.capacityOf(to) {
					continue
				}
				toBase, ok := s.routeMeters(to.stops)
				if !ok {
					continue
				}

				for pos := 0; pos <= len(to.stops); pos++ {
					if !s.budgetLeft() {
						return false
					}

					cand := insertAt(to.stops, pos, node)
					toAfter, ok := s.routeMeters(cand)
					if !ok {
						continue
					}

					delta := (fromAfter + toAfter) - (fromBase + toBase)
					if delta < 0 {
						from.stops = removed
						from.loadKg -= job.WeightKg
						to.stops = cand
						to.loadKg += job.WeightKg
						return true
					}
				}
			}
		}
	}
	return false
}

// emit walks each vehicle's route from depot back to depot, producing
// ordered stops with arrival/departure estimates on the given date.
func (s *bucketSolver) emit(date time.Time) []domain.RouteAssignment {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]domain.RouteAssignment, 0, len(s.routes))
	for _, r := range s.routes {
		if len(r.stops) == 0 {
			continue
		}

		arrive, depart, meters, ok := s.schedule(r.stops)
		if !ok {
			// construct/improve only ever keep feasible routes.
			continue
		}

		a := domain.RouteAssignment{
			Date:                date,
			VehicleID:           r.vehicle.ID,
			TotalWeightKg:       r.loadKg,
			TotalDistanceMeters: meters,
		}

		prev := 0
		for i, node := range r.stops {
			job := s.jobs[node-1]
			leg := s.matrix.between(prev, node)

			a.Stops = append(a.Stops, domain.RouteStop{
				ClientID:          job.ClientID,
				Sequence:          i + 1,
				WeightKg:          job.WeightKg,
				LegDistanceMeters: leg.DistanceMeters,
				CumulativeSeconds: depart[i] - s.cfg.WorkStartSec,
				ArriveAt:          midnight.Add(time.Duration(arrive[i]) * time.Second),
				DepartAt:          midnight.Add(time.Duration(depart[i]) * time.Second),
			})
			prev = node
		}

		last := r.stops[len(r.stops)-1]
		back := s.matrix.between(last, 0)
		a.TotalDurationSeconds = depart[len(depart)-1] + back.DurationSeconds - s.cfg.WorkStartSec

		out = append(out, a)
	}
	return out
}

func (s *bucketSolver) unassignedJobs() []domain.PlanningJob {
	out := make([]domain.PlanningJob, 0)
	for i := range s.jobs {
		if !s.routed[i+1] {
			out = append(out, s.jobs[i])
		}
	}
	return out
}

func depotCoords(cfg config.PlannerConfig) domain.Coordinates {
	return domain.Coordinates{Lat: cfg.DepotLat, Lon: cfg.DepotLon}
}

// sortVehiclesByCapacity orders the fleet largest-first so the
// construction phase fills big trucks before opening small ones.
func sortVehiclesByCapacity(vehicles []domain.Vehicle) []domain.Vehicle {
	out := make([]domain.Vehicle, len(vehicles))
	copy(out, vehicles)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CapacityKg > out[b].CapacityKg
	})
	return out
}
