package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"collection-planning-service/internal/config"
	"collection-planning-service/internal/domain"
	"collection-planning-service/internal/ports"
)

// PackBucket is the greedy fallback router: jobs sorted by depot
// distance are packed into vehicles until capacity runs out, visiting
// them in that order with no time-window checks. Cheap and always
// terminates, at the cost of longer routes than the solver produces.
func PackBucket(
	ctx context.Context,
	date time.Time,
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

	ordered := make([]domain.PlanningJob, len(jobs))
	copy(ordered, jobs)
	sort.SliceStable(ordered, func(a, b int) bool {
		if ordered[a].DepotDistanceMeters != ordered[b].DepotDistanceMeters {
			return ordered[a].DepotDistanceMeters < ordered[b].DepotDistanceMeters
		}
		return ordered[a].ClientID < ordered[b].ClientID
	})

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	depot := depotCoords(cfg)

	var out []domain.RouteAssignment
	next := 0

	for _, v := range vehicles {
		if next >= len(ordered) {
			break
		}

		capKg := v.CapacityKg
		if capKg <= 0 {
			capKg = domain.UnlimitedCapacityKg
		}

		a := domain.RouteAssignment{Date: date, VehicleID: v.ID}
		prev := depot
		elapsed := 0
		seq := 0

		for next < len(ordered) {
			job := ordered[next]
			if a.TotalWeightKg+job.WeightKg > capKg {
				break
			}

			leg, err := provider.GetDistance(ctx, prev, job.Location)
			if err != nil {
				return nil, nil, fmt.Errorf("pack %s leg to client %d: %w",
					date.Format("2006-01-02"), job.ClientID, err)
			}

			service := job.ServiceSec
			if service <= 0 {
				service = cfg.ServiceBaseSec + int(float64(cfg.ServicePerKgSec)*job.WeightKg)
			}

			arrive := cfg.WorkStartSec + elapsed + leg.DurationSeconds
			depart := arrive + service
			seq++

			a.Stops = append(a.Stops, domain.RouteStop{
				ClientID:          job.ClientID,
				Sequence:          seq,
				WeightKg:          job.WeightKg,
				LegDistanceMeters: leg.DistanceMeters,
				CumulativeSeconds: depart - cfg.WorkStartSec,
				ArriveAt:          midnight.Add(time.Duration(arrive) * time.Second),
				DepartAt:          midnight.Add(time.Duration(depart) * time.Second),
			})

			a.TotalWeightKg += job.WeightKg
			a.TotalDistanceMeters += leg.DistanceMeters
			elapsed = depart - cfg.WorkStartSec
			prev = job.Location
			next++
		}

		if len(a.Stops) == 0 {
			continue
		}

		back, err := provider.GetDistance(ctx, prev, depot)
		if err != nil {
			return nil, nil, fmt.Errorf("pack %s return leg: %w", date.Format("2006-01-02"), err)
		}
		a.TotalDistanceMeters += back.DistanceMeters
		a.TotalDurationSeconds = elapsed + back.DurationSeconds

		out = append(out, a)
	}

	var unassigned []domain.PlanningJob
	if next < len(ordered) {
		unassigned = append(unassigned, ordered[next:]...)
	}
	return out, unassigned, nil
}
