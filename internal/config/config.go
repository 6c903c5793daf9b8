package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Get returns the value of an environment variable or a fallback.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// ClusterStrategy selects the clustering feature space. The choice is
// explicit configuration, never inferred from what happens to be
// available at runtime, because it affects output determinism.
type ClusterStrategy string

const (
	// ClusterByZone clusters on [depot distance, weighted zone index].
	ClusterByZone ClusterStrategy = "zone"
	// ClusterByLatLon clusters on raw coordinates.
	ClusterByLatLon ClusterStrategy = "latlon"
)

// RouteStrategy selects between the time-window solver and the simpler
// greedy packer.
type RouteStrategy string

const (
	RouteSolver RouteStrategy = "solver"
	RoutePacker RouteStrategy = "packer"
)

// PlannerConfig carries every tunable the planning engine needs.
// Nothing in the engine reads the environment directly.
type PlannerConfig struct {
	DepotLat float64
	DepotLon float64

	DailyCapacityKg float64
	AvgSpeedKmh     float64

	// Working-hours horizon in seconds from midnight. Private-category
	// clients get the tightened end.
	WorkStartSec      int
	WorkEndSec        int
	PrivateWorkEndSec int

	ServiceBaseSec  int
	ServicePerKgSec int

	DesiredClusters    int
	ClusterSeed        int64
	ZoneWeight         float64
	FarThresholdMeters int

	SolverBudget time.Duration

	Clustering ClusterStrategy
	Routing    RouteStrategy
}

// Load reads the planner configuration from the environment, applying
// the documented defaults.
func Load() PlannerConfig {
	return PlannerConfig{
		DepotLat:           getFloat("DEPOT_LAT", 36.80650),
		DepotLon:           getFloat("DEPOT_LON", 10.18150),
		DailyCapacityKg:    getFloat("DAILY_CAPACITY_KG", 10000),
		AvgSpeedKmh:        getFloat("AVG_SPEED_KMH", 40),
		WorkStartSec:       getInt("WORK_START_SEC", 8*3600),
		WorkEndSec:         getInt("WORK_END_SEC", 17*3600),
		PrivateWorkEndSec:  getInt("PRIVATE_WORK_END_SEC", 13*3600),
		ServiceBaseSec:     getInt("SERVICE_BASE_SEC", 300),
		ServicePerKgSec:    getInt("SERVICE_PER_KG_SEC", 2),
		DesiredClusters:    getInt("DESIRED_CLUSTERS", 5),
		ClusterSeed:        int64(getInt("CLUSTER_SEED", 42)),
		ZoneWeight:         getFloat("ZONE_WEIGHT", 1_000_000),
		FarThresholdMeters: getInt("FAR_THRESHOLD_METERS", 50_000),
		SolverBudget:       time.Duration(getInt("SOLVER_BUDGET_MS", 3000)) * time.Millisecond,
		Clustering:         ClusterStrategy(Get("CLUSTER_STRATEGY", string(ClusterByZone))),
		Routing:            RouteStrategy(Get("ROUTE_STRATEGY", string(RouteSolver))),
	}
}

// Validate rejects configurations the engine cannot plan with.
func (c PlannerConfig) Validate() error {
	if c.DailyCapacityKg <= 0 {
		return fmt.Errorf("config: DAILY_CAPACITY_KG must be positive, got %v", c.DailyCapacityKg)
	}
	if c.WorkStartSec >= c.WorkEndSec {
		return fmt.Errorf("config: working hours invalid: start=%d end=%d", c.WorkStartSec, c.WorkEndSec)
	}
	if c.PrivateWorkEndSec <= c.WorkStartSec {
		return fmt.Errorf("config: private window end %d precedes work start %d", c.PrivateWorkEndSec, c.WorkStartSec)
	}
	if c.DesiredClusters < 1 {
		return fmt.Errorf("config: DESIRED_CLUSTERS must be at least 1, got %d", c.DesiredClusters)
	}
	switch c.Clustering {
	case ClusterByZone, ClusterByLatLon:
	default:
		return fmt.Errorf("config: unknown cluster strategy %q", c.Clustering)
	}
	switch c.Routing {
	case RouteSolver, RoutePacker:
	default:
		return fmt.Errorf("config: unknown route strategy %q", c.Routing)
	}
	return nil
}
