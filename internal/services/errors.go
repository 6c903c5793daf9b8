package services

import (
	"fmt"
	"time"
)

// ConfigError marks an invalid planner setup: missing vehicles, a bad
// depot position, or out-of-range working hours. The run aborts before
// touching any stored assignment.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("planner config: %s", e.Reason)
}

// InfeasibleError reports a bucket whose jobs could not be routed at
// all within vehicle capacity and time windows.
type InfeasibleError struct {
	Date    time.Time
	Cluster int
	Jobs    int
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("no feasible route for %s cluster %d (%d jobs)",
		e.Date.Format("2006-01-02"), e.Cluster, e.Jobs)
}
