package domain

import "time"

// RouteStop is one client visit on a vehicle's planned route.
// ArriveAt/DepartAt are estimates on the assignment's date; cumulative
// seconds count travel plus service from route start.
type RouteStop struct {
	ClientID          int64
	Sequence          int
	WeightKg          float64
	LegDistanceMeters int
	CumulativeSeconds int
	ArriveAt          time.Time
	DepartAt          time.Time
}

// RouteAssignment is the planned route for one vehicle on one date.
// A RouteAssignment is the output of a planning run and describes the
// ordered sequence of stops along with aggregate distance and duration
// metrics. It is immutable planning data and contains no side effects.
type RouteAssignment struct {
	RunID                string
	Date                 time.Time
	VehicleID            int64
	Stops                []RouteStop
	TotalWeightKg        float64
	TotalDistanceMeters  int
	TotalDurationSeconds int
}
