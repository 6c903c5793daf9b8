package dto

import "time"

type MonthlyPlanRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type DailyPlanRequest struct {
	Date string `json:"date"`
}

type PlanReportResponse struct {
	RunID              string `json:"run_id"`
	ClientsConsidered  int    `json:"clients_considered"`
	ClientsNoDemand    int    `json:"clients_no_demand"`
	ClientsNoLocation  int    `json:"clients_no_location"`
	VisitsRequested    int    `json:"visits_requested"`
	VisitsPlaced       int    `json:"visits_placed"`
	JobsRouted         int    `json:"jobs_routed"`
	JobsUnserved       int    `json:"jobs_unserved"`
	InfeasibleBuckets  int    `json:"infeasible_buckets"`
	DistanceFallbacks  int    `json:"distance_fallbacks"`
	AssignmentsWritten int    `json:"assignments_written"`
}

type StopResponse struct {
	ClientID          int64     `json:"client_id"`
	Sequence          int       `json:"sequence"`
	WeightKg          float64   `json:"weight_kg"`
	LegDistanceMeters int       `json:"leg_distance_meters"`
	ArriveAt          time.Time `json:"arrive_at"`
	DepartAt          time.Time `json:"depart_at"`
}

type AssignmentResponse struct {
	RunID                string         `json:"run_id"`
	Date                 string         `json:"date"`
	VehicleID            int64          `json:"vehicle_id"`
	TotalWeightKg        float64        `json:"total_weight_kg"`
	TotalDistanceMeters  int            `json:"total_distance_meters"`
	TotalDurationSeconds int            `json:"total_duration_seconds"`
	Stops                []StopResponse `json:"stops"`
}

type ListAssignmentsResponse struct {
	Assignments []AssignmentResponse `json:"assignments"`
}
