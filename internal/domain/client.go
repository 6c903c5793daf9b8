package domain

import "time"

// ClientCategory distinguishes public-sector clients from private ones.
// Private clients only accept pickups during a shortened morning window.
type ClientCategory string

const (
	CategoryPublic  ClientCategory = "etatique"
	CategoryPrivate ClientCategory = "prive"
)

// VisitRuleKind selects which cadence rule governs a client's pickups.
type VisitRuleKind int

const (
	// VisitNone marks a client with no recurring collection contract.
	VisitNone VisitRuleKind = iota
	// VisitFixedWeekday pins every visit to one weekday.
	VisitFixedWeekday
	// VisitTimesPerWeek spreads N visits across business weekdays.
	VisitTimesPerWeek
	// VisitEveryKDays schedules a visit every K days from month start.
	VisitEveryKDays
)

// VisitRule is a tagged variant: exactly one cadence applies per client.
// Weekday is meaningful only for VisitFixedWeekday, N only for
// VisitTimesPerWeek (1..5) and K only for VisitEveryKDays.
type VisitRule struct {
	Kind    VisitRuleKind
	Weekday time.Weekday
	N       int
	K       int
}

// Client is a read-only view of a collection contract holder.
// The planner never mutates clients; it derives ephemeral PlanningJobs
// from them and discards those at the end of a run.
type Client struct {
	ID              int64
	Name            string
	Location        Coordinates
	HasLocation     bool
	MonthlyDemandKg float64
	Rule            VisitRule
	Zone            string
	Category        ClientCategory
	// Road distance from the depot when a routing provider has filled
	// it in; zero means unknown and haversine is used instead.
	RoadDistanceMeters int
}

// Vehicle is a read-only view of a fleet truck.
type Vehicle struct {
	ID         int64
	Name       string
	CapacityKg float64
}

// UnlimitedCapacityKg substitutes for a missing or non-positive vehicle
// capacity. Treated as a data-quality warning, not a business rule.
const UnlimitedCapacityKg = 999999
