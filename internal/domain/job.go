package domain

// PlanningJob is one required visit for one client on one candidate
// day. Jobs are created fresh per planning run and map 1:1 to an
// output stop once routed; they are never persisted.
type PlanningJob struct {
	ClientID int64
	Location Coordinates
	WeightKg float64
	// Time window in seconds from midnight, already clamped to the
	// working-hours horizon for the client's category.
	WindowStartSec int
	WindowEndSec   int
	ServiceSec     int
	Zone           string
	ZoneIndex      int
	// Straight-line or road distance from the depot, used as a
	// clustering feature and as the fallback packer's sort key.
	DepotDistanceMeters int
	Cluster             int
}
