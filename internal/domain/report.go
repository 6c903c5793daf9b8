package domain

// RunReport aggregates the non-fatal conditions of one planning run.
// It is posted to the notification sink at run end rather than raised
// mid-run.
type RunReport struct {
	RunID              string
	ClientsConsidered  int
	ClientsNoDemand    int
	ClientsNoLocation  int
	VisitsRequested    int
	VisitsPlaced       int
	JobsRouted         int
	JobsUnserved       int
	InfeasibleBuckets  int
	DistanceFallbacks  int
	AssignmentsWritten int
}
