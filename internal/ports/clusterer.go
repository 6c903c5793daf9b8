package ports

import "collection-planning-service/internal/domain"

// Port: groups planning jobs into geographically coherent clusters.
// Implementations must be deterministic: the same job set, count and
// seed always produce the same labels.
type Clusterer interface {
	// Cluster returns one label in [0, k) per job, in job order.
	Cluster(jobs []domain.PlanningJob, k int) ([]int, error)
}
