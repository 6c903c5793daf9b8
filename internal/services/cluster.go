package services

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"collection-planning-service/internal/config"
	"collection-planning-service/internal/domain"
	"collection-planning-service/internal/ports"
)

// KMeansClusterer is a deterministic seeded k-means implementation.
// The feature space is chosen by explicit configuration: either
// [depot distance, zone index x zone weight] so clients from different
// zones rarely share a cluster, or raw coordinates when no zone
// information exists.
type KMeansClusterer struct {
	Strategy   config.ClusterStrategy
	Seed       int64
	ZoneWeight float64
}

func NewKMeansClusterer(cfg config.PlannerConfig) *KMeansClusterer {
	return &KMeansClusterer{
		Strategy:   cfg.Clustering,
		Seed:       cfg.ClusterSeed,
		ZoneWeight: cfg.ZoneWeight,
	}
}

func (c *KMeansClusterer) features(job domain.PlanningJob) [2]float64 {
	if c.Strategy == config.ClusterByLatLon {
		return [2]float64{job.Location.Lat, job.Location.Lon}
	}
	return [2]float64{
		float64(job.DepotDistanceMeters),
		float64(job.ZoneIndex) * c.ZoneWeight,
	}
}

func sqDist(a, b [2]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return dx*dx + dy*dy
}

// Cluster assigns each job a label in [0, k). Same seed, same jobs and
// same k always produce the same labels.
func (c *KMeansClusterer) Cluster(jobs []domain.PlanningJob, k int) ([]int, error) {
	if k < 1 {
		return nil, fmt.Errorf("cluster: k must be at least 1, got %d", k)
	}
	if len(jobs) == 0 {
		return []int{}, nil
	}
	if k > len(jobs) {
		k = len(jobs)
	}

	points := make([][2]float64, len(jobs))
	for i, j := range jobs {
		points[i] = c.features(j)
	}

	rng := rand.New(rand.NewSource(c.Seed))

	// Seeded initialization: distinct random points as centroids.
	perm := rng.Perm(len(points))
	centroids := make([][2]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = points[perm[i]]
	}

	labels := make([]int, len(points))
	const maxIterations = 100

	for iter := 0; iter < maxIterations; iter++ {
		changed := false

		for i, p := range points {
			best := 0
			bestDist := math.MaxFloat64
			for ci, cent := range centroids {
				// Strict less keeps ties on the lower index,
				// preserving determinism.
				if d := sqDist(p, cent); d < bestDist {
					bestDist = d
					best = ci
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}

		if !changed && iter > 0 {
			break
		}

		sums := make([][2]float64, k)
		counts := make([]int, k)
		for i, p := range points {
			l := labels[i]
			sums[l][0] += p[0]
			sums[l][1] += p[1]
			counts[l]++
		}

		for ci := range centroids {
			if counts[ci] == 0 {
				// Reseed an empty centroid on the point farthest from
				// its current centroid.
				farthest, worst := 0, -1.0
				for i, p := range points {
					if d := sqDist(p, centroids[labels[i]]); d > worst {
						worst = d
						farthest = i
					}
				}
				centroids[ci] = points[farthest]
				continue
			}
			centroids[ci] = [2]float64{
				sums[ci][0] / float64(counts[ci]),
				sums[ci][1] / float64(counts[ci]),
			}
		}
	}

	return labels, nil
}

// PartitionJobs labels every job with a cluster and returns the cluster
// identifiers in processing order.
//
// Jobs beyond the far-distance threshold are not clustered by the main
// algorithm: they go to dedicated far clusters (one per zone), so a
// single remote client cannot drag a whole route. Remaining jobs get
// k = min(desired, count) clusters. Clusters are ordered by
// (minimum zone index, minimum depot distance) ascending: nearby,
// low-zone clusters are served first.
func PartitionJobs(
	jobs []domain.PlanningJob,
	clusterer ports.Clusterer,
	cfg config.PlannerConfig,
) ([]domain.PlanningJob, []int, error) {
	if clusterer == nil {
		return nil, nil, errors.New("partition jobs: clusterer is nil")
	}
	if len(jobs) == 0 {
		return jobs, []int{}, nil
	}

	nearIdx := make([]int, 0, len(jobs))
	farIdx := make([]int, 0)
	for i, j := range jobs {
		if cfg.FarThresholdMeters > 0 && j.DepotDistanceMeters > cfg.FarThresholdMeters {
			farIdx = append(farIdx, i)
		} else {
			nearIdx = append(nearIdx, i)
		}
	}

	out := make([]domain.PlanningJob, len(jobs))
	copy(out, jobs)

	kNear := 0
	if len(nearIdx) > 0 {
		kNear = cfg.DesiredClusters
		if kNear > len(nearIdx) {
			kNear = len(nearIdx)
		}

		nearJobs := make([]domain.PlanningJob, len(nearIdx))
		for i, idx := range nearIdx {
			nearJobs[i] = jobs[idx]
		}

		labels, err := clusterer.Cluster(nearJobs, kNear)
		if err != nil {
			return nil, nil, fmt.Errorf("partition jobs: %w", err)
		}
		for i, idx := range nearIdx {
			out[idx].Cluster = labels[i]
		}
	}

	// One far cluster per zone, numbered after the near clusters.
	farZone := make(map[int]int)
	for _, idx := range farIdx {
		z := jobs[idx].ZoneIndex
		if _, ok := farZone[z]; !ok {
			farZone[z] = kNear + len(farZone)
		}
		out[idx].Cluster = farZone[z]
	}

	return out, orderClusters(out), nil
}

// orderClusters returns cluster identifiers sorted by
// (min zone index, min depot distance) ascending.
func orderClusters(jobs []domain.PlanningJob) []int {
	type stats struct {
		minZone int
		minDist int
	}
	byCluster := make(map[int]*stats)
	for _, j := range jobs {
		s, ok := byCluster[j.Cluster]
		if !ok {
			byCluster[j.Cluster] = &stats{minZone: j.ZoneIndex, minDist: j.DepotDistanceMeters}
			continue
		}
		if j.ZoneIndex < s.minZone {
			s.minZone = j.ZoneIndex
		}
		if j.DepotDistanceMeters < s.minDist {
			s.minDist = j.DepotDistanceMeters
		}
	}

	ids := make([]int, 0, len(byCluster))
	for id := range byCluster {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool {
		sa, sb := byCluster[ids[a]], byCluster[ids[b]]
		if sa.minZone != sb.minZone {
			return sa.minZone < sb.minZone
		}
		if sa.minDist != sb.minDist {
			return sa.minDist < sb.minDist
		}
		return ids[a] < ids[b]
	})
	return ids
}
