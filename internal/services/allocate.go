package services

import (
	"log"
	"sort"
	"time"

	"collection-planning-service/internal/domain"
)

// ClientAllocation is one client's monthly quota as the allocator sees
// it: how many visits, how heavy each one is, and which cluster the
// client's routable job belongs to. Clients without coordinates carry
// cluster -1: their weight still counts against daily capacity but they
// produce no routable job.
type ClientAllocation struct {
	Client   domain.Client
	Visits   int
	WeightKg float64
	Cluster  int
	Job      domain.PlanningJob
}

// DayBucket is the allocator's output unit: the routable jobs of one
// cluster on one date, handed to the route solver or packer.
type DayBucket struct {
	Date    time.Time
	Cluster int
	Jobs    []domain.PlanningJob
}

// AllocationResult carries the buckets plus the counters the run
// report needs.
type AllocationResult struct {
	Buckets         []DayBucket
	Ledger          *domain.CapacityLedger
	VisitsRequested int
	VisitsPlaced    int
}

// monthDays returns the working days of a month, Sundays excluded.
func monthDays(year int, month time.Month) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := make([]time.Time, 0, 27)
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}

// AllocateMonth spreads every client's monthly visits over the month's
// calendar, never letting a date's cumulative weight exceed the daily
// capacity ceiling.
//
// Clients are processed cluster by cluster in the given order, fixed-day
// clients first within each cluster. Candidate dates are split into
// preferred (already bound to the client's cluster, or unclaimed) and
// fallback, each tried least-loaded first. A client whose quota does not
// fit simply gets fewer visits that month; that is logged, not raised.
func AllocateMonth(
	year int,
	month time.Month,
	allocations []ClientAllocation,
	clusterOrder []int,
	dailyCapacityKg float64,
) AllocationResult {
	days := monthDays(year, month)
	ledger := domain.NewCapacityLedger()

	buckets := make(map[string]map[int][]domain.PlanningJob)
	res := AllocationResult{Ledger: ledger}

	for _, cluster := range processingOrder(allocations, clusterOrder) {
		for _, ca := range cluster {
			res.VisitsRequested += ca.Visits
			placed := allocateClient(ca, days, ledger, dailyCapacityKg, buckets)
			res.VisitsPlaced += placed

			if placed < ca.Visits {
				log.Printf("allocation shortfall client=%d wanted=%d placed=%d",
					ca.Client.ID, ca.Visits, placed)
			}
		}
	}

	res.Buckets = flattenBuckets(buckets, clusterOrder)
	return res
}

// processingOrder groups allocations by cluster in the desired order,
// fixed-day clients first within each cluster, then by client ID for
// determinism. Unclustered clients (no coordinates) come last.
func processingOrder(allocations []ClientAllocation, clusterOrder []int) [][]ClientAllocation {
	byCluster := make(map[int][]ClientAllocation)
	for _, ca := range allocations {
		byCluster[ca.Cluster] = append(byCluster[ca.Cluster], ca)
	}

	order := make([]int, 0, len(byCluster))
	for _, c := range clusterOrder {
		if _, ok := byCluster[c]; ok {
			order = append(order, c)
		}
	}
	if _, ok := byCluster[-1]; ok {
		order = append(order, -1)
	}

	out := make([][]ClientAllocation, 0, len(order))
	for _, c := range order {
		group := byCluster[c]
		sort.SliceStable(group, func(a, b int) bool {
			aFixed := group[a].Client.Rule.Kind == domain.VisitFixedWeekday
			bFixed := group[b].Client.Rule.Kind == domain.VisitFixedWeekday
			if aFixed != bFixed {
				return aFixed
			}
			return group[a].Client.ID < group[b].Client.ID
		})
		out = append(out, group)
	}
	return out
}

func allocateClient(
	ca ClientAllocation,
	days []time.Time,
	ledger *domain.CapacityLedger,
	dailyCapacityKg float64,
	buckets map[string]map[int][]domain.PlanningJob,
) int {
	eligible := make([]time.Time, 0, len(days))
	for _, d := range days {
		if IsDue(ca.Client.Rule, d) {
			eligible = append(eligible, d)
		}
	}

	preferred := make([]time.Time, 0, len(eligible))
	fallback := make([]time.Time, 0)
	for _, d := range eligible {
		bound := ledger.ClusterFor(d)
		if bound == -1 || bound == ca.Cluster {
			preferred = append(preferred, d)
		} else {
			fallback = append(fallback, d)
		}
	}

	byLoad := func(dates []time.Time) {
		sort.SliceStable(dates, func(a, b int) bool {
			la, lb := ledger.Committed(dates[a]), ledger.Committed(dates[b])
			if la != lb {
				return la < lb
			}
			return dates[a].Before(dates[b])
		})
	}
	byLoad(preferred)
	byLoad(fallback)

	placed := 0
	for _, d := range append(preferred, fallback...) {
		if placed >= ca.Visits {
			break
		}
		if ledger.Committed(d)+ca.WeightKg > dailyCapacityKg {
			continue
		}

		ledger.Commit(d, ca.WeightKg)
		if ca.Cluster >= 0 {
			ledger.BindCluster(d, ca.Cluster)
		}
		placed++

		if ca.Client.HasLocation {
			key := d.Format("2006-01-02")
			if buckets[key] == nil {
				buckets[key] = make(map[int][]domain.PlanningJob)
			}
			buckets[key][ca.Cluster] = append(buckets[key][ca.Cluster], ca.Job)
		}
	}
	return placed
}

// flattenBuckets orders buckets chronologically, clusters within a day
// following the overall cluster order.
func flattenBuckets(
	buckets map[string]map[int][]domain.PlanningJob,
	clusterOrder []int,
) []DayBucket {
	dates := make([]string, 0, len(buckets))
	for d := range buckets {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]DayBucket, 0, len(buckets))
	for _, dk := range dates {
		date, _ := time.Parse("2006-01-02", dk)
		clusters := buckets[dk]

		for _, c := range clusterOrder {
			if jobs, ok := clusters[c]; ok {
				out = append(out, DayBucket{Date: date, Cluster: c, Jobs: jobs})
			}
		}
		// Unclustered jobs never reach a bucket (no coordinates), but
		// guard against stray labels to avoid dropping work silently.
		stray := make([]int, 0)
		for c := range clusters {
			if !containsInt(clusterOrder, c) {
				stray = append(stray, c)
			}
		}
		sort.Ints(stray)
		for _, c := range stray {
			out = append(out, DayBucket{Date: date, Cluster: c, Jobs: clusters[c]})
		}
	}
	return out
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
