package services

import (
	"testing"
	"time"

	"collection-planning-service/internal/domain"
)

func weeklyClient(id int64, monthlyKg float64, n int) ClientAllocation {
	c := domain.Client{
		ID:              id,
		MonthlyDemandKg: monthlyKg,
		HasLocation:     true,
		Rule:            domain.VisitRule{Kind: domain.VisitTimesPerWeek, N: n},
	}
	visits, perVisit := NormalizeDemand(c)
	return ClientAllocation{
		Client:   c,
		Visits:   visits,
		WeightKg: perVisit,
		Cluster:  0,
		Job:      domain.PlanningJob{ClientID: id, WeightKg: perVisit, Cluster: 0},
	}
}

func TestAllocateMonthExcludesSundays(t *testing.T) {
	ca := weeklyClient(1, 800, 5)

	res := AllocateMonth(2026, time.March, []ClientAllocation{ca}, []int{0}, 10_000)
	for _, b := range res.Buckets {
		if b.Date.Weekday() == time.Sunday {
			t.Fatalf("bucket scheduled on Sunday %s", b.Date.Format("2006-01-02"))
		}
	}
}

func TestAllocateMonthRespectsEligibility(t *testing.T) {
	// Fixed-Tuesday client: every bucket date must be a Tuesday.
	c := domain.Client{
		ID:              2,
		MonthlyDemandKg: 200,
		HasLocation:     true,
		Rule:            domain.VisitRule{Kind: domain.VisitFixedWeekday, Weekday: time.Tuesday},
	}
	visits, perVisit := NormalizeDemand(c)
	ca := ClientAllocation{
		Client: c, Visits: visits, WeightKg: perVisit, Cluster: 0,
		Job: domain.PlanningJob{ClientID: 2, WeightKg: perVisit, Cluster: 0},
	}

	res := AllocateMonth(2026, time.March, []ClientAllocation{ca}, []int{0}, 10_000)
	if res.VisitsPlaced != 4 {
		t.Fatalf("placed = %d, want 4", res.VisitsPlaced)
	}
	for _, b := range res.Buckets {
		if b.Date.Weekday() != time.Tuesday {
			t.Fatalf("fixed-Tuesday client placed on %s", b.Date.Weekday())
		}
	}
}

func TestAllocateMonthCapacityCeiling(t *testing.T) {
	// Two fixed-Monday clients of 600 kg against a 1000 kg daily
	// ceiling: they can never share a Monday, so each Monday carries
	// exactly 600 kg.
	mk := func(id int64) ClientAllocation {
		c := domain.Client{
			ID:              id,
			MonthlyDemandKg: 2400,
			HasLocation:     true,
			Rule:            domain.VisitRule{Kind: domain.VisitFixedWeekday, Weekday: time.Monday},
		}
		visits, perVisit := NormalizeDemand(c)
		return ClientAllocation{
			Client: c, Visits: visits, WeightKg: perVisit, Cluster: 0,
			Job: domain.PlanningJob{ClientID: id, WeightKg: perVisit, Cluster: 0},
		}
	}

	a, b := mk(1), mk(2)
	res := AllocateMonth(2026, time.March, []ClientAllocation{a, b}, []int{0}, 1000)

	for _, d := range monthDays(2026, time.March) {
		got := res.Ledger.Committed(d)
		if got > 1000 {
			t.Fatalf("day %s committed %.0f kg, ceiling is 1000", d.Format("2006-01-02"), got)
		}
		if d.Weekday() == time.Monday && got != 0 && got != 600 {
			t.Fatalf("Monday %s carries %.0f kg, want 0 or 600", d.Format("2006-01-02"), got)
		}
	}

	// March 2026 has five Mondays; eight visits were asked, at most
	// five can land.
	if res.VisitsRequested != 8 {
		t.Fatalf("requested = %d, want 8", res.VisitsRequested)
	}
	if res.VisitsPlaced > 5 {
		t.Fatalf("placed = %d, at most 5 Mondays exist", res.VisitsPlaced)
	}
}

func TestAllocateMonthShortfallIsSoft(t *testing.T) {
	// One client heavier than the ceiling: no visit fits, the
	// allocator reports zero placed rather than failing.
	c := domain.Client{
		ID:              3,
		MonthlyDemandKg: 8000,
		HasLocation:     true,
		Rule:            domain.VisitRule{Kind: domain.VisitEveryKDays, K: 15},
	}
	visits, perVisit := NormalizeDemand(c)
	ca := ClientAllocation{
		Client: c, Visits: visits, WeightKg: perVisit, Cluster: 0,
		Job: domain.PlanningJob{ClientID: 3, WeightKg: perVisit, Cluster: 0},
	}

	res := AllocateMonth(2026, time.March, []ClientAllocation{ca}, []int{0}, 1000)
	if res.VisitsPlaced != 0 {
		t.Fatalf("placed = %d, want 0 for an over-ceiling client", res.VisitsPlaced)
	}
	if len(res.Buckets) != 0 {
		t.Fatalf("buckets = %d, want none", len(res.Buckets))
	}
}

func TestAllocateMonthClusterBinding(t *testing.T) {
	// Clients from two clusters with a shared eligible weekday: a day
	// claimed by cluster 0 prefers to stay cluster 0.
	a := weeklyClient(1, 100, 1)
	b := weeklyClient(2, 100, 1)
	b.Cluster = 1
	b.Job.Cluster = 1

	res := AllocateMonth(2026, time.March, []ClientAllocation{a, b}, []int{0, 1}, 10_000)

	for _, bkt := range res.Buckets {
		for _, j := range bkt.Jobs {
			if j.Cluster != bkt.Cluster {
				t.Fatalf("job of cluster %d in bucket of cluster %d", j.Cluster, bkt.Cluster)
			}
		}
	}
}

func TestAllocateMonthNoLocationClientCountsAgainstCapacity(t *testing.T) {
	located := weeklyClient(1, 400, 1)

	bare := domain.Client{
		ID:              2,
		MonthlyDemandKg: 2400,
		HasLocation:     false,
		Rule:            domain.VisitRule{Kind: domain.VisitTimesPerWeek, N: 1},
	}
	visits, perVisit := NormalizeDemand(bare)
	bareCA := ClientAllocation{Client: bare, Visits: visits, WeightKg: perVisit, Cluster: -1}

	res := AllocateMonth(2026, time.March, []ClientAllocation{located, bareCA}, []int{0}, 10_000)

	// The unlocated client consumed ledger capacity but produced no
	// routable job.
	totalJobs := 0
	for _, b := range res.Buckets {
		totalJobs += len(b.Jobs)
	}
	if totalJobs != 4 {
		t.Fatalf("routable jobs = %d, want only the located client's 4", totalJobs)
	}

	var committed float64
	for _, d := range monthDays(2026, time.March) {
		committed += res.Ledger.Committed(d)
	}
	want := 400.0 + 2400.0
	if committed != want {
		t.Fatalf("total committed = %.0f, want %.0f", committed, want)
	}
}

func TestMonthDays(t *testing.T) {
	days := monthDays(2026, time.March)
	// March 2026 has 31 days and 5 Sundays.
	if len(days) != 26 {
		t.Fatalf("working days = %d, want 26", len(days))
	}
	for _, d := range days {
		if d.Weekday() == time.Sunday {
			t.Fatalf("Sunday %s in working days", d.Format("2006-01-02"))
		}
	}
}
