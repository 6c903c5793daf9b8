package services

import (
	"testing"
	"time"

	"collection-planning-service/internal/domain"
)

func TestVisitsPerMonth(t *testing.T) {
	cases := []struct {
		name string
		rule domain.VisitRule
		want int
	}{
		{"fixed weekday", domain.VisitRule{Kind: domain.VisitFixedWeekday, Weekday: time.Tuesday}, 4},
		{"twice a week", domain.VisitRule{Kind: domain.VisitTimesPerWeek, N: 2}, 8},
		{"every 7 days", domain.VisitRule{Kind: domain.VisitEveryKDays, K: 7}, 4},
		{"every 45 days floors to one", domain.VisitRule{Kind: domain.VisitEveryKDays, K: 45}, 1},
		{"no rule", domain.VisitRule{Kind: domain.VisitNone}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := VisitsPerMonth(tc.rule); got != tc.want {
				t.Fatalf("visits = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestNormalizeDemandWeekly(t *testing.T) {
	c := domain.Client{
		ID:              1,
		MonthlyDemandKg: 100,
		Rule:            domain.VisitRule{Kind: domain.VisitTimesPerWeek, N: 2},
	}

	visits, perVisit := NormalizeDemand(c)
	if visits != 8 {
		t.Fatalf("visits = %d, want 8", visits)
	}
	if perVisit != 12.5 {
		t.Fatalf("perVisit = %v, want 12.5", perVisit)
	}
}

func TestNormalizeDemandEveryKDays(t *testing.T) {
	c := domain.Client{
		ID:              2,
		MonthlyDemandKg: 140,
		Rule:            domain.VisitRule{Kind: domain.VisitEveryKDays, K: 7},
	}

	visits, perVisit := NormalizeDemand(c)
	if visits != 4 {
		t.Fatalf("visits = %d, want 4", visits)
	}
	if perVisit != 35 {
		t.Fatalf("perVisit = %v, want 35", perVisit)
	}
}

func TestNormalizeDemandZero(t *testing.T) {
	c := domain.Client{ID: 3, MonthlyDemandKg: 0, Rule: domain.VisitRule{Kind: domain.VisitTimesPerWeek, N: 1}}

	visits, perVisit := NormalizeDemand(c)
	if visits != 4 {
		t.Fatalf("visits = %d, want 4", visits)
	}
	if perVisit != 0 {
		t.Fatalf("perVisit = %v, want 0", perVisit)
	}
}

func TestNormalizeDemandIdempotent(t *testing.T) {
	c := domain.Client{
		ID:              4,
		MonthlyDemandKg: 90,
		Rule:            domain.VisitRule{Kind: domain.VisitTimesPerWeek, N: 3},
	}

	v1, w1 := NormalizeDemand(c)
	v2, w2 := NormalizeDemand(c)
	if v1 != v2 || w1 != w2 {
		t.Fatalf("normalization not stable: (%d,%v) vs (%d,%v)", v1, w1, v2, w2)
	}
}
