package services

import (
	"testing"
	"time"

	"collection-planning-service/internal/domain"
)

func TestScheduledWeekdays(t *testing.T) {
	cases := []struct {
		n    int
		want []time.Weekday
	}{
		{1, []time.Weekday{time.Monday}},
		{2, []time.Weekday{time.Monday, time.Wednesday}},
		{3, []time.Weekday{time.Monday, time.Tuesday, time.Wednesday}},
		{5, []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}},
		{0, nil},
	}

	for _, tc := range cases {
		got := scheduledWeekdays(tc.n)
		if len(got) != len(tc.want) {
			t.Fatalf("n=%d: got %v, want %v", tc.n, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("n=%d: got %v, want %v", tc.n, got, tc.want)
			}
		}
	}
}

func TestIsDueFixedWeekday(t *testing.T) {
	rule := domain.VisitRule{Kind: domain.VisitFixedWeekday, Weekday: time.Tuesday}

	tue := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	wed := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)

	if !IsDue(rule, tue) {
		t.Fatal("Tuesday should be due for a fixed-Tuesday client")
	}
	if IsDue(rule, wed) {
		t.Fatal("Wednesday should not be due for a fixed-Tuesday client")
	}
}

func TestIsDueTimesPerWeek(t *testing.T) {
	rule := domain.VisitRule{Kind: domain.VisitTimesPerWeek, N: 2}

	// 2026-03-02 is a Monday.
	mon := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	tue := mon.AddDate(0, 0, 1)
	wed := mon.AddDate(0, 0, 2)

	if !IsDue(rule, mon) || !IsDue(rule, wed) {
		t.Fatal("twice-weekly client is served Monday and Wednesday")
	}
	if IsDue(rule, tue) {
		t.Fatal("twice-weekly client is not served Tuesday")
	}
}

func TestIsDueEveryKDays(t *testing.T) {
	rule := domain.VisitRule{Kind: domain.VisitEveryKDays, K: 7}

	first := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	for offset := 0; offset < 28; offset++ {
		d := first.AddDate(0, 0, offset)
		due := IsDue(rule, d)
		if offset%7 == 0 && !due {
			t.Fatalf("day %d of month should be due for K=7", offset+1)
		}
		if offset%7 != 0 && due {
			t.Fatalf("day %d of month should not be due for K=7", offset+1)
		}
	}
}

func TestIsDueNoRule(t *testing.T) {
	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	if IsDue(domain.VisitRule{Kind: domain.VisitNone}, day) {
		t.Fatal("client without a cadence is never due")
	}
}
