package services

import (
	"time"

	"collection-planning-service/internal/domain"
)

// businessWeekdays in sampling order for the N-per-week rule.
var businessWeekdays = [5]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

// scheduledWeekdays picks the N business weekdays a times-per-week
// client is served on, by evenly spaced sampling over Mon..Fri:
// step = max(1, 5/N), take the first N of every step-th weekday.
// N=2 gives Monday and Wednesday; N=3 gives Monday through Wednesday.
func scheduledWeekdays(n int) []time.Weekday {
	if n < 1 {
		return nil
	}
	if n > 5 {
		n = 5
	}

	step := 5 / n
	if step < 1 {
		step = 1
	}

	out := make([]time.Weekday, 0, n)
	for i := 0; i < len(businessWeekdays) && len(out) < n; i += step {
		out = append(out, businessWeekdays[i])
	}
	return out
}

// IsDue reports whether a client governed by the given rule is due for
// collection on the given day. Exactly one rule branch applies per
// client; the repository resolves precedence (fixed weekday first,
// then times-per-week, then every-K-days) when it builds the rule.
func IsDue(rule domain.VisitRule, day time.Time) bool {
	switch rule.Kind {
	case domain.VisitFixedWeekday:
		return day.Weekday() == rule.Weekday

	case domain.VisitTimesPerWeek:
		wd := day.Weekday()
		for _, s := range scheduledWeekdays(rule.N) {
			if wd == s {
				return true
			}
		}
		return false

	case domain.VisitEveryKDays:
		if rule.K < 1 {
			return false
		}
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		elapsed := int(day.Sub(first).Hours() / 24)
		return elapsed%rule.K == 0

	default:
		return false
	}
}
