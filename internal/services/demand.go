package services

import "collection-planning-service/internal/domain"

// VisitsPerMonth derives how many pickups a client's cadence implies
// for one month. A fixed weekday means one visit per week; N passages
// per week mean 4N per month; every K days means 30/K (integer floor),
// never less than one. Clients with no cadence get no scheduled visits.
func VisitsPerMonth(rule domain.VisitRule) int {
	switch rule.Kind {
	case domain.VisitFixedWeekday:
		return 4
	case domain.VisitTimesPerWeek:
		if rule.N < 1 {
			return 0
		}
		return rule.N * 4
	case domain.VisitEveryKDays:
		if rule.K < 1 {
			return 0
		}
		v := 30 / rule.K
		if v < 1 {
			v = 1
		}
		return v
	default:
		return 0
	}
}

// PerVisitWeightKg spreads the monthly estimate evenly over the
// month's visits. Zero estimate or zero visits yield zero, which
// excludes the client downstream.
func PerVisitWeightKg(monthlyKg float64, visits int) float64 {
	if monthlyKg <= 0 || visits <= 0 {
		return 0
	}
	return monthlyKg / float64(visits)
}

// NormalizeDemand is a pure function of the client's contract fields:
// calling it again on unchanged inputs always yields the same result.
func NormalizeDemand(c domain.Client) (visits int, perVisitKg float64) {
	visits = VisitsPerMonth(c.Rule)
	perVisitKg = PerVisitWeightKg(c.MonthlyDemandKg, visits)
	return visits, perVisitKg
}
