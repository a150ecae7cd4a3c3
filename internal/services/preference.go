package services

import "route-planner-service/internal/domain"

// SelectPreferred returns the candidate with the smallest summed metric.
// The first candidate wins ties.
func SelectPreferred(candidates []Candidate, pref domain.Preference) (Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, domain.ErrNoFeasibleRoutes
	}

	best := 0
	bestSum := preferenceSum(candidates[0], pref)
	for i := 1; i < len(candidates); i++ {
		if sum := preferenceSum(candidates[i], pref); sum < bestSum {
			best = i
			bestSum = sum
		}
	}

	return candidates[best], nil
}

func preferenceSum(c Candidate, pref domain.Preference) float64 {
	sum := 0.0
	for _, r := range c.Routes {
		switch pref {
		case domain.PreferDuration:
			sum += r.Metrics.DurationHours
		case domain.PreferFuel:
			sum += r.Metrics.FuelLiters
		default:
			sum += r.Metrics.DistanceKm
		}
	}
	return sum
}
