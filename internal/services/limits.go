package services

import "route-planner-service/internal/domain"

// FilterByLimits drops candidates with any route over the daily limits.
//
// The distance limit (km) is applied first, then the duration limit (minutes).
// When a non-empty input loses every candidate to one of the filters, the
// matching "limit too small" error is returned. Nil limits are unbounded.
func FilterByLimits(candidates []Candidate, distanceLimit, durationLimit *float64) ([]Candidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	kept := candidates
	if distanceLimit != nil {
		kept = filterCandidates(kept, func(r PlannedRoute) bool {
			return r.Metrics.DistanceKm <= *distanceLimit
		})
		if len(kept) == 0 {
			return nil, domain.ErrDistanceLimitTooSmall
		}
	}

	if durationLimit != nil {
		kept = filterCandidates(kept, func(r PlannedRoute) bool {
			return r.Metrics.DurationMinutes() <= *durationLimit
		})
		if len(kept) == 0 {
			return nil, domain.ErrDurationLimitTooSmall
		}
	}

	return kept, nil
}

func filterCandidates(candidates []Candidate, within func(PlannedRoute) bool) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		ok := true
		for _, r := range c.Routes {
			if !within(r) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, c)
		}
	}
	return out
}
