package services

import (
	"context"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/ports"
	"sort"
	"strings"
	"time"
)

// DateLayout is the day.month.year format used for statistics windows.
const DateLayout = "02.01.2006"

const topAddresses = 3

type AddressCount struct {
	Address string
	Count   int
}

// WindowStats aggregates the completed routes of one date window.
type WindowStats struct {
	CompletedRoutes      int
	DistanceKm           float64
	DurationHours        float64
	FuelLiters           float64
	CompletionsByWeekday map[string]int
	VisitedLocations     int
	UnvisitedLocations   int
	PriorityCounts       map[domain.Priority]int
	TopVisited           []AddressCount
	TopMissed            []AddressCount
	TopDepots            []AddressCount
}

// AddressFrequency is one entry of the all-addresses ranking.
type AddressFrequency struct {
	Address string
	Count   int
	Coords  domain.Coordinates
}

type Statistics struct {
	routes   ports.RouteSetRepository
	geocoder ports.Geocoder
}

func NewStatistics(routes ports.RouteSetRepository, geocoder ports.Geocoder) *Statistics {
	return &Statistics{routes: routes, geocoder: geocoder}
}

// Window aggregates every completed route whose completion day lies within
// [startDate, endDate] inclusive. Dates use DateLayout. Depot and semi-depot
// counts are halved rounding up since a route touches them at both ends.
func (s *Statistics) Window(ctx context.Context, userID, startDate, endDate string) (_ *WindowStats, err error) {
	defer obs.Time(ctx, "stats.Window")(&err)

	start, err := time.Parse(DateLayout, strings.TrimSpace(startDate))
	if err != nil {
		return nil, domain.Validationf("start_date must use DD.MM.YYYY, got %q", startDate)
	}
	end, err := time.Parse(DateLayout, strings.TrimSpace(endDate))
	if err != nil {
		return nil, domain.Validationf("end_date must use DD.MM.YYYY, got %q", endDate)
	}
	if end.Before(start) {
		return nil, domain.Validationf("end_date must not be before start_date")
	}

	sets, err := s.routes.List(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("route statistics: %w", err)
	}

	stats := &WindowStats{
		CompletionsByWeekday: make(map[string]int, 7),
		PriorityCounts: map[domain.Priority]int{
			domain.PriorityLow:    0,
			domain.PriorityMedium: 0,
			domain.PriorityHigh:   0,
		},
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		stats.CompletionsByWeekday[d.String()] = 0
	}

	visited := make(map[string]int)
	missed := make(map[string]int)
	depots := make(map[string]int)

	for _, set := range sets {
		for _, r := range set.Routes {
			if !r.Completed || r.CompletedAt == nil {
				continue
			}
			day := r.CompletedAt.UTC()
			day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
			if day.Before(start) || day.After(end) {
				continue
			}

			stats.CompletedRoutes++
			stats.DistanceKm += r.DistanceKm
			stats.DurationHours += r.DurationHours
			stats.FuelLiters += r.FuelLiters
			stats.CompletionsByWeekday[day.Weekday().String()]++

			for _, w := range r.Waypoints {
				if w.IsDepot || w.IsSemiDepot {
					depots[w.Name]++
					continue
				}
				if w.Visited != nil && *w.Visited {
					stats.VisitedLocations++
					visited[w.Name]++
					if w.Priority != nil {
						stats.PriorityCounts[*w.Priority]++
					}
				} else {
					stats.UnvisitedLocations++
					missed[w.Name]++
				}
			}
		}
	}

	for name, n := range depots {
		depots[name] = halfUp(n)
	}

	stats.TopVisited = rankAddresses(visited, topAddresses)
	stats.TopMissed = rankAddresses(missed, topAddresses)
	stats.TopDepots = rankAddresses(depots, topAddresses)

	return stats, nil
}

// AllAddresses ranks every waypoint name seen across the user's route sets and
// resolves each back to coordinates. Depot-type occurrences of an address are
// halved rounding up, so a depot seen once still counts once.
func (s *Statistics) AllAddresses(ctx context.Context, userID string) (_ []AddressFrequency, err error) {
	defer obs.Time(ctx, "stats.AllAddresses")(&err)

	sets, err := s.routes.List(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("all addresses: %w", err)
	}

	stops := make(map[string]int)
	depots := make(map[string]int)
	for _, set := range sets {
		for _, r := range set.Routes {
			for _, w := range r.Waypoints {
				if w.IsDepot || w.IsSemiDepot {
					depots[w.Name]++
				} else {
					stops[w.Name]++
				}
			}
		}
	}

	for name, n := range depots {
		stops[name] += halfUp(n)
	}

	ranked := rankAddresses(stops, 0)
	out := make([]AddressFrequency, 0, len(ranked))
	for _, a := range ranked {
		c, err := s.geocoder.Geocode(ctx, a.Address)
		if err != nil {
			return nil, fmt.Errorf("all addresses: geocode %q: %w", a.Address, err)
		}
		out = append(out, AddressFrequency{Address: a.Address, Count: a.Count, Coords: c})
	}

	return out, nil
}

func halfUp(n int) int {
	return (n + 1) / 2
}

// rankAddresses orders by count descending then name ascending; limit <= 0 keeps all.
func rankAddresses(counts map[string]int, limit int) []AddressCount {
	out := make([]AddressCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, AddressCount{Address: name, Count: n})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Address < out[j].Address
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
