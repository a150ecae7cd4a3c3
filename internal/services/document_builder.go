package services

import (
	"context"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
)

// DocumentBuilder turns a planned candidate into display-ready routes.
type DocumentBuilder struct {
	geocoder ports.Geocoder
}

func NewDocumentBuilder(geocoder ports.Geocoder) *DocumentBuilder {
	return &DocumentBuilder{geocoder: geocoder}
}

// Build reverse-geocodes every waypoint and annotates it with its priority,
// location number, depot flags and the geometry of the leg to the next point.
// Route numbers follow the day-chain order.
func (b *DocumentBuilder) Build(ctx context.Context, plan *PlanResult) ([]domain.Route, error) {
	semiDepots := make(map[string]struct{}, len(plan.SemiDepots))
	for _, sd := range plan.SemiDepots {
		semiDepots[sd.Key()] = struct{}{}
	}

	names := make(map[string]string)
	name := func(c domain.Coordinates) (string, error) {
		if n, ok := names[c.Key()]; ok {
			return n, nil
		}
		n, err := b.geocoder.ReverseGeocode(ctx, c)
		if err != nil {
			return "", fmt.Errorf("build route document: reverse geocode %s: %w", c, err)
		}
		names[c.Key()] = n
		return n, nil
	}

	routes := make([]domain.Route, 0, len(plan.Candidate.Routes))
	for number, pr := range plan.Candidate.Routes {
		points := pr.Points()
		last := len(points) - 1

		waypoints := make([]domain.Waypoint, 0, len(points))
		for j, c := range points {
			n, err := name(c)
			if err != nil {
				return nil, err
			}

			_, isSemi := semiDepots[c.Key()]
			w := domain.Waypoint{
				Coords:         c,
				Name:           n,
				LocationNumber: j,
				IsDepot:        j == 0 || j == last,
				IsSemiDepot:    isSemi,
			}
			if j > 0 && j < last {
				p := pr.Stops[j-1].Priority
				w.Priority = &p
			}
			if j < last && j < len(pr.Metrics.LegPolylines) {
				leg := pr.Metrics.LegPolylines[j]
				w.PolylineToNext = &leg
			}
			waypoints = append(waypoints, w)
		}

		routes = append(routes, domain.Route{
			Number:        number,
			Waypoints:     waypoints,
			DistanceKm:    pr.Metrics.DistanceKm,
			DurationHours: pr.Metrics.DurationHours,
			FuelLiters:    pr.Metrics.FuelLiters,
			Polyline:      pr.Metrics.Polyline,
		})
	}

	return routes, nil
}
