package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"strings"
)

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		WaypointOrder []int `json:"waypoint_order"`
	} `json:"routes"`
}

// OptimizeOrder asks the Directions API for the optimized visiting order of
// waypoints between start and end (waypoints=optimize:true|...).
func (g *GoogleProvider) OptimizeOrder(
	ctx context.Context,
	start domain.Coordinates,
	waypoints []domain.Coordinates,
	end domain.Coordinates,
	avoidTolls bool,
) (_ []int, err error) {
	defer obs.Time(ctx, "google.OptimizeOrder")(&err)

	switch len(waypoints) {
	case 0:
		return []int{}, nil
	case 1:
		return []int{0}, nil
	}

	parts := make([]string, 0, len(waypoints)+1)
	parts = append(parts, "optimize:true")
	for _, w := range waypoints {
		parts = append(parts, w.String())
	}

	params := map[string]string{
		"origin":      start.String(),
		"destination": end.String(),
		"waypoints":   strings.Join(parts, "|"),
		"mode":        "driving",
	}
	if avoidTolls {
		params["avoid"] = "tolls"
	}

	resp, err := g.doWithRetry(ctx, "directions", func() (*http.Request, error) {
		return g.newQueryRequest(ctx, "/maps/api/directions/json", params)
	})
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &domain.UpstreamError{Op: "google directions", Err: fmt.Errorf("decode directions response: %w", err)}
	}

	if decoded.Status != "OK" || len(decoded.Routes) == 0 {
		return nil, &domain.UpstreamError{
			Op:  "google directions",
			Err: fmt.Errorf("status %s: %s", decoded.Status, decoded.ErrorMessage),
		}
	}

	return decoded.Routes[0].WaypointOrder, nil
}
