package maps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/ports"
	"strconv"
	"strings"
)

const routesFieldMask = "routes.duration,routes.distanceMeters,routes.polyline.encodedPolyline,routes.travelAdvisory.fuelConsumptionMicroliters"

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type routeWaypoint struct {
	Location struct {
		LatLng latLng `json:"latLng"`
	} `json:"location"`
}

type computeRoutesRequest struct {
	Origin            routeWaypoint   `json:"origin"`
	Destination       routeWaypoint   `json:"destination"`
	Intermediates     []routeWaypoint `json:"intermediates,omitempty"`
	TravelMode        string          `json:"travelMode"`
	RoutingPreference string          `json:"routingPreference"`
	RouteModifiers    struct {
		AvoidTolls  bool `json:"avoidTolls"`
		VehicleInfo struct {
			EmissionType string `json:"emissionType"`
		} `json:"vehicleInfo"`
	} `json:"routeModifiers"`
	ExtraComputations []string `json:"extraComputations"`
}

type computeRoutesResponse struct {
	Routes []struct {
		DistanceMeters int    `json:"distanceMeters"`
		Duration       string `json:"duration"`
		Polyline       struct {
			EncodedPolyline string `json:"encodedPolyline"`
		} `json:"polyline"`
		TravelAdvisory struct {
			FuelConsumptionMicroliters json.Number `json:"fuelConsumptionMicroliters"`
		} `json:"travelAdvisory"`
	} `json:"routes"`
}

func toRouteWaypoint(c domain.Coordinates) routeWaypoint {
	var w routeWaypoint
	w.Location.LatLng = latLng{Latitude: c.Lat, Longitude: c.Lng}
	return w
}

// ComputeRoute calls the Routes API (directions/v2:computeRoutes) for a gasoline
// vehicle with traffic-aware routing and fuel estimation.
func (g *GoogleProvider) ComputeRoute(
	ctx context.Context,
	points []domain.Coordinates,
	avoidTolls bool,
) (_ ports.RouteSummary, err error) {
	defer obs.Time(ctx, "google.ComputeRoute")(&err)

	if len(points) < 2 {
		return ports.RouteSummary{}, fmt.Errorf("compute route: need at least 2 points, got %d", len(points))
	}

	body := computeRoutesRequest{
		Origin:            toRouteWaypoint(points[0]),
		Destination:       toRouteWaypoint(points[len(points)-1]),
		TravelMode:        "DRIVE",
		RoutingPreference: "TRAFFIC_AWARE_OPTIMAL",
		ExtraComputations: []string{"FUEL_CONSUMPTION"},
	}
	for _, p := range points[1 : len(points)-1] {
		body.Intermediates = append(body.Intermediates, toRouteWaypoint(p))
	}
	body.RouteModifiers.AvoidTolls = avoidTolls
	body.RouteModifiers.VehicleInfo.EmissionType = "GASOLINE"

	payload, err := json.Marshal(body)
	if err != nil {
		return ports.RouteSummary{}, fmt.Errorf("marshal compute routes request: %w", err)
	}

	endpoint := g.routesBaseURL + "/directions/v2:computeRoutes"
	resp, err := g.doWithRetry(ctx, "compute_routes", func() (*http.Request, error) {
		req, err := g.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Goog-FieldMask", routesFieldMask)
		return req, nil
	})
	if err != nil {
		return ports.RouteSummary{}, fmt.Errorf("compute routes request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded computeRoutesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.RouteSummary{}, &domain.UpstreamError{Op: "google compute_routes", Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(decoded.Routes) == 0 {
		return ports.RouteSummary{}, &domain.UpstreamError{Op: "google compute_routes", Err: fmt.Errorf("no route returned")}
	}

	r := decoded.Routes[0]
	seconds, err := parseDuration(r.Duration)
	if err != nil {
		return ports.RouteSummary{}, &domain.UpstreamError{Op: "google compute_routes", Err: err}
	}

	var fuel int64
	if r.TravelAdvisory.FuelConsumptionMicroliters != "" {
		fuel, err = r.TravelAdvisory.FuelConsumptionMicroliters.Int64()
		if err != nil {
			return ports.RouteSummary{}, &domain.UpstreamError{Op: "google compute_routes", Err: fmt.Errorf("parse fuel: %w", err)}
		}
	}

	return ports.RouteSummary{
		DistanceMeters:  r.DistanceMeters,
		DurationSeconds: seconds,
		Polyline:        r.Polyline.EncodedPolyline,
		FuelMicroliters: fuel,
	}, nil
}

// parseDuration reads protobuf JSON durations such as "1234s" or "12.5s".
func parseDuration(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "s"), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return v, nil
}
