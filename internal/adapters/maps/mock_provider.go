package maps

import (
	"context"
	"fmt"
	"math"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
	"sort"
	"sync"
)

// MockProvider is a deterministic in-process MappingProvider for tests and
// offline planning. Distances are great-circle, durations assume a constant
// speed and fuel a constant consumption. Avoiding tolls lengthens every route
// by TollAvoidanceFactor.
type MockProvider struct {
	mu sync.Mutex

	Locations map[string]domain.Coordinates
	// Names overrides reverse geocoding by coordinate Key().
	Names map[string]string

	SpeedKmh            float64
	FuelLitersPerKm     float64
	TollAvoidanceFactor float64

	// Err, when set, fails every call.
	Err error

	calls map[string]int
}

func NewMockProvider(locations map[string]domain.Coordinates) *MockProvider {
	if locations == nil {
		locations = map[string]domain.Coordinates{}
	}
	return &MockProvider{
		Locations:           locations,
		Names:               map[string]string{},
		SpeedKmh:            50,
		FuelLitersPerKm:     0.07,
		TollAvoidanceFactor: 1.1,
		calls:               map[string]int{},
	}
}

// Calls returns how many times op was invoked.
func (m *MockProvider) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (m *MockProvider) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func (m *MockProvider) record(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	if m.Err != nil {
		return &domain.UpstreamError{Op: "mock " + op, Err: m.Err}
	}
	return nil
}

func (m *MockProvider) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	if err := m.record("geocode"); err != nil {
		return domain.Coordinates{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Locations[normalize(address)]
	if !ok {
		return domain.Coordinates{}, domain.Validationf("address %q could not be geocoded", address)
	}
	return c, nil
}

// ReverseGeocode prefers Names, then the alphabetically first known address at
// the point, then the "lat,lng" form.
func (m *MockProvider) ReverseGeocode(ctx context.Context, point domain.Coordinates) (string, error) {
	if err := m.record("reverse_geocode"); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if name, ok := m.Names[point.Key()]; ok {
		return name, nil
	}

	var matches []string
	for address, c := range m.Locations {
		if c.Key() == point.Key() {
			matches = append(matches, address)
		}
	}
	if len(matches) == 0 {
		return point.String(), nil
	}
	sort.Strings(matches)
	return matches[0], nil
}

// OptimizeOrder visits waypoints greedily by nearest great-circle distance
// from start. Ties keep the lower index.
func (m *MockProvider) OptimizeOrder(
	ctx context.Context,
	start domain.Coordinates,
	waypoints []domain.Coordinates,
	end domain.Coordinates,
	avoidTolls bool,
) ([]int, error) {
	if err := m.record("optimize"); err != nil {
		return nil, err
	}

	remaining := make(map[int]struct{}, len(waypoints))
	for i := range waypoints {
		remaining[i] = struct{}{}
	}

	order := make([]int, 0, len(waypoints))
	current := start
	for len(remaining) > 0 {
		best := -1
		bestDist := math.Inf(1)
		for i := range waypoints {
			if _, ok := remaining[i]; !ok {
				continue
			}
			d := current.DistanceMeters(waypoints[i])
			if d < bestDist || (d == bestDist && i < best) {
				best = i
				bestDist = d
			}
		}

		order = append(order, best)
		delete(remaining, best)
		current = waypoints[best]
	}

	return order, nil
}

func (m *MockProvider) ComputeRoute(ctx context.Context, points []domain.Coordinates, avoidTolls bool) (ports.RouteSummary, error) {
	if err := m.record("compute_route"); err != nil {
		return ports.RouteSummary{}, err
	}
	if len(points) < 2 {
		return ports.RouteSummary{}, fmt.Errorf("compute route: need at least 2 points, got %d", len(points))
	}

	meters := 0.0
	for i := 0; i+1 < len(points); i++ {
		meters += points[i].DistanceMeters(points[i+1])
	}
	if avoidTolls {
		meters *= m.TollAvoidanceFactor
	}

	km := meters / 1000
	return ports.RouteSummary{
		DistanceMeters:  int(math.Round(meters)),
		DurationSeconds: km / m.SpeedKmh * 3600,
		Polyline:        fmt.Sprintf("mock:%s>%s:%d", points[0].Key(), points[len(points)-1].Key(), len(points)),
		FuelMicroliters: int64(math.Round(km * m.FuelLitersPerKm * 1e6)),
	}, nil
}

func (m *MockProvider) GetDistance(ctx context.Context, origin, destination domain.Coordinates) (ports.DistanceResult, error) {
	if err := m.record("distance"); err != nil {
		return ports.DistanceResult{}, err
	}
	return m.distance(origin, destination), nil
}

func (m *MockProvider) GetDistances(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) (map[string]ports.DistanceResult, error) {
	if err := m.record("distance_matrix"); err != nil {
		return nil, err
	}

	out := make(map[string]ports.DistanceResult, len(destinations))
	for _, d := range destinations {
		out[d.Key()] = m.distance(origin, d)
	}
	return out, nil
}

func (m *MockProvider) distance(origin, destination domain.Coordinates) ports.DistanceResult {
	meters := origin.DistanceMeters(destination)
	return ports.DistanceResult{
		DistanceMeters:  int(math.Round(meters)),
		DurationSeconds: int(math.Round(meters / 1000 / m.SpeedKmh * 3600)),
	}
}
