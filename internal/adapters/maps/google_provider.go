package maps

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/metrics"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/ports"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// GoogleProvider implements ports.MappingProvider on the Google Maps Platform
// (Geocoding, Directions, Distance Matrix and Routes APIs).
//
// It coordinates:
//   - Address normalization
//   - Persistent geocode, distance and reverse-geocode caching
//   - A shared token-bucket rate limit
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type GoogleProvider struct {
	session       *http.Client
	apiKey        string
	mapsBaseURL   string
	routesBaseURL string
	limiter       *rate.Limiter
	maxAttempts   int
	backoff       time.Duration

	geocodeCache  ports.GeocodeCache
	distanceCache ports.DistanceCache
	addressCache  ports.AddressCache
}

// Caches groups the optional caches in front of the mapping service.
// Nil fields disable the corresponding cache.
type Caches struct {
	Geocode  ports.GeocodeCache
	Distance ports.DistanceCache
	Address  ports.AddressCache
}

func NewGoogleProvider(apiKey string, requestsPerSecond float64, caches Caches) (*GoogleProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("google maps api key is empty")
	}
	if requestsPerSecond <= 0 {
		return nil, fmt.Errorf("google maps rate limit must be positive, got %v", requestsPerSecond)
	}

	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}

	provider := &GoogleProvider{
		session:       &http.Client{Timeout: 10 * time.Second},
		apiKey:        apiKey,
		mapsBaseURL:   "https://maps.googleapis.com",
		routesBaseURL: "https://routes.googleapis.com",
		limiter:       rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		maxAttempts:   4,
		backoff:       200 * time.Millisecond,
		geocodeCache:  caches.Geocode,
		distanceCache: caches.Distance,
		addressCache:  caches.Address,
	}

	return provider, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Geocode resolves an address, consulting the geocode cache first.
func (g *GoogleProvider) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "google.Geocode")(&err)

	norm := normalize(address)
	if norm == "" {
		return domain.Coordinates{}, domain.Validationf("address must be non-empty")
	}

	if g.geocodeCache != nil {
		hits, err := g.geocodeCache.GetMany(ctx, []string{norm})
		if err != nil {
			return domain.Coordinates{}, fmt.Errorf("google get geocode cache: %w", err)
		}
		if c, ok := hits[norm]; ok {
			metrics.MapsCacheLookups.WithLabelValues("geocode", "hit").Inc()
			return c, nil
		}
		metrics.MapsCacheLookups.WithLabelValues("geocode", "miss").Inc()
	}

	c, err := g.geocode(ctx, norm)
	if err != nil {
		return domain.Coordinates{}, err
	}

	if g.geocodeCache != nil {
		if err := g.geocodeCache.PutMany(ctx, map[string]domain.Coordinates{norm: c}); err != nil {
			log.Printf("geocode cache write failed: %v", err)
		}
	}

	return c, nil
}

// ReverseGeocode returns the display name of a point, consulting the address cache first.
func (g *GoogleProvider) ReverseGeocode(ctx context.Context, point domain.Coordinates) (_ string, err error) {
	defer obs.Time(ctx, "google.ReverseGeocode")(&err)

	key := point.Key()
	if g.addressCache != nil {
		name, ok, err := g.addressCache.Get(ctx, key)
		if err != nil {
			log.Printf("address cache read failed: %v", err)
		} else if ok {
			metrics.MapsCacheLookups.WithLabelValues("address", "hit").Inc()
			return name, nil
		}
		metrics.MapsCacheLookups.WithLabelValues("address", "miss").Inc()
	}

	name, err := g.reverseGeocode(ctx, point)
	if err != nil {
		return "", err
	}

	if g.addressCache != nil {
		if err := g.addressCache.Put(ctx, key, name); err != nil {
			log.Printf("address cache write failed: %v", err)
		}
	}

	return name, nil
}

// Delegate to batched path to reuse caching and matrix logic.
func (g *GoogleProvider) GetDistance(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (ports.DistanceResult, error) {
	results, err := g.GetDistances(ctx, origin, []domain.Coordinates{destination})
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("get distances %s -> %s: %w", origin, destination, err)
	}

	result, ok := results[destination.Key()]
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("no distance result for %s -> %s", origin, destination)
	}

	return result, nil
}

// Compute distances from a single origin to many destinations, keyed by
// destination Key(). A destination equal to the origin is zero.
func (g *GoogleProvider) GetDistances(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "google.GetDistances")(&err)

	out := make(map[string]ports.DistanceResult, len(destinations))
	originKey := origin.Key()

	seen := make(map[string]struct{}, len(destinations))
	destKeys := make([]string, 0, len(destinations))
	byKey := make(map[string]domain.Coordinates, len(destinations))
	for _, d := range destinations {
		k := d.Key()
		if k == originKey {
			out[k] = ports.DistanceResult{}
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		destKeys = append(destKeys, k)
		byKey[k] = d
	}

	if len(destKeys) == 0 {
		return out, nil
	}

	// Check persistent distance cache before issuing external API calls.
	if g.distanceCache != nil {
		hits, err := g.distanceCache.GetMany(ctx, originKey, destKeys)
		if err != nil {
			return nil, fmt.Errorf("google get distance cache: %w", err)
		}
		for k, v := range hits {
			out[k] = v
		}
	}

	misses := make([]domain.Coordinates, 0, len(destKeys))
	for _, k := range destKeys {
		if _, ok := out[k]; !ok {
			misses = append(misses, byKey[k])
		}
	}
	if len(misses) == 0 {
		metrics.MapsCacheLookups.WithLabelValues("distance", "hit").Inc()
		return out, nil
	}
	metrics.MapsCacheLookups.WithLabelValues("distance", "miss").Inc()

	// Fetch a single origin->many matrix row for all cache misses.
	fetched, err := g.fetchMatrixRow(ctx, origin, misses)
	if err != nil {
		return nil, fmt.Errorf("fetching matrix row: %w", err)
	}

	if g.distanceCache != nil {
		if err := g.distanceCache.PutMany(ctx, originKey, fetched); err != nil {
			log.Printf("distance cache write failed: %v", err)
		}
	}

	for k, v := range fetched {
		out[k] = v
	}

	return out, nil
}
