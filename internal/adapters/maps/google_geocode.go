package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"route-planner-service/internal/domain"
	"slices"
	"strings"
)

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		AddressComponents []addressComponent `json:"address_components"`
	} `json:"results"`
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// geocode resolves one address with the Geocoding API (/maps/api/geocode/json).
func (g *GoogleProvider) geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	decoded, err := g.fetchGeocode(ctx, "geocode", map[string]string{"address": address})
	if err != nil {
		return domain.Coordinates{}, err
	}

	if decoded.Status == "ZERO_RESULTS" || len(decoded.Results) == 0 {
		return domain.Coordinates{}, domain.Validationf("address %q could not be geocoded", address)
	}

	loc := decoded.Results[0].Geometry.Location
	return domain.Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// reverseGeocode builds a display name for a point. Points without a result
// fall back to their "lat,lng" form.
func (g *GoogleProvider) reverseGeocode(ctx context.Context, point domain.Coordinates) (string, error) {
	decoded, err := g.fetchGeocode(ctx, "reverse_geocode", map[string]string{"latlng": point.String()})
	if err != nil {
		return "", err
	}

	if decoded.Status == "ZERO_RESULTS" || len(decoded.Results) == 0 {
		return point.String(), nil
	}

	first := decoded.Results[0]
	if name := formatAddress(first.AddressComponents); name != "" {
		return name, nil
	}
	if first.FormattedAddress != "" {
		return first.FormattedAddress, nil
	}
	return point.String(), nil
}

func (g *GoogleProvider) fetchGeocode(ctx context.Context, op string, params map[string]string) (*geocodeResponse, error) {
	resp, err := g.doWithRetry(ctx, op, func() (*http.Request, error) {
		return g.newQueryRequest(ctx, "/maps/api/geocode/json", params)
	})
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &domain.UpstreamError{Op: "google " + op, Err: fmt.Errorf("decode geocode response: %w", err)}
	}

	switch decoded.Status {
	case "OK", "ZERO_RESULTS":
		return &decoded, nil
	default:
		return nil, &domain.UpstreamError{
			Op:  "google " + op,
			Err: fmt.Errorf("status %s: %s", decoded.Status, decoded.ErrorMessage),
		}
	}
}

// formatAddress assembles "<street> <number>, <postal code> <city>, <country>",
// dropping parts the result does not carry.
func formatAddress(components []addressComponent) string {
	get := func(types ...string) string {
		for _, t := range types {
			for _, c := range components {
				if slices.Contains(c.Types, t) {
					return c.LongName
				}
			}
		}
		return ""
	}

	street := strings.TrimSpace(get("route") + " " + get("street_number"))
	city := strings.TrimSpace(get("postal_code") + " " + get("locality", "postal_town"))
	country := get("country")

	parts := make([]string, 0, 3)
	for _, p := range []string{street, city, country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
