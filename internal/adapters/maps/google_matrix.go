package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
	"strings"
)

type matrixResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Rows         []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value int `json:"value"`
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// fetchMatrixRow retrieves distance and duration from one origin to many
// destinations using the Distance Matrix API, keyed by destination Key().
func (g *GoogleProvider) fetchMatrixRow(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) (map[string]ports.DistanceResult, error) {
	if len(destinations) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	dests := make([]string, len(destinations))
	for i, d := range destinations {
		dests[i] = d.String()
	}

	params := map[string]string{
		"origins":      origin.String(),
		"destinations": strings.Join(dests, "|"),
		"mode":         "driving",
	}

	resp, err := g.doWithRetry(ctx, "distance_matrix", func() (*http.Request, error) {
		return g.newQueryRequest(ctx, "/maps/api/distancematrix/json", params)
	})
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, &domain.UpstreamError{Op: "google distance_matrix", Err: fmt.Errorf("decode matrix response: %w", err)}
	}

	if mr.Status != "OK" {
		return nil, &domain.UpstreamError{
			Op:  "google distance_matrix",
			Err: fmt.Errorf("status %s: %s", mr.Status, mr.ErrorMessage),
		}
	}

	if len(mr.Rows) != 1 || len(mr.Rows[0].Elements) != len(destinations) {
		return nil, &domain.UpstreamError{
			Op:  "google distance_matrix",
			Err: fmt.Errorf("expected 1 row of %d elements, got %d rows", len(destinations), len(mr.Rows)),
		}
	}

	out := make(map[string]ports.DistanceResult, len(destinations))
	for i, el := range mr.Rows[0].Elements {
		if el.Status != "OK" {
			return nil, &domain.UpstreamError{
				Op:  "google distance_matrix",
				Err: fmt.Errorf("element %s returned status %s", destinations[i], el.Status),
			}
		}
		out[destinations[i].Key()] = ports.DistanceResult{
			DistanceMeters:  el.Distance.Value,
			DurationSeconds: el.Duration.Value,
		}
	}

	return out, nil
}
