package services

import (
	"context"
	"math"
	"route-planner-service/internal/adapters/maps"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
	"testing"
)

// pairOnlyDistances hides the batched lookup of the wrapped provider.
type pairOnlyDistances struct {
	inner *maps.MockProvider
}

func (p pairOnlyDistances) GetDistance(ctx context.Context, origin, destination domain.Coordinates) (ports.DistanceResult, error) {
	return p.inner.GetDistance(ctx, origin, destination)
}

func stopAt(name string, lat, lng float64) domain.Stop {
	return domain.Stop{Name: name, Coords: domain.Coordinates{Lat: lat, Lng: lng}, Priority: domain.PriorityLow}
}

func TestChainClustersWithoutSemiDepots(t *testing.T) {
	depot := domain.Coordinates{Lat: 52, Lng: 21}
	clusters := [][]domain.Stop{{stopAt("A", 52.1, 21)}, {stopAt("B", 52.2, 21)}}
	provider := maps.NewMockProvider(nil)

	links, err := chainClusters(context.Background(), provider, clusters, depot, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}
	for i, l := range links {
		if l.Label != i || l.Start != depot || l.End != depot {
			t.Fatalf("link %d = %+v, want label %d from and to depot", i, l, i)
		}
	}
	if provider.TotalCalls() != 0 {
		t.Fatalf("expected no provider calls, got %d", provider.TotalCalls())
	}
}

func TestChainClustersGreedyPositions(t *testing.T) {
	// build test data: semi depots on a line east of the depot
	depot := domain.Coordinates{Lat: 0, Lng: 0}
	semiDepots := []domain.Coordinates{{Lat: 0, Lng: 1}, {Lat: 0, Lng: 2}}
	clusters := [][]domain.Stop{
		{stopAt("far", 0, 2.1)},
		{stopAt("near", 0, 0.9)},
		{stopAt("middle", 0, 1.5)},
	}

	for name, distances := range map[string]ports.DistanceProvider{
		"matrix": maps.NewMockProvider(nil),
		"pairs":  pairOnlyDistances{inner: maps.NewMockProvider(nil)},
	} {
		t.Run(name, func(t *testing.T) {
			// call the method under test
			links, err := chainClusters(context.Background(), distances, clusters, depot, semiDepots)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := []chainLink{
				{Label: 1, Start: depot, End: semiDepots[0]},
				{Label: 2, Start: semiDepots[0], End: semiDepots[1]},
				{Label: 0, Start: semiDepots[1], End: depot},
			}
			if len(links) != len(want) {
				t.Fatalf("expected %d links, got %d", len(want), len(links))
			}
			for i := range want {
				if links[i] != want[i] {
					t.Fatalf("link %d = %+v, want %+v", i, links[i], want[i])
				}
			}
		})
	}
}

func TestChainClustersEmptyClusterGoesLast(t *testing.T) {
	depot := domain.Coordinates{}
	semiDepots := []domain.Coordinates{{Lat: 0, Lng: 1}}
	clusters := [][]domain.Stop{nil, {stopAt("A", 0, 0.5)}}

	links, err := chainClusters(context.Background(), maps.NewMockProvider(nil), clusters, depot, semiDepots)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if links[0].Label != 1 || links[1].Label != 0 {
		t.Fatalf("expected non-empty cluster first, got %+v", links)
	}
}

func TestCentroidDistancesEmptyClusterIsInfinite(t *testing.T) {
	dist, err := centroidDistances(
		context.Background(),
		maps.NewMockProvider(nil),
		[][]domain.Stop{nil},
		[]domain.Coordinates{{Lat: 1}, {Lat: 2}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, d := range dist[0] {
		if !math.IsInf(d, 1) {
			t.Fatalf("distance %d = %v, want +Inf", i, d)
		}
	}
}

func TestChainClustersRejectsSemiDepotMismatch(t *testing.T) {
	clusters := [][]domain.Stop{{stopAt("A", 0, 1)}, {stopAt("B", 0, 2)}}
	semiDepots := []domain.Coordinates{{Lat: 1}, {Lat: 2}}

	if _, err := chainClusters(context.Background(), maps.NewMockProvider(nil), clusters, domain.Coordinates{}, semiDepots); err == nil {
		t.Fatalf("expected error for mismatched semi depot count")
	}
}
