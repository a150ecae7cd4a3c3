package services

import (
	"context"
	"fmt"
	"math"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
)

// chainLink is the position of one cluster in the day sequence.
type chainLink struct {
	Label int
	Start domain.Coordinates
	End   domain.Coordinates
}

// chainClusters decides the day order of clusters and the endpoints each route
// runs between.
//
// Without semi-depots every cluster starts and ends at the depot, in label order.
// With days-1 semi-depots, position p runs from semi-depot p-1 to semi-depot p
// (the depot bookends the chain). Positions are filled greedily in order:
// position 0 takes the cluster nearest semi-depot 0, a middle position the
// cluster minimizing the summed distance to both of its semi-depots, and the last
// position the cluster nearest the last semi-depot. Distances are measured from
// each cluster centroid; a cluster without stops is infinitely far away.
func chainClusters(
	ctx context.Context,
	distances ports.DistanceProvider,
	clusters [][]domain.Stop,
	depot domain.Coordinates,
	semiDepots []domain.Coordinates,
) ([]chainLink, error) {
	if len(semiDepots) == 0 {
		links := make([]chainLink, len(clusters))
		for label := range clusters {
			links[label] = chainLink{Label: label, Start: depot, End: depot}
		}
		return links, nil
	}

	if len(semiDepots) != len(clusters)-1 {
		return nil, fmt.Errorf("chain clusters: %d semi depots for %d clusters", len(semiDepots), len(clusters))
	}

	dist, err := centroidDistances(ctx, distances, clusters, semiDepots)
	if err != nil {
		return nil, fmt.Errorf("chain clusters: %w", err)
	}

	days := len(clusters)
	remaining := make([]int, days)
	for i := range remaining {
		remaining[i] = i
	}

	score := func(label, pos int) float64 {
		switch {
		case pos == 0:
			return dist[label][0]
		case pos == days-1:
			return dist[label][days-2]
		default:
			return dist[label][pos-1] + dist[label][pos]
		}
	}

	links := make([]chainLink, 0, days)
	for pos := 0; pos < days; pos++ {
		bestAt := 0
		for i := 1; i < len(remaining); i++ {
			if score(remaining[i], pos) < score(remaining[bestAt], pos) {
				bestAt = i
			}
		}
		label := remaining[bestAt]
		remaining = append(remaining[:bestAt], remaining[bestAt+1:]...)

		start, end := depot, depot
		if pos > 0 {
			start = semiDepots[pos-1]
		}
		if pos < days-1 {
			end = semiDepots[pos]
		}
		links = append(links, chainLink{Label: label, Start: start, End: end})
	}

	return links, nil
}

// centroidDistances returns dist[label][semiDepot] in meters.
// Batched lookups are used when the provider supports them.
func centroidDistances(
	ctx context.Context,
	distances ports.DistanceProvider,
	clusters [][]domain.Stop,
	semiDepots []domain.Coordinates,
) ([][]float64, error) {
	out := make([][]float64, len(clusters))
	for label, stops := range clusters {
		row := make([]float64, len(semiDepots))
		out[label] = row

		centroid, ok := domain.Centroid(stopCoords(stops))
		if !ok {
			for i := range row {
				row[i] = math.Inf(1)
			}
			continue
		}

		if matrix, ok := distances.(ports.DistanceMatrixProvider); ok {
			results, err := matrix.GetDistances(ctx, centroid, semiDepots)
			if err != nil {
				return nil, fmt.Errorf("get distances matrix from cluster %d: %w", label, err)
			}
			for i, sd := range semiDepots {
				r, ok := results[sd.Key()]
				if !ok {
					return nil, fmt.Errorf("missing distance result from cluster %d to semi depot %d", label, i)
				}
				row[i] = float64(r.DistanceMeters)
			}
			continue
		}

		for i, sd := range semiDepots {
			r, err := distances.GetDistance(ctx, centroid, sd)
			if err != nil {
				return nil, fmt.Errorf("get distance from cluster %d to semi depot %d: %w", label, i, err)
			}
			row[i] = float64(r.DistanceMeters)
		}
	}

	return out, nil
}
