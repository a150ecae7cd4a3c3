package services

import (
	"math"
	"math/rand"
	"route-planner-service/internal/domain"
)

// DefaultClusterSeed makes clustering reproducible across runs.
const DefaultClusterSeed int64 = 101

const maxKMeansIterations = 300

// KMeans partitions points into k groups and returns a label (0..k-1) per point.
//
// Centroids are seeded with k-means++ from a rand source built from seed, then
// refined with Lloyd iterations until no label changes. A centroid that loses all
// of its points is moved onto the point farthest from its own centroid, and
// empty clusters in the same pass get distinct targets. A cluster can still end
// up empty when fewer than k distinct points exist.
func KMeans(points []domain.Coordinates, k int, seed int64) ([]int, error) {
	if k < 1 {
		return nil, domain.Validationf("cluster count must be at least 1, got %d", k)
	}
	if k > len(points) {
		return nil, domain.Validationf("cluster count %d exceeds point count %d", k, len(points))
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := seedCentroids(points, k, rng)

	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxKMeansIterations; iter++ {
		changed := false
		for i, p := range points {
			best := nearestCentroid(p, centroids)
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([]domain.Coordinates, k)
		counts := make([]int, k)
		for i, p := range points {
			sums[labels[i]].Lat += p.Lat
			sums[labels[i]].Lng += p.Lng
			counts[labels[i]]++
		}

		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			n := float64(counts[c])
			centroids[c] = domain.Coordinates{Lat: sums[c].Lat / n, Lng: sums[c].Lng / n}
		}

		var targets []int
		for c := 0; c < k; c++ {
			if counts[c] != 0 {
				continue
			}
			if idx, ok := farthestPoint(points, labels, centroids, targets); ok {
				centroids[c] = points[idx]
				targets = append(targets, idx)
			}
		}
	}

	return labels, nil
}

func seedCentroids(points []domain.Coordinates, k int, rng *rand.Rand) []domain.Coordinates {
	centroids := make([]domain.Coordinates, 0, k)
	centroids = append(centroids, points[rng.Intn(len(points))])

	weights := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			d := squaredDistance(p, centroids[nearestCentroid(p, centroids)])
			weights[i] = d
			total += d
		}

		if total == 0 {
			centroids = append(centroids, points[rng.Intn(len(points))])
			continue
		}

		target := rng.Float64() * total
		chosen := len(points) - 1
		acc := 0.0
		for i, w := range weights {
			acc += w
			if acc >= target && w > 0 {
				chosen = i
				break
			}
		}
		centroids = append(centroids, points[chosen])
	}

	return centroids
}

// nearestCentroid returns the index of the closest centroid; ties keep the lowest index.
func nearestCentroid(p domain.Coordinates, centroids []domain.Coordinates) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(p, centroid); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

// farthestPoint returns the index of the point farthest from its own centroid,
// skipping points that sit on an earlier relocation target. ok is false when
// every point is skipped.
func farthestPoint(
	points []domain.Coordinates,
	labels []int,
	centroids []domain.Coordinates,
	targets []int,
) (idx int, ok bool) {
	idx = -1
	bestDist := -1.0
	for i, p := range points {
		if onTarget(p, points, targets) {
			continue
		}
		if d := squaredDistance(p, centroids[labels[i]]); d > bestDist {
			idx = i
			bestDist = d
		}
	}
	return idx, idx >= 0
}

func onTarget(p domain.Coordinates, points []domain.Coordinates, targets []int) bool {
	for _, t := range targets {
		if points[t] == p {
			return true
		}
	}
	return false
}

func squaredDistance(a, b domain.Coordinates) float64 {
	dLat := a.Lat - b.Lat
	dLng := a.Lng - b.Lng
	return dLat*dLat + dLng*dLng
}
