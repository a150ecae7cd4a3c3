package domain

import (
	"fmt"
	"strconv"

	"github.com/golang/geo/s2"
)

const EarthRadiusMeters = 6371008.8

// Geographic coordinates (latitude, longitude) in degrees.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Key returns a stable identity for the point, used for cache keys and
// coordinate equality at six decimal places (~0.1 m).
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// Return coordinates as "lat,lng" for external API query strings.
func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// Centroid returns the arithmetic mean of the points.
// The second result is false when points is empty.
func Centroid(points []Coordinates) (Coordinates, bool) {
	if len(points) == 0 {
		return Coordinates{}, false
	}

	var lat, lng float64
	for _, p := range points {
		lat += p.Lat
		lng += p.Lng
	}

	n := float64(len(points))
	return Coordinates{Lat: lat / n, Lng: lng / n}, true
}

// DistanceMeters returns the great-circle distance to o.
func (c Coordinates) DistanceMeters(o Coordinates) float64 {
	p1 := s2.LatLngFromDegrees(c.Lat, c.Lng)
	p2 := s2.LatLngFromDegrees(o.Lat, o.Lng)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}
