// Package geo provides the coordinate value type and geodesic distance
// computation used by the nearest-unit lookup.
package geo

import (
	"github.com/tidwall/geodesic"
)

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Valid reports whether the coordinate is within WGS84 bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Distance returns the geodesic distance between origin and destination in
// kilometers, solved on the WGS84 ellipsoid. Spherical approximations drift
// by hundreds of meters over continental distances, enough to reorder
// close-together results.
func Distance(origin, destination Coordinate) float64 {
	var meters float64
	geodesic.WGS84.Inverse(origin.Lat, origin.Lon, destination.Lat, destination.Lon, &meters, nil, nil)
	return meters / 1000
}
