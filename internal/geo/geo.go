package geo

import (
	"math"

	"github.com/example/ride-signal/internal/models"
)

const earthRadiusMeters = 6371000.0

// Distance returns the great-circle distance between a and b in meters using
// the haversine formula on a spherical earth. NaN inputs propagate NaN;
// callers ranking distances must treat NaN as unmatchable.
func Distance(a, b models.Coordinate) float64 {
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Latitude*math.Pi/180)*math.Cos(b.Latitude*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

// Valid reports whether c is a finite coordinate inside the WGS84 range.
// Out-of-range values arrive only from untrusted input and are treated as
// unmatchable rather than rejected at the door.
func Valid(c models.Coordinate) bool {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) {
		return false
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}
