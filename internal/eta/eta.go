package eta

import (
	"github.com/example/ride-signal/internal/geo"
	"github.com/example/ride-signal/internal/models"
)

// Naive ETA: distance / speed_mps. Good enough for the ride offer preview;
// a routing engine is deliberately out of scope here.
func EstimateSeconds(from, to models.Coordinate, speedMps float64) float64 {
	if speedMps <= 0 {
		speedMps = 8.0 // ~28.8 km/h default city speed
	}
	return geo.Distance(from, to) / speedMps
}

// EstimateMinutes rounds EstimateSeconds up to whole minutes with a floor of
// one minute, the granularity the ride offer payload carries.
func EstimateMinutes(from, to models.Coordinate, speedMps float64) int {
	s := EstimateSeconds(from, to, speedMps)
	if s != s { // NaN from degenerate coordinates
		return 0
	}
	m := int(s) / 60
	if int(s)%60 != 0 {
		m++
	}
	if m < 1 {
		m = 1
	}
	return m
}
