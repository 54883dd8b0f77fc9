package match

import (
	"math"
	"sort"

	"github.com/example/ride-signal/internal/geo"
	"github.com/example/ride-signal/internal/models"
	"github.com/example/ride-signal/internal/presence"
)

// Candidate is a driver eligible for a ride request, paired with its
// great-circle distance from the pickup point.
type Candidate struct {
	Driver         presence.Participant
	DistanceMeters float64
}

// Matcher ranks online drivers by distance from a pickup coordinate.
type Matcher struct {
	Registry *presence.Registry
}

func New(reg *presence.Registry) *Matcher { return &Matcher{Registry: reg} }

// FindNearby returns drivers within radiusMeters of pickup, nearest first.
// Drivers without a location, without a live outbound handle, or with a
// location outside the WGS84 range are skipped, as are NaN distances
// (degenerate coordinates rank as infinitely far). An empty result is a
// normal outcome, not an error. Ties keep snapshot order.
func (m *Matcher) FindNearby(pickup models.Coordinate, radiusMeters float64) []Candidate {
	drivers := m.Registry.ListByRole(models.RoleDriver)
	out := make([]Candidate, 0, len(drivers))
	for _, d := range drivers {
		if d.Location == nil || d.Outbound == nil || !geo.Valid(*d.Location) {
			continue
		}
		dist := geo.Distance(pickup, *d.Location)
		if math.IsNaN(dist) || dist > radiusMeters {
			continue
		}
		out = append(out, Candidate{Driver: d, DistanceMeters: dist})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceMeters < out[j].DistanceMeters })
	return out
}
