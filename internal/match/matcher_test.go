package match

import (
	"math"
	"testing"

	"github.com/example/ride-signal/internal/models"
	"github.com/example/ride-signal/internal/presence"
)

type nopSender struct{}

func (nopSender) Send(v any) error { return nil }

// latOffsetDeg shifts a latitude by roughly meters of great-circle distance.
func latOffsetDeg(meters float64) float64 { return meters / 111195.0 }

func loc(lat, lon float64) *models.Coordinate {
	return &models.Coordinate{Latitude: lat, Longitude: lon}
}

func TestFindNearbySortedAndFiltered(t *testing.T) {
	reg := presence.NewRegistry()
	reg.Register("far", models.RoleDriver, loc(latOffsetDeg(200), 0), nopSender{})
	reg.Register("near", models.RoleDriver, loc(latOffsetDeg(50), 0), nopSender{})
	reg.Register("outside", models.RoleDriver, loc(latOffsetDeg(9000), 0), nopSender{})
	reg.Register("nolocation", models.RoleDriver, nil, nopSender{})
	reg.Register("nosender", models.RoleDriver, loc(0, 0), nil)
	reg.Register("rider", models.RoleRider, loc(0, 0), nopSender{})

	m := New(reg)
	got := m.FindNearby(models.Coordinate{Latitude: 0, Longitude: 0}, 5000)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Driver.ID != "near" || got[1].Driver.ID != "far" {
		t.Fatalf("wrong order: %s, %s", got[0].Driver.ID, got[1].Driver.ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i].DistanceMeters < got[i-1].DistanceMeters {
			t.Fatal("result not sorted by distance")
		}
	}
}

func TestFindNearbyEmptyIsNormal(t *testing.T) {
	m := New(presence.NewRegistry())
	if got := m.FindNearby(models.Coordinate{Latitude: 0, Longitude: 0}, 5000); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestFindNearbyMonotonicRadius(t *testing.T) {
	reg := presence.NewRegistry()
	reg.Register("a", models.RoleDriver, loc(latOffsetDeg(100), 0), nopSender{})
	reg.Register("b", models.RoleDriver, loc(latOffsetDeg(900), 0), nopSender{})
	reg.Register("c", models.RoleDriver, loc(latOffsetDeg(2500), 0), nopSender{})
	m := New(reg)
	pickup := models.Coordinate{Latitude: 0, Longitude: 0}

	small := m.FindNearby(pickup, 1000)
	large := m.FindNearby(pickup, 3000)
	if len(small) != 2 || len(large) != 3 {
		t.Fatalf("unexpected sizes: %d, %d", len(small), len(large))
	}
	// small result must be a prefix of the large one
	for i := range small {
		if small[i].Driver.ID != large[i].Driver.ID {
			t.Fatalf("radius inclusion violated at %d: %s vs %s", i, small[i].Driver.ID, large[i].Driver.ID)
		}
	}
}

func TestFindNearbyNaNExcluded(t *testing.T) {
	reg := presence.NewRegistry()
	reg.Register("nan", models.RoleDriver, loc(math.NaN(), 0), nopSender{})
	reg.Register("ok", models.RoleDriver, loc(0, 0), nopSender{})
	m := New(reg)
	got := m.FindNearby(models.Coordinate{Latitude: 0, Longitude: 0}, 5000)
	if len(got) != 1 || got[0].Driver.ID != "ok" {
		t.Fatalf("NaN distance not excluded: %+v", got)
	}
}

func TestFindNearbyOutOfRangeExcluded(t *testing.T) {
	reg := presence.NewRegistry()
	// near the pole an out-of-range latitude still yields a finite,
	// in-radius haversine distance; it must stay unmatchable anyway
	reg.Register("beyond", models.RoleDriver, loc(90.02, 0), nopSender{})
	reg.Register("badlon", models.RoleDriver, loc(89.99, 180.5), nopSender{})
	reg.Register("polar", models.RoleDriver, loc(89.999, 0), nopSender{})
	m := New(reg)
	got := m.FindNearby(models.Coordinate{Latitude: 89.99, Longitude: 0}, 5000)
	if len(got) != 1 || got[0].Driver.ID != "polar" {
		t.Fatalf("out-of-range coordinates matched: %+v", got)
	}
}

func TestFindNearbyCloseDriverMatches(t *testing.T) {
	reg := presence.NewRegistry()
	reg.Register("d", models.RoleDriver, loc(-37.813, 144.963), nopSender{})
	m := New(reg)
	got := m.FindNearby(models.Coordinate{Latitude: -37.8135, Longitude: 144.9635}, 5000)
	if len(got) != 1 || got[0].Driver.ID != "d" {
		t.Fatalf("nearby driver not matched: %+v", got)
	}
	if got[0].DistanceMeters > 100 {
		t.Fatalf("distance implausible: %f", got[0].DistanceMeters)
	}
}

func TestFindNearbyKeepsTies(t *testing.T) {
	reg := presence.NewRegistry()
	reg.Register("t1", models.RoleDriver, loc(latOffsetDeg(100), 0), nopSender{})
	reg.Register("t2", models.RoleDriver, loc(latOffsetDeg(100), 0), nopSender{})
	m := New(reg)
	got := m.FindNearby(models.Coordinate{Latitude: 0, Longitude: 0}, 5000)
	if len(got) != 2 {
		t.Fatalf("tied drivers dropped: %d", len(got))
	}
}
