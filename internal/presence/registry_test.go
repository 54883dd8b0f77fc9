package presence

import (
	"testing"
	"time"

	"github.com/example/ride-signal/internal/models"
)

type nopSender struct{}

func (nopSender) Send(v any) error { return nil }

func TestRegisterGetRemove(t *testing.T) {
	r := NewRegistry()
	loc := &models.Coordinate{Latitude: 1, Longitude: 2}
	p := r.Register("d1", models.RoleDriver, loc, nopSender{})
	if p.ID != "d1" || p.Role != models.RoleDriver {
		t.Fatalf("unexpected participant: %+v", p)
	}

	got, ok := r.Get("d1")
	if !ok || got.Location == nil || got.Location.Latitude != 1 {
		t.Fatalf("lookup failed: %+v ok=%v", got, ok)
	}

	if _, ok := r.Remove("d1"); !ok {
		t.Fatal("expected removal")
	}
	if _, ok := r.Get("d1"); ok {
		t.Fatal("expected absence after remove")
	}
	for _, d := range r.ListByRole(models.RoleDriver) {
		if d.ID == "d1" {
			t.Fatal("removed driver still listed")
		}
	}
	if _, ok := r.Remove("d1"); ok {
		t.Fatal("second remove should be a no-op")
	}
}

func TestRegisterOverwrites(t *testing.T) {
	r := NewRegistry()
	r.Register("u1", models.RoleDriver, nil, nopSender{})
	r.Register("u1", models.RoleRider, nil, nopSender{})
	p, _ := r.Get("u1")
	if p.Role != models.RoleRider {
		t.Fatalf("expected role overwrite, got %s", p.Role)
	}
	if r.Len() != 1 {
		t.Fatalf("expected single entry, got %d", r.Len())
	}
}

func TestUpdateLocationUnknownID(t *testing.T) {
	r := NewRegistry()
	if r.UpdateLocation("ghost", models.Coordinate{Latitude: 1, Longitude: 1}) {
		t.Fatal("update for unknown id should return false")
	}
	if r.Len() != 0 {
		t.Fatal("update must not insert an entry")
	}
}

func TestUpdateLocationRefreshesLastSeen(t *testing.T) {
	r := NewRegistry()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }
	r.Register("d1", models.RoleDriver, nil, nopSender{})

	r.now = func() time.Time { return base.Add(time.Minute) }
	if !r.UpdateLocation("d1", models.Coordinate{Latitude: 3, Longitude: 4}) {
		t.Fatal("expected update to succeed")
	}
	p, _ := r.Get("d1")
	if !p.LastSeen.Equal(base.Add(time.Minute)) {
		t.Fatalf("lastSeen not refreshed: %v", p.LastSeen)
	}
	if p.Location == nil || p.Location.Latitude != 3 {
		t.Fatalf("location not updated: %+v", p.Location)
	}
}

func TestListByRoleFilters(t *testing.T) {
	r := NewRegistry()
	r.Register("d1", models.RoleDriver, nil, nopSender{})
	r.Register("d2", models.RoleDriver, nil, nopSender{})
	r.Register("r1", models.RoleRider, nil, nopSender{})

	if n := len(r.ListByRole(models.RoleDriver)); n != 2 {
		t.Fatalf("expected 2 drivers, got %d", n)
	}
	if n := len(r.ListByRole(models.RoleRider)); n != 1 {
		t.Fatalf("expected 1 rider, got %d", n)
	}
	drivers, riders := r.Counts()
	if drivers != 2 || riders != 1 {
		t.Fatalf("counts mismatch: %d/%d", drivers, riders)
	}
}

func TestSweep(t *testing.T) {
	r := NewRegistry()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	r.now = func() time.Time { return base.Add(-6 * time.Minute) }
	r.Register("stale", models.RoleDriver, nil, nopSender{})
	r.now = func() time.Time { return base.Add(-time.Minute) }
	r.Register("fresh", models.RoleRider, nil, nopSender{})

	r.now = func() time.Time { return base }
	if n := r.Sweep(5 * time.Minute); n != 1 {
		t.Fatalf("expected 1 swept, got %d", n)
	}
	if _, ok := r.Get("stale"); ok {
		t.Fatal("stale entry survived sweep")
	}
	if _, ok := r.Get("fresh"); !ok {
		t.Fatal("fresh entry removed by sweep")
	}
}

func TestReset(t *testing.T) {
	r := NewRegistry()
	r.Register("a", models.RoleDriver, nil, nopSender{})
	r.Register("b", models.RoleRider, nil, nopSender{})
	if n := r.Reset(); n != 2 {
		t.Fatalf("expected 2 cleared, got %d", n)
	}
	if r.Len() != 0 {
		t.Fatal("registry not empty after reset")
	}
}
