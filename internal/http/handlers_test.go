package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/ride-signal/internal/match"
	"github.com/example/ride-signal/internal/models"
	"github.com/example/ride-signal/internal/presence"
	"github.com/example/ride-signal/internal/relay"
)

type nopSender struct{}

func (nopSender) Send(v any) error { return nil }

func newTestServer() *Server {
	reg := presence.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rl := relay.New(reg, match.New(reg), 5000, logger)
	return NewServer(reg, rl, 5*time.Minute, 32, logger)
}

func doJSON(t *testing.T, s *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("bad json response: %v: %s", err, rec.Body.String())
		}
	}
	return rec.Code, out
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer()
	for _, path := range []string{"/health", "/healthz"} {
		code, body := doJSON(t, s, http.MethodGet, path, "")
		if code != http.StatusOK || body["status"] != "OK" {
			t.Fatalf("%s: code=%d body=%v", path, code, body)
		}
	}
}

func TestStatsReflectsRegistry(t *testing.T) {
	s := newTestServer()
	loc := &models.Coordinate{Latitude: 1, Longitude: 2}
	s.Registry.Register("d1", models.RoleDriver, loc, nopSender{})
	s.Registry.Register("r1", models.RoleRider, nil, nopSender{})

	code, body := doJSON(t, s, http.MethodGet, "/stats", "")
	if code != http.StatusOK {
		t.Fatalf("unexpected code %d", code)
	}
	if body["total"].(float64) != 2 || body["drivers"].(float64) != 1 || body["riders"].(float64) != 1 {
		t.Fatalf("wrong counts: %v", body)
	}
	list := body["driverList"].([]any)
	if len(list) != 1 || list[0].(map[string]any)["id"] != "d1" {
		t.Fatalf("wrong driver list: %v", list)
	}
}

func TestCleanupSweepsStaleEntries(t *testing.T) {
	s := newTestServer()
	s.Registry.Register("fresh", models.RoleDriver, nil, nopSender{})

	code, body := doJSON(t, s, http.MethodPost, "/cleanup", "")
	if code != http.StatusOK {
		t.Fatalf("unexpected code %d", code)
	}
	if body["cleanedCount"].(float64) != 0 || body["afterCount"].(float64) != 1 {
		t.Fatalf("fresh entry swept: %v", body)
	}
}

func TestResetClearsRegistry(t *testing.T) {
	s := newTestServer()
	s.Registry.Register("a", models.RoleDriver, nil, nopSender{})
	s.Registry.Register("b", models.RoleRider, nil, nopSender{})

	code, body := doJSON(t, s, http.MethodPost, "/reset", "")
	if code != http.StatusOK || body["beforeCount"].(float64) != 2 {
		t.Fatalf("code=%d body=%v", code, body)
	}
	if s.Registry.Len() != 0 {
		t.Fatal("registry not cleared")
	}
}

func TestNearbyDriversRequiresLocation(t *testing.T) {
	s := newTestServer()
	code, _ := doJSON(t, s, http.MethodGet, "/api/nearby-drivers", "")
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestNearbyDriversGeneratesDemoSet(t *testing.T) {
	s := newTestServer()
	code, body := doJSON(t, s, http.MethodGet, "/api/nearby-drivers?userLat=-37.81&userLng=144.96&radius=1000", "")
	if code != http.StatusOK || body["success"] != true {
		t.Fatalf("code=%d body=%v", code, body)
	}
	n := int(body["count"].(float64))
	if n < 2 || n > 5 {
		t.Fatalf("expected 2-5 drivers, got %d", n)
	}
	drivers := body["drivers"].([]any)
	if len(drivers) != n {
		t.Fatalf("count mismatch: %d vs %d", len(drivers), n)
	}
}

func TestDriverStatusRequiresID(t *testing.T) {
	s := newTestServer()
	code, body := doJSON(t, s, http.MethodPost, "/api/driver-status", `{"isOnline": true}`)
	if code != http.StatusBadRequest || body["success"] != false {
		t.Fatalf("code=%d body=%v", code, body)
	}
}

func TestDriverStatusEcho(t *testing.T) {
	s := newTestServer()
	code, body := doJSON(t, s, http.MethodPost, "/api/driver-status",
		`{"driverId": "drv-123", "isOnline": true, "status": "busy", "latitude": 1.5, "longitude": 2.5}`)
	if code != http.StatusOK || body["success"] != true {
		t.Fatalf("code=%d body=%v", code, body)
	}
	drv := body["driver"].(map[string]any)
	if drv["id"] != "drv-123" || drv["status"] != "busy" || drv["latitude"].(float64) != 1.5 {
		t.Fatalf("wrong echo: %v", drv)
	}
}

func TestStatusRoot(t *testing.T) {
	s := newTestServer()
	code, body := doJSON(t, s, http.MethodGet, "/", "")
	if code != http.StatusOK || body["version"] != "1.3.0" {
		t.Fatalf("code=%d body=%v", code, body)
	}
}
