package httpapi

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/example/ride-signal/internal/demo"
	"github.com/example/ride-signal/internal/geo"
	"github.com/example/ride-signal/internal/models"
	"github.com/example/ride-signal/internal/observability"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "signaling relay running",
		"onlineUsers": s.Registry.Len(),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"version":     version,
		"uptime":      time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "OK",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"onlineUsers": s.Registry.Len(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	drivers := s.Registry.ListByRole(models.RoleDriver)
	_, riders := s.Registry.Counts()

	list := make([]map[string]any, 0, len(drivers))
	for _, d := range drivers {
		list = append(list, map[string]any{"id": d.ID, "location": d.Location})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":      s.Registry.Len(),
		"drivers":    len(drivers),
		"riders":     riders,
		"driverList": list,
	})
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	before := s.Registry.Len()
	cleaned := s.Registry.Sweep(s.StaleAfter)
	observability.SweptTotal.Add(float64(cleaned))
	s.logger.Info("manual cleanup", "cleaned", cleaned)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "cleanup completed",
		"beforeCount":  before,
		"afterCount":   s.Registry.Len(),
		"cleanedCount": cleaned,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	before := s.Registry.Reset()
	s.logger.Info("registry reset", "cleared", before)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "all users cleared",
		"beforeCount": before,
		"afterCount":  0,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleNearbyDrivers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	latStr, lngStr := q.Get("userLat"), q.Get("userLng")
	if latStr == "" || lngStr == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "user location required"})
		return
	}
	lat, err1 := strconv.ParseFloat(latStr, 64)
	lng, err2 := strconv.ParseFloat(lngStr, 64)
	if err1 != nil || err2 != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid coordinates"})
		return
	}
	radius := 5000.0
	if v := q.Get("radius"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			radius = f
		}
	}

	user := models.Coordinate{Latitude: lat, Longitude: lng}
	drivers := demo.NearbyDrivers(lat, lng, radius)
	for i := range drivers {
		d := models.Coordinate{Latitude: drivers[i].Latitude, Longitude: drivers[i].Longitude}
		drivers[i].DistanceMeters = int(geo.Distance(user, d) + 0.5)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"drivers": drivers,
		"count":   len(drivers),
	})
}

func (s *Server) handleDriverStatusInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "driver status endpoint is up",
		"info":      "POST updates status, GET is for probing",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleDriverStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DriverID  string   `json:"driverId"`
		IsOnline  bool     `json:"isOnline"`
		Status    string   `json:"status"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DriverID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "driver id required"})
		return
	}
	s.logger.Info("driver status update", "driver_id", req.DriverID, "online", req.IsOnline, "status", req.Status)

	status := req.Status
	if status == "" {
		status = "available"
	}
	lat, lng := 37.7749, -122.4194
	if req.Latitude != nil {
		lat = *req.Latitude
	}
	if req.Longitude != nil {
		lng = *req.Longitude
	}
	tail := req.DriverID
	if len(tail) > 3 {
		tail = tail[len(tail)-3:]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "driver status updated",
		"driver": map[string]any{
			"id":           req.DriverID,
			"name":         "Driver " + tail,
			"phone":        "+61 400000000",
			"vehicleType":  "sedan",
			"vehicleMake":  "Toyota",
			"vehicleModel": "Camry",
			"licensePlate": fmt.Sprintf("SF-%d", rand.Intn(1000)),
			"rating":       4.8,
			"isOnline":     req.IsOnline,
			"status":       status,
			"latitude":     lat,
			"longitude":    lng,
			"heading":      0,
			"lastUpdated":  time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
