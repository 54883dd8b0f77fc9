// Package demo fabricates plausible nearby drivers for the demo endpoints.
// Nothing here touches the presence registry.
package demo

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

type Driver struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	VehicleType  string  `json:"vehicleType"`
	VehicleMake  string  `json:"vehicleMake"`
	VehicleModel string  `json:"vehicleModel"`
	LicensePlate string  `json:"licensePlate"`
	Rating       float64 `json:"rating"`
	IsOnline     bool    `json:"isOnline"`
	Status       string  `json:"status"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Heading      int     `json:"heading"`
	LastUpdated  string  `json:"lastUpdated"`

	// DistanceMeters is filled in by the caller from the query point.
	DistanceMeters int `json:"distance"`
}

var driverNames = []string{
	"James Smith", "Sarah Johnson", "Robert Kim", "Emily Chen",
	"Michael Brown", "Lisa Wang", "David Wilson", "Anna Lee",
}

var vehicles = []struct{ kind, make, model string }{
	{"sedan", "Toyota", "Camry"},
	{"sedan", "Honda", "Accord"},
	{"sedan", "BMW", "3 Series"},
	{"suv", "Mazda", "CX-5"},
	{"sedan", "Hyundai", "Elantra"},
}

// NearbyDrivers scatters 2-5 synthetic drivers inside radiusMeters of the
// given point.
func NearbyDrivers(lat, lng, radiusMeters float64) []Driver {
	count := rand.Intn(4) + 2
	out := make([]Driver, 0, count)
	radiusDeg := radiusMeters / 111000 // ~111 km per degree

	for i := 0; i < count; i++ {
		angle := rand.Float64() * 2 * math.Pi
		dist := rand.Float64() * radiusDeg
		v := vehicles[rand.Intn(len(vehicles))]

		out = append(out, Driver{
			ID:           fmt.Sprintf("driver_%d_%d", time.Now().UnixMilli(), i),
			Name:         driverNames[rand.Intn(len(driverNames))],
			Phone:        fmt.Sprintf("+61 4%08d", rand.Intn(90000000)+10000000),
			VehicleType:  v.kind,
			VehicleMake:  v.make,
			VehicleModel: v.model,
			LicensePlate: fmt.Sprintf("%c%c%c-%d", letter(), letter(), letter(), rand.Intn(900)+100),
			Rating:       math.Round((rand.Float64()*1.5+4.0)*10) / 10,
			IsOnline:     true,
			Status:       "available",
			Latitude:     lat + dist*math.Cos(angle),
			Longitude:    lng + dist*math.Sin(angle),
			Heading:      rand.Intn(360),
			LastUpdated:  time.Now().UTC().Format(time.RFC3339),
		})
	}
	return out
}

func letter() byte { return byte('A' + rand.Intn(26)) }
