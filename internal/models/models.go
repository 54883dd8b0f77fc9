package models

import "time"

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Role distinguishes the two sides of the marketplace.
type Role string

const (
	RoleDriver Role = "driver"
	RoleRider  Role = "rider"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleDriver:
		return RoleDriver, true
	case RoleRider:
		return RoleRider, true
	}
	return "", false
}

// RideRequest is the transient payload of a request_ride event. It lives only
// for the dispatch that handles it and is never stored.
type RideRequest struct {
	RideID               string  `json:"ride_id"`
	RiderID              string  `json:"rider_id,omitempty"`
	PickupLatitude       float64 `json:"pickup_latitude"`
	PickupLongitude      float64 `json:"pickup_longitude"`
	DestinationLatitude  float64 `json:"destination_latitude"`
	DestinationLongitude float64 `json:"destination_longitude"`
	PickupAddress        string  `json:"pickup_address,omitempty"`
	DestinationAddress   string  `json:"destination_address,omitempty"`
	EstimatedFare        float64 `json:"estimated_fare"`
	Timestamp            int64   `json:"timestamp"`
}

func (r RideRequest) Pickup() Coordinate {
	return Coordinate{Latitude: r.PickupLatitude, Longitude: r.PickupLongitude}
}

func (r RideRequest) Destination() Coordinate {
	return Coordinate{Latitude: r.DestinationLatitude, Longitude: r.DestinationLongitude}
}

// DriverSummary is the per-driver entry of a drivers-list broadcast.
type DriverSummary struct {
	ID       string      `json:"id"`
	Location *Coordinate `json:"location"`
	LastSeen int64       `json:"lastSeen"`
}

// LocationUpdate is the record published to the external location feed and
// mirrored into the geo index.
type LocationUpdate struct {
	DriverID  string     `json:"driver_id"`
	Location  Coordinate `json:"location"`
	UpdatedAt time.Time  `json:"updated_at"`
}
