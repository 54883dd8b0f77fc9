package relay

import (
	"encoding/json"

	"github.com/example/ride-signal/internal/models"
)

// Event names accepted from and emitted to connections.
const (
	EvRegister       = "register"
	EvLocationUpdate = "location-update"
	EvRequestRide    = "request_ride"
	EvAcceptRide     = "accept_ride"
	EvDeclineRide    = "decline_ride"
	EvOffer          = "offer"
	EvAnswer         = "answer"
	EvICECandidate   = "ice-candidate"
	EvP2POrderReq    = "p2p_order_request"
	EvP2POrderResp   = "p2p_order_response"

	EvRegistered         = "registered"
	EvDriversList        = "drivers-list"
	EvDriverLocation     = "driver-location-update"
	EvRideRequest        = "ride_request"
	EvRideAccepted       = "ride_accepted"
	EvNoDrivers          = "no_drivers_available"
	EvUserNotFound       = "user_not_found"
	EvDriverNotAvailable = "driver_not_available"
	EvError              = "error"
)

// Envelope is the superset of every inbound payload; Type selects which
// fields are meaningful. Unknown fields are ignored, missing required fields
// make the event malformed.
type Envelope struct {
	Type string `json:"type"`

	// register
	UserID   string             `json:"userId,omitempty"`
	Role     string             `json:"role,omitempty"`
	UserType string             `json:"userType,omitempty"` // legacy alias for role
	Location *models.Coordinate `json:"location,omitempty"`

	// ride flow
	models.RideRequest
	EstimatedArrival int `json:"estimated_arrival,omitempty"`

	// peer signaling
	TargetID      string          `json:"targetId,omitempty"`
	Offer         json.RawMessage `json:"offer,omitempty"`
	Answer        json.RawMessage `json:"answer,omitempty"`
	Candidate     json.RawMessage `json:"candidate,omitempty"`
	OrderRequest  json.RawMessage `json:"orderRequest,omitempty"`
	OrderResponse json.RawMessage `json:"orderResponse,omitempty"`
}

func (e *Envelope) role() (models.Role, bool) {
	if e.Role != "" {
		return models.ParseRole(e.Role)
	}
	return models.ParseRole(e.UserType)
}

type registeredEvent struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	UserType string `json:"userType"`
}

type driversListEvent struct {
	Type    string                 `json:"type"`
	Drivers []models.DriverSummary `json:"drivers"`
}

type driverLocationEvent struct {
	Type     string            `json:"type"`
	DriverID string            `json:"driverId"`
	Location models.Coordinate `json:"location"`
}

type rideRequestEvent struct {
	Type                 string  `json:"type"`
	RideID               string  `json:"ride_id"`
	RiderID              string  `json:"rider_id"`
	PickupLatitude       float64 `json:"pickup_latitude"`
	PickupLongitude      float64 `json:"pickup_longitude"`
	DestinationLatitude  float64 `json:"destination_latitude"`
	DestinationLongitude float64 `json:"destination_longitude"`
	PickupAddress        string  `json:"pickup_address"`
	DestinationAddress   string  `json:"destination_address"`
	EstimatedFare        float64 `json:"estimated_fare"`
	EstimatedDuration    int     `json:"estimated_duration"`
	PassengerName        string  `json:"passenger_name"`
	Timestamp            int64   `json:"timestamp"`
}

type rideAcceptedEvent struct {
	Type             string `json:"type"`
	DriverID         string `json:"driver_id"`
	RideID           string `json:"ride_id"`
	EstimatedArrival int    `json:"estimated_arrival"`
	Timestamp        int64  `json:"timestamp"`
}

type simpleEvent struct {
	Type string `json:"type"`
}

type userNotFoundEvent struct {
	Type     string `json:"type"`
	TargetID string `json:"targetId"`
}

type driverNotAvailableEvent struct {
	Type     string `json:"type"`
	DriverID string `json:"driverId"`
}

type signalEvent struct {
	Type      string          `json:"type"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	FromID    string          `json:"fromId"`
	Timestamp int64           `json:"timestamp"`
}

type p2pEvent struct {
	Type          string          `json:"type"`
	OrderRequest  json.RawMessage `json:"orderRequest,omitempty"`
	OrderResponse json.RawMessage `json:"orderResponse,omitempty"`
	FromID        string          `json:"fromId"`
	Timestamp     int64           `json:"timestamp"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
