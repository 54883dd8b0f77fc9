package relay

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/example/ride-signal/internal/eta"
	"github.com/example/ride-signal/internal/geo"
	"github.com/example/ride-signal/internal/match"
	"github.com/example/ride-signal/internal/models"
	"github.com/example/ride-signal/internal/observability"
	"github.com/example/ride-signal/internal/presence"
)

const (
	unknownAddress    = "unknown address"
	defaultPassenger  = "Passenger"
	defaultArrivalMin = 10
	fallbackRideMin   = 15
)

// Session is the relay's view of one transport connection: an outbound
// capability plus the participant id bound to it at registration.
type Session interface {
	presence.Sender
	ID() string
	SetID(id string)
}

// GeoMirror is the optional external geo index updated as drivers move.
type GeoMirror interface {
	Upsert(id string, loc models.Coordinate) error
	Remove(id string) error
}

// LocationFeed is the optional streaming sink for driver location updates.
type LocationFeed interface {
	PublishLocation(u models.LocationUpdate) error
}

// Relay routes inbound events to their target participants. It is stateless
// between dispatches: every lookup goes through the presence registry and
// every delivery through the target's outbound handle.
type Relay struct {
	Registry     *presence.Registry
	Matcher      *match.Matcher
	RadiusMeters float64
	SpeedMps     float64
	Mirror       GeoMirror    // nil when unconfigured
	Feed         LocationFeed // nil when unconfigured
	Logger       *slog.Logger

	now func() time.Time
}

func New(reg *presence.Registry, m *match.Matcher, radiusMeters float64, logger *slog.Logger) *Relay {
	return &Relay{
		Registry:     reg,
		Matcher:      m,
		RadiusMeters: radiusMeters,
		SpeedMps:     10,
		Logger:       logger,
		now:          time.Now,
	}
}

// HandleMessage dispatches one inbound event. Malformed input is logged and
// dropped with an error event to the sender; nothing here is fatal.
func (r *Relay) HandleMessage(c Session, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		r.Logger.Warn("malformed message", "id", c.ID(), "error", err)
		r.send(c, errorEvent{Type: EvError, Message: "malformed message"})
		return
	}
	observability.EventsTotal.WithLabelValues(env.Type).Inc()

	switch env.Type {
	case EvRegister:
		r.handleRegister(c, env)
	case EvLocationUpdate:
		r.handleLocationUpdate(c, env)
	case EvRequestRide:
		r.handleRequestRide(c, env)
	case EvAcceptRide:
		r.handleAcceptRide(c, env)
	case EvDeclineRide:
		// single-offer dispatch: a decline ends this attempt, there is no
		// fallback to the next-nearest driver
		r.Logger.Info("ride declined", "driver_id", c.ID(), "ride_id", env.RideID)
	case EvOffer:
		r.relaySignal(c, env.TargetID, signalEvent{Type: EvOffer, Offer: env.Offer, FromID: c.ID(), Timestamp: r.now().UnixMilli()}, true)
	case EvAnswer:
		r.relaySignal(c, env.TargetID, signalEvent{Type: EvAnswer, Answer: env.Answer, FromID: c.ID(), Timestamp: r.now().UnixMilli()}, true)
	case EvICECandidate:
		r.relaySignal(c, env.TargetID, signalEvent{Type: EvICECandidate, Candidate: env.Candidate, FromID: c.ID(), Timestamp: r.now().UnixMilli()}, false)
	case EvP2POrderReq:
		r.relayOrder(c, env, true)
	case EvP2POrderResp:
		r.relayOrder(c, env, false)
	default:
		r.Logger.Warn("unknown event type", "type", env.Type, "id", c.ID())
	}
}

// HandleDisconnect removes the connection's participant, if it ever
// registered, and refreshes the riders' driver list when a driver left.
func (r *Relay) HandleDisconnect(c Session) {
	id := c.ID()
	if id == "" {
		return
	}
	p, ok := r.Registry.Remove(id)
	if !ok {
		return
	}
	r.refreshGauges()
	r.Logger.Info("participant disconnected", "id", id, "role", p.Role)
	if p.Role == models.RoleDriver {
		if r.Mirror != nil {
			if err := r.Mirror.Remove(id); err != nil {
				r.Logger.Warn("geo mirror remove failed", "id", id, "error", err)
			}
		}
		r.broadcastDriversList()
	}
}

func (r *Relay) handleRegister(c Session, env Envelope) {
	role, ok := env.role()
	if !ok {
		r.send(c, errorEvent{Type: EvError, Message: "register requires role"})
		return
	}
	id := env.UserID
	if id == "" {
		id = "user_" + newID()
	}
	if prev := c.ID(); prev != "" && prev != id {
		// re-registration under a new id must not leave the old entry behind
		r.Registry.Remove(prev)
	}
	c.SetID(id)
	r.Registry.Register(id, role, env.Location, c)
	r.refreshGauges()
	r.Logger.Info("participant registered", "id", id, "role", role, "has_location", env.Location != nil)

	r.send(c, registeredEvent{Type: EvRegistered, UserID: id, UserType: string(role)})

	switch role {
	case models.RoleRider:
		r.send(c, driversListEvent{Type: EvDriversList, Drivers: r.driverSnapshot()})
	case models.RoleDriver:
		if env.Location != nil {
			r.publishDriverLocation(id, *env.Location)
		}
	}
}

func (r *Relay) handleLocationUpdate(c Session, env Envelope) {
	id := c.ID()
	if id == "" || env.Location == nil {
		return
	}
	if !r.Registry.UpdateLocation(id, *env.Location) {
		// participant vanished mid-flight, nothing to update
		return
	}
	p, ok := r.Registry.Get(id)
	if !ok || p.Role != models.RoleDriver {
		return
	}
	r.broadcastToRiders(driverLocationEvent{Type: EvDriverLocation, DriverID: id, Location: *env.Location})
	r.publishDriverLocation(id, *env.Location)
}

func (r *Relay) handleRequestRide(c Session, env Envelope) {
	id := c.ID()
	p, ok := r.Registry.Get(id)
	if id == "" || !ok || p.Role != models.RoleRider {
		r.send(c, errorEvent{Type: EvError, Message: "request_ride requires a registered rider"})
		return
	}
	pickup := env.Pickup()
	if !geo.Valid(pickup) {
		r.send(c, errorEvent{Type: EvError, Message: "request_ride requires valid pickup coordinates"})
		return
	}

	cands := r.Matcher.FindNearby(pickup, r.RadiusMeters)
	if len(cands) == 0 {
		observability.NoDriversTotal.Inc()
		r.Logger.Info("no drivers available", "rider_id", id, "ride_id", env.RideID)
		r.send(c, simpleEvent{Type: EvNoDrivers})
		return
	}

	// sequential-offer dispatch: only the nearest driver is contacted
	nearest := cands[0]
	offer := rideRequestEvent{
		Type:                 EvRideRequest,
		RideID:               env.RideID,
		RiderID:              id,
		PickupLatitude:       env.PickupLatitude,
		PickupLongitude:      env.PickupLongitude,
		DestinationLatitude:  env.DestinationLatitude,
		DestinationLongitude: env.DestinationLongitude,
		PickupAddress:        orDefault(env.PickupAddress, unknownAddress),
		DestinationAddress:   orDefault(env.DestinationAddress, unknownAddress),
		EstimatedFare:        env.EstimatedFare,
		EstimatedDuration:    r.rideDuration(pickup, env.Destination()),
		PassengerName:        defaultPassenger,
		Timestamp:            env.Timestamp,
	}
	observability.MatchesTotal.Inc()
	r.Logger.Info("ride request forwarded",
		"ride_id", env.RideID, "rider_id", id,
		"driver_id", nearest.Driver.ID, "distance_m", nearest.DistanceMeters)
	r.sendTo(nearest.Driver, offer)
}

func (r *Relay) handleAcceptRide(c Session, env Envelope) {
	if env.RiderID == "" {
		r.send(c, errorEvent{Type: EvError, Message: "accept_ride requires rider_id"})
		return
	}
	rider, ok := r.Registry.Get(env.RiderID)
	if !ok {
		// rider disconnected mid-flight; not an error for the driver
		r.Logger.Info("accept_ride for vanished rider", "rider_id", env.RiderID, "ride_id", env.RideID)
		return
	}
	arrival := env.EstimatedArrival
	if arrival <= 0 {
		arrival = defaultArrivalMin
	}
	r.sendTo(rider, rideAcceptedEvent{
		Type:             EvRideAccepted,
		DriverID:         c.ID(),
		RideID:           env.RideID,
		EstimatedArrival: arrival,
		Timestamp:        env.Timestamp,
	})
}

// relaySignal forwards a peer negotiation payload to its target. When
// notifyMissing is set an unknown target is reported back to the sender;
// otherwise the event is dropped silently.
func (r *Relay) relaySignal(c Session, targetID string, ev signalEvent, notifyMissing bool) {
	target, ok := r.Registry.Get(targetID)
	if !ok {
		if notifyMissing {
			r.send(c, userNotFoundEvent{Type: EvUserNotFound, TargetID: targetID})
		}
		return
	}
	r.sendTo(target, ev)
}

func (r *Relay) relayOrder(c Session, env Envelope, notifyMissing bool) {
	target, ok := r.Registry.Get(env.TargetID)
	if !ok {
		if notifyMissing {
			r.send(c, driverNotAvailableEvent{Type: EvDriverNotAvailable, DriverID: env.TargetID})
		}
		return
	}
	r.sendTo(target, p2pEvent{
		Type:          env.Type,
		OrderRequest:  env.OrderRequest,
		OrderResponse: env.OrderResponse,
		FromID:        c.ID(),
		Timestamp:     r.now().UnixMilli(),
	})
}

func (r *Relay) broadcastDriversList() {
	r.broadcastToRiders(driversListEvent{Type: EvDriversList, Drivers: r.driverSnapshot()})
}

func (r *Relay) broadcastToRiders(v any) {
	for _, rider := range r.Registry.ListByRole(models.RoleRider) {
		r.sendTo(rider, v)
	}
}

func (r *Relay) driverSnapshot() []models.DriverSummary {
	drivers := r.Registry.ListByRole(models.RoleDriver)
	out := make([]models.DriverSummary, 0, len(drivers))
	for _, d := range drivers {
		if d.Location == nil {
			continue
		}
		out = append(out, models.DriverSummary{ID: d.ID, Location: d.Location, LastSeen: d.LastSeen.UnixMilli()})
	}
	return out
}

func (r *Relay) publishDriverLocation(id string, loc models.Coordinate) {
	if r.Mirror != nil {
		if err := r.Mirror.Upsert(id, loc); err != nil {
			r.Logger.Warn("geo mirror upsert failed", "id", id, "error", err)
		}
	}
	if r.Feed != nil {
		u := models.LocationUpdate{DriverID: id, Location: loc, UpdatedAt: r.now()}
		if err := r.Feed.PublishLocation(u); err != nil {
			r.Logger.Warn("location feed publish failed", "id", id, "error", err)
		}
	}
}

func (r *Relay) rideDuration(pickup, dest models.Coordinate) int {
	// a request without destination fields decodes to (0,0); that is Null
	// Island, not a ride destination, so it gets the flat default too
	if !geo.Valid(dest) || (dest.Latitude == 0 && dest.Longitude == 0) {
		return fallbackRideMin
	}
	if m := eta.EstimateMinutes(pickup, dest, r.SpeedMps); m > 0 {
		return m
	}
	return fallbackRideMin
}

// send delivers to the event's own sender; sendTo delivers to a looked-up
// participant. Both are best-effort single attempts.
func (r *Relay) send(c Session, v any) {
	if err := c.Send(v); err != nil {
		r.dropped(c.ID(), err)
	}
}

func (r *Relay) sendTo(p presence.Participant, v any) {
	if p.Outbound == nil {
		r.dropped(p.ID, errors.New("no outbound handle"))
		return
	}
	if err := p.Outbound.Send(v); err != nil {
		r.dropped(p.ID, err)
	}
}

func (r *Relay) dropped(id string, err error) {
	observability.DroppedSends.Inc()
	r.Logger.Warn("outbound send dropped", "id", id, "error", err)
}

func (r *Relay) refreshGauges() {
	drivers, riders := r.Registry.Counts()
	observability.ParticipantsOnline.WithLabelValues(string(models.RoleDriver)).Set(float64(drivers))
	observability.ParticipantsOnline.WithLabelValues(string(models.RoleRider)).Set(float64(riders))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func newID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
