package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ParticipantsOnline = promauto.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "ride_signal", Name: "participants_online", Help: "Registered participants by role"},
		[]string{"role"},
	)
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_signal", Name: "events_total", Help: "Inbound events by type"},
		[]string{"type"},
	)
	MatchesTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_signal", Name: "matches_total", Help: "Ride requests forwarded to a driver"})
	NoDriversTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_signal", Name: "no_drivers_total", Help: "Ride requests with no driver in radius"})
	DroppedSends   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_signal", Name: "dropped_sends_total", Help: "Outbound messages dropped on a saturated or closed connection"})
	SweptTotal     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_signal", Name: "swept_participants_total", Help: "Participants removed by the staleness sweep"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_signal", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ride_signal",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
