package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/ride-signal/internal/presence"
	"github.com/example/ride-signal/internal/relay"
	"github.com/example/ride-signal/internal/transport"
)

const version = "1.3.0"

// Server is the HTTP surface around the relay: the websocket endpoint, the
// maintenance endpoints, and the demo API. Core semantics live in the relay
// and registry; everything here is I/O glue.
type Server struct {
	Registry   *presence.Registry
	Relay      *relay.Relay
	StaleAfter time.Duration
	SendBuffer int

	logger   *slog.Logger
	mux      *mux.Router
	upgrader websocket.Upgrader
	started  time.Time
}

func NewServer(reg *presence.Registry, rl *relay.Relay, staleAfter time.Duration, sendBuffer int, logger *slog.Logger) *Server {
	s := &Server{
		Registry:   reg,
		Relay:      rl,
		StaleAfter: staleAfter,
		SendBuffer: sendBuffer,
		logger:     logger,
		mux:        mux.NewRouter(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		started: time.Now(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleStatus).Methods("GET")
	s.mux.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.mux.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.mux.HandleFunc("/stats", s.handleStats).Methods("GET")
	s.mux.HandleFunc("/cleanup", s.handleCleanup).Methods("POST")
	s.mux.HandleFunc("/reset", s.handleReset).Methods("POST")
	s.mux.HandleFunc("/api/nearby-drivers", s.handleNearbyDrivers).Methods("GET")
	s.mux.HandleFunc("/api/driver-status", s.handleDriverStatusInfo).Methods("GET")
	s.mux.HandleFunc("/api/driver-status", s.handleDriverStatus).Methods("POST")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

// relayHandler adapts the relay to the transport's handler contract.
type relayHandler struct{ r *relay.Relay }

func (h relayHandler) HandleMessage(c *transport.Conn, data []byte) { h.r.HandleMessage(c, data) }
func (h relayHandler) HandleDisconnect(c *transport.Conn)           { h.r.HandleDisconnect(c) }

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}
	c := transport.NewConn(ws, s.logger, s.SendBuffer)
	c.Run(relayHandler{s.Relay})
}
