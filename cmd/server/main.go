package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/ride-signal/internal/config"
	"github.com/example/ride-signal/internal/geo"
	httpapi "github.com/example/ride-signal/internal/http"
	"github.com/example/ride-signal/internal/ingest"
	"github.com/example/ride-signal/internal/logging"
	"github.com/example/ride-signal/internal/match"
	"github.com/example/ride-signal/internal/models"
	"github.com/example/ride-signal/internal/observability"
	"github.com/example/ride-signal/internal/presence"
	"github.com/example/ride-signal/internal/relay"
)

func main() {
	cfg, err := config.LoadServerConfig()
	logger := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	registry := presence.NewRegistry()
	matcher := match.New(registry)
	rl := relay.New(registry, matcher, cfg.MatchRadiusMeters, logger)

	if cfg.RedisAddr != "" {
		mirror := geo.NewRedisMirror(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
		defer mirror.Close()
		rl.Mirror = mirror
		logger.Info("geo mirror enabled", "addr", cfg.RedisAddr, "key", cfg.RedisGeoKey)
	}
	if len(cfg.KafkaBrokers) > 0 {
		feed := ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer feed.Close()
		rl.Feed = feed
		logger.Info("location feed enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	api := httpapi.NewServer(registry, rl, cfg.StaleAfter, cfg.SendBuffer, logger)
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepLoop(ctx, registry, cfg.SweepInterval, cfg.StaleAfter, logger)
	go heartbeatLoop(ctx, registry, cfg.HeartbeatInterval, logger)

	go func() {
		logger.Info("signaling relay listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// sweepLoop periodically removes participants whose lastSeen aged out. It
// contends on the registry's own lock, same as every other mutation.
func sweepLoop(ctx context.Context, reg *presence.Registry, interval, maxAge time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := reg.Sweep(maxAge); n > 0 {
				observability.SweptTotal.Add(float64(n))
				drivers, riders := reg.Counts()
				observability.ParticipantsOnline.WithLabelValues(string(models.RoleDriver)).Set(float64(drivers))
				observability.ParticipantsOnline.WithLabelValues(string(models.RoleRider)).Set(float64(riders))
				logger.Info("stale participants swept", "removed", n)
			}
		}
	}
}

func heartbeatLoop(ctx context.Context, reg *presence.Registry, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info("heartbeat", "online_users", reg.Len())
		}
	}
}
