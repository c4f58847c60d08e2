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

	"scte-signal/internal/events"
	"scte-signal/internal/platform/config"
	"scte-signal/internal/platform/logger"
	"scte-signal/internal/platform/metrics"
	"scte-signal/internal/platform/ratelimit"
	"scte-signal/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	shutdownTimeout = 10 * time.Second
	timeRoute       = "/sessions/{session_id}/time"
)

func main() {
	_ = config.Load()
	cfg := config.FromEnv()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	met := metrics.New()

	repo := session.NewInMemoryRepository()
	svc := session.NewService(repo, session.Config{
		Scheme: cfg.Scheme,
		Scheduler: events.SchedulerConfig{
			FireLead:  cfg.FireLeadSeconds,
			Retention: cfg.RetentionSeconds,
		},
		IdleTimeout: cfg.SessionIdleTimeout,
	}, log, session.LogListener(log), session.MetricsListener(met))
	h := session.NewHandler(svc, log, met)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logger.RequestLogger(log, timeRoute))
	r.Use(metrics.RequestMiddleware(met, "/metrics"))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetActiveSessions(svc.ActiveSessionCount()) }).ServeHTTP(w, r)
	})
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Route("/{session_id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.CloseSession)
			r.Post("/manifest", h.UpdateManifest)
			r.With(ratelimit.PerClientEndpoint(cfg.TimeUpdateRateLimit, time.Minute)).Post("/time", h.UpdatePlaybackTime)
		})
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go svc.RunReaper(ctx, 0)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		slog.String("port", cfg.Port),
		slog.String("scheme", cfg.Scheme),
		slog.Float64("fire_lead_seconds", cfg.FireLeadSeconds),
		slog.Float64("retention_seconds", cfg.RetentionSeconds),
		slog.Duration("session_idle_timeout", cfg.SessionIdleTimeout),
		slog.Int("time_update_rate_limit", cfg.TimeUpdateRateLimit),
		slog.String("log_level", cfg.LogLevel),
	)

	<-ctx.Done()
	log.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped", slog.Int("open_sessions", svc.ActiveSessionCount()))
}
