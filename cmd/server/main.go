package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"idguard/internal/blocklist"
	"idguard/internal/captcha"
	"idguard/internal/directory"
	identityHandler "idguard/internal/identity/handler"
	identityMetrics "idguard/internal/identity/metrics"
	identityService "idguard/internal/identity/service"
	"idguard/internal/platform/accountlock"
	"idguard/internal/platform/config"
	"idguard/internal/platform/health"
	"idguard/internal/platform/logger"
	"idguard/internal/platform/middleware"
	"idguard/internal/platform/redis"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Gating logic lives in internal/identity.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.LogLevel)
	log.Info("initializing idguard",
		"addr", cfg.Server.Addr,
		"env", cfg.Server.Env,
		"lockout_threshold", cfg.Lockout.Threshold,
		"account_lock_enabled", cfg.AccountLock.Enabled,
	)

	store := blocklist.NewBlobStore(cfg.Blocklist)
	gate, err := blocklist.NewGate(store, blocklist.WithLogger(log))
	if err != nil {
		log.Error("failed to build blocklist gate", "error", err)
		os.Exit(1)
	}

	verifier, err := captcha.NewVerifier(cfg.Captcha)
	if err != nil {
		log.Error("failed to build captcha verifier", "error", err)
		os.Exit(1)
	}

	dir, err := directory.NewClient(cfg.Directory)
	if err != nil {
		log.Error("failed to build directory client", "error", err)
		os.Exit(1)
	}

	var locker identityService.AccountLocker = accountlock.Noop{}
	redisClient, err := redis.New(cfg.AccountLock)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		locker = accountlock.NewRedisLocker(redisClient.Client, cfg.AccountLock.TTL)
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				redisClient.RecordPoolStats()
			}
		}()
	}

	svc, err := identityService.New(gate, verifier, dir, cfg.Lockout,
		identityService.WithLogger(log),
		identityService.WithMetrics(identityMetrics.New()),
		identityService.WithLocker(locker),
	)
	if err != nil {
		log.Error("failed to build identity service", "error", err)
		os.Exit(1)
	}

	healthHandler := health.New(cfg.Server.Env)
	healthHandler.RegisterCheck("blocklist", store.Ping)
	healthHandler.RegisterCheck("directory", dir.Ping)
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", redisClient.Health)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.ClientMetadata)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	healthHandler.Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Route("/api/identity", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.Server.RateLimitPerMinute, time.Minute))
		r.Use(middleware.ContentTypeJSON)
		identityHandler.New(svc, log).Register(r)
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("starting http server", "addr", cfg.Server.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		redisClient.Close() //nolint:errcheck // shutting down anyway
	}

	log.Info("server stopped")
}
