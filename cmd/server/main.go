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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/AnshRaj112/namewall-backend/internal/config"
	"github.com/AnshRaj112/namewall-backend/internal/database"
	"github.com/AnshRaj112/namewall-backend/internal/handlers"
	"github.com/AnshRaj112/namewall-backend/internal/logger"
	"github.com/AnshRaj112/namewall-backend/internal/metrics"
	"github.com/AnshRaj112/namewall-backend/internal/middleware"
	"github.com/AnshRaj112/namewall-backend/internal/realtime"
	"github.com/AnshRaj112/namewall-backend/internal/repository"
	"github.com/AnshRaj112/namewall-backend/internal/routes"
	"github.com/AnshRaj112/namewall-backend/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(log)
	if envErr != nil {
		log.Debug("no .env file found")
	}

	if err := repository.Supported(cfg.DatabaseURL); err != nil {
		log.Error("invalid DATABASE_URL", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := metrics.New()
	if err != nil {
		log.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	hub := realtime.NewHub(m, log)

	// Redis is optional: it shares the name list cache and the live feed
	// between instances. Without it both stay in-process.
	var (
		cache     services.Cache
		publisher services.NamePublisher = hub
	)
	if cfg.RedisURI != "" {
		rdb, err := database.ConnectRedis(ctx, cfg.RedisURI, logger.Module(log, "redis"))
		if err != nil {
			log.Warn("redis unavailable, using in-process cache and live feed", "error", err)
		} else {
			defer rdb.Close()
			cache = services.NewRedisCache(rdb)
			fanout := realtime.NewRedisFanout(rdb, hub, log)
			publisher = fanout
			go fanout.Run(ctx)
		}
	}
	if cache == nil {
		cache = services.NewMemoryCache(time.Minute)
	}

	// The server starts immediately; requests fail with a storage error until
	// the supervisor has connected.
	store := repository.NewStore()
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("closing storage", "error", err)
		}
	}()

	log.Info("connecting to storage", "url", cfg.MaskedDatabaseURL())
	supervisor := database.NewSupervisor(func(ctx context.Context) error {
		backend, err := repository.Open(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		store.Attach(backend)
		log.Info("storage ready", "backend", backend.Kind)
		return nil
	}, cfg.RetryDelay, log)
	go func() {
		if err := supervisor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("storage supervisor stopped", "error", err)
		}
	}()

	registry := services.NewNameRegistry(store,
		services.WithCache(cache, cfg.CacheTTL),
		services.WithPublisher(publisher),
		services.WithMetrics(m),
		services.WithLogger(log),
	)
	sink := services.NewFeedbackSink(store, m, log)
	h := handlers.New(registry, sink, hub, log)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(logger.Module(log, "access")))
	r.Use(chimw.Recoverer)
	r.Use(m.Middleware)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → per-IP rate limit → write rate limit
	if cfg.IsProduction() {
		global := middleware.NewRateLimiter(middleware.GlobalRate, middleware.GlobalBurst)
		writes := middleware.NewRateLimiter(middleware.WriteRate, middleware.WriteBurst)
		go global.RunCleanup(ctx)
		go writes.RunCleanup(ctx)
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost, cfg.CSPSources, global, writes) {
			r.Use(mw)
		}
		log.Info("✅ production security enabled (security headers, host check, per-IP rate limiting)")
	}

	routes.SetupRoutes(r, h, m.Handler(), cfg.StaticDir)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("🚀 namewall backend running", "addr", srv.Addr, "env", cfg.Environment)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
