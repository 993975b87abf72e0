package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	cfhttp "github.com/Strob0t/ContentForge/internal/adapter/http"
	cfnats "github.com/Strob0t/ContentForge/internal/adapter/nats"
	"github.com/Strob0t/ContentForge/internal/adapter/natskv"
	cfotel "github.com/Strob0t/ContentForge/internal/adapter/otel"
	"github.com/Strob0t/ContentForge/internal/adapter/postgres"
	"github.com/Strob0t/ContentForge/internal/adapter/ristretto"
	"github.com/Strob0t/ContentForge/internal/adapter/tiered"
	"github.com/Strob0t/ContentForge/internal/adapter/ws"
	"github.com/Strob0t/ContentForge/internal/config"
	"github.com/Strob0t/ContentForge/internal/logger"
	"github.com/Strob0t/ContentForge/internal/middleware"
	"github.com/Strob0t/ContentForge/internal/port/cache"
	"github.com/Strob0t/ContentForge/internal/port/datamanager"
	"github.com/Strob0t/ContentForge/internal/resilience"
	"github.com/Strob0t/ContentForge/internal/service"
)

func main() {
	var err error
	args := os.Args[1:]
	switch {
	case len(args) > 0 && args[0] == "migrate":
		err = runMigrate(args[1:])
	case len(args) > 0 && args[0] == "admin":
		err = runAdmin(args[1:])
	case len(args) > 0 && args[0] == "serve":
		err = run(args[1:])
	default:
		err = run(args)
	}
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return err
	}
	cfg, cfgPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	holder := config.NewHolder(cfg, cfgPath)

	log, logFlusher := logger.New(cfg.Logging)
	defer logFlusher.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"datamanager", cfg.DataManager.Mode,
		"auth", cfg.Auth.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---
	shutdownOTEL, err := cfotel.Init(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}
	if err := metrics.ObserveDroppedLogs(logFlusher.Dropped); err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	store := postgres.NewStore(pool)

	// NATS (optional)
	var queue *cfnats.Queue
	if cfg.NATS.URL != "" {
		queue, err = cfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() {
			if err := queue.Drain(); err != nil {
				slog.Warn("nats drain", "error", err)
			}
		}()
	}

	// Environment read cache
	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("l1 cache: %w", err)
	}
	defer l1.Close()
	var envCache cache.Cache = l1
	if queue != nil {
		kv, err := queue.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			return fmt.Errorf("l2 cache: %w", err)
		}
		envCache = tiered.New(l1, natskv.New(kv), cfg.Cache.TTL)
	}

	// --- Services ---
	hub := ws.NewHub(cfg.Server.CORSOrigin)
	defer hub.Close()

	copier := service.NewContentCopier(store)
	copier.SetMetrics(metrics)

	var data datamanager.Manager = copier
	if cfg.DataManager.Mode == config.DataManagerNATS {
		data = cfnats.NewDataManager(queue, resilience.NewBreaker("nats", cfg.Breaker))
		stopJobs, err := copier.Subscribe(ctx, queue)
		if err != nil {
			return fmt.Errorf("content jobs: %w", err)
		}
		defer stopJobs()
	}

	envSvc := service.NewEnvironmentService(store, data)
	envSvc.SetCache(envCache, cfg.Cache.TTL)
	envSvc.SetBroadcaster(hub)
	envSvc.SetMetrics(metrics)
	copier.SetStatusRecorder(envSvc)

	aliasSvc := service.NewAliasService(store)
	aliasSvc.SetBroadcaster(hub)

	handlers := &cfhttp.Handlers{
		Environments:  envSvc,
		Aliases:       aliasSvc,
		ContentModels: service.NewContentModelService(store),
		Installer:     service.NewInstaller(envSvc, aliasSvc),
		DB:            store,
	}
	if queue != nil {
		handlers.Broker = queue
	}

	// --- HTTP ---
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.TenantID)
	r.Use(chimw.RealIP)
	r.Use(cfhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cfhttp.SecurityHeaders)
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(cfotel.HTTPMiddleware(cfg.OTEL.ServiceName))
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	r.Use(middleware.Auth(service.NewTokenIssuer(&cfg.Auth), cfg.Auth.Enabled))
	if cfg.RateLimit.RPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		limiter.StartCleanup(ctx, time.Minute, cfg.RateLimit.MaxIdle)
		r.Use(limiter.Handler)
	}
	if queue != nil {
		replay, err := queue.KeyValue(ctx, cfg.Idempotency.Bucket, cfg.Idempotency.TTL)
		if err != nil {
			return fmt.Errorf("idempotency store: %w", err)
		}
		r.Use(middleware.Idempotency(replay))
	}

	r.Get("/ws", hub.HandleWS)
	cfhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go watchReload(ctx, holder)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// watchReload re-reads the configuration on SIGHUP. Only the log level is
// applied to the running process; other changes need a restart.
func watchReload(ctx context.Context, holder *config.Holder) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := holder.Reload(); err != nil {
				slog.Error("config reload failed", "error", err)
				continue
			}
			level := holder.Get().Logging.Level
			logger.SetLevel(level)
			slog.Info("config reloaded", "log_level", level)
		}
	}
}
