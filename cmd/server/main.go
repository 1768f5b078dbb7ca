package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/relspace/internal/api"
	"github.com/Harshitk-cp/relspace/internal/buildconfig"
	"github.com/Harshitk-cp/relspace/internal/config"
	"github.com/Harshitk-cp/relspace/internal/resolver"
	"github.com/Harshitk-cp/relspace/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger := newLogger(config.LogLevel())
	defer func() { _ = logger.Sync() }()

	logger.Info("starting relspace",
		zap.String("version", buildconfig.Version()),
		zap.String("commit", buildconfig.Commit()))

	ctx := context.Background()
	opts := api.Options{
		SpaceName: config.SpaceName(),
		RateRPS:   config.RateLimitRPS(),
		RateBurst: config.RateLimitBurst(),
	}

	switch backend := config.EventStore(); backend {
	case config.EventStorePostgres:
		dbURL := config.DatabaseURL()
		if dbURL == "" {
			logger.Fatal("DATABASE_URL is required for the postgres event store")
		}

		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		logger.Info("connected to database")

		events := store.NewPostgresEventStore(pool)
		if err := events.Migrate(ctx); err != nil {
			logger.Fatal("failed to migrate event store", zap.Error(err))
		}
		projection := store.NewEdgeProjectionStore(pool)
		if err := projection.Migrate(ctx); err != nil {
			logger.Fatal("failed to migrate edge projection", zap.Error(err))
		}
		opts.Events = events
		opts.Projection = projection
		opts.Health = pool

	case config.EventStoreSQLite:
		events, err := store.NewSQLiteEventStore(config.SQLitePath())
		if err != nil {
			logger.Fatal("failed to open sqlite event store", zap.Error(err))
		}
		defer events.Close()
		opts.Events = events
		logger.Info("using sqlite event store", zap.String("path", config.SQLitePath()))

	case config.EventStoreMemory:
		opts.Events = store.NewMemoryEventStore()
		logger.Warn("using in-memory event store; events are lost on restart")

	default:
		logger.Fatal("unknown event store (valid options: postgres, sqlite, memory)", zap.String("event_store", backend))
	}

	res, err := resolver.NewResolver(config.EntityResolver(), config.EntityResolverURL())
	if err != nil {
		logger.Fatal("failed to create entity resolver", zap.Error(err))
	}
	opts.Resolver = res

	profiles, err := config.LoadQualityProfiles(config.QualityProfilesPath())
	if err != nil {
		logger.Fatal("failed to load quality profiles", zap.Error(err))
	}
	opts.Profiles = profiles

	app := api.NewApp(opts, logger)

	if err := app.Rebuild(ctx, opts.Events); err != nil {
		logger.Fatal("failed to rebuild relationship space", zap.Error(err))
	}

	// Start background services
	app.Tessellation.SetInterval(config.TessellationInterval())
	app.Tessellation.Start()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	app.Tessellation.Stop()
	app.Close()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		if lvl, perr := zap.ParseAtomicLevel(level); perr == nil {
			cfg.Level = lvl
		}
		logger, err = cfg.Build()
	}
	if err != nil {
		panic(err)
	}
	return logger
}
