package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/relspace/internal/api/handlers"
	mw "github.com/Harshitk-cp/relspace/internal/api/middleware"
	"github.com/Harshitk-cp/relspace/internal/buildconfig"
	"github.com/Harshitk-cp/relspace/internal/domain"
	"github.com/Harshitk-cp/relspace/internal/resolver"
	"github.com/Harshitk-cp/relspace/internal/service"
	"github.com/Harshitk-cp/relspace/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger reports whether a backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options carries the collaborators NewApp wires together. Events is
// required; the rest are optional.
type Options struct {
	Events     domain.EventStore
	Projection domain.EdgeProjection
	Resolver   domain.EntityResolver
	Profiles   domain.ProfileSet
	SpaceName  string
	Health     Pinger
	RateRPS    float64
	RateBurst  int
}

// App holds the router and background services for lifecycle management.
type App struct {
	Router       *chi.Mux
	Space        *service.SpaceService
	Edges        *service.EdgeService
	HyperEdges   *service.HyperEdgeService
	Tessellation *service.TessellationService
	limiter      *mw.RateLimiter
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(opts Options, logger *zap.Logger) *App {
	// Services
	spaceSvc := service.NewSpaceService(opts.SpaceName, domain.SystemClock, logger)
	edgeSvc := service.NewEdgeService(opts.Events, spaceSvc, logger)
	hyperSvc := service.NewHyperEdgeService(opts.Events, spaceSvc, logger)
	tessSvc := service.NewTessellationService(spaceSvc, service.NewPrototypeTessellator(domain.SystemClock), logger)

	if opts.Projection != nil {
		edgeSvc.SetProjection(opts.Projection)
	}
	if opts.Resolver != nil {
		edgeSvc.SetResolver(opts.Resolver)
		hyperSvc.SetResolver(opts.Resolver)
	}
	edgeSvc.SetProfiles(opts.Profiles)
	hyperSvc.SetProfiles(opts.Profiles)

	// Handlers
	commandHandler := handlers.NewCommandHandler(edgeSvc, hyperSvc)
	queryHandler := handlers.NewQueryHandler(edgeSvc, hyperSvc, spaceSvc, tessSvc)

	r := chi.NewRouter()

	app := &App{
		Router:       r,
		Space:        spaceSvc,
		Edges:        edgeSvc,
		HyperEdges:   hyperSvc,
		Tessellation: tessSvc,
		startTime:    time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	if opts.RateRPS > 0 {
		app.limiter = mw.RateLimit(opts.RateRPS, opts.RateBurst)
		r.Use(app.limiter.Middleware)
	}

	r.Get("/health", healthHandler(opts.Health))
	r.Get("/metrics", app.metricsHandler())
	r.Handle("/metrics/prometheus", promhttp.Handler())

	r.Route("/v1/relationships", func(r chi.Router) {
		r.Post("/commands/{kind}", commandHandler.Handle)

		r.Route("/queries", func(r chi.Router) {
			r.Get("/edges/{id}", queryHandler.GetEdge)
			r.Get("/edges/{id}/events", queryHandler.EdgeEvents)
			r.Get("/hyperedges/{id}", queryHandler.GetHyperEdge)
			r.Get("/hyperedges/{id}/events", queryHandler.HyperEdgeEvents)
			r.Get("/similar", queryHandler.Similar)
			r.Get("/active", queryHandler.Active)
			r.Get("/between", queryHandler.Between)
			r.Get("/involving", queryHandler.Involving)
			r.Get("/tessellation", queryHandler.Tessellation)
			r.Get("/stats", queryHandler.Stats)
			r.Get("/dimensions", queryHandler.Dimensions)
		})
	})

	return app
}

// Close stops the app's own background work. The tessellation service is
// started and stopped separately.
func (app *App) Close() {
	if app.limiter != nil {
		app.limiter.Stop()
	}
}

// Rebuild loads the space from the event store. Call before serving.
func (app *App) Rebuild(ctx context.Context, es domain.EventStore) error {
	return app.Space.Rebuild(ctx, es)
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		build := buildconfig.Get()

		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]any{"status": "error", "error": err.Error(), "build": build})
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "build": build})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)
		stats := app.Space.Stats()

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"space": map[string]any{
				"version":     stats.Version,
				"edges":       stats.Edges,
				"hyperedges":  stats.HyperEdges,
				"tessellated": stats.Tessellated,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and resolvers satisfy interfaces at compile time.
var (
	_ domain.EventStore     = (*store.MemoryEventStore)(nil)
	_ domain.EventStore     = (*store.SQLiteEventStore)(nil)
	_ domain.EventStore     = (*store.PostgresEventStore)(nil)
	_ domain.EdgeProjection = (*store.EdgeProjectionStore)(nil)
	_ domain.EntityResolver = (*resolver.HTTPResolver)(nil)
	_ domain.EntityResolver = (*resolver.MockResolver)(nil)
	_ domain.Tessellator    = (*service.PrototypeTessellator)(nil)
)
