package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eugenenazirov/sidesplit/internal/api"
	"github.com/eugenenazirov/sidesplit/internal/config"
	"github.com/eugenenazirov/sidesplit/internal/metrics"
	"github.com/eugenenazirov/sidesplit/internal/planner"
	"github.com/eugenenazirov/sidesplit/internal/storage"
)

const metricsNamespace = "sidesplit"

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage  storage.Storage
	planner  *planner.Planner
	registry *prometheus.Registry
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	store := storage.NewMemoryStorage(
		storage.WithMaxPlans(cfg.MaxStoredPlans),
		storage.WithMaxDeadlineSeconds(cfg.MaxDeadlineSeconds),
	)
	if err := store.SetDefaults(cfg.Allocation); err != nil {
		return nil, fmt.Errorf("failed to apply allocation defaults: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := planner.New(
		planner.WithLogger(logger.Named("planner")),
		planner.WithRecorder(metrics.NewPrometheus(registry, metricsNamespace)),
	)
	handler := api.NewHandler(p, store, api.WithMaxDeadlineSeconds(cfg.MaxDeadlineSeconds))
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithAllocationRateLimit(cfg.AllocationRateLimitRPS, cfg.AllocationRateLimitBurst),
	)

	rootHandler := BuildRootHandler(apiRouter, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &App{
		storage:  store,
		planner:  p,
		registry: registry,
		handler:  handler,
		router:   apiRouter,
		logger:   logger,
		server:   NewServer(cfg, rootHandler),
	}, nil
}

// BuildRootHandler mounts the API router under /api/ and the metrics
// endpoint under /metrics.
func BuildRootHandler(apiHandler, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the root handler, primarily for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}
