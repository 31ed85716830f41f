package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"energy-dashboard/application/ports"
	querybus "energy-dashboard/application/queries/bus"
	"energy-dashboard/interfaces/http/rest/handlers"
	"energy-dashboard/interfaces/http/rest/middleware"
	"energy-dashboard/pkg/auth"
	apperrors "energy-dashboard/pkg/errors"
	"energy-dashboard/pkg/observability"
)

// RouterConfig selects the optional router features
type RouterConfig struct {
	Mode          string
	EnableCORS    bool
	CORSOrigins   []string
	EnableMetrics bool
}

// Router creates and configures the HTTP router
type Router struct {
	config       RouterConfig
	queryBus     *querybus.QueryBus
	health       ports.StoreHealth
	validator    *auth.JWTValidator
	errorHandler *apperrors.ErrorHandler
	collector    *observability.Collector
	tracer       *observability.Tracer
	logger       *zap.Logger
}

// NewRouter creates a new router instance. A nil validator disables
// authentication.
func NewRouter(
	config RouterConfig,
	queryBus *querybus.QueryBus,
	health ports.StoreHealth,
	validator *auth.JWTValidator,
	errorHandler *apperrors.ErrorHandler,
	collector *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *Router {
	return &Router{
		config:       config,
		queryBus:     queryBus,
		health:       health,
		validator:    validator,
		errorHandler: errorHandler,
		collector:    collector,
		tracer:       tracer,
		logger:       logger,
	}
}

// Setup configures all routes and middleware. Energy routes are served both
// at the root and under /api.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.config.EnableMetrics {
		router.Use(middleware.Metrics(rt.collector))
	}
	router.Use(rt.tracer.Middleware)

	if rt.config.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.config.CORSOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
			MaxAge:         300,
		}))
	}

	system := handlers.NewSystemHandler(rt.config.Mode, rt.health, rt.queryBus, rt.errorHandler, rt.logger)
	router.Get("/health", system.Health)
	router.Get("/ready", system.Ready)
	if rt.config.EnableMetrics {
		router.Method(http.MethodGet, "/metrics", rt.collector.Handler())
	}

	energy := handlers.NewEnergyHandler(rt.queryBus, rt.errorHandler, rt.logger)
	routes := func(r chi.Router) {
		if rt.validator != nil {
			r.Use(middleware.Authenticate(rt.validator, rt.errorHandler, rt.logger))
		}
		r.Route("/energy", func(r chi.Router) {
			r.Get("/", energy.GetSeries)
			r.Get("/latest", energy.GetLatest)
			r.Get("/kpis", energy.GetKpis)
			r.Get("/range", energy.GetRange)
			r.Get("/history", energy.GetHistory)
			r.Get("/export", energy.ExportDataLog)
			r.Get("/chart", energy.GetChart)
		})
		r.Get("/debug/raw", system.DebugRaw)
	}
	router.Group(routes)
	router.Route("/api", func(r chi.Router) {
		r.Get("/health", system.Health)
		r.Group(routes)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.HandleStatus(w, r, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return router
}
