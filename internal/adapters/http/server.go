package http

import (
	"log/slog"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpswagger "github.com/swaggo/http-swagger"

	"github.com/sp3dr4/linkie/config"
	"github.com/sp3dr4/linkie/internal/pkg/metrics"
	"github.com/sp3dr4/linkie/internal/ratelimit"
)

func NewRouter(
	handlers *Handlers,
	logger *slog.Logger,
	cfg *config.Config,
	metricsRegistry metrics.Registry,
	limiter ratelimit.Limiter,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.Server.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(LoggingMiddleware(logger))
	r.Use(metrics.PrometheusMiddleware(metricsRegistry, cfg.Metrics.Path))
	r.Use(middleware.Recoverer)

	r.NotFound(handlers.HandleNotFound)
	r.MethodNotAllowed(handlers.HandleNotFound)

	r.Get("/", handlers.HandleIndex)
	r.Get("/health", handlers.HandleHealth)
	r.Get("/ready", handlers.HandleReady)

	if cfg.Metrics.Enabled && metricsRegistry.GetHandler() != nil {
		r.Handle(cfg.Metrics.Path, metricsRegistry.GetHandler())
	}

	r.Get("/swagger/*", httpswagger.Handler(
		httpswagger.URL(strings.TrimRight(cfg.App.BaseURL, "/")+"/swagger/doc.json"),
	))
	r.Get("/redoc", handleRedoc)

	r.With(RateLimitMiddleware(limiter, metricsRegistry)).Post("/shorten", handlers.HandleShorten)

	r.Get("/{shortCode}", handlers.HandleRedirect)
	r.Head("/{shortCode}", handlers.HandleRedirect)

	return r
}
