package http

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sp3dr4/linkie/internal/domain"
	"github.com/sp3dr4/linkie/internal/pkg/logging"
	"github.com/sp3dr4/linkie/internal/pkg/metrics"
	"github.com/sp3dr4/linkie/internal/ratelimit"
)

// LoggingMiddleware attaches a request-scoped logger carrying the request and
// trace IDs, and logs one line when the request starts and one when it ends.
// The completion line names the short code when the route matched one.
func LoggingMiddleware(baseLogger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			if reqID := middleware.GetReqID(ctx); reqID != "" {
				ctx = logging.WithRequestID(ctx, reqID)
			}

			traceID := r.Header.Get("X-Trace-Id")
			if traceID == "" {
				traceID = logging.GenerateTraceID()
			}
			ctx = logging.WithTraceID(ctx, traceID)
			w.Header().Set("X-Trace-Id", traceID)

			requestLogger := logging.NewRequestLogger(ctx, baseLogger).With("client", clientKey(r))
			ctx = logging.WithLogger(ctx, requestLogger)

			requestLogger.Debug("Request started",
				"method", r.Method,
				"path", r.URL.Path,
				"user_agent", r.UserAgent(),
			)

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r.WithContext(ctx))

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", ww.statusCode,
				"duration_ms", float64(time.Since(start).Nanoseconds()) / 1e6,
			}
			if code := routeShortCode(ctx); code != "" {
				attrs = append(attrs, "short_code", code)
			}
			if ww.statusCode >= http.StatusInternalServerError {
				requestLogger.Error("Request failed", attrs...)
				return
			}
			requestLogger.Info("Request completed", attrs...)
		})
	}
}

// routeShortCode reads the {shortCode} URL parameter once chi has routed.
func routeShortCode(ctx context.Context) string {
	rctx := chi.RouteContext(ctx)
	if rctx == nil {
		return ""
	}
	return rctx.URLParam("shortCode")
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RateLimitMiddleware rejects requests from clients that exceeded their
// window with 429 and a Retry-After header. Clients are keyed by the host of
// r.RemoteAddr, which is the socket peer unless the router was built with
// trusted proxy headers.
func RateLimitMiddleware(limiter ratelimit.Limiter, registry metrics.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := limiter.Admit(clientKey(r))
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			if domain.KindOf(err) == domain.KindRateLimited {
				registry.IncRateLimited()
				w.Header().Set("Retry-After", retryAfterSeconds(domain.RetryAfterOf(err)))
			}
			respondWithDomainError(w, logging.FromContext(r.Context()), err)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
