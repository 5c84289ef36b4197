package metrics

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// GetRoutePath extracts the route pattern from the request context so that
// every short code is reported under one label value.
func GetRoutePath(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	return NormalizePath(r.URL.Path)
}

// NormalizePath maps raw paths onto the router's patterns for requests that
// never matched a route.
func NormalizePath(path string) string {
	switch {
	case path == "" || path == "/":
		return "/"
	case path == "/health", path == "/ready", path == "/metrics", path == "/shorten", path == "/redoc":
		return path
	case strings.HasPrefix(path, "/swagger"):
		return "/swagger/*"
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 1 && segments[0] != "" {
		return "/{shortCode}"
	}

	return "other"
}

// FormatStatusCode converts an integer status code to string
func FormatStatusCode(statusCode int) string {
	return strconv.Itoa(statusCode)
}
