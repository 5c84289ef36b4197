package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sp3dr4/linkie/internal/application"
	"github.com/sp3dr4/linkie/internal/domain"
	"github.com/sp3dr4/linkie/internal/pkg/logging"
)

const (
	healthTimeout   = 5 * time.Second
	maxRequestBytes = 16 << 10

	msgInvalidLink   = "Invalid link provided"
	msgInvalidBody   = "Invalid request body"
	msgRateLimited   = "Too many requests, slow down!"
	msgInternal      = "Internal server error"
	msgUnavailable   = "Service unavailable"
	statusOK         = "OK"
	dependencyOK     = "ok"
	cacheDegraded    = "degraded"
	readinessReady   = "ready"
	readinessFailed  = "not_ready"
	storeUnavailable = "unavailable"
)

type Handlers struct {
	service *application.URLService
	store   domain.MappingStore
	cache   domain.Cache
}

func NewHandlers(service *application.URLService, store domain.MappingStore, cache domain.Cache) *Handlers {
	return &Handlers{
		service: service,
		store:   store,
		cache:   cache,
	}
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status string `json:"status" example:"OK"`
}

// ReadinessResponse reports each dependency. A degraded cache does not make
// the service unready.
type ReadinessResponse struct {
	Status    string `json:"status" example:"ready"`
	Store     string `json:"store" example:"ok"`
	Cache     string `json:"cache" example:"ok"`
	Timestamp string `json:"timestamp" example:"2024-01-31T12:00:00Z"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string            `json:"error" example:"Invalid link provided"`
	Details map[string]string `json:"details,omitempty"`
}

// HandleHealth handles the health check endpoint.
//
//	@Summary		Health check endpoint
//	@Description	Reports OK when the persistent store answers a liveness query
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/health [get]
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.store.HealthCheck(ctx); err != nil {
		logging.FromContext(r.Context()).Error("Health check failed", "error", err)
		respondWithJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: msgUnavailable})
		return
	}

	respondWithJSON(w, http.StatusOK, HealthResponse{Status: statusOK})
}

// HandleReady handles the readiness check endpoint.
//
//	@Summary		Readiness check endpoint
//	@Description	Check the store and the cache. A failing cache only degrades the service.
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	ReadinessResponse	"Service is ready"
//	@Failure		503	{object}	ReadinessResponse	"Service is not ready"
//	@Router			/ready [get]
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	logger := logging.FromContext(r.Context())

	resp := ReadinessResponse{
		Status:    readinessReady,
		Store:     dependencyOK,
		Cache:     dependencyOK,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK

	if err := h.store.HealthCheck(ctx); err != nil {
		logger.Error("Readiness check failed", "dependency", "store", "error", err)
		resp.Status = readinessFailed
		resp.Store = storeUnavailable
		code = http.StatusServiceUnavailable
	}

	if err := h.cache.Ping(ctx); err != nil {
		logger.Warn("Cache is degraded", "error", err)
		resp.Cache = cacheDegraded
	}

	respondWithJSON(w, code, resp)
}

// HandleShorten handles the URL shortening endpoint.
//
//	@Summary		Create a short URL
//	@Description	Create a shortened URL from a long URL
//	@Tags			urls
//	@Accept			json
//	@Produce		json
//	@Param			request	body		application.CreateURLRequest	true	"URL to shorten"
//	@Success		201		{object}	application.ShortenResponse		"Successfully created short URL"
//	@Failure		400		{object}	ErrorResponse					"Invalid link or request body"
//	@Failure		429		{object}	ErrorResponse					"Rate limit exceeded"
//	@Failure		500		{object}	ErrorResponse					"Internal server error"
//	@Router			/shorten [post]
func (h *Handlers) HandleShorten(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req application.CreateURLRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		logger.Warn("Failed to decode request", "error", err)
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgInvalidBody})
		return
	}

	response, err := h.service.CreateShortURL(r.Context(), req)
	if err != nil {
		respondWithDomainError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, response)
}

// HandleRedirect handles the redirect endpoint.
//
//	@Summary		Redirect to the destination URL
//	@Description	Temporary redirect to the URL stored under the short code
//	@Tags			urls
//	@Param			shortCode	path	string	true	"Short code"
//	@Success		307			"Redirect to destination URL"
//	@Failure		404			"HTML not found page"
//	@Failure		500			{object}	ErrorResponse	"Store unavailable"
//	@Router			/{shortCode} [get]
func (h *Handlers) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")
	logger := logging.FromContext(r.Context())

	outcome, err := h.service.Resolve(r.Context(), shortCode)
	if err != nil {
		respondWithDomainError(w, logger, err)
		return
	}

	if !outcome.Found {
		h.HandleNotFound(w, r)
		return
	}

	logger.Debug("Redirecting", "short_code", shortCode, "destination_url", outcome.DestinationURL)
	http.Redirect(w, r, outcome.DestinationURL, http.StatusTemporaryRedirect)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// statusFor maps every error kind to a response. Internal detail never
// reaches the client.
func statusFor(kind domain.Kind) (int, string) {
	switch kind {
	case domain.KindInvalidLink:
		return http.StatusBadRequest, msgInvalidLink
	case domain.KindRateLimited:
		return http.StatusTooManyRequests, msgRateLimited
	case domain.KindStoreUnavailable:
		return http.StatusInternalServerError, msgInternal
	case domain.KindStoreConflict:
		return http.StatusInternalServerError, msgInternal
	case domain.KindGenerationExhausted:
		return http.StatusInternalServerError, msgInternal
	case domain.KindCacheUnavailable:
		return http.StatusInternalServerError, msgInternal
	case domain.KindInternal:
		return http.StatusInternalServerError, msgInternal
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func respondWithDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := domain.KindOf(err)
	code, message := statusFor(kind)
	resp := ErrorResponse{Error: message}

	switch {
	case code >= http.StatusInternalServerError:
		logger.Error("Request failed", "kind", kind.String(), "error", err)
	case kind == domain.KindRateLimited:
		logger.Info("Request rate limited", "retry_after", domain.RetryAfterOf(err))
	default:
		logger.Info("Request rejected", "kind", kind.String(), "error", err)
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		resp.Details = validationDetails(validationErrors)
	}

	respondWithJSON(w, code, resp)
}

func validationDetails(validationErrors validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			details[field] = fmt.Sprintf("%s is required", field)
		case "url":
			details[field] = fmt.Sprintf("%s must be a valid URL", field)
		case "max":
			details[field] = fmt.Sprintf("%s must be at most %s characters long", field, e.Param())
		default:
			details[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return details
}
