package application

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sp3dr4/linkie/internal/domain"
	"github.com/sp3dr4/linkie/internal/pkg/logging"
	"github.com/sp3dr4/linkie/internal/pkg/metrics"
)

const DefaultMaxGenerationAttempts = 3

// QREncoder renders content as an image data URI.
type QREncoder interface {
	DataURI(content string) (string, error)
}

type ServiceConfig struct {
	BaseURL               string
	MaxGenerationAttempts int
}

type URLService struct {
	store     domain.MappingStore
	resolver  *Resolver
	generator CodeGenerator
	links     *LinkValidator
	qr        QREncoder
	validate  *validator.Validate
	cfg       ServiceConfig
	logger    *slog.Logger
	metrics   metrics.Registry
}

func NewURLService(
	store domain.MappingStore,
	resolver *Resolver,
	generator CodeGenerator,
	links *LinkValidator,
	qr QREncoder,
	cfg ServiceConfig,
	logger *slog.Logger,
	registry metrics.Registry,
) *URLService {
	if cfg.MaxGenerationAttempts < 1 {
		cfg.MaxGenerationAttempts = DefaultMaxGenerationAttempts
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if registry == nil {
		registry = metrics.NewNoOpRegistry()
	}

	return &URLService{
		store:     store,
		resolver:  resolver,
		generator: generator,
		links:     links,
		qr:        qr,
		validate:  newRequestValidator(),
		cfg:       cfg,
		logger:    logger,
		metrics:   registry,
	}
}

type CreateURLRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

type ShortenResponse struct {
	ShortURL  string `json:"short_url"`
	QRCode    string `json:"qr_code,omitempty"`
	ShortCode string `json:"-"`
}

// CreateShortURL validates the link, stores it under a fresh short code and
// returns the public short URL. A code collision is retried with a new code
// up to the configured number of attempts.
func (s *URLService) CreateShortURL(ctx context.Context, req CreateURLRequest) (*ShortenResponse, error) {
	const op = "application.URLService.CreateShortURL"
	logger := logging.FromContextOr(ctx, s.logger)

	if err := s.validate.Struct(req); err != nil {
		return nil, domain.E(op, domain.KindInvalidLink, err)
	}

	destination, err := s.links.Validate(req.URL)
	if err != nil {
		return nil, err
	}

	shortCode, err := s.insert(ctx, logger, destination)
	if err != nil {
		return nil, err
	}

	shortURL := s.cfg.BaseURL + "/" + shortCode
	resp := &ShortenResponse{
		ShortURL:  shortURL,
		ShortCode: shortCode,
	}

	if s.qr != nil {
		qr, err := s.qr.DataURI(shortURL)
		if err != nil {
			logger.Warn("Failed to render QR code", "short_code", shortCode, "error", err)
		} else {
			resp.QRCode = qr
		}
	}

	s.metrics.IncLinksCreated()
	logger.Info("Created short URL", "short_code", shortCode, "destination_url", destination)
	return resp, nil
}

func (s *URLService) insert(ctx context.Context, logger *slog.Logger, destination string) (string, error) {
	const op = "application.URLService.insert"

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxGenerationAttempts; attempt++ {
		shortCode, err := s.generator.Generate()
		if err != nil {
			return "", domain.E(op, domain.KindInternal, err)
		}

		err = s.store.Put(ctx, shortCode, destination)
		if err == nil {
			return shortCode, nil
		}
		if !errors.Is(err, domain.ErrStoreConflict) {
			return "", err
		}

		lastErr = err
		s.metrics.IncGenerationConflicts()
		logger.Warn("Short code collision, regenerating",
			"short_code", shortCode,
			"attempt", attempt,
			"max_attempts", s.cfg.MaxGenerationAttempts,
		)
	}

	return "", domain.E(op, domain.KindGenerationExhausted, lastErr)
}

// Resolve looks up the destination for a short code.
func (s *URLService) Resolve(ctx context.Context, shortCode string) (domain.Outcome, error) {
	return s.resolver.Resolve(ctx, shortCode)
}

func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
