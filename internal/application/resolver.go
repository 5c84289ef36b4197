package application

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sp3dr4/linkie/internal/domain"
	"github.com/sp3dr4/linkie/internal/pkg/logging"
	"github.com/sp3dr4/linkie/internal/pkg/metrics"
)

const (
	DefaultCacheTTL = time.Hour

	defaultLookupTimeout = 5 * time.Second
	defaultWarmTimeout   = 2 * time.Second
)

// CacheTTL is how long a resolved mapping stays in the cache.
type CacheTTL time.Duration

// Resolver turns short codes into destinations using the cache-aside
// protocol: cache first, store on a miss, then repopulate the cache.
//
// The store is the only source of truth. Cache failures are logged and
// treated as misses; they never fail a resolution.
type Resolver struct {
	store   domain.MappingStore
	cache   domain.Cache
	ttl     time.Duration
	logger  *slog.Logger
	metrics metrics.Registry

	lookupTimeout time.Duration
	warmTimeout   time.Duration

	loads singleflight.Group
}

func NewResolver(store domain.MappingStore, cache domain.Cache, ttl CacheTTL, logger *slog.Logger, registry metrics.Registry) *Resolver {
	if ttl <= 0 {
		ttl = CacheTTL(DefaultCacheTTL)
	}
	if registry == nil {
		registry = metrics.NewNoOpRegistry()
	}
	return &Resolver{
		store:         store,
		cache:         cache,
		ttl:           time.Duration(ttl),
		logger:        logger,
		metrics:       registry,
		lookupTimeout: defaultLookupTimeout,
		warmTimeout:   defaultWarmTimeout,
	}
}

type loadResult struct {
	destinationURL string
	found          bool
}

// Resolve returns Found or NotFound. The only error it reports is
// KindStoreUnavailable: "could not check" is never reported as NotFound.
func (r *Resolver) Resolve(ctx context.Context, shortCode string) (domain.Outcome, error) {
	logger := logging.FromContextOr(ctx, r.logger)

	if destination, ok := r.lookupCache(ctx, logger, shortCode); ok {
		r.metrics.IncRedirects(metrics.OutcomeFound)
		return domain.Found(destination), nil
	}

	// Concurrent misses for one code share a single store read. The shared
	// read must not die with whichever request happened to start it.
	v, err, _ := r.loads.Do(shortCode, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.lookupTimeout)
		defer cancel()
		return r.load(loadCtx, logger, shortCode)
	})
	if err != nil {
		r.metrics.IncRedirects(metrics.OutcomeError)
		if domain.KindOf(err) != domain.KindStoreUnavailable {
			err = domain.E("application.Resolver.Resolve", domain.KindStoreUnavailable, err)
		}
		return domain.Outcome{}, err
	}

	res := v.(loadResult)
	if !res.found {
		r.metrics.IncRedirects(metrics.OutcomeNotFound)
		return domain.NotFound(), nil
	}

	r.metrics.IncRedirects(metrics.OutcomeFound)
	return domain.Found(res.destinationURL), nil
}

func (r *Resolver) lookupCache(ctx context.Context, logger *slog.Logger, shortCode string) (string, bool) {
	destination, ok, err := r.cache.Get(ctx, shortCode)
	switch {
	case err != nil:
		r.metrics.IncCacheLookups(metrics.CacheError)
		logger.Warn("Cache lookup failed, falling back to store", "short_code", shortCode, "error", err)
		return "", false
	case !ok:
		r.metrics.IncCacheLookups(metrics.CacheMiss)
		return "", false
	default:
		r.metrics.IncCacheLookups(metrics.CacheHit)
		return destination, true
	}
}

func (r *Resolver) load(ctx context.Context, logger *slog.Logger, shortCode string) (loadResult, error) {
	destination, ok, err := r.store.Get(ctx, shortCode)
	if err != nil {
		logger.Error("Store lookup failed", "short_code", shortCode, "error", err)
		return loadResult{}, err
	}
	if !ok {
		return loadResult{}, nil
	}

	r.warm(ctx, logger, shortCode, destination)
	return loadResult{destinationURL: destination, found: true}, nil
}

// warm populates the cache after a store hit. Failure is discarded.
func (r *Resolver) warm(ctx context.Context, logger *slog.Logger, shortCode, destination string) {
	ctx, cancel := context.WithTimeout(ctx, r.warmTimeout)
	defer cancel()

	if err := r.cache.Set(ctx, shortCode, destination, r.ttl); err != nil {
		r.metrics.IncCacheWriteFailures()
		logger.Warn("Failed to populate cache", "short_code", shortCode, "error", err)
		return
	}
	logger.Debug("Cache populated", "short_code", shortCode, "ttl", r.ttl)
}

