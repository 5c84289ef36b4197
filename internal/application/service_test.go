package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/linkie/internal/domain"
	"github.com/sp3dr4/linkie/internal/pkg/qrcode"
)

const testBaseURL = "http://localhost:8080"

type serviceFixture struct {
	store    *countingStore
	cache    *mapCache
	registry *recordingRegistry
	service  *URLService
}

func newServiceFixture(t *testing.T, gen CodeGenerator, qr QREncoder) *serviceFixture {
	t.Helper()
	if gen == nil {
		gen = NewRandomCodeGenerator(DefaultShortCodeLength)
	}

	f := &serviceFixture{
		store:    newCountingStore(),
		cache:    newMapCache(),
		registry: newRecordingRegistry(),
	}
	logger := discardLogger()
	resolver := NewResolver(f.store, f.cache, CacheTTL(time.Hour), logger, f.registry)
	f.service = NewURLService(
		f.store,
		resolver,
		gen,
		NewLinkValidator("localhost:8080"),
		qr,
		ServiceConfig{BaseURL: testBaseURL + "/", MaxGenerationAttempts: 3},
		logger,
		f.registry,
	)
	return f
}

// sequenceGenerator yields codes in order, then fails.
func sequenceGenerator(codes ...string) GeneratorFunc {
	i := 0
	return func() (string, error) {
		if i >= len(codes) {
			return "", errors.New("sequence exhausted")
		}
		code := codes[i]
		i++
		return code, nil
	}
}

type failingQR struct{}

func (failingQR) DataURI(string) (string, error) { return "", errors.New("encoder broke") }

func TestURLService_RoundTrip(t *testing.T) {
	f := newServiceFixture(t, nil, qrcode.NewEncoder(0))
	ctx := context.Background()

	resp, err := f.service.CreateShortURL(ctx, CreateURLRequest{URL: "https://example.com/page"})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(resp.ShortURL, testBaseURL+"/"))
	code := strings.TrimPrefix(resp.ShortURL, testBaseURL+"/")
	assert.Len(t, code, 8)
	assert.Equal(t, code, resp.ShortCode)
	assert.True(t, strings.HasPrefix(resp.QRCode, "data:image/png;base64,"))

	out, err := f.service.Resolve(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, domain.Found("https://example.com/page"), out)
	assert.Equal(t, 1, f.registry.count("links_created"))
}

func TestURLService_CreateDoesNotTouchCache(t *testing.T) {
	f := newServiceFixture(t, sequenceGenerator("aB3xY9kQ"), nil)

	_, err := f.service.CreateShortURL(context.Background(), CreateURLRequest{URL: "https://example.com"})
	require.NoError(t, err)

	_, cached := f.cache.entry("aB3xY9kQ")
	assert.False(t, cached)
}

func TestURLService_RetriesOnConflict(t *testing.T) {
	f := newServiceFixture(t, sequenceGenerator("taken001", "taken002", "fresh003"), nil)
	ctx := context.Background()
	require.NoError(t, f.store.MappingStore.Put(ctx, "taken001", "https://other.example/1"))
	require.NoError(t, f.store.MappingStore.Put(ctx, "taken002", "https://other.example/2"))

	resp, err := f.service.CreateShortURL(ctx, CreateURLRequest{URL: "https://example.com/page"})
	require.NoError(t, err)
	assert.Equal(t, testBaseURL+"/fresh003", resp.ShortURL)
	assert.Equal(t, int64(3), f.store.puts.Load())
	assert.Equal(t, 2, f.registry.count("conflicts"))

	// Existing mappings are untouched.
	url, _, err := f.store.Get(ctx, "taken001")
	require.NoError(t, err)
	assert.Equal(t, "https://other.example/1", url)
}

func TestURLService_GenerationExhausted(t *testing.T) {
	f := newServiceFixture(t, sequenceGenerator("taken001", "taken001", "taken001", "fresh004"), nil)
	ctx := context.Background()
	require.NoError(t, f.store.MappingStore.Put(ctx, "taken001", "https://other.example/1"))

	resp, err := f.service.CreateShortURL(ctx, CreateURLRequest{URL: "https://example.com/page"})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrGenerationExhausted)
	assert.Equal(t, int64(3), f.store.puts.Load())
	assert.Zero(t, f.registry.count("links_created"))
}

func TestURLService_InvalidLinks(t *testing.T) {
	f := newServiceFixture(t, nil, nil)

	for _, candidate := range []string{
		"not a url",
		"javascript:alert(1)",
		"https://example.com/?q=1",
		"http://localhost:8080/aB3xY9kQ",
	} {
		_, err := f.service.CreateShortURL(context.Background(), CreateURLRequest{URL: candidate})
		assert.ErrorIs(t, err, domain.ErrInvalidLink, candidate)
	}
	assert.Zero(t, f.store.puts.Load(), "invalid links never reach the store")
}

func TestURLService_RequestValidation(t *testing.T) {
	f := newServiceFixture(t, nil, nil)

	tests := []struct {
		name string
		url  string
		tag  string
	}{
		{name: "missing url", url: "", tag: "required"},
		{name: "oversized url", url: "https://example.com/" + strings.Repeat("a", 2048), tag: "max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreateShortURL(context.Background(), CreateURLRequest{URL: tt.url})
			require.ErrorIs(t, err, domain.ErrInvalidLink)

			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, "url", verrs[0].Field())
			assert.Equal(t, tt.tag, verrs[0].Tag())
		})
	}
}

func TestURLService_StoreUnavailable(t *testing.T) {
	f := newServiceFixture(t, nil, nil)
	f.store.failing.Store(true)

	_, err := f.service.CreateShortURL(context.Background(), CreateURLRequest{URL: "https://example.com"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, int64(1), f.store.puts.Load(), "only conflicts are retried")
}

func TestURLService_GeneratorFailure(t *testing.T) {
	f := newServiceFixture(t, sequenceGenerator(), nil)

	_, err := f.service.CreateShortURL(context.Background(), CreateURLRequest{URL: "https://example.com"})
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
}

func TestURLService_QRFailureIsNotFatal(t *testing.T) {
	f := newServiceFixture(t, sequenceGenerator("aB3xY9kQ"), failingQR{})

	resp, err := f.service.CreateShortURL(context.Background(), CreateURLRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, testBaseURL+"/aB3xY9kQ", resp.ShortURL)
	assert.Empty(t, resp.QRCode)
}

func TestNewURLService_DefaultsAttempts(t *testing.T) {
	s := NewURLService(nil, nil, nil, nil, nil, ServiceConfig{BaseURL: "https://lnk.example///"}, discardLogger(), nil)
	assert.Equal(t, DefaultMaxGenerationAttempts, s.cfg.MaxGenerationAttempts)
	assert.Equal(t, "https://lnk.example", s.cfg.BaseURL)
}
