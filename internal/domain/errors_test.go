package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := E("postgres.Put", KindStoreConflict, errors.New("duplicate key"))
	wrapped := fmt.Errorf("create: %w", err)

	assert.ErrorIs(t, wrapped, ErrStoreConflict)
	assert.NotErrorIs(t, wrapped, ErrStoreUnavailable)
	assert.Equal(t, KindStoreConflict, KindOf(wrapped))
}

func TestError_Message(t *testing.T) {
	err := E("resolve", KindStoreUnavailable, errors.New("connection refused"))
	assert.Equal(t, "resolve: store unavailable: connection refused", err.Error())
	assert.Equal(t, "invalid link", ErrInvalidLink.Error())
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestRetryAfterOf(t *testing.T) {
	err := &Error{Kind: KindRateLimited, RetryAfter: 42 * time.Second}
	assert.Equal(t, 42*time.Second, RetryAfterOf(fmt.Errorf("admit: %w", err)))
	assert.Zero(t, RetryAfterOf(errors.New("other")))
}

func TestNewMapping(t *testing.T) {
	m, err := NewMapping("abcd1234", "https://example.com")
	assert.NoError(t, err)
	assert.Equal(t, "abcd1234", m.ShortCode)
	assert.False(t, m.CreatedAt.IsZero())

	_, err = NewMapping("", "https://example.com")
	assert.Equal(t, KindInternal, KindOf(err))

	_, err = NewMapping("abcd1234", " ")
	assert.ErrorIs(t, err, ErrInvalidLink)
}
