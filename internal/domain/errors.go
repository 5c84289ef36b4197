package domain

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies every failure the service can report. The set is closed:
// callers switch on it to pick a response, nothing else is inspected.
type Kind uint8

const (
	KindInternal Kind = iota
	KindInvalidLink
	KindRateLimited
	KindStoreUnavailable
	KindStoreConflict
	KindCacheUnavailable
	KindGenerationExhausted
)

// Kinds lists every Kind, in declaration order.
var Kinds = []Kind{
	KindInternal,
	KindInvalidLink,
	KindRateLimited,
	KindStoreUnavailable,
	KindStoreConflict,
	KindCacheUnavailable,
	KindGenerationExhausted,
}

func (k Kind) String() string {
	switch k {
	case KindInvalidLink:
		return "invalid link"
	case KindRateLimited:
		return "rate limit exceeded"
	case KindStoreUnavailable:
		return "store unavailable"
	case KindStoreConflict:
		return "store conflict"
	case KindCacheUnavailable:
		return "cache unavailable"
	case KindGenerationExhausted:
		return "short code generation exhausted"
	default:
		return "internal error"
	}
}

// Error is the classified error type returned across layer boundaries.
type Error struct {
	Kind Kind
	Op   string
	Err  error

	// RetryAfter is set for KindRateLimited.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match against the bare sentinels below, so
// errors.Is(err, ErrStoreConflict) holds for any conflict regardless of Op.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// E builds a classified error.
func E(op string, kind Kind, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

var (
	ErrInvalidLink         = &Error{Kind: KindInvalidLink}
	ErrRateLimited         = &Error{Kind: KindRateLimited}
	ErrStoreUnavailable    = &Error{Kind: KindStoreUnavailable}
	ErrStoreConflict       = &Error{Kind: KindStoreConflict}
	ErrCacheUnavailable    = &Error{Kind: KindCacheUnavailable}
	ErrGenerationExhausted = &Error{Kind: KindGenerationExhausted}

	ErrEmptyShortCode = errors.New("short code is empty")
)

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// RetryAfterOf returns the retry hint carried by a rate-limit error.
func RetryAfterOf(err error) time.Duration {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}
