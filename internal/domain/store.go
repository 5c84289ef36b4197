package domain

import "context"

// MappingStore is the durable source of truth for mappings.
//
// Put fails with KindStoreConflict when the short code is taken and with
// KindStoreUnavailable on any other failure. Get reports absence through its
// bool result, never through an error.
type MappingStore interface {
	Put(ctx context.Context, shortCode, destinationURL string) error
	Get(ctx context.Context, shortCode string) (string, bool, error)
	HealthCheck(ctx context.Context) error
	Close() error
}
