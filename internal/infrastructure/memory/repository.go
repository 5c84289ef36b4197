package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sp3dr4/linkie/internal/domain"
)

// MappingStore keeps mappings in process memory. Intended for development
// and tests; everything is lost on restart.
type MappingStore struct {
	mappings map[string]domain.Mapping
	mu       sync.RWMutex
	now      func() time.Time
}

func NewMappingStore() *MappingStore {
	return &MappingStore{
		mappings: make(map[string]domain.Mapping),
		now:      time.Now,
	}
}

func (s *MappingStore) Put(ctx context.Context, shortCode, destinationURL string) error {
	const op = "memory.MappingStore.Put"

	if err := ctx.Err(); err != nil {
		return domain.E(op, domain.KindStoreUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.mappings[shortCode]; exists {
		return domain.E(op, domain.KindStoreConflict, nil)
	}

	s.mappings[shortCode] = domain.Mapping{
		ShortCode:      shortCode,
		DestinationURL: destinationURL,
		CreatedAt:      s.now().UTC(),
	}
	return nil
}

func (s *MappingStore) Get(ctx context.Context, shortCode string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, domain.E("memory.MappingStore.Get", domain.KindStoreUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.mappings[shortCode]
	if !exists {
		return "", false, nil
	}
	return m.DestinationURL, true, nil
}

func (s *MappingStore) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mappings)
}

func (s *MappingStore) Close() error {
	return nil
}

func (s *MappingStore) HealthCheck(ctx context.Context) error {
	return nil
}
