package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sp3dr4/linkie/internal/domain"
)

const uniqueViolation = "23505"

type MappingStore struct {
	db *sqlx.DB
}

// NewMappingStore wraps db and caps its pool at maxPoolSize open
// connections. Zero leaves the driver default.
func NewMappingStore(db *sqlx.DB, maxPoolSize int) *MappingStore {
	if maxPoolSize > 0 {
		db.SetMaxOpenConns(maxPoolSize)
		db.SetMaxIdleConns(maxPoolSize)
	}
	return &MappingStore{db: db}
}

func (s *MappingStore) Put(ctx context.Context, shortCode, destinationURL string) error {
	mapping, err := domain.NewMapping(shortCode, destinationURL)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO shortlinks (short_code, destination_url, created_at)
		VALUES ($1, $2, $3)
	`
	_, err = s.db.ExecContext(ctx, query, mapping.ShortCode, mapping.DestinationURL, mapping.CreatedAt)
	if err != nil {
		return s.handlePostgreSQLError(err, "postgres.MappingStore.Put")
	}

	slog.Debug("Mapping stored", "short_code", shortCode)
	return nil
}

func (s *MappingStore) Get(ctx context.Context, shortCode string) (string, bool, error) {
	var destination string
	query := `SELECT destination_url FROM shortlinks WHERE short_code = $1`

	err := s.db.GetContext(ctx, &destination, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, s.handlePostgreSQLError(err, "postgres.MappingStore.Get")
	}

	return destination, true, nil
}

// handlePostgreSQLError classifies a driver error. Only a unique violation is
// a conflict; everything else means the store could not serve the request.
func (s *MappingStore) handlePostgreSQLError(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		slog.Error("PostgreSQL error",
			"operation", op,
			"code", pqErr.Code,
			"message", pqErr.Message,
			"detail", pqErr.Detail,
		)
		if pqErr.Code == uniqueViolation {
			return domain.E(op, domain.KindStoreConflict, err)
		}
	}
	return domain.E(op, domain.KindStoreUnavailable, err)
}

func (s *MappingStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *MappingStore) HealthCheck(ctx context.Context) error {
	const op = "postgres.MappingStore.HealthCheck"
	if s.db == nil {
		return domain.E(op, domain.KindStoreUnavailable, errors.New("database connection is nil"))
	}
	var one int
	if err := s.db.GetContext(ctx, &one, `SELECT 1`); err != nil {
		return domain.E(op, domain.KindStoreUnavailable, err)
	}
	return nil
}
