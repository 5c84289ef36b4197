package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/sp3dr4/linkie/internal/domain"
)

type MappingStore struct {
	db *sqlx.DB
}

func NewMappingStore(db *sqlx.DB) *MappingStore {
	return &MappingStore{db: db}
}

func (s *MappingStore) Put(ctx context.Context, shortCode, destinationURL string) error {
	const op = "sqlite.MappingStore.Put"

	mapping, err := domain.NewMapping(shortCode, destinationURL)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO shortlinks (short_code, destination_url, created_at)
		VALUES (:short_code, :destination_url, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, mapping); err != nil {
		if isUniqueViolation(err) {
			return domain.E(op, domain.KindStoreConflict, err)
		}
		return domain.E(op, domain.KindStoreUnavailable, err)
	}

	return nil
}

func (s *MappingStore) Get(ctx context.Context, shortCode string) (string, bool, error) {
	var destination string
	query := `SELECT destination_url FROM shortlinks WHERE short_code = ?`

	err := s.db.GetContext(ctx, &destination, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, domain.E("sqlite.MappingStore.Get", domain.KindStoreUnavailable, err)
	}

	return destination, true, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func (s *MappingStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *MappingStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return domain.E("sqlite.MappingStore.HealthCheck", domain.KindStoreUnavailable, errors.New("database connection is nil"))
	}
	var one int
	if err := s.db.GetContext(ctx, &one, `SELECT 1`); err != nil {
		return domain.E("sqlite.MappingStore.HealthCheck", domain.KindStoreUnavailable, err)
	}
	return nil
}
