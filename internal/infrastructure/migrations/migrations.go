// Package migrations applies the versioned SQL schema in migrations/<dialect>.
package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Up applies every pending migration from dir/<dialect>, where dialect is
// "sqlite" or "postgres". An already current schema is not an error.
func Up(db *sql.DB, driverName, dir string) error {
	var (
		driver  database.Driver
		dialect string
		err     error
	)

	switch driverName {
	case DriverSQLite:
		dialect = "sqlite"
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case DriverPostgres:
		dialect = "postgres"
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		return fmt.Errorf("unsupported driver: %s", driverName)
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	abs, err := filepath.Abs(filepath.Join(dir, dialect))
	if err != nil {
		return fmt.Errorf("failed to resolve migrations path: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(abs), driverName, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	slog.Info("Migrations completed successfully", "driver", driverName, "version", version, "dirty", dirty)
	return nil
}
