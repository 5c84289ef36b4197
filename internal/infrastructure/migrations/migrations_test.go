package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const migrationsDir = "../../../migrations"

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open(DriverSQLite, filepath.Join(t.TempDir(), "linkie.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUp_SQLite(t *testing.T) {
	db := openSQLite(t)

	require.NoError(t, Up(db, DriverSQLite, migrationsDir))

	var version int
	var dirty bool
	require.NoError(t, db.QueryRow("SELECT version, dirty FROM schema_migrations").Scan(&version, &dirty))
	assert.Equal(t, 1, version)
	assert.False(t, dirty)

	_, err := db.Exec("INSERT INTO shortlinks (short_code, destination_url, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
		"aB3xY9kQ", "https://example.com")
	require.NoError(t, err)
}

func TestUp_AlreadyCurrent(t *testing.T) {
	db := openSQLite(t)

	require.NoError(t, Up(db, DriverSQLite, migrationsDir))
	require.NoError(t, Up(db, DriverSQLite, migrationsDir))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUp_Errors(t *testing.T) {
	db := openSQLite(t)

	err := Up(db, "mysql", migrationsDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")

	err = Up(db, DriverSQLite, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create migrate instance")
}
