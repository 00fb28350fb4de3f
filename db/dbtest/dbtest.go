// Package dbtest opens migrated databases for tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Dosada05/robot-tournaments/db"
	"github.com/stretchr/testify/require"
)

// MemoryDSN keeps foreign keys on. The pool holds a single connection, so the in-memory
// database lives until the handle is closed.
const MemoryDSN = "file::memory:?_foreign_keys=on"

// PostgresURLEnv names a PostgreSQL database used by OpenConcurrent instead of SQLite.
// Its tables are truncated before every test.
const PostgresURLEnv = "TEST_DATABASE_URL"

var tables = []string{
	"competitor_cooldowns", "tournament_prizes", "robot_stats", "club_scores",
	"competitor_scores", "matches", "registrations", "tournaments",
}

// Open returns a fresh database with every migration applied. It is closed on test cleanup.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	conn, err := db.Connect(db.DriverSQLite, MemoryDSN, 5*time.Second)
	require.NoError(t, err, "failed to open in-memory database")
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite), "failed to run migrations")
	return conn
}

// FileDSN is a file-backed SQLite database in WAL mode. Transactions stay deferred, so
// only the statements inside a transaction decide when it takes the write lock.
func FileDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=10000", path)
}

// OpenConcurrent returns a migrated database whose pool serves several connections at
// once, so concurrent transactions really overlap. PostgreSQL is used when
// TEST_DATABASE_URL is set, a file-backed SQLite database otherwise.
func OpenConcurrent(t testing.TB) *sql.DB {
	t.Helper()

	if url := os.Getenv(PostgresURLEnv); url != "" {
		return openPostgres(t, url)
	}

	path := filepath.Join(t.TempDir(), "tournaments.db")
	conn, err := db.Connect(db.DriverSQLite, FileDSN(path), 5*time.Second)
	require.NoError(t, err, "failed to open file database")
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite), "failed to run migrations")
	require.Greater(t, conn.Stats().MaxOpenConnections, 1)
	return conn
}

func openPostgres(t testing.TB, url string) *sql.DB {
	t.Helper()

	conn, err := db.Connect(db.DriverPostgres, url, 5*time.Second)
	require.NoError(t, err, "failed to connect to %s", PostgresURLEnv)
	t.Cleanup(func() { _ = conn.Close() })

	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx, conn, db.DriverPostgres), "failed to run migrations")

	query := "TRUNCATE " + tables[0]
	for _, table := range tables[1:] {
		query += ", " + table
	}
	_, err = conn.ExecContext(ctx, query+" RESTART IDENTITY CASCADE")
	require.NoError(t, err, "failed to reset tables")
	return conn
}
