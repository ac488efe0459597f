package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/infrastructure/database"
)

// openTestDB returns a migrated SQLite database in a temp directory
func openTestDB(t *testing.T) *database.Connection {
	t.Helper()
	conn, err := database.OpenSQLite(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = database.Migrate(context.Background(), conn)
	require.NoError(t, err)
	return conn
}

// newMockConn wraps sqlmock in a MySQL flavoured connection
func newMockConn(t *testing.T) (*database.Connection, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return database.NewConnection(db, database.DialectMySQL), mock
}
