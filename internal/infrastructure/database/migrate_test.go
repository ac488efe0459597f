package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatements(t *testing.T) {
	stmts := statements("CREATE TABLE a (id INT);\n\nCREATE INDEX i ON a (id);\n")
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE INDEX i ON a (id)"}, stmts)
}

func TestLoadMigrations_BothDialects(t *testing.T) {
	for _, d := range []Dialect{DialectMySQL, DialectSQLite} {
		ms, err := loadMigrations(d)
		require.NoError(t, err)
		require.NotEmpty(t, ms)
		assert.Equal(t, 1, ms[0].Version)
	}
}

func TestMigrate_SQLiteIsIdempotent(t *testing.T) {
	conn, err := OpenSQLite(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	v, err := Migrate(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = Migrate(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	var n int
	require.NoError(t, conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM crm_pipelines").Scan(&n))
	assert.Equal(t, 0, n)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestDialectRowLocks(t *testing.T) {
	assert.True(t, DialectMySQL.SupportsRowLocks())
	assert.False(t, DialectSQLite.SupportsRowLocks())
}
