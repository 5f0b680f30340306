package database

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_CreatesSchemaAndIsRepeatable(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrations := filepath.Join("..", "..", "db", "migrations")
	require.NoError(t, Migrate(db, migrations))
	require.NoError(t, Migrate(db, migrations), "second run has nothing to apply")

	for _, table := range []string{"users", "onboarding", "report_exports"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}

	var index string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_users_customer_id'`).Scan(&index)
	assert.NoError(t, err, "customer ids are unique per user")

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestMigrationsSourceURL(t *testing.T) {
	url, err := MigrationsSourceURL("db/migrations")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"))
	assert.True(t, strings.HasSuffix(url, "/db/migrations"))
}
