package store

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMigrations(t *testing.T, files map[string]string) []Migration {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, script := range files {
		fsys["migrations/"+name] = &fstest.MapFile{Data: []byte(script)}
	}
	migrations, err := LoadMigrations(fsys, "migrations")
	require.NoError(t, err)
	return migrations
}

func TestLoadMigrationsSortedByVersion(t *testing.T) {
	t.Parallel()

	migrations := testMigrations(t, map[string]string{
		"0002_later.sql":     "CREATE TABLE b (id TEXT)",
		"0000_first.sql":     "CREATE TABLE a (id TEXT)",
		"0010_evenlater.sql": "CREATE TABLE c (id TEXT)",
	})

	require.Len(t, migrations, 3)
	assert.Equal(t, []int{0, 2, 10}, []int{
		migrations[0].Version, migrations[1].Version, migrations[2].Version,
	})
}

func TestLoadMigrationsRejectsBadNames(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"migrations/nonsense.sql": &fstest.MapFile{Data: []byte("SELECT 1")},
	}
	_, err := LoadMigrations(fsys, "migrations")
	assert.Error(t, err)

	fsys = fstest.MapFS{
		"migrations/0001_a.sql": &fstest.MapFile{Data: []byte("SELECT 1")},
		"migrations/0001_b.sql": &fstest.MapFile{Data: []byte("SELECT 1")},
	}
	_, err = LoadMigrations(fsys, "migrations")
	assert.Error(t, err, "duplicate versions must be rejected")
}

func TestMigrateAppliesInOrder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	migrations := testMigrations(t, map[string]string{
		"0000_base.sql":  "CREATE TABLE items (id TEXT PRIMARY KEY, name TEXT)",
		"0001_sizes.sql": "ALTER TABLE items ADD COLUMN size INTEGER NOT NULL DEFAULT 0",
	})
	require.NoError(t, db.Migrate(ctx, migrations))

	// Both scripts applied: the altered column exists.
	_, err := db.Exec(ctx, "INSERT INTO items (id, name, size) VALUES ('1', 'a', 2)")
	require.NoError(t, err)

	version, err := db.ledgerVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestMigrateIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	migrations := testMigrations(t, map[string]string{
		"0000_base.sql": "CREATE TABLE items (id TEXT PRIMARY KEY)",
	})
	require.NoError(t, db.Migrate(ctx, migrations))
	before, err := db.ledgerVersion(ctx)
	require.NoError(t, err)

	// A second run applies nothing: the create-table script would fail
	// if re-executed, and the ledger maximum is unchanged.
	require.NoError(t, db.Migrate(ctx, migrations))
	after, err := db.ledgerVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	rows, err := db.Query(ctx, "SELECT COUNT(1) FROM schema_version")
	require.NoError(t, err)
	defer rows.Close()
	var count int
	rows.Next()
	require.NoError(t, rows.Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrateFailureRollsBack(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	migrations := testMigrations(t, map[string]string{
		"0000_base.sql": "CREATE TABLE ok (id TEXT)",
		"0001_bad.sql":  "CREATE TABLE broken (id TEXT; THIS IS NOT SQL",
	})
	err := db.Migrate(ctx, migrations)
	require.Error(t, err)

	// The first script committed, the failing one did not touch the ledger.
	version, lvErr := db.ledgerVersion(ctx)
	require.NoError(t, lvErr)
	assert.Equal(t, 0, version)

	// Re-running after fixing the script applies only the fixed one.
	fixed := testMigrations(t, map[string]string{
		"0000_base.sql": "CREATE TABLE ok (id TEXT)",
		"0001_bad.sql":  "CREATE TABLE broken (id TEXT)",
	})
	require.NoError(t, db.Migrate(ctx, fixed))
	version, lvErr = db.ledgerVersion(ctx)
	require.NoError(t, lvErr)
	assert.Equal(t, 1, version)
}
