package history

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndLoadScans(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveScan(Snapshot{
		RunID: "run-1", Module: "Acme_Shop", Timestamp: base,
		TypeCount: 4, MissingCount: 2, UnusedCount: 1,
	}))
	require.NoError(t, store.SaveScan(Snapshot{
		RunID: "run-1", Module: "Acme_Catalog", Timestamp: base,
		TypeCount: 7,
	}))
	// Same module and run id replaces the earlier row.
	require.NoError(t, store.SaveScan(Snapshot{
		RunID: "run-1", Module: "Acme_Shop", Timestamp: base,
		TypeCount: 5, MissingCount: 3, UnusedCount: 1,
	}))
	require.NoError(t, store.SaveScan(Snapshot{
		RunID: "run-2", Module: "Acme_Shop", Timestamp: base.Add(time.Hour),
		TypeCount: 5, MissingCount: 0, DeprecatedCount: 1,
	}))

	shop, err := store.LoadScans("Acme_Shop", time.Time{})
	require.NoError(t, err)
	require.Len(t, shop, 2)
	assert.Equal(t, "run-1", shop[0].RunID)
	assert.Equal(t, 5, shop[0].TypeCount)
	assert.Equal(t, 3, shop[0].MissingCount)
	assert.Equal(t, SchemaVersion, shop[0].SchemaVersion)
	assert.True(t, shop[0].Timestamp.Equal(base))

	recent, err := store.LoadScans("Acme_Shop", base.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "run-2", recent[0].RunID)

	all, err := store.LoadScans("", time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "Acme_Catalog", all[0].Module)
}

func TestStore_SaveValidation(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	assert.Error(t, store.SaveScan(Snapshot{RunID: "r"}))
	assert.Error(t, store.SaveScan(Snapshot{Module: "Acme_Shop"}))
	assert.Error(t, store.SaveScan(Snapshot{Module: "Acme_Shop", RunID: "r", SchemaVersion: 9}))
}

func TestOpen_RejectsBadPaths(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)

	dir := t.TempDir()
	_, err = Open(dir)
	assert.Error(t, err)
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	db, err := sql.Open(driverName, path)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO schema_migrations(version) VALUES (99)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestOpen_ReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveScan(Snapshot{RunID: "r", Module: "Acme_Shop"}))
	require.NoError(t, store.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.LoadScans("Acme_Shop", time.Time{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, path, store.Path())
}

func TestTrends(t *testing.T) {
	trends := Trends([]Snapshot{
		{RunID: "a", MissingCount: 3, UnusedCount: 1},
		{RunID: "b", MissingCount: 1, UnusedCount: 2, DeprecatedCount: 1},
	})
	require.Len(t, trends, 2)
	assert.Zero(t, trends[0].DeltaMissing)
	assert.Equal(t, -2, trends[1].DeltaMissing)
	assert.Equal(t, 1, trends[1].DeltaUnused)
	assert.Equal(t, 1, trends[1].DeltaDeprecated)
}
