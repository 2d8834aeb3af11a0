package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HMB3/AUS-Land-Clearing/db"
)

func TestRunMigrations(t *testing.T) {
	t.Parallel()

	results, err := db.NewDB(filepath.Join(t.TempDir(), "migrate_cli_test.db"))
	require.NoError(t, err)
	defer results.Close()

	t.Run("up applies the migration-only indexes", func(t *testing.T) {
		require.NoError(t, runMigrations(results, "up", "migrations"))

		var name string
		err := results.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_clearing_area_region_year'").
			Scan(&name)
		require.NoError(t, err)
		assert.Equal(t, "idx_clearing_area_region_year", name)
	})

	t.Run("version reports without error", func(t *testing.T) {
		assert.NoError(t, runMigrations(results, "version", "migrations"))
	})

	t.Run("down rolls back one step", func(t *testing.T) {
		assert.NoError(t, runMigrations(results, "down", "migrations"))
	})

	t.Run("unknown action errors", func(t *testing.T) {
		err := runMigrations(results, "sideways", "migrations")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sideways")
	})
}
