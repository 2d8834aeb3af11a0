package db

import (
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HMB3/AUS-Land-Clearing/internal/validate"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "clearing_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunLifecycle(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	require.NoError(t, db.RecordRun("run-1", "queensland", 1988, 2024))
	require.NoError(t, db.FinishRun("run-1", 35, 2))

	var processed, skipped int
	err := db.QueryRow(
		"SELECT years_processed, years_skipped FROM runs WHERE run_id = ?", "run-1").
		Scan(&processed, &skipped)
	require.NoError(t, err)
	assert.Equal(t, 35, processed)
	assert.Equal(t, 2, skipped)
}

func TestClearingAreas(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	require.NoError(t, db.RecordRun("run-1", "queensland", 2018, 2020))
	require.NoError(t, db.RecordClearingArea("run-1", "queensland", 2020, "cleared", 2500))
	require.NoError(t, db.RecordClearingArea("run-1", "queensland", 2019, "cleared", 1250))
	require.NoError(t, db.RecordClearingArea("run-1", "new_south_wales", 2019, "cleared", 99))

	rows, err := db.ClearingAreas("queensland")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Year order, regardless of insert order.
	assert.Equal(t, 2019, rows[0].Year)
	assert.Equal(t, 1250.0, rows[0].AreaM2)
	assert.Equal(t, 2020, rows[1].Year)
	assert.Equal(t, "cleared", rows[1].Category)

	rows, err = db.ClearingAreas("tasmania")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestValidationRoundTrip(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	require.NoError(t, db.RecordRun("run-1", "queensland", 2018, 2020))

	t.Run("defined metrics round trip", func(t *testing.T) {
		stats := validate.ConfusionStats{
			TruePositiveArea:  100,
			FalsePositiveArea: 50,
			FalseNegativeArea: 25,
			TrueNegativeArea:  825,
			Precision:         100.0 / 150.0,
			Recall:            0.8,
			F1:                0.7272727272727273,
			OverallAccuracy:   0.925,
		}
		require.NoError(t, db.RecordValidation("run-1", "queensland", 2019, stats))

		rows, err := db.Validations("queensland")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 2019, rows[0].Year)
		assert.Equal(t, stats, rows[0].Stats)
	})

	t.Run("NaN metrics persist as NULL and read back as NaN", func(t *testing.T) {
		stats := validate.ConfusionStats{
			TrueNegativeArea: 1000,
			Precision:        math.NaN(),
			Recall:           math.NaN(),
			F1:               math.NaN(),
			OverallAccuracy:  1,
		}
		require.NoError(t, db.RecordValidation("run-1", "queensland", 2020, stats))

		var precision any
		err := db.QueryRow(
			"SELECT precision FROM validation_results WHERE year = 2020").Scan(&precision)
		require.NoError(t, err)
		assert.Nil(t, precision)

		rows, err := db.Validations("queensland")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		got := rows[1].Stats
		assert.True(t, math.IsNaN(got.Precision))
		assert.True(t, math.IsNaN(got.Recall))
		assert.True(t, math.IsNaN(got.F1))
		assert.Equal(t, 1.0, got.OverallAccuracy)
	})
}

func TestAttachAdminRoutes(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	mux := http.NewServeMux()
	db.AttachAdminRoutes(mux)

	req := httptest.NewRequest("GET", "/debug/schema", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "CREATE TABLE")
	assert.Contains(t, rec.Body.String(), "clearing_area")
}
