package validate

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HMB3/AUS-Land-Clearing/internal/raster"
)

func testGrid(w, h int) raster.Grid {
	return raster.Grid{
		CRS: "EPSG:3577", OriginX: 0, OriginY: 0,
		CellWidth: 10, CellHeight: 10, Width: w, Height: h,
	}
}

func binary(values ...float64) *raster.Raster {
	return raster.FromValues(testGrid(len(values), 1), values)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("every cell lands in exactly one bucket", func(t *testing.T) {
		t.Parallel()
		derived := binary(1, 1, 0, 0)
		reference := binary(1, 0, 1, 0)
		stats, err := Validate(derived, reference, nil, nil)
		require.NoError(t, err)

		assert.Equal(t, 100.0, stats.TruePositiveArea)
		assert.Equal(t, 100.0, stats.FalsePositiveArea)
		assert.Equal(t, 100.0, stats.FalseNegativeArea)
		assert.Equal(t, 100.0, stats.TrueNegativeArea)

		assert.Equal(t, 0.5, stats.Precision)
		assert.Equal(t, 0.5, stats.Recall)
		assert.Equal(t, 0.5, stats.F1)
		assert.Equal(t, 0.5, stats.OverallAccuracy)
	})

	t.Run("perfect agreement", func(t *testing.T) {
		t.Parallel()
		derived := binary(1, 0, 1)
		stats, err := Validate(derived, derived.Clone(), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 1.0, stats.Precision)
		assert.Equal(t, 1.0, stats.Recall)
		assert.Equal(t, 1.0, stats.F1)
		assert.Equal(t, 1.0, stats.OverallAccuracy)
	})

	t.Run("degenerate all-negative case yields NaN ratios", func(t *testing.T) {
		t.Parallel()
		derived := binary(0, 0)
		reference := binary(0, 0)
		stats, err := Validate(derived, reference, nil, nil)
		require.NoError(t, err)

		// No positives anywhere: precision and recall are undefined, and
		// must not read as 0 (total disagreement).
		assert.True(t, math.IsNaN(stats.Precision))
		assert.True(t, math.IsNaN(stats.Recall))
		assert.True(t, math.IsNaN(stats.F1))
		assert.Equal(t, 1.0, stats.OverallAccuracy)
		assert.Equal(t, 200.0, stats.TrueNegativeArea)
	})

	t.Run("nodata in either raster is excluded", func(t *testing.T) {
		t.Parallel()
		derived := binary(raster.NoData(), 1, 1)
		reference := binary(1, raster.NoData(), 1)
		stats, err := Validate(derived, reference, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 100.0, stats.TruePositiveArea)
		assert.Zero(t, stats.FalsePositiveArea)
		assert.Zero(t, stats.FalseNegativeArea)
		assert.Zero(t, stats.TrueNegativeArea)
	})

	t.Run("mask restricts the comparison", func(t *testing.T) {
		t.Parallel()
		derived := binary(1, 1)
		reference := binary(0, 1)
		stats, err := Validate(derived, reference, []bool{false, true}, nil)
		require.NoError(t, err)
		assert.Equal(t, 100.0, stats.TruePositiveArea)
		assert.Zero(t, stats.FalsePositiveArea)
	})

	t.Run("weights override the uniform cell area", func(t *testing.T) {
		t.Parallel()
		derived := binary(1, 0)
		reference := binary(1, 1)
		stats, err := Validate(derived, reference, nil, []float64{30, 70})
		require.NoError(t, err)
		assert.Equal(t, 30.0, stats.TruePositiveArea)
		assert.Equal(t, 70.0, stats.FalseNegativeArea)
		assert.Equal(t, 0.3, stats.Recall)
	})

	t.Run("grid mismatch is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := Validate(binary(1), raster.New(testGrid(2, 2)), nil, nil)
		var mismatch *raster.GridMismatchError
		require.ErrorAs(t, err, &mismatch)
	})

	t.Run("mask and weight lengths must match the grid", func(t *testing.T) {
		t.Parallel()
		r := binary(1, 0)
		_, err := Validate(r, r.Clone(), []bool{true}, nil)
		assert.Error(t, err)
		_, err = Validate(r, r.Clone(), nil, []float64{1})
		assert.Error(t, err)
	})
}

func TestConfusionStatsJSON(t *testing.T) {
	t.Parallel()

	t.Run("NaN metrics marshal to null", func(t *testing.T) {
		t.Parallel()
		stats := ConfusionStats{
			TrueNegativeArea: 200,
			Precision:        math.NaN(),
			Recall:           math.NaN(),
			F1:               math.NaN(),
			OverallAccuracy:  1,
		}
		data, err := json.Marshal(stats)
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.Nil(t, raw["precision"])
		assert.Nil(t, raw["recall"])
		assert.Nil(t, raw["f1"])
		assert.Equal(t, 1.0, raw["overall_accuracy"])
		assert.Equal(t, 200.0, raw["true_negative_area"])
	})

	t.Run("null metrics unmarshal to NaN", func(t *testing.T) {
		t.Parallel()
		var stats ConfusionStats
		err := json.Unmarshal([]byte(`{
			"true_positive_area": 50,
			"precision": null,
			"recall": 0.5,
			"f1": null,
			"overall_accuracy": null
		}`), &stats)
		require.NoError(t, err)
		assert.Equal(t, 50.0, stats.TruePositiveArea)
		assert.True(t, math.IsNaN(stats.Precision))
		assert.Equal(t, 0.5, stats.Recall)
		assert.True(t, math.IsNaN(stats.F1))
		assert.True(t, math.IsNaN(stats.OverallAccuracy))
	})
}
