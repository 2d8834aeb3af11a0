package change

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HMB3/AUS-Land-Clearing/internal/composite"
	"github.com/HMB3/AUS-Land-Clearing/internal/raster"
)

func testGrid(w, h int) raster.Grid {
	return raster.Grid{
		CRS: "EPSG:3577", OriginX: 0, OriginY: 0,
		CellWidth: 25, CellHeight: 25, Width: w, Height: h,
	}
}

func binary(values ...float64) *raster.Raster {
	return raster.FromValues(testGrid(len(values), 1), values)
}

func layer(year int, values ...float64) composite.AnnualLayer {
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return composite.AnnualLayer{
		Year:   year,
		Start:  start,
		End:    start.AddDate(1, 0, 0),
		Binary: binary(values...),
	}
}

func TestDetectClearing(t *testing.T) {
	t.Parallel()

	t.Run("flags woody to non-woody only", func(t *testing.T) {
		t.Parallel()
		before := binary(1, 1, 0, 0)
		after := binary(0, 1, 1, 0)
		cleared, err := DetectClearing(before, after)
		require.NoError(t, err)
		// 1->0 clears; 1->1, 0->1 (regrowth) and 0->0 do not.
		assert.Equal(t, []float64{1, 0, 0, 0}, cleared.Data)
	})

	t.Run("identical rasters detect nothing", func(t *testing.T) {
		t.Parallel()
		r := binary(1, 0, 1, 0)
		cleared, err := DetectClearing(r, r)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0, 0, 0}, cleared.Data)
	})

	t.Run("nodata in either input is no evidence", func(t *testing.T) {
		t.Parallel()
		before := binary(raster.NoData(), 1, 1)
		after := binary(0, raster.NoData(), 0)
		cleared, err := DetectClearing(before, after)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0, 1}, cleared.Data)
	})

	t.Run("grid mismatch is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := DetectClearing(binary(1), raster.New(testGrid(2, 2)))
		var mismatch *raster.GridMismatchError
		require.ErrorAs(t, err, &mismatch)
	})
}

func TestTrackFirstClearing(t *testing.T) {
	t.Parallel()

	t.Run("records the year of first transition", func(t *testing.T) {
		t.Parallel()
		first, err := TrackFirstClearing([]composite.AnnualLayer{
			layer(2018, 1, 1, 0),
			layer(2019, 0, 1, 0),
			layer(2020, 0, 0, 0),
		})
		require.NoError(t, err)
		assert.Equal(t, []float64{2019, 2020, 0}, first.Data)
	})

	t.Run("first layer seeds the baseline and records nothing", func(t *testing.T) {
		t.Parallel()
		first, err := TrackFirstClearing([]composite.AnnualLayer{
			layer(2018, 0),
		})
		require.NoError(t, err)
		assert.Equal(t, []float64{0}, first.Data)
	})

	t.Run("write once survives regrowth and reclearing", func(t *testing.T) {
		t.Parallel()
		// Cell clears in 2019, regrows in 2020, clears again in 2021.
		// The recorded year must stay 2019.
		first, err := TrackFirstClearing([]composite.AnnualLayer{
			layer(2018, 1),
			layer(2019, 0),
			layer(2020, 1),
			layer(2021, 0),
		})
		require.NoError(t, err)
		assert.Equal(t, 2019.0, first.Data[0])
	})

	t.Run("never cleared cells hold zero", func(t *testing.T) {
		t.Parallel()
		first, err := TrackFirstClearing([]composite.AnnualLayer{
			layer(2018, 1, 0),
			layer(2019, 1, 0),
		})
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0}, first.Data)
	})

	t.Run("empty sequence", func(t *testing.T) {
		t.Parallel()
		_, err := TrackFirstClearing(nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEmptySequence{})
	})

	t.Run("years must be strictly increasing", func(t *testing.T) {
		t.Parallel()
		_, err := TrackFirstClearing([]composite.AnnualLayer{
			layer(2019, 1),
			layer(2018, 0),
		})
		require.Error(t, err)

		var outOfOrder *NonMonotonicYearsError
		require.ErrorAs(t, err, &outOfOrder)
		assert.Equal(t, 2019, outOfOrder.Prev)
		assert.Equal(t, 2018, outOfOrder.Next)

		_, err = TrackFirstClearing([]composite.AnnualLayer{
			layer(2019, 1),
			layer(2019, 0),
		})
		assert.Error(t, err)
	})
}
