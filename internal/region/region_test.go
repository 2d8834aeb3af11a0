package region

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HMB3/AUS-Land-Clearing/internal/raster"
)

func TestContains(t *testing.T) {
	t.Parallel()

	roi := &RegionOfInterest{Name: "box", Geom: BBoxPolygon(0, 0, 10, 10)}

	t.Run("inside", func(t *testing.T) {
		t.Parallel()
		assert.True(t, roi.Contains(5, 5))
	})

	t.Run("on the edge counts as inside", func(t *testing.T) {
		t.Parallel()
		assert.True(t, roi.Contains(0, 5))
		assert.True(t, roi.Contains(10, 10))
	})

	t.Run("outside", func(t *testing.T) {
		t.Parallel()
		assert.False(t, roi.Contains(11, 5))
		assert.False(t, roi.Contains(-0.1, 5))
	})
}

func TestMask(t *testing.T) {
	t.Parallel()

	// 4x4 grid of 1-unit cells over [0,4)x[-4,0); centroids at x+0.5, y-0.5.
	g := raster.Grid{
		CRS: "local", OriginX: 0, OriginY: 0,
		CellWidth: 1, CellHeight: 1, Width: 4, Height: 4,
	}

	t.Run("covers the whole grid", func(t *testing.T) {
		t.Parallel()
		roi := &RegionOfInterest{Name: "all", Geom: BBoxPolygon(0, -4, 4, 0)}
		mask := roi.Mask(g)
		require.Len(t, mask, 16)
		for i, in := range mask {
			assert.True(t, in, "cell %d", i)
		}
	})

	t.Run("centroid rule on a partial region", func(t *testing.T) {
		t.Parallel()
		// Region covers x in [0,2): only the left two columns' centroids
		// (0.5 and 1.5) fall inside.
		roi := &RegionOfInterest{Name: "left", Geom: BBoxPolygon(0, -4, 2, 0)}
		mask := roi.Mask(g)
		for row := 0; row < 4; row++ {
			for col := 0; col < 4; col++ {
				want := col < 2
				assert.Equal(t, want, mask[g.Index(row, col)], "row %d col %d", row, col)
			}
		}
	})

	t.Run("disjoint region masks nothing", func(t *testing.T) {
		t.Parallel()
		roi := &RegionOfInterest{Name: "far", Geom: BBoxPolygon(100, 100, 110, 110)}
		for _, in := range roi.Mask(g) {
			assert.False(t, in)
		}
	})
}

func TestBuiltin(t *testing.T) {
	t.Parallel()

	t.Run("known names resolve", func(t *testing.T) {
		t.Parallel()
		for _, name := range BuiltinNames() {
			roi, err := Builtin(name)
			require.NoError(t, err)
			assert.Equal(t, name, roi.Name)
			assert.Positive(t, roi.Area())
		}
	})

	t.Run("unknown name errors", func(t *testing.T) {
		t.Parallel()
		_, err := Builtin("tasmania")
		assert.Error(t, err)
	})

	t.Run("brisbane is in queensland", func(t *testing.T) {
		t.Parallel()
		qld, err := Builtin("queensland")
		require.NoError(t, err)
		assert.True(t, qld.Contains(153.03, -27.47))
		// Sydney is not.
		assert.False(t, qld.Contains(151.21, -33.87))
	})
}

func TestReproject(t *testing.T) {
	t.Parallel()

	const (
		longlat  = "+proj=longlat"
		mercator = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"
	)

	t.Run("degrees to metres", func(t *testing.T) {
		t.Parallel()
		roi := &RegionOfInterest{Name: "box", Geom: BBoxPolygon(0, 0, 1, 1)}
		out, err := roi.Reproject(longlat, mercator)
		require.NoError(t, err)
		assert.Equal(t, "box", out.Name)

		// 1 degree of longitude at the equator is ~111.3 km in web mercator.
		b := out.Geom.Bounds()
		assert.InDelta(t, 111319.5, b.Max.X, 1.0)
		assert.InDelta(t, 0, b.Min.X, 0.001)
	})

	t.Run("bad projection string", func(t *testing.T) {
		t.Parallel()
		roi := &RegionOfInterest{Name: "box", Geom: BBoxPolygon(0, 0, 1, 1)}
		_, err := roi.Reproject("+proj=nonsense", mercator)
		assert.Error(t, err)
	})
}

func TestReprojectTo(t *testing.T) {
	t.Parallel()

	// A 4x4 patch of 25 m Albers cells near the Queensland / New South
	// Wales border, the grid DEA land-cover products are published on.
	g := raster.Grid{
		CRS: "EPSG:3577", OriginX: 2.0e6, OriginY: -3.2e6,
		CellWidth: 25, CellHeight: 25, Width: 4, Height: 4,
	}

	t.Run("degree bbox must be projected before masking", func(t *testing.T) {
		t.Parallel()
		roi, err := Builtin("eastern_australia")
		require.NoError(t, err)
		require.Equal(t, "EPSG:4326", roi.CRS)

		// In raw degree coordinates no Albers cell centroid can fall
		// inside the bbox.
		for _, in := range roi.Mask(g) {
			assert.False(t, in)
		}

		projected, err := roi.ReprojectTo("EPSG:3577")
		require.NoError(t, err)
		assert.Equal(t, "EPSG:3577", projected.CRS)
		mask := projected.Mask(g)
		require.Len(t, mask, 16)
		for i, in := range mask {
			assert.True(t, in, "cell %d", i)
		}
	})

	t.Run("matching CRS is a no-op", func(t *testing.T) {
		t.Parallel()
		roi, err := Builtin("queensland")
		require.NoError(t, err)
		out, err := roi.ReprojectTo("EPSG:4326")
		require.NoError(t, err)
		assert.Same(t, roi, out)
	})

	t.Run("region without a CRS is left alone", func(t *testing.T) {
		t.Parallel()
		roi := &RegionOfInterest{Name: "local", Geom: BBoxPolygon(0, 0, 4, 4)}
		out, err := roi.ReprojectTo("EPSG:3577")
		require.NoError(t, err)
		assert.Same(t, roi, out)
	})

	t.Run("unknown CRS errors", func(t *testing.T) {
		t.Parallel()
		roi := &RegionOfInterest{Name: "box", Geom: BBoxPolygon(0, 0, 1, 1), CRS: "EPSG:99999"}
		_, err := roi.ReprojectTo("EPSG:3577")
		assert.Error(t, err)
	})
}

func TestReadGeoJSON(t *testing.T) {
	t.Parallel()

	t.Run("feature collection with properties", func(t *testing.T) {
		t.Parallel()
		src := `{
			"type": "FeatureCollection",
			"features": [{
				"type": "Feature",
				"geometry": {"type": "Polygon", "coordinates": [[[0,0],[4,0],[4,4],[0,4],[0,0]]]},
				"properties": {"year": 2019, "area_ha": 1.6}
			}]
		}`
		features, err := ReadGeoJSON(strings.NewReader(src))
		require.NoError(t, err)
		require.Len(t, features, 1)
		assert.Equal(t, 2019, features[0].Year)
		assert.Equal(t, 1.6, features[0].AreaHa)
		assert.Equal(t, 16.0, features[0].Geom.Area())
	})

	t.Run("multipolygon geometry", func(t *testing.T) {
		t.Parallel()
		src := `{
			"type": "FeatureCollection",
			"features": [{
				"type": "Feature",
				"geometry": {"type": "MultiPolygon", "coordinates": [
					[[[0,0],[1,0],[1,1],[0,1],[0,0]]],
					[[[2,0],[3,0],[3,1],[2,1],[2,0]]]
				]},
				"properties": {}
			}]
		}`
		features, err := ReadGeoJSON(strings.NewReader(src))
		require.NoError(t, err)
		require.Len(t, features, 1)
		assert.Equal(t, 2.0, features[0].Geom.Area())
	})

	t.Run("unsupported geometry type", func(t *testing.T) {
		t.Parallel()
		src := `{
			"type": "FeatureCollection",
			"features": [{
				"type": "Feature",
				"geometry": {"type": "Point", "coordinates": [0, 0]},
				"properties": {}
			}]
		}`
		_, err := ReadGeoJSON(strings.NewReader(src))
		assert.Error(t, err)
	})

	t.Run("not json", func(t *testing.T) {
		t.Parallel()
		_, err := ReadGeoJSON(strings.NewReader("not geojson"))
		assert.Error(t, err)
	})
}

func TestLoadGeoJSON(t *testing.T) {
	t.Parallel()

	writeBoundary := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "region.geojson")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("single feature", func(t *testing.T) {
		t.Parallel()
		path := writeBoundary(t, `{
			"type": "FeatureCollection",
			"features": [{
				"type": "Feature",
				"geometry": {"type": "Polygon", "coordinates": [[[0,0],[2,0],[2,2],[0,2],[0,0]]]},
				"properties": {}
			}]
		}`)
		roi, err := LoadGeoJSON(path, "test_region")
		require.NoError(t, err)
		assert.Equal(t, "test_region", roi.Name)
		assert.Equal(t, "EPSG:4326", roi.CRS)
		assert.Equal(t, 4.0, roi.Area())
	})

	t.Run("multiple features merge to a multipolygon", func(t *testing.T) {
		t.Parallel()
		path := writeBoundary(t, `{
			"type": "FeatureCollection",
			"features": [
				{"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}, "properties": {}},
				{"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[5,5],[6,5],[6,6],[5,6],[5,5]]]}, "properties": {}}
			]
		}`)
		roi, err := LoadGeoJSON(path, "split")
		require.NoError(t, err)
		assert.Equal(t, 2.0, roi.Area())
		assert.True(t, roi.Contains(0.5, 0.5))
		assert.True(t, roi.Contains(5.5, 5.5))
		assert.False(t, roi.Contains(3, 3))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadGeoJSON(filepath.Join(t.TempDir(), "absent.geojson"), "x")
		assert.Error(t, err)
	})

	t.Run("no polygon features", func(t *testing.T) {
		t.Parallel()
		path := writeBoundary(t, `{"type": "FeatureCollection", "features": []}`)
		_, err := LoadGeoJSON(path, "empty")
		assert.Error(t, err)
	})
}
