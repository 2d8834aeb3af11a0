package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/airbusgeo/godal"

	"github.com/HMB3/AUS-Land-Clearing/internal/composite"
	"github.com/HMB3/AUS-Land-Clearing/internal/monitoring"
	"github.com/HMB3/AUS-Land-Clearing/internal/raster"
)

var registerDrivers sync.Once

// GeoTIFFArchive reads time-stamped land-cover rasters from a directory of
// GeoTIFF files. Files are named <anything>_<YYYY-MM-DD>.tif; the date is
// the acquisition timestamp. Files that do not match are skipped with a
// diagnostic, not treated as errors.
type GeoTIFFArchive struct {
	Dir string
}

// NewGeoTIFFArchive opens a directory-backed archive.
func NewGeoTIFFArchive(dir string) (*GeoTIFFArchive, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("archive directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("archive path %s is not a directory", dir)
	}
	registerDrivers.Do(godal.RegisterAll)
	return &GeoTIFFArchive{Dir: dir}, nil
}

// Observations scans the directory and loads every raster acquired in
// [start, end), ordered by acquisition date.
func (a *GeoTIFFArchive) Observations(ctx context.Context, start, end time.Time) ([]composite.Observation, error) {
	entries, err := filepath.Glob(filepath.Join(a.Dir, "*.tif"))
	if err != nil {
		return nil, fmt.Errorf("scan archive directory: %w", err)
	}
	sort.Strings(entries)

	var out []composite.Observation
	for _, path := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ts, ok := timestampFromName(path)
		if !ok {
			monitoring.Logf("archive: skipping %s: no acquisition date in filename", filepath.Base(path))
			continue
		}
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		r, err := ReadGeoTIFF(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		out = append(out, composite.Observation{Raster: r, Time: ts})
	}
	return out, nil
}

// timestampFromName parses the trailing _YYYY-MM-DD date of a filename.
func timestampFromName(path string) (time.Time, bool) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	idx := strings.LastIndex(base, "_")
	if idx < 0 || idx+1 >= len(base) {
		return time.Time{}, false
	}
	ts, err := time.Parse("2006-01-02", base[idx+1:])
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}

// ReadGeoTIFF loads band 1 of a GeoTIFF into a Raster. The grid geometry
// comes from the dataset's geotransform; rotated transforms are rejected
// because the pipeline's grid model is axis-aligned.
func ReadGeoTIFF(path string) (*raster.Raster, error) {
	registerDrivers.Do(godal.RegisterAll)

	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer ds.Close()

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("read geotransform: %w", err)
	}
	if gt[2] != 0 || gt[4] != 0 {
		return nil, fmt.Errorf("rotated geotransform in %s is not supported", path)
	}

	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, fmt.Errorf("dataset %s has no bands", path)
	}
	band := bands[0]
	st := band.Structure()

	grid := raster.Grid{
		CRS:        ds.Projection(),
		OriginX:    gt[0],
		OriginY:    gt[3],
		CellWidth:  gt[1],
		CellHeight: -gt[5],
		Width:      st.SizeX,
		Height:     st.SizeY,
	}

	data := make([]float64, grid.Cells())
	if err := band.Read(0, 0, data, st.SizeX, st.SizeY); err != nil {
		return nil, fmt.Errorf("read band: %w", err)
	}
	return &raster.Raster{Grid: grid, Data: data}, nil
}

// WriteGeoTIFF exports a raster as a single-band float64 GeoTIFF with LZW
// compression, creating parent directories as needed.
func WriteGeoTIFF(r *raster.Raster, path string) error {
	registerDrivers.Do(godal.RegisterAll)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float64,
		r.Grid.Width, r.Grid.Height,
		godal.CreationOption("COMPRESS=LZW"))
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	defer ds.Close()

	gt := [6]float64{r.Grid.OriginX, r.Grid.CellWidth, 0, r.Grid.OriginY, 0, -r.Grid.CellHeight}
	if err := ds.SetGeoTransform(gt); err != nil {
		return fmt.Errorf("set geotransform: %w", err)
	}
	if r.Grid.CRS != "" {
		if err := ds.SetProjection(r.Grid.CRS); err != nil {
			return fmt.Errorf("set projection: %w", err)
		}
	}

	band := ds.Bands()[0]
	if err := band.Write(0, 0, r.Data, r.Grid.Width, r.Grid.Height); err != nil {
		return fmt.Errorf("write band: %w", err)
	}
	return nil
}
