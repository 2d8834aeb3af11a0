// Package archive supplies the pipeline's external collaborators: the
// land-cover raster archive, the reference clearing-polygon archive and
// the region/boundary provider. The core pipeline only sees the
// interfaces; GeoTIFF and GeoJSON backed implementations live here too.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/HMB3/AUS-Land-Clearing/internal/composite"
	"github.com/HMB3/AUS-Land-Clearing/internal/region"
	"github.com/HMB3/AUS-Land-Clearing/internal/security"
)

// LandCoverArchive supplies time-stamped land-cover code rasters. It may
// return zero observations for a window; the compositor decides how to
// handle that.
type LandCoverArchive interface {
	// Observations returns all rasters acquired in [start, end), in
	// acquisition order.
	Observations(ctx context.Context, start, end time.Time) ([]composite.Observation, error)
}

// ReferenceArchive supplies independent ground-truth clearing polygons
// used by the validator's upstream rasterization.
type ReferenceArchive interface {
	// ClearingFeatures returns the reference polygons mapped for a year.
	ClearingFeatures(ctx context.Context, year int) ([]region.Feature, error)
}

// RegionProvider supplies regions of interest by name.
type RegionProvider interface {
	Region(name string) (*region.RegionOfInterest, error)
}

// MemoryArchive is an in-memory LandCoverArchive for tests and small runs.
type MemoryArchive struct {
	Obs []composite.Observation
}

func (m *MemoryArchive) Observations(_ context.Context, start, end time.Time) ([]composite.Observation, error) {
	var out []composite.Observation
	for _, obs := range m.Obs {
		if !obs.Time.Before(start) && obs.Time.Before(end) {
			out = append(out, obs)
		}
	}
	return out, nil
}

// MemoryReference is an in-memory ReferenceArchive keyed by year.
type MemoryReference struct {
	Features map[int][]region.Feature
}

func (m *MemoryReference) ClearingFeatures(_ context.Context, year int) ([]region.Feature, error) {
	return m.Features[year], nil
}

// DirRegionProvider resolves region names against a directory of GeoJSON
// boundary files, falling back to the built-in study areas. The fallback
// only covers an absent boundary file; a file that exists but cannot be
// parsed is an error, never a quiet swap to the coarse builtin bbox.
type DirRegionProvider struct {
	Dir string
}

func (p *DirRegionProvider) Region(name string) (*region.RegionOfInterest, error) {
	if p.Dir != "" {
		// Region names arrive from flags and API requests; keep lookups
		// inside the boundary directory.
		path := filepath.Join(p.Dir, name+".geojson")
		if err := security.ValidatePathWithinDirectory(path, p.Dir); err == nil {
			if _, statErr := os.Stat(path); statErr == nil {
				roi, err := region.LoadGeoJSON(path, name)
				if err != nil {
					return nil, fmt.Errorf("region %q: %w", name, err)
				}
				return roi, nil
			}
		}
	}
	roi, err := region.Builtin(name)
	if err != nil {
		return nil, fmt.Errorf("region %q: no boundary file under %s and no builtin", name, p.Dir)
	}
	return roi, nil
}
