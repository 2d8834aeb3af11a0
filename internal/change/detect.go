// Package change detects woody→non-woody transitions between binary
// rasters and tracks the first clearing year across an annual sequence.
package change

import (
	"github.com/HMB3/AUS-Land-Clearing/internal/raster"
)

// DetectClearing flags cells that transitioned woody (1) to non-woody (0)
// between two co-registered binary rasters: output is 1 where before=1 and
// after=0, 0 everywhere else. The detector is deliberately asymmetric:
// non-woody→woody regrowth is not detected and is out of scope here.
// Nodata in either input yields 0 (no evidence of clearing).
func DetectClearing(before, after *raster.Raster) (*raster.Raster, error) {
	if err := raster.CheckSameGrid(before, after); err != nil {
		return nil, err
	}
	out := raster.New(before.Grid)
	for i := range out.Data {
		if before.Data[i] == 1 && after.Data[i] == 0 {
			out.Data[i] = 1
		}
	}
	return out, nil
}
