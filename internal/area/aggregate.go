// Package area sums per-cell area by raster category within a region.
package area

import (
	"fmt"
	"math"

	"github.com/HMB3/AUS-Land-Clearing/internal/raster"
)

// Aggregate sums per-cell area for each distinct non-background value of r
// inside the region mask. Background (0) and nodata cells are skipped.
// Weights supplies per-cell area in squared CRS units; nil means the
// uniform cell area of the grid. A region covering no qualifying cells
// yields an empty map; absence of a category is valid output, not an
// error. Only cells whose centroid falls in the region (the mask rule)
// contribute; outside cells are excluded, not zero-padded.
func Aggregate(r *raster.Raster, mask []bool, weights []float64) (map[int]float64, error) {
	if mask != nil && len(mask) != r.Grid.Cells() {
		return nil, fmt.Errorf("mask length %d does not match grid %s", len(mask), r.Grid)
	}
	if weights != nil && len(weights) != r.Grid.Cells() {
		return nil, fmt.Errorf("weight length %d does not match grid %s", len(weights), r.Grid)
	}

	cellArea := r.Grid.CellArea()
	areas := make(map[int]float64)
	for i, v := range r.Data {
		if mask != nil && !mask[i] {
			continue
		}
		if raster.IsNoData(v) || v == 0 {
			continue
		}
		w := cellArea
		if weights != nil {
			w = weights[i]
		}
		areas[int(math.Round(v))] += w
	}
	return areas, nil
}

// Total sums all category areas in an aggregation result.
func Total(areas map[int]float64) float64 {
	var total float64
	for _, a := range areas {
		total += a
	}
	return total
}
