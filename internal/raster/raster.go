// Package raster holds the grid geometry and raster value types shared by
// the whole clearing pipeline. A Raster is a flat float64 array over a Grid;
// NaN marks nodata, matching the GeoTIFF convention used by the archive.
package raster

import "math"

// Raster is a single-band 2D grid of float64 values. Cell (row, col) lives
// at Data[row*Grid.Width+col]. NaN means nodata.
type Raster struct {
	Grid Grid
	Data []float64
}

// New returns a zero-filled raster over the given grid.
func New(g Grid) *Raster {
	return &Raster{Grid: g, Data: make([]float64, g.Cells())}
}

// NewFilled returns a raster over g with every cell set to v.
func NewFilled(g Grid, v float64) *Raster {
	r := New(g)
	for i := range r.Data {
		r.Data[i] = v
	}
	return r
}

// FromValues builds a raster from row-major values. The slice is copied.
// Panics if len(values) does not match the grid; this is a programming
// error, not an input error.
func FromValues(g Grid, values []float64) *Raster {
	if len(values) != g.Cells() {
		panic("raster: value count does not match grid")
	}
	r := New(g)
	copy(r.Data, values)
	return r
}

// At returns the value at (row, col).
func (r *Raster) At(row, col int) float64 { return r.Data[r.Grid.Index(row, col)] }

// Set stores v at (row, col).
func (r *Raster) Set(row, col int, v float64) { r.Data[r.Grid.Index(row, col)] = v }

// Clone returns a deep copy sharing no data with the receiver.
func (r *Raster) Clone() *Raster {
	out := New(r.Grid)
	copy(out.Data, r.Data)
	return out
}

// IsNoData reports whether v is the nodata marker.
func IsNoData(v float64) bool { return math.IsNaN(v) }

// NoData is the nodata marker value.
func NoData() float64 { return math.NaN() }
