package raster

import "fmt"

// Grid describes the geometry shared by every raster in a pipeline run:
// coordinate reference system, top-left origin, cell size and pixel counts.
// All rasters consumed together must carry an identical Grid; operations
// that combine rasters reject mismatches with GridMismatchError rather
// than resampling, because silent resampling corrupts area statistics.
type Grid struct {
	CRS        string  // e.g. "EPSG:3577" (GDA94 / Australian Albers)
	OriginX    float64 // x coordinate of the top-left corner
	OriginY    float64 // y coordinate of the top-left corner
	CellWidth  float64 // cell size along x, in CRS units (positive)
	CellHeight float64 // cell size along y, in CRS units (positive; rows advance south)
	Width      int     // columns
	Height     int     // rows
}

// Cells returns the total number of cells in the grid.
func (g Grid) Cells() int { return g.Width * g.Height }

// Index converts a (row, col) address to a flat data index.
func (g Grid) Index(row, col int) int { return row*g.Width + col }

// Centroid returns the CRS coordinates of the centre of cell (row, col).
func (g Grid) Centroid(row, col int) (x, y float64) {
	x = g.OriginX + (float64(col)+0.5)*g.CellWidth
	y = g.OriginY - (float64(row)+0.5)*g.CellHeight
	return x, y
}

// CellArea returns the area of a single cell in squared CRS units
// (square metres for projected CRSs such as EPSG:3577).
func (g Grid) CellArea() float64 {
	return g.CellWidth * g.CellHeight
}

// Equal reports whether two grids share identical geometry.
func (g Grid) Equal(o Grid) bool {
	return g.CRS == o.CRS &&
		g.OriginX == o.OriginX && g.OriginY == o.OriginY &&
		g.CellWidth == o.CellWidth && g.CellHeight == o.CellHeight &&
		g.Width == o.Width && g.Height == o.Height
}

func (g Grid) String() string {
	return fmt.Sprintf("%dx%d @ %.6g (%s, origin %.6g,%.6g)",
		g.Width, g.Height, g.CellWidth, g.CRS, g.OriginX, g.OriginY)
}

// GridMismatchError is returned when two rasters that must align do not
// share grid geometry. The offending geometries are carried so the caller
// can diagnose the mismatch without re-running the operation.
type GridMismatchError struct {
	Want Grid
	Got  Grid
}

func (e *GridMismatchError) Error() string {
	return fmt.Sprintf("grid mismatch: want %s, got %s", e.Want, e.Got)
}

// CheckSameGrid returns a GridMismatchError unless both rasters share
// identical grid geometry.
func CheckSameGrid(a, b *Raster) error {
	if !a.Grid.Equal(b.Grid) {
		return &GridMismatchError{Want: a.Grid, Got: b.Grid}
	}
	return nil
}
