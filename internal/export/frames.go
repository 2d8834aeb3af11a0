package export

import (
	"fmt"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/HMB3/AUS-Land-Clearing/internal/fsutil"
	"github.com/HMB3/AUS-Land-Clearing/internal/raster"
)

// rasterGrid adapts a Raster to the plotter heatmap interface. Rows are
// flipped so y increases northward as the plot expects; nodata renders as
// the palette floor.
type rasterGrid struct {
	r *raster.Raster
}

func (g rasterGrid) Dims() (c, r int) { return g.r.Grid.Width, g.r.Grid.Height }

func (g rasterGrid) Z(c, r int) float64 {
	v := g.r.At(g.r.Grid.Height-1-r, c)
	if raster.IsNoData(v) {
		return 0
	}
	return v
}

func (g rasterGrid) X(c int) float64 {
	x, _ := g.r.Grid.Centroid(0, c)
	return x
}

func (g rasterGrid) Y(r int) float64 {
	_, y := g.r.Grid.Centroid(g.r.Grid.Height-1-r, 0)
	return y
}

// RenderHeatmapPNG renders a raster as a PNG heatmap with the given title
// (typically "<region> woody <year>") through the export filesystem.
func RenderHeatmapPNG(r *raster.Raster, title string, fs fsutil.FileSystem, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	hm := plotter.NewHeatMap(rasterGrid{r: r}, palette.Heat(12, 1))
	p.Add(hm)

	wt, err := p.WriterTo(8*vg.Inch, 8*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// EnsureOutputDir creates the export directory tree.
func EnsureOutputDir(fs fsutil.FileSystem, dir string) error {
	if err := fs.MkdirAll(dir, os.FileMode(0755)); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return nil
}
