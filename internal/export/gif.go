package export

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"

	"github.com/HMB3/AUS-Land-Clearing/internal/composite"
	"github.com/HMB3/AUS-Land-Clearing/internal/fsutil"
	"github.com/HMB3/AUS-Land-Clearing/internal/raster"
)

// Frame palette: nodata, non-woody, woody.
var layerPalette = color.Palette{
	color.RGBA{A: 0xff},                            // 0: nodata, black
	color.RGBA{R: 0xdf, G: 0xc2, B: 0x7d, A: 0xff}, // 1: non-woody, tan
	color.RGBA{R: 0x1b, G: 0x78, B: 0x37, A: 0xff}, // 2: woody, green
}

// layerImage renders a binary woody layer as a paletted image.
func layerImage(r *raster.Raster) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, r.Grid.Width, r.Grid.Height), layerPalette)
	for row := 0; row < r.Grid.Height; row++ {
		for col := 0; col < r.Grid.Width; col++ {
			v := r.At(row, col)
			idx := uint8(0)
			switch {
			case raster.IsNoData(v):
				idx = 0
			case v >= 0.5:
				idx = 2
			default:
				idx = 1
			}
			img.SetColorIndex(col, row, idx)
		}
	}
	return img
}

// WriteAnimation assembles annual woody layers into a looping animated
// GIF at the given frame rate, mirroring the per-year timeseries
// animation the analysis publishes.
func WriteAnimation(layers []composite.AnnualLayer, fps int, fs fsutil.FileSystem, path string) error {
	if len(layers) == 0 {
		return fmt.Errorf("no layers to animate")
	}
	if fps < 1 {
		fps = 1
	}
	delay := 100 / fps // in hundredths of a second

	anim := &gif.GIF{LoopCount: 0}
	for _, layer := range layers {
		anim.Image = append(anim.Image, layerImage(layer.Binary))
		anim.Delay = append(anim.Delay, delay)
	}

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := gif.EncodeAll(f, anim); err != nil {
		f.Close()
		return fmt.Errorf("encode animation: %w", err)
	}
	return f.Close()
}
