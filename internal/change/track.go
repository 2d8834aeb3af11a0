package change

import (
	"fmt"

	"github.com/HMB3/AUS-Land-Clearing/internal/composite"
	"github.com/HMB3/AUS-Land-Clearing/internal/raster"
)

// ErrEmptySequence is returned by TrackFirstClearing when given no layers.
type ErrEmptySequence struct{}

func (ErrEmptySequence) Error() string { return "empty annual layer sequence" }

// NonMonotonicYearsError reports a layer sequence whose years are not
// strictly increasing.
type NonMonotonicYearsError struct {
	Prev, Next int
}

func (e *NonMonotonicYearsError) Error() string {
	return fmt.Sprintf("annual layers out of order: year %d followed by %d", e.Prev, e.Next)
}

// TrackFirstClearing walks annual binary woody layers in increasing year
// order and records, per cell, the year of the first woody→non-woody
// transition. Cells that never clear hold 0. The fold is write-once: once a
// cell is marked cleared in year Y, later woody/non-woody noise at that
// cell never resets or advances the recorded year. The first layer seeds
// the woody baseline and records no clearing itself.
func TrackFirstClearing(layers []composite.AnnualLayer) (*raster.Raster, error) {
	if len(layers) == 0 {
		return nil, ErrEmptySequence{}
	}
	for i := 1; i < len(layers); i++ {
		if layers[i].Year <= layers[i-1].Year {
			return nil, &NonMonotonicYearsError{Prev: layers[i-1].Year, Next: layers[i].Year}
		}
	}

	acc := raster.New(layers[0].Binary.Grid)
	prev := layers[0].Binary
	for _, layer := range layers[1:] {
		cleared, err := DetectClearing(prev, layer.Binary)
		if err != nil {
			return nil, err
		}
		for i, c := range cleared.Data {
			if c == 1 && acc.Data[i] == 0 {
				acc.Data[i] = float64(layer.Year)
			}
		}
		prev = layer.Binary
	}
	return acc, nil
}
