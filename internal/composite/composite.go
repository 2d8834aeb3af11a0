// Package composite reduces temporally irregular stacks of observations
// into one representative raster per window (typically a calendar year).
package composite

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/HMB3/AUS-Land-Clearing/internal/raster"
)

// Observation is a raster tagged with its acquisition time.
type Observation struct {
	Raster *raster.Raster
	Time   time.Time
}

// Reducer collapses the per-cell values of all in-window observations to a
// single value. It is called once per cell with the non-nodata values only.
type Reducer func(values []float64) float64

// Median is the default reducer. Values are sorted in place. LinInterp
// gives the conventional median: the mean of the middle pair for even
// counts, so an even woody/non-woody split yields 0.5.
func Median(values []float64) float64 {
	sort.Float64s(values)
	return stat.Quantile(0.5, stat.LinInterp, values, nil)
}

// Mean reduces to the arithmetic mean, useful for fractional-cover bands.
func Mean(values []float64) float64 {
	return stat.Mean(values, nil)
}

// Options tunes a composite. The zero value means: median reducer, no
// minimum observation count.
type Options struct {
	// Reducer applied per cell; nil means Median.
	Reducer Reducer
	// MinObservations is the count below which the composite is still
	// produced but flagged Degraded. Zero disables the check.
	MinObservations int
}

// Result is a composite raster plus provenance about how it was produced.
type Result struct {
	Raster *raster.Raster
	// Observations is the number of observations that fell in the window.
	Observations int
	// Degraded is set when fewer than Options.MinObservations contributed.
	// Degraded composites are usable for visualisation but carry reduced
	// confidence for change detection.
	Degraded bool
}

// InsufficientObservationsError is returned when no observation falls in
// the requested window. Callers decide whether to skip the year, widen the
// window, or fail the run.
type InsufficientObservationsError struct {
	Start, End time.Time
}

func (e *InsufficientObservationsError) Error() string {
	return fmt.Sprintf("no observations in window [%s, %s)",
		e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

// Composite reduces all observations with Start <= t < End to a single
// raster using the per-cell reducer. Every contributing observation must
// share the grid of the first one; mismatches fail with GridMismatchError.
// Cells where every contributing observation is nodata come out nodata.
func Composite(observations []Observation, start, end time.Time, opts Options) (*Result, error) {
	reduce := opts.Reducer
	if reduce == nil {
		reduce = Median
	}

	var selected []Observation
	for _, obs := range observations {
		if !obs.Time.Before(start) && obs.Time.Before(end) {
			selected = append(selected, obs)
		}
	}
	if len(selected) == 0 {
		return nil, &InsufficientObservationsError{Start: start, End: end}
	}

	grid := selected[0].Raster.Grid
	for _, obs := range selected[1:] {
		if err := raster.CheckSameGrid(selected[0].Raster, obs.Raster); err != nil {
			return nil, err
		}
	}

	out := raster.New(grid)
	values := make([]float64, 0, len(selected))
	for i := range out.Data {
		values = values[:0]
		for _, obs := range selected {
			if v := obs.Raster.Data[i]; !raster.IsNoData(v) {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			out.Data[i] = raster.NoData()
			continue
		}
		out.Data[i] = reduce(values)
	}

	return &Result{
		Raster:       out,
		Observations: len(selected),
		Degraded:     opts.MinObservations > 0 && len(selected) < opts.MinObservations,
	}, nil
}

// AnnualLayer is a binary woody raster for one calendar year, produced by
// compositing the year's classified observations. Immutable once created;
// downstream components key on Year.
type AnnualLayer struct {
	Year     int
	Start    time.Time
	End      time.Time
	Binary   *raster.Raster
	Degraded bool
}

// YearWindow returns the half-open calendar-year window [Jan 1 year,
// Jan 1 year+1) in UTC.
func YearWindow(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// AnnualComposite builds the AnnualLayer for one year from binary
// observations, binarising the median at 0.5 so ties round to woody.
func AnnualComposite(observations []Observation, year int, opts Options) (*AnnualLayer, error) {
	start, end := YearWindow(year)
	res, err := Composite(observations, start, end, opts)
	if err != nil {
		return nil, err
	}
	for i, v := range res.Raster.Data {
		if raster.IsNoData(v) {
			continue
		}
		if v >= 0.5 {
			res.Raster.Data[i] = 1
		} else {
			res.Raster.Data[i] = 0
		}
	}
	return &AnnualLayer{
		Year:     year,
		Start:    start,
		End:      end,
		Binary:   res.Raster,
		Degraded: res.Degraded,
	}, nil
}
