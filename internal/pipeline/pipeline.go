// Package pipeline sequences the annual clearing analysis: classify,
// composite, detect, track, aggregate, validate, persist. Every step is a
// pure transform from internal packages; this package only wires them to
// the archive collaborators and the results store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/HMB3/AUS-Land-Clearing/db"
	"github.com/HMB3/AUS-Land-Clearing/internal/archive"
	"github.com/HMB3/AUS-Land-Clearing/internal/area"
	"github.com/HMB3/AUS-Land-Clearing/internal/change"
	"github.com/HMB3/AUS-Land-Clearing/internal/composite"
	"github.com/HMB3/AUS-Land-Clearing/internal/config"
	"github.com/HMB3/AUS-Land-Clearing/internal/landcover"
	"github.com/HMB3/AUS-Land-Clearing/internal/monitoring"
	"github.com/HMB3/AUS-Land-Clearing/internal/raster"
	"github.com/HMB3/AUS-Land-Clearing/internal/validate"
)

// ClearedCategory names the single category of a clearing raster in area
// records and database rows.
const ClearedCategory = "cleared"

// Pipeline holds the collaborators of one analysis. Reference and Results
// are optional; a nil Reference skips validation and a nil Results store
// skips persistence.
type Pipeline struct {
	Archive   archive.LandCoverArchive
	Reference archive.ReferenceArchive
	Regions   archive.RegionProvider
	Results   *db.DB
	Config    *config.Config
}

// RunSummary is everything one pipeline invocation produced.
type RunSummary struct {
	RunID          string
	Region         string
	YearsProcessed []int
	YearsSkipped   []int
	Layers         []composite.AnnualLayer
	FirstClearing  *raster.Raster
	AnnualClearing map[int]float64 // year -> cleared area, m2
	Validation     map[int]validate.ConfusionStats
}

// Run executes the analysis for one named region over the configured year
// range. Years with no observations are skipped and logged, matching the
// source analysis behaviour; all other failures abort the run.
func (p *Pipeline) Run(ctx context.Context, regionName string) (*RunSummary, error) {
	cfg := p.Config
	if cfg == nil {
		cfg = config.Empty()
	}

	// Surface configuration defects before touching any data.
	classes := cfg.GetClassMap()
	if err := classes.Validate(); err != nil {
		return nil, err
	}

	roi, err := p.Regions.Region(regionName)
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{
		RunID:          uuid.NewString(),
		Region:         regionName,
		AnnualClearing: make(map[int]float64),
		Validation:     make(map[int]validate.ConfusionStats),
	}

	layers, skipped, err := p.buildAnnualLayers(ctx, classes, cfg)
	if err != nil {
		return nil, err
	}
	summary.YearsSkipped = skipped
	summary.Layers = layers
	for _, layer := range layers {
		summary.YearsProcessed = append(summary.YearsProcessed, layer.Year)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("no usable years in %d-%d for region %s",
			cfg.GetStartYear(), cfg.GetEndYear(), regionName)
	}

	// The tracker fold is sequential by design: its write-once invariant
	// depends on strictly increasing year order.
	firstClearing, err := change.TrackFirstClearing(layers)
	if err != nil {
		return nil, err
	}
	summary.FirstClearing = firstClearing

	grid := layers[0].Binary.Grid
	if res := cfg.GetResolution(); grid.CellWidth != res || grid.CellHeight != res {
		monitoring.Logf("pipeline: archive cell size %gx%g differs from configured resolution %g",
			grid.CellWidth, grid.CellHeight, res)
	}

	// Boundary polygons arrive in their own CRS (builtins and GeoJSON are
	// EPSG:4326); statistics are computed on the archive grid, so the region
	// must be brought onto it before masking. An empty mask would silently
	// zero every statistic downstream, so it aborts the run instead.
	workingCRS := grid.CRS
	if workingCRS == "" {
		workingCRS = cfg.GetCRS()
	}
	roi, err = roi.ReprojectTo(workingCRS)
	if err != nil {
		return nil, fmt.Errorf("region %s: %w", regionName, err)
	}
	mask := roi.Mask(grid)
	if !anyCell(mask) {
		return nil, fmt.Errorf("region %s does not intersect the %s grid", regionName, grid)
	}

	if err := p.aggregateAnnual(summary, layers, mask); err != nil {
		return nil, err
	}
	if p.Reference != nil {
		if err := p.validateAnnual(ctx, summary, layers, mask); err != nil {
			return nil, err
		}
	}
	if p.Results != nil {
		if err := p.persist(summary, cfg); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

// anyCell reports whether at least one cell is inside the region mask.
func anyCell(mask []bool) bool {
	for _, in := range mask {
		if in {
			return true
		}
	}
	return false
}

// buildAnnualLayers composites one binary woody layer per year. Composites
// are independent across years and run on a bounded worker pool.
func (p *Pipeline) buildAnnualLayers(ctx context.Context, classes landcover.ClassMap, cfg *config.Config) ([]composite.AnnualLayer, []int, error) {
	type yearResult struct {
		year  int
		layer *composite.AnnualLayer
		skip  bool
		err   error
	}

	var years []int
	for y := cfg.GetStartYear(); y <= cfg.GetEndYear(); y++ {
		years = append(years, y)
	}

	results := make([]yearResult, len(years))
	sem := make(chan struct{}, cfg.GetCompositeWorkers())
	var wg sync.WaitGroup
	for i, year := range years {
		wg.Add(1)
		go func(i, year int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			layer, err := p.buildYear(ctx, classes, cfg, year)
			res := yearResult{year: year, layer: layer}
			var insufficient *composite.InsufficientObservationsError
			if errors.As(err, &insufficient) {
				monitoring.Logf("pipeline: skipping year %d: %v", year, err)
				res.skip = true
			} else if err != nil {
				res.err = err
			}
			results[i] = res
		}(i, year)
	}
	wg.Wait()

	var layers []composite.AnnualLayer
	var skipped []int
	for _, res := range results {
		switch {
		case res.err != nil:
			return nil, nil, fmt.Errorf("year %d: %w", res.year, res.err)
		case res.skip:
			skipped = append(skipped, res.year)
		default:
			layers = append(layers, *res.layer)
		}
	}
	sort.Slice(layers, func(i, j int) bool { return layers[i].Year < layers[j].Year })
	return layers, skipped, nil
}

// buildYear fetches, classifies and composites one calendar year.
func (p *Pipeline) buildYear(ctx context.Context, classes landcover.ClassMap, cfg *config.Config, year int) (*composite.AnnualLayer, error) {
	start, end := composite.YearWindow(year)
	observations, err := p.Archive.Observations(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch observations: %w", err)
	}

	binary := make([]composite.Observation, 0, len(observations))
	for _, obs := range observations {
		woody, err := landcover.Classify(obs.Raster, classes)
		if err != nil {
			return nil, err
		}
		binary = append(binary, composite.Observation{Raster: woody, Time: obs.Time})
	}

	layer, err := composite.AnnualComposite(binary, year, composite.Options{
		MinObservations: cfg.GetMinObservations(),
	})
	if err != nil {
		return nil, err
	}
	if layer.Degraded {
		monitoring.Logf("pipeline: year %d composite degraded (%d observations, want %d)",
			year, len(binary), cfg.GetMinObservations())
	}
	return layer, nil
}

// aggregateAnnual computes the cleared area between each consecutive pair
// of annual layers, restricted to the region mask.
func (p *Pipeline) aggregateAnnual(summary *RunSummary, layers []composite.AnnualLayer, mask []bool) error {
	for i := 1; i < len(layers); i++ {
		cleared, err := change.DetectClearing(layers[i-1].Binary, layers[i].Binary)
		if err != nil {
			return err
		}
		areas, err := area.Aggregate(cleared, mask, nil)
		if err != nil {
			return err
		}
		// Empty mapping means no clearing that year, which is valid.
		summary.AnnualClearing[layers[i].Year] = area.Total(areas)
	}
	return nil
}

// validateAnnual compares each year's detected clearing against the
// rasterized reference polygons for that year.
func (p *Pipeline) validateAnnual(ctx context.Context, summary *RunSummary, layers []composite.AnnualLayer, mask []bool) error {
	for i := 1; i < len(layers); i++ {
		year := layers[i].Year
		features, err := p.Reference.ClearingFeatures(ctx, year)
		if err != nil {
			return fmt.Errorf("reference polygons for %d: %w", year, err)
		}
		if len(features) == 0 {
			continue
		}
		derived, err := change.DetectClearing(layers[i-1].Binary, layers[i].Binary)
		if err != nil {
			return err
		}
		reference := archive.RasterizeFeatures(features, derived.Grid)
		stats, err := validate.Validate(derived, reference, mask, nil)
		if err != nil {
			return fmt.Errorf("validate year %d: %w", year, err)
		}
		summary.Validation[year] = stats
	}
	return nil
}

// persist writes the run and its results to the results store.
func (p *Pipeline) persist(summary *RunSummary, cfg *config.Config) error {
	if err := p.Results.RecordRun(summary.RunID, summary.Region, cfg.GetStartYear(), cfg.GetEndYear()); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	years := make([]int, 0, len(summary.AnnualClearing))
	for year := range summary.AnnualClearing {
		years = append(years, year)
	}
	sort.Ints(years)
	for _, year := range years {
		if err := p.Results.RecordClearingArea(summary.RunID, summary.Region, year, ClearedCategory, summary.AnnualClearing[year]); err != nil {
			return fmt.Errorf("record area for %d: %w", year, err)
		}
	}
	vyears := make([]int, 0, len(summary.Validation))
	for year := range summary.Validation {
		vyears = append(vyears, year)
	}
	sort.Ints(vyears)
	for _, year := range vyears {
		if err := p.Results.RecordValidation(summary.RunID, summary.Region, year, summary.Validation[year]); err != nil {
			return fmt.Errorf("record validation for %d: %w", year, err)
		}
	}
	if err := p.Results.FinishRun(summary.RunID, len(summary.YearsProcessed), len(summary.YearsSkipped)); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}
