package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/HMB3/AUS-Land-Clearing/db"
	"github.com/HMB3/AUS-Land-Clearing/internal/archive"
	"github.com/HMB3/AUS-Land-Clearing/internal/config"
	"github.com/HMB3/AUS-Land-Clearing/internal/export"
	"github.com/HMB3/AUS-Land-Clearing/internal/fsutil"
	"github.com/HMB3/AUS-Land-Clearing/internal/pipeline"
	"github.com/HMB3/AUS-Land-Clearing/internal/security"
	"github.com/HMB3/AUS-Land-Clearing/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to pipeline config JSON (optional)")
	regionName = flag.String("region", "eastern_australia", "Region of interest to analyse")
	serve      = flag.Bool("serve", false, "Serve the report API instead of running the pipeline")
	listen     = flag.String("listen", ":8080", "Listen address for -serve")
	noExport   = flag.Bool("no-export", false, "Skip CSV/GIF/GeoTIFF exports after the run")

	migrateCmd    = flag.String("migrate", "", "Run database migrations (up, down or version) and exit")
	migrationsDir = flag.String("migrations", "migrations", "Directory of migration files for -migrate")
)

func main() {
	flag.Parse()
	log.Printf("land-clearing %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	cfg := config.Empty()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	results, err := db.NewDB(cfg.GetDBFile())
	if err != nil {
		log.Fatalf("open results database: %v", err)
	}
	defer results.Close()

	if *migrateCmd != "" {
		if err := runMigrations(results, *migrateCmd, *migrationsDir); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	if *serve {
		if err := serveReports(results, *listen); err != nil {
			log.Fatalf("report server: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runPipeline(ctx, cfg, results, *regionName, !*noExport); err != nil {
		log.Fatalf("pipeline: %v", err)
	}
}

// runMigrations applies schema migrations to the results database.
func runMigrations(results *db.DB, action, dir string) error {
	switch action {
	case "up":
		return results.MigrateUp(dir)
	case "down":
		return results.MigrateDown(dir)
	case "version":
		v, dirty, err := results.MigrateVersion(dir)
		if err != nil {
			return err
		}
		state := "clean"
		if dirty {
			state = "dirty"
		}
		log.Printf("migration version %d (%s)", v, state)
		return nil
	default:
		return fmt.Errorf("unknown migrate action %q (want up, down or version)", action)
	}
}

// runPipeline executes the analysis for one region and writes exports.
func runPipeline(ctx context.Context, cfg *config.Config, results *db.DB, regionName string, doExport bool) error {
	lcArchive, err := archive.NewGeoTIFFArchive(cfg.GetArchiveDir())
	if err != nil {
		return fmt.Errorf("open land-cover archive: %w", err)
	}

	p := &pipeline.Pipeline{
		Archive: lcArchive,
		Regions: &archive.DirRegionProvider{Dir: cfg.GetRegionsDir()},
		Results: results,
		Config:  cfg,
	}

	summary, err := p.Run(ctx, regionName)
	if err != nil {
		return err
	}
	log.Printf("run %s complete: %d years processed, %d skipped",
		summary.RunID, len(summary.YearsProcessed), len(summary.YearsSkipped))

	if !doExport {
		return nil
	}
	return writeExports(cfg, summary)
}

// writeExports persists the run artefacts: area CSV, timeseries GIF,
// first-clearing GeoTIFF and per-year woody GeoTIFFs.
func writeExports(cfg *config.Config, summary *pipeline.RunSummary) error {
	fs := fsutil.OSFileSystem{}
	regionFile := security.SanitizeFilename(summary.Region)
	outDir := filepath.Join(cfg.GetOutputDir(), regionFile)
	if err := export.EnsureOutputDir(fs, outDir); err != nil {
		return err
	}

	years := make([]int, 0, len(summary.AnnualClearing))
	for year := range summary.AnnualClearing {
		years = append(years, year)
	}
	sort.Ints(years)
	records := make([]export.AreaRecord, 0, len(years))
	for _, year := range years {
		records = append(records, export.AreaRecord{
			Region:   summary.Region,
			Year:     year,
			Category: pipeline.ClearedCategory,
			AreaM2:   summary.AnnualClearing[year],
		})
	}

	csvPath := filepath.Join(outDir, "clearing_areas.csv")
	f, err := fs.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", csvPath, err)
	}
	if err := export.WriteAreasCSV(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("exported %s", csvPath)

	gifPath := filepath.Join(outDir, fmt.Sprintf("%s_woody_timeseries.gif", regionFile))
	if err := export.WriteAnimation(summary.Layers, cfg.GetAnimationFPS(), fs, gifPath); err != nil {
		return err
	}
	log.Printf("exported %s", gifPath)

	clearingPath := filepath.Join(outDir, fmt.Sprintf("%s_first_clearing_year.tif", regionFile))
	if err := archive.WriteGeoTIFF(summary.FirstClearing, clearingPath); err != nil {
		return err
	}
	log.Printf("exported %s", clearingPath)

	for _, layer := range summary.Layers {
		layerPath := filepath.Join(outDir, fmt.Sprintf("%s_woody_%d.tif", regionFile, layer.Year))
		if err := archive.WriteGeoTIFF(layer.Binary, layerPath); err != nil {
			return err
		}
	}
	log.Printf("exported %d annual woody layers to %s", len(summary.Layers), outDir)
	return nil
}
