// Package config loads the pipeline configuration. The JSON schema uses
// pointer-typed optional fields: anything omitted from the file keeps its
// default via the Get* accessors, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HMB3/AUS-Land-Clearing/internal/landcover"
)

// Config is the root pipeline configuration. The same JSON schema is
// accepted on the command line and by the report server.
type Config struct {
	// Archive params
	ArchiveDir *string `json:"archive_dir,omitempty"` // directory of dated land-cover GeoTIFFs
	RegionsDir *string `json:"regions_dir,omitempty"` // directory of boundary GeoJSON files

	// Grid params
	CRS        *string  `json:"crs,omitempty"`        // e.g. "EPSG:3577"
	Resolution *float64 `json:"resolution,omitempty"` // cell size in CRS units

	// Analysis window
	StartYear *int `json:"start_year,omitempty"`
	EndYear   *int `json:"end_year,omitempty"`

	// Compositor params
	MinObservations  *int `json:"min_observations,omitempty"`
	CompositeWorkers *int `json:"composite_workers,omitempty"`

	// Classification scheme. Empty means the DEA annual land cover table.
	Categories []landcover.Category `json:"categories,omitempty"`

	// Outputs
	OutputDir    *string `json:"output_dir,omitempty"`
	DBFile       *string `json:"db_file,omitempty"`
	AnimationFPS *int    `json:"animation_fps,omitempty"`
}

// Empty returns a Config with all fields unset.
func Empty() *Config { return &Config{} }

// Load reads a Config from a JSON file. The file must carry a .json
// extension and stay under the max file size.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration values, including the class table:
// an ambiguous class map is a configuration defect surfaced before any
// processing starts.
func (c *Config) Validate() error {
	if c.Resolution != nil && *c.Resolution <= 0 {
		return fmt.Errorf("resolution must be positive, got %f", *c.Resolution)
	}
	if c.StartYear != nil && c.EndYear != nil && *c.EndYear < *c.StartYear {
		return fmt.Errorf("end_year %d precedes start_year %d", *c.EndYear, *c.StartYear)
	}
	if c.MinObservations != nil && *c.MinObservations < 0 {
		return fmt.Errorf("min_observations must be non-negative, got %d", *c.MinObservations)
	}
	if c.CompositeWorkers != nil && *c.CompositeWorkers < 1 {
		return fmt.Errorf("composite_workers must be at least 1, got %d", *c.CompositeWorkers)
	}
	if c.AnimationFPS != nil && *c.AnimationFPS < 1 {
		return fmt.Errorf("animation_fps must be at least 1, got %d", *c.AnimationFPS)
	}
	classes := c.GetClassMap()
	if err := classes.Validate(); err != nil {
		return err
	}
	return nil
}

// GetArchiveDir returns the archive directory or the default.
func (c *Config) GetArchiveDir() string {
	if c.ArchiveDir == nil || *c.ArchiveDir == "" {
		return "data/landcover"
	}
	return *c.ArchiveDir
}

// GetRegionsDir returns the boundary directory or the default.
func (c *Config) GetRegionsDir() string {
	if c.RegionsDir == nil || *c.RegionsDir == "" {
		return "data/regions"
	}
	return *c.RegionsDir
}

// GetCRS returns the working CRS or the default Australian Albers.
func (c *Config) GetCRS() string {
	if c.CRS == nil || *c.CRS == "" {
		return "EPSG:3577"
	}
	return *c.CRS
}

// GetResolution returns the cell size or the default 25 m.
func (c *Config) GetResolution() float64 {
	if c.Resolution == nil {
		return 25.0
	}
	return *c.Resolution
}

// GetStartYear returns the first analysis year or the default.
func (c *Config) GetStartYear() int {
	if c.StartYear == nil {
		return 1988
	}
	return *c.StartYear
}

// GetEndYear returns the last analysis year or the default.
func (c *Config) GetEndYear() int {
	if c.EndYear == nil {
		return 2024
	}
	return *c.EndYear
}

// GetMinObservations returns the degraded-composite threshold.
func (c *Config) GetMinObservations() int {
	if c.MinObservations == nil {
		return 2
	}
	return *c.MinObservations
}

// GetCompositeWorkers returns the composite concurrency across years.
func (c *Config) GetCompositeWorkers() int {
	if c.CompositeWorkers == nil {
		return 4
	}
	return *c.CompositeWorkers
}

// GetClassMap returns the configured classification table, or the DEA
// annual land cover table when none is configured.
func (c *Config) GetClassMap() landcover.ClassMap {
	if len(c.Categories) == 0 {
		return landcover.DefaultDEAClassMap()
	}
	return landcover.ClassMap{Categories: c.Categories}
}

// GetOutputDir returns the export directory or the default.
func (c *Config) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "data/outputs"
	}
	return *c.OutputDir
}

// GetDBFile returns the results database path or the default.
func (c *Config) GetDBFile() string {
	if c.DBFile == nil || *c.DBFile == "" {
		return "clearing.db"
	}
	return *c.DBFile
}

// GetAnimationFPS returns the animation frame rate or the default.
func (c *Config) GetAnimationFPS() int {
	if c.AnimationFPS == nil {
		return 2
	}
	return *c.AnimationFPS
}
