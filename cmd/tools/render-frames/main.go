// Package main renders annual woody-cover GeoTIFF layers as PNG heatmap
// frames plus an animated GIF, for inspecting composite output outside a
// full pipeline run.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/HMB3/AUS-Land-Clearing/internal/archive"
	"github.com/HMB3/AUS-Land-Clearing/internal/composite"
	"github.com/HMB3/AUS-Land-Clearing/internal/export"
	"github.com/HMB3/AUS-Land-Clearing/internal/fsutil"
)

var (
	inDir  = flag.String("in", "", "Directory of *_woody_<year>.tif layers to render")
	outDir = flag.String("out", "frames", "Output directory for PNG frames and GIF")
	fps    = flag.Int("fps", 2, "Animation frames per second")
)

var yearSuffix = regexp.MustCompile(`_woody_(\d{4})\.tif$`)

func main() {
	flag.Parse()
	if *inDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	layers, err := loadLayers(*inDir)
	if err != nil {
		log.Fatalf("load layers: %v", err)
	}
	if len(layers) == 0 {
		log.Fatalf("no *_woody_<year>.tif layers found in %s", *inDir)
	}

	fs := fsutil.OSFileSystem{}
	if err := export.EnsureOutputDir(fs, *outDir); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	for _, layer := range layers {
		framePath := filepath.Join(*outDir, fmt.Sprintf("woody_%d.png", layer.Year))
		title := fmt.Sprintf("Woody cover %d", layer.Year)
		if err := export.RenderHeatmapPNG(layer.Binary, title, fs, framePath); err != nil {
			log.Fatalf("render frame for %d: %v", layer.Year, err)
		}
		log.Printf("rendered %s", framePath)
	}

	gifPath := filepath.Join(*outDir, "woody_timeseries.gif")
	if err := export.WriteAnimation(layers, *fps, fs, gifPath); err != nil {
		log.Fatalf("write animation: %v", err)
	}
	log.Printf("rendered %s (%d frames)", gifPath, len(layers))
}

// loadLayers reads every annual woody GeoTIFF in dir, in year order.
func loadLayers(dir string) ([]composite.AnnualLayer, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*_woody_*.tif"))
	if err != nil {
		return nil, err
	}
	var layers []composite.AnnualLayer
	for _, path := range paths {
		m := yearSuffix.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		year, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		r, err := archive.ReadGeoTIFF(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		layers = append(layers, composite.AnnualLayer{Year: year, Binary: r})
	}
	sort.Slice(layers, func(i, j int) bool { return layers[i].Year < layers[j].Year })
	return layers, nil
}
