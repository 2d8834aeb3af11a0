// Package region defines regions of interest as vector polygons and the
// cell-membership rule used by area aggregation and validation.
//
// Membership rule: a cell belongs to a region iff its centroid falls inside
// (or on the edge of) the region polygon. The same rule is applied by the
// area aggregator, the validator and the reference rasterizer so their
// outputs stay comparable.
package region

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"

	"github.com/HMB3/AUS-Land-Clearing/internal/raster"
)

// RegionOfInterest is a named polygon (or multipolygon) defining the
// spatial extent over which statistics are computed. Immutable.
//
// CRS records the coordinate reference system the polygon coordinates are
// expressed in. An empty CRS means the region is already in the working
// grid's coordinates and needs no reprojection.
type RegionOfInterest struct {
	Name string
	Geom geom.Polygonal
	CRS  string
}

// Contains reports whether the point (x, y), in the region's CRS, is
// inside or on the edge of the region polygon.
func (r *RegionOfInterest) Contains(x, y float64) bool {
	status := geom.Point{X: x, Y: y}.Within(r.Geom)
	return status == geom.Inside || status == geom.OnEdge
}

// Mask returns a per-cell membership mask for the grid under the centroid
// rule. Cells outside the region are excluded from statistics, not
// zero-padded. The polygon bounds prefilter whole rows of clearly outside
// cells cheaply.
func (r *RegionOfInterest) Mask(g raster.Grid) []bool {
	mask := make([]bool, g.Cells())
	b := r.Geom.Bounds()
	for row := 0; row < g.Height; row++ {
		_, y := g.Centroid(row, 0)
		if y < b.Min.Y || y > b.Max.Y {
			continue
		}
		for col := 0; col < g.Width; col++ {
			x, y := g.Centroid(row, col)
			if x < b.Min.X || x > b.Max.X {
				continue
			}
			mask[g.Index(row, col)] = r.Contains(x, y)
		}
	}
	return mask
}

// Area returns the polygon area in squared CRS units.
func (r *RegionOfInterest) Area() float64 { return r.Geom.Area() }

// australianAlbers is the PROJ definition of EPSG:3577 (GDA94 / Australian
// Albers), the grid DEA land-cover products are published on. The proj
// package only ships a handful of EPSG codes, so the code is resolved here.
const australianAlbers = "+proj=aea +lat_1=-18 +lat_2=-36 +lat_0=0 +lon_0=132 " +
	"+x_0=0 +y_0=0 +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs"

// ParseCRS resolves a CRS given as an EPSG code, WKT, or PROJ string.
func ParseCRS(crs string) (*proj.SR, error) {
	if crs == "EPSG:3577" {
		crs = australianAlbers
	}
	sr, err := proj.Parse(crs)
	if err != nil {
		return nil, fmt.Errorf("parse projection %q: %w", crs, err)
	}
	return sr, nil
}

// Reproject transforms the region polygon between the given coordinate
// reference systems, returning a new region tagged with the target CRS.
func (r *RegionOfInterest) Reproject(from, to string) (*RegionOfInterest, error) {
	src, err := ParseCRS(from)
	if err != nil {
		return nil, fmt.Errorf("source projection: %w", err)
	}
	dst, err := ParseCRS(to)
	if err != nil {
		return nil, fmt.Errorf("target projection: %w", err)
	}
	tr, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("build transform %q -> %q: %w", from, to, err)
	}
	out, err := r.Geom.Transform(tr)
	if err != nil {
		return nil, fmt.Errorf("reproject region %s: %w", r.Name, err)
	}
	poly, ok := out.(geom.Polygonal)
	if !ok {
		return nil, fmt.Errorf("reproject region %s: result is not polygonal", r.Name)
	}
	return &RegionOfInterest{Name: r.Name, Geom: poly, CRS: to}, nil
}

// ReprojectTo returns the region expressed in the target CRS. A region
// without a recorded CRS is taken to already be in target coordinates and
// returned unchanged, as is one whose CRS equals the target.
func (r *RegionOfInterest) ReprojectTo(to string) (*RegionOfInterest, error) {
	if r.CRS == "" || r.CRS == to || to == "" {
		return r, nil
	}
	return r.Reproject(r.CRS, to)
}

// BBoxPolygon builds a rectangular polygon from min/max corners.
func BBoxPolygon(minX, minY, maxX, maxY float64) geom.Polygon {
	return geom.Polygon{{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
		{X: minX, Y: minY},
	}}
}

// Builtin study areas, as coarse EPSG:4326 bounding boxes. Fine-grained
// state boundaries come from GeoJSON files via LoadGeoJSON; these exist so
// the pipeline can run without any boundary download.
var builtins = map[string]*RegionOfInterest{
	"queensland": {
		Name: "queensland",
		Geom: BBoxPolygon(138.0, -29.2, 154.0, -10.0),
		CRS:  "EPSG:4326",
	},
	"new_south_wales": {
		Name: "new_south_wales",
		Geom: BBoxPolygon(141.0, -37.5, 153.7, -28.1),
		CRS:  "EPSG:4326",
	},
	"eastern_australia": {
		Name: "eastern_australia",
		Geom: BBoxPolygon(138.0, -37.5, 154.0, -10.0),
		CRS:  "EPSG:4326",
	},
}

// Builtin returns a built-in study area by name.
func Builtin(name string) (*RegionOfInterest, error) {
	r, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown builtin region %q", name)
	}
	return r, nil
}

// BuiltinNames lists the built-in study area names.
func BuiltinNames() []string {
	return []string{"eastern_australia", "new_south_wales", "queensland"}
}
