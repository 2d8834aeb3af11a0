package region

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ctessum/geom"
)

// Feature is a reference polygon with the attributes the validator's
// upstream rasterization needs: the clearing year and the mapped area.
type Feature struct {
	Geom   geom.Polygonal
	Year   int
	AreaHa float64
}

// geojsonFeatureCollection is the subset of the GeoJSON envelope we read.
// Geometries are converted to github.com/ctessum/geom values.
type geojsonFeatureCollection struct {
	Type     string           `json:"type"`
	Features []geojsonFeature `json:"features"`
	Geometry *geojsonGeometry `json:"geometry,omitempty"`
}

type geojsonFeature struct {
	Type       string          `json:"type"`
	Geometry   geojsonGeometry `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

type geojsonGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

func (g *geojsonGeometry) polygonal() (geom.Polygonal, error) {
	switch g.Type {
	case "Polygon":
		var rings [][][2]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("decode polygon coordinates: %w", err)
		}
		return toPolygon(rings), nil
	case "MultiPolygon":
		var polys [][][][2]float64
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return nil, fmt.Errorf("decode multipolygon coordinates: %w", err)
		}
		var mp geom.MultiPolygon
		for _, rings := range polys {
			mp = append(mp, toPolygon(rings))
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

func toPolygon(rings [][][2]float64) geom.Polygon {
	var poly geom.Polygon
	for _, ring := range rings {
		path := make([]geom.Point, len(ring))
		for i, c := range ring {
			path[i] = geom.Point{X: c[0], Y: c[1]}
		}
		poly = append(poly, path)
	}
	return poly
}

// ReadGeoJSON decodes a GeoJSON FeatureCollection (or bare Feature) into
// features. Year and area attributes are read from the "year" and
// "area_ha" properties when present.
func ReadGeoJSON(r io.Reader) ([]Feature, error) {
	var fc geojsonFeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	raw := fc.Features
	if len(raw) == 0 && fc.Geometry != nil {
		raw = []geojsonFeature{{Type: "Feature", Geometry: *fc.Geometry}}
	}
	features := make([]Feature, 0, len(raw))
	for i, f := range raw {
		poly, err := f.Geometry.polygonal()
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		feat := Feature{Geom: poly}
		if y, ok := numberProp(f.Properties, "year"); ok {
			feat.Year = int(y)
		}
		if a, ok := numberProp(f.Properties, "area_ha"); ok {
			feat.AreaHa = a
		}
		features = append(features, feat)
	}
	return features, nil
}

func numberProp(props map[string]any, key string) (float64, bool) {
	v, ok := props[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// LoadGeoJSON reads a named region from a GeoJSON boundary file. Multiple
// features merge into one multipolygon region. GeoJSON coordinates are
// WGS 84 by definition (RFC 7946), so the region is tagged EPSG:4326.
func LoadGeoJSON(path, name string) (*RegionOfInterest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open boundary file: %w", err)
	}
	defer f.Close()

	features, err := ReadGeoJSON(f)
	if err != nil {
		return nil, fmt.Errorf("read boundary file %s: %w", path, err)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("boundary file %s contains no polygon features", path)
	}
	if len(features) == 1 {
		return &RegionOfInterest{Name: name, Geom: features[0].Geom, CRS: "EPSG:4326"}, nil
	}
	var mp geom.MultiPolygon
	for _, feat := range features {
		switch g := feat.Geom.(type) {
		case geom.Polygon:
			mp = append(mp, g)
		case geom.MultiPolygon:
			mp = append(mp, g...)
		}
	}
	return &RegionOfInterest{Name: name, Geom: mp, CRS: "EPSG:4326"}, nil
}
