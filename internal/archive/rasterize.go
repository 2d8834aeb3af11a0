package archive

import (
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"

	"github.com/HMB3/AUS-Land-Clearing/internal/raster"
	"github.com/HMB3/AUS-Land-Clearing/internal/region"
)

// spatialFeature adapts a reference feature to the rtree Spatial interface.
type spatialFeature struct {
	feat region.Feature
}

func (s spatialFeature) Bounds() *geom.Bounds { return s.feat.Geom.Bounds() }

// RasterizeFeatures burns reference clearing polygons onto a grid as a
// binary raster: 1 where a cell centroid falls inside any feature, 0
// elsewhere. The centroid rule matches the region membership rule used by
// the area aggregator and validator, so derived and reference areas stay
// comparable. An rtree index keeps the per-cell lookup cheap when many
// polygons are supplied.
func RasterizeFeatures(features []region.Feature, g raster.Grid) *raster.Raster {
	out := raster.New(g)
	if len(features) == 0 {
		return out
	}

	tree := rtree.NewTree(25, 50)
	for _, feat := range features {
		tree.Insert(spatialFeature{feat: feat})
	}

	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			x, y := g.Centroid(row, col)
			pt := geom.Point{X: x, Y: y}
			candidates := tree.SearchIntersect(pt.Bounds())
			for _, c := range candidates {
				feat := c.(spatialFeature).feat
				status := pt.Within(feat.Geom)
				if status == geom.Inside || status == geom.OnEdge {
					out.Set(row, col, 1)
					break
				}
			}
		}
	}
	return out
}
