package landcover

import (
	"math"

	"github.com/HMB3/AUS-Land-Clearing/internal/raster"
)

// Classify maps a land-cover code raster to a binary woody raster: 1 where
// the cell's code is a member of the class map's woody category, 0 for every
// other mapped or unmapped code. Nodata cells stay nodata. The class map is
// validated first; an ambiguous map fails before any cell is processed.
func Classify(codes *raster.Raster, classes ClassMap) (*raster.Raster, error) {
	if err := classes.Validate(); err != nil {
		return nil, err
	}
	woody := classes.CodeSet(WoodyCategory)

	out := raster.New(codes.Grid)
	for i, v := range codes.Data {
		if raster.IsNoData(v) {
			out.Data[i] = raster.NoData()
			continue
		}
		if woody[int(math.Round(v))] {
			out.Data[i] = 1
		}
	}
	return out, nil
}
