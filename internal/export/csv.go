// Package export turns pipeline results into the artefacts the analysis
// publishes: CSV area tables, PNG frames, animated GIFs and HTML charts.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/HMB3/AUS-Land-Clearing/internal/units"
)

// AreaRecord is one row of the area statistics table.
type AreaRecord struct {
	Region   string
	Year     int
	Category string
	AreaM2   float64
}

// AreaHa returns the record's area in hectares.
func (r AreaRecord) AreaHa() float64 { return units.ConvertArea(r.AreaM2, units.HA) }

// WriteAreasCSV writes area records as CSV with a header row. Areas are
// reported in both square metres and hectares.
func WriteAreasCSV(w io.Writer, records []AreaRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"region", "year", "category", "area_m2", "area_ha"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Region,
			strconv.Itoa(rec.Year),
			rec.Category,
			strconv.FormatFloat(rec.AreaM2, 'f', 1, 64),
			strconv.FormatFloat(rec.AreaHa(), 'f', 4, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
