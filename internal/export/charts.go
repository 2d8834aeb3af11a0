package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderAnnualClearingChart writes an HTML page with a bar chart of
// annual cleared area (hectares) for one region.
func RenderAnnualClearingChart(w io.Writer, regionName string, records []AreaRecord) error {
	x := make([]string, 0, len(records))
	y := make([]opts.BarData, 0, len(records))
	for _, rec := range records {
		x = append(x, fmt.Sprintf("%d", rec.Year))
		y = append(y, opts.BarData{Value: rec.AreaHa()})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Annual woody clearing: %s", regionName),
			Subtitle: "area cleared per year (hectares)",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("cleared (ha)", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.AddCharts(bar)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render clearing chart: %w", err)
	}
	return nil
}
