package export

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/piwi3910/SolarRack/internal/engine"
)

// ExportComparisonHTML writes the scenario comparison page to path.
func ExportComparisonHTML(path string, results []engine.ComparisonResult) error {
	return writeFile(path, func(f *os.File) error { return WriteComparisonHTML(f, results) })
}

// WriteComparisonHTML renders an HTML page with two bar charts: the total
// cost of every scenario and its rail usage (pieces and waste). Scenarios
// that failed to calculate are left out.
func WriteComparisonHTML(w io.Writer, results []engine.ComparisonResult) error {
	var names []string
	var cost, pieces, waste []opts.BarData
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		names = append(names, r.Scenario.Name)
		cost = append(cost, opts.BarData{Value: r.Cost.TotalCost})
		pieces = append(pieces, opts.BarData{Value: r.RailPieces})
		waste = append(waste, opts.BarData{Value: r.WasteCm})
	}
	if len(names) == 0 {
		return fmt.Errorf("comparison chart: %w", ErrNothingToExport)
	}

	costChart := charts.NewBar()
	costChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "SolarRack scenario comparison"}),
		charts.WithTitleOpts(opts.Title{Title: "Total cost", Subtitle: "EUR incl. pack rounding"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "EUR"}),
	)
	costChart.SetXAxis(names).AddSeries("Total cost", cost)

	railChart := charts.NewBar()
	railChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Rails", Subtitle: "Pieces and offcut per side"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	railChart.SetXAxis(names).
		AddSeries("Rail pieces", pieces).
		AddSeries("Waste (cm)", waste)

	page := components.NewPage()
	page.PageTitle = "SolarRack scenario comparison"
	page.AddCharts(costChart, railChart)
	return page.Render(w)
}
