package export

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/piwi3910/PlateNest/internal/engine"
)

// ExportComparisonChart renders the scenario comparison as an HTML bar chart
// with placed and not-fitting counts per scenario. Scenarios that failed are
// left out.
func ExportComparisonChart(path string, results []engine.ComparisonResult) error {
	var names []string
	var placed, notFit []opts.BarData
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		names = append(names, r.Scenario.Name)
		placed = append(placed, opts.BarData{Value: r.PlacedCount})
		notFit = append(notFit, opts.BarData{Value: r.NotFitCount})
	}
	if len(names) == 0 {
		return fmt.Errorf("no successful scenarios to chart")
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Arrangement comparison",
			Subtitle: fmt.Sprintf("%d scenarios", len(names)),
		}),
	)
	bar.SetXAxis(names).
		AddSeries("Placed", placed).
		AddSeries("Not fitting", notFit)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := bar.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return f.Close()
}
