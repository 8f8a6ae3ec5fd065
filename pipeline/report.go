package pipeline

import (
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/gmaffy/minys-go/assembly"
)

const ReportFile = "report.html"

func runtimeChart(r *Reporter) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: "Runtime"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "seconds"}),
	)
	var data []opts.BarData
	for _, stage := range timedStages {
		d, _ := r.Duration(stage)
		data = append(data, opts.BarData{Value: d})
	}
	bar.SetXAxis(timedStages).AddSeries("duration", data)
	return bar
}

func contigChart(asm *assembly.Result) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: "Contigs", Subtitle: asm.Name}),
		charts.WithYAxisOpts(opts.YAxis{Name: "bp"}),
	)
	values := func(s assembly.Stats) []opts.BarData {
		return []opts.BarData{{Value: s.Total}, {Value: s.Longest}, {Value: s.N50}, {Value: s.Mean}}
	}
	bar.SetXAxis([]string{"total length", "longest", "N50", "mean"}).
		AddSeries("raw", values(asm.Raw)).
		AddSeries("filtered", values(asm.FilteredStats))
	return bar
}

// WriteReport renders the run charts to path. asm may be nil when the run
// stopped before contigs existed.
func WriteReport(path string, r *Reporter, asm *assembly.Result) error {
	page := components.NewPage()
	page.AddCharts(runtimeChart(r))
	if asm != nil {
		page.AddCharts(contigChart(asm))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := page.Render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
