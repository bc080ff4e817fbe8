package explorer

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"compras/internal/analytics"
	dashcharts "compras/internal/charts"
	"compras/internal/core"
)

const pageTitle = "Exploración Visual"

// Render writes one interactive HTML document with a chart per entry of spec,
// computed from t. spec must have been validated.
func Render(w io.Writer, t *core.Table, spec Spec) error {
	page := components.NewPage()
	page.PageTitle = pageTitle
	for i, c := range spec.Charts {
		chart, err := build(t, c)
		if err != nil {
			return &core.ExplorerSpecError{Reason: fmt.Sprintf("chart %d", i+1), Err: err}
		}
		page.AddCharts(chart)
	}
	return page.Render(w)
}

func build(t *core.Table, c ChartSpec) (components.Charter, error) {
	agg, ok := analytics.ParseAggregation(c.Aggregate)
	if !ok {
		agg = analytics.AggCount
	}
	var measure analytics.Measure
	if c.Y != "" {
		measure, _ = analytics.MeasureByName(c.Y)
	}
	var split *analytics.Dimension
	if c.Color != "" {
		d, _ := analytics.DimensionByName(c.Color)
		split = &d
	}

	switch c.Mark {
	case MarkBar, MarkLine:
		x, _ := analytics.DimensionByName(c.X)
		pivot := analytics.Pivot(t, x, split, measure, agg, c.Limit)
		if c.Mark == MarkBar {
			return barChart(c, pivot), nil
		}
		return lineChart(c, pivot), nil
	case MarkPie:
		x, _ := analytics.DimensionByName(c.X)
		return pieChart(c, analytics.Pivot(t, x, nil, measure, agg, c.Limit)), nil
	case MarkBoxPlot:
		x, _ := analytics.DimensionByName(c.X)
		dims := []analytics.Dimension{x}
		if split != nil {
			dims = append(dims, *split)
		}
		return dashcharts.BoxPlot(c.Name, c.X, c.Y, analytics.Distribution(t, measure, dims...)), nil
	case MarkScatter:
		x, _ := analytics.MeasureByName(c.X)
		names, points := analytics.Points(t, x, measure, split, c.Limit)
		return scatterChart(c, names, points), nil
	}
	return nil, fmt.Errorf("unknown mark %q", c.Mark)
}

func globalOpts(c ChartSpec, empty bool) []charts.GlobalOpts {
	title := opts.Title{Title: c.Name}
	if empty {
		title.Subtitle = "Sin datos para los filtros seleccionados"
	}
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{PageTitle: pageTitle, Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(title),
	}
}

func barChart(c ChartSpec, p analytics.PivotTable) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(c, len(p.Categories) == 0)...)
	bar.SetXAxis(p.Categories)
	for _, s := range p.Series {
		data := make([]opts.BarData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.BarData{Value: cell(v, s.Present[i])}
		}
		bar.AddSeries(s.Name, data)
	}
	return bar
}

func lineChart(c ChartSpec, p analytics.PivotTable) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(globalOpts(c, len(p.Categories) == 0)...)
	line.SetXAxis(p.Categories)
	for _, s := range p.Series {
		data := make([]opts.LineData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.LineData{Value: cell(v, s.Present[i])}
		}
		line.AddSeries(s.Name, data)
	}
	return line
}

func pieChart(c ChartSpec, p analytics.PivotTable) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(globalOpts(c, len(p.Categories) == 0)...)
	data := make([]opts.PieData, 0, len(p.Categories))
	if len(p.Series) > 0 {
		for i, name := range p.Categories {
			data = append(data, opts.PieData{Name: name, Value: p.Series[0].Values[i]})
		}
	}
	pie.AddSeries(c.Name, data)
	return pie
}

func scatterChart(c ChartSpec, names []string, points map[string][]analytics.Point) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(append(globalOpts(c, len(names) == 0),
		charts.WithXAxisOpts(opts.XAxis{Name: c.X, Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: c.Y, Type: "value"}),
	)...)
	for _, n := range names {
		data := make([]opts.ScatterData, len(points[n]))
		for i, p := range points[n] {
			data[i] = opts.ScatterData{Value: []float64{p.X, p.Y}}
		}
		sc.AddSeries(n, data)
	}
	return sc
}

// cell marks missing pivot cells so ECharts leaves a gap.
func cell(v float64, present bool) interface{} {
	if !present {
		return "-"
	}
	return v
}
