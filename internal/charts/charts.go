package charts

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"compras/internal/analytics"
)

// Chart names served under /charts/{name}.
const (
	TopInstitutions    = "top-institutions"
	RegionSize         = "region-size"
	AmountDistribution = "amount-distribution"
)

// ErrUnknownChart is returned by Render for names outside Names.
var ErrUnknownChart = errors.New("unknown chart")

const noData = "Sin datos para los filtros seleccionados"

// Names lists the dashboard charts in display order.
func Names() []string {
	return []string{TopInstitutions, RegionSize, AmountDistribution}
}

// Render writes the named chart of view as a standalone HTML document.
func Render(w io.Writer, name string, view analytics.View) error {
	switch name {
	case TopInstitutions:
		return TopInstitutionsBar(view.Top).Render(w)
	case RegionSize:
		page := components.NewPage()
		page.PageTitle = "Órdenes por Región y Tamaño de Proveedor"
		for _, bar := range RegionSizeBars(view.RegionSize) {
			page.AddCharts(bar)
		}
		return page.Render(w)
	case AmountDistribution:
		return AmountBoxPlot(view.Distribution).Render(w)
	}
	return fmt.Errorf("%w: %q", ErrUnknownChart, name)
}

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle: title,
		Width:     "100%",
		Height:    "420px",
	})
}

// TopInstitutionsBar is a horizontal bar chart of the largest institutions,
// largest at the top.
func TopInstitutionsBar(top []analytics.GroupTotal) *charts.Bar {
	bar := charts.NewBar()
	title := opts.Title{Title: "Top 10 Instituciones por Monto Neto Gastado"}
	if len(top) == 0 {
		title.Subtitle = noData
	}
	bar.SetGlobalOptions(
		initOpts(title.Title),
		charts.WithTitleOpts(title),
		charts.WithXAxisOpts(opts.XAxis{Name: "Monto Neto Total", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Institución", Type: "category"}),
	)

	// Category axes draw bottom-up once reversed.
	names := make([]string, len(top))
	data := make([]opts.BarData, len(top))
	for i, g := range top {
		j := len(top) - 1 - i
		names[j] = g.Institution
		data[j] = opts.BarData{Name: g.Institution, Value: g.Total}
	}
	bar.SetXAxis(names).AddSeries("MontoNetoItem", data)
	bar.XYReversal()
	return bar
}

// RegionSizeBars returns one grouped bar chart per currency, with a series
// per supplier size.
func RegionSizeBars(counts analytics.RegionSizeCounts) []*charts.Bar {
	if len(counts.Facets) == 0 {
		bar := charts.NewBar()
		bar.SetGlobalOptions(
			initOpts("Órdenes por Región y Tamaño de Proveedor"),
			charts.WithTitleOpts(opts.Title{Title: "Órdenes por Región y Tamaño de Proveedor", Subtitle: noData}),
		)
		return []*charts.Bar{bar}
	}

	bars := make([]*charts.Bar, 0, len(counts.Facets))
	for _, facet := range counts.Facets {
		bar := charts.NewBar()
		bar.SetGlobalOptions(
			initOpts("Órdenes por Región y Tamaño de Proveedor"),
			charts.WithTitleOpts(opts.Title{
				Title:    "MonedaItem = " + facet.Currency,
				Subtitle: fmt.Sprintf("%d órdenes", facet.Rows),
			}),
			charts.WithXAxisOpts(opts.XAxis{Name: "Región"}),
			charts.WithYAxisOpts(opts.YAxis{Name: "count"}),
		)
		bar.SetXAxis(counts.Regions)
		for i, size := range counts.Sizes {
			data := make([]opts.BarData, len(counts.Regions))
			for j, n := range facet.Counts[i] {
				data[j] = opts.BarData{Value: n}
			}
			bar.AddSeries(size, data)
		}
		bars = append(bars, bar)
	}
	return bars
}

// AmountBoxPlot draws the net amount distribution per supplier size, one
// series per currency.
func AmountBoxPlot(dist []analytics.BoxStats) *charts.BoxPlot {
	return BoxPlot("Distribución del Monto Neto por Tamaño de Proveedor", "TamanoProveedor", "MontoNetoItem", dist)
}

// BoxPlot draws five-number summaries. The first key of each entry is the
// category; the second, when present, selects the series.
func BoxPlot(title, xName, yName string, dist []analytics.BoxStats) *charts.BoxPlot {
	box := charts.NewBoxPlot()
	t := opts.Title{Title: title}
	if len(dist) == 0 {
		t.Subtitle = noData
	}
	box.SetGlobalOptions(
		initOpts(title),
		charts.WithTitleOpts(t),
		charts.WithXAxisOpts(opts.XAxis{Name: xName}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)

	var categories, names []string
	catPos := map[string]int{}
	seriesPos := map[string]int{}
	for _, b := range dist {
		if _, ok := catPos[b.Keys[0]]; !ok {
			catPos[b.Keys[0]] = len(categories)
			categories = append(categories, b.Keys[0])
		}
		name := seriesName(b, yName)
		if _, ok := seriesPos[name]; !ok {
			seriesPos[name] = len(names)
			names = append(names, name)
		}
	}
	series := make([][]opts.BoxPlotData, len(names))
	for i := range series {
		series[i] = make([]opts.BoxPlotData, len(categories))
	}
	for _, b := range dist {
		series[seriesPos[seriesName(b, yName)]][catPos[b.Keys[0]]] = opts.BoxPlotData{Name: b.Label, Value: b.Five()}
	}

	box.SetXAxis(categories)
	for i, n := range names {
		box.AddSeries(n, series[i])
	}
	return box
}

func seriesName(b analytics.BoxStats, fallback string) string {
	if len(b.Keys) > 1 {
		return b.Keys[1]
	}
	return fallback
}
