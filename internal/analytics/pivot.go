package analytics

import (
	"sort"

	"compras/internal/core"
)

// PivotTable is a measure aggregated over one category axis and an optional
// series split.
type PivotTable struct {
	Categories []string      `json:"categories"`
	Series     []PivotSeries `json:"series"`
}

// PivotSeries holds one value per category. Present is false where the
// category has no rows in the series.
type PivotSeries struct {
	Name    string    `json:"name"`
	Values  []float64 `json:"values"`
	Present []bool    `json:"present"`
}

// Pivot aggregates measure by x and, when split is non-nil, by split as well.
// Categories are ordered by their overall aggregate, largest first, and cut to
// limit when limit > 0.
func Pivot(t *core.Table, x Dimension, split *Dimension, measure Measure, agg Aggregation, limit int) PivotTable {
	overall := GroupAndAggregate(t, []Dimension{x}, measure, agg)
	SortGroups(overall)
	overall = Limit(overall, limit)

	out := PivotTable{Categories: make([]string, len(overall))}
	for i, g := range overall {
		out.Categories[i] = g.Keys[0]
	}
	if len(overall) == 0 {
		return out
	}

	if split == nil {
		s := PivotSeries{
			Name:    measure.Name,
			Values:  make([]float64, len(overall)),
			Present: make([]bool, len(overall)),
		}
		if agg == AggCount || measure.Name == "" {
			s.Name = string(AggCount)
		}
		for i, g := range overall {
			s.Values[i] = g.Value
			s.Present[i] = true
		}
		out.Series = []PivotSeries{s}
		return out
	}

	catPos := positions(out.Categories)
	groups := GroupAndAggregate(t, []Dimension{x, *split}, measure, agg)
	names := make([]string, 0)
	seriesPos := make(map[string]int)
	for _, g := range groups {
		if _, ok := catPos[g.Keys[0]]; !ok {
			continue
		}
		if _, ok := seriesPos[g.Keys[1]]; !ok {
			seriesPos[g.Keys[1]] = -1
			names = append(names, g.Keys[1])
		}
	}
	sort.Strings(names)
	out.Series = make([]PivotSeries, len(names))
	for i, n := range names {
		seriesPos[n] = i
		out.Series[i] = PivotSeries{
			Name:    n,
			Values:  make([]float64, len(out.Categories)),
			Present: make([]bool, len(out.Categories)),
		}
	}
	for _, g := range groups {
		c, ok := catPos[g.Keys[0]]
		if !ok {
			continue
		}
		s := &out.Series[seriesPos[g.Keys[1]]]
		s.Values[c] = g.Value
		s.Present[c] = true
	}
	return out
}

// Point is one record plotted on two measures.
type Point struct {
	X, Y float64
}

// Points returns (x, y) pairs for records holding both measures, split by
// series when split is non-nil. Series names are sorted.
func Points(t *core.Table, x, y Measure, split *Dimension, limit int) ([]string, map[string][]Point) {
	out := make(map[string][]Point)
	if t.Len() == 0 {
		return nil, out
	}
	total := 0
	for _, r := range t.Records {
		if limit > 0 && total >= limit {
			break
		}
		xv, ok := x.Value(r)
		if !ok {
			continue
		}
		yv, ok := y.Value(r)
		if !ok {
			continue
		}
		name := y.Name
		if split != nil {
			name = split.Value(r)
		}
		out[name] = append(out[name], Point{X: xv, Y: yv})
		total++
	}
	names := make([]string, 0, len(out))
	for n := range out {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, out
}
