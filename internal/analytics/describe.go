package analytics

import (
	"math"
	"sort"

	"compras/internal/core"
)

// ColumnStats is the descriptive summary of one numeric column.
type ColumnStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// HasSpread reports whether Std is defined (needs at least two values).
func (s ColumnStats) HasSpread() bool {
	return s.Count > 1
}

// Describe summarizes the numeric columns of t. Quartiles use linear
// interpolation between closest ranks and Std is the sample deviation.
func Describe(t *core.Table) []ColumnStats {
	out := make([]ColumnStats, 0, len(measures))
	for _, m := range measures {
		out = append(out, describe(m.Name, values(t, m)))
	}
	return out
}

func values(t *core.Table, m Measure) []float64 {
	if t.Len() == 0 {
		return nil
	}
	vals := make([]float64, 0, t.Len())
	for _, r := range t.Records {
		if v, ok := m.Value(r); ok {
			vals = append(vals, v)
		}
	}
	return vals
}

func describe(column string, vals []float64) ColumnStats {
	s := ColumnStats{Column: column, Count: len(vals)}
	if len(vals) == 0 {
		return s
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	s.Mean = sum / float64(len(sorted))
	if len(sorted) > 1 {
		var m2 float64
		for _, v := range sorted {
			d := v - s.Mean
			m2 += d * d
		}
		s.Std = math.Sqrt(m2 / float64(len(sorted)-1))
	}
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Q25 = quantile(sorted, 0.25)
	s.Median = quantile(sorted, 0.5)
	s.Q75 = quantile(sorted, 0.75)
	return s
}

// quantile expects sorted input.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// BoxStats is the five-number summary of a measure within one group.
type BoxStats struct {
	Keys   []string `json:"keys"`
	Label  string   `json:"label"`
	Count  int      `json:"count"`
	Min    float64  `json:"min"`
	Q1     float64  `json:"q1"`
	Median float64  `json:"median"`
	Q3     float64  `json:"q3"`
	Max    float64  `json:"max"`
}

// Five returns min, q1, median, q3 and max.
func (b BoxStats) Five() []float64 {
	return []float64{b.Min, b.Q1, b.Median, b.Q3, b.Max}
}

// Distribution computes the five-number summary of measure per group of dims,
// ordered by label. Groups without any measure value are omitted.
func Distribution(t *core.Table, measure Measure, dims ...Dimension) []BoxStats {
	if t.Len() == 0 {
		return nil
	}
	index := make(map[string]int)
	var keys [][]string
	var vals [][]float64
	for _, r := range t.Records {
		v, ok := measure.Value(r)
		if !ok {
			continue
		}
		ks := make([]string, len(dims))
		for i, d := range dims {
			ks[i] = d.Value(r)
		}
		label := joinKeys(ks)
		pos, seen := index[label]
		if !seen {
			pos = len(keys)
			index[label] = pos
			keys = append(keys, ks)
			vals = append(vals, nil)
		}
		vals[pos] = append(vals[pos], v)
	}

	out := make([]BoxStats, len(keys))
	for i, ks := range keys {
		sort.Float64s(vals[i])
		s := vals[i]
		out[i] = BoxStats{
			Keys:   ks,
			Label:  joinKeys(ks),
			Count:  len(s),
			Min:    s[0],
			Q1:     quantile(s, 0.25),
			Median: quantile(s, 0.5),
			Q3:     quantile(s, 0.75),
			Max:    s[len(s)-1],
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// AmountDistribution summarizes net amounts per supplier size and currency.
func AmountDistribution(t *core.Table) []BoxStats {
	return Distribution(t, MeasureNetAmount, DimSupplierSize, DimCurrency)
}
