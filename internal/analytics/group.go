package analytics

import (
	"math"
	"sort"
	"strings"

	"compras/internal/core"
)

// Dimension extracts a categorical value from a record.
type Dimension struct {
	Name  string
	Value func(core.Record) string
}

// Measure extracts a numeric value from a record. ok is false when the
// record has no value for the measure.
type Measure struct {
	Name  string
	Value func(core.Record) (v float64, ok bool)
}

var (
	DimOrderCode    = Dimension{core.ColOrderCode, func(r core.Record) string { return r.OrderCode }}
	DimRegion       = Dimension{core.ColRegion, func(r core.Record) string { return r.Region }}
	DimInstitution  = Dimension{core.ColInstitution, func(r core.Record) string { return r.Institution }}
	DimSupplier     = Dimension{core.ColSupplier, func(r core.Record) string { return r.Supplier }}
	DimSupplierSize = Dimension{core.ColSupplierSize, func(r core.Record) string { return r.SupplierSize }}
	DimCurrency     = Dimension{core.ColCurrency, func(r core.Record) string { return r.Currency }}

	MeasureNetAmount = Measure{core.ColNetAmount, func(r core.Record) (float64, bool) { return r.NetAmount, true }}
	MeasureQuantity  = Measure{core.ColQuantity, func(r core.Record) (float64, bool) { return r.Quantity, r.HasQuantity }}
)

var (
	dimensions = []Dimension{DimOrderCode, DimRegion, DimInstitution, DimSupplier, DimSupplierSize, DimCurrency}
	measures   = []Measure{MeasureNetAmount, MeasureQuantity}
)

// DimensionByName looks up a categorical column.
func DimensionByName(name string) (Dimension, bool) {
	for _, d := range dimensions {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

// MeasureByName looks up a numeric column.
func MeasureByName(name string) (Measure, bool) {
	for _, m := range measures {
		if m.Name == name {
			return m, true
		}
	}
	return Measure{}, false
}

// DimensionNames returns the categorical column names.
func DimensionNames() []string {
	names := make([]string, len(dimensions))
	for i, d := range dimensions {
		names[i] = d.Name
	}
	return names
}

// MeasureNames returns the numeric column names.
func MeasureNames() []string {
	names := make([]string, len(measures))
	for i, m := range measures {
		names[i] = m.Name
	}
	return names
}

// Aggregation reduces the measure values of a group.
type Aggregation string

const (
	AggSum   Aggregation = "sum"
	AggCount Aggregation = "count"
	AggMean  Aggregation = "mean"
	AggMax   Aggregation = "max"
	AggMin   Aggregation = "min"
)

// ParseAggregation accepts the lowercase aggregation names.
func ParseAggregation(s string) (Aggregation, bool) {
	switch a := Aggregation(strings.ToLower(strings.TrimSpace(s))); a {
	case AggSum, AggCount, AggMean, AggMax, AggMin:
		return a, true
	}
	return "", false
}

// Group is one aggregated bucket.
type Group struct {
	Keys  []string `json:"keys"`
	Label string   `json:"label"`
	Rows  int      `json:"rows"`
	Value float64  `json:"value"`
}

type accumulator struct {
	n        int
	sum      float64
	min, max float64
}

func (a *accumulator) add(v float64) {
	if a.n == 0 {
		a.min, a.max = v, v
	} else {
		a.min = math.Min(a.min, v)
		a.max = math.Max(a.max, v)
	}
	a.n++
	a.sum += v
}

func (a *accumulator) result(agg Aggregation, rows int) float64 {
	if agg == AggCount {
		return float64(rows)
	}
	if a.n == 0 {
		return 0
	}
	switch agg {
	case AggMean:
		return a.sum / float64(a.n)
	case AggMax:
		return a.max
	case AggMin:
		return a.min
	default:
		return a.sum
	}
}

// GroupAndAggregate groups t by dims and reduces measure with agg.
// Groups come back in order of first appearance. Rows with a blank value in
// any of dims belong to no group.
func GroupAndAggregate(t *core.Table, dims []Dimension, measure Measure, agg Aggregation) []Group {
	if t.Len() == 0 {
		return nil
	}

	type bucket struct {
		keys []string
		rows int
		acc  accumulator
	}
	index := make(map[string]int)
	var buckets []*bucket

	for _, r := range t.Records {
		keys, ok := groupKeys(r, dims)
		if !ok {
			continue
		}
		k := strings.Join(keys, "\x00")
		pos, ok := index[k]
		if !ok {
			pos = len(buckets)
			index[k] = pos
			buckets = append(buckets, &bucket{keys: keys})
		}
		b := buckets[pos]
		b.rows++
		if agg != AggCount && measure.Value != nil {
			if v, ok := measure.Value(r); ok {
				b.acc.add(v)
			}
		}
	}

	groups := make([]Group, len(buckets))
	for i, b := range buckets {
		groups[i] = Group{
			Keys:  b.keys,
			Label: joinKeys(b.keys),
			Rows:  b.rows,
			Value: b.acc.result(agg, b.rows),
		}
	}
	return groups
}

func groupKeys(r core.Record, dims []Dimension) ([]string, bool) {
	keys := make([]string, len(dims))
	for i, d := range dims {
		if keys[i] = d.Value(r); keys[i] == "" {
			return nil, false
		}
	}
	return keys, true
}

func joinKeys(keys []string) string {
	return strings.Join(keys, " / ")
}

// CountBy counts rows per combination of dims.
func CountBy(t *core.Table, dims ...Dimension) []Group {
	return GroupAndAggregate(t, dims, Measure{}, AggCount)
}

// SortGroups orders groups by value, descending, with ties broken by label.
func SortGroups(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Value != groups[j].Value {
			return groups[i].Value > groups[j].Value
		}
		return groups[i].Label < groups[j].Label
	})
}

// Limit truncates groups to at most n entries. n <= 0 keeps all.
func Limit(groups []Group, n int) []Group {
	if n > 0 && len(groups) > n {
		return groups[:n]
	}
	return groups
}
