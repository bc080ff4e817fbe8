package analytics

import (
	"math"
	"sort"

	"compras/internal/core"
)

// FilterOptions lists the values offered by the sidebar filters.
type FilterOptions struct {
	Regions      []string         `json:"regions"`
	Institutions []string         `json:"institutions"`
	Bounds       core.AmountRange `json:"bounds"`
}

// Apply returns the records of t matching spec, in their original order.
// The source table is never modified.
func Apply(t *core.Table, spec core.FilterSpec) *core.Table {
	out := &core.Table{}
	if t == nil {
		return out
	}
	out.Columns = t.Columns
	out.Source = t.Source
	if spec.Amount.Empty() {
		return out
	}
	for _, r := range t.Records {
		if spec.Matches(r) {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

// Options computes the distinct regions and institutions (All first, then
// sorted) and the integer amount bounds of t.
func Options(t *core.Table) FilterOptions {
	if t == nil {
		t = &core.Table{}
	}
	regions := map[string]struct{}{}
	institutions := map[string]struct{}{}
	bounds := core.AmountRange{}
	for i, r := range t.Records {
		if r.Region != "" {
			regions[r.Region] = struct{}{}
		}
		if r.Institution != "" {
			institutions[r.Institution] = struct{}{}
		}
		if i == 0 {
			bounds = core.AmountRange{Min: r.NetAmount, Max: r.NetAmount}
			continue
		}
		bounds.Min = math.Min(bounds.Min, r.NetAmount)
		bounds.Max = math.Max(bounds.Max, r.NetAmount)
	}
	return FilterOptions{
		Regions:      withAll(regions),
		Institutions: withAll(institutions),
		Bounds:       core.AmountRange{Min: math.Floor(bounds.Min), Max: math.Ceil(bounds.Max)},
	}
}

func withAll(set map[string]struct{}) []string {
	values := make([]string, 0, len(set))
	for v := range set {
		if v != core.All {
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return append([]string{core.All}, values...)
}
