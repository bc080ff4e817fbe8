package analytics

import (
	"sort"

	"compras/internal/core"
)

// RegionSizeCounts holds row counts per region and supplier size, one facet
// per currency. All facets share the Regions and Sizes axes.
type RegionSizeCounts struct {
	Regions []string        `json:"regions"`
	Sizes   []string        `json:"sizes"`
	Facets  []CurrencyFacet `json:"facets"`
}

// CurrencyFacet holds Counts[size][region] for one currency.
type CurrencyFacet struct {
	Currency string  `json:"currency"`
	Counts   [][]int `json:"counts"`
	Rows     int     `json:"rows"`
}

// RegionSizeByCurrency counts rows grouped by region and supplier size,
// faceted by currency. Axis values are sorted.
func RegionSizeByCurrency(t *core.Table) RegionSizeCounts {
	groups := CountBy(t, DimCurrency, DimRegion, DimSupplierSize)

	currencies := distinct(groups, 0)
	out := RegionSizeCounts{
		Regions: distinct(groups, 1),
		Sizes:   distinct(groups, 2),
	}
	regionPos := positions(out.Regions)
	sizePos := positions(out.Sizes)

	out.Facets = make([]CurrencyFacet, len(currencies))
	facetPos := positions(currencies)
	for i, c := range currencies {
		counts := make([][]int, len(out.Sizes))
		for j := range counts {
			counts[j] = make([]int, len(out.Regions))
		}
		out.Facets[i] = CurrencyFacet{Currency: c, Counts: counts}
	}
	for _, g := range groups {
		f := &out.Facets[facetPos[g.Keys[0]]]
		f.Counts[sizePos[g.Keys[2]]][regionPos[g.Keys[1]]] += g.Rows
		f.Rows += g.Rows
	}
	return out
}

func distinct(groups []Group, key int) []string {
	seen := make(map[string]struct{})
	var values []string
	for _, g := range groups {
		if _, ok := seen[g.Keys[key]]; !ok {
			seen[g.Keys[key]] = struct{}{}
			values = append(values, g.Keys[key])
		}
	}
	sort.Strings(values)
	return values
}

func positions(values []string) map[string]int {
	m := make(map[string]int, len(values))
	for i, v := range values {
		m[v] = i
	}
	return m
}
