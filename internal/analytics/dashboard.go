package analytics

import "compras/internal/core"

// TopN is the number of institutions in the ranking chart.
const TopN = 10

// View is every derived view of one filter specification.
type View struct {
	Spec         core.FilterSpec  `json:"-"`
	Filtered     *core.Table      `json:"-"`
	Summary      Summary          `json:"summary"`
	Top          []GroupTotal     `json:"top_institutions"`
	RegionSize   RegionSizeCounts `json:"region_size"`
	Distribution []BoxStats       `json:"amount_distribution"`
	Stats        []ColumnStats    `json:"statistics"`
}

// Dashboard recomputes the whole pipeline for spec: filter, then every
// aggregate. It has no side effects.
func Dashboard(t *core.Table, spec core.FilterSpec) View {
	filtered := Apply(t, spec)
	return View{
		Spec:         spec,
		Filtered:     filtered,
		Summary:      Summarize(filtered),
		Top:          TopInstitutions(filtered, TopN),
		RegionSize:   RegionSizeByCurrency(filtered),
		Distribution: AmountDistribution(filtered),
		Stats:        Describe(filtered),
	}
}
