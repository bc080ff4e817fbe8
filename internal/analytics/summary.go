package analytics

import "compras/internal/core"

// Summary holds the headline metrics of a view.
type Summary struct {
	Orders    int     `json:"orders"`
	Suppliers int     `json:"suppliers"`
	Total     float64 `json:"total"`
	Rows      int     `json:"rows"`
}

// Summarize counts distinct order codes and suppliers and sums net amounts.
// Blank codes and suppliers are not counted.
func Summarize(t *core.Table) Summary {
	s := Summary{Rows: t.Len()}
	if t.Len() == 0 {
		return s
	}
	orders := make(map[string]struct{})
	suppliers := make(map[string]struct{})
	for _, r := range t.Records {
		if r.OrderCode != "" {
			orders[r.OrderCode] = struct{}{}
		}
		if r.Supplier != "" {
			suppliers[r.Supplier] = struct{}{}
		}
		s.Total += r.NetAmount
	}
	s.Orders = len(orders)
	s.Suppliers = len(suppliers)
	return s
}

// GroupTotal is the summed net amount of one institution.
type GroupTotal struct {
	Institution string  `json:"institution"`
	Total       float64 `json:"total"`
}

// TopInstitutions returns the n institutions with the largest summed net
// amount. Equal totals are ordered by institution name.
func TopInstitutions(t *core.Table, n int) []GroupTotal {
	groups := GroupAndAggregate(t, []Dimension{DimInstitution}, MeasureNetAmount, AggSum)
	SortGroups(groups)
	groups = Limit(groups, n)

	out := make([]GroupTotal, len(groups))
	for i, g := range groups {
		out[i] = GroupTotal{Institution: g.Keys[0], Total: g.Value}
	}
	return out
}
