package explorer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"compras/internal/analytics"
	"compras/internal/core"
)

// Mark is the chart type of one exploration chart.
type Mark string

const (
	MarkBar     Mark = "bar"
	MarkLine    Mark = "line"
	MarkPie     Mark = "pie"
	MarkScatter Mark = "scatter"
	MarkBoxPlot Mark = "boxplot"
)

const (
	// MaxSpecBytes bounds uploaded exploration documents.
	MaxSpecBytes = 1 << 20
	maxCharts    = 12
)

// Spec is an exploration specification: the charts to draw over the
// filtered table.
type Spec struct {
	Charts []ChartSpec `json:"charts"`
}

// ChartSpec describes one chart. X is a categorical column (a numeric one for
// scatter), Y a numeric column or empty for row counts.
type ChartSpec struct {
	Name      string `json:"name,omitempty"`
	Mark      Mark   `json:"mark"`
	X         string `json:"x"`
	Y         string `json:"y,omitempty"`
	Color     string `json:"color,omitempty"`
	Aggregate string `json:"aggregate,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// DefaultSpec is the exploration shown when no document was uploaded.
func DefaultSpec() Spec {
	return Spec{Charts: []ChartSpec{
		{Name: "Monto neto por región", Mark: MarkBar, X: core.ColRegion, Y: core.ColNetAmount, Color: core.ColSupplierSize, Aggregate: "sum"},
		{Name: "Órdenes por moneda", Mark: MarkPie, X: core.ColCurrency, Aggregate: "count"},
		{Name: "Monto neto por tamaño de proveedor", Mark: MarkBoxPlot, X: core.ColSupplierSize, Y: core.ColNetAmount, Color: core.ColCurrency},
		{Name: "Monto promedio por institución", Mark: MarkLine, X: core.ColInstitution, Y: core.ColNetAmount, Aggregate: "mean", Limit: 15},
		{Name: "Monto neto vs cantidad", Mark: MarkScatter, X: core.ColNetAmount, Y: core.ColQuantity, Color: core.ColCurrency, Limit: 2000},
	}}
}

// ParseSpec decodes and validates an exploration document. Both
// {"charts": [...]} and a bare array of charts are accepted.
func ParseSpec(data []byte) (Spec, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Spec{}, &core.ExplorerSpecError{Reason: "empty document"}
	}
	if len(data) > MaxSpecBytes {
		return Spec{}, &core.ExplorerSpecError{Reason: fmt.Sprintf("document larger than %d bytes", MaxSpecBytes)}
	}

	var spec Spec
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var err error
	if data[0] == '[' {
		err = dec.Decode(&spec.Charts)
	} else {
		err = dec.Decode(&spec)
	}
	if err != nil {
		return Spec{}, &core.ExplorerSpecError{Reason: "invalid JSON", Err: err}
	}
	if dec.More() {
		return Spec{}, &core.ExplorerSpecError{Reason: "unexpected data after the document"}
	}

	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// Validate checks every chart and fills in defaults.
func (s *Spec) Validate() error {
	if len(s.Charts) == 0 {
		return &core.ExplorerSpecError{Reason: "no charts defined"}
	}
	if len(s.Charts) > maxCharts {
		return &core.ExplorerSpecError{Reason: fmt.Sprintf("at most %d charts are allowed", maxCharts)}
	}
	for i := range s.Charts {
		if err := s.Charts[i].normalize(); err != nil {
			return &core.ExplorerSpecError{Reason: fmt.Sprintf("chart %d", i+1), Err: err}
		}
	}
	return nil
}

func (c *ChartSpec) normalize() error {
	c.Mark = Mark(strings.ToLower(strings.TrimSpace(string(c.Mark))))
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}

	switch c.Mark {
	case MarkBar, MarkLine, MarkPie, MarkBoxPlot:
		if _, ok := analytics.DimensionByName(c.X); !ok {
			return fmt.Errorf("x %q is not a categorical column", c.X)
		}
	case MarkScatter:
		if _, ok := analytics.MeasureByName(c.X); !ok {
			return fmt.Errorf("x %q is not a numeric column", c.X)
		}
		if _, ok := analytics.MeasureByName(c.Y); !ok {
			return fmt.Errorf("scatter needs a numeric y, got %q", c.Y)
		}
	default:
		return fmt.Errorf("unknown mark %q", c.Mark)
	}

	if c.Y != "" {
		if _, ok := analytics.MeasureByName(c.Y); !ok {
			return fmt.Errorf("y %q is not a numeric column", c.Y)
		}
	} else if c.Mark == MarkBoxPlot {
		return fmt.Errorf("boxplot needs a numeric y")
	}

	if c.Color != "" {
		if c.Mark == MarkPie {
			return fmt.Errorf("pie charts do not support color")
		}
		if _, ok := analytics.DimensionByName(c.Color); !ok {
			return fmt.Errorf("color %q is not a categorical column", c.Color)
		}
	}

	switch {
	case c.Aggregate != "":
		agg, ok := analytics.ParseAggregation(c.Aggregate)
		if !ok {
			return fmt.Errorf("unknown aggregate %q", c.Aggregate)
		}
		if agg != analytics.AggCount && c.Y == "" {
			return fmt.Errorf("aggregate %q needs a numeric y", agg)
		}
		c.Aggregate = string(agg)
	case c.Y == "":
		c.Aggregate = string(analytics.AggCount)
	default:
		c.Aggregate = string(analytics.AggSum)
	}

	if c.Name == "" {
		c.Name = c.title()
	}
	return nil
}

func (c ChartSpec) title() string {
	if c.Mark == MarkScatter || c.Mark == MarkBoxPlot {
		return fmt.Sprintf("%s por %s", c.Y, c.X)
	}
	if c.Aggregate == string(analytics.AggCount) {
		return "count por " + c.X
	}
	return fmt.Sprintf("%s(%s) por %s", c.Aggregate, c.Y, c.X)
}
