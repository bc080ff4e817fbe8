package charts

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"compras/internal/analytics"
	"compras/internal/core"
)

func view() analytics.View {
	table := &core.Table{Records: []core.Record{
		{OrderCode: "1", Region: "Norte", Institution: "Muni Uno", SupplierSize: "Pyme", NetAmount: 100, Currency: "CLP"},
		{OrderCode: "2", Region: "Sur", Institution: "Muni Dos", SupplierSize: "Grande", NetAmount: 300, Currency: "CLP"},
		{OrderCode: "3", Region: "Sur", Institution: "Muni Dos", SupplierSize: "Pyme", NetAmount: 50, Currency: "USD"},
	}}
	return analytics.Dashboard(table, core.NewFilterSpec())
}

func TestRenderCharts(t *testing.T) {
	v := view()
	tests := []struct {
		name string
		want []string
	}{
		{TopInstitutions, []string{"Top 10 Instituciones", "Muni Dos"}},
		{RegionSize, []string{"MonedaItem = CLP", "MonedaItem = USD", "Pyme"}},
		{AmountDistribution, []string{"boxplot", "CLP"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Render(&buf, tt.name, v); err != nil {
				t.Fatalf("Render: %v", err)
			}
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Fatalf("expected %q in output", w)
				}
			}
		})
	}
}

func TestRenderEmptyView(t *testing.T) {
	empty := analytics.Dashboard(&core.Table{}, core.NewFilterSpec())
	for _, name := range Names() {
		var buf bytes.Buffer
		if err := Render(&buf, name, empty); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !strings.Contains(buf.String(), noData) {
			t.Fatalf("%s: expected empty-data subtitle", name)
		}
	}
}

func TestRenderUnknown(t *testing.T) {
	err := Render(&bytes.Buffer{}, "pie", view())
	if !errors.Is(err, ErrUnknownChart) {
		t.Fatalf("expected ErrUnknownChart, got %v", err)
	}
}

func TestTopInstitutionsOrder(t *testing.T) {
	var buf bytes.Buffer
	bar := TopInstitutionsBar([]analytics.GroupTotal{
		{Institution: "Inst Mayor", Total: 3},
		{Institution: "Inst Media", Total: 2},
		{Institution: "Inst Menor", Total: 1},
	})
	if err := bar.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if strings.Index(out, "Inst Menor") > strings.Index(out, "Inst Mayor") {
		t.Fatalf("expected the largest institution last on the category axis")
	}
}
