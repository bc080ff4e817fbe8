package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"compras/internal/core"
)

const sampleCSV = "\ufeffcodigoOC,RegionUnidadCompra,Institucion,Proveedor,TamanoProveedor,MontoNetoItem,MonedaItem,CantidadItem\n" +
	"OC-1,Region A,Inst X,Prov 1,Pyme,100,CLP,2\n" +
	"OC-2,Region A,Inst Y,Prov 2,Grande, 200 ,CLP,\n" +
	"OC-3,Region B,Inst X,Prov 1,Pyme,50,USD,1.5\n" +
	"OC-4,Region B,Inst Z,Prov 3,Pyme,n/a,CLP,1\n" +
	"OC-5,Region C,Inst Z,Prov 3,Pyme,,CLP,1\n" +
	"OC-6,Region C,Inst Z\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestParseCoercesAndDrops(t *testing.T) {
	table, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", table.Len())
	}
	if table.Dropped != 3 {
		t.Fatalf("expected 3 dropped rows, got %d", table.Dropped)
	}
	if table.Columns[0] != core.ColOrderCode {
		t.Fatalf("BOM not stripped from header: %q", table.Columns[0])
	}
	second := table.Records[1]
	if second.NetAmount != 200 || second.HasQuantity {
		t.Fatalf("unexpected second record: %+v", second)
	}
	third := table.Records[2]
	if third.Quantity != 1.5 || !third.HasQuantity || third.Currency != "USD" {
		t.Fatalf("unexpected third record: %+v", third)
	}
	if len(third.Fields) != len(table.Columns) {
		t.Fatalf("raw fields not kept")
	}
}

func TestParseColumnOrderIndependent(t *testing.T) {
	csv := "MontoNetoItem,codigoOC,MonedaItem,Institucion,RegionUnidadCompra,Proveedor,TamanoProveedor,CantidadItem,Extra\n" +
		"10.5,OC-9,CLP,Inst,Reg,Prov,Micro,3,x\n"
	table, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := table.Records[0]
	if r.OrderCode != "OC-9" || r.Region != "Reg" || r.NetAmount != 10.5 || r.SupplierSize != "Micro" {
		t.Fatalf("unexpected record: %+v", r)
	}
	if table.ColumnIndex("Extra") != 8 {
		t.Fatalf("extra columns should be kept")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", core.ErrEmptyFile},
		{"missing column", "codigoOC,RegionUnidadCompra\nOC-1,A\n", core.ErrMissingColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	l := NewLoader(4, time.Hour, nil)
	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	var dle *core.DataLoadError
	if !errors.As(err, &dle) {
		t.Fatalf("expected DataLoadError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist cause, got %v", err)
	}
}

func TestLoadMalformedHeaderIsDataLoadError(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "bad.csv", "a,b,c\n1,2,3\n")
	_, err := NewLoader(4, time.Hour, nil).Load(context.Background(), p)
	var dle *core.DataLoadError
	if !errors.As(err, &dle) || !errors.Is(err, core.ErrMissingColumn) {
		t.Fatalf("expected DataLoadError wrapping ErrMissingColumn, got %v", err)
	}
}

func TestLoadMemoizesByIdentity(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "data.csv", sampleCSV)
	l := NewLoader(4, time.Hour, nil)
	ctx := context.Background()

	first, err := l.Load(ctx, p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first.Source == "" {
		t.Fatalf("expected source path on table")
	}
	second, err := l.Load(ctx, p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first != second {
		t.Fatalf("expected the memoized table to be returned")
	}

	// A different size and mtime is a different identity.
	changed := sampleCSV + "OC-7,Region D,Inst W,Prov 4,Pyme,75,CLP,1\n"
	if err := os.WriteFile(p, []byte(changed), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(p, future, future); err != nil {
		t.Fatal(err)
	}
	third, err := l.Load(ctx, p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if third == first || third.Len() != 4 {
		t.Fatalf("expected a re-read table with 4 rows, got %d", third.Len())
	}
}

func TestLoadIgnoresCallerCancellation(t *testing.T) {
	p := writeFile(t, t.TempDir(), "data.csv", sampleCSV)
	l := NewLoader(4, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	table, err := l.Load(ctx, p)
	if err != nil {
		t.Fatalf("Load with a cancelled caller: %v", err)
	}
	again, err := l.Load(context.Background(), p)
	if err != nil || again != table {
		t.Fatalf("expected the shared read to be memoized, err=%v", err)
	}
}

func TestParseKeepsBlankCells(t *testing.T) {
	csv := "codigoOC,RegionUnidadCompra,Institucion,Proveedor,TamanoProveedor,MontoNetoItem,MonedaItem,CantidadItem\n" +
		"OC-1,Norte,Muni A,P1,Pyme,100,CLP,1\n" +
		",Norte,,,Pyme,50,CLP,1\n"
	table, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("rows = %d, want 2", table.Len())
	}
	blank := table.Records[1]
	if blank.OrderCode != "" || blank.Institution != "" || blank.Supplier != "" || blank.NetAmount != 50 {
		t.Fatalf("blank row = %+v", blank)
	}
}

func TestLoadConcurrentCallsShareTable(t *testing.T) {
	p := writeFile(t, t.TempDir(), "data.csv", sampleCSV)
	l := NewLoader(4, time.Hour, nil)

	const n = 8
	tables := make([]*core.Table, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tbl, err := l.Load(context.Background(), p)
			if err != nil {
				t.Errorf("Load: %v", err)
				return
			}
			tables[i] = tbl
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if tables[i] != tables[0] {
			t.Fatalf("goroutine %d got a different table", i)
		}
	}
}

func TestFileSource(t *testing.T) {
	p := writeFile(t, t.TempDir(), "data.csv", sampleCSV)
	src := NewFileSource(NewLoader(1, 0, nil), p)
	tbl, err := src.Table(context.Background())
	if err != nil || tbl.Len() != 3 {
		t.Fatalf("Table: %v, %d rows", err, tbl.Len())
	}
	if src.Path() != p {
		t.Fatalf("unexpected path %q", src.Path())
	}

	empty, _ := StaticSource{}.Table(context.Background())
	if empty.Len() != 0 || len(empty.Columns) != len(core.RequiredColumns) {
		t.Fatalf("unexpected empty static table")
	}
}
