package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"compras/internal/core"
)

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWriteXLSXEmptyTable(t *testing.T) {
	data, err := WriteXLSX(&core.Table{Columns: core.RequiredColumns})
	if err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f := open(t, data)

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
	if len(rows[0]) != len(core.RequiredColumns) || rows[0][0] != core.ColOrderCode {
		t.Fatalf("unexpected header %v", rows[0])
	}
}

func TestWriteXLSXNilTable(t *testing.T) {
	data, err := WriteXLSX(nil)
	if err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	rows, _ := open(t, data).GetRows(SheetName)
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}

func TestWriteXLSXRows(t *testing.T) {
	table := &core.Table{
		Columns: core.RequiredColumns,
		Records: []core.Record{
			{
				OrderCode: "OC-1", Region: "Norte", Institution: "Muni", Supplier: "P1",
				SupplierSize: "Pyme", NetAmount: 1500.5, Currency: "CLP", Quantity: 2, HasQuantity: true,
				Fields: []string{"OC-1", "Norte", "Muni", "P1", "Pyme", " 1500.5", "CLP", "2"},
			},
			{
				OrderCode: "OC-2", Region: "Sur", Institution: "Muni", Supplier: "P2",
				SupplierSize: "Grande", NetAmount: 10, Currency: "USD",
			},
		},
	}
	data, err := WriteXLSX(table)
	if err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f := open(t, data)
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1][0] != "OC-1" || rows[2][1] != "Sur" {
		t.Fatalf("unexpected rows %v", rows)
	}

	typ, err := f.GetCellType(SheetName, "F2")
	if err != nil {
		t.Fatalf("GetCellType: %v", err)
	}
	if typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString {
		t.Fatalf("net amount should be numeric")
	}
	if v, _ := f.GetCellValue(SheetName, "F2"); v != "1500.5" {
		t.Fatalf("unexpected amount cell %q", v)
	}
}
