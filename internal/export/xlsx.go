package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"compras/internal/core"
)

const (
	// FileName is the download name of the filtered workbook.
	FileName = "ordenes_compra_filtradas.xlsx"
	// SheetName is the only sheet of the workbook.
	SheetName = "OrdenesCompra"
	// ContentType is the MIME type of an XLSX workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WriteXLSX serializes t into a workbook with a header row and one row per
// record. Net amount and parsed quantity cells are numeric.
func WriteXLSX(t *core.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, &core.ExportError{Err: fmt.Errorf("rename sheet: %w", err)}
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, &core.ExportError{Err: fmt.Errorf("stream writer: %w", err)}
	}

	columns := core.RequiredColumns
	if t != nil && len(t.Columns) > 0 {
		columns = t.Columns
	}
	header := make([]interface{}, len(columns))
	amountCol, quantityCol := -1, -1
	for i, c := range columns {
		header[i] = c
		switch c {
		case core.ColNetAmount:
			amountCol = i
		case core.ColQuantity:
			quantityCol = i
		}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, &core.ExportError{Err: fmt.Errorf("write header: %w", err)}
	}

	for i, r := range rowsOf(t) {
		cells := make([]interface{}, len(columns))
		for j := range columns {
			switch {
			case j == amountCol:
				cells[j] = r.NetAmount
			case j == quantityCol && r.HasQuantity:
				cells[j] = r.Quantity
			default:
				cells[j] = field(r, columns[j], j)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, &core.ExportError{Err: err}
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return nil, &core.ExportError{Err: fmt.Errorf("write row %d: %w", i+1, err)}
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, &core.ExportError{Err: fmt.Errorf("flush: %w", err)}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, &core.ExportError{Err: fmt.Errorf("write workbook: %w", err)}
	}
	return buf.Bytes(), nil
}

func rowsOf(t *core.Table) []core.Record {
	if t == nil {
		return nil
	}
	return t.Records
}

// field returns the raw value at column j, falling back to the typed record
// fields for tables built without raw rows.
func field(r core.Record, column string, j int) string {
	if j < len(r.Fields) {
		return r.Fields[j]
	}
	switch column {
	case core.ColOrderCode:
		return r.OrderCode
	case core.ColRegion:
		return r.Region
	case core.ColInstitution:
		return r.Institution
	case core.ColSupplier:
		return r.Supplier
	case core.ColSupplierSize:
		return r.SupplierSize
	case core.ColCurrency:
		return r.Currency
	}
	return ""
}
