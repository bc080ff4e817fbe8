package core

import (
	"math"
	"strings"
)

// All is the filter option that disables a categorical predicate.
const All = "Todos"

// Source column names of the procurement dataset.
const (
	ColOrderCode    = "codigoOC"
	ColRegion       = "RegionUnidadCompra"
	ColInstitution  = "Institucion"
	ColSupplier     = "Proveedor"
	ColSupplierSize = "TamanoProveedor"
	ColNetAmount    = "MontoNetoItem"
	ColCurrency     = "MonedaItem"
	ColQuantity     = "CantidadItem"
)

// RequiredColumns lists the columns a dataset must carry, in display order.
var RequiredColumns = []string{
	ColOrderCode,
	ColRegion,
	ColInstitution,
	ColSupplier,
	ColSupplierSize,
	ColNetAmount,
	ColCurrency,
	ColQuantity,
}

type (
	// Record is one purchased line item of a purchase order.
	Record struct {
		OrderCode    string
		Region       string
		Institution  string
		Supplier     string
		SupplierSize string
		NetAmount    float64 // always finite once loaded
		Currency     string
		Quantity     float64
		HasQuantity  bool // false when CantidadItem is empty or not numeric

		// Fields holds the raw row in Table.Columns order.
		Fields []string
	}

	// Table is an ordered, read-only set of records. Filtering produces new
	// tables that share Record values with their parent.
	Table struct {
		Columns []string
		Records []Record
		Dropped int    // rows excluded while coercing MontoNetoItem
		Source  string // file the table was loaded from, if any
	}

	// AmountRange is an inclusive net amount interval.
	AmountRange struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	}

	// FilterSpec selects a subset of a table. Region and Institution equal to
	// All (or empty) are not applied.
	FilterSpec struct {
		Region      string
		Institution string
		Amount      AmountRange
	}
)

// Len returns the number of records. A nil table is empty.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Head returns a table with at most n leading records.
func (t *Table) Head(n int) *Table {
	if t == nil {
		return &Table{}
	}
	if n < 0 || n > len(t.Records) {
		n = len(t.Records)
	}
	return &Table{Columns: t.Columns, Records: t.Records[:n:n], Source: t.Source}
}

// ColumnIndex returns the position of name in Columns, or -1.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Unbounded is the amount range that accepts every finite amount.
func Unbounded() AmountRange {
	return AmountRange{Min: math.Inf(-1), Max: math.Inf(1)}
}

// Contains reports whether v lies in the inclusive range.
// A range with Min > Max contains nothing.
func (r AmountRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Empty reports whether the range can never match.
func (r AmountRange) Empty() bool {
	return r.Min > r.Max || math.IsNaN(r.Min) || math.IsNaN(r.Max)
}

// IsAll reports whether a categorical filter value means "no filter".
func IsAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == All
}

// NewFilterSpec returns a spec that keeps every row.
func NewFilterSpec() FilterSpec {
	return FilterSpec{Region: All, Institution: All, Amount: Unbounded()}
}

// Matches reports whether the record satisfies every active predicate.
func (f FilterSpec) Matches(r Record) bool {
	if !IsAll(f.Region) && r.Region != f.Region {
		return false
	}
	if !IsAll(f.Institution) && r.Institution != f.Institution {
		return false
	}
	return f.Amount.Contains(r.NetAmount)
}
