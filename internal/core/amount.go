// Package core provides the procurement domain types.
//
// This file holds numeric coercion for dataset columns.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount coerces a raw cell into a finite float.
//
// Surrounding whitespace is ignored. Empty cells, non-numeric text, NaN and
// infinities are rejected with ErrInvalidAmount, mirroring a numeric coercion
// that turns anything unparsable into a missing value.
//
// Examples:
//
//	ParseAmount("1500")    -> 1500, nil
//	ParseAmount(" 12.5 ")  -> 12.5, nil
//	ParseAmount("1e3")     -> 1000, nil
//	ParseAmount("12,5")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}
