package http

import (
	"encoding/json"
	"html/template"
	"math"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"

	"compras/internal/log"
)

// undefined is shown for statistics that do not exist for the current view.
const undefined = "—"

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// formatMoney renders an amount rounded to whole units with thousands
// separators (e.g., "$1,234,567").
func formatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return undefined
	}
	n := math.Round(v)
	if n == 0 {
		n = 0 // drop the sign of -0
	}
	if n < 0 {
		return "-$" + humanize.Commaf(-n)
	}
	return "$" + humanize.Commaf(n)
}

// formatCount renders an integer with thousands separators.
func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

// formatNumber renders a statistic with two decimals.
func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return undefined
	}
	// CommafWithDigits truncates; round to cents first.
	if math.Abs(v) < 1e15 {
		v = math.Round(v*100) / 100
	}
	return humanize.CommafWithDigits(v, 2)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":     formatMoney,
		"count":     formatCount,
		"num":       formatNumber,
		"undefined": func() string { return undefined },
		"add":       func(a, b int) int { return a + b },
	}
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to encode JSON response",
			log.NewFields().WithError(err).ToSlice()...)
	}
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, apiError{Error: message})
}
