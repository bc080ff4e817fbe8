// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Every data route reads the same filter parameters, so parsing lives here
// together with the body parser used by the feedback form.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"compras/internal/core"
)

// Filter query parameters.
const (
	paramRegion      = "region"
	paramInstitution = "institution"
	paramMin         = "min"
	paramMax         = "max"
)

// ErrInvalidFilter is returned for filter values that cannot be parsed.
var ErrInvalidFilter = errors.New("invalid filter")

// FilterParams holds the raw filter values of a request.
type FilterParams struct {
	Region      string
	Institution string
	Min         string
	Max         string
}

// ReadFilterParams extracts the filter values from query parameters.
func ReadFilterParams(query url.Values) FilterParams {
	return FilterParams{
		Region:      sanitizeInput(query.Get(paramRegion)),
		Institution: sanitizeInput(query.Get(paramInstitution)),
		Min:         strings.TrimSpace(query.Get(paramMin)),
		Max:         strings.TrimSpace(query.Get(paramMax)),
	}
}

// Spec converts the parameters into a filter specification. Missing values
// select every region, every institution and the full bounds.
func (p FilterParams) Spec(bounds core.AmountRange) (core.FilterSpec, error) {
	spec := core.FilterSpec{
		Region:      orAll(p.Region),
		Institution: orAll(p.Institution),
		Amount:      bounds,
	}

	var errs []error
	if p.Min != "" {
		v, err := core.ParseAmount(p.Min)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q", ErrInvalidFilter, paramMin, p.Min))
		} else {
			spec.Amount.Min = v
		}
	}
	if p.Max != "" {
		v, err := core.ParseAmount(p.Max)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q", ErrInvalidFilter, paramMax, p.Max))
		} else {
			spec.Amount.Max = v
		}
	}
	return spec, errors.Join(errs...)
}

// LenientSpec is Spec for the UI routes: unparsable numbers fall back to the
// bounds instead of failing the request.
func (p FilterParams) LenientSpec(bounds core.AmountRange) core.FilterSpec {
	spec, err := p.Spec(bounds)
	if err == nil {
		return spec
	}
	if _, err := core.ParseAmount(p.Min); err != nil {
		spec.Amount.Min = bounds.Min
	}
	if _, err := core.ParseAmount(p.Max); err != nil {
		spec.Amount.Max = bounds.Max
	}
	return spec
}

// EncodeFilter renders spec as the query string understood by ReadFilterParams.
func EncodeFilter(spec core.FilterSpec) url.Values {
	q := url.Values{}
	if !core.IsAll(spec.Region) {
		q.Set(paramRegion, spec.Region)
	}
	if !core.IsAll(spec.Institution) {
		q.Set(paramInstitution, spec.Institution)
	}
	q.Set(paramMin, formatBound(spec.Amount.Min))
	q.Set(paramMax, formatBound(spec.Amount.Max))
	return q
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orAll(v string) string {
	if core.IsAll(v) {
		return core.All
	}
	return v
}

// ParseIntParam reads a non-negative integer query parameter, returning def
// when it is missing.
func ParseIntParam(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads at most limit bytes of the body once and stores them.
func NewRequestBodyParser(r *http.Request, limit int64) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, limit))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
