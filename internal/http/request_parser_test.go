package http

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"compras/internal/core"
)

func TestFilterParamsSpec(t *testing.T) {
	bounds := core.AmountRange{Min: 0, Max: 1000}

	tests := []struct {
		name    string
		query   url.Values
		want    core.FilterSpec
		wantErr bool
	}{
		{
			name:  "empty query selects everything",
			query: url.Values{},
			want:  core.FilterSpec{Region: core.All, Institution: core.All, Amount: bounds},
		},
		{
			name:  "all values provided",
			query: url.Values{"region": {"Region A"}, "institution": {"Muni 1"}, "min": {"10"}, "max": {"20.5"}},
			want:  core.FilterSpec{Region: "Region A", Institution: "Muni 1", Amount: core.AmountRange{Min: 10, Max: 20.5}},
		},
		{
			name:  "explicit all sentinel",
			query: url.Values{"region": {"Todos"}, "institution": {"  "}},
			want:  core.FilterSpec{Region: core.All, Institution: core.All, Amount: bounds},
		},
		{
			name:  "inverted range is kept",
			query: url.Values{"min": {"500"}, "max": {"10"}},
			want:  core.FilterSpec{Region: core.All, Institution: core.All, Amount: core.AmountRange{Min: 500, Max: 10}},
		},
		{
			name:    "unparsable min",
			query:   url.Values{"min": {"abc"}},
			wantErr: true,
		},
		{
			name:    "infinite max",
			query:   url.Values{"max": {"Inf"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadFilterParams(tt.query).Spec(bounds)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFilter) {
					t.Fatalf("err = %v, want ErrInvalidFilter", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("spec = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLenientSpecFallsBackToBounds(t *testing.T) {
	bounds := core.AmountRange{Min: 5, Max: 50}
	got := ReadFilterParams(url.Values{"min": {"x"}, "max": {"40"}}).LenientSpec(bounds)
	if got.Amount.Min != 5 || got.Amount.Max != 40 {
		t.Errorf("amount = %+v, want {5 40}", got.Amount)
	}
}

func TestEncodeFilterRoundTrip(t *testing.T) {
	spec := core.FilterSpec{Region: "Región Ñuble", Institution: core.All, Amount: core.AmountRange{Min: 1.5, Max: 99}}
	q := EncodeFilter(spec)
	if q.Has("institution") {
		t.Error("all sentinel should not be encoded")
	}
	got, err := ReadFilterParams(q).Spec(core.AmountRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != spec {
		t.Errorf("round trip = %+v, want %+v", got, spec)
	}
}

func TestParseIntParam(t *testing.T) {
	q := url.Values{"limit": {"25"}, "bad": {"-1"}}
	if n, err := ParseIntParam(q, "limit", 5); err != nil || n != 25 {
		t.Errorf("limit = %d, %v", n, err)
	}
	if n, err := ParseIntParam(q, "missing", 5); err != nil || n != 5 {
		t.Errorf("missing = %d, %v", n, err)
	}
	if _, err := ParseIntParam(q, "bad", 5); err == nil {
		t.Error("negative value should fail")
	}
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantJSON bool
		want     map[string]string
	}{
		{
			name: "form data",
			body: "name=Ana&score=8&comment=hola%00mundo",
			want: map[string]string{"name": "Ana", "score": "8", "comment": "holamundo"},
		},
		{
			name:     "json data",
			body:     `{"name": " Ana ", "score": 8}`,
			wantJSON: true,
			want:     map[string]string{"name": "Ana", "score": "8", "comment": ""},
		},
		{
			name: "empty body",
			body: "",
			want: map[string]string{"name": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/feedback", strings.NewReader(tt.body))
			p := NewRequestBodyParser(req, 1024)
			if err := p.Parse(); err != nil {
				t.Fatalf("parse: %v", err)
			}
			if p.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON = %v, want %v", p.IsJSON(), tt.wantJSON)
			}
			for k, want := range tt.want {
				if got := p.Get(k); got != want {
					t.Errorf("Get(%q) = %q, want %q", k, got, want)
				}
			}
		})
	}
}

func TestRequestBodyParserInvalidJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/feedback", strings.NewReader(`{"name":`))
	p := NewRequestBodyParser(req, 1024)
	if err := p.Parse(); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x00b\tc\n "); got != "ab\tc" {
		t.Errorf("sanitizeInput = %q", got)
	}
}
