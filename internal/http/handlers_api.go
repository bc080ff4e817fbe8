package http

import (
	"net/http"

	"compras/internal/analytics"
	"compras/internal/core"
	"compras/internal/log"
)

type apiFilter struct {
	Region      string  `json:"region"`
	Institution string  `json:"institution"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
}

func toAPIFilter(spec core.FilterSpec) apiFilter {
	return apiFilter{
		Region:      spec.Region,
		Institution: spec.Institution,
		Min:         spec.Amount.Min,
		Max:         spec.Amount.Max,
	}
}

type apiOptions struct {
	analytics.FilterOptions
	Rows    int    `json:"rows"`
	Dropped int    `json:"dropped"`
	Source  string `json:"source,omitempty"`
}

type apiDashboard struct {
	Filter apiFilter `json:"filter"`
	analytics.View
}

type apiRecords struct {
	Filter  apiFilter           `json:"filter"`
	Total   int                 `json:"total"`
	Offset  int                 `json:"offset"`
	Limit   int                 `json:"limit"`
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

// apiRequest loads the table and parses the filters strictly. On failure the
// JSON error has already been written.
func (s *Server) apiRequest(w http.ResponseWriter, r *http.Request) (request, bool) {
	t, err := s.source.Table(r.Context())
	if err != nil {
		writeJSONError(w, r, http.StatusServiceUnavailable, "dataset unavailable")
		return request{}, false
	}
	opts := analytics.Options(t)
	spec, err := ReadFilterParams(r.URL.Query()).Spec(opts.Bounds)
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return request{}, false
	}
	return request{table: t, options: opts, spec: spec}, true
}

func (s *Server) handleAPIOptions(w http.ResponseWriter, r *http.Request) {
	t, err := s.source.Table(r.Context())
	if err != nil {
		writeJSONError(w, r, http.StatusServiceUnavailable, "dataset unavailable")
		return
	}
	writeJSON(w, r, http.StatusOK, apiOptions{
		FilterOptions: analytics.Options(t),
		Rows:          t.Len(),
		Dropped:       t.Dropped,
		Source:        t.Source,
	})
}

func (s *Server) handleAPIDashboard(w http.ResponseWriter, r *http.Request) {
	req, ok := s.apiRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, apiDashboard{
		Filter: toAPIFilter(req.spec),
		View:   analytics.Dashboard(req.table, req.spec),
	})
}

// handleAPIRecords pages through the filtered rows. limit defaults to the
// table preview size and is capped by it.
func (s *Server) handleAPIRecords(w http.ResponseWriter, r *http.Request) {
	req, ok := s.apiRequest(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	offset, err := ParseIntParam(query, "offset", 0)
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := ParseIntParam(query, "limit", s.previewRows)
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if limit > s.previewRows {
		limit = s.previewRows
	}

	filtered := analytics.Apply(req.table, req.spec)
	columns := req.table.Columns
	if len(columns) == 0 {
		columns = core.RequiredColumns
	}

	out := apiRecords{
		Filter:  toAPIFilter(req.spec),
		Total:   filtered.Len(),
		Offset:  offset,
		Limit:   limit,
		Columns: columns,
		Rows:    []map[string]string{},
	}
	if offset < filtered.Len() {
		end := offset + limit
		if end > filtered.Len() {
			end = filtered.Len()
		}
		for _, rec := range filtered.Records[offset:end] {
			row := make(map[string]string, len(columns))
			for i, c := range columns {
				if i < len(rec.Fields) {
					row[c] = rec.Fields[i]
				}
			}
			out.Rows = append(out.Rows, row)
		}
	}
	writeJSON(w, r, http.StatusOK, out)
}

type apiFeedback struct {
	Stats  core.FeedbackStats `json:"stats"`
	Recent []core.Feedback    `json:"recent"`
}

func (s *Server) handleAPIFeedback(w http.ResponseWriter, r *http.Request) {
	if s.feedback == nil {
		writeJSONError(w, r, http.StatusServiceUnavailable, "feedback unavailable")
		return
	}
	limit, err := ParseIntParam(r.URL.Query(), "limit", 0)
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	stats, err := s.feedback.Stats(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to read feedback stats", log.FieldError, err)
		writeJSONError(w, r, http.StatusInternalServerError, "feedback unavailable")
		return
	}
	recent, err := s.feedback.Recent(r.Context(), limit)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to list feedback", log.FieldError, err)
		writeJSONError(w, r, http.StatusInternalServerError, "feedback unavailable")
		return
	}
	if recent == nil {
		recent = []core.Feedback{}
	}
	writeJSON(w, r, http.StatusOK, apiFeedback{Stats: stats, Recent: recent})
}

func (s *Server) handleAPIGlossary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, core.Glossary())
}
