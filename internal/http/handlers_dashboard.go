package http

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"compras/internal/analytics"
	"compras/internal/charts"
	"compras/internal/core"
	"compras/internal/export"
	"compras/internal/log"
)

const (
	sectionAnalysis = "analysis"
	sectionExplorer = "explorer"
)

type section struct {
	Key   string
	Label string
	URL   template.URL
}

var sections = []section{
	{Key: sectionAnalysis, Label: "Análisis General"},
	{Key: sectionExplorer, Label: "Exploración"},
}

var chartTitles = map[string]string{
	charts.TopInstitutions:    "Top 10 instituciones por monto neto",
	charts.RegionSize:         "Órdenes por región y tamaño de proveedor",
	charts.AmountDistribution: "Distribución del monto neto por tamaño de proveedor",
}

// filterForm is the sidebar state of the current request.
type filterForm struct {
	Region      string
	Institution string
	Min         string
	Max         string
	Bounds      core.AmountRange
	BoundMin    string
	BoundMax    string
}

type chartRef struct {
	Name  string
	Title string
	URL   template.URL
}

type feedbackPanel struct {
	Stats    core.FeedbackStats
	HasStats bool
	Min      int
	Max      int
	Default  int
}

type analysisData struct {
	View        analytics.View
	Columns     []string
	Rows        []core.Record
	Shown       int
	Truncated   bool
	Charts      []chartRef
	ExportURL   template.URL
	ExportName  string
	Glossary    []core.ColumnInfo
	Feedback    *feedbackPanel
	HasFeedback bool
}

type datasetInfo struct {
	Source  string
	Rows    int
	Dropped int
	Columns []string
	Head    []core.Record
}

type pageData struct {
	Section  string
	Sections []section
	Options  analytics.FilterOptions
	Filter   filterForm
	Dataset  datasetInfo
	Analysis *analysisData
	Explorer *explorerData
}

// request is the filtered state shared by every data handler.
type request struct {
	table   *core.Table
	options analytics.FilterOptions
	spec    core.FilterSpec
}

// loadRequest loads the dataset and reads the UI filters from the query. On
// failure the error response has already been written.
func (s *Server) loadRequest(w http.ResponseWriter, r *http.Request) (request, bool) {
	return s.loadRequestFrom(w, r, r.URL.Query())
}

func (s *Server) loadRequestFrom(w http.ResponseWriter, r *http.Request, values url.Values) (request, bool) {
	t, err := s.source.Table(r.Context())
	if err != nil {
		logger := log.FromContext(r.Context())
		var loadErr *core.DataLoadError
		if errors.As(err, &loadErr) {
			logger.ErrorContext(r.Context(), "Dataset unavailable",
				log.NewFields().WithComponent(log.ComponentDataset).WithError(err).With(log.FieldDataset, loadErr.Path).ToSlice()...)
		} else {
			logger.ErrorContext(r.Context(), "Dataset unavailable", log.NewFields().WithError(err).ToSlice()...)
		}
		ServiceUnavailableError("No se pudo cargar el conjunto de datos.").Write(w)
		return request{}, false
	}
	opts := analytics.Options(t)
	spec := ReadFilterParams(values).LenientSpec(opts.Bounds)
	return request{table: t, options: opts, spec: spec}, true
}

func (req request) filterForm() filterForm {
	return filterForm{
		Region:      req.spec.Region,
		Institution: req.spec.Institution,
		Min:         formatBound(req.spec.Amount.Min),
		Max:         formatBound(req.spec.Amount.Max),
		Bounds:      req.options.Bounds,
		BoundMin:    formatBound(req.options.Bounds.Min),
		BoundMax:    formatBound(req.options.Bounds.Max),
	}
}

// withQuery appends the filter of spec and any extra values to path.
func withQuery(path string, spec core.FilterSpec, extra url.Values) template.URL {
	q := EncodeFilter(spec)
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return template.URL(path + "?" + q.Encode())
}

// render executes a template into a buffer so failures become a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	s.renderStatus(w, r, http.StatusOK, name, data)
}

func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	body, err := s.execute(name, data)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.NewFields().WithComponent(log.ComponentTemplate).WithError(err).With("template", name).ToSlice()...)
		InternalServerError("Error al generar la página").Write(w)
		return
	}
	NewHTMXResponse().Status(status).Header("Content-Type", "text/html; charset=utf-8").Body(body).Write(w)
}

var errTemplatesNotLoaded = errors.New("templates not loaded")

func (s *Server) execute(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, errTemplatesNotLoaded
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	req, ok := s.loadRequest(w, r)
	if !ok {
		return
	}

	data := pageData{
		Section:  sectionAnalysis,
		Sections: make([]section, len(sections)),
		Options:  req.options,
		Filter:   req.filterForm(),
		Dataset: datasetInfo{
			Source:  req.table.Source,
			Rows:    req.table.Len(),
			Dropped: req.table.Dropped,
			Columns: req.table.Columns,
			Head:    req.table.Head(headRows).Records,
		},
	}
	for i, sec := range sections {
		sec.URL = withQuery("/", req.spec, url.Values{"section": {sec.Key}})
		data.Sections[i] = sec
	}
	if r.URL.Query().Get("section") == sectionExplorer {
		data.Section = sectionExplorer
		data.Explorer = s.explorerData(req, r.URL.Query().Get("spec"), "")
	} else {
		data.Analysis = s.analysisData(r, req)
	}

	s.render(w, r, "index.html", data)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	req, ok := s.loadRequest(w, r)
	if !ok {
		return
	}
	s.render(w, r, "analysis", s.analysisData(r, req))
}

func (s *Server) analysisData(r *http.Request, req request) *analysisData {
	view := analytics.Dashboard(req.table, req.spec)
	log.FromContext(r.Context()).DebugContext(r.Context(), "Dashboard computed",
		log.NewFields().WithComponent(log.ComponentAnalytics).WithOperation(log.OpFilter).
			WithFilter(req.spec).With(log.FieldRows, view.Summary.Rows).ToSlice()...)

	shown := view.Filtered.Len()
	if shown > s.previewRows {
		shown = s.previewRows
	}

	data := &analysisData{
		View:       view,
		Columns:    req.table.Columns,
		Rows:       view.Filtered.Head(shown).Records,
		Shown:      shown,
		Truncated:  shown < view.Filtered.Len(),
		ExportURL:  withQuery("/export.xlsx", req.spec, nil),
		ExportName: export.FileName,
		Glossary:   core.Glossary(),
	}
	if len(data.Columns) == 0 {
		data.Columns = core.RequiredColumns
	}
	for _, name := range charts.Names() {
		data.Charts = append(data.Charts, chartRef{
			Name:  name,
			Title: chartTitles[name],
			URL:   withQuery("/charts/"+name, req.spec, nil),
		})
	}

	if s.feedback != nil {
		data.HasFeedback = true
		data.Feedback = s.feedbackPanel(r)
	}
	return data
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, known := chartTitles[name]; !known {
		NotFoundError("Gráfico desconocido: " + name).Write(w)
		return
	}
	req, ok := s.loadRequest(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := charts.Render(&buf, name, analytics.Dashboard(req.table, req.spec)); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Chart rendering failed",
			log.NewFields().WithOperation(log.OpRender).WithError(err).With("chart", name).ToSlice()...)
		InternalServerError("No se pudo generar el gráfico.").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	req, ok := s.loadRequest(w, r)
	if !ok {
		return
	}
	logger := log.FromContext(r.Context())
	filtered := analytics.Apply(req.table, req.spec)

	data, err := export.WriteXLSX(filtered)
	if err != nil {
		fields := log.NewFields().WithComponent(log.ComponentExport).WithOperation(log.OpExport).WithError(err)
		var exportErr *core.ExportError
		if errors.As(err, &exportErr) {
			logger.ErrorContext(r.Context(), "Export failed", fields.ToSlice()...)
			InternalServerError("No se pudo generar el archivo Excel: " + exportErr.Err.Error()).Write(w)
			return
		}
		logger.ErrorContext(r.Context(), "Export failed", fields.ToSlice()...)
		InternalServerError("No se pudo generar el archivo Excel.").Write(w)
		return
	}

	logger.InfoContext(r.Context(), "Export generated",
		log.NewFields().WithComponent(log.ComponentExport).WithOperation(log.OpExport).
			WithFilter(req.spec).With(log.FieldRows, filtered.Len()).With("size", humanize.Bytes(uint64(len(data)))).ToSlice()...)

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
