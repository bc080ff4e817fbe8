package http

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"net/http"
	"net/url"

	"github.com/dustin/go-humanize"

	"compras/internal/analytics"
	"compras/internal/core"
	"compras/internal/explorer"
	"compras/internal/log"
)

const (
	paramSpec      = "spec"
	formSpecFile   = "spec_file"
	formSpecText   = "spec_text"
	uploadOverhead = 64 << 10
)

type explorerData struct {
	FrameURL template.URL
	SpecID   string
	Custom   bool
	Error    string
	MaxSize  string
	Example  string
}

// explorerData builds the explorer section. An unknown or expired spec id
// falls back to the default exploration.
func (s *Server) explorerData(req request, specID, errMsg string) *explorerData {
	data := &explorerData{
		Error:   errMsg,
		MaxSize: humanize.IBytes(explorer.MaxSpecBytes),
		Example: exampleSpec,
	}
	extra := url.Values{}
	if _, ok := s.specs.Get(specID); ok {
		data.SpecID = specID
		data.Custom = true
		extra.Set(paramSpec, specID)
	}
	data.FrameURL = withQuery("/explorer/render", req.spec, extra)
	return data
}

func (s *Server) handleExplorer(w http.ResponseWriter, r *http.Request) {
	req, ok := s.loadRequest(w, r)
	if !ok {
		return
	}
	s.render(w, r, "explorer", s.explorerData(req, r.URL.Query().Get(paramSpec), ""))
}

// handleExplorerRender serves the explorer document for the current filters.
func (s *Server) handleExplorerRender(w http.ResponseWriter, r *http.Request) {
	req, ok := s.loadRequest(w, r)
	if !ok {
		return
	}
	logger := log.FromContext(r.Context())

	spec := explorer.DefaultSpec()
	if id := r.URL.Query().Get(paramSpec); id != "" {
		if stored, found := s.specs.Get(id); found {
			spec = stored
		} else {
			logger.DebugContext(r.Context(), "Exploration spec expired, using default", paramSpec, id)
		}
	}
	if err := spec.Validate(); err != nil {
		logger.ErrorContext(r.Context(), "Default exploration spec invalid", log.FieldError, err)
		InternalServerError("La exploración no es válida.").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := explorer.Render(&buf, analytics.Apply(req.table, req.spec), spec); err != nil {
		logger.ErrorContext(r.Context(), "Exploration rendering failed",
			log.NewFields().WithComponent(log.ComponentExplorer).WithOperation(log.OpRender).WithError(err).ToSlice()...)
		var specErr *core.ExplorerSpecError
		if errors.As(err, &specErr) {
			UnprocessableEntityError(specErr.Error()).Write(w)
			return
		}
		InternalServerError("No se pudo generar la exploración.").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleExplorerUpload accepts an exploration document as a multipart file or
// a text field and re-renders the explorer section. A malformed document is
// shown inline and the previous exploration stays available.
func (s *Server) handleExplorerUpload(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, explorer.MaxSpecBytes+uploadOverhead)
	if err := r.ParseMultipartForm(explorer.MaxSpecBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		logger.WarnContext(r.Context(), "Explorer upload rejected", log.FieldError, err)
		BadRequestError("No se pudo leer el archivo: máximo " + humanize.IBytes(explorer.MaxSpecBytes) + ".").Write(w)
		return
	}

	req, ok := s.loadRequestFrom(w, r, r.Form)
	if !ok {
		return
	}
	previous := r.FormValue(paramSpec)

	raw, err := readSpecUpload(r)
	if err != nil {
		logger.WarnContext(r.Context(), "Explorer upload unreadable", log.FieldError, err)
		s.renderExplorerError(w, r, req, previous, "No se pudo leer el archivo.")
		return
	}

	spec, err := explorer.ParseSpec(raw)
	if err != nil {
		var specErr *core.ExplorerSpecError
		if errors.As(err, &specErr) {
			logger.InfoContext(r.Context(), "Exploration spec rejected",
				log.NewFields().WithComponent(log.ComponentExplorer).WithOperation(log.OpParse).WithError(err).ToSlice()...)
			s.renderExplorerError(w, r, req, previous, specErr.Error())
			return
		}
		s.renderExplorerError(w, r, req, previous, err.Error())
		return
	}

	id := s.specs.Put(spec)
	logger.InfoContext(r.Context(), "Exploration spec stored",
		log.NewFields().WithComponent(log.ComponentExplorer).WithOperation(log.OpParse).
			With(log.FieldCharts, len(spec.Charts)).With(log.FieldBytes, len(raw)).ToSlice()...)

	body, err := s.execute("explorer", s.explorerData(req, id, ""))
	if err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed", log.FieldError, err)
		InternalServerError("Error al generar la página").Write(w)
		return
	}
	NewHTMXResponse().
		TriggerSpecUploaded(id).
		TriggerSuccessNotification("Exploración cargada").
		Body(body).
		Header("Content-Type", "text/html; charset=utf-8").
		Write(w)
}

// renderExplorerError redraws the explorer with msg inline and raises an
// error toast so the failure is visible when the section is scrolled away.
func (s *Server) renderExplorerError(w http.ResponseWriter, r *http.Request, req request, specID, msg string) {
	body, err := s.execute("explorer", s.explorerData(req, specID, msg))
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed", log.FieldError, err)
		InternalServerError("Error al generar la página").Write(w)
		return
	}
	NewHTMXResponse().
		Status(http.StatusUnprocessableEntity).
		TriggerErrorNotification("No se pudo aplicar la especificación").
		Header("Content-Type", "text/html; charset=utf-8").
		Body(body).
		Write(w)
}

// readSpecUpload returns the uploaded file, or the text field when no file
// was sent. Oversized input is returned in full up to one byte past the
// limit so ParseSpec reports it.
func readSpecUpload(r *http.Request) ([]byte, error) {
	if r.MultipartForm != nil {
		if file, _, err := r.FormFile(formSpecFile); err == nil {
			defer file.Close()
			return io.ReadAll(io.LimitReader(file, explorer.MaxSpecBytes+1))
		} else if !errors.Is(err, http.ErrMissingFile) {
			return nil, err
		}
	}
	return []byte(r.FormValue(formSpecText)), nil
}

const exampleSpec = `{
  "charts": [
    {"name": "Monto por moneda", "mark": "bar", "x": "MonedaItem", "y": "MontoNetoItem", "aggregate": "sum"},
    {"mark": "pie", "x": "TamanoProveedor"}
  ]
}`
