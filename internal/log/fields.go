package log

import "compras/internal/core"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldDataset     = "dataset"
	FieldRows        = "rows"
	FieldDropped     = "dropped_rows"
	FieldCacheHit    = "cache_hit"
	FieldRegion      = "region"
	FieldInstitution = "institution"
	FieldAmountMin   = "amount_min"
	FieldAmountMax   = "amount_max"
	FieldBytes       = "bytes"
	FieldScore       = "score"
	FieldCharts      = "charts"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentDataset   = "dataset"
	ComponentAnalytics = "analytics"
	ComponentExport    = "export"
	ComponentExplorer  = "explorer"
	ComponentFeedback  = "feedback"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentCache     = "cache"
	ComponentTemplate  = "template"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpFilter   = "filter"
	OpExport   = "export"
	OpRender   = "render"
	OpParse    = "parse"
	OpCreate   = "create"
	OpPublish  = "publish"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithFilter adds the active filter specification
func (f LogFields) WithFilter(spec core.FilterSpec) LogFields {
	f[FieldRegion] = spec.Region
	f[FieldInstitution] = spec.Institution
	f[FieldAmountMin] = spec.Amount.Min
	f[FieldAmountMax] = spec.Amount.Max
	return f
}

// WithTable adds dataset size fields
func (f LogFields) WithTable(t *core.Table) LogFields {
	if t == nil {
		return f
	}
	f[FieldRows] = t.Len()
	if t.Source != "" {
		f[FieldDataset] = t.Source
	}
	return f
}

// With adds an arbitrary field
func (f LogFields) With(key string, value any) LogFields {
	f[key] = value
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
