package http

import (
	"encoding/json"
	"html/template"
	"net/http"

	"compras/internal/core"
)

// HTMX response headers.
const (
	hxTrigger  = "HX-Trigger"
	hxRetarget = "HX-Retarget"
	hxReswap   = "HX-Reswap"
)

// Client-side events raised through HX-Trigger. app.js listens for them.
const (
	eventFeedbackSubmitted = "feedback:submitted"
	eventSpecUploaded      = "explorer:uploaded"
	eventFormReset         = "form:reset"
	eventNotification      = "show-notification"
)

// HTMXResponseBuilder assembles a partial response: status, body, extra
// headers and the events announced in HX-Trigger.
type HTMXResponseBuilder struct {
	status int
	header http.Header
	events map[string]any
	body   []byte
}

// NewHTMXResponse starts a 200 response with no body.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status: http.StatusOK,
		header: make(http.Header),
		events: make(map[string]any),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

// Trigger announces event with payload. A later call for the same event
// replaces the payload.
func (b *HTMXResponseBuilder) Trigger(event string, payload any) *HTMXResponseBuilder {
	b.events[event] = payload
	return b
}

// TriggerFeedbackSubmitted carries the survey stats after a submission.
func (b *HTMXResponseBuilder) TriggerFeedbackSubmitted(stats core.FeedbackStats) *HTMXResponseBuilder {
	return b.Trigger(eventFeedbackSubmitted, stats)
}

// TriggerSpecUploaded carries the id of a stored exploration spec so the
// filter form can keep sending it.
func (b *HTMXResponseBuilder) TriggerSpecUploaded(id string) *HTMXResponseBuilder {
	return b.Trigger(eventSpecUploaded, map[string]string{"id": id})
}

func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(eventFormReset, struct{}{})
}

// NotificationType selects the toast style.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

type notification struct {
	Type     NotificationType `json:"type"`
	Message  string           `json:"message"`
	Duration int              `json:"duration"`
}

// TriggerNotification shows a toast for durationMs milliseconds.
func (b *HTMXResponseBuilder) TriggerNotification(kind NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(eventNotification, notification{Type: kind, Message: message, Duration: durationMs})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

// Retarget swaps the body into selector instead of the requesting element's target.
func (b *HTMXResponseBuilder) Retarget(selector string) *HTMXResponseBuilder {
	return b.Header(hxRetarget, selector)
}

// Reswap overrides the swap strategy, e.g. "beforeend".
func (b *HTMXResponseBuilder) Reswap(strategy string) *HTMXResponseBuilder {
	return b.Header(hxReswap, strategy)
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.header.Set(name, value)
	return b
}

func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

// BodyHTML sets an HTML body and its content type.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = []byte(html)
	return b
}

// Write copies headers, events, status and body to w. An event payload that
// cannot be encoded drops the HX-Trigger header but not the response.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	dst := w.Header()
	for name, values := range b.header {
		dst[name] = values
	}
	if len(b.events) > 0 {
		if encoded, err := json.Marshal(b.events); err == nil {
			dst.Set(hxTrigger, string(encoded))
		}
	}
	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse renders message, escaped, in the inline error block.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		BodyHTML(`<div class="error" role="alert">` + template.HTMLEscapeString(message) + `</div>`)
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func ServiceUnavailableError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, message)
}

// TooManyRequestsError is appended to the notification area rather than
// replacing the caller's target.
func TooManyRequestsError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, message).
		Retarget("#notifications").
		Reswap("beforeend")
}
