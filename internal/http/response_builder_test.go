package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"compras/internal/core"
)

func render(b *HTMXResponseBuilder) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	b.Write(rec)
	return rec
}

func triggers(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	raw := rec.Header().Get("HX-Trigger")
	if raw == "" {
		t.Fatal("no HX-Trigger header")
	}
	events := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		t.Fatalf("HX-Trigger is not a JSON object: %v (%s)", err, raw)
	}
	return events
}

func TestBuilderWritesStatusHeaderAndBody(t *testing.T) {
	rec := render(NewHTMXResponse().
		Header("X-Custom", "value").
		Status(http.StatusCreated).
		Body([]byte("ok")))

	if rec.Code != http.StatusCreated || rec.Body.String() != "ok" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Custom") != "value" {
		t.Errorf("custom header lost: %v", rec.Header())
	}
	if rec.Header().Get("HX-Trigger") != "" {
		t.Errorf("no events were queued, HX-Trigger = %q", rec.Header().Get("HX-Trigger"))
	}
}

func TestBuilderMergesEvents(t *testing.T) {
	rec := render(NewHTMXResponse().
		TriggerFeedbackSubmitted(core.FeedbackStats{Count: 3, Mean: 7.5}).
		TriggerFormReset().
		TriggerSpecUploaded("abc").
		TriggerSuccessNotification("Listo"))

	events := triggers(t, rec)
	for _, name := range []string{"feedback:submitted", "form:reset", "explorer:uploaded", "show-notification"} {
		if _, ok := events[name]; !ok {
			t.Errorf("event %q missing from %v", name, events)
		}
	}

	var stats struct {
		Count int     `json:"count"`
		Mean  float64 `json:"mean"`
	}
	if err := json.Unmarshal(events["feedback:submitted"], &stats); err != nil || stats.Count != 3 || stats.Mean != 7.5 {
		t.Errorf("feedback:submitted = %s", events["feedback:submitted"])
	}
	if !strings.Contains(string(events["explorer:uploaded"]), `"id":"abc"`) {
		t.Errorf("explorer:uploaded = %s", events["explorer:uploaded"])
	}
}

func TestNotificationKinds(t *testing.T) {
	for _, kind := range []NotificationType{NotificationSuccess, NotificationError, NotificationWarning, NotificationInfo} {
		t.Run(string(kind), func(t *testing.T) {
			events := triggers(t, render(NewHTMXResponse().TriggerNotification(kind, "msg", 1500)))
			var n struct {
				Type     string `json:"type"`
				Message  string `json:"message"`
				Duration int    `json:"duration"`
			}
			if err := json.Unmarshal(events["show-notification"], &n); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if n.Type != string(kind) || n.Message != "msg" || n.Duration != 1500 {
				t.Errorf("notification = %+v", n)
			}
		})
	}
}

func TestErrorBuilders(t *testing.T) {
	tests := []struct {
		builder *HTMXResponseBuilder
		status  int
		message string
	}{
		{BadRequestError("Solicitud no válida"), http.StatusBadRequest, "Solicitud no válida"},
		{UnprocessableEntityError("Especificación inválida"), http.StatusUnprocessableEntity, "Especificación inválida"},
		{InternalServerError("No se pudo generar el archivo Excel."), http.StatusInternalServerError, "No se pudo generar el archivo Excel."},
		{NotFoundError("Gráfico desconocido"), http.StatusNotFound, "Gráfico desconocido"},
		{ServiceUnavailableError("Sin datos"), http.StatusServiceUnavailable, "Sin datos"},
		{TooManyRequestsError("Espera"), http.StatusTooManyRequests, "Espera"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			rec := render(tt.builder)
			want := `<div class="error" role="alert">` + tt.message + `</div>`
			if rec.Code != tt.status || rec.Body.String() != want {
				t.Errorf("got %d %q, want %d %q", rec.Code, rec.Body.String(), tt.status, want)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestTooManyRequestsRetargetsNotifications(t *testing.T) {
	rec := render(TooManyRequestsError("Espera"))
	if got := rec.Header().Get("HX-Retarget"); got != "#notifications" {
		t.Errorf("HX-Retarget = %q", got)
	}
	if got := rec.Header().Get("HX-Reswap"); got != "beforeend" {
		t.Errorf("HX-Reswap = %q", got)
	}
}

func TestErrorMessageIsEscaped(t *testing.T) {
	body := render(BadRequestError("<script>alert('x')</script>")).Body.String()
	if strings.Contains(body, "<script>") || !strings.Contains(body, "&lt;script&gt;") {
		t.Errorf("message not escaped: %s", body)
	}
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{formatMoney(1234567.4), "$1,234,567"},
		{formatMoney(-1500), "-$1,500"},
		{formatMoney(0), "$0"},
		{formatCount(12345), "12,345"},
		{formatNumber(1234.5678), "1,234.57"},
		{formatNumber(0.005), "0.01"},
		{formatNumber(-2.499), "-2.5"},
		{formatMoney(-0.4), "$0"},
		{formatMoney(1e19), "$10,000,000,000,000,000,000"},
		{formatMoney(-1e19), "-$10,000,000,000,000,000,000"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
