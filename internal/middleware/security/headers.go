package security

import (
	"fmt"
	"net/http"
	"strings"
)

// CSP is an ordered Content-Security-Policy.
type CSP []Directive

// Directive is one CSP directive and its sources.
type Directive struct {
	Name    string
	Sources []string
}

// With returns a copy of c where name has exactly sources, appended when c
// did not have the directive. No sources removes it.
func (c CSP) With(name string, sources ...string) CSP {
	out := make(CSP, 0, len(c)+1)
	found := false
	for _, d := range c {
		if d.Name != name {
			out = append(out, d)
			continue
		}
		found = true
		if len(sources) > 0 {
			out = append(out, Directive{Name: name, Sources: sources})
		}
	}
	if !found && len(sources) > 0 {
		out = append(out, Directive{Name: name, Sources: sources})
	}
	return out
}

func (c CSP) String() string {
	parts := make([]string, len(c))
	for i, d := range c {
		parts[i] = d.Name + " " + strings.Join(d.Sources, " ")
	}
	return strings.Join(parts, "; ")
}

// HeadersConfig holds security headers configuration.
// Empty values remove the header.
type HeadersConfig struct {
	CSP CSP

	// HSTS is sent on TLS requests only; zero max age disables it.
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	PermissionsPolicy   string
	CrossOriginOpener   string
	CrossOriginEmbedder string
	CrossOriginResource string
}

// EChartsAssetsHost serves the chart runtime loaded by chart documents.
const EChartsAssetsHost = "https://go-echarts.github.io"

// HTMXAssetsHost serves the htmx script used by the dashboard pages.
const HTMXAssetsHost = "https://unpkg.com"

const (
	self = "'self'"
	none = "'none'"
)

// DefaultHeadersConfig returns the policy of the dashboard pages. Chart
// documents are framed from the same origin.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: CSP{
			{"default-src", []string{self}},
			{"script-src", []string{self, HTMXAssetsHost}},
			{"style-src", []string{self, "'unsafe-inline'"}},
			{"img-src", []string{self, "data:"}},
			{"connect-src", []string{self}},
			{"font-src", []string{self}},
			{"object-src", []string{none}},
			{"frame-src", []string{self}},
			{"frame-ancestors", []string{none}},
			{"base-uri", []string{self}},
			{"form-action", []string{self}},
		},

		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		HSTSPreload:           true,

		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "strict-origin-when-cross-origin",
		PermissionsPolicy:   "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpener:   "same-origin",
		CrossOriginResource: "same-origin",
	}
}

// ChartDocumentConfig returns the policy of the standalone chart documents:
// inline ECharts options from the ECharts host, framed by the dashboard only.
func ChartDocumentConfig() HeadersConfig {
	cfg := DefaultHeadersConfig()
	cfg.CSP = cfg.CSP.
		With("script-src", self, "'unsafe-inline'", EChartsAssetsHost).
		With("connect-src").
		With("font-src").
		With("frame-src").
		With("form-action").
		With("frame-ancestors", self)
	cfg.XFrameOptions = "SAMEORIGIN"
	return cfg
}

// HeadersMiddleware applies security headers to responses
type HeadersMiddleware struct {
	config HeadersConfig
}

// NewHeadersMiddleware creates a new security headers middleware
func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{
		config: config,
	}
}

// Middleware returns the HTTP middleware function
func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.applyHeaders(w, r)
		next.ServeHTTP(w, r)
	})
}

func (h *HeadersMiddleware) applyHeaders(w http.ResponseWriter, r *http.Request) {
	headers := w.Header()
	set := func(name, value string) {
		if value == "" {
			headers.Del(name)
			return
		}
		headers.Set(name, value)
	}

	set("X-Content-Type-Options", h.config.XContentTypeOptions)
	set("X-Frame-Options", h.config.XFrameOptions)
	set("Content-Security-Policy", h.config.CSP.String())
	set("Referrer-Policy", h.config.ReferrerPolicy)
	set("Permissions-Policy", h.config.PermissionsPolicy)
	set("Cross-Origin-Opener-Policy", h.config.CrossOriginOpener)
	set("Cross-Origin-Embedder-Policy", h.config.CrossOriginEmbedder)
	set("Cross-Origin-Resource-Policy", h.config.CrossOriginResource)

	// HSTS header (only for HTTPS)
	if r.TLS != nil && h.config.HSTSMaxAge > 0 {
		hstsValue := fmt.Sprintf("max-age=%d", h.config.HSTSMaxAge)
		if h.config.HSTSIncludeSubdomains {
			hstsValue += "; includeSubDomains"
		}
		if h.config.HSTSPreload {
			hstsValue += "; preload"
		}
		headers.Set("Strict-Transport-Security", hstsValue)
	}
}

// StaticAssetMiddleware adds caching headers for static assets
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, immutable", maxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NoStore marks responses that depend on filters as uncacheable.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
