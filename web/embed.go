// Package web bundles the dashboard's HTML templates and browser assets.
package web

import (
	"embed"
	"io/fs"
)

// TemplatePattern matches every page and partial template in Files.
const TemplatePattern = "templates/*.html"

//go:embed templates/*.html static/*
var Files embed.FS

// Static returns the browser assets rooted at the static directory, ready to
// be mounted under /static/.
func Static() (fs.FS, error) {
	return fs.Sub(Files, "static")
}
