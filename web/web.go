// Package web holds the embedded page templates.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var files embed.FS

// Templates parses every embedded template
func Templates() (*template.Template, error) {
	return template.ParseFS(files, "templates/*.tmpl")
}
