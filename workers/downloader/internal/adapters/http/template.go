package http

import (
	"embed"
	"html/template"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type indexPage struct {
	Videos []videoView
}
