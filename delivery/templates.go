package delivery

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Declare global variables for all your templates.
var (
	loginTemplate *template.Template
	homeTemplate  *template.Template
	errorTemplate *template.Template
)

// ParseAllTemplates pre-parses all HTML templates at startup for efficiency.
func ParseAllTemplates() {
	loginTemplate = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/login.html"))
	homeTemplate = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/home.html"))
	errorTemplate = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/error.html"))
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
