// Package views renders the docent pages as templ components backed by
// html/template files embedded in the binary.
package views

import (
	"embed"
	"html/template"

	"github.com/a-h/templ"

	"github.com/eringen/docent/markdown"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"markdown": markdown.HTML,
}).ParseFS(templateFS, "templates/*.html"))

// Home renders the two-column describe page.
func Home(data HomeData) templ.Component {
	return templ.FromGoHTML(pages.Lookup("home.html"), data)
}

// NotFound renders the 404 page.
func NotFound(cfg SiteConfig) templ.Component {
	return templ.FromGoHTML(pages.Lookup("status.html"), statusData{
		Site:    cfg,
		Title:   "Page not found",
		Message: "There is nothing at this address.",
	})
}

// ServerError renders the 500 page.
func ServerError(cfg SiteConfig) templ.Component {
	return templ.FromGoHTML(pages.Lookup("status.html"), statusData{
		Site:    cfg,
		Title:   "Something went wrong",
		Message: "The request could not be completed. Please try again.",
	})
}

type statusData struct {
	Site    SiteConfig
	Title   string
	Message string
}
