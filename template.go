package adminform

import (
	"embed"
	"html/template"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/*.gotmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const staticPath = "/admin/static"

func staticURL(filename, ver string) string {
	s := staticPath + "/" + filename
	if ver != "" {
		s += "?ver=" + ver
	}
	return s
}

func funcs() template.FuncMap {
	return merge(sprig.HtmlFuncMap(), template.FuncMap{
		"admin_static_url": staticURL,
		"gettext":          gettext,
		"safejs":           func(s string) template.JS { return template.JS(s) },
	})
}

var templates = template.Must(template.New("admin").
	Option("missingkey=zero").
	Funcs(funcs()).
	ParseFS(templateFS, "templates/*.gotmpl"))
