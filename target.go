package adminform

import (
	"bytes"
	"io"
	"net/http"

	"github.com/samber/lo"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

// Component is a piece of page, can be rendered again alone
type Component interface {
	// id attribute of the outmost element
	MarkupID() string
	Render(w io.Writer) error
}

// PartialPageHandler collect what should be changed in the browser
// after an ajax request, without reload the whole page
type PartialPageHandler interface {
	Add(cs ...Component)
	AppendJavaScript(js string)
	PrependJavaScript(js string)
}

// AjaxTarget is the PartialPageHandler of one request
type AjaxTarget struct {
	request    *http.Request
	components []Component
	prepend    []string
	append     []string
	focus      string
	redirect   string
}

func NewAjaxTarget(r *http.Request) *AjaxTarget {
	return &AjaxTarget{request: r}
}

func (T *AjaxTarget) Request() *http.Request { return T.request }

// Add components, the one with same MarkupID is replaced
func (T *AjaxTarget) Add(cs ...Component) {
	for _, c := range cs {
		if c == nil {
			continue
		}
		_, i, ok := lo.FindIndexOf(T.components, func(o Component) bool {
			return o.MarkupID() == c.MarkupID()
		})
		if ok {
			T.components[i] = c
			continue
		}
		T.components = append(T.components, c)
	}
}

// Executed after components replaced
func (T *AjaxTarget) AppendJavaScript(js string) {
	T.append = append(T.append, js)
}

// Executed before components replaced
func (T *AjaxTarget) PrependJavaScript(js string) {
	T.prepend = append(T.prepend, js)
}

func (T *AjaxTarget) FocusComponent(c Component) {
	T.focus = c.MarkupID()
}

// Ask browser to leave the page
func (T *AjaxTarget) Redirect(url string) {
	T.redirect = url
}

func (T *AjaxTarget) Components() []Component { return T.components }

// prepend and append scripts, in execute order
func (T *AjaxTarget) JavaScripts() []string {
	return append(append([]string{}, T.prepend...), T.append...)
}

// request sent by `admin.js` or htmx
func IsAjax(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
		r.Header.Get("HX-Request") == "true"
}

// Reply json for ajax request:
//
//	{"components": {"id": "<html>"}, "prepend": [], "append": [], "focus": "", "redirect": ""}
//
// otherwise redirect to `fallback` (POST/redirect/GET)
func (T *AjaxTarget) Respond(w http.ResponseWriter, fallback string) error {
	if !IsAjax(T.request) {
		http.Redirect(w, T.request, firstOr(lo.Compact([]string{T.redirect, fallback}), "./"), http.StatusSeeOther)
		return nil
	}

	components := map[string]string{}
	for _, c := range T.components {
		buf := bytes.Buffer{}
		if err := c.Render(&buf); err != nil {
			return err
		}
		components[c.MarkupID()] = minifyHtml(buf.String())
	}

	ReplyJson(w, http.StatusOK, map[string]any{
		"components": components,
		"prepend":    lo.Ternary(T.prepend == nil, []string{}, T.prepend),
		"append":     lo.Ternary(T.append == nil, []string{}, T.append),
		"focus":      T.focus,
		"redirect":   T.redirect,
	})
	return nil
}

var minified *minify.M

func init() {
	minified = minify.New()
	minified.Add("text/html", &html.Minifier{
		KeepDefaultAttrVals: true,
		KeepEndTags:         true,
	})
}

// failed minify keep the origin
func minifyHtml(s string) string {
	if m, err := minified.String("text/html", s); err == nil {
		return m
	}
	return s
}
