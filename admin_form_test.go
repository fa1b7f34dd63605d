package adminform

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"golang.org/x/net/html"
)

func postForm(target string, values url.Values) *http.Request {
	r := httptest.NewRequest("POST", target, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

// first node matched in the tree
func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attrOf(n *html.Node, key string) string {
	a, _ := lo.Find(n.Attr, func(a html.Attribute) bool { return a.Key == key })
	return a.Val
}

func byAttr(key, val string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && attrOf(n, key) == val
	}
}

// only the required, no error handler, no visibility
type bookHandlers struct {
	called []string
}

func (h *bookHandlers) record(name string) { h.called = append(h.called, name) }

func (h *bookHandlers) OnSaveSubmit(t *AjaxTarget, f *Form)    { h.record("save") }
func (h *bookHandlers) OnNewSubmit(t *AjaxTarget, f *Form)     { h.record("new") }
func (h *bookHandlers) OnRefreshSubmit(t *AjaxTarget, f *Form) { h.record("refresh") }
func (h *bookHandlers) OnDeleteSubmit(t *AjaxTarget, f *Form)  { h.record("delete") }

// all optional hooks implemented
type fullHandlers struct {
	bookHandlers
	newVisible, delVisible bool
}

func (h *fullHandlers) OnSaveError(t *AjaxTarget, f *Form)    { h.record("save.error") }
func (h *fullHandlers) OnNewError(t *AjaxTarget, f *Form)     { h.record("new.error") }
func (h *fullHandlers) OnRefreshError(t *AjaxTarget, f *Form) { h.record("refresh.error") }
func (h *fullHandlers) OnDeleteError(t *AjaxTarget, f *Form)  { h.record("delete.error") }
func (h *fullHandlers) IsNewBtnVisible() bool                 { return h.newVisible }
func (h *fullHandlers) IsDelBtnVisible() bool                 { return h.delVisible }

func TestAdminFormConstruct(t *testing.T) {
	is := assert.New(t)

	h := &bookHandlers{}
	F := NewAdminForm("BookForm", NewModel(Book{}), h)
	is.Equal("BookForm", F.ID())
	is.Equal("book-form", F.MarkupID())
	is.Equal("book-form-buttons", F.Panel().MarkupID())
	is.Len(F.Fields(), 8)
	is.Nil(F.Form())

	// defaults
	is.True(F.IsNewBtnVisible())
	is.True(F.IsDelBtnVisible())

	panel := F.Panel()
	F.HideNewRecord()
	is.Same(panel, F.Panel())
	is.False(panel.IsVisible(ActionNew))
	is.True(F.IsNewBtnVisible())
	F.ShowNewRecord()
	is.True(panel.IsVisible(ActionNew))
}

func TestAdminFormVisibility(t *testing.T) {
	is := assert.New(t)

	h := &fullHandlers{newVisible: false, delVisible: true}
	F := NewAdminForm("book", NewModel(Book{ID: 1}), h)

	is.False(F.IsNewBtnVisible())
	is.True(F.IsDelBtnVisible())
	is.Equal([]string{"save", "refresh", "delete"}, buttonActions(F.Panel()))

	h.newVisible, h.delVisible = true, false
	is.Equal([]string{"new", "save", "refresh"}, buttonActions(F.Panel()))

	F.HideNewRecord()
	is.Equal([]string{"save", "refresh"}, buttonActions(F.Panel()))
	is.Empty(h.called)
}

func TestAdminFormForward(t *testing.T) {
	is := assert.New(t)

	// valid form for every action
	h := &fullHandlers{newVisible: true, delVisible: true}
	F := NewAdminForm("book", NewModel(Book{ID: 1, Title: "Go"}), h)
	for _, a := range Actions() {
		F.Panel().Handle(a, httptest.NewRecorder(), postForm("/book/"+a.String(), url.Values{"Title": {"Go"}}))
	}
	is.Equal([]string{"new", "save", "refresh", "delete"}, h.called)

	// save fails on required, delete fails on blank record
	h = &fullHandlers{newVisible: true, delVisible: true}
	F = NewAdminForm("book", NewModel(Book{}), h)
	F.Panel().Handle(ActionSave, httptest.NewRecorder(), postForm("/book/save", url.Values{"Title": {""}}))
	F.Panel().Handle(ActionDelete, httptest.NewRecorder(), postForm("/book/delete", url.Values{}))
	is.Equal([]string{"save.error", "delete.error"}, h.called)

	// error hooks are optional
	plain := &bookHandlers{}
	F2 := NewAdminForm("book", NewModel(Book{}), plain)
	is.NotPanics(func() {
		F2.Panel().Handle(ActionSave, httptest.NewRecorder(), postForm("/book/save", url.Values{}))
		F2.Panel().Handle(ActionDelete, httptest.NewRecorder(), postForm("/book/delete", url.Values{}))
	})
	is.Empty(plain.called)
}

func TestAdminFormProcessSave(t *testing.T) {
	is := assert.New(t)

	m := NewModel(Book{ID: 3, Title: "Go", InStock: true})
	F := NewAdminForm[Book]("book", m, &bookHandlers{})

	f := F.Process(ActionSave, postForm("/book/save", url.Values{
		"ID":        {"99"},
		"Title":     {"Go in Action"},
		"Price":     {"12.5"},
		"Published": {"2024-10-01"},
		"Summary":   {"A book"},
	}))
	is.False(f.HasErrors(), f.String())
	is.Same(f, F.Form())

	b := m.Get()
	is.Equal(uint(3), b.ID) // readonly
	is.Equal("Go in Action", b.Title)
	is.Equal("12.5", b.Price.String())
	is.False(b.InStock) // unchecked box is not posted
	is.NotNil(b.Published)
	is.Equal("A book", b.Summary)
	is.Equal(b, f.Object())

	// empty date clear the pointer
	f = F.Process(ActionSave, postForm("/book/save", url.Values{"Title": {"Go"}, "Published": {""}, "InStock": {"on"}}))
	is.False(f.HasErrors(), f.String())
	is.Nil(m.Get().Published)
	is.True(m.Get().InStock)
}

func TestAdminFormProcessSaveErrors(t *testing.T) {
	is := assert.New(t)

	m := NewModel(Book{ID: 3, Title: "Go"})
	F := NewAdminForm[Book]("book", m, &bookHandlers{})

	f := F.Process(ActionSave, postForm("/book/save", url.Values{"Title": {"  "}}))
	is.Equal([]string{"This field is required."}, f.FieldErrors("Title"))

	f = F.Process(ActionSave, postForm("/book/save", url.Values{"Title": {"forbidden"}}))
	is.Equal([]string{"Title is forbidden."}, f.FieldErrors("Title"))

	f = F.Process(ActionSave, postForm("/book/save", url.Values{"Title": {"Go"}, "Price": {"cheap"}}))
	is.Len(f.FieldErrors("Price"), 1)

	// model untouched by failed save
	is.Equal("Go", m.Get().Title)
	is.True(m.Get().Price.IsZero())
}

func TestAdminFormProcessOthers(t *testing.T) {
	is := assert.New(t)

	F := NewAdminForm("book", NewModel(Book{}), &bookHandlers{})
	is.False(F.Process(ActionNew, postForm("/book/new", nil)).HasErrors())
	is.False(F.Process(ActionRefresh, postForm("/book/refresh", nil)).HasErrors())
	is.Equal([]string{"Record does not exist."}, F.Process(ActionDelete, postForm("/book/delete", nil)).Errors())

	F = NewAdminForm("book", NewModel(Book{ID: 1}), &bookHandlers{})
	is.False(F.Process(ActionDelete, postForm("/book/delete", nil)).HasErrors())
}

func TestAdminFormRender(t *testing.T) {
	is := assert.New(t)

	F := NewAdminForm("book", NewModel(Book{ID: 3, Title: "Go", InStock: true}), &HandlerFuncs{
		Save:          func(*AjaxTarget, *Form) {},
		New:           func(*AjaxTarget, *Form) {},
		Refresh:       func(*AjaxTarget, *Form) {},
		Delete:        func(*AjaxTarget, *Form) {},
		DelBtnVisible: func() bool { return false },
	})

	doc, err := html.Parse(strings.NewReader(string(must(F.HTML()))))
	is.NoError(err)

	form := findNode(doc, byAttr("id", "book"))
	if !is.NotNil(form) {
		return
	}
	is.Equal("form", form.Data)
	is.Equal("3", attrOf(findNode(form, byAttr("name", "pk")), "value"))
	is.Equal("Go", attrOf(findNode(form, byAttr("name", "Title")), "value"))
	is.Equal("", attrOf(findNode(form, byAttr("name", "Title")), "readonly"))
	is.NotNil(findNode(form, byAttr("id", "book-in-stock")))
	is.Equal("textarea", findNode(form, byAttr("name", "Summary")).Data)
	is.Equal("date", attrOf(findNode(form, byAttr("name", "Published")), "type"))
	is.NotNil(findNode(form, byAttr("id", "book-feedback")))

	is.NotNil(findNode(form, byAttr("id", "book-buttons-new")))
	is.NotNil(findNode(form, byAttr("id", "book-buttons-save")))
	is.NotNil(findNode(form, byAttr("id", "book-buttons-refresh")))
	is.Nil(findNode(form, byAttr("id", "book-buttons-delete")))

	// posted values are kept after a failed save
	F.Process(ActionSave, postForm("/book/save", url.Values{"Title": {""}, "Summary": {"draft"}}))
	doc, _ = html.Parse(strings.NewReader(string(must(F.HTML()))))
	is.Equal("draft", findNode(doc, byAttr("name", "Summary")).FirstChild.Data)
	is.NotNil(findNode(doc, func(n *html.Node) bool {
		return n.Type == html.TextNode && n.Data == "This field is required."
	}))
}

func TestAdminFormServeHTTP(t *testing.T) {
	is := assert.New(t)

	h := &fullHandlers{newVisible: true, delVisible: false}
	F := NewAdminForm("book", NewModel(Book{ID: 3, Title: "Go"}), h)

	w := httptest.NewRecorder()
	F.ServeHTTP(w, httptest.NewRequest("GET", "/book/", nil))
	is.Equal(http.StatusOK, w.Code)
	is.Contains(w.Body.String(), `id="book-buttons"`)

	r := postForm("/book/save", url.Values{"Title": {"Rust"}})
	r.Header.Set("X-Requested-With", "XMLHttpRequest")
	w = httptest.NewRecorder()
	F.ServeHTTP(w, r)
	is.Equal(http.StatusOK, w.Code)

	var res reply
	is.NoError(json.Unmarshal(w.Body.Bytes(), &res))
	is.Contains(res.Components, "book-feedback")
	is.Contains(res.Components, "book-buttons")
	is.Equal([]string{"save"}, h.called)

	// action in body
	w = httptest.NewRecorder()
	F.ServeHTTP(w, postForm("/book/", url.Values{"action": {"refresh"}}))
	is.Equal(http.StatusSeeOther, w.Code)
	is.Equal("/book/?pk=3", w.Header().Get("Location"))

	// hidden delete
	w = httptest.NewRecorder()
	F.ServeHTTP(w, postForm("/book/delete", nil))
	is.Equal(http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	F.ServeHTTP(w, postForm("/book/drop", nil))
	is.Equal(http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	F.ServeHTTP(w, httptest.NewRequest("PUT", "/book/", nil))
	is.Equal(http.StatusMethodNotAllowed, w.Code)

	is.Equal([]string{"save", "refresh"}, h.called)
}

func TestHandlerFuncs(t *testing.T) {
	is := assert.New(t)

	var called []string
	h := &HandlerFuncs{
		Save:      func(*AjaxTarget, *Form) { called = append(called, "save") },
		SaveError: func(*AjaxTarget, *Form) { called = append(called, "save.error") },
	}
	F := NewAdminForm("funcs", NewModel(Book{}), h)
	is.True(F.IsNewBtnVisible())
	is.True(F.IsDelBtnVisible())

	F.Panel().Handle(ActionSave, httptest.NewRecorder(), postForm("/", url.Values{"Title": {"Go"}}))
	F.Panel().Handle(ActionSave, httptest.NewRecorder(), postForm("/", url.Values{}))
	is.NotPanics(func() {
		F.Panel().Handle(ActionNew, httptest.NewRecorder(), postForm("/", nil))
		F.Panel().Handle(ActionDelete, httptest.NewRecorder(), postForm("/", nil))
	})
	is.Equal([]string{"save", "save.error"}, called)

	h.NewBtnVisible = func() bool { return false }
	is.False(F.IsNewBtnVisible())
}

// press every button with the same values
func pressAll[T any](F *AdminForm[T], values url.Values) {
	for _, a := range Actions() {
		F.Panel().Handle(a, httptest.NewRecorder(), postForm("/"+a.String(), values))
	}
}

func TestAdminFormNotStruct(t *testing.T) {
	is := assert.New(t)

	h := &fullHandlers{newVisible: true, delVisible: true}
	kv := NewModel(map[string]string{"k": "v"})
	F := NewAdminForm("kv", kv, h)
	is.Empty(F.Fields())
	is.Len(F.Panel().Buttons(), 4)

	pressAll(F, url.Values{"k": {"w"}})
	is.Equal([]string{"new", "save", "refresh", "delete.error"}, h.called)
	is.Equal(map[string]string{"k": "v"}, kv.Get())

	s, err := F.HTML()
	is.NoError(err)
	is.Contains(string(s), `id="kv-buttons"`)

	h = &fullHandlers{newVisible: true, delVisible: true}
	n := NewAdminForm("n", NewModel(3), h)
	is.Empty(n.Fields())
	pressAll(n, url.Values{})
	is.Equal([]string{"new", "save", "refresh", "delete.error"}, h.called)
	is.Equal(3, n.Model().Get())

	_, err = n.HTML()
	is.NoError(err)
}

func TestAdminFormPointer(t *testing.T) {
	is := assert.New(t)

	b := &Book{ID: 1, Title: "Go", Summary: "about go"}
	h := &fullHandlers{newVisible: true, delVisible: true}
	m := NewModel(b)
	F := NewAdminForm("book", m, h)
	is.Len(F.Fields(), 8)
	is.Equal("1", F.pkValue())

	// failed save leave the bound entity alone
	F.Process(ActionSave, postForm("/save", url.Values{"Title": {""}, "Price": {"12"}}))
	is.True(F.Form().HasErrors())
	is.Same(b, m.Get())
	is.Equal("Go", b.Title)
	is.True(b.Price.IsZero())

	form := F.Process(ActionSave, postForm("/save", url.Values{"Title": {"forbidden"}}))
	is.Equal([]string{"Title is forbidden."}, form.FieldErrors("Title"))
	is.Equal("Go", m.Get().Title)

	form = F.Process(ActionSave, postForm("/save", url.Values{"Title": {"Rust"}, "Price": {"12"}}))
	is.False(form.HasErrors(), form.String())
	is.Equal("Rust", m.Get().Title)
	is.Equal("12", m.Get().Price.String())
	is.Equal(uint(1), m.Get().ID)
	is.Equal("about go", m.Get().Summary)
	is.Equal("Go", b.Title)

	form = F.Process(ActionDelete, postForm("/delete", nil))
	is.False(form.HasErrors())

	// nil pointer is a new record
	h = &fullHandlers{newVisible: true, delVisible: true}
	blank := NewModel[*Book](nil)
	B := NewAdminForm("book", blank, h)
	is.Equal("", B.pkValue())
	_, err := B.HTML()
	is.NoError(err)

	pressAll(B, url.Values{"Title": {"New"}})
	is.Equal([]string{"new", "save", "refresh", "delete.error"}, h.called)
	if is.NotNil(blank.Get()) {
		is.Equal("New", blank.Get().Title)
	}
}
