package adminform

import (
	"context"
	"html/template"
	"io"
	"log"
	"net/http"
	"net/url"
	"path"
	"reflect"
	"strings"
	"sync"

	"github.com/fatih/structs"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/stoewer/go-strcase"
)

// Handlers hold the business logic of an admin form.
// Each is called when the form of the pressed button is processed without error
type Handlers interface {
	// save button pressed, persist the changes
	OnSaveSubmit(target *AjaxTarget, form *Form)
	// new button pressed, reset to a blank record
	OnNewSubmit(target *AjaxTarget, form *Form)
	// refresh button pressed, drop the changes and load again
	OnRefreshSubmit(target *AjaxTarget, form *Form)
	// delete button pressed, remove the record
	OnDeleteSubmit(target *AjaxTarget, form *Form)
}

// Implement these to react on the error of each button, default as no-op
type (
	SaveErrorHandler    interface{ OnSaveError(*AjaxTarget, *Form) }
	NewErrorHandler     interface{ OnNewError(*AjaxTarget, *Form) }
	RefreshErrorHandler interface{ OnRefreshError(*AjaxTarget, *Form) }
	DeleteErrorHandler  interface{ OnDeleteError(*AjaxTarget, *Form) }
)

// Override to hide the New or Delete button, eg: a singleton record.
// Asked on each render, should be side-effect free
type (
	NewButtonVisibility    interface{ IsNewBtnVisible() bool }
	DeleteButtonVisibility interface{ IsDelBtnVisible() bool }
)

// AdminForm connect the New/Save/Refresh/Delete panel to `Handlers`
//
//	form := NewAdminForm[User]("user", NewEntityModel[User](db, PK(r)), &userHandlers{})
type AdminForm[T any] struct {
	id       string
	markupID string
	model    Model[T]
	handlers Handlers
	entity   *entity
	panel    *SavePanel

	// set when served
	admin   *Admin
	request *http.Request
	form    *Form
}

func NewAdminForm[T any](id string, model Model[T], h Handlers) *AdminForm[T] {
	var t T
	F := &AdminForm[T]{
		id:       id,
		markupID: strcase.KebabCase(id),
		model:    model,
		handlers: h,
		entity:   newEntity(t),
	}

	F.panel = NewSavePanel(F.markupID+"-buttons", PanelCallbacks{
		OnSaveSubmit:    F.onSaveSubmit,
		OnSaveError:     F.onSaveError,
		OnNewSubmit:     F.onNewSubmit,
		OnNewError:      F.onNewError,
		OnRefreshSubmit: F.onRefreshSubmit,
		OnRefreshError:  F.onRefreshError,
		OnDeleteSubmit:  F.onDeleteSubmit,
		OnDeleteError:   F.onDeleteError,
		IsNewBtnVisible: F.IsNewBtnVisible,
		IsDelBtnVisible: F.IsDelBtnVisible,
	}, F)
	F.panel.returnURL = F.returnURL

	if hf, ok := h.(*HandlerFuncs); ok {
		hf.warnMissing(id)
	}
	return F
}

func (F *AdminForm[T]) ID() string             { return F.id }
func (F *AdminForm[T]) MarkupID() string       { return F.markupID }
func (F *AdminForm[T]) Model() Model[T]        { return F.model }
func (F *AdminForm[T]) Panel() *SavePanel      { return F.panel }
func (F *AdminForm[T]) Fields() []*Field       { return F.entity.Fields }
func (F *AdminForm[T]) Request() *http.Request { return F.request }

// Last processed form, nil before any submit
func (F *AdminForm[T]) Form() *Form { return F.form }

func (F *AdminForm[T]) HideNewRecord() { F.panel.HideNewRecord() }
func (F *AdminForm[T]) ShowNewRecord() { F.panel.ShowNewRecord() }

func (F *AdminForm[T]) IsNewBtnVisible() bool {
	if v, ok := F.handlers.(NewButtonVisibility); ok {
		return v.IsNewBtnVisible()
	}
	return true
}

func (F *AdminForm[T]) IsDelBtnVisible() bool {
	if v, ok := F.handlers.(DeleteButtonVisibility); ok {
		return v.IsDelBtnVisible()
	}
	return true
}

func (F *AdminForm[T]) onSaveSubmit(t *AjaxTarget, f *Form) {
	F.handlers.OnSaveSubmit(t, f)
}

func (F *AdminForm[T]) onSaveError(t *AjaxTarget, f *Form) {
	if h, ok := F.handlers.(SaveErrorHandler); ok {
		h.OnSaveError(t, f)
	}
}

func (F *AdminForm[T]) onNewSubmit(t *AjaxTarget, f *Form) {
	F.handlers.OnNewSubmit(t, f)
}

func (F *AdminForm[T]) onNewError(t *AjaxTarget, f *Form) {
	if h, ok := F.handlers.(NewErrorHandler); ok {
		h.OnNewError(t, f)
	}
}

func (F *AdminForm[T]) onRefreshSubmit(t *AjaxTarget, f *Form) {
	F.handlers.OnRefreshSubmit(t, f)
}

func (F *AdminForm[T]) onRefreshError(t *AjaxTarget, f *Form) {
	if h, ok := F.handlers.(RefreshErrorHandler); ok {
		h.OnRefreshError(t, f)
	}
}

func (F *AdminForm[T]) onDeleteSubmit(t *AjaxTarget, f *Form) {
	F.handlers.OnDeleteSubmit(t, f)
}

func (F *AdminForm[T]) onDeleteError(t *AjaxTarget, f *Form) {
	if h, ok := F.handlers.(DeleteErrorHandler); ok {
		h.OnDeleteError(t, f)
	}
}

// ReinitJs bind client side script again, after part of page replaced
func ReinitJs(h PartialPageHandler) {
	reinitPanelJs(h)
}

func (F *AdminForm[T]) attach(A *Admin, r *http.Request) {
	F.admin = A
	F.request = r
}

// Primary key of current object, empty for a new record
func (F *AdminForm[T]) pkValue() string {
	if F.entity.pk == nil {
		return ""
	}
	obj := F.model.Get()
	v, zero := F.entity.valueOf(F.entity.pk, &obj)
	if zero {
		return ""
	}
	return cast.ToString(v)
}

func (F *AdminForm[T]) returnURL() string {
	if pk := F.pkValue(); pk != "" {
		return "./?" + url.Values{"pk": []string{pk}}.Encode()
	}
	return "./"
}

// Primary key posted by the form, or in query string
func PK(r *http.Request) string {
	return r.FormValue("pk")
}

func (F *AdminForm[T]) csrf() *CSRF {
	if F.admin == nil || F.request == nil || !F.admin.config.Bool(ConfigCsrfEnabled) {
		return nil
	}
	s := CurrentSession(F.request)
	if s == nil {
		return nil
	}
	return NewCSRF(s, F.markupID, F.admin.config.Duration(ConfigCsrfTimeout))
}

func (F *AdminForm[T]) modelErr() error {
	if m, ok := F.model.(interface{ Err() error }); ok {
		return m.Err()
	}
	return nil
}

// Process implement FormProcessor
//
//	all:     csrf token valid, body parsed
//	save:    values decoded, required inputed, `Validate` passed
//	delete:  record has primary key
//	new, refresh: nothing more
func (F *AdminForm[T]) Process(a Action, r *http.Request) *Form {
	F.request = r
	form := newForm(F.markupID, a, r)
	F.form = form
	form.object = F.model.Get()

	if err := r.ParseForm(); err != nil {
		form.Error(gettext("Failed to parse form. %s", err))
		return form
	}
	form.Values = lo.Assign(url.Values{}, r.PostForm)

	if c := F.csrf(); c != nil {
		if err := c.Validate(r.PostForm.Get("csrf_token")); err != nil {
			form.Error(gettext("CSRF token invalid. %s", err))
			return form
		}
	}

	if err := F.modelErr(); err != nil && a != ActionNew {
		form.Error(gettext("Record does not exist."))
		return form
	}

	switch a {
	case ActionSave:
		F.processSave(form)
	case ActionDelete:
		F.processDelete(form)
	}
	return form
}

func (F *AdminForm[T]) processSave(form *Form) {
	// the model keeps its object until the save passed
	obj := shallowCopy(F.model.Get())

	values := url.Values{}
	cleared := []*Field{}
	for _, f := range F.entity.Fields {
		typ := f.InputType()
		if typ == "readonly" {
			continue
		}

		vs, ok := form.Values[f.Name]
		if typ == "checkbox" {
			// unchecked box is not posted
			checked := ok && lo.Contains([]string{"true", "on", "1"}, firstOr(vs))
			vs, ok = []string{cast.ToString(checked)}, true
		}
		// empty input of *time.Time, *decimal.Decimal ... is nil
		if ok && f.FieldType.Kind() == reflect.Ptr && strings.TrimSpace(firstOr(vs)) == "" {
			cleared = append(cleared, f)
			ok = false
		}
		if ok {
			values[f.Name] = vs
		}

		if f.Required && typ != "checkbox" && strings.TrimSpace(firstOr(vs)) == "" {
			form.FieldError(f.Name, gettext("This field is required."))
		}
	}

	if len(F.entity.Fields) > 0 {
		form.decode(pointerTo(&obj), values)
	}
	for _, f := range cleared {
		if err := f.Set(context.TODO(), reflect.ValueOf(&obj).Elem(), nil); err != nil {
			form.FieldError(f.Name, err.Error())
		}
	}

	if v, ok := validatorOf(&obj); ok {
		if err := v.Validate(); err != nil {
			form.AddError(err)
		}
	}

	form.object = obj
	if !form.HasErrors() {
		F.model.Set(obj)
	}
}

func (F *AdminForm[T]) processDelete(form *Form) {
	obj := F.model.Get()
	if F.entity.pk == nil || isZeroField(obj, F.entity.pk.Name) {
		form.Error(gettext("Record does not exist."))
	}
}

// v is struct or pointer to struct, nil pointer is zero
func isZeroField(v any, name string) bool {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return true
	}
	if f, ok := structs.New(v).FieldOk(name); ok {
		return f.IsZero()
	}
	return true
}

// *T, or T itself when T is a pointer
func validatorOf[T any](p *T) (Validator, bool) {
	if v, ok := any(p).(Validator); ok {
		return v, true
	}
	v, ok := any(*p).(Validator)
	return v, ok
}

// T itself when T is a pointer, otherwise p
func pointerTo[T any](p *T) any {
	if reflect.ValueOf(*p).Kind() == reflect.Pointer {
		return *p
	}
	return p
}

// copy of the pointed struct when T is a pointer, a nil pointer gets a new one
func shallowCopy[T any](v T) T {
	rv := reflect.ValueOf(&v).Elem()
	if rv.Kind() != reflect.Pointer {
		return v
	}
	c := reflect.New(rv.Type().Elem())
	if !rv.IsNil() {
		c.Elem().Set(rv.Elem())
	}
	return c.Interface().(T)
}

func (F *AdminForm[T]) flashed() []Message {
	if F.request == nil {
		return nil
	}
	return GetFlashedMessages(F.request)
}

func (F *AdminForm[T]) csrfToken() string {
	if c := F.csrf(); c != nil {
		return c.GenerateToken()
	}
	return ""
}

func (F *AdminForm[T]) dict() map[string]any {
	obj := F.model.Get()
	row := F.entity.intoRow(&obj)

	form := F.form
	if form == nil {
		form = newForm(F.markupID, ActionRefresh, F.request)
	}

	// keep what inputed when save failed
	if form.Action == ActionSave && form.HasErrors() {
		for _, f := range F.entity.Fields {
			if form.Values.Has(f.Name) && f.InputType() != "readonly" {
				row[f.Name] = form.Values.Get(f.Name)
			}
		}
	}

	fields := lo.Map(F.entity.Fields, func(f *Field, _ int) map[string]any {
		v := row[f.Name]
		return map[string]any{
			"id":      F.markupID + "-" + strcase.KebabCase(f.Name),
			"name":    f.Name,
			"field":   f,
			"type":    f.InputType(),
			"value":   v,
			"checked": cast.ToBool(v),
			"errors":  form.FieldErrors(f.Name),
		}
	})

	pk := F.pkValue()
	return map[string]any{
		"id":         F.markupID,
		"title":      F.entity.label(),
		"pk":         pk,
		"is_new":     pk == "",
		"csrf_token": F.csrfToken(),
		"messages":   F.flashed(),
		"fields":     fields,
		"feedback": map[string]any{
			"id":     form.MarkupID(),
			"errors": form.Errors(),
		},
		"panel": F.panel.dict(),
	}
}

func (F *AdminForm[T]) Render(w io.Writer) error {
	return templates.ExecuteTemplate(w, "admin_form", F.dict())
}

func (F *AdminForm[T]) HTML() (template.HTML, error) {
	buf := strings.Builder{}
	if err := F.Render(&buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Serve the form alone: GET render, POST {action} or POST with `action=save`
func (F *AdminForm[T]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	F.request = r

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		w.Header().Set("content-type", ContentTypeUtf8Html)
		if err := F.Render(w); err != nil {
			log.Printf("render form %s failed %s", F.id, err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	case http.MethodPost:
		a, err := ParseAction(path.Base(r.URL.Path))
		if err != nil {
			a, err = ParseAction(r.FormValue("action"))
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		F.panel.Handle(a, w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// HandlerFuncs implement Handlers with function values.
// nil error is no-op, nil visibility is visible
type HandlerFuncs struct {
	Save         Callback
	SaveError    Callback
	New          Callback
	NewError     Callback
	Refresh      Callback
	RefreshError Callback
	Delete       Callback
	DeleteError  Callback

	NewBtnVisible func() bool
	DelBtnVisible func() bool
}

func call(cb Callback, t *AjaxTarget, f *Form) {
	if cb != nil {
		cb(t, f)
	}
}

func (H *HandlerFuncs) OnSaveSubmit(t *AjaxTarget, f *Form)    { call(H.Save, t, f) }
func (H *HandlerFuncs) OnSaveError(t *AjaxTarget, f *Form)     { call(H.SaveError, t, f) }
func (H *HandlerFuncs) OnNewSubmit(t *AjaxTarget, f *Form)     { call(H.New, t, f) }
func (H *HandlerFuncs) OnNewError(t *AjaxTarget, f *Form)      { call(H.NewError, t, f) }
func (H *HandlerFuncs) OnRefreshSubmit(t *AjaxTarget, f *Form) { call(H.Refresh, t, f) }
func (H *HandlerFuncs) OnRefreshError(t *AjaxTarget, f *Form)  { call(H.RefreshError, t, f) }
func (H *HandlerFuncs) OnDeleteSubmit(t *AjaxTarget, f *Form)  { call(H.Delete, t, f) }
func (H *HandlerFuncs) OnDeleteError(t *AjaxTarget, f *Form)   { call(H.DeleteError, t, f) }

func (H *HandlerFuncs) IsNewBtnVisible() bool { return query(H.NewBtnVisible) }
func (H *HandlerFuncs) IsDelBtnVisible() bool { return query(H.DelBtnVisible) }

var warned sync.Map

// once for each form id
func (H *HandlerFuncs) warnMissing(id string) {
	if _, loaded := warned.LoadOrStore(id, true); loaded {
		return
	}
	missing := lo.Compact([]string{
		lo.Ternary(H.Save == nil, "Save", ""),
		lo.Ternary(H.New == nil, "New", ""),
		lo.Ternary(H.Refresh == nil, "Refresh", ""),
		lo.Ternary(H.Delete == nil, "Delete", ""),
	})
	if len(missing) > 0 {
		log.Printf("form %s: no handler for %s, pressed as no-op", id, strings.Join(missing, ","))
	}
}
