package adminform

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/samber/lo"
)

type Action int

const (
	ActionNew Action = iota
	ActionSave
	ActionRefresh
	ActionDelete
)

var actionNames = [...]string{"new", "save", "refresh", "delete"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

func ParseAction(s string) (Action, error) {
	if i := lo.IndexOf(actionNames[:], s); i >= 0 {
		return Action(i), nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// Actions in the order of buttons
func Actions() []Action {
	return []Action{ActionNew, ActionSave, ActionRefresh, ActionDelete}
}

type Button struct {
	ID      string
	Action  Action
	Label   string
	Class   string
	Icon    string
	URL     string
	Confirm string
}

// Handle the submit of a button
type Callback func(*AjaxTarget, *Form)

// PanelCallbacks are set by the owner of `SavePanel`
type PanelCallbacks struct {
	OnSaveSubmit    Callback
	OnSaveError     Callback
	OnNewSubmit     Callback
	OnNewError      Callback
	OnRefreshSubmit Callback
	OnRefreshError  Callback
	OnDeleteSubmit  Callback
	OnDeleteError   Callback

	IsNewBtnVisible func() bool
	IsDelBtnVisible func() bool
}

// FormProcessor decide submit or error of the form
type FormProcessor interface {
	Process(a Action, r *http.Request) *Form
}

// SavePanel render New/Save/Refresh/Delete buttons, and call back the
// submit or the error of pressed one
type SavePanel struct {
	id        string
	callbacks PanelCallbacks
	processor FormProcessor

	newRecordHidden bool

	// url the button post to, relative to the form page
	actionURL func(Action) string
	// redirect to after plain (not ajax) post
	returnURL func() string
}

func NewSavePanel(id string, cb PanelCallbacks, p FormProcessor) *SavePanel {
	return &SavePanel{
		id:        id,
		callbacks: cb,
		processor: p,
		actionURL: Action.String,
		returnURL: func() string { return "" },
	}
}

func (P *SavePanel) MarkupID() string { return P.id }

func (P *SavePanel) HideNewRecord() { P.newRecordHidden = true }
func (P *SavePanel) ShowNewRecord() { P.newRecordHidden = false }

func (P *SavePanel) IsVisible(a Action) bool {
	switch a {
	case ActionNew:
		return !P.newRecordHidden && query(P.callbacks.IsNewBtnVisible)
	case ActionDelete:
		return query(P.callbacks.IsDelBtnVisible)
	}
	return true
}

// nil query means visible
func query(f func() bool) bool {
	return f == nil || f()
}

// Buttons to draw, visibility asked again on each call
func (P *SavePanel) Buttons() []Button {
	all := []Button{
		{Action: ActionNew, Label: gettext("New"), Class: "btn-default", Icon: "glyphicon-plus"},
		{Action: ActionSave, Label: gettext("Save"), Class: "btn-primary", Icon: "glyphicon-floppy-disk"},
		{Action: ActionRefresh, Label: gettext("Refresh"), Class: "btn-default", Icon: "glyphicon-refresh"},
		{Action: ActionDelete, Label: gettext("Delete"), Class: "btn-danger", Icon: "glyphicon-trash",
			Confirm: gettext("Are you sure you want to delete this record?")},
	}
	return lo.FilterMap(all, func(b Button, _ int) (Button, bool) {
		b.ID = P.id + "-" + b.Action.String()
		b.URL = P.actionURL(b.Action)
		return b, P.IsVisible(b.Action)
	})
}

func (P *SavePanel) dict() map[string]any {
	return map[string]any{
		"id":      P.id,
		"buttons": P.Buttons(),
	}
}

func (P *SavePanel) Render(w io.Writer) error {
	return templates.ExecuteTemplate(w, "save_panel", P.dict())
}

func (P *SavePanel) submitOf(a Action) Callback {
	return [...]Callback{
		P.callbacks.OnNewSubmit,
		P.callbacks.OnSaveSubmit,
		P.callbacks.OnRefreshSubmit,
		P.callbacks.OnDeleteSubmit,
	}[a]
}

func (P *SavePanel) errorOf(a Action) Callback {
	return [...]Callback{
		P.callbacks.OnNewError,
		P.callbacks.OnSaveError,
		P.callbacks.OnRefreshError,
		P.callbacks.OnDeleteError,
	}[a]
}

// Process the form, then call exactly one of submit or error callback.
// Hidden button can not be pressed
func (P *SavePanel) Handle(a Action, w http.ResponseWriter, r *http.Request) {
	if a < ActionNew || a > ActionDelete || !P.IsVisible(a) {
		http.Error(w, gettext("Action %s is not available.", a), http.StatusNotFound)
		return
	}

	form := P.processor.Process(a, r)
	target := NewAjaxTarget(r)

	cb := P.submitOf(a)
	if form.HasErrors() {
		log.Printf("form %s", form)
		cb = P.errorOf(a)
	}
	if cb != nil {
		cb(target, form)
	}

	// visibility may changed by the callback
	target.Add(form, P)

	// errors survive the redirect of a plain post
	if !IsAjax(r) {
		for _, e := range form.AllErrors() {
			Flash(r, e, "error")
		}
	}

	if err := target.Respond(w, P.returnURL()); err != nil {
		log.Printf("form %s respond failed %s", form, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
