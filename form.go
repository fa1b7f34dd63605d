package adminform

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/form/v4"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"
)

// Entity implement Validator is checked before save
type Validator interface {
	Validate() error
}

// FieldError returned by `Validate` is shown beside the field
type FieldError struct {
	Field   string // struct field name
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Form is the processing result of one submit
type Form struct {
	ID      string
	Action  Action
	Request *http.Request
	Values  url.Values

	object      any
	errors      []string
	fieldErrors map[string][]string
}

func newForm(id string, a Action, r *http.Request) *Form {
	return &Form{
		ID:          id,
		Action:      a,
		Request:     r,
		Values:      url.Values{},
		fieldErrors: map[string][]string{},
	}
}

// Decoded entity of `save`, the model object for other actions
func (F *Form) Object() any { return F.object }

// form level error
func (F *Form) Error(msg string) *Form {
	F.errors = append(F.errors, msg)
	return F
}

func (F *Form) FieldError(name, msg string) *Form {
	F.fieldErrors[name] = append(F.fieldErrors[name], msg)
	return F
}

// Add error returned by `Validate`, joined errors are split
func (F *Form) AddError(err error) {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			F.AddError(e)
		}
		return
	}

	var fe *FieldError
	if errors.As(err, &fe) {
		F.FieldError(fe.Field, fe.Message)
		return
	}
	F.Error(err.Error())
}

func (F *Form) HasErrors() bool {
	return len(F.errors) > 0 || len(F.fieldErrors) > 0
}

func (F *Form) Errors() []string { return F.errors }

func (F *Form) FieldErrors(name string) []string { return F.fieldErrors[name] }

// field errors first, by field name
func (F *Form) AllErrors() []string {
	keys := lo.Keys(F.fieldErrors)
	slices.Sort(keys)
	res := lo.FlatMap(keys, func(k string, _ int) []string {
		return lo.Map(F.fieldErrors[k], func(m string, _ int) string {
			return k + ": " + m
		})
	})
	return append(res, F.errors...)
}

// Feedback of the form, replaced after each submit
func (F *Form) MarkupID() string { return F.ID + "-feedback" }

func (F *Form) Render(w io.Writer) error {
	return templates.ExecuteTemplate(w, "feedback", map[string]any{
		"id":     F.MarkupID(),
		"errors": F.errors,
	})
}

func (F *Form) String() string {
	buf := bytes.Buffer{}
	fmt.Fprintf(&buf, "%s.%s", F.ID, F.Action)
	if F.HasErrors() {
		fmt.Fprintf(&buf, " %s", strings.Join(F.AllErrors(), "; "))
	}
	return buf.String()
}

// Decode errors are set on each field
func (F *Form) decode(dst any, values url.Values) {
	err := decoder.Decode(dst, values)
	if err == nil {
		return
	}

	var de form.DecodeErrors
	if errors.As(err, &de) {
		for name, e := range de {
			F.FieldError(name, gettext("Invalid value. %s", e))
		}
		return
	}
	F.Error(err.Error())
}

// Decoder of request values into entity
func newDecoder() *form.Decoder {
	d := form.NewDecoder()
	d.RegisterCustomTypeFunc(func(vals []string) (any, error) {
		if vals[0] == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(vals[0])
	}, decimal.Decimal{})
	d.RegisterCustomTypeFunc(func(vals []string) (any, error) {
		return null.NewString(vals[0], vals[0] != ""), nil
	}, null.String{})
	d.RegisterCustomTypeFunc(func(vals []string) (any, error) {
		return parseTime(vals[0])
	}, time.Time{})
	return d
}

var timeLayouts = []string{DateLayout, "2006-01-02T15:04", time.RFC3339}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("time %q not in %s", s, DateLayout)
}

var decoder = newDecoder()
