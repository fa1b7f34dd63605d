package adminform

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gopkg.in/guregu/null.v4"
)

func TestFormErrors(t *testing.T) {
	is := assert.New(t)

	f := newForm("book", ActionSave, httptest.NewRequest("POST", "/", nil))
	is.False(f.HasErrors())
	is.Equal("book.save", f.String())
	is.Equal("book-feedback", f.MarkupID())

	f.AddError(errors.Join(
		&FieldError{Field: "Title", Message: "too long"},
		errors.New("not allowed"),
	))
	f.FieldError("Price", "negative")

	is.True(f.HasErrors())
	is.Equal([]string{"not allowed"}, f.Errors())
	is.Equal([]string{"too long"}, f.FieldErrors("Title"))
	is.Equal([]string{"Price: negative", "Title: too long", "not allowed"}, f.AllErrors())
	is.Equal("book.save Price: negative; Title: too long; not allowed", f.String())

	f.AddError(errors.Join(errors.New("outer"), &FieldError{Field: "Price", Message: "zero"}))
	is.Equal([]string{"negative", "zero"}, f.FieldErrors("Price"))
}

func TestFormDecode(t *testing.T) {
	is := assert.New(t)

	var b Book
	f := newForm("book", ActionSave, nil)
	f.decode(&b, url.Values{
		"Title":     {"Go"},
		"Price":     {"12.50"},
		"Subtitle":  {""},
		"InStock":   {"true"},
		"Published": {"2024-10-01"},
	})
	is.False(f.HasErrors(), f.String())
	is.Equal("Go", b.Title)
	is.True(decimal.RequireFromString("12.5").Equal(b.Price))
	is.Equal(null.String{}, b.Subtitle)
	is.True(b.InStock)
	is.Equal(time.Date(2024, 10, 1, 0, 0, 0, 0, time.Local), *b.Published)

	f = newForm("book", ActionSave, nil)
	f.decode(&b, url.Values{"Price": {"cheap"}, "Published": {"yesterday"}})
	is.Len(f.FieldErrors("Price"), 1)
	is.Len(f.FieldErrors("Published"), 1)
	is.Empty(f.Errors())
}

func TestParseTime(t *testing.T) {
	is := assert.New(t)

	is.Equal(time.Time{}, must(parseTime("")))
	is.Equal(time.Date(2024, 10, 1, 8, 30, 0, 0, time.Local), must(parseTime("2024-10-01T08:30")))
	_, err := parseTime("10/01/2024")
	is.Error(err)
}
