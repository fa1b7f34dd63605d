package adminform

import (
	"context"
	"database/sql/driver"
	"log"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/camelcase"
	"github.com/samber/lo"
	"github.com/stoewer/go-strcase"
	"gorm.io/gorm/schema"
)

var schemaStore = sync.Map{}

// Gorm naming used to parse entity declare
var Namer = schema.NamingStrategy{SingularTable: true}

// Layout of `<input type="date">`
const DateLayout = "2006-01-02"

// Field of an entity, as an input in the form
type Field struct {
	*schema.Field

	Label    string
	Required bool
	// rows of textarea, from tag `admin:"textarea=5"`
	TextAreaRow int
	ReadOnly    bool
}

// input type of html
func (f *Field) InputType() string {
	switch {
	case f.PrimaryKey || f.ReadOnly:
		return "readonly"
	case f.TextAreaRow > 0:
		return "textarea"
	}

	switch f.DataType {
	case schema.Bool:
		return "checkbox"
	case schema.Int, schema.Uint, schema.Float:
		return "number"
	case schema.Time:
		return "date"
	}

	if f.FieldType.String() == "decimal.Decimal" {
		return "number"
	}
	return "text"
}

// entity meta of T, no field when T is not a gorm model
type entity struct {
	typ    reflect.Type
	schema *schema.Schema
	Fields []*Field
	pk     *Field
}

var unparsed sync.Map

// T is struct or pointer to struct, others render no input
func newEntity(m any) *entity {
	e := &entity{typ: reflect.TypeOf(m)}
	for e.typ != nil && e.typ.Kind() == reflect.Pointer {
		e.typ = e.typ.Elem()
	}

	s, err := schema.Parse(m, &schemaStore, Namer)
	if err != nil {
		if _, loaded := unparsed.LoadOrStore(e.typ, true); !loaded {
			log.Printf("entity %v: %s, no field editable", e.typ, err)
		}
		return e
	}
	e.schema = s

	e.Fields = lo.FilterMap(s.Fields, func(sf *schema.Field, _ int) (*Field, bool) {
		// skip association and ignored
		if sf.DBName == "" || !sf.Readable {
			return nil, false
		}

		f := &Field{
			Field: sf,
			Label: strings.Join(camelcase.Split(sf.Name), " "),
			// `not null` without default should be inputed
			Required: sf.NotNull && !sf.HasDefaultValue && !sf.PrimaryKey,
			ReadOnly: !sf.Updatable || sf.AutoCreateTime != 0 || sf.AutoUpdateTime != 0,
		}
		for _, opt := range strings.Split(sf.Tag.Get("admin"), ";") {
			k, v, _ := strings.Cut(opt, "=")
			switch k {
			case "label":
				f.Label = v
			case "textarea":
				rows, _ := strconv.Atoi(v)
				f.TextAreaRow = max(1, rows)
			case "readonly":
				f.ReadOnly = true
			case "required":
				f.Required = true
			}
		}
		return f, true
	})

	e.pk, _ = lo.Find(e.Fields, func(f *Field) bool { return f.PrimaryKey })
	return e
}

// Name of T, eg: Book, or map[string]string
func (e *entity) typeName() string {
	switch {
	case e.schema != nil:
		return e.schema.Name
	case e.typ == nil:
		return ""
	case e.typ.Name() != "":
		return e.typ.Name()
	}
	return e.typ.String()
}

// Convert CamelCase to snake_case
func (e *entity) name() string { return strcase.SnakeCase(e.typeName()) }

func (e *entity) label() string {
	return strings.Join(camelcase.Split(e.typeName()), " ")
}

// Return field by struct field name or db name
func (e *entity) field(name string) *Field {
	f, _ := lo.Find(e.Fields, func(f *Field) bool {
		return f.Name == name || f.DBName == name
	})
	return f
}

// value of field in entity `v`, v may be pointer, nil pointer is zero
func (e *entity) valueOf(f *Field, v any) (any, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, true
		}
		rv = rv.Elem()
	}
	return f.ValueOf(context.TODO(), rv)
}

// field name => value for form rendering
func (e *entity) intoRow(v any) map[string]any {
	r := map[string]any{}
	for _, f := range e.Fields {
		val, zero := e.valueOf(f, v)
		if val == nil || zero && f.InputType() != "checkbox" && f.InputType() != "number" {
			r[f.Name] = ""
			continue
		}
		switch t := val.(type) {
		case time.Time:
			r[f.Name] = t.Format(DateLayout)
		case *time.Time:
			r[f.Name] = t.Format(DateLayout)
		case driver.Valuer:
			// decimal.Decimal, null.String ...
			dv, err := t.Value()
			if err != nil || dv == nil {
				dv = ""
			}
			r[f.Name] = dv
		default:
			r[f.Name] = val
		}
	}
	return r
}
