package adminform

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"
)

type RegisterFunc func(mux *http.ServeMux, prefix string, bp *Blueprint)

// like flask.Blueprint
//
// | Name  | Endpoint       | Path       |
// |-------|----------------|------------|
// | Admin | admin          | /admin     |
// |       | .index         | /          |
// | User  | user           | /user      |
// |       | user.index     | /          |
// |       | user.action    | /{action}  |
type Blueprint struct {
	Endpoint string                // {user}.index
	Path     string                // /user
	Method   string                // GET, POST, empty for any
	Children map[string]*Blueprint // endpoint => *Blueprint
	Name     string                // User
	Handler  http.HandlerFunc
	Register RegisterFunc // Custom register to mux, serve static file
}

func (B *Blueprint) Add(child *Blueprint) {
	if B.Children == nil {
		B.Children = map[string]*Blueprint{}
	}
	B.Children[child.Endpoint] = child
}

// pattern of http.ServeMux, a path end with `/` matches itself only
func (B *Blueprint) pattern(prefix string) string {
	p := prefix + B.Path
	if strings.HasSuffix(p, "/") {
		p += "{$}"
	}
	if B.Method != "" {
		p = B.Method + " " + p
	}
	return p
}

// Add `Blueprint` and children to `http.ServeMux`
func (B *Blueprint) RegisterTo(mux *http.ServeMux, prefix string) {
	if B.Register != nil {
		B.Register(mux, prefix, B)
	}

	if B.Handler != nil {
		p := B.pattern(prefix)
		log.Printf("handle %s", p)
		mux.HandleFunc(p, B.Handler)
	}

	unique := map[string]bool{}
	for _, cb := range B.Children {
		p := cb.pattern(prefix + B.Path)
		if unique[p] {
			log.Printf("duplicated handle %s", p)
			continue
		}
		unique[p] = true
		cb.RegisterTo(mux, prefix+B.Path)
	}
}

// Url of endpoint, relative `.index` or full `user.index`
func (B *Blueprint) GetUrl(endpoint string, qs ...url.Values) (string, error) {
	head, tail, nested := strings.Cut(endpoint, ".")

	var res string
	switch {
	case head == "" || head == B.Endpoint:
		if !nested {
			res = B.Path
			break
		}
		child, ok := B.Children[tail]
		if !ok {
			return "", fmt.Errorf("endpoint '%s' miss in `%s`", tail, B.Endpoint)
		}
		sub, err := child.GetUrl(tail)
		if err != nil {
			return "", err
		}
		res = B.Path + sub
	default:
		child, ok := B.Children[head]
		if !ok {
			return "", fmt.Errorf("endpoint '%s' miss in `%s`", head, B.Endpoint)
		}
		sub, err := child.GetUrl(endpoint)
		if err != nil {
			return "", err
		}
		res = B.Path + sub
	}

	if len(qs) > 0 && len(qs[0]) > 0 {
		res += "?" + qs[0].Encode()
	}
	return res, nil
}

func (B *Blueprint) dict() map[string]any {
	o := map[string]any{
		"endpoint": B.Endpoint,
		"path":     B.Path,
		"method":   B.Method,
		"handler":  B.Handler != nil,
	}

	if B.Name != "" {
		o["name"] = B.Name
	}

	if B.Children != nil {
		o["children"] = lo.MapValues(B.Children, func(v *Blueprint, _ string) map[string]any {
			return v.dict()
		})
	}
	return o
}
