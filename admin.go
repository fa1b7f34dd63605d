package adminform

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

// Page is a form served by `Admin`, built for each request
type Page interface {
	Component
	Panel() *SavePanel
	attach(A *Admin, r *http.Request)
}

// PageFactory build the page of a request, eg: load the record of `PK(r)`.
// ErrNotFound is replied as 404
type PageFactory func(r *http.Request) (Page, error)

type Admin struct {
	*Blueprint

	DB     *gorm.DB
	menu   Menu
	config *Config
	store  sessions.Store
	trace  *Trace
	mux    *http.ServeMux
}

// db may be nil when no `EntityModel` used
func NewAdmin(name string, db *gorm.DB, cfg *Config) *Admin {
	if cfg == nil {
		cfg = NewConfig()
	}
	configureText(cfg)

	secret := cfg.String(ConfigSecretKey)
	if secret == "" {
		log.Printf("admin %s: %s not set, sessions are lost after restart", name, ConfigSecretKey)
		secret = uuid.NewString()
	}

	A := &Admin{
		DB:     db,
		menu:   Menu{},
		config: cfg,
		store:  NewSessionStore(secret),
		mux:    http.NewServeMux(),
	}
	if db != nil && cfg.Bool(ConfigDebug) {
		A.trace = NewTrace(db)
	}

	A.Blueprint = &Blueprint{
		Name:     name,
		Endpoint: "admin",
		Path:     "/admin",
		Children: map[string]*Blueprint{
			"index": {
				Endpoint: "index",
				Path:     "/",
				Method:   http.MethodGet,
				Handler:  A.indexHandle,
			},
			"static": {
				Endpoint: "static",
				Path:     "/static/",
				Register: A.registerStatic,
			},
		},
	}
	if cfg.Bool(ConfigDebug) {
		A.Add(&Blueprint{
			Endpoint: "debug",
			Path:     "/debug.json",
			Method:   http.MethodGet,
			Handler:  A.debugHandle,
		})
	}
	A.RegisterTo(A.mux, "")

	A.menu.Add(&MenuItem{Path: A.Path + "/", Name: gettext("Home")})
	return A
}

func (A *Admin) Config() *Config { return A.config }

func (A *Admin) Trace() *Trace { return A.trace }

// AddForm mount a page at /admin/{endpoint}/:
//
//	GET  /admin/user/         render the page in layout
//	POST /admin/user/{action} press a button: new, save, refresh, delete
func (A *Admin) AddForm(endpoint, label string, factory PageFactory) *Blueprint {
	b := &Blueprint{
		Endpoint: endpoint,
		Path:     "/" + endpoint,
		Name:     label,
		Children: map[string]*Blueprint{
			"index": {
				Endpoint: "index",
				Path:     "/",
				Method:   http.MethodGet,
				Handler:  A.pageHandle(label, factory),
			},
			"action": {
				Endpoint: "action",
				Path:     "/{action}",
				Method:   http.MethodPost,
				Handler:  A.actionHandle(factory),
			},
		},
	}
	A.Add(b)
	b.RegisterTo(A.mux, A.Path)

	A.menu.Add(&MenuItem{Name: label, Path: must(A.GetUrl(endpoint + ".index"))})
	return b
}

func (A *Admin) AddLink(cate, name, path string) {
	A.menu.Add(&MenuItem{Category: cate, Name: name, Path: path})
}

func (A *Admin) AddCategory(cate string) {
	A.menu.Add(&MenuItem{Name: cate})
}

// Flask.url_for, `endpoint` like:
//
//	.index
//	user.index
func (A *Admin) UrlFor(endpoint string, args ...any) (string, error) {
	return A.GetUrl(endpoint, pairToQuery(args...))
}

func (A *Admin) page(w http.ResponseWriter, r *http.Request, factory PageFactory) (Page, bool) {
	p, err := factory(r)
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	case err != nil:
		log.Printf("page %s failed %s", r.URL, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	p.attach(A, r)
	return p, true
}

func (A *Admin) pageHandle(title string, factory PageFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := A.page(w, r, factory)
		if !ok {
			return
		}

		buf := strings.Builder{}
		if err := p.Render(&buf); err != nil {
			log.Printf("render %s failed %s", p.MarkupID(), err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		A.render(w, r, title, template.HTML(buf.String()))
	}
}

func (A *Admin) actionHandle(factory PageFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := ParseAction(r.PathValue("action"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		p, ok := A.page(w, r, factory)
		if !ok {
			return
		}
		p.Panel().Handle(a, w, r)
	}
}

func (A *Admin) indexHandle(w http.ResponseWriter, r *http.Request) {
	buf := strings.Builder{}
	if err := templates.ExecuteTemplate(&buf, "index", map[string]any{"admin": A.dict(r)}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	A.render(w, r, "", template.HTML(buf.String()))
}

// `content` in the layout
func (A *Admin) render(w http.ResponseWriter, r *http.Request, title string, content template.HTML) {
	w.Header().Set("content-type", ContentTypeUtf8Html)
	err := templates.ExecuteTemplate(w, "layout", map[string]any{
		"admin":   A.dict(r),
		"title":   title,
		"content": content,
	})
	if err != nil {
		log.Printf("render layout failed %s", err)
	}
}

// static/ embedded, or the folder of `static.folder`
func (A *Admin) registerStatic(mux *http.ServeMux, prefix string, bp *Blueprint) {
	var fsys fs.FS = must(fs.Sub(staticFS, "static"))
	if folder := A.config.String(ConfigStaticFolder); folder != "" {
		fsys = os.DirFS(folder)
	}
	p := prefix + bp.Path
	files := http.StripPrefix(p, http.FileServerFS(fsys))
	mux.HandleFunc(http.MethodGet+" "+p, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".js") {
			w.Header().Set("content-type", ContentTypeJs)
		}
		files.ServeHTTP(w, r)
	})
}

func (A *Admin) debugHandle(w http.ResponseWriter, r *http.Request) {
	values := map[string]any{}
	if s := CurrentSession(r); s != nil {
		for k, v := range s.Values {
			values[cast.ToString(k)] = v
		}
	}

	ReplyJson(w, http.StatusOK, A.dict(r, map[string]any{
		"blueprints": A.Blueprint.dict(),
		"session":    values,
		"trace":      A.trace.Entries(),
	}))
}

func (A *Admin) dict(r *http.Request, others ...map[string]any) map[string]any {
	o := map[string]any{
		"debug":    A.config.Bool(ConfigDebug),
		"name":     A.Name,
		"url":      A.Path,
		"language": A.config.String(ConfigLanguage),
		"swatch":   A.config.String(ConfigTheme, "cerulean"),
		"menus":    A.menu.dict(r.URL.Path),
	}

	if len(others) > 0 {
		merge(o, others[0])
	}
	return o
}

// Session is ready for all pages, saved before the response written
func (A *Admin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r = PatchSession(r, A.store, A.config.String(ConfigSessionName))
	bw := NewBufferWriter(w, func(w http.ResponseWriter) {
		SaveSessions(r, w)
	})
	A.mux.ServeHTTP(bw, r)
	bw.Flush()

	A.trace.CollectOnce(r)
}

// Admin with access log and panic recovery
func (A *Admin) Handler() http.Handler {
	return Use(A, Logging(os.Stdout), Recovery())
}

// Serve until ctx done
func (A *Admin) Run(ctx context.Context, addr string) error {
	serv := &http.Server{
		Addr:              addr,
		Handler:           A.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-done:
			return
		case <-ctx.Done():
		}
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := serv.Shutdown(shutdown); err != nil {
			log.Printf("admin shutdown %s", err)
		}
	}()

	log.Printf("admin %s listen on %s", A.Name, addr)
	if err := serv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
