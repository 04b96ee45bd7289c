// Package web serves the local console: an HTML rendering of the page that
// accepts plain form posts and redirects back after each action.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	openapi "github.com/go-openapi/runtime/middleware"

	"github.com/jmcleod/clubdesk/api"
	"github.com/jmcleod/clubdesk/page"
	"github.com/jmcleod/clubdesk/roster"
)

//go:embed templates/*.html
var templates embed.FS

// Console renders one page for every browser that connects to it.
type Console struct {
	page   *page.Page
	logger *slog.Logger
	tmpl   *template.Template
}

// Option configures the Console instance.
type Option func(*Console)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) {
		c.logger = logger
	}
}

// New creates a Console over p. The page should already be loaded.
func New(p *page.Page, opts ...Option) (*Console, error) {
	tmpl, err := template.New("index.html").Funcs(template.FuncMap{
		"spots": spotsText,
	}).ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("loading console templates: %w", err)
	}
	c := &Console{page: p, tmpl: tmpl}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Router returns a chi.Router with the console, the health check and the
// remote service's API docs mounted.
func (c *Console) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(api.OpenAPISpec)
	})
	r.Handle("/docs*", openapi.Redoc(openapi.RedocOpts{
		SpecURL: "/openapi.yaml",
		Path:    "docs",
		Title:   "Activity service API",
	}, nil))

	r.Group(func(r chi.Router) {
		r.Use(SecurityHeaders)
		r.Use(CSRF)
		r.Get("/", c.index)
		r.Post("/refresh", c.refresh)
		r.Post("/signup", c.signup)
		r.Post("/unregister", c.unregister)
		r.Post("/admin/menu", c.toggleMenu)
		r.Post("/admin/login/open", c.openLogin)
		r.Post("/admin/login/cancel", c.cancelLogin)
		r.Post("/admin/login", c.login)
		r.Post("/admin/logout", c.logout)
	})
	return r
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

type indexData struct {
	page.Snapshot
	CSRF string
}

func (c *Console) index(w http.ResponseWriter, r *http.Request) {
	data := indexData{Snapshot: c.page.Snapshot(), CSRF: csrfToken(w, r)}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		c.logger.Error("rendering console", "err", err)
		http.Error(w, "rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (c *Console) refresh(w http.ResponseWriter, r *http.Request) {
	c.page.Refresh(r.Context())
	back(w, r)
}

func (c *Console) signup(w http.ResponseWriter, r *http.Request) {
	c.page.Signup(r.Context(), roster.Form{
		Activity: r.PostFormValue("activity"),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
	})
	back(w, r)
}

func (c *Console) unregister(w http.ResponseWriter, r *http.Request) {
	c.page.Unregister(r.Context(), r.PostFormValue("activity"), r.PostFormValue("email"))
	back(w, r)
}

func (c *Console) toggleMenu(w http.ResponseWriter, r *http.Request) {
	c.page.ToggleMenu()
	back(w, r)
}

func (c *Console) openLogin(w http.ResponseWriter, r *http.Request) {
	c.page.OpenLoginDialog()
	back(w, r)
}

func (c *Console) cancelLogin(w http.ResponseWriter, r *http.Request) {
	c.page.CancelLoginDialog()
	back(w, r)
}

func (c *Console) login(w http.ResponseWriter, r *http.Request) {
	// The failure reason is kept in the dialog.
	_ = c.page.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	back(w, r)
}

func (c *Console) logout(w http.ResponseWriter, r *http.Request) {
	c.page.Logout(r.Context())
	back(w, r)
}

// back finishes a form post by sending the browser to the page.
func back(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func spotsText(n int) string {
	return fmt.Sprintf("%d spots left", n)
}
