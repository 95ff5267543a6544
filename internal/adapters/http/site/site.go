// Package site serves the calculator page, the login form and their assets.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/okian/admitcalc/internal/adapters/http/api"
	service "github.com/okian/admitcalc/internal/app"
	"github.com/okian/admitcalc/pkg/logger"
)

// Error constants
var (
	ErrTemplate = errors.New("site template failed")
)

// OptionsProvider supplies the choices rendered into the calculator form.
type OptionsProvider interface {
	Options(ctx context.Context) (service.OptionsResult, error)
}

// Site renders the HTML pages.
type Site struct {
	templates   *template.Template
	options     OptionsProvider
	authEnabled bool
	logger      logger.Logger
}

// Option applies a configuration option to the Site.
type Option func(*Site)

// WithAuthEnabled shows the logout link on the calculator page.
func WithAuthEnabled(enabled bool) Option {
	return func(s *Site) {
		s.authEnabled = enabled
	}
}

// WithLogger sets a custom logger for the site.
func WithLogger(l logger.Logger) Option {
	return func(s *Site) {
		if l != nil {
			s.logger = l
		}
	}
}

// New parses the embedded templates.
func New(options OptionsProvider, opts ...Option) (*Site, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplate, err)
	}
	s := &Site{templates: tmpl, options: options, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register attaches the page and asset routes to mux. guard protects the
// calculator page; nil leaves it open.
func (s *Site) Register(mux *http.ServeMux, guard func(http.Handler) http.Handler) {
	if mux == nil {
		panic("mux is nil")
	}
	if guard == nil {
		guard = func(h http.Handler) http.Handler { return h }
	}
	mux.Handle("GET /{$}", guard(api.MetricsMiddleware(s.HandleIndex, "index")))
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(FS())))
}

type indexData struct {
	Title       string
	AuthEnabled bool
	Notice      string
	Options     service.OptionsResult
}

// HandleIndex handles GET / and renders the calculator form.
func (s *Site) HandleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{Title: "Admission Probability Calculator", AuthEnabled: s.authEnabled}
	status := http.StatusOK

	opts, err := s.options.Options(r.Context())
	if err != nil {
		s.logger.Warn(r.Context(), "calculator page without options", logger.Error(err))
		data.Notice = "Score data is not loaded yet. Please try again later."
		status = http.StatusServiceUnavailable
	}
	data.Options = opts
	s.render(r.Context(), w, status, "index", data)
}

type loginData struct {
	Title string
	Error string
}

// RenderLogin draws the login form.
func (s *Site) RenderLogin(w http.ResponseWriter, status int, errMsg string) {
	s.render(context.Background(), w, status, "login", loginData{Title: "Login", Error: errMsg})
}

// render executes into a buffer so a template failure never sends a partial page.
func (s *Site) render(ctx context.Context, w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error(ctx, "template render failed", logger.String("template", name), logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
