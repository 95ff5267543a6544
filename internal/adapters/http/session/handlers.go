package session

import (
	"fmt"
	"html"
	"net/http"

	"github.com/okian/admitcalc/internal/adapters/http/api"
	"github.com/okian/admitcalc/pkg/logger"
	"github.com/okian/admitcalc/pkg/metrics"
)

const (
	loginPath = "/login"
	homePath  = "/"
)

// Register attaches /login and /logout to mux.
func (m *Manager) Register(mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET "+loginPath, api.MetricsMiddleware(m.HandleLoginPage, "login"))
	mux.HandleFunc("POST "+loginPath, api.MetricsMiddleware(m.HandleLogin, "login"))
	mux.HandleFunc("GET /logout", api.MetricsMiddleware(m.HandleLogout, "logout"))
}

// HandleLoginPage handles GET /login.
func (m *Manager) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if m.Authenticated(r) {
		http.Redirect(w, r, homePath, http.StatusSeeOther)
		return
	}
	m.pages.RenderLogin(w, http.StatusOK, "")
}

// HandleLogin handles POST /login form submissions.
func (m *Manager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !m.Enabled() {
		http.Redirect(w, r, homePath, http.StatusSeeOther)
		return
	}

	client := clientKey(r)
	if !m.Allow(client) {
		metrics.RecordLoginAttempt("throttled")
		m.logger.Warn(ctx, "login throttled", logger.String("client", client))
		m.pages.RenderLogin(w, http.StatusTooManyRequests, "Too many login attempts. Please wait a minute and try again.")
		return
	}

	if err := r.ParseForm(); err != nil {
		metrics.RecordLoginAttempt("failure")
		m.pages.RenderLogin(w, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	if err := m.Authenticate(r.PostFormValue("email"), r.PostFormValue("password")); err != nil {
		metrics.RecordLoginAttempt("failure")
		m.logger.Info(ctx, "login failed", logger.String("client", client))
		m.pages.RenderLogin(w, http.StatusUnauthorized, "Invalid credentials. Please try again.")
		return
	}

	metrics.RecordLoginAttempt("success")
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    m.Create(),
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	m.logger.Info(ctx, "login succeeded", logger.String("client", client))
	http.Redirect(w, r, homePath, http.StatusSeeOther)
}

// HandleLogout handles GET /logout.
func (m *Manager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if token := m.token(r); token != "" {
		m.Destroy(token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// RequirePage redirects unauthenticated page requests to the login form.
func (m *Manager) RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Authenticated(r) {
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAPI answers unauthenticated API requests with 401.
func (m *Manager) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Authenticated(r) {
			api.WriteError(w, api.NewKind("session.require", api.ErrUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// plainLoginPage is the fallback form used when no renderer is configured.
type plainLoginPage struct{}

func (plainLoginPage) RenderLogin(w http.ResponseWriter, status int, errMsg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	msg := ""
	if errMsg != "" {
		msg = fmt.Sprintf("<p class=\"error\">%s</p>", html.EscapeString(errMsg))
	}
	_, _ = fmt.Fprintf(w, `<!doctype html><title>Login</title>%s
<form method="post" action="/login">
<input type="email" name="email" required>
<input type="password" name="password" required>
<button type="submit">Login</button>
</form>`, msg)
}
