// Package session gates the calculator behind a single configured login.
// Sessions live in memory and are keyed by a random cookie value.
package session

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/okian/admitcalc/pkg/logger"
	"github.com/okian/admitcalc/pkg/metrics"
)

// CookieName is the session cookie.
const CookieName = "admitcalc_session"

// Manager issues and checks sessions. The zero value is not usable; call New.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	limiters map[string]*clientLimiter

	email  string
	hash   []byte
	ttl    time.Duration
	secure bool
	limit  rate.Limit
	burst  int

	now    func() time.Time
	pages  LoginRenderer
	logger logger.Logger
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginRenderer draws the login form with an optional error message.
type LoginRenderer interface {
	RenderLogin(w http.ResponseWriter, status int, errMsg string)
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithCredentials enables login for email with a bcrypt password hash.
func WithCredentials(email, passwordHash string) Option {
	return func(m *Manager) {
		m.email = strings.TrimSpace(email)
		m.hash = []byte(passwordHash)
	}
}

// WithTTL sets how long a session stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithSecureCookies marks the cookie Secure.
func WithSecureCookies(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithLoginRate limits login attempts per client address.
func WithLoginRate(perMinute float64, burst int) Option {
	return func(m *Manager) {
		if perMinute > 0 && burst > 0 {
			m.limit = rate.Limit(perMinute / 60)
			m.burst = burst
		}
	}
}

// WithLoginPage sets the renderer of the login form.
func WithLoginPage(r LoginRenderer) Option {
	return func(m *Manager) {
		if r != nil {
			m.pages = r
		}
	}
}

// WithLogger sets a custom logger for the manager.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a Manager. Without credentials it lets every request through.
func New(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]time.Time),
		limiters: make(map[string]*clientLimiter),
		ttl:      12 * time.Hour,
		limit:    rate.Limit(10.0 / 60),
		burst:    5,
		now:      time.Now,
		pages:    plainLoginPage{},
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Enabled reports whether a login is required.
func (m *Manager) Enabled() bool { return m.email != "" }

// Authenticate checks email and password against the configured login.
func (m *Manager) Authenticate(email, password string) error {
	if !m.Enabled() {
		return ErrDisabled
	}
	emailOK := subtle.ConstantTimeCompare(
		[]byte(strings.ToLower(strings.TrimSpace(email))),
		[]byte(strings.ToLower(m.email)),
	) == 1
	// bcrypt runs even when the email is wrong.
	pwErr := bcrypt.CompareHashAndPassword(m.hash, []byte(password))
	if !emailOK || pwErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Create starts a session and returns its token.
func (m *Manager) Create() string {
	token := uuid.NewString()
	m.mu.Lock()
	m.sessions[token] = m.now().Add(m.ttl)
	active := len(m.sessions)
	m.mu.Unlock()
	metrics.UpdateActiveSessions(active)
	return token
}

// Valid reports whether token names a live session. Expired sessions are dropped.
func (m *Manager) Valid(token string) bool {
	if token == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.sessions[token]
	if !ok {
		return false
	}
	if !m.now().Before(exp) {
		delete(m.sessions, token)
		return false
	}
	return true
}

// Destroy ends a session.
func (m *Manager) Destroy(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	active := len(m.sessions)
	m.mu.Unlock()
	metrics.UpdateActiveSessions(active)
}

// Active returns the number of stored sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Allow consumes one login attempt for client.
func (m *Manager) Allow(client string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	cl, ok := m.limiters[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.limiters[client] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// Sweep drops expired sessions and idle limiters.
func (m *Manager) Sweep() {
	m.mu.Lock()
	now := m.now()
	for token, exp := range m.sessions {
		if !now.Before(exp) {
			delete(m.sessions, token)
		}
	}
	for client, cl := range m.limiters {
		if now.Sub(cl.lastSeen) > time.Hour {
			delete(m.limiters, client)
		}
	}
	active := len(m.sessions)
	m.mu.Unlock()
	metrics.UpdateActiveSessions(active)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) token(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// Authenticated reports whether r carries a live session or login is disabled.
func (m *Manager) Authenticated(r *http.Request) bool {
	return !m.Enabled() || m.Valid(m.token(r))
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
