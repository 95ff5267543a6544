package session_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/admitcalc/internal/adapters/http/session"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "correct horse"
)

var (
	hashOnce sync.Once
	testHash string
)

func passwordHash() string {
	hashOnce.Do(func() {
		b, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		testHash = string(b)
	})
	return testHash
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newManager(c *clock, opts ...session.Option) *session.Manager {
	base := []session.Option{
		session.WithCredentials(testEmail, passwordHash()),
		session.WithTTL(time.Hour),
		session.WithClock(c.Now),
	}
	return session.New(append(base, opts...)...)
}

func postLogin(mux http.Handler, email, password string) *httptest.ResponseRecorder {
	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "203.0.113.7:5555"
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func TestAuthenticate(t *testing.T) {
	Convey("Given a manager with credentials", t, func() {
		m := newManager(&clock{now: time.Now()})

		Convey("Then the right credentials pass regardless of email case", func() {
			So(m.Authenticate("Admin@Example.com ", testPassword), ShouldBeNil)
		})

		Convey("Then a wrong password or email fails", func() {
			So(errors.Is(m.Authenticate(testEmail, "nope"), session.ErrInvalidCredentials), ShouldBeTrue)
			So(errors.Is(m.Authenticate("x@example.com", testPassword), session.ErrInvalidCredentials), ShouldBeTrue)
		})
	})

	Convey("Given a manager without credentials", t, func() {
		m := session.New()

		Convey("Then login is disabled", func() {
			So(m.Enabled(), ShouldBeFalse)
			So(errors.Is(m.Authenticate(testEmail, testPassword), session.ErrDisabled), ShouldBeTrue)
		})
	})
}

func TestSessions(t *testing.T) {
	Convey("Given a manager with a controllable clock", t, func() {
		c := &clock{now: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)}
		m := newManager(c)
		token := m.Create()

		Convey("Then a new session is valid", func() {
			So(m.Valid(token), ShouldBeTrue)
			So(m.Valid("forged"), ShouldBeFalse)
			So(m.Active(), ShouldEqual, 1)
		})

		Convey("When the ttl passes", func() {
			c.now = c.now.Add(time.Hour)

			Convey("Then the session expires", func() {
				So(m.Valid(token), ShouldBeFalse)
				So(m.Active(), ShouldEqual, 0)
			})
		})

		Convey("When sweeping after expiry", func() {
			m.Create()
			c.now = c.now.Add(2 * time.Hour)
			m.Sweep()

			Convey("Then every expired session is dropped", func() {
				So(m.Active(), ShouldEqual, 0)
			})
		})

		Convey("When destroyed", func() {
			m.Destroy(token)

			Convey("Then it is no longer valid", func() {
				So(m.Valid(token), ShouldBeFalse)
			})
		})
	})
}

func TestLoginFlow(t *testing.T) {
	Convey("Given a protected mux", t, func() {
		c := &clock{now: time.Now()}
		m := newManager(c, session.WithLoginRate(60, 2))
		mux := http.NewServeMux()
		m.Register(mux)
		page := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("calculator")) })
		mux.Handle("GET /{$}", m.RequirePage(page))
		mux.Handle("GET /api/options", m.RequireAPI(page))

		Convey("When visiting the page without a session", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			Convey("Then the browser is sent to the login form", func() {
				So(w.Code, ShouldEqual, http.StatusSeeOther)
				So(w.Header().Get("Location"), ShouldEqual, "/login")
			})
		})

		Convey("When calling the API without a session", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/options", nil))

			Convey("Then it answers 401 JSON", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(w.Body.String(), ShouldContainSubstring, `"code":"unauthorized"`)
			})
		})

		Convey("When logging in with the right credentials", func() {
			w := postLogin(mux, testEmail, testPassword)
			cookie := sessionCookie(w)

			Convey("Then a session cookie is set and the page opens", func() {
				So(w.Code, ShouldEqual, http.StatusSeeOther)
				So(cookie, ShouldNotBeNil)
				So(cookie.HttpOnly, ShouldBeTrue)

				req := httptest.NewRequest(http.MethodGet, "/", nil)
				req.AddCookie(cookie)
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldEqual, "calculator")
			})

			Convey("And logging out ends the session", func() {
				req := httptest.NewRequest(http.MethodGet, "/logout", nil)
				req.AddCookie(cookie)
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)
				So(rec.Code, ShouldEqual, http.StatusSeeOther)
				So(rec.Header().Get("Location"), ShouldEqual, "/login")
				So(m.Valid(cookie.Value), ShouldBeFalse)
			})
		})

		Convey("When logging in with a wrong password", func() {
			w := postLogin(mux, testEmail, "wrong")

			Convey("Then the form is shown again with an error", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(w.Body.String(), ShouldContainSubstring, "Invalid credentials")
				So(sessionCookie(w), ShouldBeNil)
			})
		})

		Convey("When a client exceeds the login burst", func() {
			postLogin(mux, testEmail, "wrong")
			postLogin(mux, testEmail, "wrong")
			w := postLogin(mux, testEmail, testPassword)

			Convey("Then further attempts are throttled", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(sessionCookie(w), ShouldBeNil)
			})
		})
	})

	Convey("Given login is disabled", t, func() {
		m := session.New()
		mux := http.NewServeMux()
		m.Register(mux)
		mux.Handle("GET /{$}", m.RequirePage(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})))

		Convey("Then pages are open and /login redirects home", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			So(w.Code, ShouldEqual, http.StatusNoContent)

			w = httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
			So(w.Code, ShouldEqual, http.StatusSeeOther)
			So(w.Header().Get("Location"), ShouldEqual, "/")
		})
	})
}
