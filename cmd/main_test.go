package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/admitcalc/internal/adapters/http/site"
	"github.com/okian/admitcalc/internal/config"
	"github.com/okian/admitcalc/pkg/logger"
)

func writeScores(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scores.csv")
	content := "Specialty,Extracted Group,Sector,Passing Score,Min Score Required\n" +
		"Law,1,az,500,300\nLaw,1,az,520,300\nLaw,1,az,540,300\nLaw,1,az,560,300\nLaw,1,az,580,300\n" +
		"Art,1,ru,410,200\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write scores: %v", err)
	}
	return path
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	log := logger.Nop()
	svc := newService(cfg, log)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	pages, err := site.New(svc, site.WithAuthEnabled(cfg.AuthEnabled()))
	if err != nil {
		t.Fatalf("site: %v", err)
	}
	srv := httptest.NewServer(newHandler(svc, newSessions(cfg, pages, log), pages))
	t.Cleanup(srv.Close)
	return srv
}

func noRedirectClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar:           jar,
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
}

func TestWiring(t *testing.T) {
	convey.Convey("Given the wired application without login", t, func() {
		cfg := config.New()
		cfg.DataFile = writeScores(t)
		srv := newTestServer(t, cfg)
		client := noRedirectClient(t)

		convey.Convey("Then every route group answers", func() {
			for path, want := range map[string]int{
				"/":                     http.StatusOK,
				"/healthz":              http.StatusOK,
				"/stats":                http.StatusOK,
				"/metrics":              http.StatusOK,
				"/api/options":          http.StatusOK,
				"/openapi.yaml":         http.StatusOK,
				"/api-docs":             http.StatusOK,
				"/static/calculator.js": http.StatusOK,
			} {
				resp, err := client.Get(srv.URL + path)
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, want)
			}
		})

		convey.Convey("Then a calculation succeeds", func() {
			resp, err := client.Post(srv.URL+"/api/calculate", "application/json",
				strings.NewReader(`{"score":560,"group":"1","sector":"az","topN":3}`))
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})
	})

	convey.Convey("Given the wired application with login", t, func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
		convey.So(err, convey.ShouldBeNil)
		cfg := config.New()
		cfg.DataFile = writeScores(t)
		cfg.AuthEmail = "admin@example.com"
		cfg.AuthPasswordHash = string(hash)
		srv := newTestServer(t, cfg)
		client := noRedirectClient(t)

		convey.Convey("When not logged in", func() {
			page, err := client.Get(srv.URL + "/")
			convey.So(err, convey.ShouldBeNil)
			_ = page.Body.Close()
			apiResp, err := client.Get(srv.URL + "/api/options")
			convey.So(err, convey.ShouldBeNil)
			_ = apiResp.Body.Close()

			convey.Convey("Then pages redirect and the API answers 401", func() {
				convey.So(page.StatusCode, convey.ShouldEqual, http.StatusSeeOther)
				convey.So(page.Header.Get("Location"), convey.ShouldEqual, "/login")
				convey.So(apiResp.StatusCode, convey.ShouldEqual, http.StatusUnauthorized)
			})
		})

		convey.Convey("When logged in", func() {
			login, err := client.PostForm(srv.URL+"/login", url.Values{
				"email":    {"admin@example.com"},
				"password": {"s3cret"},
			})
			convey.So(err, convey.ShouldBeNil)
			_ = login.Body.Close()
			convey.So(login.StatusCode, convey.ShouldEqual, http.StatusSeeOther)

			convey.Convey("Then the calculator opens", func() {
				resp, err := client.Get(srv.URL + "/")
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

				calc, err := client.Post(srv.URL+"/api/calculate", "application/json",
					strings.NewReader(`{"score":500,"group":"1"}`))
				convey.So(err, convey.ShouldBeNil)
				_ = calc.Body.Close()
				convey.So(calc.StatusCode, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestBackgroundLoops(t *testing.T) {
	convey.Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.Convey("Then the metrics updater returns", func() {
			convey.So(startSystemMetricsUpdater(ctx), convey.ShouldBeNil)
		})

		convey.Convey("Then the reload loop returns", func() {
			cfg := config.New()
			cfg.DataFile = writeScores(t)
			convey.So(reloadOnHangup(ctx, newService(cfg, logger.Nop()), logger.Nop()), convey.ShouldBeNil)
		})

		convey.Convey("Then a system metrics update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}
