package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/admitcalc/internal/adapters/http/api"
	"github.com/okian/admitcalc/internal/adapters/http/session"
	"github.com/okian/admitcalc/internal/adapters/http/site"
	"github.com/okian/admitcalc/internal/adapters/http/swagger"
	"github.com/okian/admitcalc/internal/adapters/repository"
	app "github.com/okian/admitcalc/internal/app"
	"github.com/okian/admitcalc/internal/config"
	"github.com/okian/admitcalc/internal/domain/admission"
	"github.com/okian/admitcalc/pkg/logger"
	"github.com/okian/admitcalc/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	sessionSweepInterval      = 5 * time.Minute
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := newService(cfg, log)
	if err := svc.Start(ctx); err != nil {
		// Keep serving: /healthz reports the missing dataset and SIGHUP retries.
		log.Error(ctx, "dataset not loaded", logger.String("path", cfg.DataFile), logger.Error(err))
	}
	defer svc.Stop()

	pages, err := site.New(svc, site.WithAuthEnabled(cfg.AuthEnabled()), site.WithLogger(log.Named("site")))
	if err != nil {
		return err
	}
	sessions := newSessions(cfg, pages, log)
	handler := newHandler(svc, sessions, pages)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.Bool("auth", cfg.AuthEnabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})
	g.Go(func() error { return startSystemMetricsUpdater(gctx) })
	g.Go(func() error { return sessions.RunSweeper(gctx, sessionSweepInterval) })
	g.Go(func() error { return reloadOnHangup(gctx, svc, log) })

	err = g.Wait()
	log.Info(context.Background(), "server stopped")
	return err
}

func newService(cfg *config.Config, log logger.Logger) *app.Service {
	store := repository.NewStore(
		repository.WithPath(cfg.DataFile),
		repository.WithLoadOptions(repository.WithSheet(cfg.DataSheet)),
		repository.WithLogger(log.Named("repository")),
	)
	engine := admission.NewEngine(admission.WithPolicy(admission.Policy{
		ZeroVarianceThreshold: cfg.ZeroVarianceThreshold,
		CertainProbability:    cfg.CertainProbability,
		ImpossibleProbability: cfg.ImpossibleProbability,
	}))
	return app.New(
		app.WithStore(store),
		app.WithEngine(engine),
		app.WithBounds(app.Bounds{
			ScoreMin:    cfg.ScoreMin,
			ScoreMax:    cfg.ScoreMax,
			TopNMin:     cfg.TopNMin,
			TopNMax:     cfg.TopNMax,
			TopNDefault: cfg.TopNDefault,
		}),
		app.WithLogger(log.Named("service")),
	)
}

func newSessions(cfg *config.Config, pages session.LoginRenderer, log logger.Logger) *session.Manager {
	opts := []session.Option{
		session.WithLoginPage(pages),
		session.WithTTL(time.Duration(cfg.SessionTTLMinutes) * time.Minute),
		session.WithSecureCookies(cfg.SecureCookies),
		session.WithLoginRate(cfg.LoginRatePerMinute, cfg.LoginBurst),
		session.WithLogger(log.Named("session")),
	}
	if cfg.AuthEnabled() {
		opts = append(opts, session.WithCredentials(cfg.AuthEmail, cfg.AuthPasswordHash))
	}
	return session.New(opts...)
}

// newHandler wires every route onto one mux.
func newHandler(svc *app.Service, sessions *session.Manager, pages *site.Site) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(svc, api.WithGuard(sessions.RequireAPI)).Register(mux)
	sessions.Register(mux)
	pages.Register(mux, sessions.RequirePage)
	return mux
}

// reloadOnHangup re-reads the dataset on every SIGHUP.
func reloadOnHangup(ctx context.Context, svc *app.Service, log logger.Logger) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			if err := svc.Reload(ctx); err != nil {
				log.Error(ctx, "dataset reload failed; keeping previous data", logger.Error(err))
				continue
			}
			log.Info(ctx, "dataset reloaded")
		}
	}
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) error {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
