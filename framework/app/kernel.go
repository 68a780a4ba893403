package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/km-arc/go-tinyioc/framework/config"
	"github.com/km-arc/go-tinyioc/framework/container"
	"github.com/km-arc/go-tinyioc/framework/logging"
	"github.com/km-arc/go-tinyioc/framework/metrics"
	"github.com/km-arc/go-tinyioc/framework/providers"
	"github.com/km-arc/go-tinyioc/framework/schedule"
	"github.com/km-arc/go-tinyioc/framework/security"
	"github.com/km-arc/go-tinyioc/framework/txn"
	"github.com/km-arc/go-tinyioc/routing"
)

// Server is a long-running bean the kernel starts next to the HTTP server,
// e.g. the TCP echo server.
type Server interface {
	Listen(addr string) error
	Serve(ctx context.Context) error
}

// Application wires configuration, logging and the collaborators of the
// container, and runs the servers once the container is initialized.
//
// Instance beans registered by the kernel:
//   - "config"          → *config.Config
//   - "logger"          → *zap.Logger
//   - "session"         → *security.MemorySession
//   - "ledger"          → *txn.Ledger
//   - "metricsRegistry" → *prometheus.Registry
type Application struct {
	Config    *config.Config
	Log       *zap.Logger
	Container *container.Container
	Providers *container.ProviderRegistry
	Session   *security.MemorySession
	Ledger    *txn.Ledger
	Metrics   *metrics.Collector
	Registry  *prometheus.Registry
}

// Bootstrap loads configuration from env files and builds the logger.
func Bootstrap(envFiles ...string) (*Application, error) {
	cfg := config.Load(envFiles...)
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	return New(cfg, log), nil
}

// New creates an application with the framework provider registered. Extra
// container options are applied after the kernel's own.
func New(cfg *config.Config, log *zap.Logger, opts ...container.Option) *Application {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Application{
		Config:    cfg,
		Log:       log,
		Providers: container.NewProviderRegistry(),
		Session:   security.NewMemorySession(log),
		Ledger:    txn.NewLedger(log),
		Registry:  prometheus.NewRegistry(),
	}

	base := []container.Option{
		container.WithLogger(log),
		container.WithTransactions(a.Ledger),
		container.WithSession(a.Session),
		container.WithAsyncWorkers(cfg.Async.Workers),
		container.WithInstance("config", cfg),
		container.WithInstance("logger", log),
		container.WithInstance("session", a.Session),
		container.WithInstance("ledger", a.Ledger),
		container.WithInstance("metricsRegistry", a.Registry),
	}
	if cfg.Metrics.Enabled {
		a.Metrics = metrics.NewCollector()
		base = append(base, container.WithMetrics(a.Metrics))
	}
	a.Container = container.New(a.Providers, append(base, opts...)...)
	a.Providers.Register(&providers.FrameworkProvider{})
	return a
}

// Register adds component providers. It must be called before Boot.
func (a *Application) Register(p ...container.ComponentProvider) {
	a.Providers.Register(p...)
}

// Boot initializes the container for the configured scope and boots the
// providers.
func (a *Application) Boot() error {
	if a.Metrics != nil {
		if err := a.Metrics.Register(a.Registry); err != nil {
			return fmt.Errorf("app: %w", err)
		}
	}
	if err := a.Container.Initialize(a.Config.App.Scope); err != nil {
		return err
	}
	if err := a.Providers.Boot(a.Container); err != nil {
		return fmt.Errorf("app: boot providers: %w", err)
	}
	return nil
}

// Router returns the "router" bean.
func (a *Application) Router() (*routing.Router, error) {
	return container.Bean[*routing.Router](a.Container, "router")
}

// Scheduler returns the "scheduler" bean.
func (a *Application) Scheduler() (*schedule.Scheduler, error) {
	return container.Bean[*schedule.Scheduler](a.Container, "scheduler")
}

// Run boots the application if needed and serves HTTP, the echo server (when
// registered for the scope) and the scheduler until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return err
		}
	}
	router, err := a.Router()
	if err != nil {
		return err
	}

	var echo Server
	if a.Container.Contains("echoServer") {
		if echo, err = container.Bean[Server](a.Container, "echoServer"); err != nil {
			return err
		}
		if err := echo.Listen(net.JoinHostPort("", a.Config.Echo.Port)); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", a.Config.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		a.Log.Info("http server listening",
			zap.String("app", a.Config.App.Name),
			zap.String("addr", srv.Addr),
			zap.String("env", a.Config.App.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if echo != nil {
		g.Go(func() error { return echo.Serve(ctx) })
	}

	if a.Config.Scheduler.Enabled {
		sched, err := a.Scheduler()
		if err != nil {
			return err
		}
		sched.Start()
		g.Go(func() error {
			<-ctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return sched.Stop(stopCtx)
		})
	}

	err = g.Wait()
	if serr := a.Shutdown(context.Background()); err == nil {
		err = serr
	}
	return err
}

// Shutdown drains the container's async work.
func (a *Application) Shutdown(ctx context.Context) error {
	return a.Container.Shutdown(ctx)
}

// Environment returns APP_ENV.
func (a *Application) Environment() string { return a.Config.App.Env }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
