package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"seismograph/internal/service/ratelimit"
	"seismograph/pkg/config"
	xhttp "seismograph/pkg/http"
	"seismograph/pkg/http/middleware"
	applogger "seismograph/pkg/logger"
)

// Resource is an infrastructure client closed on shutdown.
type Resource struct {
	Name string
	io.Closer
}

// App encapsulates the serve lifecycle: HTTP server plus the clients the
// handlers depend on.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	resources  []Resource
}

// New builds the HTTP server around handler. Resources are closed in reverse
// order after the server drains.
func New(cfg *config.Config, handler xhttp.Handler, l *applogger.Logger, resources ...Resource) *App {
	if l == nil {
		l = applogger.Nop()
	}
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(cfg.Metrics.Path))
	} else {
		opts = append(opts, xhttp.WithMetricsPath(""))
	}
	if rl := cfg.Server.RateLimit; rl.Enabled {
		lim := ratelimit.New(ratelimit.WithIdleTTL(rl.IdleTTL))
		opts = append(opts, xhttp.WithMiddleware(middleware.RateLimit(lim, rl.Burst, rl.PerSecond)))
		resources = append([]Resource{{Name: "ratelimit", Closer: lim}}, resources...)
	}

	return &App{
		cfg:        cfg,
		l:          l,
		httpServer: xhttp.NewServer(handler, opts...),
		resources:  resources,
	}
}

// Server exposes the HTTP server, mainly for tests.
func (a *App) Server() *xhttp.Server { return a.httpServer }

// Run starts the HTTP server and blocks until ctx is done, a termination
// signal arrives or the listener fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := a.httpServer.Start()
	a.l.Info("seismograph started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("cache", a.cfg.Cache.Backend),
		applogger.Bool("clickhouse", a.cfg.ClickHouse.Enabled),
		applogger.Bool("kafka", a.cfg.Kafka.Enabled),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			a.l.Error("http server failed", applogger.Error(err))
			runErr = err
		}
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// shutdown drains the HTTP server and closes infrastructure clients.
func (a *App) shutdown() error {
	a.l.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()
	err := a.httpServer.Stop(ctx)
	if err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	for i := len(a.resources) - 1; i >= 0; i-- {
		r := a.resources[i]
		if cerr := r.Close(); cerr != nil {
			a.l.Warn("close error", applogger.String("resource", r.Name), applogger.Error(cerr))
		}
	}

	a.l.Info("shutdown complete")
	return err
}
