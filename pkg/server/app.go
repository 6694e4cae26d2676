package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"QuantPanel/pkg/config"
	xhttp "QuantPanel/pkg/http"
	pkgkafka "QuantPanel/pkg/kafka"
	applogger "QuantPanel/pkg/logger"
)

// App encapsulates the application lifecycle: the HTTP server and, when
// configured, the recompute consumer.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
}

// New creates a new App. consumer may be nil.
func New(cfg *config.Config, l *applogger.Logger, httpServer *xhttp.Server, consumer *pkgkafka.Consumer) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, l: l, httpServer: httpServer, consumer: consumer}
}

// Run starts every component and blocks until ctx is done or an interrupt
// arrives, then shuts down.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.consumer != nil {
		if err := a.consumer.Start(ctx); err != nil {
			a.l.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("app started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("loader", a.cfg.Loader.Source),
		applogger.Bool("kafka", a.consumer != nil),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case s := <-sigCh:
		a.l.Info("shutdown signal received", applogger.String("signal", s.String()))
	case <-ctx.Done():
		a.l.Info("context done, shutting down")
	}
	return a.shutdown()
}

// shutdown stops intake first, then drains the consumer.
func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var firstErr error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	a.l.Info("shutdown complete")
	return firstErr
}
