package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "CryptoChat/internal/middleware"
	"CryptoChat/internal/service/ratelimit"
	"CryptoChat/pkg/config"
	xhttp "CryptoChat/pkg/http"
	pkgkafka "CryptoChat/pkg/kafka"
	applogger "CryptoChat/pkg/logger"
)

const limiterIdle = 10 * time.Minute

// App owns the long running parts of the service. Infrastructure clients
// are closed by the cleanup returned from dependency injection.
type App struct {
	cfg      *config.Config
	log      *applogger.Logger
	http     *xhttp.Server
	pipeline *mid.EventPipeline
	consumer *pkgkafka.Consumer
	limiter  *ratelimit.Limiter
}

// New creates a new App. pipeline and consumer are optional.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	http *xhttp.Server,
	pipeline *mid.EventPipeline,
	consumer *pkgkafka.Consumer,
	limiter *ratelimit.Limiter,
) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{
		cfg:      cfg,
		log:      log,
		http:     http,
		pipeline: pipeline,
		consumer: consumer,
		limiter:  limiter,
	}
}

// Run starts everything and blocks until ctx is done or the process is
// interrupted, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.pipeline != nil {
		// the final flush on Stop must outlive the signal
		a.pipeline.Start(context.WithoutCancel(ctx))
		a.log.Info("event pipeline started", applogger.String("backend", a.cfg.Events.Backend))
	}

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			a.shutdown()
			return err
		}
	}

	if err := a.http.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		a.shutdown()
		return err
	}

	if a.limiter != nil {
		go a.pruneLimiter(ctx)
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops intake first, then drains what is queued.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.http.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}

	if a.pipeline != nil {
		if err := a.pipeline.Stop(ctx); err != nil {
			a.log.Warn("event pipeline stop error", applogger.Int("pending", a.pipeline.Len()), applogger.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	a.log.Info("shutdown complete")
	return firstErr
}

func (a *App) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiter.Prune(limiterIdle); n > 0 {
				a.log.Debug("rate limiter pruned", applogger.Int("buckets", n))
			}
		}
	}
}
