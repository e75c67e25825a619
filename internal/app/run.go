package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/zerowrap"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bnema/dockyard/internal/adapters/in/http/health"
	"github.com/bnema/dockyard/internal/adapters/in/http/middleware"
	"github.com/bnema/dockyard/internal/adapters/in/http/webhook"
	"github.com/bnema/dockyard/internal/adapters/out/ratelimit"
	"github.com/bnema/dockyard/internal/adapters/out/telemetry"
	"github.com/bnema/dockyard/internal/boundaries/out"
	"github.com/bnema/dockyard/internal/domain"
	"github.com/bnema/dockyard/internal/usecase/cron"
	"github.com/bnema/dockyard/pkg/bytesize"
)

// Version is reported to telemetry and set by the CLI at startup.
var Version = "dev"

// syncJobID identifies the scheduled catalogue sync.
const syncJobID = "catalog-sync"

// Run starts the webhook server and, when enabled, the scheduled catalogue
// sync. It blocks until ctx is cancelled or SIGINT/SIGTERM arrives.
func Run(ctx context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	k, err := NewKernel(ctx, configPath)
	if err != nil {
		return err
	}
	defer func() { _ = k.Close() }()

	return k.Serve(ctx)
}

// Serve runs the server until ctx is done.
func (k *Kernel) Serve(ctx context.Context) error {
	log := k.log
	ctx = zerowrap.WithCtx(ctx, log)

	shutdownTelemetry, err := telemetry.Setup(ctx, k.cfg.Telemetry, "dockyard", Version)
	if err != nil {
		return log.WrapErr(err, "failed to set up telemetry")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown error")
		}
	}()

	handler, limiter, err := k.httpHandler()
	if err != nil {
		return err
	}
	if limiter != nil {
		go limiter.Run(ctx, time.Minute)
	}

	scheduler, err := k.startScheduler(ctx)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer scheduler.Stop()
	}

	lis, err := net.Listen("tcp", k.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", k.cfg.Server.Addr, err)
	}

	return k.serveHTTP(ctx, lis, handler)
}

// httpHandler builds the routed, instrumented handler.
func (k *Kernel) httpHandler() (http.Handler, *ratelimit.HostLimiter, error) {
	proxies, err := middleware.ParseTrustedProxies(k.cfg.Server.TrustedProxies)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: server.trusted_proxies: %v", domain.ErrInvalidConfig, err)
	}

	var limiter *ratelimit.HostLimiter
	if k.cfg.Webhook.RateLimit.Enabled {
		limiter = ratelimit.NewHostLimiter(ratelimit.Config{
			RPS:     k.cfg.Webhook.RateLimit.RPS,
			Burst:   k.cfg.Webhook.RateLimit.Burst,
			IdleTTL: k.cfg.Webhook.RateLimit.IdleTTL,
		}, k.log)
	}

	wh := webhook.NewHandler(k.ingestSvc, rateLimiter(limiter), webhook.Config{
		Path:           k.cfg.Webhook.Path,
		Token:          k.cfg.Webhook.Token,
		MaxBodySize:    k.cfg.webhookBodyLimit,
		TrustedProxies: proxies,
	}, k.log)
	wh.SetMetrics(k.metrics)

	mux := http.NewServeMux()
	wh.RegisterRoutes(mux)
	health.NewHandler(k.store).RegisterRoutes(mux)

	chain := middleware.Chain(
		middleware.PanicRecovery(k.log),
		middleware.RequestLogger(k.log, proxies),
	)
	return otelhttp.NewHandler(chain(mux), "dockyard.http"), limiter, nil
}

// startScheduler registers the catalogue sync job when sync is enabled.
func (k *Kernel) startScheduler(ctx context.Context) (*cron.Scheduler, error) {
	if !k.cfg.Sync.Enabled {
		return nil, nil
	}

	preset, err := cron.ParsePreset(k.cfg.Sync.Schedule)
	if err != nil {
		return nil, err
	}

	scheduler := cron.NewScheduler(k.log)
	err = scheduler.Add(syncJobID, "catalogue sync", domain.CronSchedule{Preset: preset}, func(ctx context.Context) error {
		_, err := k.catalogSvc.SyncAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	scheduler.Start(ctx)

	entries := scheduler.List()
	k.log.Info().
		Str(zerowrap.FieldLayer, "app").
		Str(zerowrap.FieldComponent, "cron").
		Str("schedule", string(preset)).
		Time("next_run", entries[0].NextRun).
		Msg("catalogue sync scheduled")

	return scheduler, nil
}

func (k *Kernel) serveHTTP(ctx context.Context, lis net.Listener, handler http.Handler) error {
	log := k.log

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	log.Info().
		Str(zerowrap.FieldLayer, "app").
		Str(zerowrap.FieldComponent, "http").
		Str("addr", lis.Addr().String()).
		Str(zerowrap.FieldPath, k.cfg.Webhook.Path).
		Str("max_body", bytesize.Format(k.cfg.webhookBodyLimit)).
		Msg("webhook server listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return log.WrapErr(err, "webhook server error")
		}
		return nil
	case <-ctx.Done():
		log.Info().
			Str(zerowrap.FieldLayer, "app").
			Str(zerowrap.FieldComponent, "http").
			Msg("shutting down webhook server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("webhook server shutdown error")
	}
	return nil
}

// rateLimiter keeps a nil *HostLimiter from becoming a non-nil interface.
func rateLimiter(l *ratelimit.HostLimiter) out.RateLimiter {
	if l == nil {
		return nil
	}
	return l
}
