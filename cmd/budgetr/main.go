package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"budgetr/internal/amqp"
	"budgetr/internal/budget"
	"budgetr/internal/cache"
	"budgetr/internal/cli"
	"budgetr/internal/config"
	apphttp "budgetr/internal/http"
	applog "budgetr/internal/log"
	"budgetr/internal/middleware/ratelimit"
	"budgetr/internal/services"

	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 30 * time.Second
	dashboardCacheMax = 64
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, applog.ComponentApp, os.Stdout)

	if err := run(logger, cfg); err != nil {
		logger.Error("Server exited with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(logger *applog.Logger, cfg *config.Config) error {
	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to close stores", applog.FieldError, err)
		}
	}()

	dashboards := cache.NewLRUCache[budget.Summary](dashboardCacheMax, cfg.CacheTTL)
	opts := []services.Option{services.WithDashboardCache(dashboards)}

	if cfg.AMQPURL != "" {
		publisher, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, change events disabled", applog.FieldError, err)
		} else {
			defer publisher.Close()
			opts = append(opts, services.WithPublisher(publisher))
			logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange)
		}
	}

	svc := services.NewBudgetService(res.Records, res.Settings, opts...)
	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger: logger.WithComponent(applog.ComponentHTTP),
		RateLimit: ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			Burst:             cfg.RateLimitBurst,
		},
		Ready: res.Ping,
	})

	g, gctx := errgroup.WithContext(ctx)

	manager := cache.NewManager(dashboards)
	g.Go(func() error {
		manager.Run(gctx, cfg.CacheCleanupInterval)
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting budgetr server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"settings_backend", cfg.SettingsBackend,
			"remote", res.Remote)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := cli.ShutdownContext(shutdownTimeout)
		defer cancel()

		m := srv.RequestMetrics()
		cs := dashboards.Stats()
		logger.Info("Shutting down server",
			"total_requests", m.TotalRequests,
			"failed_requests", m.FailedRequests,
			"dashboard_cache_hits", cs.Hits,
			"dashboard_cache_misses", cs.Misses)
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
