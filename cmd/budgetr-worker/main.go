package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"budgetr/internal/amqp"
	"budgetr/internal/cli"
	"budgetr/internal/config"
	applog "budgetr/internal/log"
	"budgetr/internal/services"
	"budgetr/internal/store"
	"budgetr/internal/store/google"
	"budgetr/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, applog.ComponentWorker, os.Stdout)
	logger.Info("Starting budgetr-worker")

	if err := run(logger, cfg); err != nil {
		logger.Error("Worker exited with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(logger *applog.Logger, cfg *config.Config) error {
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the worker")
	}

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

	var exporter store.ExpenditureExporter
	if cfg.GoogleSpreadsheetID != "" {
		x, err := google.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			return fmt.Errorf("initialize Google Sheets exporter: %w", err)
		}
		exporter = x
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer consumer.Close()

	processor := services.NewChangeProcessor(res.Records, res.Settings, exporter, services.ChangeProcessorConfig{
		MaxRetries: cfg.ChangeMaxRetries,
	})
	w := worker.NewChangeWorker(consumer, processor, res.Records, exporter)

	if exporter != nil {
		logger.Info("Performing startup export check...")
		if err := w.StartupExportCheck(ctx); err != nil {
			logger.Error("Startup export check failed", applog.FieldError, err)
		}
	}

	return w.Run(ctx)
}
