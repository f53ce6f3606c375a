package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"fiscus/internal/amqp"
	"fiscus/internal/cli"
	"fiscus/internal/log"
	"fiscus/internal/sheets"
	gsheet "fiscus/internal/sheets/google"
	"fiscus/internal/sheets/memory"
	"fiscus/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		return 1
	}
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		return 1
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	var journal sheets.JournalWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			return 1
		}
		journal = client
		logger.Info("Mirroring to Google Sheets", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		journal = memory.New()
		logger.Info("No GOOGLE_SPREADSHEET_ID provided, mirroring to memory")
	}

	consumer := amqp.New(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	defer consumer.Close()

	mirror := worker.NewMirrorWorker(journal)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Consume(gctx, mirror.HandleEvent)
	})
	g.Go(func() error {
		mirror.ReportStats(gctx, cfg.MirrorStatsLogInterval)
		return nil
	})

	logger.Info("Starting fiscus-mirror", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Mirror worker failed", log.FieldError, err)
		return 1
	}

	s := mirror.Stats()
	logger.Info("Mirror worker stopped", "processed", s.Processed, "failed", s.Failed)
	return 0
}
