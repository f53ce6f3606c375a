package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fiscus/internal/amqp"
	"fiscus/internal/analysis"
	"fiscus/internal/cache"
	"fiscus/internal/cli"
	"fiscus/internal/config"
	apphttp "fiscus/internal/http"
	"fiscus/internal/log"
	"fiscus/internal/services"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code. Deferred cleanups have all run by the
// time it returns.
func run() int {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		return 1
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", log.FieldError, err)
		return 1
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return 1
	}

	reports, cacheManager := newReportCache(ctx, logger, cfg)
	if cacheManager != nil {
		defer cacheManager.Stop()
	}

	publisher, closePublisher := newPublisher(logger, cfg)
	defer closePublisher()

	svc := services.NewLedgerService(repo, publisher, reports, loc)
	defer svc.Close()

	if cfg.SeedDemoData {
		seeded, err := svc.SeedIfEmpty(ctx)
		if err != nil {
			logger.Error("Failed to seed demo data", log.FieldError, err)
			return 1
		}
		if seeded {
			logger.Info("Demo data seeded")
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fiscus server",
			"port", cfg.Port,
			"db_path", cfg.SQLiteDBPath,
			"timezone", loc.String(),
			"mirror", cfg.AMQPURL != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		return 1
	}
	logger.Info("Server stopped gracefully")
	return 0
}

// newReportCache prefers Redis when REDIS_URL is set and reachable, falling
// back to an in-process LRU.
func newReportCache(ctx context.Context, logger *log.Logger, cfg *config.Config) (cache.Cache[analysis.MonthlyReport], *cache.Manager) {
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err == nil {
			logger.WithComponent(log.ComponentCache).Info("Using Redis report cache")
			return cache.NewRedisCache[analysis.MonthlyReport](client, "fiscus:reports", cfg.ReportCacheTTL), nil
		}
		logger.WithComponent(log.ComponentCache).Warn("Redis unavailable, using in-process report cache", log.FieldError, err)
	}

	lru := cache.NewLRUCache[analysis.MonthlyReport](120, cfg.ReportCacheTTL)
	manager := cache.NewManager()
	manager.Register(lru)
	manager.StartCleanup(cfg.ReportCacheTTL)
	return lru, manager
}

// newPublisher returns the AMQP publisher when AMQP_URL is set. A broker
// that is down at start-up only costs the mirror; the ledger still starts.
func newPublisher(logger *log.Logger, cfg *config.Config) (services.EventPublisher, func()) {
	if cfg.AMQPURL == "" {
		logger.WithComponent(log.ComponentAMQP).Info("Mirror disabled, no AMQP_URL provided")
		return services.NopPublisher{}, func() {}
	}

	client := amqp.New(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err := client.Connect(); err != nil {
		logger.WithComponent(log.ComponentAMQP).Warn("AMQP broker unreachable, will retry on publish", log.FieldError, err)
	}
	return client, func() {
		if err := client.Close(); err != nil {
			logger.WithComponent(log.ComponentAMQP).Warn("Failed to close AMQP client", log.FieldError, err)
		}
	}
}
