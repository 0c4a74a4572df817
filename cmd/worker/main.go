package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/denimstock/denimstock/internal/app"
	"github.com/denimstock/denimstock/internal/backup"
	"github.com/denimstock/denimstock/internal/inventory"
	jobmetrics "github.com/denimstock/denimstock/internal/jobs"
	"github.com/denimstock/denimstock/internal/observability"
	"github.com/denimstock/denimstock/internal/platform/cache"
	"github.com/denimstock/denimstock/internal/platform/db"
	"github.com/denimstock/denimstock/internal/reports"
	"github.com/denimstock/denimstock/internal/shared"
	"github.com/denimstock/denimstock/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	telegram, err := app.NewNotifier(cfg, logger)
	if err != nil {
		logger.Warn("telegram disabled", slog.Any("error", err))
	}
	var backupNotifier backup.Notifier
	var stockNotifier jobs.LowStockNotifier
	if telegram != nil {
		backupNotifier = telegram
		stockNotifier = telegram
	}

	store, err := app.NewBackupStore(ctx, cfg)
	if err != nil {
		return err
	}
	backupService := backup.NewService(backup.NewPostgresDatabase(pool), store, backupNotifier, logger)
	inventoryService := inventory.NewService(inventory.NewRepository(pool), cfg.LowStockThreshold)
	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	backupJob := jobs.NewBackupSnapshotJob(backupService, logger, jobMetrics)
	lowStockJob := &jobs.LowStockScanJob{Stock: inventoryService, Notifier: stockNotifier, Gauge: metrics, Logger: logger, Metrics: jobMetrics}
	bumpJob := &jobs.ReportCacheBumpJob{Cache: reportCache, Logger: logger, Metrics: jobMetrics}
	cleanupJob := &jobs.IdempotencyCleanupJob{Keys: idempotencyStore, Logger: logger, Metrics: jobMetrics}

	now := time.Now().UTC()
	backupTask, err := jobs.NewBackupSnapshotTask(now)
	if err != nil {
		return err
	}
	lowStockTask, err := jobs.NewLowStockScanTask(now)
	if err != nil {
		return err
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(now, cfg.IdempotencyTTL)
	if err != nil {
		return err
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cfg.RedisOpts(),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskBackupSnapshot, Handler: backupJob.Handle},
			{Type: jobs.TaskLowStockScan, Handler: lowStockJob.Handle},
			{Type: jobs.TaskReportCacheBump, Handler: bumpJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.BackupSchedule, Task: backupTask, Options: []asynq.Option{asynq.MaxRetry(2)}},
			{Spec: cfg.LowStockSchedule, Task: lowStockTask},
			{Spec: cfg.CleanupSchedule, Task: cleanupTask},
		},
	})
	if err != nil {
		return err
	}

	metricsServer := &http.Server{
		Addr:              cfg.WorkerMetricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("worker metrics listening", slog.String("addr", cfg.WorkerMetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker starting", slog.Int("concurrency", cfg.WorkerConcurrency))
	return worker.Run(ctx)
}
