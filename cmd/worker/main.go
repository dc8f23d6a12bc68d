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
	"github.com/joho/godotenv"

	"github.com/odyssey-erp/stockboard/internal/analytics"
	"github.com/odyssey-erp/stockboard/internal/app"
	"github.com/odyssey-erp/stockboard/internal/backup"
	"github.com/odyssey-erp/stockboard/internal/health"
	jobmetrics "github.com/odyssey-erp/stockboard/internal/jobs"
	"github.com/odyssey-erp/stockboard/internal/notify"
	"github.com/odyssey-erp/stockboard/internal/observability"
	"github.com/odyssey-erp/stockboard/internal/platform/cache"
	"github.com/odyssey-erp/stockboard/internal/settings"
	"github.com/odyssey-erp/stockboard/internal/sheets"
	"github.com/odyssey-erp/stockboard/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	store, err := app.NewSheetStore(cfg, metrics, logger)
	if err != nil {
		logger.Error("init spreadsheet", slog.Any("error", err))
		os.Exit(1)
	}
	gateway := sheets.NewGateway(store)
	settingsService := settings.NewService(settings.NewRedisStore(redisClient), logger)
	analyticsService := analytics.NewService(gateway, analytics.NewCache(redisClient, cfg.CacheTTL), logger,
		analytics.WithLocation(settingsService.Location))

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	queue := jobs.NewClient(redisOpts)
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	email, sms := alertSenders(cfg)
	handlers := &jobs.Handlers{
		LowStock: analyticsService,
		Stats:    analyticsService,
		Notifier: notify.NewNotifier(settingsService, email, sms, logger),
		Queue:    queue,
		Logger:   logger,
		Metrics:  jobmetrics.NewMetrics(metrics.Registerer()),
	}

	pool, err := app.OpenBackup(ctx, cfg, logger)
	if err != nil {
		logger.Error("open backup database", slog.Any("error", err))
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
		exporter := health.NewService(gateway, nil, cfg.Environment(), logger)
		handlers.Backup = backup.NewService(backup.NewPGRepository(pool), exporter, gateway, logger)
	}

	cron, err := schedule(handlers.Backup != nil)
	if err != nil {
		logger.Error("build cron tasks", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers:    handlers.TaskHandlers(),
		Cron:        cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting worker", slog.Int("cron_entries", len(cron)), slog.Bool("backup", handlers.Backup != nil))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

func alertSenders(cfg *app.Config) (notify.EmailSender, notify.SMSSender) {
	var (
		email notify.EmailSender
		sms   notify.SMSSender
	)
	if cfg.SMTPHost != "" {
		email = notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	}
	if cfg.SMSAPIURL != "" {
		sms = notify.NewHTTPSMSSender(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSSender)
	}
	return email, sms
}

type cronEntry struct {
	spec     string
	taskType string
}

func schedule(withBackup bool) ([]jobs.CronRegistration, error) {
	entries := []cronEntry{
		{spec: "5 * * * *", taskType: jobs.TaskLowStockScan},
		{spec: "*/15 * * * *", taskType: jobs.TaskStatsWarmup},
	}
	if withBackup {
		entries = append(entries, cronEntry{spec: "0 2 * * *", taskType: jobs.TaskBackupSync})
	}
	out := make([]jobs.CronRegistration, 0, len(entries))
	for _, e := range entries {
		task, err := jobs.NewTriggerTask(e.taskType, time.Time{})
		if err != nil {
			return nil, err
		}
		out = append(out, jobs.CronRegistration{Spec: e.spec, Task: task, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}
	return out, nil
}
