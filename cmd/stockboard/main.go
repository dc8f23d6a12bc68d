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
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/stockboard/internal/analytics"
	analytichttp "github.com/odyssey-erp/stockboard/internal/analytics/http"
	"github.com/odyssey-erp/stockboard/internal/app"
	"github.com/odyssey-erp/stockboard/internal/audit"
	audithttp "github.com/odyssey-erp/stockboard/internal/audit/http"
	"github.com/odyssey-erp/stockboard/internal/backup"
	"github.com/odyssey-erp/stockboard/internal/health"
	"github.com/odyssey-erp/stockboard/internal/inventory"
	"github.com/odyssey-erp/stockboard/internal/observability"
	"github.com/odyssey-erp/stockboard/internal/platform/cache"
	"github.com/odyssey-erp/stockboard/internal/settings"
	"github.com/odyssey-erp/stockboard/internal/sheets"
	"github.com/odyssey-erp/stockboard/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	store, err := app.NewSheetStore(cfg, metrics, logger)
	if err != nil {
		logger.Error("init spreadsheet", slog.Any("error", err))
		os.Exit(1)
	}
	gateway := sheets.NewGateway(store)

	settingsService := settings.NewService(settingsStore(redisClient), logger)

	analyticsCache := analytics.NewCache(redisClient, cfg.CacheTTL)
	analyticsService := analytics.NewService(gateway, analyticsCache, logger,
		analytics.WithLocation(settingsService.Location))
	go func() {
		if err := analyticsCache.ListenForInvalidation(ctx, analytics.BumpChannel, nil); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("analytics invalidation listener", slog.Any("error", err))
		}
	}()

	var mirrors []audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		if err != nil {
			logger.Warn("kafka audit sink disabled", slog.Any("error", err))
		} else {
			defer sink.Close()
			mirrors = append(mirrors, sink)
		}
	}
	recorder := audit.NewRecorder(gateway, logger, mirrors...)
	inventoryService := inventory.NewService(gateway, recorder, analyticsCache, logger)

	healthService := health.NewService(gateway, analyticsService, cfg.Environment(), logger)
	healthService.WithCacheBumper(analyticsCache)

	var backupService *backup.Service
	pool, err := app.OpenBackup(ctx, cfg, logger)
	if err != nil {
		logger.Error("open backup database", slog.Any("error", err))
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
		backupService = backup.NewService(backup.NewPGRepository(pool), healthService, gateway, logger)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		InventoryHandler: inventory.NewHandler(logger, inventoryService),
		AnalyticsHandler: analytichttp.NewHandler(logger, analyticsService),
		HealthHandler:    health.NewHandler(logger, healthService, cfg.DiagnosticsAllowWrites),
		AuditHandler:     audithttp.NewHandler(logger, audit.NewService(gateway)),
		SettingsHandler:  settings.NewHandler(logger, settingsService),
		BackupHandler:    backup.NewHandler(logger, backupService),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.Bool("sheets", cfg.SheetsConfigured()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func settingsStore(client *redis.Client) settings.Store {
	if client == nil {
		return settings.NewMemoryStore()
	}
	return settings.NewRedisStore(client)
}
