package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/stockboard/internal/analytics"
	"github.com/odyssey-erp/stockboard/internal/backup"
	"github.com/odyssey-erp/stockboard/internal/inventory"
	jobmetrics "github.com/odyssey-erp/stockboard/internal/jobs"
	"github.com/odyssey-erp/stockboard/internal/notify"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// BackupRunner runs one backup.
type BackupRunner interface {
	Run(ctx context.Context) (backup.Counts, error)
}

// LowStockSource lists low-stock products. A failed spreadsheet read is an
// error, not an empty list.
type LowStockSource interface {
	ScanLowStock(ctx context.Context) ([]inventory.Product, error)
}

// StatsWarmer recomputes cached analytics.
type StatsWarmer interface {
	DashboardStats(ctx context.Context) (analytics.DashboardStats, error)
	ProfitLoss(ctx context.Context) (analytics.ProfitLoss, error)
}

// AlertNotifier delivers alerts per channel.
type AlertNotifier interface {
	EmailLowStock(ctx context.Context, p inventory.Product) error
	SMSLowStock(ctx context.Context, p inventory.Product) error
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Handlers bundles the task handlers run by the worker.
type Handlers struct {
	Backup   BackupRunner
	LowStock LowStockSource
	Stats    StatsWarmer
	Notifier AlertNotifier
	Queue    Enqueuer
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// TaskHandlers lists the handlers whose dependencies are configured.
func (h *Handlers) TaskHandlers() []TaskHandler {
	var out []TaskHandler
	if h.Backup != nil {
		out = append(out, TaskHandler{Type: TaskBackupSync, Handler: h.HandleBackupSync})
	}
	if h.LowStock != nil && h.Queue != nil {
		out = append(out, TaskHandler{Type: TaskLowStockScan, Handler: h.HandleLowStockScan})
	}
	if h.Notifier != nil {
		out = append(out,
			TaskHandler{Type: TaskNotifyEmail, Handler: h.HandleNotifyEmail},
			TaskHandler{Type: TaskNotifySMS, Handler: h.HandleNotifySMS},
		)
	}
	if h.Stats != nil {
		out = append(out, TaskHandler{Type: TaskStatsWarmup, Handler: h.HandleStatsWarmup})
	}
	return out
}

// HandleBackupSync mirrors the spreadsheet into Postgres.
func (h *Handlers) HandleBackupSync(ctx context.Context, _ *asynq.Task) (err error) {
	tracker := h.metrics().Track(TaskBackupSync)
	defer func() { err = tracker.End(err) }()

	counts, err := h.Backup.Run(ctx)
	if err != nil {
		h.logger(TaskBackupSync).Error("backup failed", slog.Any("error", err))
		return err
	}
	h.logger(TaskBackupSync).Info("backup completed", slog.Int("products", counts.Products))
	return nil
}

// HandleLowStockScan enqueues one email and one SMS task per low-stock product.
// Task ids dedupe alerts to once per product and day.
func (h *Handlers) HandleLowStockScan(ctx context.Context, _ *asynq.Task) (err error) {
	tracker := h.metrics().Track(TaskLowStockScan)
	defer func() { err = tracker.End(err) }()

	logger := h.logger(TaskLowStockScan)
	products, err := h.LowStock.ScanLowStock(ctx)
	if err != nil {
		// The gauge keeps its last reading while the sheet is unreachable.
		logger.Warn("low stock scan skipped", slog.Any("error", err))
		return err
	}
	h.metrics().SetLowStock(len(products))
	now := h.now()
	enqueued := 0
	for _, p := range products {
		for _, taskType := range []string{TaskNotifyEmail, TaskNotifySMS} {
			task, err := NewAlertTask(taskType, p)
			if err != nil {
				return err
			}
			_, err = h.Queue.EnqueueContext(ctx, task, asynq.TaskID(alertTaskID(taskType, p.ID, now)), asynq.Retention(24*time.Hour))
			if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
				continue
			}
			if err != nil {
				return fmt.Errorf("enqueue %s for %s: %w", taskType, p.ID, err)
			}
			enqueued++
		}
	}
	logger.Info("low stock scan completed", slog.Int("products", len(products)), slog.Int("enqueued", enqueued))
	return nil
}

// HandleNotifyEmail delivers the email alert.
func (h *Handlers) HandleNotifyEmail(ctx context.Context, t *asynq.Task) error {
	return h.deliver(ctx, t, TaskNotifyEmail, h.Notifier.EmailLowStock)
}

// HandleNotifySMS delivers the SMS alert.
func (h *Handlers) HandleNotifySMS(ctx context.Context, t *asynq.Task) error {
	return h.deliver(ctx, t, TaskNotifySMS, h.Notifier.SMSLowStock)
}

func (h *Handlers) deliver(ctx context.Context, t *asynq.Task, job string, send func(context.Context, inventory.Product) error) (err error) {
	var payload AlertPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	tracker := h.metrics().Track(job)
	defer func() { err = tracker.End(err) }()

	err = send(ctx, payload.Product)
	if errors.Is(err, notify.ErrChannelDisabled) || errors.Is(err, notify.ErrChannelUnconfigured) {
		h.logger(job).Debug("alert channel skipped", slog.String("sku", payload.Product.SKU), slog.Any("reason", err))
		return nil
	}
	return err
}

// HandleStatsWarmup refreshes the dashboard and P&L cache entries.
func (h *Handlers) HandleStatsWarmup(ctx context.Context, _ *asynq.Task) (err error) {
	tracker := h.metrics().Track(TaskStatsWarmup)
	defer func() { err = tracker.End(err) }()

	warmCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	if _, err := h.Stats.DashboardStats(warmCtx); err != nil {
		return err
	}
	if _, err := h.Stats.ProfitLoss(warmCtx); err != nil {
		return err
	}
	h.logger(TaskStatsWarmup).Info("analytics cache warmed")
	return nil
}

func (h *Handlers) logger(job string) *slog.Logger {
	if h.Logger != nil {
		return h.Logger.With(slog.String("job", job))
	}
	return slog.Default().With(slog.String("job", job))
}

func (h *Handlers) metrics() *jobmetrics.Metrics {
	if h.Metrics != nil {
		return h.Metrics
	}
	return defaultJobMetrics
}

func (h *Handlers) now() time.Time {
	if h.clock != nil {
		return h.clock()
	}
	return time.Now().UTC()
}
