package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/stockboard/internal/inventory"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskBackupSync mirrors the spreadsheet into Postgres.
	TaskBackupSync = "backup:sync"
	// TaskLowStockScan fans out alerts for products at or below minimum stock.
	TaskLowStockScan = "alerts:low_stock_scan"
	// TaskNotifyEmail sends one low-stock email.
	TaskNotifyEmail = "notify:email"
	// TaskNotifySMS sends one low-stock text message.
	TaskNotifySMS = "notify:sms"
	// TaskStatsWarmup recomputes and caches dashboard statistics.
	TaskStatsWarmup = "analytics:stats_warmup"
)

// TriggerPayload carries scheduling metadata for cron-style jobs.
type TriggerPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// AlertPayload is the product snapshot an alert is rendered from.
type AlertPayload struct {
	Product inventory.Product `json:"product"`
}

// NewTriggerTask builds a payload-only task for backup, scan and warmup jobs.
func NewTriggerTask(taskType string, at time.Time) (*asynq.Task, error) {
	switch taskType {
	case TaskBackupSync, TaskLowStockScan, TaskStatsWarmup:
	default:
		return nil, fmt.Errorf("jobs: %s is not a trigger task", taskType)
	}
	body, err := json.Marshal(TriggerPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault)), nil
}

// NewAlertTask builds a notify:email or notify:sms task for p.
func NewAlertTask(taskType string, p inventory.Product) (*asynq.Task, error) {
	if taskType != TaskNotifyEmail && taskType != TaskNotifySMS {
		return nil, fmt.Errorf("jobs: %s is not an alert task", taskType)
	}
	body, err := json.Marshal(AlertPayload{Product: p})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// alertTaskID dedupes alerts to one per product, channel and day.
func alertTaskID(taskType, productID string, day time.Time) string {
	return fmt.Sprintf("%s:%s:%s", taskType, productID, day.UTC().Format("2006-01-02"))
}
