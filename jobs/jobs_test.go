package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockboard/internal/analytics"
	"github.com/odyssey-erp/stockboard/internal/backup"
	"github.com/odyssey-erp/stockboard/internal/inventory"
	jobmetrics "github.com/odyssey-erp/stockboard/internal/jobs"
	"github.com/odyssey-erp/stockboard/internal/notify"
)

type fakeQueue struct {
	tasks []*asynq.Task
	seen  map[string]bool
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.seen == nil {
		q.seen = map[string]bool{}
	}
	for _, opt := range opts {
		if opt.Type() == asynq.TaskIDOpt {
			id := opt.Value().(string)
			if q.seen[id] {
				return nil, asynq.ErrTaskIDConflict
			}
			q.seen[id] = true
		}
	}
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

type lowStockList []inventory.Product

func (l lowStockList) ScanLowStock(context.Context) ([]inventory.Product, error) { return l, nil }

type unreachableSheet struct{}

func (unreachableSheet) ScanLowStock(context.Context) ([]inventory.Product, error) {
	return nil, errors.New("sheets down")
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) EmailLowStock(ctx context.Context, p inventory.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockNotifier) SMSLowStock(ctx context.Context, p inventory.Product) error {
	return m.Called(ctx, p).Error(0)
}

type backupFunc func(context.Context) (backup.Counts, error)

func (f backupFunc) Run(ctx context.Context) (backup.Counts, error) { return f(ctx) }

type warmer struct{ calls int }

func (w *warmer) DashboardStats(context.Context) (analytics.DashboardStats, error) {
	w.calls++
	return analytics.DashboardStats{}, nil
}

func (w *warmer) ProfitLoss(context.Context) (analytics.ProfitLoss, error) {
	w.calls++
	return analytics.ProfitLoss{}, nil
}

func newHandlers() *Handlers {
	return &Handlers{
		Metrics: jobmetrics.NewMetrics(prometheus.NewRegistry()),
		clock:   func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) },
	}
}

func TestNewTriggerTask(t *testing.T) {
	task, err := NewTriggerTask(TaskBackupSync, time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, TaskBackupSync, task.Type())
	require.JSONEq(t, `{"scheduled_for":"2025-06-01T02:00:00Z"}`, string(task.Payload()))

	_, err = NewTriggerTask(TaskNotifyEmail, time.Now())
	require.Error(t, err)
	_, err = NewAlertTask(TaskBackupSync, inventory.Product{})
	require.Error(t, err)
}

func TestLowStockScanEnqueuesOncePerDay(t *testing.T) {
	h := newHandlers()
	queue := &fakeQueue{}
	h.Queue = queue
	h.LowStock = lowStockList{{ID: "p1", Name: "Widget"}, {ID: "p2", Name: "Gadget"}}

	require.NoError(t, h.HandleLowStockScan(context.Background(), asynq.NewTask(TaskLowStockScan, nil)))
	require.Len(t, queue.tasks, 4)
	require.Equal(t, TaskNotifyEmail, queue.tasks[0].Type())
	require.Equal(t, TaskNotifySMS, queue.tasks[1].Type())

	var payload AlertPayload
	require.NoError(t, json.Unmarshal(queue.tasks[0].Payload(), &payload))
	require.Equal(t, "Widget", payload.Product.Name)

	// a second scan on the same day is deduplicated
	require.NoError(t, h.HandleLowStockScan(context.Background(), asynq.NewTask(TaskLowStockScan, nil)))
	require.Len(t, queue.tasks, 4)
}

func TestLowStockScanKeepsGaugeWhenSheetUnreachable(t *testing.T) {
	registry := prometheus.NewRegistry()
	h := newHandlers()
	h.Metrics = jobmetrics.NewMetrics(registry)
	queue := &fakeQueue{}
	h.Queue = queue
	h.LowStock = lowStockList{{ID: "p1", Name: "Widget"}, {ID: "p2", Name: "Gadget"}}
	require.NoError(t, h.HandleLowStockScan(context.Background(), asynq.NewTask(TaskLowStockScan, nil)))

	h.LowStock = unreachableSheet{}
	err := h.HandleLowStockScan(context.Background(), asynq.NewTask(TaskLowStockScan, nil))
	require.ErrorContains(t, err, "sheets down")
	require.Len(t, queue.tasks, 4)

	expected := `
# HELP stockboard_low_stock_products Active products at or below minimum stock at the last scan.
# TYPE stockboard_low_stock_products gauge
stockboard_low_stock_products 2
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "stockboard_low_stock_products"))
}

func TestNotifyHandlers(t *testing.T) {
	h := newHandlers()
	n := &mockNotifier{}
	h.Notifier = n
	widget := inventory.Product{ID: "p1", SKU: "W-1"}

	n.On("EmailLowStock", mock.Anything, widget).Return(nil).Once()
	n.On("SMSLowStock", mock.Anything, widget).Return(notify.ErrChannelDisabled).Once()

	emailTask, err := NewAlertTask(TaskNotifyEmail, widget)
	require.NoError(t, err)
	smsTask, err := NewAlertTask(TaskNotifySMS, widget)
	require.NoError(t, err)

	require.NoError(t, h.HandleNotifyEmail(context.Background(), emailTask))
	require.NoError(t, h.HandleNotifySMS(context.Background(), smsTask))
	n.AssertExpectations(t)

	n.On("EmailLowStock", mock.Anything, widget).Return(errors.New("relay down")).Once()
	require.ErrorContains(t, h.HandleNotifyEmail(context.Background(), emailTask), "relay down")

	err = h.HandleNotifyEmail(context.Background(), asynq.NewTask(TaskNotifyEmail, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestBackupAndWarmupHandlers(t *testing.T) {
	h := newHandlers()
	h.Backup = backupFunc(func(context.Context) (backup.Counts, error) {
		return backup.Counts{Products: 3}, nil
	})
	w := &warmer{}
	h.Stats = w

	require.NoError(t, h.HandleBackupSync(context.Background(), nil))
	require.NoError(t, h.HandleStatsWarmup(context.Background(), nil))
	require.Equal(t, 2, w.calls)

	h.Backup = backupFunc(func(context.Context) (backup.Counts, error) {
		return backup.Counts{}, errors.New("export failed")
	})
	require.ErrorContains(t, h.HandleBackupSync(context.Background(), nil), "export failed")
}

func TestTaskHandlersOnlyConfigured(t *testing.T) {
	h := newHandlers()
	require.Empty(t, h.TaskHandlers())

	h.Stats = &warmer{}
	h.LowStock = lowStockList{}
	handlers := h.TaskHandlers()
	require.Len(t, handlers, 1)
	require.Equal(t, TaskStatsWarmup, handlers[0].Type)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

func TestJobsHealth(t *testing.T) {
	for name, tc := range map[string]struct {
		inspector QueueInspector
		code      int
		body      string
	}{
		"no inspector": {nil, http.StatusOK, `{"queue":"default","pending":0,"active":0,"scheduled":0,"retry":0,"failed":0}`},
		"queue info":   {stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 2, Retry: 1}}, http.StatusOK, `{"queue":"default","pending":2,"active":0,"scheduled":0,"retry":1,"failed":0}`},
		"redis down":   {stubInspector{err: errors.New("dial")}, http.StatusServiceUnavailable, `{"error":"Job queue unavailable"}`},
	} {
		t.Run(name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHandler(tc.inspector, nil).MountRoutes(r)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, tc.code, rec.Code)
			require.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}

func TestNewWorkerRejectsBadCron(t *testing.T) {
	mr := miniredis.RunT(t)
	task, err := NewTriggerTask(TaskStatsWarmup, time.Time{})
	require.NoError(t, err)

	_, err = NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: mr.Addr()},
		Cron:      []CronRegistration{{Spec: "every tuesday", Task: task}},
	})
	require.Error(t, err)

	w, err := NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: mr.Addr()},
		Handlers:  newHandlers().TaskHandlers(),
		Cron:      []CronRegistration{{Spec: "*/15 * * * *", Task: task}},
	})
	require.NoError(t, err)
	require.NotNil(t, w.scheduler)
}
