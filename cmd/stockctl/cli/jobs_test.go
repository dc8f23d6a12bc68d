package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockboard/jobs"
)

type recordingClient struct {
	tasks []*asynq.Task
}

func (r *recordingClient) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: "t-1", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

func (r *recordingClient) Close() error { return nil }

type stubInspector struct {
	info      *asynq.QueueInfo
	scheduled []*asynq.TaskInfo
	err       error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

func (s stubInspector) ListScheduledTasks(string, ...asynq.ListOption) ([]*asynq.TaskInfo, error) {
	return s.scheduled, s.err
}

func (s stubInspector) Close() error { return nil }

func TestTriggerCommand(t *testing.T) {
	client := &recordingClient{}
	c := NewJobsCLIWith(client, stubInspector{})
	c.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	code := c.TriggerCommand(context.Background(), jobs.TaskBackupSync, CommandOptions{Stdout: stdout, Stderr: stderr})
	require.Equal(t, 0, code)
	require.Contains(t, stdout.String(), "enqueued backup:sync (t-1) on default")
	require.Len(t, client.tasks, 1)
	require.JSONEq(t, `{"scheduled_for":"2025-06-01T00:00:00Z"}`, string(client.tasks[0].Payload()))

	code = c.TriggerCommand(context.Background(), "notify:email", CommandOptions{Stdout: stdout, Stderr: stderr})
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "unsupported job notify:email")
}

func TestStatsCommand(t *testing.T) {
	c := NewJobsCLIWith(&recordingClient{}, stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3, Failed: 1}})

	stdout := new(bytes.Buffer)
	code := c.StatsCommand(context.Background(), CommandOptions{JSONOutput: true, Stdout: stdout})
	require.Equal(t, 0, code)
	require.JSONEq(t, `{"queue":"default","pending":3,"active":0,"scheduled":0,"retry":0,"failed":1}`, stdout.String())

	stdout.Reset()
	code = c.StatsCommand(context.Background(), CommandOptions{Stdout: stdout})
	require.Equal(t, 10, code)
	require.Contains(t, stdout.String(), "PENDING")

	stderr := new(bytes.Buffer)
	broken := NewJobsCLIWith(&recordingClient{}, stubInspector{err: errors.New("dial tcp")})
	require.Equal(t, 1, broken.StatsCommand(context.Background(), CommandOptions{Stdout: stdout, Stderr: stderr}))
	require.Contains(t, stderr.String(), "dial tcp")
}

func TestScheduledCommand(t *testing.T) {
	next := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
	c := NewJobsCLIWith(&recordingClient{}, stubInspector{scheduled: []*asynq.TaskInfo{
		{ID: "s-1", Type: jobs.TaskLowStockScan, NextProcessAt: next},
	}})

	stdout := new(bytes.Buffer)
	require.Equal(t, 0, c.ScheduledCommand(context.Background(), CommandOptions{Stdout: stdout}))
	require.Contains(t, stdout.String(), "alerts:low_stock_scan")
	require.Contains(t, stdout.String(), "2025-06-01T02:00:00Z")

	empty := NewJobsCLIWith(&recordingClient{}, stubInspector{})
	stdout.Reset()
	require.Equal(t, 0, empty.ScheduledCommand(context.Background(), CommandOptions{Stdout: stdout}))
	require.Equal(t, "no scheduled tasks\n", stdout.String())
}
