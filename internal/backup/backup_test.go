package backup

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockboard/internal/health"
	"github.com/odyssey-erp/stockboard/internal/inventory"
	"github.com/odyssey-erp/stockboard/internal/sheets"
)

type memoryRepo struct {
	snaps []Snapshot
	at    time.Time
	err   error
}

func (m *memoryRepo) Mirror(_ context.Context, snap Snapshot, at time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.snaps = append(m.snaps, snap)
	m.at = at
	return nil
}

func (m *memoryRepo) Status(context.Context) (Status, error) {
	if len(m.snaps) == 0 {
		return Status{}, nil
	}
	last := m.snaps[len(m.snaps)-1]
	at := m.at
	return Status{LastSync: &at, RecordCounts: Counts{
		Products: len(last.Products), Transactions: len(last.Transactions),
		Cashflow: len(last.Cashflow), AuditLogs: len(last.AuditLogs),
	}}, nil
}

func fixture(t *testing.T) (*sheets.MemoryStore, *sheets.Gateway, *memoryRepo, *Service) {
	t.Helper()
	store := sheets.NewMemoryStore()
	gw := sheets.NewGateway(store)
	repo := &memoryRepo{}
	svc := NewService(repo, health.NewService(gw, nil, health.Environment{}, nil), gw, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC) }
	return store, gw, repo, svc
}

func TestRunMirrorsEverything(t *testing.T) {
	_, gw, repo, svc := fixture(t)
	ctx := context.Background()
	_, err := gw.CreateProduct(ctx, inventory.Product{Name: "Widget", SKU: "W-1"})
	require.NoError(t, err)
	_, err = gw.CreateCashflow(ctx, inventory.CashflowEntry{Type: inventory.CashflowIncome, Amount: 10})
	require.NoError(t, err)
	_, err = gw.AppendAuditLog(ctx, inventory.AuditLog{Action: inventory.ActionCreate, EntityType: inventory.EntityProduct})
	require.NoError(t, err)

	counts, err := svc.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, Counts{Products: 1, Cashflow: 1, AuditLogs: 1}, counts)
	require.Len(t, repo.snaps, 1)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC), *status.LastSync)
}

func TestRunAbortsOnExportFailure(t *testing.T) {
	store, _, repo, svc := fixture(t)
	store.SetError(errors.New("offline"))
	_, err := svc.Run(context.Background())
	require.ErrorContains(t, err, "offline")
	require.Empty(t, repo.snaps)
}

func TestBuildBatch(t *testing.T) {
	batch := buildBatch(Snapshot{
		Products:     []inventory.Product{{ID: "p1"}, {ID: "p2"}},
		Transactions: []inventory.Transaction{{ID: "t1"}},
		AuditLogs:    []inventory.AuditLog{{ID: "a1"}},
	}, time.Now())
	// one statement per row plus the sync stamp
	require.Equal(t, 5, batch.Len())
}

func TestMigrationsEmbedded(t *testing.T) {
	raw, err := fs.ReadFile(Migrations(), "00001_init.sql")
	require.NoError(t, err)
	for _, table := range []string{"products", "transactions", "cashflow", "audit_logs", "sync_status"} {
		require.Contains(t, string(raw), "CREATE TABLE IF NOT EXISTS "+table)
	}
}

func TestHandler(t *testing.T) {
	_, _, _, svc := fixture(t)
	r := chi.NewRouter()
	NewHandler(nil, svc).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync/backup", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Backup completed successfully")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sync/backup", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"lastSync":"2025-06-01T02:00:00Z"`)
}

func TestHandlerDisabled(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, nil).MountRoutes(r)
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, "/sync/backup", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.True(t, strings.Contains(rec.Body.String(), "not configured"))
	}
}
