package audithttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockboard/internal/audit"
	"github.com/odyssey-erp/stockboard/internal/inventory"
)

type stubTimelineService struct {
	result      audit.Result
	exportRows  []inventory.AuditLog
	lastFilters audit.TimelineFilters
}

func (s *stubTimelineService) Timeline(_ context.Context, filters audit.TimelineFilters) (audit.Result, error) {
	s.lastFilters = filters
	return s.result, nil
}

func (s *stubTimelineService) Export(_ context.Context, filters audit.TimelineFilters) ([]inventory.AuditLog, error) {
	s.lastFilters = filters
	return s.exportRows, nil
}

func newRouter(svc TimelineService) http.Handler {
	r := chi.NewRouter()
	NewHandler(nil, svc).MountRoutes(r)
	return r
}

func TestTimelineParsesFilters(t *testing.T) {
	svc := &stubTimelineService{result: audit.Result{Rows: []inventory.AuditLog{{ID: "a1"}}, Paging: audit.PagingInfo{Page: 2}}}
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/audit?from=2025-06-01&to=2025-06-30&actor=system&entity=product&page=2&page_size=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"id":"a1"`)
	require.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), svc.lastFilters.From)
	require.Equal(t, "system", svc.lastFilters.Actor)
	require.Equal(t, "product", svc.lastFilters.Entity)
	require.Equal(t, 2, svc.lastFilters.Page)
	require.Equal(t, 10, svc.lastFilters.PageSize)
}

func TestTimelineRejectsBadFilters(t *testing.T) {
	for _, target := range []string{
		"/audit?from=yesterday",
		"/audit?from=2025-06-30&to=2025-06-01",
		"/audit?from=2025-01-01&to=2025-12-31",
		"/audit?page=0",
	} {
		rec := httptest.NewRecorder()
		newRouter(&stubTimelineService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestExportCSV(t *testing.T) {
	svc := &stubTimelineService{exportRows: []inventory.AuditLog{{
		Timestamp: "2025-06-01T08:00:00.000Z", UserID: "system", Action: inventory.ActionCreate,
		EntityType: inventory.EntityProduct, EntityID: "p1",
	}}}
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/export.csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.True(t, strings.HasPrefix(rec.Body.String(), "timestamp,userId,action"))
	require.Contains(t, rec.Body.String(), "CREATE,product,p1")
}
