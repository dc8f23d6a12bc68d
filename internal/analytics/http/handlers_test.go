package analytichttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockboard/internal/analytics"
	"github.com/odyssey-erp/stockboard/internal/inventory"
)

type stubService struct {
	stats    analytics.DashboardStats
	statsErr error
	pl       analytics.ProfitLoss
	low      []inventory.Product
	report   analytics.InventoryReport
	monthly  []analytics.MonthlyPoint
}

func (s *stubService) DashboardStats(context.Context) (analytics.DashboardStats, error) {
	return s.stats, s.statsErr
}

func (s *stubService) ProfitLoss(context.Context) (analytics.ProfitLoss, error) {
	return s.pl, nil
}

func (s *stubService) LowStock(context.Context) []inventory.Product {
	return s.low
}

func (s *stubService) Inventory(context.Context) analytics.InventoryReport {
	return s.report
}

func (s *stubService) MonthlyCashflow(context.Context) []analytics.MonthlyPoint {
	return s.monthly
}

func newRouter(svc AnalyticsService) http.Handler {
	r := chi.NewRouter()
	NewHandler(nil, svc).MountRoutes(r)
	return r
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestDashboardStatsEndpoint(t *testing.T) {
	router := newRouter(&stubService{stats: analytics.DashboardStats{TotalProducts: 3, LowStockItems: 1, TotalValue: 14}})

	rec := get(router, "/dashboard/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.EqualValues(t, 3, body["totalProducts"])
	require.EqualValues(t, 14, body["totalValue"])
	for _, key := range []string{"lowStockItems", "monthlyRevenue", "monthlyExpenses", "netProfit"} {
		require.Contains(t, body, key)
	}
}

func TestDashboardStatsFailure(t *testing.T) {
	router := newRouter(&stubService{statsErr: errors.New("boom")})
	rec := get(router, "/dashboard/stats")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Failed to fetch dashboard stats"}`, rec.Body.String())
}

func TestLowStockEndpoint(t *testing.T) {
	router := newRouter(&stubService{low: []inventory.Product{{ID: "p1", Name: "Widget"}}})
	rec := get(router, "/alerts/low-stock")
	require.Equal(t, http.StatusOK, rec.Code)
	var products []inventory.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 1)
}

func TestProfitLossCSV(t *testing.T) {
	router := newRouter(&stubService{pl: analytics.ProfitLoss{Period: "2025-06", Revenue: 35}})
	rec := get(router, "/reports/profit-loss?format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	require.Contains(t, rec.Header().Get("Content-Disposition"), "profit-loss-2025-06.csv")
	require.Contains(t, rec.Body.String(), "Revenue,35.00")
}

func TestCashflowChart(t *testing.T) {
	router := newRouter(&stubService{monthly: []analytics.MonthlyPoint{{Period: "2025-06", Income: 10, Expense: 4}}})
	rec := get(router, "/reports/cashflow/chart.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	require.True(t, strings.HasPrefix(rec.Body.String(), "<svg"))

	rec = get(newRouter(&stubService{}), "/reports/cashflow/chart.svg")
	require.Equal(t, http.StatusNoContent, rec.Code)
}
