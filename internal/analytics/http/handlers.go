package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/odyssey-erp/stockboard/internal/analytics"
	"github.com/odyssey-erp/stockboard/internal/analytics/export"
	"github.com/odyssey-erp/stockboard/internal/analytics/svg"
	"github.com/odyssey-erp/stockboard/internal/inventory"
	"github.com/odyssey-erp/stockboard/internal/platform/httpx"
)

const requestTimeout = 10 * time.Second

// AnalyticsService defines the data contract used by the handler.
type AnalyticsService interface {
	DashboardStats(ctx context.Context) (analytics.DashboardStats, error)
	ProfitLoss(ctx context.Context) (analytics.ProfitLoss, error)
	LowStock(ctx context.Context) []inventory.Product
	Inventory(ctx context.Context) analytics.InventoryReport
	MonthlyCashflow(ctx context.Context) []analytics.MonthlyPoint
}

// Handler serves dashboard statistics and reports.
type Handler struct {
	logger  *slog.Logger
	service AnalyticsService
	csvPool sync.Pool
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service AnalyticsService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{logger: logger, service: service}
	h.csvPool.New = func() any { return new(bytes.Buffer) }
	return h
}

func (h *Handler) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	stats, err := h.service.DashboardStats(ctx)
	if err != nil {
		h.handleServerError(w, "fetch dashboard stats", err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	httpx.JSON(w, http.StatusOK, h.service.LowStock(ctx))
}

func (h *Handler) handleProfitLoss(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	pl, err := h.service.ProfitLoss(ctx)
	if err != nil {
		h.handleServerError(w, "compute profit and loss", err)
		return
	}
	if wantsCSV(r) {
		h.writeCSV(w, "profit-loss-"+pl.Period+".csv", func(buf io.Writer) error {
			return export.WriteProfitLossCSV(buf, pl)
		})
		return
	}
	httpx.JSON(w, http.StatusOK, pl)
}

func (h *Handler) handleInventory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	report := h.service.Inventory(ctx)
	if wantsCSV(r) {
		h.writeCSV(w, "inventory-categories.csv", func(buf io.Writer) error {
			return export.WriteCategoriesCSV(buf, report.Categories)
		})
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleMonthlyCashflow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	points := h.service.MonthlyCashflow(ctx)
	if wantsCSV(r) {
		h.writeCSV(w, "cashflow-monthly.csv", func(buf io.Writer) error {
			return export.WriteMonthlyCashflowCSV(buf, points)
		})
		return
	}
	httpx.JSON(w, http.StatusOK, points)
}

func (h *Handler) handleCashflowChart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	points := h.service.MonthlyCashflow(ctx)
	groups := make([]svg.Group, 0, len(points))
	for _, p := range points {
		groups = append(groups, svg.Group{Label: p.Period, A: p.Income, B: p.Expense})
	}
	chart, err := svg.Bars(svg.DefaultWidth, svg.DefaultHeight, groups, svg.BarOpts{
		Title:        "Monthly cashflow",
		SeriesALabel: "Income",
		SeriesBLabel: "Expense",
	})
	if errors.Is(err, svg.ErrNoData) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.handleServerError(w, "render chart", err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.WriteString(w, chart)
}

func (h *Handler) writeCSV(w http.ResponseWriter, filename string, write func(io.Writer) error) {
	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer h.csvPool.Put(buf)
	if err := write(buf); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleServerError(w http.ResponseWriter, action string, err error) {
	h.logger.Error("analytics request failed", slog.String("action", action), slog.Any("error", err))
	httpx.RespondError(w, err, "Failed to "+action)
}

func wantsCSV(r *http.Request) bool {
	return r.URL.Query().Get("format") == "csv"
}
