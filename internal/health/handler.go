package health

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockboard/internal/analytics/export"
	"github.com/odyssey-erp/stockboard/internal/platform/httpx"
)

const requestTimeout = 10 * time.Second

// Handler exposes sync and system-check endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	allowWrites bool
}

// NewHandler constructs the health handler. allowWrites gates POST /system-check.
func NewHandler(logger *slog.Logger, service *Service, allowWrites bool) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, allowWrites: allowWrites}
}

// MountRoutes registers health routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sync", h.handleHealth)
	r.Post("/sync", h.handleExport)
	r.Get("/sync/export.csv", h.handleExportCSV)
	r.Get("/system-check", h.handleSystemCheck)
	r.Post("/system-check", h.handleWriteCheck)
}

type healthResponse struct {
	Primary   Backend `json:"primary"`
	Message   string  `json:"message"`
	Timestamp string  `json:"timestamp"`
}

type exportData struct {
	Products     int    `json:"products"`
	Transactions int    `json:"transactions"`
	Cashflow     int    `json:"cashflow"`
	ExportDate   string `json:"exportDate"`
	FullData     Bundle `json:"fullData"`
}

type exportResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    *exportData `json:"data,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	backend := h.service.Probe(ctx)
	message := PrimaryName + " connection is healthy"
	if backend.Status != StatusOnline {
		message = PrimaryName + " connection failed"
	}
	httpx.JSON(w, http.StatusOK, healthResponse{Primary: backend, Message: message, Timestamp: h.service.timestamp()})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	bundle, err := h.service.Export(ctx)
	if err != nil {
		h.logger.Error("export failed", slog.Any("error", err))
		httpx.JSON(w, http.StatusInternalServerError, exportResponse{Success: false, Error: "Export failed"})
		return
	}
	httpx.JSON(w, http.StatusOK, exportResponse{
		Success: true,
		Message: "Data exported successfully",
		Data: &exportData{
			Products:     len(bundle.Products),
			Transactions: len(bundle.Transactions),
			Cashflow:     len(bundle.Cashflow),
			ExportDate:   bundle.ExportDate,
			FullData:     bundle,
		},
	})
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	collection := r.URL.Query().Get("collection")
	if collection == "" {
		collection = "products"
	}
	bundle, err := h.service.Export(ctx)
	if err != nil {
		h.logger.Error("csv export failed", slog.Any("error", err))
		httpx.RespondError(w, err, "Export failed")
		return
	}
	var buf bytes.Buffer
	switch collection {
	case "products":
		err = export.WriteProductsCSV(&buf, bundle.Products)
	case "transactions":
		err = export.WriteTransactionsCSV(&buf, bundle.Transactions)
	case "cashflow":
		err = export.WriteCashflowCSV(&buf, bundle.Cashflow)
	default:
		httpx.RespondError(w, fmt.Errorf("%w: unknown collection %q", httpx.ErrValidation, collection), "")
		return
	}
	if err != nil {
		httpx.RespondError(w, err, "Export failed")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, collection))
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleSystemCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	httpx.JSON(w, http.StatusOK, h.service.SystemCheck(ctx))
}

func (h *Handler) handleWriteCheck(w http.ResponseWriter, r *http.Request) {
	if !h.allowWrites {
		httpx.RespondError(w, fmt.Errorf("%w: write checks are disabled", httpx.ErrForbidden), "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	h.logger.Warn("running write system check")
	httpx.JSON(w, http.StatusOK, h.service.WriteCheck(ctx))
}
