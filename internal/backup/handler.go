package backup

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockboard/internal/platform/httpx"
)

var errDisabled = fmt.Errorf("%w: backup database not configured", httpx.ErrUnavailable)

// Handler serves /sync/backup. A nil service answers 503.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers backup routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sync/backup", h.handleStatus)
	r.Post("/sync/backup", h.handleRun)
}

type runResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Counts  Counts `json:"counts"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		httpx.RespondError(w, errDisabled, "")
		return
	}
	status, err := h.service.Status(r.Context())
	if err != nil {
		h.logger.Error("backup status", slog.Any("error", err))
		httpx.RespondError(w, err, "Failed to read backup status")
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		httpx.RespondError(w, errDisabled, "")
		return
	}
	counts, err := h.service.Run(r.Context())
	if err != nil {
		h.logger.Error("backup run", slog.Any("error", err))
		httpx.RespondError(w, err, "Backup failed")
		return
	}
	httpx.JSON(w, http.StatusOK, runResponse{Success: true, Message: "Backup completed successfully", Counts: counts})
}
