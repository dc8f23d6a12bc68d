package inventory

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/stockboard/internal/platform/httpx"
)

// Handler wires HTTP endpoints for products, transactions and cashflow.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Patch("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)
	r.Get("/transactions", h.listTransactions)
	r.Post("/transactions", h.createTransaction)
	r.Get("/cashflow", h.listCashflow)
}

type mutationResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	ID      string       `json:"id,omitempty"`
	Steps   []StepResult `json:"steps"`
}

type mutationError struct {
	Error string       `json:"error"`
	Steps []StepResult `json:"steps,omitempty"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Products(r.Context()))
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Transactions(r.Context()))
}

func (h *Handler) listCashflow(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Cashflow(r.Context()))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var input ProductInput
	if !h.decode(w, r, &input) {
		return
	}
	result, err := h.service.AddProduct(r.Context(), input)
	if err != nil {
		h.fail(w, err, "Failed to add product", result)
		return
	}
	httpx.JSON(w, http.StatusOK, mutationResponse{
		Success: true, Message: "Product added successfully", ID: result.ID, Steps: result.Steps,
	})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch ProductPatch
	if !h.decode(w, r, &patch) {
		return
	}
	result, err := h.service.UpdateProduct(r.Context(), id, patch)
	if err != nil {
		h.fail(w, err, "Failed to update product", result)
		return
	}
	httpx.JSON(w, http.StatusOK, mutationResponse{
		Success: true, Message: "Product updated successfully", Steps: result.Steps,
	})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err, "Failed to delete product", result)
		return
	}
	httpx.JSON(w, http.StatusOK, mutationResponse{
		Success: true, Message: "Product deleted successfully", Steps: result.Steps,
	})
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var input TransactionInput
	if !h.decode(w, r, &input) {
		return
	}
	result, err := h.service.AddTransaction(r.Context(), input)
	if err != nil {
		h.fail(w, err, "Failed to add transaction", result)
		return
	}
	httpx.JSON(w, http.StatusOK, mutationResponse{Success: true, ID: result.ID, Steps: result.Steps})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := httpx.DecodeJSON(r, dest); err != nil {
		httpx.RespondError(w, err, "")
		return false
	}
	if err := h.validator.Struct(dest); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			err = errors.New(strings.Join(msgs, "; "))
		}
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err), "")
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, err error, fallback string, result Result) {
	if errors.Is(err, ErrProductNotFound) {
		httpx.JSON(w, http.StatusNotFound, mutationError{Error: "Product not found", Steps: result.Steps})
		return
	}
	h.logger.Error(fallback, slog.Any("error", err))
	httpx.JSON(w, http.StatusInternalServerError, mutationError{Error: fallback, Steps: result.Steps})
}
