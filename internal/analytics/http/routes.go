package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/stockboard/internal/platform/httpx"
)

// MountRoutes registers dashboard and report endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(30, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Error(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
		}),
	)

	r.Get("/dashboard/stats", h.handleDashboardStats)
	r.Get("/alerts/low-stock", h.handleLowStock)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/reports/profit-loss", h.handleProfitLoss)
		gr.Get("/reports/inventory", h.handleInventory)
		gr.Get("/reports/cashflow/monthly", h.handleMonthlyCashflow)
		gr.Get("/reports/cashflow/chart.svg", h.handleCashflowChart)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
