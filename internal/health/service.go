// Package health probes the spreadsheet backend, exports full data bundles and
// runs the read/write system checks.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/stockboard/internal/analytics"
	"github.com/odyssey-erp/stockboard/internal/inventory"
	"github.com/odyssey-erp/stockboard/internal/sheets"
)

// PrimaryName labels the spreadsheet backend in health payloads.
const PrimaryName = "Google Sheets"

// Backend states.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Check outcomes.
const (
	CheckSuccess = "success"
	CheckWarning = "warning"
	CheckError   = "error"
)

// Gateway is the subset of the spreadsheet gateway used here.
type Gateway interface {
	ListProducts(ctx context.Context) ([]inventory.Product, error)
	ListTransactions(ctx context.Context) ([]inventory.Transaction, error)
	ListCashflow(ctx context.Context) ([]inventory.CashflowEntry, error)
	CreateProduct(ctx context.Context, p inventory.Product) (inventory.Product, error)
	CreateTransaction(ctx context.Context, t inventory.Transaction) (inventory.Transaction, error)
}

// StatsSource computes dashboard statistics.
type StatsSource interface {
	DashboardStats(ctx context.Context) (analytics.DashboardStats, error)
}

// CacheBumper invalidates derived analytics after a write.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Environment reports which credentials are configured.
type Environment struct {
	AppEnv            string `json:"appEnv"`
	HasSpreadsheetID  bool   `json:"hasGoogleSheetsId"`
	HasServiceAccount bool   `json:"hasServiceAccount"`
	HasPrivateKey     bool   `json:"hasPrivateKey"`
}

// Backend is the probe result.
type Backend struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Bundle is a full export of the three business collections.
type Bundle struct {
	Products     []inventory.Product       `json:"products"`
	Transactions []inventory.Transaction   `json:"transactions"`
	Cashflow     []inventory.CashflowEntry `json:"cashflow"`
	ExportDate   string                    `json:"exportDate"`
}

// CheckResult is the outcome of one diagnostic step.
type CheckResult struct {
	Status       string         `json:"status"`
	ResponseTime int64          `json:"responseTime"`
	Count        *int           `json:"count,omitempty"`
	Error        string         `json:"error,omitempty"`
	Data         any            `json:"data,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// DatabaseCheck is the backend part of the system report.
type DatabaseCheck struct {
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	ResponseTime int64  `json:"responseTime"`
}

// SystemReport is the read-only diagnostic report.
type SystemReport struct {
	Timestamp   string                 `json:"timestamp"`
	Environment Environment            `json:"environment"`
	Database    DatabaseCheck          `json:"database"`
	APIs        map[string]CheckResult `json:"apis"`
}

// WriteReport is the read/write diagnostic report.
type WriteReport struct {
	Timestamp string                 `json:"timestamp"`
	Tests     map[string]CheckResult `json:"tests"`
}

// Service implements the health and diagnostics operations.
type Service struct {
	gateway Gateway
	stats   StatsSource
	env     Environment
	logger  *slog.Logger
	now     func() time.Time
	cache   CacheBumper
}

// NewService builds Service. stats may be nil.
func NewService(gateway Gateway, stats StatsSource, env Environment, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gateway: gateway, stats: stats, env: env, logger: logger, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// WithCacheBumper makes WriteCheck invalidate the analytics cache after its
// test rows are written.
func (s *Service) WithCacheBumper(b CacheBumper) {
	s.cache = b
}

func (s *Service) timestamp() string {
	return sheets.FormatTimestamp(s.now())
}

// Probe lists products and reports the backend online when that succeeds.
func (s *Service) Probe(ctx context.Context) Backend {
	if _, err := s.gateway.ListProducts(ctx); err != nil {
		s.logger.Warn("spreadsheet probe failed", slog.Any("error", err))
		return Backend{Name: PrimaryName, Status: StatusOffline, Error: err.Error()}
	}
	return Backend{Name: PrimaryName, Status: StatusOnline}
}

// Export fetches the three collections concurrently. Any failed read fails
// the export.
func (s *Service) Export(ctx context.Context) (Bundle, error) {
	var bundle Bundle
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := s.gateway.ListProducts(gctx)
		if err != nil {
			return fmt.Errorf("export products: %w", err)
		}
		bundle.Products = products
		return nil
	})
	g.Go(func() error {
		txs, err := s.gateway.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("export transactions: %w", err)
		}
		bundle.Transactions = txs
		return nil
	})
	g.Go(func() error {
		entries, err := s.gateway.ListCashflow(gctx)
		if err != nil {
			return fmt.Errorf("export cashflow: %w", err)
		}
		bundle.Cashflow = entries
		return nil
	})
	if err := g.Wait(); err != nil {
		return Bundle{}, fmt.Errorf("health: %w", err)
	}
	bundle.ExportDate = s.timestamp()
	return bundle, nil
}

// SystemCheck reports environment flags, probe latency, per-collection read
// timing and a dashboard stats snapshot.
func (s *Service) SystemCheck(ctx context.Context) SystemReport {
	report := SystemReport{
		Timestamp:   s.timestamp(),
		Environment: s.env,
		APIs:        make(map[string]CheckResult, 4),
	}

	start := s.now()
	backend := s.Probe(ctx)
	report.Database = DatabaseCheck{Status: backend.Status, Error: backend.Error, ResponseTime: s.since(start)}

	report.APIs["products"] = s.timed(func() (int, error) {
		items, err := s.gateway.ListProducts(ctx)
		return len(items), err
	})
	report.APIs["transactions"] = s.timed(func() (int, error) {
		items, err := s.gateway.ListTransactions(ctx)
		return len(items), err
	})
	report.APIs["cashflow"] = s.timed(func() (int, error) {
		items, err := s.gateway.ListCashflow(ctx)
		return len(items), err
	})

	if s.stats != nil {
		start = s.now()
		stats, err := s.stats.DashboardStats(ctx)
		result := CheckResult{Status: CheckSuccess, ResponseTime: s.since(start), Data: stats}
		if err != nil {
			result = CheckResult{Status: CheckError, ResponseTime: result.ResponseTime, Error: err.Error()}
		}
		report.APIs["dashboardStats"] = result
	}
	return report
}

// WriteCheck writes a test product and a test sale, then verifies the data
// reads back intact. It mutates the spreadsheet.
func (s *Service) WriteCheck(ctx context.Context) WriteReport {
	report := WriteReport{Timestamp: s.timestamp(), Tests: make(map[string]CheckResult, 5)}

	report.Tests["createProduct"] = s.timed(func() (int, error) {
		_, err := s.gateway.CreateProduct(ctx, inventory.Product{
			Name: "System Test Product", SKU: "SYS-TEST-001", Category: "Test",
			CurrentStock: 100, MinStock: 10, MaxStock: 500,
			UnitCost: 15, SellingPrice: 25,
			Supplier: "System Test Supplier", Status: inventory.StatusActive,
		})
		return -1, err
	})
	report.Tests["readProducts"] = s.timed(func() (int, error) {
		items, err := s.gateway.ListProducts(ctx)
		return len(items), err
	})
	report.Tests["createTransaction"] = s.timed(func() (int, error) {
		_, err := s.gateway.CreateTransaction(ctx, inventory.Transaction{
			ProductID: "sys-test-product", ProductName: "System Test Product",
			Type: inventory.TransactionSale, Quantity: 5, UnitPrice: 25, TotalAmount: 125,
			Date: s.timestamp(), UserID: "system-test",
		})
		return -1, err
	})
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("analytics cache bump failed", slog.Any("error", err))
		}
	}
	report.Tests["readTransactions"] = s.timed(func() (int, error) {
		items, err := s.gateway.ListTransactions(ctx)
		return len(items), err
	})

	start := s.now()
	bundle, err := s.Export(ctx)
	if err != nil {
		report.Tests["dataIntegrity"] = CheckResult{Status: CheckError, ResponseTime: s.since(start), Error: err.Error()}
		return report
	}
	valid := true
	for _, p := range bundle.Products {
		if p.Name == "" || p.SKU == "" {
			valid = false
			break
		}
	}
	status := CheckWarning
	if len(bundle.Products) > 0 && valid {
		status = CheckSuccess
	}
	report.Tests["dataIntegrity"] = CheckResult{
		Status:       status,
		ResponseTime: s.since(start),
		Details: map[string]any{
			"productsCount":     len(bundle.Products),
			"transactionsCount": len(bundle.Transactions),
			"cashflowCount":     len(bundle.Cashflow),
			"hasValidProducts":  valid,
		},
	}
	return report
}

// timed runs fn and records its outcome. A negative count is omitted.
func (s *Service) timed(fn func() (int, error)) CheckResult {
	start := s.now()
	n, err := fn()
	result := CheckResult{Status: CheckSuccess, ResponseTime: s.since(start)}
	if err != nil {
		result.Status = CheckError
		result.Error = err.Error()
		return result
	}
	if n >= 0 {
		result.Count = &n
	}
	return result
}

func (s *Service) since(start time.Time) int64 {
	return s.now().Sub(start).Milliseconds()
}
