// Package analytics derives dashboard statistics and reports from the raw
// spreadsheet collections.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/stockboard/internal/inventory"
)

// Source exposes the raw collections the rules run over.
type Source interface {
	ListProducts(ctx context.Context) ([]inventory.Product, error)
	ListTransactions(ctx context.Context) ([]inventory.Transaction, error)
	ListCashflow(ctx context.Context) ([]inventory.CashflowEntry, error)
}

// LocationFunc resolves the location used for calendar month matching.
type LocationFunc func(ctx context.Context) *time.Location

// Snapshot holds the collections loaded for one computation. Degraded is set
// when any requested collection failed to load and was replaced by an empty one.
type Snapshot struct {
	Products     []inventory.Product
	Transactions []inventory.Transaction
	Cashflow     []inventory.CashflowEntry
	Degraded     bool
}

// errDegraded marks a loader result computed over a degraded snapshot. Such a
// result is served but never written to the cache.
var errDegraded = errors.New("analytics: computed over degraded collections")

type collection uint8

const (
	withProducts collection = 1 << iota
	withTransactions
	withCashflow
)

// Service coordinates collection loading, the aggregation rules and the cache.
type Service struct {
	source   Source
	cache    *Cache
	logger   *slog.Logger
	now      func() time.Time
	location LocationFunc
	group    singleflight.Group
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the service clock.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithLocation sets the location resolver. Defaults to the server's local zone.
func WithLocation(fn LocationFunc) Option {
	return func(s *Service) {
		if fn != nil {
			s.location = fn
		}
	}
}

// NewService wires a Source with a Cache helper. cache may be nil.
func NewService(source Source, cache *Cache, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		source:   source,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
		location: func(context.Context) *time.Location { return time.Local },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache exposes the cache so writers can bump it.
func (s *Service) Cache() *Cache {
	return s.cache
}

// DashboardStats returns the dashboard cards for the current month.
func (s *Service) DashboardStats(ctx context.Context) (DashboardStats, error) {
	loc := s.location(ctx)
	now := s.now()
	loader := func(ctx context.Context) (any, error) {
		snap := s.load(ctx, withProducts|withCashflow)
		return ComputeDashboardStats(snap.Products, snap.Cashflow, now, loc), snap.err()
	}
	var stats DashboardStats
	err := s.cached(ctx, keyDashboard(periodOf(now, loc)), &stats, loader)
	return stats, err
}

// ProfitLoss returns the current month's P&L.
func (s *Service) ProfitLoss(ctx context.Context) (ProfitLoss, error) {
	loc := s.location(ctx)
	now := s.now()
	loader := func(ctx context.Context) (any, error) {
		snap := s.load(ctx, withTransactions|withCashflow)
		return ComputeProfitLoss(snap.Transactions, snap.Cashflow, now, loc), snap.err()
	}
	var pl ProfitLoss
	err := s.cached(ctx, keyProfitLoss(periodOf(now, loc)), &pl, loader)
	return pl, err
}

// LowStock returns active products at or below their minimum stock.
func (s *Service) LowStock(ctx context.Context) []inventory.Product {
	return LowStock(s.load(ctx, withProducts).Products)
}

// ScanLowStock is LowStock without degradation: a failed product read is
// returned to the caller instead of reading as an empty catalogue.
func (s *Service) ScanLowStock(ctx context.Context) ([]inventory.Product, error) {
	products, err := s.source.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("analytics: list products: %w", err)
	}
	return LowStock(products), nil
}

// Inventory returns value, low stock and the category breakdown.
func (s *Service) Inventory(ctx context.Context) InventoryReport {
	return BuildInventoryReport(s.load(ctx, withProducts).Products)
}

// MonthlyCashflow returns the income/expense series per month.
func (s *Service) MonthlyCashflow(ctx context.Context) []MonthlyPoint {
	return MonthlyCashflow(s.load(ctx, withCashflow).Cashflow, s.location(ctx))
}

// cached goes through the versioned cache, computing directly when Redis is
// unavailable. Results computed over a degraded snapshot skip the cache.
func (s *Service) cached(ctx context.Context, base string, dest any, loader func(context.Context) (any, error)) error {
	var partial any
	guarded := func(ctx context.Context) (any, error) {
		v, err := loader(ctx)
		if errors.Is(err, errDegraded) {
			partial = v
		}
		return v, err
	}
	if s.cache != nil {
		key, err := s.cache.BuildKey(ctx, base)
		if err == nil {
			err = s.cache.FetchJSON(ctx, key, dest, guarded)
			if err == nil {
				return nil
			}
			if errors.Is(err, errDegraded) {
				return fill(dest, partial)
			}
		}
		s.logger.Warn("analytics cache unavailable, computing directly", slog.String("key", base), slog.Any("error", err))
	}
	var direct *Cache
	err := direct.FetchJSON(ctx, base, dest, guarded)
	if errors.Is(err, errDegraded) {
		return fill(dest, partial)
	}
	return err
}

func fill(dest, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// load fetches the requested collections concurrently. Concurrent callers
// share in-flight reads. A failed collection degrades to empty.
func (s *Service) load(ctx context.Context, what collection) Snapshot {
	var snap Snapshot
	var degraded atomic.Bool
	g, gctx := errgroup.WithContext(ctx)
	if what&withProducts != 0 {
		g.Go(func() error {
			v, err, _ := s.group.Do("products", func() (any, error) {
				return s.source.ListProducts(gctx)
			})
			snap.Products = degrade[inventory.Product](s.logger, "products", v, err)
			if err != nil {
				degraded.Store(true)
			}
			return nil
		})
	}
	if what&withTransactions != 0 {
		g.Go(func() error {
			v, err, _ := s.group.Do("transactions", func() (any, error) {
				return s.source.ListTransactions(gctx)
			})
			snap.Transactions = degrade[inventory.Transaction](s.logger, "transactions", v, err)
			if err != nil {
				degraded.Store(true)
			}
			return nil
		})
	}
	if what&withCashflow != 0 {
		g.Go(func() error {
			v, err, _ := s.group.Do("cashflow", func() (any, error) {
				return s.source.ListCashflow(gctx)
			})
			snap.Cashflow = degrade[inventory.CashflowEntry](s.logger, "cashflow", v, err)
			if err != nil {
				degraded.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()
	snap.Degraded = degraded.Load()
	return snap
}

func (s Snapshot) err() error {
	if s.Degraded {
		return errDegraded
	}
	return nil
}

func degrade[T any](logger *slog.Logger, name string, v any, err error) []T {
	if err != nil {
		logger.Warn("analytics load failed, treating as empty", slog.String("collection", name), slog.Any("error", err))
		return []T{}
	}
	items, ok := v.([]T)
	if !ok || items == nil {
		return []T{}
	}
	return items
}
