// Package backup mirrors spreadsheet data into Postgres.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/odyssey-erp/stockboard/internal/health"
	"github.com/odyssey-erp/stockboard/internal/inventory"
)

// Snapshot is everything written by one mirror run.
type Snapshot struct {
	Products     []inventory.Product
	Transactions []inventory.Transaction
	Cashflow     []inventory.CashflowEntry
	AuditLogs    []inventory.AuditLog
}

// Counts holds per-table row counts.
type Counts struct {
	Products     int `json:"products"`
	Transactions int `json:"transactions"`
	Cashflow     int `json:"cashflow"`
	AuditLogs    int `json:"auditLogs"`
}

// Status is the current state of the mirror.
type Status struct {
	LastSync     *time.Time `json:"lastSync"`
	RecordCounts Counts     `json:"recordCounts"`
}

// Repository persists snapshots.
type Repository interface {
	Mirror(ctx context.Context, snap Snapshot, at time.Time) error
	Status(ctx context.Context) (Status, error)
}

// Exporter produces the full data bundle.
type Exporter interface {
	Export(ctx context.Context) (health.Bundle, error)
}

// AuditReader lists audit logs.
type AuditReader interface {
	ListAuditLogs(ctx context.Context) ([]inventory.AuditLog, error)
}

// Service runs backups.
type Service struct {
	repo     Repository
	exporter Exporter
	audits   AuditReader
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service. audits may be nil.
func NewService(repo Repository, exporter Exporter, audits AuditReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, exporter: exporter, audits: audits, logger: logger, now: time.Now}
}

// Run exports the spreadsheet and mirrors it. A failed export aborts the
// run so the mirror is never overwritten with an empty set.
func (s *Service) Run(ctx context.Context) (Counts, error) {
	bundle, err := s.exporter.Export(ctx)
	if err != nil {
		return Counts{}, fmt.Errorf("backup: export: %w", err)
	}
	snap := Snapshot{Products: bundle.Products, Transactions: bundle.Transactions, Cashflow: bundle.Cashflow}
	if s.audits != nil {
		logs, err := s.audits.ListAuditLogs(ctx)
		if err != nil {
			s.logger.Warn("backup skipped audit logs", slog.Any("error", err))
		} else {
			snap.AuditLogs = logs
		}
	}
	if err := s.repo.Mirror(ctx, snap, s.now()); err != nil {
		return Counts{}, err
	}
	counts := Counts{
		Products:     len(snap.Products),
		Transactions: len(snap.Transactions),
		Cashflow:     len(snap.Cashflow),
		AuditLogs:    len(snap.AuditLogs),
	}
	s.logger.Info("backup mirrored",
		slog.Int("products", counts.Products),
		slog.Int("transactions", counts.Transactions),
		slog.Int("cashflow", counts.Cashflow),
		slog.Int("audit_logs", counts.AuditLogs))
	return counts, nil
}

// Status reports the mirror state.
func (s *Service) Status(ctx context.Context) (Status, error) {
	return s.repo.Status(ctx)
}
