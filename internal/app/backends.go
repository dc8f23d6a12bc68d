package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/stockboard/internal/backup"
	"github.com/odyssey-erp/stockboard/internal/health"
	"github.com/odyssey-erp/stockboard/internal/platform/db"
	"github.com/odyssey-erp/stockboard/internal/sheets"
)

// NewSheetStore returns the spreadsheet API client when a spreadsheet is
// configured and an in-memory store otherwise.
func NewSheetStore(cfg *Config, observer sheets.Observer, logger *slog.Logger) (sheets.ValueStore, error) {
	if !cfg.SheetsConfigured() {
		logger.Warn("spreadsheet not configured, using in-memory store")
		return sheets.NewMemoryStore(), nil
	}
	tokens, err := sheets.NewServiceAccount(cfg.SheetsServiceAccountEmail, cfg.SheetsPrivateKey, cfg.SheetsTokenURL)
	if err != nil {
		return nil, err
	}
	return sheets.NewClient(sheets.ClientConfig{
		BaseURL:       cfg.SheetsAPIURL,
		SpreadsheetID: cfg.SheetsSpreadsheetID,
		Timeout:       cfg.SheetsTimeout,
		Tokens:        tokens,
		Observer:      observer,
	})
}

// OpenBackup connects to the mirror database and applies pending migrations.
// It returns a nil pool when PG_DSN is unset.
func OpenBackup(ctx context.Context, cfg *Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	if !cfg.BackupEnabled() {
		return nil, nil
	}
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, err
	}
	applied, err := db.Migrate(ctx, pool, backup.Migrations())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate backup schema: %w", err)
	}
	if applied > 0 {
		logger.Info("backup schema migrated", slog.Int("applied", applied))
	}
	return pool, nil
}

// Environment describes which spreadsheet credentials are present.
func (c *Config) Environment() health.Environment {
	return health.Environment{
		AppEnv:            c.AppEnv,
		HasSpreadsheetID:  strings.TrimSpace(c.SheetsSpreadsheetID) != "",
		HasServiceAccount: strings.TrimSpace(c.SheetsServiceAccountEmail) != "",
		HasPrivateKey:     strings.TrimSpace(c.SheetsPrivateKey) != "",
	}
}
