package backup

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/stockboard/internal/platform/db"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations exposes the embedded goose migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

const (
	upsertProduct = `INSERT INTO products (id, name, sku, category, current_stock, min_stock, max_stock,
	unit_cost, selling_price, supplier, last_updated, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, sku = EXCLUDED.sku, category = EXCLUDED.category,
	current_stock = EXCLUDED.current_stock, min_stock = EXCLUDED.min_stock, max_stock = EXCLUDED.max_stock,
	unit_cost = EXCLUDED.unit_cost, selling_price = EXCLUDED.selling_price, supplier = EXCLUDED.supplier,
	last_updated = EXCLUDED.last_updated, status = EXCLUDED.status`

	upsertTransaction = `INSERT INTO transactions (id, product_id, product_name, type, quantity, unit_price,
	total_amount, date, notes, user_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET product_id = EXCLUDED.product_id, product_name = EXCLUDED.product_name,
	type = EXCLUDED.type, quantity = EXCLUDED.quantity, unit_price = EXCLUDED.unit_price,
	total_amount = EXCLUDED.total_amount, date = EXCLUDED.date, notes = EXCLUDED.notes, user_id = EXCLUDED.user_id`

	upsertCashflow = `INSERT INTO cashflow (id, date, type, amount, description, category, transaction_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET date = EXCLUDED.date, type = EXCLUDED.type, amount = EXCLUDED.amount,
	description = EXCLUDED.description, category = EXCLUDED.category, transaction_id = EXCLUDED.transaction_id`

	insertAuditLog = `INSERT INTO audit_logs (id, user_id, action, entity_type, entity_id, changes, timestamp)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

	stampSync = `INSERT INTO sync_status (id, last_sync) VALUES (1, $1)
ON CONFLICT (id) DO UPDATE SET last_sync = EXCLUDED.last_sync`

	selectStatus = `SELECT
	(SELECT last_sync FROM sync_status WHERE id = 1),
	(SELECT COUNT(*) FROM products),
	(SELECT COUNT(*) FROM transactions),
	(SELECT COUNT(*) FROM cashflow),
	(SELECT COUNT(*) FROM audit_logs)`
)

// PGRepository mirrors snapshots into Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository wraps pool.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Mirror upserts snap in a single transaction and stamps the sync time.
func (r *PGRepository) Mirror(ctx context.Context, snap Snapshot, at time.Time) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := buildBatch(snap, at)
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("backup: mirror batch: %w", err)
		}
		return nil
	})
}

// Status reads the last sync time and per-table counts.
func (r *PGRepository) Status(ctx context.Context) (Status, error) {
	var (
		lastSync *time.Time
		status   Status
	)
	err := r.pool.QueryRow(ctx, selectStatus).Scan(
		&lastSync,
		&status.RecordCounts.Products,
		&status.RecordCounts.Transactions,
		&status.RecordCounts.Cashflow,
		&status.RecordCounts.AuditLogs,
	)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Status{}, fmt.Errorf("backup: status: %w", err)
	}
	status.LastSync = lastSync
	return status, nil
}

func buildBatch(snap Snapshot, at time.Time) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, p := range snap.Products {
		batch.Queue(upsertProduct, p.ID, p.Name, p.SKU, p.Category, p.CurrentStock, p.MinStock, p.MaxStock,
			p.UnitCost, p.SellingPrice, p.Supplier, p.LastUpdated, string(p.Status))
	}
	for _, t := range snap.Transactions {
		batch.Queue(upsertTransaction, t.ID, t.ProductID, t.ProductName, string(t.Type), t.Quantity,
			t.UnitPrice, t.TotalAmount, t.Date, t.Notes, t.UserID)
	}
	for _, c := range snap.Cashflow {
		batch.Queue(upsertCashflow, c.ID, c.Date, string(c.Type), c.Amount, c.Description, c.Category, c.TransactionID)
	}
	for _, a := range snap.AuditLogs {
		changes := a.Changes
		if changes == nil {
			changes = map[string]any{}
		}
		batch.Queue(insertAuditLog, a.ID, a.UserID, string(a.Action), string(a.EntityType), a.EntityID, changes, a.Timestamp)
	}
	batch.Queue(stampSync, at.UTC())
	return batch
}
