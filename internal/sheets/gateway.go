package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/stockboard/internal/inventory"
)

// ErrNotFound is returned when an update targets an unknown id.
var ErrNotFound = errors.New("sheets: row not found")

// ValueStore reads and writes A1 ranges of one spreadsheet.
type ValueStore interface {
	Get(ctx context.Context, ref string) ([][]string, error)
	Append(ctx context.Context, ref string, rows [][]any) error
	Update(ctx context.Context, ref string, rows [][]any) error
}

// Gateway translates inventory entities to and from spreadsheet rows.
type Gateway struct {
	store ValueStore
	newID func(entity string) string
	now   func() time.Time
}

// Option customises a Gateway.
type Option func(*Gateway)

// WithIDGenerator overrides id synthesis.
func WithIDGenerator(fn func(entity string) string) Option {
	return func(g *Gateway) {
		if fn != nil {
			g.newID = fn
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(g *Gateway) {
		if fn != nil {
			g.now = fn
		}
	}
}

// NewGateway builds a Gateway over store.
func NewGateway(store ValueStore, opts ...Option) *Gateway {
	g := &Gateway{store: store, newID: NewID, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewID returns "{entity}_{uuidv7}".
func NewID(entity string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return entity + "_" + id.String()
}

func (g *Gateway) timestamp() string {
	return FormatTimestamp(g.now())
}

// ListProducts reads every product row. Malformed cells decode to zero values.
func (g *Gateway) ListProducts(ctx context.Context) ([]inventory.Product, error) {
	rows, err := g.store.Get(ctx, ProductsLayout.ReadRange())
	if err != nil {
		return nil, fmt.Errorf("sheets: list products: %w", err)
	}
	now := g.timestamp()
	products := make([]inventory.Product, 0, len(rows))
	for i, row := range rows {
		products = append(products, decodeProduct(row, i, now))
	}
	return products, nil
}

// CreateProduct appends p with a fresh id and lastUpdated.
func (g *Gateway) CreateProduct(ctx context.Context, p inventory.Product) (inventory.Product, error) {
	p.ID = g.newID("product")
	p.LastUpdated = g.timestamp()
	if p.Status == "" {
		p.Status = inventory.StatusActive
	}
	if err := g.store.Append(ctx, ProductsLayout.AppendRange(), [][]any{encodeProduct(p)}); err != nil {
		return inventory.Product{}, fmt.Errorf("sheets: append product: %w", err)
	}
	return p, nil
}

// UpdateProduct re-reads the range, locates id and rewrites that row in place.
func (g *Gateway) UpdateProduct(ctx context.Context, id string, patch inventory.ProductPatch) (inventory.Product, error) {
	products, err := g.ListProducts(ctx)
	if err != nil {
		return inventory.Product{}, err
	}
	index := -1
	for i, p := range products {
		if p.ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		return inventory.Product{}, fmt.Errorf("%w: %w: %s", ErrNotFound, inventory.ErrProductNotFound, id)
	}
	updated := patch.Apply(products[index])
	updated.ID = id
	updated.LastUpdated = g.timestamp()
	if err := g.store.Update(ctx, ProductsLayout.RowRange(index), [][]any{encodeProduct(updated)}); err != nil {
		return inventory.Product{}, fmt.Errorf("sheets: update product: %w", err)
	}
	return updated, nil
}

// DeleteProduct soft deletes by flipping status to inactive.
func (g *Gateway) DeleteProduct(ctx context.Context, id string) (inventory.Product, error) {
	status := inventory.StatusInactive
	return g.UpdateProduct(ctx, id, inventory.ProductPatch{Status: &status})
}

// ListTransactions reads every transaction row.
func (g *Gateway) ListTransactions(ctx context.Context) ([]inventory.Transaction, error) {
	rows, err := g.store.Get(ctx, TransactionsLayout.ReadRange())
	if err != nil {
		return nil, fmt.Errorf("sheets: list transactions: %w", err)
	}
	now := g.timestamp()
	out := make([]inventory.Transaction, 0, len(rows))
	for i, row := range rows {
		out = append(out, decodeTransaction(row, i, now))
	}
	return out, nil
}

// CreateTransaction appends t with a fresh id.
func (g *Gateway) CreateTransaction(ctx context.Context, t inventory.Transaction) (inventory.Transaction, error) {
	t.ID = g.newID("transaction")
	if t.Date == "" {
		t.Date = g.timestamp()
	}
	if t.UserID == "" {
		t.UserID = inventory.SystemUser
	}
	if err := g.store.Append(ctx, TransactionsLayout.AppendRange(), [][]any{encodeTransaction(t)}); err != nil {
		return inventory.Transaction{}, fmt.Errorf("sheets: append transaction: %w", err)
	}
	return t, nil
}

// ListCashflow reads every cashflow row.
func (g *Gateway) ListCashflow(ctx context.Context) ([]inventory.CashflowEntry, error) {
	rows, err := g.store.Get(ctx, CashflowLayout.ReadRange())
	if err != nil {
		return nil, fmt.Errorf("sheets: list cashflow: %w", err)
	}
	now := g.timestamp()
	out := make([]inventory.CashflowEntry, 0, len(rows))
	for i, row := range rows {
		out = append(out, decodeCashflow(row, i, now))
	}
	return out, nil
}

// CreateCashflow appends c with a fresh id.
func (g *Gateway) CreateCashflow(ctx context.Context, c inventory.CashflowEntry) (inventory.CashflowEntry, error) {
	c.ID = g.newID("cashflow")
	if c.Date == "" {
		c.Date = g.timestamp()
	}
	if err := g.store.Append(ctx, CashflowLayout.AppendRange(), [][]any{encodeCashflow(c)}); err != nil {
		return inventory.CashflowEntry{}, fmt.Errorf("sheets: append cashflow: %w", err)
	}
	return c, nil
}

// AppendAuditLog writes one audit row.
func (g *Gateway) AppendAuditLog(ctx context.Context, log inventory.AuditLog) (inventory.AuditLog, error) {
	log.ID = g.newID("audit")
	if log.Timestamp == "" {
		log.Timestamp = g.timestamp()
	}
	row, err := encodeAuditLog(log)
	if err != nil {
		return inventory.AuditLog{}, err
	}
	if err := g.store.Append(ctx, AuditLogsLayout.AppendRange(), [][]any{row}); err != nil {
		return inventory.AuditLog{}, fmt.Errorf("sheets: append audit log: %w", err)
	}
	return log, nil
}

// ListAuditLogs reads the audit range.
func (g *Gateway) ListAuditLogs(ctx context.Context) ([]inventory.AuditLog, error) {
	rows, err := g.store.Get(ctx, AuditLogsLayout.ReadRange())
	if err != nil {
		return nil, fmt.Errorf("sheets: list audit logs: %w", err)
	}
	out := make([]inventory.AuditLog, 0, len(rows))
	for i, row := range rows {
		out = append(out, decodeAuditLog(row, i))
	}
	return out, nil
}
