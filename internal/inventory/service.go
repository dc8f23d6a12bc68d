package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
)

// GatewayPort is the spreadsheet gateway as seen by the orchestrator.
type GatewayPort interface {
	ListProducts(ctx context.Context) ([]Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, id string, patch ProductPatch) (Product, error)
	DeleteProduct(ctx context.Context, id string) (Product, error)
	ListTransactions(ctx context.Context) ([]Transaction, error)
	CreateTransaction(ctx context.Context, t Transaction) (Transaction, error)
	ListCashflow(ctx context.Context) ([]CashflowEntry, error)
	CreateCashflow(ctx context.Context, c CashflowEntry) (CashflowEntry, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log AuditLog) error
}

// CacheBumper invalidates derived aggregates after a write.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service coordinates product and transaction mutations.
type Service struct {
	gateway GatewayPort
	audit   AuditPort
	cache   CacheBumper
	logger  *slog.Logger
}

// NewService builds Service. audit and cache may be nil.
func NewService(gateway GatewayPort, audit AuditPort, cache CacheBumper, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gateway: gateway, audit: audit, cache: cache, logger: logger}
}

// Products lists every product. A failed read degrades to an empty list.
func (s *Service) Products(ctx context.Context) []Product {
	products, err := s.gateway.ListProducts(ctx)
	if err != nil {
		s.logger.Warn("list products failed, serving empty list", slog.Any("error", err))
		return []Product{}
	}
	return products
}

// Transactions lists every transaction. A failed read degrades to an empty list.
func (s *Service) Transactions(ctx context.Context) []Transaction {
	txs, err := s.gateway.ListTransactions(ctx)
	if err != nil {
		s.logger.Warn("list transactions failed, serving empty list", slog.Any("error", err))
		return []Transaction{}
	}
	return txs
}

// Cashflow lists every cashflow entry. A failed read degrades to an empty list.
func (s *Service) Cashflow(ctx context.Context) []CashflowEntry {
	entries, err := s.gateway.ListCashflow(ctx)
	if err != nil {
		s.logger.Warn("list cashflow failed, serving empty list", slog.Any("error", err))
		return []CashflowEntry{}
	}
	return entries
}

// AddProduct creates a product and audits it.
func (s *Service) AddProduct(ctx context.Context, input ProductInput) (Result, error) {
	var created Product
	sg := &saga{}
	sg.add("create_product", func(ctx context.Context) error {
		var err error
		created, err = s.gateway.CreateProduct(ctx, input.Product())
		return err
	})
	sg.add("audit", func(ctx context.Context) error {
		return s.record(ctx, SystemUser, ActionCreate, EntityProduct, created.ID, snapshot(created))
	})
	return s.finish(ctx, "add product", sg, func() string { return created.ID })
}

// UpdateProduct applies patch to product id and audits the change set.
func (s *Service) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (Result, error) {
	sg := &saga{}
	sg.add("update_product", func(ctx context.Context) error {
		_, err := s.gateway.UpdateProduct(ctx, id, patch)
		return err
	})
	sg.add("audit", func(ctx context.Context) error {
		return s.record(ctx, SystemUser, ActionUpdate, EntityProduct, id, patch.Changes())
	})
	return s.finish(ctx, "update product", sg, func() string { return id })
}

// DeleteProduct deactivates product id. Rows are never removed.
func (s *Service) DeleteProduct(ctx context.Context, id string) (Result, error) {
	sg := &saga{}
	sg.add("deactivate_product", func(ctx context.Context) error {
		_, err := s.gateway.DeleteProduct(ctx, id)
		return err
	})
	sg.add("audit", func(ctx context.Context) error {
		return s.record(ctx, SystemUser, ActionDelete, EntityProduct, id, map[string]any{"status": string(StatusInactive)})
	})
	return s.finish(ctx, "delete product", sg, func() string { return id })
}

// AddTransaction records a stock movement, adjusts the product stock, mirrors
// the money into cashflow and audits the transaction. Steps are not atomic: a
// failure leaves earlier writes in place.
func (s *Service) AddTransaction(ctx context.Context, input TransactionInput) (Result, error) {
	tx := input.Transaction()
	var created Transaction
	sg := &saga{}
	sg.add("create_transaction", func(ctx context.Context) error {
		var err error
		created, err = s.gateway.CreateTransaction(ctx, tx)
		return err
	})
	sg.add("adjust_stock", func(ctx context.Context) error {
		return s.adjustStock(ctx, created)
	})
	sg.add("record_cashflow", func(ctx context.Context) error {
		_, err := s.gateway.CreateCashflow(ctx, MirrorCashflow(created))
		return err
	})
	sg.add("audit", func(ctx context.Context) error {
		return s.record(ctx, created.UserID, ActionCreate, EntityTransaction, created.ID, snapshot(created))
	})
	return s.finish(ctx, "add transaction", sg, func() string { return created.ID })
}

func (s *Service) adjustStock(ctx context.Context, tx Transaction) error {
	if tx.Type != TransactionPurchase && tx.Type != TransactionSale {
		return skip(fmt.Sprintf("%s does not change stock", tx.Type))
	}
	products, err := s.gateway.ListProducts(ctx)
	if err != nil {
		return err
	}
	var product *Product
	for i := range products {
		if products[i].ID == tx.ProductID {
			product = &products[i]
			break
		}
	}
	if product == nil {
		s.logger.Warn("transaction references unknown product, stock unchanged",
			slog.String("transaction_id", tx.ID), slog.String("product_id", tx.ProductID))
		return skip("product not found")
	}
	stock := AdjustedStock(product.CurrentStock, tx.Type, tx.Quantity)
	_, err = s.gateway.UpdateProduct(ctx, product.ID, ProductPatch{CurrentStock: &stock})
	return err
}

// AdjustedStock applies a movement to current. Purchases add, sales subtract
// and clamp at zero, anything else leaves stock untouched.
func AdjustedStock(current int, kind TransactionType, quantity int) int {
	switch kind {
	case TransactionPurchase:
		return current + quantity
	case TransactionSale:
		if next := current - quantity; next > 0 {
			return next
		}
		return 0
	default:
		return current
	}
}

// MirrorCashflow derives the cashflow entry that accompanies tx.
func MirrorCashflow(tx Transaction) CashflowEntry {
	kind := CashflowExpense
	if tx.Type == TransactionSale {
		kind = CashflowIncome
	}
	return CashflowEntry{
		Date:          tx.Date,
		Type:          kind,
		Amount:        math.Abs(tx.TotalAmount),
		Description:   fmt.Sprintf("%s - %s", tx.Type, tx.ProductName),
		Category:      string(tx.Type),
		TransactionID: tx.ID,
	}
}

func (s *Service) record(ctx context.Context, user string, action AuditAction, entity EntityType, id string, changes map[string]any) error {
	if s.audit == nil {
		return skip("audit disabled")
	}
	return s.audit.Record(ctx, AuditLog{
		UserID:     user,
		Action:     action,
		EntityType: entity,
		EntityID:   id,
		Changes:    changes,
	})
}

func (s *Service) finish(ctx context.Context, op string, sg *saga, id func() string) (Result, error) {
	steps, err := sg.run(ctx)
	result := Result{ID: id(), Steps: steps}
	if result.Committed() && s.cache != nil {
		if bumpErr := s.cache.Bump(ctx); bumpErr != nil {
			s.logger.Warn("analytics cache bump failed", slog.String("op", op), slog.Any("error", bumpErr))
		}
	}
	if err != nil {
		s.logger.Error(op+" failed", slog.String("id", result.ID), slog.Any("error", err))
		return result, fmt.Errorf("inventory: %s: %w", op, err)
	}
	return result, nil
}

func snapshot(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}
