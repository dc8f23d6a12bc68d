package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockboard/internal/inventory"
	"github.com/odyssey-erp/stockboard/internal/sheets"
)

type memoryAudit struct {
	mu   sync.Mutex
	logs []inventory.AuditLog
	err  error
}

func (a *memoryAudit) Record(_ context.Context, log inventory.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.logs = append(a.logs, log)
	return nil
}

type countingCache struct{ bumps int }

func (c *countingCache) Bump(context.Context) error {
	c.bumps++
	return nil
}

// failingGateway fails one named operation.
type failingGateway struct {
	*sheets.Gateway
	failCashflow bool
}

func (g failingGateway) CreateCashflow(ctx context.Context, c inventory.CashflowEntry) (inventory.CashflowEntry, error) {
	if g.failCashflow {
		return inventory.CashflowEntry{}, errors.New("cashflow range locked")
	}
	return g.Gateway.CreateCashflow(ctx, c)
}

type fixture struct {
	store   *sheets.MemoryStore
	gateway *sheets.Gateway
	audit   *memoryAudit
	cache   *countingCache
	svc     *inventory.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	seq := 0
	store := sheets.NewMemoryStore()
	gw := sheets.NewGateway(store,
		sheets.WithIDGenerator(func(entity string) string {
			seq++
			return fmt.Sprintf("%s_%d", entity, seq)
		}),
		sheets.WithClock(func() time.Time { return time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC) }),
	)
	audit := &memoryAudit{}
	cache := &countingCache{}
	return &fixture{
		store:   store,
		gateway: gw,
		audit:   audit,
		cache:   cache,
		svc:     inventory.NewService(gw, audit, cache, nil),
	}
}

func (f *fixture) addWidget(t *testing.T, stock, min int) string {
	t.Helper()
	result, err := f.svc.AddProduct(context.Background(), inventory.ProductInput{
		Name: "Widget", SKU: "W-1", Category: "Parts",
		CurrentStock: stock, MinStock: min, MaxStock: 100,
		UnitCost: 2, SellingPrice: 5,
	})
	require.NoError(t, err)
	return result.ID
}

func (f *fixture) product(t *testing.T, id string) inventory.Product {
	t.Helper()
	products, err := f.gateway.ListProducts(context.Background())
	require.NoError(t, err)
	for _, p := range products {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("product %s not found", id)
	return inventory.Product{}
}

func TestAddProductAudits(t *testing.T) {
	f := newFixture(t)
	result, err := f.svc.AddProduct(context.Background(), inventory.ProductInput{Name: "Widget", SKU: "W-1"})
	require.NoError(t, err)
	require.Equal(t, "product_1", result.ID)
	require.Equal(t, []inventory.StepResult{
		{Name: "create_product", Status: inventory.StepDone},
		{Name: "audit", Status: inventory.StepDone},
	}, result.Steps)

	require.Len(t, f.audit.logs, 1)
	log := f.audit.logs[0]
	require.Equal(t, inventory.ActionCreate, log.Action)
	require.Equal(t, inventory.EntityProduct, log.EntityType)
	require.Equal(t, "product_1", log.EntityID)
	require.Equal(t, "Widget", log.Changes["name"])
	require.Equal(t, 1, f.cache.bumps)
}

func TestSaleDecrementsAndClampsAtZero(t *testing.T) {
	f := newFixture(t)
	id := f.addWidget(t, 3, 1)

	_, err := f.svc.AddTransaction(context.Background(), inventory.TransactionInput{
		ProductID: id, ProductName: "Widget", Type: inventory.TransactionSale, Quantity: 5, UnitPrice: 5, TotalAmount: 25,
	})
	require.NoError(t, err)
	require.Equal(t, 0, f.product(t, id).CurrentStock)
}

func TestPurchaseIncrementsWithoutClamp(t *testing.T) {
	f := newFixture(t)
	id := f.addWidget(t, 95, 1)

	_, err := f.svc.AddTransaction(context.Background(), inventory.TransactionInput{
		ProductID: id, ProductName: "Widget", Type: inventory.TransactionPurchase, Quantity: 20, UnitPrice: 2, TotalAmount: 40,
	})
	require.NoError(t, err)
	require.Equal(t, 115, f.product(t, id).CurrentStock)
}

func TestAdjustmentAndUnknownProductSkipStock(t *testing.T) {
	f := newFixture(t)
	id := f.addWidget(t, 10, 1)
	ctx := context.Background()

	result, err := f.svc.AddTransaction(ctx, inventory.TransactionInput{
		ProductID: id, Type: inventory.TransactionAdjustment, Quantity: 4,
	})
	require.NoError(t, err)
	require.Equal(t, inventory.StepSkipped, result.Steps[1].Status)
	require.Equal(t, 10, f.product(t, id).CurrentStock)

	result, err = f.svc.AddTransaction(ctx, inventory.TransactionInput{
		ProductID: "ghost", Type: inventory.TransactionSale, Quantity: 1, TotalAmount: 5,
	})
	require.NoError(t, err)
	require.Equal(t, "adjust_stock", result.Steps[1].Name)
	require.Equal(t, inventory.StepSkipped, result.Steps[1].Status)
	require.Equal(t, inventory.StepDone, result.Steps[2].Status)
}

func TestTransactionMirrorsCashflow(t *testing.T) {
	f := newFixture(t)
	id := f.addWidget(t, 10, 1)
	ctx := context.Background()

	sale, err := f.svc.AddTransaction(ctx, inventory.TransactionInput{
		ProductID: id, ProductName: "Widget", Type: inventory.TransactionSale, Quantity: 2, UnitPrice: 5, TotalAmount: 10,
	})
	require.NoError(t, err)
	_, err = f.svc.AddTransaction(ctx, inventory.TransactionInput{
		ProductID: id, ProductName: "Widget", Type: inventory.TransactionPurchase, Quantity: 1, UnitPrice: 2, TotalAmount: -2,
	})
	require.NoError(t, err)

	flows := f.svc.Cashflow(ctx)
	require.Len(t, flows, 2)
	require.Equal(t, inventory.CashflowIncome, flows[0].Type)
	require.InDelta(t, 10, flows[0].Amount, 0.0001)
	require.Equal(t, "sale", flows[0].Category)
	require.Equal(t, "sale - Widget", flows[0].Description)
	require.Equal(t, sale.ID, flows[0].TransactionID)
	require.Equal(t, inventory.CashflowExpense, flows[1].Type)
	require.InDelta(t, 2, flows[1].Amount, 0.0001)
}

func TestUpdateAndSoftDelete(t *testing.T) {
	f := newFixture(t)
	id := f.addWidget(t, 10, 1)
	ctx := context.Background()

	name := "Widget Pro"
	_, err := f.svc.UpdateProduct(ctx, id, inventory.ProductPatch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Widget Pro", f.product(t, id).Name)

	_, err = f.svc.DeleteProduct(ctx, id)
	require.NoError(t, err)

	products := f.svc.Products(ctx)
	require.Len(t, products, 1)
	require.Equal(t, inventory.StatusInactive, products[0].Status)

	last := f.audit.logs[len(f.audit.logs)-1]
	require.Equal(t, inventory.ActionDelete, last.Action)
	require.Equal(t, "inactive", last.Changes["status"])
}

func TestUpdateUnknownProduct(t *testing.T) {
	f := newFixture(t)
	bumps := f.cache.bumps

	result, err := f.svc.UpdateProduct(context.Background(), "nope", inventory.ProductPatch{})
	require.ErrorIs(t, err, inventory.ErrProductNotFound)
	require.ErrorIs(t, err, inventory.ErrStepFailed)
	require.Equal(t, inventory.StepFailed, result.Steps[0].Status)
	require.Equal(t, inventory.StepSkipped, result.Steps[1].Status)
	require.Empty(t, f.audit.logs)
	require.Equal(t, bumps, f.cache.bumps)
}

func TestFailedStepLeavesEarlierWrites(t *testing.T) {
	f := newFixture(t)
	id := f.addWidget(t, 10, 1)
	svc := inventory.NewService(failingGateway{Gateway: f.gateway, failCashflow: true}, f.audit, f.cache, nil)

	result, err := svc.AddTransaction(context.Background(), inventory.TransactionInput{
		ProductID: id, ProductName: "Widget", Type: inventory.TransactionSale, Quantity: 4, TotalAmount: 20,
	})
	require.ErrorIs(t, err, inventory.ErrStepFailed)
	require.ErrorContains(t, err, "record_cashflow")
	require.Equal(t, []inventory.StepStatus{
		inventory.StepDone, inventory.StepDone, inventory.StepFailed, inventory.StepSkipped,
	}, statuses(result.Steps))

	require.Equal(t, 6, f.product(t, id).CurrentStock)
	require.Len(t, f.svc.Transactions(context.Background()), 1)
	require.Empty(t, f.svc.Cashflow(context.Background()))
}

func TestReadsDegradeToEmpty(t *testing.T) {
	f := newFixture(t)
	f.addWidget(t, 1, 1)
	f.store.SetError(errors.New("offline"))
	ctx := context.Background()

	require.NotNil(t, f.svc.Products(ctx))
	require.Empty(t, f.svc.Products(ctx))
	require.Empty(t, f.svc.Transactions(ctx))
	require.Empty(t, f.svc.Cashflow(ctx))
}

func TestAdjustedStock(t *testing.T) {
	require.Equal(t, 15, inventory.AdjustedStock(10, inventory.TransactionPurchase, 5))
	require.Equal(t, 0, inventory.AdjustedStock(3, inventory.TransactionSale, 5))
	require.Equal(t, 1, inventory.AdjustedStock(3, inventory.TransactionSale, 2))
	require.Equal(t, 3, inventory.AdjustedStock(3, inventory.TransactionAdjustment, 9))
}

func statuses(steps []inventory.StepResult) []inventory.StepStatus {
	out := make([]inventory.StepStatus, len(steps))
	for i, s := range steps {
		out[i] = s.Status
	}
	return out
}
