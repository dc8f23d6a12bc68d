package sheets

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockboard/internal/inventory"
)

func newTestGateway(store *MemoryStore) *Gateway {
	seq := 0
	clock := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return NewGateway(store,
		WithIDGenerator(func(entity string) string {
			seq++
			return fmt.Sprintf("%s_%d", entity, seq)
		}),
		WithClock(func() time.Time { return clock }),
	)
}

func TestGatewayCreateAndListProducts(t *testing.T) {
	store := NewMemoryStore()
	gw := newTestGateway(store)
	ctx := context.Background()

	created, err := gw.CreateProduct(ctx, inventory.Product{
		Name: "Widget", SKU: "W-1", Category: "Parts",
		CurrentStock: 10, MinStock: 5, MaxStock: 50,
		UnitCost: 2.5, SellingPrice: 4,
	})
	require.NoError(t, err)
	require.Equal(t, "product_1", created.ID)
	require.Equal(t, inventory.StatusActive, created.Status)
	require.Equal(t, "2025-03-01T09:30:00.000Z", created.LastUpdated)

	products, err := gw.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, created, products[0])

	rows := store.Rows("Products")
	require.Len(t, rows, 2)
	require.Equal(t, "id", rows[0][0])
	require.Equal(t, "2.5", rows[1][7])
}

func TestGatewayUpdateWritesLocatedRow(t *testing.T) {
	store := NewMemoryStore()
	gw := newTestGateway(store)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := gw.CreateProduct(ctx, inventory.Product{Name: name, CurrentStock: 1})
		require.NoError(t, err)
	}

	stock := 42
	updated, err := gw.UpdateProduct(ctx, "product_2", inventory.ProductPatch{CurrentStock: &stock})
	require.NoError(t, err)
	require.Equal(t, 42, updated.CurrentStock)
	require.Equal(t, "B", updated.Name)

	rows := store.Rows("Products")
	require.Equal(t, "product_2", rows[2][0])
	require.Equal(t, "42", rows[2][4])
	require.Equal(t, "1", rows[1][4])
	require.Equal(t, "1", rows[3][4])
}

func TestGatewayUpdateUnknownID(t *testing.T) {
	gw := newTestGateway(NewMemoryStore())

	_, err := gw.UpdateProduct(context.Background(), "missing", inventory.ProductPatch{})
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, inventory.ErrProductNotFound)
}

func TestGatewayDeleteIsSoft(t *testing.T) {
	store := NewMemoryStore()
	gw := newTestGateway(store)
	ctx := context.Background()

	created, err := gw.CreateProduct(ctx, inventory.Product{Name: "Widget"})
	require.NoError(t, err)

	deleted, err := gw.DeleteProduct(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, inventory.StatusInactive, deleted.Status)

	products, err := gw.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, inventory.StatusInactive, products[0].Status)
}

func TestGatewayLenientDecode(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, ProductsLayout.AppendRange(), [][]any{
		{"", "Bolt", "B-1", "Parts", "12abc", "n/a", "", "3.75kg", "oops"},
	}))
	gw := newTestGateway(store)

	products, err := gw.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	p := products[0]
	require.Equal(t, "product_0", p.ID)
	require.Equal(t, 12, p.CurrentStock)
	require.Zero(t, p.MinStock)
	require.InDelta(t, 3.75, p.UnitCost, 0.0001)
	require.Zero(t, p.SellingPrice)
	require.Equal(t, inventory.StatusActive, p.Status)
	require.Equal(t, "2025-03-01T09:30:00.000Z", p.LastUpdated)
}

func TestGatewayTransactionDefaults(t *testing.T) {
	gw := newTestGateway(NewMemoryStore())
	ctx := context.Background()

	created, err := gw.CreateTransaction(ctx, inventory.Transaction{
		ProductID: "product_9", Type: inventory.TransactionSale, Quantity: 2, UnitPrice: 5, TotalAmount: 10,
	})
	require.NoError(t, err)
	require.Equal(t, "transaction_1", created.ID)
	require.Equal(t, inventory.SystemUser, created.UserID)
	require.NotEmpty(t, created.Date)

	list, err := gw.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, created.ID, list[0].ID)
	require.Equal(t, inventory.SystemUser, list[0].UserID)
	require.InDelta(t, 10, list[0].TotalAmount, 0.0001)
}

func TestGatewayCashflowAndAudit(t *testing.T) {
	gw := newTestGateway(NewMemoryStore())
	ctx := context.Background()

	entry, err := gw.CreateCashflow(ctx, inventory.CashflowEntry{
		Type: inventory.CashflowIncome, Amount: 10, Description: "sale - Widget", Category: "sale", TransactionID: "transaction_1",
	})
	require.NoError(t, err)
	require.Equal(t, "cashflow_1", entry.ID)

	flows, err := gw.ListCashflow(ctx)
	require.NoError(t, err)
	require.Len(t, flows, 1)
	require.Equal(t, inventory.CashflowIncome, flows[0].Type)
	require.Equal(t, "transaction_1", flows[0].TransactionID)

	_, err = gw.AppendAuditLog(ctx, inventory.AuditLog{
		UserID: "system", Action: inventory.ActionCreate, EntityType: inventory.EntityProduct,
		EntityID: "product_1", Changes: map[string]any{"name": "Widget"},
	})
	require.NoError(t, err)

	logs, err := gw.ListAuditLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, inventory.ActionCreate, logs[0].Action)
	require.Equal(t, "Widget", logs[0].Changes["name"])
}

func TestGatewayStoreFailure(t *testing.T) {
	store := NewMemoryStore()
	store.SetError(errors.New("quota exceeded"))
	gw := newTestGateway(store)

	_, err := gw.ListProducts(context.Background())
	require.ErrorContains(t, err, "quota exceeded")

	_, err = gw.CreateProduct(context.Background(), inventory.Product{Name: "X"})
	require.Error(t, err)
}
