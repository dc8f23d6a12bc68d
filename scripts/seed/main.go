package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/odyssey-erp/stockboard/internal/app"
	"github.com/odyssey-erp/stockboard/internal/audit"
	"github.com/odyssey-erp/stockboard/internal/inventory"
	"github.com/odyssey-erp/stockboard/internal/sheets"
)

var demoProducts = []inventory.ProductInput{
	{Name: "Arabica Beans 1kg", SKU: "COF-ARA-1K", Category: "Coffee", CurrentStock: 40, MinStock: 10, MaxStock: 120, UnitCost: 520, SellingPrice: 780, Supplier: "Benguet Growers"},
	{Name: "Robusta Beans 1kg", SKU: "COF-ROB-1K", Category: "Coffee", CurrentStock: 8, MinStock: 10, MaxStock: 80, UnitCost: 380, SellingPrice: 560, Supplier: "Batangas Farms"},
	{Name: "Paper Cups 12oz (50s)", SKU: "SUP-CUP-12", Category: "Supplies", CurrentStock: 25, MinStock: 20, MaxStock: 200, UnitCost: 95, SellingPrice: 150, Supplier: "Metro Packaging"},
	{Name: "Oat Milk 1L", SKU: "DAI-OAT-1L", Category: "Dairy", CurrentStock: 12, MinStock: 6, MaxStock: 48, UnitCost: 145, SellingPrice: 210, Supplier: "Green Pantry"},
}

type demoMovement struct {
	sku      string
	kind     inventory.TransactionType
	quantity int
	notes    string
}

var demoMovements = []demoMovement{
	{sku: "COF-ARA-1K", kind: inventory.TransactionSale, quantity: 6, notes: "Walk-in orders"},
	{sku: "SUP-CUP-12", kind: inventory.TransactionPurchase, quantity: 30, notes: "Weekly restock"},
	{sku: "DAI-OAT-1L", kind: inventory.TransactionSale, quantity: 4, notes: "Cafe usage"},
}

func main() {
	_ = godotenv.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	if !cfg.SheetsConfigured() {
		logger.Error("SHEETS_SPREADSHEET_ID is required to seed")
		os.Exit(1)
	}

	store, err := app.NewSheetStore(cfg, nil, logger)
	if err != nil {
		logger.Error("init spreadsheet", slog.Any("error", err))
		os.Exit(1)
	}
	gateway := sheets.NewGateway(store)
	service := inventory.NewService(gateway, audit.NewRecorder(gateway, logger), nil, logger)

	if err := seed(ctx, service, logger); err != nil {
		logger.Error("seed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seed complete", slog.Time("at", time.Now()))
}

func seed(ctx context.Context, service *inventory.Service, logger *slog.Logger) error {
	existing := map[string]inventory.Product{}
	for _, p := range service.Products(ctx) {
		existing[p.SKU] = p
	}

	ids := map[string]inventory.Product{}
	for _, input := range demoProducts {
		if p, ok := existing[input.SKU]; ok {
			logger.Info("product exists, skipping", slog.String("sku", input.SKU))
			ids[input.SKU] = p
			continue
		}
		result, err := service.AddProduct(ctx, input)
		if err != nil {
			return err
		}
		p := input.Product()
		p.ID = result.ID
		ids[input.SKU] = p
		logger.Info("product seeded", slog.String("sku", input.SKU), slog.String("id", result.ID))
	}

	today := time.Now().Format(time.DateOnly)
	for _, m := range demoMovements {
		p, ok := ids[m.sku]
		if !ok {
			continue
		}
		price := p.SellingPrice
		if m.kind == inventory.TransactionPurchase {
			price = p.UnitCost
		}
		_, err := service.AddTransaction(ctx, inventory.TransactionInput{
			ProductID:   p.ID,
			ProductName: p.Name,
			Type:        m.kind,
			Quantity:    m.quantity,
			UnitPrice:   price,
			TotalAmount: price * float64(m.quantity),
			Date:        today,
			Notes:       m.notes,
		})
		if err != nil {
			return err
		}
		logger.Info("transaction seeded", slog.String("sku", m.sku), slog.String("type", string(m.kind)))
	}
	return nil
}
