// Package export writes collections and reports as CSV.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/odyssey-erp/stockboard/internal/analytics"
	"github.com/odyssey-erp/stockboard/internal/inventory"
)

// WriteProductsCSV emits products using the spreadsheet column order.
func WriteProductsCSV(w io.Writer, products []inventory.Product) error {
	return writeAll(w, []string{
		"id", "name", "sku", "category", "currentStock", "minStock", "maxStock",
		"unitCost", "sellingPrice", "supplier", "lastUpdated", "status",
	}, len(products), func(i int) []string {
		p := products[i]
		return []string{
			p.ID, p.Name, p.SKU, p.Category,
			strconv.Itoa(p.CurrentStock), strconv.Itoa(p.MinStock), strconv.Itoa(p.MaxStock),
			formatFloat(p.UnitCost), formatFloat(p.SellingPrice),
			p.Supplier, p.LastUpdated, string(p.Status),
		}
	})
}

// WriteTransactionsCSV emits transactions.
func WriteTransactionsCSV(w io.Writer, txs []inventory.Transaction) error {
	return writeAll(w, []string{
		"id", "productId", "productName", "type", "quantity", "unitPrice", "totalAmount", "date", "notes", "userId",
	}, len(txs), func(i int) []string {
		t := txs[i]
		return []string{
			t.ID, t.ProductID, t.ProductName, string(t.Type),
			strconv.Itoa(t.Quantity), formatFloat(t.UnitPrice), formatFloat(t.TotalAmount),
			t.Date, t.Notes, t.UserID,
		}
	})
}

// WriteCashflowCSV emits cashflow entries.
func WriteCashflowCSV(w io.Writer, entries []inventory.CashflowEntry) error {
	return writeAll(w, []string{
		"id", "date", "type", "amount", "description", "category", "transactionId",
	}, len(entries), func(i int) []string {
		e := entries[i]
		return []string{e.ID, e.Date, string(e.Type), formatFloat(e.Amount), e.Description, e.Category, e.TransactionID}
	})
}

// WriteProfitLossCSV serialises the P&L as metric/value pairs.
func WriteProfitLossCSV(w io.Writer, pl analytics.ProfitLoss) error {
	records := [][]string{
		{"Period", pl.Period},
		{"Revenue", formatFloat(pl.Revenue)},
		{"Cost of Goods Sold", formatFloat(pl.COGS)},
		{"Gross Profit", formatFloat(pl.GrossProfit)},
		{"Expenses", formatFloat(pl.Expenses)},
		{"Net Profit", formatFloat(pl.NetProfit)},
		{"Gross Margin %", formatFloat(pl.GrossMargin)},
	}
	return writeAll(w, []string{"Metric", "Value"}, len(records), func(i int) []string { return records[i] })
}

// WriteCategoriesCSV emits the category breakdown.
func WriteCategoriesCSV(w io.Writer, slices []analytics.CategorySlice) error {
	return writeAll(w, []string{"Category", "Items", "Value"}, len(slices), func(i int) []string {
		s := slices[i]
		return []string{s.Category, strconv.Itoa(s.Count), formatFloat(s.Value)}
	})
}

// WriteMonthlyCashflowCSV emits the monthly income/expense series.
func WriteMonthlyCashflowCSV(w io.Writer, points []analytics.MonthlyPoint) error {
	return writeAll(w, []string{"Period", "Income", "Expense"}, len(points), func(i int) []string {
		p := points[i]
		return []string{p.Period, formatFloat(p.Income), formatFloat(p.Expense)}
	})
}

func writeAll(w io.Writer, header []string, n int, row func(i int) []string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := writer.Write(row(i)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
