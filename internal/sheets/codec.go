package sheets

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/stockboard/internal/inventory"
)

var (
	leadingIntPattern   = regexp.MustCompile(`^[+-]?\d+`)
	leadingFloatPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// FormatTimestamp renders t as a UTC ISO-8601 string with milliseconds.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func cellOr(row []string, i int, fallback string) string {
	if v := cell(row, i); v != "" {
		return v
	}
	return fallback
}

// parseIntCell reads the leading integer of a cell, 0 when there is none.
func parseIntCell(raw string) int {
	match := leadingIntPattern.FindString(strings.TrimSpace(raw))
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}

// parseFloatCell reads the leading decimal of a cell, 0 when there is none.
func parseFloatCell(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	match := leadingFloatPattern.FindString(trimmed)
	if match == "" {
		return 0
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func formatCell(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case bool:
		if value {
			return "TRUE"
		}
		return "FALSE"
	case json.Number:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}

func decodeProduct(row []string, index int, now string) inventory.Product {
	return inventory.Product{
		ID:           cellOr(row, 0, fmt.Sprintf("product_%d", index)),
		Name:         cell(row, 1),
		SKU:          cell(row, 2),
		Category:     cell(row, 3),
		CurrentStock: parseIntCell(cell(row, 4)),
		MinStock:     parseIntCell(cell(row, 5)),
		MaxStock:     parseIntCell(cell(row, 6)),
		UnitCost:     parseFloatCell(cell(row, 7)),
		SellingPrice: parseFloatCell(cell(row, 8)),
		Supplier:     cell(row, 9),
		LastUpdated:  cellOr(row, 10, now),
		Status:       inventory.ProductStatus(cellOr(row, 11, string(inventory.StatusActive))),
	}
}

func encodeProduct(p inventory.Product) []any {
	return []any{
		p.ID, p.Name, p.SKU, p.Category,
		p.CurrentStock, p.MinStock, p.MaxStock,
		p.UnitCost, p.SellingPrice,
		p.Supplier, p.LastUpdated, string(p.Status),
	}
}

func decodeTransaction(row []string, index int, now string) inventory.Transaction {
	return inventory.Transaction{
		ID:          cellOr(row, 0, fmt.Sprintf("transaction_%d", index)),
		ProductID:   cell(row, 1),
		ProductName: cell(row, 2),
		Type:        inventory.TransactionType(cellOr(row, 3, string(inventory.TransactionPurchase))),
		Quantity:    parseIntCell(cell(row, 4)),
		UnitPrice:   parseFloatCell(cell(row, 5)),
		TotalAmount: parseFloatCell(cell(row, 6)),
		Date:        cellOr(row, 7, now),
		Notes:       cell(row, 8),
		// The range has no user column.
		UserID: inventory.SystemUser,
	}
}

func encodeTransaction(t inventory.Transaction) []any {
	return []any{
		t.ID, t.ProductID, t.ProductName, string(t.Type),
		t.Quantity, t.UnitPrice, t.TotalAmount,
		t.Date, t.Notes,
	}
}

func decodeCashflow(row []string, index int, now string) inventory.CashflowEntry {
	return inventory.CashflowEntry{
		ID:            cellOr(row, 0, fmt.Sprintf("cashflow_%d", index)),
		Date:          cellOr(row, 1, now),
		Type:          inventory.CashflowType(cellOr(row, 2, string(inventory.CashflowExpense))),
		Amount:        parseFloatCell(cell(row, 3)),
		Description:   cell(row, 4),
		Category:      cell(row, 5),
		TransactionID: cell(row, 6),
	}
}

func encodeCashflow(c inventory.CashflowEntry) []any {
	return []any{c.ID, c.Date, string(c.Type), c.Amount, c.Description, c.Category, c.TransactionID}
}

func decodeAuditLog(row []string, index int) inventory.AuditLog {
	log := inventory.AuditLog{
		ID:         cellOr(row, 0, fmt.Sprintf("audit_%d", index)),
		UserID:     cell(row, 1),
		Action:     inventory.AuditAction(cell(row, 2)),
		EntityType: inventory.EntityType(cell(row, 3)),
		EntityID:   cell(row, 4),
		Timestamp:  cell(row, 6),
	}
	if raw := cell(row, 5); raw != "" {
		var changes map[string]any
		if err := json.Unmarshal([]byte(raw), &changes); err == nil {
			log.Changes = changes
		}
	}
	return log
}

func encodeAuditLog(log inventory.AuditLog) ([]any, error) {
	changes := log.Changes
	if changes == nil {
		changes = map[string]any{}
	}
	raw, err := json.Marshal(changes)
	if err != nil {
		return nil, fmt.Errorf("sheets: encode audit changes: %w", err)
	}
	return []any{
		log.ID, log.UserID, string(log.Action), string(log.EntityType),
		log.EntityID, string(raw), log.Timestamp,
	}, nil
}
