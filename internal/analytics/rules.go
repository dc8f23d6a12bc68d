package analytics

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/stockboard/internal/inventory"
)

// COGSRatio approximates cost of goods sold as a fixed share of sale value.
// It is a placeholder until per-product cost lookups exist.
var COGSRatio = decimal.RequireFromString("0.6")

var hundred = decimal.NewFromInt(100)

// DashboardStats is the summary card set.
type DashboardStats struct {
	TotalProducts   int     `json:"totalProducts"`
	LowStockItems   int     `json:"lowStockItems"`
	TotalValue      float64 `json:"totalValue"`
	MonthlyRevenue  float64 `json:"monthlyRevenue"`
	MonthlyExpenses float64 `json:"monthlyExpenses"`
	NetProfit       float64 `json:"netProfit"`
}

// ProfitLoss summarises the current month's sales.
type ProfitLoss struct {
	Period      string  `json:"period"`
	Revenue     float64 `json:"revenue"`
	COGS        float64 `json:"cogs"`
	GrossProfit float64 `json:"grossProfit"`
	Expenses    float64 `json:"expenses"`
	NetProfit   float64 `json:"netProfit"`
	GrossMargin float64 `json:"grossMargin"`
}

// CategorySlice is the inventory held in one category.
type CategorySlice struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Value    float64 `json:"value"`
}

// MonthlyPoint is income and expense for one YYYY-MM period.
type MonthlyPoint struct {
	Period  string  `json:"period"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// InventoryReport bundles the inventory view.
type InventoryReport struct {
	TotalProducts int                 `json:"totalProducts"`
	TotalValue    float64             `json:"totalValue"`
	LowStock      []inventory.Product `json:"lowStock"`
	Categories    []CategorySlice     `json:"categories"`
}

// ComputeDashboardStats derives the dashboard cards. Only active products count
// and only cashflow dated in now's calendar month and year, evaluated in loc.
func ComputeDashboardStats(products []inventory.Product, cashflow []inventory.CashflowEntry, now time.Time, loc *time.Location) DashboardStats {
	stats := DashboardStats{}
	for _, p := range products {
		if !p.IsActive() {
			continue
		}
		stats.TotalProducts++
		if p.IsLowStock() {
			stats.LowStockItems++
		}
	}
	stats.TotalValue = InventoryValue(products)

	income, expense := monthlyTotals(cashflow, now, loc)
	stats.MonthlyRevenue = income.InexactFloat64()
	stats.MonthlyExpenses = expense.InexactFloat64()
	stats.NetProfit = income.Sub(expense).InexactFloat64()
	return stats
}

// InventoryValue sums currentStock × unitCost over active products.
func InventoryValue(products []inventory.Product) float64 {
	total := decimal.Zero
	for _, p := range products {
		if p.IsActive() {
			total = total.Add(stockValue(p))
		}
	}
	return total.InexactFloat64()
}

// LowStock returns active products at or below their minimum, input order kept.
func LowStock(products []inventory.Product) []inventory.Product {
	out := make([]inventory.Product, 0)
	for _, p := range products {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out
}

// CategoryBreakdown groups active products by category, sorted by name.
func CategoryBreakdown(products []inventory.Product) []CategorySlice {
	type acc struct {
		count int
		value decimal.Decimal
	}
	groups := make(map[string]*acc)
	for _, p := range products {
		if !p.IsActive() {
			continue
		}
		g, ok := groups[p.Category]
		if !ok {
			g = &acc{value: decimal.Zero}
			groups[p.Category] = g
		}
		g.count++
		g.value = g.value.Add(stockValue(p))
	}
	out := make([]CategorySlice, 0, len(groups))
	for name, g := range groups {
		out = append(out, CategorySlice{Category: name, Count: g.count, Value: g.value.InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// ComputeProfitLoss derives the current month's P&L from sales and expenses.
func ComputeProfitLoss(transactions []inventory.Transaction, cashflow []inventory.CashflowEntry, now time.Time, loc *time.Location) ProfitLoss {
	revenue := decimal.Zero
	cogs := decimal.Zero
	for _, tx := range transactions {
		if tx.Type != inventory.TransactionSale || !inMonth(tx.Date, now, loc) {
			continue
		}
		revenue = revenue.Add(decimal.NewFromFloat(tx.TotalAmount))
		line := decimal.NewFromInt(int64(tx.Quantity)).Mul(decimal.NewFromFloat(tx.UnitPrice))
		cogs = cogs.Add(line.Mul(COGSRatio))
	}
	_, expenses := monthlyTotals(cashflow, now, loc)
	gross := revenue.Sub(cogs)
	margin := decimal.Zero
	if !revenue.IsZero() {
		margin = gross.Div(revenue).Mul(hundred)
	}
	return ProfitLoss{
		Period:      periodOf(now, loc),
		Revenue:     revenue.InexactFloat64(),
		COGS:        cogs.InexactFloat64(),
		GrossProfit: gross.InexactFloat64(),
		Expenses:    expenses.InexactFloat64(),
		NetProfit:   gross.Sub(expenses).InexactFloat64(),
		GrossMargin: margin.InexactFloat64(),
	}
}

// MonthlyCashflow buckets entries by YYYY-MM in loc, ascending. Undated
// entries are ignored.
func MonthlyCashflow(entries []inventory.CashflowEntry, loc *time.Location) []MonthlyPoint {
	type acc struct{ income, expense decimal.Decimal }
	buckets := make(map[string]*acc)
	for _, e := range entries {
		t, ok := ParseDate(e.Date, loc)
		if !ok {
			continue
		}
		key := t.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &acc{income: decimal.Zero, expense: decimal.Zero}
			buckets[key] = b
		}
		amount := decimal.NewFromFloat(e.Amount)
		switch e.Type {
		case inventory.CashflowIncome:
			b.income = b.income.Add(amount)
		case inventory.CashflowExpense:
			b.expense = b.expense.Add(amount)
		}
	}
	out := make([]MonthlyPoint, 0, len(buckets))
	for period, b := range buckets {
		out = append(out, MonthlyPoint{Period: period, Income: b.income.InexactFloat64(), Expense: b.expense.InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// BuildInventoryReport combines value, low stock and category breakdown.
func BuildInventoryReport(products []inventory.Product) InventoryReport {
	active := 0
	for _, p := range products {
		if p.IsActive() {
			active++
		}
	}
	return InventoryReport{
		TotalProducts: active,
		TotalValue:    InventoryValue(products),
		LowStock:      LowStock(products),
		Categories:    CategoryBreakdown(products),
	}
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

// maxSerialDate is the spreadsheet serial number of 9999-12-31.
const maxSerialDate = 2958465

// ParseDate accepts RFC3339 timestamps, a handful of zone-less layouts and
// spreadsheet serial dates (days since 1899-12-30, fraction as time of day).
// Zone-less values are interpreted in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.In(loc), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial >= 1 && serial <= maxSerialDate {
		days := math.Floor(serial)
		seconds := math.Round((serial - days) * 86400)
		epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, loc)
		return epoch.AddDate(0, 0, int(days)).Add(time.Duration(seconds) * time.Second), true
	}
	return time.Time{}, false
}

func inMonth(raw string, now time.Time, loc *time.Location) bool {
	t, ok := ParseDate(raw, loc)
	if !ok {
		return false
	}
	if loc == nil {
		loc = time.Local
	}
	ref := now.In(loc)
	return t.Year() == ref.Year() && t.Month() == ref.Month()
}

func monthlyTotals(entries []inventory.CashflowEntry, now time.Time, loc *time.Location) (decimal.Decimal, decimal.Decimal) {
	income := decimal.Zero
	expense := decimal.Zero
	for _, e := range entries {
		if !inMonth(e.Date, now, loc) {
			continue
		}
		amount := decimal.NewFromFloat(e.Amount)
		switch e.Type {
		case inventory.CashflowIncome:
			income = income.Add(amount)
		case inventory.CashflowExpense:
			expense = expense.Add(amount)
		}
	}
	return income, expense
}

func stockValue(p inventory.Product) decimal.Decimal {
	return decimal.NewFromInt(int64(p.CurrentStock)).Mul(decimal.NewFromFloat(p.UnitCost))
}

func periodOf(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return now.In(loc).Format("2006-01")
}
