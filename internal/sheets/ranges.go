// Package sheets maps inventory entities onto the named ranges of a single
// spreadsheet and talks to the spreadsheet values API.
package sheets

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// maxRow bounds every read range, matching the sheet template.
const maxRow = 1000

// Layout describes a fixed column layout of one named range.
type Layout struct {
	Sheet   string
	Columns []string
}

// Layouts of the four ranges. Column order is a persisted contract.
var (
	ProductsLayout = Layout{Sheet: "Products", Columns: []string{
		"id", "name", "sku", "category", "currentStock", "minStock", "maxStock",
		"unitCost", "sellingPrice", "supplier", "lastUpdated", "status",
	}}
	TransactionsLayout = Layout{Sheet: "Transactions", Columns: []string{
		"id", "productId", "productName", "type", "quantity", "unitPrice",
		"totalAmount", "date", "notes",
	}}
	CashflowLayout = Layout{Sheet: "Cashflow", Columns: []string{
		"id", "date", "type", "amount", "description", "category", "transactionId",
	}}
	AuditLogsLayout = Layout{Sheet: "AuditLogs", Columns: []string{
		"id", "userId", "action", "entityType", "entityId", "changes", "timestamp",
	}}
)

// Layouts lists every managed range.
func Layouts() []Layout {
	return []Layout{ProductsLayout, TransactionsLayout, CashflowLayout, AuditLogsLayout}
}

// Width is the number of columns.
func (l Layout) Width() int {
	return len(l.Columns)
}

// LastColumn is the A1 letter of the rightmost column.
func (l Layout) LastColumn() string {
	return columnName(l.Width())
}

// ReadRange covers every data row below the header, e.g. Products!A2:L1000.
func (l Layout) ReadRange() string {
	return fmt.Sprintf("%s!A2:%s%d", l.Sheet, l.LastColumn(), maxRow)
}

// AppendRange addresses the whole table, e.g. Products!A:L.
func (l Layout) AppendRange() string {
	return fmt.Sprintf("%s!A:%s", l.Sheet, l.LastColumn())
}

// RowRange addresses the data row at zero-based index, skipping the header.
func (l Layout) RowRange(index int) string {
	row := index + 2
	return fmt.Sprintf("%s!A%d:%s%d", l.Sheet, row, l.LastColumn(), row)
}

// columnName converts a 1-based column number to letters (1 -> A, 27 -> AA).
func columnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func columnNumber(letters string) (int, error) {
	if letters == "" {
		return 0, errors.New("sheets: empty column")
	}
	n := 0
	for _, r := range letters {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("sheets: invalid column %q", letters)
		}
		n = n*26 + int(r-'A'+1)
	}
	return n, nil
}

// a1Range is a parsed A1 reference. Rows are 1-based, 0 means open ended.
type a1Range struct {
	sheet    string
	startCol int
	endCol   int
	startRow int
	endRow   int
}

func parseA1(ref string) (a1Range, error) {
	sheet, cells, ok := strings.Cut(ref, "!")
	if !ok || sheet == "" {
		return a1Range{}, fmt.Errorf("sheets: range %q has no sheet", ref)
	}
	start, end, ok := strings.Cut(cells, ":")
	if !ok {
		end = start
	}
	startCol, startRow, err := parseCell(start)
	if err != nil {
		return a1Range{}, err
	}
	endCol, endRow, err := parseCell(end)
	if err != nil {
		return a1Range{}, err
	}
	return a1Range{sheet: sheet, startCol: startCol, endCol: endCol, startRow: startRow, endRow: endRow}, nil
}

func parseCell(cell string) (int, int, error) {
	i := 0
	for i < len(cell) && cell[i] >= 'A' && cell[i] <= 'Z' {
		i++
	}
	col, err := columnNumber(cell[:i])
	if err != nil {
		return 0, 0, err
	}
	if i == len(cell) {
		return col, 0, nil
	}
	row, err := strconv.Atoi(cell[i:])
	if err != nil || row <= 0 {
		return 0, 0, fmt.Errorf("sheets: invalid row in %q", cell)
	}
	return col, row, nil
}
