package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockboard/internal/analytics"
	"github.com/odyssey-erp/stockboard/internal/inventory"
)

func readCSV(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteProductsCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteProductsCSV(buf, []inventory.Product{
		{ID: "product_1", Name: "Widget, large", SKU: "W-1", CurrentStock: 7, UnitCost: 2, Status: inventory.StatusActive},
	}))
	records := readCSV(t, buf)
	require.Len(t, records, 2)
	require.Len(t, records[0], 12)
	require.Equal(t, "Widget, large", records[1][1])
	require.Equal(t, "7", records[1][4])
	require.Equal(t, "2.00", records[1][7])
}

func TestWriteProfitLossCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteProfitLossCSV(buf, analytics.ProfitLoss{Period: "2025-06", Revenue: 35, COGS: 21}))
	records := readCSV(t, buf)
	require.Equal(t, []string{"Metric", "Value"}, records[0])
	require.Equal(t, []string{"Revenue", "35.00"}, records[2])
}

func TestWriteEmptyCollections(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteCashflowCSV(buf, nil))
	require.Len(t, readCSV(t, buf), 1)

	buf.Reset()
	require.NoError(t, WriteTransactionsCSV(buf, nil))
	require.Len(t, readCSV(t, buf), 1)

	buf.Reset()
	require.NoError(t, WriteCategoriesCSV(buf, []analytics.CategorySlice{{Category: "Parts", Count: 2, Value: 64}}))
	require.Equal(t, []string{"Parts", "2", "64.00"}, readCSV(t, buf)[1])

	buf.Reset()
	require.NoError(t, WriteMonthlyCashflowCSV(buf, []analytics.MonthlyPoint{{Period: "2025-06", Income: 1}}))
	require.Equal(t, []string{"2025-06", "1.00", "0.00"}, readCSV(t, buf)[1])
}
