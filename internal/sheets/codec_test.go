package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseIntCell(t *testing.T) {
	cases := map[string]int{
		"":       0,
		"7":      7,
		" 12 ":   12,
		"-3":     -3,
		"15.9":   15,
		"20 pcs": 20,
		"abc":    0,
	}
	for in, want := range cases {
		require.Equal(t, want, parseIntCell(in), "input %q", in)
	}
}

func TestParseFloatCell(t *testing.T) {
	cases := map[string]float64{
		"":        0,
		"2.5":     2.5,
		".5":      0.5,
		"1e3":     1000,
		"9.99USD": 9.99,
		"-4":      -4,
		"NaN":     0,
		"Inf":     0,
	}
	for in, want := range cases {
		require.InDelta(t, want, parseFloatCell(in), 0.00001, "input %q", in)
	}
}

func TestFormatCell(t *testing.T) {
	require.Equal(t, "", formatCell(nil))
	require.Equal(t, "3", formatCell(3))
	require.Equal(t, "2.5", formatCell(2.5))
	require.Equal(t, "10", formatCell(float64(10)))
	require.Equal(t, "TRUE", formatCell(true))
	require.Equal(t, "x", formatCell("x"))
}

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("PHT", 8*3600)
	ts := time.Date(2025, 1, 2, 8, 0, 0, 123000000, loc)
	require.Equal(t, "2025-01-02T00:00:00.123Z", FormatTimestamp(ts))
}

func TestRanges(t *testing.T) {
	require.Equal(t, "Products!A2:L1000", ProductsLayout.ReadRange())
	require.Equal(t, "Transactions!A2:I1000", TransactionsLayout.ReadRange())
	require.Equal(t, "Cashflow!A2:G1000", CashflowLayout.ReadRange())
	require.Equal(t, "AuditLogs!A2:G1000", AuditLogsLayout.ReadRange())
	require.Equal(t, "Products!A:L", ProductsLayout.AppendRange())
	require.Equal(t, "Products!A4:L4", ProductsLayout.RowRange(2))
	require.Equal(t, "AA", columnName(27))
}
