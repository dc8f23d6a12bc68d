package svg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBarsProducesSVG(t *testing.T) {
	out, err := Bars(420, 220, []Group{
		{Label: "2025-01", A: 500, B: 300},
		{Label: "2025-02", A: 600, B: 1200},
	}, BarOpts{Title: "Cashflow", SeriesALabel: "Income", SeriesBLabel: "Expense"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "<svg"))
	require.True(t, strings.HasSuffix(out, "</svg>"))
	require.Equal(t, 6, strings.Count(out, "<rect"))
	require.Contains(t, out, "2025-02")
	require.Contains(t, out, "1.2k")
}

func TestBarsEscapesLabels(t *testing.T) {
	out, err := Bars(0, 0, []Group{{Label: "<q1>", A: 1}}, BarOpts{Title: "A & B"})
	require.NoError(t, err)
	require.NotContains(t, out, "<q1>")
	require.Contains(t, out, "&lt;q1&gt;")
	require.Contains(t, out, "A &amp; B")
}

func TestBarsRejectsEmpty(t *testing.T) {
	_, err := Bars(100, 100, nil, BarOpts{})
	require.ErrorIs(t, err, ErrNoData)

	_, err = Bars(40, 40, []Group{{Label: "x"}}, BarOpts{Padding: 30})
	require.Error(t, err)
}
