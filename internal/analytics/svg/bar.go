// Package svg renders small standalone charts for the reports endpoints.
package svg

import (
	"errors"
	"fmt"
	"html"
	"math"
	"strings"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("svg: no data")

// Bars renders a grouped bar chart with two series per group, e.g. monthly
// income against expense. Negative values grow downwards from the zero line.
func Bars(width, height int, groups []Group, opts BarOpts) (string, error) {
	if len(groups) == 0 {
		return "", ErrNoData
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	ticks := opts.TickCount
	if ticks <= 0 {
		ticks = DefaultTicks
	}

	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5e1")
	colorA := fallback(opts.ColorA, "#16a34a")
	colorB := fallback(opts.ColorB, "#dc2626")
	labelA := fallback(opts.SeriesALabel, "Income")
	labelB := fallback(opts.SeriesBLabel, "Expense")

	plotW := float64(width) - 2*padding
	plotH := float64(height) - 2*padding
	if plotW <= 0 || plotH <= 0 {
		return "", fmt.Errorf("svg: viewport %dx%d too small", width, height)
	}

	lo, hi := groupBounds(groups)
	if almostEqual(lo, hi) {
		hi = lo + 1
	}
	scale := plotH / (hi - lo)
	bottom := padding + plotH
	zeroY := bottom - (0-lo)*scale

	slot := plotW / float64(len(groups))
	barW := slot / 3

	titleID := makeID(opts.Title, "title")
	descID := makeID(opts.Title, "desc")

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-labelledby="%s %s">`, width, height, titleID, descID)
	fmt.Fprintf(&b, `<title id="%s">%s</title>`, titleID, html.EscapeString(fallback(opts.Title, "Bar chart")))
	fmt.Fprintf(&b, `<desc id="%s">%s</desc>`, descID, html.EscapeString(fallback(opts.Description, labelA+" vs "+labelB)))

	for i := 0; i <= ticks; i++ {
		ratio := float64(i) / float64(ticks)
		y := bottom - ratio*plotH
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5" stroke-dasharray="2,4"/>`, padding, y, padding+plotW, y, gridColor)
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="end">%s</text>`, padding-6, y+4, axisColor, formatTick(lo+(hi-lo)*ratio))
	}

	fmt.Fprintf(&b, `<g stroke="%s" aria-label="axes">`, axisColor)
	fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>`, padding, padding, padding, bottom)
	fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>`, padding, zeroY, padding+plotW, zeroY)
	b.WriteString(`</g>`)

	for i, g := range groups {
		x := padding + float64(i)*slot
		label := html.EscapeString(g.Label)
		y, h := barPosition(g.A, scale, zeroY, padding, bottom)
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s %s: %s</title></rect>`, x+barW*0.4, y, barW, h, colorA, html.EscapeString(labelA), label, formatTick(g.A))
		y, h = barPosition(g.B, scale, zeroY, padding, bottom)
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s %s: %s</title></rect>`, x+barW*1.6, y, barW, h, colorB, html.EscapeString(labelB), label, formatTick(g.B))
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="middle">%s</text>`, x+slot/2, bottom+14, axisColor, label)
	}

	legendY := math.Max(padding-12, 12)
	fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"/>`, padding, legendY-8, colorA)
	fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10">%s</text>`, padding+14, legendY, axisColor, html.EscapeString(labelA))
	fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"/>`, padding+90, legendY-8, colorB)
	fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10">%s</text>`, padding+104, legendY, axisColor, html.EscapeString(labelB))

	b.WriteString(`</svg>`)
	return b.String(), nil
}

// groupBounds spans every value and always includes zero.
func groupBounds(groups []Group) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, g := range groups {
		lo = math.Min(lo, math.Min(g.A, g.B))
		hi = math.Max(hi, math.Max(g.A, g.B))
	}
	return lo, hi
}

func barPosition(value, scale, zeroY, top, bottom float64) (float64, float64) {
	if value >= 0 {
		h := value * scale
		y := zeroY - h
		if y < top {
			h -= top - y
			y = top
		}
		return y, math.Max(h, 0)
	}
	h := math.Abs(value * scale)
	if zeroY+h > bottom {
		h = bottom - zeroY
	}
	return zeroY, math.Max(h, 0)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}

func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	case almostEqual(v, math.Round(v)):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
