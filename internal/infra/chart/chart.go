// Package chart renders monthly income/expense trends as PNG images.
package chart

import (
	"bytes"
	"fmt"
	"io"

	"github.com/boddenberg/finance-tracker-go/internal/domain"

	"github.com/shopspring/decimal"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 400
)

var (
	incomeColor  = drawing.Color{R: 34, G: 197, B: 94, A: 255}
	expenseColor = drawing.Color{R: 239, G: 68, B: 68, A: 255}
)

// RenderMonthly writes trend as a two-line PNG chart to w.
func RenderMonthly(w io.Writer, trend domain.MonthlyTrend, width, height int) error {
	n := len(trend.Labels)
	if n == 0 {
		return fmt.Errorf("render chart: empty trend")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	// Points sit at 1..n with an empty tick on either side, so a single
	// month still gives the x axis a non-zero range.
	xs := make([]float64, n)
	ticks := make([]gochart.Tick, 0, n+2)
	ticks = append(ticks, gochart.Tick{Value: 0})
	for i, label := range trend.Labels {
		xs[i] = float64(i + 1)
		ticks = append(ticks, gochart.Tick{Value: xs[i], Label: label})
	}
	ticks = append(ticks, gochart.Tick{Value: float64(n + 1)})

	income := toFloats(trend.Income, n)
	expenses := toFloats(trend.Expenses, n)

	top := 0.0
	for i := 0; i < n; i++ {
		top = max(top, income[i], expenses[i])
	}
	if top == 0 {
		top = 1
	} else {
		top *= 1.1
	}

	graph := gochart.Chart{
		Title:  "Monthly Overview",
		Width:  width,
		Height: height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: float64(n + 1)},
			Ticks: ticks,
		},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: top},
			ValueFormatter: func(v interface{}) string {
				if vf, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", vf)
				}
				return ""
			},
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    "Income",
				XValues: xs,
				YValues: income,
				Style:   gochart.Style{StrokeColor: incomeColor, StrokeWidth: 2, DotColor: incomeColor, DotWidth: 3},
			},
			gochart.ContinuousSeries{
				Name:    "Expenses",
				XValues: xs,
				YValues: expenses,
				Style:   gochart.Style{StrokeColor: expenseColor, StrokeWidth: 2, DotColor: expenseColor, DotWidth: 3},
			},
		},
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// MonthlyPNG renders trend at the default size and returns the image bytes.
func MonthlyPNG(trend domain.MonthlyTrend) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderMonthly(&buf, trend, DefaultWidth, DefaultHeight); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toFloats(values []decimal.Decimal, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n && i < len(values); i++ {
		out[i] = values[i].InexactFloat64()
	}
	return out
}
