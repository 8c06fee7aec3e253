// Package chart renders category totals as a PNG bar chart and publishes
// the result as a static asset.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"spendbook/internal/core"
)

const (
	Title       = "Expenses by Category"
	XAxisTitle  = "Category"
	YAxisTitle  = "Total Spending"
	chartHeight = 512
	minWidth    = 640
	barWidth    = 50
	barSpacing  = 40
)

var (
	// ErrNoData is returned when there is nothing to plot.
	ErrNoData = errors.New("no expense data to plot")
	// ErrSink wraps failures to store a rendered chart. The image itself
	// rendered fine.
	ErrSink = errors.New("publish chart")
)

// Renderer draws a bar chart of category totals.
type Renderer interface {
	RenderBarChart(w io.Writer, data []core.CategoryAmount) error
}

// BarChartRenderer renders PNG images with go-chart.
type BarChartRenderer struct{}

var _ Renderer = BarChartRenderer{}

func (BarChartRenderer) RenderBarChart(w io.Writer, data []core.CategoryAmount) error {
	if !hasData(data) {
		return ErrNoData
	}

	bars := make([]gochart.Value, 0, len(data))
	for _, c := range data {
		v, _ := c.Amount.Float64()
		bars = append(bars, gochart.Value{Label: c.Name, Value: v})
	}

	graph := gochart.BarChart{
		Title: Title,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 48, Left: 16, Right: 16, Bottom: 48},
		},
		Width:      chartWidth(len(bars)),
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis: gochart.YAxis{
			Name:  YAxisTitle,
			Range: valueRange(bars),
		},
		UseBaseValue: true,
		BaseValue:    0,
		Bars:         bars,
		Elements: []gochart.Renderable{
			axisTitles(XAxisTitle, YAxisTitle),
		},
	}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

// chartWidth grows with the number of bars so labels never overlap.
func chartWidth(bars int) int {
	w := bars*(barWidth+barSpacing) + 200
	if w < minWidth {
		return minWidth
	}
	return w
}

// valueRange spans zero and every bar. Left to itself go-chart scales
// from the smallest bar, which flattens it and fails on a single value.
func valueRange(bars []gochart.Value) *gochart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, b := range bars {
		lo = math.Min(lo, b.Value)
		hi = math.Max(hi, b.Value)
	}
	if lo == hi {
		hi = lo + 1
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}

// hasData reports whether at least one category has a non-zero total.
func hasData(data []core.CategoryAmount) bool {
	for _, c := range data {
		if !c.Amount.IsZero() {
			return true
		}
	}
	return false
}

// axisTitles draws the axis captions; go-chart's bar chart has no slot for
// an x-axis title.
func axisTitles(x, y string) gochart.Renderable {
	return func(r gochart.Renderer, canvas gochart.Box, defaults gochart.Style) {
		style := gochart.Style{
			Font:      defaults.Font,
			FontSize:  10,
			FontColor: drawing.ColorBlack,
		}
		style.WriteTextOptionsToRenderer(r)

		xb := r.MeasureText(x)
		gochart.Draw.Text(r, x, canvas.Left+(canvas.Width()-xb.Width())/2, canvas.Bottom+40, style)
		gochart.Draw.Text(r, y, canvas.Left, canvas.Top-8, style)
	}
}
