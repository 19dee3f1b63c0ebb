// Package render draws chart specs as PNG images using go-chart.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/JonMunkholm/dataforge/internal/core"
)

// Defaults for a zero Renderer.
const (
	DefaultWidth  = 800
	DefaultHeight = 480

	// MaxBars caps a bar chart; later rows are left out.
	MaxBars = 200
)

// ErrNothingToDraw is returned when a chart has no present values.
var ErrNothingToDraw = errors.New("no values to draw")

// Renderer turns a ChartSpec plus its Dataset into a PNG.
// Bins fixes the histogram bin count; 0 uses Sturges' rule.
type Renderer struct {
	Width  int
	Height int
	Bins   int
}

// Render writes spec drawn over d to w as PNG.
func (r Renderer) Render(w io.Writer, d *core.Dataset, spec core.ChartSpec) error {
	var err error
	switch spec.Kind {
	case core.ChartBar:
		err = r.bar(w, d, spec)
	case core.ChartScatter:
		err = r.scatter(w, d, spec)
	case core.ChartHistogram:
		err = r.histogram(w, d, spec)
	case core.ChartPie:
		err = r.pie(w, d, spec)
	default:
		err = fmt.Errorf("unknown chart kind %q", spec.Kind)
	}
	if err != nil {
		return fmt.Errorf("render chart %s: %w: %w", spec.Kind, core.ErrChartFailed, err)
	}
	return nil
}

func (r Renderer) size() (int, int) {
	w, h := r.Width, r.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// pointStyle draws dots only, with no connecting line.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

var background = chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}

// bar draws one bar per row: label from X, height from Y.
func (r Renderer) bar(w io.Writer, d *core.Dataset, spec core.ChartSpec) error {
	xs, ys, err := core.Points(d, spec.X, spec.Y)
	if err != nil {
		return err
	}
	if len(xs) == 0 {
		return ErrNothingToDraw
	}
	if len(xs) > MaxBars {
		xs, ys = xs[:MaxBars], ys[:MaxBars]
	}

	bars := make([]chart.Value, len(xs))
	for i := range xs {
		bars[i] = chart.Value{Label: core.FormatNumber(xs[i]), Value: ys[i]}
	}

	lo, hi := niceAxisBounds(math.Min(0, floats.Min(ys)), math.Max(0, floats.Max(ys)))
	width, height := r.size()
	bc := chart.BarChart{
		Title:      spec.Title,
		Width:      width,
		Height:     height,
		Background: background,
		BarWidth:   barWidth(width, len(bars)),
		Bars:       bars,
		YAxis:      chart.YAxis{Name: spec.Y, Range: &chart.ContinuousRange{Min: lo, Max: hi}},
	}
	return bc.Render(chart.PNG, w)
}

// barWidth shrinks bars so that n of them fit across the canvas.
func barWidth(width, n int) int {
	bw := (width - 80) / (2 * n)
	return min(max(bw, 1), 50)
}

func (r Renderer) scatter(w io.Writer, d *core.Dataset, spec core.ChartSpec) error {
	xs, ys, err := core.Points(d, spec.X, spec.Y)
	if err != nil {
		return err
	}
	if len(xs) == 0 {
		return ErrNothingToDraw
	}

	xlo, xhi := niceAxisBounds(floats.Min(xs), floats.Max(xs))
	ylo, yhi := niceAxisBounds(floats.Min(ys), floats.Max(ys))
	width, height := r.size()
	ch := chart.Chart{
		Title:      spec.Title,
		Width:      width,
		Height:     height,
		Background: background,
		XAxis:      chart.XAxis{Name: spec.X, Range: &chart.ContinuousRange{Min: xlo, Max: xhi}},
		YAxis:      chart.YAxis{Name: spec.Y, Range: &chart.ContinuousRange{Min: ylo, Max: yhi}},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    spec.Y,
				XValues: xs,
				YValues: ys,
				Style:   pointStyle(chart.ColorBlue),
			},
		},
	}
	return ch.Render(chart.PNG, w)
}

func (r Renderer) histogram(w io.Writer, d *core.Dataset, spec core.ChartSpec) error {
	values, err := core.NumericValues(d, spec.X)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return ErrNothingToDraw
	}

	edges, counts := HistogramBins(values, r.Bins)
	bars := make([]chart.Value, len(counts))
	for i, c := range counts {
		bars[i] = chart.Value{Label: formatTick(edges[i]), Value: c}
	}

	_, hi := niceAxisBounds(0, floats.Max(counts))
	width, height := r.size()
	bc := chart.BarChart{
		Title:      spec.Title,
		Width:      width,
		Height:     height,
		Background: background,
		BarWidth:   barWidth(width, len(bars)),
		BarSpacing: 2,
		Bars:       bars,
		YAxis:      chart.YAxis{Name: "count", Range: &chart.ContinuousRange{Min: 0, Max: hi}},
	}
	return bc.Render(chart.PNG, w)
}

// HistogramBins splits values into equal-width bins and counts each.
// bins <= 0 picks Sturges' rule, ceil(log2 n) + 1. edges has one more
// element than counts; the last bin includes the maximum.
func HistogramBins(values []float64, bins int) (edges, counts []float64) {
	if len(values) == 0 {
		return nil, nil
	}
	if bins <= 0 {
		bins = int(math.Ceil(math.Log2(float64(len(values))))) + 1
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	edges = make([]float64, bins+1)
	floats.Span(edges, lo, hi)

	// stat.Histogram treats the last edge as exclusive.
	dividers := make([]float64, len(edges))
	copy(dividers, edges)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts = stat.Histogram(nil, dividers, sorted, nil)
	return edges, counts
}

// pie draws one slice per category. Slices that sum to zero or less cannot
// be drawn and are left out.
func (r Renderer) pie(w io.Writer, d *core.Dataset, spec core.ChartSpec) error {
	slices, err := core.PieSlices(d, spec)
	if err != nil {
		return err
	}

	values := make([]chart.Value, 0, len(slices))
	for _, s := range slices {
		if s.Value > 0 {
			values = append(values, chart.Value{Label: s.Label, Value: s.Value})
		}
	}
	if len(values) == 0 {
		return ErrNothingToDraw
	}

	width, height := r.size()
	pc := chart.PieChart{
		Title:      spec.Title,
		Width:      width,
		Height:     height,
		Background: background,
		Values:     values,
	}
	return pc.Render(chart.PNG, w)
}

// niceAxisBounds pads [min, max] by 5% and rounds outward to the span's
// order of magnitude. A zero span is widened to 1.
func niceAxisBounds(min, max float64) (float64, float64) {
	if max <= min {
		max = min + 1
	}
	span := max - min
	pad := span * 0.05
	a := min - pad
	b := max + pad
	mag := math.Pow(10, math.Floor(math.Log10(span)))
	if !math.IsInf(mag, 0) && mag > 0 {
		a = math.Floor(a/mag) * mag
		b = math.Ceil(b/mag) * mag
	}
	if min >= 0 && a < 0 {
		a = 0
	}
	return a, b
}

func formatTick(v float64) string {
	av := math.Abs(v)
	switch {
	case v == 0:
		return "0"
	case av >= 100:
		return fmt.Sprintf("%.0f", v)
	case av >= 10:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
