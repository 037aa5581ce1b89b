// Package render draws chart results as PNG images.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/flightdash/internal/charts"
)

// ErrNothingToRender is returned for results that carry a notice instead of
// a payload.
var ErrNothingToRender = errors.New("nothing to render")

// Options controls the image size.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions returns the dashboard image size.
func DefaultOptions() Options {
	return Options{Width: 960, Height: 480}
}

// set2 is the qualitative palette used for per-carrier colors.
var set2 = []string{"66c2a5", "fc8d62", "8da0cb", "e78ac3", "a6d854", "ffd92f", "e5c494", "b3b3b3"}

func paletteColor(i int) drawing.Color {
	return drawing.ColorFromHex(set2[i%len(set2)])
}

// PNG writes res as a PNG image.
func PNG(w io.Writer, res charts.Result, opt Options) error {
	if !res.OK() {
		return fmt.Errorf("%w: %s", ErrNothingToRender, res.Notice)
	}
	if opt.Width <= 0 || opt.Height <= 0 {
		opt = DefaultOptions()
	}
	spec := charts.Lookup(res.Chart)
	switch {
	case res.Boxes != nil:
		return boxes(w, spec, res.Boxes, opt)
	case res.Hours != nil:
		return hours(w, spec, res.Hours, opt)
	case res.Histogram != nil:
		return histogram(w, spec, res.Histogram, opt)
	case res.Points != nil:
		return scatter(w, spec, res.Points, opt)
	case res.LateRates != nil:
		return lateRates(w, spec, res.LateRates, opt)
	}
	return ErrNothingToRender
}

func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    3,
		DotColor:    col,
	}
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{StrokeWidth: 2, StrokeColor: col}
}

// padded returns a range around lo..hi that is never zero-width.
func padded(lo, hi float64) *chart.ContinuousRange {
	if lo == hi {
		return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func newChart(spec charts.Spec, opt Options) chart.Chart {
	return chart.Chart{
		Title:      spec.Title,
		Width:      opt.Width,
		Height:     opt.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
	}
}

func boxes(w io.Writer, spec charts.Spec, bs []charts.CarrierBox, opt Options) error {
	if len(bs) == 0 {
		return ErrNothingToRender
	}
	ch := newChart(spec, opt)
	lo, hi := math.Inf(1), math.Inf(-1)
	var ticks []chart.Tick
	for i, b := range bs {
		x := float64(i + 1)
		col := paletteColor(i)
		ticks = append(ticks, chart.Tick{Value: x, Label: b.Carrier})
		lo, hi = math.Min(lo, b.Min), math.Max(hi, b.Max)

		ch.Series = append(ch.Series,
			chart.ContinuousSeries{
				Name:    b.Carrier,
				XValues: []float64{x - 0.3, x + 0.3, x + 0.3, x - 0.3, x - 0.3},
				YValues: []float64{b.Q1, b.Q1, b.Q3, b.Q3, b.Q1},
				Style:   lineStyle(col),
			},
			chart.ContinuousSeries{
				XValues: []float64{x - 0.3, x + 0.3},
				YValues: []float64{b.Median, b.Median},
				Style:   lineStyle(drawing.ColorBlack),
			},
			chart.ContinuousSeries{
				XValues: []float64{x, x},
				YValues: []float64{b.Q3, b.UpperFence},
				Style:   lineStyle(col),
			},
			chart.ContinuousSeries{
				XValues: []float64{x, x},
				YValues: []float64{b.LowerFence, b.Q1},
				Style:   lineStyle(col),
			},
		)
		if len(b.Outliers) > 0 {
			xs := make([]float64, len(b.Outliers))
			for j := range xs {
				xs[j] = x
			}
			ch.Series = append(ch.Series, chart.ContinuousSeries{XValues: xs, YValues: b.Outliers, Style: pointStyle(col)})
		}
	}
	ch.XAxis = chart.XAxis{Name: spec.XLabel, Ticks: ticks, Range: &chart.ContinuousRange{Min: 0.5, Max: float64(len(bs)) + 0.5}}
	ch.YAxis = chart.YAxis{Name: spec.YLabel, Range: padded(lo, hi)}
	return ch.Render(chart.PNG, w)
}

func hours(w io.Writer, spec charts.Spec, hs []charts.HourMean, opt Options) error {
	if len(hs) == 0 {
		return ErrNothingToRender
	}
	xs := make([]float64, len(hs))
	ys := make([]float64, len(hs))
	var ticks []chart.Tick
	for i, h := range hs {
		xs[i], ys[i] = float64(h.Hour), h.DepDelay
		ticks = append(ticks, chart.Tick{Value: xs[i], Label: strconv.Itoa(h.Hour)})
	}
	lo, hi := ys[0], ys[0]
	for _, y := range ys {
		lo, hi = math.Min(lo, y), math.Max(hi, y)
	}
	col := paletteColor(0)
	ch := newChart(spec, opt)
	ch.Series = []chart.Series{chart.ContinuousSeries{
		XValues: xs,
		YValues: ys,
		Style:   chart.Style{StrokeWidth: 2, StrokeColor: col, DotWidth: 4, DotColor: col},
	}}
	ch.XAxis = chart.XAxis{Name: spec.XLabel, Ticks: ticks, Range: &chart.ContinuousRange{Min: xs[0] - 0.5, Max: xs[len(xs)-1] + 0.5}}
	ch.YAxis = chart.YAxis{Name: spec.YLabel, Range: padded(lo, hi)}
	return ch.Render(chart.PNG, w)
}

func scatter(w io.Writer, spec charts.Spec, pts []charts.ScatterPoint, opt Options) error {
	if len(pts) == 0 {
		return ErrNothingToRender
	}
	type xy struct{ xs, ys []float64 }
	groups := map[string]*xy{}
	xlo, xhi := pts[0].Distance, pts[0].Distance
	ylo, yhi := pts[0].ArrDelay, pts[0].ArrDelay
	for _, p := range pts {
		g := groups[p.Carrier]
		if g == nil {
			g = &xy{}
			groups[p.Carrier] = g
		}
		g.xs = append(g.xs, p.Distance)
		g.ys = append(g.ys, p.ArrDelay)
		xlo, xhi = math.Min(xlo, p.Distance), math.Max(xhi, p.Distance)
		ylo, yhi = math.Min(ylo, p.ArrDelay), math.Max(yhi, p.ArrDelay)
	}
	names := make([]string, 0, len(groups))
	for k := range groups {
		names = append(names, k)
	}
	sort.Strings(names)

	ch := newChart(spec, opt)
	for i, n := range names {
		label := n
		if label == "" {
			label = "unknown"
		}
		ch.Series = append(ch.Series, chart.ContinuousSeries{
			Name:    label,
			XValues: groups[n].xs,
			YValues: groups[n].ys,
			Style:   pointStyle(paletteColor(i)),
		})
	}
	ch.XAxis = chart.XAxis{Name: spec.XLabel, Range: padded(xlo, xhi)}
	ch.YAxis = chart.YAxis{Name: spec.YLabel, Range: padded(ylo, yhi)}
	if len(names) > 1 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch.Render(chart.PNG, w)
}

func histogram(w io.Writer, spec charts.Spec, h *charts.Histogram, opt Options) error {
	bars := make([]chart.Value, len(h.Counts))
	top := 0
	for i, c := range h.Counts {
		bars[i] = chart.Value{Value: float64(c), Style: chart.Style{FillColor: paletteColor(0), StrokeColor: paletteColor(0)}}
		if i%10 == 0 {
			bars[i].Label = strconv.FormatFloat(h.Edges[i], 'f', 0, 64)
		}
		if c > top {
			top = c
		}
	}
	return barChart(w, spec, bars, float64(top), opt)
}

func lateRates(w io.Writer, spec charts.Spec, rs []charts.MonthLateRate, opt Options) error {
	if len(rs) == 0 {
		return ErrNothingToRender
	}
	bars := make([]chart.Value, len(rs))
	top := 0.0
	for i, r := range rs {
		bars[i] = chart.Value{
			Value: r.LateRatePct,
			Label: strconv.Itoa(r.Month),
			Style: chart.Style{FillColor: paletteColor(i), StrokeColor: paletteColor(i)},
		}
		top = math.Max(top, r.LateRatePct)
	}
	return barChart(w, spec, bars, top, opt)
}

func barChart(w io.Writer, spec charts.Spec, bars []chart.Value, top float64, opt Options) error {
	if top <= 0 {
		top = 1
	}
	bc := chart.BarChart{
		Title:      spec.Title,
		Width:      opt.Width,
		Height:     opt.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		BarWidth:   max(2, (opt.Width-80)/(2*len(bars))),
		BarSpacing: 1,
		YAxis: chart.YAxis{
			Name:  spec.YLabel,
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.05},
		},
		Bars: bars,
	}
	return bc.Render(chart.PNG, w)
}
