// Package chart renders derived indicator series as PNG images. Rendering is
// presentation only and never feeds back into computed values.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"QuantPanel/internal/domain/models"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Kind selects which chart to render.
type Kind string

const (
	KindZScore     Kind = "zscore"
	KindStochastic Kind = "stochastic"
	KindHistogram  Kind = "histogram"
)

// HistogramBins is the fixed bin count of the Z-score distribution chart.
const HistogramBins = 100

var (
	ErrUnknownKind = errors.New("unknown chart kind")
	ErrTooFewRows  = errors.New("at least two rows are needed to chart")
)

func Kinds() []Kind { return []Kind{KindZScore, KindStochastic, KindHistogram} }

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Options controls image size and x-axis mode. Categorical uses the row index
// as x so session gaps of intraday data are not drawn.
type Options struct {
	Width       int
	Height      int
	Categorical bool
}

var (
	colorLine    = drawing.ColorFromHex("1f77b4")
	colorBand    = drawing.ColorFromHex("d62728")
	colorBuy     = drawing.ColorFromHex("2ca02c")
	colorMid     = drawing.ColorFromHex("7f7f7f")
	colorSellBg  = drawing.Color{R: 214, G: 39, B: 40, A: 40}
	colorBuyBg   = drawing.Color{R: 44, G: 160, B: 44, A: 40}
	colorPlainBg = drawing.ColorWhite
)

// Render writes the requested chart of ds as PNG.
func Render(w io.Writer, kind Kind, ds *models.DerivedSeries, opts Options) error {
	if ds == nil || len(ds.Rows) < 2 {
		return ErrTooFewRows
	}
	if opts.Width <= 0 {
		opts.Width = 1024
	}
	if opts.Height <= 0 {
		opts.Height = 400
	}

	switch kind {
	case KindZScore:
		return zscoreChart(ds, opts).Render(chart.PNG, w)
	case KindStochastic:
		return stochasticChart(ds, opts).Render(chart.PNG, w)
	case KindHistogram:
		bc, err := histogramChart(ds, opts)
		if err != nil {
			return err
		}
		return bc.Render(chart.PNG, w)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func zscoreChart(ds *models.DerivedSeries, opts Options) *chart.Chart {
	z := ds.ZScores()
	lo, hi := floats.Min(z), floats.Max(z)
	lo, hi = min(lo, models.ZScoreLowerBand)-0.5, max(hi, models.ZScoreUpperBand)+0.5

	c := baseChart(ds, opts, fmt.Sprintf("%s Z-score", ds.Symbol), lo, hi)
	c.Series = []chart.Series{
		line(ds, opts, "Z-score", z, chart.Style{StrokeColor: colorLine, StrokeWidth: 1.5}),
		level(ds, opts, "+2", models.ZScoreUpperBand, chart.Style{StrokeColor: colorBand, StrokeDashArray: []float64{5, 5}}),
		level(ds, opts, "-2", models.ZScoreLowerBand, chart.Style{StrokeColor: colorBuy, StrokeDashArray: []float64{5, 5}}),
		level(ds, opts, "0", 0, chart.Style{StrokeColor: colorMid, StrokeWidth: 0.5}),
	}
	c.Elements = []chart.Renderable{chart.LegendLeft(c)}
	return c
}

// stochasticChart shades 80-100 and 0-20 by layering filled levels under the
// oscillator line; fills extend down to the axis minimum.
func stochasticChart(ds *models.DerivedSeries, opts Options) *chart.Chart {
	c := baseChart(ds, opts, fmt.Sprintf("%s stochastic", ds.Symbol), 0, 100)
	c.Series = []chart.Series{
		level(ds, opts, "", 100, chart.Style{FillColor: colorSellBg, StrokeWidth: 0.1, StrokeColor: colorSellBg}),
		level(ds, opts, "", models.StochasticSellZone, chart.Style{FillColor: colorPlainBg, StrokeColor: colorBand, StrokeWidth: 0.5}),
		level(ds, opts, "", models.StochasticBuyZone, chart.Style{FillColor: colorBuyBg, StrokeColor: colorBuy, StrokeWidth: 0.5}),
		level(ds, opts, "", models.StochasticMidline, chart.Style{StrokeColor: colorMid, StrokeDashArray: []float64{5, 5}}),
		line(ds, opts, "Stochastic", ds.Stochastics(), chart.Style{StrokeColor: colorLine, StrokeWidth: 1.5}),
	}
	return c
}

func histogramChart(ds *models.DerivedSeries, opts Options) (*chart.BarChart, error) {
	z := ds.ZScores()
	edges, counts := Histogram(z, HistogramBins)
	last, _ := ds.Last()
	current := BinIndex(edges, last.ZScore)

	bars := make([]chart.Value, len(counts))
	maxCount := 0.0
	for i, n := range counts {
		label := ""
		if i%10 == 0 {
			label = fmt.Sprintf("%.1f", (edges[i]+edges[i+1])/2)
		}
		style := chart.Style{FillColor: colorLine, StrokeColor: colorLine}
		if i == current {
			style = chart.Style{FillColor: colorBand, StrokeColor: colorBand}
			label = fmt.Sprintf("now %.2f", last.ZScore)
		}
		bars[i] = chart.Value{Value: n, Label: label, Style: style}
		maxCount = max(maxCount, n)
	}
	if maxCount == 0 {
		return nil, errors.New("empty histogram")
	}

	barWidth := max(2, (opts.Width-80)/len(bars)-1)
	return &chart.BarChart{
		Title:      fmt.Sprintf("%s Z-score distribution", ds.Symbol),
		Width:      opts.Width,
		Height:     opts.Height,
		BarWidth:   barWidth,
		BarSpacing: 1,
		XAxis:      chart.Style{FontSize: 7},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxCount * 1.1},
		},
		Bars: bars,
	}, nil
}

// Histogram counts values into bins equal-width bins spanning [min, max].
// It returns bins+1 edges. A constant input widens the span by ±0.5.
func Histogram(values []float64, bins int) (edges, counts []float64) {
	x := make([]float64, len(values))
	copy(x, values)
	sort.Float64s(x)

	lo, hi := x[0], x[len(x)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges = make([]float64, bins+1)
	floats.Span(edges, lo, hi)
	// stat.Histogram excludes the upper edge; nudge it so max is counted.
	edges[bins] = math.Nextafter(hi, math.Inf(1))
	counts = stat.Histogram(nil, edges, x, nil)
	return edges, counts
}

// BinIndex returns the bin holding v, or -1 when v is outside the edges.
func BinIndex(edges []float64, v float64) int {
	if v < edges[0] || v >= edges[len(edges)-1] {
		return -1
	}
	return sort.Search(len(edges), func(i int) bool { return edges[i] > v }) - 1
}

func baseChart(ds *models.DerivedSeries, opts Options, title string, lo, hi float64) *chart.Chart {
	c := &chart.Chart{
		Title:  title,
		Width:  opts.Width,
		Height: opts.Height,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
	}
	if opts.Categorical {
		times := make([]time.Time, len(ds.Rows))
		for i, r := range ds.Rows {
			times[i] = r.Time
		}
		c.XAxis = chart.XAxis{ValueFormatter: func(v interface{}) string {
			f, ok := v.(float64)
			if !ok {
				return ""
			}
			i := int(f)
			if i < 0 || i >= len(times) {
				return ""
			}
			return times[i].Format("01-02 15:04")
		}}
	} else {
		c.XAxis = chart.XAxis{ValueFormatter: chart.TimeDateValueFormatter}
	}
	return c
}

func line(ds *models.DerivedSeries, opts Options, name string, ys []float64, style chart.Style) chart.Series {
	if opts.Categorical {
		xs := make([]float64, len(ys))
		for i := range xs {
			xs[i] = float64(i)
		}
		return chart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, Style: style}
	}
	xs := make([]time.Time, len(ds.Rows))
	for i, r := range ds.Rows {
		xs[i] = r.Time
	}
	return chart.TimeSeries{Name: name, XValues: xs, YValues: ys, Style: style}
}

func level(ds *models.DerivedSeries, opts Options, name string, y float64, style chart.Style) chart.Series {
	ys := make([]float64, len(ds.Rows))
	for i := range ys {
		ys[i] = y
	}
	return line(ds, opts, name, ys, style)
}
