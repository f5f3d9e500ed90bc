package render

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/KaramelBytes/ctrlchart-cli/internal/limits"
	"github.com/KaramelBytes/ctrlchart-cli/internal/sample"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNothingToPlot indicates no observation has both a date and a value.
var ErrNothingToPlot = errors.New("no observation has both a valid date and value")

// Labels are the user-facing texts drawn on the chart.
type Labels struct {
	Title  string
	Values string
	Mean   string
	Upper  string
	Lower  string
	XAxis  string
	YAxis  string
}

// DefaultLabels returns the labels used on lab reports.
func DefaultLabels() Labels {
	return Labels{
		Title:  "Carta de Controle",
		Values: "Valores",
		Mean:   "Média",
		Upper:  "LSC (Limite Superior)",
		Lower:  "LIC (Limite Inferior)",
		XAxis:  "Data Coleta",
		YAxis:  "Valor",
	}
}

// Options controls chart size and labels.
type Options struct {
	Width  int
	Height int
	Labels Labels
}

// DefaultOptions renders a 1000x600 chart.
func DefaultOptions() Options {
	return Options{Width: 1000, Height: 600, Labels: DefaultLabels()}
}

var (
	valueColor = chart.ColorBlue
	meanColor  = chart.ColorGreen
	upperColor = chart.ColorRed
	lowerColor = drawing.ColorFromHex("FF8C00")
	dashed     = []float64{6.0, 4.0}
)

// Chart is a rendered control chart.
type Chart struct {
	Title  string
	PNG    []byte
	Width  int
	Height int
}

// Title formats the chart title for an analysis name.
func Title(prefix, analysis string) string {
	if analysis == "" {
		return prefix
	}
	return fmt.Sprintf("%s - %s", prefix, analysis)
}

// RenderChart draws the values of s in sample order against their dates, with
// horizontal lines at the mean and both control limits.
func RenderChart(s *sample.Sample, l limits.ControlLimits, analysis string, opt Options) (*Chart, error) {
	if opt.Width <= 0 || opt.Height <= 0 {
		d := DefaultOptions()
		opt.Width, opt.Height = d.Width, d.Height
	}
	if opt.Labels == (Labels{}) {
		opt.Labels = DefaultLabels()
	}
	lb := opt.Labels

	var xs []time.Time
	var ys []float64
	for _, o := range s.Observations {
		if !o.Plottable() {
			continue
		}
		xs = append(xs, o.Date)
		ys = append(ys, o.Value)
	}
	if len(xs) == 0 {
		return nil, ErrNothingToPlot
	}
	first, last := span(xs)

	title := Title(lb.Title, analysis)
	ch := chart.Chart{
		Title:      title,
		TitleStyle: chart.Style{FontSize: 14},
		Width:      opt.Width,
		Height:     opt.Height,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 30, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:           lb.XAxis,
			ValueFormatter: dateFormatter,
			TickStyle:      chart.Style{TextRotationDegrees: 45.0},
		},
		YAxis: chart.YAxis{
			Name:  lb.YAxis,
			Range: valueRange(ys, l),
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    lb.Values,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: valueColor,
					StrokeWidth: 2,
					DotColor:    valueColor,
					DotWidth:    4,
				},
			},
			referenceLine(lb.Mean, l.Mean, first, last, meanColor),
			referenceLine(lb.Upper, l.Upper, first, last, upperColor),
			referenceLine(lb.Lower, l.Lower, first, last, lowerColor),
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return &Chart{Title: title, PNG: buf.Bytes(), Width: opt.Width, Height: opt.Height}, nil
}

func referenceLine(name string, y float64, first, last time.Time, c drawing.Color) chart.TimeSeries {
	return chart.TimeSeries{
		Name:    name,
		XValues: []time.Time{first, last},
		YValues: []float64{y, y},
		Style: chart.Style{
			StrokeColor:     c,
			StrokeWidth:     1.5,
			StrokeDashArray: dashed,
		},
	}
}

// span returns the date range of xs, widened by a day on each side when all
// dates coincide so the axis never collapses.
func span(xs []time.Time) (first, last time.Time) {
	first, last = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x.Before(first) {
			first = x
		}
		if x.After(last) {
			last = x
		}
	}
	if first.Equal(last) {
		first = first.AddDate(0, 0, -1)
		last = last.AddDate(0, 0, 1)
	}
	return first, last
}

// valueRange covers the data and all three reference lines with some headroom.
func valueRange(ys []float64, l limits.ControlLimits) *chart.ContinuousRange {
	lo, hi := math.Min(l.Lower, l.Mean), math.Max(l.Upper, l.Mean)
	for _, y := range ys {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	width := hi - lo
	if width == 0 {
		width = math.Max(math.Abs(hi), 1)
	}
	pad := width * 0.08
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func dateFormatter(v interface{}) string {
	switch t := v.(type) {
	case float64:
		return time.Unix(0, int64(t)).UTC().Format(sample.DateLayout)
	case time.Time:
		return t.UTC().Format(sample.DateLayout)
	default:
		return fmt.Sprint(v)
	}
}
