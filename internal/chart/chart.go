package chart

import (
	"bytes"
	"fmt"
	"math"

	"github.com/golang/freetype/truetype"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"matchreport/internal/aggregate"
	apperrors "matchreport/internal/errors"
)

// Output geometry shared by every chart and placeholder.
const (
	Width         = 960
	Height        = 720
	DPI           = 150
	HistogramBins = 20
)

// DefaultEmptyMessage is drawn on a placeholder when a request names none.
const DefaultEmptyMessage = "No data available"

// Kind selects the chart variant.
type Kind int

const (
	KindLine Kind = iota
	KindHistogram
)

func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindHistogram:
		return "histogram"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Request describes one chart. For KindLine the series points are plotted
// in their given order; for KindHistogram the point values are the
// observations to bin.
type Request struct {
	Kind         Kind
	Title        string
	XLabel       string
	YLabel       string
	EmptyMessage string
	Series       aggregate.Series
}

// Image is an encoded PNG chart.
type Image struct {
	Title       string
	Data        []byte
	Width       int
	Height      int
	Placeholder bool
}

var (
	seriesColor = drawing.ColorFromHex("1f77b4")
	gridColor   = drawing.ColorFromHex("dddddd")
	textColor   = drawing.ColorFromHex("333333")
)

// Renderer draws chart requests to PNG.
type Renderer struct {
	font *truetype.Font
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFont sets the font used for titles, labels and placeholders.
func WithFont(f *truetype.Font) Option {
	return func(r *Renderer) { r.font = f }
}

// NewRenderer creates a Renderer using go-chart's default font unless
// WithFont is given.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws req with a default Renderer.
func Render(req Request) (Image, error) {
	return NewRenderer().Render(req)
}

// Render draws req. An empty series produces a fixed-size placeholder image
// instead of an error; only encoding faults fail, as RenderError.
func (r *Renderer) Render(req Request) (Image, error) {
	if req.Series.Len() == 0 {
		return r.placeholder(req)
	}

	var c gochart.Chart
	switch req.Kind {
	case KindLine:
		c = r.lineChart(req)
	case KindHistogram:
		c = r.histogramChart(req)
	default:
		return Image{}, apperrors.NewRenderError("chart", fmt.Errorf("unsupported chart kind %s", req.Kind))
	}

	var buf bytes.Buffer
	if err := c.Render(gochart.PNG, &buf); err != nil {
		return Image{}, apperrors.NewRenderError("chart "+req.Title, err)
	}
	return Image{Title: req.Title, Data: buf.Bytes(), Width: Width, Height: Height}, nil
}

func (r *Renderer) base(req Request) gochart.Chart {
	return gochart.Chart{
		Title:  req.Title,
		Width:  Width,
		Height: Height,
		DPI:    DPI,
		Font:   r.font,
		TitleStyle: gochart.Style{
			FontSize:  12,
			FontColor: textColor,
		},
		Background: gochart.Style{
			Padding:   gochart.Box{Top: 60, Left: 20, Right: 30, Bottom: 20},
			FillColor: drawing.ColorWhite,
		},
	}
}

// lineChart plots points at x = 0..n-1 and labels each with its point label.
// Blank ticks half a step beyond either end keep the x range non-degenerate
// for a single point.
func (r *Renderer) lineChart(req Request) gochart.Chart {
	n := req.Series.Len()
	xs := make([]float64, n)
	ticks := make([]gochart.Tick, 0, n+2)
	ticks = append(ticks, gochart.Tick{Value: -0.5})
	for i, label := range req.Series.Labels() {
		xs[i] = float64(i)
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: label})
	}
	ticks = append(ticks, gochart.Tick{Value: float64(n) - 0.5})

	lo, hi := valueRange(req.Series.Values())

	c := r.base(req)
	c.XAxis = gochart.XAxis{
		Name:  req.XLabel,
		Ticks: ticks,
	}
	c.YAxis = gochart.YAxis{
		Name:           req.YLabel,
		Range:          &gochart.ContinuousRange{Min: lo, Max: hi},
		GridMajorStyle: gochart.Style{StrokeColor: gridColor, StrokeWidth: 1},
	}
	c.Series = []gochart.Series{
		gochart.ContinuousSeries{
			Name: req.Series.Name,
			Style: gochart.Style{
				StrokeColor: seriesColor,
				StrokeWidth: 2,
				DotColor:    seriesColor,
				DotWidth:    4,
			},
			XValues: xs,
			YValues: req.Series.Values(),
		},
	}
	return c
}

func (r *Renderer) histogramChart(req Request) gochart.Chart {
	h := Bin(req.Series.Values(), HistogramBins)

	centers := make([]float64, len(h.Counts))
	counts := make([]float64, len(h.Counts))
	var top float64
	for i, n := range h.Counts {
		centers[i] = (h.Edges[i] + h.Edges[i+1]) / 2
		counts[i] = float64(n)
		top = math.Max(top, counts[i])
	}

	c := r.base(req)
	c.XAxis = gochart.XAxis{
		Name:  req.XLabel,
		Range: &gochart.ContinuousRange{Min: h.Edges[0], Max: h.Edges[len(h.Edges)-1]},
	}
	c.YAxis = gochart.YAxis{
		Name:           req.YLabel,
		Range:          &gochart.ContinuousRange{Min: 0, Max: math.Ceil(top * 1.1)},
		GridMajorStyle: gochart.Style{StrokeColor: gridColor, StrokeWidth: 1},
	}
	c.Series = []gochart.Series{
		gochart.HistogramSeries{
			Name: req.Series.Name,
			Style: gochart.Style{
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
				FillColor:   seriesColor,
			},
			InnerSeries: gochart.ContinuousSeries{XValues: centers, YValues: counts},
		},
	}
	return c
}

// valueRange returns a y range that includes zero and all of values, padded
// by a tenth of its span.
func valueRange(values []float64) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.1
	if lo < 0 {
		lo -= pad
	}
	return lo, hi + pad
}
