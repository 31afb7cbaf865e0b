package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"policydash/pkg/contracts/domain"
)

// ErrEmptyChart is returned when a chart has no groups to draw.
var ErrEmptyChart = errors.New("chart has no data")

// NoDataText replaces an empty chart.
const NoDataText = "No data available"

// Chart is one aggregation ready to be drawn.
type Chart struct {
	Title  string
	Kind   domain.ChartKind
	Result domain.AggregationResult
}

// ChartRenderer rasterizes charts to PNG.
type ChartRenderer interface {
	Render(ctx context.Context, chart Chart) ([]byte, error)
}

// Chart sizes in inches, width by height.
var chartSizes = map[domain.ChartKind][2]float64{
	domain.ChartBar:           {12, 5},
	domain.ChartHorizontalBar: {12, 6},
	domain.ChartPie:           {10, 6},
}

// AspectRatio returns height over width for a chart kind.
func AspectRatio(kind domain.ChartKind) float64 {
	size, ok := chartSizes[kind]
	if !ok {
		size = chartSizes[domain.ChartBar]
	}
	return size[1] / size[0]
}

var (
	barColor  = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	gridColor = color.RGBA{R: 220, G: 220, B: 220, A: 255}

	// piePalette cycles for pie slices.
	piePalette = []color.RGBA{
		{R: 31, G: 119, B: 180, A: 255},
		{R: 255, G: 127, B: 14, A: 255},
		{R: 44, G: 160, B: 44, A: 255},
		{R: 214, G: 39, B: 40, A: 255},
		{R: 148, G: 103, B: 189, A: 255},
		{R: 140, G: 86, B: 75, A: 255},
		{R: 227, G: 119, B: 194, A: 255},
		{R: 127, G: 127, B: 127, A: 255},
		{R: 188, G: 189, B: 34, A: 255},
		{R: 23, G: 190, B: 207, A: 255},
	}
)

// PlotRenderer draws charts with gonum/plot.
type PlotRenderer struct {
	formatValue func(domain.Metric, float64) string
}

// NewPlotRenderer creates a renderer that labels values with formatValue.
// A nil formatValue uses FormatValue.
func NewPlotRenderer(formatValue func(domain.Metric, float64) string) *PlotRenderer {
	if formatValue == nil {
		formatValue = FormatValue
	}
	return &PlotRenderer{formatValue: formatValue}
}

// Render draws chart as PNG. Empty charts return ErrEmptyChart.
func (r *PlotRenderer) Render(ctx context.Context, chart Chart) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if chart.Result.Empty() {
		return nil, fmt.Errorf("%s: %w", chart.Title, ErrEmptyChart)
	}

	p := plot.New()
	p.Title.Text = chart.Title
	p.Title.TextStyle.Font.Size = vg.Points(16)

	var err error
	switch chart.Kind {
	case domain.ChartHorizontalBar:
		err = r.horizontalBar(p, chart.Result)
	case domain.ChartPie:
		err = r.pie(p, chart.Result)
	default:
		err = r.verticalBar(p, chart.Result)
	}
	if err != nil {
		return nil, fmt.Errorf("draw %q: %w", chart.Title, err)
	}
	return encodePNG(p, chart.Kind)
}

// RenderPlaceholder draws a titled frame carrying NoDataText.
func (r *PlotRenderer) RenderPlaceholder(ctx context.Context, chart Chart) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := plot.New()
	p.Title.Text = chart.Title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.HideAxes()
	p.X.Min, p.X.Max = -1, 1
	p.Y.Min, p.Y.Max = -1, 1

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    []plotter.XY{{X: 0, Y: 0}},
		Labels: []string{NoDataText},
	})
	if err != nil {
		return nil, err
	}
	labels.TextStyle[0].Font.Size = vg.Points(14)
	labels.TextStyle[0].XAlign = draw.XCenter
	labels.TextStyle[0].YAlign = draw.YCenter
	p.Add(labels)
	return encodePNG(p, chart.Kind)
}

func (r *PlotRenderer) verticalBar(p *plot.Plot, result domain.AggregationResult) error {
	values := make(plotter.Values, len(result.Groups))
	names := make([]string, len(result.Groups))
	for i, g := range result.Groups {
		values[i] = g.Value
		names[i] = g.Key
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return err
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)

	grid := plotter.NewGrid()
	grid.Vertical.Color = color.Transparent
	grid.Horizontal.Color = gridColor
	p.Add(grid, bars)

	p.NominalX(names...)
	if len(names) > 6 {
		p.X.Tick.Label.Rotation = math.Pi / 6
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}
	p.Y.Label.Text = metricLabel(result.Metric)
	p.Y.Min = 0
	p.Y.Max = maxValue(values) * 1.15

	xys := make([]plotter.XY, len(values))
	texts := make([]string, len(values))
	for i, v := range values {
		xys[i] = plotter.XY{X: float64(i), Y: v}
		texts[i] = r.formatValue(result.Metric, v)
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
	}
	labels.Offset = vg.Point{Y: vg.Points(3)}
	p.Add(labels)
	return nil
}

func (r *PlotRenderer) horizontalBar(p *plot.Plot, result domain.AggregationResult) error {
	// The largest group is drawn on top, at the highest y.
	n := len(result.Groups)
	values := make(plotter.Values, n)
	names := make([]string, n)
	for i, g := range result.Groups {
		values[n-1-i] = g.Value
		names[n-1-i] = g.Key
	}

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return err
	}
	bars.Horizontal = true
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)

	grid := plotter.NewGrid()
	grid.Horizontal.Color = color.Transparent
	grid.Vertical.Color = gridColor
	p.Add(grid, bars)

	p.NominalY(names...)
	p.X.Label.Text = metricLabel(result.Metric)
	p.X.Min = 0
	p.X.Max = maxValue(values) * 1.2

	xys := make([]plotter.XY, n)
	texts := make([]string, n)
	for i, v := range values {
		xys[i] = plotter.XY{X: v, Y: float64(i)}
		texts[i] = r.formatValue(result.Metric, v)
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	labels.Offset = vg.Point{X: vg.Points(4)}
	p.Add(labels)
	return nil
}

func (r *PlotRenderer) pie(p *plot.Plot, result domain.AggregationResult) error {
	total := 0.0
	for _, g := range result.Groups {
		total += g.Value
	}
	if total <= 0 {
		return ErrEmptyChart
	}

	slices := &pieChart{total: total}
	for i, g := range result.Groups {
		slices.values = append(slices.values, g.Value)
		slices.colors = append(slices.colors, piePalette[i%len(piePalette)])
	}

	p.HideAxes()
	p.Add(slices)
	p.Legend.Top = true
	for i, g := range result.Groups {
		p.Legend.Add(fmt.Sprintf("%s (%s)", g.Key, r.formatValue(result.Metric, g.Value)),
			swatch{color: slices.colors[i]})
	}
	return nil
}

// pieChart is a plot.Plotter drawing wedges around the canvas centre with a
// percentage label on each.
type pieChart struct {
	values []float64
	colors []color.RGBA
	total  float64
}

// Plot implements plot.Plotter.
func (pc *pieChart) Plot(c draw.Canvas, plt *plot.Plot) {
	center := c.Center()
	radius := vg.Length(math.Min(float64(c.Max.X-c.Min.X), float64(c.Max.Y-c.Min.Y)) * 0.42)

	sty := plt.Legend.TextStyle
	sty.Color = color.White
	sty.XAlign = draw.XCenter
	sty.YAlign = draw.YCenter

	start := math.Pi / 2
	for i, v := range pc.values {
		sweep := -2 * math.Pi * v / pc.total

		var path vg.Path
		path.Move(center)
		path.Arc(center, radius, start, sweep)
		path.Close()
		c.SetColor(pc.colors[i])
		c.Fill(path)

		if share := v / pc.total; share >= 0.04 {
			mid := start + sweep/2
			at := vg.Point{
				X: center.X + radius*0.65*vg.Length(math.Cos(mid)),
				Y: center.Y + radius*0.65*vg.Length(math.Sin(mid)),
			}
			c.FillText(sty, at, fmt.Sprintf("%.1f%%", share*100))
		}
		start += sweep
	}
}

// swatch is a legend thumbnail filled with one slice colour.
type swatch struct {
	color color.Color
}

// Thumbnail implements plot.Thumbnailer.
func (s swatch) Thumbnail(c *draw.Canvas) {
	c.SetColor(s.color)
	c.Fill(c.Rectangle.Path())
}

func encodePNG(p *plot.Plot, kind domain.ChartKind) ([]byte, error) {
	size, ok := chartSizes[kind]
	if !ok {
		size = chartSizes[domain.ChartBar]
	}
	wt, err := p.WriterTo(vg.Length(size[0])*vg.Inch, vg.Length(size[1])*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("create png writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func maxValue(values plotter.Values) float64 {
	m := 0.0
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	if m == 0 {
		return 1
	}
	return m
}

func metricLabel(m domain.Metric) string {
	if m == domain.MetricRowCount {
		return "Policies"
	}
	return "Commissionable Premium"
}
