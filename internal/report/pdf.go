package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/signintech/gopdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"policydash/internal/dataprocessing"
	"policydash/pkg/contracts/domain"
)

var (
	// ErrChartFailed wraps a chart rendering error that aborted a report.
	ErrChartFailed = errors.New("chart rendering failed")
	// ErrDocumentFailed wraps a PDF composition error.
	ErrDocumentFailed = errors.New("document assembly failed")
)

// Report title and page headings.
const (
	ReportTitle     = "Insurance Dashboard Report"
	MetricsHeading  = "Key Metrics Summary"
	generatedLayout = "02-01-2006 15:04"
)

const (
	fontRegular = "GoRegular"
	fontBold    = "GoBold"

	pageMargin   = 30.0
	contentWidth = 595.28 - 2*pageMargin
	headingGap   = 22.0
	chartGap     = 15.0
)

// BlockKind is the kind of content placed on a page.
type BlockKind int

const (
	BlockText BlockKind = iota
	BlockHeading
	BlockChart
	BlockNoData
)

// Block is one vertically stacked piece of page content.
type Block struct {
	Kind  BlockKind
	Text  string
	Size  float64
	Chart *Chart
}

// Page is an ordered list of blocks.
type Page struct {
	Blocks []Block
}

// Texts returns the text of every text, heading and placeholder block.
func (p Page) Texts() []string {
	var out []string
	for _, b := range p.Blocks {
		if b.Kind != BlockChart {
			out = append(out, b.Text)
		}
	}
	return out
}

// AssemblerOptions tunes report output.
type AssemblerOptions struct {
	Currency string
	Location *time.Location
}

// Assembler composes the PDF report: a title page, one page per report
// dimension pairing the latest-month and overall charts, and a trailing
// monthly trend page.
type Assembler struct {
	renderer ChartRenderer
	registry *dataprocessing.Registry
	logger   *slog.Logger
	currency string
	location *time.Location
}

// NewAssembler creates an assembler drawing the report charts of registry.
func NewAssembler(renderer ChartRenderer, registry *dataprocessing.Registry, logger *slog.Logger, opts AssemblerOptions) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = dataprocessing.DefaultRegistry()
	}
	if opts.Currency == "" {
		opts.Currency = CurrencyPrefix
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Assembler{
		renderer: renderer,
		registry: registry,
		logger:   logger.With(slog.String("component", "report")),
		currency: opts.Currency,
		location: opts.Location,
	}
}

// Plan lays out the report pages for the filtered table. Pages whose columns
// are missing are left out; empty charts become placeholders.
func (a *Assembler) Plan(filtered *domain.Table, at time.Time) []Page {
	overall := dataprocessing.OverallScope()
	latest := dataprocessing.LatestMonthScope(filtered)
	overallMetrics := dataprocessing.ComputeMetrics(filtered, overall)
	latestMetrics := dataprocessing.ComputeMetrics(filtered, latest)

	pages := []Page{{Blocks: []Block{
		{Kind: BlockHeading, Text: ReportTitle, Size: 24},
		{Kind: BlockText, Text: "Generated: " + at.In(a.location).Format(generatedLayout), Size: 12},
		{Kind: BlockHeading, Text: MetricsHeading, Size: 16},
		{Kind: BlockText, Text: fmt.Sprintf("Latest Month (%s): %s", latest.Label, FormatCurrency(a.currency, latestMetrics.TotalPremium)), Size: 12},
		{Kind: BlockText, Text: "Overall Total: " + FormatCurrency(a.currency, overallMetrics.TotalPremium), Size: 12},
		{Kind: BlockText, Text: "Total Policies: " + FormatCount(overallMetrics.PolicyCount), Size: 12},
	}}}

	var trailing []Page
	for _, spec := range a.registry.Charts() {
		if !spec.InReport || !spec.Available(filtered) {
			continue
		}
		if spec.OverallOnly {
			trailing = append(trailing, Page{Blocks: append(
				[]Block{{Kind: BlockHeading, Text: spec.Section, Size: 14}},
				a.chartBlock(spec, filtered, overall))})
			continue
		}
		pages = append(pages, Page{Blocks: []Block{
			{Kind: BlockHeading, Text: fmt.Sprintf("%s - Latest Month (%s)", spec.Section, latest.Label), Size: 14},
			a.chartBlock(spec, filtered, latest),
			{Kind: BlockHeading, Text: spec.Section + " - Overall", Size: 14},
			a.chartBlock(spec, filtered, overall),
		}})
	}
	return append(pages, trailing...)
}

func (a *Assembler) chartBlock(spec dataprocessing.ChartSpec, table *domain.Table, scope dataprocessing.Scope) Block {
	result := spec.Compute(table, scope)
	title := spec.TitleFor(scope)
	if result.Empty() {
		return Block{Kind: BlockNoData, Text: NoDataText, Size: 12}
	}
	return Block{Kind: BlockChart, Text: title, Chart: &Chart{Title: title, Kind: spec.Kind, Result: result}}
}

// Build renders the report for the filtered table. Rendering is strictly
// sequential and the first failure aborts it; no partial report is returned.
func (a *Assembler) Build(ctx context.Context, filtered *domain.Table, at time.Time) (*domain.Artifact, error) {
	started := time.Now()
	pages := a.Plan(filtered, at)

	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	if err := pdf.AddTTFFontData(fontRegular, goregular.TTF); err != nil {
		return nil, fmt.Errorf("%w: load font: %w", ErrDocumentFailed, err)
	}
	if err := pdf.AddTTFFontData(fontBold, gobold.TTF); err != nil {
		return nil, fmt.Errorf("%w: load font: %w", ErrDocumentFailed, err)
	}

	charts := 0
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pdf.AddPage()
		y := pageMargin
		for _, block := range page.Blocks {
			next, err := a.drawBlock(ctx, pdf, block, y)
			if err != nil {
				a.logger.ErrorContext(ctx, "report generation aborted",
					slog.Int("page", i+1),
					slog.String("block", block.Text),
					slog.String("error", err.Error()))
				return nil, err
			}
			if block.Kind == BlockChart {
				charts++
			}
			y = next
		}
	}

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocumentFailed, err)
	}

	a.logger.InfoContext(ctx, "report generated",
		slog.Int("pages", len(pages)),
		slog.Int("charts", charts),
		slog.Int("bytes", buf.Len()),
		slog.Duration("duration", time.Since(started)))

	return &domain.Artifact{
		Filename:    domain.ArtifactFilename(domain.ExportFormatPDF, at.In(a.location)),
		ContentType: domain.ContentTypePDF,
		Data:        buf.Bytes(),
	}, nil
}

// drawBlock places block at y and returns the y below it.
func (a *Assembler) drawBlock(ctx context.Context, pdf *gopdf.GoPdf, block Block, y float64) (float64, error) {
	switch block.Kind {
	case BlockChart:
		png, err := a.renderer.Render(ctx, *block.Chart)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", ErrChartFailed, block.Chart.Title, err)
		}
		holder, err := gopdf.ImageHolderByBytes(png)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", ErrChartFailed, block.Chart.Title, err)
		}
		height := contentWidth * AspectRatio(block.Chart.Kind)
		if err := pdf.ImageByHolder(holder, pageMargin, y, &gopdf.Rect{W: contentWidth, H: height}); err != nil {
			return 0, fmt.Errorf("%w: place %q: %w", ErrDocumentFailed, block.Chart.Title, err)
		}
		return y + height + chartGap, nil
	default:
		font := fontRegular
		if block.Kind == BlockHeading {
			font = fontBold
		}
		if err := pdf.SetFont(font, "", block.Size); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrDocumentFailed, err)
		}
		if block.Kind == BlockNoData {
			pdf.SetTextColor(128, 128, 128)
		} else {
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.SetX(pageMargin)
		pdf.SetY(y)
		if err := pdf.Cell(nil, block.Text); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrDocumentFailed, err)
		}
		gap := headingGap
		if block.Size > 16 {
			gap = block.Size * 1.6
		}
		return y + gap, nil
	}
}
