package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"policydash/internal/dataprocessing"
	apierrors "policydash/internal/errors"
	"policydash/internal/exporter"
	"policydash/internal/infrastructure"
	"policydash/internal/report"
	"policydash/internal/session"
	"policydash/internal/validation"
	"policydash/pkg/contracts/domain"
)

// ChartRenderer draws charts and their empty-state placeholders.
type ChartRenderer interface {
	report.ChartRenderer
	RenderPlaceholder(ctx context.Context, chart report.Chart) ([]byte, error)
}

// DashboardOptions configures a DashboardService. Zero values select the
// defaults.
type DashboardOptions struct {
	Registry       *dataprocessing.Registry
	Renderer       ChartRenderer
	Metrics        *infrastructure.BusinessMetrics
	Currency       string
	Location       *time.Location
	MaxUploadBytes int64
	Now            func() time.Time
}

// DashboardService runs the load, filter, aggregate and export pipeline
// against the dataset of one session.
type DashboardService struct {
	store     *session.Store
	parser    *dataprocessing.Parser
	files     *validation.FileValidator
	registry  *dataprocessing.Registry
	exporter  *exporter.Exporter
	renderer  ChartRenderer
	assembler *report.Assembler
	metrics   *infrastructure.BusinessMetrics
	location  *time.Location
	maxUpload int64
	now       func() time.Time
	reports   singleflight.Group
	logger    *slog.Logger
}

// NewDashboardService wires the pipeline components over store.
func NewDashboardService(store *session.Store, opts DashboardOptions, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = dataprocessing.DefaultRegistry()
	}
	if opts.Renderer == nil {
		opts.Renderer = report.NewPlotRenderer(nil)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger = infrastructure.WithComponent(logger, "dashboard_service")
	return &DashboardService{
		store:    store,
		parser:   dataprocessing.NewParser(logger),
		files:    validation.NewFileValidator(logger),
		registry: opts.Registry,
		exporter: exporter.NewExporter(logger),
		renderer: opts.Renderer,
		assembler: report.NewAssembler(opts.Renderer, opts.Registry, logger, report.AssemblerOptions{
			Currency: opts.Currency,
			Location: opts.Location,
		}),
		metrics:   opts.Metrics,
		location:  opts.Location,
		maxUpload: opts.MaxUploadBytes,
		now:       opts.Now,
		logger:    logger,
	}
}

// Upload parses r and makes it the dataset of session sessionID, creating
// the session when it does not exist. An empty format is inferred from
// filename. On failure the session keeps its previous dataset.
func (s *DashboardService) Upload(ctx context.Context, sessionID, filename, format string, r io.Reader) (*session.Session, error) {
	ctx, span := infrastructure.StartSpan(ctx, "dashboard.upload",
		attribute.String("filename", filename))
	defer span.End()
	started := time.Now()

	ingest, err := resolveFormat(filename, format)
	if err == nil {
		err = s.files.ValidateName(filename)
	}
	if err != nil {
		s.metrics.RecordUpload(ctx, format, 0, 0, err)
		return nil, apierrors.NewAppValidationError("Unsupported file type", err)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxUpload+1))
	if err != nil {
		s.metrics.RecordUpload(ctx, string(ingest), 0, 0, err)
		return nil, apierrors.NewParsingError("Error loading file", fmt.Errorf("%w: %w", ErrLoadFailed, err))
	}
	if int64(len(data)) > s.maxUpload {
		err := fmt.Errorf("%w: limit is %d bytes", ErrUploadTooLarge, s.maxUpload)
		s.metrics.RecordUpload(ctx, string(ingest), 0, 0, err)
		return nil, apierrors.NewAppValidationError("File too large", err)
	}

	err = s.files.ValidateContent(filename, ingest, data)
	var table *domain.Table
	var load *domain.LoadReport
	if err == nil {
		table, load, err = s.parser.Parse(bytes.NewReader(data), ingest)
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.metrics.RecordUpload(ctx, string(ingest), 0, 0, err)
		s.logger.WarnContext(ctx, "upload rejected",
			slog.String("session_id", sessionID),
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return nil, apierrors.NewParsingError("Error loading file", fmt.Errorf("%w: %w", ErrLoadFailed, err)).
			WithContext("filename", filename)
	}

	sess, ok := s.store.Get(sessionID)
	if !ok {
		sess = s.store.Create()
		s.metrics.SessionDelta(ctx, 1)
	}
	updated := *sess
	updated.Source = filename
	updated.Table = table
	updated.Report = *load
	updated.UpdatedAt = s.now()
	s.store.Put(&updated)

	failures := 0
	for _, n := range load.CoercionFailures {
		failures += n
	}
	s.metrics.RecordUpload(ctx, string(ingest), load.Rows, failures, nil)
	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("session_id", updated.ID),
		slog.String("filename", filename),
		slog.String("format", string(ingest)),
		slog.Int("rows", load.Rows),
		slog.Int("coercion_failures", failures),
		slog.Duration("duration", time.Since(started)))

	return &updated, nil
}

func resolveFormat(filename, format string) (domain.IngestFormat, error) {
	switch f := domain.IngestFormat(strings.ToLower(format)); f {
	case "":
		ingest, err := dataprocessing.DetectFormat(filename)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
		}
		return ingest, nil
	case domain.IngestFormatCSV, domain.IngestFormatXLSX, domain.IngestFormatXLS:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// loaded returns the session dataset or a no-data error.
func (s *DashboardService) loaded(sessionID string) (*session.Session, error) {
	sess, ok := s.store.Get(sessionID)
	if !ok || !sess.HasData() {
		return nil, apierrors.NewNoDataError(ErrNoDataLoaded)
	}
	return sess, nil
}

// filtered applies criteria to the session dataset.
func (s *DashboardService) filtered(ctx context.Context, sess *session.Session, criteria domain.FilterCriteria, purpose string) *domain.Table {
	s.metrics.RecordFilter(ctx, purpose)
	return dataprocessing.ApplyFilters(sess.Table, criteria)
}

// Options returns the filter control seeds of the loaded dataset.
func (s *DashboardService) Options(ctx context.Context, sessionID string) (domain.FilterOptions, error) {
	sess, err := s.loaded(sessionID)
	if err != nil {
		return domain.FilterOptions{}, err
	}
	return dataprocessing.BuildFilterOptions(sess.Table), nil
}

// Dashboard filters the dataset and computes metrics and every available
// chart for both scopes, plus one page of the filtered rows.
func (s *DashboardService) Dashboard(ctx context.Context, sessionID string, criteria domain.FilterCriteria, page, pageSize int) (*domain.Dashboard, error) {
	ctx, span := infrastructure.StartSpan(ctx, "dashboard.compute")
	defer span.End()

	sess, err := s.loaded(sessionID)
	if err != nil {
		return nil, err
	}
	filtered := s.filtered(ctx, sess, criteria, "dashboard")

	overall := dataprocessing.OverallScope()
	latest := dataprocessing.LatestMonthScope(filtered)
	charts, skipped := s.registry.Evaluate(filtered, overall, latest)

	s.logger.DebugContext(ctx, "dashboard computed",
		slog.String("session_id", sessionID),
		slog.Int("total_rows", sess.Table.Len()),
		slog.Int("filtered_rows", filtered.Len()),
		slog.Int("charts", len(charts)),
		slog.Any("skipped", skipped))

	return &domain.Dashboard{
		TotalRows:    sess.Table.Len(),
		FilteredRows: filtered.Len(),
		Overall:      overall.Summary(filtered),
		LatestMonth:  latest.Summary(filtered),
		Charts:       charts,
		Skipped:      skipped,
		Table:        TablePageOf(filtered, page, pageSize),
	}, nil
}

// Chart renders one registry chart for scope as PNG. Empty results render a
// "No data available" placeholder.
func (s *DashboardService) Chart(ctx context.Context, sessionID, chartID string, scope domain.ScopeName, criteria domain.FilterCriteria) (*domain.Artifact, error) {
	ctx, span := infrastructure.StartSpan(ctx, "dashboard.chart",
		attribute.String("chart", chartID), attribute.String("scope", string(scope)))
	defer span.End()

	spec, ok := s.registry.Lookup(chartID)
	if !ok {
		return nil, apierrors.NewNotFoundError(fmt.Sprintf("chart %q", chartID), ErrUnknownChart)
	}
	sess, err := s.loaded(sessionID)
	if err != nil {
		return nil, err
	}
	filtered := s.filtered(ctx, sess, criteria, "chart")
	if !spec.Available(filtered) {
		return nil, apierrors.NewAppValidationError(
			fmt.Sprintf("Chart %q needs columns %s", chartID, strings.Join(spec.Requires, ", ")),
			ErrChartUnavailable)
	}

	sc := dataprocessing.OverallScope()
	if scope == domain.ScopeLatestMonth && !spec.OverallOnly {
		sc = dataprocessing.LatestMonthScope(filtered)
	}
	chart := report.Chart{Title: spec.TitleFor(sc), Kind: spec.Kind, Result: spec.Compute(filtered, sc)}

	var png []byte
	if chart.Result.Empty() {
		png, err = s.renderer.RenderPlaceholder(ctx, chart)
	} else {
		png, err = s.renderer.Render(ctx, chart)
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.metrics.RecordSystemError(ctx, "chart")
		return nil, fmt.Errorf("render chart %s: %w", chartID, err)
	}

	return &domain.Artifact{
		Filename:    fmt.Sprintf("%s_%s.png", chartID, sc.Name),
		ContentType: domain.ContentTypePNG,
		Data:        png,
	}, nil
}

// Export serializes the filtered dataset as csv, xlsx or summary statistics.
func (s *DashboardService) Export(ctx context.Context, sessionID string, format domain.ExportFormat, criteria domain.FilterCriteria) (*domain.Artifact, error) {
	ctx, span := infrastructure.StartSpan(ctx, "dashboard.export",
		attribute.String("format", string(format)))
	defer span.End()

	switch format {
	case domain.ExportFormatCSV, domain.ExportFormatExcel, domain.ExportFormatSummary:
	default:
		return nil, apierrors.NewAppValidationError("Unsupported export format",
			fmt.Errorf("%w: %q", ErrUnsupportedExport, format))
	}

	sess, err := s.loaded(sessionID)
	if err != nil {
		return nil, err
	}
	filtered := s.filtered(ctx, sess, criteria, "export")

	artifact, err := s.exporter.Export(ctx, filtered, format, s.now().In(s.location))
	s.metrics.RecordExport(ctx, string(format), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.metrics.RecordSystemError(ctx, "exporter")
		return nil, apierrors.NewExportError("Export failed", err)
	}
	return artifact, nil
}

// Report builds the PDF report of the filtered dataset. Concurrent requests
// for the same dataset and criteria share one generation.
func (s *DashboardService) Report(ctx context.Context, sessionID string, criteria domain.FilterCriteria) (*domain.Artifact, error) {
	ctx, span := infrastructure.StartSpan(ctx, "dashboard.report")
	defer span.End()

	sess, err := s.loaded(sessionID)
	if err != nil {
		return nil, err
	}
	key, err := reportKey(sess, criteria)
	if err != nil {
		return nil, apierrors.NewAppValidationError("Invalid filter criteria", err)
	}

	// The shared build outlives any one caller; a caller that goes away only
	// stops waiting for it.
	buildCtx := context.WithoutCancel(ctx)
	results := s.reports.DoChan(key, func() (interface{}, error) {
		started := time.Now()
		filtered := s.filtered(buildCtx, sess, criteria, "report")
		artifact, err := s.assembler.Build(buildCtx, filtered, s.now())
		s.metrics.RecordReport(buildCtx, time.Since(started), err)
		return artifact, err
	})

	var res singleflight.Result
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		infrastructure.RecordError(ctx, err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		s.metrics.RecordSystemError(ctx, "report")
		infrastructure.WithSession(s.logger, sessionID).ErrorContext(ctx, "report generation failed",
			slog.String("error", err.Error()))
		return nil, apierrors.NewReportError("Error generating PDF report",
			fmt.Errorf("%w: %w", ErrReportFailed, err))
	}
	if shared {
		s.logger.DebugContext(ctx, "report generation shared", slog.String("session_id", sessionID))
	}
	return v.(*domain.Artifact), nil
}

// reportKey identifies a dataset version and criteria. encoding/json sorts
// map keys, so equal criteria hash equally.
func reportKey(sess *session.Session, criteria domain.FilterCriteria) (string, error) {
	raw, err := json.Marshal(criteria)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%s|%d|%s", sess.ID, sess.UpdatedAt.UnixNano(), hex.EncodeToString(sum[:])), nil
}

// DeleteSession discards a session and its dataset.
func (s *DashboardService) DeleteSession(ctx context.Context, sessionID string) bool {
	deleted := s.store.Delete(sessionID)
	if deleted {
		s.logger.InfoContext(ctx, "session deleted", slog.String("session_id", sessionID))
	}
	return deleted
}

// Session returns the live session with id.
func (s *DashboardService) Session(sessionID string) (*session.Session, bool) {
	return s.store.Get(sessionID)
}
