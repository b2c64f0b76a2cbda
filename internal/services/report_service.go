package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"matchreport/internal/aggregate"
	"matchreport/internal/chart"
	"matchreport/internal/config"
	"matchreport/internal/dataset"
	"matchreport/internal/document"
	apperrors "matchreport/internal/errors"
	"matchreport/internal/exporter"
	"matchreport/internal/filter"
	"matchreport/internal/infrastructure"
	"matchreport/internal/narrative"
	"matchreport/internal/report"
)

// Report outcomes recorded on the reports counter.
const (
	OutcomeSuccess     = "success"
	OutcomeEmpty       = "empty"
	OutcomeSchemaError = "schema_error"
	OutcomeError       = "error"
)

// GenerateRequest is one report invocation over one dataset.
type GenerateRequest struct {
	Input       io.Reader      `validate:"-"`
	Format      dataset.Format `validate:"required,oneof=csv xlsx"`
	Filters     report.Filters
	Title       string `validate:"omitempty,max=200"`
	ProxyMetric string `validate:"omitempty,max=100"`
	// FilenamePrefix overrides the configured document filename prefix.
	FilenamePrefix string `validate:"omitempty,max=100"`
	// GeneratedAt stamps the title page; now when zero.
	GeneratedAt time.Time
	// SkipNarrative leaves the narrative empty without calling the generator.
	SkipNarrative bool
}

// ReportResult is a generated report with the analysis behind it.
type ReportResult struct {
	Document          *document.Document
	Analysis          *report.Analysis
	Narrative         string
	NarrativeFallback bool
	Duration          time.Duration
}

// MetricView is a summary metric as displayed.
type MetricView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Valid bool   `json:"valid"`
}

// PreviewResult is the analysis of a request without a document.
type PreviewResult struct {
	ID          string             `json:"id"`
	Fingerprint string             `json:"fingerprint"`
	Filters     string             `json:"filters"`
	InputRows   int                `json:"input_rows"`
	Rows        int                `json:"rows"`
	Metrics     []MetricView       `json:"metrics"`
	Series      []aggregate.Series `json:"series"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// ReportService turns uploaded datasets into report documents. Every call
// loads its own table, so a ReportService is safe for concurrent use.
type ReportService struct {
	cfg              config.ReportConfig
	generator        narrative.Generator
	narrativeTimeout time.Duration
	renderer         *chart.Renderer
	validate         *validator.Validate
	metrics          *infrastructure.ReportMetrics
	tracer           trace.Tracer
	logger           *slog.Logger
}

// NewReportService creates a report service. gen may be nil, in which case
// reports carry no narrative.
func NewReportService(cfg config.ReportConfig, gen narrative.Generator, narrativeTimeout time.Duration, metrics *infrastructure.ReportMetrics, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = infrastructure.NoopReportMetrics()
	}

	logger.Info("ReportService initialized",
		slog.String("proxy_metric", cfg.ProxyMetric),
		slog.Bool("narrative", gen != nil),
		slog.Duration("narrative_timeout", narrativeTimeout))

	return &ReportService{
		cfg:              cfg,
		generator:        gen,
		narrativeTimeout: narrativeTimeout,
		renderer:         chart.NewRenderer(),
		validate:         validator.New(),
		metrics:          metrics,
		tracer:           otel.Tracer(infrastructure.MeterName),
		logger:           infrastructure.WithComponent(logger, "report_service"),
	}
}

// Generate loads the dataset, analyzes it, resolves the narrative and
// assembles the PDF. An empty filter result still yields a document.
func (s *ReportService) Generate(ctx context.Context, req GenerateRequest) (*ReportResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "report.generate")
	defer span.End()

	pipeline, analysis, err := s.analyze(ctx, req)
	if err != nil {
		s.fail(ctx, span, err, start)
		return nil, err
	}

	ctx = infrastructure.WithReportID(ctx, analysis.ID)
	text, fallback := s.narrate(ctx, req, pipeline, analysis)

	generatedAt := req.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}
	doc, err := pipeline.Assemble(ctx, analysis, text, generatedAt)
	if err != nil {
		s.fail(ctx, span, err, start)
		return nil, err
	}

	outcome := OutcomeSuccess
	if len(analysis.Warnings) > 0 {
		outcome = OutcomeEmpty
	}
	elapsed := time.Since(start)
	s.metrics.RecordReport(ctx, outcome, elapsed.Seconds())
	s.metrics.ReportBytes.Record(ctx, int64(len(doc.Bytes)))

	span.SetAttributes(
		attribute.String("report.id", analysis.ID),
		attribute.String("report.outcome", outcome),
		attribute.Int("report.pages", doc.PageCount),
	)
	s.logger.InfoContext(ctx, "report generated",
		slog.String("fingerprint", analysis.Fingerprint),
		slog.String("filters", analysis.FilterDescription),
		slog.Int("rows", analysis.Rows),
		slog.Int("pages", doc.PageCount),
		slog.Int("bytes", len(doc.Bytes)),
		slog.Bool("narrative_fallback", fallback),
		slog.Duration("duration", elapsed))

	return &ReportResult{
		Document:          doc,
		Analysis:          analysis,
		Narrative:         text,
		NarrativeFallback: fallback,
		Duration:          elapsed,
	}, nil
}

// Preview runs the analysis only and returns it as displayable values.
func (s *ReportService) Preview(ctx context.Context, req GenerateRequest) (*PreviewResult, error) {
	ctx, span := s.tracer.Start(ctx, "report.preview")
	defer span.End()

	_, a, err := s.analyze(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics := make([]MetricView, len(a.Summary))
	for i, m := range a.Summary {
		metrics[i] = MetricView{Name: m.Name, Value: m.String(), Valid: m.Valid}
	}

	return &PreviewResult{
		ID:          a.ID,
		Fingerprint: a.Fingerprint,
		Filters:     a.FilterDescription,
		InputRows:   a.InputRows,
		Rows:        a.Rows,
		Metrics:     metrics,
		Series:      a.Series,
		Warnings:    a.WarningMessages(),
	}, nil
}

// ExportFiltered writes the rows matching the request's filters to w as CSV
// and returns the number of rows written.
func (s *ReportService) ExportFiltered(ctx context.Context, req GenerateRequest, w io.Writer) (int, error) {
	ctx, span := s.tracer.Start(ctx, "report.export")
	defer span.End()

	t, err := s.load(ctx, req, s.proxy(req))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	spec := req.Filters.Spec()
	if err := spec.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	filtered := filter.Apply(t, spec)

	n, err := exporter.NewCSVWriter("").WriteTable(w, filtered, exporter.WriteOptions{IncludeBOM: true})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return n, fmt.Errorf("failed to export rows: %w", err)
	}

	s.logger.InfoContext(ctx, "filtered rows exported",
		slog.String("filters", spec.Describe()),
		slog.Int("input_rows", t.Len()),
		slog.Int("rows", n))
	return n, nil
}

// Definition returns the report definition a request would run.
func (s *ReportService) Definition(req GenerateRequest) report.Definition {
	def := report.DefaultDefinition(s.proxy(req))
	if s.cfg.Title != "" {
		def.Title = s.cfg.Title
	}
	if s.cfg.Header != "" {
		def.Header = s.cfg.Header
	}
	if req.Title != "" {
		def.Title = req.Title
		def.Header = req.Title
	}
	switch {
	case req.FilenamePrefix != "":
		def.Filename = document.Filename(req.FilenamePrefix)
	case s.cfg.FilenamePrefix != "":
		def.Filename = document.Filename(s.cfg.FilenamePrefix)
	}
	return def
}

func (s *ReportService) proxy(req GenerateRequest) string {
	if req.ProxyMetric != "" {
		return req.ProxyMetric
	}
	return s.cfg.ProxyMetric
}

func (s *ReportService) analyze(ctx context.Context, req GenerateRequest) (*report.Pipeline, *report.Analysis, error) {
	def := s.Definition(req)
	t, err := s.load(ctx, req, def.ProxyMetric)
	if err != nil {
		return nil, nil, err
	}

	pipeline := report.NewPipeline(def,
		report.WithRenderer(s.renderer),
		report.WithTracer(s.tracer),
		report.WithMetrics(s.metrics),
		report.WithLogger(s.logger))

	a, err := pipeline.Analyze(ctx, t, req.Filters.Spec())
	if err != nil {
		return nil, nil, err
	}
	return pipeline, a, nil
}

func (s *ReportService) load(ctx context.Context, req GenerateRequest, proxy string) (*dataset.Table, error) {
	if req.Input == nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeValidation, ErrNoInput.Error(), ErrNoInput)
	}
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeValidation, "invalid report request", err)
	}
	if err := report.ValidateProxyMetric(proxy); err != nil {
		return nil, err
	}

	t, err := dataset.Load(req.Input, req.Format, report.Schema(proxy, s.cfg.DateLayouts))
	if err != nil {
		if apperrors.IsSchemaError(err) {
			return nil, err
		}
		return nil, apperrors.NewParsingError("failed to read dataset", err)
	}

	s.metrics.RowsProcessed.Add(ctx, int64(t.Len()))
	s.logger.DebugContext(ctx, "dataset loaded",
		slog.String("format", string(req.Format)),
		slog.Int("rows", t.Len()),
		slog.Int("columns", len(t.Columns())))
	return t, nil
}

// narrate resolves the narrative and reports whether the generator failed.
func (s *ReportService) narrate(ctx context.Context, req GenerateRequest, p *report.Pipeline, a *report.Analysis) (string, bool) {
	if req.SkipNarrative || s.generator == nil {
		return "", false
	}

	text, err := narrative.Attempt(ctx, s.generator, p.Prompt(a), s.narrativeTimeout)
	if err != nil {
		s.metrics.NarrativeFallbacks.Add(ctx, 1)
		s.logger.WarnContext(ctx, "narrative generation failed, continuing without narrative",
			slog.String("error", err.Error()),
			slog.Duration("timeout", s.narrativeTimeout))
		return "", true
	}
	return text, false
}

func (s *ReportService) fail(ctx context.Context, span trace.Span, err error, start time.Time) {
	outcome := OutcomeError
	if apperrors.IsSchemaError(err) {
		outcome = OutcomeSchemaError
	}
	span.SetStatus(codes.Error, err.Error())
	s.metrics.RecordReport(ctx, outcome, time.Since(start).Seconds())
	s.logger.ErrorContext(ctx, "report generation failed",
		slog.String("outcome", outcome),
		slog.String("error", err.Error()))
}
