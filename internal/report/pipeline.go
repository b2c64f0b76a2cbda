package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"matchreport/internal/aggregate"
	"matchreport/internal/chart"
	"matchreport/internal/dataset"
	"matchreport/internal/document"
	apperrors "matchreport/internal/errors"
	"matchreport/internal/filter"
	"matchreport/internal/infrastructure"
	"matchreport/internal/narrative"
)

// Pipeline stage names, used for spans, metrics and warnings.
const (
	StageFilter    = "filter"
	StageSummarize = "summarize"
	StageAggregate = "aggregate"
	StageRender    = "render"
	StageAssemble  = "assemble"
)

// Analysis is the result of running a definition over one table, ready to
// be assembled or previewed.
type Analysis struct {
	ID                string                          `json:"id"`
	Fingerprint       string                          `json:"fingerprint"`
	FilterDescription string                          `json:"filters"`
	InputRows         int                             `json:"input_rows"`
	Rows              int                             `json:"rows"`
	Summary           aggregate.Summary               `json:"summary"`
	Series            []aggregate.Series              `json:"series"`
	Images            []chart.Image                   `json:"-"`
	Warnings          []*apperrors.EmptyResultWarning `json:"-"`

	filtered *dataset.Table
}

// Table returns the filtered rows the analysis was computed over.
func (a *Analysis) Table() *dataset.Table { return a.filtered }

// WarningMessages returns the warnings as display strings.
func (a *Analysis) WarningMessages() []string {
	out := make([]string, len(a.Warnings))
	for i, w := range a.Warnings {
		out[i] = w.Error()
	}
	return out
}

// Pipeline runs a Definition: filter, summarize, aggregate, render, and
// finally assemble. A Pipeline holds no per-run state and is safe for
// concurrent use.
type Pipeline struct {
	def      Definition
	renderer *chart.Renderer
	tracer   trace.Tracer
	metrics  *infrastructure.ReportMetrics
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRenderer sets the chart renderer.
func WithRenderer(r *chart.Renderer) Option { return func(p *Pipeline) { p.renderer = r } }

// WithTracer sets the tracer used for stage spans.
func WithTracer(t trace.Tracer) Option { return func(p *Pipeline) { p.tracer = t } }

// WithMetrics sets the instruments stage timings are recorded on.
func WithMetrics(m *infrastructure.ReportMetrics) Option { return func(p *Pipeline) { p.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(p *Pipeline) { p.logger = l } }

// NewPipeline creates a Pipeline for def.
func NewPipeline(def Definition, opts ...Option) *Pipeline {
	p := &Pipeline{
		def:      def,
		renderer: chart.NewRenderer(),
		tracer:   otel.Tracer(infrastructure.MeterName),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(slog.String("component", "report_pipeline"))
	return p
}

// Definition returns the pipeline's report definition.
func (p *Pipeline) Definition() Definition { return p.def }

// Analyze filters t with spec and computes every metric, series and chart
// of the definition. An empty filter result is not an error: it adds an
// EmptyResultWarning and yields NA metrics and placeholder charts.
func (p *Pipeline) Analyze(ctx context.Context, t *dataset.Table, spec filter.Spec) (*Analysis, error) {
	ctx, span := p.tracer.Start(ctx, "report.analyze", trace.WithAttributes(
		attribute.Int("report.input_rows", t.Len()),
	))
	defer span.End()

	if err := spec.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	a := &Analysis{
		ID:                uuid.NewString(),
		Fingerprint:       fmt.Sprintf("%016x", t.Fingerprint()),
		FilterDescription: spec.Describe(),
		InputRows:         t.Len(),
	}
	ctx = infrastructure.WithReportID(ctx, a.ID)

	p.stage(ctx, StageFilter, func() error {
		a.filtered = filter.Apply(t, spec)
		return nil
	})
	a.Rows = a.filtered.Len()
	if a.Rows == 0 {
		w := &apperrors.EmptyResultWarning{Stage: StageFilter, Rows: a.InputRows}
		a.Warnings = append(a.Warnings, w)
		span.AddEvent("empty_result", trace.WithAttributes(attribute.String("stage", StageFilter)))
		p.logger.WarnContext(ctx, "filters matched no rows",
			slog.String("filters", a.FilterDescription),
			slog.Int("input_rows", a.InputRows))
	}

	p.stage(ctx, StageSummarize, func() error {
		a.Summary = aggregate.Summarize(a.filtered, p.def.Metrics)
		return nil
	})

	if err := p.stage(ctx, StageAggregate, func() error {
		for _, def := range p.def.Charts {
			s, err := seriesFor(a.filtered, def)
			if err != nil {
				return fmt.Errorf("chart %q: %w", def.Title, err)
			}
			a.Series = append(a.Series, s)
		}
		return nil
	}); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperrors.NewAppError(apperrors.ErrTypeValidation, "report definition does not fit the dataset", err)
	}

	if err := p.stage(ctx, StageRender, func() error {
		for i, def := range p.def.Charts {
			img, err := p.renderer.Render(chart.Request{
				Kind:         def.Kind,
				Title:        def.Title,
				XLabel:       def.XLabel,
				YLabel:       def.YLabel,
				EmptyMessage: def.EmptyMessage,
				Series:       a.Series[i],
			})
			if err != nil {
				return err
			}
			a.Images = append(a.Images, img)
		}
		return nil
	}); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("report.rows", a.Rows))
	return a, nil
}

// Prompt builds the narrative prompt for a.
func (p *Pipeline) Prompt(a *Analysis) string {
	return narrative.BuildPrompt(a.Summary, a.FilterDescription)
}

// Assemble lays a out as a PDF with the given narrative. A RenderError
// leaves no partial document.
func (p *Pipeline) Assemble(ctx context.Context, a *Analysis, narrativeText string, generatedAt time.Time) (*document.Document, error) {
	ctx, span := p.tracer.Start(ctx, "report.assemble", trace.WithAttributes(
		attribute.Int("report.images", len(a.Images)),
	))
	defer span.End()
	ctx = infrastructure.WithReportID(ctx, a.ID)

	var doc *document.Document
	err := p.stage(ctx, StageAssemble, func() error {
		var err error
		doc, err = document.Assemble(document.Input{
			Title:             p.def.Title,
			Header:            p.def.Header,
			FilterDescription: a.FilterDescription,
			GeneratedAt:       generatedAt,
			Summary:           a.Summary,
			Narrative:         narrativeText,
			Images:            a.Images,
			Filename:          p.def.Filename,
		})
		return err
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("report.pages", doc.PageCount))
	return doc, nil
}

func (p *Pipeline) stage(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	p.metrics.RecordStage(ctx, name, elapsed.Seconds())
	p.logger.DebugContext(ctx, "stage completed",
		slog.String("stage", name),
		slog.Duration("duration", elapsed),
		slog.Bool("ok", err == nil))
	return err
}

func seriesFor(t *dataset.Table, def ChartDef) (aggregate.Series, error) {
	if def.Kind == chart.KindHistogram {
		return aggregate.Observations(t, def.Observe)
	}
	return aggregate.Aggregate(t, def.Key, def.Value, def.Mode)
}
