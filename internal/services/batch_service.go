package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"matchreport/internal/dataset"
	"matchreport/internal/document"
	"matchreport/internal/exporter"
	"matchreport/internal/infrastructure"
	"matchreport/internal/report"
)

// ReportGenerator produces one report per request.
type ReportGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (*ReportResult, error)
}

// BatchItem is one dataset file of a batch run.
type BatchItem struct {
	Path    string
	Filters report.Filters
	Title   string
}

// BatchOptions configures a batch run.
type BatchOptions struct {
	OutputDir   string
	Parallelism int
	// FailFast cancels the remaining items after the first failure.
	FailFast      bool
	SkipNarrative bool
	GeneratedAt   time.Time
}

// BatchResult is the outcome of one batch item.
type BatchResult struct {
	Item       BatchItem
	OutputPath string
	ReportID   string
	Rows       int
	Pages      int
	Warnings   []string
	Err        error
	Duration   time.Duration
}

// BatchService runs independent report invocations in parallel.
type BatchService struct {
	reports ReportGenerator
	logger  *slog.Logger
}

// NewBatchService creates a batch service generating through reports.
func NewBatchService(reports ReportGenerator, logger *slog.Logger) *BatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchService{
		reports: reports,
		logger:  infrastructure.WithComponent(logger, "batch_service"),
	}
}

// Run generates one report per item, writing each document into
// opts.OutputDir. Results are returned in item order. Without FailFast every
// item runs and failures are reported per item; the returned error is then
// non-nil only when every item failed.
func (b *BatchService) Run(ctx context.Context, items []BatchItem, opts BatchOptions) ([]BatchResult, error) {
	if len(items) == 0 {
		return nil, ErrNoFilesFound
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}

	b.logger.InfoContext(ctx, "batch started",
		slog.Int("items", len(items)),
		slog.Int("parallelism", parallelism),
		slog.Bool("fail_fast", opts.FailFast),
		slog.String("output_dir", opts.OutputDir))

	results := make([]BatchResult, len(items))
	for i, item := range items {
		results[i].Item = item
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = fmt.Errorf("%w: %v", ErrBatchCanceled, err)
				return nil
			}

			runCtx := ctx
			if opts.FailFast {
				runCtx = gctx
			}
			b.runItem(runCtx, &results[i], opts)
			if results[i].Err != nil && opts.FailFast {
				return fmt.Errorf("%s: %w", filepath.Base(results[i].Item.Path), results[i].Err)
			}
			return nil
		})
	}

	err := g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	b.logger.InfoContext(ctx, "batch completed",
		slog.Int("items", len(items)),
		slog.Int("failed", failed))

	if err != nil {
		return results, err
	}
	if failed == len(items) {
		return results, fmt.Errorf("all %d batch items failed: %w", failed, results[0].Err)
	}
	return results, nil
}

func (b *BatchService) runItem(ctx context.Context, res *BatchResult, opts BatchOptions) {
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()
	ctx = infrastructure.EnsureTraceID(ctx)

	format, err := dataset.DetectFormat(res.Item.Path)
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrInvalidFileType, err)
		return
	}

	f, err := os.Open(res.Item.Path)
	if err != nil {
		res.Err = fmt.Errorf("failed to open dataset: %w", err)
		return
	}
	defer f.Close()

	out, err := b.reports.Generate(ctx, GenerateRequest{
		Input:         f,
		Format:        format,
		Filters:       res.Item.Filters,
		Title:         res.Item.Title,
		GeneratedAt:   opts.GeneratedAt,
		SkipNarrative: opts.SkipNarrative,
	})
	if err != nil {
		res.Err = err
		b.logger.WarnContext(ctx, "batch item failed",
			slog.String("path", res.Item.Path),
			slog.String("error", err.Error()))
		return
	}

	doc := *out.Document
	doc.Filename = batchFilename(res.Item.Path, out.Document.Filename)
	path, err := exporter.SaveDocument(opts.OutputDir, &doc)
	if err != nil {
		res.Err = err
		return
	}

	res.OutputPath = path
	res.ReportID = out.Analysis.ID
	res.Rows = out.Analysis.Rows
	res.Pages = out.Document.PageCount
	res.Warnings = out.Analysis.WarningMessages()
}

// batchFilename prefixes the report filename with the dataset name so that
// documents of one batch never collide.
func batchFilename(inputPath, reportFilename string) string {
	// Keeps the input extension: a.csv becomes a_csv_<report>.pdf.
	return document.Filename(filepath.Base(inputPath) + "_" + strings.TrimSuffix(reportFilename, ".pdf"))
}

// Failed returns the results that carry an error.
func Failed(results []BatchResult) []BatchResult {
	var out []BatchResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// IsCanceled reports whether a batch item was skipped because the batch was
// canceled.
func IsCanceled(r BatchResult) bool {
	return errors.Is(r.Err, ErrBatchCanceled)
}
