package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"matchreport/internal/app"
	"matchreport/internal/exporter"
	"matchreport/internal/services"
	"matchreport/internal/validation"
)

type generateOptions struct {
	input       string
	output      string
	title       string
	proxyMetric string
	narrative   bool
	csv         bool
	filters     filterFlags
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a PDF report from one dataset",
		Example: `  matchreport generate --input odi_matches.csv --output reports
  matchreport generate -i odi.xlsx -o reports --team India --season 2011 --no-narrative`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, root, opts)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.input, "input", "i", "", "dataset file (.csv or .xlsx)")
	fs.StringVarP(&opts.output, "output", "o", ".", "directory the PDF is written to")
	fs.StringVar(&opts.title, "title", "", "report title (default from config)")
	fs.StringVar(&opts.proxyMetric, "proxy-metric", "", "numeric column charted as the runs proxy (default from config)")
	fs.BoolVar(&opts.narrative, "narrative", true, "ask the configured generator for a narrative")
	fs.BoolVar(&opts.csv, "csv", false, "also write the filtered rows as CSV next to the PDF")
	opts.filters.register(fs)
	cmd.MarkFlagRequired("input")

	return cmd
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	logger := cliLogger(cmd, cfg)

	filters, err := opts.filters.filters()
	if err != nil {
		return err
	}
	validator := validation.NewFileValidator(logger)
	format, err := validator.ValidateDataset(opts.input)
	if err != nil {
		return err
	}
	if err := validator.ValidateOutputDirectory(opts.output); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := app.NewServiceContainer(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	result, err := svc.Reports.Generate(ctx, services.GenerateRequest{
		Input:         f,
		Format:        format,
		Filters:       filters,
		Title:         opts.title,
		ProxyMetric:   opts.proxyMetric,
		SkipNarrative: !opts.narrative,
	})
	if err != nil {
		return err
	}

	path, err := exporter.SaveDocument(opts.output, result.Document)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	a := result.Analysis
	fmt.Fprintf(out, "report:  %s\n", path)
	fmt.Fprintf(out, "id:      %s\n", a.ID)
	fmt.Fprintf(out, "rows:    %d of %d\n", a.Rows, a.InputRows)
	fmt.Fprintf(out, "pages:   %d\n", result.Document.PageCount)
	for _, w := range a.WarningMessages() {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	if result.NarrativeFallback {
		fmt.Fprintln(out, "warning: narrative unavailable, report has no narrative text")
	}

	if opts.csv {
		csvName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "_filtered.csv"
		csvPath, err := exporter.NewCSVWriter(opts.output).WriteTableFile(csvName, a.Table(), exporter.WriteOptions{IncludeBOM: true})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "csv:     %s\n", csvPath)
	}
	return nil
}
