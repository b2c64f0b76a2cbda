package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"matchreport/internal/app"
	"matchreport/internal/files"
	"matchreport/internal/services"
	"matchreport/internal/validation"
)

type batchOptions struct {
	inputDir  string
	pattern   string
	recursive bool
	output    string
	parallel  int
	failFast  bool
	narrative bool
	title     string
	filters   filterFlags
}

func newBatchCmd(root *rootOptions) *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate one report per dataset in a directory",
		Example: `  matchreport batch --input-dir data --output reports --parallel 4
  matchreport batch --input-dir data --pattern "odi_*.csv" --team India`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, root, opts)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.inputDir, "input-dir", "", "directory holding .csv and .xlsx datasets")
	fs.StringVar(&opts.pattern, "pattern", "", "glob selecting datasets inside --input-dir")
	fs.BoolVar(&opts.recursive, "recursive", false, "search subdirectories of --input-dir")
	fs.StringVarP(&opts.output, "output", "o", ".", "directory the PDFs are written to")
	fs.IntVarP(&opts.parallel, "parallel", "p", 2, "reports generated at the same time")
	fs.BoolVar(&opts.failFast, "fail-fast", false, "stop at the first failed dataset")
	fs.BoolVar(&opts.narrative, "narrative", true, "ask the configured generator for a narrative")
	fs.StringVar(&opts.title, "title", "", "report title applied to every dataset")
	opts.filters.register(fs)
	cmd.MarkFlagRequired("input-dir")

	return cmd
}

func runBatch(cmd *cobra.Command, root *rootOptions, opts *batchOptions) error {
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
	if err := validator.ValidateInputDirectory(opts.inputDir); err != nil {
		return err
	}
	if err := validator.ValidateOutputDirectory(opts.output); err != nil {
		return err
	}

	discovery := files.NewDiscovery("")
	var found []files.FileInfo
	if opts.pattern != "" {
		found, err = discovery.FindFilesByPattern(opts.inputDir, opts.pattern)
	} else {
		found, err = discovery.FindDatasets(opts.inputDir, opts.recursive)
	}
	if err != nil {
		return err
	}

	items := make([]services.BatchItem, len(found))
	for i, f := range found {
		items[i] = services.BatchItem{Path: f.Path, Filters: filters, Title: opts.title}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := app.NewServiceContainer(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}

	results, runErr := svc.Batch.Run(ctx, items, services.BatchOptions{
		OutputDir:     opts.output,
		Parallelism:   opts.parallel,
		FailFast:      opts.failFast,
		SkipNarrative: !opts.narrative,
	})

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tROWS\tPAGES\tTIME\tRESULT")
	failed := 0
	for _, r := range results {
		status := r.OutputPath
		if r.Err != nil {
			failed++
			status = "error: " + r.Err.Error()
		} else if len(r.Warnings) > 0 {
			status += fmt.Sprintf(" (%d warning(s))", len(r.Warnings))
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", r.Item.Path, r.Rows, r.Pages, r.Duration.Round(time.Millisecond), status)
	}
	tw.Flush()
	fmt.Fprintf(cmd.OutOrStdout(), "%d report(s), %d failed\n", len(results)-failed, failed)

	if runErr != nil {
		return runErr
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d datasets failed", failed, len(results))
	}
	return nil
}
