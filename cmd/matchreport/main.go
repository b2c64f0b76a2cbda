package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"matchreport/internal/app"
	"matchreport/internal/config"
	"matchreport/internal/infrastructure"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "matchreport",
		Short:         "Build PDF reports from ODI match datasets",
		Version:       app.VERSION,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"path to a YAML config file (default: MATCHREPORT_CONFIG or ./config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"log level override (debug, info, warn, error)")

	root.AddCommand(
		newGenerateCmd(opts),
		newBatchCmd(opts),
		newServeCmd(opts),
	)
	return root
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		if _, statErr := os.Stat(o.configPath); statErr != nil {
			return nil, fmt.Errorf("config file: %w", statErr)
		}
		cfg, err = config.LoadFrom(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}

// cliLogger logs JSON to the command's stderr so stdout stays readable.
func cliLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	logger := infrastructure.NewLogger(cmd.ErrOrStderr(), cfg.Logging.Level)
	slog.SetDefault(logger)
	return logger
}
