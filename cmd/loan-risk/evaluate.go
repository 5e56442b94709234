package main

import (
	"fmt"

	"github.com/iwvelando/loan-risk/internal/ingest"
	"github.com/iwvelando/loan-risk/internal/risk"
	"github.com/iwvelando/loan-risk/pkg/constants"
	"github.com/iwvelando/loan-risk/pkg/output"
	"github.com/iwvelando/loan-risk/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type evaluateOptions struct {
	outputFormat string
	strict       bool
	workers      int
}

func newEvaluateCommand(root *rootOptions) *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate <file>",
		Short: "Evaluate every borrower in a CSV or PDF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.outputFormat, "output-format", "", "type of output override: pretty, csv, json")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "report numeric fields that were defaulted")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "number of evaluation workers (0 uses the configured value)")
	return cmd
}

func runEvaluate(cmd *cobra.Command, root *rootOptions, opts *evaluateOptions, path string) error {
	conf, err := loadConfiguration(root.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", root.configPath, err)
	}

	logger, err := initializeLogger(conf.Logging, root.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI flags take precedence over config
	if opts.outputFormat != "" {
		conf.Output.Format = opts.outputFormat
	}
	if conf.Output.Format == "" {
		conf.Output.Format = constants.OutputFormatPretty
	}
	if cmd.Flags().Changed("strict") {
		conf.Evaluation.Strict = opts.strict
	}
	if opts.workers > 0 {
		conf.Evaluation.Workers = opts.workers
	}

	if err := conf.Validate(); err != nil {
		logger.Error("invalid configuration",
			zap.String("op", "main.evaluate"),
			zap.Error(err),
		)
		return err
	}
	for _, warning := range conf.ValidateConfiguration() {
		logger.Debug("Configuration warning: "+warning,
			zap.String("op", "main.evaluate"),
		)
	}

	var extractor ingest.Extractor
	if conf.Extraction.URL != "" {
		extractor = ingest.NewExtractionClient(logger, conf.Extraction.URL, conf.Extraction.Timeout)
	}

	table, err := ingest.ReadFile(cmd.Context(), path, extractor)
	if err != nil {
		logger.Error("failed to read borrower file",
			zap.String("op", "main.evaluate"),
			zap.String("file", path),
			zap.Error(err),
		)
		return err
	}

	if err := validation.ValidateBatch(table.Fields, table.Rows); err != nil {
		logger.Error("borrower batch rejected",
			zap.String("op", "main.evaluate"),
			zap.String("file", path),
			zap.Error(err),
		)
		return err
	}

	batch := risk.EvaluateBatch(logger, table.Rows, risk.Options{
		Workers: conf.Evaluation.Workers,
		Strict:  conf.Evaluation.Strict,
	})

	out := cmd.OutOrStdout()
	switch conf.Output.Format {
	case constants.OutputFormatPretty:
		output.WritePretty(out, batch)
	case constants.OutputFormatCSV:
		err = output.WriteCSV(out, table.Rows, batch.Results)
	case constants.OutputFormatJSON:
		err = output.WriteJSON(out, batch)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s output: %w", conf.Output.Format, err)
	}
	return nil
}
