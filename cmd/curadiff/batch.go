package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"curadiff/internal/config"
	"curadiff/internal/download"
	"curadiff/internal/pipeline"
	"curadiff/internal/preflight"
)

// processBatch runs the pipeline over cfg's raw directory and prints a summary.
func processBatch(cmd *cobra.Command, ctx *commandContext, cfg *config.Config) error {
	if err := os.MkdirAll(cfg.Paths.DiffDir, 0o755); err != nil {
		return fmt.Errorf("create diff directory: %w", err)
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	results := preflight.RunAll(cfg)
	if err := preflight.Err(results); err != nil {
		printPreflight(out, results, colorize)
		return err
	}

	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	store, err := openLedger(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	runner := &pipeline.Runner{
		RawDir:  cfg.Paths.RawDir,
		DiffDir: cfg.Paths.DiffDir,
		Logger:  logger,
	}
	if store != nil {
		defer store.Close()
		runner.Ledger = store
	}

	summary, runErr := runner.Run(cmd.Context())
	printSummary(out, cfg, summary, colorize)
	return runErr
}

// downloadBatch fetches a URL list into dest. Per-URL failures are printed and
// returned as the report; err covers the list itself and cancellation.
func downloadBatch(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, listPath, dest string) (download.Report, error) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	logger, err := ctx.ensureLogger()
	if err != nil {
		return download.Report{}, err
	}
	if check := preflight.CheckSession(cfg.Download.SessionToken, cfg.Download.SessionCookie); check.Optional {
		fmt.Fprintln(out, renderStatusLine(check.Name, statusWarn, check.Detail, colorize))
	}

	client, err := download.NewClient(download.SessionFromConfig(cfg),
		download.WithTimeout(time.Duration(cfg.Download.TimeoutSeconds)*time.Second),
		download.WithLogger(logger),
	)
	if err != nil {
		return download.Report{}, err
	}
	report, err := client.Fetch(cmd.Context(), listPath, dest)
	printDownloadReport(out, dest, report, colorize)
	return report, err
}

func printPreflight(out io.Writer, results []preflight.Result, colorize bool) {
	for _, line := range renderSectionHeader("Preflight", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, r := range results {
		kind := statusOK
		switch {
		case !r.Passed:
			kind = statusError
		case r.Optional:
			kind = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
}
