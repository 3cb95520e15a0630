package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"curadiff/internal/ledger"
)

const (
	runTimeLayout = "2006-01-02 15:04:05"
	shortIDLength = 8
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect past batches recorded in the run ledger",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, ctx, func(store *ledger.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						formatRunTime(run.StartedAt),
						formatRunTime(run.FinishedAt),
						strconv.Itoa(run.Resolved),
						strconv.Itoa(run.Failed),
						strconv.Itoa(run.Skipped),
						run.RawDir,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Started", "Finished", "Resolved", "Failed", "Skipped", "Raw dir"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show per-file outcomes of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, ctx, func(store *ledger.Store) error {
				run, err := store.GetRun(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				outcomes, err := store.Outcomes(cmd.Context(), run.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Run "+run.ID, colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Raw dir", statusInfo, run.RawDir, colorize))
				fmt.Fprintln(out, renderStatusLine("Diff dir", statusInfo, run.DiffDir, colorize))
				fmt.Fprintln(out, renderStatusLine("Started", statusInfo, formatRunTime(run.StartedAt), colorize))
				if run.Finished() {
					fmt.Fprintln(out, renderStatusLine("Finished", statusOK, formatRunTime(run.FinishedAt), colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("Finished", statusWarn, "run did not finish", colorize))
				}

				if len(outcomes) == 0 {
					fmt.Fprintln(out, "No outcomes recorded")
					return nil
				}
				rows := make([][]string, 0, len(outcomes))
				for _, o := range outcomes {
					rows = append(rows, []string{
						o.Dataset,
						o.Curator,
						o.DataFile,
						string(o.Status),
						schemeCell(o),
						strconv.Itoa(o.Columns),
						o.Kind,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Dataset", "Curator", "Data file", "Status", "Scheme", "Columns", "Kind"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func withLedger(cmd *cobra.Command, ctx *commandContext, fn func(*ledger.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Ledger.Enabled {
		return errors.New("run ledger is disabled; set [ledger] enabled = true")
	}
	store, err := openLedger(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func schemeCell(o ledger.Outcome) string {
	if o.SchemeIndex == 0 {
		return "-"
	}
	return fmt.Sprintf("%d [%s]", o.SchemeIndex, strings.Join(o.ConditionFields, ", "))
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func formatRunTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(runTimeLayout)
}
