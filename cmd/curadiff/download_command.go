package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"curadiff/internal/config"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "download <url-list>",
		Short: "Download the resources named in a URL list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			target := cfg.Paths.RawDir
			if value := strings.TrimSpace(dest); value != "" {
				if target, err = config.ExpandPath(value); err != nil {
					return err
				}
			}
			report, err := downloadBatch(cmd, ctx, cfg, args[0], target)
			if err != nil {
				return err
			}
			if len(report.Failures) > 0 {
				return fmt.Errorf("%d of %d downloads failed", len(report.Failures), len(report.Failures)+len(report.Files))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dest, "dest", "d", "", "Destination directory (defaults to the configured raw directory)")
	return cmd
}
