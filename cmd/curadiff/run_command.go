package main

import (
	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var skipDownload bool

	cmd := &cobra.Command{
		Use:   "run <url-list>",
		Short: "Download a URL list and process it end to end",
		Long: `Download every URL of the list into a "raw" directory next to the list file,
then write differential artifacts into a sibling "diff" directory.
Downloads that fail are reported and the batch continues with what arrived.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			if err := cfg.WithListDir(args[0]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if !skipDownload {
				if _, err := downloadBatch(cmd, ctx, cfg, args[0], cfg.Paths.RawDir); err != nil {
					return err
				}
			}
			return processBatch(cmd, ctx, cfg)
		},
	}

	cmd.Flags().BoolVar(&skipDownload, "skip-download", false, "Process the existing raw directory without downloading")
	return cmd
}
