package main

import (
	"strings"

	"github.com/spf13/cobra"

	"curadiff/internal/config"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var rawDir string
	var outDir string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Compute differential profiles for downloaded datasets",
		Long: `Process every "<dataset>.meta.<curator>" file in the raw directory together
with its "<dataset>.*.processed.gz" expression files, writing .diff, .cntmap,
and .sep.gz artifacts to the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.configCopy()
			if err != nil {
				return err
			}
			if err := overridePaths(cfg, rawDir, outDir); err != nil {
				return err
			}
			return processBatch(cmd, ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&rawDir, "raw", "", "Directory holding downloaded metadata and expression files")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory receiving differential artifacts")
	return cmd
}

func overridePaths(cfg *config.Config, rawDir, outDir string) error {
	if value := strings.TrimSpace(rawDir); value != "" {
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return err
		}
		cfg.Paths.RawDir = expanded
	}
	if value := strings.TrimSpace(outDir); value != "" {
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return err
		}
		cfg.Paths.DiffDir = expanded
	}
	return cfg.Validate()
}
