package main

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "modelpilot-kernel",
		Short: "Adaptive resource selection and switching kernel",
		Long: `modelpilot-kernel ranks interchangeable backends (LLM models, endpoints)
against per-request criteria, keeps one of them current, records observed
usage, and switches away from the current backend when its live performance
degrades.

Running without a subcommand starts the HTTP API (same as "serve").`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to the YAML config (default $MODELPILOT_CONFIG or ./modelpilot.yaml)")

	cmd.AddCommand(newServeCommand(&configPath))
	cmd.AddCommand(newValidateCommand(&configPath))
	cmd.AddCommand(newEncryptCommand())

	return cmd
}
