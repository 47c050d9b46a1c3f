package main

import (
	"fmt"

	"github.com/spf13/cobra"

	appconfig "github.com/manthysbr/modelpilot/internal/config"
)

func newValidateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the config file without starting the kernel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := appconfig.LoadSecretKey()
			if err != nil {
				return err
			}
			path := appconfig.ResolvePath(*configPath)
			cfg, err := appconfig.Load(path, secret)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d resources, runner %s)\n", path, len(cfg.Resources), cfg.Executor.Runner)
			return nil
		},
	}
}

func newEncryptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <secret>",
		Short: "Encrypt a secret for use as an enc: value in the config file",
		Long: `Encrypt a secret (for example executor.token) with the local key.

The key comes from $MODELPILOT_SECRET_KEY or ~/.modelpilot/secret.key; the
key file is generated on first use.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := appconfig.NewSecretKey()
			if err != nil {
				return err
			}
			enc, err := secret.Encrypt(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), enc)
			return nil
		},
	}
}
