package main

import "github.com/spf13/cobra"

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	debug      bool
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:           "atmos",
		Short:         "Run terraform with filtered, annotated output",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.atmos/config.toml)")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "write debug logs")

	cmd.AddCommand(tfCmd(&flags))
	cmd.AddCommand(configCmd(&flags))
	cmd.AddCommand(versionCmd())
	return cmd
}
