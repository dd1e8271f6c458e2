package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/simplygenius/atmos-sub001/internal/config"
	"github.com/simplygenius/atmos-sub001/internal/filter"
)

func configCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(configInitCmd(flags))
	cmd.AddCommand(configShowCmd(flags))
	return cmd
}

func configPath(flags *globalFlags) (string, error) {
	if flags.configPath != "" {
		return flags.configPath, nil
	}
	return config.DefaultPath()
}

func configInitCmd(flags *globalFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default filter chains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configPath(flags)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			cfg := config.Default()
			cfg.Tool.Binary = "terraform"
			cfg.Filters.Stdout = filter.DefaultStdout
			cfg.Filters.Stderr = filter.DefaultStderr
			cfg.JSONDiff.ContextLines = 3
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (using defaults)\n", err)
			}

			effective := *cfg
			effective.Tool.Binary = cfg.Tool.GetBinary()
			effective.Tool.Kind = cfg.Tool.GetKind()
			effective.Filters.Stdout = cfg.StdoutFilters()
			effective.Filters.Stderr = cfg.StderrFilters()
			effective.JSONDiff.ContextLines = cfg.DiffContext()
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(effective)
		},
	}
}
