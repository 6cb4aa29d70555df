// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/drugvista/drugvista/internal/config"
	dverr "github.com/drugvista/drugvista/pkg/errors"
)

// NewRootCmd creates the root drugvista command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "drugvista",
		Short:         "DrugVista biomedical analysis service",
		Long:          "DrugVista answers drug, disease, and molecule queries by retrieving similar documents from a local corpus and reasoning over them with an LLM chain.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	// Global flags, mapped to viper keys via initViper.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	// Register subcommands
	root.AddCommand(
		newInitCmd(),
		newStartCmd(),
		newAnalyzeCmd(),
		newIngestCmd(),
		newStatsCmd(),
		newStatusCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper sets up the global Viper with defaults, env bindings, flag
// bindings, and optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return dverr.Errorf(dverr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// Auto-discover drugvista.yaml from standard locations.
		// Note: SetConfigType is intentionally omitted. When set, Viper
		// falls back to trying the bare config name without extension,
		// which collides with the ./drugvista binary in the project root.
		v.SetConfigName("drugvista")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/drugvista")
		v.AddConfigPath("/etc/drugvista")
		// No config file is fine: defaults and env vars still apply.
		// Parse or permission errors must surface.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return dverr.Errorf(dverr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
			// No config found anywhere, so bootstrap a default to ~/.config/drugvista/.
			if path := config.BootstrapConfig(); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return dverr.Errorf(dverr.CodeConfigLoadReadFailure, "reading bootstrapped config: %w", err)
				}
			}
		}
	}

	// Bind persistent flags to viper keys.
	if err := v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return dverr.Errorf(dverr.CodeCLISetupFailure, "binding verbose flag: %w", err)
	}

	return nil
}
