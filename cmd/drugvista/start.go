// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/drugvista/drugvista/internal/config"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the drugvista service",
		Long:  "Load configuration, open the vector index, wire the analysis pipeline, and start the HTTP server.",
		RunE:  runStart,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = viper.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runStart(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	setupLogging()

	app, err := WireApp(cfg)
	if err != nil {
		return fmt.Errorf("wiring subsystems: %w", err)
	}
	defer func() { _ = app.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting drugvista", "listen", cfg.Server.Listen,
		"embedding", app.Embedder.Model(), "offline", app.Registry.Empty())

	return app.Start(ctx)
}

// loadConfig loads the config file named by --config (or discovery) and
// applies flag/env overrides that Viper resolved.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgPath := viper.ConfigFileUsed()
	if flagPath, _ := cmd.Flags().GetString("config"); flagPath != "" {
		cfgPath = flagPath
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	config.WarnInsecurePermissions(cfgPath)

	if listen := viper.GetString("server.listen"); listen != "" {
		cfg.Server.Listen = listen
	}
	return cfg, nil
}

func setupLogging() {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
