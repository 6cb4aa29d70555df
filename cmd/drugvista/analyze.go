// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drugvista/drugvista/internal/pipeline"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <query>",
		Short: "Run one analysis query",
		Long:  "Analyze a drug, disease, or molecule query and print the resulting record as JSON. By default the pipeline runs in-process against the local index; with --address the query is sent to a running service instead.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAnalyze,
	}

	cmd.Flags().String("address", "", "send the query to a running service instead of analyzing locally")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	addr, _ := cmd.Flags().GetString("address")
	if addr != "" {
		return analyzeRemote(cmd, addr, query)
	}

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

	record, err := app.Pipeline.Analyze(cmd.Context(), query)
	if err != nil {
		return err
	}

	return printRecord(cmd, record)
}

func analyzeRemote(cmd *cobra.Command, addr, query string) error {
	sc := newServiceClient(addr)

	var record pipeline.AnalysisRecord
	req := map[string]string{"query": query}
	if err := sc.postJSON("/api/v1/analyze", req, &record); err != nil {
		return err
	}

	return printRecord(cmd, record)
}

func printRecord(cmd *cobra.Command, record pipeline.AnalysisRecord) error {
	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
