// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest document files into the local corpus",
		Long:  "Parse and index one or more .txt, .csv, or .json files. CSV files produce one document per row, JSON arrays one per element. Does not require a running server.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().String("type", "patient_data", "document type (paper, clinical_trial, market, patient_data)")
	cmd.Flags().String("description", "", "optional document description")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
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

	docType, _ := cmd.Flags().GetString("type")
	description, _ := cmd.Flags().GetString("description")
	out := cmd.OutOrStdout()

	total := 0
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		added, err := app.Ingest.IngestFile(cmd.Context(), filepath.Base(path), content, docType, description)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}

		total += added
		if _, err := fmt.Fprintf(out, "%s: %d document(s)\n", path, added); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintf(out, "Ingested %d document(s) total\n", total)
	return err
}
