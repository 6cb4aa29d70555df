// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	dverr "github.com/drugvista/drugvista/pkg/errors"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show corpus statistics",
		Long:  "Query the running service's stats endpoint and display document and index counts.",
		RunE:  runStats,
	}

	cmd.Flags().String("address", "127.0.0.1:8000", "service address to query")

	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	out := cmd.OutOrStdout()

	sc := newServiceClient(addr)
	var body struct {
		TotalDocuments     int    `json:"total_documents"`
		IndexSize          int    `json:"index_size"`
		EmbeddingDimension int    `json:"embedding_dimension"`
		ModelName          string `json:"model_name"`
	}
	if err := sc.getJSON("/api/v1/stats", &body); err != nil {
		if dverr.HasCode(err, dverr.CodeCLIServiceNotRunning) {
			_, _ = fmt.Fprintf(out, "Service at %s is not running (connection refused)\n", addr)
			return nil
		}
		_, _ = fmt.Fprintf(out, "Service at %s: %s\n", addr, err)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Documents:  %d\n", body.TotalDocuments)
	_, _ = fmt.Fprintf(out, "Vectors:    %d\n", body.IndexSize)
	_, _ = fmt.Fprintf(out, "Dimensions: %d\n", body.EmbeddingDimension)
	_, _ = fmt.Fprintf(out, "Model:      %s\n", body.ModelName)
	return nil
}
