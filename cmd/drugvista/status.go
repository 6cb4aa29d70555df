// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	dverr "github.com/drugvista/drugvista/pkg/errors"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show service status",
		Long:  "Check the running service's status endpoint and display service and provider availability.",
		RunE:  runStatus,
	}

	cmd.Flags().String("address", "127.0.0.1:8000", "service address to check")

	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	out := cmd.OutOrStdout()

	sc := newServiceClient(addr)
	var body struct {
		Status    string `json:"status"`
		Providers []struct {
			Provider  string `json:"provider"`
			Model     string `json:"model"`
			Available bool   `json:"available"`
		} `json:"providers"`
	}
	if err := sc.getJSON("/api/v1/status", &body); err != nil {
		if dverr.HasCode(err, dverr.CodeCLIServiceNotRunning) {
			_, _ = fmt.Fprintf(out, "Service at %s is not running (connection refused)\n", addr)
			return nil
		}
		_, _ = fmt.Fprintf(out, "Service at %s: %s\n", addr, err)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Service at %s: %s\n", addr, body.Status)
	for _, p := range body.Providers {
		state := "unavailable"
		if p.Available {
			state = "available"
		}
		_, _ = fmt.Fprintf(out, "  %s (%s): %s\n", p.Provider, p.Model, state)
	}
	if len(body.Providers) == 0 {
		_, _ = fmt.Fprintln(out, "  no generation providers configured (offline keyword mode)")
	}
	return nil
}
