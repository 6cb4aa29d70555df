// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DrugVista Contributors

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"

	"github.com/drugvista/drugvista/internal/config"
	dverr "github.com/drugvista/drugvista/pkg/errors"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics",
		Long:  "Check binary health, the running service, configuration, the vector index, and disk space.",
		RunE:  runDoctor,
	}

	cmd.Flags().String("address", "127.0.0.1:8000", "service address to check")

	return cmd
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	addr, _ := cmd.Flags().GetString("address")
	indexPath := resolveIndexPath()

	checks := []struct {
		name string
		fn   func() string
	}{
		{"Binary", checkBinary},
		{"Platform", checkPlatform},
		{"Service", func() string { return checkService(addr) }},
		{"Config", checkConfig},
		{"Index", func() string { return checkIndex(indexPath) }},
		{"Disk Space", func() string { return checkDiskSpace(indexPath) }},
	}

	for _, c := range checks {
		if _, err := fmt.Fprintf(w, "%-20s %s\n", c.name+":", c.fn()); err != nil {
			return err
		}
	}

	return nil
}

// resolveIndexPath returns the index path from viper or the default.
func resolveIndexPath() string {
	if path := viper.GetString("storage.index_path"); path != "" {
		return path
	}
	path, _ := config.DefaultIndexPath()
	return path
}

func checkBinary() string {
	return fmt.Sprintf("drugvista %s (%s/%s)", version, runtime.GOOS, runtime.GOARCH)
}

func checkPlatform() string {
	return fmt.Sprintf("%s/%s, Go %s", runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func checkService(addr string) string {
	sc := newServiceClient(addr)
	var body struct {
		Status string `json:"status"`
	}
	if err := sc.getJSON("/api/v1/status", &body); err != nil {
		if dverr.HasCode(err, dverr.CodeCLIServiceNotRunning) {
			return fmt.Sprintf("not running at %s (run 'drugvista start')", addr)
		}
		return fmt.Sprintf("error: %s", err)
	}
	return fmt.Sprintf("%s at %s", body.Status, addr)
}

func checkConfig() string {
	cfgFile := viper.ConfigFileUsed()
	if cfgFile != "" {
		return fmt.Sprintf("loaded from %s", cfgFile)
	}
	return "using defaults (no config file found)"
}

func checkIndex(indexPath string) string {
	if indexPath == "" {
		return "no index path configured"
	}
	info, err := os.Stat(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("not created yet at %s (run 'drugvista ingest')", indexPath)
		}
		return fmt.Sprintf("error: %s", err)
	}
	return fmt.Sprintf("%s (%s)", indexPath, formatBytes(uint64(info.Size())))
}

func checkDiskSpace(indexPath string) string {
	path := indexPath
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Fall back to home directory if the index doesn't exist yet.
		path, _ = os.UserHomeDir()
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return fmt.Sprintf("unable to check: %s", err)
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	return formatBytes(availBytes) + " available"
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b uint64) string {
	const (
		gb = 1024 * 1024 * 1024
		mb = 1024 * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	default:
		return fmt.Sprintf("%d bytes", b)
	}
}
