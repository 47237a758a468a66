// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ManuGH/callvault/internal/config"
	"github.com/ManuGH/callvault/internal/store"
)

func dbCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect the recordings database",
	}
	cmd.AddCommand(dbVerifyCmd(cfgPath))
	return cmd
}

func dbVerifyCmd(cfgPath *string) *cobra.Command {
	var (
		path string
		mode string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check SQLite database integrity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode = strings.ToLower(strings.TrimSpace(mode))
			if mode != "quick" && mode != "full" {
				return fmt.Errorf("invalid mode %q. Use 'quick' or 'full'", mode)
			}
			if path == "" {
				cfg, err := loadConfig(*cfgPath)
				if err != nil {
					return err
				}
				if cfg.Database.Driver != config.DriverSQLite {
					return fmt.Errorf("integrity check requires the sqlite driver, configured: %s", cfg.Database.Driver)
				}
				path = cfg.Database.DSN
			}

			results, err := store.VerifyIntegrity(path, mode)
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Database", "Mode", "Result"})
			ok := len(results) == 1 && results[0] == "ok"
			for _, r := range results {
				tw.AppendRow(table.Row{path, mode, r})
			}
			tw.Render()
			if !ok {
				return fmt.Errorf("integrity check failed for %s", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "SQLite database file (default: configured DSN)")
	cmd.Flags().StringVar(&mode, "mode", "quick", "verification mode: quick or full")
	return cmd
}
