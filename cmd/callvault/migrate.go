// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ManuGH/callvault/internal/config"
	"github.com/ManuGH/callvault/internal/log"
	"github.com/ManuGH/callvault/internal/store"
	"github.com/ManuGH/callvault/internal/version"
)

func loadConfig(cfgPath string) (config.AppConfig, error) {
	log.Configure(log.Config{Output: os.Stderr, Version: version.Version})
	cfg, err := config.NewLoader(cfgPath, version.Version).Load()
	if err != nil {
		return cfg, err
	}
	log.Configure(log.Config{Level: cfg.Log.Level, Output: os.Stderr, Service: cfg.Log.Service, Version: cfg.Version})
	return cfg, nil
}

func migrateCmd(cfgPath *string) *cobra.Command {
	var (
		direction string
		steps     int
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if direction != store.DirectionUp && direction != store.DirectionDown {
				return fmt.Errorf("invalid direction %q (use up or down)", direction)
			}
			if steps < 0 {
				return fmt.Errorf("steps must not be negative")
			}
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if cfg.Database.Driver == config.DriverSQLite {
				if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0o750); err != nil {
					return fmt.Errorf("create database dir: %w", err)
				}
			}
			if err := store.Migrate(cfg.Database, direction, steps); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "migrated %s (%s)\n", direction, cfg.Database.Driver)
			return err
		},
	}
	cmd.Flags().StringVar(&direction, "direction", store.DirectionUp, "up or down")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return cmd
}
