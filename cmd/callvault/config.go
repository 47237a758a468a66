// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/callvault/internal/config"
)

const redacted = "***"

func configCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Validate or print the configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "validate",
			Short: "Validate the configuration file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path := strings.TrimSpace(*cfgPath)
				if path == "" {
					return errors.New("--config is required")
				}
				if _, err := loadConfig(path); err != nil {
					return fmt.Errorf("configuration error in %s: %w", path, err)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", path)
				return err
			},
		},
		&cobra.Command{
			Use:   "dump",
			Short: "Print the effective configuration (defaults + file + env) as YAML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig(strings.TrimSpace(*cfgPath))
				if err != nil {
					return err
				}
				redactSecrets(&cfg)
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return fmt.Errorf("encode YAML: %w", err)
				}
				return enc.Close()
			},
		},
	)
	return cmd
}

func redactSecrets(cfg *config.AppConfig) {
	for _, s := range []*string{
		&cfg.ObjectStore.Azure.ConnectionString,
		&cfg.ObjectStore.Azure.ClientSecret,
		&cfg.Session.Redis.Password,
	} {
		if *s != "" {
			*s = redacted
		}
	}
	if strings.Contains(cfg.Database.DSN, "@") {
		cfg.Database.DSN = maskDSN(cfg.Database.DSN)
	}
}

// maskDSN drops the password from a URL-style DSN.
func maskDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPass := strings.Cut(creds, ":")
	if !hasPass {
		return dsn
	}
	return scheme + "://" + user + ":" + redacted + "@" + host
}
