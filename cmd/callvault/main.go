// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command callvault serves and inspects call-recording metadata.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ManuGH/callvault/internal/version"
)

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "callvault",
		Short:         "Call-recording metadata search and retrieval",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", os.Getenv("CALLVAULT_CONFIG"), "path to YAML configuration file")
	root.SetVersionTemplate(version.String() + "\n")

	root.AddCommand(
		serveCmd(&cfgPath),
		crawlCmd(&cfgPath),
		searchCmd(&cfgPath),
		migrateCmd(&cfgPath),
		dbCmd(&cfgPath),
		configCmd(&cfgPath),
		healthcheckCmd(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
