// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/ManuGH/callvault/internal/daemon"
	"github.com/ManuGH/callvault/internal/log"
	"github.com/ManuGH/callvault/internal/version"
)

func serveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := daemon.WaitForShutdown()
			defer stop()

			rt, err := daemon.Bootstrap(ctx, daemon.Options{ConfigPath: *cfgPath, Version: version.Version})
			if err != nil {
				return err
			}
			logger := log.WithComponent("daemon")
			logger.Info().
				Str(log.FieldEvent, "daemon.start").
				Str("listen", rt.Config.Server.Listen).
				Str("config", *cfgPath).
				Msg("starting callvault")
			return rt.Serve(ctx)
		},
	}
}
