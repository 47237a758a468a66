// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/callvault/internal/config"
	"github.com/ManuGH/callvault/internal/log"
)

// PerformStartupChecks validates the environment before the server starts.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := checkListenAddr(logger, "server.listen", cfg.Server.Listen); err != nil {
		return err
	}
	if cfg.Server.MetricsListen != "" {
		if err := checkListenAddr(logger, "server.metricsListen", cfg.Server.MetricsListen); err != nil {
			return err
		}
	}

	if cfg.Database.Driver == config.DriverSQLite {
		if err := checkWritableDir(logger, filepath.Dir(cfg.Database.DSN)); err != nil {
			return fmt.Errorf("database directory check failed: %w", err)
		}
	}
	switch cfg.ObjectStore.Backend {
	case config.BackendFS:
		if err := checkWritableDir(logger, cfg.ObjectStore.FS.Root); err != nil {
			return fmt.Errorf("object store root check failed: %w", err)
		}
	case config.BackendBadger:
		if err := checkWritableDir(logger, cfg.ObjectStore.Badger.Dir); err != nil {
			return fmt.Errorf("badger directory check failed: %w", err)
		}
	}

	if cfg.Transcode.TempDir != "" {
		if err := checkWritableDir(logger, cfg.Transcode.TempDir); err != nil {
			return fmt.Errorf("transcode temp directory check failed: %w", err)
		}
	}

	// ffmpeg is only needed for audio; warn instead of refusing to start
	bin := strings.TrimSpace(cfg.Transcode.FFmpegBin)
	if bin == "" {
		bin = "ffmpeg"
	}
	if _, err := exec.LookPath(bin); err != nil {
		logger.Warn().Err(err).Str("ffmpeg", bin).Msg("ffmpeg binary not found; audio endpoints will fail")
	} else {
		logger.Info().Str("ffmpeg", bin).Msg("ffmpeg available")
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Info().Msg("all startup checks passed")
	return nil
}

func checkListenAddr(logger zerolog.Logger, field, addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid %s port %q", field, port)
	}
	logger.Debug().Str("addr", addr).Msg("listen address is valid")
	return nil
}

// checkWritableDir creates path when missing and probes it with a temp file.
func checkWritableDir(logger zerolog.Logger, path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	f, err := os.CreateTemp(path, ".write_test-*")
	if err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	logger.Info().Str("path", path).Msg("directory is writable")
	return nil
}
