// SPDX-License-Identifier: MIT

// Package daemon provides the core daemon bootstrapping and lifecycle management.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ManuGH/callvault/internal/api"
	"github.com/ManuGH/callvault/internal/config"
	"github.com/ManuGH/callvault/internal/health"
	"github.com/ManuGH/callvault/internal/log"
	"github.com/ManuGH/callvault/internal/metadata"
	"github.com/ManuGH/callvault/internal/objectstore"
	"github.com/ManuGH/callvault/internal/recordings"
	"github.com/ManuGH/callvault/internal/session"
	"github.com/ManuGH/callvault/internal/store"
	"github.com/ManuGH/callvault/internal/telemetry"
	"github.com/ManuGH/callvault/internal/transcoder"
)

// Runtime bundles the services built from one configuration.
type Runtime struct {
	Config     config.AppConfig
	Holder     *config.ConfigHolder
	Objects    *objectstore.Resilient
	Repo       *store.Repository
	Tiers      *session.Tiers
	Sessions   *session.Service
	Recordings *recordings.Service
	Health     *health.Manager

	closers []namedHook
	logger  zerolog.Logger
}

// Options selects the configuration source for Bootstrap.
type Options struct {
	// ConfigPath is the YAML file; empty means defaults plus environment.
	ConfigPath string
	Version    string
	// LogOutput defaults to stdout. CLI commands that print results log to stderr.
	LogOutput io.Writer
}

// Bootstrap loads configuration and builds the runtime.
func Bootstrap(ctx context.Context, opts Options) (*Runtime, error) {
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stdout
	}
	log.Configure(log.Config{Output: opts.LogOutput, Version: opts.Version})

	loader := config.NewLoader(opts.ConfigPath, opts.Version)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	rt, err := Build(ctx, cfg, opts.LogOutput)
	if err != nil {
		return nil, err
	}
	rt.Holder = config.NewConfigHolder(cfg, loader, opts.ConfigPath)
	return rt, nil
}

// Build wires every service for cfg, logging to logOut (nil means stdout).
// On failure whatever was opened is closed.
func Build(ctx context.Context, cfg config.AppConfig, logOut io.Writer) (rt *Runtime, err error) {
	if logOut == nil {
		logOut = os.Stdout
	}
	log.Configure(log.Config{
		Level:   cfg.Log.Level,
		Output:  logOut,
		Service: cfg.Log.Service,
		Version: cfg.Version,
	})
	rt = &Runtime{Config: cfg, logger: log.WithComponent("daemon")}
	defer func() {
		if err != nil {
			_ = rt.Close(context.WithoutCancel(ctx))
			rt = nil
		}
	}()

	if err := rt.initTelemetry(ctx); err != nil {
		rt.logger.Warn().Err(err).Msg("Telemetry initialization failed, continuing without tracing")
	}

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		return rt, fmt.Errorf("startup checks: %w", err)
	}

	rt.Objects, err = objectstore.Open(cfg.ObjectStore)
	if err != nil {
		return rt, fmt.Errorf("object store: %w", err)
	}
	rt.onClose("object_store", func(context.Context) error { return rt.Objects.Close() })

	rt.Repo, err = store.Open(ctx, cfg.Database)
	if err != nil {
		return rt, fmt.Errorf("database: %w", err)
	}
	rt.onClose("database", func(context.Context) error { return rt.Repo.Close() })

	rt.Tiers, err = session.NewTiers(ctx, cfg.Session)
	if err != nil {
		return rt, err
	}
	rt.onClose("session_cache", func(context.Context) error { return rt.Tiers.Close() })

	registry := metadata.DefaultRegistry()
	rt.Sessions = session.New(rt.Objects, registry, rt.Tiers.Raw, rt.Tiers.Filtered, session.OptionsFromConfig(cfg.Session))
	rt.onClose("sessions", func(context.Context) error {
		rt.Sessions.Close()
		return nil
	})

	enc := transcoder.NewFFmpegEncoder(cfg.Transcode.FFmpegBin, log.WithComponent("ffmpeg"))
	tc := transcoder.New(enc, transcoder.Options{
		MaxConcurrent: cfg.Transcode.MaxConcurrent,
		Timeout:       cfg.Transcode.Timeout,
		TempDir:       cfg.Transcode.TempDir,
	})

	rt.Recordings = recordings.New(recordings.Deps{
		Store:      rt.Objects,
		Repo:       rt.Repo,
		Sessions:   rt.Sessions,
		Transcoder: tc,
		Registry:   registry,
	})

	rt.Health = health.NewManager(cfg.Version)
	rt.Health.RegisterChecker(health.NewObjectStoreChecker(rt.Objects))
	rt.Health.RegisterChecker(health.NewPingChecker("database", rt.Repo.Ping))
	if rt.Tiers.Redis != nil {
		client := rt.Tiers.Redis
		rt.Health.RegisterChecker(health.NewOptionalPingChecker("session_cache", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))
	}

	rt.logger.Info().
		Str("object_store", cfg.ObjectStore.Backend).
		Str("database", rt.Repo.Driver()).
		Str("session_cache", cfg.Session.Backend).
		Msg("runtime ready")
	return rt, nil
}

func (rt *Runtime) onClose(name string, fn ShutdownHook) {
	rt.closers = append(rt.closers, namedHook{name: name, hook: fn})
}

// initTelemetry initializes OpenTelemetry tracing.
func (rt *Runtime) initTelemetry(ctx context.Context) error {
	tc := rt.Config.Telemetry
	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        tc.Enabled,
		ServiceName:    rt.Config.Log.Service,
		ServiceVersion: rt.Config.Version,
		Environment:    tc.Environment,
		ExporterType:   tc.ExporterType,
		Endpoint:       tc.Endpoint,
		SamplingRate:   tc.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("telemetry init failed: %w", err)
	}
	rt.onClose("telemetry", provider.Shutdown)

	if tc.Enabled {
		rt.logger.Info().
			Str("endpoint", tc.Endpoint).
			Float64("sampling_rate", tc.SamplingRate).
			Msg("Telemetry initialized")
	}
	return nil
}

// Close releases every opened resource in reverse order. Serve registers the
// same closers as shutdown hooks, so Close is for runtimes that never served.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		c := rt.closers[i]
		if err := c.hook(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// Serve runs the HTTP servers until ctx is cancelled, then releases the runtime.
func (rt *Runtime) Serve(ctx context.Context) error {
	handler, err := rt.handler(ctx)
	if err != nil {
		return errors.Join(err, rt.Close(context.WithoutCancel(ctx)))
	}

	deps := Deps{
		Logger:     rt.logger,
		APIHandler: handler,
	}
	if rt.Config.Server.MetricsListen != "" {
		deps.MetricsHandler = api.MetricsHandler()
		deps.MetricsAddr = rt.Config.Server.MetricsListen
	}
	mgr, err := NewManager(rt.Config.Server, deps)
	if err != nil {
		return errors.Join(err, rt.Close(context.WithoutCancel(ctx)))
	}
	for _, c := range rt.closers {
		mgr.RegisterShutdownHook(c.name, c.hook)
	}
	rt.closers = nil
	if rt.Holder != nil {
		holder := rt.Holder
		mgr.RegisterShutdownHook("config_watcher", func(context.Context) error {
			holder.Stop()
			return nil
		})
	}

	return NewApp(rt.logger, mgr, rt.Holder, rt.Sessions).Run(ctx)
}

func (rt *Runtime) handler(ctx context.Context) (http.Handler, error) {
	srv, err := api.New(rt.Config, rt.Recordings, rt.Health)
	if err != nil {
		return nil, err
	}
	return srv.Handler(ctx)
}

// WaitForShutdown returns a context cancelled on interrupt/termination signals.
func WaitForShutdown() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
