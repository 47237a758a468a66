// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"strings"

	"github.com/ManuGH/callvault/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.ListenAddr("server.listen", cfg.Server.Listen)
	if cfg.Server.MetricsListen != "" {
		v.ListenAddr("server.metricsListen", cfg.Server.MetricsListen)
	}
	v.PositiveDuration("server.shutdownTimeout", cfg.Server.ShutdownTimeout)
	v.NonNegative("server.maxConnections", cfg.Server.MaxConnections)

	if _, err := validate.ParseLogLevel(cfg.Log.Level); err != nil {
		v.AddError("log.level", "invalid log level (must be: debug, info, warn, error)", cfg.Log.Level)
	}

	o := cfg.ObjectStore
	v.OneOf("objectStore.backend", o.Backend, []string{BackendAzure, BackendFS, BackendBadger})
	v.PositiveDuration("objectStore.timeout", o.Timeout)
	if o.RPS < 0 {
		v.AddError("objectStore.rps", "value cannot be negative", o.RPS)
	}
	switch o.Backend {
	case BackendAzure:
		v.NotEmpty("objectStore.azure.container", o.Azure.Container)
		if strings.TrimSpace(o.Azure.ConnectionString) == "" && strings.TrimSpace(o.Azure.Account) == "" {
			v.AddError("objectStore.azure", "either connectionString or account is required", "")
		}
		if o.Azure.Endpoint != "" {
			v.URL("objectStore.azure.endpoint", o.Azure.Endpoint, []string{"http", "https"})
		}
	case BackendFS:
		v.Directory("objectStore.fs.root", o.FS.Root, false)
	case BackendBadger:
		v.NotEmpty("objectStore.badger.dir", o.Badger.Dir)
	}

	v.OneOf("database.driver", cfg.Database.Driver, []string{DriverSQLite, DriverPostgres})
	v.NotEmpty("database.dsn", cfg.Database.DSN)

	s := cfg.Session
	v.OneOf("session.backend", s.Backend, []string{SessionMemory, SessionRedis})
	v.PositiveDuration("session.ttl", s.TTL)
	v.Positive("session.maxEntries", s.MaxEntries)
	v.Positive("session.maxRecords", s.MaxRecords)
	if s.Backend == SessionRedis {
		v.NotEmpty("session.redis.addr", s.Redis.Addr)
	}

	v.NotEmpty("transcode.ffmpegBin", cfg.Transcode.FFmpegBin)
	v.Range("transcode.maxConcurrent", cfg.Transcode.MaxConcurrent, 1, 64)
	v.PositiveDuration("transcode.timeout", cfg.Transcode.Timeout)

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.ExporterType, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
			v.AddError("telemetry.samplingRate", "must be between 0 and 1", cfg.Telemetry.SamplingRate)
		}
	}

	if cfg.RateLimit.Enabled {
		v.Positive("rateLimit.limit", cfg.RateLimit.Limit)
		v.PositiveDuration("rateLimit.window", cfg.RateLimit.Window)
	}

	return v.Err()
}
