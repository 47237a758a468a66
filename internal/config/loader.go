// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence ENV > File > Defaults.
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader. configPath may be empty.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Path returns the config file path the loader reads, if any.
func (l *Loader) Path() string { return l.configPath }

// Load runs Defaults -> strict file parse -> env overrides -> Validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	mergeEnv(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes YAML over cfg with STRICT parsing: unknown fields are fatal.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func env(name string) string { return EnvPrefix + name }

// mergeEnv applies CALLVAULT_* overrides.
func mergeEnv(cfg *AppConfig) {
	s := &cfg.Server
	s.Listen = ParseString(env("LISTEN"), s.Listen)
	s.MetricsListen = ParseString(env("METRICS_LISTEN"), s.MetricsListen)
	s.ReadTimeout = ParseDuration(env("READ_TIMEOUT"), s.ReadTimeout)
	s.WriteTimeout = ParseDuration(env("WRITE_TIMEOUT"), s.WriteTimeout)
	s.ShutdownTimeout = ParseDuration(env("SHUTDOWN_TIMEOUT"), s.ShutdownTimeout)
	s.MaxConnections = ParseInt(env("MAX_CONNECTIONS"), s.MaxConnections)
	s.TrustedProxies = ParseList(env("TRUSTED_PROXIES"), s.TrustedProxies)

	cfg.Log.Level = ParseString(env("LOG_LEVEL"), cfg.Log.Level)

	o := &cfg.ObjectStore
	o.Backend = ParseString(env("OBJECTSTORE_BACKEND"), o.Backend)
	o.Timeout = ParseDuration(env("OBJECTSTORE_TIMEOUT"), o.Timeout)
	o.RPS = ParseFloat(env("OBJECTSTORE_RPS"), o.RPS)
	o.Burst = ParseInt(env("OBJECTSTORE_BURST"), o.Burst)
	o.FS.Root = ParseString(env("OBJECTSTORE_FS_ROOT"), o.FS.Root)
	o.Badger.Dir = ParseString(env("OBJECTSTORE_BADGER_DIR"), o.Badger.Dir)
	o.Azure.Account = ParseString(env("AZURE_ACCOUNT"), o.Azure.Account)
	o.Azure.Container = ParseString(env("AZURE_CONTAINER"), o.Azure.Container)
	o.Azure.ConnectionString = ParseString(env("AZURE_CONNECTION_STRING"), o.Azure.ConnectionString)
	o.Azure.TenantID = ParseString(env("AZURE_TENANT_ID"), o.Azure.TenantID)
	o.Azure.ClientID = ParseString(env("AZURE_CLIENT_ID"), o.Azure.ClientID)
	o.Azure.ClientSecret = ParseString(env("AZURE_CLIENT_SECRET"), o.Azure.ClientSecret)
	o.Azure.Endpoint = ParseString(env("AZURE_ENDPOINT"), o.Azure.Endpoint)

	d := &cfg.Database
	d.Driver = ParseString(env("DB_DRIVER"), d.Driver)
	d.DSN = ParseString(env("DB_DSN"), d.DSN)
	d.MigrateOnStart = ParseBool(env("DB_MIGRATE_ON_START"), d.MigrateOnStart)

	ss := &cfg.Session
	ss.Backend = ParseString(env("SESSION_BACKEND"), ss.Backend)
	ss.TTL = ParseDuration(env("SESSION_TTL"), ss.TTL)
	ss.MaxEntries = ParseInt(env("SESSION_MAX_ENTRIES"), ss.MaxEntries)
	ss.MaxRecords = ParseInt(env("SESSION_MAX_RECORDS"), ss.MaxRecords)
	ss.AllowGlobalFallback = ParseBool(env("SESSION_ALLOW_GLOBAL_FALLBACK"), ss.AllowGlobalFallback)
	ss.Redis.Addr = ParseString(env("REDIS_ADDR"), ss.Redis.Addr)
	ss.Redis.Password = ParseString(env("REDIS_PASSWORD"), ss.Redis.Password)
	ss.Redis.DB = ParseInt(env("REDIS_DB"), ss.Redis.DB)

	t := &cfg.Transcode
	t.FFmpegBin = ParseString(env("FFMPEG_BIN"), t.FFmpegBin)
	t.MaxConcurrent = ParseInt(env("TRANSCODE_MAX_CONCURRENT"), t.MaxConcurrent)
	t.Timeout = ParseDuration(env("TRANSCODE_TIMEOUT"), t.Timeout)
	t.TempDir = ParseString(env("TRANSCODE_TEMP_DIR"), t.TempDir)

	tel := &cfg.Telemetry
	tel.Enabled = ParseBool(env("TELEMETRY_ENABLED"), tel.Enabled)
	tel.Environment = ParseString(env("ENVIRONMENT"), tel.Environment)
	tel.ExporterType = ParseString(env("TELEMETRY_EXPORTER"), tel.ExporterType)
	tel.Endpoint = ParseString(env("TELEMETRY_ENDPOINT"), tel.Endpoint)
	tel.SamplingRate = ParseFloat(env("TELEMETRY_SAMPLING_RATE"), tel.SamplingRate)

	cfg.RateLimit.Enabled = ParseBool(env("RATE_LIMIT_ENABLED"), cfg.RateLimit.Enabled)
	cfg.RateLimit.Limit = ParseInt(env("RATE_LIMIT"), cfg.RateLimit.Limit)
	cfg.RateLimit.Window = ParseDuration(env("RATE_LIMIT_WINDOW"), cfg.RateLimit.Window)

	cfg.CORS.AllowedOrigins = ParseList(env("CORS_ALLOWED_ORIGINS"), cfg.CORS.AllowedOrigins)
}
