// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config provides configuration management for callvault.
package config

import "time"

// Object store backends.
const (
	BackendAzure  = "azure"
	BackendFS     = "fs"
	BackendBadger = "badger"
)

// Session cache backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// AppConfig is the effective runtime configuration.
type AppConfig struct {
	Version     string            `yaml:"-"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	ObjectStore ObjectStoreConfig `yaml:"objectStore"`
	Database    DatabaseConfig    `yaml:"database"`
	Session     SessionConfig     `yaml:"session"`
	Transcode   TranscodeConfig   `yaml:"transcode"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	RateLimit   RateLimitConfig   `yaml:"rateLimit"`
	CORS        CORSConfig        `yaml:"cors"`
}

type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxConnections  int           `yaml:"maxConnections"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
	MetricsListen   string        `yaml:"metricsListen"`
	// TrustedProxies may assert X-Forwarded-Proto (CIDRs or bare IPs).
	TrustedProxies []string `yaml:"trustedProxies"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

type ObjectStoreConfig struct {
	Backend string        `yaml:"backend"`
	Timeout time.Duration `yaml:"timeout"`
	// RPS caps outbound object-store calls per second; 0 disables the limiter.
	RPS    float64      `yaml:"rps"`
	Burst  int          `yaml:"burst"`
	Azure  AzureConfig  `yaml:"azure"`
	FS     FSConfig     `yaml:"fs"`
	Badger BadgerConfig `yaml:"badger"`
	// BreakerThreshold is the number of consecutive failures that opens the circuit.
	BreakerThreshold int           `yaml:"breakerThreshold"`
	BreakerCooldown  time.Duration `yaml:"breakerCooldown"`
}

type AzureConfig struct {
	Account          string `yaml:"account"`
	Container        string `yaml:"container"`
	ConnectionString string `yaml:"connectionString"`
	TenantID         string `yaml:"tenantId"`
	ClientID         string `yaml:"clientId"`
	ClientSecret     string `yaml:"clientSecret"`
	// Endpoint overrides https://{account}.blob.core.windows.net (Azurite, sovereign clouds).
	Endpoint string `yaml:"endpoint"`
}

type FSConfig struct {
	Root string `yaml:"root"`
}

type BadgerConfig struct {
	Dir string `yaml:"dir"`
}

type DatabaseConfig struct {
	Driver         string `yaml:"driver"`
	DSN            string `yaml:"dsn"`
	MigrateOnStart bool   `yaml:"migrateOnStart"`
	MaxOpenConns   int    `yaml:"maxOpenConns"`
}

type SessionConfig struct {
	Backend    string        `yaml:"backend"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"maxEntries"`
	// MaxRecords bounds the raw records held across all cached crawls.
	MaxRecords          int         `yaml:"maxRecords"`
	AllowGlobalFallback bool        `yaml:"allowGlobalFallback"`
	Redis               RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type TranscodeConfig struct {
	FFmpegBin     string        `yaml:"ffmpegBin"`
	MaxConcurrent int           `yaml:"maxConcurrent"`
	Timeout       time.Duration `yaml:"timeout"`
	TempDir       string        `yaml:"tempDir"`
}

type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Environment  string  `yaml:"environment"`
	ExporterType string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Limit   int           `yaml:"limit"`
	Window  time.Duration `yaml:"window"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Listen:          ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			MaxConnections:  512,
			MaxBodyBytes:    1 << 20,
		},
		Log: LogConfig{Level: "info", Service: "callvault"},
		ObjectStore: ObjectStoreConfig{
			Backend:          BackendFS,
			Timeout:          30 * time.Second,
			RPS:              50,
			Burst:            100,
			FS:               FSConfig{Root: "data/objects"},
			Badger:           BadgerConfig{Dir: "data/badger"},
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:         DriverSQLite,
			DSN:            "data/callvault.db",
			MigrateOnStart: true,
			MaxOpenConns:   10,
		},
		Session: SessionConfig{
			Backend:    SessionMemory,
			TTL:        30 * time.Minute,
			MaxEntries: 256,
			MaxRecords: 10000,
			Redis:      RedisConfig{Addr: "localhost:6379"},
		},
		Transcode: TranscodeConfig{
			FFmpegBin:     "ffmpeg",
			MaxConcurrent: 4,
			Timeout:       2 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			Environment:  "production",
			ExporterType: "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Limit:   120,
			Window:  time.Minute,
		},
	}
}
