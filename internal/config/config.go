/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
// Station-level settings (timezone, default stream URL) live in the database
// and are edited through the API, not here.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	MetricsBind string

	DBBackend DatabaseBackend
	DBDSN     string

	JWTSigningKey string

	// Recorder configuration
	RecordingsRoot   string
	FFmpegBin        string
	FFprobeBin       string
	RecorderPoll     time.Duration
	StopGracePeriod  time.Duration // SIGTERM -> SIGKILL window for capture processes
	ShutdownDrain    time.Duration // max wait for in-flight captures on shutdown

	// Extension job configuration
	ExtensionInterval time.Duration
	ExtensionHorizon  time.Duration

	// S3 archive storage (optional; filesystem archive when bucket empty)
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3Bucket          string
	S3Endpoint        string
	S3UsePathStyle    bool

	// Redis settings cache (optional)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// NATS event bridge (optional; in-process bus only when empty)
	NATSURL string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("HUGINN_ENV", "development"),
		HTTPBind:    getEnv("HUGINN_HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("HUGINN_HTTP_PORT", 8080),
		MetricsBind: getEnv("HUGINN_METRICS_BIND", "127.0.0.1:9000"),

		DBBackend: DatabaseBackend(getEnv("HUGINN_DB_BACKEND", string(DatabasePostgres))),
		DBDSN:     getEnv("HUGINN_DB_DSN", ""),

		JWTSigningKey: getEnv("HUGINN_JWT_SIGNING_KEY", ""),

		RecordingsRoot:  getEnv("HUGINN_RECORDINGS_ROOT", "./recordings"),
		FFmpegBin:       getEnv("HUGINN_FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:      getEnv("HUGINN_FFPROBE_BIN", "ffprobe"),
		RecorderPoll:    time.Duration(getEnvInt("HUGINN_RECORDER_POLL_SECONDS", 10)) * time.Second,
		StopGracePeriod: time.Duration(getEnvInt("HUGINN_STOP_GRACE_SECONDS", 15)) * time.Second,
		ShutdownDrain:   time.Duration(getEnvInt("HUGINN_SHUTDOWN_DRAIN_SECONDS", 30)) * time.Second,

		ExtensionInterval: time.Duration(getEnvInt("HUGINN_EXTENSION_INTERVAL_HOURS", 24)) * time.Hour,
		ExtensionHorizon:  time.Duration(getEnvInt("HUGINN_EXTENSION_HORIZON_DAYS", 28)) * 24 * time.Hour,

		S3AccessKeyID:     getEnv("HUGINN_S3_ACCESS_KEY_ID", os.Getenv("AWS_ACCESS_KEY_ID")),
		S3SecretAccessKey: getEnv("HUGINN_S3_SECRET_ACCESS_KEY", os.Getenv("AWS_SECRET_ACCESS_KEY")),
		S3Region:          getEnv("HUGINN_S3_REGION", "us-east-1"),
		S3Bucket:          getEnv("HUGINN_S3_BUCKET", ""),
		S3Endpoint:        getEnv("HUGINN_S3_ENDPOINT", ""),
		S3UsePathStyle:    getEnvBool("HUGINN_S3_USE_PATH_STYLE", false),

		RedisAddr:     getEnv("HUGINN_REDIS_ADDR", ""),
		RedisPassword: getEnv("HUGINN_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("HUGINN_REDIS_DB", 0),

		NATSURL: getEnv("HUGINN_NATS_URL", ""),

		TracingEnabled:    getEnvBool("HUGINN_TRACING_ENABLED", false),
		OTLPEndpoint:      getEnv("HUGINN_OTLP_ENDPOINT", "localhost:4317"),
		TracingSampleRate: getEnvFloat("HUGINN_TRACING_SAMPLE_RATE", 1.0),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("HUGINN_DB_DSN must be provided")
	}

	if cfg.JWTSigningKey == "" && strings.EqualFold(cfg.Environment, "production") {
		return nil, fmt.Errorf("HUGINN_JWT_SIGNING_KEY must be provided in production")
	}

	if cfg.RecorderPoll <= 0 {
		cfg.RecorderPoll = 10 * time.Second
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(strings.TrimSpace(val))
		if val == "true" || val == "1" || val == "yes" {
			return true
		}
		if val == "false" || val == "0" || val == "no" {
			return false
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}
