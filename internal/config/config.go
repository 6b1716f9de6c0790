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

// insecureDevKey is the signing key shipped in example env files. Production refuses it.
const insecureDevKey = "change-me"

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment   string
	HTTPBind      string
	HTTPPort      int
	DBBackend     DatabaseBackend
	DBDSN         string
	JWTSigningKey string
	JWTTTL        time.Duration
	MaxLunchDrop  int // 0 lets the scheduler pick a ceiling that always converges

	// Workbook cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Event publishing
	NATSURL string

	// Export targets. Both are optional; S3 wins when a bucket is set.
	ExportDir         string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3Bucket          string
	S3Endpoint        string // For S3-compatible services (MinIO, Spaces, etc.)
	S3UsePathStyle    bool   // Required for MinIO

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
	MetricsEnabled    bool

	LegacyEnvWarnings []string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:   getEnvAny([]string{"GUARDROTA_ENV"}, "development"),
		HTTPBind:      getEnvAny([]string{"GUARDROTA_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:      getEnvIntAny([]string{"GUARDROTA_HTTP_PORT", "PORT"}, 8080),
		DBBackend:     DatabaseBackend(getEnvAny([]string{"GUARDROTA_DB_BACKEND"}, string(DatabaseSQLite))),
		DBDSN:         getEnvAny([]string{"GUARDROTA_DB_DSN", "DATABASE_URL"}, "guardrota.db"),
		JWTSigningKey: getEnvAny([]string{"GUARDROTA_JWT_SIGNING_KEY", "SECRET_KEY"}, ""),
		JWTTTL:        time.Duration(getEnvIntAny([]string{"GUARDROTA_JWT_TTL_MINUTES"}, 15)) * time.Minute,
		MaxLunchDrop:  getEnvIntAny([]string{"GUARDROTA_MAX_LUNCH_DROP"}, 0),

		RedisAddr:     getEnvAny([]string{"GUARDROTA_REDIS_ADDR"}, ""),
		RedisPassword: getEnvAny([]string{"GUARDROTA_REDIS_PASSWORD"}, ""),
		RedisDB:       getEnvIntAny([]string{"GUARDROTA_REDIS_DB"}, 0),
		CacheTTL:      time.Duration(getEnvIntAny([]string{"GUARDROTA_CACHE_TTL_MINUTES"}, 60)) * time.Minute,

		NATSURL: getEnvAny([]string{"GUARDROTA_NATS_URL"}, ""),

		ExportDir:         getEnvAny([]string{"GUARDROTA_EXPORT_DIR"}, ""),
		S3AccessKeyID:     getEnvAny([]string{"GUARDROTA_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"}, ""),
		S3SecretAccessKey: getEnvAny([]string{"GUARDROTA_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"}, ""),
		S3Region:          getEnvAny([]string{"GUARDROTA_S3_REGION", "AWS_REGION"}, "us-east-1"),
		S3Bucket:          getEnvAny([]string{"GUARDROTA_S3_BUCKET", "S3_BUCKET"}, ""),
		S3Endpoint:        getEnvAny([]string{"GUARDROTA_S3_ENDPOINT", "S3_ENDPOINT"}, ""),
		S3UsePathStyle:    getEnvBoolAny([]string{"GUARDROTA_S3_USE_PATH_STYLE", "S3_USE_PATH_STYLE"}, false),

		TracingEnabled:    getEnvBoolAny([]string{"GUARDROTA_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"GUARDROTA_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"GUARDROTA_TRACING_SAMPLE_RATE"}, 1.0),
		MetricsEnabled:    getEnvBoolAny([]string{"GUARDROTA_METRICS_ENABLED"}, true),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("GUARDROTA_DB_DSN must be provided")
	}

	if cfg.JWTSigningKey == "" {
		return nil, fmt.Errorf("GUARDROTA_JWT_SIGNING_KEY must be provided")
	}

	if cfg.MaxLunchDrop < 0 {
		return nil, fmt.Errorf("GUARDROTA_MAX_LUNCH_DROP must not be negative")
	}

	if strings.EqualFold(cfg.Environment, "production") {
		if cfg.JWTSigningKey == insecureDevKey || cfg.JWTSigningKey == "dev-secret-key-change-in-production" {
			return nil, fmt.Errorf("GUARDROTA_JWT_SIGNING_KEY must be set to a non-default value in production")
		}
		if cfg.S3Bucket != "" && cfg.S3Endpoint == "" && (cfg.S3AccessKeyID == "") != (cfg.S3SecretAccessKey == "") {
			return nil, fmt.Errorf("GUARDROTA_S3_ACCESS_KEY_ID and GUARDROTA_S3_SECRET_ACCESS_KEY must be set together")
		}
	}
	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()

	return cfg, nil
}

func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"SECRET_KEY":   "use GUARDROTA_JWT_SIGNING_KEY",
		"DATABASE_URL": "use GUARDROTA_DB_DSN",
	}

	warnings := make([]string, 0, len(legacy))
	for key, recommendation := range legacy {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is set; %s", key, recommendation))
		}
	}
	return warnings
}

// ListenAddr joins the bind address and port.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
