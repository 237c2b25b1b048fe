// Package config holds deployment configuration for the decision core.
package config

import "os"

// Config holds host configuration.
type Config struct {
	StatePath   string // SQLite database path for component state
	PolicyDir   string // directory of seed policy documents, optional
	ProfilePath string // deployment profile YAML, optional
	RedisAddr   string // audit stream target, optional
	AuditStream string // Redis stream name for audit events
	LogLevel    string
}

// Load loads configuration from environment variables.
func Load() *Config {
	statePath := os.Getenv("ACCORD_STATE_PATH")
	if statePath == "" {
		statePath = "accord.db"
	}

	stream := os.Getenv("ACCORD_AUDIT_STREAM")
	if stream == "" {
		stream = "accord:audit"
	}

	logLevel := os.Getenv("ACCORD_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	return &Config{
		StatePath:   statePath,
		PolicyDir:   os.Getenv("ACCORD_POLICY_DIR"),
		ProfilePath: os.Getenv("ACCORD_PROFILE"),
		RedisAddr:   os.Getenv("ACCORD_REDIS_ADDR"),
		AuditStream: stream,
		LogLevel:    logLevel,
	}
}
