// FILE: src/internal/config/config.go
package config

import "pgmoneta-mcp/src/internal/core"

// Config is the immutable runtime configuration, loaded once at startup and
// passed to constructors
type Config struct {
	// MCP listener
	Host string `toml:"host"`
	Port int64  `toml:"port"`

	// Path of the admin credential document
	UsersFile string `toml:"users_file"`

	// Idle lifetime of an MCP session
	SessionIdleMinutes int64 `toml:"session_idle_minutes"`

	Pgmoneta  PgmonetaConfig   `toml:"pgmoneta"`
	Timeouts  TimeoutConfig    `toml:"timeouts"`
	Retry     RetryConfig      `toml:"retry"`
	Auth      *AuthConfig      `toml:"auth"`
	RateLimit *RateLimitConfig `toml:"rate_limit"`
	TLS       *TLSConfig       `toml:"tls"`
	Logging   *LogConfig       `toml:"logging"`
}

// PgmonetaConfig locates the management daemon
type PgmonetaConfig struct {
	Host string `toml:"host"`
	Port int64  `toml:"port"`
}

// TimeoutConfig bounds each network stage, in seconds
type TimeoutConfig struct {
	DialSeconds      int64 `toml:"dial_seconds"`
	HandshakeSeconds int64 `toml:"handshake_seconds"`
	RequestSeconds   int64 `toml:"request_seconds"`
}

// RetryConfig controls reconnect attempts on transport failures.
// MaxAttempts of 1 disables retry.
type RetryConfig struct {
	MaxAttempts       int64 `toml:"max_attempts"`
	InitialIntervalMs int64 `toml:"initial_interval_ms"`
	MaxIntervalMs     int64 `toml:"max_interval_ms"`
}

func defaults() *Config {
	return &Config{
		Host: "0.0.0.0",
		Port: core.DefaultListenPort,

		SessionIdleMinutes: 30,

		Pgmoneta: PgmonetaConfig{
			Host: "localhost",
			Port: core.DefaultPgmonetaPort,
		},
		Timeouts: TimeoutConfig{
			DialSeconds:      core.DefaultDialTimeout,
			HandshakeSeconds: core.DefaultHandshakeTimeout,
			RequestSeconds:   core.DefaultRequestTimeout,
		},
		Retry: RetryConfig{
			MaxAttempts:       1,
			InitialIntervalMs: 200,
			MaxIntervalMs:     5000,
		},
		Auth: &AuthConfig{
			Type: "none",
		},
		RateLimit: &RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 10,
			BurstSize:         20,
			MaxTrackedClients: 10000,
		},
		TLS: &TLSConfig{
			Enabled:    false,
			MinVersion: "TLS1.2",
			MaxVersion: "TLS1.3",
		},
		Logging: DefaultLogConfig(),
	}
}

// Default returns a configuration holding only defaults
func Default() *Config {
	return defaults()
}
