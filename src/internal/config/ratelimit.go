// FILE: src/internal/config/ratelimit.go
package config

// RateLimitConfig defines per-client request limiting on the MCP endpoint.
type RateLimitConfig struct {
	Enabled bool `toml:"enabled"`
	// RequestsPerSecond is the sustained rate allowed per client IP.
	RequestsPerSecond float64 `toml:"requests_per_second"`
	// BurstSize is the token bucket capacity.
	BurstSize int64 `toml:"burst_size"`
	// MaxTrackedClients bounds the limiter table.
	MaxTrackedClients int64 `toml:"max_tracked_clients"`
}
