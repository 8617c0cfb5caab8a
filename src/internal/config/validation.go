// FILE: src/internal/config/validation.go
package config

import (
	"fmt"

	"pgmoneta-mcp/src/internal/core"

	"github.com/hashicorp/go-multierror"
	lconfig "github.com/lixenwraith/config"
)

// validateConfig reports every problem at once
func validateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", core.ErrConfig)
	}

	var result *multierror.Error

	if err := lconfig.NonEmpty(cfg.Host); err != nil {
		result = multierror.Append(result, fmt.Errorf("host: %w", err))
	}
	if err := lconfig.Port(cfg.Port); err != nil {
		result = multierror.Append(result, fmt.Errorf("port: %w", err))
	}
	if cfg.SessionIdleMinutes < 1 {
		result = multierror.Append(result, fmt.Errorf("session_idle_minutes must be positive: %d", cfg.SessionIdleMinutes))
	}
	if err := lconfig.NonEmpty(cfg.Pgmoneta.Host); err != nil {
		result = multierror.Append(result, fmt.Errorf("pgmoneta.host: %w", err))
	}
	if err := lconfig.Port(cfg.Pgmoneta.Port); err != nil {
		result = multierror.Append(result, fmt.Errorf("pgmoneta.port: %w", err))
	}

	if cfg.Timeouts.DialSeconds < 1 {
		result = multierror.Append(result, fmt.Errorf("timeouts.dial_seconds must be positive: %d", cfg.Timeouts.DialSeconds))
	}
	if cfg.Timeouts.HandshakeSeconds < 1 {
		result = multierror.Append(result, fmt.Errorf("timeouts.handshake_seconds must be positive: %d", cfg.Timeouts.HandshakeSeconds))
	}
	if cfg.Timeouts.RequestSeconds < 1 {
		result = multierror.Append(result, fmt.Errorf("timeouts.request_seconds must be positive: %d", cfg.Timeouts.RequestSeconds))
	}

	if cfg.Retry.MaxAttempts < 1 {
		result = multierror.Append(result, fmt.Errorf("retry.max_attempts must be at least 1: %d", cfg.Retry.MaxAttempts))
	}
	if cfg.Retry.InitialIntervalMs < 0 || cfg.Retry.MaxIntervalMs < cfg.Retry.InitialIntervalMs {
		result = multierror.Append(result, fmt.Errorf("retry intervals invalid: initial %dms, max %dms",
			cfg.Retry.InitialIntervalMs, cfg.Retry.MaxIntervalMs))
	}

	if err := validateAuth(cfg.Auth); err != nil {
		result = multierror.Append(result, err)
	}
	if err := validateRateLimit(cfg.RateLimit); err != nil {
		result = multierror.Append(result, err)
	}
	if err := validateTLS(cfg.TLS); err != nil {
		result = multierror.Append(result, err)
	}
	if cfg.Logging != nil {
		if err := validateLogConfig(cfg.Logging); err != nil {
			result = multierror.Append(result, fmt.Errorf("logging: %w", err))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrConfig, err)
	}
	return nil
}

func validateLogConfig(cfg *LogConfig) error {
	validOutputs := map[string]bool{
		"file": true, "stdout": true, "stderr": true,
		"both": true, "none": true,
	}
	if !validOutputs[cfg.Output] {
		return fmt.Errorf("invalid log output mode: %s", cfg.Output)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	if cfg.Console != nil {
		validTargets := map[string]bool{
			"stdout": true, "stderr": true, "split": true,
		}
		if !validTargets[cfg.Console.Target] {
			return fmt.Errorf("invalid console target: %s", cfg.Console.Target)
		}

		validFormats := map[string]bool{
			"txt": true, "json": true, "": true,
		}
		if !validFormats[cfg.Console.Format] {
			return fmt.Errorf("invalid console format: %s", cfg.Console.Format)
		}
	}

	return nil
}

func validateAuth(auth *AuthConfig) error {
	if auth == nil || auth.Type == "" || auth.Type == "none" {
		return nil
	}

	if auth.Type != "bearer" {
		return fmt.Errorf("auth: invalid type: %s", auth.Type)
	}
	if auth.BearerAuth == nil {
		return fmt.Errorf("auth: bearer type specified but bearer_auth missing")
	}

	hasTokens := len(auth.BearerAuth.Tokens) > 0
	hasJWT := auth.BearerAuth.JWT != nil && auth.BearerAuth.JWT.SigningKey != ""
	if !hasTokens && !hasJWT {
		return fmt.Errorf("auth: bearer auth requires tokens or jwt.signing_key")
	}
	for i, token := range auth.BearerAuth.Tokens {
		if err := lconfig.NonEmpty(token); err != nil {
			return fmt.Errorf("auth: token[%d] is empty", i)
		}
	}
	return nil
}

func validateRateLimit(cfg *RateLimitConfig) error {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	if cfg.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit: requests_per_second must be positive")
	}
	if cfg.BurstSize < 1 {
		return fmt.Errorf("rate_limit: burst_size must be at least 1")
	}
	if cfg.MaxTrackedClients < 1 {
		return fmt.Errorf("rate_limit: max_tracked_clients must be at least 1")
	}
	return nil
}

func validateTLS(cfg *TLSConfig) error {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	var result *multierror.Error
	if err := lconfig.NonEmpty(cfg.CertFile); err != nil {
		result = multierror.Append(result, fmt.Errorf("tls: cert_file: %w", err))
	}
	if err := lconfig.NonEmpty(cfg.KeyFile); err != nil {
		result = multierror.Append(result, fmt.Errorf("tls: key_file: %w", err))
	}
	if cfg.ClientAuth && cfg.ClientCAFile == "" {
		result = multierror.Append(result, fmt.Errorf("tls: client_auth requires client_ca_file"))
	}

	validVersions := map[string]bool{"": true, "TLS1.2": true, "TLS1.3": true}
	if !validVersions[cfg.MinVersion] {
		result = multierror.Append(result, fmt.Errorf("tls: invalid min_version: %s", cfg.MinVersion))
	}
	if !validVersions[cfg.MaxVersion] {
		result = multierror.Append(result, fmt.Errorf("tls: invalid max_version: %s", cfg.MaxVersion))
	}
	if cfg.MinVersion == "TLS1.3" && cfg.MaxVersion == "TLS1.2" {
		result = multierror.Append(result, fmt.Errorf("tls: min_version above max_version"))
	}
	return result.ErrorOrNil()
}
