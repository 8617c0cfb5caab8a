// FILE: src/internal/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pgmoneta-mcp/src/internal/core"

	lconfig "github.com/lixenwraith/config"
)

// EnvPrefix namespaces environment overrides, e.g. PGMONETA_MCP_PGMONETA_HOST
const EnvPrefix = "PGMONETA_MCP_"

// Load builds the configuration from defaults, the TOML file at configPath,
// environment and CLI overrides (precedence CLI > env > file > defaults).
// A missing file is not an error.
func Load(configPath string, cliArgs []string) (*Config, error) {
	cfg, err := lconfig.NewBuilder().
		WithDefaults(defaults()).
		WithEnvPrefix(EnvPrefix).
		WithFile(configPath).
		WithArgs(cliArgs).
		WithEnvTransform(customEnvTransform).
		WithSources(
			lconfig.SourceCLI,
			lconfig.SourceEnv,
			lconfig.SourceFile,
			lconfig.SourceDefault,
		).
		Build()

	if err != nil {
		if !strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: failed to load config: %w", core.ErrConfig, err)
		}
	}

	finalConfig := &Config{}
	if err := cfg.Scan("", finalConfig); err != nil {
		return nil, fmt.Errorf("%w: failed to scan config: %w", core.ErrConfig, err)
	}

	if err := validateConfig(finalConfig); err != nil {
		return nil, err
	}
	return finalConfig, nil
}

func customEnvTransform(path string) string {
	env := strings.ReplaceAll(path, ".", "_")
	env = strings.ToUpper(env)
	env = EnvPrefix + env
	return env
}

// GetConfigPath resolves the config file from the flag value, then
// PGMONETA_MCP_CONFIG_FILE / PGMONETA_MCP_CONFIG_DIR, then the home directory
func GetConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if configFile := os.Getenv(EnvPrefix + "CONFIG_FILE"); configFile != "" {
		if filepath.IsAbs(configFile) {
			return configFile
		}
		if configDir := os.Getenv(EnvPrefix + "CONFIG_DIR"); configDir != "" {
			return filepath.Join(configDir, configFile)
		}
		return configFile
	}

	if configDir := os.Getenv(EnvPrefix + "CONFIG_DIR"); configDir != "" {
		return filepath.Join(configDir, "pgmoneta-mcp.toml")
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".pgmoneta-mcp", "pgmoneta-mcp.toml")
	}

	return "pgmoneta-mcp.toml"
}

// GetUsersPath resolves the users file from the flag value, then the loaded
// configuration, then the default beside the config file
func GetUsersPath(flagValue string, cfg *Config, configPath string) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg != nil && cfg.UsersFile != "" {
		return cfg.UsersFile
	}
	return filepath.Join(filepath.Dir(configPath), "pgmoneta-mcp-users.toml")
}

// SplitArgs separates "--section.key=value" overrides destined for the
// config loader from ordinary command-line flags
func SplitArgs(args []string) (flags, overrides []string) {
	for _, arg := range args {
		if strings.HasPrefix(arg, "--") {
			key, _, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
			if hasValue && isConfigKey(key) {
				overrides = append(overrides, arg)
				continue
			}
		}
		flags = append(flags, arg)
	}
	return flags, overrides
}

func isConfigKey(key string) bool {
	switch key {
	case "host", "port", "users_file":
		return true
	}
	return strings.Contains(key, ".")
}
