// FILE: src/cmd/pgmoneta-mcp/bootstrap.go
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"pgmoneta-mcp/src/internal/client"
	"pgmoneta-mcp/src/internal/config"
	"pgmoneta-mcp/src/internal/keystore"
	"pgmoneta-mcp/src/internal/mcp"
	"pgmoneta-mcp/src/internal/vault"

	"github.com/lixenwraith/log"
)

// bootstrapServer wires the management client into the MCP endpoint and starts it
func bootstrapServer(cfg *config.Config, users *config.Users) (*mcp.Server, error) {
	keys, err := keystore.NewDefault()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(keys.Path()); errors.Is(err, fs.ErrNotExist) {
		logger.Warn("msg", "Master key not found, tool calls will fail until it is set",
			"component", "bootstrap",
			"path", keys.Path(),
			"hint", "run pgmoneta-mcp-admin master-key")
	}

	c := client.New(cfg, users, keys, vault.NewDefault(), logger)

	srv, err := mcp.NewServer(cfg, c, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}
	if err := srv.Start(); err != nil {
		return nil, err
	}

	logger.Info("msg", "pgmoneta MCP server started",
		"component", "bootstrap",
		"address", srv.Addr(),
		"pgmoneta", c.Address(),
		"auth", cfg.Auth.Type,
		"rate_limit", cfg.RateLimit != nil && cfg.RateLimit.Enabled,
		"retry_attempts", cfg.Retry.MaxAttempts)

	return srv, nil
}

// initializeLogger sets up the logger based on configuration
func initializeLogger(cfg *config.Config, quiet bool) error {
	logger = log.NewLogger()

	var configArgs []string

	if quiet {
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=false",
			"level=255")

		return logger.InitWithDefaults(configArgs...)
	}

	levelValue, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	configArgs = append(configArgs, fmt.Sprintf("level=%d", levelValue))

	switch cfg.Logging.Output {
	case "none":
		configArgs = append(configArgs, "disable_file=true", "enable_stdout=false")

	case "stdout":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stdout")

	case "stderr":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stderr")

	case "file":
		configArgs = append(configArgs, "enable_stdout=false")
		configureFileLogging(&configArgs, cfg)

	case "both":
		configArgs = append(configArgs, "enable_stdout=true")
		configureFileLogging(&configArgs, cfg)
		configureConsoleTarget(&configArgs, cfg)

	default:
		return fmt.Errorf("invalid log output mode: %s", cfg.Logging.Output)
	}

	if cfg.Logging.Console != nil && cfg.Logging.Console.Format != "" {
		configArgs = append(configArgs, fmt.Sprintf("format=%s", cfg.Logging.Console.Format))
	}

	return logger.InitWithDefaults(configArgs...)
}

func configureFileLogging(configArgs *[]string, cfg *config.Config) {
	if cfg.Logging.File == nil {
		return
	}
	*configArgs = append(*configArgs,
		fmt.Sprintf("directory=%s", cfg.Logging.File.Directory),
		fmt.Sprintf("name=%s", cfg.Logging.File.Name),
		fmt.Sprintf("max_size_mb=%d", cfg.Logging.File.MaxSizeMB),
		fmt.Sprintf("max_total_size_mb=%d", cfg.Logging.File.MaxTotalSizeMB))

	if cfg.Logging.File.RetentionHours > 0 {
		*configArgs = append(*configArgs,
			fmt.Sprintf("retention_period_hrs=%.1f", cfg.Logging.File.RetentionHours))
	}
}

// configureConsoleTarget defaults to stderr so stdout stays clean
func configureConsoleTarget(configArgs *[]string, cfg *config.Config) {
	target := "stderr"
	if cfg.Logging.Console != nil && cfg.Logging.Console.Target != "" {
		target = cfg.Logging.Console.Target
	}

	if target == "split" {
		*configArgs = append(*configArgs, "stdout_split_mode=true", "stdout_target=split")
	} else {
		*configArgs = append(*configArgs, fmt.Sprintf("stdout_target=%s", target))
	}
}

func parseLogLevel(level string) (int, error) {
	switch strings.ToLower(level) {
	case "debug":
		return int(log.LevelDebug), nil
	case "info":
		return int(log.LevelInfo), nil
	case "warn", "warning":
		return int(log.LevelWarn), nil
	case "error":
		return int(log.LevelError), nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
}
