// FILE: src/cmd/pgmoneta-mcp/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"pgmoneta-mcp/src/internal/config"
	"pgmoneta-mcp/src/internal/version"

	"github.com/lixenwraith/log"
)

var logger *log.Logger

func main() {
	flagCfg, overrides, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	InitOutputHandler(flagCfg.Quiet)

	if flagCfg.ShowVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	configPath := config.GetConfigPath(flagCfg.ConfigFile)
	cfg, err := config.Load(configPath, overrides)
	if err != nil {
		FatalError(1, "Failed to load config: %v\n", err)
	}

	usersPath := config.GetUsersPath(flagCfg.UsersFile, cfg, configPath)
	users, err := config.LoadUsers(usersPath)
	if err != nil {
		FatalError(1, "Failed to load users: %v\n", err)
	}

	if err := initializeLogger(cfg, flagCfg.Quiet); err != nil {
		FatalError(1, "Failed to initialize logger: %v\n", err)
	}
	defer shutdownLogger()

	logger.Info("msg", "pgmoneta MCP server starting",
		"version", version.String(),
		"config_file", configPath,
		"users_file", usersPath,
		"admins", len(users.Admins),
		"log_output", cfg.Logging.Output)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := NewSignalHandler(logger)
	defer signals.Stop()

	srv, err := bootstrapServer(cfg, users)
	if err != nil {
		logger.Error("msg", "Failed to bootstrap server", "error", err)
		shutdownLogger()
		os.Exit(1)
	}
	Print("Starting pgmoneta MCP server at %s\n", srv.Addr())

	sig := signals.Wait(ctx)
	logger.Info("msg", "Shutdown signal received, starting graceful shutdown",
		"signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		srv.Stop()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("msg", "Shutdown complete")
	case <-shutdownCtx.Done():
		logger.Error("msg", "Shutdown timeout exceeded - forcing exit")
		shutdownLogger()
		os.Exit(1)
	}
}

func shutdownLogger() {
	if logger != nil {
		if err := logger.Shutdown(2 * time.Second); err != nil {
			Error("Logger shutdown error: %v\n", err)
		}
	}
}
