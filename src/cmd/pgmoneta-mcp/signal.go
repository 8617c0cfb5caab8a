// FILE: src/cmd/pgmoneta-mcp/signal.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lixenwraith/log"
)

// SignalHandler waits for termination signals
type SignalHandler struct {
	logger  *log.Logger
	sigChan chan os.Signal
}

// NewSignalHandler registers for SIGINT, SIGTERM and SIGHUP
func NewSignalHandler(logger *log.Logger) *SignalHandler {
	sh := &SignalHandler{
		logger:  logger,
		sigChan: make(chan os.Signal, 1),
	}

	signal.Notify(sh.sigChan,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGHUP,
	)
	return sh
}

// Wait returns the first termination signal, or nil when ctx ends
func (sh *SignalHandler) Wait(ctx context.Context) os.Signal {
	for {
		select {
		case sig := <-sh.sigChan:
			if sig == syscall.SIGHUP {
				// Configuration and users are immutable for the process lifetime
				sh.logger.Warn("msg", "SIGHUP ignored, restart to apply configuration changes",
					"component", "signal")
				continue
			}
			return sig
		case <-ctx.Done():
			return nil
		}
	}
}

// Stop unregisters the handler
func (sh *SignalHandler) Stop() {
	signal.Stop(sh.sigChan)
}
