// FILE: src/cmd/pgmoneta-mcp/output.go
package main

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// OutputHandler writes user-facing console messages, honoring quiet mode
type OutputHandler struct {
	quiet  bool
	mu     sync.RWMutex
	stdout io.Writer
	stderr io.Writer
}

var output *OutputHandler

// InitOutputHandler installs the process-wide handler
func InitOutputHandler(quiet bool) {
	output = &OutputHandler{
		quiet:  quiet,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

func (o *OutputHandler) Print(format string, args ...any) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.quiet {
		fmt.Fprintf(o.stdout, format, args...)
	}
}

func (o *OutputHandler) Error(format string, args ...any) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.quiet {
		fmt.Fprintf(o.stderr, format, args...)
	}
}

// FatalError writes to stderr and exits
func (o *OutputHandler) FatalError(code int, format string, args ...any) {
	o.Error(format, args...)
	os.Exit(code)
}

func Print(format string, args ...any) {
	if output != nil {
		output.Print(format, args...)
	}
}

func Error(format string, args ...any) {
	if output != nil {
		output.Error(format, args...)
	}
}

func FatalError(code int, format string, args ...any) {
	if output != nil {
		output.FatalError(code, format, args...)
	}
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(code)
}
