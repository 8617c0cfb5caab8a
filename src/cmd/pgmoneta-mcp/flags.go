// FILE: src/cmd/pgmoneta-mcp/flags.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"pgmoneta-mcp/src/internal/config"
)

// flagConfig holds the command-line options that are not configuration keys
type flagConfig struct {
	ConfigFile  string
	UsersFile   string
	Quiet       bool
	ShowVersion bool
}

// parseFlags splits config overrides from process flags and parses the latter
func parseFlags(args []string) (*flagConfig, []string, error) {
	flagArgs, overrides := config.SplitArgs(args)

	fc := &flagConfig{}
	fs := flag.NewFlagSet("pgmoneta-mcp", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() { fmt.Fprint(os.Stderr, helpText) }

	fs.StringVar(&fc.ConfigFile, "c", "", "Path to configuration file")
	fs.StringVar(&fc.ConfigFile, "conf", "", "Path to configuration file")
	fs.StringVar(&fc.UsersFile, "u", "", "Path to users file")
	fs.StringVar(&fc.UsersFile, "users", "", "Path to users file")
	fs.BoolVar(&fc.Quiet, "q", false, "Suppress console output")
	fs.BoolVar(&fc.Quiet, "quiet", false, "Suppress console output")
	fs.BoolVar(&fc.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&fc.ShowVersion, "version", false, "Show version information")

	if err := fs.Parse(flagArgs); err != nil {
		return nil, nil, err
	}
	if fs.NArg() > 0 {
		return nil, nil, fmt.Errorf("unexpected argument(s): %s", strings.Join(fs.Args(), " "))
	}

	return fc, overrides, nil
}
