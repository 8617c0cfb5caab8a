// FILE: src/cmd/pgmoneta-mcp-admin/commands/conf.go
package commands

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"pgmoneta-mcp/src/internal/config"
)

// ConfCommand writes configuration templates
type ConfCommand struct {
	term *terminal
}

func NewConfCommand(term *terminal) *ConfCommand {
	return &ConfCommand{term: term}
}

func (c *ConfCommand) Execute(args []string) error {
	if len(args) == 0 || args[0] != "init" {
		fmt.Fprint(c.term.errOut, c.Help())
		return fmt.Errorf("conf action required")
	}

	cmd := flag.NewFlagSet("conf init", flag.ContinueOnError)
	cmd.SetOutput(c.term.errOut)

	var (
		file     = cmd.String("f", "", "Configuration file to create")
		fileLong = cmd.String("file", "", "Configuration file to create")
		force    = cmd.Bool("force", false, "Overwrite an existing file")
	)
	cmd.Usage = func() { fmt.Fprint(c.term.errOut, c.Help()) }

	if err := cmd.Parse(args[1:]); err != nil {
		return err
	}

	path := coalesceString(*file, *fileLong)
	if path == "" {
		path = config.GetConfigPath("")
	}

	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := config.Default().SaveToFile(path); err != nil {
		return err
	}

	fmt.Fprintf(c.term.output, "Default configuration written to %s\n", path)
	return nil
}

func (c *ConfCommand) Description() string {
	return "Write a default configuration file"
}

func (c *ConfCommand) Help() string {
	return `Conf Command - Write a default configuration file

Usage:
  pgmoneta-mcp-admin conf init [-f <file>] [--force]

Options:
  -f, --file <path>   Target file (default: ~/.pgmoneta-mcp/pgmoneta-mcp.toml)
  --force             Overwrite an existing file
`
}
