// FILE: src/cmd/pgmoneta-mcp-admin/commands/version.go
package commands

import (
	"fmt"
	"io"

	"pgmoneta-mcp/src/internal/version"
)

// VersionCommand handles version display
type VersionCommand struct {
	output io.Writer
}

func NewVersionCommand(output io.Writer) *VersionCommand {
	return &VersionCommand{output: output}
}

func (c *VersionCommand) Execute(args []string) error {
	fmt.Fprintln(c.output, version.String())
	return nil
}

func (c *VersionCommand) Description() string {
	return "Show version information"
}

func (c *VersionCommand) Help() string {
	return `Version Command - Show pgmoneta-mcp version information

Usage:
  pgmoneta-mcp-admin version
  pgmoneta-mcp-admin --version
`
}
