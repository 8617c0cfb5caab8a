// FILE: src/cmd/pgmoneta-mcp-admin/commands/help.go
package commands

import (
	"fmt"
	"sort"
	"strings"
)

const generalHelpTemplate = `pgmoneta-mcp-admin: credential and configuration tool for pgmoneta-mcp.

Usage:
  pgmoneta-mcp-admin <command> [options]

Commands:
%s

For command-specific help:
  pgmoneta-mcp-admin help <command>
  pgmoneta-mcp-admin <command> --help

Examples:
  # Set the master key, then store an admin password
  pgmoneta-mcp-admin master-key
  pgmoneta-mcp-admin user add -U admin -f ~/.pgmoneta-mcp/pgmoneta-mcp-users.toml

  # Create a configuration file with defaults
  pgmoneta-mcp-admin conf init
`

// HelpCommand displays general or command-specific help.
type HelpCommand struct {
	router *CommandRouter
}

func NewHelpCommand(router *CommandRouter) *HelpCommand {
	return &HelpCommand{router: router}
}

func (c *HelpCommand) Execute(args []string) error {
	if len(args) > 0 && args[0] != "" {
		if handler, exists := c.router.GetCommand(args[0]); exists {
			fmt.Fprint(c.router.output, handler.Help())
			return nil
		}
		return fmt.Errorf("unknown command: %s", args[0])
	}

	fmt.Fprintf(c.router.output, generalHelpTemplate, c.formatCommandList())
	return nil
}

func (c *HelpCommand) Description() string {
	return "Display help information"
}

func (c *HelpCommand) Help() string {
	return `Help Command - Display help information

Usage:
  pgmoneta-mcp-admin help              Show general help
  pgmoneta-mcp-admin help <command>    Show help for a specific command
`
}

// formatCommandList aligns command descriptions in name order
func (c *HelpCommand) formatCommandList() string {
	commands := c.router.GetCommands()

	names := make([]string, 0, len(commands))
	maxLen := 0
	for name := range commands {
		names = append(names, name)
		if len(name) > maxLen {
			maxLen = len(name)
		}
	}
	sort.Strings(names)

	var lines []string
	for _, name := range names {
		padding := strings.Repeat(" ", maxLen-len(name)+2)
		lines = append(lines, fmt.Sprintf("  %s%s%s", name, padding, commands[name].Description()))
	}
	return strings.Join(lines, "\n")
}
