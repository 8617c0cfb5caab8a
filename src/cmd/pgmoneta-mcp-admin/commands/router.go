// FILE: src/cmd/pgmoneta-mcp-admin/commands/router.go
package commands

import (
	"fmt"
	"io"
	"os"
)

// Handler defines the interface required for all subcommands.
type Handler interface {
	Execute(args []string) error
	Description() string
	Help() string
}

// CommandRouter routes CLI arguments to the matching subcommand handler.
type CommandRouter struct {
	commands map[string]Handler
	output   io.Writer
}

// NewCommandRouter registers every admin command against the process terminal.
func NewCommandRouter() *CommandRouter {
	return newRouter(newTerminal(os.Stdout, os.Stderr))
}

func newRouter(term *terminal) *CommandRouter {
	router := &CommandRouter{
		commands: make(map[string]Handler),
		output:   term.output,
	}

	router.commands["master-key"] = NewMasterKeyCommand(term)
	router.commands["user"] = NewUserCommand(term)
	router.commands["conf"] = NewConfCommand(term)
	router.commands["tls"] = NewTLSCommand(term)
	router.commands["version"] = NewVersionCommand(term.output)
	router.commands["help"] = NewHelpCommand(router)

	return router
}

// Route executes the subcommand named by args[1]. args[0] is the program name.
func (r *CommandRouter) Route(args []string) error {
	if len(args) < 2 {
		r.commands["help"].Execute(nil)
		return fmt.Errorf("no command specified")
	}

	cmdName := args[1]

	for _, arg := range args[1:] {
		if arg == "-h" || arg == "--help" {
			if handler, exists := r.commands[cmdName]; exists && cmdName != "help" {
				fmt.Fprint(r.output, handler.Help())
				return nil
			}
			return r.commands["help"].Execute(nil)
		}
	}

	if cmdName == "-v" || cmdName == "--version" {
		return r.commands["version"].Execute(nil)
	}

	handler, exists := r.commands[cmdName]
	if !exists {
		return fmt.Errorf("unknown command: %s\n\nRun 'pgmoneta-mcp-admin help' for usage", cmdName)
	}

	return handler.Execute(args[2:])
}

// GetCommand returns a specific command handler by its name.
func (r *CommandRouter) GetCommand(name string) (Handler, bool) {
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetCommands returns all registered commands.
func (r *CommandRouter) GetCommands() map[string]Handler {
	return r.commands
}

// coalesceString returns the first non-empty string from a list of arguments.
func coalesceString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
