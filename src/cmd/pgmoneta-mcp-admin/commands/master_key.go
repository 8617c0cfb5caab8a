// FILE: src/cmd/pgmoneta-mcp-admin/commands/master_key.go
package commands

import (
	"flag"
	"fmt"
	"strings"

	"pgmoneta-mcp/src/internal/keystore"
	"pgmoneta-mcp/src/internal/vault"
)

// MasterKeyCommand sets the master key protecting stored admin passwords
type MasterKeyCommand struct {
	term *terminal
}

func NewMasterKeyCommand(term *terminal) *MasterKeyCommand {
	return &MasterKeyCommand{term: term}
}

func (c *MasterKeyCommand) Execute(args []string) error {
	cmd := flag.NewFlagSet("master-key", flag.ContinueOnError)
	cmd.SetOutput(c.term.errOut)

	var (
		file     = cmd.String("f", "", "Master key file (default: ~/.pgmoneta-mcp/master.key)")
		fileLong = cmd.String("file", "", "Master key file (default: ~/.pgmoneta-mcp/master.key)")
	)
	cmd.Usage = func() { fmt.Fprint(c.term.errOut, c.Help()) }

	if err := cmd.Parse(args); err != nil {
		return err
	}
	if cmd.NArg() > 0 {
		return fmt.Errorf("unexpected argument(s): %s", strings.Join(cmd.Args(), " "))
	}

	store, err := c.store(coalesceString(*file, *fileLong))
	if err != nil {
		return err
	}

	key, err := c.readKey()
	if err != nil {
		return err
	}
	defer vault.Scrub(key)

	if err := store.Save(key); err != nil {
		return err
	}

	fmt.Fprintf(c.term.output, "Master key written to %s\n", store.Path())
	fmt.Fprintln(c.term.output, "Previously stored admin passwords must be re-added with 'user add'")
	return nil
}

func (c *MasterKeyCommand) store(path string) (*keystore.Store, error) {
	if path != "" {
		return keystore.New(path), nil
	}
	return c.term.keyStore()
}

func (c *MasterKeyCommand) readKey() ([]byte, error) {
	if env := c.term.getenv(EnvMasterKey); env != "" {
		return []byte(env), nil
	}
	return c.term.promptConfirmed("Please enter your master key: ", "Please enter your master key again: ")
}

func (c *MasterKeyCommand) Description() string {
	return "Set the master key used to encrypt admin passwords"
}

func (c *MasterKeyCommand) Help() string {
	return `Master Key Command - Set the master key

Usage:
  pgmoneta-mcp-admin master-key [options]

The key is prompted for twice and written to ~/.pgmoneta-mcp/master.key
with mode 0600. Set PGMONETA_MCP_MASTER_KEY to skip the prompt.

Replacing the master key invalidates every stored admin password.

Options:
  -f, --file <path>   Master key file location
`
}
