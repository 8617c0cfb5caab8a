// FILE: src/cmd/pgmoneta-mcp-admin/commands/terminal.go
package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"syscall"

	"pgmoneta-mcp/src/internal/keystore"
	"pgmoneta-mcp/src/internal/vault"

	"golang.org/x/term"
)

// EnvMasterKey supplies the master key without prompting
const EnvMasterKey = "PGMONETA_MCP_MASTER_KEY"

// terminal carries the console and credential collaborators shared by commands
type terminal struct {
	output io.Writer
	errOut io.Writer

	// readPassword reads one line without echo
	readPassword func() ([]byte, error)
	getenv       func(string) string

	keyStore func() (*keystore.Store, error)
	vault    *vault.Vault
}

func newTerminal(output, errOut io.Writer) *terminal {
	return &terminal{
		output: output,
		errOut: errOut,
		readPassword: func() ([]byte, error) {
			return term.ReadPassword(int(syscall.Stdin))
		},
		getenv:   os.Getenv,
		keyStore: keystore.NewDefault,
		vault:    vault.NewDefault(),
	}
}

func (t *terminal) promptPassword(prompt string) ([]byte, error) {
	fmt.Fprint(t.errOut, prompt)
	password, err := t.readPassword()
	fmt.Fprintln(t.errOut)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

// promptConfirmed prompts twice and requires both entries to match.
// Only the first buffer survives; the caller scrubs it.
func (t *terminal) promptConfirmed(prompt, confirm string) ([]byte, error) {
	first, err := t.promptPassword(prompt)
	if err != nil {
		return nil, err
	}
	second, err := t.promptPassword(confirm)
	if err != nil {
		vault.Scrub(first)
		return nil, err
	}
	defer vault.Scrub(second)

	if !bytes.Equal(first, second) {
		vault.Scrub(first)
		return nil, fmt.Errorf("passwords do not match")
	}
	if len(first) == 0 {
		return nil, fmt.Errorf("password cannot be empty")
	}
	return first, nil
}
