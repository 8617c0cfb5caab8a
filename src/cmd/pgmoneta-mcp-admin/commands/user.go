// FILE: src/cmd/pgmoneta-mcp-admin/commands/user.go
package commands

import (
	"flag"
	"fmt"
	"strings"

	"pgmoneta-mcp/src/internal/config"
	"pgmoneta-mcp/src/internal/vault"
)

// UserCommand manages the encrypted admin credentials file
type UserCommand struct {
	term *terminal
}

func NewUserCommand(term *terminal) *UserCommand {
	return &UserCommand{term: term}
}

func (c *UserCommand) Execute(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.term.errOut, c.Help())
		return fmt.Errorf("user action required")
	}

	switch args[0] {
	case "add":
		return c.add(args[1:])
	case "ls", "list":
		return c.list(args[1:])
	default:
		return fmt.Errorf("unknown user action: %s", args[0])
	}
}

func (c *UserCommand) add(args []string) error {
	cmd := flag.NewFlagSet("user add", flag.ContinueOnError)
	cmd.SetOutput(c.term.errOut)

	var (
		user         = cmd.String("U", "", "Admin user")
		userLong     = cmd.String("user", "", "Admin user")
		file         = cmd.String("f", "", "Users file")
		fileLong     = cmd.String("file", "", "Users file")
		password     = cmd.String("p", "", "Password (will prompt if not provided)")
		passwordLong = cmd.String("password", "", "Password (will prompt if not provided)")
	)
	cmd.Usage = func() { fmt.Fprint(c.term.errOut, c.Help()) }

	if err := cmd.Parse(args); err != nil {
		return err
	}
	if cmd.NArg() > 0 {
		return fmt.Errorf("unexpected argument(s): %s", strings.Join(cmd.Args(), " "))
	}

	finalUser := coalesceString(*user, *userLong)
	finalFile := coalesceString(*file, *fileLong)
	if finalUser == "" || finalFile == "" {
		cmd.Usage()
		return fmt.Errorf("--user and --file are required")
	}

	store, err := c.term.keyStore()
	if err != nil {
		return err
	}
	masterKey, err := store.Load()
	if err != nil {
		return fmt.Errorf("unable to load the master key, needed for adding user: %w", err)
	}
	defer vault.Scrub(masterKey)

	var secret []byte
	if p := coalesceString(*password, *passwordLong); p != "" {
		secret = []byte(p)
	} else {
		secret, err = c.term.promptConfirmed("Enter password for "+finalUser+": ", "Confirm password: ")
		if err != nil {
			return err
		}
	}
	defer vault.Scrub(secret)

	text, err := c.term.vault.EncryptToText(secret, masterKey)
	if err != nil {
		return err
	}

	if err := config.SetUser(finalFile, finalUser, text); err != nil {
		return err
	}

	fmt.Fprintf(c.term.output, "User %s saved to %s\n", finalUser, finalFile)
	return nil
}

func (c *UserCommand) list(args []string) error {
	cmd := flag.NewFlagSet("user ls", flag.ContinueOnError)
	cmd.SetOutput(c.term.errOut)

	var (
		file     = cmd.String("f", "", "Users file")
		fileLong = cmd.String("file", "", "Users file")
	)
	if err := cmd.Parse(args); err != nil {
		return err
	}

	finalFile := coalesceString(*file, *fileLong)
	if finalFile == "" {
		return fmt.Errorf("--file is required")
	}

	users, err := config.LoadUsers(finalFile)
	if err != nil {
		return err
	}
	for _, name := range users.Names() {
		fmt.Fprintln(c.term.output, name)
	}
	return nil
}

func (c *UserCommand) Description() string {
	return "Manage admin users in a users file"
}

func (c *UserCommand) Help() string {
	return `User Command - Manage admin users

Usage:
  pgmoneta-mcp-admin user add -U <user> -f <file> [-p <password>]
  pgmoneta-mcp-admin user ls -f <file>

Actions:
  add   Encrypt the password under the master key and store it for <user>.
        The file is created if missing; an existing user is overwritten.
  ls    List the admin users in <file>

Options:
  -U, --user <name>          Admin user
  -f, --file <path>          Users file
  -p, --password <password>  Password (prompted twice if omitted)

The master key must be set first with 'pgmoneta-mcp-admin master-key'.
`
}
