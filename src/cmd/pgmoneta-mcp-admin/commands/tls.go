// FILE: src/cmd/pgmoneta-mcp-admin/commands/tls.go
package commands

import (
	"flag"
	"fmt"
	"strings"

	ltls "pgmoneta-mcp/src/internal/tls"
)

// TLSCommand generates a self-signed certificate for the MCP listener
type TLSCommand struct {
	term *terminal
}

func NewTLSCommand(term *terminal) *TLSCommand {
	return &TLSCommand{term: term}
}

func (c *TLSCommand) Execute(args []string) error {
	cmd := flag.NewFlagSet("tls", flag.ContinueOnError)
	cmd.SetOutput(c.term.errOut)

	var (
		commonName = cmd.String("cn", "", "Common name (required)")
		org        = cmd.String("org", "pgmoneta-mcp", "Organization")
		hosts      = cmd.String("hosts", "", "Comma-separated hostnames/IPs")
		validDays  = cmd.Int("days", 365, "Validity period in days")
		keySize    = cmd.Int("bits", 2048, "RSA key size")
		certOut    = cmd.String("cert-out", "server.crt", "Output certificate file")
		keyOut     = cmd.String("key-out", "server.key", "Output key file")
	)
	cmd.Usage = func() { fmt.Fprint(c.term.errOut, c.Help()) }

	if err := cmd.Parse(args); err != nil {
		return err
	}
	if cmd.NArg() > 0 {
		return fmt.Errorf("unexpected argument(s): %s", strings.Join(cmd.Args(), " "))
	}
	if *commonName == "" {
		cmd.Usage()
		return fmt.Errorf("common name (--cn) is required")
	}

	opts := ltls.CertOptions{
		CommonName:   *commonName,
		Organization: *org,
		Hosts:        *hosts,
		ValidDays:    *validDays,
		KeyBits:      *keySize,
	}
	if err := ltls.GenerateSelfSigned(opts, *certOut, *keyOut); err != nil {
		return err
	}

	fmt.Fprintf(c.term.output, "Self-signed certificate generated:\n")
	fmt.Fprintf(c.term.output, "  Certificate: %s\n", *certOut)
	fmt.Fprintf(c.term.output, "  Private key: %s (mode 0600)\n", *keyOut)
	fmt.Fprintf(c.term.output, "  Valid for:   %d days\n", *validDays)
	if *hosts != "" {
		fmt.Fprintf(c.term.output, "  Hosts:       %s\n", *hosts)
	}
	return nil
}

func (c *TLSCommand) Description() string {
	return "Generate a self-signed certificate for the MCP listener"
}

func (c *TLSCommand) Help() string {
	return `TLS Command - Generate a self-signed certificate

Usage:
  pgmoneta-mcp-admin tls --cn <name> [options]

Options:
  --cn <name>          Common name (required)
  --org <name>         Organization (default: pgmoneta-mcp)
  --hosts <list>       Comma-separated hostnames/IPs for the SAN extension
  --days <n>           Validity period in days (default: 365)
  --bits <n>           RSA key size (default: 2048)
  --cert-out <path>    Certificate file (default: server.crt)
  --key-out <path>     Private key file (default: server.key)

Then enable it in the configuration:
  [tls]
  enabled = true
  cert_file = "server.crt"
  key_file = "server.key"
`
}
