// FILE: src/internal/client/client.go
package client

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"pgmoneta-mcp/src/internal/config"
	"pgmoneta-mcp/src/internal/core"
	"pgmoneta-mcp/src/internal/keystore"
	"pgmoneta-mcp/src/internal/protocol"
	"pgmoneta-mcp/src/internal/vault"

	"github.com/lixenwraith/log"
)

// Timeouts bounds each network stage; zero disables the bound
type Timeouts struct {
	Dial      time.Duration
	Handshake time.Duration
	Request   time.Duration
}

// Client runs one management command per connection against pgmoneta.
// It holds only read-only state and is safe for concurrent use.
type Client struct {
	address  string
	timeouts Timeouts
	users    *config.Users
	keys     *keystore.Store
	vault    *vault.Vault
	dialer   *net.Dialer
	logger   *log.Logger
}

// New builds a client from an immutable configuration snapshot
func New(cfg *config.Config, users *config.Users, keys *keystore.Store, v *vault.Vault, logger *log.Logger) *Client {
	return &Client{
		address: net.JoinHostPort(cfg.Pgmoneta.Host, strconv.FormatInt(cfg.Pgmoneta.Port, 10)),
		timeouts: Timeouts{
			Dial:      time.Duration(cfg.Timeouts.DialSeconds) * time.Second,
			Handshake: time.Duration(cfg.Timeouts.HandshakeSeconds) * time.Second,
			Request:   time.Duration(cfg.Timeouts.RequestSeconds) * time.Second,
		},
		users:  users,
		keys:   keys,
		vault:  v,
		dialer: &net.Dialer{KeepAlive: 30 * time.Second},
		logger: logger,
	}
}

// Address returns the daemon host:port
func (c *Client) Address() string {
	return c.address
}

// FetchInfo returns the raw JSON reply describing one backup of server.
// backupID may be a literal id or newest, latest or oldest.
func (c *Client) FetchInfo(ctx context.Context, username, server, backupID string) (string, error) {
	c.logger.Debug("msg", "Fetching backup info",
		"component", "client",
		"user", username,
		"server", server,
		"backup", backupID)

	return c.execute(ctx, username, protocol.CommandInfo, protocol.InfoRequest{
		Server: server,
		Backup: backupID,
	})
}

// execute resolves the credential of username, authenticates a fresh
// connection and performs a single request/reply exchange. Credential
// failures abort before any connection is attempted.
func (c *Client) execute(ctx context.Context, username string, cmd protocol.Command, payload any) (string, error) {
	secret, ok := c.users.Lookup(username)
	if !ok {
		return "", fmt.Errorf("%w: %w: no credential for user %q", core.ErrConfig, core.ErrNotFound, username)
	}

	masterKey, err := c.keys.Load()
	if err != nil {
		return "", err
	}
	password, err := c.vault.DecryptText(secret, masterKey)
	vault.Scrub(masterKey)
	if err != nil {
		return "", err
	}

	var reply string
	err = vault.WithSecret(password, func(pw []byte) error {
		var err error
		reply, err = c.exchange(ctx, username, pw, cmd, payload)
		return err
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (c *Client) exchange(ctx context.Context, username string, password []byte, cmd protocol.Command, payload any) (string, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	hsCtx, cancel := withTimeout(ctx, c.timeouts.Handshake)
	err = protocol.NewHandshake(conn, username, password, c.logger).Run(hsCtx)
	cancel()
	if err != nil {
		return "", err
	}

	reqCtx, cancel := withTimeout(ctx, c.timeouts.Request)
	defer cancel()

	stop := context.AfterFunc(reqCtx, func() { conn.Close() })
	defer stop()

	if deadline, ok := reqCtx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return "", fmt.Errorf("%w: failed to set deadline: %w", core.ErrIO, err)
		}
	}

	if err := protocol.WriteRequest(conn, protocol.NewRequest(cmd, payload)); err != nil {
		return "", requestErr(reqCtx, err)
	}
	reply, err := protocol.ReadResponse(conn)
	if err != nil {
		return "", requestErr(reqCtx, err)
	}

	c.logger.Debug("msg", "Request complete",
		"component", "client",
		"user", username,
		"command", cmd.String(),
		"reply_bytes", len(reply))
	return reply, nil
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	dialCtx, cancel := withTimeout(ctx, c.timeouts.Dial)
	defer cancel()

	conn, err := c.dialer.DialContext(dialCtx, "tcp", c.address)
	if err != nil {
		if cerr := protocol.ContextErr(dialCtx); cerr != nil {
			return nil, fmt.Errorf("%w: connect to %s aborted: %w", core.ErrIO, c.address, cerr)
		}
		return nil, fmt.Errorf("%w: failed to connect to %s: %w", core.ErrIO, c.address, err)
	}
	return conn, nil
}

func requestErr(ctx context.Context, err error) error {
	if cerr := protocol.ContextErr(ctx); cerr != nil {
		return fmt.Errorf("%w: request aborted: %w", core.ErrIO, cerr)
	}
	return err
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
