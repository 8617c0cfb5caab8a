// FILE: src/internal/protocol/handshake.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"pgmoneta-mcp/src/internal/auth"
	"pgmoneta-mcp/src/internal/core"

	"github.com/lixenwraith/log"
)

// State is a handshake position
type State int

const (
	StateStart State = iota
	StateSentStartup
	StateSentClientFirst
	StateSentClientFinal
	StateAuthenticated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateSentStartup:
		return "sent_startup"
	case StateSentClientFirst:
		return "sent_client_first"
	case StateSentClientFinal:
		return "sent_client_final"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Handshake drives the SCRAM-SHA-256 client role over one connection.
// A failed handshake always closes the connection.
type Handshake struct {
	conn   net.Conn
	scram  *auth.ScramClient
	state  State
	logger *log.Logger
}

// NewHandshake binds a handshake to conn. password stays owned by the caller.
func NewHandshake(conn net.Conn, username string, password []byte, logger *log.Logger) *Handshake {
	return &Handshake{
		conn:   conn,
		scram:  auth.NewScramClient(username, password),
		state:  StateStart,
		logger: logger,
	}
}

// State reports the current position
func (h *Handshake) State() State {
	return h.state
}

// Run performs startup and the three SCRAM round trips. The context deadline
// bounds every read and write; cancellation closes the connection.
func (h *Handshake) Run(ctx context.Context) (err error) {
	if h.state != StateStart {
		return fmt.Errorf("%w: handshake already in state %s", core.ErrAuth, h.state)
	}

	stop := context.AfterFunc(ctx, func() { h.conn.Close() })
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		if err := h.conn.SetDeadline(deadline); err != nil {
			h.fail()
			return fmt.Errorf("%w: failed to set deadline: %w", core.ErrIO, err)
		}
		defer h.conn.SetDeadline(time.Time{})
	}

	defer func() {
		if err == nil {
			return
		}
		failedIn := h.state
		h.fail()
		if cerr := ContextErr(ctx); cerr != nil {
			err = fmt.Errorf("%w: handshake aborted: %w", core.ErrIO, cerr)
		}
		h.logger.Debug("msg", "Handshake failed",
			"component", "handshake",
			"user", h.scram.Username,
			"state", failedIn.String(),
			"error", err)
	}()

	// Startup
	if err := h.send(StartupMessage(h.scram.Username), "startup message"); err != nil {
		return err
	}
	h.state = StateSentStartup
	if _, err := h.receive("invalid startup response"); err != nil {
		return err
	}

	// client-first / server-first
	clientFirst, err := h.scram.ClientFirst()
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrCrypto, err)
	}
	if err := h.send(SASLInitialResponse(clientFirst), "client-first message"); err != nil {
		return err
	}
	h.state = StateSentClientFirst
	serverFirst, err := h.receive("invalid server-first message")
	if err != nil {
		return err
	}
	clientFinal, err := h.scram.HandleServerFirst(string(serverFirst.Data))
	if err != nil {
		return fmt.Errorf("%w: invalid server-first message: %w", core.ErrAuth, err)
	}

	// client-final / server-final
	if err := h.send(SASLResponse(clientFinal), "client-final message"); err != nil {
		return err
	}
	h.state = StateSentClientFinal
	serverFinal, err := h.receive("invalid server-final message")
	if err != nil {
		return err
	}
	if err := h.scram.VerifyServerFinal(string(serverFinal.Data)); err != nil {
		if errors.Is(err, auth.ErrSignatureMismatch) {
			return fmt.Errorf("%w: %w", core.ErrAuth, err)
		}
		return fmt.Errorf("%w: invalid server-final message: %w", core.ErrAuth, err)
	}

	// Confirmation
	if _, err := h.receive("authentication not confirmed"); err != nil {
		return err
	}
	h.state = StateAuthenticated

	h.logger.Debug("msg", "Handshake complete",
		"component", "handshake",
		"user", h.scram.Username,
		"remote_addr", h.conn.RemoteAddr())
	return nil
}

func (h *Handshake) send(frame []byte, what string) error {
	if _, err := h.conn.Write(frame); err != nil {
		return fmt.Errorf("%w: failed to send %s: %w", core.ErrIO, what, err)
	}
	return nil
}

// receive reads one 'R' reply; failures carry the stage description
func (h *Handshake) receive(stage string) (*AuthMessage, error) {
	msg, err := ReadAuthMessage(h.conn)
	if err == nil {
		return msg, nil
	}

	var tagErr *TagError
	switch {
	case errors.As(err, &tagErr),
		errors.Is(err, ErrMalformedMessage),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return nil, fmt.Errorf("%w: %s: %w", core.ErrAuth, stage, err)
	default:
		return nil, fmt.Errorf("%w: %s: %w", core.ErrIO, stage, err)
	}
}

func (h *Handshake) fail() {
	h.state = StateFailed
	h.conn.Close()
}

// ContextErr is ctx.Err, also reporting an expired deadline whose timer has
// not fired yet. Connection deadlines mirror the context deadline, so an I/O
// timeout can surface first.
func ContextErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return context.DeadlineExceeded
	}
	return nil
}
