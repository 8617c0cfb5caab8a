// FILE: src/internal/protocol/handshake_test.go
package protocol_test

import (
	"context"
	"net"
	"testing"
	"time"

	"pgmoneta-mcp/src/internal/core"
	"pgmoneta-mcp/src/internal/fixture"
	"pgmoneta-mcp/src/internal/protocol"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func startDaemon(t *testing.T, opts fixture.Options) *fixture.Daemon {
	t.Helper()
	d, err := fixture.Start(opts)
	require.NoError(t, err)
	require.NoError(t, d.AddUser("alice", "s3cr3t"))
	t.Cleanup(func() { d.Close() })
	return d
}

func dial(t *testing.T, d *fixture.Daemon) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", d.Addr(), 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func runHandshake(t *testing.T, conn net.Conn, user, password string) (*protocol.Handshake, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h := protocol.NewHandshake(conn, user, []byte(password), newTestLogger())
	return h, h.Run(ctx)
}

// connClosed reports whether the local side of conn has been closed
func connClosed(conn net.Conn) bool {
	_, err := conn.Write([]byte{0})
	return err != nil
}

func TestHandshake_Success(t *testing.T) {
	d := startDaemon(t, fixture.Options{})
	conn := dial(t, d)

	h, err := runHandshake(t, conn, "alice", "s3cr3t")
	require.NoError(t, err)
	assert.Equal(t, protocol.StateAuthenticated, h.State())

	// Stream is usable for the command exchange
	req := protocol.NewRequest(protocol.CommandInfo, protocol.InfoRequest{Server: "pg1", Backup: "oldest"})
	require.NoError(t, protocol.WriteRequest(conn, req))
	text, err := protocol.ReadResponse(conn)
	require.NoError(t, err)
	assert.Contains(t, text, `"Backup":"20250101000000"`)

	assert.Equal(t, []string{"alice"}, d.StartupUsers())
	assert.EqualValues(t, 1, d.Authenticated())
}

func TestHandshake_RejectsBadTags(t *testing.T) {
	testCases := []struct {
		name    string
		fault   fixture.Fault
		message string
	}{
		{"Startup", fixture.FaultStartupTag, "invalid startup response"},
		{"ServerFirst", fixture.FaultServerFirstTag, "invalid server-first message"},
		{"ServerFinal", fixture.FaultServerFinalTag, "invalid server-final message"},
		{"Confirmation", fixture.FaultConfirmTag, "authentication not confirmed"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := startDaemon(t, fixture.Options{Fault: tc.fault})
			conn := dial(t, d)

			h, err := runHandshake(t, conn, "alice", "s3cr3t")
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrAuth)
			assert.Contains(t, err.Error(), tc.message)
			assert.Contains(t, err.Error(), "0x45")
			assert.Equal(t, protocol.StateFailed, h.State())
			assert.True(t, connClosed(conn))

			// Daemon observes the close without receiving a further frame
			require.NoError(t, d.Close())
			assert.Zero(t, d.Unsolicited())
		})
	}
}

func TestHandshake_SignatureMismatch(t *testing.T) {
	d := startDaemon(t, fixture.Options{Fault: fixture.FaultSignature})
	conn := dial(t, d)

	h, err := runHandshake(t, conn, "alice", "s3cr3t")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrAuth)
	assert.Contains(t, err.Error(), "server signature mismatch")
	assert.Equal(t, protocol.StateFailed, h.State())

	require.NoError(t, d.Close())
	assert.Zero(t, d.Unsolicited())
}

func TestHandshake_WrongPassword(t *testing.T) {
	d := startDaemon(t, fixture.Options{})
	conn := dial(t, d)

	h, err := runHandshake(t, conn, "alice", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrAuth)
	assert.Contains(t, err.Error(), "invalid server-final message")
	assert.Equal(t, protocol.StateFailed, h.State())
	assert.Zero(t, d.Authenticated())
}

func TestHandshake_ConnectionClosed(t *testing.T) {
	d := startDaemon(t, fixture.Options{Fault: fixture.FaultCloseAfterStartup})
	conn := dial(t, d)

	_, err := runHandshake(t, conn, "alice", "s3cr3t")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrAuth)
	assert.Contains(t, err.Error(), "invalid startup response")
}

func TestHandshake_DeadlineExceeded(t *testing.T) {
	d := startDaemon(t, fixture.Options{Fault: fixture.FaultStall})
	conn := dial(t, d)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	h := protocol.NewHandshake(conn, "alice", []byte("s3cr3t"), newTestLogger())
	start := time.Now()
	err := h.Run(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrIO)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Equal(t, protocol.StateFailed, h.State())
}

func TestHandshake_Cancelled(t *testing.T) {
	d := startDaemon(t, fixture.Options{Fault: fixture.FaultStall})
	conn := dial(t, d)

	ctx, cancel := context.WithCancel(context.Background())
	h := protocol.NewHandshake(conn, "alice", []byte("s3cr3t"), newTestLogger())

	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, core.ErrIO)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("handshake did not stop after cancellation")
	}
}

func TestHandshake_RunTwice(t *testing.T) {
	d := startDaemon(t, fixture.Options{})
	conn := dial(t, d)

	h, err := runHandshake(t, conn, "alice", "s3cr3t")
	require.NoError(t, err)

	err = h.Run(context.Background())
	assert.ErrorIs(t, err, core.ErrAuth)
	assert.Equal(t, protocol.StateAuthenticated, h.State())
}
