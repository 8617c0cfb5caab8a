// FILE: src/internal/fixture/daemon.go
package fixture

import (
	"encoding/base64"
	"encoding/json"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"pgmoneta-mcp/src/internal/auth"
	"pgmoneta-mcp/src/internal/protocol"
)

// Fault selects a misbehavior injected into every session
type Fault int

const (
	FaultNone Fault = iota
	FaultStartupTag
	FaultServerFirstTag
	FaultServerFinalTag
	FaultConfirmTag
	FaultSignature
	FaultCloseAfterStartup
	FaultStall
)

const sessionTimeout = 5 * time.Second

// Responder produces a reply body for a decoded request body
type Responder func(request []byte) []byte

// Options configures a Daemon
type Options struct {
	Fault     Fault
	Responder Responder
	// RawReply, when set, is written verbatim in place of a reply envelope
	RawReply []byte
}

// Daemon is a loopback management daemon speaking the startup, SCRAM and
// envelope protocol. Every accepted connection is counted.
type Daemon struct {
	listener net.Listener
	scram    *auth.ScramServer
	opts     Options

	connections atomic.Int64
	unsolicited atomic.Int64
	sessionsOK  atomic.Int64

	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	requests [][]byte
	users    []string

	wg sync.WaitGroup
}

// Start listens on an ephemeral loopback port
func Start(opts Options) (*Daemon, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	if opts.Responder == nil {
		opts.Responder = InfoResponder
	}

	d := &Daemon{
		listener: listener,
		scram:    auth.NewScramServer(),
		opts:     opts,
		conns:    make(map[net.Conn]struct{}),
	}

	d.wg.Add(1)
	go d.acceptLoop()
	return d, nil
}

// AddUser registers a SCRAM credential
func (d *Daemon) AddUser(username, password string) error {
	return d.scram.RegisterUser(username, password)
}

// Addr returns host:port
func (d *Daemon) Addr() string {
	return d.listener.Addr().String()
}

// Host returns the listening host
func (d *Daemon) Host() string {
	host, _, _ := net.SplitHostPort(d.Addr())
	return host
}

// Port returns the listening port
func (d *Daemon) Port() int64 {
	_, port, _ := net.SplitHostPort(d.Addr())
	p, _ := strconv.ParseInt(port, 10, 64)
	return p
}

// Connections returns the number of accepted connections
func (d *Daemon) Connections() int64 {
	return d.connections.Load()
}

// Authenticated returns the number of sessions that completed SCRAM
func (d *Daemon) Authenticated() int64 {
	return d.sessionsOK.Load()
}

// Unsolicited returns bytes a client sent after being sent a faulty reply
func (d *Daemon) Unsolicited() int64 {
	return d.unsolicited.Load()
}

// Requests returns the request bodies received so far
func (d *Daemon) Requests() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.requests))
	copy(out, d.requests)
	return out
}

// StartupUsers returns the user parameter of every startup frame received
func (d *Daemon) StartupUsers() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.users...)
}

// Close stops accepting, drops live sessions and waits for handlers
func (d *Daemon) Close() error {
	err := d.listener.Close()
	d.mu.Lock()
	for conn := range d.conns {
		conn.Close()
	}
	d.mu.Unlock()
	d.wg.Wait()
	return err
}

func (d *Daemon) acceptLoop() {
	defer d.wg.Done()
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			return
		}
		d.connections.Add(1)

		d.mu.Lock()
		d.conns[conn] = struct{}{}
		d.mu.Unlock()

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			defer func() {
				d.mu.Lock()
				delete(d.conns, conn)
				d.mu.Unlock()
				conn.Close()
			}()
			d.serve(conn)
		}()
	}
}

func (d *Daemon) serve(conn net.Conn) {
	conn.SetDeadline(time.Now().Add(sessionTimeout))

	params, err := protocol.ReadStartupMessage(conn)
	if err != nil {
		return
	}
	d.mu.Lock()
	d.users = append(d.users, params["user"])
	d.mu.Unlock()

	switch d.opts.Fault {
	case FaultStartupTag:
		d.reject(conn)
		return
	case FaultCloseAfterStartup:
		return
	case FaultStall:
		d.drain(conn)
		return
	}
	if protocol.WriteAuthMessage(conn, protocol.AuthSASL, []byte(auth.Mechanism+"\x00\x00")) != nil {
		return
	}

	body, err := protocol.ReadPasswordMessage(conn)
	if err != nil {
		return
	}
	clientFirst, err := protocol.ParseSASLInitialResponse(body)
	if err != nil {
		d.reject(conn)
		return
	}
	serverFirst, err := d.scram.HandleClientFirst(clientFirst)
	if err != nil || d.opts.Fault == FaultServerFirstTag {
		d.reject(conn)
		return
	}
	if protocol.WriteAuthMessage(conn, protocol.AuthSASLContinue, []byte(serverFirst)) != nil {
		return
	}

	body, err = protocol.ReadPasswordMessage(conn)
	if err != nil {
		return
	}
	serverFinal, err := d.scram.HandleClientFinal(string(body))
	if err != nil || d.opts.Fault == FaultServerFinalTag {
		d.reject(conn)
		return
	}
	if d.opts.Fault == FaultSignature {
		serverFinal = "v=" + base64.StdEncoding.EncodeToString(make([]byte, 32))
	}
	if protocol.WriteAuthMessage(conn, protocol.AuthSASLFinal, []byte(serverFinal)) != nil {
		return
	}

	if d.opts.Fault == FaultConfirmTag {
		d.reject(conn)
		return
	}
	if d.opts.Fault == FaultSignature {
		d.drain(conn)
		return
	}
	if protocol.WriteAuthMessage(conn, protocol.AuthOK, nil) != nil {
		return
	}
	d.sessionsOK.Add(1)

	env, err := protocol.ReadEnvelope(conn)
	if err != nil {
		return
	}
	d.mu.Lock()
	d.requests = append(d.requests, env.Body)
	d.mu.Unlock()

	if d.opts.RawReply != nil {
		conn.Write(d.opts.RawReply)
		return
	}
	protocol.WriteEnvelope(conn, &protocol.Envelope{Body: d.opts.Responder(env.Body)})
}

// reject sends an error-tagged reply and counts anything the client sends afterwards
func (d *Daemon) reject(conn net.Conn) {
	if _, err := conn.Write([]byte{'E', 0, 0, 0, 4}); err != nil {
		return
	}
	d.drain(conn)
}

func (d *Daemon) drain(conn net.Conn) {
	buf := make([]byte, 512)
	for {
		n, err := conn.Read(buf)
		d.unsolicited.Add(int64(n))
		if err != nil {
			return
		}
	}
}

// InfoResponder answers an info request with a successful outcome echoing the
// requested server and backup
func InfoResponder(request []byte) []byte {
	var req struct {
		Header  map[string]any `json:"Header"`
		Request struct {
			Server string `json:"Server"`
			Backup string `json:"Backup"`
		} `json:"Request"`
	}
	if err := json.Unmarshal(request, &req); err != nil {
		return StatusResponse(false)
	}

	body, _ := json.Marshal(map[string]any{
		"Header": req.Header,
		"Outcome": map[string]any{
			"Status": true,
			"Time":   "00:00:00",
		},
		"Response": map[string]any{
			"Server":          req.Request.Server,
			"Backup":          resolveBackup(req.Request.Backup),
			"BackupSize":      1536,
			"RestoreSize":     5 * 1024 * 1024,
			"Compression":     2,
			"Encryption":      0,
			"Valid":           1,
			"StartHiLSN":      0,
			"StartLoLSN":      50331688,
			"CheckpointHiLSN": 0,
			"CheckpointLoLSN": 50331760,
		},
	})
	return body
}

// StatusResponse builds a reply carrying only an outcome
func StatusResponse(status bool) []byte {
	body, _ := json.Marshal(map[string]any{
		"Outcome": map[string]any{"Status": status},
	})
	return body
}

func resolveBackup(id string) string {
	switch id {
	case "newest", "latest":
		return "20250102000000"
	case "oldest":
		return "20250101000000"
	default:
		return id
	}
}
