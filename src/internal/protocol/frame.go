// FILE: src/internal/protocol/frame.go
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"pgmoneta-mcp/src/internal/core"
)

// Message tags
const (
	TagAuthentication byte = 'R'
	TagPassword       byte = 'p'
)

// Authentication reply subtypes carried after the length field
const (
	AuthOK           int32 = 0
	AuthSASL         int32 = 10
	AuthSASLContinue int32 = 11
	AuthSASLFinal    int32 = 12
)

// Startup parameter keys
const (
	keyUser        = "user"
	keyDatabase    = "database"
	keyApplication = "application_name"
)

// Mechanism name and the filler the daemon expects between it and the payload
const (
	saslMechanism = "SCRAM-SHA-256"
	saslFiller    = "\x00\x00\x00\x00 "
)

// ErrMalformedMessage reports a reply whose length field cannot be honored
var ErrMalformedMessage = errors.New("malformed message")

// TagError reports a reply that started with an unexpected tag byte
type TagError struct {
	Tag byte
}

func (e *TagError) Error() string {
	return fmt.Sprintf("unexpected message tag 0x%02x", e.Tag)
}

// AuthMessage is one 'R' reply: the subtype and whatever follows it
type AuthMessage struct {
	Type int32
	Data []byte
}

// StartupMessage builds the connection startup frame for username.
//
//	int32 len | int32 magic | "user\0" user "\0" | "database\0" "admin" "\0" |
//	"application_name\0" "pgmoneta" "\0" | "\0"
func StartupMessage(username string) []byte {
	size := 4 + 4 +
		len(keyUser) + 1 + len(username) + 1 +
		len(keyDatabase) + 1 + len(core.ServiceDatabase) + 1 +
		len(keyApplication) + 1 + len(core.ApplicationName) + 1 +
		1

	buf := make([]byte, 0, size)
	buf = binary.BigEndian.AppendUint32(buf, uint32(size))
	buf = binary.BigEndian.AppendUint32(buf, core.ProtocolMagic)
	buf = appendCString(buf, keyUser)
	buf = appendCString(buf, username)
	buf = appendCString(buf, keyDatabase)
	buf = appendCString(buf, core.ServiceDatabase)
	buf = appendCString(buf, keyApplication)
	buf = appendCString(buf, core.ApplicationName)
	return append(buf, 0)
}

// SASLInitialResponse frames a SCRAM client-first message.
// The length field counts the tag byte as well.
func SASLInitialResponse(clientFirst string) []byte {
	size := 1 + 4 + len(saslMechanism) + len(saslFiller) + len(clientFirst)

	buf := make([]byte, 0, size)
	buf = append(buf, TagPassword)
	buf = binary.BigEndian.AppendUint32(buf, uint32(size))
	buf = append(buf, saslMechanism...)
	buf = append(buf, saslFiller...)
	return append(buf, clientFirst...)
}

// SASLResponse frames a SCRAM client-final message
func SASLResponse(clientFinal string) []byte {
	size := 1 + 4 + len(clientFinal)

	buf := make([]byte, 0, size)
	buf = append(buf, TagPassword)
	buf = binary.BigEndian.AppendUint32(buf, uint32(size))
	return append(buf, clientFinal...)
}

// ParseSASLInitialResponse extracts the client-first text from a frame body
// that follows the tag and length
func ParseSASLInitialResponse(body []byte) (string, error) {
	prefix := saslMechanism + saslFiller
	if len(body) < len(prefix) || string(body[:len(prefix)]) != prefix {
		return "", fmt.Errorf("%w: unsupported mechanism", ErrMalformedMessage)
	}
	return string(body[len(prefix):]), nil
}

// ReadAuthMessage reads one authentication reply. A wrong tag is reported
// as *TagError before anything past the tag is consumed.
func ReadAuthMessage(r io.Reader) (*AuthMessage, error) {
	var tag [1]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return nil, err
	}
	if tag[0] != TagAuthentication {
		return nil, &TagError{Tag: tag[0]}
	}

	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(hdr[:4])
	if length < 8 || length > core.MaxAuthMessageSize {
		return nil, fmt.Errorf("%w: length %d", ErrMalformedMessage, length)
	}

	msg := &AuthMessage{
		Type: int32(binary.BigEndian.Uint32(hdr[4:])),
		Data: make([]byte, length-8),
	}
	if _, err := io.ReadFull(r, msg.Data); err != nil {
		return nil, err
	}
	return msg, nil
}

// WriteAuthMessage writes an 'R' reply
func WriteAuthMessage(w io.Writer, authType int32, data []byte) error {
	buf := make([]byte, 0, 9+len(data))
	buf = append(buf, TagAuthentication)
	buf = binary.BigEndian.AppendUint32(buf, uint32(8+len(data)))
	buf = binary.BigEndian.AppendUint32(buf, uint32(authType))
	buf = append(buf, data...)
	_, err := w.Write(buf)
	return err
}

// ReadStartupMessage reads a startup frame and returns its parameters
func ReadStartupMessage(r io.Reader) (map[string]string, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(hdr[:4])
	if length < 9 || length > core.MaxAuthMessageSize {
		return nil, fmt.Errorf("%w: length %d", ErrMalformedMessage, length)
	}
	if magic := binary.BigEndian.Uint32(hdr[4:]); magic != core.ProtocolMagic {
		return nil, fmt.Errorf("%w: protocol %d", ErrMalformedMessage, magic)
	}

	body := make([]byte, length-8)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	params := make(map[string]string)
	for len(body) > 1 {
		key, rest, ok := cutCString(body)
		if !ok {
			return nil, fmt.Errorf("%w: unterminated key", ErrMalformedMessage)
		}
		value, rest, ok := cutCString(rest)
		if !ok {
			return nil, fmt.Errorf("%w: unterminated value", ErrMalformedMessage)
		}
		params[key] = value
		body = rest
	}
	if len(body) != 1 || body[0] != 0 {
		return nil, fmt.Errorf("%w: missing terminator", ErrMalformedMessage)
	}
	return params, nil
}

// ReadPasswordMessage reads a 'p' frame and returns the bytes after the length
func ReadPasswordMessage(r io.Reader) ([]byte, error) {
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	if hdr[0] != TagPassword {
		return nil, &TagError{Tag: hdr[0]}
	}
	length := binary.BigEndian.Uint32(hdr[1:])
	if length < 5 || length > core.MaxAuthMessageSize {
		return nil, fmt.Errorf("%w: length %d", ErrMalformedMessage, length)
	}

	body := make([]byte, length-5)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

func appendCString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	return append(buf, 0)
}

func cutCString(b []byte) (string, []byte, bool) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), b[i+1:], true
		}
	}
	return "", nil, false
}
