// FILE: src/internal/protocol/envelope.go
package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"pgmoneta-mcp/src/internal/core"
)

// TimestampLayout renders the request timestamp as YYYYMMDDhhmmss
const TimestampLayout = "20060102150405"

const envelopeHeaderLen = 6

// RequestHeader is the metadata block every management request carries
type RequestHeader struct {
	Command       Command     `json:"Command"`
	ClientVersion string      `json:"ClientVersion"`
	Output        Format      `json:"Output"`
	Timestamp     string      `json:"Timestamp"`
	Compression   Compression `json:"Compression"`
	Encryption    Encryption  `json:"Encryption"`
}

// Request is the JSON body of a management request
type Request struct {
	Header  RequestHeader `json:"Header"`
	Request any           `json:"Request"`
}

// InfoRequest selects one backup of one server
type InfoRequest struct {
	Server string `json:"Server"`
	Backup string `json:"Backup"`
}

// Envelope is one framed management message
type Envelope struct {
	Compression Compression
	Encryption  Encryption
	Body        []byte
}

// NewHeader builds a request header stamped with now in local time
func NewHeader(cmd Command, now time.Time) RequestHeader {
	return RequestHeader{
		Command:       cmd,
		ClientVersion: core.ClientVersion,
		Output:        FormatJSON,
		Timestamp:     now.Local().Format(TimestampLayout),
		Compression:   CompressionNone,
		Encryption:    EncryptionNone,
	}
}

// NewRequest wraps a command payload with a fresh header
func NewRequest(cmd Command, payload any) *Request {
	return &Request{
		Header:  NewHeader(cmd, time.Now()),
		Request: payload,
	}
}

// WriteRequest encodes req and writes it as a single envelope
func WriteRequest(w io.Writer, req *Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: failed to encode request: %w", core.ErrProtocol, err)
	}
	return WriteEnvelope(w, &Envelope{Body: body})
}

// WriteEnvelope writes flags, big-endian body length and body in one write
func WriteEnvelope(w io.Writer, env *Envelope) error {
	buf := make([]byte, 0, envelopeHeaderLen+len(env.Body))
	buf = append(buf, byte(env.Compression), byte(env.Encryption))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(env.Body)))
	buf = append(buf, env.Body...)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("%w: failed to write request: %w", core.ErrIO, err)
	}
	return nil
}

// ReadEnvelope reads exactly one envelope, bounded by core.MaxResponseSize
func ReadEnvelope(r io.Reader) (*Envelope, error) {
	var hdr [envelopeHeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: failed to read response header: %w", core.ErrIO, err)
	}

	length := binary.BigEndian.Uint32(hdr[2:])
	if length > core.MaxResponseSize {
		return nil, fmt.Errorf("%w: response length %d exceeds limit %d",
			core.ErrProtocol, length, core.MaxResponseSize)
	}

	env := &Envelope{
		Compression: Compression(hdr[0]),
		Encryption:  Encryption(hdr[1]),
		Body:        make([]byte, length),
	}
	if _, err := io.ReadFull(r, env.Body); err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", core.ErrIO, err)
	}
	return env, nil
}

// ReadResponse reads one reply envelope and returns its body as text
func ReadResponse(r io.Reader) (string, error) {
	env, err := ReadEnvelope(r)
	if err != nil {
		return "", err
	}
	if env.Compression != CompressionNone {
		return "", fmt.Errorf("%w: unsupported response compression %d", core.ErrProtocol, env.Compression)
	}
	if env.Encryption != EncryptionNone {
		return "", fmt.Errorf("%w: unsupported response encryption %d", core.ErrProtocol, env.Encryption)
	}
	if !utf8.Valid(env.Body) {
		return "", fmt.Errorf("%w: response is not valid utf-8", core.ErrDecode)
	}
	return string(env.Body), nil
}
