// FILE: src/internal/auth/scram_message.go
package auth

import (
	"fmt"
	"strconv"
	"strings"
)

// GS2 header for a client without channel binding or authzid
const gs2Header = "n,,"

// ChannelBinding is base64(gs2Header)
const channelBinding = "biws"

// ClientFirst initiates authentication
type ClientFirst struct {
	Username    string // n=
	ClientNonce string // r=
}

// ServerFirst contains server challenge
type ServerFirst struct {
	FullNonce  string // r=, client_nonce + server_nonce
	Salt       string // s=, base64
	Iterations int    // i=

	raw string
}

// ClientFinal contains client proof
type ClientFinal struct {
	ChannelBinding string // c=
	FullNonce      string // r=
	ClientProof    string // p=, base64
}

// ServerFinal contains server signature for mutual auth, or an error attribute
type ServerFinal struct {
	ServerSignature string // v=, base64
	Error           string // e=
}

// Bare returns client-first-message-bare
func (cf *ClientFirst) Bare() string {
	return fmt.Sprintf("n=%s,r=%s", escapeName(cf.Username), cf.ClientNonce)
}

// Marshal returns the full client-first-message including the GS2 header
func (cf *ClientFirst) Marshal() string {
	return gs2Header + cf.Bare()
}

// Marshal returns server-first-message, preferring the exact bytes received
func (sf *ServerFirst) Marshal() string {
	if sf.raw != "" {
		return sf.raw
	}
	return fmt.Sprintf("r=%s,s=%s,i=%d", sf.FullNonce, sf.Salt, sf.Iterations)
}

// WithoutProof returns client-final-message-without-proof
func (cf *ClientFinal) WithoutProof() string {
	return fmt.Sprintf("c=%s,r=%s", cf.ChannelBinding, cf.FullNonce)
}

// Marshal returns the full client-final-message
func (cf *ClientFinal) Marshal() string {
	return cf.WithoutProof() + ",p=" + cf.ClientProof
}

// Marshal returns server-final-message
func (sf *ServerFinal) Marshal() string {
	if sf.Error != "" {
		return "e=" + sf.Error
	}
	return "v=" + sf.ServerSignature
}

// ParseClientFirst parses a full client-first-message
func ParseClientFirst(data string) (*ClientFirst, error) {
	if !strings.HasPrefix(data, gs2Header) {
		return nil, fmt.Errorf("unsupported gs2 header")
	}

	attrs, err := parseAttributes(strings.TrimPrefix(data, gs2Header))
	if err != nil {
		return nil, err
	}

	name, err := unescapeName(attrs["n"])
	if err != nil {
		return nil, err
	}
	msg := &ClientFirst{
		Username:    name,
		ClientNonce: attrs["r"],
	}
	if msg.ClientNonce == "" {
		return nil, fmt.Errorf("missing client nonce")
	}
	return msg, nil
}

// ParseServerFirst parses server-first-message
func ParseServerFirst(data string) (*ServerFirst, error) {
	attrs, err := parseAttributes(data)
	if err != nil {
		return nil, err
	}
	if _, ok := attrs["m"]; ok {
		return nil, fmt.Errorf("unsupported mandatory extension")
	}

	msg := &ServerFirst{
		FullNonce: attrs["r"],
		Salt:      attrs["s"],
		raw:       data,
	}
	if msg.FullNonce == "" || msg.Salt == "" {
		return nil, fmt.Errorf("missing required fields")
	}

	msg.Iterations, err = strconv.Atoi(attrs["i"])
	if err != nil || msg.Iterations < 1 {
		return nil, fmt.Errorf("invalid iteration count %q", attrs["i"])
	}
	return msg, nil
}

// ParseClientFinal parses client-final-message
func ParseClientFinal(data string) (*ClientFinal, error) {
	attrs, err := parseAttributes(data)
	if err != nil {
		return nil, err
	}

	msg := &ClientFinal{
		ChannelBinding: attrs["c"],
		FullNonce:      attrs["r"],
		ClientProof:    attrs["p"],
	}
	if msg.ChannelBinding == "" || msg.FullNonce == "" || msg.ClientProof == "" {
		return nil, fmt.Errorf("missing required fields")
	}
	return msg, nil
}

// ParseServerFinal parses server-final-message
func ParseServerFinal(data string) (*ServerFinal, error) {
	attrs, err := parseAttributes(data)
	if err != nil {
		return nil, err
	}

	msg := &ServerFinal{
		ServerSignature: attrs["v"],
		Error:           attrs["e"],
	}
	if msg.ServerSignature == "" && msg.Error == "" {
		return nil, fmt.Errorf("missing verifier")
	}
	return msg, nil
}

// parseAttributes splits "k=v,k=v" into a map, keeping the first value of each key
func parseAttributes(data string) (map[string]string, error) {
	data = strings.TrimRight(data, "\x00")
	if data == "" {
		return nil, fmt.Errorf("empty message")
	}

	attrs := make(map[string]string)
	for _, part := range strings.Split(data, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 || len(kv[0]) != 1 {
			return nil, fmt.Errorf("malformed attribute %q", part)
		}
		if _, exists := attrs[kv[0]]; !exists {
			attrs[kv[0]] = kv[1]
		}
	}
	return attrs, nil
}

// escapeName encodes ',' and '=' in a saslname
func escapeName(name string) string {
	name = strings.ReplaceAll(name, "=", "=3D")
	return strings.ReplaceAll(name, ",", "=2C")
}

func unescapeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("missing username")
	}
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		if name[i] != '=' {
			b.WriteByte(name[i])
			continue
		}
		if i+2 >= len(name) {
			return "", fmt.Errorf("invalid username escape")
		}
		switch name[i+1 : i+3] {
		case "3D":
			b.WriteByte('=')
		case "2C":
			b.WriteByte(',')
		default:
			return "", fmt.Errorf("invalid username escape")
		}
		i += 2
	}
	return b.String(), nil
}
