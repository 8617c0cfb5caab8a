// FILE: src/internal/auth/scram_client.go
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Mechanism is the SASL mechanism name sent to the daemon
const Mechanism = "SCRAM-SHA-256"

const clientNonceLen = 18

// Upper bound on the server-chosen iteration count
const maxIterations = 1 << 20

// ErrSignatureMismatch reports a server that failed to prove knowledge of the credential
var ErrSignatureMismatch = errors.New("server signature mismatch")

// ScramClient handles SCRAM client-side authentication.
// One instance drives exactly one conversation.
type ScramClient struct {
	Username string
	password []byte // caller-owned, never copied

	// Handshake state
	clientFirst *ClientFirst
	authMessage string
	serverKey   []byte
}

// NewScramClient creates SCRAM client. The caller retains ownership of password
// and is responsible for scrubbing it once the conversation ends.
func NewScramClient(username string, password []byte) *ScramClient {
	return &ScramClient{
		Username: username,
		password: password,
	}
}

// ClientFirst generates the client-first-message
func (c *ScramClient) ClientFirst() (string, error) {
	nonce := make([]byte, clientNonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	c.clientFirst = &ClientFirst{
		Username:    c.Username,
		ClientNonce: base64.StdEncoding.EncodeToString(nonce),
	}
	return c.clientFirst.Marshal(), nil
}

// HandleServerFirst processes the server challenge and returns the client-final-message
func (c *ScramClient) HandleServerFirst(data string) (string, error) {
	if c.clientFirst == nil {
		return "", fmt.Errorf("invalid handshake state")
	}

	msg, err := ParseServerFirst(data)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(msg.FullNonce, c.clientFirst.ClientNonce) ||
		len(msg.FullNonce) == len(c.clientFirst.ClientNonce) {
		return "", fmt.Errorf("server nonce does not extend client nonce")
	}

	if msg.Iterations > maxIterations {
		return "", fmt.Errorf("iteration count %d exceeds limit", msg.Iterations)
	}

	salt, err := base64.StdEncoding.DecodeString(msg.Salt)
	if err != nil {
		return "", fmt.Errorf("invalid salt encoding: %w", err)
	}

	saltedPassword := saltPassword(c.password, salt, msg.Iterations)
	defer wipe(saltedPassword)

	clientKey := computeHMAC(saltedPassword, []byte("Client Key"))
	defer wipe(clientKey)
	storedKey := sha256.Sum256(clientKey)

	final := &ClientFinal{
		ChannelBinding: channelBinding,
		FullNonce:      msg.FullNonce,
	}
	c.authMessage = c.clientFirst.Bare() + "," + msg.Marshal() + "," + final.WithoutProof()

	clientSignature := computeHMAC(storedKey[:], []byte(c.authMessage))
	clientProof := xorBytes(clientKey, clientSignature)
	final.ClientProof = base64.StdEncoding.EncodeToString(clientProof)

	// Store server key for verification
	c.serverKey = computeHMAC(saltedPassword, []byte("Server Key"))

	return final.Marshal(), nil
}

// VerifyServerFinal validates server signature
func (c *ScramClient) VerifyServerFinal(data string) error {
	if c.authMessage == "" || c.serverKey == nil {
		return fmt.Errorf("invalid handshake state")
	}
	defer func() {
		wipe(c.serverKey)
		c.serverKey = nil
	}()

	msg, err := ParseServerFinal(data)
	if err != nil {
		return err
	}
	if msg.Error != "" {
		return fmt.Errorf("server rejected authentication: %s", msg.Error)
	}

	expectedSig := computeHMAC(c.serverKey, []byte(c.authMessage))

	receivedSig, err := base64.StdEncoding.DecodeString(msg.ServerSignature)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}

	if !hmac.Equal(expectedSig, receivedSig) {
		return ErrSignatureMismatch
	}

	return nil
}
