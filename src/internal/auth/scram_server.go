// FILE: src/internal/auth/scram_server.go
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

const handshakeTimeout = 60 * time.Second

// ScramServer verifies SCRAM-SHA-256 clients against stored credentials.
// Used by the loopback daemon that backs protocol tests.
type ScramServer struct {
	credentials map[string]*Credential
	handshakes  map[string]*HandshakeState
	mu          sync.RWMutex

	Iterations int
}

// HandshakeState tracks ongoing authentication
type HandshakeState struct {
	ClientFirst *ClientFirst
	ServerFirst *ServerFirst
	Credential  *Credential
	CreatedAt   time.Time
}

// NewScramServer creates SCRAM server
func NewScramServer() *ScramServer {
	return &ScramServer{
		credentials: make(map[string]*Credential),
		handshakes:  make(map[string]*HandshakeState),
		Iterations:  DefaultIterations,
	}
}

// AddCredential registers user credential
func (s *ScramServer) AddCredential(cred *Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[cred.Username] = cred
}

// RegisterUser derives and registers a credential for a plaintext password
func (s *ScramServer) RegisterUser(username, password string) error {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("salt generation failed: %w", err)
	}

	cred, err := DeriveCredential(username, password, salt, s.Iterations)
	if err != nil {
		return err
	}

	s.AddCredential(cred)
	return nil
}

// HandleClientFirst processes initial auth request and returns server-first-message
func (s *ScramServer) HandleClientFirst(data string) (string, error) {
	msg, err := ParseClientFirst(data)
	if err != nil {
		return "", fmt.Errorf("invalid client-first message: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cred, exists := s.credentials[msg.Username]
	if !exists {
		return "", fmt.Errorf("invalid credentials")
	}

	serverFirst := &ServerFirst{
		FullNonce:  msg.ClientNonce + generateNonce(),
		Salt:       base64.StdEncoding.EncodeToString(cred.Salt),
		Iterations: cred.Iterations,
	}

	s.handshakes[serverFirst.FullNonce] = &HandshakeState{
		ClientFirst: msg,
		ServerFirst: serverFirst,
		Credential:  cred,
		CreatedAt:   time.Now(),
	}

	s.cleanupHandshakes()

	return serverFirst.Marshal(), nil
}

// HandleClientFinal verifies client proof and returns server-final-message
func (s *ScramServer) HandleClientFinal(data string) (string, error) {
	msg, err := ParseClientFinal(data)
	if err != nil {
		return "", fmt.Errorf("invalid client-final message: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, exists := s.handshakes[msg.FullNonce]
	if !exists {
		return "", fmt.Errorf("invalid nonce or expired handshake")
	}
	defer delete(s.handshakes, msg.FullNonce)

	if time.Since(state.CreatedAt) > handshakeTimeout {
		return "", fmt.Errorf("handshake timeout")
	}
	if msg.ChannelBinding != channelBinding {
		return "", fmt.Errorf("unsupported channel binding")
	}

	clientProof, err := base64.StdEncoding.DecodeString(msg.ClientProof)
	if err != nil || len(clientProof) != sha256.Size {
		return "", fmt.Errorf("invalid proof encoding")
	}

	authMessage := state.ClientFirst.Bare() + "," + state.ServerFirst.Marshal() + "," + msg.WithoutProof()

	clientSignature := computeHMAC(state.Credential.StoredKey, []byte(authMessage))
	clientKey := xorBytes(clientProof, clientSignature)

	computedStoredKey := sha256.Sum256(clientKey)
	if subtle.ConstantTimeCompare(computedStoredKey[:], state.Credential.StoredKey) != 1 {
		return "", fmt.Errorf("authentication failed")
	}

	serverSignature := computeHMAC(state.Credential.ServerKey, []byte(authMessage))
	final := &ServerFinal{ServerSignature: base64.StdEncoding.EncodeToString(serverSignature)}
	return final.Marshal(), nil
}

func (s *ScramServer) cleanupHandshakes() {
	cutoff := time.Now().Add(-handshakeTimeout)
	for nonce, state := range s.handshakes {
		if state.CreatedAt.Before(cutoff) {
			delete(s.handshakes, nonce)
		}
	}
}

func generateNonce() string {
	b := make([]byte, 18)
	rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)
}
