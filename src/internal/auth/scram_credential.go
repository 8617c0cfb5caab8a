// FILE: src/internal/auth/scram_credential.go
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// DefaultIterations is the PostgreSQL default for SCRAM-SHA-256 verifiers
const DefaultIterations = 4096

// Credential stores SCRAM authentication data
type Credential struct {
	Username   string
	Salt       []byte // 16+ bytes
	Iterations int
	StoredKey  []byte // SHA256(ClientKey)
	ServerKey  []byte // For server auth
}

// DeriveCredential creates SCRAM credential from password
func DeriveCredential(username, password string, salt []byte, iterations int) (*Credential, error) {
	if len(salt) < 16 {
		return nil, fmt.Errorf("salt must be at least 16 bytes")
	}
	if iterations < 1 {
		return nil, fmt.Errorf("iteration count must be positive")
	}

	pw := []byte(password)
	defer wipe(pw)
	saltedPassword := saltPassword(pw, salt, iterations)
	defer wipe(saltedPassword)

	clientKey := computeHMAC(saltedPassword, []byte("Client Key"))
	defer wipe(clientKey)
	serverKey := computeHMAC(saltedPassword, []byte("Server Key"))
	storedKey := sha256.Sum256(clientKey)

	return &Credential{
		Username:   username,
		Salt:       salt,
		Iterations: iterations,
		StoredKey:  storedKey[:],
		ServerKey:  serverKey,
	}, nil
}

// saltPassword is Hi(password, salt, i) from RFC 5802
func saltPassword(password, salt []byte, iterations int) []byte {
	return pbkdf2.Key(password, salt, iterations, sha256.Size, sha256.New)
}

func computeHMAC(key, message []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}

func xorBytes(a, b []byte) []byte {
	if len(a) != len(b) {
		panic("xor length mismatch")
	}
	result := make([]byte, len(a))
	for i := range a {
		result[i] = a[i] ^ b[i]
	}
	return result
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
