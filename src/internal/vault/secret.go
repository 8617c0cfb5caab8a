// FILE: src/internal/vault/secret.go
package vault

import (
	"encoding/base64"
	"fmt"

	"pgmoneta-mcp/src/internal/core"
)

// EncryptedSecret is the stored form of an admin password.
// Serialized as nonce || salt || ciphertext, where ciphertext carries the GCM tag.
type EncryptedSecret struct {
	Nonce      [core.NonceLen]byte
	Salt       [core.SaltLen]byte
	Ciphertext []byte
}

// Bytes returns the serialized secret
func (s *EncryptedSecret) Bytes() []byte {
	out := make([]byte, 0, core.NonceLen+core.SaltLen+len(s.Ciphertext))
	out = append(out, s.Nonce[:]...)
	out = append(out, s.Salt[:]...)
	out = append(out, s.Ciphertext...)
	return out
}

// Text returns the base64 form stored in the users file
func (s *EncryptedSecret) Text() string {
	return EncodeText(s.Bytes())
}

// ParseSecret splits a serialized secret into its parts
func ParseSecret(b []byte) (*EncryptedSecret, error) {
	if len(b) < core.NonceLen+core.SaltLen {
		return nil, fmt.Errorf("%w: secret too short: %d bytes, need at least %d",
			core.ErrDecode, len(b), core.NonceLen+core.SaltLen)
	}

	s := &EncryptedSecret{}
	copy(s.Nonce[:], b[:core.NonceLen])
	copy(s.Salt[:], b[core.NonceLen:core.NonceLen+core.SaltLen])
	s.Ciphertext = append([]byte(nil), b[core.NonceLen+core.SaltLen:]...)
	return s, nil
}

// ParseSecretText decodes the base64 form of a secret
func ParseSecretText(text string) (*EncryptedSecret, error) {
	b, err := DecodeText(text)
	if err != nil {
		return nil, err
	}
	return ParseSecret(b)
}

// EncodeText encodes bytes as padded standard base64
func EncodeText(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeText decodes padded standard base64
func DecodeText(text string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %w", core.ErrDecode, err)
	}
	return b, nil
}
