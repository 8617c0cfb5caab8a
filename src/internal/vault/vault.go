// FILE: src/internal/vault/vault.go
package vault

import (
	"crypto/rand"
	"fmt"

	"pgmoneta-mcp/src/internal/core"

	"github.com/awnumar/memguard"
	"github.com/tink-crypto/tink-go/v2/aead/subtle"
	"golang.org/x/crypto/scrypt"
)

// Params holds the scrypt work factors used for key derivation
type Params struct {
	LogN int
	R    int
	P    int
}

// DefaultParams returns the recommended scrypt work factors
func DefaultParams() Params {
	return Params{
		LogN: core.ScryptLogN,
		R:    core.ScryptR,
		P:    core.ScryptP,
	}
}

// Vault encrypts short secrets under keys derived from a master key
type Vault struct {
	params Params
}

// New creates a vault with the given work factors
func New(params Params) *Vault {
	return &Vault{params: params}
}

// NewDefault creates a vault with the recommended work factors
func NewDefault() *Vault {
	return New(DefaultParams())
}

// DeriveKey derives a 32-byte AES key from the master key and salt.
// The caller owns the returned slice and must scrub it.
func (v *Vault) DeriveKey(masterKey, salt []byte) ([]byte, error) {
	key, err := scrypt.Key(masterKey, salt, 1<<v.params.LogN, v.params.R, v.params.P, core.DerivedKeyLen)
	if err != nil {
		return nil, fmt.Errorf("%w: key derivation failed: %w", core.ErrCrypto, err)
	}
	return key, nil
}

// Encrypt seals plaintext under a key derived from masterKey and a fresh salt.
// Every call draws a new salt and nonce.
func (v *Vault) Encrypt(plaintext, masterKey []byte) (*EncryptedSecret, error) {
	secret := &EncryptedSecret{}
	if _, err := rand.Read(secret.Salt[:]); err != nil {
		return nil, fmt.Errorf("%w: failed to generate salt: %w", core.ErrCrypto, err)
	}

	err := v.withDerivedKey(masterKey, secret.Salt[:], func(key []byte) error {
		aead, err := subtle.NewAESGCM(key)
		if err != nil {
			return fmt.Errorf("%w: cipher rejected derived key: %w", core.ErrCrypto, err)
		}

		// Output is nonce || ciphertext || tag
		sealed, err := aead.Encrypt(plaintext, nil)
		if err != nil {
			return fmt.Errorf("%w: encryption failed: %w", core.ErrCrypto, err)
		}
		if len(sealed) < core.NonceLen {
			return fmt.Errorf("%w: encryption produced short output", core.ErrCrypto)
		}

		copy(secret.Nonce[:], sealed[:core.NonceLen])
		secret.Ciphertext = sealed[core.NonceLen:]
		return nil
	})
	if err != nil {
		return nil, err
	}

	return secret, nil
}

// Decrypt opens a secret sealed by Encrypt.
// Wrong key and tampered data produce the same error.
func (v *Vault) Decrypt(secret *EncryptedSecret, masterKey []byte) ([]byte, error) {
	if secret == nil {
		return nil, fmt.Errorf("%w: no secret to decrypt", core.ErrCrypto)
	}

	var plaintext []byte
	err := v.withDerivedKey(masterKey, secret.Salt[:], func(key []byte) error {
		aead, err := subtle.NewAESGCM(key)
		if err != nil {
			return fmt.Errorf("%w: cipher rejected derived key: %w", core.ErrCrypto, err)
		}

		sealed := make([]byte, 0, core.NonceLen+len(secret.Ciphertext))
		sealed = append(sealed, secret.Nonce[:]...)
		sealed = append(sealed, secret.Ciphertext...)

		plaintext, err = aead.Decrypt(sealed, nil)
		if err != nil {
			return fmt.Errorf("%w: decryption failed", core.ErrCrypto)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return plaintext, nil
}

// EncryptToText encrypts and returns base64(nonce || salt || ciphertext)
func (v *Vault) EncryptToText(plaintext, masterKey []byte) (string, error) {
	secret, err := v.Encrypt(plaintext, masterKey)
	if err != nil {
		return "", err
	}
	return secret.Text(), nil
}

// DecryptText decodes a stored secret and decrypts it
func (v *Vault) DecryptText(text string, masterKey []byte) ([]byte, error) {
	secret, err := ParseSecretText(text)
	if err != nil {
		return nil, err
	}
	return v.Decrypt(secret, masterKey)
}

// withDerivedKey derives a key, runs fn, and scrubs the key on every exit path
func (v *Vault) withDerivedKey(masterKey, salt []byte, fn func(key []byte) error) error {
	key, err := v.DeriveKey(masterKey, salt)
	if err != nil {
		return err
	}
	return WithSecret(key, fn)
}

// WithSecret runs fn with buf and wipes buf afterwards, including on panic
func WithSecret(buf []byte, fn func([]byte) error) error {
	defer memguard.WipeBytes(buf)
	return fn(buf)
}

// Scrub wipes sensitive bytes in place
func Scrub(buf []byte) {
	memguard.WipeBytes(buf)
}
