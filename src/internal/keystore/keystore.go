// FILE: src/internal/keystore/keystore.go
package keystore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"pgmoneta-mcp/src/internal/core"
	"pgmoneta-mcp/src/internal/vault"
)

// Store persists the single master key protecting every stored admin password.
// Replacing the key invalidates all previously encrypted credentials.
type Store struct {
	path string
}

// New creates a store backed by an explicit file path
func New(path string) *Store {
	return &Store{path: path}
}

// NewDefault creates a store at ~/.pgmoneta-mcp/master.key
func NewDefault() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return New(path), nil
}

// DefaultPath resolves the per-user master key location
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", fmt.Errorf("%w: unable to find home path: %v", core.ErrNotFound, err)
	}
	return filepath.Join(home, core.MasterKeyPath), nil
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Load reads and decodes the master key. The caller must scrub the result.
func (s *Store) Load() ([]byte, error) {
	if s.path == "" {
		return nil, fmt.Errorf("%w: master key path not set", core.ErrNotFound)
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: master key file %s: %w", core.ErrNotFound, s.path, err)
		}
		return nil, fmt.Errorf("%w: failed to read master key file %s: %w", core.ErrIO, s.path, err)
	}
	defer vault.Scrub(raw)

	key, err := vault.DecodeText(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: master key file %s is corrupt", core.ErrConfig, s.path)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: master key file %s is empty", core.ErrConfig, s.path)
	}

	return key, nil
}

// Save encodes the passphrase and replaces the stored master key
func (s *Store) Save(passphrase []byte) error {
	if len(passphrase) == 0 {
		return fmt.Errorf("%w: master key cannot be empty", core.ErrConfig)
	}
	if s.path == "" {
		return fmt.Errorf("%w: master key path not set", core.ErrNotFound)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%w: failed to create key directory: %w", core.ErrIO, err)
	}

	encoded := []byte(vault.EncodeText(passphrase))
	defer vault.Scrub(encoded)

	if err := os.WriteFile(s.path, encoded, 0o600); err != nil {
		return fmt.Errorf("%w: failed to write master key file %s: %w", core.ErrIO, s.path, err)
	}
	return nil
}
