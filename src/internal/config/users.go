// FILE: src/internal/config/users.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"pgmoneta-mcp/src/internal/core"

	"github.com/BurntSushi/toml"
)

const adminsTable = "admins"

// Users maps admin usernames to base64(nonce‖salt‖ciphertext) secrets.
// The running server only reads it; the admin tool rewrites it whole.
type Users struct {
	Admins map[string]string `toml:"admins"`
}

// LoadUsers reads the users document at path
func LoadUsers(path string) (*Users, error) {
	users := &Users{}
	md, err := toml.DecodeFile(path, users)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: users file %s", core.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: failed to parse users file %s: %w", core.ErrConfig, path, err)
	}
	if !md.IsDefined(adminsTable) {
		return nil, fmt.Errorf("%w: users file %s has no [%s] table", core.ErrConfig, path, adminsTable)
	}
	if users.Admins == nil {
		users.Admins = make(map[string]string)
	}
	return users, nil
}

// Lookup returns the stored secret text for username
func (u *Users) Lookup(username string) (string, bool) {
	if u == nil {
		return "", false
	}
	secret, ok := u.Admins[username]
	return secret, ok
}

// Names returns the configured admin usernames in sorted order
func (u *Users) Names() []string {
	if u == nil {
		return nil
	}
	names := make([]string, 0, len(u.Admins))
	for name := range u.Admins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetUser inserts or replaces one admin entry and rewrites the document.
// A missing file is created; an existing file without an admins table is
// rejected rather than overwritten.
func SetUser(path, username, secret string) error {
	if username == "" {
		return fmt.Errorf("%w: username is empty", core.ErrConfig)
	}

	users, err := LoadUsers(path)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrNotFound):
		users = &Users{Admins: make(map[string]string)}
	default:
		return err
	}

	users.Admins[username] = secret
	return SaveUsers(path, users)
}

// SaveUsers writes users to path via a temporary file and rename, mode 0600
func SaveUsers(path string, users *Users) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(users); err != nil {
		return fmt.Errorf("%w: failed to encode users: %w", core.ErrConfig, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("%w: failed to create %s: %w", core.ErrIO, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".users-*.toml")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %w", core.ErrIO, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to set permissions: %w", core.ErrIO, err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to write users: %w", core.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to sync users: %w", core.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close users: %w", core.ErrIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: failed to replace %s: %w", core.ErrIO, path, err)
	}
	return nil
}
