// FILE: src/internal/keystore/keystore_test.go
package keystore

import (
	"os"
	"path/filepath"
	"testing"

	"pgmoneta-mcp/src/internal/core"
	"pgmoneta-mcp/src/internal/vault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "master.key")
	store := New(path)

	require.NoError(t, store.Save([]byte("correct horse battery staple")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, vault.EncodeText([]byte("correct horse battery staple")), string(raw))

	key, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "correct horse battery staple", string(key))
}

func TestStore_SaveReplaces(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "master.key"))
	require.NoError(t, store.Save([]byte("first")))
	require.NoError(t, store.Save([]byte("second")))

	key, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", string(key))
}

func TestStore_LoadErrors(t *testing.T) {
	t.Run("Missing", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "absent.key")).Load()
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("EmptyPath", func(t *testing.T) {
		_, err := New("").Load()
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("Directory", func(t *testing.T) {
		_, err := New(t.TempDir()).Load()
		assert.ErrorIs(t, err, core.ErrIO)
	})

	t.Run("Corrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "master.key")
		require.NoError(t, os.WriteFile(path, []byte("%%%not-base64%%%"), 0o600))
		_, err := New(path).Load()
		assert.ErrorIs(t, err, core.ErrConfig)
		assert.NotContains(t, err.Error(), "not-base64")
	})

	t.Run("TrailingNewline", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "master.key")
		require.NoError(t, os.WriteFile(path, []byte(vault.EncodeText([]byte("k"))+"\n"), 0o600))
		key, err := New(path).Load()
		require.NoError(t, err)
		assert.Equal(t, "k", string(key))
	})
}

func TestStore_SaveEmpty(t *testing.T) {
	err := New(filepath.Join(t.TempDir(), "master.key")).Save(nil)
	assert.ErrorIs(t, err, core.ErrConfig)
}

func TestDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".pgmoneta-mcp", "master.key"), path)

	store, err := NewDefault()
	require.NoError(t, err)
	assert.Equal(t, path, store.Path())
}
