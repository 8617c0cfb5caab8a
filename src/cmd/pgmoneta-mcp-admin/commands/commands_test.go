// FILE: src/cmd/pgmoneta-mcp-admin/commands/commands_test.go
package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pgmoneta-mcp/src/internal/config"
	"pgmoneta-mcp/src/internal/core"
	"pgmoneta-mcp/src/internal/keystore"
	"pgmoneta-mcp/src/internal/vault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testTerminal struct {
	*terminal
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	keyPath string
	env     map[string]string
	prompts int
}

// newTestTerminal answers password prompts from answers in order
func newTestTerminal(t *testing.T, answers ...string) *testTerminal {
	t.Helper()

	tt := &testTerminal{
		stdout:  &bytes.Buffer{},
		stderr:  &bytes.Buffer{},
		keyPath: filepath.Join(t.TempDir(), "master.key"),
		env:     make(map[string]string),
	}
	tt.terminal = newTerminal(tt.stdout, tt.stderr)
	tt.vault = vault.New(vault.Params{LogN: 10, R: 8, P: 1})
	tt.getenv = func(k string) string { return tt.env[k] }
	tt.keyStore = func() (*keystore.Store, error) { return keystore.New(tt.keyPath), nil }
	tt.readPassword = func() ([]byte, error) {
		if tt.prompts >= len(answers) {
			return nil, errors.New("no input")
		}
		answer := answers[tt.prompts]
		tt.prompts++
		return []byte(answer), nil
	}
	return tt
}

func (tt *testTerminal) route(args ...string) error {
	return newRouter(tt.terminal).Route(append([]string{"pgmoneta-mcp-admin"}, args...))
}

func TestMasterKey_PromptsTwice(t *testing.T) {
	tt := newTestTerminal(t, "k3y", "k3y")

	require.NoError(t, tt.route("master-key"))
	assert.Equal(t, 2, tt.prompts)
	assert.Contains(t, tt.stdout.String(), tt.keyPath)

	key, err := keystore.New(tt.keyPath).Load()
	require.NoError(t, err)
	assert.Equal(t, []byte("k3y"), key)

	info, err := os.Stat(tt.keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestMasterKey_Mismatch(t *testing.T) {
	tt := newTestTerminal(t, "k3y", "other")

	err := tt.route("master-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passwords do not match")
	assert.NotContains(t, err.Error(), "k3y")

	_, statErr := os.Stat(tt.keyPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestMasterKey_FromEnvironment(t *testing.T) {
	tt := newTestTerminal(t)
	tt.env[EnvMasterKey] = "from-env"

	require.NoError(t, tt.route("master-key"))
	assert.Zero(t, tt.prompts)

	key, err := keystore.New(tt.keyPath).Load()
	require.NoError(t, err)
	assert.Equal(t, []byte("from-env"), key)
}

func TestMasterKey_ExplicitFile(t *testing.T) {
	tt := newTestTerminal(t, "k3y", "k3y")
	path := filepath.Join(t.TempDir(), "nested", "custom.key")

	require.NoError(t, tt.route("master-key", "-f", path))

	key, err := keystore.New(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []byte("k3y"), key)
}

func TestUserAdd(t *testing.T) {
	t.Run("WithPasswordFlag", func(t *testing.T) {
		tt := newTestTerminal(t)
		require.NoError(t, keystore.New(tt.keyPath).Save([]byte("master")))
		usersPath := filepath.Join(t.TempDir(), "users.toml")

		require.NoError(t, tt.route("user", "add", "-U", "alice", "-f", usersPath, "-p", "s3cr3t"))
		assert.Zero(t, tt.prompts)

		users, err := config.LoadUsers(usersPath)
		require.NoError(t, err)
		text, ok := users.Lookup("alice")
		require.True(t, ok)

		plain, err := tt.vault.DecryptText(text, []byte("master"))
		require.NoError(t, err)
		assert.Equal(t, []byte("s3cr3t"), plain)
	})

	t.Run("PromptsWhenPasswordMissing", func(t *testing.T) {
		tt := newTestTerminal(t, "pw", "pw")
		require.NoError(t, keystore.New(tt.keyPath).Save([]byte("master")))
		usersPath := filepath.Join(t.TempDir(), "users.toml")

		require.NoError(t, tt.route("user", "add", "--user", "bob", "--file", usersPath))
		assert.Equal(t, 2, tt.prompts)

		users, err := config.LoadUsers(usersPath)
		require.NoError(t, err)
		text, ok := users.Lookup("bob")
		require.True(t, ok)
		plain, err := tt.vault.DecryptText(text, []byte("master"))
		require.NoError(t, err)
		assert.Equal(t, []byte("pw"), plain)
	})

	t.Run("OverwritesExistingUser", func(t *testing.T) {
		tt := newTestTerminal(t)
		require.NoError(t, keystore.New(tt.keyPath).Save([]byte("master")))
		usersPath := filepath.Join(t.TempDir(), "users.toml")

		require.NoError(t, tt.route("user", "add", "-U", "alice", "-f", usersPath, "-p", "one"))
		require.NoError(t, tt.route("user", "add", "-U", "carol", "-f", usersPath, "-p", "two"))
		require.NoError(t, tt.route("user", "add", "-U", "alice", "-f", usersPath, "-p", "three"))

		users, err := config.LoadUsers(usersPath)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "carol"}, users.Names())

		text, _ := users.Lookup("alice")
		plain, err := tt.vault.DecryptText(text, []byte("master"))
		require.NoError(t, err)
		assert.Equal(t, []byte("three"), plain)
	})

	t.Run("MissingMasterKey", func(t *testing.T) {
		tt := newTestTerminal(t)
		usersPath := filepath.Join(t.TempDir(), "users.toml")

		err := tt.route("user", "add", "-U", "alice", "-f", usersPath, "-p", "s3cr3t")
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrNotFound)
		assert.Contains(t, err.Error(), "unable to load the master key")
		assert.NotContains(t, err.Error(), "s3cr3t")

		_, statErr := os.Stat(usersPath)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("FileWithoutAdmins", func(t *testing.T) {
		tt := newTestTerminal(t)
		require.NoError(t, keystore.New(tt.keyPath).Save([]byte("master")))
		usersPath := filepath.Join(t.TempDir(), "users.toml")
		require.NoError(t, os.WriteFile(usersPath, []byte("[other]\nx = \"y\"\n"), 0o600))

		err := tt.route("user", "add", "-U", "alice", "-f", usersPath, "-p", "s3cr3t")
		assert.ErrorIs(t, err, core.ErrConfig)
	})

	t.Run("RequiresUserAndFile", func(t *testing.T) {
		tt := newTestTerminal(t)
		err := tt.route("user", "add", "-U", "alice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--user and --file are required")
	})

	t.Run("PromptMismatch", func(t *testing.T) {
		tt := newTestTerminal(t, "a", "b")
		require.NoError(t, keystore.New(tt.keyPath).Save([]byte("master")))
		usersPath := filepath.Join(t.TempDir(), "users.toml")

		err := tt.route("user", "add", "-U", "alice", "-f", usersPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "passwords do not match")
	})
}

func TestUserList(t *testing.T) {
	tt := newTestTerminal(t)
	usersPath := filepath.Join(t.TempDir(), "users.toml")
	require.NoError(t, config.SaveUsers(usersPath, &config.Users{
		Admins: map[string]string{"zed": "x", "amy": "y"},
	}))

	require.NoError(t, tt.route("user", "ls", "-f", usersPath))
	assert.Equal(t, "amy\nzed\n", tt.stdout.String())
}

func TestConfInit(t *testing.T) {
	tt := newTestTerminal(t)
	path := filepath.Join(t.TempDir(), "conf", "pgmoneta-mcp.toml")

	require.NoError(t, tt.route("conf", "init", "-f", path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	err = tt.route("conf", "init", "-f", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, tt.route("conf", "init", "-f", path, "--force"))
}

func TestRouter(t *testing.T) {
	t.Run("Help", func(t *testing.T) {
		tt := newTestTerminal(t)
		require.NoError(t, tt.route("help"))
		for _, name := range []string{"master-key", "user", "conf", "version"} {
			assert.Contains(t, tt.stdout.String(), name)
		}
	})

	t.Run("CommandHelpFlag", func(t *testing.T) {
		tt := newTestTerminal(t)
		require.NoError(t, tt.route("user", "add", "--help"))
		assert.Contains(t, tt.stdout.String(), "User Command")
	})

	t.Run("Version", func(t *testing.T) {
		tt := newTestTerminal(t)
		require.NoError(t, tt.route("--version"))
		assert.Contains(t, tt.stdout.String(), "pgmoneta-mcp")
	})

	t.Run("UnknownCommand", func(t *testing.T) {
		tt := newTestTerminal(t)
		err := tt.route("frobnicate")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown command: frobnicate")
	})

	t.Run("NoCommand", func(t *testing.T) {
		tt := newTestTerminal(t)
		assert.Error(t, tt.route())
	})

	t.Run("UnknownUserAction", func(t *testing.T) {
		tt := newTestTerminal(t)
		assert.Error(t, tt.route("user", "remove"))
	})
}

func TestTLSCommand(t *testing.T) {
	tt := newTestTerminal(t)
	dir := t.TempDir()
	certFile := filepath.Join(dir, "mcp.crt")
	keyFile := filepath.Join(dir, "mcp.key")

	require.NoError(t, tt.route("tls", "--cn", "localhost", "--hosts", "localhost,127.0.0.1",
		"--cert-out", certFile, "--key-out", keyFile))
	assert.Contains(t, tt.stdout.String(), certFile)
	assert.FileExists(t, certFile)
	assert.FileExists(t, keyFile)

	err := tt.route("tls")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--cn")
}
