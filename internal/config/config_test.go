package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Server.BackendURL)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	require.Error(t, err)
}

func TestResolveFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
backend-url = "http://api.example.com"
socket-url = "ws://rt.example.com/ws"
timeout = 3

[arena]
language = "Java"
match-seconds = 600
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	file, err := LoadConfig(path)
	require.NoError(t, err)

	t.Setenv(EnvSocketURL, "ws://override.example.com/ws")
	t.Setenv(EnvBackendURL, "")

	s, err := Resolve(file)
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com", s.BackendURL)
	assert.Equal(t, "ws://override.example.com/ws", s.SocketURL)
	assert.Equal(t, DefaultAuthURL, s.AuthURL)
	assert.Equal(t, "Java", s.Language)
	assert.Equal(t, 600, s.MatchSeconds)
	assert.Equal(t, 3*time.Second, s.Timeout)
}

func TestResolveRejectsBadURL(t *testing.T) {
	bad := "not a url"
	_, err := Resolve(FileConfig{Server: ServerConfig{BackendURL: &bad}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend-url")
}

func TestLoadEnvMissingFile(t *testing.T) {
	require.NoError(t, LoadEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestLoadEnvSetsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(EnvLanguage+"=C++\n"), 0o644))
	t.Setenv(EnvLanguage, "")
	require.NoError(t, os.Unsetenv(EnvLanguage))

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "C++", os.Getenv(EnvLanguage))
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")
	assert.Equal(t, filepath.Join("/cfg", "codeduel", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/data", "codeduel", "codeduel.db"), DefaultDBPath())
	assert.Equal(t, filepath.Join("/state", "codeduel", "codeduel.log"), DefaultLogPath())
}
