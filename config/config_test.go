package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// GIVEN: No config file at all
	cfg, err := Load("")

	// THEN: The built-in defaults apply
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Storage.Dir)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileMergesOverDefaults(t *testing.T) {
	// GIVEN: A file setting only some fields
	path := filepath.Join(t.TempDir(), "staffdesk.toml")
	body := `
[server]
port = 3000

[logging]
level = "debug"
file = "/var/log/staffdesk/server.log"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	// WHEN: Loading
	cfg, err := Load(path)

	// THEN: File values win, untouched fields keep their defaults
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/var/log/staffdesk/server.log", cfg.Logging.File)
	assert.Equal(t, 10, cfg.Logging.MaxSizeMB)
	assert.Equal(t, 5, cfg.Logging.MaxFiles)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staffdesk.toml")

	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 0\n"), 0o644))
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	require.NoError(t, os.WriteFile(path, []byte("[logging]\nlevel = \"loud\"\n"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
