package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kantoor.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, 8090, config.Server.Port)
	assert.True(t, config.Browser.Headless)
	assert.NotEmpty(t, config.Browser.AllowedDomains)
	assert.Contains(t, config.Browser.AllowedDomains, "kvk.nl")
	assert.Equal(t, 10*time.Second, config.Browser.DefaultTimeout)
}

func TestLoadFromFiles_Merge(t *testing.T) {
	base := writeConfigFile(t, `
[server]
port = 9000
host = "0.0.0.0"

[security]
encryption_key = "base-secret"
`)
	override := writeConfigFile(t, `
[server]
port = 9001
`)

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	// Later file wins for port, earlier file's host survives
	assert.Equal(t, 9001, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, "base-secret", config.Security.EncryptionKey)
}

func TestLoadFromFiles_EnvOverride(t *testing.T) {
	path := writeConfigFile(t, `
[security]
encryption_key = "file-secret"
`)

	t.Setenv("KANTOOR_ENCRYPTION_KEY", "env-secret")
	t.Setenv("KANTOOR_PORT", "7777")

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", config.Security.EncryptionKey)
	assert.Equal(t, 7777, config.Server.Port)
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) { c.Security.EncryptionKey = "secret" },
		},
		{
			name:    "missing encryption key",
			mutate:  func(c *Config) {},
			wantErr: "encryption_key",
		},
		{
			name: "empty allow-list",
			mutate: func(c *Config) {
				c.Security.EncryptionKey = "secret"
				c.Browser.AllowedDomains = nil
			},
			wantErr: "allowed_domains",
		},
		{
			name: "bad port",
			mutate: func(c *Config) {
				c.Security.EncryptionKey = "secret"
				c.Server.Port = -1
			},
			wantErr: "port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
