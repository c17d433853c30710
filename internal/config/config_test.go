package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phuonglab/marionette-firmware/internal/msg"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "service:\n  name: bench-rig\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bench-rig", cfg.Service.Name)
	assert.Equal(t, ":7788", cfg.Service.Listen)
	assert.Equal(t, msg.ScopeLine, cfg.Output.GateScope)
	assert.True(t, cfg.Modules.GPIO.Enabled)
	assert.True(t, cfg.Modules.DAC.Enabled)
	assert.Equal(t, 1024, cfg.Session.MaxLineLength)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
service:
  listen: ":9000"
output:
  gate_scope: transaction
modules:
  dac:
    enabled: false
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Service.Listen)
	assert.Equal(t, msg.ScopeTransaction, cfg.Output.GateScope)
	assert.False(t, cfg.Modules.DAC.Enabled)
	assert.True(t, cfg.Modules.GPIO.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("MARIONETTE_LISTEN", ":7001")
	path := writeConfig(t, "service:\n  listen: \"${MARIONETTE_LISTEN}\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.Service.Listen)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty listen", func(c *Config) { c.Service.Listen = "" }, "service.listen"},
		{"bad gate scope", func(c *Config) { c.Output.GateScope = "both" }, "gate_scope"},
		{"bad log level", func(c *Config) { c.Log.Level = "LOUD" }, "log.level"},
		{"audit without path", func(c *Config) { c.Audit.Path = "" }, "audit.path"},
		{"api without listen", func(c *Config) { c.API.Listen = "" }, "api.listen"},
		{"zero line length", func(c *Config) { c.Session.MaxLineLength = 0 }, "max_line_length"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestChecksumRoundTrip(t *testing.T) {
	path := writeConfig(t, "service:\n  name: rig\n")

	hash, err := WriteChecksum(path)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	require.NoError(t, VerifyChecksum(path))

	// Tamper and verify again.
	require.NoError(t, os.WriteFile(path, []byte("service:\n  name: evil\n"), 0644))
	err = VerifyChecksum(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hash mismatch")
}

func TestVerifyChecksumMissing(t *testing.T) {
	path := writeConfig(t, "service: {}\n")
	err := VerifyChecksum(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChecksumMissing)
}

func TestVerifyChecksumMismatchIsNotMissing(t *testing.T) {
	path := writeConfig(t, "service:\n  name: rig\n")
	_, err := WriteChecksum(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("service:\n  name: evil\n"), 0644))

	err = VerifyChecksum(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrChecksumMissing)
}
