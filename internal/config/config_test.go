package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ZEITLOG_DATA", "/tmp/zl")
	t.Setenv("ZEITLOG_ADDR", ":9999")
	t.Setenv("ZEITLOG_SERVER", "https://zeit.example")
	t.Setenv("ZEITLOG_USER", "daniel")

	cfg := Load()
	assert.Equal(t, "/tmp/zl", cfg.DataDir)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "https://zeit.example", cfg.ServerURL)
	assert.Equal(t, "daniel", cfg.User)
	assert.Equal(t, filepath.Join("/tmp/zl", "zeitlog.db"), cfg.DBPath())
	assert.Equal(t, filepath.Join("/tmp/zl", "sessions"), cfg.SessionsDir())
}

func TestPreferences_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	// Missing file selects local operation.
	p := LoadPreferences(dir)
	assert.False(t, p.UseNetwork)

	require.NoError(t, SavePreferences(dir, Preferences{UseNetwork: true}))
	p = LoadPreferences(dir)
	assert.True(t, p.UseNetwork)
}

func TestPreferences_CorruptFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, prefsFile), []byte("{oops"), 0644))

	p := LoadPreferences(dir)
	assert.False(t, p.UseNetwork)
}
