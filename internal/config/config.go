// Package config loads runtime configuration from environment variables
// and persists the small set of user preferences that must survive
// restarts, most importantly the transport-mode flag.
package config

import (
	"os"
	"path/filepath"
)

// Config holds all runtime configuration. Values come from environment
// variables, falling back to defaults for any unset value.
type Config struct {
	// DataDir holds the JSON documents, the local database, session
	// records and preferences.
	DataDir string
	// Addr is the listen address of the authoritative server.
	Addr string
	// ServerURL is the base URL the client's networked mode talks to.
	ServerURL string
	// User is the single authorized operator.
	User string
	// PasswordHash is the bcrypt hash checked on login.
	PasswordHash string
	// SessionSecret signs session cookies.
	SessionSecret string
	// StaticDir, when set and existing, is served as the web UI.
	StaticDir string
}

// DefaultConfig returns a Config with sensible defaults. The data
// directory defaults to ~/.zeitlog.
func DefaultConfig() Config {
	dataDir := ".zeitlog"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".zeitlog")
	}
	return Config{
		DataDir:   dataDir,
		Addr:      ":3000",
		ServerURL: "http://localhost:3000",
		User:      "admin",
	}
}

// Load reads configuration from environment variables, falling back to
// defaults for any unset values.
func Load() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("ZEITLOG_DATA"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("ZEITLOG_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("ZEITLOG_SERVER"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("ZEITLOG_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("ZEITLOG_PASSWORD_HASH"); v != "" {
		cfg.PasswordHash = v
	}
	if v := os.Getenv("ZEITLOG_SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("ZEITLOG_STATIC"); v != "" {
		cfg.StaticDir = v
	}
	return cfg
}

// DBPath returns the location of the local offline database.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "zeitlog.db")
}

// SessionsDir returns the directory holding server-side session records.
func (c Config) SessionsDir() string {
	return filepath.Join(c.DataDir, "sessions")
}
