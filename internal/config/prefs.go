package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const prefsFile = "preferences.json"

// Preferences are the client-side settings that persist across restarts.
// An unreadable or missing file yields the zero value, which selects local
// operation; the transport adapter only leaves local mode on explicit user
// action.
type Preferences struct {
	// UseNetwork selects the networked backend. Cleared automatically and
	// persisted when a network call fails, so a reload keeps running
	// locally until the user switches back.
	UseNetwork bool `json:"useNetwork"`
}

// LoadPreferences reads the preferences document under dir. Corrupt or
// missing documents are treated as defaults, never as errors.
func LoadPreferences(dir string) Preferences {
	var p Preferences
	raw, err := os.ReadFile(filepath.Join(dir, prefsFile))
	if err != nil {
		return p
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Preferences{}
	}
	return p
}

// SavePreferences writes the preferences document under dir, creating the
// directory as needed.
func SavePreferences(dir string, p Preferences) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	path := filepath.Join(dir, prefsFile)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	return nil
}
