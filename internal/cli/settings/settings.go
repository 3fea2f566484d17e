// Package settings stores ragctl preferences in a TOML file
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultServerURL      = "http://localhost:7860"
	DefaultTimeoutSeconds = 120
)

// Settings is the persisted CLI state. SessionID is the session the server
// returned on the last upload; the server never remembers it for the caller.
type Settings struct {
	ServerURL      string `toml:"server_url"`
	SessionID      string `toml:"session_id,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

func Defaults() Settings {
	return Settings{
		ServerURL:      DefaultServerURL,
		TimeoutSeconds: DefaultTimeoutSeconds,
	}
}

// DefaultPath returns the config file under the user config directory
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "ragctl", "config.toml"), nil
}

// Load reads settings from path. A missing file yields the defaults and
// unset fields keep their default values.
func Load(path string) (Settings, error) {
	s := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read settings: %w", err)
	}

	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}

	if s.ServerURL == "" {
		s.ServerURL = DefaultServerURL
	}
	if s.TimeoutSeconds <= 0 {
		s.TimeoutSeconds = DefaultTimeoutSeconds
	}
	return s, nil
}

// Save writes settings to path, creating the directory when needed
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
