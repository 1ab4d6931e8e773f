package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPath returns the per-user settings file location,
// e.g. ~/.config/deskstream/settings.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "deskstream", "settings.json"), nil
}

// Store persists Settings as JSON at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings file. A missing or unreadable file is reported
// as an error; callers treat it as non-fatal and keep their defaults.
// Fields absent from the file keep the values already in base.
func (s *Store) Load(base Settings) (Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return base, fmt.Errorf("read settings: %w", err)
	}
	loaded := base
	if err := json.Unmarshal(data, &loaded); err != nil {
		return base, fmt.Errorf("parse settings %s: %w", s.path, err)
	}
	return loaded, nil
}

// Save writes the settings file, creating parent directories as needed.
func (s *Store) Save(settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
