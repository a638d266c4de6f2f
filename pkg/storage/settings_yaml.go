package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"focusflow/pkg/database"
)

const settingsFileName = "settings.yaml"

// YAMLSettingsStore keeps the settings in a YAML file. Keys missing from
// the file fall back to the defaults.
type YAMLSettingsStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewYAMLSettingsStore creates a store backed by path
func NewYAMLSettingsStore(path string) *YAMLSettingsStore {
	return &YAMLSettingsStore{path: path, now: time.Now}
}

// DefaultSettingsPath returns settings.yaml in the user config directory
func DefaultSettingsPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

// Path returns the file the store reads and writes
func (s *YAMLSettingsStore) Path() string {
	return s.path
}

// Get reads the settings file.
// If the file does not exist, default settings are returned.
func (s *YAMLSettingsStore) Get(ctx context.Context) (database.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Set merges patch into the stored settings and rewrites the file
func (s *YAMLSettingsStore) Set(ctx context.Context, patch database.SettingsPatch) (database.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load()
	if err != nil {
		return database.Settings{}, err
	}
	next := patch.Apply(current)
	if err := next.Validate(); err != nil {
		return database.Settings{}, err
	}
	next.UpdatedAt = s.now()
	if err := s.save(next); err != nil {
		return database.Settings{}, err
	}
	return next, nil
}

// ResetToDefaults overwrites the file with the default settings
func (s *YAMLSettingsStore) ResetToDefaults(ctx context.Context) (database.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := database.DefaultSettings()
	settings.UpdatedAt = s.now()
	if err := s.save(settings); err != nil {
		return database.Settings{}, err
	}
	return settings, nil
}

func (s *YAMLSettingsStore) load() (database.Settings, error) {
	settings := database.DefaultSettings()
	rawData, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w: %v", database.ErrStoreUnavailable, err)
	}

	var fileData database.SettingsPatch
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w: %v", database.ErrInvalidSettings, err)
	}

	settings = fileData.Apply(settings)
	if info, err := os.Stat(s.path); err == nil {
		settings.UpdatedAt = info.ModTime()
	}
	return settings, nil
}

func (s *YAMLSettingsStore) save(settings database.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w: %v", database.ErrStoreUnavailable, err)
	}

	serialized, err := yaml.Marshal(database.PatchFrom(settings))
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w: %v", database.ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace settings file: %w: %v", database.ErrStoreUnavailable, err)
	}
	return nil
}
