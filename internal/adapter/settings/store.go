// Package settings persists provider API keys in a JSON file.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// FileStore implements domain.SettingsStore on top of an afero filesystem.
// The file holds a flat JSON object mapping provider names to keys. Keys from
// defaults are returned when the file has none for a provider.
type FileStore struct {
	fs       afero.Fs
	path     string
	defaults map[string]string
	mu       sync.Mutex
}

// NewFileStore creates a store at path on fs. defaults may be nil.
func NewFileStore(fs afero.Fs, path string, defaults map[string]string) *FileStore {
	return &FileStore{fs: fs, path: path, defaults: defaults}
}

// NewOSFileStore creates a store on the real filesystem.
func NewOSFileStore(path string, defaults map[string]string) *FileStore {
	return NewFileStore(afero.NewOsFs(), path, defaults)
}

// GetAPIKey returns the stored key for provider, or "" when there is none.
func (s *FileStore) GetAPIKey(provider string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", err
	}
	if v := values[provider]; v != "" {
		return v, nil
	}
	return s.defaults[provider], nil
}

// SaveAPIKey stores key for provider, creating the file and its directory as needed.
func (s *FileStore) SaveAPIKey(provider, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[provider] = key

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Clear deletes the settings file. Environment defaults still apply afterwards.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove settings: %w", err)
	}
	return nil
}

func (s *FileStore) read() (map[string]string, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return values, nil
}
