// internal/client/tokens.go
package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// MemoryTokens keeps the token in memory only.
type MemoryTokens struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryTokens) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *MemoryTokens) SetToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokens) Clear() error { return m.SetToken("") }

// FileConfig is the CLI's YAML settings file.
type FileConfig struct {
	BaseURL     string `yaml:"base_url"`
	AccessToken string `yaml:"access_token,omitempty"`
}

// FileTokens stores the token in a YAML FileConfig at Path, rewriting the
// file on every change.
type FileTokens struct {
	Path string

	mu  sync.Mutex
	cfg FileConfig
}

// LoadFileTokens reads path. A missing file yields an empty config.
func LoadFileTokens(path string) (*FileTokens, error) {
	ft := &FileTokens{Path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ft, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &ft.cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return ft, nil
}

// Config returns a copy of the loaded settings.
func (f *FileTokens) Config() FileConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg
}

// SetBaseURL records the server address and saves the file.
func (f *FileTokens) SetBaseURL(u string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg.BaseURL = u
	return f.save()
}

func (f *FileTokens) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg.AccessToken
}

func (f *FileTokens) SetToken(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg.AccessToken = token
	return f.save()
}

func (f *FileTokens) Clear() error { return f.SetToken("") }

func (f *FileTokens) save() error {
	data, err := yaml.Marshal(f.cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0o600)
}
