// Package localstore holds the identity scopes of the terminal client: a
// YAML file for remembered logins and process memory for the session.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/sinergy/sinergy-web/internal/core/domain"
)

const fileName = "identity.yaml"

// DefaultDir is the per-user directory holding the remembered identity.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, "sinergy"), nil
}

// FileScope persists scope values as YAML. The file is readable by its owner only.
type FileScope struct {
	path string
	mu   sync.Mutex
}

// NewFileScope stores the scope in dir/identity.yaml.
func NewFileScope(dir string) *FileScope {
	return &FileScope{path: filepath.Join(dir, fileName)}
}

// Path returns the backing file.
func (s *FileScope) Path() string { return s.path }

func (s *FileScope) Read(_ context.Context) (domain.ScopeValues, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.ScopeValues{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	values := domain.ScopeValues{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return values, nil
}

func (s *FileScope) Write(_ context.Context, values domain.ScopeValues) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(map[string]string(values))
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(s.path), err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func (s *FileScope) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", s.path, err)
	}
	return nil
}

// MemoryScope lives as long as the process.
type MemoryScope struct {
	mu     sync.Mutex
	values domain.ScopeValues
}

func NewMemoryScope() *MemoryScope {
	return &MemoryScope{}
}

func (s *MemoryScope) Read(_ context.Context) (domain.ScopeValues, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyValues(s.values), nil
}

func (s *MemoryScope) Write(_ context.Context, values domain.ScopeValues) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = copyValues(values)
	return nil
}

func (s *MemoryScope) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = nil
	return nil
}

func copyValues(v domain.ScopeValues) domain.ScopeValues {
	out := make(domain.ScopeValues, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
