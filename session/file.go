package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	xdgAppName  = "todo-app"
	sessionFile = "session.json"
)

// DefaultPath is ~/.config/todo-app/session.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName, sessionFile), nil
}

// FileKV keeps string values in one JSON object on disk. A file that does
// not decode is removed and treated as empty.
type FileKV struct {
	Path string
	mu   sync.Mutex
}

func NewFileKV(path string) *FileKV {
	return &FileKV{Path: path}
}

func (f *FileKV) read() map[string]string {
	values := map[string]string{}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return values
	}
	if err := json.Unmarshal(data, &values); err != nil {
		_ = os.Remove(f.Path)
		return map[string]string{}
	}
	return values
}

func (f *FileKV) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0600)
}

func (f *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.read()[key]
	return v, ok, nil
}

func (f *FileKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values := f.read()
	values[key] = value
	return f.write(values)
}

func (f *FileKV) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values := f.read()
	for _, k := range keys {
		delete(values, k)
	}
	if len(values) == 0 {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return f.write(values)
}
