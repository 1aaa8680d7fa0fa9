package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ConfigBackend abstracts where configuration values live. The daemon uses
// a flat JSON file; tests substitute a temporary one.
type ConfigBackend interface {
	GetString(key string) (string, bool)
	GetInt(key string) (int, bool)
	SetString(key, value string) error
	SetInt(key string, value int) error
	Delete(key string) error
}

// fileBackend stores values as a flat string map in a single JSON file.
type fileBackend struct {
	path   string
	values map[string]string
}

func newFileBackend(path string) *fileBackend {
	b := &fileBackend{path: path, values: map[string]string{}}
	b.load()
	return b
}

func (b *fileBackend) load() {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "[WARN] cannot read config file %s: %v\n", b.path, err)
		}
		return
	}
	if err := json.Unmarshal(data, &b.values); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] cannot parse config file %s: %v\n", b.path, err)
		b.values = map[string]string{}
	}
}

func (b *fileBackend) save() error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(b.values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(b.path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func (b *fileBackend) GetString(key string) (string, bool) {
	v, ok := b.values[key]
	return v, ok
}

func (b *fileBackend) GetInt(key string) (int, bool) {
	v, ok := b.values[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] config key %s is not an integer: %q\n", key, v)
		return 0, false
	}
	return n, true
}

func (b *fileBackend) SetString(key, value string) error {
	b.values[key] = value
	return b.save()
}

func (b *fileBackend) SetInt(key string, value int) error {
	b.values[key] = strconv.Itoa(value)
	return b.save()
}

func (b *fileBackend) Delete(key string) error {
	delete(b.values, key)
	return b.save()
}
