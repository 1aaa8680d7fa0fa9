package config

import (
	"fmt"
	"sort"
	"strconv"
)

// Entry is one configuration key as shown by `atelier config show`.
type Entry struct {
	Key    string
	Value  string
	Secret bool
}

// ShowAll returns the effective configuration, one entry per known key.
// Secret values are masked.
func ShowAll() ([]Entry, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(keySpecs))
	for _, spec := range keySpecs {
		v := spec.extract(cfg)
		if spec.secret && v != "" {
			v = "********"
		}
		entries = append(entries, Entry{Key: spec.key, Value: v, Secret: spec.secret})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// SetKey writes one key to the config file. Secrets are refused here so
// they never land on disk; they belong in the environment.
func SetKey(key, value string) error {
	spec, ok := findSpec(key)
	if !ok {
		return fmt.Errorf("unknown config key %q (known keys: %v)", key, ValidKeys())
	}
	if spec.secret {
		return fmt.Errorf("%s is a secret; set it via the %s environment variable", key, spec.env)
	}
	b := newFileBackend(configFilePath())
	switch spec.typ {
	case kInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s expects an integer: %w", key, err)
		}
		return b.SetInt(key, n)
	default:
		return b.SetString(key, value)
	}
}

// UnsetKey removes one key from the config file, reverting it to its
// default or environment value.
func UnsetKey(key string) error {
	if _, ok := findSpec(key); !ok {
		return fmt.Errorf("unknown config key %q (known keys: %v)", key, ValidKeys())
	}
	b := newFileBackend(configFilePath())
	return b.Delete(key)
}

// ValidKeys lists every recognized configuration key, sorted.
func ValidKeys() []string {
	keys := make([]string, 0, len(keySpecs))
	for _, spec := range keySpecs {
		keys = append(keys, spec.key)
	}
	sort.Strings(keys)
	return keys
}

func findSpec(key string) (keySpec, bool) {
	for _, spec := range keySpecs {
		if spec.key == key {
			return spec, true
		}
	}
	return keySpec{}, false
}
