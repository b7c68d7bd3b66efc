// Package config handles configuration file loading and parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Store is the flat key-value view of the configuration file. Nested TOML
// tables are addressed with dotted keys, e.g. [gc.warn] fg becomes "gc.warn.fg".
type Store interface {
	HasEntry(key string) bool
	GetString(key string) string
	GetInt(key string) (int, error)
}

// MapStore is a Store backed by a flattened map.
type MapStore struct {
	values map[string]any
}

// NewMapStore flattens values into a MapStore. Nested maps produce dotted keys.
func NewMapStore(values map[string]any) *MapStore {
	s := &MapStore{values: make(map[string]any)}
	flatten("", values, s.values)
	return s
}

// ParseStore parses TOML data into a MapStore.
func ParseStore(data []byte) (*MapStore, error) {
	raw := make(map[string]any)
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return NewMapStore(raw), nil
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// HasEntry reports whether key holds a value.
func (s *MapStore) HasEntry(key string) bool {
	_, ok := s.values[key]
	return ok
}

// GetString returns the value of key as a string. Arrays are joined with
// commas so list keys may be written either way. Missing keys return "".
func (s *MapStore) GetString(key string) string {
	v, ok := s.values[key]
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}

// GetInt returns the value of key as an int. Strings holding integers are
// accepted.
func (s *MapStore) GetInt(key string) (int, error) {
	v, ok := s.values[key]
	if !ok {
		return 0, fmt.Errorf("key %q not set", key)
	}
	switch val := v.(type) {
	case int64:
		return int(val), nil
	case int:
		return val, nil
	case float64:
		return int(val), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("key %q: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("key %q: %T is not an integer", key, v)
	}
}

// Keys returns every key with the given prefix, sorted.
func (s *MapStore) Keys(prefix string) []string {
	var keys []string
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// ConfigDir returns ~/.config/xpop (or $XDG_CONFIG_HOME/xpop).
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "xpop"), nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
