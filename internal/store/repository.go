package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	BackendBbolt  = "bbolt"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// PreferenceStore is durable key/value storage for controller preferences.
// Values are JSON encoded; writes are last-write-wins per key.
type PreferenceStore interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value any) error
	Keys(ctx context.Context) ([]string, error)
	Backend() string
	Close() error
}

// Open returns the preference store for backend. An empty backend selects
// bbolt.
func Open(backend, path string) (PreferenceStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendBbolt:
		return NewBboltPreferenceStore(path)
	case BackendFile:
		return NewFilePreferenceStore(path)
	case BackendMemory:
		return NewMemoryPreferenceStore(), nil
	default:
		return nil, fmt.Errorf("unknown preference backend %q", backend)
	}
}

func encodeValue(value any) (json.RawMessage, error) {
	if raw, ok := value.(json.RawMessage); ok {
		return append(json.RawMessage(nil), raw...), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func normalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("preference key is required")
	}
	return key, nil
}
