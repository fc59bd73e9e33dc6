package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// filePreferenceStore keeps every preference in a single JSON document that
// is rewritten atomically on each Set.
type filePreferenceStore struct {
	path string
	mu   sync.Mutex
	data map[string]json.RawMessage
}

func NewFilePreferenceStore(path string) (PreferenceStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("preference file path is required")
	}
	s := &filePreferenceStore{path: path, data: map[string]json.RawMessage{}}
	if err := readJSON(path, &s.data); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if s.data == nil {
		s.data = map[string]json.RawMessage{}
	}
	return s, nil
}

func (s *filePreferenceStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append(json.RawMessage(nil), raw...), true, nil
}

func (s *filePreferenceStore) Set(ctx context.Context, key string, value any) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	data, err := encodeValue(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]json.RawMessage, len(s.data)+1)
	for k, v := range s.data {
		next[k] = v
	}
	next[key] = data
	if err := writeJSONAtomic(s.path, next); err != nil {
		return err
	}
	s.data = next
	return nil
}

func (s *filePreferenceStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.data))
	for key := range s.data {
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

func (s *filePreferenceStore) Backend() string {
	return BackendFile
}

func (s *filePreferenceStore) Close() error {
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func writeJSONAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	file, err := os.CreateTemp(dir, ".tmp-*.json")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(file.Name())
	}()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(file.Name(), path)
}
