package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
)

// MemoryPreferenceStore is used by tests and --ephemeral runs. FailWrites
// makes every Set fail, to exercise best-effort persistence.
type MemoryPreferenceStore struct {
	mu         sync.Mutex
	data       map[string]json.RawMessage
	writes     []string
	failWrites bool
}

var ErrWriteRejected = errors.New("preference write rejected")

func NewMemoryPreferenceStore() *MemoryPreferenceStore {
	return &MemoryPreferenceStore{data: map[string]json.RawMessage{}}
}

func (s *MemoryPreferenceStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
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

func (s *MemoryPreferenceStore) Set(ctx context.Context, key string, value any) error {
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
	s.writes = append(s.writes, key)
	if s.failWrites {
		return ErrWriteRejected
	}
	s.data[key] = data
	return nil
}

func (s *MemoryPreferenceStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.data))
	for key := range s.data {
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryPreferenceStore) Backend() string {
	return BackendMemory
}

func (s *MemoryPreferenceStore) Close() error {
	return nil
}

func (s *MemoryPreferenceStore) FailWrites(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = fail
}

// Writes returns every key passed to Set, in order, including rejected ones.
func (s *MemoryPreferenceStore) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}
