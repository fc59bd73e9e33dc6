package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketPreferences = []byte("preferences")

type bboltPreferenceStore struct {
	db *bolt.DB
}

func NewBboltPreferenceStore(path string) (PreferenceStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("preference db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := initBboltSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &bboltPreferenceStore{db: db}, nil
}

func initBboltSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPreferences)
		return err
	})
}

func (s *bboltPreferenceStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, false, err
	}
	var out json.RawMessage
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPreferences)
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(key))
		if raw == nil {
			return nil
		}
		// bbolt values are only valid inside the transaction.
		out = append(json.RawMessage(nil), raw...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (s *bboltPreferenceStore) Set(ctx context.Context, key string, value any) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	data, err := encodeValue(value)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketPreferences)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

func (s *bboltPreferenceStore) Keys(ctx context.Context) ([]string, error) {
	out := make([]string, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPreferences)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (s *bboltPreferenceStore) Backend() string {
	return BackendBbolt
}

func (s *bboltPreferenceStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
