package store

import (
	"context"
	"encoding/json"
	"time"

	"casenotify/internal/logging"
)

const preferenceTimeout = 2 * time.Second

// Preferences wraps a PreferenceStore with best-effort semantics: failures
// are logged and swallowed, and reads fall back to the caller's default.
type Preferences struct {
	store  PreferenceStore
	logger logging.Logger
}

func NewPreferences(store PreferenceStore, logger logging.Logger) *Preferences {
	if logger == nil {
		logger = logging.Nop()
	}
	if store == nil {
		store = NewMemoryPreferenceStore()
	}
	return &Preferences{store: store, logger: logger}
}

// Load decodes key into dst and reports whether a stored value was used.
func (p *Preferences) Load(key string, dst any) bool {
	ctx, cancel := context.WithTimeout(context.Background(), preferenceTimeout)
	defer cancel()
	raw, ok, err := p.store.Get(ctx, key)
	if err != nil {
		p.logger.Warn("preference_read_failed", logging.F("key", key), logging.F("error", err))
		return false
	}
	if !ok || len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		p.logger.Warn("preference_decode_failed", logging.F("key", key), logging.F("error", err))
		return false
	}
	return true
}

func (p *Preferences) Save(key string, value any) {
	ctx, cancel := context.WithTimeout(context.Background(), preferenceTimeout)
	defer cancel()
	if err := p.store.Set(ctx, key, value); err != nil {
		p.logger.Warn("preference_write_failed", logging.F("key", key), logging.F("error", err))
	}
}

func (p *Preferences) Backend() string {
	return p.store.Backend()
}

func (p *Preferences) Close() error {
	return p.store.Close()
}

// GetOr returns the stored value for key, or def when it is missing or
// unreadable.
func GetOr[T any](p *Preferences, key string, def T) T {
	var out T
	if p == nil || !p.Load(key, &out) {
		return def
	}
	return out
}
