package daemon

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const tokenBytes = 32

// LoadOrCreateToken returns the token stored at path. A missing or blank
// file gets a fresh token, written owner-only.
func LoadOrCreateToken(path string) (string, error) {
	existing, err := ReadToken(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read token: %w", err)
	}
	if existing != "" {
		if err := os.Chmod(path, 0o600); err != nil {
			return "", fmt.Errorf("restrict token: %w", err)
		}
		return existing, nil
	}
	fresh, err := newToken()
	if err != nil {
		return "", err
	}
	if err := storeToken(path, fresh); err != nil {
		return "", err
	}
	return fresh, nil
}

// ReadToken reads the token without creating one.
func ReadToken(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func storeToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("token dir: %w", err)
	}
	// WriteFile keeps the mode of an existing file, so set it explicitly.
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return os.Chmod(path, 0o600)
}

// newToken is URL-safe so shells can pass it as ?token= on the websocket.
func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
