// Package updatefeed checks the release manifest, stages verified downloads
// and swaps the running binary for a staged one.
package updatefeed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"casenotify/internal/logging"
	"casenotify/internal/types"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxManifestSize    = 1 << 20
	maxDownloadSize    = 200 << 20
)

var ErrChecksumMismatch = errors.New("checksum mismatch")

type Options struct {
	BaseURL        string
	Channel        string
	CurrentVersion string
	// Dir holds staged downloads.
	Dir        string
	Client     *http.Client
	Executable func() (string, error)
	Logger     logging.Logger
}

// Feed implements the controller's update feed against a static manifest
// published at <base>/<channel>/<os>-<arch>.json.
type Feed struct {
	baseURL    string
	channel    string
	current    *semver.Version
	dir        string
	client     *http.Client
	executable func() (string, error)
	logger     logging.Logger

	mu      sync.Mutex
	applied string
}

func New(opts Options) (*Feed, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("update feed url is required")
	}
	current, err := semver.NewVersion(strings.TrimSpace(opts.CurrentVersion))
	if err != nil {
		return nil, fmt.Errorf("current version %q: %w", opts.CurrentVersion, err)
	}
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("update staging dir is required")
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	executable := opts.Executable
	if executable == nil {
		executable = os.Executable
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	channel := strings.TrimSpace(opts.Channel)
	if channel == "" {
		channel = "stable"
	}
	return &Feed{
		baseURL:    base,
		channel:    channel,
		current:    current,
		dir:        opts.Dir,
		client:     client,
		executable: executable,
		logger:     logger,
	}, nil
}

// IsRelease reports whether version is a semantic version the feed can
// compare against. Development builds are not.
func IsRelease(version string) bool {
	_, err := semver.NewVersion(strings.TrimSpace(version))
	return err == nil
}

// IsNewer reports whether latest is a higher semantic version than current.
func IsNewer(latest, current string) (bool, error) {
	l, err := semver.NewVersion(strings.TrimSpace(latest))
	if err != nil {
		return false, fmt.Errorf("latest version %q: %w", latest, err)
	}
	c, err := semver.NewVersion(strings.TrimSpace(current))
	if err != nil {
		return false, fmt.Errorf("current version %q: %w", current, err)
	}
	return l.GreaterThan(c), nil
}

func (f *Feed) ManifestURL() string {
	return fmt.Sprintf("%s/%s/%s-%s.json", f.baseURL, f.channel, runtime.GOOS, runtime.GOARCH)
}

// Check fetches the manifest and returns the release it advertises, or nil
// when that release is not newer than the running version.
func (f *Feed) Check(ctx context.Context) (*types.UpdateInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.ManifestURL(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch manifest: %s", resp.Status)
	}
	var info types.UpdateInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxManifestSize)).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	latest, err := semver.NewVersion(strings.TrimSpace(info.Version))
	if err != nil {
		return nil, fmt.Errorf("manifest version %q: %w", info.Version, err)
	}
	if !latest.GreaterThan(f.current) {
		return nil, nil
	}
	if strings.TrimSpace(info.URL) == "" || strings.TrimSpace(info.SHA256) == "" {
		return nil, errors.New("manifest is missing url or sha256")
	}
	info.Version = latest.String()
	f.logger.Info("update_available", logging.F("version", info.Version), logging.F("current", f.current.String()))
	return &info, nil
}

// Download fetches the artifact into the staging dir and verifies its
// sha256. A staged file that already matches is reused.
func (f *Feed) Download(ctx context.Context, info types.UpdateInfo) (types.DownloadedUpdate, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return types.DownloadedUpdate{}, err
	}
	want := strings.ToLower(strings.TrimSpace(info.SHA256))
	finalPath := filepath.Join(f.dir, stagedName(info.Version))
	if got, err := fileSHA256(finalPath); err == nil && got == want {
		return types.DownloadedUpdate{Version: info.Version, Path: finalPath}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return types.DownloadedUpdate{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return types.DownloadedUpdate{}, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return types.DownloadedUpdate{}, fmt.Errorf("download: %s", resp.Status)
	}

	tmp, err := os.CreateTemp(f.dir, stagedName(info.Version)+".*.partial")
	if err != nil {
		return types.DownloadedUpdate{}, err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	hasher := sha256.New()
	_, copyErr := io.Copy(io.MultiWriter(tmp, hasher), io.LimitReader(resp.Body, maxDownloadSize))
	closeErr := tmp.Close()
	if copyErr != nil {
		return types.DownloadedUpdate{}, fmt.Errorf("download: %w", copyErr)
	}
	if closeErr != nil {
		return types.DownloadedUpdate{}, closeErr
	}
	if got := hex.EncodeToString(hasher.Sum(nil)); got != want {
		return types.DownloadedUpdate{}, fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, want, got)
	}
	if err := os.Chmod(tmpPath, 0o755); err != nil {
		return types.DownloadedUpdate{}, err
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return types.DownloadedUpdate{}, err
	}
	f.logger.Info("update_staged", logging.F("version", info.Version), logging.F("path", finalPath))
	return types.DownloadedUpdate{Version: info.Version, Path: finalPath}, nil
}

// Apply replaces the running executable with the staged artifact. The new
// binary is copied next to the old one and renamed over it so the swap is
// atomic on the same filesystem.
func (f *Feed) Apply(update types.DownloadedUpdate) error {
	execPath, err := f.executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = resolved
	}
	src, err := os.Open(update.Path)
	if err != nil {
		return fmt.Errorf("open staged update: %w", err)
	}
	defer src.Close()

	stagePath := execPath + ".new"
	defer os.Remove(stagePath)
	dst, err := os.OpenFile(stagePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("permission denied writing to %s", filepath.Dir(execPath))
		}
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("write staged binary: %w", err)
	}
	if err := dst.Close(); err != nil {
		return err
	}
	if err := os.Rename(stagePath, execPath); err != nil {
		return fmt.Errorf("replace binary: %w", err)
	}
	f.mu.Lock()
	f.applied = update.Version
	f.mu.Unlock()
	f.logger.Info("update_installed", logging.F("version", update.Version), logging.F("path", execPath))
	return nil
}

// Applied returns the version installed by Apply, if any. The process must
// restart to run it.
func (f *Feed) Applied() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applied
}

func stagedName(version string) string {
	name := "casenotify-" + version
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return name
}

func fileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
