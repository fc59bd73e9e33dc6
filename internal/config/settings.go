package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const defaultDaemonAddress = "127.0.0.1:7788"

const (
	defaultMainURL      = "https://app.caseportal.app"
	defaultFallbackURL  = "https://app-backup.caseportal.app"
	defaultStatusURL    = "https://status.caseportal.app"
	defaultChatURL      = "https://support.caseportal.app/chat"
	defaultPillURL      = "https://app.caseportal.app/desktop/pill"
	defaultFeedURL      = "https://updates.caseportal.app/desktop"
	defaultFeedChannel  = "stable"
	defaultAutoCollapse = 14
)

type CoreConfig struct {
	Daemon        DaemonConfig        `toml:"daemon"`
	Logging       LoggingConfig       `toml:"logging"`
	Portal        PortalConfig        `toml:"portal"`
	Pill          PillConfig          `toml:"pill"`
	Display       DisplayConfig       `toml:"display"`
	BusinessHours BusinessHoursConfig `toml:"business_hours"`
	Updates       UpdatesConfig       `toml:"updates"`
	Tray          TrayConfig          `toml:"tray"`
	Metrics       MetricsConfig       `toml:"metrics"`
	Storage       StorageConfig       `toml:"storage"`
	Desktop       DesktopConfig       `toml:"desktop"`
}

type DaemonConfig struct {
	Address string `toml:"address"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type PortalConfig struct {
	MainURL     string `toml:"main_url"`
	FallbackURL string `toml:"fallback_url"`
	StatusURL   string `toml:"status_url"`
	ChatURL     string `toml:"chat_url"`
	PillURL     string `toml:"pill_url"`
}

type PillConfig struct {
	CompactWidth        int `toml:"compact_width"`
	CompactHeight       int `toml:"compact_height"`
	PanelWidth          int `toml:"panel_width"`
	PanelHeight         int `toml:"panel_height"`
	AutoCollapseSeconds int `toml:"auto_collapse_seconds"`
}

// DisplayConfig is the work area assumed until a shell reports real displays.
type DisplayConfig struct {
	X      int `toml:"x"`
	Y      int `toml:"y"`
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

type BusinessHoursConfig struct {
	Enabled  bool     `toml:"enabled"`
	Timezone string   `toml:"timezone"`
	Days     []string `toml:"days"`
	Start    string   `toml:"start"`
	End      string   `toml:"end"`
}

type UpdatesConfig struct {
	FeedURL              string `toml:"feed_url"`
	Channel              string `toml:"channel"`
	CheckIntervalMinutes int    `toml:"check_interval_minutes"`
	InitialDelaySeconds  int    `toml:"initial_delay_seconds"`
	StatusResetSeconds   int    `toml:"status_reset_seconds"`
	DevMode              bool   `toml:"dev_mode"`
}

type TrayConfig struct {
	Enabled bool `toml:"enabled"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// DesktopConfig drives the fallback used while no shell is connected.
type DesktopConfig struct {
	Notifier string `toml:"notifier"`
}

type StorageConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

func DefaultCoreConfig() CoreConfig {
	return CoreConfig{
		Daemon: DaemonConfig{
			Address: defaultDaemonAddress,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Portal: PortalConfig{
			MainURL:     defaultMainURL,
			FallbackURL: defaultFallbackURL,
			StatusURL:   defaultStatusURL,
			ChatURL:     defaultChatURL,
			PillURL:     defaultPillURL,
		},
		Pill: PillConfig{
			CompactWidth:        260,
			CompactHeight:       64,
			PanelWidth:          380,
			PanelHeight:         460,
			AutoCollapseSeconds: defaultAutoCollapse,
		},
		Display: DisplayConfig{
			Width:  1920,
			Height: 1040,
		},
		BusinessHours: BusinessHoursConfig{
			Enabled: true,
			Days:    []string{"mon", "tue", "wed", "thu", "fri"},
			Start:   "08:00",
			End:     "18:00",
		},
		Updates: UpdatesConfig{
			FeedURL:              defaultFeedURL,
			Channel:              defaultFeedChannel,
			CheckIntervalMinutes: 360,
			InitialDelaySeconds:  15,
			StatusResetSeconds:   60,
		},
		Tray: TrayConfig{
			Enabled: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Storage: StorageConfig{
			Backend: "bbolt",
		},
		Desktop: DesktopConfig{
			Notifier: "auto",
		},
	}
}

func LoadCoreConfig() (CoreConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return CoreConfig{}, err
	}
	return LoadCoreConfigFromPath(path)
}

func LoadCoreConfigFromPath(path string) (CoreConfig, error) {
	cfg := DefaultCoreConfig()
	if err := readTOML(path, &cfg); err != nil {
		return CoreConfig{}, err
	}
	return cfg, nil
}

// EncodeTOML renders cfg the way it would be written to config.toml.
func EncodeTOML(cfg CoreConfig) ([]byte, error) {
	return toml.Marshal(cfg)
}

func (c CoreConfig) DaemonAddress() string {
	addr := strings.TrimSpace(c.Daemon.Address)
	if addr == "" {
		return defaultDaemonAddress
	}
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	addr = strings.TrimRight(addr, "/")
	if addr == "" {
		return defaultDaemonAddress
	}
	return addr
}

func (c CoreConfig) DaemonBaseURL() string {
	return "http://" + c.DaemonAddress()
}

func (c CoreConfig) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func (c CoreConfig) MainURL() string {
	return firstNonEmpty(c.Portal.MainURL, defaultMainURL)
}

func (c CoreConfig) FallbackURL() string {
	return strings.TrimSpace(c.Portal.FallbackURL)
}

func (c CoreConfig) StatusURL() string {
	return firstNonEmpty(c.Portal.StatusURL, defaultStatusURL)
}

func (c CoreConfig) ChatURL() string {
	return firstNonEmpty(c.Portal.ChatURL, defaultChatURL)
}

func (c CoreConfig) PillURL() string {
	return firstNonEmpty(c.Portal.PillURL, strings.TrimRight(c.MainURL(), "/")+"/desktop/pill")
}

// CompactPillSize and PanelPillSize return width and height, falling back to
// the defaults for unset or non-positive values.
func (c CoreConfig) CompactPillSize() (int, int) {
	return positiveOr(c.Pill.CompactWidth, 260), positiveOr(c.Pill.CompactHeight, 64)
}

func (c CoreConfig) PanelPillSize() (int, int) {
	return positiveOr(c.Pill.PanelWidth, 380), positiveOr(c.Pill.PanelHeight, 460)
}

// FallbackWorkArea returns x, y, width and height of the configured display.
func (c CoreConfig) FallbackWorkArea() (int, int, int, int) {
	return c.Display.X, c.Display.Y, positiveOr(c.Display.Width, 1920), positiveOr(c.Display.Height, 1040)
}

func (c CoreConfig) AutoCollapseDelay() time.Duration {
	seconds := c.Pill.AutoCollapseSeconds
	if seconds <= 0 {
		seconds = defaultAutoCollapse
	}
	return time.Duration(seconds) * time.Second
}

func (c CoreConfig) FeedURL() string {
	return strings.TrimRight(firstNonEmpty(c.Updates.FeedURL, defaultFeedURL), "/")
}

func (c CoreConfig) FeedChannel() string {
	return firstNonEmpty(c.Updates.Channel, defaultFeedChannel)
}

func (c CoreConfig) UpdateCheckInterval() time.Duration {
	minutes := c.Updates.CheckIntervalMinutes
	if minutes <= 0 {
		minutes = 360
	}
	return time.Duration(minutes) * time.Minute
}

func (c CoreConfig) UpdateInitialDelay() time.Duration {
	seconds := c.Updates.InitialDelaySeconds
	if seconds < 0 {
		seconds = 0
	}
	return time.Duration(seconds) * time.Second
}

func (c CoreConfig) UpdateStatusReset() time.Duration {
	seconds := c.Updates.StatusResetSeconds
	if seconds <= 0 {
		seconds = 60
	}
	return time.Duration(seconds) * time.Second
}

func (c CoreConfig) DesktopNotifier() string {
	return strings.ToLower(firstNonEmpty(c.Desktop.Notifier, "auto"))
}

func (c CoreConfig) StorageBackend() string {
	backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if backend == "" {
		return "bbolt"
	}
	return backend
}

// PreferencesPath resolves storage.path against the data dir, falling back
// to the default preferences file for the configured backend.
func (c CoreConfig) PreferencesPath() (string, error) {
	if strings.TrimSpace(c.Storage.Path) != "" {
		return resolveConfigPath(c.Storage.Path)
	}
	if c.StorageBackend() == "file" {
		return dataFile("preferences.json")
	}
	return PreferencesPath()
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func resolveConfigPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, path), nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func positiveOr(value, def int) int {
	if value <= 0 {
		return def
	}
	return value
}
