package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName = ".casenotify"
	homeEnvVar = "CASENOTIFY_HOME"
)

// DataDir returns the base data directory. CASENOTIFY_HOME overrides the
// default of ~/.casenotify.
func DataDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv(homeEnvVar)); override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

// TokenPath returns the path to the API token file.
func TokenPath() (string, error) {
	return dataFile("token")
}

// ConfigPath returns the path to the TOML settings file.
func ConfigPath() (string, error) {
	return dataFile("config.toml")
}

// PreferencesPath returns the path to the bbolt preference database.
func PreferencesPath() (string, error) {
	return dataFile("preferences.db")
}

// LogPath returns the daemon log file used in background mode.
func LogPath() (string, error) {
	return dataFile("daemon.log")
}

// UpdatesDir returns the staging directory for downloaded updates.
func UpdatesDir() (string, error) {
	return dataFile("updates")
}

func dataFile(name string) (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, name), nil
}
