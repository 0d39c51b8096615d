package util

import (
	"os"
	"path/filepath"
)

// GetDataDir returns the data directory path
func GetDataDir() string {
	if envDir := os.Getenv("GSHOCK_SYNC_DIR"); envDir != "" {
		return envDir
	}

	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	return filepath.Join(home, ".gshock-sync")
}

// GetConfigPath returns the default location of config.yaml
func GetConfigPath() string {
	return filepath.Join(GetDataDir(), "config.yaml")
}

// GetStatePath returns the file backing the persistent key/value store
// (last connected address, watch name, last sync time).
func GetStatePath() string {
	return filepath.Join(GetDataDir(), "state.yaml")
}

// EnsureDataDir creates the data directory if it does not exist
func EnsureDataDir() (string, error) {
	dir := GetDataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
