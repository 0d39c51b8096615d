// Package config loads the YAML configuration and keeps the small
// persistent state file the sync loop writes after each connection.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Transport string       `yaml:"transport"` // bluez | sim
	Device    DeviceConfig `yaml:"device"`
	Sync      SyncConfig   `yaml:"sync"`
	Log       LogConfig    `yaml:"log"`
	Feed      FeedConfig   `yaml:"feed"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	Address         string   `yaml:"address"`
	Adapter         string   `yaml:"adapter"`
	MultiWatch      bool     `yaml:"multi_watch"`
	ExcludedWatches []string `yaml:"excluded_watches"`
}

// ---- SYNC ----

type SyncConfig struct {
	FineAdjustmentSecs int `yaml:"fine_adjustment_secs"`
	RequestTimeoutMs   int `yaml:"request_timeout_ms"`
	IdleMs             int `yaml:"idle_ms"`
	ScanTimeoutMs      int `yaml:"scan_timeout_ms"`
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level"`
	// Append every packet exchanged with the watch to debug/packets.jsonl
	Packets bool `yaml:"packets"`
}

// ---- FEED ----

type FeedConfig struct {
	// host:port of the websocket status feed; empty disables it
	Listen string `yaml:"listen"`
}

const (
	TransportBlueZ = "bluez"
	TransportSim   = "sim"
)

// Load reads a YAML config file. A missing file yields an empty config.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
