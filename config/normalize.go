package config

import (
	"strings"
	"time"
)

const (
	defaultRequestTimeoutMs = 10000
	defaultIdleMs           = 1000
	defaultScanTimeoutMs    = 30000
	defaultAdapter          = "/org/bluez/hci0"
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Transport = strings.ToLower(cfg.Transport)
	if cfg.Transport == "" {
		cfg.Transport = TransportBlueZ
	}

	cfg.Device.Address = strings.ToUpper(cfg.Device.Address)
	if cfg.Device.Adapter == "" {
		cfg.Device.Adapter = defaultAdapter
	}
	for i, name := range cfg.Device.ExcludedWatches {
		cfg.Device.ExcludedWatches[i] = strings.TrimSpace(name)
	}

	if cfg.Sync.RequestTimeoutMs == 0 {
		cfg.Sync.RequestTimeoutMs = defaultRequestTimeoutMs
	}
	if cfg.Sync.IdleMs == 0 {
		cfg.Sync.IdleMs = defaultIdleMs
	}
	if cfg.Sync.ScanTimeoutMs == 0 {
		cfg.Sync.ScanTimeoutMs = defaultScanTimeoutMs
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func (s SyncConfig) FineAdjustment() time.Duration {
	return time.Duration(s.FineAdjustmentSecs) * time.Second
}

func (s SyncConfig) RequestTimeout() time.Duration { return ms(s.RequestTimeoutMs) }
func (s SyncConfig) Idle() time.Duration           { return ms(s.IdleMs) }
func (s SyncConfig) ScanTimeout() time.Duration    { return ms(s.ScanTimeoutMs) }
