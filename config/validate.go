package config

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/user/gshock-sync/logger"
)

var macAddress = regexp.MustCompile(`^([0-9A-Fa-f]{2}:){5}[0-9A-Fa-f]{2}$`)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	switch strings.ToLower(cfg.Transport) {
	case "", TransportBlueZ, TransportSim:
	default:
		return fmt.Errorf("transport %q: must be %q or %q", cfg.Transport, TransportBlueZ, TransportSim)
	}

	// ---- device ----

	if cfg.Device.Address != "" && !macAddress.MatchString(cfg.Device.Address) {
		return fmt.Errorf("device.address %q is not a Bluetooth address", cfg.Device.Address)
	}
	if cfg.Device.Adapter != "" && !strings.HasPrefix(cfg.Device.Adapter, "/org/bluez/") {
		return fmt.Errorf("device.adapter %q must be a BlueZ object path", cfg.Device.Adapter)
	}
	for i, name := range cfg.Device.ExcludedWatches {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("device.excluded_watches[%d] is empty", i)
		}
	}

	// ---- sync ----

	if s := cfg.Sync.FineAdjustmentSecs; s < -10 || s > 10 {
		return fmt.Errorf("sync.fine_adjustment_secs %d out of range -10..10", s)
	}
	if cfg.Sync.RequestTimeoutMs < 0 {
		return fmt.Errorf("sync.request_timeout_ms must not be negative")
	}
	if cfg.Sync.IdleMs != 0 && cfg.Sync.IdleMs < 1000 {
		return fmt.Errorf("sync.idle_ms %d: must be at least 1000", cfg.Sync.IdleMs)
	}
	if cfg.Sync.ScanTimeoutMs < 0 {
		return fmt.Errorf("sync.scan_timeout_ms must not be negative")
	}

	// ---- log ----

	// ParseLevel falls back to INFO for names it does not know
	if lvl := strings.TrimSpace(cfg.Log.Level); lvl != "" && logger.ParseLevel(lvl) == logger.INFO && !strings.EqualFold(lvl, "info") {
		return fmt.Errorf("log.level %q: unknown level", cfg.Log.Level)
	}

	// ---- feed ----

	if cfg.Feed.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.Feed.Listen); err != nil {
			return fmt.Errorf("feed.listen %q: %w", cfg.Feed.Listen, err)
		}
	}
	return nil
}
