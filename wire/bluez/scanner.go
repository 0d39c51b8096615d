package bluez

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/user/gshock-sync/logger"
	"github.com/user/gshock-sync/wire"
)

const (
	powerAttempts = 10
	powerRetry    = time.Second
	scanPoll      = 500 * time.Millisecond
)

// Scanner runs LE discovery on one adapter
type Scanner struct {
	conn    *dbus.Conn
	adapter dbus.ObjectPath
}

// NewScanner creates a scanner on conn using the given adapter
func NewScanner(conn *dbus.Conn, adapter dbus.ObjectPath) *Scanner {
	return &Scanner{conn: conn, adapter: adapter}
}

// EnsurePowered turns the adapter on if needed, retrying while the
// controller comes up.
func (s *Scanner) EnsurePowered(ctx context.Context) error {
	obj := s.conn.Object(busName, s.adapter)
	var lastErr error
	for i := 0; i < powerAttempts; i++ {
		var powered bool
		lastErr = obj.CallWithContext(ctx, propertiesInterface+".Get", 0, adapterInterface, "Powered").Store(&powered)
		if lastErr == nil && powered {
			return nil
		}
		if lastErr == nil {
			logger.Info("bluez", "adapter %s is off, powering on", s.adapter)
			lastErr = obj.CallWithContext(ctx, propertiesInterface+".Set", 0, adapterInterface, "Powered", dbus.MakeVariant(true)).Err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(powerRetry):
		}
	}
	if lastErr != nil {
		return fmt.Errorf("adapter %s not powered after %d attempts: %w", s.adapter, powerAttempts, lastErr)
	}
	return fmt.Errorf("adapter %s not powered after %d attempts", s.adapter, powerAttempts)
}

// ScanForDevice runs discovery until a device matches or timeout
func (s *Scanner) ScanForDevice(ctx context.Context, match func(wire.Device) bool, timeout time.Duration) (wire.Device, error) {
	adapter := s.conn.Object(busName, s.adapter)

	filter := map[string]interface{}{
		"Transport":     "le",
		"DuplicateData": false,
	}
	if err := adapter.CallWithContext(ctx, adapterInterface+".SetDiscoveryFilter", 0, filter).Err; err != nil {
		logger.Debug("bluez", "failed to set discovery filter: %v", err)
	}
	if err := adapter.CallWithContext(ctx, adapterInterface+".StartDiscovery", 0).Err; err != nil {
		return wire.Device{}, wire.NewTransportError("discover", "", err)
	}
	defer func() {
		if err := adapter.Call(adapterInterface+".StopDiscovery", 0).Err; err != nil {
			logger.Debug("bluez", "failed to stop discovery: %v", err)
		}
	}()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(scanPoll)
	defer ticker.Stop()

	for {
		objects, err := getManagedObjects(s.conn)
		if err != nil {
			return wire.Device{}, wire.NewTransportError("discover", "", err)
		}
		for _, d := range devicesOf(objects, s.adapter) {
			if match == nil || match(d) {
				logger.Info("bluez", "found %s (%s) rssi %d", d.Name, d.Address, d.RSSI)
				return d, nil
			}
		}

		select {
		case <-ctx.Done():
			return wire.Device{}, ctx.Err()
		case <-deadline.C:
			return wire.Device{}, wire.ErrDeviceNotFound
		case <-ticker.C:
		}
	}
}
