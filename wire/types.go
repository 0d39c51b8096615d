package wire

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotifyFunc receives the value of one notification. It runs on the
// transport's goroutine and must return without blocking.
type NotifyFunc func(data []byte)

// Transport is the connect-oriented BLE link to one watch. A Transport is
// used for a single connection cycle and then discarded.
type Transport interface {
	Connect(ctx context.Context, address string) error
	Disconnect(ctx context.Context) error
	// Characteristics lists the characteristic UUIDs found on the watch
	Characteristics(ctx context.Context) ([]uuid.UUID, error)
	WriteCharacteristic(ctx context.Context, id uuid.UUID, data []byte) error
	SubscribeNotify(ctx context.Context, id uuid.UUID, fn NotifyFunc) error
}

// LinkMonitor is implemented by transports that notice the watch dropping
// the link on its own.
type LinkMonitor interface {
	// Dropped is closed once the link established by Connect is gone
	Dropped() <-chan struct{}
}

// Device is an advertising watch found by a scan
type Device struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	RSSI    int16  `json:"rssi,omitempty"`
}

// Scanner finds a watch to connect to
type Scanner interface {
	ScanForDevice(ctx context.Context, match func(Device) bool, timeout time.Duration) (Device, error)
}

// IsCasio reports whether an advertised name carries the Casio prefix
func IsCasio(d Device) bool {
	return strings.HasPrefix(strings.ToLower(d.Name), DeviceNamePrefix)
}

// MatchWatch builds the scan predicate: a Casio name whose model is not
// excluded, and the given address when one is known.
func MatchWatch(address string, excluded []string) func(Device) bool {
	return func(d Device) bool {
		if !IsCasio(d) {
			return false
		}
		if address != "" && !strings.EqualFold(d.Address, address) {
			return false
		}
		for _, ex := range excluded {
			ex = strings.TrimSpace(ex)
			if ex != "" && strings.Contains(strings.ToUpper(d.Name), strings.ToUpper(ex)) {
				return false
			}
		}
		return true
	}
}
