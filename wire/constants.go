package wire

import "time"

// Timing defaults for the watch link
const (
	// Scans longer than this give the watch time to go back to sleep
	DefaultScanTimeout = 30 * time.Second

	// BlueZ resolves GATT services asynchronously after Device1.Connect
	ServiceResolveTimeout = 10 * time.Second
	ServiceResolvePoll    = 250 * time.Millisecond

	// Casio watches advertise this prefix, case varies by firmware
	DeviceNamePrefix = "casio"
)
