package wire

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrDisconnectRace marks transport errors seen when the watch drops
	// the link right after accepting a write (end of file, D-Bus method
	// errors on a vanishing device).
	ErrDisconnectRace = errors.New("wire: link closed by watch during write")
	// ErrNotConnected is returned by transports used before Connect
	ErrNotConnected = errors.New("wire: not connected")
	// ErrDeviceNotFound is returned by scanners that time out
	ErrDeviceNotFound = errors.New("wire: no matching watch found")
)

// TransportError wraps a failure at the BLE boundary
type TransportError struct {
	Op      string // connect, write, subscribe, disconnect, discover
	Address string
	err     error
}

// NewTransportError wraps err for the given operation
func NewTransportError(op, address string, err error) *TransportError {
	return &TransportError{Op: op, Address: address, err: err}
}

func (e *TransportError) Error() string {
	if e.Address != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Address, e.err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.err)
}

func (e *TransportError) Unwrap() error {
	return e.err
}

// IsIgnorable reports whether err is the disconnect race that follows a
// successful write
func IsIgnorable(err error) bool {
	return errors.Is(err, ErrDisconnectRace) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// Classify maps a write error to its WriteResult
func Classify(err error) WriteResult {
	switch {
	case err == nil:
		return WriteOK
	case IsIgnorable(err):
		return WriteRetryable
	default:
		return WriteFatal
	}
}
