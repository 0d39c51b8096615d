package casio

import (
	"bytes"
	"strings"
)

// A reset watch reports blank app information and must be given a valid
// one before it accepts further commands.
var (
	blankAppInfo = []byte{0x22, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}
	appInfoFix   = []byte{0x22, 0x34, 0x88, 0xF4, 0xE5, 0xD5, 0xAF, 0xC8, 0x29, 0xE0, 0x6D, 0x02}
)

// NeedsAppInfoRepair reports whether a 0x22 response is the blank value
func NeedsAppInfoRepair(b []byte) bool {
	return bytes.Equal(b, blankAppInfo)
}

// AppInfoRepair returns the buffer written back to a reset watch
func AppInfoRepair() []byte {
	return append([]byte(nil), appInfoFix...)
}

// DecodeWatchName reads the ASCII name following the 0x23 command byte
func DecodeWatchName(b []byte) (string, error) {
	if err := expect(b, CmdWatchName, 1); err != nil {
		return "", err
	}
	return strings.TrimSpace(printable(b[1:])), nil
}

// EncodeWatchName builds a 0x23 buffer; used by the simulated watch
func EncodeWatchName(name string) []byte {
	return append([]byte{byte(CmdWatchName)}, printable([]byte(name))...)
}
