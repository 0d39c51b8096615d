package debug

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/gshock-sync/casio"
	"github.com/user/gshock-sync/wire/gatt"
)

const packetsFile = "packets.jsonl"

// PacketLogger writes human-readable JSON logs of the bytes exchanged
// with a watch. These files are WRITE-ONLY and never read by production code
type PacketLogger struct {
	debugDir string
	enabled  bool
	mu       sync.Mutex
}

// PacketLog is one logged write or notification
type PacketLog struct {
	Timestamp string `json:"timestamp"`
	Direction string `json:"direction"` // "tx" or "rx"
	Address   string `json:"address,omitempty"`
	Handle    string `json:"handle,omitempty"`
	Target    string `json:"target,omitempty"`
	Command   string `json:"command"`
	Key       string `json:"key"`
	DataLen   int    `json:"data_len"`
	DataHex   string `json:"data_hex,omitempty"`
}

// NewPacketLogger creates a logger writing under dir. A disabled logger
// (or a nil one) drops everything.
func NewPacketLogger(dir string, enabled bool) *PacketLogger {
	if !enabled {
		return &PacketLogger{enabled: false}
	}
	os.MkdirAll(dir, 0755)
	return &PacketLogger{debugDir: dir, enabled: true}
}

// Path returns the file packets are appended to
func (d *PacketLogger) Path() string {
	if d == nil || !d.enabled {
		return ""
	}
	return filepath.Join(d.debugDir, packetsFile)
}

func packet(direction, address string, data []byte) PacketLog {
	log := PacketLog{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Direction: direction,
		Address:   address,
		DataLen:   len(data),
	}
	if len(data) > 0 {
		log.Command = casio.Command(data[0]).String()
		log.Key = string(casio.KeyOf(data))
		log.DataHex = hex.EncodeToString(data)
	}
	return log
}

// LogWrite logs a buffer written to handle
func (d *PacketLogger) LogWrite(address string, handle gatt.Handle, data []byte) {
	if d == nil || !d.enabled {
		return
	}
	log := packet("tx", address, data)
	log.Handle = fmt.Sprintf("0x%02X", uint16(handle))
	log.Target = handleName(handle)
	if handle == gatt.HandleNotification {
		// app notifications are obfuscated and carry no command byte
		log.Command, log.Key = "APP_NOTIFICATION", ""
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.appendJSONL(log)
}

// LogNotification logs a notification received from the watch
func (d *PacketLogger) LogNotification(address string, data []byte) {
	if d == nil || !d.enabled {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.appendJSONL(packet("rx", address, data))
}

// appendJSONL appends a JSON line to the packets file
func (d *PacketLogger) appendJSONL(data interface{}) {
	f, err := os.OpenFile(d.Path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return // Silently fail - debug logging is best-effort
	}
	defer f.Close()

	line, err := json.Marshal(data)
	if err != nil {
		return
	}

	f.Write(line)
	f.Write([]byte("\n"))
}

// handleName returns the human-readable name of a watch handle
func handleName(h gatt.Handle) string {
	for _, c := range gatt.All() {
		if c.Handle == h {
			return c.Name
		}
	}
	return "unknown"
}
