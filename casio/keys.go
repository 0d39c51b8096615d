package casio

import (
	"encoding/hex"
	"strings"
)

// Key correlates an outbound request with the notification answering it.
// It is the uppercase hex of the command byte, plus the sub-index byte for
// indexed commands: "28", "1F03", "3102".
type Key string

// CommandKey returns the key of a non-indexed command
func CommandKey(cmd Command) Key {
	return Key(strings.ToUpper(hex.EncodeToString([]byte{byte(cmd)})))
}

// IndexedKey returns the key of one slot of an indexed command
func IndexedKey(cmd Command, index int) Key {
	return Key(strings.ToUpper(hex.EncodeToString([]byte{byte(cmd), byte(index)})))
}

// KeyOf derives the key from a received payload. Requests and their
// responses share the same leading bytes, so the key of a response equals
// the key its request was registered under.
func KeyOf(payload []byte) Key {
	if len(payload) == 0 {
		return ""
	}
	cmd := Command(payload[0])
	if cmd.Indexed() && len(payload) >= 2 {
		return IndexedKey(cmd, int(payload[1]))
	}
	return CommandKey(cmd)
}

// Bytes returns the request payload the key stands for
func (k Key) Bytes() []byte {
	b, err := hex.DecodeString(string(k))
	if err != nil {
		return nil
	}
	return b
}

// Command returns the command byte of the key
func (k Key) Command() Command {
	b := k.Bytes()
	if len(b) == 0 {
		return CmdError
	}
	return Command(b[0])
}
