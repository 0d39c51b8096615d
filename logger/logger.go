package logger

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	TRACE LogLevel = iota // Raw notification and write bytes
	DEBUG                 // Decoded watch payloads, registry activity
	INFO                  // Connections, time sync, display updates
	WARN                  // Unsupported handles, dropped notifications
	ERROR                 // Aborted sync cycles
)

var (
	currentLevel LogLevel  = INFO
	output       io.Writer = os.Stdout
	timestamps             = true
	mu           sync.RWMutex
)

// String returns the padded label used in log lines
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO "
	case WARN:
		return "WARN "
	case ERROR:
		return "ERROR"
	}
	return "?????"
}

// SetLevel sets the global log level
func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// SetOutput redirects all log lines to w. Tests use this to capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetTimestamps toggles the leading wall-clock stamp
func SetTimestamps(on bool) {
	mu.Lock()
	defer mu.Unlock()
	timestamps = on
}

// ParseLevel converts a string to a LogLevel.
// Unknown names fall back to INFO.
func ParseLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return TRACE
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Enabled reports whether messages at level would be written
func Enabled(level LogLevel) bool {
	return level >= GetLevel()
}

func log(level LogLevel, prefix, format string, args ...interface{}) {
	if !Enabled(level) {
		return
	}

	msg := fmt.Sprintf(format, args...)

	mu.RLock()
	w := output
	stamp := timestamps
	mu.RUnlock()

	var b strings.Builder
	if stamp {
		b.WriteString(time.Now().Format("2006-01-02 15:04:05.000 "))
	}
	if prefix != "" {
		fmt.Fprintf(&b, "[%s %s] %s\n", prefix, level, msg)
	} else {
		fmt.Fprintf(&b, "[%s] %s\n", level, msg)
	}
	io.WriteString(w, b.String())
}

// Trace logs a trace message (raw bytes on the wire)
func Trace(prefix, format string, args ...interface{}) {
	log(TRACE, prefix, format, args...)
}

// Debug logs a debug message (decoded payloads)
func Debug(prefix, format string, args ...interface{}) {
	log(DEBUG, prefix, format, args...)
}

// Info logs an info message
func Info(prefix, format string, args ...interface{}) {
	log(INFO, prefix, format, args...)
}

// Warn logs a warning message
func Warn(prefix, format string, args ...interface{}) {
	log(WARN, prefix, format, args...)
}

// Error logs an error message
func Error(prefix, format string, args ...interface{}) {
	log(ERROR, prefix, format, args...)
}

// Hex renders a payload as space separated uppercase hex, e.g. "13 01 00".
func Hex(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	s := strings.ToUpper(hex.EncodeToString(b))
	var out strings.Builder
	out.Grow(len(s) + len(b))
	for i := 0; i < len(s); i += 2 {
		if i > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(s[i : i+2])
	}
	return out.String()
}

// ToJSON converts any value to a pretty-printed JSON string for logging
func ToJSON(v interface{}) string {
	if msg, ok := v.(proto.Message); ok {
		marshaler := protojson.MarshalOptions{
			Multiline:       true,
			Indent:          "  ",
			EmitUnpopulated: false,
		}
		jsonBytes, err := marshaler.Marshal(msg)
		if err != nil {
			return fmt.Sprintf("<error: %v>", err)
		}
		return string(jsonBytes)
	}

	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("<error: %v>", err)
	}
	return string(jsonBytes)
}

// TraceJSON logs a trace message with a JSON representation
func TraceJSON(prefix, label string, v interface{}) {
	if !Enabled(TRACE) {
		return
	}
	log(TRACE, prefix, "%s:\n%s", label, ToJSON(v))
}

// DebugJSON logs a debug message with a JSON representation
func DebugJSON(prefix, label string, v interface{}) {
	if !Enabled(DEBUG) {
		return
	}
	log(DEBUG, prefix, "%s:\n%s", label, ToJSON(v))
}
