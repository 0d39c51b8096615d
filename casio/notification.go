package casio

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// NotificationType selects the icon the watch shows for a notification
type NotificationType byte

const (
	NotifyGeneric NotificationType = iota
	NotifyPhoneCallUrgent
	NotifyPhoneCall
	NotifyEmail
	NotifyMessage
	NotifyCalendar
	NotifyEmailSMS
)

func (t NotificationType) String() string {
	switch t {
	case NotifyGeneric:
		return "GENERIC"
	case NotifyPhoneCallUrgent:
		return "PHONE_CALL_URGENT"
	case NotifyPhoneCall:
		return "PHONE_CALL"
	case NotifyEmail:
		return "EMAIL"
	case NotifyMessage:
		return "MESSAGE"
	case NotifyCalendar:
		return "CALENDAR"
	case NotifyEmailSMS:
		return "EMAIL_SMS"
	}
	return fmt.Sprintf("NotificationType(%d)", byte(t))
}

// AppNotification is a phone notification mirrored on the watch
type AppNotification struct {
	Type      NotificationType `json:"type"`
	Timestamp string           `json:"timestamp"` // 15 ASCII chars, 20060102T150405
	App       string           `json:"app"`
	Title     string           `json:"title"`
	ShortText string           `json:"shortText"`
	Text      string           `json:"text"`
}

const (
	notificationHeaderLen = 6
	timestampLen          = 15
	timestampLayout       = "20060102T150405"

	maxFieldBytes     = 255
	maxTextBytes      = 193
	maxShortTextBytes = 40
	maxCombinedBytes  = 206
	notificationXOR   = 0xFF
)

var notificationHeader = []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x01}

// NotificationTimestamp formats t the way the watch expects
func NotificationTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// TruncateUTF8 cuts s to at most limit bytes without splitting a rune
func TruncateUTF8(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Truncated applies the watch's text limits: text at most 193 bytes,
// short text at most 40 bytes, and both together at most 206 bytes.
// Only text is shortened to meet the combined limit.
func (n AppNotification) Truncated() AppNotification {
	n.App = TruncateUTF8(n.App, maxFieldBytes)
	n.Title = TruncateUTF8(n.Title, maxFieldBytes)
	n.Text = TruncateUTF8(n.Text, maxTextBytes)
	n.ShortText = TruncateUTF8(n.ShortText, maxShortTextBytes)
	if len(n.Text)+len(n.ShortText) > maxCombinedBytes {
		n.Text = TruncateUTF8(n.Text, maxCombinedBytes-len(n.ShortText))
	}
	return n
}

func appendField(out []byte, s string) []byte {
	out = append(out, byte(len(s)), 0x00)
	return append(out, s...)
}

// EncodeAppNotification builds the plain (not yet obfuscated) packet:
// header, type, timestamp, then app, title, short text and text each as
// [len][0x00][utf8]. Limits are applied first.
func EncodeAppNotification(n AppNotification) []byte {
	n = n.Truncated()

	ts := make([]byte, timestampLen)
	for i := range ts {
		ts[i] = '0'
	}
	copy(ts, printable([]byte(n.Timestamp)))

	out := make([]byte, 0, notificationHeaderLen+1+timestampLen+8+len(n.App)+len(n.Title)+len(n.ShortText)+len(n.Text))
	out = append(out, notificationHeader...)
	out = append(out, byte(n.Type))
	out = append(out, ts...)
	out = appendField(out, n.App)
	out = appendField(out, n.Title)
	out = appendField(out, n.ShortText)
	out = appendField(out, n.Text)
	return out
}

func readField(b []byte, off int) (string, int, error) {
	if off+2 > len(b) {
		return "", off, &DecodeError{Offset: off, Msg: "length prefix", err: ErrShortBuffer}
	}
	n := int(b[off])
	if b[off+1] != 0x00 {
		return "", off, &DecodeError{Offset: off + 1, Msg: fmt.Sprintf("separator is 0x%02X, want 0x00", b[off+1])}
	}
	start := off + 2
	end := start + n
	if end > len(b) {
		return "", off, &DecodeError{Offset: off, Msg: fmt.Sprintf("field length %d overruns buffer of %d", n, len(b)), err: ErrShortBuffer}
	}
	return string(b[start:end]), end, nil
}

// DecodeAppNotification is the inverse of EncodeAppNotification
func DecodeAppNotification(b []byte) (AppNotification, error) {
	fixed := notificationHeaderLen + 1 + timestampLen
	if len(b) < fixed {
		return AppNotification{}, &DecodeError{Offset: len(b), Msg: "notification header", err: ErrShortBuffer}
	}
	n := AppNotification{
		Type:      NotificationType(b[notificationHeaderLen]),
		Timestamp: string(b[notificationHeaderLen+1 : fixed]),
	}
	off := fixed
	var err error
	for _, dst := range []*string{&n.App, &n.Title, &n.ShortText, &n.Text} {
		if *dst, off, err = readField(b, off); err != nil {
			return AppNotification{}, err
		}
	}
	return n, nil
}

// XOR obfuscates (or restores) a notification packet for the send path
func XOR(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = c ^ notificationXOR
	}
	return out
}
