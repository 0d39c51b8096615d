package casio

import (
	"bytes"
	"testing"
)

func TestKeys(t *testing.T) {
	if got := CommandKey(CmdWatchCondition); got != "28" {
		t.Errorf("CommandKey = %q", got)
	}
	if got := IndexedKey(CmdWorldCities, 3); got != "1F03" {
		t.Errorf("IndexedKey = %q", got)
	}
	if got := IndexedKey(CmdDSTWatchState, 4); !bytes.Equal(got.Bytes(), []byte{0x1D, 0x04}) {
		t.Errorf("Bytes = % X", got.Bytes())
	}
	if got := Key("31").Command(); got != CmdReminderTime {
		t.Errorf("Command = %v", got)
	}
}

func TestKeyOfMatchesRequestKey(t *testing.T) {
	cases := []struct {
		payload []byte
		want    Key
	}{
		{[]byte{0x28, 0x13, 0x19}, "28"},
		{[]byte{0x1E, 0x02, 0x00, 0x01}, "1E02"},
		{[]byte{0x30, 0x05, 'x'}, "3005"},
		{[]byte{0x31, 0x01, 0x00, 0xFF}, "3101"},
		{[]byte{0x15, 0x01, 0x40, 7, 0}, "15"},
		{[]byte{0x1F}, "1F"},
		{nil, ""},
	}
	for _, c := range cases {
		if got := KeyOf(c.payload); got != c.want {
			t.Errorf("KeyOf(% X) = %q, want %q", c.payload, got, c.want)
		}
	}
}

func TestCommandString(t *testing.T) {
	if CmdAlarm2.String() != "ALARM2" {
		t.Errorf("String = %s", CmdAlarm2)
	}
	if Command(0x77).Known() {
		t.Error("0x77 should be unknown")
	}
	if Command(0x77).String() != "UNKNOWN(0x77)" {
		t.Errorf("String = %s", Command(0x77))
	}
}
