// Package casio packs and unpacks the fixed-layout byte buffers exchanged
// with a Casio G-Shock watch over BLE. Every buffer except the app
// notification payload starts with a command byte identifying its content.
//
// Nothing in this package performs I/O.
package casio

import "fmt"

// Command is the leading byte of a watch request or notification
type Command byte

const (
	CmdCurrentTime        Command = 0x09
	CmdFindPhone          Command = 0x0A
	CmdBLEFeatures        Command = 0x10 // button that woke the watch
	CmdSettingForBLE      Command = 0x11 // time adjustment
	CmdSettingForBasic    Command = 0x13
	CmdAlarm              Command = 0x15
	CmdAlarm2             Command = 0x16
	CmdTimer              Command = 0x18
	CmdDSTWatchState      Command = 0x1D
	CmdDSTSetting         Command = 0x1E
	CmdWorldCities        Command = 0x1F
	CmdVersion            Command = 0x20
	CmdAppInformation     Command = 0x22
	CmdWatchName          Command = 0x23
	CmdModuleID           Command = 0x26
	CmdWatchCondition     Command = 0x28
	CmdReminderTitle      Command = 0x30
	CmdReminderTime       Command = 0x31
	CmdCurrentTimeManager Command = 0x39
	CmdError              Command = 0xFF
)

var commandNames = map[Command]string{
	CmdCurrentTime:        "CURRENT_TIME",
	CmdFindPhone:          "FIND_PHONE",
	CmdBLEFeatures:        "BLE_FEATURES",
	CmdSettingForBLE:      "SETTING_FOR_BLE",
	CmdSettingForBasic:    "SETTING_FOR_BASIC",
	CmdAlarm:              "ALARM",
	CmdAlarm2:             "ALARM2",
	CmdTimer:              "TIMER",
	CmdDSTWatchState:      "DST_WATCH_STATE",
	CmdDSTSetting:         "DST_SETTING",
	CmdWorldCities:        "WORLD_CITIES",
	CmdVersion:            "VERSION",
	CmdAppInformation:     "APP_INFORMATION",
	CmdWatchName:          "WATCH_NAME",
	CmdModuleID:           "MODULE_ID",
	CmdWatchCondition:     "WATCH_CONDITION",
	CmdReminderTitle:      "REMINDER_TITLE",
	CmdReminderTime:       "REMINDER_TIME",
	CmdCurrentTimeManager: "CURRENT_TIME_MANAGER",
	CmdError:              "ERROR",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(0x%02X)", byte(c))
}

// Known reports whether c is part of the watch command table
func (c Command) Known() bool {
	_, ok := commandNames[c]
	return ok
}

// Indexed reports whether responses to c carry a sub-index in their
// second byte (DST slots, world cities, reminders).
func (c Command) Indexed() bool {
	switch c {
	case CmdDSTWatchState, CmdDSTSetting, CmdWorldCities, CmdReminderTitle, CmdReminderTime:
		return true
	}
	return false
}

// Entity limits fixed by the watch firmware.
const (
	AlarmCount         = 5
	ReminderCount      = 5
	MaxWorldCities     = 6
	ReminderTitleBytes = 18
)

// printable keeps the printable ASCII bytes of b and drops everything else.
func printable(b []byte) string {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c >= 0x20 && c <= 0x7E {
			out = append(out, c)
		}
	}
	return string(out)
}

func toBCD(n int) byte {
	if n < 0 {
		n = 0
	}
	n %= 100
	return byte((n/10)<<4 | n%10)
}

func fromBCD(b byte) int {
	return int(b>>4)*10 + int(b&0x0F)
}
