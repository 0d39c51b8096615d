package casio

import "fmt"

// Alarm is one daily alarm slot on the watch
type Alarm struct {
	Hour           int  `json:"hour"`
	Minute         int  `json:"minute"`
	Enabled        bool `json:"enabled"`
	HasHourlyChime bool `json:"hasHourlyChime"`
}

const (
	alarmEnabledMask = 0x01
	alarmChimeMask   = 0x80
	alarmFixedByte   = 0x40

	alarmRecordLen     = 4
	firstAlarmLen      = 1 + alarmRecordLen
	secondaryAlarmsLen = 1 + 4*alarmRecordLen
)

// Validate checks the hour and minute ranges
func (a Alarm) Validate() error {
	if a.Hour < 0 || a.Hour > 23 {
		return fmt.Errorf("alarm hour %d out of range 0-23", a.Hour)
	}
	if a.Minute < 0 || a.Minute > 59 {
		return fmt.Errorf("alarm minute %d out of range 0-59", a.Minute)
	}
	return nil
}

func (a Alarm) String() string {
	return fmt.Sprintf("%02d:%02d", a.Hour, a.Minute)
}

func (a Alarm) record() []byte {
	var flags byte
	if a.Enabled {
		flags |= alarmEnabledMask
	}
	if a.HasHourlyChime {
		flags |= alarmChimeMask
	}
	return []byte{flags, alarmFixedByte, byte(a.Hour), byte(a.Minute)}
}

func alarmFromRecord(r []byte) Alarm {
	return Alarm{
		Enabled:        r[0]&alarmEnabledMask != 0,
		HasHourlyChime: r[0]&alarmChimeMask != 0,
		Hour:           int(r[2]),
		Minute:         int(r[3]),
	}
}

// EncodeFirstAlarm builds [0x15, flags, 0x40, hour, minute]
func EncodeFirstAlarm(a Alarm) []byte {
	return append([]byte{byte(CmdAlarm)}, a.record()...)
}

// EncodeSecondaryAlarms builds [0x16] followed by one 4-byte record for
// each of alarms[0..3]. Missing slots are written as disabled 00:00.
func EncodeSecondaryAlarms(alarms []Alarm) []byte {
	out := make([]byte, 0, secondaryAlarmsLen)
	out = append(out, byte(CmdAlarm2))
	for i := 0; i < 4; i++ {
		var a Alarm
		if i < len(alarms) {
			a = alarms[i]
		}
		out = append(out, a.record()...)
	}
	return out
}

// EncodeAlarms validates a full alarm list and returns the two buffers
// written to the watch, first alarm then secondary alarms.
func EncodeAlarms(alarms []Alarm) (first, secondary []byte, err error) {
	if len(alarms) == 0 {
		return nil, nil, fmt.Errorf("no alarms to encode")
	}
	if len(alarms) > AlarmCount {
		return nil, nil, fmt.Errorf("%d alarms exceeds the watch limit of %d", len(alarms), AlarmCount)
	}
	for i, a := range alarms {
		if err := a.Validate(); err != nil {
			return nil, nil, fmt.Errorf("alarm %d: %w", i, err)
		}
	}
	return EncodeFirstAlarm(alarms[0]), EncodeSecondaryAlarms(alarms[1:]), nil
}

// DecodeFirstAlarm decodes a 0x15 response
func DecodeFirstAlarm(b []byte) (Alarm, error) {
	if err := expect(b, CmdAlarm, firstAlarmLen); err != nil {
		return Alarm{}, err
	}
	return alarmFromRecord(b[1:firstAlarmLen]), nil
}

// DecodeSecondaryAlarms decodes a 0x16 response into four alarms
func DecodeSecondaryAlarms(b []byte) ([]Alarm, error) {
	if err := expect(b, CmdAlarm2, secondaryAlarmsLen); err != nil {
		return nil, err
	}
	body := b[1:secondaryAlarmsLen]
	alarms := make([]Alarm, 0, 4)
	for off := 0; off < len(body); off += alarmRecordLen {
		alarms = append(alarms, alarmFromRecord(body[off:off+alarmRecordLen]))
	}
	return alarms, nil
}
