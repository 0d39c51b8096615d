package casio

import "time"

const timeBodyLen = 10

// EncodeTime builds the 10-byte clock body: year LE16, month, day, hour,
// minute, second, weekday with Monday = 0, then the trailer 0x00 0x01.
func EncodeTime(t time.Time) []byte {
	year := t.Year()
	return []byte{
		byte(year & 0xFF),
		byte(year >> 8 & 0xFF),
		byte(t.Month()),
		byte(t.Day()),
		byte(t.Hour()),
		byte(t.Minute()),
		byte(t.Second()),
		byte((int(t.Weekday()) + 6) % 7),
		0x00,
		0x01,
	}
}

// TimeCommand prefixes the clock body with the 0x09 command byte
func TimeCommand(t time.Time) []byte {
	return append([]byte{byte(CmdCurrentTime)}, EncodeTime(t)...)
}

// DecodeTimeCommand is the inverse of TimeCommand. The result is in loc.
func DecodeTimeCommand(b []byte, loc *time.Location) (time.Time, error) {
	if err := expect(b, CmdCurrentTime, 1+timeBodyLen); err != nil {
		return time.Time{}, err
	}
	year := int(b[1]) | int(b[2])<<8
	return time.Date(year, time.Month(b[3]), int(b[4]), int(b[5]), int(b[6]), int(b[7]), 0, loc), nil
}
