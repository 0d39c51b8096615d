package casio

const timerLen = 7

// EncodeTimer builds [0x18, hours, minutes, seconds, 0, 0, 0]
func EncodeTimer(seconds int) []byte {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	if h > 0xFF {
		h = 0xFF
	}
	m := seconds % 3600 / 60
	s := seconds % 60
	return []byte{byte(CmdTimer), byte(h), byte(m), byte(s), 0, 0, 0}
}

// DecodeTimer returns the countdown timer length in seconds
func DecodeTimer(b []byte) (int, error) {
	if err := expect(b, CmdTimer, 4); err != nil {
		return 0, err
	}
	return int(b[1])*3600 + int(b[2])*60 + int(b[3]), nil
}
