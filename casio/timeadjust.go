package casio

import "fmt"

// TimeAdjustment is the watch's own hourly radio/phone time sync setting
// carried in the 0x11 buffer.
type TimeAdjustment struct {
	Enabled          bool `json:"timeAdjustment"`
	MinutesAfterHour int  `json:"adjustmentTimeMinutes"`

	raw []byte
}

const (
	timeAdjustLen        = 14
	timeAdjustFlagOffset = 12
	timeAdjustMinOffset  = 13
	timeAdjustDisabled   = 0x80
)

// DecodeTimeAdjustment decodes a 0x11 response and keeps the raw buffer so
// that a later encode only touches the adjustment bytes.
func DecodeTimeAdjustment(b []byte) (TimeAdjustment, error) {
	if err := expect(b, CmdSettingForBLE, timeAdjustLen); err != nil {
		return TimeAdjustment{}, err
	}
	return TimeAdjustment{
		Enabled:          b[timeAdjustFlagOffset] == 0x00,
		MinutesAfterHour: int(b[timeAdjustMinOffset]),
		raw:              append([]byte(nil), b...),
	}, nil
}

// EncodeTimeAdjustment rewrites the adjustment bytes of the buffer last
// read from the watch.
func EncodeTimeAdjustment(t TimeAdjustment) ([]byte, error) {
	if len(t.raw) < timeAdjustLen {
		return nil, fmt.Errorf("time adjustment has no buffer read from the watch")
	}
	if t.MinutesAfterHour < 0 || t.MinutesAfterHour > 59 {
		return nil, fmt.Errorf("adjustment minute %d out of range 0-59", t.MinutesAfterHour)
	}
	out := append([]byte(nil), t.raw...)
	out[timeAdjustFlagOffset] = 0x00
	if !t.Enabled {
		out[timeAdjustFlagOffset] = timeAdjustDisabled
	}
	out[timeAdjustMinOffset] = byte(t.MinutesAfterHour)
	return out, nil
}
