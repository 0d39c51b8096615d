package casio

import "math"

// BatteryScale is the per-model calibration of the raw battery byte
type BatteryScale struct {
	Lower int
	Upper int
}

// WatchCondition is the decoded 0x28 response
type WatchCondition struct {
	BatteryPercent int `json:"batteryLevelPercent"`
	Temperature    int `json:"temperature"`
}

// BatteryPercent rescales a raw battery reading linearly between the
// model's limits and clamps the result to 0..100.
func BatteryPercent(raw int, scale BatteryScale) int {
	span := scale.Upper - scale.Lower
	if span <= 0 {
		return 0
	}
	p := int(math.Round(float64(raw-scale.Lower) * (100.0 / float64(span))))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// DecodeWatchCondition decodes [0x28, battery, temperature, ...]
func DecodeWatchCondition(b []byte, scale BatteryScale) (WatchCondition, error) {
	if err := expect(b, CmdWatchCondition, 3); err != nil {
		return WatchCondition{}, err
	}
	return WatchCondition{
		BatteryPercent: BatteryPercent(int(b[1]), scale),
		Temperature:    int(int8(b[2])),
	}, nil
}
