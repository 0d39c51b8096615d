// Package watchinfo maps an advertised watch name to the static
// capability profile of its model family.
package watchinfo

import "github.com/user/gshock-sync/casio"

// Model identifies a watch family
type Model int

const (
	ModelUnknown Model = iota
	ModelGA
	ModelGW
	ModelDW
	ModelGMW
	ModelGPR
	ModelGST
	ModelMSG
	ModelGB001
	ModelGBD
	ModelECB
	ModelMRG
	ModelOCW
	ModelGB
	ModelGM
)

var modelNames = map[Model]string{
	ModelUnknown: "UNKNOWN",
	ModelGA:      "GA",
	ModelGW:      "GW",
	ModelDW:      "DW",
	ModelGMW:     "GMW",
	ModelGPR:     "GPR",
	ModelGST:     "GST",
	ModelMSG:     "MSG",
	ModelGB001:   "GB001",
	ModelGBD:     "GBD",
	ModelECB:     "ECB",
	ModelMRG:     "MRG",
	ModelOCW:     "OCW",
	ModelGB:      "GB",
	ModelGM:      "GM",
}

func (m Model) String() string {
	if s, ok := modelNames[m]; ok {
		return s
	}
	return "UNKNOWN"
}

// Capabilities are the per-model limits and feature flags. A value is
// resolved once per connection and not modified afterwards.
type Capabilities struct {
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	Model     Model  `json:"model"`

	WorldCitiesCount int `json:"worldCitiesCount"`
	DSTCount         int `json:"dstCount"`
	AlarmCount       int `json:"alarmCount"`

	HasAutoLight          bool `json:"hasAutoLight"`
	HasReminders          bool `json:"hasReminders"`
	WeekLanguageSupported bool `json:"weekLanguageSupported"`
	WorldCities           bool `json:"worldCities"`
	Temperature           bool `json:"temperature"`
	AlwaysConnected       bool `json:"alwaysConnected"`
	FindButtonUserDefined bool `json:"findButtonUserDefined"`
	HasPowerSavingMode    bool `json:"hasPowerSavingMode"`
	HasDnD                bool `json:"hasDnD"`

	ShortLightDuration string `json:"shortLightDuration"`
	LongLightDuration  string `json:"longLightDuration"`

	BatteryLevelLower int `json:"batteryLevelLowerLimit"`
	BatteryLevelUpper int `json:"batteryLevelUpperLimit"`
}

// BatteryScale returns the calibration used to decode watch condition
func (c Capabilities) BatteryScale() casio.BatteryScale {
	return casio.BatteryScale{Lower: c.BatteryLevelLower, Upper: c.BatteryLevelUpper}
}

// LightDurationLabel renders a light duration setting for this model
func (c Capabilities) LightDurationLabel(d casio.LightDuration) string {
	if d == casio.LightLong {
		return c.LongLightDuration
	}
	return c.ShortLightDuration
}
