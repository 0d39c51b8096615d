package casio

import "fmt"

type TimeFormat int

const (
	TwelveHour TimeFormat = iota
	TwentyFourHour
)

func (f TimeFormat) String() string {
	if f == TwentyFourHour {
		return "24h"
	}
	return "12h"
}

type DateFormat int

const (
	MonthDay DateFormat = iota // MM:DD
	DayMonth                   // DD:MM
)

func (f DateFormat) String() string {
	if f == DayMonth {
		return "DD:MM"
	}
	return "MM:DD"
}

// Language is the watch display language, stored as its index
type Language int

const (
	English Language = iota
	Spanish
	French
	German
	Italian
	Russian
)

var languageNames = [...]string{"English", "Spanish", "French", "German", "Italian", "Russian"}

func (l Language) String() string {
	if l >= English && l <= Russian {
		return languageNames[l]
	}
	return fmt.Sprintf("Language(%d)", int(l))
}

// ParseLanguage maps a language name to its index
func ParseLanguage(name string) (Language, error) {
	for i, n := range languageNames {
		if n == name {
			return Language(i), nil
		}
	}
	return English, fmt.Errorf("unknown language %q", name)
}

type LightDuration int

const (
	LightShort LightDuration = iota // 2s on most models
	LightLong                       // 4s
)

// Settings is the basic watch configuration
type Settings struct {
	TimeFormat      TimeFormat    `json:"timeFormat"`
	DateFormat      DateFormat    `json:"dateFormat"`
	Language        Language      `json:"language"`
	AutoLight       bool          `json:"autoLight"`
	LightDuration   LightDuration `json:"lightDuration"`
	ButtonTone      bool          `json:"buttonTone"`
	PowerSavingMode bool          `json:"powerSavingMode"`
}

const (
	settingsLen = 12

	mask24Hours         = 0x01
	maskButtonToneOff   = 0x02
	maskLightOff        = 0x04
	maskPowerSavingMode = 0x10
)

// EncodeSettings builds the 12-byte 0x13 buffer. Button tone, auto light
// and power saving are stored with inverted (OFF) sense.
func EncodeSettings(s Settings) []byte {
	arr := make([]byte, settingsLen)
	arr[0] = byte(CmdSettingForBasic)
	if s.TimeFormat == TwentyFourHour {
		arr[1] |= mask24Hours
	}
	if !s.ButtonTone {
		arr[1] |= maskButtonToneOff
	}
	if !s.AutoLight {
		arr[1] |= maskLightOff
	}
	if !s.PowerSavingMode {
		arr[1] |= maskPowerSavingMode
	}
	if s.LightDuration == LightLong {
		arr[2] = 1
	}
	if s.DateFormat == DayMonth {
		arr[4] = 1
	}
	arr[5] = byte(s.Language)
	return arr
}

// DecodeSettings decodes a 0x13 response
func DecodeSettings(b []byte) (Settings, error) {
	if err := expect(b, CmdSettingForBasic, 6); err != nil {
		return Settings{}, err
	}
	if b[5] > byte(Russian) {
		return Settings{}, &DecodeError{Cmd: CmdSettingForBasic, Offset: 5, Msg: fmt.Sprintf("language index %d", b[5])}
	}
	s := Settings{
		ButtonTone:      b[1]&maskButtonToneOff == 0,
		AutoLight:       b[1]&maskLightOff == 0,
		PowerSavingMode: b[1]&maskPowerSavingMode == 0,
		Language:        Language(b[5]),
	}
	if b[1]&mask24Hours != 0 {
		s.TimeFormat = TwentyFourHour
	}
	if b[2] == 1 {
		s.LightDuration = LightLong
	}
	if b[4] == 1 {
		s.DateFormat = DayMonth
	}
	return s, nil
}
