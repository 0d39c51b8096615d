package casio

import (
	"bytes"
	"testing"
)

func TestSettingsRoundTrip(t *testing.T) {
	bools := []bool{false, true}
	for lang := English; lang <= Russian; lang++ {
		for _, tf := range []TimeFormat{TwelveHour, TwentyFourHour} {
			for _, df := range []DateFormat{MonthDay, DayMonth} {
				for _, ld := range []LightDuration{LightShort, LightLong} {
					for _, b := range bools {
						want := Settings{
							TimeFormat:      tf,
							DateFormat:      df,
							Language:        lang,
							LightDuration:   ld,
							AutoLight:       b,
							ButtonTone:      !b,
							PowerSavingMode: b,
						}
						buf := EncodeSettings(want)
						if len(buf) != 12 {
							t.Fatalf("buffer length %d", len(buf))
						}
						got, err := DecodeSettings(buf)
						if err != nil {
							t.Fatalf("decode %+v: %v", want, err)
						}
						if got != want {
							t.Fatalf("round trip: got %+v, want %+v", got, want)
						}
					}
				}
			}
		}
	}
}

func TestSettingsInvertedBits(t *testing.T) {
	buf := EncodeSettings(Settings{TimeFormat: TwentyFourHour})
	// button tone, auto light and power saving all off
	want := []byte{0x13, 0x17, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(buf, want) {
		t.Errorf("EncodeSettings = % X, want % X", buf, want)
	}

	got, err := DecodeSettings([]byte{0x13, 0x00, 0x01, 0x00, 0x01, 0x03, 0, 0, 0, 0, 0, 0})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.ButtonTone || !got.AutoLight || !got.PowerSavingMode {
		t.Errorf("OFF bits clear should decode to on: %+v", got)
	}
	if got.LightDuration != LightLong || got.DateFormat != DayMonth || got.Language != German {
		t.Errorf("decoded %+v", got)
	}
}

func TestSettingsRejectsUnknownLanguage(t *testing.T) {
	buf := EncodeSettings(Settings{})
	buf[5] = 9
	if _, err := DecodeSettings(buf); err == nil {
		t.Error("expected error for language index 9")
	}
}

func TestParseLanguage(t *testing.T) {
	l, err := ParseLanguage("Italian")
	if err != nil || l != Italian {
		t.Errorf("ParseLanguage(Italian) = %v, %v", l, err)
	}
	if _, err := ParseLanguage("Klingon"); err == nil {
		t.Error("expected error")
	}
}
