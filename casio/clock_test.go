package casio

import (
	"bytes"
	"testing"
	"time"
)

func TestEncodeTimeLayout(t *testing.T) {
	// Friday
	ts := time.Date(2025, time.March, 14, 9, 26, 53, 0, time.UTC)
	got := EncodeTime(ts)
	want := []byte{0xE9, 0x07, 3, 14, 9, 26, 53, 4, 0x00, 0x01}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeTime = % X, want % X", got, want)
	}

	sunday := time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC)
	if wd := EncodeTime(sunday)[7]; wd != 6 {
		t.Errorf("sunday weekday byte = %d, want 6", wd)
	}
}

func TestTimeCommandRoundTrip(t *testing.T) {
	ts := time.Date(2024, time.February, 29, 23, 59, 59, 0, time.Local)
	buf := TimeCommand(ts)
	if len(buf) != 11 || buf[0] != 0x09 {
		t.Fatalf("TimeCommand = % X", buf)
	}
	got, err := DecodeTimeCommand(buf, time.Local)
	if err != nil {
		t.Fatalf("DecodeTimeCommand: %v", err)
	}
	if !got.Equal(ts) {
		t.Errorf("got %v, want %v", got, ts)
	}
}

func TestTimer(t *testing.T) {
	buf := EncodeTimer(3*3600 + 25*60 + 7)
	want := []byte{0x18, 3, 25, 7, 0, 0, 0}
	if !bytes.Equal(buf, want) {
		t.Fatalf("EncodeTimer = % X, want % X", buf, want)
	}
	secs, err := DecodeTimer(buf)
	if err != nil {
		t.Fatalf("DecodeTimer: %v", err)
	}
	if secs != 3*3600+25*60+7 {
		t.Errorf("DecodeTimer = %d", secs)
	}
	if got := EncodeTimer(-5); got[1] != 0 || got[2] != 0 || got[3] != 0 {
		t.Errorf("negative timer = % X", got)
	}
}

func TestTimeAdjustment(t *testing.T) {
	raw := []byte{0x11, 0x0F, 0x0F, 0x0F, 0x06, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x80, 0x30, 0x30}
	adj, err := DecodeTimeAdjustment(raw)
	if err != nil {
		t.Fatalf("DecodeTimeAdjustment: %v", err)
	}
	if adj.Enabled || adj.MinutesAfterHour != 0x30 {
		t.Errorf("decoded %+v", adj)
	}

	adj.Enabled = true
	adj.MinutesAfterHour = 10
	out, err := EncodeTimeAdjustment(adj)
	if err != nil {
		t.Fatalf("EncodeTimeAdjustment: %v", err)
	}
	want := append([]byte(nil), raw...)
	want[12] = 0x00
	want[13] = 10
	if !bytes.Equal(out, want) {
		t.Errorf("encoded % X, want % X", out, want)
	}

	if _, err := EncodeTimeAdjustment(TimeAdjustment{Enabled: true}); err == nil {
		t.Error("expected error without a buffer read from the watch")
	}
}

func TestAppInfoAndName(t *testing.T) {
	blank := []byte{0x22, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}
	if !NeedsAppInfoRepair(blank) {
		t.Error("blank app info not detected")
	}
	fix := AppInfoRepair()
	if NeedsAppInfoRepair(fix) || fix[0] != 0x22 || len(fix) != 12 {
		t.Errorf("repair buffer % X", fix)
	}

	name, err := DecodeWatchName(EncodeWatchName("CASIO GW-B5600"))
	if err != nil {
		t.Fatalf("DecodeWatchName: %v", err)
	}
	if name != "CASIO GW-B5600" {
		t.Errorf("name = %q", name)
	}
}
