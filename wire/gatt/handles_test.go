package gatt

import (
	"testing"

	"github.com/google/uuid"
)

func TestTableLookup(t *testing.T) {
	tbl := NewTable()

	c, ok := tbl.Lookup(HandleAllFeatures)
	if !ok {
		t.Fatal("all-features handle missing")
	}
	if c.UUID != uuid.MustParse("26eb002d-b012-49a8-b1f8-394fb2032b0f") {
		t.Errorf("UUID = %s", c.UUID)
	}

	h, ok := tbl.HandleOf(ReadRequestUUID)
	if !ok || h != HandleRequest {
		t.Errorf("HandleOf(read request) = 0x%02X, %v", uint16(h), ok)
	}

	if _, ok := tbl.Lookup(Handle(0x42)); ok {
		t.Error("unexpected handle 0x42 in table")
	}
}

func TestUUID16(t *testing.T) {
	want := uuid.MustParse("00002a00-0000-1000-8000-00805f9b34fb")
	if got := UUID16(0x2A00); got != want {
		t.Errorf("UUID16(0x2A00) = %s, want %s", got, want)
	}
}

func TestMarkSupported(t *testing.T) {
	tbl := NewTable()

	if tbl.Supported(HandleAllFeatures) {
		t.Fatal("nothing should be supported before discovery")
	}

	n := tbl.MarkSupported([]uuid.UUID{
		AllFeaturesUUID,
		ReadRequestUUID,
		uuid.MustParse("0000180f-0000-1000-8000-00805f9b34fb"), // battery service, not ours
	})
	if n != 2 {
		t.Errorf("MarkSupported = %d, want 2", n)
	}
	if !tbl.Supported(HandleRequest) || !tbl.Supported(HandleAllFeatures) {
		t.Error("discovered handles not supported")
	}
	if tbl.Supported(HandleNotification) {
		t.Error("notification handle should be unsupported")
	}

	got := tbl.SupportedHandles()
	if len(got) != 2 || got[0] != HandleRequest || got[1] != HandleAllFeatures {
		t.Errorf("SupportedHandles = %v", got)
	}

	// a fresh discovery replaces the previous set
	tbl.MarkSupported([]uuid.UUID{NotificationUUID})
	if tbl.Supported(HandleRequest) || !tbl.Supported(HandleNotification) {
		t.Error("supported set not replaced")
	}
}

func TestAllOrdered(t *testing.T) {
	all := All()
	if len(all) != 9 {
		t.Fatalf("len(All) = %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Handle >= all[i].Handle {
			t.Fatalf("All not ordered at %d", i)
		}
	}
}
