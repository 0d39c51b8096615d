package sim

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/user/gshock-sync/casio"
	"github.com/user/gshock-sync/wire"
	"github.com/user/gshock-sync/wire/gatt"
)

func connect(t *testing.T, w *Watch) (*Transport, chan []byte) {
	t.Helper()
	ctx := context.Background()
	tr := w.Transport()
	if err := tr.Connect(ctx, w.Config().Address); err != nil {
		t.Fatalf("connect: %v", err)
	}
	got := make(chan []byte, 8)
	if err := tr.SubscribeNotify(ctx, gatt.AllFeaturesUUID, func(b []byte) { got <- b }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	t.Cleanup(func() { tr.Disconnect(context.Background()) })
	return tr, got
}

func receive(t *testing.T, got chan []byte) []byte {
	t.Helper()
	select {
	case b := <-got:
		return b
	case <-time.After(time.Second):
		t.Fatal("no notification")
		return nil
	}
}

func TestReadRequestIsAnswered(t *testing.T) {
	w := NewWatch(nil)
	w.PressButton(casio.ButtonLowerLeft)
	tr, got := connect(t, w)

	if err := tr.WriteCharacteristic(context.Background(), gatt.ReadRequestUUID, casio.CommandKey(casio.CmdBLEFeatures).Bytes()); err != nil {
		t.Fatalf("write: %v", err)
	}
	b := receive(t, got)
	if btn := casio.DecodeButton(b); btn != casio.ButtonLowerLeft {
		t.Errorf("button = %s, want LOWER_LEFT", btn)
	}

	reqs := w.Requests()
	if len(reqs) != 1 || reqs[0] != "10" {
		t.Errorf("requests = %v", reqs)
	}
}

func TestIndexedReadEchoesIndex(t *testing.T) {
	w := NewWatch(nil)
	tr, got := connect(t, w)

	tr.WriteCharacteristic(context.Background(), gatt.ReadRequestUUID, casio.IndexedKey(casio.CmdWorldCities, 3).Bytes())
	b := receive(t, got)
	if casio.KeyOf(b) != "1F03" {
		t.Errorf("key = %s, want 1F03", casio.KeyOf(b))
	}
}

func TestAllFeaturesWriteUpdatesState(t *testing.T) {
	w := NewWatch(nil)
	tr, _ := connect(t, w)
	ctx := context.Background()

	now := time.Date(2024, 3, 9, 14, 5, 0, 0, time.Local)
	if err := tr.WriteCharacteristic(ctx, gatt.AllFeaturesUUID, casio.TimeCommand(now)); err != nil {
		t.Fatalf("time write: %v", err)
	}
	if !w.Clock().Equal(now) {
		t.Errorf("clock = %v, want %v", w.Clock(), now)
	}

	tr.WriteCharacteristic(ctx, gatt.AllFeaturesUUID, casio.EncodeTimer(3725))
	if w.Timer() != 3725 {
		t.Errorf("timer = %d", w.Timer())
	}

	writes := w.Writes()
	if len(writes) != 2 || writes[0].Handle != gatt.HandleAllFeatures {
		t.Errorf("writes = %+v", writes)
	}
}

func TestNotificationIsDecoded(t *testing.T) {
	w := NewWatch(nil)
	tr, _ := connect(t, w)

	n := casio.AppNotification{Type: casio.NotifyEmail, Timestamp: "20240309T140500", App: "Mail", Title: "hi", Text: "body"}
	if err := tr.WriteCharacteristic(context.Background(), gatt.NotificationUUID, casio.XOR(casio.EncodeAppNotification(n))); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := w.Notifications()
	if len(got) != 1 || got[0].Title != "hi" || got[0].App != "Mail" {
		t.Errorf("notifications = %+v", got)
	}
}

func TestEOFOnTimeWrite(t *testing.T) {
	cfg := PerfectConfig()
	cfg.EOFOnTimeWrite = true
	w := NewWatch(cfg)
	tr, _ := connect(t, w)

	err := tr.WriteCharacteristic(context.Background(), gatt.AllFeaturesUUID, casio.TimeCommand(time.Now()))
	if !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want EOF", err)
	}
	if w.Clock().IsZero() {
		t.Error("time should still be applied")
	}
	if err := tr.WriteCharacteristic(context.Background(), gatt.AllFeaturesUUID, casio.EncodeTimer(1)); !errors.Is(err, wire.ErrNotConnected) {
		t.Errorf("write after drop = %v", err)
	}
}

func TestUnsupportedHandlesAreHidden(t *testing.T) {
	cfg := PerfectConfig()
	cfg.Unsupported = []gatt.Handle{gatt.HandleNotification}
	w := NewWatch(cfg)
	tr, _ := connect(t, w)

	ids, err := tr.Characteristics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range ids {
		if id == gatt.NotificationUUID {
			t.Error("notification characteristic should be hidden")
		}
	}
	if len(ids) != len(gatt.All())-1 {
		t.Errorf("got %d characteristics", len(ids))
	}
}

func TestSilentCommand(t *testing.T) {
	cfg := PerfectConfig()
	cfg.Silent = []casio.Command{casio.CmdWatchCondition}
	w := NewWatch(cfg)
	tr, got := connect(t, w)

	tr.WriteCharacteristic(context.Background(), gatt.ReadRequestUUID, casio.CommandKey(casio.CmdWatchCondition).Bytes())
	select {
	case b := <-got:
		t.Errorf("unexpected answer %x", b)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestReminderEndMarkers(t *testing.T) {
	w := NewWatch(nil)
	w.AddEvent(casio.Event{Index: 1, Title: "Dentist", Enabled: true, RepeatPeriod: casio.RepeatNever,
		StartDate: casio.EventDate{Year: 2024, Month: time.May, Day: 2}, EndDate: casio.EventDate{Year: 2024, Month: time.May, Day: 2}})
	tr, got := connect(t, w)
	ctx := context.Background()

	tr.WriteCharacteristic(ctx, gatt.ReadRequestUUID, casio.IndexedKey(casio.CmdReminderTitle, 1).Bytes())
	title, err := casio.DecodeReminderTitle(receive(t, got))
	if err != nil || title.Title != "Dentist" {
		t.Fatalf("title = %+v, %v", title, err)
	}

	tr.WriteCharacteristic(ctx, gatt.ReadRequestUUID, casio.IndexedKey(casio.CmdReminderTime, 2).Bytes())
	tm, err := casio.DecodeReminderTime(receive(t, got))
	if err != nil || !tm.End {
		t.Fatalf("time = %+v, %v", tm, err)
	}
}

func TestConnectRejectsSecondLink(t *testing.T) {
	w := NewWatch(nil)
	connect(t, w)
	if err := w.Transport().Connect(context.Background(), w.Config().Address); err == nil {
		t.Error("second connect should fail")
	}
}

func TestScannerWaitsForReadvertise(t *testing.T) {
	cfg := PerfectConfig()
	cfg.ReadvertiseAfter = 50 * time.Millisecond
	w := NewWatch(cfg)
	tr, _ := connect(t, w)
	tr.Disconnect(context.Background())

	start := time.Now()
	dev, err := w.Scanner().ScanForDevice(context.Background(), wire.MatchWatch("", nil), time.Second)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if dev.Address != cfg.Address {
		t.Errorf("address = %s", dev.Address)
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Error("watch advertised before readvertise delay")
	}
}

func TestScannerTimesOutOnExcludedWatch(t *testing.T) {
	w := NewWatch(nil)
	_, err := w.Scanner().ScanForDevice(context.Background(), wire.MatchWatch("", []string{"GW-B5600"}), 30*time.Millisecond)
	if !errors.Is(err, wire.ErrDeviceNotFound) {
		t.Errorf("err = %v, want ErrDeviceNotFound", err)
	}
}

func TestDeterministicSimulator(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Deterministic = true
	cfg.Seed = 7
	a, b := newSimulator(cfg), newSimulator(cfg)
	for i := 0; i < 20; i++ {
		if a.responseDelay() != b.responseDelay() {
			t.Fatal("same seed should give the same delays")
		}
	}
}
