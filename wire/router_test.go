package wire

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/user/gshock-sync/casio"
	"github.com/user/gshock-sync/wire/debug"
	"github.com/user/gshock-sync/wire/gatt"
	"github.com/user/gshock-sync/wire/pending"
)

type recordedWrite struct {
	id   uuid.UUID
	data []byte
}

type fakeTransport struct {
	mu       sync.Mutex
	writes   []recordedWrite
	writeErr error
}

func (f *fakeTransport) Connect(ctx context.Context, address string) error { return nil }
func (f *fakeTransport) Disconnect(ctx context.Context) error              { return nil }
func (f *fakeTransport) Characteristics(ctx context.Context) ([]uuid.UUID, error) {
	return []uuid.UUID{gatt.ReadRequestUUID, gatt.AllFeaturesUUID}, nil
}
func (f *fakeTransport) SubscribeNotify(ctx context.Context, id uuid.UUID, fn NotifyFunc) error {
	return nil
}
func (f *fakeTransport) WriteCharacteristic(ctx context.Context, id uuid.UUID, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, recordedWrite{id, append([]byte(nil), data...)})
	return f.writeErr
}

func newTestRouter(t *testing.T) (*Router, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{}
	tbl := gatt.NewTable()
	ids, _ := ft.Characteristics(context.Background())
	tbl.MarkSupported(ids)
	return NewRouter(ft, tbl, pending.NewRegistry(time.Second)), ft
}

func TestRouter_WriteResolvesHandle(t *testing.T) {
	r, ft := newTestRouter(t)

	res, err := r.Write(context.Background(), gatt.HandleRequest, []byte{0x28})
	if err != nil || res != WriteOK {
		t.Fatalf("Write = %v, %v", res, err)
	}
	if len(ft.writes) != 1 || ft.writes[0].id != gatt.ReadRequestUUID {
		t.Fatalf("Unexpected writes: %+v", ft.writes)
	}
}

func TestRouter_WriteUnsupportedHandle(t *testing.T) {
	r, ft := newTestRouter(t)

	res, err := r.Write(context.Background(), gatt.HandleNotification, []byte{0x00})
	if err != nil {
		t.Fatalf("Unsupported write returned error: %v", err)
	}
	if res != WriteUnsupported {
		t.Errorf("Expected WriteUnsupported, got %v", res)
	}
	if len(ft.writes) != 0 {
		t.Error("Unsupported write reached the transport")
	}

	if res, _ := r.Write(context.Background(), gatt.Handle(0x77), nil); res != WriteUnsupported {
		t.Errorf("Unknown handle: got %v", res)
	}
}

func TestRouter_WriteClassifiesErrors(t *testing.T) {
	r, ft := newTestRouter(t)

	ft.writeErr = io.EOF
	if res, _ := r.Write(context.Background(), gatt.HandleAllFeatures, []byte{0x09}); res != WriteRetryable {
		t.Errorf("EOF: got %v, want retryable", res)
	}

	ft.writeErr = errors.New("adapter gone")
	res, err := r.Write(context.Background(), gatt.HandleAllFeatures, []byte{0x09})
	if res != WriteFatal {
		t.Errorf("Generic error: got %v, want fatal", res)
	}
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "write" {
		t.Errorf("Expected TransportError, got %v", err)
	}
}

func await(t *testing.T, r *Router, key casio.Key, raw []byte) pending.Result {
	t.Helper()
	req, err := r.Registry().Register(key, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("Register %s: %v", key, err)
	}
	r.Dispatch(raw)
	res, err := req.Await(context.Background())
	if err != nil {
		t.Fatalf("Await %s: %v", key, err)
	}
	return res
}

func TestRouter_DispatchDecodesByCommand(t *testing.T) {
	r, _ := newTestRouter(t)
	r.SetBatteryScale(casio.BatteryScale{Lower: 9, Upper: 19})

	button := make([]byte, 19)
	button[0] = 0x10
	button[8] = 4
	if res := await(t, r, "10", button); res.Value != casio.ButtonLowerRight {
		t.Errorf("button = %v", res.Value)
	}

	res := await(t, r, "28", []byte{0x28, 14, 21})
	cond, ok := res.Value.(casio.WatchCondition)
	if !ok || cond.BatteryPercent != 50 || cond.Temperature != 21 {
		t.Errorf("condition = %#v", res.Value)
	}

	city := []byte{0x1F, 0x03, 'T', 'O', 'K', 'Y', 'O'}
	res = await(t, r, "1F03", city)
	raw, ok := res.Value.([]byte)
	if !ok || string(raw) != string(city) {
		t.Errorf("world city = %#v", res.Value)
	}

	res = await(t, r, "15", casio.EncodeFirstAlarm(casio.Alarm{Hour: 6, Minute: 30, Enabled: true}))
	if a, ok := res.Value.(casio.Alarm); !ok || a.Hour != 6 || !a.Enabled {
		t.Errorf("alarm = %#v", res.Value)
	}

	res = await(t, r, "3101", []byte{0x31, 0x01, 0x00, 0xFF})
	if rt, ok := res.Value.(casio.ReminderTime); !ok || !rt.End {
		t.Errorf("reminder end = %#v", res.Value)
	}
}

func TestRouter_DispatchDropsBadPayloads(t *testing.T) {
	r, _ := newTestRouter(t)
	reg := r.Registry()

	req, _ := reg.Register("28", 20*time.Millisecond)

	r.Dispatch(nil)
	r.Dispatch([]byte{0x77, 0x01})       // unknown command
	r.Dispatch([]byte{0x28, 0x01})       // too short to decode
	r.Dispatch([]byte{0xFF, 0x28, 0x00}) // watch error

	res, _ := req.Await(context.Background())
	if !res.TimedOut {
		t.Errorf("Expected timeout after malformed notifications, got %+v", res)
	}
}

func TestRouter_DispatchCopiesPayload(t *testing.T) {
	r, _ := newTestRouter(t)
	reg := r.Registry()
	req, _ := reg.Register("1D00", time.Second)

	buf := []byte{0x1D, 0x00, 0x01, 0x02}
	r.Dispatch(buf)
	buf[2] = 0xAA

	res, _ := req.Await(context.Background())
	if got := res.Value.([]byte); got[2] != 0x01 {
		t.Error("Dispatch kept a reference to the transport buffer")
	}
}

func TestMatchWatch(t *testing.T) {
	match := MatchWatch("", []string{"GW-B5600"})
	if !match(Device{Name: "CASIO GA-B2100"}) {
		t.Error("GA should match")
	}
	if match(Device{Name: "CASIO GW-B5600"}) {
		t.Error("excluded model matched")
	}
	if match(Device{Name: "Polar H10"}) {
		t.Error("non-Casio device matched")
	}

	byAddr := MatchWatch("AA:BB:CC:DD:EE:FF", nil)
	if !byAddr(Device{Name: "casio gw", Address: "aa:bb:cc:dd:ee:ff"}) {
		t.Error("address match should be case insensitive")
	}
	if byAddr(Device{Name: "CASIO GW", Address: "11:22:33:44:55:66"}) {
		t.Error("wrong address matched")
	}
}

func TestRouter_PacketLog(t *testing.T) {
	r, _ := newTestRouter(t)
	packets := debug.NewPacketLogger(t.TempDir(), true)
	r.SetPacketLog(packets, "D0:4F:7E:12:34:56")

	if _, err := r.Write(context.Background(), gatt.HandleRequest, []byte{0x23}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	await(t, r, "23", append([]byte{0x23}, []byte("CASIO GW-B5600\x00\x00\x00\x00\x00\x00")...))

	data, err := os.ReadFile(packets.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("got %d packet lines: %s", len(lines), data)
	}
	if !bytes.Contains(lines[0], []byte(`"direction":"tx"`)) || !bytes.Contains(lines[1], []byte(`"direction":"rx"`)) {
		t.Errorf("unexpected packet log:\n%s", data)
	}
}
