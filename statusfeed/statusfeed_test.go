package statusfeed

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/user/gshock-sync/casio"
	"github.com/user/gshock-sync/session"
	"github.com/user/gshock-sync/wire"
	"github.com/user/gshock-sync/wire/sim"
)

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)

	before := h.Len()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(time.Second)
	for h.Len() == before {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func read(t *testing.T, conn *websocket.Conn) (Event, map[string]interface{}) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		t.Fatalf("payload %s: %v", ev.Payload, err)
	}
	return ev, payload
}

func TestStatusEvent(t *testing.T) {
	ev, err := StatusEvent(session.DisplayInfo{WatchName: "GW-B5600", BatteryPercent: 50, Temperature: -3, NextAlarm: "12:15", AutoSyncOn: true})
	if err != nil {
		t.Fatal(err)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if ev.Type != TypeStatus || payload["watchName"] != "GW-B5600" || payload["battery"] != 50.0 || payload["temperature"] != -3.0 || payload["autoSync"] != true {
		t.Errorf("event = %s %s", ev.Type, ev.Payload)
	}
}

func TestNewClientGetsLatestStatus(t *testing.T) {
	h := NewHub()
	h.ShowStatus(session.DisplayInfo{WatchName: "old"})
	h.ShowStatus(session.DisplayInfo{WatchName: "GMW-B5000", BatteryPercent: 80})

	conn := dial(t, h)
	ev, payload := read(t, conn)
	if ev.Type != TypeStatus || payload["watchName"] != "GMW-B5000" {
		t.Errorf("catch-up = %s %v", ev.Type, payload)
	}
}

func TestBroadcastReachesClients(t *testing.T) {
	h := NewHub()
	a := dial(t, h)
	b := dial(t, h)

	ev, err := StateEvent(session.StateConnected, wire.Device{Name: "CASIO GW-B5600", Address: "D0:4F:7E:12:34:56"})
	if err != nil {
		t.Fatal(err)
	}
	h.Broadcast(ev)

	for _, conn := range []*websocket.Conn{a, b} {
		got, payload := read(t, conn)
		if got.Type != TypeState || payload["state"] != "connected" || payload["address"] != "D0:4F:7E:12:34:56" {
			t.Errorf("got %s %v", got.Type, payload)
		}
	}
}

func TestClosedClientIsRemoved(t *testing.T) {
	h := NewHub()
	conn := dial(t, h)
	conn.Close()

	deadline := time.Now().Add(time.Second)
	for h.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("closed client still registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAttachForwardsRunnerEvents(t *testing.T) {
	w := sim.NewWatch(nil)
	w.PressButton(casio.ButtonLowerLeft)
	r := session.NewRunner(w.Scanner(), func() wire.Transport { return w.Transport() }, nil, session.Options{
		RequestTimeout: 200 * time.Millisecond,
		ScanTimeout:    time.Second,
	})
	h := NewHub()
	h.Attach(r)
	r.SetDisplay(h)

	if err := r.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	conn := dial(t, h)
	ev, payload := read(t, conn)
	if ev.Type != TypeState || payload["state"] != "disconnected" {
		t.Errorf("first catch-up = %s %v", ev.Type, payload)
	}
	ev, payload = read(t, conn)
	if ev.Type != TypeSynced || payload["button"] != "LOWER_LEFT" {
		t.Errorf("second catch-up = %s %v", ev.Type, payload)
	}
	ev, payload = read(t, conn)
	if ev.Type != TypeStatus || payload["watchName"] != "GW-B5600" {
		t.Errorf("third catch-up = %s %v", ev.Type, payload)
	}
}
