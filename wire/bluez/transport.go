package bluez

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"

	"github.com/user/gshock-sync/logger"
	"github.com/user/gshock-sync/wire"
)

// Transport is a GATT link to one watch through BlueZ
type Transport struct {
	conn    *dbus.Conn
	adapter dbus.ObjectPath

	mu       sync.Mutex
	address  string
	device   dbus.ObjectPath
	chars    map[uuid.UUID]dbus.ObjectPath
	rules    []string
	handlers map[dbus.ObjectPath]wire.NotifyFunc
	signals  chan *dbus.Signal
	done     chan struct{}
	dropped  chan struct{}
	wg       sync.WaitGroup
}

// NewTransport creates a transport on conn using the given adapter
func NewTransport(conn *dbus.Conn, adapter dbus.ObjectPath) *Transport {
	return &Transport{conn: conn, adapter: adapter}
}

func (t *Transport) Connect(ctx context.Context, address string) error {
	device := DevicePath(t.adapter, address)
	obj := t.conn.Object(busName, device)

	if err := obj.CallWithContext(ctx, deviceInterface+".Connect", 0).Err; err != nil {
		return wire.NewTransportError("connect", address, mapError(err))
	}

	// GATT objects appear only after service resolution
	deadline := time.Now().Add(wire.ServiceResolveTimeout)
	for {
		var resolved bool
		err := obj.CallWithContext(ctx, propertiesInterface+".Get", 0, deviceInterface, "ServicesResolved").Store(&resolved)
		if err == nil && resolved {
			break
		}
		if time.Now().After(deadline) {
			obj.Call(deviceInterface+".Disconnect", 0)
			return wire.NewTransportError("connect", address, fmt.Errorf("services not resolved after %s", wire.ServiceResolveTimeout))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wire.ServiceResolvePoll):
		}
	}

	rule := fmt.Sprintf("type='signal',interface='%s',member='PropertiesChanged',path='%s',arg0='%s'",
		propertiesInterface, device, deviceInterface)
	if err := t.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.AddMatch", 0, rule).Err; err != nil {
		obj.Call(deviceInterface+".Disconnect", 0)
		return wire.NewTransportError("connect", address, err)
	}

	signals := make(chan *dbus.Signal, 100)
	t.conn.Signal(signals)

	t.mu.Lock()
	t.address = address
	t.device = device
	t.rules = []string{rule}
	t.handlers = make(map[dbus.ObjectPath]wire.NotifyFunc)
	t.signals = signals
	t.done = make(chan struct{})
	t.dropped = make(chan struct{})
	done, dropped := t.done, t.dropped
	t.mu.Unlock()

	t.wg.Add(1)
	go t.readSignals(device, signals, done, dropped)

	logger.Info("bluez", "connected to %s", address)
	return nil
}

// readSignals routes characteristic values to their handlers and closes
// dropped when BlueZ reports the device disconnected.
func (t *Transport) readSignals(device dbus.ObjectPath, signals chan *dbus.Signal, done, dropped chan struct{}) {
	defer t.wg.Done()
	lost := false
	for {
		select {
		case <-done:
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			if sig == nil {
				continue
			}
			if sig.Path == device {
				if !lost && linkLost(sig) {
					lost = true
					logger.Info("bluez", "%s dropped the link", t.address)
					close(dropped)
				}
				continue
			}
			t.mu.Lock()
			fn := t.handlers[sig.Path]
			t.mu.Unlock()
			if fn == nil {
				continue
			}
			if value, ok := notificationValue(sig); ok {
				fn(value)
			}
		}
	}
}

// Dropped is closed when BlueZ reports the watch disconnected
func (t *Transport) Dropped() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

func (t *Transport) Characteristics(ctx context.Context) ([]uuid.UUID, error) {
	t.mu.Lock()
	device := t.device
	t.mu.Unlock()
	if device == "" {
		return nil, wire.ErrNotConnected
	}

	objects, err := getManagedObjects(t.conn)
	if err != nil {
		return nil, wire.NewTransportError("discover", t.address, err)
	}
	chars := characteristicsOf(objects, device)

	t.mu.Lock()
	t.chars = chars
	t.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(chars))
	for id := range chars {
		ids = append(ids, id)
	}
	return ids, nil
}

func (t *Transport) path(id uuid.UUID) (dbus.ObjectPath, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.device == "" {
		return "", wire.ErrNotConnected
	}
	p, ok := t.chars[id]
	if !ok {
		return "", fmt.Errorf("characteristic %s not found on %s", id, t.address)
	}
	return p, nil
}

func (t *Transport) WriteCharacteristic(ctx context.Context, id uuid.UUID, data []byte) error {
	p, err := t.path(id)
	if err != nil {
		return err
	}
	options := map[string]interface{}{}
	err = t.conn.Object(busName, p).CallWithContext(ctx, characteristicInterface+".WriteValue", 0, data, options).Err
	return mapError(err)
}

func (t *Transport) SubscribeNotify(ctx context.Context, id uuid.UUID, fn wire.NotifyFunc) error {
	p, err := t.path(id)
	if err != nil {
		return err
	}

	rule := fmt.Sprintf("type='signal',interface='%s',member='PropertiesChanged',path='%s',arg0='%s'",
		propertiesInterface, p, characteristicInterface)
	if err := t.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.AddMatch", 0, rule).Err; err != nil {
		return wire.NewTransportError("subscribe", t.address, err)
	}

	t.mu.Lock()
	t.rules = append(t.rules, rule)
	t.handlers[p] = fn
	t.mu.Unlock()

	if err := t.conn.Object(busName, p).CallWithContext(ctx, characteristicInterface+".StartNotify", 0).Err; err != nil {
		t.mu.Lock()
		delete(t.handlers, p)
		t.mu.Unlock()
		return wire.NewTransportError("subscribe", t.address, mapError(err))
	}
	logger.Debug("bluez", "notifications enabled on %s", p)
	return nil
}

func (t *Transport) Disconnect(ctx context.Context) error {
	t.mu.Lock()
	device, done := t.device, t.done
	rules, handlers, signals := t.rules, t.handlers, t.signals
	t.device, t.chars, t.rules, t.handlers, t.signals = "", nil, nil, nil, nil
	t.mu.Unlock()
	if device == "" {
		return nil
	}

	close(done)
	t.wg.Wait()
	t.conn.RemoveSignal(signals)
	for p := range handlers {
		t.conn.Object(busName, p).CallWithContext(ctx, characteristicInterface+".StopNotify", 0)
	}
	for _, rule := range rules {
		t.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.RemoveMatch", 0, rule)
	}

	err := mapError(t.conn.Object(busName, device).CallWithContext(ctx, deviceInterface+".Disconnect", 0).Err)
	if err != nil && !wire.IsIgnorable(err) {
		return wire.NewTransportError("disconnect", t.address, err)
	}
	logger.Info("bluez", "disconnected from %s", t.address)
	return nil
}
