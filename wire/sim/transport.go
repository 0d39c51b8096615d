package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/gshock-sync/casio"
	"github.com/user/gshock-sync/logger"
	"github.com/user/gshock-sync/wire"
	"github.com/user/gshock-sync/wire/gatt"
)

// Transport is one connection to a simulated watch
type Transport struct {
	watch *Watch
	table *gatt.Table

	mu        sync.Mutex
	connected bool
	notify    wire.NotifyFunc
	dropped   chan struct{}
	wg        sync.WaitGroup
}

// Transport opens a new link object to the watch
func (w *Watch) Transport() *Transport {
	return &Transport{watch: w, table: gatt.NewTable()}
}

func (t *Transport) Connect(ctx context.Context, address string) error {
	w := t.watch
	if !strings.EqualFold(address, w.config.Address) {
		return wire.NewTransportError("connect", address, wire.ErrDeviceNotFound)
	}

	select {
	case <-time.After(w.sim.connectionDelay()):
	case <-ctx.Done():
		return ctx.Err()
	}
	if w.sim.connectionFails() {
		return wire.NewTransportError("connect", address, errors.New("connection attempt failed"))
	}

	w.mu.Lock()
	if w.connected {
		w.mu.Unlock()
		return wire.NewTransportError("connect", address, errors.New("watch already connected"))
	}
	w.connected = true
	w.link = t
	w.mu.Unlock()

	t.mu.Lock()
	t.connected = true
	t.dropped = make(chan struct{})
	t.mu.Unlock()
	logger.Debug("sim", "connected to %s", address)
	return nil
}

func (t *Transport) Disconnect(ctx context.Context) error {
	t.drop()
	// wait for in-flight responses so none fire after the cycle ends
	t.wg.Wait()
	return nil
}

func (t *Transport) drop() {
	t.mu.Lock()
	was := t.connected
	t.connected = false
	t.notify = nil
	if was {
		close(t.dropped)
	}
	t.mu.Unlock()
	if !was {
		return
	}

	w := t.watch
	w.mu.Lock()
	w.connected = false
	if w.link == t {
		w.link = nil
	}
	w.lastDisconnect = time.Now()
	w.mu.Unlock()
}

// Dropped is closed when the link ends, from either side
func (t *Transport) Dropped() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

func (t *Transport) isConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Characteristics lists every table characteristic except the handles the
// config marks unsupported.
func (t *Transport) Characteristics(ctx context.Context) ([]uuid.UUID, error) {
	if !t.isConnected() {
		return nil, wire.ErrNotConnected
	}
	skip := make(map[gatt.Handle]bool, len(t.watch.config.Unsupported))
	for _, h := range t.watch.config.Unsupported {
		skip[h] = true
	}
	var ids []uuid.UUID
	for _, c := range gatt.All() {
		if !skip[c.Handle] {
			ids = append(ids, c.UUID)
		}
	}
	return ids, nil
}

func (t *Transport) SubscribeNotify(ctx context.Context, id uuid.UUID, fn wire.NotifyFunc) error {
	if !t.isConnected() {
		return wire.ErrNotConnected
	}
	if id != gatt.AllFeaturesUUID {
		return fmt.Errorf("characteristic %s does not notify", id)
	}
	t.mu.Lock()
	t.notify = fn
	t.mu.Unlock()
	return nil
}

func (t *Transport) WriteCharacteristic(ctx context.Context, id uuid.UUID, data []byte) error {
	if !t.isConnected() {
		return wire.ErrNotConnected
	}
	h, ok := t.table.HandleOf(id)
	if !ok {
		return fmt.Errorf("unknown characteristic %s", id)
	}
	w := t.watch
	w.record(h, data)

	switch h {
	case gatt.HandleRequest:
		t.answer(data)
	case gatt.HandleAllFeatures:
		w.apply(data)
		if w.config.EOFOnTimeWrite && len(data) > 0 && casio.Command(data[0]) == casio.CmdCurrentTime {
			t.drop()
			return io.EOF
		}
	case gatt.HandleNotification:
		if err := w.notify(data); err != nil {
			return fmt.Errorf("notification rejected: %w", err)
		}
	}
	return nil
}

// answer sends the response to a read request after the response delay
func (t *Transport) answer(req []byte) {
	w := t.watch
	resp := w.respond(req)
	if resp == nil {
		logger.Debug("sim", "no answer to %s", logger.Hex(req))
		return
	}
	if w.sim.responseLost() {
		logger.Debug("sim", "answer to %s lost", logger.Hex(req))
		return
	}

	delay := w.sim.responseDelay()
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if delay > 0 {
			time.Sleep(delay)
		}
		t.mu.Lock()
		fn := t.notify
		t.mu.Unlock()
		if fn != nil {
			fn(resp)
		}
	}()
}

// Scanner finds the simulated watch
type Scanner struct {
	watch    *Watch
	distance float64
}

// Scanner returns a scanner that sees w at one metre
func (w *Watch) Scanner() *Scanner {
	return &Scanner{watch: w, distance: 1}
}

// ScanForDevice waits until the watch advertises and matches, or timeout
func (s *Scanner) ScanForDevice(ctx context.Context, match func(wire.Device) bool, timeout time.Duration) (wire.Device, error) {
	w := s.watch
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for {
		w.mu.Lock()
		advertising := !w.connected && time.Since(w.lastDisconnect) >= w.config.ReadvertiseAfter
		dev := wire.Device{Name: w.name, Address: w.config.Address}
		w.mu.Unlock()

		if advertising {
			dev.RSSI = w.sim.rssi(s.distance)
			if match == nil || match(dev) {
				return dev, nil
			}
		}

		select {
		case <-ctx.Done():
			return wire.Device{}, ctx.Err()
		case <-deadline.C:
			return wire.Device{}, wire.ErrDeviceNotFound
		case <-tick.C:
		}
	}
}
