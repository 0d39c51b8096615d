package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/olebedev/emitter"

	"github.com/user/gshock-sync/casio"
	"github.com/user/gshock-sync/logger"
	"github.com/user/gshock-sync/wire"
	"github.com/user/gshock-sync/wire/debug"
	"github.com/user/gshock-sync/wire/pending"
)

// State is a step of the connection cycle
type State int

const (
	StateIdle State = iota
	StateScanning
	StateConnected
	StateAuthenticated
	StateTimeSet
	StateDisplayUpdate
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateTimeSet:
		return "time-set"
	case StateDisplayUpdate:
		return "display-update"
	case StateDisconnected:
		return "disconnected"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Event topics emitted by the Runner
const (
	TopicState   = "state"   // State, wire.Device
	TopicSynced  = "synced"  // wire.Device, casio.WatchButton, time.Time
	TopicDisplay = "display" // DisplayInfo
	TopicError   = "error"   // error
)

// Store keys
const (
	KeyAddress       = "device.address"
	KeyName          = "device.name"
	KeyLastConnected = "last_connected"
)

// Store persists what the runner learns about the watch
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Options tune the connection cycle
type Options struct {
	// Added to the phone time before it is written
	FineAdjustment time.Duration
	// Scan for any watch instead of the remembered address
	MultiWatch      bool
	ExcludedWatches []string

	RequestTimeout time.Duration
	ScanTimeout    time.Duration
	// Pause before each cycle
	Idle time.Duration
	// Records the traffic of every connection when set
	PacketLog *debug.PacketLogger
}

// Runner drives the connect, sync, disconnect loop. Listeners attach with
// On(topic, func(*emitter.Event)); they run on the runner's goroutine and
// must not call back into the runner.
type Runner struct {
	emitter.Emitter

	opts    Options
	scanner wire.Scanner
	dial    func() wire.Transport
	store   Store
	display DisplaySink
	now     func() time.Time

	mu    sync.Mutex
	state State
	held  *Connection
}

// NewRunner creates a runner. dial is called once per cycle for a fresh
// transport. store may be nil.
func NewRunner(scanner wire.Scanner, dial func() wire.Transport, store Store, opts Options) *Runner {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = pending.DefaultTimeout
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = wire.DefaultScanTimeout
	}
	if opts.Idle <= 0 {
		opts.Idle = time.Second
	}
	r := &Runner{
		Emitter: emitter.Emitter{},
		opts:    opts,
		scanner: scanner,
		dial:    dial,
		store:   store,
		now:     time.Now,
	}
	// flat callbacks
	r.Use("*", emitter.Void)
	return r
}

// SetDisplay sets the sink for status updates
func (r *Runner) SetDisplay(d DisplaySink) {
	r.display = d
}

// State returns the current step of the cycle
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State, dev wire.Device) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	logger.Debug("session", "state %s", s)
	r.Emit(TopicState, s, dev)
}

// Run loops over connection cycles until ctx is cancelled. Cycle errors
// are logged and the loop continues.
func (r *Runner) Run(ctx context.Context) error {
	logger.Info("session", "long-press LOWER-LEFT on the watch to set time and show status")
	logger.Info("session", "watches with auto time sync connect on their own up to 4 times a day")
	defer r.release(context.Background())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.opts.Idle):
		}

		if err := r.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("session", "cycle failed: %v", err)
			r.Emit(TopicError, err)
		}
	}
}

// release closes a connection kept open by an always-connected watch. It
// runs when the watch drops the link and when Run returns.
func (r *Runner) release(ctx context.Context) {
	r.mu.Lock()
	held := r.held
	r.held = nil
	r.mu.Unlock()
	if held != nil {
		if err := held.Close(ctx); err != nil {
			logger.Warn("session", "failed to close held connection: %v", err)
		}
	}
}

// awaitHeld blocks while an always-connected watch keeps its link open.
// Once the watch drops it, the connection is released and the cycle scans
// again.
func (r *Runner) awaitHeld(ctx context.Context) error {
	r.mu.Lock()
	held := r.held
	r.mu.Unlock()
	if held == nil {
		return nil
	}

	logger.Debug("session", "holding the link to %s", held.Device.Name)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-held.Dropped():
	}
	logger.Info("session", "%s dropped the link", held.Device.Name)
	r.release(ctx)
	r.setState(StateDisconnected, held.Device)
	return nil
}

func (r *Runner) remember(dev wire.Device, now time.Time) {
	if r.store == nil {
		return
	}
	for k, v := range map[string]string{
		KeyAddress:       dev.Address,
		KeyName:          dev.Name,
		KeyLastConnected: now.Format(LastSyncLayout),
	} {
		if err := r.store.Set(k, v); err != nil {
			logger.Warn("session", "failed to store %s: %v", k, err)
		}
	}
}

// RunCycle performs one scan, connect, sync, disconnect pass. A link held
// open by the previous pass is waited on first.
func (r *Runner) RunCycle(ctx context.Context) error {
	if err := r.awaitHeld(ctx); err != nil {
		return err
	}
	r.setState(StateScanning, wire.Device{})

	address := ""
	if !r.opts.MultiWatch && r.store != nil {
		address, _ = r.store.Get(KeyAddress)
	}
	dev, err := r.scanner.ScanForDevice(ctx, wire.MatchWatch(address, r.opts.ExcludedWatches), r.opts.ScanTimeout)
	if err != nil {
		r.setState(StateIdle, wire.Device{})
		return fmt.Errorf("scan: %w", err)
	}

	conn, err := Open(ctx, r.dial(), dev, r.opts.RequestTimeout)
	if err != nil {
		r.setState(StateIdle, dev)
		return err
	}
	conn.Router.SetPacketLog(r.opts.PacketLog, dev.Address)
	r.setState(StateConnected, dev)
	r.remember(dev, r.now())

	keep := false
	defer func() {
		if keep {
			r.mu.Lock()
			r.held = conn
			r.mu.Unlock()
			return
		}
		if cerr := conn.Close(ctx); cerr != nil {
			logger.Error("session", "failed to disconnect: %v", cerr)
		}
		r.setState(StateDisconnected, dev)
	}()

	api := conn.API
	button, err := api.GetPressedButton(ctx)
	if err != nil {
		return fmt.Errorf("read button: %w", err)
	}
	switch button {
	case casio.ButtonLowerRight, casio.ButtonNone, casio.ButtonLowerLeft:
	default:
		logger.Info("session", "%s pressed, nothing to do", button)
		return nil
	}
	r.setState(StateAuthenticated, dev)

	now := r.now()
	if err := api.SetTime(ctx, now, r.opts.FineAdjustment); err != nil {
		return fmt.Errorf("set time: %w", err)
	}
	logger.Info("session", "time set at %s on %s", now.Format("2006-01-02 15:04:05"), dev.Name)
	r.setState(StateTimeSet, dev)
	r.Emit(TopicSynced, dev, button, now)

	if button == casio.ButtonLowerLeft {
		r.setState(StateDisplayUpdate, dev)
		info := gatherDisplayInfo(ctx, api, dev.Name, now)
		if r.display != nil {
			r.display.ShowStatus(info)
		}
		r.Emit(TopicDisplay, info)
	}

	keep = api.Capabilities().AlwaysConnected
	return nil
}
