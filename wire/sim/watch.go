package sim

import (
	"sort"
	"sync"
	"time"

	"github.com/user/gshock-sync/casio"
	"github.com/user/gshock-sync/logger"
	"github.com/user/gshock-sync/wire/gatt"
)

// Write is one buffer the watch received
type Write struct {
	Handle gatt.Handle
	Data   []byte
}

// Watch holds the state of a simulated watch. It outlives connections:
// each connection cycle gets a fresh Transport bound to the same Watch.
type Watch struct {
	mu     sync.Mutex
	config *Config
	sim    *simulator

	button      casio.WatchButton
	name        string
	alarms      []casio.Alarm
	events      map[int]casio.Event
	settings    casio.Settings
	timer       int
	battery     byte
	temperature int8
	timeAdjust  []byte
	appInfo     []byte
	dstState    map[int][]byte
	dstSetting  map[int][]byte
	worldCities map[int][]byte
	clock       time.Time

	notifications []casio.AppNotification
	writes        []Write
	requests      []casio.Key

	connected      bool
	link           *Transport
	lastDisconnect time.Time
}

// NewWatch creates a watch with factory-like state. A nil config means
// PerfectConfig.
func NewWatch(config *Config) *Watch {
	if config == nil {
		config = PerfectConfig()
	}
	w := &Watch{
		config:      config,
		sim:         newSimulator(config),
		button:      casio.ButtonLowerRight,
		name:        config.Name,
		alarms:      make([]casio.Alarm, casio.AlarmCount),
		events:      make(map[int]casio.Event),
		battery:     18,
		temperature: 22,
		appInfo:     casio.AppInfoRepair(),
		dstState:    make(map[int][]byte),
		dstSetting:  make(map[int][]byte),
		worldCities: make(map[int][]byte),
		settings: casio.Settings{
			TimeFormat: casio.TwentyFourHour,
			AutoLight:  true,
			ButtonTone: true,
		},
	}
	w.timeAdjust = []byte{byte(casio.CmdSettingForBLE), 0x0F, 0x0F, 0x0F, 0x0F, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x1E}
	for i := 0; i < 6; i += 2 {
		w.dstState[i] = []byte{byte(casio.CmdDSTWatchState), byte(i), 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	}
	for i := 0; i < casio.MaxWorldCities; i++ {
		w.dstSetting[i] = []byte{byte(casio.CmdDSTSetting), byte(i), 0x00, 0x00, 0x01, 0x04, 0x02}
		w.worldCities[i] = append([]byte{byte(casio.CmdWorldCities), byte(i)}, []byte("TOKYO")...)
	}
	return w
}

// Config returns the link configuration of the watch
func (w *Watch) Config() *Config {
	return w.config
}

// Connected reports whether a transport holds the link
func (w *Watch) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

// DropLink ends the current connection from the watch side, as a watch
// walking out of range does.
func (w *Watch) DropLink() {
	w.mu.Lock()
	link := w.link
	w.mu.Unlock()
	if link != nil {
		logger.Debug("sim", "watch dropped the link")
		link.drop()
	}
}

// PressButton sets the button reported on the next connection
func (w *Watch) PressButton(b casio.WatchButton) {
	w.mu.Lock()
	w.button = b
	w.mu.Unlock()
}

// SetAlarms replaces the stored alarms
func (w *Watch) SetAlarms(alarms []casio.Alarm) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.alarms = make([]casio.Alarm, casio.AlarmCount)
	copy(w.alarms, alarms)
}

// AddEvent stores a reminder under e.Index
func (w *Watch) AddEvent(e casio.Event) {
	w.mu.Lock()
	w.events[e.Index] = e
	w.mu.Unlock()
}

// SetCondition sets the raw battery byte and temperature
func (w *Watch) SetCondition(battery byte, temperature int8) {
	w.mu.Lock()
	w.battery = battery
	w.temperature = temperature
	w.mu.Unlock()
}

// ResetAppInfo blanks the app information, as after a watch reset
func (w *Watch) ResetAppInfo() {
	w.mu.Lock()
	w.appInfo = []byte{byte(casio.CmdAppInformation), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}
	w.mu.Unlock()
}

// Clock returns the last time written to the watch
func (w *Watch) Clock() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.clock
}

// Settings returns the stored basic settings
func (w *Watch) Settings() casio.Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settings
}

// Timer returns the stored countdown length in seconds
func (w *Watch) Timer() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.timer
}

// Events returns the stored reminders ordered by index
func (w *Watch) Events() []casio.Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]casio.Event, 0, len(w.events))
	for _, e := range w.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Notifications returns the app notifications the watch has shown
func (w *Watch) Notifications() []casio.AppNotification {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]casio.AppNotification(nil), w.notifications...)
}

// Writes returns every buffer written to the watch, in order
func (w *Watch) Writes() []Write {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Write, len(w.writes))
	for i, wr := range w.writes {
		out[i] = Write{Handle: wr.Handle, Data: append([]byte(nil), wr.Data...)}
	}
	return out
}

// Requests returns the keys of every read request received, in order
func (w *Watch) Requests() []casio.Key {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]casio.Key(nil), w.requests...)
}

// ClearLog forgets recorded writes and requests
func (w *Watch) ClearLog() {
	w.mu.Lock()
	w.writes = nil
	w.requests = nil
	w.mu.Unlock()
}

func (w *Watch) silent(cmd casio.Command) bool {
	for _, c := range w.config.Silent {
		if c == cmd {
			return true
		}
	}
	return false
}

func buttonByte(b casio.WatchButton) byte {
	switch b {
	case casio.ButtonLowerLeft:
		return 1
	case casio.ButtonFind:
		return 2
	case casio.ButtonNone:
		return 3
	}
	return 4
}

// respond builds the notification answering a read request. A nil result
// means the watch stays silent.
func (w *Watch) respond(req []byte) []byte {
	if len(req) == 0 {
		return nil
	}
	cmd := casio.Command(req[0])
	index := 0
	if len(req) > 1 {
		index = int(req[1])
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests = append(w.requests, casio.KeyOf(req))

	if w.silent(cmd) {
		return nil
	}

	switch cmd {
	case casio.CmdBLEFeatures:
		if w.button == casio.ButtonInvalid {
			return []byte{byte(cmd), 0x00}
		}
		b := make([]byte, 19)
		b[0] = byte(cmd)
		b[8] = buttonByte(w.button)
		return b
	case casio.CmdWatchName:
		return casio.EncodeWatchName(w.name)
	case casio.CmdAppInformation:
		return clone(w.appInfo)
	case casio.CmdDSTWatchState:
		return clone(w.dstState[index])
	case casio.CmdDSTSetting:
		return clone(w.dstSetting[index])
	case casio.CmdWorldCities:
		return clone(w.worldCities[index])
	case casio.CmdAlarm:
		return casio.EncodeFirstAlarm(w.alarms[0])
	case casio.CmdAlarm2:
		return casio.EncodeSecondaryAlarms(w.alarms[1:])
	case casio.CmdSettingForBasic:
		return casio.EncodeSettings(w.settings)
	case casio.CmdTimer:
		return casio.EncodeTimer(w.timer)
	case casio.CmdWatchCondition:
		return []byte{byte(cmd), w.battery, byte(w.temperature), 0x00}
	case casio.CmdSettingForBLE:
		return clone(w.timeAdjust)
	case casio.CmdReminderTitle:
		e, ok := w.events[index]
		if !ok {
			return []byte{byte(cmd), byte(index), 0xFF}
		}
		return casio.EncodeReminderTitle(index, e.Title)
	case casio.CmdReminderTime:
		e, ok := w.events[index]
		if !ok {
			return []byte{byte(cmd), byte(index), 0x00, 0xFF}
		}
		return casio.EncodeReminderTime(index, e)
	}
	return []byte{byte(casio.CmdError), byte(cmd)}
}

// apply stores a buffer written to the all-features characteristic
func (w *Watch) apply(data []byte) {
	if len(data) == 0 {
		return
	}
	cmd := casio.Command(data[0])
	index := 0
	if len(data) > 1 {
		index = int(data[1])
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	switch cmd {
	case casio.CmdCurrentTime:
		w.clock, err = casio.DecodeTimeCommand(data, time.Local)
	case casio.CmdAppInformation:
		w.appInfo = clone(data)
	case casio.CmdDSTWatchState:
		w.dstState[index] = clone(data)
	case casio.CmdDSTSetting:
		w.dstSetting[index] = clone(data)
	case casio.CmdWorldCities:
		w.worldCities[index] = clone(data)
	case casio.CmdAlarm:
		var a casio.Alarm
		if a, err = casio.DecodeFirstAlarm(data); err == nil {
			w.alarms[0] = a
		}
	case casio.CmdAlarm2:
		var as []casio.Alarm
		if as, err = casio.DecodeSecondaryAlarms(data); err == nil {
			copy(w.alarms[1:], as)
		}
	case casio.CmdSettingForBasic:
		var s casio.Settings
		if s, err = casio.DecodeSettings(data); err == nil {
			w.settings = s
		}
	case casio.CmdTimer:
		w.timer, err = casio.DecodeTimer(data)
	case casio.CmdSettingForBLE:
		w.timeAdjust = clone(data)
	case casio.CmdWatchName:
		w.name, err = casio.DecodeWatchName(data)
	case casio.CmdReminderTitle:
		var t casio.ReminderTitle
		if t, err = casio.DecodeReminderTitle(data); err == nil {
			e := w.events[t.Index]
			e.Index = t.Index
			e.Title = t.Title
			w.events[t.Index] = e
		}
	case casio.CmdReminderTime:
		var t casio.ReminderTime
		if t, err = casio.DecodeReminderTime(data); err == nil && !t.End {
			e := w.events[t.Index]
			e.Index = t.Index
			e.StartDate = t.StartDate
			e.EndDate = t.EndDate
			e.RepeatPeriod = t.RepeatPeriod
			e.DaysOfWeek = t.DaysOfWeek
			e.Enabled = t.Enabled
			w.events[t.Index] = e
		}
	default:
		logger.Debug("sim", "write %s ignored", cmd)
	}
	if err != nil {
		logger.Warn("sim", "bad %s write: %v", cmd, err)
	}
}

func (w *Watch) notify(data []byte) error {
	n, err := casio.DecodeAppNotification(casio.XOR(data))
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.notifications = append(w.notifications, n)
	w.mu.Unlock()
	return nil
}

func (w *Watch) record(h gatt.Handle, data []byte) {
	w.mu.Lock()
	w.writes = append(w.writes, Write{Handle: h, Data: clone(data)})
	w.mu.Unlock()
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
