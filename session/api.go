// Package session drives the watch protocol: request/response operations
// over one connection, and the connect, sync, disconnect loop around them.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/gshock-sync/casio"
	"github.com/user/gshock-sync/logger"
	"github.com/user/gshock-sync/watchinfo"
	"github.com/user/gshock-sync/wire"
	"github.com/user/gshock-sync/wire/gatt"
	"github.com/user/gshock-sync/wire/pending"
)

var (
	// ErrNoResponse is returned when the watch did not answer in time
	ErrNoResponse = errors.New("session: no response from watch")
	// ErrNotSupported is returned for features the model lacks
	ErrNotSupported = errors.New("session: not supported by this watch")
)

// API issues protocol operations over one connection. Requests are
// strictly sequential; an API must not be shared between goroutines.
type API struct {
	router  *wire.Router
	caps    watchinfo.Capabilities
	timeout time.Duration
}

// NewAPI binds an API to a router. The router's battery calibration is
// taken from caps.
func NewAPI(router *wire.Router, caps watchinfo.Capabilities, timeout time.Duration) *API {
	router.SetBatteryScale(caps.BatteryScale())
	return &API{router: router, caps: caps, timeout: timeout}
}

// Capabilities returns the profile of the connected watch
func (a *API) Capabilities() watchinfo.Capabilities {
	return a.caps
}

// request writes key to the request characteristic and waits for the
// notification carrying the same key.
func (a *API) request(ctx context.Context, key casio.Key) (interface{}, error) {
	reg := a.router.Registry()
	req, err := reg.Register(key, a.timeout)
	if err != nil {
		return nil, err
	}

	res, err := a.router.Write(ctx, gatt.HandleRequest, key.Bytes())
	if res != wire.WriteOK {
		reg.Cancel(key)
		if err == nil {
			err = fmt.Errorf("request %s: %s", key, res)
		}
		return nil, err
	}

	result, err := req.Await(ctx)
	if err != nil {
		return nil, err
	}
	if result.Empty() {
		logger.Warn("session", "no response to %s", key)
		return nil, fmt.Errorf("%w to %s", ErrNoResponse, key)
	}
	return result.Value, nil
}

func unexpected(key casio.Key, v interface{}) error {
	return fmt.Errorf("unexpected %T in response to %s", v, key)
}

// write sends a buffer to the all-features characteristic
func (a *API) write(ctx context.Context, payload []byte) error {
	res, err := a.router.Write(ctx, gatt.HandleAllFeatures, payload)
	switch res {
	case wire.WriteOK:
		return nil
	case wire.WriteUnsupported:
		return ErrNotSupported
	}
	return err
}

func (a *API) requestBytes(ctx context.Context, key casio.Key) ([]byte, error) {
	v, err := a.request(ctx, key)
	if err != nil {
		return nil, err
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, unexpected(key, v)
	}
	return b, nil
}

// GetPressedButton reads the button that started the connection
func (a *API) GetPressedButton(ctx context.Context) (casio.WatchButton, error) {
	key := casio.CommandKey(casio.CmdBLEFeatures)
	v, err := a.request(ctx, key)
	if err != nil {
		return casio.ButtonInvalid, err
	}
	b, ok := v.(casio.WatchButton)
	if !ok {
		return casio.ButtonInvalid, unexpected(key, v)
	}
	return b, nil
}

// GetWatchName reads the name the watch reports for itself
func (a *API) GetWatchName(ctx context.Context) (string, error) {
	key := casio.CommandKey(casio.CmdWatchName)
	v, err := a.request(ctx, key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", unexpected(key, v)
	}
	return s, nil
}

// GetAppInfo reads the app information. A watch that was reset reports a
// blank value, which is repaired before returning.
func (a *API) GetAppInfo(ctx context.Context) ([]byte, error) {
	b, err := a.requestBytes(ctx, casio.CommandKey(casio.CmdAppInformation))
	if err != nil {
		return nil, err
	}
	if casio.NeedsAppInfoRepair(b) {
		logger.Info("session", "watch app info is blank, writing it back")
		fix := casio.AppInfoRepair()
		if err := a.write(ctx, fix); err != nil {
			return nil, fmt.Errorf("repair app info: %w", err)
		}
		return fix, nil
	}
	return b, nil
}

// GetWorldCity reads world city slot index as raw bytes
func (a *API) GetWorldCity(ctx context.Context, index int) ([]byte, error) {
	return a.requestBytes(ctx, casio.IndexedKey(casio.CmdWorldCities, index))
}

// GetDSTForWorldCity reads the DST setting of world city slot index
func (a *API) GetDSTForWorldCity(ctx context.Context, index int) ([]byte, error) {
	return a.requestBytes(ctx, casio.IndexedKey(casio.CmdDSTSetting, index))
}

// GetDSTWatchState reads one DST watch state block (0, 2 or 4)
func (a *API) GetDSTWatchState(ctx context.Context, state int) ([]byte, error) {
	return a.requestBytes(ctx, casio.IndexedKey(casio.CmdDSTWatchState, state))
}

var dstStates = []int{0, 2, 4}

// readAndWriteBack reads one pre-state block and writes it back unchanged.
// A block the watch does not answer is skipped.
func (a *API) readAndWriteBack(ctx context.Context, key casio.Key) error {
	b, err := a.requestBytes(ctx, key)
	if errors.Is(err, ErrNoResponse) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := a.write(ctx, b); err != nil {
		return fmt.Errorf("write back %s: %w", key, err)
	}
	return nil
}

// InitializeForSettingTime performs the read and write-back of DST watch
// states, DST for world cities and world cities that the watch requires
// before it accepts a new time.
func (a *API) InitializeForSettingTime(ctx context.Context) error {
	var keys []casio.Key
	for i, s := range dstStates {
		if i >= a.caps.DSTCount {
			break
		}
		keys = append(keys, casio.IndexedKey(casio.CmdDSTWatchState, s))
	}
	for i := 0; i < a.caps.WorldCitiesCount; i++ {
		keys = append(keys, casio.IndexedKey(casio.CmdDSTSetting, i))
	}
	for i := 0; i < a.caps.WorldCitiesCount; i++ {
		keys = append(keys, casio.IndexedKey(casio.CmdWorldCities, i))
	}

	for _, key := range keys {
		if err := a.readAndWriteBack(ctx, key); err != nil {
			return err
		}
	}
	logger.Debug("session", "pre-state written back (%d blocks)", len(keys))
	return nil
}

// SetTime initializes the watch and writes t shifted by offset. The watch
// may drop the link as soon as the time is accepted; that error is ignored.
func (a *API) SetTime(ctx context.Context, t time.Time, offset time.Duration) error {
	if err := a.InitializeForSettingTime(ctx); err != nil {
		return err
	}
	res, err := a.router.Write(ctx, gatt.HandleAllFeatures, casio.TimeCommand(t.Add(offset)))
	switch res {
	case wire.WriteOK:
		return nil
	case wire.WriteRetryable:
		logger.Info("session", "ignoring %v after time write", err)
		return nil
	case wire.WriteUnsupported:
		return ErrNotSupported
	}
	return err
}

// GetAlarms reads the first alarm then the four secondary alarms
func (a *API) GetAlarms(ctx context.Context) ([]casio.Alarm, error) {
	key := casio.CommandKey(casio.CmdAlarm)
	v, err := a.request(ctx, key)
	if err != nil {
		return nil, err
	}
	first, ok := v.(casio.Alarm)
	if !ok {
		return nil, unexpected(key, v)
	}

	key = casio.CommandKey(casio.CmdAlarm2)
	if v, err = a.request(ctx, key); err != nil {
		return nil, err
	}
	rest, ok := v.([]casio.Alarm)
	if !ok {
		return nil, unexpected(key, v)
	}
	return append([]casio.Alarm{first}, rest...), nil
}

// SetAlarms writes the whole alarm list
func (a *API) SetAlarms(ctx context.Context, alarms []casio.Alarm) error {
	first, secondary, err := casio.EncodeAlarms(alarms)
	if err != nil {
		return err
	}
	if err := a.write(ctx, first); err != nil {
		return err
	}
	return a.write(ctx, secondary)
}

// GetReminders reads reminder slots 1..5 until the watch reports the end
func (a *API) GetReminders(ctx context.Context) ([]casio.Event, error) {
	if !a.caps.HasReminders {
		return nil, ErrNotSupported
	}
	asm := casio.NewReminderAssembler()
	var events []casio.Event
	for i := 1; i <= casio.ReminderCount; i++ {
		titleKey := casio.IndexedKey(casio.CmdReminderTitle, i)
		v, err := a.request(ctx, titleKey)
		if err != nil {
			return events, err
		}
		title, ok := v.(casio.ReminderTitle)
		if !ok {
			return events, unexpected(titleKey, v)
		}
		if title.End {
			break
		}
		asm.AddTitle(title)

		timeKey := casio.IndexedKey(casio.CmdReminderTime, i)
		if v, err = a.request(ctx, timeKey); err != nil {
			return events, err
		}
		tm, ok := v.(casio.ReminderTime)
		if !ok {
			return events, unexpected(timeKey, v)
		}
		if e, ok := asm.AddTime(tm); ok {
			events = append(events, e)
		}
		if tm.End {
			break
		}
	}
	return events, nil
}

// SetReminders writes the enabled events to slots 1..n
func (a *API) SetReminders(ctx context.Context, events []casio.Event) error {
	if !a.caps.HasReminders {
		return ErrNotSupported
	}
	index := 0
	for _, e := range events {
		if !e.Enabled {
			continue
		}
		index++
		if index > casio.ReminderCount {
			logger.Warn("session", "only %d reminders fit on the watch, %q dropped", casio.ReminderCount, e.Title)
			continue
		}
		if err := a.write(ctx, casio.EncodeReminderTitle(index, e.Title)); err != nil {
			return fmt.Errorf("reminder %d title: %w", index, err)
		}
		if err := a.write(ctx, casio.EncodeReminderTime(index, e)); err != nil {
			return fmt.Errorf("reminder %d time: %w", index, err)
		}
	}
	return nil
}

// GetTimer reads the countdown timer length in seconds
func (a *API) GetTimer(ctx context.Context) (int, error) {
	key := casio.CommandKey(casio.CmdTimer)
	v, err := a.request(ctx, key)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int)
	if !ok {
		return 0, unexpected(key, v)
	}
	return n, nil
}

// SetTimer sets the countdown timer length in seconds
func (a *API) SetTimer(ctx context.Context, seconds int) error {
	return a.write(ctx, casio.EncodeTimer(seconds))
}

// GetSettings reads the basic settings
func (a *API) GetSettings(ctx context.Context) (casio.Settings, error) {
	key := casio.CommandKey(casio.CmdSettingForBasic)
	v, err := a.request(ctx, key)
	if err != nil {
		return casio.Settings{}, err
	}
	s, ok := v.(casio.Settings)
	if !ok {
		return casio.Settings{}, unexpected(key, v)
	}
	return s, nil
}

// SetSettings writes the basic settings
func (a *API) SetSettings(ctx context.Context, s casio.Settings) error {
	return a.write(ctx, casio.EncodeSettings(s))
}

// GetWatchCondition reads battery level and temperature
func (a *API) GetWatchCondition(ctx context.Context) (casio.WatchCondition, error) {
	key := casio.CommandKey(casio.CmdWatchCondition)
	v, err := a.request(ctx, key)
	if err != nil {
		return casio.WatchCondition{}, err
	}
	c, ok := v.(casio.WatchCondition)
	if !ok {
		return casio.WatchCondition{}, unexpected(key, v)
	}
	return c, nil
}

// GetTimeAdjustment reads the watch's own hourly time sync setting
func (a *API) GetTimeAdjustment(ctx context.Context) (casio.TimeAdjustment, error) {
	key := casio.CommandKey(casio.CmdSettingForBLE)
	v, err := a.request(ctx, key)
	if err != nil {
		return casio.TimeAdjustment{}, err
	}
	t, ok := v.(casio.TimeAdjustment)
	if !ok {
		return casio.TimeAdjustment{}, unexpected(key, v)
	}
	return t, nil
}

// SetTimeAdjustment reads the current 0x11 buffer and rewrites it with the
// new adjustment.
func (a *API) SetTimeAdjustment(ctx context.Context, enabled bool, minutesAfterHour int) error {
	t, err := a.GetTimeAdjustment(ctx)
	if err != nil {
		return err
	}
	t.Enabled = enabled
	t.MinutesAfterHour = minutesAfterHour
	b, err := casio.EncodeTimeAdjustment(t)
	if err != nil {
		return err
	}
	return a.write(ctx, b)
}

// SendAppNotification shows n on the watch. Watches without the
// notification characteristic report WriteUnsupported.
func (a *API) SendAppNotification(ctx context.Context, n casio.AppNotification) (wire.WriteResult, error) {
	return a.router.Write(ctx, gatt.HandleNotification, casio.XOR(casio.EncodeAppNotification(n)))
}

// Pending reports the registry counters of this connection
func (a *API) Pending() pending.Stats {
	return a.router.Registry().Stats()
}
