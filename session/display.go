package session

import (
	"context"
	"time"

	"github.com/user/gshock-sync/casio"
	"github.com/user/gshock-sync/logger"
	"github.com/user/gshock-sync/watchinfo"
)

// LastSyncLayout formats sync times for the display and the store
const LastSyncLayout = "01/02 15:04"

// DisplayInfo is the status shown after a LOWER_LEFT connection
type DisplayInfo struct {
	WatchName      string `json:"watchName"`
	BatteryPercent int    `json:"battery"`
	Temperature    int    `json:"temperature"`
	LastSync       string `json:"lastSync"`
	NextAlarm      string `json:"alarm"`
	ReminderTitle  string `json:"reminder"`
	AutoSyncOn     bool   `json:"autoSync"`
}

// DisplaySink receives status updates. Implementations must not block.
type DisplaySink interface {
	ShowStatus(info DisplayInfo)
}

// NextAlarm returns the earliest enabled alarm after now, looking at
// tomorrow for alarms whose time has passed today.
func NextAlarm(alarms []casio.Alarm, now time.Time) (time.Time, bool) {
	var next time.Time
	found := false
	for _, a := range alarms {
		if !a.Enabled || a.Validate() != nil {
			continue
		}
		at := time.Date(now.Year(), now.Month(), now.Day(), a.Hour, a.Minute, 0, 0, now.Location())
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		if !found || at.Before(next) {
			next, found = at, true
		}
	}
	return next, found
}

// TodaysReminder returns the first reminder that falls on now's date
func TodaysReminder(events []casio.Event, now time.Time) (casio.Event, bool) {
	for _, e := range events {
		if e.OccursOn(now) {
			return e, true
		}
	}
	return casio.Event{}, false
}

// gatherDisplayInfo reads everything the status view shows. Failed reads
// leave their fields at the defaults.
func gatherDisplayInfo(ctx context.Context, api *API, dev string, now time.Time) DisplayInfo {
	info := DisplayInfo{
		WatchName:     watchinfo.ShortName(dev),
		LastSync:      now.Format(LastSyncLayout),
		NextAlarm:     "None",
		ReminderTitle: "None",
	}

	if alarms, err := api.GetAlarms(ctx); err != nil {
		logger.Error("session", "failed to read alarms: %v", err)
	} else if at, ok := NextAlarm(alarms, now); ok {
		info.NextAlarm = at.Format("15:04")
	}

	if api.Capabilities().HasReminders {
		if events, err := api.GetReminders(ctx); err != nil {
			logger.Error("session", "failed to read reminders: %v", err)
		} else if e, ok := TodaysReminder(events, now); ok {
			info.ReminderTitle = e.Title
		}
	}

	if c, err := api.GetWatchCondition(ctx); err != nil {
		logger.Error("session", "failed to read watch condition: %v", err)
	} else {
		info.BatteryPercent = c.BatteryPercent
		info.Temperature = c.Temperature
	}

	if t, err := api.GetTimeAdjustment(ctx); err != nil {
		logger.Error("session", "failed to read time adjustment: %v", err)
	} else {
		info.AutoSyncOn = t.Enabled
	}
	return info
}
