package casio

import (
	"fmt"
	"time"
)

// RepeatPeriod controls how a reminder recurs
type RepeatPeriod int

const (
	RepeatNever RepeatPeriod = iota
	RepeatDaily
	RepeatWeekly
	RepeatMonthly
	RepeatYearly
)

func (p RepeatPeriod) String() string {
	switch p {
	case RepeatNever:
		return "NEVER"
	case RepeatDaily:
		return "DAILY"
	case RepeatWeekly:
		return "WEEKLY"
	case RepeatMonthly:
		return "MONTHLY"
	case RepeatYearly:
		return "YEARLY"
	}
	return fmt.Sprintf("RepeatPeriod(%d)", int(p))
}

// time_period byte
const (
	reminderEnabledMask = 0x01
	reminderWeeklyMask  = 0x04
	reminderYearlyMask  = 0x08
	reminderMonthlyMask = 0x10
)

const (
	reminderTimeLen  = 3 + 8
	reminderTitleLen = 2 + ReminderTitleBytes
	reminderEndByte  = 0xFF
	allWeekdaysMask  = 0x7F
)

// EventDate is a calendar date stored on the watch as BCD year%100, month, day
type EventDate struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

func (d EventDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d EventDate) encode() []byte {
	return []byte{toBCD(d.Year % 100), toBCD(int(d.Month)), toBCD(d.Day)}
}

func (d EventDate) day() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func decodeEventDate(b []byte) EventDate {
	return EventDate{
		Year:  2000 + fromBCD(b[0]),
		Month: time.Month(fromBCD(b[1])),
		Day:   fromBCD(b[2]),
	}
}

// Event is one calendar reminder, joined from a title and a time packet
type Event struct {
	Index        int            `json:"index"`
	Title        string         `json:"title"`
	StartDate    EventDate      `json:"startDate"`
	EndDate      EventDate      `json:"endDate"`
	RepeatPeriod RepeatPeriod   `json:"repeatPeriod"`
	DaysOfWeek   []time.Weekday `json:"daysOfWeek,omitempty"`
	Enabled      bool           `json:"enabled"`
}

// OccursOn reports whether the reminder falls on the calendar day of t.
// Repeating reminders match from their start date on, and until their end
// date when it is later than the start.
func (e Event) OccursOn(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	start := e.StartDate.day()
	if day.Before(start) {
		return false
	}
	if end := e.EndDate.day(); end.After(start) && day.After(end) {
		return false
	}

	switch e.RepeatPeriod {
	case RepeatNever:
		return day.Equal(start)
	case RepeatDaily:
		return true
	case RepeatWeekly:
		if len(e.DaysOfWeek) == 0 {
			return day.Weekday() == start.Weekday()
		}
		for _, d := range e.DaysOfWeek {
			if d == day.Weekday() {
				return true
			}
		}
		return false
	case RepeatMonthly:
		return day.Day() == start.Day()
	case RepeatYearly:
		return day.Month() == start.Month() && day.Day() == start.Day()
	}
	return false
}

// ReminderTime is the decoded 0x31 packet
type ReminderTime struct {
	Index        int
	Enabled      bool
	RepeatPeriod RepeatPeriod
	StartDate    EventDate
	EndDate      EventDate
	DaysOfWeek   []time.Weekday
	// End is set when the watch signals there are no more reminders
	End bool
}

// ReminderTitle is the decoded 0x30 packet
type ReminderTitle struct {
	Index int
	Title string
	End   bool
}

func weekdayMask(days []time.Weekday) byte {
	var m byte
	for _, d := range days {
		if d >= time.Sunday && d <= time.Saturday {
			m |= 1 << uint(d)
		}
	}
	return m
}

func weekdaysFromMask(m byte) []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if m&(1<<uint(d)) != 0 {
			days = append(days, d)
		}
	}
	return days
}

// DecodeReminderTime decodes [0x31][index][time_period][8-byte detail].
// A 0xFF at offset 3 is the end marker whatever the leading bytes, and is
// never an error.
func DecodeReminderTime(b []byte) (ReminderTime, error) {
	if len(b) >= 4 && b[3] == reminderEndByte {
		return ReminderTime{Index: int(b[1]), End: true}, nil
	}
	if err := expect(b, CmdReminderTime, 4); err != nil {
		return ReminderTime{}, err
	}
	if len(b) < reminderTimeLen {
		return ReminderTime{}, shortBuffer(CmdReminderTime, len(b), reminderTimeLen)
	}

	period := b[2]
	rt := ReminderTime{
		Index:     int(b[1]),
		Enabled:   period&reminderEnabledMask != 0,
		StartDate: decodeEventDate(b[3:6]),
		EndDate:   decodeEventDate(b[6:9]),
	}
	switch {
	case period&reminderWeeklyMask != 0:
		rt.RepeatPeriod = RepeatWeekly
		rt.DaysOfWeek = weekdaysFromMask(b[9])
	case period&reminderMonthlyMask != 0:
		rt.RepeatPeriod = RepeatMonthly
	case period&reminderYearlyMask != 0:
		rt.RepeatPeriod = RepeatYearly
	default:
		rt.RepeatPeriod = RepeatNever
	}
	return rt, nil
}

// EncodeReminderTime builds [0x31, index, time_period, detail...].
// The watch has no daily period bit; daily reminders are stored as weekly
// reminders on every day of the week.
func EncodeReminderTime(index int, e Event) []byte {
	var period byte
	if e.Enabled {
		period |= reminderEnabledMask
	}
	var dow byte
	switch e.RepeatPeriod {
	case RepeatDaily:
		period |= reminderWeeklyMask
		dow = allWeekdaysMask
	case RepeatWeekly:
		period |= reminderWeeklyMask
		dow = weekdayMask(e.DaysOfWeek)
	case RepeatMonthly:
		period |= reminderMonthlyMask
	case RepeatYearly:
		period |= reminderYearlyMask
	}

	out := make([]byte, 0, reminderTimeLen)
	out = append(out, byte(CmdReminderTime), byte(index), period)
	out = append(out, e.StartDate.encode()...)
	out = append(out, e.EndDate.encode()...)
	out = append(out, dow, 0)
	return out
}

// DecodeReminderTitle decodes [0x30][index][title...]. A 0xFF at offset 2
// is the end marker. Control and null bytes in the title are dropped.
func DecodeReminderTitle(b []byte) (ReminderTitle, error) {
	if err := expect(b, CmdReminderTitle, 3); err != nil {
		return ReminderTitle{}, err
	}
	if b[2] == reminderEndByte {
		return ReminderTitle{Index: int(b[1]), End: true}, nil
	}
	return ReminderTitle{Index: int(b[1]), Title: printable(b[2:])}, nil
}

// EncodeReminderTitle builds [0x30, index] followed by the title padded
// with zeros to 18 bytes. Longer titles are cut.
func EncodeReminderTitle(index int, title string) []byte {
	out := make([]byte, reminderTitleLen)
	out[0] = byte(CmdReminderTitle)
	out[1] = byte(index)
	copy(out[2:], printable([]byte(title)))
	return out
}

// ReminderAssembler joins the title and time packets of each reminder
// index. One assembler serves a single reminder fetch.
type ReminderAssembler struct {
	titles map[int]ReminderTitle
	times  map[int]ReminderTime
}

// NewReminderAssembler creates an empty assembler
func NewReminderAssembler() *ReminderAssembler {
	return &ReminderAssembler{
		titles: make(map[int]ReminderTitle),
		times:  make(map[int]ReminderTime),
	}
}

// AddTitle records a title packet and returns the completed event once
// the matching time packet has also arrived.
func (a *ReminderAssembler) AddTitle(t ReminderTitle) (Event, bool) {
	a.titles[t.Index] = t
	return a.join(t.Index)
}

// AddTime records a time packet and returns the completed event once the
// matching title packet has also arrived.
func (a *ReminderAssembler) AddTime(t ReminderTime) (Event, bool) {
	a.times[t.Index] = t
	return a.join(t.Index)
}

func (a *ReminderAssembler) join(index int) (Event, bool) {
	title, ok := a.titles[index]
	if !ok {
		return Event{}, false
	}
	tm, ok := a.times[index]
	if !ok {
		return Event{}, false
	}
	delete(a.titles, index)
	delete(a.times, index)
	if title.End || tm.End {
		return Event{}, false
	}
	return Event{
		Index:        index,
		Title:        title.Title,
		StartDate:    tm.StartDate,
		EndDate:      tm.EndDate,
		RepeatPeriod: tm.RepeatPeriod,
		DaysOfWeek:   tm.DaysOfWeek,
		Enabled:      tm.Enabled,
	}, true
}
