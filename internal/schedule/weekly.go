// Package schedule models recurring weekly availability for a gym product.
//
// The wire form is a JSON object keyed by lowercase English day names, each
// holding an array of "HH:mm-HH:mm" strings. An empty or absent schedule
// places no constraint on reservation times.
package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var dayKeys = map[time.Weekday]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

var daysByKey = func() map[string]time.Weekday {
	m := make(map[string]time.Weekday, len(dayKeys))
	for day, key := range dayKeys {
		m[key] = day
	}
	return m
}()

// WeeklySchedule maps a weekday to its slots ordered by start time.
// The zero value is an empty schedule. Values are immutable; mutators
// return a new schedule.
type WeeklySchedule struct {
	days map[time.Weekday][]TimeSlot
}

// OverlapError reports two slots on the same day that collide.
type OverlapError struct {
	Day    time.Weekday
	First  TimeSlot
	Second TimeSlot
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("time slots %s and %s overlap on %s", e.First, e.Second, e.Day)
}

// New builds a schedule from a day map. Slots are copied and sorted; days
// without slots are dropped.
func New(days map[time.Weekday][]TimeSlot) WeeklySchedule {
	out := WeeklySchedule{}
	for day, slots := range days {
		if len(slots) == 0 {
			continue
		}
		if out.days == nil {
			out.days = make(map[time.Weekday][]TimeSlot)
		}
		out.days[day] = sortedCopy(slots)
	}
	return out
}

func sortedCopy(slots []TimeSlot) []TimeSlot {
	cp := make([]TimeSlot, len(slots))
	copy(cp, slots)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Start < cp[j].Start })
	return cp
}

// Parse reads the wire form leniently: null, blank or malformed input yields
// an empty schedule, unknown day keys and unparsable slot strings are
// skipped. Single-quoted JSON is accepted.
func Parse(raw string) WeeklySchedule {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return WeeklySchedule{}
	}

	raw = strings.ReplaceAll(raw, "'", `"`)
	if !gjson.Valid(raw) {
		return WeeklySchedule{}
	}

	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return WeeklySchedule{}
	}

	days := make(map[time.Weekday][]TimeSlot)
	doc.ForEach(func(key, value gjson.Result) bool {
		day, ok := daysByKey[strings.ToLower(strings.TrimSpace(key.String()))]
		if !ok || !value.IsArray() {
			return true
		}
		for _, item := range value.Array() {
			if item.Type != gjson.String {
				continue
			}
			slot, err := ParseTimeSlot(item.String())
			if err != nil {
				continue
			}
			days[day] = append(days[day], slot)
		}
		return true
	})

	return New(days)
}

// ErrInvalidSchedule wraps every rejection from ParseStrict.
var ErrInvalidSchedule = errors.New("invalid schedule")

// ParseStrict reads an operator supplied day map. Unlike Parse it rejects
// unknown day keys and slot strings ParseTimeSlot refuses, naming the first
// bad entry in day order. Day keys are case-insensitive.
func ParseStrict(raw map[string][]string) (WeeklySchedule, error) {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	days := make(map[time.Weekday][]TimeSlot)
	for _, key := range keys {
		day, ok := daysByKey[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			return WeeklySchedule{}, fmt.Errorf("%w: unknown day %q", ErrInvalidSchedule, key)
		}
		if _, dup := days[day]; dup {
			return WeeklySchedule{}, fmt.Errorf("%w: day %q given more than once", ErrInvalidSchedule, key)
		}
		slots := make([]TimeSlot, 0, len(raw[key]))
		for _, item := range raw[key] {
			slot, err := ParseTimeSlot(item)
			if err != nil {
				return WeeklySchedule{}, fmt.Errorf("%w: time slot %q for %s is not HH:mm-HH:mm with start before end", ErrInvalidSchedule, item, dayKeys[day])
			}
			slots = append(slots, slot)
		}
		days[day] = slots
	}

	return New(days), nil
}

func (w WeeklySchedule) IsEmpty() bool {
	return len(w.days) == 0
}

// SlotsFor returns a copy of the slots defined for day.
func (w WeeklySchedule) SlotsFor(day time.Weekday) []TimeSlot {
	slots := w.days[day]
	if len(slots) == 0 {
		return nil
	}
	cp := make([]TimeSlot, len(slots))
	copy(cp, slots)
	return cp
}

func (w WeeklySchedule) HasSlotsFor(day time.Weekday) bool {
	return len(w.days[day]) > 0
}

// Days lists the weekdays with at least one slot, Sunday first.
func (w WeeklySchedule) Days() []time.Weekday {
	days := make([]time.Weekday, 0, len(w.days))
	for day := range w.days {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// SlotAt returns the slot containing dt's time of day on dt's weekday.
func (w WeeklySchedule) SlotAt(dt time.Time) (TimeSlot, bool) {
	offset := TimeOfDay(dt)
	for _, slot := range w.days[dt.Weekday()] {
		if slot.ContainsOffset(offset) {
			return slot, true
		}
	}
	return TimeSlot{}, false
}

func (w WeeklySchedule) IsValidReservationTime(dt time.Time) bool {
	_, ok := w.SlotAt(dt)
	return ok
}

func (w WeeklySchedule) AddTimeSlot(day time.Weekday, slot TimeSlot) WeeklySchedule {
	days := w.clone()
	days[day] = append(days[day], slot)
	return New(days)
}

func (w WeeklySchedule) RemoveTimeSlot(day time.Weekday, slot TimeSlot) WeeklySchedule {
	days := w.clone()
	kept := days[day][:0:0]
	for _, s := range days[day] {
		if s != slot {
			kept = append(kept, s)
		}
	}
	days[day] = kept
	return New(days)
}

func (w WeeklySchedule) clone() map[time.Weekday][]TimeSlot {
	days := make(map[time.Weekday][]TimeSlot, len(w.days))
	for day, slots := range w.days {
		days[day] = append([]TimeSlot(nil), slots...)
	}
	return days
}

// Validate checks that no two slots on the same day overlap.
func (w WeeklySchedule) Validate() error {
	for _, day := range w.Days() {
		slots := w.days[day]
		for i := 1; i < len(slots); i++ {
			if slots[i-1].Overlaps(slots[i]) {
				return &OverlapError{Day: day, First: slots[i-1], Second: slots[i]}
			}
		}
	}
	return nil
}

// Equal reports whether both schedules hold the same slots per day.
func (w WeeklySchedule) Equal(other WeeklySchedule) bool {
	if len(w.days) != len(other.days) {
		return false
	}
	for day, slots := range w.days {
		theirs := other.days[day]
		if len(slots) != len(theirs) {
			return false
		}
		for i := range slots {
			if slots[i] != theirs[i] {
				return false
			}
		}
	}
	return true
}

func (w WeeklySchedule) wire() map[string][]string {
	out := make(map[string][]string, len(w.days))
	for day, slots := range w.days {
		values := make([]string, len(slots))
		for i, s := range slots {
			values[i] = s.String()
		}
		out[dayKeys[day]] = values
	}
	return out
}

// String returns the JSON wire form; "{}" when empty.
func (w WeeklySchedule) String() string {
	b, err := w.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}

func (w WeeklySchedule) MarshalJSON() ([]byte, error) {
	if w.IsEmpty() {
		return []byte("{}"), nil
	}
	return json.Marshal(w.wire())
}

func (w *WeeklySchedule) UnmarshalJSON(data []byte) error {
	*w = Parse(string(data))
	return nil
}

// Scan reads the schedule from a text or json column.
func (w *WeeklySchedule) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*w = WeeklySchedule{}
	case string:
		*w = Parse(v)
	case []byte:
		*w = Parse(string(v))
	default:
		return fmt.Errorf("schedule: cannot scan %T", src)
	}
	return nil
}

func (w WeeklySchedule) Value() (driver.Value, error) {
	return w.String(), nil
}
