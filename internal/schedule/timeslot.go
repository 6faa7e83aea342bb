package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidTimeSlot = errors.New("invalid time slot")

// TimeSlot is a half-open interval [Start, End) measured from midnight.
type TimeSlot struct {
	Start time.Duration
	End   time.Duration
}

func NewTimeSlot(start, end time.Duration) (TimeSlot, error) {
	if start < 0 || end > 24*time.Hour || start >= end {
		return TimeSlot{}, fmt.Errorf("%w: start %s must be before end %s", ErrInvalidTimeSlot, clock(start), clock(end))
	}
	return TimeSlot{Start: start, End: end}, nil
}

// MustTimeSlot parses s and panics on failure. Intended for fixtures.
func MustTimeSlot(s string) TimeSlot {
	slot, err := ParseTimeSlot(s)
	if err != nil {
		panic(err)
	}
	return slot
}

// ParseTimeSlot reads the "HH:mm-HH:mm" wire form. Single digit hours are accepted.
func ParseTimeSlot(s string) (TimeSlot, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return TimeSlot{}, fmt.Errorf("%w: %q", ErrInvalidTimeSlot, s)
	}

	start, err := parseClock(parts[0])
	if err != nil {
		return TimeSlot{}, fmt.Errorf("%w: %q: %v", ErrInvalidTimeSlot, s, err)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return TimeSlot{}, fmt.Errorf("%w: %q: %v", ErrInvalidTimeSlot, s, err)
	}

	return NewTimeSlot(start, end)
}

func parseClock(s string) (time.Duration, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("malformed clock %q", s)
	}

	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("hour out of range in %q", s)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("minute out of range in %q", s)
	}

	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
}

// TimeOfDay returns the offset of t from its own midnight.
func TimeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

func (s TimeSlot) Contains(t time.Time) bool {
	return s.ContainsOffset(TimeOfDay(t))
}

func (s TimeSlot) ContainsOffset(d time.Duration) bool {
	return d >= s.Start && d < s.End
}

func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.Start < other.End && s.End > other.Start
}

func (s TimeSlot) Duration() time.Duration {
	return s.End - s.Start
}

// On anchors the slot to the calendar date of day.
func (s TimeSlot) On(day time.Time) (start, end time.Time) {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return midnight.Add(s.Start), midnight.Add(s.End)
}

func (s TimeSlot) String() string {
	return clock(s.Start) + "-" + clock(s.End)
}

func clock(d time.Duration) string {
	total := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
