// Package schedule implements slot arithmetic, candidate resolution and
// conflict detection for spa bookings. Everything here is pure: time is an
// integer count of minutes from midnight and no database or clock is touched,
// which keeps the rules easy to test and reuse across the booking flows.
package schedule

import (
	"errors"
	"fmt"

	"serenity/shared/constant"
	"serenity/shared/timezone"
)

var (
	ErrInvalidClock         = errors.New("clock value must be HH:MM between 00:00 and 23:59")
	ErrInvalidInterval      = errors.New("interval end must be after its start")
	ErrOutsideBusinessHours = errors.New("requested time falls outside business hours")
)

// TimeInterval is a half-open range [Start, End) of minutes from midnight.
// Half-open semantics mean a booking ending at minute 600 does not collide
// with one starting at minute 600.
type TimeInterval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Overlaps reports whether two half-open intervals share at least one minute.
func (t TimeInterval) Overlaps(other TimeInterval) bool {
	return t.Start < other.End && other.Start < t.End
}

// Intersect returns the shared portion of two intervals. The second return
// value is false when the intervals do not overlap.
func (t TimeInterval) Intersect(other TimeInterval) (TimeInterval, bool) {
	if !t.Overlaps(other) {
		return TimeInterval{}, false
	}

	return TimeInterval{Start: max(t.Start, other.Start), End: min(t.End, other.End)}, true
}

// Duration returns the interval length in minutes.
func (t TimeInterval) Duration() int {
	return t.End - t.Start
}

func (t TimeInterval) String() string {
	return fmt.Sprintf("%s-%s", FormatClock(t.Start), FormatClock(t.End))
}

// ParseClock converts an "HH:MM" string to minutes from midnight.
func ParseClock(clock string) (int, error) {
	parsed, err := timezone.Parse(constant.ClockFormat, clock)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}

	return parsed.Hour()*60 + parsed.Minute(), nil
}

// FormatClock converts minutes from midnight to an "HH:MM" string.
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// Hours carries the business day boundaries and the turnaround buffer that
// frames every booking.
type Hours struct {
	Open   int
	Close  int
	Buffer int
}

// NewHours builds business hours from "HH:MM" boundaries and a buffer length
// in minutes.
func NewHours(open, close string, bufferMinutes int) (Hours, error) {
	openMinute, err := ParseClock(open)
	if err != nil {
		return Hours{}, err
	}

	closeMinute, err := ParseClock(close)
	if err != nil {
		return Hours{}, err
	}

	if closeMinute <= openMinute {
		return Hours{}, ErrInvalidInterval
	}

	return Hours{Open: openMinute, Close: closeMinute, Buffer: bufferMinutes}, nil
}

// Slot is the result of placing a treatment on the business day: the occupied
// interval is what the customer sees, the buffered interval is what the staff
// member and room are actually blocked for.
type Slot struct {
	Occupied TimeInterval
	Buffered TimeInterval
}

// ComputeSlot places a treatment of the given duration at startMinute. The
// occupied interval must lie fully inside business hours; the buffer is
// padded on both sides and clamped so it never leaks past opening or closing
// time.
func (h Hours) ComputeSlot(startMinute, durationMinutes int) (Slot, error) {
	if durationMinutes <= 0 {
		return Slot{}, ErrInvalidInterval
	}

	occupied := TimeInterval{Start: startMinute, End: startMinute + durationMinutes}
	if occupied.Start < h.Open || occupied.End > h.Close {
		return Slot{}, ErrOutsideBusinessHours
	}

	buffered := TimeInterval{
		Start: max(h.Open, occupied.Start-h.Buffer),
		End:   min(h.Close, occupied.End+h.Buffer),
	}

	return Slot{Occupied: occupied, Buffered: buffered}, nil
}
