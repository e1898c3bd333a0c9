package availability

import (
	"fmt"
	"time"
)

// SlotDuration is the fixed appointment slot size. All slot starts are
// aligned to this granularity, so exact-start collision is equivalent to
// interval overlap.
const SlotDuration = 30 * time.Minute

// TimeOfDay is a wall-clock time without a date, minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS" (the TIME column format).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q out of range", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// Minutes returns the offset from midnight in minutes.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Before reports whether t is strictly earlier than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Minutes() < other.Minutes()
}

// Window is a doctor's weekly working schedule: a circular weekday range
// over {0..6} (Sunday=0) and a daily [FromTime, ToTime) interval.
type Window struct {
	FromWeekday int
	ToWeekday   int
	FromTime    TimeOfDay
	ToTime      TimeOfDay
}

// Validate rejects windows that can never admit a slot. FromWeekday equal to
// ToWeekday is a valid single-day schedule; FromTime equal to ToTime is not.
func (w Window) Validate() error {
	if w.FromWeekday < 0 || w.FromWeekday > 6 || w.ToWeekday < 0 || w.ToWeekday > 6 {
		return fmt.Errorf("weekdays must be in 0..6, got %d..%d", w.FromWeekday, w.ToWeekday)
	}
	if !w.FromTime.Before(w.ToTime) {
		return fmt.Errorf("availableFromTime %s must be before availableToTime %s", w.FromTime, w.ToTime)
	}
	return nil
}

// WeekdayInRange reports whether day falls inside the circular range
// [from, to] over {0..6}. The range may wrap past Saturday: from=5 (Friday),
// to=1 (Monday) covers Friday, Saturday, Sunday and Monday. from == to
// means a single allowed day.
func WeekdayInRange(from, to, day int) bool {
	for d := from; ; d = (d + 1) % 7 {
		if d == day {
			return true
		}
		if d == to {
			return false
		}
	}
}

// Contains reports whether ts falls inside the window: weekday within the
// circular range and time-of-day within [FromTime, ToTime).
func (w Window) Contains(ts time.Time) bool {
	if !WeekdayInRange(w.FromWeekday, w.ToWeekday, int(ts.Weekday())) {
		return false
	}
	minutes := ts.Hour()*60 + ts.Minute()
	return minutes >= w.FromTime.Minutes() && minutes < w.ToTime.Minutes()
}

// Aligned reports whether ts sits on a slot boundary.
func Aligned(ts time.Time) bool {
	slotMinutes := int(SlotDuration / time.Minute)
	return ts.Minute()%slotMinutes == 0 && ts.Second() == 0 && ts.Nanosecond() == 0
}

// IsSlotAvailable reports whether a candidate slot start is inside the
// working window and not already booked. booked carries the doctor's
// existing appointment starts for the relevant period.
func IsSlotAvailable(w Window, start time.Time, booked []time.Time) bool {
	if !Aligned(start) || !w.Contains(start) {
		return false
	}
	for _, b := range booked {
		if b.Equal(start) {
			return false
		}
	}
	return true
}

// OpenSlots lists the free slot starts for one calendar day. The day's
// weekday must be inside the window's weekday range, otherwise the result
// is empty. booked entries on other days are ignored.
func OpenSlots(w Window, day time.Time, booked []time.Time) []TimeOfDay {
	if !WeekdayInRange(w.FromWeekday, w.ToWeekday, int(day.Weekday())) {
		return nil
	}

	taken := make(map[int]bool, len(booked))
	for _, b := range booked {
		if b.Year() == day.Year() && b.YearDay() == day.YearDay() {
			taken[b.Hour()*60+b.Minute()] = true
		}
	}

	step := int(SlotDuration / time.Minute)
	start := w.FromTime.Minutes()
	if rem := start % step; rem != 0 {
		// Round up to the next slot boundary for windows like 08:15.
		start += step - rem
	}
	var slots []TimeOfDay
	for m := start; m < w.ToTime.Minutes(); m += step {
		if taken[m] {
			continue
		}
		slots = append(slots, TimeOfDay{Hour: m / 60, Minute: m % 60})
	}
	return slots
}
