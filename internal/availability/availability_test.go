package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(s)
	require.NoError(t, err)
	return tod
}

func window(t *testing.T, fromDay, toDay int, fromTime, toTime string) Window {
	t.Helper()
	return Window{
		FromWeekday: fromDay,
		ToWeekday:   toDay,
		FromTime:    mustTime(t, fromTime),
		ToTime:      mustTime(t, toTime),
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("08:30:00")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 8, Minute: 30}, tod)

	tod, err = ParseTimeOfDay("18:00")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 18, Minute: 0}, tod)

	_, err = ParseTimeOfDay("not-a-time")
	assert.Error(t, err)

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
}

func TestWeekdayInRange_Wrapping(t *testing.T) {
	// Friday (5) through Monday (1) accepts Fri, Sat, Sun, Mon only.
	for day := 0; day < 7; day++ {
		want := day == 5 || day == 6 || day == 0 || day == 1
		assert.Equal(t, want, WeekdayInRange(5, 1, day), "day %d", day)
	}
}

func TestWeekdayInRange_SimpleAndSingleDay(t *testing.T) {
	// Monday through Friday.
	assert.True(t, WeekdayInRange(1, 5, 3))
	assert.False(t, WeekdayInRange(1, 5, 0))
	assert.False(t, WeekdayInRange(1, 5, 6))

	// from == to means exactly one allowed day.
	assert.True(t, WeekdayInRange(3, 3, 3))
	assert.False(t, WeekdayInRange(3, 3, 2))
	assert.False(t, WeekdayInRange(3, 3, 4))
}

func TestWindowValidate(t *testing.T) {
	assert.NoError(t, window(t, 1, 5, "08:00", "18:00").Validate())
	assert.NoError(t, window(t, 5, 1, "08:00", "18:00").Validate())

	// fromTime == toTime is an invalid configuration.
	assert.Error(t, window(t, 1, 5, "08:00", "08:00").Validate())
	assert.Error(t, window(t, 1, 5, "18:00", "08:00").Validate())

	bad := window(t, 1, 5, "08:00", "18:00")
	bad.ToWeekday = 7
	assert.Error(t, bad.Validate())
}

func TestWindowContains(t *testing.T) {
	w := window(t, 1, 5, "08:00", "18:00")

	// 2026-01-05 is a Monday.
	monday := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	assert.True(t, w.Contains(monday))

	// fromTime is inclusive, toTime exclusive.
	assert.True(t, w.Contains(time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2026, 1, 5, 17, 30, 0, 0, time.UTC)))

	// 2026-01-04 is a Sunday, outside Monday-Friday.
	assert.False(t, w.Contains(time.Date(2026, 1, 4, 9, 0, 0, 0, time.UTC)))
}

func TestAligned(t *testing.T) {
	// Boundaries follow SlotDuration, not a literal minute count.
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	assert.True(t, Aligned(base))
	assert.True(t, Aligned(base.Add(SlotDuration)))
	assert.False(t, Aligned(base.Add(SlotDuration/2)))
	assert.False(t, Aligned(base.Add(time.Second)))
	assert.False(t, Aligned(base.Add(time.Nanosecond)))
}

func TestIsSlotAvailable(t *testing.T) {
	w := window(t, 1, 5, "08:00", "18:00")
	slot := time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC) // Monday

	assert.True(t, IsSlotAvailable(w, slot, nil))

	// Exact-start collision makes the slot unavailable.
	assert.False(t, IsSlotAvailable(w, slot, []time.Time{slot}))

	// A booking on a different slot does not.
	other := slot.Add(SlotDuration)
	assert.True(t, IsSlotAvailable(w, slot, []time.Time{other}))

	// Outside working hours.
	assert.False(t, IsSlotAvailable(w, time.Date(2026, 1, 5, 7, 30, 0, 0, time.UTC), nil))

	// Unaligned starts are never available.
	assert.False(t, IsSlotAvailable(w, time.Date(2026, 1, 5, 10, 15, 0, 0, time.UTC), nil))
}

func TestOpenSlots(t *testing.T) {
	w := window(t, 1, 5, "08:00", "10:00")
	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	slots := OpenSlots(w, monday, nil)
	require.Len(t, slots, 4)
	assert.Equal(t, "08:00", slots[0].String())
	assert.Equal(t, "09:30", slots[3].String())

	// A booked slot disappears from the list.
	booked := []time.Time{time.Date(2026, 1, 5, 8, 30, 0, 0, time.UTC)}
	slots = OpenSlots(w, monday, booked)
	require.Len(t, slots, 3)
	for _, s := range slots {
		assert.NotEqual(t, "08:30", s.String())
	}

	// A booking on another day is ignored.
	booked = []time.Time{time.Date(2026, 1, 6, 8, 30, 0, 0, time.UTC)}
	assert.Len(t, OpenSlots(w, monday, booked), 4)

	// Day outside the weekday range yields nothing.
	sunday := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, OpenSlots(w, sunday, nil))
}

func TestOpenSlots_UnalignedWindowStart(t *testing.T) {
	w := window(t, 1, 5, "08:15", "09:45")
	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	slots := OpenSlots(w, monday, nil)
	require.Len(t, slots, 2)
	assert.Equal(t, "08:30", slots[0].String())
	assert.Equal(t, "09:00", slots[1].String())
}
