package scheduling

import (
	"sort"
	"time"
)

// DefaultBufferMinutes is the mandatory idle time enforced between the end of
// a booked interval and the next candidate slot.
const DefaultBufferMinutes = 15

// TailPolicy decides which candidate start times are emitted between the end
// of a day's last booked interval and the end of the working window.
type TailPolicy func(cursor, dayEnd time.Time, durationMinutes int) []time.Time

// SingleTailSlot emits at most one candidate start directly at the cursor.
// This mirrors the historical behaviour: a lightly booked day yields one
// trailing proposal, not every start time the remaining gap could hold.
func SingleTailSlot(cursor, dayEnd time.Time, durationMinutes int) []time.Time {
	if !cursor.Add(time.Duration(durationMinutes) * time.Minute).After(dayEnd) {
		return []time.Time{cursor}
	}
	return nil
}

// SteppedTailSlots emits every start time in the tail gap on a grid of
// stepMinutes, starting at the cursor. A step of zero packs blocks
// back-to-back (duration-sized steps).
func SteppedTailSlots(stepMinutes int) TailPolicy {
	return func(cursor, dayEnd time.Time, durationMinutes int) []time.Time {
		step := time.Duration(stepMinutes) * time.Minute
		if stepMinutes <= 0 {
			step = time.Duration(durationMinutes) * time.Minute
		}
		var starts []time.Time
		for at := cursor; !at.Add(time.Duration(durationMinutes) * time.Minute).After(dayEnd); at = at.Add(step) {
			starts = append(starts, at)
		}
		return starts
	}
}

// Calculator discovers free slots on a single provider's calendar.
//
// The calculator is pure: identical inputs always produce identical output,
// and the absence of capacity is reported as an empty sequence rather than an
// error.
type Calculator struct {
	bufferMinutes int
	tail          TailPolicy
}

// CalculatorOption customises a Calculator.
type CalculatorOption func(*Calculator)

// WithBufferMinutes overrides the pause enforced after each booked interval.
func WithBufferMinutes(minutes int) CalculatorOption {
	return func(c *Calculator) {
		if minutes >= 0 {
			c.bufferMinutes = minutes
		}
	}
}

// WithTailPolicy overrides how trailing slots are emitted after a day's last
// booked interval.
func WithTailPolicy(policy TailPolicy) CalculatorOption {
	return func(c *Calculator) {
		if policy != nil {
			c.tail = policy
		}
	}
}

// NewCalculator constructs a Calculator with the default 15-minute buffer and
// the single-trailing-slot policy.
func NewCalculator(opts ...CalculatorOption) *Calculator {
	c := &Calculator{
		bufferMinutes: DefaultBufferMinutes,
		tail:          SingleTailSlot,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ComputeSlots walks each calendar day in [rangeStart, rangeEnd] and collects
// candidate start times of durationMinutes that fit the working window
// without overlapping a booked interval and that respect the buffer after
// each booked interval.
//
// An inverted range (start after end) is the normal signal for "nothing left
// to schedule" and yields an empty sequence. Output is chronological.
func (c *Calculator) ComputeSlots(rangeStart, rangeEnd time.Time, calendar WorkCalendar, durationMinutes int, booked []BookedInterval) []Slot {
	if c == nil {
		c = NewCalculator()
	}
	if durationMinutes <= 0 {
		return nil
	}

	start := dateOnly(rangeStart)
	end := dateOnly(rangeEnd)
	if end.Before(start) {
		return nil
	}

	var slots []Slot
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if !calendar.WorksOn(day.Weekday()) {
			continue
		}
		slots = append(slots, c.daySlots(day, calendar, durationMinutes, booked)...)
	}
	return slots
}

// daySlots walks one day's booked intervals in ascending start order with a
// cursor initialised to the working-day start.
func (c *Calculator) daySlots(day time.Time, calendar WorkCalendar, durationMinutes int, booked []BookedInterval) []Slot {
	dayStart := calendar.DayStart.At(day)
	dayEnd := calendar.DayEnd.At(day)
	duration := time.Duration(durationMinutes) * time.Minute
	buffer := time.Duration(c.bufferMinutes) * time.Minute

	dayBooked := intervalsOn(day, booked)

	var slots []Slot
	cursor := dayStart
	for _, interval := range dayBooked {
		blockEnd := cursor.Add(duration)
		if !blockEnd.After(interval.Start) && !blockEnd.After(dayEnd) {
			slots = append(slots, Slot{Start: cursor, DurationMinutes: durationMinutes})
		}
		// Overlapping or contained intervals must not regress the cursor.
		if intervalEnd := interval.End(); intervalEnd.After(cursor) {
			cursor = intervalEnd.Add(buffer)
		}
	}

	for _, at := range c.tail(cursor, dayEnd, durationMinutes) {
		slots = append(slots, Slot{Start: at, DurationMinutes: durationMinutes})
	}
	return slots
}

// intervalsOn selects the intervals starting on the given day, sorted by
// start time.
func intervalsOn(day time.Time, booked []BookedInterval) []BookedInterval {
	var selected []BookedInterval
	for _, interval := range booked {
		if interval.Start.IsZero() {
			continue
		}
		y1, m1, d1 := interval.Start.Date()
		y2, m2, d2 := day.Date()
		if y1 == y2 && m1 == m2 && d1 == d2 {
			selected = append(selected, interval)
		}
	}
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Start.Before(selected[j].Start)
	})
	return selected
}

func dateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
