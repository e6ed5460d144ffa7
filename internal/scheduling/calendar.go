package scheduling

import (
	"fmt"
	"time"
)

// MinuteOfDay expresses a time of day as minutes since midnight.
type MinuteOfDay int

// ClockTime builds a MinuteOfDay from an hour and minute pair.
func ClockTime(hour, minute int) MinuteOfDay {
	return MinuteOfDay(hour*60 + minute)
}

// At anchors the time of day onto the supplied calendar day.
func (m MinuteOfDay) At(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), int(m)/60, int(m)%60, 0, 0, day.Location())
}

// String renders the time of day as "HH:MM".
func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// WorkCalendar captures a provider's weekly working pattern: which weekdays
// are worked and the daily working window. It is a read-only input to the
// availability calculator.
type WorkCalendar struct {
	Weekdays []time.Weekday
	DayStart MinuteOfDay
	DayEnd   MinuteOfDay
}

// DefaultWorkCalendar returns the calendar applied when a user has not
// customised their working pattern: Monday through Friday, 07:00 to 20:00.
func DefaultWorkCalendar() WorkCalendar {
	return WorkCalendar{
		Weekdays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		DayStart: ClockTime(7, 0),
		DayEnd:   ClockTime(20, 0),
	}
}

// WorksOn reports whether the weekday belongs to the working pattern.
func (c WorkCalendar) WorksOn(day time.Weekday) bool {
	for _, w := range c.Weekdays {
		if w == day {
			return true
		}
	}
	return false
}

// BookedInterval is an existing commitment on the calendar that candidate
// slots must not overlap.
type BookedInterval struct {
	Start           time.Time
	DurationMinutes int
}

// End returns the instant the commitment finishes. Intervals without a
// recorded duration block one hour.
func (b BookedInterval) End() time.Time {
	minutes := b.DurationMinutes
	if minutes <= 0 {
		minutes = 60
	}
	return b.Start.Add(time.Duration(minutes) * time.Minute)
}

// Slot is a candidate placement of the requested duration. It carries no
// identity and is never persisted.
type Slot struct {
	Start           time.Time
	DurationMinutes int
}

// End returns the instant the candidate block finishes.
func (s Slot) End() time.Time {
	return s.Start.Add(time.Duration(s.DurationMinutes) * time.Minute)
}
