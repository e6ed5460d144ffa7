package scheduling

import (
	"context"
	"fmt"
	"math"
	"time"
)

// BookingSource lists a provider's existing commitments overlapping a window.
// Both bounds are inclusive.
type BookingSource interface {
	ListBookedIntervals(ctx context.Context, ownerID string, from, to time.Time) ([]BookedInterval, error)
}

// CalendarSource resolves a provider's working pattern.
type CalendarSource interface {
	WorkCalendarFor(ctx context.Context, ownerID string) (WorkCalendar, error)
}

// ProposalRequest identifies one occurrence out of a month's total for which
// a start time is wanted.
type ProposalRequest struct {
	OwnerID         string
	Month           Month
	DurationMinutes int
	// Index is the zero-based occurrence number within the month; Total is
	// the number of occurrences planned for that month.
	Index int
	Total int
	// AdditionalBookings are treated as already committed on top of the
	// stored calendar, letting a caller reserve slots proposed earlier in
	// the same batch.
	AdditionalBookings []BookedInterval
}

// Planner proposes start times for work orders by spreading a month's
// occurrences proportionally across the available slots.
type Planner struct {
	bookings  BookingSource
	calendars CalendarSource
	calc      *Calculator
	now       func() time.Time
}

// NewPlanner wires a Planner. A nil calculator gets the default configuration
// and a nil clock falls back to time.Now.
func NewPlanner(bookings BookingSource, calendars CalendarSource, calc *Calculator, now func() time.Time) *Planner {
	if calc == nil {
		calc = NewCalculator()
	}
	if now == nil {
		now = time.Now
	}
	return &Planner{bookings: bookings, calendars: calendars, calc: calc, now: now}
}

// Propose computes the proposed start for one occurrence, or nil when the
// month holds no capacity. A failure to read the existing bookings is
// surfaced unmodified; lack of capacity is not an error.
func (p *Planner) Propose(ctx context.Context, req ProposalRequest) (*time.Time, error) {
	if p == nil || p.bookings == nil {
		return nil, fmt.Errorf("scheduling: planner not configured")
	}

	now := p.now()
	startDate := p.queryStartDate(req.Month, now)
	endDate := req.Month.LastDay(now.Location())
	if endDate.Before(startDate) {
		return nil, nil
	}

	from := startDate
	to := time.Date(endDate.Year(), endDate.Month(), endDate.Day(), 23, 59, 59, 0, endDate.Location())
	booked, err := p.bookings.ListBookedIntervals(ctx, req.OwnerID, from, to)
	if err != nil {
		return nil, err
	}
	booked = append(booked, req.AdditionalBookings...)

	calendar := DefaultWorkCalendar()
	if p.calendars != nil {
		calendar, err = p.calendars.WorkCalendarFor(ctx, req.OwnerID)
		if err != nil {
			return nil, err
		}
	}

	slots := p.calc.ComputeSlots(startDate, endDate, calendar, req.DurationMinutes, booked)
	if len(slots) == 0 {
		return nil, nil
	}

	chosen := slots[slotIndexFor(req.Index, req.Total, len(slots))].Start
	return &chosen, nil
}

// queryStartDate returns the first day eligible for scheduling: day 1 of the
// month, or tomorrow when the month is the current one. The remainder of
// today is never proposed. A month already behind the clock gets tomorrow as
// well, which leaves the query window empty.
func (p *Planner) queryStartDate(month Month, now time.Time) time.Time {
	today := dateOnly(now)
	tomorrow := today.AddDate(0, 0, 1)
	if month.Before(MonthOf(today)) {
		return tomorrow
	}
	first := month.FirstDay(now.Location())
	if MonthOf(today) == month && tomorrow.After(first) {
		return tomorrow
	}
	return first
}

// slotIndexFor maps occurrence index out of total onto slotCount slots by
// linear interpolation with round-half-up, clamped to the last slot.
func slotIndexFor(index, total, slotCount int) int {
	if total <= 1 {
		return 0
	}
	idx := int(math.Round(float64(index) * float64(slotCount-1) / float64(total-1)))
	if idx > slotCount-1 {
		idx = slotCount - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}
