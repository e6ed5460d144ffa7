package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubBookings struct {
	intervals []BookedInterval
	err       error

	lastFrom time.Time
	lastTo   time.Time
}

func (s *stubBookings) ListBookedIntervals(_ context.Context, _ string, from, to time.Time) ([]BookedInterval, error) {
	s.lastFrom = from
	s.lastTo = to
	if s.err != nil {
		return nil, s.err
	}
	return s.intervals, nil
}

type stubCalendars struct {
	calendar WorkCalendar
}

func (s *stubCalendars) WorkCalendarFor(context.Context, string) (WorkCalendar, error) {
	return s.calendar, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestPlanner_Propose(t *testing.T) {
	t.Parallel()

	calendars := &stubCalendars{calendar: weekdayCalendar(8, 17)}

	t.Run("starts the query at tomorrow for the current month", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.February, 15, 11, 30, 0, 0, time.UTC)
		bookings := &stubBookings{}
		planner := NewPlanner(bookings, calendars, nil, fixedClock(now))

		proposed, err := planner.Propose(context.Background(), ProposalRequest{
			OwnerID:         "user-1",
			Month:           Month{Year: 2026, Month: time.February},
			DurationMinutes: 60,
			Index:           0,
			Total:           1,
		})
		if err != nil {
			t.Fatalf("Propose returned error: %v", err)
		}
		if proposed == nil {
			t.Fatal("expected a proposal")
		}
		wantFrom := time.Date(2026, time.February, 16, 0, 0, 0, 0, time.UTC)
		if !bookings.lastFrom.Equal(wantFrom) {
			t.Fatalf("query started at %s, expected the 16th", bookings.lastFrom)
		}
		if proposed.Before(wantFrom) {
			t.Fatalf("proposal %s precedes tomorrow", proposed)
		}
	})

	t.Run("starts at day one for a future month", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.January, 20, 9, 0, 0, 0, time.UTC)
		bookings := &stubBookings{}
		planner := NewPlanner(bookings, calendars, nil, fixedClock(now))

		proposed, err := planner.Propose(context.Background(), ProposalRequest{
			OwnerID:         "user-1",
			Month:           Month{Year: 2026, Month: time.March},
			DurationMinutes: 60,
			Total:           1,
		})
		if err != nil {
			t.Fatalf("Propose returned error: %v", err)
		}
		if proposed == nil {
			t.Fatal("expected a proposal")
		}
		// March 1st 2026 is a Sunday; the first working day is Monday the 2nd.
		want := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
		if !proposed.Equal(want) {
			t.Fatalf("proposal %s, expected %s", proposed, want)
		}
	})

	t.Run("yields nothing for a past month", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.April, 2, 9, 0, 0, 0, time.UTC)
		planner := NewPlanner(&stubBookings{}, calendars, nil, fixedClock(now))

		proposed, err := planner.Propose(context.Background(), ProposalRequest{
			OwnerID:         "user-1",
			Month:           Month{Year: 2026, Month: time.March},
			DurationMinutes: 60,
			Total:           1,
		})
		if err != nil {
			t.Fatalf("Propose returned error: %v", err)
		}
		if proposed != nil {
			t.Fatalf("expected no proposal for a past month, got %s", proposed)
		}
	})

	t.Run("yields nothing for a month in a previous year", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.April, 2, 9, 0, 0, 0, time.UTC)
		bookings := &stubBookings{}
		planner := NewPlanner(bookings, calendars, nil, fixedClock(now))

		proposed, err := planner.Propose(context.Background(), ProposalRequest{
			OwnerID:         "user-1",
			Month:           Month{Year: 2025, Month: time.December},
			DurationMinutes: 60,
			Total:           1,
		})
		if err != nil {
			t.Fatalf("Propose returned error: %v", err)
		}
		if proposed != nil {
			t.Fatalf("expected no proposal for a past year, got %s", proposed)
		}
	})

	t.Run("only proposes on the calendar's active weekdays", func(t *testing.T) {
		t.Parallel()

		mondayOnly := &stubCalendars{calendar: WorkCalendar{
			Weekdays: []time.Weekday{time.Monday},
			DayStart: ClockTime(9, 0),
			DayEnd:   ClockTime(12, 0),
		}}
		now := time.Date(2026, time.January, 20, 9, 0, 0, 0, time.UTC)
		planner := NewPlanner(&stubBookings{}, mondayOnly, nil, fixedClock(now))

		// March 2026 has five Mondays: the 2nd, 9th, 16th, 23rd and 30th.
		want := []time.Time{
			time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC),
			time.Date(2026, time.March, 16, 9, 0, 0, 0, time.UTC),
			time.Date(2026, time.March, 30, 9, 0, 0, 0, time.UTC),
		}
		for i, expected := range want {
			proposed, err := planner.Propose(context.Background(), ProposalRequest{
				OwnerID:         "user-1",
				Month:           Month{Year: 2026, Month: time.March},
				DurationMinutes: 60,
				Index:           i,
				Total:           len(want),
			})
			if err != nil {
				t.Fatalf("Propose index %d returned error: %v", i, err)
			}
			if proposed == nil {
				t.Fatalf("index %d: expected a proposal", i)
			}
			if proposed.Weekday() != time.Monday {
				t.Fatalf("index %d: proposal %s falls on %s", i, proposed, proposed.Weekday())
			}
			if !proposed.Equal(expected) {
				t.Fatalf("index %d: proposal %s, expected %s", i, proposed, expected)
			}
		}
	})

	t.Run("yields nothing when the month end is already behind tomorrow", func(t *testing.T) {
		t.Parallel()

		// Last day of the month: tomorrow falls in March.
		now := time.Date(2026, time.February, 28, 9, 0, 0, 0, time.UTC)
		planner := NewPlanner(&stubBookings{}, calendars, nil, fixedClock(now))

		proposed, err := planner.Propose(context.Background(), ProposalRequest{
			OwnerID:         "user-1",
			Month:           Month{Year: 2026, Month: time.February},
			DurationMinutes: 60,
			Total:           1,
		})
		if err != nil {
			t.Fatalf("Propose returned error: %v", err)
		}
		if proposed != nil {
			t.Fatalf("expected no proposal, got %s", proposed)
		}
	})

	t.Run("surfaces booking source failures unmodified", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("storage unavailable")
		now := time.Date(2026, time.January, 20, 9, 0, 0, 0, time.UTC)
		planner := NewPlanner(&stubBookings{err: wantErr}, calendars, nil, fixedClock(now))

		_, err := planner.Propose(context.Background(), ProposalRequest{
			OwnerID:         "user-1",
			Month:           Month{Year: 2026, Month: time.March},
			DurationMinutes: 60,
			Total:           1,
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("expected the source error, got %v", err)
		}
	})

	t.Run("reserves additional bookings passed with the request", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.January, 20, 9, 0, 0, 0, time.UTC)
		planner := NewPlanner(&stubBookings{}, calendars, nil, fixedClock(now))
		firstDay := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

		proposed, err := planner.Propose(context.Background(), ProposalRequest{
			OwnerID:         "user-1",
			Month:           Month{Year: 2026, Month: time.March},
			DurationMinutes: 60,
			Total:           1,
			AdditionalBookings: []BookedInterval{
				{Start: firstDay, DurationMinutes: 60},
			},
		})
		if err != nil {
			t.Fatalf("Propose returned error: %v", err)
		}
		if proposed == nil {
			t.Fatal("expected a proposal")
		}
		if proposed.Equal(firstDay) {
			t.Fatal("proposal collides with a reserved interval")
		}
	})

	t.Run("is deterministic for fixed inputs", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.January, 20, 9, 0, 0, 0, time.UTC)
		bookings := &stubBookings{intervals: []BookedInterval{
			{Start: time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC), DurationMinutes: 90},
		}}
		planner := NewPlanner(bookings, calendars, nil, fixedClock(now))
		req := ProposalRequest{
			OwnerID:         "user-1",
			Month:           Month{Year: 2026, Month: time.March},
			DurationMinutes: 45,
			Index:           1,
			Total:           3,
		}

		first, err := planner.Propose(context.Background(), req)
		if err != nil {
			t.Fatalf("Propose returned error: %v", err)
		}
		second, err := planner.Propose(context.Background(), req)
		if err != nil {
			t.Fatalf("Propose returned error: %v", err)
		}
		if first == nil || second == nil || !first.Equal(*second) {
			t.Fatalf("proposals differ: %v vs %v", first, second)
		}
	})
}

func TestSlotIndexFor(t *testing.T) {
	t.Parallel()

	t.Run("a single occurrence always takes the first slot", func(t *testing.T) {
		t.Parallel()

		for _, slotCount := range []int{1, 5, 31} {
			if got := slotIndexFor(0, 1, slotCount); got != 0 {
				t.Fatalf("slotCount=%d: got %d, expected 0", slotCount, got)
			}
		}
	})

	t.Run("three occurrences over ten slots map to 0, 5, 9", func(t *testing.T) {
		t.Parallel()

		want := []int{0, 5, 9}
		for i, expected := range want {
			if got := slotIndexFor(i, 3, 10); got != expected {
				t.Fatalf("index %d: got %d, expected %d", i, got, expected)
			}
		}
	})

	t.Run("chosen indices are non-decreasing and span the slot range", func(t *testing.T) {
		t.Parallel()

		for _, tc := range []struct{ total, slots int }{
			{2, 2}, {2, 9}, {4, 7}, {5, 20}, {10, 3},
		} {
			prev := -1
			for i := 0; i < tc.total; i++ {
				got := slotIndexFor(i, tc.total, tc.slots)
				if got < prev {
					t.Fatalf("total=%d slots=%d: index %d maps below its predecessor", tc.total, tc.slots, i)
				}
				if got < 0 || got > tc.slots-1 {
					t.Fatalf("total=%d slots=%d: index %d out of bounds (%d)", tc.total, tc.slots, i, got)
				}
				prev = got
			}
			if first := slotIndexFor(0, tc.total, tc.slots); first != 0 {
				t.Fatalf("total=%d slots=%d: first occurrence maps to %d", tc.total, tc.slots, first)
			}
			if last := slotIndexFor(tc.total-1, tc.total, tc.slots); last != tc.slots-1 {
				t.Fatalf("total=%d slots=%d: last occurrence maps to %d", tc.total, tc.slots, last)
			}
		}
	})
}
