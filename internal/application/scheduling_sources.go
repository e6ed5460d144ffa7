package application

import (
	"context"
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
	"github.com/ttelab/orgaservice/internal/scheduling"
)

// eventBookingSource exposes an owner's dated calendar events as the booked
// intervals the availability calculator works against.
type eventBookingSource struct {
	events persistence.CalendarEventRepository
}

// NewEventBookingSource adapts the event repository to scheduling.BookingSource.
func NewEventBookingSource(events persistence.CalendarEventRepository) scheduling.BookingSource {
	return &eventBookingSource{events: events}
}

func (s *eventBookingSource) ListBookedIntervals(ctx context.Context, ownerID string, from, to time.Time) ([]scheduling.BookedInterval, error) {
	listed, err := s.events.ListEvents(ctx, persistence.EventFilter{OwnerID: ownerID, From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	intervals := make([]scheduling.BookedInterval, 0, len(listed))
	for _, event := range listed {
		if event.DateTime == nil {
			continue
		}
		intervals = append(intervals, scheduling.BookedInterval{
			Start:           *event.DateTime,
			DurationMinutes: event.DurationMinutes,
		})
	}
	return intervals, nil
}

// userCalendarSource derives a work calendar from the owner's profile.
type userCalendarSource struct {
	users persistence.UserRepository
}

// NewUserCalendarSource adapts the user repository to scheduling.CalendarSource.
func NewUserCalendarSource(users persistence.UserRepository) scheduling.CalendarSource {
	return &userCalendarSource{users: users}
}

func (s *userCalendarSource) WorkCalendarFor(ctx context.Context, ownerID string) (scheduling.WorkCalendar, error) {
	user, err := s.users.GetUser(ctx, ownerID)
	if err != nil {
		return scheduling.WorkCalendar{}, err
	}
	if len(user.WorkDays) == 0 || user.WorkStartMinutes >= user.WorkEndMinutes {
		return scheduling.DefaultWorkCalendar(), nil
	}

	return scheduling.WorkCalendar{
		Weekdays: append([]time.Weekday(nil), user.WorkDays...),
		DayStart: scheduling.MinuteOfDay(user.WorkStartMinutes),
		DayEnd:   scheduling.MinuteOfDay(user.WorkEndMinutes),
	}, nil
}
