package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

// upcomingEventLimit caps the "prochains événements" list on the dashboard.
const upcomingEventLimit = 5

// DashboardService aggregates the owner-scoped totals shown on the home screen.
type DashboardService struct {
	dashboard persistence.DashboardRepository
	events    persistence.CalendarEventRepository
	now       func() time.Time
}

// NewDashboardService wires dependencies for the dashboard service.
func NewDashboardService(dashboard persistence.DashboardRepository, events persistence.CalendarEventRepository, now func() time.Time) *DashboardService {
	if now == nil {
		now = time.Now
	}
	return &DashboardService{dashboard: dashboard, events: events, now: now}
}

// Overview returns the caller's counts and their next few dated events.
func (s *DashboardService) Overview(ctx context.Context, principal Principal) (DashboardOverview, error) {
	if s == nil {
		return DashboardOverview{}, fmt.Errorf("DashboardService is nil")
	}
	if s.dashboard == nil {
		return DashboardOverview{}, fmt.Errorf("dashboard repository not configured")
	}

	counts, err := s.dashboard.CountForOwner(ctx, principal.UserID)
	if err != nil {
		return DashboardOverview{}, err
	}

	overview := DashboardOverview{
		Clients:           counts.Clients,
		Projects:          counts.Projects,
		ChantiersByStatus: counts.ChantiersByStatus,
	}

	if s.events != nil {
		from := s.now()
		upcoming, err := s.events.ListEvents(ctx, persistence.EventFilter{OwnerID: principal.UserID, From: &from})
		if err != nil {
			return DashboardOverview{}, err
		}
		if len(upcoming) > upcomingEventLimit {
			upcoming = upcoming[:upcomingEventLimit]
		}
		overview.UpcomingEvents = upcoming
	}

	return overview, nil
}
