package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"github.com/ttelab/orgaservice/internal/persistence"
)

var eventTypes = map[string]bool{
	EventTypeChantier:    true,
	EventTypeRendezVous:  true,
	EventTypeProspection: true,
	EventTypeAutre:       true,
}

// CalendarService manages a provider's calendar events and their ICS export.
type CalendarService struct {
	events      persistence.CalendarEventRepository
	idGenerator func() string
	now         func() time.Time
}

// NewCalendarService wires dependencies for the calendar service.
func NewCalendarService(events persistence.CalendarEventRepository, idGenerator func() string, now func() time.Time) *CalendarService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CalendarService{events: events, idGenerator: idGenerator, now: now}
}

// CreateEvent validates input and persists a new calendar event for the caller.
func (s *CalendarService) CreateEvent(ctx context.Context, principal Principal, input EventInput) (persistence.CalendarEvent, error) {
	if s == nil {
		return persistence.CalendarEvent{}, fmt.Errorf("CalendarService is nil")
	}
	if s.events == nil {
		return persistence.CalendarEvent{}, fmt.Errorf("event repository not configured")
	}

	normalized := normalizeEventInput(input)
	if vErr := validateEventInput(normalized); vErr.HasErrors() {
		return persistence.CalendarEvent{}, vErr
	}

	now := s.now()
	event := persistence.CalendarEvent{
		ID:              s.idGenerator(),
		EventType:       normalized.EventType,
		OwnerID:         principal.UserID,
		ClientID:        normalized.ClientID,
		DateTime:        normalized.DateTime,
		DurationMinutes: normalized.DurationMinutes,
		Title:           normalized.Title,
		Description:     normalized.Description,
		Location:        normalized.Location,
		Status:          normalized.Status,
		Recurring:       normalized.Recurring,
		Notes:           normalized.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.events.CreateEvent(ctx, event); err != nil {
		return persistence.CalendarEvent{}, err
	}
	return event, nil
}

// UpdateEvent validates input and updates an event owned by the caller.
func (s *CalendarService) UpdateEvent(ctx context.Context, principal Principal, eventID string, input EventInput) (persistence.CalendarEvent, error) {
	if s == nil {
		return persistence.CalendarEvent{}, fmt.Errorf("CalendarService is nil")
	}
	if s.events == nil {
		return persistence.CalendarEvent{}, fmt.Errorf("event repository not configured")
	}

	existing, err := s.getOwned(ctx, principal, eventID)
	if err != nil {
		return persistence.CalendarEvent{}, err
	}

	normalized := normalizeEventInput(input)
	if vErr := validateEventInput(normalized); vErr.HasErrors() {
		return persistence.CalendarEvent{}, vErr
	}

	updated := existing
	updated.EventType = normalized.EventType
	updated.ClientID = normalized.ClientID
	updated.DateTime = normalized.DateTime
	updated.DurationMinutes = normalized.DurationMinutes
	updated.Title = normalized.Title
	updated.Description = normalized.Description
	updated.Location = normalized.Location
	updated.Status = normalized.Status
	updated.Recurring = normalized.Recurring
	updated.Notes = normalized.Notes
	updated.UpdatedAt = s.now()

	if err := s.events.UpdateEvent(ctx, updated); err != nil {
		return persistence.CalendarEvent{}, err
	}
	return updated, nil
}

// GetEvent returns one event owned by the caller.
func (s *CalendarService) GetEvent(ctx context.Context, principal Principal, eventID string) (persistence.CalendarEvent, error) {
	if s == nil {
		return persistence.CalendarEvent{}, fmt.Errorf("CalendarService is nil")
	}
	if s.events == nil {
		return persistence.CalendarEvent{}, fmt.Errorf("event repository not configured")
	}
	return s.getOwned(ctx, principal, eventID)
}

// ListEvents returns the caller's events, optionally bounded in time or by type.
func (s *CalendarService) ListEvents(ctx context.Context, params EventListParams) ([]persistence.CalendarEvent, error) {
	if s == nil {
		return nil, fmt.Errorf("CalendarService is nil")
	}
	if s.events == nil {
		return nil, nil
	}
	return s.events.ListEvents(ctx, persistence.EventFilter{
		OwnerID:   params.Principal.UserID,
		EventType: params.EventType,
		From:      params.From,
		To:        params.To,
	})
}

// DeleteEvent removes one event owned by the caller.
func (s *CalendarService) DeleteEvent(ctx context.Context, principal Principal, eventID string) error {
	if s == nil {
		return fmt.Errorf("CalendarService is nil")
	}
	if s.events == nil {
		return fmt.Errorf("event repository not configured")
	}

	if _, err := s.getOwned(ctx, principal, eventID); err != nil {
		return err
	}
	if err := s.events.DeleteEvent(ctx, eventID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ExportICS renders the caller's dated events as an iCalendar document.
func (s *CalendarService) ExportICS(ctx context.Context, principal Principal) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("CalendarService is nil")
	}
	if s.events == nil {
		return nil, fmt.Errorf("event repository not configured")
	}

	listed, err := s.events.ListEvents(ctx, persistence.EventFilter{OwnerID: principal.UserID})
	if err != nil {
		return nil, err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, "-//OrgaService//Calendrier//FR")
	cal.Props.SetText(ical.PropVersion, "2.0")

	now := s.now().UTC()
	for _, event := range listed {
		if event.DateTime == nil {
			continue
		}
		start := event.DateTime.UTC()
		duration := event.DurationMinutes
		if duration <= 0 {
			duration = 60
		}

		entry := ical.NewEvent()
		entry.Props.SetText(ical.PropUID, event.ID+"@orgaservice")
		entry.Props.SetDateTime(ical.PropDateTimeStamp, now)
		entry.Props.SetDateTime(ical.PropDateTimeStart, start)
		entry.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(time.Duration(duration)*time.Minute))
		entry.Props.SetText(ical.PropSummary, event.Title)
		if event.Description != "" {
			entry.Props.SetText(ical.PropDescription, event.Description)
		}
		if event.Location != "" {
			entry.Props.SetText(ical.PropLocation, event.Location)
		}
		cal.Children = append(cal.Children, entry.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *CalendarService) getOwned(ctx context.Context, principal Principal, eventID string) (persistence.CalendarEvent, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.CalendarEvent{}, ErrNotFound
		}
		return persistence.CalendarEvent{}, err
	}
	if event.OwnerID != principal.UserID {
		return persistence.CalendarEvent{}, ErrNotFound
	}
	return event, nil
}

func normalizeEventInput(input EventInput) EventInput {
	if input.EventType == "" {
		input.EventType = EventTypeAutre
	}
	if input.DurationMinutes <= 0 {
		input.DurationMinutes = 60
	}
	if input.Status == "" {
		input.Status = "confirme"
	}
	return input
}

func validateEventInput(input EventInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Title == "" {
		vErr.add("title", "le titre est requis")
	}
	if !eventTypes[input.EventType] {
		vErr.add("event_type", "type d'événement invalide")
	}

	return vErr
}
