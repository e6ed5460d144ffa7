package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ttelab/orgaservice/internal/application"
	"github.com/ttelab/orgaservice/internal/persistence"
)

type calendarService interface {
	CreateEvent(ctx context.Context, principal application.Principal, input application.EventInput) (persistence.CalendarEvent, error)
	UpdateEvent(ctx context.Context, principal application.Principal, eventID string, input application.EventInput) (persistence.CalendarEvent, error)
	GetEvent(ctx context.Context, principal application.Principal, eventID string) (persistence.CalendarEvent, error)
	ListEvents(ctx context.Context, params application.EventListParams) ([]persistence.CalendarEvent, error)
	DeleteEvent(ctx context.Context, principal application.Principal, eventID string) error
	ExportICS(ctx context.Context, principal application.Principal) ([]byte, error)
}

type EventHandler struct {
	service   calendarService
	responder responder
	logger    *slog.Logger
}

func NewEventHandler(service calendarService, logger *slog.Logger) *EventHandler {
	base := defaultLogger(logger)
	return &EventHandler{service: service, responder: newResponder(base), logger: base}
}

type eventRequest struct {
	EventType       string  `json:"event_type"`
	ClientID        *string `json:"client_id"`
	DateTime        *string `json:"date_time"`
	DurationMinutes int     `json:"duration_minutes"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Location        string  `json:"location"`
	Status          string  `json:"status"`
	Recurring       bool    `json:"recurring"`
	Notes           string  `json:"notes"`
}

func (r eventRequest) input() (application.EventInput, error) {
	input := application.EventInput{
		EventType:       r.EventType,
		ClientID:        r.ClientID,
		DurationMinutes: r.DurationMinutes,
		Title:           r.Title,
		Description:     r.Description,
		Location:        r.Location,
		Status:          r.Status,
		Recurring:       r.Recurring,
		Notes:           r.Notes,
	}
	if r.DateTime != nil && *r.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, *r.DateTime)
		if err != nil {
			return application.EventInput{}, err
		}
		input.DateTime = &parsed
	}
	return input, nil
}

// List returns the caller's events. Query parameters from, to (RFC 3339) and
// type narrow the result.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	params := application.EventListParams{Principal: principal, EventType: r.URL.Query().Get("type")}
	if value := r.URL.Query().Get("from"); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
		params.From = &parsed
	}
	if value := r.URL.Query().Get("to"); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
		params.To = &parsed
	}

	events, err := h.service.ListEvents(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	views := make([]eventResponse, 0, len(events))
	for _, event := range events {
		views = append(views, eventView(event))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, views)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	input, err := req.input()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	event, err := h.service.CreateEvent(r.Context(), principal, input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "EventHandler", "Create").
		With("event_id", event.ID, "event_type", event.EventType).
		InfoContext(r.Context(), "event created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, eventView(event))
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	eventID, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	event, err := h.service.GetEvent(r.Context(), principal, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventView(event))
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	eventID, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	input, err := req.input()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	event, err := h.service.UpdateEvent(r.Context(), principal, eventID, input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventView(event))
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	eventID, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	if err := h.service.DeleteEvent(r.Context(), principal, eventID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ExportICS streams the caller's calendar as an iCalendar document.
func (h *EventHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	data, err := h.service.ExportICS(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendrier.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		handlerLogger(r.Context(), h.logger, "EventHandler", "ExportICS").
			ErrorContext(r.Context(), "failed to write calendar export", "error", err)
	}
}
