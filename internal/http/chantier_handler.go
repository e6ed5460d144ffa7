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

type chantierService interface {
	ListChantiers(ctx context.Context, principal application.Principal, filter persistence.ChantierFilter) ([]persistence.Chantier, error)
	GetChantier(ctx context.Context, principal application.Principal, chantierID string) (persistence.Chantier, error)
	UpdateChantier(ctx context.Context, principal application.Principal, chantierID string, input application.ChantierUpdateInput) (persistence.Chantier, error)
	DeleteChantier(ctx context.Context, principal application.Principal, chantierID string) error
}

type ChantierHandler struct {
	service   chantierService
	responder responder
	logger    *slog.Logger
}

func NewChantierHandler(service chantierService, logger *slog.Logger) *ChantierHandler {
	base := defaultLogger(logger)
	return &ChantierHandler{service: service, responder: newResponder(base), logger: base}
}

// List returns the caller's work orders. Query parameters project_id,
// client_id, month and status narrow the result.
func (h *ChantierHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	query := r.URL.Query()
	filter := persistence.ChantierFilter{
		ProjectID:   query.Get("project_id"),
		ClientID:    query.Get("client_id"),
		MonthTarget: query.Get("month"),
		Status:      query.Get("status"),
	}

	chantiers, err := h.service.ListChantiers(r.Context(), principal, filter)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	views := make([]chantierResponse, 0, len(chantiers))
	for _, chantier := range chantiers {
		views = append(views, chantierView(chantier))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, views)
}

func (h *ChantierHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	chantierID, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	chantier, err := h.service.GetChantier(r.Context(), principal, chantierID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, chantierView(chantier))
}

type chantierUpdateRequest struct {
	Status          string  `json:"status"`
	DateTime        *string `json:"date_time"`
	DurationMinutes int     `json:"duration_minutes"`
}

func (h *ChantierHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	chantierID, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	var req chantierUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input := application.ChantierUpdateInput{Status: req.Status, DurationMinutes: req.DurationMinutes}
	if req.DateTime != nil && *req.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, *req.DateTime)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
		input.DateTime = &parsed
	}

	chantier, err := h.service.UpdateChantier(r.Context(), principal, chantierID, input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "ChantierHandler", "Update").
		With("chantier_id", chantier.ID, "status", chantier.Status).
		InfoContext(r.Context(), "chantier updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, chantierView(chantier))
}

func (h *ChantierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	chantierID, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	if err := h.service.DeleteChantier(r.Context(), principal, chantierID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
