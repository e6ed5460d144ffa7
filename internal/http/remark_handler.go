package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ttelab/orgaservice/internal/application"
	"github.com/ttelab/orgaservice/internal/persistence"
)

type remarkService interface {
	AddRemark(ctx context.Context, principal application.Principal, clientID string, input application.RemarkInput) (persistence.Remark, error)
	ListRemarks(ctx context.Context, principal application.Principal, clientID string) ([]persistence.Remark, error)
	UpdateRemark(ctx context.Context, principal application.Principal, remarkID string, input application.RemarkInput) (persistence.Remark, error)
	DeleteRemark(ctx context.Context, principal application.Principal, remarkID string) error
}

type RemarkHandler struct {
	service   remarkService
	responder responder
	logger    *slog.Logger
}

func NewRemarkHandler(service remarkService, logger *slog.Logger) *RemarkHandler {
	base := defaultLogger(logger)
	return &RemarkHandler{service: service, responder: newResponder(base), logger: base}
}

type remarkRequest struct {
	Content string   `json:"content"`
	Images  []string `json:"images"`
}

func (r remarkRequest) input() application.RemarkInput {
	return application.RemarkInput{Content: r.Content, Images: r.Images}
}

// List returns the remarks on a client. The resource ID in context is the
// client's.
func (h *RemarkHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	clientID, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	remarks, err := h.service.ListRemarks(r.Context(), principal, clientID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	views := make([]remarkResponse, 0, len(remarks))
	for _, remark := range remarks {
		views = append(views, remarkView(remark))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, views)
}

// Create attaches a remark to a client. The resource ID in context is the
// client's.
func (h *RemarkHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	clientID, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	var req remarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	remark, err := h.service.AddRemark(r.Context(), principal, clientID, req.input())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "RemarkHandler", "Create").
		With("remark_id", remark.ID, "client_id", clientID).InfoContext(r.Context(), "remark created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, remarkView(remark))
}

func (h *RemarkHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	remarkID, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	var req remarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	remark, err := h.service.UpdateRemark(r.Context(), principal, remarkID, req.input())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, remarkView(remark))
}

func (h *RemarkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	remarkID, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	if err := h.service.DeleteRemark(r.Context(), principal, remarkID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
