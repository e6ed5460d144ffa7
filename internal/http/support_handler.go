package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ttelab/orgaservice/internal/application"
	"github.com/ttelab/orgaservice/internal/persistence"
)

type supportService interface {
	PostMessage(ctx context.Context, principal application.Principal, targetUserID, content string) (persistence.SupportMessage, error)
	ListMessages(ctx context.Context, principal application.Principal, targetUserID string) ([]persistence.SupportMessage, error)
}

type SupportHandler struct {
	service   supportService
	responder responder
	logger    *slog.Logger
}

func NewSupportHandler(service supportService, logger *slog.Logger) *SupportHandler {
	base := defaultLogger(logger)
	return &SupportHandler{service: service, responder: newResponder(base), logger: base}
}

type postMessageRequest struct {
	Content string `json:"content"`
}

// List returns the caller's thread. Admins pass user_id to read another
// user's thread.
func (h *SupportHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	messages, err := h.service.ListMessages(r.Context(), principal, r.URL.Query().Get("user_id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	views := make([]supportMessageResponse, 0, len(messages))
	for _, message := range messages {
		views = append(views, supportMessageView(message))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, views)
}

// Post appends a message. Admins pass user_id to reply in another user's
// thread.
func (h *SupportHandler) Post(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	message, err := h.service.PostMessage(r.Context(), principal, r.URL.Query().Get("user_id"), req.Content)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "SupportHandler", "Post").
		With("message_id", message.ID, "from_admin", message.FromAdmin).
		InfoContext(r.Context(), "support message posted")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, supportMessageView(message))
}
