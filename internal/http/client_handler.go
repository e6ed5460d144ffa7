package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ttelab/orgaservice/internal/application"
	"github.com/ttelab/orgaservice/internal/persistence"
)

type clientService interface {
	CreateClient(ctx context.Context, principal application.Principal, input application.ClientInput) (persistence.Client, error)
	UpdateClient(ctx context.Context, principal application.Principal, clientID string, input application.ClientInput) (persistence.Client, error)
	GetClient(ctx context.Context, principal application.Principal, clientID string) (persistence.Client, error)
	ListClients(ctx context.Context, principal application.Principal) ([]persistence.Client, error)
	DeleteClient(ctx context.Context, principal application.Principal, clientID string) error
}

type ClientHandler struct {
	service   clientService
	responder responder
	logger    *slog.Logger
}

func NewClientHandler(service clientService, logger *slog.Logger) *ClientHandler {
	base := defaultLogger(logger)
	return &ClientHandler{service: service, responder: newResponder(base), logger: base}
}

type addressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Access     string `json:"access"`
	HasKey     bool   `json:"has_key"`
}

// clientRequest carries client fields. Addresses distinguishes absent (keep
// the stored list) from empty (clear it) on update.
type clientRequest struct {
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	Type      string            `json:"type"`
	Status    string            `json:"status"`
	Addresses *[]addressRequest `json:"addresses"`
}

func (r clientRequest) input() application.ClientInput {
	input := application.ClientInput{Name: r.Name, Email: r.Email, Phone: r.Phone, Type: r.Type, Status: r.Status}
	if r.Addresses != nil {
		input.Addresses = make([]application.AddressInput, 0, len(*r.Addresses))
		for _, address := range *r.Addresses {
			input.Addresses = append(input.Addresses, application.AddressInput{
				Street:     address.Street,
				City:       address.City,
				PostalCode: address.PostalCode,
				Access:     address.Access,
				HasKey:     address.HasKey,
			})
		}
	}
	return input
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	clients, err := h.service.ListClients(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	views := make([]clientResponse, 0, len(clients))
	for _, client := range clients {
		views = append(views, clientView(client))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, views)
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	client, err := h.service.CreateClient(r.Context(), principal, req.input())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "ClientHandler", "Create").
		With("client_id", client.ID).InfoContext(r.Context(), "client created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, clientView(client))
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	client, err := h.service.GetClient(r.Context(), principal, clientID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, clientView(client))
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	client, err := h.service.UpdateClient(r.Context(), principal, clientID, req.input())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, clientView(client))
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.DeleteClient(r.Context(), principal, clientID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
