package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ttelab/orgaservice/internal/application"
	"github.com/ttelab/orgaservice/internal/persistence"
)

type projectService interface {
	CreateProject(ctx context.Context, principal application.Principal, input application.ProjectInput) (persistence.Project, []persistence.Chantier, error)
	UpdateProject(ctx context.Context, principal application.Principal, projectID string, input application.ProjectInput) (persistence.Project, error)
	GetProject(ctx context.Context, principal application.Principal, projectID string) (persistence.Project, error)
	ListProjects(ctx context.Context, principal application.Principal) ([]persistence.Project, error)
	DeleteProject(ctx context.Context, principal application.Principal, projectID string) error
}

type ProjectHandler struct {
	service   projectService
	responder responder
	logger    *slog.Logger
}

func NewProjectHandler(service projectService, logger *slog.Logger) *ProjectHandler {
	base := defaultLogger(logger)
	return &ProjectHandler{service: service, responder: newResponder(base), logger: base}
}

type planItemRequest struct {
	Month       string `json:"month"`
	Occurrences int    `json:"occurrences"`
}

type projectRequest struct {
	ClientID        string            `json:"client_id"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Type            string            `json:"type"`
	FirstMonth      *string           `json:"first_month"`
	DurationMonths  *int              `json:"duration_months"`
	DurationMinutes int               `json:"duration_minutes"`
	PlanItems       []planItemRequest `json:"plan_items"`
}

func (r projectRequest) input() application.ProjectInput {
	input := application.ProjectInput{
		ClientID:        r.ClientID,
		Title:           r.Title,
		Description:     r.Description,
		Type:            r.Type,
		FirstMonth:      r.FirstMonth,
		DurationMonths:  r.DurationMonths,
		DurationMinutes: r.DurationMinutes,
	}
	for _, item := range r.PlanItems {
		input.PlanItems = append(input.PlanItems, application.PlanItemInput{Month: item.Month, Occurrences: item.Occurrences})
	}
	return input
}

// createProjectResponse returns the project together with the work orders
// generated from it, so callers see the proposed dates immediately.
type createProjectResponse struct {
	Project   projectResponse    `json:"project"`
	Chantiers []chantierResponse `json:"chantiers"`
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	projects, err := h.service.ListProjects(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	views := make([]projectResponse, 0, len(projects))
	for _, project := range projects {
		views = append(views, projectView(project))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, views)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	project, chantiers, err := h.service.CreateProject(r.Context(), principal, req.input())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "ProjectHandler", "Create").
		With("project_id", project.ID, "chantiers", len(chantiers)).
		InfoContext(r.Context(), "project created")

	resp := createProjectResponse{Project: projectView(project), Chantiers: make([]chantierResponse, 0, len(chantiers))}
	for _, chantier := range chantiers {
		resp.Chantiers = append(resp.Chantiers, chantierView(chantier))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, resp)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	projectID, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	project, err := h.service.GetProject(r.Context(), principal, projectID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, projectView(project))
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	projectID, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	project, err := h.service.UpdateProject(r.Context(), principal, projectID, req.input())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, projectView(project))
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}
	projectID, ok := ResourceIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	if err := h.service.DeleteProject(r.Context(), principal, projectID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
