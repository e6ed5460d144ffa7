package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ttelab/orgaservice/internal/application"
)

type dashboardService interface {
	Overview(ctx context.Context, principal application.Principal) (application.DashboardOverview, error)
}

type DashboardHandler struct {
	service   dashboardService
	responder responder
}

func NewDashboardHandler(service dashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

type dashboardResponse struct {
	Clients           int             `json:"clients"`
	Projects          int             `json:"projects"`
	ChantiersByStatus map[string]int  `json:"chantiers_by_status"`
	UpcomingEvents    []eventResponse `json:"upcoming_events"`
}

func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, nil)
		return
	}

	overview, err := h.service.Overview(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := dashboardResponse{
		Clients:           overview.Clients,
		Projects:          overview.Projects,
		ChantiersByStatus: overview.ChantiersByStatus,
		UpcomingEvents:    make([]eventResponse, 0, len(overview.UpcomingEvents)),
	}
	for _, event := range overview.UpcomingEvents {
		resp.UpcomingEvents = append(resp.UpcomingEvents, eventView(event))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}
