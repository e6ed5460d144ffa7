package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
	"github.com/ttelab/orgaservice/internal/scheduling"
)

// ProjectService orchestrates projects and the work orders generated from
// them. Creating a project expands it into chantiers, each with its own
// proposed date computed by the planner, and mirrors every chantier onto the
// owner's calendar.
type ProjectService struct {
	projects  persistence.ProjectRepository
	clients   persistence.ClientRepository
	chantiers persistence.ChantierRepository
	events    persistence.CalendarEventRepository
	planner   *scheduling.Planner
	// reserveWithinBatch feeds each accepted proposal back into the bookings
	// snapshot of the same generation run, so two occurrences of one month
	// cannot land on the same slot. Off by default to keep the historical
	// spread behavior.
	reserveWithinBatch bool
	idGenerator        func() string
	now                func() time.Time
	logger             *slog.Logger
}

// ProjectServiceOption customises a ProjectService.
type ProjectServiceOption func(*ProjectService)

// ReserveWithinBatch makes each generation run treat its own earlier
// proposals as booked.
func ReserveWithinBatch() ProjectServiceOption {
	return func(s *ProjectService) { s.reserveWithinBatch = true }
}

// WithProjectLogger sets the fallback logger.
func WithProjectLogger(logger *slog.Logger) ProjectServiceOption {
	return func(s *ProjectService) { s.logger = logger }
}

// NewProjectService wires dependencies for the project service.
func NewProjectService(
	projects persistence.ProjectRepository,
	clients persistence.ClientRepository,
	chantiers persistence.ChantierRepository,
	events persistence.CalendarEventRepository,
	planner *scheduling.Planner,
	idGenerator func() string,
	now func() time.Time,
	opts ...ProjectServiceOption,
) *ProjectService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	s := &ProjectService{
		projects:    projects,
		clients:     clients,
		chantiers:   chantiers,
		events:      events,
		planner:     planner,
		idGenerator: idGenerator,
		now:         now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = defaultLogger(s.logger)
	return s
}

func (s *ProjectService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ProjectService", operation, attrs...)
}

// CreateProject validates input, persists the project and expands it into
// chantiers with proposed dates. The generated chantiers and their calendar
// events are persisted before returning.
func (s *ProjectService) CreateProject(ctx context.Context, principal Principal, input ProjectInput) (persistence.Project, []persistence.Chantier, error) {
	if s == nil {
		return persistence.Project{}, nil, fmt.Errorf("ProjectService is nil")
	}
	if s.projects == nil || s.chantiers == nil {
		return persistence.Project{}, nil, fmt.Errorf("project service not configured")
	}

	logger := s.loggerWith(ctx, "CreateProject", "owner_id", principal.UserID)

	normalized := normalizeProjectInput(input)
	if vErr := validateProjectInput(normalized); vErr.HasErrors() {
		return persistence.Project{}, nil, vErr
	}
	if err := s.checkClientOwned(ctx, principal, normalized.ClientID); err != nil {
		return persistence.Project{}, nil, err
	}

	now := s.now()
	project := persistence.Project{
		ID:              s.idGenerator(),
		ClientID:        normalized.ClientID,
		OwnerID:         principal.UserID,
		Title:           normalized.Title,
		Description:     normalized.Description,
		Type:            normalized.Type,
		FirstMonth:      normalized.FirstMonth,
		DurationMonths:  normalized.DurationMonths,
		DurationMinutes: normalized.DurationMinutes,
		Status:          "en_attente",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, item := range normalized.PlanItems {
		project.PlanItems = append(project.PlanItems, persistence.PlanItem{Month: item.Month, Occurrences: item.Occurrences})
	}

	chantiers, err := s.generateWorkOrders(ctx, project)
	if err != nil {
		logger.ErrorContext(ctx, "work order generation failed", "error", err, "error_kind", ErrorKind(err))
		return persistence.Project{}, nil, err
	}

	if err := s.projects.CreateProject(ctx, project); err != nil {
		return persistence.Project{}, nil, err
	}
	for _, chantier := range chantiers {
		if err := s.chantiers.CreateChantier(ctx, chantier); err != nil {
			return persistence.Project{}, nil, err
		}
		if s.events != nil {
			if err := s.events.CreateEvent(ctx, s.eventForChantier(project, chantier)); err != nil {
				return persistence.Project{}, nil, err
			}
		}
	}

	logger.With("project_id", project.ID, "chantiers", len(chantiers)).InfoContext(ctx, "project created")
	return project, chantiers, nil
}

// generateWorkOrders expands the project into chantier records without
// persisting them. A one-off project yields exactly one chantier, scheduled
// only when a first month is set. A recurring project yields one chantier per
// planned occurrence, each plan item queried against the bookings snapshot
// taken at the start of that item.
func (s *ProjectService) generateWorkOrders(ctx context.Context, project persistence.Project) ([]persistence.Chantier, error) {
	if project.Type == ProjectTypePonctuel {
		if project.FirstMonth == nil || *project.FirstMonth == "" {
			return []persistence.Chantier{s.newChantier(project, "", nil)}, nil
		}
		month, err := scheduling.ParseMonth(*project.FirstMonth)
		if err != nil {
			return nil, err
		}
		proposed, err := s.propose(ctx, project, month, 0, 1, nil)
		if err != nil {
			return nil, err
		}
		return []persistence.Chantier{s.newChantier(project, month.String(), proposed)}, nil
	}

	var chantiers []persistence.Chantier
	for _, item := range project.PlanItems {
		month, err := scheduling.ParseMonth(item.Month)
		if err != nil {
			return nil, err
		}
		var reserved []scheduling.BookedInterval
		for j := 0; j < item.Occurrences; j++ {
			proposed, err := s.propose(ctx, project, month, j, item.Occurrences, reserved)
			if err != nil {
				return nil, err
			}
			if proposed != nil && s.reserveWithinBatch {
				reserved = append(reserved, scheduling.BookedInterval{Start: *proposed, DurationMinutes: project.DurationMinutes})
			}
			chantiers = append(chantiers, s.newChantier(project, month.String(), proposed))
		}
	}
	return chantiers, nil
}

func (s *ProjectService) propose(ctx context.Context, project persistence.Project, month scheduling.Month, index, total int, reserved []scheduling.BookedInterval) (*time.Time, error) {
	if s.planner == nil {
		return nil, nil
	}
	return s.planner.Propose(ctx, scheduling.ProposalRequest{
		OwnerID:            project.OwnerID,
		Month:              month,
		DurationMinutes:    project.DurationMinutes,
		Index:              index,
		Total:              total,
		AdditionalBookings: reserved,
	})
}

// newChantier builds one work order. Unscheduled exactly when no date was found.
func (s *ProjectService) newChantier(project persistence.Project, monthTarget string, proposed *time.Time) persistence.Chantier {
	status := ChantierStatusUnscheduled
	if proposed != nil {
		status = ChantierStatusProposed
	}
	now := s.now()
	return persistence.Chantier{
		ID:              s.idGenerator(),
		ProjectID:       project.ID,
		ClientID:        project.ClientID,
		OwnerID:         project.OwnerID,
		MonthTarget:     monthTarget,
		Status:          status,
		DateTime:        proposed,
		DurationMinutes: project.DurationMinutes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// eventForChantier mirrors a chantier onto the owner's calendar with the same
// date, duration and status.
func (s *ProjectService) eventForChantier(project persistence.Project, chantier persistence.Chantier) persistence.CalendarEvent {
	clientID := chantier.ClientID
	chantierID := chantier.ID
	projectID := project.ID
	now := s.now()
	return persistence.CalendarEvent{
		ID:              s.idGenerator(),
		EventType:       EventTypeChantier,
		OwnerID:         chantier.OwnerID,
		ClientID:        &clientID,
		ChantierID:      &chantierID,
		ProjectID:       &projectID,
		DateTime:        chantier.DateTime,
		DurationMinutes: chantier.DurationMinutes,
		Title:           project.Title,
		Description:     project.Description,
		Status:          chantier.Status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// UpdateProject edits the descriptive fields of a project. Editing never
// regenerates chantiers; already generated work orders keep their dates.
func (s *ProjectService) UpdateProject(ctx context.Context, principal Principal, projectID string, input ProjectInput) (persistence.Project, error) {
	if s == nil {
		return persistence.Project{}, fmt.Errorf("ProjectService is nil")
	}
	if s.projects == nil {
		return persistence.Project{}, fmt.Errorf("project repository not configured")
	}

	existing, err := s.getOwned(ctx, principal, projectID)
	if err != nil {
		return persistence.Project{}, err
	}

	normalized := normalizeProjectInput(input)
	if vErr := validateProjectInput(normalized); vErr.HasErrors() {
		return persistence.Project{}, vErr
	}
	if normalized.ClientID != existing.ClientID {
		if err := s.checkClientOwned(ctx, principal, normalized.ClientID); err != nil {
			return persistence.Project{}, err
		}
	}

	updated := existing
	updated.ClientID = normalized.ClientID
	updated.Title = normalized.Title
	updated.Description = normalized.Description
	updated.Type = normalized.Type
	updated.FirstMonth = normalized.FirstMonth
	updated.DurationMonths = normalized.DurationMonths
	updated.DurationMinutes = normalized.DurationMinutes
	updated.PlanItems = nil
	for _, item := range normalized.PlanItems {
		updated.PlanItems = append(updated.PlanItems, persistence.PlanItem{Month: item.Month, Occurrences: item.Occurrences})
	}
	updated.UpdatedAt = s.now()

	if err := s.projects.UpdateProject(ctx, updated); err != nil {
		return persistence.Project{}, err
	}
	return updated, nil
}

// GetProject returns one project owned by the caller.
func (s *ProjectService) GetProject(ctx context.Context, principal Principal, projectID string) (persistence.Project, error) {
	if s == nil {
		return persistence.Project{}, fmt.Errorf("ProjectService is nil")
	}
	if s.projects == nil {
		return persistence.Project{}, fmt.Errorf("project repository not configured")
	}
	return s.getOwned(ctx, principal, projectID)
}

// ListProjects returns the caller's projects.
func (s *ProjectService) ListProjects(ctx context.Context, principal Principal) ([]persistence.Project, error) {
	if s == nil {
		return nil, fmt.Errorf("ProjectService is nil")
	}
	if s.projects == nil {
		return nil, nil
	}
	return s.projects.ListProjects(ctx, principal.UserID)
}

// DeleteProject removes a project together with its chantiers and their
// calendar events.
func (s *ProjectService) DeleteProject(ctx context.Context, principal Principal, projectID string) error {
	if s == nil {
		return fmt.Errorf("ProjectService is nil")
	}
	if s.projects == nil || s.chantiers == nil {
		return fmt.Errorf("project service not configured")
	}

	if _, err := s.getOwned(ctx, principal, projectID); err != nil {
		return err
	}

	if s.events != nil {
		if err := s.events.DeleteEventsForProject(ctx, projectID); err != nil {
			return err
		}
	}
	if err := s.chantiers.DeleteChantiersForProject(ctx, projectID); err != nil {
		return err
	}
	if err := s.projects.DeleteProject(ctx, projectID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *ProjectService) getOwned(ctx context.Context, principal Principal, projectID string) (persistence.Project, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Project{}, ErrNotFound
		}
		return persistence.Project{}, err
	}
	if project.OwnerID != principal.UserID {
		return persistence.Project{}, ErrNotFound
	}
	return project, nil
}

func (s *ProjectService) checkClientOwned(ctx context.Context, principal Principal, clientID string) error {
	if s.clients == nil {
		return nil
	}
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			vErr := &ValidationError{}
			vErr.add("client_id", "le client est introuvable")
			return vErr
		}
		return err
	}
	if client.OwnerID != principal.UserID {
		vErr := &ValidationError{}
		vErr.add("client_id", "le client est introuvable")
		return vErr
	}
	return nil
}

func normalizeProjectInput(input ProjectInput) ProjectInput {
	input.ClientID = strings.TrimSpace(input.ClientID)
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Type = strings.TrimSpace(input.Type)
	if input.FirstMonth != nil {
		month := strings.TrimSpace(*input.FirstMonth)
		if month == "" {
			input.FirstMonth = nil
		} else {
			input.FirstMonth = &month
		}
	}
	if input.DurationMinutes <= 0 {
		input.DurationMinutes = 60
	}
	for i := range input.PlanItems {
		input.PlanItems[i].Month = strings.TrimSpace(input.PlanItems[i].Month)
	}
	return input
}

func validateProjectInput(input ProjectInput) *ValidationError {
	vErr := &ValidationError{}

	if input.ClientID == "" {
		vErr.add("client_id", "le client est requis")
	}
	if input.Title == "" {
		vErr.add("title", "le titre est requis")
	}
	switch input.Type {
	case ProjectTypePonctuel:
		if input.FirstMonth != nil {
			if _, err := scheduling.ParseMonth(*input.FirstMonth); err != nil {
				vErr.add("first_month", "le mois doit être au format AAAA-MM")
			}
		}
	case ProjectTypeRecurrent:
		if len(input.PlanItems) == 0 {
			vErr.add("plan", "au moins un mois planifié est requis")
		}
		for _, item := range input.PlanItems {
			if _, err := scheduling.ParseMonth(item.Month); err != nil {
				vErr.add("plan", "le mois doit être au format AAAA-MM")
			}
			if item.Occurrences <= 0 {
				vErr.add("plan", "le nombre d'interventions doit être positif")
			}
		}
	default:
		vErr.add("type", "le type doit être ponctuel ou recurrent")
	}

	return vErr
}
