package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for provider accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// ClientRepository exposes CRUD operations for a provider's clients.
type ClientRepository interface {
	CreateClient(ctx context.Context, client Client) error
	UpdateClient(ctx context.Context, client Client) error
	GetClient(ctx context.Context, id string) (Client, error)
	ListClients(ctx context.Context, ownerID string) ([]Client, error)
	DeleteClient(ctx context.Context, id string) error
}

// RemarkRepository stores per-client remarks. Listing is scoped to both the
// client and the owner.
type RemarkRepository interface {
	CreateRemark(ctx context.Context, remark Remark) error
	UpdateRemark(ctx context.Context, remark Remark) error
	GetRemark(ctx context.Context, id string) (Remark, error)
	ListRemarksForClient(ctx context.Context, clientID, ownerID string) ([]Remark, error)
	DeleteRemark(ctx context.Context, id string) error
}

// ProjectRepository stores projects together with their work plans.
type ProjectRepository interface {
	CreateProject(ctx context.Context, project Project) error
	UpdateProject(ctx context.Context, project Project) error
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjects(ctx context.Context, ownerID string) ([]Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// ChantierFilter narrows chantier queries.
type ChantierFilter struct {
	OwnerID     string
	ProjectID   string
	ClientID    string
	MonthTarget string
	Status      string
}

// ChantierRepository stores generated work orders.
type ChantierRepository interface {
	CreateChantier(ctx context.Context, chantier Chantier) error
	UpdateChantier(ctx context.Context, chantier Chantier) error
	GetChantier(ctx context.Context, id string) (Chantier, error)
	ListChantiers(ctx context.Context, filter ChantierFilter) ([]Chantier, error)
	DeleteChantier(ctx context.Context, id string) error
	DeleteChantiersForProject(ctx context.Context, projectID string) error
}

// EventFilter narrows calendar event queries. From and To bound the event
// start inclusively; events without a date are excluded whenever either
// bound is set.
type EventFilter struct {
	OwnerID   string
	EventType string
	From      *time.Time
	To        *time.Time
}

// CalendarEventRepository stores calendar entries.
type CalendarEventRepository interface {
	CreateEvent(ctx context.Context, event CalendarEvent) error
	UpdateEvent(ctx context.Context, event CalendarEvent) error
	GetEvent(ctx context.Context, id string) (CalendarEvent, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]CalendarEvent, error)
	DeleteEvent(ctx context.Context, id string) error
	DeleteEventsForProject(ctx context.Context, projectID string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// SupportMessageRepository stores support conversations.
type SupportMessageRepository interface {
	CreateSupportMessage(ctx context.Context, message SupportMessage) error
	ListSupportMessages(ctx context.Context, userID string) ([]SupportMessage, error)
	MarkSupportMessagesRead(ctx context.Context, userID string, fromAdmin bool, readAt time.Time) error
}

// DashboardCounts aggregates the owner-scoped totals shown on the dashboard.
type DashboardCounts struct {
	Clients           int
	Projects          int
	ChantiersByStatus map[string]int
}

// DashboardRepository exposes the aggregate queries behind the dashboard.
type DashboardRepository interface {
	CountForOwner(ctx context.Context, ownerID string) (DashboardCounts, error)
}
