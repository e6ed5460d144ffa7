package application

import (
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// User account statuses.
const (
	UserStatusActif   = "actif"
	UserStatusInactif = "inactif"
)

// Client statuses and types accepted by the client service.
const (
	ClientTypeParticulier   = "particulier"
	ClientTypeProfessionnel = "professionnel"
	ClientStatusActif       = "actif"
	ClientStatusInactif     = "inactif"
)

// Project types accepted by the project service.
const (
	ProjectTypePonctuel  = "ponctuel"
	ProjectTypeRecurrent = "recurrent"
)

// Chantier lifecycle statuses. A chantier is unscheduled exactly when it has
// no proposed date.
const (
	ChantierStatusUnscheduled = "unscheduled"
	ChantierStatusProposed    = "proposed"
	ChantierStatusConfirmed   = "confirmed"
	ChantierStatusInProgress  = "in_progress"
	ChantierStatusCompleted   = "completed"
	ChantierStatusCancelled   = "cancelled"
)

// Calendar event types.
const (
	EventTypeChantier    = "chantier"
	EventTypeRendezVous  = "rdv"
	EventTypeProspection = "prospection"
	EventTypeAutre       = "autre"
)

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    persistence.User
	Session persistence.Session
}

// UserInput captures the attributes an administrator sets on an account.
type UserInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Company   string
	IsAdmin   bool
	Status    string
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user. An empty Password
// keeps the stored hash.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// ProfileInput captures the self-service profile fields, work calendar included.
type ProfileInput struct {
	FirstName        string
	LastName         string
	Company          string
	WorkStartMinutes int
	WorkEndMinutes   int
	WorkDays         []time.Weekday
}

// ChangePasswordParams wraps a self-service password change.
type ChangePasswordParams struct {
	Principal       Principal
	CurrentPassword string
	NewPassword     string
}

// AddressInput is one caller provided intervention address.
type AddressInput struct {
	Street     string
	City       string
	PostalCode string
	Access     string
	HasKey     bool
}

// ClientInput captures caller provided client fields. On update, a nil
// Addresses leaves the stored list untouched while an empty non-nil slice
// clears it.
type ClientInput struct {
	Name      string
	Email     string
	Phone     string
	Type      string
	Status    string
	Addresses []AddressInput
}

// RemarkInput captures a remark's editable fields. Content may be empty when
// at least one image reference is supplied.
type RemarkInput struct {
	Content string
	Images  []string
}

// PlanItemInput is one caller provided entry of a recurring project's plan.
type PlanItemInput struct {
	Month       string
	Occurrences int
}

// ProjectInput captures caller provided project fields.
type ProjectInput struct {
	ClientID        string
	Title           string
	Description     string
	Type            string
	FirstMonth      *string
	DurationMonths  *int
	DurationMinutes int
	PlanItems       []PlanItemInput
}

// ChantierUpdateInput captures the editable chantier fields. A nil DateTime
// clears the proposed date.
type ChantierUpdateInput struct {
	Status          string
	DateTime        *time.Time
	DurationMinutes int
}

// EventInput captures caller provided calendar event fields.
type EventInput struct {
	EventType       string
	ClientID        *string
	DateTime        *time.Time
	DurationMinutes int
	Title           string
	Description     string
	Location        string
	Status          string
	Recurring       bool
	Notes           string
}

// EventListParams narrows an event listing.
type EventListParams struct {
	Principal Principal
	EventType string
	From      *time.Time
	To        *time.Time
}

// DashboardOverview aggregates what the dashboard screen shows.
type DashboardOverview struct {
	Clients           int
	Projects          int
	ChantiersByStatus map[string]int
	UpcomingEvents    []persistence.CalendarEvent
}
