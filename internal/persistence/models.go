package persistence

import "time"

// User represents a service-provider account.
type User struct {
	ID                   string
	Username             string
	Email                string
	PasswordHash         string
	FirstName            string
	LastName             string
	Company              string
	IsAdmin              bool
	Status               string
	WorkStartMinutes     int
	WorkEndMinutes       int
	WorkDays             []time.Weekday
	EndLicenceDate       *time.Time
	StripeCustomerID     *string
	StripeSubscriptionID *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Client represents a customer of one provider. Ownership scopes every query.
type Client struct {
	ID        string
	OwnerID   string
	Name      string
	Email     string
	Phone     string
	Type      string
	Status    string
	Addresses []ClientAddress
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClientAddress is one intervention address attached to a client. Slice order
// is the caller-supplied order and is preserved on load.
type ClientAddress struct {
	Street     string
	City       string
	PostalCode string
	Access     string
	HasKey     bool
}

// Remark is a free-form note a provider keeps on one of their clients: text,
// image references (URLs or data URIs), or both.
type Remark struct {
	ID        string
	ClientID  string
	OwnerID   string
	Content   string
	Images    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlanItem is one entry of a recurring project's work plan.
type PlanItem struct {
	Month       string
	Occurrences int
}

// Project represents a one-off or recurring engagement for a client.
type Project struct {
	ID              string
	ClientID        string
	OwnerID         string
	Title           string
	Description     string
	Type            string
	FirstMonth      *string
	DurationMonths  *int
	DurationMinutes int
	Status          string
	PlanItems       []PlanItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Chantier is one discrete unit of on-site work generated from a project.
type Chantier struct {
	ID              string
	ProjectID       string
	ClientID        string
	OwnerID         string
	MonthTarget     string
	Status          string
	DateTime        *time.Time
	DurationMinutes int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CalendarEvent is an entry on a provider's calendar: a chantier occurrence,
// an appointment, prospection or anything else blocking time.
type CalendarEvent struct {
	ID              string
	EventType       string
	OwnerID         string
	ClientID        *string
	ChantierID      *string
	ProjectID       *string
	DateTime        *time.Time
	DurationMinutes int
	Title           string
	Description     string
	Location        string
	Status          string
	Recurring       bool
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// SupportMessage is one message in a user's support conversation.
type SupportMessage struct {
	ID        string
	UserID    string
	FromAdmin bool
	Content   string
	CreatedAt time.Time
	ReadAt    *time.Time
}
