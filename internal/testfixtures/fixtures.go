package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

var (
	userCounter   uint64
	clientCounter uint64
)

// UserFixture builds a deterministic provider account record.
type UserFixture struct {
	persistence.User
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic active user with the default work
// calendar, plus optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{User: persistence.User{
		ID:               id,
		Username:         id,
		Email:            fmt.Sprintf("%s@example.fr", id),
		PasswordHash:     fmt.Sprintf("hash-%03d", idx),
		FirstName:        "Jean",
		LastName:         fmt.Sprintf("Dupont %03d", idx),
		Status:           "actif",
		WorkStartMinutes: 7 * 60,
		WorkEndMinutes:   20 * 60,
		WorkDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		CreatedAt: created,
		UpdatedAt: created,
	}}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserAdmin sets the admin flag on the generated fixture.
func WithUserAdmin(isAdmin bool) UserOption {
	return func(f *UserFixture) {
		f.IsAdmin = isAdmin
	}
}

// WithUserStatus overrides the account status.
func WithUserStatus(status string) UserOption {
	return func(f *UserFixture) {
		f.Status = status
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserLicenceEnd sets the licence end date.
func WithUserLicenceEnd(t time.Time) UserOption {
	return func(f *UserFixture) {
		f.EndLicenceDate = &t
	}
}

// WithUserWorkCalendar overrides the working hours and days.
func WithUserWorkCalendar(startMinutes, endMinutes int, days ...time.Weekday) UserOption {
	return func(f *UserFixture) {
		f.WorkStartMinutes = startMinutes
		f.WorkEndMinutes = endMinutes
		f.WorkDays = days
	}
}

// ClientFixture builds a deterministic client record.
type ClientFixture struct {
	persistence.Client
}

// ClientOption configures the generated client fixture.
type ClientOption func(*ClientFixture)

// NewClientFixture returns a deterministic active client owned by ownerID.
func NewClientFixture(ownerID string, opts ...ClientOption) ClientFixture {
	idx := atomic.AddUint64(&clientCounter, 1)
	id := fmt.Sprintf("client-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := ClientFixture{Client: persistence.Client{
		ID:        id,
		OwnerID:   ownerID,
		Name:      fmt.Sprintf("Client %03d", idx),
		Email:     fmt.Sprintf("%s@client.fr", id),
		Phone:     "0601020304",
		Type:      "particulier",
		Status:    "actif",
		CreatedAt: created,
		UpdatedAt: created,
	}}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithClientID overrides the generated client ID.
func WithClientID(id string) ClientOption {
	return func(f *ClientFixture) {
		f.ID = id
	}
}

// WithClientType overrides the client type.
func WithClientType(clientType string) ClientOption {
	return func(f *ClientFixture) {
		f.Type = clientType
	}
}
