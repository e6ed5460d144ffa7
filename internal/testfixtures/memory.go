package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

// MemoryStore is an in-memory implementation of every persistence repository.
// It mirrors the ordering and error semantics of the SQLite store closely
// enough for service and handler tests.
type MemoryStore struct {
	mu        sync.Mutex
	users     map[string]persistence.User
	clients   map[string]persistence.Client
	remarks   map[string]persistence.Remark
	projects  map[string]persistence.Project
	chantiers map[string]persistence.Chantier
	events    map[string]persistence.CalendarEvent
	sessions  map[string]persistence.Session
	messages  map[string]persistence.SupportMessage
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]persistence.User),
		clients:   make(map[string]persistence.Client),
		remarks:   make(map[string]persistence.Remark),
		projects:  make(map[string]persistence.Project),
		chantiers: make(map[string]persistence.Chantier),
		events:    make(map[string]persistence.CalendarEvent),
		sessions:  make(map[string]persistence.Session),
		messages:  make(map[string]persistence.SupportMessage),
	}
}

// ------------------------------- users -------------------------------

func (s *MemoryStore) CreateUser(_ context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return persistence.ErrAlreadyExists
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return persistence.ErrAlreadyExists
		}
	}
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	for _, existing := range s.users {
		if existing.ID != user.ID && existing.Email == user.Email {
			return persistence.ErrAlreadyExists
		}
	}
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return copyUser(user), nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]persistence.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, copyUser(user))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// ------------------------------ clients ------------------------------

func (s *MemoryStore) CreateClient(_ context.Context, client persistence.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client.ID]; ok {
		return persistence.ErrAlreadyExists
	}
	s.clients[client.ID] = copyClient(client)
	return nil
}

func (s *MemoryStore) UpdateClient(_ context.Context, client persistence.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.clients[client.ID] = copyClient(client)
	return nil
}

func (s *MemoryStore) GetClient(_ context.Context, id string) (persistence.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	client, ok := s.clients[id]
	if !ok {
		return persistence.Client{}, persistence.ErrNotFound
	}
	return copyClient(client), nil
}

func (s *MemoryStore) ListClients(_ context.Context, ownerID string) ([]persistence.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clients := make([]persistence.Client, 0)
	for _, client := range s.clients {
		if client.OwnerID == ownerID {
			clients = append(clients, copyClient(client))
		}
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })
	return clients, nil
}

func (s *MemoryStore) DeleteClient(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.clients, id)
	for remarkID, remark := range s.remarks {
		if remark.ClientID == id {
			delete(s.remarks, remarkID)
		}
	}
	return nil
}

// ------------------------------ remarks ------------------------------

func (s *MemoryStore) CreateRemark(_ context.Context, remark persistence.Remark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.remarks[remark.ID]; ok {
		return persistence.ErrAlreadyExists
	}
	s.remarks[remark.ID] = copyRemark(remark)
	return nil
}

func (s *MemoryStore) UpdateRemark(_ context.Context, remark persistence.Remark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.remarks[remark.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.remarks[remark.ID] = copyRemark(remark)
	return nil
}

func (s *MemoryStore) GetRemark(_ context.Context, id string) (persistence.Remark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	remark, ok := s.remarks[id]
	if !ok {
		return persistence.Remark{}, persistence.ErrNotFound
	}
	return copyRemark(remark), nil
}

func (s *MemoryStore) ListRemarksForClient(_ context.Context, clientID, ownerID string) ([]persistence.Remark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	remarks := make([]persistence.Remark, 0)
	for _, remark := range s.remarks {
		if remark.ClientID == clientID && remark.OwnerID == ownerID {
			remarks = append(remarks, copyRemark(remark))
		}
	}
	sort.Slice(remarks, func(i, j int) bool {
		if !remarks[i].CreatedAt.Equal(remarks[j].CreatedAt) {
			return remarks[i].CreatedAt.Before(remarks[j].CreatedAt)
		}
		return remarks[i].ID < remarks[j].ID
	})
	return remarks, nil
}

func (s *MemoryStore) DeleteRemark(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.remarks[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.remarks, id)
	return nil
}

// ------------------------------ projects -----------------------------

func (s *MemoryStore) CreateProject(_ context.Context, project persistence.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[project.ID]; ok {
		return persistence.ErrAlreadyExists
	}
	s.projects[project.ID] = copyProject(project)
	return nil
}

func (s *MemoryStore) UpdateProject(_ context.Context, project persistence.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[project.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.projects[project.ID] = copyProject(project)
	return nil
}

func (s *MemoryStore) GetProject(_ context.Context, id string) (persistence.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[id]
	if !ok {
		return persistence.Project{}, persistence.ErrNotFound
	}
	return copyProject(project), nil
}

func (s *MemoryStore) ListProjects(_ context.Context, ownerID string) ([]persistence.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	projects := make([]persistence.Project, 0)
	for _, project := range s.projects {
		if project.OwnerID == ownerID {
			projects = append(projects, copyProject(project))
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		if !projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].CreatedAt.Before(projects[j].CreatedAt)
		}
		return projects[i].ID < projects[j].ID
	})
	return projects, nil
}

func (s *MemoryStore) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

// ----------------------------- chantiers -----------------------------

func (s *MemoryStore) CreateChantier(_ context.Context, chantier persistence.Chantier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chantiers[chantier.ID]; ok {
		return persistence.ErrAlreadyExists
	}
	s.chantiers[chantier.ID] = chantier
	return nil
}

func (s *MemoryStore) UpdateChantier(_ context.Context, chantier persistence.Chantier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chantiers[chantier.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.chantiers[chantier.ID] = chantier
	return nil
}

func (s *MemoryStore) GetChantier(_ context.Context, id string) (persistence.Chantier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chantier, ok := s.chantiers[id]
	if !ok {
		return persistence.Chantier{}, persistence.ErrNotFound
	}
	return chantier, nil
}

func (s *MemoryStore) ListChantiers(_ context.Context, filter persistence.ChantierFilter) ([]persistence.Chantier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chantiers := make([]persistence.Chantier, 0)
	for _, chantier := range s.chantiers {
		if filter.OwnerID != "" && chantier.OwnerID != filter.OwnerID {
			continue
		}
		if filter.ProjectID != "" && chantier.ProjectID != filter.ProjectID {
			continue
		}
		if filter.ClientID != "" && chantier.ClientID != filter.ClientID {
			continue
		}
		if filter.MonthTarget != "" && chantier.MonthTarget != filter.MonthTarget {
			continue
		}
		if filter.Status != "" && chantier.Status != filter.Status {
			continue
		}
		chantiers = append(chantiers, chantier)
	}
	sort.Slice(chantiers, func(i, j int) bool {
		a, b := chantiers[i], chantiers[j]
		switch {
		case a.DateTime == nil && b.DateTime == nil:
		case a.DateTime == nil:
			return false
		case b.DateTime == nil:
			return true
		case !a.DateTime.Equal(*b.DateTime):
			return a.DateTime.Before(*b.DateTime)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return chantiers, nil
}

func (s *MemoryStore) DeleteChantier(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chantiers[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.chantiers, id)
	return nil
}

func (s *MemoryStore) DeleteChantiersForProject(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, chantier := range s.chantiers {
		if chantier.ProjectID == projectID {
			delete(s.chantiers, id)
		}
	}
	return nil
}

// ------------------------------- events ------------------------------

func (s *MemoryStore) CreateEvent(_ context.Context, event persistence.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[event.ID]; ok {
		return persistence.ErrAlreadyExists
	}
	s.events[event.ID] = event
	return nil
}

func (s *MemoryStore) UpdateEvent(_ context.Context, event persistence.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[event.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.events[event.ID] = event
	return nil
}

func (s *MemoryStore) GetEvent(_ context.Context, id string) (persistence.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return persistence.CalendarEvent{}, persistence.ErrNotFound
	}
	return event, nil
}

func (s *MemoryStore) ListEvents(_ context.Context, filter persistence.EventFilter) ([]persistence.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]persistence.CalendarEvent, 0)
	for _, event := range s.events {
		if filter.OwnerID != "" && event.OwnerID != filter.OwnerID {
			continue
		}
		if filter.EventType != "" && event.EventType != filter.EventType {
			continue
		}
		if filter.From != nil || filter.To != nil {
			if event.DateTime == nil {
				continue
			}
			if filter.From != nil && event.DateTime.Before(*filter.From) {
				continue
			}
			if filter.To != nil && event.DateTime.After(*filter.To) {
				continue
			}
		}
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		switch {
		case a.DateTime == nil && b.DateTime == nil:
		case a.DateTime == nil:
			return false
		case b.DateTime == nil:
			return true
		case !a.DateTime.Equal(*b.DateTime):
			return a.DateTime.Before(*b.DateTime)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return events, nil
}

func (s *MemoryStore) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *MemoryStore) DeleteEventsForProject(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, event := range s.events {
		if event.ProjectID != nil && *event.ProjectID == projectID {
			delete(s.events, id)
		}
	}
	return nil
}

// ------------------------------ sessions -----------------------------

func (s *MemoryStore) CreateSession(_ context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.Token]; ok {
		return persistence.Session{}, persistence.ErrAlreadyExists
	}
	s.sessions[session.Token] = session
	return session, nil
}

func (s *MemoryStore) GetSession(_ context.Context, token string) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *MemoryStore) RevokeSession(_ context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok || session.RevokedAt != nil {
		return persistence.Session{}, persistence.ErrNotFound
	}
	stamp := revokedAt
	session.RevokedAt = &stamp
	session.UpdatedAt = revokedAt
	s.sessions[token] = session
	return session, nil
}

func (s *MemoryStore) DeleteExpiredSessions(_ context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.sessions {
		if session.ExpiresAt.Before(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

// ------------------------------ support ------------------------------

func (s *MemoryStore) CreateSupportMessage(_ context.Context, message persistence.SupportMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[message.ID]; ok {
		return persistence.ErrAlreadyExists
	}
	s.messages[message.ID] = message
	return nil
}

func (s *MemoryStore) ListSupportMessages(_ context.Context, userID string) ([]persistence.SupportMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := make([]persistence.SupportMessage, 0)
	for _, message := range s.messages {
		if message.UserID == userID {
			messages = append(messages, message)
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].CreatedAt.Before(messages[j].CreatedAt)
		}
		return messages[i].ID < messages[j].ID
	})
	return messages, nil
}

func (s *MemoryStore) MarkSupportMessagesRead(_ context.Context, userID string, fromAdmin bool, readAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, message := range s.messages {
		if message.UserID != userID || message.FromAdmin != fromAdmin || message.ReadAt != nil {
			continue
		}
		stamp := readAt
		message.ReadAt = &stamp
		s.messages[id] = message
	}
	return nil
}

// ----------------------------- dashboard -----------------------------

func (s *MemoryStore) CountForOwner(_ context.Context, ownerID string) (persistence.DashboardCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := persistence.DashboardCounts{ChantiersByStatus: make(map[string]int)}
	for _, client := range s.clients {
		if client.OwnerID == ownerID {
			counts.Clients++
		}
	}
	for _, project := range s.projects {
		if project.OwnerID == ownerID {
			counts.Projects++
		}
	}
	for _, chantier := range s.chantiers {
		if chantier.OwnerID == ownerID {
			counts.ChantiersByStatus[chantier.Status]++
		}
	}
	return counts, nil
}

func copyUser(user persistence.User) persistence.User {
	user.WorkDays = append([]time.Weekday(nil), user.WorkDays...)
	return user
}

func copyProject(project persistence.Project) persistence.Project {
	project.PlanItems = append([]persistence.PlanItem(nil), project.PlanItems...)
	return project
}

func copyClient(client persistence.Client) persistence.Client {
	client.Addresses = append([]persistence.ClientAddress(nil), client.Addresses...)
	return client
}

func copyRemark(remark persistence.Remark) persistence.Remark {
	remark.Images = append([]string(nil), remark.Images...)
	return remark
}
