package http

import (
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

// JSON views of the persisted models. Times are RFC 3339 UTC; nullable dates
// marshal as null.

type userResponse struct {
	ID               string  `json:"id"`
	Username         string  `json:"username"`
	Email            string  `json:"email"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	Company          string  `json:"company"`
	IsAdmin          bool    `json:"is_admin"`
	Status           string  `json:"status"`
	WorkStartMinutes int     `json:"work_start_minutes"`
	WorkEndMinutes   int     `json:"work_end_minutes"`
	WorkDays         []int   `json:"work_days"`
	EndLicenceDate   *string `json:"end_licence_date"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

func userView(user persistence.User) userResponse {
	days := make([]int, 0, len(user.WorkDays))
	for _, day := range user.WorkDays {
		days = append(days, int(day))
	}
	return userResponse{
		ID:               user.ID,
		Username:         user.Username,
		Email:            user.Email,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Company:          user.Company,
		IsAdmin:          user.IsAdmin,
		Status:           user.Status,
		WorkStartMinutes: user.WorkStartMinutes,
		WorkEndMinutes:   user.WorkEndMinutes,
		WorkDays:         days,
		EndLicenceDate:   timeView(user.EndLicenceDate),
		CreatedAt:        user.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:        user.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type addressResponse struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Access     string `json:"access"`
	HasKey     bool   `json:"has_key"`
}

type clientResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	Type      string            `json:"type"`
	Status    string            `json:"status"`
	Addresses []addressResponse `json:"addresses"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

func clientView(client persistence.Client) clientResponse {
	addresses := make([]addressResponse, 0, len(client.Addresses))
	for _, address := range client.Addresses {
		addresses = append(addresses, addressResponse{
			Street:     address.Street,
			City:       address.City,
			PostalCode: address.PostalCode,
			Access:     address.Access,
			HasKey:     address.HasKey,
		})
	}
	return clientResponse{
		ID:        client.ID,
		Name:      client.Name,
		Email:     client.Email,
		Phone:     client.Phone,
		Type:      client.Type,
		Status:    client.Status,
		Addresses: addresses,
		CreatedAt: client.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: client.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type remarkResponse struct {
	ID        string   `json:"id"`
	ClientID  string   `json:"client_id"`
	Content   string   `json:"content"`
	Images    []string `json:"images"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

func remarkView(remark persistence.Remark) remarkResponse {
	images := remark.Images
	if images == nil {
		images = []string{}
	}
	return remarkResponse{
		ID:        remark.ID,
		ClientID:  remark.ClientID,
		Content:   remark.Content,
		Images:    images,
		CreatedAt: remark.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: remark.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type planItemResponse struct {
	Month       string `json:"month"`
	Occurrences int    `json:"occurrences"`
}

type projectResponse struct {
	ID              string             `json:"id"`
	ClientID        string             `json:"client_id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Type            string             `json:"type"`
	FirstMonth      *string            `json:"first_month"`
	DurationMonths  *int               `json:"duration_months"`
	DurationMinutes int                `json:"duration_minutes"`
	Status          string             `json:"status"`
	PlanItems       []planItemResponse `json:"plan_items,omitempty"`
	CreatedAt       string             `json:"created_at"`
	UpdatedAt       string             `json:"updated_at"`
}

func projectView(project persistence.Project) projectResponse {
	resp := projectResponse{
		ID:              project.ID,
		ClientID:        project.ClientID,
		Title:           project.Title,
		Description:     project.Description,
		Type:            project.Type,
		FirstMonth:      project.FirstMonth,
		DurationMonths:  project.DurationMonths,
		DurationMinutes: project.DurationMinutes,
		Status:          project.Status,
		CreatedAt:       project.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       project.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, item := range project.PlanItems {
		resp.PlanItems = append(resp.PlanItems, planItemResponse{Month: item.Month, Occurrences: item.Occurrences})
	}
	return resp
}

type chantierResponse struct {
	ID              string  `json:"id"`
	ProjectID       string  `json:"project_id"`
	ClientID        string  `json:"client_id"`
	MonthTarget     string  `json:"month_target"`
	Status          string  `json:"status"`
	DateTime        *string `json:"date_time"`
	DurationMinutes int     `json:"duration_minutes"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func chantierView(chantier persistence.Chantier) chantierResponse {
	return chantierResponse{
		ID:              chantier.ID,
		ProjectID:       chantier.ProjectID,
		ClientID:        chantier.ClientID,
		MonthTarget:     chantier.MonthTarget,
		Status:          chantier.Status,
		DateTime:        timeView(chantier.DateTime),
		DurationMinutes: chantier.DurationMinutes,
		CreatedAt:       chantier.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       chantier.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type eventResponse struct {
	ID              string  `json:"id"`
	EventType       string  `json:"event_type"`
	ClientID        *string `json:"client_id"`
	ChantierID      *string `json:"chantier_id"`
	ProjectID       *string `json:"project_id"`
	DateTime        *string `json:"date_time"`
	DurationMinutes int     `json:"duration_minutes"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Location        string  `json:"location"`
	Status          string  `json:"status"`
	Recurring       bool    `json:"recurring"`
	Notes           string  `json:"notes"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func eventView(event persistence.CalendarEvent) eventResponse {
	return eventResponse{
		ID:              event.ID,
		EventType:       event.EventType,
		ClientID:        event.ClientID,
		ChantierID:      event.ChantierID,
		ProjectID:       event.ProjectID,
		DateTime:        timeView(event.DateTime),
		DurationMinutes: event.DurationMinutes,
		Title:           event.Title,
		Description:     event.Description,
		Location:        event.Location,
		Status:          event.Status,
		Recurring:       event.Recurring,
		Notes:           event.Notes,
		CreatedAt:       event.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       event.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type supportMessageResponse struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	FromAdmin bool    `json:"from_admin"`
	Content   string  `json:"content"`
	CreatedAt string  `json:"created_at"`
	ReadAt    *string `json:"read_at"`
}

func supportMessageView(message persistence.SupportMessage) supportMessageResponse {
	return supportMessageResponse{
		ID:        message.ID,
		UserID:    message.UserID,
		FromAdmin: message.FromAdmin,
		Content:   message.Content,
		CreatedAt: message.CreatedAt.UTC().Format(time.RFC3339Nano),
		ReadAt:    timeView(message.ReadAt),
	}
}

func timeView(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}
