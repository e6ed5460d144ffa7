package application

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

// PasswordHasher derives a storable hash from a plaintext password.
type PasswordHasher func(password string) (string, error)

// UserService orchestrates validation, authorization, and persistence for
// accounts and the self-service profile.
type UserService struct {
	users          persistence.UserRepository
	hashPassword   PasswordHasher
	verifyPassword PasswordVerifier
	idGenerator    func() string
	now            func() time.Time
}

// NewUserService wires dependencies for the user service.
func NewUserService(users persistence.UserRepository, hash PasswordHasher, verify PasswordVerifier, idGenerator func() string, now func() time.Time) *UserService {
	if hash == nil {
		hash = HashPassword
	}
	if verify == nil {
		verify = VerifyPassword
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, hashPassword: hash, verifyPassword: verify, idGenerator: idGenerator, now: now}
}

// CreateUser validates input and persists a new account for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (persistence.User, error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}
	if !params.Principal.IsAdmin {
		return persistence.User{}, ErrUnauthorized
	}
	if s.users == nil {
		return persistence.User{}, fmt.Errorf("user repository not configured")
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized, true)
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	hash, err := s.hashPassword(normalized.Password)
	if err != nil {
		return persistence.User{}, err
	}

	now := s.now()
	user := persistence.User{
		ID:           s.idGenerator(),
		Username:     normalized.Username,
		Email:        normalized.Email,
		PasswordHash: hash,
		FirstName:    normalized.FirstName,
		LastName:     normalized.LastName,
		Company:      normalized.Company,
		IsAdmin:      normalized.IsAdmin,
		Status:       normalized.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	applyDefaultWorkCalendar(&user)

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, persistence.ErrAlreadyExists) {
			return persistence.User{}, ErrAlreadyExists
		}
		return persistence.User{}, err
	}
	return user, nil
}

// UpdateUser validates input and updates an existing account for administrators.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (persistence.User, error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}
	if !params.Principal.IsAdmin {
		return persistence.User{}, ErrUnauthorized
	}
	if s.users == nil {
		return persistence.User{}, fmt.Errorf("user repository not configured")
	}

	existing, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.User{}, ErrNotFound
		}
		return persistence.User{}, err
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized, normalized.Password != "")
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	updated := existing
	updated.Username = normalized.Username
	updated.Email = normalized.Email
	updated.FirstName = normalized.FirstName
	updated.LastName = normalized.LastName
	updated.Company = normalized.Company
	updated.IsAdmin = normalized.IsAdmin
	updated.Status = normalized.Status
	updated.UpdatedAt = s.now()
	if normalized.Password != "" {
		hash, err := s.hashPassword(normalized.Password)
		if err != nil {
			return persistence.User{}, err
		}
		updated.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, updated); err != nil {
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			return persistence.User{}, ErrNotFound
		case errors.Is(err, persistence.ErrAlreadyExists):
			return persistence.User{}, ErrAlreadyExists
		}
		return persistence.User{}, err
	}
	return updated, nil
}

// DeleteUser removes an account when requested by an administrator.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	if principal.UserID == userID {
		vErr := &ValidationError{}
		vErr.add("user_id", "impossible de supprimer son propre compte")
		return vErr
	}

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ListUsers returns all accounts, email-sorted, for administrators.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]persistence.User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]persistence.User, len(users))
	copy(out, users)
	sort.Slice(out, func(i, j int) bool {
		if strings.EqualFold(out[i].Email, out[j].Email) {
			return out[i].ID < out[j].ID
		}
		return strings.ToLower(out[i].Email) < strings.ToLower(out[j].Email)
	})
	return out, nil
}

// GetProfile returns the caller's own account.
func (s *UserService) GetProfile(ctx context.Context, principal Principal) (persistence.User, error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return persistence.User{}, fmt.Errorf("user repository not configured")
	}
	user, err := s.users.GetUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.User{}, ErrUnauthorized
		}
		return persistence.User{}, err
	}
	return user, nil
}

// UpdateProfile lets a user edit their own identity fields and work calendar.
func (s *UserService) UpdateProfile(ctx context.Context, principal Principal, input ProfileInput) (persistence.User, error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return persistence.User{}, fmt.Errorf("user repository not configured")
	}

	existing, err := s.users.GetUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.User{}, ErrUnauthorized
		}
		return persistence.User{}, err
	}

	vErr := validateWorkCalendar(input)
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	updated := existing
	updated.FirstName = strings.TrimSpace(input.FirstName)
	updated.LastName = strings.TrimSpace(input.LastName)
	updated.Company = strings.TrimSpace(input.Company)
	updated.WorkStartMinutes = input.WorkStartMinutes
	updated.WorkEndMinutes = input.WorkEndMinutes
	updated.WorkDays = normalizeWorkDays(input.WorkDays)
	updated.UpdatedAt = s.now()

	if err := s.users.UpdateUser(ctx, updated); err != nil {
		return persistence.User{}, err
	}
	return updated, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *UserService) ChangePassword(ctx context.Context, params ChangePasswordParams) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}

	user, err := s.users.GetUser(ctx, params.Principal.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}

	if err := s.verifyPassword(user.PasswordHash, params.CurrentPassword); err != nil {
		return ErrInvalidCredentials
	}
	if len(params.NewPassword) < 8 {
		vErr := &ValidationError{}
		vErr.add("new_password", "le mot de passe doit contenir au moins 8 caractères")
		return vErr
	}

	hash, err := s.hashPassword(params.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	return s.users.UpdateUser(ctx, user)
}

func normalizeUserInput(input UserInput) UserInput {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Company = strings.TrimSpace(input.Company)
	input.Status = strings.TrimSpace(input.Status)
	if input.Status == "" {
		input.Status = UserStatusActif
	}
	return input
}

func validateUserInput(input UserInput, requirePassword bool) *ValidationError {
	vErr := &ValidationError{}

	if input.Username == "" {
		vErr.add("username", "le nom d'utilisateur est requis")
	}
	if input.Email == "" {
		vErr.add("email", "l'email est requis")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "l'email est invalide")
	}
	if requirePassword && len(input.Password) < 8 {
		vErr.add("password", "le mot de passe doit contenir au moins 8 caractères")
	}
	if input.Status != UserStatusActif && input.Status != UserStatusInactif {
		vErr.add("status", "le statut doit être actif ou inactif")
	}

	return vErr
}

func validateWorkCalendar(input ProfileInput) *ValidationError {
	vErr := &ValidationError{}

	const minutesPerDay = 24 * 60
	if input.WorkStartMinutes < 0 || input.WorkStartMinutes >= minutesPerDay {
		vErr.add("work_start", "l'heure de début est invalide")
	}
	if input.WorkEndMinutes <= 0 || input.WorkEndMinutes > minutesPerDay {
		vErr.add("work_end", "l'heure de fin est invalide")
	}
	if input.WorkStartMinutes >= input.WorkEndMinutes {
		vErr.add("work_end", "l'heure de fin doit être après l'heure de début")
	}
	if len(input.WorkDays) == 0 {
		vErr.add("work_days", "au moins un jour travaillé est requis")
	}
	for _, day := range input.WorkDays {
		if day < time.Sunday || day > time.Saturday {
			vErr.add("work_days", "jour de la semaine invalide")
			break
		}
	}

	return vErr
}

// normalizeWorkDays deduplicates and orders the active weekdays.
func normalizeWorkDays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]bool, len(days))
	var out []time.Weekday
	for _, day := range days {
		if !seen[day] {
			seen[day] = true
			out = append(out, day)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// applyDefaultWorkCalendar sets the Monday-Friday 07:00-20:00 defaults on a
// freshly created account.
func applyDefaultWorkCalendar(user *persistence.User) {
	user.WorkStartMinutes = 7 * 60
	user.WorkEndMinutes = 20 * 60
	user.WorkDays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
}
