// Package maintenance runs the recurring housekeeping jobs: purging expired
// sessions and deactivating accounts whose licence has lapsed.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ttelab/orgaservice/internal/application"
	"github.com/ttelab/orgaservice/internal/persistence"
)

// DefaultSchedule runs the sweep at the top of every hour.
const DefaultSchedule = "@hourly"

// Janitor owns the cron runner and the sweep logic.
type Janitor struct {
	sessions persistence.SessionRepository
	users    persistence.UserRepository
	now      func() time.Time
	logger   *slog.Logger

	schedule string
	c        *cron.Cron
}

// NewJanitor wires the janitor. An empty schedule falls back to
// DefaultSchedule.
func NewJanitor(sessions persistence.SessionRepository, users persistence.UserRepository, schedule string, now func() time.Time, logger *slog.Logger) *Janitor {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		sessions: sessions,
		users:    users,
		now:      now,
		logger:   logger,
		schedule: schedule,
	}
}

// Start registers the sweep with the cron runner and starts it. The runner
// stops when ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) error {
	if j == nil {
		return fmt.Errorf("Janitor is nil")
	}
	if j.c != nil {
		return fmt.Errorf("janitor already started")
	}

	c := cron.New()
	if _, err := c.AddFunc(j.schedule, func() {
		if err := j.RunOnce(ctx); err != nil {
			j.logger.ErrorContext(ctx, "maintenance sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("register maintenance schedule %q: %w", j.schedule, err)
	}

	j.c = c
	c.Start()
	j.logger.InfoContext(ctx, "maintenance janitor started", "schedule", j.schedule)

	go func() {
		<-ctx.Done()
		j.Stop()
	}()
	return nil
}

// Stop halts the cron runner and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	if j == nil || j.c == nil {
		return
	}
	<-j.c.Stop().Done()
}

// RunOnce performs one sweep: expired sessions are deleted and accounts whose
// licence end date has passed are set inactive.
func (j *Janitor) RunOnce(ctx context.Context) error {
	if j == nil {
		return fmt.Errorf("Janitor is nil")
	}

	now := j.now()
	if j.sessions != nil {
		if err := j.sessions.DeleteExpiredSessions(ctx, now); err != nil {
			return fmt.Errorf("delete expired sessions: %w", err)
		}
	}

	if j.users == nil {
		return nil
	}
	users, err := j.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	for _, user := range users {
		if user.Status != application.UserStatusActif {
			continue
		}
		if user.EndLicenceDate == nil || !user.EndLicenceDate.Before(now) {
			continue
		}
		user.Status = application.UserStatusInactif
		user.UpdatedAt = now
		if err := j.users.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("deactivate user %s: %w", user.ID, err)
		}
		j.logger.InfoContext(ctx, "licence expired, account deactivated", "user_id", user.ID)
	}
	return nil
}
