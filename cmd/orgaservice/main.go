package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ttelab/orgaservice/internal/application"
	"github.com/ttelab/orgaservice/internal/config"
	httptransport "github.com/ttelab/orgaservice/internal/http"
	"github.com/ttelab/orgaservice/internal/maintenance"
	"github.com/ttelab/orgaservice/internal/persistence"
	"github.com/ttelab/orgaservice/internal/persistence/sqlite"
	"github.com/ttelab/orgaservice/internal/scheduling"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	if cfg.AdminEmail != "" {
		if err := seedAdmin(ctx, storage, cfg.AdminEmail, cfg.AdminPassword, idGenerator, now); err != nil {
			logger.Error("failed to seed administrator account", "error", err)
			os.Exit(1)
		}
	}

	calculator := scheduling.NewCalculator(scheduling.WithBufferMinutes(cfg.BufferMinutes))
	planner := scheduling.NewPlanner(
		application.NewEventBookingSource(storage),
		application.NewUserCalendarSource(storage),
		calculator,
		now,
	)

	authService := application.NewAuthService(storage, storage, application.VerifyPassword, tokenGenerator, now, cfg.SessionTTL, logger)
	userService := application.NewUserService(storage, application.HashPassword, application.VerifyPassword, idGenerator, now)
	clientService := application.NewClientService(storage, idGenerator, now)
	remarkService := application.NewRemarkService(storage, storage, idGenerator, now)
	projectOpts := []application.ProjectServiceOption{application.WithProjectLogger(logger)}
	if cfg.ReserveWithinBatch {
		projectOpts = append(projectOpts, application.ReserveWithinBatch())
	}
	projectService := application.NewProjectService(storage, storage, storage, storage, planner, idGenerator, now, projectOpts...)
	chantierService := application.NewChantierService(storage, now)
	calendarService := application.NewCalendarService(storage, idGenerator, now)
	supportService := application.NewSupportService(storage, idGenerator, now)
	dashboardService := application.NewDashboardService(storage, storage, now)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:      httptransport.NewAuthHandler(authService, logger),
		Users:     httptransport.NewUserHandler(userService, logger),
		Clients:   httptransport.NewClientHandler(clientService, logger),
		Remarks:   httptransport.NewRemarkHandler(remarkService, logger),
		Projects:  httptransport.NewProjectHandler(projectService, logger),
		Chantiers: httptransport.NewChantierHandler(chantierService, logger),
		Events:    httptransport.NewEventHandler(calendarService, logger),
		Support:   httptransport.NewSupportHandler(supportService, logger),
		Dashboard: httptransport.NewDashboardHandler(dashboardService, logger),

		Session:        httptransport.RequireSession(authService, logger),
		LoginRateLimit: httptransport.LoginRateLimiter(cfg.LoginRatePerMinute, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	janitor := maintenance.NewJanitor(storage, storage, maintenance.DefaultSchedule, now, logger)
	if err := janitor.Start(ctx); err != nil {
		logger.Error("failed to start maintenance janitor", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("orgaservice API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// seedAdmin creates the administrator account on first start. An existing
// account with the configured email is left untouched.
func seedAdmin(ctx context.Context, users persistence.UserRepository, email, password string, idGenerator func() string, now func() time.Time) error {
	if _, err := users.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return err
	}

	hash, err := application.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash administrator password: %w", err)
	}

	created := now()
	return users.CreateUser(ctx, persistence.User{
		ID:               idGenerator(),
		Username:         "admin",
		Email:            email,
		PasswordHash:     hash,
		IsAdmin:          true,
		Status:           application.UserStatusActif,
		WorkStartMinutes: 7 * 60,
		WorkEndMinutes:   20 * 60,
		WorkDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		CreatedAt: created,
		UpdatedAt: created,
	})
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
