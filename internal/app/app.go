package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/config"
	"github.com/korusync/korusync/internal/cooldown"
	"github.com/korusync/korusync/internal/db"
	"github.com/korusync/korusync/internal/markdown"
	"github.com/korusync/korusync/internal/repository"
	"github.com/korusync/korusync/internal/service"
	"github.com/korusync/korusync/internal/storage"
)

type App struct {
	Cfg                 *config.Config
	DB                  *sqlx.DB
	Cooldowns           cooldown.Store
	AuthService         *service.AuthService
	SessionService      *service.SessionService
	UserService         *service.UserService
	ProfileService      *service.ProfileService
	EmailService        *service.EmailService
	FileService         *service.FileService
	OnboardingService   *service.OnboardingService
	PillarService       *service.PillarService
	TaskService         *service.TaskService
	TimeEntryService    *service.TimeEntryService
	GoalService         *service.GoalService
	JournalService      *service.JournalService
	GamificationService *service.GamificationService
	FriendshipService   *service.FriendshipService
	DashboardService    *service.DashboardService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	cooldowns, err := newCooldownStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cooldown store: %v", err)
	}

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	profileRepository := repository.NewProfileRepository(database)
	preferencesRepository := repository.NewPreferencesRepository(database)
	accountRepository := repository.NewAccountRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	sessionRepository := repository.NewSessionRepository(database)
	fileRepository := repository.NewFileRepository(database)
	onboardingRepository := repository.NewOnboardingRepository(database)
	pillarRepository := repository.NewPillarRepository(database)
	taskRepository := repository.NewTaskRepository(database)
	timeEntryRepository := repository.NewTimeEntryRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	goalEntryRepository := repository.NewGoalEntryRepository(database)
	journalRepository := repository.NewJournalRepository(database)
	statsRepository := repository.NewStatsRepository(database)
	friendshipRepository := repository.NewFriendshipRepository(database)

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	fileService := service.NewFileService(fileRepository, fileStorage)
	authService := service.NewAuthService(
		userRepository,
		accountRepository,
		tokenRepository,
		sessionRepository,
		emailService,
		cooldowns,
		service.OTPConfig{
			Length:         cfg.OTPLength,
			Expiry:         cfg.OTPExpiry,
			MaxAttempts:    cfg.OTPMaxAttempts,
			ResendCooldown: cfg.OTPResendCooldown,
		},
	)
	sessionService := service.NewSessionService(
		sessionRepository,
		userRepository,
		cfg.JWTSecret,
		cfg.JWTExpiry,
		cfg.SessionExpiry,
		cfg.IsProduction(),
	)
	userService := service.NewUserService(userRepository, profileRepository, accountRepository, sessionRepository, fileService, emailService)
	profileService := service.NewProfileService(profileRepository, preferencesRepository)
	onboardingService := service.NewOnboardingService(
		onboardingRepository,
		profileRepository,
		preferencesRepository,
		pillarRepository,
		userRepository,
		emailService,
	)
	gamificationService := service.NewGamificationService(statsRepository)
	pillarService := service.NewPillarService(pillarRepository)
	taskService := service.NewTaskService(taskRepository, pillarService, profileRepository, gamificationService)
	timeEntryService := service.NewTimeEntryService(timeEntryRepository, taskRepository, pillarService, profileRepository, gamificationService)
	goalService := service.NewGoalService(goalRepository, goalEntryRepository, pillarService, profileRepository, gamificationService)
	journalService := service.NewJournalService(journalRepository, markdown.NewParser(), profileRepository, gamificationService)
	friendshipService := service.NewFriendshipService(friendshipRepository, profileRepository, preferencesRepository, userRepository, emailService)
	dashboardService := service.NewDashboardService(
		timeEntryRepository,
		taskRepository,
		journalRepository,
		pillarRepository,
		goalRepository,
		profileRepository,
		preferencesRepository,
		statsRepository,
	)

	return &App{
		Cfg:                 cfg,
		DB:                  database,
		Cooldowns:           cooldowns,
		AuthService:         authService,
		SessionService:      sessionService,
		UserService:         userService,
		ProfileService:      profileService,
		EmailService:        emailService,
		FileService:         fileService,
		OnboardingService:   onboardingService,
		PillarService:       pillarService,
		TaskService:         taskService,
		TimeEntryService:    timeEntryService,
		GoalService:         goalService,
		JournalService:      journalService,
		GamificationService: gamificationService,
		FriendshipService:   friendshipService,
		DashboardService:    dashboardService,
	}, nil
}

// newCooldownStore shares cooldowns through Redis when REDIS_URL is set.
// A single instance is fine with the in-memory store.
func newCooldownStore(cfg *config.Config) (cooldown.Store, error) {
	if cfg.RedisURL == "" {
		return cooldown.NewMemory(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := cooldown.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	slog.Info("cooldowns backed by redis")
	return store, nil
}

func (a *App) Close() error {
	var errs []error
	if closer, ok := a.Cooldowns.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
