package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/cooldown"
	"github.com/korusync/korusync/internal/db"
	"github.com/korusync/korusync/internal/markdown"
	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/onboarding"
	"github.com/korusync/korusync/internal/repository"
	"github.com/korusync/korusync/internal/storage"
	"github.com/korusync/korusync/internal/validation"
	"github.com/stretchr/testify/require"
)

const testCode = "123456"

type testServices struct {
	db           *sqlx.DB
	users        repository.UserRepository
	auth         *AuthService
	sessions     *SessionService
	user         *UserService
	onboarding   *OnboardingService
	pillars      *PillarService
	tasks        *TaskService
	timeEntries  *TimeEntryService
	goals        *GoalService
	journal      *JournalService
	gamification *GamificationService
	friends      *FriendshipService
	dashboard    *DashboardService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)"
	conn, err := db.Init("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))

	userRepo := repository.NewUserRepository(conn)
	profileRepo := repository.NewProfileRepository(conn)
	prefsRepo := repository.NewPreferencesRepository(conn)
	accountRepo := repository.NewAccountRepository(conn)
	sessionRepo := repository.NewSessionRepository(conn)
	pillarRepo := repository.NewPillarRepository(conn)
	taskRepo := repository.NewTaskRepository(conn)
	timeEntryRepo := repository.NewTimeEntryRepository(conn)
	goalRepo := repository.NewGoalRepository(conn)
	journalRepo := repository.NewJournalRepository(conn)
	statsRepo := repository.NewStatsRepository(conn)

	emails := NewEmailService("", "test@korusync.local", "http://localhost:8090", "KoruSync", true)
	files := NewFileService(repository.NewFileRepository(conn), storage.Disabled{})

	auth := NewAuthService(userRepo, accountRepo, repository.NewTokenRepository(conn), sessionRepo, emails, cooldown.NewMemory(), OTPConfig{
		Length:         6,
		Expiry:         10 * time.Minute,
		MaxAttempts:    3,
		ResendCooldown: time.Minute,
	})
	auth.generateCode = func(int) (string, error) { return testCode, nil }

	gamification := NewGamificationService(statsRepo)
	pillars := NewPillarService(pillarRepo)

	return &testServices{
		db:           conn,
		users:        userRepo,
		auth:         auth,
		sessions:     NewSessionService(sessionRepo, userRepo, "test-secret", 15*time.Minute, 24*time.Hour, false),
		user:         NewUserService(userRepo, profileRepo, accountRepo, sessionRepo, files, emails),
		onboarding:   NewOnboardingService(repository.NewOnboardingRepository(conn), profileRepo, prefsRepo, pillarRepo, userRepo, emails),
		pillars:      pillars,
		tasks:        NewTaskService(taskRepo, pillars, profileRepo, gamification),
		timeEntries:  NewTimeEntryService(timeEntryRepo, taskRepo, pillars, profileRepo, gamification),
		goals:        NewGoalService(goalRepo, repository.NewGoalEntryRepository(conn), pillars, profileRepo, gamification),
		journal:      NewJournalService(journalRepo, markdown.NewParser(), profileRepo, gamification),
		gamification: gamification,
		friends:      NewFriendshipService(repository.NewFriendshipRepository(conn), profileRepo, prefsRepo, userRepo, emails),
		dashboard:    NewDashboardService(timeEntryRepo, taskRepo, journalRepo, pillarRepo, goalRepo, profileRepo, prefsRepo, statsRepo),
	}
}

// readyUser creates a verified user who finished onboarding with the
// Health and Career pillars.
func (s *testServices) readyUser(t *testing.T, email, username string) (*model.User, []*model.Pillar) {
	t.Helper()

	user, err := s.auth.AuthenticateOAuth(email, "google")
	require.NoError(t, err)

	_, pillars, err := s.onboarding.Complete(user.ID, onboarding.Submission{
		Username: username,
		FullName: "Test User",
		Timezone: "UTC",
		Pillars:  []validation.PillarInput{{Name: "health"}, {Name: "career"}},
	})
	require.NoError(t, err)
	require.Len(t, pillars, 2)
	return user, pillars
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
