package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/db"
	"github.com/korusync/korusync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)"
	conn, err := db.Init("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))
	return conn
}

func seedUser(t *testing.T, conn *sqlx.DB, email string) *model.User {
	t.Helper()

	now := time.Now().UTC()
	user := &model.User{ID: uuid.New().String(), Email: email, CreatedAt: now}
	err := NewAccountRepository(conn).Create(user,
		&model.Profile{UserID: user.ID},
		model.DefaultPreferences(user.ID, now),
		&model.UserStats{UserID: user.ID},
	)
	require.NoError(t, err)
	return user
}

func newPillar(userID, name, slug string, order int) *model.Pillar {
	now := time.Now().UTC()
	return &model.Pillar{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Slug:      slug,
		SortOrder: order,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	conn := testDB(t)
	seedUser(t, conn, "a@example.com")

	err := NewUserRepository(conn).Create(&model.User{ID: uuid.New().String(), Email: "a@example.com", CreatedAt: time.Now().UTC()})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestAccountRepositoryCreateRollsBack(t *testing.T) {
	conn := testDB(t)
	seedUser(t, conn, "a@example.com")

	now := time.Now().UTC()
	dup := &model.User{ID: uuid.New().String(), Email: "a@example.com", CreatedAt: now}
	err := NewAccountRepository(conn).Create(dup, &model.Profile{UserID: dup.ID}, model.DefaultPreferences(dup.ID, now), &model.UserStats{UserID: dup.ID})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = NewProfileRepository(conn).ByUserID(dup.ID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestProfileRepositoryUsernameTaken(t *testing.T) {
	conn := testDB(t)
	a := seedUser(t, conn, "a@example.com")
	b := seedUser(t, conn, "b@example.com")
	profiles := NewProfileRepository(conn)

	name := "koru"
	pa, err := profiles.ByUserID(a.ID)
	require.NoError(t, err)
	pa.Username = &name
	require.NoError(t, profiles.Update(pa))

	pb, err := profiles.ByUserID(b.ID)
	require.NoError(t, err)
	pb.Username = &name
	assert.ErrorIs(t, profiles.Update(pb), ErrUsernameTaken)

	exists, err := profiles.UsernameExists("koru")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTokenRepositoryConsumeOnce(t *testing.T) {
	conn := testDB(t)
	user := seedUser(t, conn, "a@example.com")
	tokens := NewTokenRepository(conn)

	token := &model.Token{UserID: user.ID, Type: model.TokenTypeEmailVerify, CodeHash: "h", ExpiresAt: time.Now().UTC().Add(time.Hour)}
	require.NoError(t, tokens.Create(token))

	active, err := tokens.Active(user.ID, model.TokenTypeEmailVerify)
	require.NoError(t, err)
	assert.Equal(t, token.ID, active.ID)

	attempts, err := tokens.RecordFailedAttempt(token.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)

	_, err = tokens.Consume(token.ID)
	require.NoError(t, err)
	_, err = tokens.Consume(token.ID)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	_, err = tokens.Active(user.ID, model.TokenTypeEmailVerify)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestOnboardingRepositoryComplete(t *testing.T) {
	conn := testDB(t)
	user := seedUser(t, conn, "a@example.com")

	profile, err := NewProfileRepository(conn).ByUserID(user.ID)
	require.NoError(t, err)
	prefs, err := NewPreferencesRepository(conn).ByUserID(user.ID)
	require.NoError(t, err)

	name := "koru"
	profile.Username = &name
	profile.Timezone = "Europe/Berlin"
	pillars := []*model.Pillar{
		newPillar(user.ID, "Health", "health", 0),
		newPillar(user.ID, "Career", "career", 1),
	}

	require.NoError(t, NewOnboardingRepository(conn).Complete(profile, prefs, pillars))

	prefs, err = NewPreferencesRepository(conn).ByUserID(user.ID)
	require.NoError(t, err)
	assert.True(t, prefs.OnboardingCompleted)

	got, err := NewPillarRepository(conn).Pillars(user.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "health", got[0].Slug)

	// Upsert by slug keeps one row and takes the new order.
	again := []*model.Pillar{newPillar(user.ID, "Health", "health", 5)}
	require.NoError(t, NewOnboardingRepository(conn).Complete(profile, prefs, again))
	got, err = NewPillarRepository(conn).Pillars(user.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "career", got[0].Slug)
}

func TestOnboardingRepositoryRollsBack(t *testing.T) {
	conn := testDB(t)
	a := seedUser(t, conn, "a@example.com")
	b := seedUser(t, conn, "b@example.com")
	profiles := NewProfileRepository(conn)

	name := "taken"
	pa, err := profiles.ByUserID(a.ID)
	require.NoError(t, err)
	pa.Username = &name
	require.NoError(t, profiles.Update(pa))

	pb, err := profiles.ByUserID(b.ID)
	require.NoError(t, err)
	pb.Username = &name
	prefs, err := NewPreferencesRepository(conn).ByUserID(b.ID)
	require.NoError(t, err)

	err = NewOnboardingRepository(conn).Complete(pb, prefs, []*model.Pillar{newPillar(b.ID, "Health", "health", 0)})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	prefs, err = NewPreferencesRepository(conn).ByUserID(b.ID)
	require.NoError(t, err)
	assert.False(t, prefs.OnboardingCompleted)

	count, err := NewPillarRepository(conn).Count(b.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTimeEntryRepositorySingleRunning(t *testing.T) {
	conn := testDB(t)
	user := seedUser(t, conn, "a@example.com")
	entries := NewTimeEntryRepository(conn)

	now := time.Now().UTC()
	first := &model.TimeEntry{ID: uuid.New().String(), UserID: user.ID, StartedAt: now, CreatedAt: now}
	require.NoError(t, entries.Create(first))

	second := &model.TimeEntry{ID: uuid.New().String(), UserID: user.ID, StartedAt: now, CreatedAt: now}
	assert.ErrorIs(t, entries.Create(second), ErrTimerRunning)

	running, err := entries.Running(user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, running.ID)

	ended := now.Add(10 * time.Minute)
	first.EndedAt = &ended
	first.DurationSeconds = 600
	require.NoError(t, entries.Stop(first))
	assert.ErrorIs(t, entries.Stop(first), ErrTimeEntryNotFound)

	_, err = entries.Running(user.ID)
	assert.ErrorIs(t, err, ErrTimeEntryNotFound)

	list, err := entries.Between(user.ID, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGoalEntryRepositoryCheckInAndUndo(t *testing.T) {
	conn := testDB(t)
	user := seedUser(t, conn, "a@example.com")
	goals := NewGoalRepository(conn)
	entries := NewGoalEntryRepository(conn)

	now := time.Now().UTC()
	goal := &model.Goal{ID: uuid.New().String(), UserID: user.ID, Title: "Read", Target: 2, Status: model.GoalStatusActive, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, goals.Create(goal))

	first := &model.GoalEntry{ID: uuid.New().String(), GoalID: goal.ID, Amount: 1, CreatedAt: now}
	stored, completed, err := entries.CheckIn(user.ID, first)
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Equal(t, 1, stored.Progress)

	second := &model.GoalEntry{ID: uuid.New().String(), GoalID: goal.ID, Amount: 2, CreatedAt: now.Add(time.Second)}
	stored, completed, err = entries.CheckIn(user.ID, second)
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, 3, stored.Progress)
	assert.Equal(t, model.GoalStatusCompleted, stored.Status)

	_, _, err = entries.CheckIn(user.ID, &model.GoalEntry{ID: uuid.New().String(), GoalID: goal.ID, Amount: 1, CreatedAt: now})
	assert.ErrorIs(t, err, ErrGoalNotActive)

	undone, stored, err := entries.Undo(user.ID, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, undone.ID)
	assert.Equal(t, 1, stored.Progress)
	assert.Equal(t, model.GoalStatusActive, stored.Status)

	_, _, err = entries.Undo("someone-else", goal.ID)
	assert.ErrorIs(t, err, ErrGoalEntryNotFound)

	_, stored, err = entries.Undo(user.ID, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Progress)

	_, _, err = entries.Undo(user.ID, goal.ID)
	assert.ErrorIs(t, err, ErrGoalEntryNotFound)
}

func TestStatsRepositoryAwardBadgeIdempotent(t *testing.T) {
	conn := testDB(t)
	user := seedUser(t, conn, "a@example.com")
	stats := NewStatsRepository(conn)

	awarded, err := stats.AwardBadge(user.ID, model.BadgeFirstTask)
	require.NoError(t, err)
	assert.True(t, awarded)

	awarded, err = stats.AwardBadge(user.ID, model.BadgeFirstTask)
	require.NoError(t, err)
	assert.False(t, awarded)

	badges, err := stats.Badges(user.ID)
	require.NoError(t, err)
	assert.Len(t, badges, 1)
}

func TestFriendshipRepositoryFriends(t *testing.T) {
	conn := testDB(t)
	a := seedUser(t, conn, "a@example.com")
	b := seedUser(t, conn, "b@example.com")
	friendships := NewFriendshipRepository(conn)

	now := time.Now().UTC()
	f := &model.Friendship{ID: uuid.New().String(), RequesterID: a.ID, AddresseeID: b.ID, Status: model.FriendshipPending, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, friendships.Create(f))

	dup := *f
	dup.ID = uuid.New().String()
	assert.ErrorIs(t, friendships.Create(&dup), ErrFriendshipExists)

	pending, err := friendships.Friends(b.ID, model.FriendshipPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Incoming)
	assert.Equal(t, a.ID, pending[0].UserID)

	require.NoError(t, friendships.Accept(f.ID))
	found, err := friendships.Between(b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipAccepted, found.Status)
}

func TestAccountRepositoryDelete(t *testing.T) {
	conn := testDB(t)
	user := seedUser(t, conn, "a@example.com")
	other := seedUser(t, conn, "b@example.com")

	now := time.Now().UTC()
	pillar := newPillar(user.ID, "Health", "health", 0)
	require.NoError(t, NewPillarRepository(conn).Create(pillar))
	goal := &model.Goal{ID: uuid.New().String(), UserID: user.ID, PillarID: &pillar.ID, Title: "Run", Target: 5, Status: model.GoalStatusActive, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewGoalRepository(conn).Create(goal))
	_, _, err := NewGoalEntryRepository(conn).CheckIn(user.ID, &model.GoalEntry{ID: uuid.New().String(), GoalID: goal.ID, Amount: 1, CreatedAt: now})
	require.NoError(t, err)
	require.NoError(t, NewFriendshipRepository(conn).Create(&model.Friendship{ID: uuid.New().String(), RequesterID: other.ID, AddresseeID: user.ID, Status: model.FriendshipAccepted, CreatedAt: now, UpdatedAt: now}))

	accounts := NewAccountRepository(conn)
	require.NoError(t, accounts.Delete(user.ID))

	for _, table := range []string{"goal_entries", "goals", "pillars", "friendships", "profiles", "users"} {
		var count int
		require.NoError(t, conn.Get(&count, `SELECT COUNT(*) FROM `+table))
		switch table {
		case "profiles", "users":
			assert.Equal(t, 1, count, table)
		default:
			assert.Zero(t, count, table)
		}
	}

	assert.ErrorIs(t, accounts.Delete(user.ID), ErrUserNotFound)
}

func TestAccountTablesOrder(t *testing.T) {
	tables := AccountTables()
	assert.Equal(t, "goal_entries", tables[0])
	assert.Equal(t, "users", tables[len(tables)-1])
}
