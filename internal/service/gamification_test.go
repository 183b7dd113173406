package service

import (
	"testing"
	"time"

	"github.com/korusync/korusync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskXP(t *testing.T) {
	assert.Equal(t, XPTaskLow, TaskXP(model.TaskPriorityLow))
	assert.Equal(t, XPTaskMedium, TaskXP(model.TaskPriorityMedium))
	assert.Equal(t, XPTaskHigh, TaskXP(model.TaskPriorityHigh))
	assert.Equal(t, XPTaskLow, TaskXP(""))
}

func TestFocusXP(t *testing.T) {
	assert.Equal(t, 0, FocusXP(0))
	assert.Equal(t, 0, FocusXP(299))
	assert.Equal(t, 1, FocusXP(300))
	assert.Equal(t, 5, FocusXP(25*60+59))
}

func TestRecordActivityStreakAndBadges(t *testing.T) {
	s := newTestServices(t)
	user, _ := s.readyUser(t, "ada@example.com", "ada")

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var earned []string
	for i := range 7 {
		_, badges, err := s.gamification.RecordActivity(user.ID, Activity{
			XP:             XPTaskMedium,
			Date:           day.AddDate(0, 0, i).Format(model.DateLayout),
			TasksCompleted: 1,
		})
		require.NoError(t, err)
		earned = append(earned, badges...)
	}

	assert.ElementsMatch(t, []string{model.BadgeFirstTask, model.BadgeStreak7}, earned)

	st, err := s.gamification.Stats(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, st.CurrentStreak)
	assert.Equal(t, 7, st.LongestStreak)
	assert.Equal(t, 70, st.XP)
	assert.Equal(t, "2026-03-07", st.LastActiveDate)

	// Same day again leaves the streak alone; a gap restarts it.
	st, _, err = s.gamification.RecordActivity(user.ID, Activity{Date: "2026-03-07"})
	require.NoError(t, err)
	assert.Equal(t, 7, st.CurrentStreak)

	st, badges, err := s.gamification.RecordActivity(user.ID, Activity{Date: "2026-03-10"})
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, 7, st.LongestStreak)
	assert.Empty(t, badges)

	stored, err := s.gamification.Badges(user.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestRecordActivityLevels(t *testing.T) {
	s := newTestServices(t)
	user, _ := s.readyUser(t, "ada@example.com", "ada")

	st, badges, err := s.gamification.RecordActivity(user.ID, Activity{XP: 1600})
	require.NoError(t, err)
	assert.Equal(t, 5, st.Level)
	assert.Contains(t, badges, model.BadgeLevel5)
	assert.Empty(t, st.LastActiveDate)
}

func TestBadgeNames(t *testing.T) {
	names := BadgeNames()
	assert.Len(t, names, len(badgeRules))
	assert.Equal(t, model.BadgeFirstTask, names[0])
}
