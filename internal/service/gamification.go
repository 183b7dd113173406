package service

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/repository"
	"github.com/korusync/korusync/internal/stats"
)

// XP awarded per activity.
const (
	XPTaskLow          = 5
	XPTaskMedium       = 10
	XPTaskHigh         = 15
	XPPerFocusBlock    = 1
	FocusBlockMinutes  = 5
	XPJournalEntry     = 5
	XPGoalCheckIn      = 2
	XPGoalCompleted    = 25
	focus10hSeconds    = 10 * 60 * 60
	journalBadgeTarget = 10
)

// TaskXP returns the reward for completing a task of the given priority.
func TaskXP(priority string) int {
	switch priority {
	case model.TaskPriorityHigh:
		return XPTaskHigh
	case model.TaskPriorityMedium:
		return XPTaskMedium
	default:
		return XPTaskLow
	}
}

// FocusXP rewards each full FocusBlockMinutes of focus.
func FocusXP(seconds int) int {
	return seconds / (FocusBlockMinutes * 60) * XPPerFocusBlock
}

// Activity is one unit of progress credited to a user's stats.
type Activity struct {
	XP             int
	Date           string // local YYYY-MM-DD
	TasksCompleted int
	FocusSeconds   int
	JournalEntries int
}

type badgeRule struct {
	badge string
	match func(*model.UserStats) bool
}

var badgeRules = []badgeRule{
	{model.BadgeFirstTask, func(s *model.UserStats) bool { return s.TasksCompleted >= 1 }},
	{model.BadgeFirstFocus, func(s *model.UserStats) bool { return s.FocusSeconds > 0 }},
	{model.BadgeStreak7, func(s *model.UserStats) bool { return s.LongestStreak >= 7 }},
	{model.BadgeStreak30, func(s *model.UserStats) bool { return s.LongestStreak >= 30 }},
	{model.BadgeFocus10h, func(s *model.UserStats) bool { return s.FocusSeconds >= focus10hSeconds }},
	{model.BadgeJournal10, func(s *model.UserStats) bool { return s.JournalCount >= journalBadgeTarget }},
	{model.BadgeLevel5, func(s *model.UserStats) bool { return s.Level >= 5 }},
}

// BadgeNames lists every badge that can be earned, in display order.
func BadgeNames() []string {
	names := make([]string, len(badgeRules))
	for i, r := range badgeRules {
		names[i] = r.badge
	}
	return names
}

type GamificationService struct {
	statsRepo repository.StatsRepository

	// Serialises read-modify-write of stats rows within this process.
	mu sync.Mutex
}

func NewGamificationService(statsRepo repository.StatsRepository) *GamificationService {
	return &GamificationService{statsRepo: statsRepo}
}

func (s *GamificationService) Stats(userID string) (*model.UserStats, error) {
	return s.statsRepo.ByUserID(userID)
}

func (s *GamificationService) Badges(userID string) ([]*model.UserBadge, error) {
	return s.statsRepo.Badges(userID)
}

// RecordActivity adds XP and counters, advances the streak for the
// activity's local date and awards any badges now earned. It returns the
// updated stats and the badges awarded by this call.
func (s *GamificationService) RecordActivity(userID string, a Activity) (*model.UserStats, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.statsRepo.ByUserID(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load stats: %w", err)
	}

	st.XP += a.XP
	if st.XP < 0 {
		st.XP = 0
	}
	st.Level = model.LevelForXP(st.XP)
	st.TasksCompleted += a.TasksCompleted
	st.FocusSeconds += a.FocusSeconds
	st.JournalCount += a.JournalEntries

	if a.Date != "" {
		st.CurrentStreak, st.LongestStreak = stats.AdvanceStreak(st.CurrentStreak, st.LongestStreak, st.LastActiveDate, a.Date)
		if a.Date > st.LastActiveDate {
			st.LastActiveDate = a.Date
		}
	}

	err = s.statsRepo.Update(st)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update stats: %w", err)
	}

	awarded := s.awardBadges(st)
	return st, awarded, nil
}

func (s *GamificationService) awardBadges(st *model.UserStats) []string {
	var awarded []string
	for _, rule := range badgeRules {
		if !rule.match(st) {
			continue
		}
		isNew, err := s.statsRepo.AwardBadge(st.UserID, rule.badge)
		if err != nil {
			slog.Error("failed to award badge", "error", err, "user_id", st.UserID, "badge", rule.badge)
			continue
		}
		if isNew {
			slog.Info("badge awarded", "user_id", st.UserID, "badge", rule.badge)
			awarded = append(awarded, rule.badge)
		}
	}
	return awarded
}
