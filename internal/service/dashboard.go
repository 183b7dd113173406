package service

import (
	"log/slog"
	"time"

	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/repository"
	"github.com/korusync/korusync/internal/stats"
)

// streakLookback bounds how far back activity is scanned for the streak
// widget. Longer runs are still reported through the stored longest streak.
const streakLookback = 366 * 24 * time.Hour

// Summary is the non-widget part of the dashboard.
type Summary struct {
	OpenTasks   []*model.Task      `json:"open_tasks"`
	ActiveGoals []*model.Goal      `json:"active_goals"`
	Stats       *model.UserStats   `json:"stats"`
	Badges      []*model.UserBadge `json:"badges"`
}

// Dashboard aggregates every widget. A widget that failed is nil.
type Dashboard struct {
	Focus   *stats.FocusTime `json:"focus,omitempty"`
	Streak  *stats.Streak    `json:"streak,omitempty"`
	Balance *stats.Balance   `json:"balance,omitempty"`
	Summary *Summary         `json:"summary,omitempty"`
}

// DashboardService computes each widget with its own reads. Nothing is
// cached between widgets.
type DashboardService struct {
	timeEntries repository.TimeEntryRepository
	tasks       repository.TaskRepository
	journal     repository.JournalRepository
	pillars     repository.PillarRepository
	goals       repository.GoalRepository
	profiles    repository.ProfileRepository
	preferences repository.PreferencesRepository
	statsRepo   repository.StatsRepository
}

func NewDashboardService(
	timeEntries repository.TimeEntryRepository,
	tasks repository.TaskRepository,
	journal repository.JournalRepository,
	pillars repository.PillarRepository,
	goals repository.GoalRepository,
	profiles repository.ProfileRepository,
	preferences repository.PreferencesRepository,
	statsRepo repository.StatsRepository,
) *DashboardService {
	return &DashboardService{
		timeEntries: timeEntries,
		tasks:       tasks,
		journal:     journal,
		pillars:     pillars,
		goals:       goals,
		profiles:    profiles,
		preferences: preferences,
		statsRepo:   statsRepo,
	}
}

// FocusTime sums focus minutes for today and the week so far in the user's
// timezone.
func (s *DashboardService) FocusTime(userID string, now time.Time) (*stats.FocusTime, error) {
	loc := userLocation(s.profiles, userID)

	entries, err := s.timeEntries.Between(userID, stats.StartOfWeek(now, loc), now)
	if err != nil {
		return nil, err
	}

	focus := stats.Focus(entries, now, loc)

	prefs, err := s.preferences.ByUserID(userID)
	if err == nil {
		focus.GoalMinutes = prefs.WeeklyFocusGoalMinutes
	}
	return &focus, nil
}

// Streak counts consecutive local days with a completed task, a time entry
// or a journal entry.
func (s *DashboardService) Streak(userID string, now time.Time) (*stats.Streak, error) {
	loc := userLocation(s.profiles, userID)
	from := stats.StartOfDay(now.Add(-streakLookback), loc)
	fromDate := stats.LocalDate(from, loc)

	var dates []string

	tasks, err := s.tasks.CompletedBetween(userID, from, now)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		dates = append(dates, stats.LocalDate(*t.CompletedAt, loc))
	}

	entries, err := s.timeEntries.Between(userID, from, now)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		dates = append(dates, stats.LocalDate(e.StartedAt, loc))
		if e.EndedAt != nil {
			dates = append(dates, stats.LocalDate(*e.EndedAt, loc))
		}
	}

	journalDates, err := s.journal.Dates(userID, fromDate)
	if err != nil {
		return nil, err
	}
	dates = append(dates, journalDates...)

	streak := stats.ComputeStreak(dates, stats.LocalDate(now, loc))

	st, err := s.statsRepo.ByUserID(userID)
	if err == nil && st.LongestStreak > streak.Longest {
		streak.Longest = st.LongestStreak
	}
	return &streak, nil
}

// BalanceScore scores the trailing week's spread of time across pillars.
func (s *DashboardService) BalanceScore(userID string, now time.Time) (*stats.Balance, error) {
	pillars, err := s.pillars.Pillars(userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.timeEntries.Between(userID, now.Add(-stats.BalanceWindow), now)
	if err != nil {
		return nil, err
	}

	balance := stats.ComputeBalance(entries, pillars, now)
	return &balance, nil
}

// Summary lists tasks open through the end of today, active goals and
// gamification state.
func (s *DashboardService) Summary(userID string, now time.Time) (*Summary, error) {
	loc := userLocation(s.profiles, userID)
	endOfDay := stats.StartOfDay(now, loc).AddDate(0, 0, 1)

	tasks, err := s.tasks.Open(userID, endOfDay)
	if err != nil {
		return nil, err
	}
	goals, err := s.goals.Active(userID)
	if err != nil {
		return nil, err
	}
	st, err := s.statsRepo.ByUserID(userID)
	if err != nil {
		return nil, err
	}
	badges, err := s.statsRepo.Badges(userID)
	if err != nil {
		return nil, err
	}

	return &Summary{OpenTasks: tasks, ActiveGoals: goals, Stats: st, Badges: badges}, nil
}

// Dashboard computes every widget independently. A failed widget is logged
// and left out rather than failing the whole response.
func (s *DashboardService) Dashboard(userID string, now time.Time) *Dashboard {
	d := &Dashboard{}

	focus, err := s.FocusTime(userID, now)
	if err != nil {
		slog.Error("dashboard widget failed", "widget", "focus", "error", err, "user_id", userID)
	}
	d.Focus = focus

	streak, err := s.Streak(userID, now)
	if err != nil {
		slog.Error("dashboard widget failed", "widget", "streak", "error", err, "user_id", userID)
	}
	d.Streak = streak

	balance, err := s.BalanceScore(userID, now)
	if err != nil {
		slog.Error("dashboard widget failed", "widget", "balance", "error", err, "user_id", userID)
	}
	d.Balance = balance

	summary, err := s.Summary(userID, now)
	if err != nil {
		slog.Error("dashboard widget failed", "widget", "summary", "error", err, "user_id", userID)
	}
	d.Summary = summary

	return d
}
