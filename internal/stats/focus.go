package stats

import (
	"time"

	"github.com/korusync/korusync/internal/model"
)

type FocusTime struct {
	TodayMinutes int  `json:"today_minutes"`
	WeekMinutes  int  `json:"week_minutes"`
	GoalMinutes  int  `json:"goal_minutes"`
	Running      bool `json:"running"`
}

// Focus sums entry time falling inside today and the current week (from
// Monday). A running entry counts up to now.
func Focus(entries []*model.TimeEntry, now time.Time, loc *time.Location) FocusTime {
	dayStart := StartOfDay(now, loc)
	weekStart := StartOfWeek(now, loc)

	var today, week time.Duration
	var running bool
	for _, e := range entries {
		if e.IsRunning() {
			running = true
		}
		today += overlap(e, dayStart, now, now)
		week += overlap(e, weekStart, now, now)
	}

	return FocusTime{
		TodayMinutes: int(today / time.Minute),
		WeekMinutes:  int(week / time.Minute),
		Running:      running,
	}
}

// overlap returns how much of the entry lies within [from, to).
func overlap(e *model.TimeEntry, from, to, now time.Time) time.Duration {
	start := e.StartedAt
	end := now
	if e.EndedAt != nil {
		end = *e.EndedAt
	}
	if start.Before(from) {
		start = from
	}
	if end.After(to) {
		end = to
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}
