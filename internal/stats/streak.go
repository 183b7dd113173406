package stats

import "sort"

type Streak struct {
	Current      int    `json:"current"`
	Longest      int    `json:"longest"`
	ActiveToday  bool   `json:"active_today"`
	LastActiveOn string `json:"last_active_on,omitempty"`
}

// ComputeStreak counts consecutive active days ending today. When today has
// no activity yet the run ending yesterday still counts. Dates are
// YYYY-MM-DD in the user's timezone and may contain duplicates.
func ComputeStreak(activeDates []string, today string) Streak {
	set := make(map[string]bool, len(activeDates))
	for _, d := range activeDates {
		if d != "" {
			set[d] = true
		}
	}

	s := Streak{ActiveToday: set[today]}

	day := today
	if !s.ActiveToday {
		day = PreviousDate(today)
	}
	for set[day] {
		s.Current++
		day = PreviousDate(day)
	}

	s.Longest = longestRun(set)
	if s.Current > s.Longest {
		s.Longest = s.Current
	}

	for d := range set {
		if d <= today && d > s.LastActiveOn {
			s.LastActiveOn = d
		}
	}

	return s
}

func longestRun(set map[string]bool) int {
	dates := make([]string, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	longest, run := 0, 0
	for i, d := range dates {
		if i > 0 && PreviousDate(d) == dates[i-1] {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// AdvanceStreak moves a stored streak forward for activity on date. Same
// day leaves it unchanged, the next day extends it, a gap restarts at 1.
func AdvanceStreak(current, longest int, lastActive, date string) (int, int) {
	switch {
	case lastActive == date:
		// already counted
	case lastActive != "" && PreviousDate(date) == lastActive:
		current++
	case lastActive > date:
		// back-dated activity does not move the streak
	default:
		current = 1
	}
	if current > longest {
		longest = current
	}
	return current, longest
}
