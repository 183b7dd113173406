package stats

import (
	"math"
	"time"

	"github.com/korusync/korusync/internal/model"
)

// BalanceWindow is the trailing period the balance score covers.
const BalanceWindow = 7 * 24 * time.Hour

type PillarShare struct {
	PillarID string `json:"pillar_id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Minutes  int    `json:"minutes"`
	Percent  int    `json:"percent"`
}

type Balance struct {
	Score             int           `json:"score"`
	TotalMinutes      int           `json:"total_minutes"`
	UnassignedMinutes int           `json:"unassigned_minutes"`
	Pillars           []PillarShare `json:"pillars"`
}

// ComputeBalance scores how evenly time over [now-BalanceWindow, now) was
// spread across all of the user's pillars, as normalised Shannon entropy
// times 100. Pillars with no time still count toward the maximum. Time not
// linked to a pillar is reported but not scored.
func ComputeBalance(entries []*model.TimeEntry, pillars []*model.Pillar, now time.Time) Balance {
	from := now.Add(-BalanceWindow)

	byPillar := make(map[string]time.Duration, len(pillars))
	var unassigned time.Duration
	for _, e := range entries {
		d := overlap(e, from, now, now)
		if d == 0 {
			continue
		}
		if e.PillarID == nil {
			unassigned += d
			continue
		}
		byPillar[*e.PillarID] += d
	}

	b := Balance{
		UnassignedMinutes: int(unassigned / time.Minute),
		Pillars:           make([]PillarShare, 0, len(pillars)),
	}

	var total time.Duration
	for _, p := range pillars {
		total += byPillar[p.ID]
	}
	b.TotalMinutes = int(total / time.Minute)

	for _, p := range pillars {
		d := byPillar[p.ID]
		share := PillarShare{
			PillarID: p.ID,
			Name:     p.Name,
			Color:    p.Color,
			Minutes:  int(d / time.Minute),
		}
		if total > 0 {
			share.Percent = int(math.Round(float64(d) * 100 / float64(total)))
		}
		b.Pillars = append(b.Pillars, share)
	}

	b.Score = entropyScore(byPillar, pillars, total)
	return b
}

func entropyScore(byPillar map[string]time.Duration, pillars []*model.Pillar, total time.Duration) int {
	if total <= 0 || len(pillars) == 0 {
		return 0
	}
	if len(pillars) == 1 {
		return 100
	}

	var h float64
	for _, p := range pillars {
		d := byPillar[p.ID]
		if d <= 0 {
			continue
		}
		q := float64(d) / float64(total)
		h -= q * math.Log(q)
	}

	return int(math.Round(h / math.Log(float64(len(pillars))) * 100))
}
