// Package luck scores schedule luck as actual wins minus all-play expected
// wins.
package luck

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/omarshaarawi/legacybot/internal/models"
)

// MinManagers is the smallest league where an all-play comparison means
// anything.
const MinManagers = 4

const ReasonInsufficientData = "insufficient data"

type ManagerLuck struct {
	UserID       string  `json:"user_id"`
	Weeks        int     `json:"weeks"`
	ActualWins   float64 `json:"actual_wins"`
	ExpectedWins float64 `json:"expected_wins"`
	Luck         float64 `json:"luck"`
}

type SeasonLuck struct {
	Season    int           `json:"season"`
	Available bool          `json:"available"`
	Reason    string        `json:"reason,omitempty"`
	Managers  []ManagerLuck `json:"managers,omitempty"`
}

func (s SeasonLuck) For(userID string) (ManagerLuck, bool) {
	for _, m := range s.Managers {
		if m.UserID == userID {
			return m, true
		}
	}
	return ManagerLuck{}, false
}

// ForSeason computes luck for one season's regular-season matchups. Playoff
// matchups are ignored. Ties count as half a win on both sides of the
// ledger. Matchups naming a user outside the season's managers are dropped
// before managers are counted.
func ForSeason(s models.LeagueSeason) SeasonLuck {
	season := s.Season
	weekly := make(map[int]map[string]float64)
	totals := make(map[string]*ManagerLuck)

	for _, m := range s.Matchups {
		if m.IsPlayoff {
			continue
		}
		if err := s.CheckMatchup(m); err != nil {
			if !errors.Is(err, models.ErrUnscored) {
				slog.Warn("Skipping matchup in luck index", "league_id", s.LeagueID, "season", season,
					"week", m.Week, "home", m.HomeUserID, "away", m.AwayUserID, "reason", err)
			}
			continue
		}
		scores, ok := weekly[m.Week]
		if !ok {
			scores = make(map[string]float64)
			weekly[m.Week] = scores
		}
		_, homeDup := scores[m.HomeUserID]
		_, awayDup := scores[m.AwayUserID]
		if homeDup || awayDup {
			slog.Warn("Skipping duplicate weekly matchup in luck index", "season", season, "week", m.Week,
				"home", m.HomeUserID, "away", m.AwayUserID)
			continue
		}
		scores[m.HomeUserID] = m.HomePoints
		scores[m.AwayUserID] = m.AwayPoints

		home, away := entry(totals, m.HomeUserID), entry(totals, m.AwayUserID)
		switch {
		case m.HomePoints > m.AwayPoints:
			home.ActualWins++
		case m.AwayPoints > m.HomePoints:
			away.ActualWins++
		default:
			home.ActualWins += 0.5
			away.ActualWins += 0.5
		}
	}

	if len(totals) < MinManagers {
		return SeasonLuck{Season: season, Reason: ReasonInsufficientData}
	}

	for _, scores := range weekly {
		if len(scores) < 2 {
			continue
		}
		others := float64(len(scores) - 1)
		for user, pts := range scores {
			beaten := 0.0
			for other, otherPts := range scores {
				if other == user {
					continue
				}
				switch {
				case pts > otherPts:
					beaten++
				case pts == otherPts:
					beaten += 0.5
				}
			}
			t := totals[user]
			t.ExpectedWins += beaten / others
			t.Weeks++
		}
	}

	out := SeasonLuck{Season: season, Available: true}
	for _, t := range totals {
		t.Luck = t.ActualWins - t.ExpectedWins
		out.Managers = append(out.Managers, *t)
	}
	sortByLuck(out.Managers)
	return out
}

type LineageLuck struct {
	Available bool          `json:"available"`
	Reason    string        `json:"reason,omitempty"`
	Seasons   []SeasonLuck  `json:"seasons"`
	Totals    []ManagerLuck `json:"totals,omitempty"`
}

// ForLineage sums luck across every season with enough data.
func ForLineage(seasons []models.LeagueSeason) LineageLuck {
	ordered := make([]models.LeagueSeason, len(seasons))
	copy(ordered, seasons)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Season < ordered[j].Season })

	out := LineageLuck{Seasons: []SeasonLuck{}}
	totals := make(map[string]*ManagerLuck)
	for _, s := range ordered {
		sl := ForSeason(s)
		out.Seasons = append(out.Seasons, sl)
		if !sl.Available {
			continue
		}
		for _, m := range sl.Managers {
			t := entry(totals, m.UserID)
			t.Weeks += m.Weeks
			t.ActualWins += m.ActualWins
			t.ExpectedWins += m.ExpectedWins
			t.Luck += m.Luck
		}
	}

	if len(totals) == 0 {
		out.Reason = ReasonInsufficientData
		return out
	}
	out.Available = true
	for _, t := range totals {
		out.Totals = append(out.Totals, *t)
	}
	sortByLuck(out.Totals)
	return out
}

func entry(m map[string]*ManagerLuck, userID string) *ManagerLuck {
	e, ok := m[userID]
	if !ok {
		e = &ManagerLuck{UserID: userID}
		m[userID] = e
	}
	return e
}

func sortByLuck(ms []ManagerLuck) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].Luck != ms[j].Luck {
			return ms[i].Luck > ms[j].Luck
		}
		return ms[i].UserID < ms[j].UserID
	})
}
