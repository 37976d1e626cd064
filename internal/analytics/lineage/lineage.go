// Package lineage groups same-named leagues across seasons into franchise
// lineages.
package lineage

import (
	"log/slog"
	"sort"

	"github.com/omarshaarawi/legacybot/internal/models"
)

type SeasonRef struct {
	LeagueID string `json:"league_id"`
	Season   int    `json:"season"`
}

// Lineage is an immutable chain of leagues sharing one display name,
// ordered by season descending. Seasons may have gaps.
type Lineage struct {
	Name         string      `json:"name"`
	RootLeagueID string      `json:"root_league_id"`
	Seasons      []SeasonRef `json:"seasons"`
}

// Resolve groups leagues by exact, case-sensitive name. Leagues that reuse a
// name are merged into one lineage.
func Resolve(leagues []models.League) []Lineage {
	if len(leagues) == 0 {
		return []Lineage{}
	}

	grouped := make(map[string][]SeasonRef)
	seen := make(map[string]map[int]string)
	for _, l := range leagues {
		if l.ID == "" || l.Season == 0 {
			slog.Warn("Skipping league without id or season", "league_id", l.ID, "name", l.Name)
			continue
		}
		if seen[l.Name] == nil {
			seen[l.Name] = make(map[int]string)
		}
		if prev, dup := seen[l.Name][l.Season]; dup {
			if prev != l.ID {
				slog.Warn("Duplicate season in lineage", "name", l.Name, "season", l.Season, "kept", prev, "dropped", l.ID)
			}
			continue
		}
		seen[l.Name][l.Season] = l.ID
		grouped[l.Name] = append(grouped[l.Name], SeasonRef{LeagueID: l.ID, Season: l.Season})
	}

	lineages := make([]Lineage, 0, len(grouped))
	for name, seasons := range grouped {
		sort.Slice(seasons, func(i, j int) bool {
			return seasons[i].Season > seasons[j].Season
		})
		lineages = append(lineages, Lineage{
			Name:         name,
			RootLeagueID: seasons[0].LeagueID,
			Seasons:      seasons,
		})
	}

	sort.Slice(lineages, func(i, j int) bool {
		if lineages[i].Latest() != lineages[j].Latest() {
			return lineages[i].Latest() > lineages[j].Latest()
		}
		return lineages[i].Name < lineages[j].Name
	})

	return lineages
}

func (l Lineage) Latest() int {
	if len(l.Seasons) == 0 {
		return 0
	}
	return l.Seasons[0].Season
}

func (l Lineage) Oldest() int {
	if len(l.Seasons) == 0 {
		return 0
	}
	return l.Seasons[len(l.Seasons)-1].Season
}

// Chronological returns the season refs oldest first.
func (l Lineage) Chronological() []SeasonRef {
	out := make([]SeasonRef, len(l.Seasons))
	for i, s := range l.Seasons {
		out[len(out)-1-i] = s
	}
	return out
}

func Find(lineages []Lineage, name string) (Lineage, bool) {
	for _, l := range lineages {
		if l.Name == name {
			return l, true
		}
	}
	return Lineage{}, false
}

// Key identifies a lineage set for one user; results computed for different
// keys never share state.
func Key(userID string, l Lineage) string {
	return userID + "/" + l.RootLeagueID
}
