package records

import (
	"sort"

	"github.com/omarshaarawi/legacybot/internal/models"
)

type SeasonRecord struct {
	Season    int     `json:"season"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	Ties      int     `json:"ties"`
	PointsFor float64 `json:"points_for"`
}

func (r SeasonRecord) WinPct() float64 {
	games := r.Wins + r.Losses + r.Ties
	if games == 0 {
		return 0
	}
	return (float64(r.Wins) + 0.5*float64(r.Ties)) / float64(games)
}

func (r SeasonRecord) betterThan(o SeasonRecord) bool {
	if r.WinPct() != o.WinPct() {
		return r.WinPct() > o.WinPct()
	}
	if r.PointsFor != o.PointsFor {
		return r.PointsFor > o.PointsFor
	}
	return r.Season < o.Season
}

// CareerBreakdown is recomputed from scratch on every call and never updated
// incrementally.
type CareerBreakdown struct {
	UserID        string        `json:"user_id"`
	Name          string        `json:"name"`
	Wins          int           `json:"wins"`
	Losses        int           `json:"losses"`
	Ties          int           `json:"ties"`
	PlayoffWins   int           `json:"playoff_wins"`
	PlayoffLosses int           `json:"playoff_losses"`
	Titles        int           `json:"titles"`
	PointsFor     float64       `json:"points_for"`
	Seasons       []int         `json:"seasons"`
	BestSeason    *SeasonRecord `json:"best_season,omitempty"`
	WorstSeason   *SeasonRecord `json:"worst_season,omitempty"`
}

func (c CareerBreakdown) WinPct() float64 {
	return SeasonRecord{Wins: c.Wins, Losses: c.Losses, Ties: c.Ties}.WinPct()
}

// Careers aggregates every manager who appears in the lineage.
func Careers(seasons []models.LeagueSeason) []CareerBreakdown {
	names := Names(seasons)
	careers := make(map[string]*CareerBreakdown)
	perSeason := make(map[string]map[int]*SeasonRecord)

	get := func(userID string) *CareerBreakdown {
		c, ok := careers[userID]
		if !ok {
			c = &CareerBreakdown{UserID: userID, Name: names[userID]}
			if c.Name == "" {
				c.Name = userID
			}
			careers[userID] = c
			perSeason[userID] = make(map[int]*SeasonRecord)
		}
		return c
	}
	seasonOf := func(userID string, season int) *SeasonRecord {
		get(userID)
		sr, ok := perSeason[userID][season]
		if !ok {
			sr = &SeasonRecord{Season: season}
			perSeason[userID][season] = sr
		}
		return sr
	}

	for _, s := range seasons {
		for _, userID := range s.Managers {
			if userID == "" {
				continue
			}
			seasonOf(userID, s.Season)
		}
		if champ := s.Champion(); champ != "" {
			get(champ).Titles++
		}
	}

	for _, m := range History(seasons) {
		for _, side := range []struct {
			user       string
			pts, oppPt float64
		}{
			{m.HomeUserID, m.HomePoints, m.AwayPoints},
			{m.AwayUserID, m.AwayPoints, m.HomePoints},
		} {
			c := get(side.user)
			if m.IsPlayoff {
				switch {
				case side.pts > side.oppPt:
					c.PlayoffWins++
				case side.pts < side.oppPt:
					c.PlayoffLosses++
				}
				continue
			}

			sr := seasonOf(side.user, m.Season)
			sr.PointsFor += side.pts
			c.PointsFor += side.pts
			switch {
			case side.pts > side.oppPt:
				c.Wins++
				sr.Wins++
			case side.pts < side.oppPt:
				c.Losses++
				sr.Losses++
			default:
				c.Ties++
				sr.Ties++
			}
		}
	}

	out := make([]CareerBreakdown, 0, len(careers))
	for userID, c := range careers {
		for season, sr := range perSeason[userID] {
			c.Seasons = append(c.Seasons, season)
			if sr.Wins+sr.Losses+sr.Ties == 0 {
				continue
			}
			rec := *sr
			rec.PointsFor = round2(rec.PointsFor)
			if c.BestSeason == nil || rec.betterThan(*c.BestSeason) {
				best := rec
				c.BestSeason = &best
			}
			if c.WorstSeason == nil || c.WorstSeason.betterThan(rec) {
				worst := rec
				c.WorstSeason = &worst
			}
		}
		sort.Ints(c.Seasons)
		c.PointsFor = round2(c.PointsFor)
		out = append(out, *c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Titles != out[j].Titles {
			return out[i].Titles > out[j].Titles
		}
		if out[i].WinPct() != out[j].WinPct() {
			return out[i].WinPct() > out[j].WinPct()
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}
