package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/omarshaarawi/legacybot/internal/analytics/lineage"
	"github.com/omarshaarawi/legacybot/internal/api/fantasy"
	"github.com/omarshaarawi/legacybot/internal/models"
)

type Trophy struct {
	Category string  `json:"category"`
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
}

type ScoreLine struct {
	Home       string  `json:"home"`
	Away       string  `json:"away"`
	HomePoints float64 `json:"home_points"`
	AwayPoints float64 `json:"away_points"`
}

type WeeklyRecap struct {
	League   string      `json:"league"`
	Season   int         `json:"season"`
	Week     int         `json:"week"`
	Scores   []ScoreLine `json:"scores"`
	Trophies []Trophy    `json:"trophies"`
}

// GetWeeklyRecap reports the latest scored week of the lineage's current
// season.
func (s *HistoryService) GetWeeklyRecap(ctx context.Context, username, name string) (*WeeklyRecap, error) {
	_, l, err := s.findLineage(ctx, username, name)
	if err != nil {
		return nil, err
	}
	if len(l.Seasons) == 0 {
		return nil, fmt.Errorf("%q: %w", name, ErrLineageNotFound)
	}
	seasons, err := s.seasons(ctx, lineage.Lineage{Seasons: l.Seasons[:1]}, fantasy.PartMatchups)
	if err != nil {
		return nil, err
	}
	if len(seasons) == 0 {
		return &WeeklyRecap{League: l.Name, Season: l.Latest()}, nil
	}
	recap := processWeek(seasons[0])
	recap.League = l.Name
	return &recap, nil
}

func processWeek(season models.LeagueSeason) WeeklyRecap {
	recap := WeeklyRecap{Season: season.Season}
	for _, m := range season.Matchups {
		if m.Week > recap.Week {
			recap.Week = m.Week
		}
	}
	if recap.Week == 0 {
		return recap
	}

	highScore, lowScore := -math.MaxFloat64, math.MaxFloat64
	biggestWin, closestWin := -math.MaxFloat64, math.MaxFloat64
	var highTeam, lowTeam, biggestTeam, closestTeam string

	for _, m := range season.Matchups {
		if m.Week != recap.Week {
			continue
		}
		home := season.DisplayName(m.HomeUserID)
		away := season.DisplayName(m.AwayUserID)
		recap.Scores = append(recap.Scores, ScoreLine{Home: home, Away: away, HomePoints: m.HomePoints, AwayPoints: m.AwayPoints})

		if m.HomePoints > highScore {
			highScore, highTeam = m.HomePoints, home
		}
		if m.AwayPoints > highScore {
			highScore, highTeam = m.AwayPoints, away
		}
		if m.HomePoints < lowScore {
			lowScore, lowTeam = m.HomePoints, home
		}
		if m.AwayPoints < lowScore {
			lowScore, lowTeam = m.AwayPoints, away
		}

		// ties have no winner
		if m.HomePoints == m.AwayPoints {
			continue
		}
		winner := home
		if m.AwayPoints > m.HomePoints {
			winner = away
		}
		margin := math.Abs(m.HomePoints - m.AwayPoints)
		if margin > biggestWin {
			biggestWin, biggestTeam = margin, winner
		}
		if margin < closestWin {
			closestWin, closestTeam = margin, winner
		}
	}

	sort.Slice(recap.Scores, func(i, j int) bool {
		return recap.Scores[i].HomePoints+recap.Scores[i].AwayPoints > recap.Scores[j].HomePoints+recap.Scores[j].AwayPoints
	})

	recap.Trophies = []Trophy{
		{Category: "High Score", Name: highTeam, Value: round2(highScore)},
		{Category: "Low Score", Name: lowTeam, Value: round2(lowScore)},
	}
	if biggestTeam != "" {
		recap.Trophies = append(recap.Trophies,
			Trophy{Category: "Biggest Win", Name: biggestTeam, Value: round2(biggestWin)},
			Trophy{Category: "Closest Win", Name: closestTeam, Value: round2(closestWin)},
		)
	}
	return recap
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
