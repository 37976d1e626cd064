package records

import (
	"testing"

	"github.com/omarshaarawi/legacybot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headToHeadSeason(season int, aWins func(week int) bool, champion string) models.LeagueSeason {
	s := models.LeagueSeason{
		LeagueID:       "L" + string(rune('0'+season%10)),
		Season:         season,
		Complete:       true,
		Managers:       map[int]string{1: "A", 2: "B"},
		DisplayNames:   map[string]string{"A": "Alice", "B": "Bob"},
		ChampionUserID: champion,
	}
	for week := 1; week <= 13; week++ {
		m := models.Matchup{Season: season, Week: week, HomeUserID: "A", AwayUserID: "B", HomePoints: 100, AwayPoints: 120}
		if aWins(week) {
			m.HomePoints, m.AwayPoints = 120, 100
		}
		s.Matchups = append(s.Matchups, m)
	}
	return s
}

func threeSeasonLineage() []models.LeagueSeason {
	return []models.LeagueSeason{
		// deliberately out of order: the engine sorts chronologically
		headToHeadSeason(2021, func(w int) bool { return w <= 7 }, "B"),
		headToHeadSeason(2019, func(w int) bool { return w >= 4 }, "A"),
		headToHeadSeason(2020, func(int) bool { return true }, "A"),
	}
}

func TestComputeEmpty(t *testing.T) {
	book := Compute(nil)
	assert.Empty(t, book.Records)

	book = Compute([]models.LeagueSeason{{Season: 2020, ChampionUserID: "A"}})
	assert.Empty(t, book.Records, "a lineage without matchups has no records")
}

func TestComputeWinStreakCrossesSeasons(t *testing.T) {
	book := Compute(threeSeasonLineage())

	win, ok := book.Get(LongestWinStreak)
	require.True(t, ok)
	assert.Equal(t, []string{"A"}, win.Holders)
	assert.Equal(t, 30.0, win.Value) // 10 + 13 + 7
	assert.Equal(t, Point{Season: 2019, Week: 4}, *win.Start)
	assert.Equal(t, Point{Season: 2021, Week: 7}, *win.End)

	loss, ok := book.Get(LongestLosingStreak)
	require.True(t, ok)
	assert.Equal(t, []string{"B"}, loss.Holders)
	assert.Equal(t, 30.0, loss.Value)

	champs, ok := book.Get(MostChampionships)
	require.True(t, ok)
	assert.Equal(t, []string{"A"}, champs.Holders)
	assert.Equal(t, 2.0, champs.Value)

	assert.Equal(t, "Alice", book.Names["A"])
}

func TestComputeIsIdempotent(t *testing.T) {
	seasons := threeSeasonLineage()
	first := Compute(seasons)
	second := Compute(seasons)
	assert.Equal(t, first, second)
}

func TestChampionshipTiesListAllHolders(t *testing.T) {
	seasons := threeSeasonLineage()
	// B wins 2019 and 2021, A wins 2020 and 2022
	seasons[1].ChampionUserID = "B"
	seasons[2].ChampionUserID = "A"
	seasons = append(seasons, headToHeadSeason(2022, func(int) bool { return false }, "A"))

	champs, ok := Compute(seasons).Get(MostChampionships)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B"}, champs.Holders)
	assert.Equal(t, 2.0, champs.Value)
}

func TestStreakTieKeepsEarliest(t *testing.T) {
	season := models.LeagueSeason{
		Season:   2022,
		Managers: map[int]string{1: "A", 2: "B", 3: "C", 4: "D"},
		Matchups: []models.Matchup{
			// A wins weeks 1-2 then loses; B wins weeks 3-4
			{Season: 2022, Week: 1, HomeUserID: "A", AwayUserID: "C", HomePoints: 110, AwayPoints: 90},
			{Season: 2022, Week: 1, HomeUserID: "B", AwayUserID: "D", HomePoints: 80, AwayPoints: 90},
			{Season: 2022, Week: 2, HomeUserID: "A", AwayUserID: "D", HomePoints: 110, AwayPoints: 90},
			{Season: 2022, Week: 2, HomeUserID: "B", AwayUserID: "C", HomePoints: 80, AwayPoints: 90},
			{Season: 2022, Week: 3, HomeUserID: "A", AwayUserID: "B", HomePoints: 80, AwayPoints: 90},
			{Season: 2022, Week: 3, HomeUserID: "C", AwayUserID: "D", HomePoints: 95, AwayPoints: 95},
			{Season: 2022, Week: 4, HomeUserID: "B", AwayUserID: "C", HomePoints: 130, AwayPoints: 90},
			{Season: 2022, Week: 4, HomeUserID: "A", AwayUserID: "D", HomePoints: 70, AwayPoints: 90},
		},
	}

	book := Compute([]models.LeagueSeason{season})
	win, ok := book.Get(LongestWinStreak)
	require.True(t, ok)
	assert.Equal(t, 2.0, win.Value)
	assert.Equal(t, []string{"A"}, win.Holders, "earliest streak wins the tie")

	high, ok := book.Get(HighestWeeklyScore)
	require.True(t, ok)
	assert.Equal(t, []string{"B"}, high.Holders)
	assert.Equal(t, 130.0, high.Value)

	low, ok := book.Get(LowestWeeklyScore)
	require.True(t, ok)
	assert.Equal(t, []string{"A"}, low.Holders)
	assert.Equal(t, 70.0, low.Value)

	blowout, ok := book.Get(BiggestBlowout)
	require.True(t, ok)
	assert.Equal(t, []string{"B"}, blowout.Holders)
	assert.Equal(t, "C", blowout.Opponent)
	assert.Equal(t, 40.0, blowout.Value)
}

func TestTieEndsStreaks(t *testing.T) {
	season := models.LeagueSeason{
		Season:   2022,
		Managers: map[int]string{1: "A", 2: "B"},
		Matchups: []models.Matchup{
			{Season: 2022, Week: 1, HomeUserID: "A", AwayUserID: "B", HomePoints: 110, AwayPoints: 90},
			{Season: 2022, Week: 2, HomeUserID: "A", AwayUserID: "B", HomePoints: 100, AwayPoints: 100},
			{Season: 2022, Week: 3, HomeUserID: "A", AwayUserID: "B", HomePoints: 110, AwayPoints: 90},
		},
	}
	win, ok := Compute([]models.LeagueSeason{season}).Get(LongestWinStreak)
	require.True(t, ok)
	assert.Equal(t, 1.0, win.Value)
}

func TestMalformedMatchupsAreSkipped(t *testing.T) {
	season := models.LeagueSeason{
		Season:   2022,
		Managers: map[int]string{1: "A", 2: "B"},
		Matchups: []models.Matchup{
			{Season: 2022, Week: 1, HomeUserID: "A", AwayUserID: "ghost", HomePoints: 300, AwayPoints: 1},
			{Season: 2022, Week: 1, HomeUserID: "", AwayUserID: "B", HomePoints: 250, AwayPoints: 1},
			{Season: 2022, Week: 2, HomeUserID: "A", AwayUserID: "B", HomePoints: 0, AwayPoints: 0},
			{Season: 2022, Week: 3, HomeUserID: "A", AwayUserID: "B", HomePoints: 101, AwayPoints: 99},
		},
	}
	book := Compute([]models.LeagueSeason{season})
	high, ok := book.Get(HighestWeeklyScore)
	require.True(t, ok)
	assert.Equal(t, 101.0, high.Value)
}

func TestCareers(t *testing.T) {
	seasons := threeSeasonLineage()
	seasons[0].Matchups = append(seasons[0].Matchups, models.Matchup{
		Season: 2021, Week: 15, HomeUserID: "A", AwayUserID: "B", HomePoints: 90, AwayPoints: 140, IsPlayoff: true,
	})

	careers := Careers(seasons)
	require.Len(t, careers, 2)

	a := careers[0]
	assert.Equal(t, "A", a.UserID)
	assert.Equal(t, "Alice", a.Name)
	assert.Equal(t, 30, a.Wins)
	assert.Equal(t, 9, a.Losses)
	assert.Equal(t, 0, a.PlayoffWins)
	assert.Equal(t, 1, a.PlayoffLosses)
	assert.Equal(t, 2, a.Titles)
	assert.Equal(t, []int{2019, 2020, 2021}, a.Seasons)
	require.NotNil(t, a.BestSeason)
	assert.Equal(t, 2020, a.BestSeason.Season)
	assert.Equal(t, 13, a.BestSeason.Wins)
	require.NotNil(t, a.WorstSeason)
	assert.Equal(t, 2021, a.WorstSeason.Season)

	b := careers[1]
	assert.Equal(t, 1, b.PlayoffWins)
	assert.Equal(t, 1, b.Titles)
	assert.Equal(t, 2021, b.BestSeason.Season)
	assert.Equal(t, 2020, b.WorstSeason.Season)
}

func TestChampionshipsFallBackToStandings(t *testing.T) {
	// A goes 10-3, 13-0 and 7-6; no season has a bracket result
	records := map[int][2]int{2019: {10, 3}, 2020: {13, 0}, 2021: {7, 6}}
	seasons := threeSeasonLineage()
	for i := range seasons {
		s := &seasons[i]
		w := records[s.Season]
		s.ChampionUserID = ""
		s.Standings = []models.Standing{
			{UserID: "A", Rank: 1, Wins: w[0], Losses: w[1]},
			{UserID: "B", Rank: 2, Wins: w[1], Losses: w[0]},
		}
	}
	seasons[0].Complete = false

	champs, ok := Compute(seasons).Get(MostChampionships)
	require.True(t, ok)
	assert.Equal(t, []string{"A"}, champs.Holders)
	assert.Equal(t, 2.0, champs.Value, "an unfinished season crowns nobody")

	careers := Careers(seasons)
	require.Len(t, careers, 2)
	assert.Equal(t, "A", careers[0].UserID)
	assert.Equal(t, 2, careers[0].Titles)
	assert.Equal(t, 0, careers[1].Titles)

	seasons[0].Complete = true
	champs, _ = Compute(seasons).Get(MostChampionships)
	assert.Equal(t, 3.0, champs.Value)
}

func TestBracketChampionBeatsStandings(t *testing.T) {
	s := headToHeadSeason(2020, func(int) bool { return true }, "B")
	s.Standings = []models.Standing{{UserID: "A", Rank: 1}, {UserID: "B", Rank: 2}}
	assert.Equal(t, "B", s.Champion())

	s.ChampionUserID = ""
	assert.Equal(t, "A", s.Champion())
}
