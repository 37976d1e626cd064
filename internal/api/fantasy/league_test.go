package fantasy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/omarshaarawi/legacybot/internal/analytics/lineage"
	"github.com/omarshaarawi/legacybot/internal/api/fantasycalc"
	"github.com/omarshaarawi/legacybot/internal/api/sleeper"
	"github.com/omarshaarawi/legacybot/internal/config"
	"github.com/omarshaarawi/legacybot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sleeperRoutes = map[string]string{
	"/user/alice":                `{"user_id":"u1","username":"alice","display_name":"Alice"}`,
	"/user/u1/leagues/nfl/2022":  `[{"league_id":"L22","name":"Dynasty","season":"2022","status":"complete","total_rosters":2}]`,
	"/user/u1/leagues/nfl/2023":  `[{"league_id":"L23","name":"Dynasty","season":"2023","status":"complete","total_rosters":2,"previous_league_id":"L22"}]`,
	"/league/L23":                `{"league_id":"L23","name":"Dynasty","season":"2023","status":"complete","total_rosters":2,"roster_positions":["QB","RB","BN"],"settings":{"playoff_week_start":2,"last_scored_leg":2},"scoring_settings":{"rec":1}}`,
	"/league/L23/users":          `[{"user_id":"u1","display_name":"Alice"},{"user_id":"u2","display_name":"Bob"}]`,
	"/league/L23/rosters":        `[{"roster_id":1,"owner_id":"u1","players":["p1","p2"],"settings":{"wins":1,"fpts":120,"fpts_decimal":50}},{"roster_id":2,"owner_id":"u2","players":["p3"],"settings":{"losses":1,"fpts":90}}]`,
	"/league/L23/matchups/1":     `[{"roster_id":2,"matchup_id":1,"points":90,"players_points":{"p3":90},"starters":["p3","0"],"starters_points":[90,0]},{"roster_id":1,"matchup_id":1,"points":120.5,"players_points":{"p1":100,"p2":20.5},"starters":["p1","p2"],"starters_points":[100,20.5]}]`,
	"/league/L23/matchups/2":     `[{"roster_id":1,"matchup_id":1,"points":80,"players_points":{"p1":80}},{"roster_id":2,"matchup_id":1,"points":110,"players_points":{"p3":110}}]`,
	"/league/L23/winners_bracket": `[{"r":1,"m":1,"t1":1,"t2":2,"w":2,"l":1,"p":1}]`,
	"/league/L23/transactions/3": `[{"transaction_id":"t1","type":"trade","status":"complete","status_updated":1696000000000,"roster_ids":[1,2],"adds":{"p2":2},"drops":{"p2":1},"draft_picks":[{"season":"2024","round":1,"roster_id":2,"previous_owner_id":2,"owner_id":1}]},
		{"transaction_id":"w1","type":"waiver","status":"complete","roster_ids":[1]}]`,
	"/league/L23/drafts": `[{"draft_id":"D23","season":"2023","status":"complete","slot_to_roster_id":{"1":2,"2":1}}]`,
	"/draft/D23/picks":   `[{"player_id":"p3","roster_id":2,"round":1,"draft_slot":1,"pick_no":1,"metadata":{"first_name":"Pat","last_name":"Three","position":"RB"}},{"player_id":"p1","roster_id":1,"round":1,"draft_slot":2,"pick_no":2,"is_keeper":true,"metadata":{"first_name":"Pat","last_name":"One","position":"QB"}}]`,
}

func newTestAPI(t *testing.T) *API {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := sleeperRoutes[r.URL.Path]
		if !ok {
			// sleeper answers unknown weeks with an empty list
			if strings.Contains(r.URL.Path, "/transactions/") || strings.Contains(r.URL.Path, "/matchups/") {
				body = `[]`
			} else {
				http.NotFound(w, r)
				return
			}
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client := sleeper.NewClient(config.Sleeper{BaseURL: srv.URL, Timeout: time.Second, RatePerSec: 1000})
	calc := fantasycalc.NewClient(config.Valuation{BaseURL: srv.URL, Timeout: time.Second})
	return NewAPI(sleeper.NewAPI(client), calc)
}

func TestGetLeagues(t *testing.T) {
	api := newTestAPI(t)
	leagues, err := api.GetLeagues(context.Background(), "u1", 2022, 2023)
	require.NoError(t, err)
	require.Len(t, leagues, 2)
	assert.Equal(t, 2022, leagues[0].Season)
	assert.Equal(t, "L22", leagues[1].PreviousLeagueID)

	lineages := lineage.Resolve(leagues)
	require.Len(t, lineages, 1)
	assert.Equal(t, "L23", lineages[0].RootLeagueID)
}

func TestGetSeasonAssemblesEverything(t *testing.T) {
	api := newTestAPI(t)
	s, err := api.GetSeason(context.Background(), lineage.SeasonRef{LeagueID: "L23", Season: 2023},
		PartMatchups|PartTrades|PartDraft|PartRosters)
	require.NoError(t, err)

	assert.Equal(t, 2023, s.Season)
	assert.True(t, s.Complete)
	assert.Equal(t, 1.0, s.PPR)
	assert.Equal(t, map[int]string{1: "u1", 2: "u2"}, s.Managers)
	assert.Equal(t, "Bob", s.DisplayName("u2"))

	require.Len(t, s.Standings, 2)
	assert.Equal(t, "u1", s.Standings[0].UserID)
	assert.Equal(t, 120.5, s.Standings[0].PointsFor)

	require.Len(t, s.Matchups, 2)
	assert.Equal(t, models.Matchup{
		Season: 2023, Week: 1, HomeUserID: "u1", AwayUserID: "u2", HomePoints: 120.5, AwayPoints: 90,
		HomeLineup: []models.Start{{PlayerID: "p1", Points: 100}, {PlayerID: "p2", Points: 20.5}},
		AwayLineup: []models.Start{{PlayerID: "p3", Points: 90}, {}},
	}, s.Matchups[0])
	assert.Nil(t, s.Matchups[1].HomeLineup, "weeks without starters carry no lineup")
	assert.True(t, s.Matchups[1].IsPlayoff)
	assert.Equal(t, "u2", s.ChampionUserID)
	assert.Equal(t, 180.0, s.PlayerPoints["p1"])
	assert.Equal(t, 200.0, s.PlayerPoints["p3"])

	require.Len(t, s.Trades, 1, "waivers are not trades")
	trade := s.Trades[0]
	assert.Equal(t, 3, trade.Week)
	assert.Equal(t, []string{"u1", "u2"}, trade.UserIDs)
	assert.Equal(t, time.UnixMilli(1696000000000).UTC(), trade.Timestamp)
	require.Len(t, trade.Assets, 2)
	assert.Equal(t, models.Asset{Kind: models.AssetPlayer, From: "u1", To: "u2", PlayerID: "p2"}, trade.Assets[0])
	pick := trade.Assets[1]
	assert.Equal(t, models.AssetPick, pick.Kind)
	assert.Equal(t, "u2", pick.From)
	assert.Equal(t, "u1", pick.To)
	assert.Equal(t, 2024, pick.PickSeason)
	assert.Equal(t, 2, pick.PickRosterID)
	assert.Equal(t, models.PickPending, pick.PickStatus)

	require.Len(t, s.Draft, 2)
	assert.Equal(t, "Pat Three", s.Draft[0].Name)
	assert.Equal(t, "u2", s.Draft[0].UserID)
	assert.True(t, s.Draft[1].IsKeeper)
	assert.Equal(t, map[int]int{2: 1, 1: 2}, s.DraftSlots)

	require.Len(t, s.Rosters, 2)
	assert.Len(t, s.Rosters[0].Players, 2)
}

func TestGetSeasonOnlyFetchesRequestedParts(t *testing.T) {
	api := newTestAPI(t)
	s, err := api.GetSeason(context.Background(), lineage.SeasonRef{LeagueID: "L23", Season: 2023}, 0)
	require.NoError(t, err)
	assert.Empty(t, s.Matchups)
	assert.Empty(t, s.Trades)
	assert.Empty(t, s.Draft)
	assert.Len(t, s.Standings, 2)
}

func TestGetSeasonsPropagatesFailures(t *testing.T) {
	api := newTestAPI(t)
	_, err := api.GetSeasons(context.Background(), []lineage.SeasonRef{
		{LeagueID: "L23", Season: 2023},
		{LeagueID: "missing", Season: 2022},
	}, PartMatchups)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching season 2022")
}

func TestPairMatchupsSkipsIncompleteGroups(t *testing.T) {
	one, two := 1, 2
	s := models.LeagueSeason{Season: 2023, Managers: map[int]string{1: "a", 2: "b", 3: "c"}}
	got := pairMatchups(s, 4, []models.SleeperMatchup{
		{RosterID: 2, MatchupID: &one, Points: 10},
		{RosterID: 1, MatchupID: &one, Points: 20},
		{RosterID: 3, MatchupID: &two, Points: 30},
		{RosterID: 4, MatchupID: nil, Points: 40},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].HomeUserID)
	assert.Equal(t, 20.0, got[0].HomePoints)
	assert.False(t, got[0].IsPlayoff)
}

func TestLineupFallsBackToPlayerPoints(t *testing.T) {
	got := lineup(models.SleeperMatchup{
		Starters:      []string{"p1", "0", "p2"},
		PlayersPoints: map[string]float64{"p1": 12.5, "p2": 7},
	})
	assert.Equal(t, []models.Start{{PlayerID: "p1", Points: 12.5}, {}, {PlayerID: "p2", Points: 7}}, got)
	assert.Nil(t, lineup(models.SleeperMatchup{Points: 50}))
}
