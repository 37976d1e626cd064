package trades

import (
	"testing"
	"time"

	"github.com/omarshaarawi/legacybot/internal/analytics/grade"
	"github.com/omarshaarawi/legacybot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedValuer prices players by id and ignores time.
type fixedValuer map[string]float64

func (f fixedValuer) AssetValue(a models.Asset, _ time.Time) float64 {
	if a.Kind == models.AssetPick {
		return f["pick"]
	}
	return f[a.PlayerID]
}

type unavailable struct{ fixedValuer }

func (unavailable) Available() bool { return false }

func player(id, from, to string) models.Asset {
	return models.Asset{Kind: models.AssetPlayer, PlayerID: id, Name: id, From: from, To: to}
}

func pick(from, to string) models.Asset {
	return models.Asset{Kind: models.AssetPick, PickSeason: 2024, PickRound: 1, PickStatus: models.PickPending, From: from, To: to}
}

func ts(day int) time.Time {
	return time.Date(2023, time.October, day, 0, 0, 0, 0, time.UTC)
}

func TestAnalyzePush(t *testing.T) {
	trade := models.Trade{
		ID: "t1", UserIDs: []string{"A", "B"}, Timestamp: ts(1),
		Assets: []models.Asset{
			player("p20", "B", "A"),
			player("p15", "A", "B"),
			pick("A", "B"),
		},
	}
	v := fixedValuer{"p20": 20, "p15": 15, "pick": 5}

	got := Analyze(trade, v, map[string]string{"A": "Alice"})
	require.True(t, got.Valued)
	require.Len(t, got.Sides, 2)

	a, _ := got.Side("A")
	b, _ := got.Side("B")
	assert.Equal(t, "Alice", a.Name)
	assert.Equal(t, "B", b.Name)
	assert.Equal(t, 0.0, a.Net)
	assert.Equal(t, 0.0, b.Net)
	assert.Equal(t, OutcomePush, a.Outcome)
	assert.Equal(t, OutcomePush, b.Outcome)
	assert.Len(t, b.Received, 2)
	assert.Zero(t, got.Margin())
}

func TestAnalyzeNetValueIsZeroSum(t *testing.T) {
	v := fixedValuer{"p1": 1234.5, "p2": 987.25, "p3": 45.1, "p4": 3000, "pick": 812.33, "p5": 0.125, "p6": 0.125}
	tests := []struct {
		name   string
		trade  models.Trade
		winner string
	}{
		{
			name: "two party",
			trade: models.Trade{ID: "t", UserIDs: []string{"A", "B"}, Assets: []models.Asset{
				player("p1", "A", "B"), player("p2", "B", "A"), pick("B", "A"),
			}},
			winner: "A",
		},
		{
			name: "three party",
			trade: models.Trade{ID: "t", UserIDs: []string{"A", "B", "C"}, Assets: []models.Asset{
				player("p1", "A", "B"), player("p3", "B", "C"), player("p4", "C", "A"), pick("C", "B"),
			}},
			winner: "B",
		},
		{
			name: "fractional values below a cent",
			trade: models.Trade{ID: "t", UserIDs: []string{"A", "B", "C"}, Assets: []models.Asset{
				player("p5", "A", "C"), player("p6", "B", "C"),
			}},
			winner: "C",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.trade, v, nil)
			sum := 0.0
			for _, s := range got.Sides {
				sum += s.Net
				if s.UserID == tt.winner {
					assert.Equal(t, OutcomeWon, s.Outcome)
				} else {
					assert.Equal(t, OutcomeLost, s.Outcome)
				}
			}
			assert.Equal(t, 0.0, sum, "nets cancel exactly")
		})
	}
}

func TestAnalyzeKeepsFractionalNets(t *testing.T) {
	trade := models.Trade{ID: "t", UserIDs: []string{"A", "B", "C"}, Assets: []models.Asset{
		player("p1", "A", "C"), player("p2", "B", "C"),
	}}
	got := Analyze(trade, fixedValuer{"p1": 0.125, "p2": 0.125}, nil)
	a, _ := got.Side("A")
	b, _ := got.Side("B")
	c, _ := got.Side("C")
	assert.Equal(t, -0.125, a.Net)
	assert.Equal(t, -0.125, b.Net)
	assert.Equal(t, 0.25, c.Net)
	assert.Equal(t, OutcomeWon, c.Outcome)
}

func TestAnalyzeSkipsMalformedAssets(t *testing.T) {
	trade := models.Trade{ID: "t", UserIDs: []string{"A", "B"}, Assets: []models.Asset{
		player("p1", "A", "B"),
		player("p2", "A", "A"),
		player("p3", "", "B"),
		player("p4", "Z", "A"),
	}}
	got := Analyze(trade, fixedValuer{"p1": 10, "p2": 99, "p3": 99, "p4": 99}, nil)
	b, _ := got.Side("B")
	assert.Len(t, b.Received, 1)
	assert.Equal(t, 10.0, b.Net)
}

func TestAnalyzeDerivesParticipants(t *testing.T) {
	trade := models.Trade{ID: "t", Assets: []models.Asset{player("p1", "B", "A")}}
	got := Analyze(trade, fixedValuer{"p1": 10}, nil)
	require.Len(t, got.Sides, 2)
	assert.Equal(t, "A", got.Sides[0].UserID)
}

func TestAnalyzeWithoutValuation(t *testing.T) {
	trade := models.Trade{ID: "t", UserIDs: []string{"A", "B"}, Assets: []models.Asset{player("p1", "A", "B")}}
	for _, v := range []AssetValuer{nil, unavailable{fixedValuer{"p1": 10}}} {
		got := Analyze(trade, v, nil)
		assert.False(t, got.Valued)
		for _, s := range got.Sides {
			assert.Equal(t, OutcomeUnknown, s.Outcome)
			assert.Zero(t, s.Net)
		}
	}
}

func leagueWithTrades() models.LeagueSeason {
	return models.LeagueSeason{
		LeagueID:     "L1",
		Season:       2023,
		DisplayNames: map[string]string{"A": "Alice", "B": "Bob", "C": "Cara"},
		Trades: []models.Trade{
			{ID: "t1", Timestamp: ts(1), UserIDs: []string{"A", "B"}, Assets: []models.Asset{player("big", "B", "A"), player("small", "A", "B")}},
			{ID: "t2", Timestamp: ts(2), UserIDs: []string{"A", "C"}, Assets: []models.Asset{player("mid", "A", "C"), player("small", "C", "A")}},
			{ID: "t3", Timestamp: ts(3), UserIDs: []string{"A", "C"}, Assets: []models.Asset{player("small", "A", "C"), player("small2", "C", "A")}},
			{ID: "t4", Timestamp: ts(4), UserIDs: []string{"A", "B"}, Assets: []models.Asset{player("mid", "B", "A"), player("small", "A", "B")}},
		},
	}
}

var leagueValues = fixedValuer{"big": 5000, "mid": 2000, "small": 500, "small2": 500}

func TestSummarize(t *testing.T) {
	overview := ForLeague(leagueWithTrades(), leagueValues, DefaultGrader())
	require.True(t, overview.Valued)
	require.Len(t, overview.Trades, 4)
	assert.Equal(t, "A", overview.MostActive)
	require.NotNil(t, overview.Lopsided)
	assert.Equal(t, "t1", overview.Lopsided.ID)

	var a ManagerSummary
	for _, m := range overview.Managers {
		if m.UserID == "A" {
			a = m
		}
	}
	assert.Equal(t, "Alice", a.Name)
	assert.Equal(t, 4, a.Trades)
	assert.Equal(t, 2, a.Wins)
	assert.Equal(t, 1, a.Losses)
	assert.Equal(t, 1, a.Pushes)
	assert.InDelta(t, 2.0/3.0, a.WinRate, 1e-9)
	assert.Equal(t, 4500.0+(-1500)+0+1500, a.NetValue)
	require.NotNil(t, a.Grade)
	assert.Nil(t, a.Best, "league summaries carry no extremes")

	// two trades each with B and C; the most recent partner wins the tie
	assert.Equal(t, "B", a.Partner)
	assert.Equal(t, "Bob", a.PartnerName)
	assert.Equal(t, 2, a.PartnerTrades)
}

func TestCareerBestAndWorst(t *testing.T) {
	second := leagueWithTrades()
	second.LeagueID, second.Season = "L2", 2024
	second.Trades = []models.Trade{
		{ID: "t5", Timestamp: ts(20).AddDate(1, 0, 0), UserIDs: []string{"A", "B"}, Assets: []models.Asset{player("big", "A", "B")}},
	}

	careers := Career([]models.LeagueSeason{leagueWithTrades(), second}, leagueValues, DefaultGrader())
	var a ManagerSummary
	for _, m := range careers {
		if m.UserID == "A" {
			a = m
		}
	}
	assert.Equal(t, 5, a.Trades)
	require.NotNil(t, a.Best)
	require.NotNil(t, a.Worst)
	assert.Equal(t, "t1", a.Best.TradeID)
	assert.Equal(t, 4500.0, a.Best.Net)
	assert.Equal(t, "t5", a.Worst.TradeID)
	assert.Equal(t, -5000.0, a.Worst.Net)
	assert.Equal(t, "L2", a.Worst.LeagueID)
}

func TestSummarizeWithoutValuation(t *testing.T) {
	overview := ForLeague(leagueWithTrades(), nil, DefaultGrader())
	assert.False(t, overview.Valued)
	assert.Nil(t, overview.Lopsided)
	for _, m := range overview.Managers {
		assert.False(t, m.Valued)
		assert.Nil(t, m.Grade)
		assert.Zero(t, m.NetValue)
		assert.Positive(t, m.Trades)
	}
}

func TestNoDecidedTradesGradesNeutral(t *testing.T) {
	g := DefaultGrader()
	assert.Equal(t, g.Score(0.5, 1, 0), g.Score(0, 0, 0))
	assert.InDelta(t, 50.0, g.Score(0, 0, 0), 1e-9)
}

func TestGradeIsMonotonic(t *testing.T) {
	g := Grader{Blend: grade.DefaultTradeBlend, Table: grade.Default}
	nets := []float64{-20000, -5000, -100, 0, 100, 5000, 20000}
	rates := []float64{0, 0.25, 0.5, 0.75, 1}
	for _, net := range nets {
		prev := -1
		for _, r := range rates {
			rank := len(g.Table) - g.Table.Rank(g.Score(r, 1, net))
			assert.GreaterOrEqual(t, rank, prev, "rate %.2f net %.0f", r, net)
			prev = rank
		}
	}
	for _, r := range rates {
		prev := -1
		for _, net := range nets {
			rank := len(g.Table) - g.Table.Rank(g.Score(r, 1, net))
			assert.GreaterOrEqual(t, rank, prev, "rate %.2f net %.0f", r, net)
			prev = rank
		}
	}
}

func TestResolvePicks(t *testing.T) {
	traded := models.Asset{Kind: models.AssetPick, From: "A", To: "B", PickSeason: 2024, PickRound: 1, PickRosterID: 3, PickStatus: models.PickPending}
	future := traded
	future.PickSeason = 2026

	seasons := []models.LeagueSeason{
		{
			Season: 2023,
			Trades: []models.Trade{{ID: "t1", Assets: []models.Asset{traded, future, player("p1", "B", "A")}}},
		},
		{
			Season:     2024,
			DraftSlots: map[int]int{3: 7},
			Draft: []models.DraftPick{
				{Round: 1, Slot: 6, PlayerID: "wrong"},
				{Round: 1, Slot: 7, PlayerID: "rookie", Name: "Rookie", Position: "WR"},
			},
		},
	}

	got := ResolvePicks(seasons)
	assets := got[0].Trades[0].Assets
	require.Len(t, assets, 3)

	resolved := assets[0]
	assert.Equal(t, models.PickResolved, resolved.PickStatus)
	assert.Equal(t, "rookie", resolved.PlayerID)
	assert.Equal(t, "WR", resolved.Position)
	require.NotNil(t, resolved.PickSlot)
	assert.Equal(t, 7, *resolved.PickSlot)

	assert.Equal(t, models.PickPending, assets[1].PickStatus)
	assert.Nil(t, assets[1].PickSlot)
	assert.Equal(t, "p1", assets[2].PlayerID)

	// the input is left alone
	assert.Equal(t, models.PickPending, seasons[0].Trades[0].Assets[0].PickStatus)
}
