// Package trajectory tracks a franchise's accumulated value above a
// replacement-level roster and projects its contention window.
package trajectory

import (
	"errors"
	"log/slog"
	"math"
	"sort"

	"github.com/omarshaarawi/legacybot/internal/models"
)

const ReasonNoCompletedSeason = "no completed season with lineup data"

// ReplacementQuantile puts replacement level at this quantile of every
// filled start in a season, roughly what the waiver wire offers.
const ReplacementQuantile = 0.2

// Channel is how a started player joined the manager's roster.
type Channel string

const (
	ChannelDraft     Channel = "draft"
	ChannelTrade     Channel = "trade"
	ChannelFreeAgent Channel = "free_agent"
)

// SeasonPoint is one season of the series, in wins. Each regular-season
// start earns its points above replacement level, converted to wins with
// the season's points per win, and is credited to the channel the player
// was acquired through. Empty slots and waiver pickups count as free agent.
type SeasonPoint struct {
	Season     int     `json:"season"`
	Weeks      int     `json:"weeks"`
	Draft      float64 `json:"draft"`
	Trade      float64 `json:"trade"`
	FreeAgent  float64 `json:"free_agent"`
	WAR        float64 `json:"war"`
	Cumulative float64 `json:"cumulative"`
}

type Trajectory struct {
	UserID    string        `json:"user_id"`
	Name      string        `json:"name"`
	Available bool          `json:"available"`
	Reason    string        `json:"reason,omitempty"`
	Points    []SeasonPoint `json:"points,omitempty"`
	Total     float64       `json:"total"`
}

// ForLineage builds a trajectory for every manager who played a completed
// season, best total first.
func ForLineage(seasons []models.LeagueSeason) []Trajectory {
	perSeason, names := warBySeason(seasons)
	if len(perSeason) == 0 {
		return []Trajectory{}
	}

	users := make(map[string]bool)
	for _, s := range perSeason {
		for id := range s.wins {
			users[id] = true
		}
	}
	out := make([]Trajectory, 0, len(users))
	for id := range users {
		out = append(out, build(id, names[id], perSeason))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// ForManager is the series for a single manager. A manager who never played
// a completed season has no trajectory.
func ForManager(seasons []models.LeagueSeason, userID string) Trajectory {
	perSeason, names := warBySeason(seasons)
	t := build(userID, names[userID], perSeason)
	if !t.Available {
		t.Reason = ReasonNoCompletedSeason
	}
	return t
}

func build(userID, name string, perSeason []seasonWAR) Trajectory {
	if name == "" {
		name = userID
	}
	t := Trajectory{UserID: userID, Name: name}
	running := 0.0
	for _, s := range perSeason {
		ch, ok := s.wins[userID]
		if !ok {
			continue
		}
		war := ch[ChannelDraft] + ch[ChannelTrade] + ch[ChannelFreeAgent]
		running += war
		t.Points = append(t.Points, SeasonPoint{
			Season:     s.season,
			Weeks:      s.weeks[userID],
			Draft:      round2(ch[ChannelDraft]),
			Trade:      round2(ch[ChannelTrade]),
			FreeAgent:  round2(ch[ChannelFreeAgent]),
			WAR:        round2(war),
			Cumulative: round2(running),
		})
	}
	t.Available = len(t.Points) > 0
	t.Total = round2(running)
	return t
}

type seasonWAR struct {
	season       int
	replacement  float64
	pointsPerWin float64
	wins         map[string]map[Channel]float64
	weeks        map[string]int
}

func (sw *seasonWAR) credit(userID string, lineup []models.Start, acquired ledger) {
	ch, ok := sw.wins[userID]
	if !ok {
		ch = make(map[Channel]float64)
		sw.wins[userID] = ch
	}
	for _, st := range lineup {
		c := ChannelFreeAgent
		if st.PlayerID != "" {
			c = acquired.channel(userID, st.PlayerID)
		}
		ch[c] += (st.Points - sw.replacement) / sw.pointsPerWin
	}
	sw.weeks[userID]++
}

// warBySeason replays every season in order to follow how players changed
// hands, and values the completed ones. It also returns each manager's
// latest display name.
func warBySeason(seasons []models.LeagueSeason) ([]seasonWAR, map[string]string) {
	ordered := append([]models.LeagueSeason(nil), seasons...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Season < ordered[j].Season })

	names := make(map[string]string)
	acquired := make(ledger)
	var out []seasonWAR
	for _, s := range ordered {
		for id, name := range s.DisplayNames {
			names[id] = name
		}
		acquired.draft(s.Draft)
		if sw, ok := seasonValue(s, acquired); ok {
			out = append(out, sw)
		}
	}
	return out, names
}

// seasonValue credits a completed season's starts. Trades take effect from
// the week they were processed. All of the season's trades are applied to
// the ledger before it returns, valued or not.
func seasonValue(s models.LeagueSeason, acquired ledger) (seasonWAR, bool) {
	trades := append([]models.Trade(nil), s.Trades...)
	sort.SliceStable(trades, func(i, j int) bool {
		if trades[i].Week != trades[j].Week {
			return trades[i].Week < trades[j].Week
		}
		return trades[i].Timestamp.Before(trades[j].Timestamp)
	})
	next := 0
	applyThrough := func(week int) {
		for next < len(trades) && trades[next].Week <= week {
			acquired.trade(trades[next])
			next++
		}
	}
	defer applyThrough(math.MaxInt)

	if !s.Complete {
		return seasonWAR{}, false
	}

	byWeek := make(map[int][]models.Matchup)
	var starts, scores []float64
	for _, m := range s.Matchups {
		if m.IsPlayoff {
			continue
		}
		if err := s.CheckMatchup(m); err != nil {
			if !errors.Is(err, models.ErrUnscored) {
				slog.Warn("Skipping matchup in trajectory", "league_id", s.LeagueID, "season", s.Season,
					"week", m.Week, "home", m.HomeUserID, "away", m.AwayUserID, "reason", err)
			}
			continue
		}
		if len(m.HomeLineup) == 0 || len(m.AwayLineup) == 0 {
			continue
		}
		byWeek[m.Week] = append(byWeek[m.Week], m)
		scores = append(scores, m.HomePoints, m.AwayPoints)
		for _, lineup := range [][]models.Start{m.HomeLineup, m.AwayLineup} {
			for _, st := range lineup {
				if st.PlayerID != "" {
					starts = append(starts, st.Points)
				}
			}
		}
	}
	ppw := pointsPerWin(scores)
	if len(starts) == 0 || ppw == 0 {
		return seasonWAR{}, false
	}

	weeks := make([]int, 0, len(byWeek))
	for w := range byWeek {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	sw := seasonWAR{
		season:       s.Season,
		replacement:  replacementLevel(starts),
		pointsPerWin: ppw,
		wins:         make(map[string]map[Channel]float64),
		weeks:        make(map[string]int),
	}
	for _, week := range weeks {
		applyThrough(week)
		for _, m := range byWeek[week] {
			sw.credit(m.HomeUserID, m.HomeLineup, acquired)
			sw.credit(m.AwayUserID, m.AwayLineup, acquired)
		}
	}
	return sw, true
}

func replacementLevel(starts []float64) float64 {
	sorted := append([]float64(nil), starts...)
	sort.Float64s(sorted)
	return sorted[int(ReplacementQuantile*float64(len(sorted)-1))]
}

// pointsPerWin is how many points of weekly margin buy one win. With team
// scores spread sigma around the league mean, one extra point wins an even
// matchup about 1/(2*sigma*sqrt(pi)) more often.
func pointsPerWin(scores []float64) float64 {
	if len(scores) < 2 {
		return 0
	}
	mean := 0.0
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))
	variance := 0.0
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	sigma := math.Sqrt(variance / float64(len(scores)))
	return 2 * sigma * math.Sqrt(math.Pi)
}

type acquisition struct {
	userID  string
	channel Channel
}

// ledger remembers how each player last joined a roster, across seasons.
type ledger map[string]acquisition

func (l ledger) draft(picks []models.DraftPick) {
	for _, p := range picks {
		if p.PlayerID == "" || p.UserID == "" {
			continue
		}
		if prev, ok := l[p.PlayerID]; ok && p.IsKeeper && prev.userID == p.UserID {
			continue
		}
		l[p.PlayerID] = acquisition{userID: p.UserID, channel: ChannelDraft}
	}
}

func (l ledger) trade(t models.Trade) {
	for _, a := range t.Assets {
		if a.Kind != models.AssetPlayer || a.PlayerID == "" || a.To == "" {
			continue
		}
		l[a.PlayerID] = acquisition{userID: a.To, channel: ChannelTrade}
	}
}

// channel falls back to free agent for anyone the manager did not draft or
// trade for, which covers waiver claims.
func (l ledger) channel(userID, playerID string) Channel {
	if a, ok := l[playerID]; ok && a.userID == userID {
		return a.channel
	}
	return ChannelFreeAgent
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
