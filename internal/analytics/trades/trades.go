// Package trades values trades at read time and grades managers on their
// trading record.
package trades

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/omarshaarawi/legacybot/internal/models"
)

// AssetValuer prices an asset as of a point in time. Implementations may
// answer differently between calls as picks resolve; results must not be
// cached by callers.
type AssetValuer interface {
	AssetValue(a models.Asset, at time.Time) float64
}

type availability interface {
	Available() bool
}

func usable(v AssetValuer) bool {
	if v == nil {
		return false
	}
	if a, ok := v.(availability); ok {
		return a.Available()
	}
	return true
}

type Outcome string

const (
	OutcomeWon     Outcome = "won"
	OutcomeLost    Outcome = "lost"
	OutcomePush    Outcome = "push"
	OutcomeUnknown Outcome = "unknown"
)

type ValuedAsset struct {
	models.Asset
	Value float64 `json:"value"`
}

type Side struct {
	UserID        string        `json:"user_id"`
	Name          string        `json:"name"`
	Received      []ValuedAsset `json:"received"`
	Gave          []ValuedAsset `json:"gave"`
	ReceivedValue float64       `json:"received_value"`
	GivenValue    float64       `json:"given_value"`
	Net           float64       `json:"net"`
	Outcome       Outcome       `json:"outcome"`
}

type AnalyzedTrade struct {
	ID        string    `json:"id"`
	LeagueID  string    `json:"league_id"`
	Season    int       `json:"season"`
	Week      int       `json:"week"`
	Timestamp time.Time `json:"timestamp"`
	Sides     []Side    `json:"sides"`
	Valued    bool      `json:"valued"`
}

func (t AnalyzedTrade) Side(userID string) (Side, bool) {
	for _, s := range t.Sides {
		if s.UserID == userID {
			return s, true
		}
	}
	return Side{}, false
}

// Margin is the winning side's net value, or zero for a push.
func (t AnalyzedTrade) Margin() float64 {
	m := 0.0
	for _, s := range t.Sides {
		m = math.Max(m, s.Net)
	}
	return m
}

// Analyze values every asset and settles the outcome for each side. The
// side with the highest net value wins; a tie at the top is a push for
// everyone. Assets that do not move between two participants are skipped.
func Analyze(t models.Trade, v AssetValuer, names map[string]string) AnalyzedTrade {
	out := AnalyzedTrade{
		ID:        t.ID,
		LeagueID:  t.LeagueID,
		Season:    t.Season,
		Week:      t.Week,
		Timestamp: t.Timestamp,
		Valued:    usable(v),
	}

	participants := t.UserIDs
	if len(participants) == 0 {
		participants = participantsOf(t.Assets)
	}
	index := make(map[string]int, len(participants))
	for _, id := range participants {
		if id == "" {
			continue
		}
		if _, dup := index[id]; dup {
			continue
		}
		index[id] = len(out.Sides)
		name := names[id]
		if name == "" {
			name = id
		}
		out.Sides = append(out.Sides, Side{UserID: id, Name: name, Received: []ValuedAsset{}, Gave: []ValuedAsset{}})
	}

	for _, a := range t.Assets {
		from, okFrom := index[a.From]
		to, okTo := index[a.To]
		if !okFrom || !okTo || from == to {
			slog.Warn("Skipping malformed trade asset", "trade", t.ID, "league", t.LeagueID,
				"from", a.From, "to", a.To, "kind", a.Kind)
			continue
		}
		va := ValuedAsset{Asset: a}
		if out.Valued {
			va.Value = v.AssetValue(a, t.Timestamp)
		}
		out.Sides[to].Received = append(out.Sides[to].Received, va)
		out.Sides[from].Gave = append(out.Sides[from].Gave, va)
	}

	if !out.Valued {
		for i := range out.Sides {
			out.Sides[i].Outcome = OutcomeUnknown
		}
		return out
	}

	balance(out.Sides)
	settle(out.Sides)
	return out
}

// balance totals each side. Nets are left unrounded and the last side
// takes the negated sum of the others, so a trade's nets add to exactly
// zero.
func balance(sides []Side) {
	others := 0.0
	for i := range sides {
		s := &sides[i]
		for _, a := range s.Received {
			s.ReceivedValue += a.Value
		}
		for _, a := range s.Gave {
			s.GivenValue += a.Value
		}
		if i == len(sides)-1 {
			s.Net = 0 - others
			break
		}
		s.Net = s.ReceivedValue - s.GivenValue
		others += s.Net
	}
}

// Nets closer than half a cent to the top are tied with it.
const pushTolerance = 0.005

func settle(sides []Side) {
	if len(sides) == 0 {
		return
	}
	top := math.Inf(-1)
	for _, s := range sides {
		top = math.Max(top, s.Net)
	}
	leaders := 0
	for _, s := range sides {
		if s.Net >= top-pushTolerance {
			leaders++
		}
	}
	for i := range sides {
		switch {
		case leaders > 1:
			sides[i].Outcome = OutcomePush
		case sides[i].Net >= top-pushTolerance:
			sides[i].Outcome = OutcomeWon
		default:
			sides[i].Outcome = OutcomeLost
		}
	}
}

func participantsOf(assets []models.Asset) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, a := range assets {
		for _, id := range []string{a.From, a.To} {
			if id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// AnalyzeSeasons analyzes every trade in the given seasons, oldest first.
func AnalyzeSeasons(seasons []models.LeagueSeason, v AssetValuer) []AnalyzedTrade {
	out := []AnalyzedTrade{}
	for _, s := range seasons {
		for _, t := range s.Trades {
			if t.LeagueID == "" {
				t.LeagueID = s.LeagueID
			}
			if t.Season == 0 {
				t.Season = s.Season
			}
			out = append(out, Analyze(t, v, s.DisplayNames))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
