package trades

import (
	"sort"
	"time"

	"github.com/omarshaarawi/legacybot/internal/analytics/grade"
	"github.com/omarshaarawi/legacybot/internal/models"
)

// NeutralWinRate stands in for the win rate of a manager with no decided
// trades when grading.
const NeutralWinRate = 0.5

type Grader struct {
	Blend grade.Blend
	Table grade.Table
}

func DefaultGrader() Grader {
	return Grader{Blend: grade.DefaultTradeBlend, Table: grade.Default}
}

func (g Grader) Score(winRate float64, decided int, net float64) float64 {
	if decided == 0 {
		winRate = NeutralWinRate
	}
	return g.Blend.Score(winRate, net)
}

// TradeRef points at one trade from a single manager's point of view.
type TradeRef struct {
	TradeID   string    `json:"trade_id"`
	LeagueID  string    `json:"league_id"`
	Season    int       `json:"season"`
	Week      int       `json:"week"`
	Timestamp time.Time `json:"timestamp"`
	Net       float64   `json:"net"`
	Outcome   Outcome   `json:"outcome"`
}

type ManagerSummary struct {
	UserID        string      `json:"user_id"`
	Name          string      `json:"name"`
	Trades        int         `json:"trades"`
	Wins          int         `json:"wins"`
	Losses        int         `json:"losses"`
	Pushes        int         `json:"pushes"`
	WinRate       float64     `json:"win_rate"`
	Valued        bool        `json:"valued"`
	NetValue      float64     `json:"net_value,omitempty"`
	Score         float64     `json:"score,omitempty"`
	Grade         *grade.Band `json:"grade,omitempty"`
	Partner       string      `json:"partner,omitempty"`
	PartnerName   string      `json:"partner_name,omitempty"`
	PartnerTrades int         `json:"partner_trades,omitempty"`
	Best          *TradeRef   `json:"best,omitempty"`
	Worst         *TradeRef   `json:"worst,omitempty"`
}

// Decided is the number of trades that were not a push.
func (m ManagerSummary) Decided() int {
	return m.Wins + m.Losses
}

type partnerTally struct {
	count int
	last  time.Time
}

type accumulator struct {
	summary  ManagerSummary
	partners map[string]*partnerTally
}

// Summarize aggregates trades per manager. With extremes set, each summary
// also carries the manager's best and worst trade by net value.
func Summarize(trades []AnalyzedTrade, g Grader, extremes bool) []ManagerSummary {
	valued := len(trades) > 0
	for _, t := range trades {
		valued = valued && t.Valued
	}

	accs := make(map[string]*accumulator)
	names := make(map[string]string)
	for _, t := range trades {
		for _, side := range t.Sides {
			names[side.UserID] = side.Name
			acc, ok := accs[side.UserID]
			if !ok {
				acc = &accumulator{
					summary:  ManagerSummary{UserID: side.UserID},
					partners: make(map[string]*partnerTally),
				}
				accs[side.UserID] = acc
			}
			s := &acc.summary
			s.Trades++
			switch side.Outcome {
			case OutcomeWon:
				s.Wins++
			case OutcomeLost:
				s.Losses++
			case OutcomePush:
				s.Pushes++
			}
			s.NetValue += side.Net

			for _, other := range t.Sides {
				if other.UserID == side.UserID {
					continue
				}
				p, ok := acc.partners[other.UserID]
				if !ok {
					p = &partnerTally{}
					acc.partners[other.UserID] = p
				}
				p.count++
				if t.Timestamp.After(p.last) {
					p.last = t.Timestamp
				}
			}

			if !extremes || !valued {
				continue
			}
			ref := TradeRef{
				TradeID: t.ID, LeagueID: t.LeagueID, Season: t.Season, Week: t.Week,
				Timestamp: t.Timestamp, Net: side.Net, Outcome: side.Outcome,
			}
			if s.Best == nil || ref.Net > s.Best.Net {
				best := ref
				s.Best = &best
			}
			if s.Worst == nil || ref.Net < s.Worst.Net {
				worst := ref
				s.Worst = &worst
			}
		}
	}

	out := make([]ManagerSummary, 0, len(accs))
	for userID, acc := range accs {
		s := acc.summary
		s.Name = names[userID]
		if s.Decided() > 0 {
			s.WinRate = float64(s.Wins) / float64(s.Decided())
		}
		s.Partner, s.PartnerTrades = favoritePartner(acc.partners)
		s.PartnerName = names[s.Partner]

		s.Valued = valued
		if valued {
			s.NetValue = round2(s.NetValue)
			s.Score = round2(g.Score(s.WinRate, s.Decided(), s.NetValue))
			band := g.Table.Grade(s.Score)
			s.Grade = &band
		} else {
			s.NetValue = 0
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Trades != out[j].Trades {
			return out[i].Trades > out[j].Trades
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// favoritePartner is the most frequent counterparty; ties go to whoever was
// traded with most recently.
func favoritePartner(partners map[string]*partnerTally) (string, int) {
	var (
		best  string
		tally partnerTally
	)
	for id, p := range partners {
		switch {
		case p.count > tally.count,
			p.count == tally.count && p.last.After(tally.last),
			p.count == tally.count && p.last.Equal(tally.last) && id < best:
			best, tally = id, *p
		}
	}
	return best, tally.count
}

type LeagueOverview struct {
	LeagueID   string           `json:"league_id"`
	Season     int              `json:"season"`
	Valued     bool             `json:"valued"`
	Trades     []AnalyzedTrade  `json:"trades"`
	Managers   []ManagerSummary `json:"managers"`
	MostActive string           `json:"most_active,omitempty"`
	Lopsided   *AnalyzedTrade   `json:"lopsided,omitempty"`
}

// ForLeague summarizes one league season's trades.
func ForLeague(season models.LeagueSeason, v AssetValuer, g Grader) LeagueOverview {
	analyzed := AnalyzeSeasons([]models.LeagueSeason{season}, v)
	out := LeagueOverview{
		LeagueID: season.LeagueID,
		Season:   season.Season,
		Valued:   usable(v),
		Trades:   analyzed,
		Managers: Summarize(analyzed, g, false),
	}

	most := 0
	for _, m := range out.Managers {
		if m.Trades > most || (m.Trades == most && m.UserID < out.MostActive) {
			most, out.MostActive = m.Trades, m.UserID
		}
	}

	if out.Valued {
		for i := range analyzed {
			t := analyzed[i]
			if t.Margin() == 0 {
				continue
			}
			if out.Lopsided == nil || t.Margin() > out.Lopsided.Margin() {
				out.Lopsided = &t
			}
		}
	}
	return out
}

// Career unions every trade across the lineage's seasons and reports each
// manager's aggregate along with their best and worst trade.
func Career(seasons []models.LeagueSeason, v AssetValuer, g Grader) []ManagerSummary {
	return Summarize(AnalyzeSeasons(seasons, v), g, true)
}
