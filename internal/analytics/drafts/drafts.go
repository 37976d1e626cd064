// Package drafts grades draft picks by the surplus of realized season value
// over what the slot was expected to return.
package drafts

import (
	"log/slog"
	"math"
	"sort"

	"github.com/omarshaarawi/legacybot/internal/analytics/grade"
	"github.com/omarshaarawi/legacybot/internal/models"
)

type Class string

const (
	ClassHit     Class = "hit"
	ClassBust    Class = "bust"
	ClassAverage Class = "average"
	ClassKeeper  Class = "keeper"
)

const (
	ReasonNoDraft    = "no draft data"
	ReasonIncomplete = "season not complete"
)

type Options struct {
	HitThreshold  float64
	BustThreshold float64
	Blend         grade.Blend
	Table         grade.Table
}

func DefaultOptions() Options {
	return Options{
		HitThreshold:  30,
		BustThreshold: -30,
		Blend:         grade.DefaultDraftBlend,
		Table:         grade.Default,
	}
}

func (o Options) classify(surplus float64) Class {
	switch {
	case surplus > o.HitThreshold:
		return ClassHit
	case surplus < o.BustThreshold:
		return ClassBust
	default:
		return ClassAverage
	}
}

// AnalyzedPick is one draft selection. Keepers carry no expectation or
// surplus.
type AnalyzedPick struct {
	Season     int      `json:"season"`
	LeagueID   string   `json:"league_id"`
	Round      int      `json:"round"`
	Slot       int      `json:"slot"`
	Overall    int      `json:"overall"`
	UserID     string   `json:"user_id"`
	Manager    string   `json:"manager"`
	PlayerID   string   `json:"player_id"`
	PlayerName string   `json:"player_name"`
	Position   string   `json:"position"`
	IsKeeper   bool     `json:"is_keeper"`
	Realized   float64  `json:"realized"`
	Expected   *float64 `json:"expected,omitempty"`
	Surplus    *float64 `json:"surplus,omitempty"`
	Class      Class    `json:"class"`
}

// Analyze scores one season's draft against the curve. Realized value is the
// player's fantasy points for that season in this league; a player nobody
// rostered scored nothing.
func Analyze(season models.LeagueSeason, curve SlotCurve, opts Options) []AnalyzedPick {
	out := make([]AnalyzedPick, 0, len(season.Draft))
	for _, p := range season.Draft {
		if p.UserID == "" || p.PlayerID == "" || p.Round <= 0 {
			slog.Warn("Skipping malformed draft pick", "league", season.LeagueID, "season", season.Season,
				"round", p.Round, "slot", p.Slot)
			continue
		}
		ap := AnalyzedPick{
			Season:     season.Season,
			LeagueID:   season.LeagueID,
			Round:      p.Round,
			Slot:       p.Slot,
			Overall:    p.Overall,
			UserID:     p.UserID,
			Manager:    season.DisplayName(p.UserID),
			PlayerID:   p.PlayerID,
			PlayerName: p.Name,
			Position:   p.Position,
			IsKeeper:   p.IsKeeper,
			Realized:   round2(season.PlayerPoints[p.PlayerID]),
			Class:      ClassKeeper,
		}
		if !p.IsKeeper {
			expected := round2(curve.Expected(p.Position, p.Round, p.Overall))
			surplus := round2(ap.Realized - expected)
			ap.Expected = &expected
			ap.Surplus = &surplus
			ap.Class = opts.classify(surplus)
		}
		out = append(out, ap)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].Overall < out[j].Overall
	})
	return out
}

type ManagerSummary struct {
	UserID       string        `json:"user_id"`
	Name         string        `json:"name"`
	Picks        int           `json:"picks"`
	Keepers      int           `json:"keepers"`
	Hits         int           `json:"hits"`
	Busts        int           `json:"busts"`
	Average      int           `json:"average"`
	HitRate      float64       `json:"hit_rate"`
	BustRate     float64       `json:"bust_rate"`
	AverageRate  float64       `json:"average_rate"`
	TotalSurplus float64       `json:"total_surplus"`
	Score        float64       `json:"score,omitempty"`
	Grade        *grade.Band   `json:"grade,omitempty"`
	Best         *AnalyzedPick `json:"best,omitempty"`
	Worst        *AnalyzedPick `json:"worst,omitempty"`
}

// Summarize aggregates picks per manager. Rates are over non-keeper picks
// only and sum to one whenever the manager made any.
func Summarize(picks []AnalyzedPick, opts Options) []ManagerSummary {
	accs := make(map[string]*ManagerSummary)
	for i := range picks {
		p := picks[i]
		s, ok := accs[p.UserID]
		if !ok {
			s = &ManagerSummary{UserID: p.UserID}
			accs[p.UserID] = s
		}
		s.Name = p.Manager
		if p.IsKeeper || p.Surplus == nil {
			s.Keepers++
			continue
		}
		s.Picks++
		s.TotalSurplus += *p.Surplus
		switch p.Class {
		case ClassHit:
			s.Hits++
		case ClassBust:
			s.Busts++
		default:
			s.Average++
		}
		if s.Best == nil || *p.Surplus > *s.Best.Surplus {
			s.Best = &p
		}
		if s.Worst == nil || *p.Surplus < *s.Worst.Surplus {
			s.Worst = &p
		}
	}

	out := make([]ManagerSummary, 0, len(accs))
	for _, s := range accs {
		s.TotalSurplus = round2(s.TotalSurplus)
		if s.Picks > 0 {
			n := float64(s.Picks)
			s.HitRate = float64(s.Hits) / n
			s.BustRate = float64(s.Busts) / n
			s.AverageRate = float64(s.Average) / n
			s.Score = round2(opts.Blend.Score(s.HitRate, s.TotalSurplus))
			band := opts.Table.Grade(s.Score)
			s.Grade = &band
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

type LeagueDrafts struct {
	LeagueID  string           `json:"league_id"`
	Season    int              `json:"season"`
	Available bool             `json:"available"`
	Reason    string           `json:"reason,omitempty"`
	Picks     []AnalyzedPick   `json:"picks,omitempty"`
	Managers  []ManagerSummary `json:"managers,omitempty"`
}

// ForLeague grades one season's draft. The curve should come from the whole
// lineage so a single season is not graded against itself alone.
func ForLeague(season models.LeagueSeason, curve SlotCurve, opts Options) LeagueDrafts {
	out := LeagueDrafts{LeagueID: season.LeagueID, Season: season.Season}
	switch {
	case len(season.Draft) == 0:
		out.Reason = ReasonNoDraft
		return out
	case !season.Complete:
		out.Reason = ReasonIncomplete
		return out
	}
	out.Available = true
	out.Picks = Analyze(season, curve, opts)
	out.Managers = Summarize(out.Picks, opts)
	return out
}

type LineageDrafts struct {
	Available bool             `json:"available"`
	Reason    string           `json:"reason,omitempty"`
	Seasons   []LeagueDrafts   `json:"seasons"`
	Managers  []ManagerSummary `json:"managers,omitempty"`
}

// ForLineage grades every completed draft in the lineage and unions the
// picks for career totals.
func ForLineage(seasons []models.LeagueSeason, opts Options) LineageDrafts {
	curve := BuildSlotCurve(seasons)
	ordered := make([]models.LeagueSeason, len(seasons))
	copy(ordered, seasons)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Season < ordered[j].Season })

	out := LineageDrafts{Seasons: []LeagueDrafts{}}
	var all []AnalyzedPick
	for _, s := range ordered {
		ld := ForLeague(s, curve, opts)
		out.Seasons = append(out.Seasons, ld)
		all = append(all, ld.Picks...)
	}
	if len(all) == 0 {
		out.Reason = ReasonNoDraft
		return out
	}
	out.Available = true
	out.Managers = Summarize(all, opts)
	return out
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
