package trajectory

import (
	"math"
	"sort"
	"strings"

	"github.com/omarshaarawi/legacybot/internal/models"
)

// Horizon is how many seasons ahead an outlook projects.
const Horizon = 3

type Label string

const (
	LabelContending Label = "contending"
	LabelAgingCore  Label = "aging core"
	LabelRising     Label = "rising"
	LabelRebuilding Label = "rebuilding"
	LabelMiddling   Label = "middling"
)

const (
	ReasonNoRoster    = "no roster"
	ReasonMissingAge  = "missing player age"
	ReasonNoValuation = "no player values"
)

// ageCurve describes how a position's value moves per year of age: it grows
// until the peak window, holds through it and declines after.
type ageCurve struct {
	peakStart float64
	peakEnd   float64
	growth    float64
	decline   float64
}

var ageCurves = map[string]ageCurve{
	"QB": {peakStart: 26, peakEnd: 32, growth: 0.06, decline: 0.12},
	"RB": {peakStart: 22, peakEnd: 25, growth: 0.08, decline: 0.22},
	"WR": {peakStart: 23, peakEnd: 28, growth: 0.08, decline: 0.14},
	"TE": {peakStart: 24, peakEnd: 29, growth: 0.10, decline: 0.14},
}

func (c ageCurve) factor(age float64) float64 {
	switch {
	case age < c.peakStart:
		return 1 + c.growth
	case age > c.peakEnd:
		return 1 - c.decline
	default:
		return 1
	}
}

// project returns the player's value the given number of years out.
func project(position string, age, value float64, years int) float64 {
	c, ok := ageCurves[position]
	if !ok {
		return value
	}
	for y := 0; y < years; y++ {
		value *= c.factor(age + float64(y))
	}
	return value
}

// Lineup is the number of starters a team fields per slot type.
type Lineup struct {
	Slots     map[string]int
	Flex      int
	SuperFlex int
}

var flexEligible = []string{"RB", "WR", "TE"}

// LineupFromPositions reads a league's roster_positions. Bench, IR and
// taxi slots are ignored, and so are kickers and defenses since they carry
// no dynasty value.
func LineupFromPositions(positions []string) Lineup {
	l := Lineup{Slots: make(map[string]int)}
	for _, p := range positions {
		switch strings.ToUpper(p) {
		case "QB", "RB", "WR", "TE":
			l.Slots[strings.ToUpper(p)]++
		case "FLEX", "WRRB_FLEX", "REC_FLEX":
			l.Flex++
		case "SUPER_FLEX":
			l.SuperFlex++
		}
	}
	if len(l.Slots) == 0 && l.Flex == 0 && l.SuperFlex == 0 {
		return Lineup{Slots: map[string]int{"QB": 1, "RB": 2, "WR": 2, "TE": 1}, Flex: 2}
	}
	return l
}

// strength fills the lineup greedily with the best available values:
// dedicated slots first, then flex, then superflex.
func (l Lineup) strength(values map[string][]float64) float64 {
	pool := make(map[string][]float64, len(values))
	for pos, vs := range values {
		sorted := append([]float64(nil), vs...)
		sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
		pool[pos] = sorted
	}
	total := 0.0
	take := func(eligible []string) {
		best := ""
		for _, pos := range eligible {
			if len(pool[pos]) == 0 {
				continue
			}
			if best == "" || pool[pos][0] > pool[best][0] {
				best = pos
			}
		}
		if best == "" {
			return
		}
		total += pool[best][0]
		pool[best] = pool[best][1:]
	}

	positions := make([]string, 0, len(l.Slots))
	for pos := range l.Slots {
		positions = append(positions, pos)
	}
	sort.Strings(positions)
	for _, pos := range positions {
		for i := 0; i < l.Slots[pos]; i++ {
			take([]string{pos})
		}
	}
	for i := 0; i < l.Flex; i++ {
		take(flexEligible)
	}
	for i := 0; i < l.SuperFlex; i++ {
		take([]string{"QB", "RB", "WR", "TE"})
	}
	return total
}

type Projection struct {
	Season   int     `json:"season"`
	Strength float64 `json:"strength"`
	Rank     int     `json:"rank"`
}

type Outlook struct {
	UserID      string         `json:"user_id"`
	Available   bool           `json:"available"`
	Reason      string         `json:"reason,omitempty"`
	Label       Label          `json:"label,omitempty"`
	Teams       int            `json:"teams,omitempty"`
	Current     *Projection    `json:"current,omitempty"`
	Projections []Projection   `json:"projections,omitempty"`
	AverageAge  float64        `json:"average_age,omitempty"`
	Depth       map[string]int `json:"depth,omitempty"`
	// Unranked lists teams left out of the ranking because a valued player
	// has no known age.
	Unranked    []string       `json:"unranked,omitempty"`
}

// Project classifies a manager's contention window from the league's
// current rosters. Only valued players at skill positions count. The
// manager's own valued players must all have a known age or the outlook
// declines; other teams with a missing age are ranked without rather than
// guessed at.
func Project(rosters []models.Roster, userID string, season int, lineup Lineup) Outlook {
	out := Outlook{UserID: userID}

	var mine *models.Roster
	for i := range rosters {
		if rosters[i].UserID == userID {
			mine = &rosters[i]
		}
	}
	if mine == nil || len(mine.Players) == 0 {
		out.Reason = ReasonNoRoster
		return out
	}

	if missingAge(*mine) {
		out.Reason = ReasonMissingAge
		return out
	}
	ranked := make([]models.Roster, 0, len(rosters))
	anyValue := false
	for _, r := range rosters {
		if r.UserID != userID && missingAge(r) {
			out.Unranked = append(out.Unranked, r.UserID)
			continue
		}
		ranked = append(ranked, r)
		for _, p := range r.Players {
			anyValue = anyValue || counts(p)
		}
	}
	sort.Strings(out.Unranked)
	if !anyValue {
		out.Reason = ReasonNoValuation
		return out
	}

	// strengths[year][team]
	strengths := make([]map[string]float64, Horizon+1)
	for y := 0; y <= Horizon; y++ {
		strengths[y] = make(map[string]float64, len(ranked))
		for _, r := range ranked {
			values := make(map[string][]float64)
			for _, p := range r.Players {
				if !counts(p) {
					continue
				}
				values[p.Position] = append(values[p.Position], project(p.Position, *p.Age, p.Value, y))
			}
			strengths[y][r.UserID] = lineup.strength(values)
		}
	}

	out.Available = true
	out.Teams = len(ranked)
	for y := 0; y <= Horizon; y++ {
		p := Projection{
			Season:   season + y,
			Strength: math.Round(strengths[y][userID]),
			Rank:     rank(strengths[y], userID),
		}
		if y == 0 {
			out.Current = &p
			continue
		}
		out.Projections = append(out.Projections, p)
	}
	out.Label = classify(out.Projections[0].Rank, out.Projections[Horizon-1].Rank, out.Teams)

	out.Depth = make(map[string]int)
	ageSum, weight := 0.0, 0.0
	for _, p := range mine.Players {
		if !counts(p) {
			continue
		}
		out.Depth[p.Position]++
		ageSum += *p.Age * p.Value
		weight += p.Value
	}
	if weight > 0 {
		out.AverageAge = math.Round(ageSum/weight*10) / 10
	}
	return out
}

func missingAge(r models.Roster) bool {
	for _, p := range r.Players {
		if counts(p) && p.Age == nil {
			return true
		}
	}
	return false
}

func counts(p models.RosterPlayer) bool {
	_, skill := ageCurves[p.Position]
	return skill && p.Value > 0
}

func rank(strengths map[string]float64, userID string) int {
	mine := strengths[userID]
	r := 1
	for id, s := range strengths {
		if id != userID && s > mine {
			r++
		}
	}
	return r
}

// classify compares the next season against the end of the horizon. Top
// third of the league is in the window, bottom third is out of it.
func classify(nearRank, farRank, teams int) Label {
	third := int(math.Ceil(float64(teams) / 3))
	top := func(r int) bool { return r <= third }
	bottom := func(r int) bool { return r > teams-third }
	switch {
	case top(nearRank) && top(farRank):
		return LabelContending
	case top(nearRank):
		return LabelAgingCore
	case top(farRank):
		return LabelRising
	case bottom(nearRank) && bottom(farRank):
		return LabelRebuilding
	default:
		return LabelMiddling
	}
}
