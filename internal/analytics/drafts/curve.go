package drafts

import (
	"math"

	"github.com/omarshaarawi/legacybot/internal/models"
)

// MinSamples is the number of observed picks a (position, round) cell needs
// before its mean replaces the baseline.
const MinSamples = 3

const (
	defaultTopValue      = 200.0
	defaultDecayPerRound = 0.22
	defaultTeams         = 12
)

type cell struct {
	position string
	round    int
}

// SlotCurve is the expected season value of a pick at a given slot for a
// given position.
type SlotCurve struct {
	Teams         int
	TopValue      float64
	DecayPerRound float64
	observed      map[cell]float64
}

// BuildSlotCurve learns the curve from the lineage's completed seasons.
// Keepers never contribute since their slot says nothing about the market.
func BuildSlotCurve(seasons []models.LeagueSeason) SlotCurve {
	curve := SlotCurve{
		Teams:         defaultTeams,
		TopValue:      defaultTopValue,
		DecayPerRound: defaultDecayPerRound,
		observed:      make(map[cell]float64),
	}

	type acc struct {
		sum float64
		n   int
	}
	cells := make(map[cell]*acc)
	firstRound := acc{}
	teams := 0
	for _, s := range seasons {
		if !s.Complete || len(s.Draft) == 0 {
			continue
		}
		if s.TotalRosters > teams {
			teams = s.TotalRosters
		}
		for _, p := range s.Draft {
			if p.IsKeeper || p.UserID == "" || p.PlayerID == "" || p.Round <= 0 {
				continue
			}
			v := s.PlayerPoints[p.PlayerID]
			k := cell{position: p.Position, round: p.Round}
			a, ok := cells[k]
			if !ok {
				a = &acc{}
				cells[k] = a
			}
			a.sum += v
			a.n++
			if p.Round == 1 {
				firstRound.sum += v
				firstRound.n++
			}
		}
	}

	if teams > 0 {
		curve.Teams = teams
	}
	if firstRound.n >= MinSamples {
		curve.TopValue = firstRound.sum / float64(firstRound.n)
	}
	for k, a := range cells {
		if a.n >= MinSamples {
			curve.observed[k] = a.sum / float64(a.n)
		}
	}
	return curve
}

// Expected prefers the observed mean for the position and round and falls
// back to an exponential baseline over overall pick, normalized to league
// size so a 10-team and a 14-team draft decay at the same per-round rate.
func (c SlotCurve) Expected(position string, round, overall int) float64 {
	if v, ok := c.observed[cell{position: position, round: round}]; ok {
		return v
	}
	teams := c.Teams
	if teams <= 0 {
		teams = defaultTeams
	}
	if overall <= 0 {
		overall = (round-1)*teams + (teams+1)/2
	}
	roundsElapsed := float64(overall-1) / float64(teams)
	// TopValue is the mean of the first round, so anchor it at mid-round.
	mid := float64(teams-1) / 2 / float64(teams)
	return c.TopValue * math.Exp(-c.DecayPerRound*(roundsElapsed-mid))
}

// Observed reports whether the curve has enough history for a cell.
func (c SlotCurve) Observed(position string, round int) bool {
	_, ok := c.observed[cell{position: position, round: round}]
	return ok
}
