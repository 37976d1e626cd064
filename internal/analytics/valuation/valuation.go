// Package valuation answers "what was this asset worth" questions from
// time-indexed player value snapshots and an expected-value curve for draft
// picks.
package valuation

import (
	"math"
	"sort"
	"time"

	"github.com/omarshaarawi/legacybot/internal/models"
)

// Table is an immutable, time-ordered set of value snapshots for a single
// valuation format.
type Table struct {
	snapshots []models.ValueSnapshot
}

func NewTable(snapshots ...models.ValueSnapshot) *Table {
	s := make([]models.ValueSnapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		if len(snap.Values) == 0 {
			continue
		}
		s = append(s, snap)
	}
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].TakenAt.Before(s[j].TakenAt)
	})
	return &Table{snapshots: s}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.snapshots)
}

// At returns the snapshot nearest at or before the given time. When every
// snapshot is newer, the earliest one is the best available estimate.
func (t *Table) At(at time.Time) (models.ValueSnapshot, bool) {
	if t.Len() == 0 {
		return models.ValueSnapshot{}, false
	}
	i := sort.Search(len(t.snapshots), func(i int) bool {
		return t.snapshots[i].TakenAt.After(at)
	})
	if i == 0 {
		return t.snapshots[0], true
	}
	return t.snapshots[i-1], true
}

// PlayerValue looks a player up in the snapshot in effect at the given time.
// Players the provider does not list are worth zero.
func (t *Table) PlayerValue(playerID string, at time.Time) (float64, bool) {
	snap, ok := t.At(at)
	if !ok {
		return 0, false
	}
	v, ok := snap.Values[playerID]
	return v.Value, ok
}

func (t *Table) Latest(playerID string) (models.PlayerValue, bool) {
	if t.Len() == 0 {
		return models.PlayerValue{}, false
	}
	v, ok := t.snapshots[len(t.snapshots)-1].Values[playerID]
	return v, ok
}

// PickCurve is the expected value of an unresolved draft pick, keyed by
// season, round and slot.
type PickCurve struct {
	Teams          int
	FirstOverall   float64
	DecayPerRound  float64
	FutureDiscount float64
	Floor          float64
}

func DefaultPickCurve(teams int) PickCurve {
	if teams <= 0 {
		teams = 12
	}
	return PickCurve{
		Teams:          teams,
		FirstOverall:   6500,
		DecayPerRound:  1.25,
		FutureDiscount: 0.85,
		Floor:          50,
	}
}

// Expected values a pick as of the given time. An unknown slot is valued at
// the middle of its round; picks in future seasons are discounted per year.
func (c PickCurve) Expected(season, round int, slot *int, asOf time.Time) float64 {
	if round <= 0 {
		return c.Floor
	}
	teams := c.Teams
	if teams <= 0 {
		teams = 12
	}
	s := float64(teams+1) / 2
	if slot != nil && *slot > 0 {
		s = float64(*slot)
	}

	overall := float64(round-1)*float64(teams) + s
	roundsElapsed := (overall - 1) / float64(teams)
	v := c.FirstOverall * math.Exp(-c.DecayPerRound*roundsElapsed)

	if years := season - asOf.Year(); years > 0 && c.FutureDiscount > 0 {
		v *= math.Pow(c.FutureDiscount, float64(years))
	}
	return math.Max(v, c.Floor)
}

// Valuer prices trade assets. Resolved picks are priced from the drafted
// player's latest value, so a trade's worth shifts as soon as the pick is
// used; nothing here caches a result.
type Valuer struct {
	Table *Table
	Picks PickCurve
}

func NewValuer(table *Table, picks PickCurve) *Valuer {
	return &Valuer{Table: table, Picks: picks}
}

func (v *Valuer) Available() bool {
	return v != nil && v.Table.Len() > 0
}

func (v *Valuer) AssetValue(a models.Asset, at time.Time) float64 {
	switch a.Kind {
	case models.AssetPlayer:
		value, _ := v.Table.PlayerValue(a.PlayerID, at)
		return value
	case models.AssetPick:
		if a.PickStatus == models.PickResolved && a.PlayerID != "" {
			pv, _ := v.Table.Latest(a.PlayerID)
			return pv.Value
		}
		return v.Picks.Expected(a.PickSeason, a.PickRound, a.PickSlot, at)
	default:
		return 0
	}
}
