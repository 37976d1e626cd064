package models

import (
	"errors"
	"time"
)

type League struct {
	ID               string
	Name             string
	Season           int
	TotalRosters     int
	PreviousLeagueID string
	Status           string
}

// LeagueSeason is one season of a league as fetched from the provider. It is
// treated as immutable once built.
type LeagueSeason struct {
	LeagueID         string
	Name             string
	Season           int
	Complete         bool
	TotalRosters     int
	PlayoffWeekStart int
	RosterPositions  []string
	PPR              float64

	Managers       map[int]string    // roster id -> user id
	DisplayNames   map[string]string // user id -> display name
	Matchups       []Matchup
	Standings      []Standing
	ChampionUserID string

	Trades       []Trade
	Draft        []DraftPick
	DraftSlots   map[int]int // roster id -> draft slot
	Rosters      []Roster
	PlayerPoints map[string]float64 // player id -> season fantasy points
}

func (s LeagueSeason) DisplayName(userID string) string {
	if name, ok := s.DisplayNames[userID]; ok && name != "" {
		return name
	}
	return userID
}

// Champion is the bracket winner. A completed season without a bracket
// result falls back to the team ranked first in the standings.
func (s LeagueSeason) Champion() string {
	if s.ChampionUserID != "" {
		return s.ChampionUserID
	}
	if !s.Complete {
		return ""
	}
	for _, st := range s.Standings {
		if st.Rank == 1 {
			return st.UserID
		}
	}
	return ""
}

func (s LeagueSeason) HasManager(userID string) bool {
	for _, id := range s.Managers {
		if id == userID {
			return true
		}
	}
	return false
}

var (
	ErrUnscored       = errors.New("matchup not scored")
	ErrMalformed      = errors.New("malformed matchup")
	ErrUnknownManager = errors.New("matchup references unknown manager")
)

// CheckMatchup reports why a matchup cannot be credited to this season, or
// nil when it can. Manager membership is only checked when the season has a
// manager map.
func (s LeagueSeason) CheckMatchup(m Matchup) error {
	switch {
	case m.HomePoints == 0 && m.AwayPoints == 0:
		return ErrUnscored
	case m.HomeUserID == "" || m.AwayUserID == "" || m.HomeUserID == m.AwayUserID:
		return ErrMalformed
	case s.Managers != nil && (!s.HasManager(m.HomeUserID) || !s.HasManager(m.AwayUserID)):
		return ErrUnknownManager
	}
	return nil
}

type Matchup struct {
	Season     int
	Week       int
	HomeUserID string
	AwayUserID string
	HomePoints float64
	AwayPoints float64
	IsPlayoff  bool

	HomeLineup []Start
	AwayLineup []Start
}

// Start is one filled lineup slot for a week. An empty slot has no
// PlayerID.
type Start struct {
	PlayerID string  `json:"player_id,omitempty"`
	Points   float64 `json:"points"`
}

type Standing struct {
	UserID    string
	Rank      int
	Wins      int
	Losses    int
	Ties      int
	PointsFor float64
}

type AssetKind string

const (
	AssetPlayer AssetKind = "player"
	AssetPick   AssetKind = "pick"
)

type PickStatus string

const (
	PickPending  PickStatus = "pending"
	PickResolved PickStatus = "resolved"
)

// Asset is one thing that changed hands in a trade. Values are never stored
// here; they are looked up at read time. For a resolved pick PlayerID, Name
// and Position describe the player drafted with it.
type Asset struct {
	Kind AssetKind `json:"kind"`
	From string    `json:"from"`
	To   string    `json:"to"`

	PlayerID string `json:"player_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Position string `json:"position,omitempty"`

	PickSeason int        `json:"pick_season,omitempty"`
	PickRound  int        `json:"pick_round,omitempty"`
	PickSlot   *int       `json:"pick_slot,omitempty"`
	PickStatus PickStatus `json:"pick_status,omitempty"`
	// PickRosterID is the roster that originally owned the pick.
	PickRosterID int `json:"pick_roster_id,omitempty"`
}

type Trade struct {
	ID        string
	LeagueID  string
	Season    int
	Week      int
	Timestamp time.Time
	UserIDs   []string
	Assets    []Asset
}

type DraftPick struct {
	Season   int
	Round    int
	Slot     int
	Overall  int
	UserID   string
	PlayerID string
	Name     string
	Position string
	IsKeeper bool
}

type Roster struct {
	UserID  string
	Players []RosterPlayer
}

type RosterPlayer struct {
	ID       string
	Name     string
	Position string
	Age      *float64
	Value    float64
}

// ValuationFormat identifies one player-value regime at the valuation
// provider.
type ValuationFormat struct {
	Dynasty bool
	NumQBs  int
	NumTeam int
	PPR     float64
}

type ValueSnapshot struct {
	Format  ValuationFormat
	TakenAt time.Time
	Values  map[string]PlayerValue // sleeper player id -> value
}

type PlayerValue struct {
	PlayerID string
	Name     string
	Position string
	Age      *float64
	Value    float64
}
