package models

type SleeperUser struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Metadata    struct {
		TeamName string `json:"team_name"`
	} `json:"metadata"`
}

type SleeperLeague struct {
	LeagueID         string          `json:"league_id"`
	Name             string          `json:"name"`
	Season           string          `json:"season"`
	Status           string          `json:"status"`
	TotalRosters     int             `json:"total_rosters"`
	PreviousLeagueID string          `json:"previous_league_id"`
	RosterPositions  []string        `json:"roster_positions"`
	Settings         LeagueSettings  `json:"settings"`
	ScoringSettings  ScoringSettings `json:"scoring_settings"`
}

type LeagueSettings struct {
	PlayoffWeekStart int `json:"playoff_week_start"`
	LastScoredLeg    int `json:"last_scored_leg"`
	Type             int `json:"type"` // 0 redraft, 1 keeper, 2 dynasty
}

type ScoringSettings struct {
	Rec float64 `json:"rec"`
}

type SleeperRoster struct {
	RosterID int      `json:"roster_id"`
	OwnerID  string   `json:"owner_id"`
	Players  []string `json:"players"`
	Starters []string `json:"starters"`
	Keepers  []string `json:"keepers"`
	Settings struct {
		Wins        int `json:"wins"`
		Losses      int `json:"losses"`
		Ties        int `json:"ties"`
		Fpts        int `json:"fpts"`
		FptsDecimal int `json:"fpts_decimal"`
	} `json:"settings"`
}

type SleeperMatchup struct {
	RosterID      int                `json:"roster_id"`
	MatchupID     *int               `json:"matchup_id"`
	Points         float64            `json:"points"`
	PlayersPoints  map[string]float64 `json:"players_points"`
	Starters       []string           `json:"starters"`
	StartersPoints []float64          `json:"starters_points"`
}

type BracketMatch struct {
	Round     int  `json:"r"`
	Match     int  `json:"m"`
	Team1     *int `json:"t1"`
	Team2     *int `json:"t2"`
	Winner    *int `json:"w"`
	Loser     *int `json:"l"`
	Placement *int `json:"p"`
}

type SleeperTransaction struct {
	TransactionID string              `json:"transaction_id"`
	Type          string              `json:"type"`
	Status        string              `json:"status"`
	Leg           int                 `json:"leg"`
	Created       int64               `json:"created"`
	StatusUpdated int64               `json:"status_updated"`
	RosterIDs     []int               `json:"roster_ids"`
	Adds          map[string]int      `json:"adds"`
	Drops         map[string]int      `json:"drops"`
	DraftPicks    []SleeperTradedPick `json:"draft_picks"`
}

type SleeperTradedPick struct {
	Season          string `json:"season"`
	Round           int    `json:"round"`
	RosterID        int    `json:"roster_id"`
	PreviousOwnerID int    `json:"previous_owner_id"`
	OwnerID         int    `json:"owner_id"`
}

type SleeperDraft struct {
	DraftID  string `json:"draft_id"`
	Season   string `json:"season"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Settings struct {
		Teams  int `json:"teams"`
		Rounds int `json:"rounds"`
	} `json:"settings"`
	SlotToRosterID map[string]int `json:"slot_to_roster_id"`
}

type SleeperDraftPick struct {
	PlayerID  string `json:"player_id"`
	PickedBy  string `json:"picked_by"`
	RosterID  int    `json:"roster_id"`
	Round     int    `json:"round"`
	DraftSlot int    `json:"draft_slot"`
	PickNo    int    `json:"pick_no"`
	IsKeeper  *bool  `json:"is_keeper"`
	Metadata  struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Position  string `json:"position"`
	} `json:"metadata"`
}

type SleeperPlayer struct {
	PlayerID  string   `json:"player_id"`
	FullName  string   `json:"full_name"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Position  string   `json:"position"`
	Team      string   `json:"team"`
	Age       *float64 `json:"age"`
}

type FantasyCalcValue struct {
	Player struct {
		ID        int      `json:"id"`
		Name      string   `json:"name"`
		SleeperID string   `json:"sleeperId"`
		Position  string   `json:"position"`
		MaybeAge  *float64 `json:"maybeAge"`
	} `json:"player"`
	Value        float64 `json:"value"`
	OverallRank  int     `json:"overallRank"`
	PositionRank int     `json:"positionRank"`
}

type SleeperState struct {
	Season     string `json:"season"`
	SeasonType string `json:"season_type"`
	Week       int    `json:"week"`
	Leg        int    `json:"leg"`
}
