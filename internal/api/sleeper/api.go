package sleeper

import (
	"context"
	"fmt"
	"strconv"

	"github.com/omarshaarawi/legacybot/internal/models"
)

type API struct {
	client *Client
}

func NewAPI(client *Client) *API {
	return &API{client: client}
}

func (a *API) GetUser(ctx context.Context, username string) (*models.SleeperUser, error) {
	var user models.SleeperUser
	if err := a.client.Get(ctx, "/user/"+username, nil, &user); err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	if user.UserID == "" {
		return nil, fmt.Errorf("fetching user %s: %w", username, ErrNotFound)
	}
	return &user, nil
}

func (a *API) GetState(ctx context.Context) (*models.SleeperState, error) {
	var state models.SleeperState
	if err := a.client.Get(ctx, "/state/nfl", nil, &state); err != nil {
		return nil, fmt.Errorf("fetching nfl state: %w", err)
	}
	return &state, nil
}

func (a *API) GetUserLeagues(ctx context.Context, userID string, season int) ([]models.SleeperLeague, error) {
	var leagues []models.SleeperLeague
	endpoint := fmt.Sprintf("/user/%s/leagues/nfl/%d", userID, season)
	if err := a.client.Get(ctx, endpoint, nil, &leagues); err != nil {
		return nil, fmt.Errorf("fetching leagues for %d: %w", season, err)
	}
	return leagues, nil
}

func (a *API) GetLeague(ctx context.Context, leagueID string) (*models.SleeperLeague, error) {
	var league models.SleeperLeague
	if err := a.client.Get(ctx, "/league/"+leagueID, nil, &league); err != nil {
		return nil, fmt.Errorf("fetching league: %w", err)
	}
	return &league, nil
}

func (a *API) GetLeagueUsers(ctx context.Context, leagueID string) ([]models.SleeperUser, error) {
	var users []models.SleeperUser
	if err := a.client.Get(ctx, fmt.Sprintf("/league/%s/users", leagueID), nil, &users); err != nil {
		return nil, fmt.Errorf("fetching league users: %w", err)
	}
	return users, nil
}

func (a *API) GetRosters(ctx context.Context, leagueID string) ([]models.SleeperRoster, error) {
	var rosters []models.SleeperRoster
	if err := a.client.Get(ctx, fmt.Sprintf("/league/%s/rosters", leagueID), nil, &rosters); err != nil {
		return nil, fmt.Errorf("fetching rosters: %w", err)
	}
	return rosters, nil
}

func (a *API) GetMatchups(ctx context.Context, leagueID string, week int) ([]models.SleeperMatchup, error) {
	var matchups []models.SleeperMatchup
	endpoint := fmt.Sprintf("/league/%s/matchups/%d", leagueID, week)
	if err := a.client.Get(ctx, endpoint, nil, &matchups); err != nil {
		return nil, fmt.Errorf("fetching matchups for week %d: %w", week, err)
	}
	return matchups, nil
}

func (a *API) GetWinnersBracket(ctx context.Context, leagueID string) ([]models.BracketMatch, error) {
	var bracket []models.BracketMatch
	if err := a.client.Get(ctx, fmt.Sprintf("/league/%s/winners_bracket", leagueID), nil, &bracket); err != nil {
		return nil, fmt.Errorf("fetching winners bracket: %w", err)
	}
	return bracket, nil
}

func (a *API) GetTransactions(ctx context.Context, leagueID string, week int) ([]models.SleeperTransaction, error) {
	var txns []models.SleeperTransaction
	endpoint := fmt.Sprintf("/league/%s/transactions/%d", leagueID, week)
	if err := a.client.Get(ctx, endpoint, nil, &txns); err != nil {
		return nil, fmt.Errorf("fetching transactions for week %d: %w", week, err)
	}
	return txns, nil
}

func (a *API) GetDrafts(ctx context.Context, leagueID string) ([]models.SleeperDraft, error) {
	var drafts []models.SleeperDraft
	if err := a.client.Get(ctx, fmt.Sprintf("/league/%s/drafts", leagueID), nil, &drafts); err != nil {
		return nil, fmt.Errorf("fetching drafts: %w", err)
	}
	return drafts, nil
}

func (a *API) GetDraftPicks(ctx context.Context, draftID string) ([]models.SleeperDraftPick, error) {
	var picks []models.SleeperDraftPick
	if err := a.client.Get(ctx, fmt.Sprintf("/draft/%s/picks", draftID), nil, &picks); err != nil {
		return nil, fmt.Errorf("fetching draft picks: %w", err)
	}
	return picks, nil
}

// GetPlayers downloads the full NFL player catalog. It is several megabytes;
// callers should hold on to it for a day.
func (a *API) GetPlayers(ctx context.Context) (map[string]models.SleeperPlayer, error) {
	var players map[string]models.SleeperPlayer
	if err := a.client.Get(ctx, "/players/nfl", nil, &players); err != nil {
		return nil, fmt.Errorf("fetching players: %w", err)
	}
	for id, p := range players {
		if p.PlayerID == "" {
			p.PlayerID = id
			players[id] = p
		}
	}
	return players, nil
}

// Season parses Sleeper's string season, returning zero for garbage.
func Season(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
