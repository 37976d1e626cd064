// Package fantasy assembles provider responses into the league season values
// the analytics packages consume.
package fantasy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/omarshaarawi/legacybot/internal/analytics/lineage"
	"github.com/omarshaarawi/legacybot/internal/api/fantasycalc"
	"github.com/omarshaarawi/legacybot/internal/api/sleeper"
	"github.com/omarshaarawi/legacybot/internal/models"
	"golang.org/x/sync/errgroup"
)

// Parts selects which sections of a season to fetch beyond the league
// metadata, managers and standings.
type Parts uint8

const (
	PartMatchups Parts = 1 << iota
	PartTrades
	PartDraft
	PartRosters
)

const (
	maxWeeks    = 18
	fetchLimit  = 4
	tradeType   = "trade"
	txnComplete = "complete"
)

type API struct {
	sleeperAPI *sleeper.API
	calc       *fantasycalc.Client
}

func NewAPI(sleeperAPI *sleeper.API, calc *fantasycalc.Client) *API {
	return &API{sleeperAPI: sleeperAPI, calc: calc}
}

func (a *API) GetUser(ctx context.Context, username string) (*models.SleeperUser, error) {
	return a.sleeperAPI.GetUser(ctx, username)
}

func (a *API) GetCurrentSeason(ctx context.Context) (int, error) {
	state, err := a.sleeperAPI.GetState(ctx)
	if err != nil {
		return 0, err
	}
	return sleeper.Season(state.Season), nil
}

func (a *API) GetPlayers(ctx context.Context) (map[string]models.SleeperPlayer, error) {
	return a.sleeperAPI.GetPlayers(ctx)
}

func (a *API) GetValues(ctx context.Context, format models.ValuationFormat) (models.ValueSnapshot, error) {
	return a.calc.Values(ctx, format)
}

// GetLeagues lists every league the user joined between the two seasons
// inclusive.
func (a *API) GetLeagues(ctx context.Context, userID string, first, last int) ([]models.League, error) {
	if last < first {
		return []models.League{}, nil
	}
	perSeason := make([][]models.SleeperLeague, last-first+1)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	for season := first; season <= last; season++ {
		i, season := season-first, season
		g.Go(func() error {
			leagues, err := a.sleeperAPI.GetUserLeagues(ctx, userID, season)
			if err != nil {
				return err
			}
			perSeason[i] = leagues
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching leagues: %w", err)
	}

	out := []models.League{}
	for _, leagues := range perSeason {
		for _, l := range leagues {
			out = append(out, models.League{
				ID:               l.LeagueID,
				Name:             l.Name,
				Season:           sleeper.Season(l.Season),
				TotalRosters:     l.TotalRosters,
				PreviousLeagueID: l.PreviousLeagueID,
				Status:           l.Status,
			})
		}
	}
	return out, nil
}

// GetSeasons fetches several seasons concurrently, keeping the input order.
func (a *API) GetSeasons(ctx context.Context, refs []lineage.SeasonRef, parts Parts) ([]models.LeagueSeason, error) {
	out := make([]models.LeagueSeason, len(refs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			s, err := a.GetSeason(ctx, ref, parts)
			if err != nil {
				return err
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) GetSeason(ctx context.Context, ref lineage.SeasonRef, parts Parts) (models.LeagueSeason, error) {
	league, err := a.sleeperAPI.GetLeague(ctx, ref.LeagueID)
	if err != nil {
		return models.LeagueSeason{}, fmt.Errorf("fetching season %d: %w", ref.Season, err)
	}

	var (
		users   []models.SleeperUser
		rosters []models.SleeperRoster
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = a.sleeperAPI.GetLeagueUsers(gctx, ref.LeagueID)
		return err
	})
	g.Go(func() error {
		var err error
		rosters, err = a.sleeperAPI.GetRosters(gctx, ref.LeagueID)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.LeagueSeason{}, fmt.Errorf("fetching season %d: %w", ref.Season, err)
	}

	s := newSeason(league, users, rosters)
	if s.Season == 0 {
		s.Season = ref.Season
	}
	weeks := lastWeek(league)

	// the fetches below only read base; results are merged after Wait
	base := s
	var (
		matchups []models.Matchup
		points   map[string]float64
		champ    string
		trades   []models.Trade
		draft    draftResult
	)
	g, gctx = errgroup.WithContext(ctx)
	if parts&(PartMatchups|PartDraft) != 0 {
		g.Go(func() error {
			var err error
			matchups, points, champ, err = a.fetchMatchups(gctx, base, weeks)
			return err
		})
	}
	if parts&PartTrades != 0 {
		g.Go(func() error {
			var err error
			trades, err = a.fetchTrades(gctx, base)
			return err
		})
	}
	if parts&PartDraft != 0 {
		g.Go(func() error {
			var err error
			draft, err = a.fetchDraft(gctx, base)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return models.LeagueSeason{}, fmt.Errorf("fetching season %d: %w", ref.Season, err)
	}
	s.Matchups, s.PlayerPoints, s.ChampionUserID = matchups, points, champ
	s.Trades = trades
	s.Draft, s.DraftSlots = draft.picks, draft.slots

	if parts&PartRosters != 0 {
		s.Rosters = bareRosters(rosters, s.Managers)
	}
	return s, nil
}

func newSeason(league *models.SleeperLeague, users []models.SleeperUser, rosters []models.SleeperRoster) models.LeagueSeason {
	s := models.LeagueSeason{
		LeagueID:         league.LeagueID,
		Name:             league.Name,
		Season:           sleeper.Season(league.Season),
		Complete:         league.Status == "complete",
		TotalRosters:     league.TotalRosters,
		PlayoffWeekStart: league.Settings.PlayoffWeekStart,
		RosterPositions:  league.RosterPositions,
		PPR:              league.ScoringSettings.Rec,
		Managers:         make(map[int]string, len(rosters)),
		DisplayNames:     make(map[string]string, len(users)),
	}
	for _, u := range users {
		s.DisplayNames[u.UserID] = u.DisplayName
	}
	for _, r := range rosters {
		if r.OwnerID == "" {
			continue
		}
		s.Managers[r.RosterID] = r.OwnerID
		s.Standings = append(s.Standings, models.Standing{
			UserID:    r.OwnerID,
			Wins:      r.Settings.Wins,
			Losses:    r.Settings.Losses,
			Ties:      r.Settings.Ties,
			PointsFor: float64(r.Settings.Fpts) + float64(r.Settings.FptsDecimal)/100,
		})
	}
	sort.Slice(s.Standings, func(i, j int) bool {
		if s.Standings[i].Wins != s.Standings[j].Wins {
			return s.Standings[i].Wins > s.Standings[j].Wins
		}
		return s.Standings[i].PointsFor > s.Standings[j].PointsFor
	})
	for i := range s.Standings {
		s.Standings[i].Rank = i + 1
	}
	return s
}

func lastWeek(league *models.SleeperLeague) int {
	if w := league.Settings.LastScoredLeg; w > 0 {
		return min(w, maxWeeks)
	}
	if league.Status == "complete" {
		return maxWeeks
	}
	return 0
}

func (a *API) fetchMatchups(ctx context.Context, s models.LeagueSeason, weeks int) ([]models.Matchup, map[string]float64, string, error) {
	byWeek := make([][]models.SleeperMatchup, weeks+1)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	for week := 1; week <= weeks; week++ {
		week := week
		g.Go(func() error {
			m, err := a.sleeperAPI.GetMatchups(ctx, s.LeagueID, week)
			if err != nil {
				return err
			}
			byWeek[week] = m
			return nil
		})
	}
	var bracket []models.BracketMatch
	if s.Complete {
		g.Go(func() error {
			var err error
			bracket, err = a.sleeperAPI.GetWinnersBracket(ctx, s.LeagueID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, "", err
	}

	var matchups []models.Matchup
	points := make(map[string]float64)
	for week := 1; week <= weeks; week++ {
		matchups = append(matchups, pairMatchups(s, week, byWeek[week])...)
		for _, m := range byWeek[week] {
			for id, pts := range m.PlayersPoints {
				points[id] += pts
			}
		}
	}
	return matchups, points, champion(bracket, s.Managers), nil
}

// pairMatchups joins the two rosters sharing a matchup id into one result.
// Rosters on a playoff bye have no matchup id and are dropped.
func pairMatchups(s models.LeagueSeason, week int, entries []models.SleeperMatchup) []models.Matchup {
	groups := make(map[int][]models.SleeperMatchup)
	for _, e := range entries {
		if e.MatchupID == nil {
			continue
		}
		groups[*e.MatchupID] = append(groups[*e.MatchupID], e)
	}
	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var out []models.Matchup
	for _, id := range ids {
		g := groups[id]
		if len(g) != 2 {
			slog.Warn("Skipping matchup without exactly two rosters", "league", s.LeagueID, "week", week,
				"matchup", id, "rosters", len(g))
			continue
		}
		sort.Slice(g, func(i, j int) bool { return g[i].RosterID < g[j].RosterID })
		out = append(out, models.Matchup{
			Season:     s.Season,
			Week:       week,
			HomeUserID: s.Managers[g[0].RosterID],
			AwayUserID: s.Managers[g[1].RosterID],
			HomePoints: g[0].Points,
			AwayPoints: g[1].Points,
			IsPlayoff:  s.PlayoffWeekStart > 0 && week >= s.PlayoffWeekStart,
			HomeLineup: lineup(g[0]),
			AwayLineup: lineup(g[1]),
		})
	}
	return out
}

// lineup pairs each starter with the points scored in that slot. Sleeper
// fills empty slots with player id "0".
func lineup(e models.SleeperMatchup) []models.Start {
	if len(e.Starters) == 0 {
		return nil
	}
	out := make([]models.Start, len(e.Starters))
	for i, id := range e.Starters {
		if id == "0" || id == "" {
			continue
		}
		out[i].PlayerID = id
		if i < len(e.StartersPoints) {
			out[i].Points = e.StartersPoints[i]
		} else {
			out[i].Points = e.PlayersPoints[id]
		}
	}
	return out
}

func champion(bracket []models.BracketMatch, managers map[int]string) string {
	for _, m := range bracket {
		if m.Placement != nil && *m.Placement == 1 && m.Winner != nil {
			return managers[*m.Winner]
		}
	}
	return ""
}

func (a *API) fetchTrades(ctx context.Context, s models.LeagueSeason) ([]models.Trade, error) {
	byWeek := make([][]models.SleeperTransaction, maxWeeks+1)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	for week := 1; week <= maxWeeks; week++ {
		week := week
		g.Go(func() error {
			txns, err := a.sleeperAPI.GetTransactions(ctx, s.LeagueID, week)
			if err != nil {
				return err
			}
			byWeek[week] = txns
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var trades []models.Trade
	for week, txns := range byWeek {
		for _, txn := range txns {
			if txn.Type != tradeType || txn.Status != txnComplete {
				continue
			}
			trades = append(trades, toTrade(s, week, txn))
		}
	}
	sort.SliceStable(trades, func(i, j int) bool { return trades[i].Timestamp.Before(trades[j].Timestamp) })
	return trades, nil
}

func toTrade(s models.LeagueSeason, week int, txn models.SleeperTransaction) models.Trade {
	at := txn.StatusUpdated
	if at == 0 {
		at = txn.Created
	}
	t := models.Trade{
		ID:        txn.TransactionID,
		LeagueID:  s.LeagueID,
		Season:    s.Season,
		Week:      week,
		Timestamp: time.UnixMilli(at).UTC(),
	}
	for _, rid := range txn.RosterIDs {
		if id := s.Managers[rid]; id != "" {
			t.UserIDs = append(t.UserIDs, id)
		}
	}

	playerIDs := make([]string, 0, len(txn.Adds))
	for id := range txn.Adds {
		playerIDs = append(playerIDs, id)
	}
	sort.Strings(playerIDs)
	for _, id := range playerIDs {
		t.Assets = append(t.Assets, models.Asset{
			Kind:     models.AssetPlayer,
			From:     s.Managers[txn.Drops[id]],
			To:       s.Managers[txn.Adds[id]],
			PlayerID: id,
		})
	}
	for _, p := range txn.DraftPicks {
		t.Assets = append(t.Assets, models.Asset{
			Kind:         models.AssetPick,
			From:         s.Managers[p.PreviousOwnerID],
			To:           s.Managers[p.OwnerID],
			PickSeason:   sleeper.Season(p.Season),
			PickRound:    p.Round,
			PickRosterID: p.RosterID,
			PickStatus:   models.PickPending,
		})
	}
	return t
}

type draftResult struct {
	picks []models.DraftPick
	slots map[int]int
}

func (a *API) fetchDraft(ctx context.Context, s models.LeagueSeason) (draftResult, error) {
	var res draftResult
	drafts, err := a.sleeperAPI.GetDrafts(ctx, s.LeagueID)
	if err != nil {
		return res, err
	}
	var draft *models.SleeperDraft
	for i := range drafts {
		if draft == nil || sleeper.Season(drafts[i].Season) == s.Season {
			draft = &drafts[i]
		}
	}
	if draft == nil {
		return res, nil
	}

	res.slots = make(map[int]int, len(draft.SlotToRosterID))
	for slot, rosterID := range draft.SlotToRosterID {
		if n, err := strconv.Atoi(slot); err == nil {
			res.slots[rosterID] = n
		}
	}
	if draft.Status != txnComplete {
		return res, nil
	}

	picks, err := a.sleeperAPI.GetDraftPicks(ctx, draft.DraftID)
	if err != nil {
		return res, err
	}
	for _, p := range picks {
		userID := s.Managers[p.RosterID]
		if userID == "" {
			userID = p.PickedBy
		}
		res.picks = append(res.picks, models.DraftPick{
			Season:   s.Season,
			Round:    p.Round,
			Slot:     p.DraftSlot,
			Overall:  p.PickNo,
			UserID:   userID,
			PlayerID: p.PlayerID,
			Name:     strings.TrimSpace(p.Metadata.FirstName + " " + p.Metadata.LastName),
			Position: p.Metadata.Position,
			IsKeeper: p.IsKeeper != nil && *p.IsKeeper,
		})
	}
	return res, nil
}

func bareRosters(rosters []models.SleeperRoster, managers map[int]string) []models.Roster {
	out := make([]models.Roster, 0, len(rosters))
	for _, r := range rosters {
		userID := managers[r.RosterID]
		if userID == "" {
			continue
		}
		roster := models.Roster{UserID: userID}
		for _, id := range r.Players {
			roster.Players = append(roster.Players, models.RosterPlayer{ID: id})
		}
		out = append(out, roster)
	}
	return out
}
