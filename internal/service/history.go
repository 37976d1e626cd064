package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/omarshaarawi/legacybot/internal/analytics/drafts"
	"github.com/omarshaarawi/legacybot/internal/analytics/grade"
	"github.com/omarshaarawi/legacybot/internal/analytics/lineage"
	"github.com/omarshaarawi/legacybot/internal/analytics/luck"
	"github.com/omarshaarawi/legacybot/internal/analytics/records"
	"github.com/omarshaarawi/legacybot/internal/analytics/trades"
	"github.com/omarshaarawi/legacybot/internal/analytics/trajectory"
	"github.com/omarshaarawi/legacybot/internal/analytics/valuation"
	"github.com/omarshaarawi/legacybot/internal/api/fantasy"
	"github.com/omarshaarawi/legacybot/internal/api/sleeper"
	"github.com/omarshaarawi/legacybot/internal/config"
	"github.com/omarshaarawi/legacybot/internal/models"
	"github.com/omarshaarawi/legacybot/internal/repository/memory"
)

var (
	// ErrUpstreamUnavailable wraps any failure to fetch league data, so
	// callers can tell "couldn't fetch" apart from "no data".
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUserNotFound        = errors.New("user not found")
	ErrLineageNotFound     = errors.New("league not found")
)

const catalogTTL = 24 * time.Hour

// Provider is the league and valuation data source. *fantasy.API satisfies
// it.
type Provider interface {
	GetUser(ctx context.Context, username string) (*models.SleeperUser, error)
	GetCurrentSeason(ctx context.Context) (int, error)
	GetLeagues(ctx context.Context, userID string, first, last int) ([]models.League, error)
	GetSeasons(ctx context.Context, refs []lineage.SeasonRef, parts fantasy.Parts) ([]models.LeagueSeason, error)
	GetPlayers(ctx context.Context) (map[string]models.SleeperPlayer, error)
	GetValues(ctx context.Context, format models.ValuationFormat) (models.ValueSnapshot, error)
}

type Options struct {
	FirstSeason int
	Dynasty     bool
	Trades      trades.Grader
	Drafts      drafts.Options
	Now         func() time.Time
}

func DefaultOptions() Options {
	return Options{
		FirstSeason: 2017,
		Dynasty:     true,
		Trades:      trades.DefaultGrader(),
		Drafts:      drafts.DefaultOptions(),
		Now:         time.Now,
	}
}

// OptionsFromConfig applies the configured grading policy on top of the
// defaults.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	opts := DefaultOptions()
	opts.FirstSeason = cfg.Sleeper.FirstSeason
	opts.Dynasty = cfg.Valuation.Dynasty

	bands, err := grade.Load(cfg.Grading.BandsFile)
	if err != nil {
		return Options{}, err
	}
	g := cfg.Grading
	opts.Trades = trades.Grader{
		Blend: grade.Blend{RateWeight: g.TradeWinWeight, ValueWeight: g.TradeNetWeight, ValueScale: g.TradeNetScale},
		Table: bands.Trade,
	}
	opts.Drafts = drafts.Options{
		HitThreshold:  g.HitThreshold,
		BustThreshold: g.BustThreshold,
		Blend:         grade.Blend{RateWeight: g.DraftHitWeight, ValueWeight: g.DraftWARWeight, ValueScale: g.DraftWARScale},
		Table:         bands.Draft,
	}
	if err := opts.Trades.Blend.Validate(); err != nil {
		return Options{}, fmt.Errorf("trade blend: %w", err)
	}
	if err := opts.Drafts.Blend.Validate(); err != nil {
		return Options{}, fmt.Errorf("draft blend: %w", err)
	}
	if opts.Drafts.BustThreshold > opts.Drafts.HitThreshold {
		return Options{}, fmt.Errorf("draft bust threshold %.1f is above hit threshold %.1f",
			opts.Drafts.BustThreshold, opts.Drafts.HitThreshold)
	}
	return opts, nil
}

// HistoryService answers one section at a time for a (user, league) pair.
// Each call fetches only what its section needs and recomputes from scratch;
// the repository holds raw provider data only.
type HistoryService struct {
	api  Provider
	repo *memory.Repository
	opts Options
}

func NewHistoryService(api Provider, repo *memory.Repository, opts Options) *HistoryService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &HistoryService{api: api, repo: repo, opts: opts}
}

type User struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

func (s *HistoryService) GetLineages(ctx context.Context, username string) (User, []lineage.Lineage, error) {
	u, err := s.api.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, sleeper.ErrNotFound) {
			return User{}, nil, fmt.Errorf("%s: %w", username, ErrUserNotFound)
		}
		return User{}, nil, upstream(err)
	}
	user := User{UserID: u.UserID, Username: u.Username, DisplayName: u.DisplayName}

	current, err := s.api.GetCurrentSeason(ctx)
	if err != nil {
		return User{}, nil, upstream(err)
	}
	leagues, err := s.api.GetLeagues(ctx, user.UserID, s.opts.FirstSeason, current)
	if err != nil {
		return User{}, nil, upstream(err)
	}
	return user, lineage.Resolve(leagues), nil
}

func (s *HistoryService) findLineage(ctx context.Context, username, name string) (User, lineage.Lineage, error) {
	user, lineages, err := s.GetLineages(ctx, username)
	if err != nil {
		return User{}, lineage.Lineage{}, err
	}
	l, ok := lineage.Find(lineages, name)
	if !ok {
		return User{}, lineage.Lineage{}, fmt.Errorf("%q: %w", name, ErrLineageNotFound)
	}
	slog.Debug("Resolved league", "key", lineage.Key(user.UserID, l), "seasons", len(l.Seasons))
	return user, l, nil
}

func (s *HistoryService) seasons(ctx context.Context, l lineage.Lineage, parts fantasy.Parts) ([]models.LeagueSeason, error) {
	seasons, err := s.api.GetSeasons(ctx, l.Seasons, parts)
	if err != nil {
		return nil, upstream(err)
	}
	return seasons, nil
}

type Champion struct {
	Season int    `json:"season"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type Overview struct {
	User      User                      `json:"user"`
	League    string                    `json:"league"`
	Seasons   []int                     `json:"seasons"`
	Careers   []records.CareerBreakdown `json:"careers"`
	Champions []Champion                `json:"champions"`
}

// Career returns the breakdown of the requesting user, if they played.
func (o Overview) Career() (records.CareerBreakdown, bool) {
	for _, c := range o.Careers {
		if c.UserID == o.User.UserID {
			return c, true
		}
	}
	return records.CareerBreakdown{}, false
}

// GetOverview is the eager section: careers and champions for every manager
// in the lineage.
func (s *HistoryService) GetOverview(ctx context.Context, username, name string) (*Overview, error) {
	user, l, err := s.findLineage(ctx, username, name)
	if err != nil {
		return nil, err
	}
	seasons, err := s.seasons(ctx, l, fantasy.PartMatchups)
	if err != nil {
		return nil, err
	}

	o := &Overview{User: user, League: l.Name, Careers: records.Careers(seasons), Champions: []Champion{}}
	for _, ref := range l.Chronological() {
		o.Seasons = append(o.Seasons, ref.Season)
	}
	names := records.Names(seasons)
	for _, season := range seasons {
		champ := season.Champion()
		if champ == "" {
			continue
		}
		o.Champions = append(o.Champions, Champion{
			Season: season.Season,
			UserID: champ,
			Name:   nameOr(names, champ),
		})
	}
	sort.Slice(o.Champions, func(i, j int) bool { return o.Champions[i].Season > o.Champions[j].Season })
	return o, nil
}

func (s *HistoryService) GetRecords(ctx context.Context, username, name string) (records.Book, error) {
	_, l, err := s.findLineage(ctx, username, name)
	if err != nil {
		return records.Book{}, err
	}
	seasons, err := s.seasons(ctx, l, fantasy.PartMatchups)
	if err != nil {
		return records.Book{}, err
	}
	return records.Compute(seasons), nil
}

type LuckReport struct {
	luck.LineageLuck
	Names map[string]string `json:"names"`
}

func (s *HistoryService) GetLuck(ctx context.Context, username, name string) (*LuckReport, error) {
	_, l, err := s.findLineage(ctx, username, name)
	if err != nil {
		return nil, err
	}
	seasons, err := s.seasons(ctx, l, fantasy.PartMatchups)
	if err != nil {
		return nil, err
	}
	return &LuckReport{LineageLuck: luck.ForLineage(seasons), Names: records.Names(seasons)}, nil
}

type TradeReport struct {
	Valued   bool                    `json:"valued"`
	Managers []trades.ManagerSummary `json:"managers"`
	Seasons  []trades.LeagueOverview `json:"seasons"`
}

// GetTrades values every trade in the lineage against the snapshot history
// for the league's format. When no valuation is available the counts are
// still reported.
func (s *HistoryService) GetTrades(ctx context.Context, username, name string) (*TradeReport, error) {
	_, l, err := s.findLineage(ctx, username, name)
	if err != nil {
		return nil, err
	}
	seasons, err := s.seasons(ctx, l, fantasy.PartTrades|fantasy.PartDraft)
	if err != nil {
		return nil, err
	}
	seasons = trades.ResolvePicks(seasons)

	latest := latestSeason(seasons)
	table := s.valueTable(ctx, s.format(latest))
	var valuer trades.AssetValuer
	if table.Len() > 0 {
		valuer = valuation.NewValuer(table, valuation.DefaultPickCurve(latest.TotalRosters))
	}

	report := &TradeReport{
		Valued:   valuer != nil,
		Managers: trades.Career(seasons, valuer, s.opts.Trades),
		Seasons:  []trades.LeagueOverview{},
	}
	sort.Slice(seasons, func(i, j int) bool { return seasons[i].Season > seasons[j].Season })
	for _, season := range seasons {
		report.Seasons = append(report.Seasons, trades.ForLeague(season, valuer, s.opts.Trades))
	}
	return report, nil
}

func (s *HistoryService) GetDrafts(ctx context.Context, username, name string) (drafts.LineageDrafts, error) {
	_, l, err := s.findLineage(ctx, username, name)
	if err != nil {
		return drafts.LineageDrafts{}, err
	}
	seasons, err := s.seasons(ctx, l, fantasy.PartDraft)
	if err != nil {
		return drafts.LineageDrafts{}, err
	}
	return drafts.ForLineage(seasons, s.opts.Drafts), nil
}

func (s *HistoryService) GetTrajectory(ctx context.Context, username, name string) ([]trajectory.Trajectory, error) {
	_, l, err := s.findLineage(ctx, username, name)
	if err != nil {
		return nil, err
	}
	// drafts and trades attribute each start to how the player was acquired
	seasons, err := s.seasons(ctx, l, fantasy.PartMatchups|fantasy.PartTrades|fantasy.PartDraft)
	if err != nil {
		return nil, err
	}
	return trajectory.ForLineage(seasons), nil
}

type OutlookReport struct {
	Season   int                  `json:"season"`
	User     trajectory.Outlook   `json:"user"`
	League   []trajectory.Outlook `json:"league"`
	Names    map[string]string    `json:"names"`
	ValuedAt *time.Time           `json:"valued_at,omitempty"`
}

// GetOutlook projects every roster in the lineage's latest season.
func (s *HistoryService) GetOutlook(ctx context.Context, username, name string) (*OutlookReport, error) {
	user, l, err := s.findLineage(ctx, username, name)
	if err != nil {
		return nil, err
	}
	if len(l.Seasons) == 0 {
		return nil, fmt.Errorf("%q: %w", name, ErrLineageNotFound)
	}
	seasons, err := s.seasons(ctx, lineage.Lineage{Seasons: l.Seasons[:1]}, fantasy.PartRosters)
	if err != nil {
		return nil, err
	}
	if len(seasons) == 0 {
		return nil, upstream(fmt.Errorf("no data for season %d", l.Latest()))
	}
	season := seasons[0]

	catalog := s.playerCatalog(ctx)
	report := &OutlookReport{Season: season.Season, Names: season.DisplayNames}
	snap, ok := s.latestValues(ctx, s.format(season))
	if ok {
		at := snap.TakenAt
		report.ValuedAt = &at
	}
	rosters := decorateRosters(season.Rosters, catalog, snap.Values)

	lineup := trajectory.LineupFromPositions(season.RosterPositions)
	for _, r := range rosters {
		o := trajectory.Project(rosters, r.UserID, season.Season, lineup)
		report.League = append(report.League, o)
		if r.UserID == user.UserID {
			report.User = o
		}
	}
	if report.User.UserID == "" {
		report.User = trajectory.Project(rosters, user.UserID, season.Season, lineup)
	}
	sort.Slice(report.League, func(i, j int) bool {
		a, b := report.League[i], report.League[j]
		if a.Current == nil || b.Current == nil {
			return a.Current != nil
		}
		return a.Current.Rank < b.Current.Rank
	})
	return report, nil
}

// RefreshValues takes today's snapshot for every format seen so far.
func (s *HistoryService) RefreshValues(ctx context.Context) error {
	var errs []error
	for _, f := range s.repo.Formats() {
		snap, err := s.api.GetValues(ctx, f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.repo.SaveSnapshot(snap)
	}
	if err := errors.Join(errs...); err != nil {
		return upstream(err)
	}
	return nil
}

func (s *HistoryService) format(season models.LeagueSeason) models.ValuationFormat {
	qbs := 0
	for _, p := range season.RosterPositions {
		switch strings.ToUpper(p) {
		case "QB", "SUPER_FLEX":
			qbs++
		}
	}
	teams := season.TotalRosters
	if teams == 0 {
		teams = len(season.Managers)
	}
	return models.ValuationFormat{Dynasty: s.opts.Dynasty, NumQBs: max(1, min(qbs, 2)), NumTeam: teams, PPR: season.PPR}
}

// latestValues returns today's snapshot for the format, fetching one when
// the stored snapshot is older than a day. A provider failure falls back to
// whatever is stored.
func (s *HistoryService) latestValues(ctx context.Context, f models.ValuationFormat) (models.ValueSnapshot, bool) {
	snap, ok := s.repo.LatestSnapshot(f)
	if ok && s.opts.Now().Sub(snap.TakenAt) < catalogTTL {
		return snap, true
	}
	fresh, err := s.api.GetValues(ctx, f)
	if err != nil {
		slog.Warn("Valuation provider unavailable", "format", fmt.Sprintf("%+v", f), "error", err)
		return snap, ok
	}
	s.repo.SaveSnapshot(fresh)
	return fresh, true
}

func (s *HistoryService) valueTable(ctx context.Context, f models.ValuationFormat) *valuation.Table {
	s.latestValues(ctx, f)
	return valuation.NewTable(s.repo.GetSnapshots(f)...)
}

func (s *HistoryService) playerCatalog(ctx context.Context) map[string]models.SleeperPlayer {
	players, at := s.repo.GetPlayers()
	if players != nil && s.opts.Now().Sub(at) < catalogTTL {
		return players
	}
	fresh, err := s.api.GetPlayers(ctx)
	if err != nil {
		slog.Warn("Player catalog unavailable", "error", err)
		return players
	}
	s.repo.SavePlayers(fresh, s.opts.Now())
	return fresh
}

// decorateRosters fills in name, position, age and current value. Age comes
// from the catalog, or from the valuation provider when the catalog has none.
func decorateRosters(rosters []models.Roster, catalog map[string]models.SleeperPlayer, values map[string]models.PlayerValue) []models.Roster {
	out := make([]models.Roster, len(rosters))
	for i, r := range rosters {
		out[i] = models.Roster{UserID: r.UserID, Players: make([]models.RosterPlayer, len(r.Players))}
		for j, p := range r.Players {
			if c, ok := catalog[p.ID]; ok {
				p.Name, p.Position, p.Age = c.FullName, c.Position, c.Age
			}
			if v, ok := values[p.ID]; ok {
				p.Value = v.Value
				if p.Name == "" {
					p.Name = v.Name
				}
				if p.Position == "" {
					p.Position = v.Position
				}
				if p.Age == nil {
					p.Age = v.Age
				}
			}
			out[i].Players[j] = p
		}
	}
	return out
}

func latestSeason(seasons []models.LeagueSeason) models.LeagueSeason {
	var latest models.LeagueSeason
	for _, s := range seasons {
		if s.Season > latest.Season {
			latest = s
		}
	}
	return latest
}

func upstream(err error) error {
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
}

func nameOr(names map[string]string, userID string) string {
	if n := names[userID]; n != "" {
		return n
	}
	return userID
}
