// Package records computes all-time superlatives and career breakdowns over
// the full match history of a lineage.
package records

import (
	"errors"
	"log/slog"
	"math"
	"sort"

	"github.com/omarshaarawi/legacybot/internal/models"
)

type Category string

const (
	MostChampionships   Category = "most_championships"
	LongestWinStreak    Category = "longest_win_streak"
	LongestLosingStreak Category = "longest_losing_streak"
	HighestWeeklyScore  Category = "highest_weekly_score"
	LowestWeeklyScore   Category = "lowest_weekly_score"
	BiggestBlowout      Category = "biggest_blowout"
)

type Point struct {
	Season int `json:"season"`
	Week   int `json:"week"`
}

func (p Point) before(o Point) bool {
	if p.Season != o.Season {
		return p.Season < o.Season
	}
	return p.Week < o.Week
}

type Record struct {
	Category Category `json:"category"`
	Holders  []string `json:"holders"`
	Value    float64  `json:"value"`
	Opponent string   `json:"opponent,omitempty"`
	Start    *Point   `json:"start,omitempty"`
	End      *Point   `json:"end,omitempty"`
}

type Book struct {
	Records []Record          `json:"records"`
	Names   map[string]string `json:"names"`
}

func (b Book) Get(c Category) (Record, bool) {
	for _, r := range b.Records {
		if r.Category == c {
			return r, true
		}
	}
	return Record{}, false
}

type run struct {
	length int
	start  Point
	end    Point
}

type runState struct {
	win  run
	loss run
}

type best struct {
	userID string
	run    run
}

func (b *best) offer(userID string, r run) {
	if r.length == 0 {
		return
	}
	if r.length > b.run.length ||
		(r.length == b.run.length && (r.start.before(b.run.start) ||
			(r.start == b.run.start && userID < b.userID))) {
		b.userID = userID
		b.run = r
	}
}

// Compute walks every matchup of the lineage in chronological order. Streaks
// cross season boundaries. A lineage without matchups yields an empty book.
func Compute(seasons []models.LeagueSeason) Book {
	book := Book{Records: []Record{}, Names: Names(seasons)}

	matchups := History(seasons)
	if len(matchups) == 0 {
		return book
	}

	states := make(map[string]*runState)
	var bestWin, bestLoss best

	high := Record{Category: HighestWeeklyScore, Value: math.Inf(-1)}
	low := Record{Category: LowestWeeklyScore, Value: math.Inf(1)}
	blowout := Record{Category: BiggestBlowout, Value: -1}

	for _, m := range matchups {
		at := Point{Season: m.Season, Week: m.Week}

		for _, side := range []struct {
			user, opp  string
			pts, oppPt float64
		}{
			{m.HomeUserID, m.AwayUserID, m.HomePoints, m.AwayPoints},
			{m.AwayUserID, m.HomeUserID, m.AwayPoints, m.HomePoints},
		} {
			st, ok := states[side.user]
			if !ok {
				st = &runState{}
				states[side.user] = st
			}
			switch {
			case side.pts > side.oppPt:
				st.loss = run{}
				st.win = extend(st.win, at)
				bestWin.offer(side.user, st.win)
			case side.pts < side.oppPt:
				st.win = run{}
				st.loss = extend(st.loss, at)
				bestLoss.offer(side.user, st.loss)
			default:
				st.win = run{}
				st.loss = run{}
			}

			if side.pts > high.Value {
				high = singleWeek(HighestWeeklyScore, side.user, side.opp, side.pts, at)
			}
			if side.pts < low.Value {
				low = singleWeek(LowestWeeklyScore, side.user, side.opp, side.pts, at)
			}
		}

		margin := math.Abs(m.HomePoints - m.AwayPoints)
		if margin > blowout.Value && margin > 0 {
			winner, loser := m.HomeUserID, m.AwayUserID
			if m.AwayPoints > m.HomePoints {
				winner, loser = loser, winner
			}
			blowout = singleWeek(BiggestBlowout, winner, loser, round2(margin), at)
		}
	}

	if champs, ok := championships(seasons); ok {
		book.Records = append(book.Records, champs)
	}
	if bestWin.run.length > 0 {
		book.Records = append(book.Records, streakRecord(LongestWinStreak, bestWin))
	}
	if bestLoss.run.length > 0 {
		book.Records = append(book.Records, streakRecord(LongestLosingStreak, bestLoss))
	}
	book.Records = append(book.Records, high, low)
	if blowout.Value > 0 {
		book.Records = append(book.Records, blowout)
	}

	return book
}

func extend(r run, at Point) run {
	if r.length == 0 {
		r.start = at
	}
	r.length++
	r.end = at
	return r
}

func singleWeek(c Category, user, opp string, value float64, at Point) Record {
	p := at
	return Record{Category: c, Holders: []string{user}, Opponent: opp, Value: value, Start: &p, End: &p}
}

func streakRecord(c Category, b best) Record {
	start, end := b.run.start, b.run.end
	return Record{
		Category: c,
		Holders:  []string{b.userID},
		Value:    float64(b.run.length),
		Start:    &start,
		End:      &end,
	}
}

func championships(seasons []models.LeagueSeason) (Record, bool) {
	counts := make(map[string]int)
	for _, s := range seasons {
		if champ := s.Champion(); champ != "" {
			counts[champ]++
		}
	}

	top := 0
	for _, n := range counts {
		if n > top {
			top = n
		}
	}
	if top == 0 {
		return Record{}, false
	}

	var holders []string
	for user, n := range counts {
		if n == top {
			holders = append(holders, user)
		}
	}
	sort.Strings(holders)

	return Record{Category: MostChampionships, Holders: holders, Value: float64(top)}, true
}

// History returns the valid, played matchups of every season in
// chronological order. Matchups that reference unknown managers are skipped.
func History(seasons []models.LeagueSeason) []models.Matchup {
	var out []models.Matchup
	for _, s := range seasons {
		for _, m := range s.Matchups {
			if !valid(s, m) {
				continue
			}
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].Week < out[j].Week
	})
	return out
}

func valid(s models.LeagueSeason, m models.Matchup) bool {
	err := s.CheckMatchup(m)
	if err != nil && !errors.Is(err, models.ErrUnscored) {
		slog.Warn("Skipping matchup", "league_id", s.LeagueID, "season", m.Season, "week", m.Week,
			"home", m.HomeUserID, "away", m.AwayUserID, "reason", err)
	}
	return err == nil
}

// Names maps user ids to the most recent display name seen in the lineage.
func Names(seasons []models.LeagueSeason) map[string]string {
	ordered := make([]models.LeagueSeason, len(seasons))
	copy(ordered, seasons)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Season < ordered[j].Season })

	names := make(map[string]string)
	for _, s := range ordered {
		for id, name := range s.DisplayNames {
			if name != "" {
				names[id] = name
			}
		}
	}
	return names
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
