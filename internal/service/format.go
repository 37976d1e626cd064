package service

import (
	"fmt"
	"strings"

	"github.com/omarshaarawi/legacybot/internal/analytics/drafts"
	"github.com/omarshaarawi/legacybot/internal/analytics/grade"
	"github.com/omarshaarawi/legacybot/internal/analytics/lineage"
	"github.com/omarshaarawi/legacybot/internal/analytics/records"
	"github.com/omarshaarawi/legacybot/internal/analytics/trades"
	"github.com/omarshaarawi/legacybot/internal/analytics/trajectory"
)

var recordTitles = map[records.Category]string{
	records.MostChampionships:   "Most Championships",
	records.LongestWinStreak:    "Longest Win Streak",
	records.LongestLosingStreak: "Longest Losing Streak",
	records.HighestWeeklyScore:  "Highest Weekly Score",
	records.LowestWeeklyScore:   "Lowest Weekly Score",
	records.BiggestBlowout:      "Biggest Blowout",
}

func FormatLineages(user User, lineages []lineage.Lineage) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📚 *Leagues for %s:*\n\n", user.DisplayName))
	if len(lineages) == 0 {
		sb.WriteString("No leagues found.\n")
		return sb.String()
	}
	for _, l := range lineages {
		if l.Oldest() == l.Latest() {
			sb.WriteString(fmt.Sprintf("• %s (%d)\n", l.Name, l.Latest()))
			continue
		}
		sb.WriteString(fmt.Sprintf("• %s (%d-%d, %d seasons)\n", l.Name, l.Oldest(), l.Latest(), len(l.Seasons)))
	}
	return sb.String()
}

func FormatOverview(o *Overview) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏈 *%s*\n\n", o.League))

	if c, ok := o.Career(); ok {
		sb.WriteString(fmt.Sprintf("Your record: %d-%d-%d (%.1f%%), %d titles\n", c.Wins, c.Losses, c.Ties, c.WinPct()*100, c.Titles))
		if c.PlayoffWins+c.PlayoffLosses > 0 {
			sb.WriteString(fmt.Sprintf("Playoffs: %d-%d\n", c.PlayoffWins, c.PlayoffLosses))
		}
		if c.BestSeason != nil {
			sb.WriteString(fmt.Sprintf("Best season: %d (%d-%d)\n", c.BestSeason.Season, c.BestSeason.Wins, c.BestSeason.Losses))
		}
		if c.WorstSeason != nil {
			sb.WriteString(fmt.Sprintf("Worst season: %d (%d-%d)\n", c.WorstSeason.Season, c.WorstSeason.Wins, c.WorstSeason.Losses))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("*All-time standings:*\n")
	for i, c := range o.Careers {
		sb.WriteString(fmt.Sprintf("%d. %s: %d-%d-%d, %.2f PF", i+1, c.Name, c.Wins, c.Losses, c.Ties, c.PointsFor))
		if c.Titles > 0 {
			sb.WriteString(fmt.Sprintf(" %s", strings.Repeat("🏆", c.Titles)))
		}
		sb.WriteString("\n")
	}

	if len(o.Champions) > 0 {
		sb.WriteString("\n*Champions:*\n")
		for _, ch := range o.Champions {
			sb.WriteString(fmt.Sprintf("%d: %s\n", ch.Season, ch.Name))
		}
	}
	return sb.String()
}

func FormatRecords(book records.Book) string {
	var sb strings.Builder
	sb.WriteString("📜 *League Records:*\n\n")
	if len(book.Records) == 0 {
		sb.WriteString("No games played yet.\n")
		return sb.String()
	}
	for _, r := range book.Records {
		holders := make([]string, len(r.Holders))
		for i, h := range r.Holders {
			holders[i] = nameOr(book.Names, h)
		}
		who := strings.Join(holders, ", ")

		switch r.Category {
		case records.LongestWinStreak, records.LongestLosingStreak:
			sb.WriteString(fmt.Sprintf("%s: %s (%.0f games", recordTitles[r.Category], who, r.Value))
			if r.Start != nil && r.End != nil {
				sb.WriteString(fmt.Sprintf(", %d wk %d to %d wk %d", r.Start.Season, r.Start.Week, r.End.Season, r.End.Week))
			}
			sb.WriteString(")\n")
		case records.MostChampionships:
			sb.WriteString(fmt.Sprintf("%s: %s (%.0f)\n", recordTitles[r.Category], who, r.Value))
		case records.BiggestBlowout:
			sb.WriteString(fmt.Sprintf("%s: %s over %s (Margin: %.2f, %d wk %d)\n",
				recordTitles[r.Category], who, nameOr(book.Names, r.Opponent), r.Value, r.Start.Season, r.Start.Week))
		default:
			sb.WriteString(fmt.Sprintf("%s: %s (%.2f, %d wk %d)\n", recordTitles[r.Category], who, r.Value, r.Start.Season, r.Start.Week))
		}
	}
	return sb.String()
}

func FormatLuck(r *LuckReport) string {
	var sb strings.Builder
	sb.WriteString("🍀 *Luck (actual vs all-play wins):*\n\n")
	if !r.Available {
		sb.WriteString(fmt.Sprintf("Not available: %s\n", r.Reason))
		return sb.String()
	}
	for _, m := range r.Totals {
		sb.WriteString(fmt.Sprintf("%s: %+.2f (%.1f actual, %.2f expected)\n",
			nameOr(r.Names, m.UserID), m.Luck, m.ActualWins, m.ExpectedWins))
	}
	return sb.String()
}

func FormatTrades(r *TradeReport) string {
	var sb strings.Builder
	sb.WriteString("🔁 *Trade History:*\n\n")
	if len(r.Managers) == 0 {
		sb.WriteString("No trades found.\n")
		return sb.String()
	}
	if !r.Valued {
		sb.WriteString("_Player values unavailable, showing counts only._\n\n")
	}
	for _, m := range r.Managers {
		if !m.Valued {
			sb.WriteString(fmt.Sprintf("%s: %d trades\n", m.Name, m.Trades))
			continue
		}
		sb.WriteString(fmt.Sprintf("%s: %s, %d-%d-%d, net %+.0f, %d trades",
			m.Name, gradeLabel(m.Grade), m.Wins, m.Losses, m.Pushes, m.NetValue, m.Trades))
		if m.PartnerName != "" {
			sb.WriteString(fmt.Sprintf(", most with %s (%d)", m.PartnerName, m.PartnerTrades))
		}
		sb.WriteString("\n")
	}

	for _, season := range r.Seasons {
		if season.Lopsided == nil {
			continue
		}
		t := season.Lopsided
		sb.WriteString(fmt.Sprintf("\nMost lopsided of %d: week %d, margin %.0f\n", season.Season, t.Week, t.Margin()))
		for _, side := range t.Sides {
			sb.WriteString(fmt.Sprintf("  %s got %s (%+.0f)\n", side.Name, assetList(side.Received), side.Net))
		}
	}
	return sb.String()
}

func assetList(assets []trades.ValuedAsset) string {
	if len(assets) == 0 {
		return "nothing"
	}
	names := make([]string, len(assets))
	for i, a := range assets {
		switch {
		case a.Name != "":
			names[i] = a.Name
		case a.PickRound > 0:
			names[i] = fmt.Sprintf("%d round %d pick", a.PickSeason, a.PickRound)
		default:
			names[i] = a.PlayerID
		}
	}
	return strings.Join(names, ", ")
}

func FormatDrafts(d drafts.LineageDrafts) string {
	var sb strings.Builder
	sb.WriteString("🎯 *Draft Grades:*\n\n")
	if !d.Available {
		sb.WriteString(fmt.Sprintf("Not available: %s\n", d.Reason))
		return sb.String()
	}
	for _, m := range d.Managers {
		sb.WriteString(fmt.Sprintf("%s: %s, %d hits / %d busts in %d picks (%+.1f surplus)\n",
			m.Name, gradeLabel(m.Grade), m.Hits, m.Busts, m.Picks-m.Keepers, m.TotalSurplus))
		if m.Best != nil {
			sb.WriteString(fmt.Sprintf("  Best: %s, %d round %d (%+.1f)\n", m.Best.PlayerName, m.Best.Season, m.Best.Round, *m.Best.Surplus))
		}
		if m.Worst != nil {
			sb.WriteString(fmt.Sprintf("  Worst: %s, %d round %d (%+.1f)\n", m.Worst.PlayerName, m.Worst.Season, m.Worst.Round, *m.Worst.Surplus))
		}
	}
	for _, s := range d.Seasons {
		if !s.Available {
			sb.WriteString(fmt.Sprintf("\n_%d skipped: %s_", s.Season, s.Reason))
		}
	}
	return sb.String()
}

func FormatTrajectory(ts []trajectory.Trajectory) string {
	var sb strings.Builder
	sb.WriteString("📈 *Wins Above Replacement:*\n\n")
	shown := 0
	for _, t := range ts {
		if !t.Available {
			continue
		}
		shown++
		seasons := make([]string, len(t.Points))
		draft, trade, fa := 0.0, 0.0, 0.0
		for i, p := range t.Points {
			seasons[i] = fmt.Sprintf("%d: %+.1f", p.Season, p.WAR)
			draft, trade, fa = draft+p.Draft, trade+p.Trade, fa+p.FreeAgent
		}
		sb.WriteString(fmt.Sprintf("%s: %+.2f (%s)\n", t.Name, t.Total, strings.Join(seasons, ", ")))
		sb.WriteString(fmt.Sprintf("  draft %+.1f, trades %+.1f, free agents %+.1f\n", draft, trade, fa))
	}
	if shown == 0 {
		sb.WriteString("No completed seasons yet.\n")
	}
	return sb.String()
}

func FormatOutlook(r *OutlookReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔮 *Outlook from %d:*\n\n", r.Season))

	o := r.User
	if !o.Available {
		sb.WriteString(fmt.Sprintf("Your outlook is not available: %s\n", o.Reason))
	} else {
		sb.WriteString(fmt.Sprintf("You are *%s* (avg age %.1f)\n", o.Label, o.AverageAge))
		if o.Current != nil {
			sb.WriteString(fmt.Sprintf("Now: #%d of %d\n", o.Current.Rank, o.Teams))
		}
		for _, p := range o.Projections {
			sb.WriteString(fmt.Sprintf("%d: #%d of %d\n", p.Season, p.Rank, o.Teams))
		}
		if n := len(o.Unranked); n > 0 {
			sb.WriteString(fmt.Sprintf("_%d team(s) unranked, missing player ages_\n", n))
		}
	}

	sb.WriteString("\n*League:*\n")
	for _, lo := range r.League {
		name := nameOr(r.Names, lo.UserID)
		if !lo.Available {
			sb.WriteString(fmt.Sprintf("%s: n/a\n", name))
			continue
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", name, lo.Label))
	}
	if r.ValuedAt != nil {
		sb.WriteString(fmt.Sprintf("\n_Values as of %s_\n", r.ValuedAt.Format("Jan 2, 2006")))
	}
	return sb.String()
}

func FormatRecap(r *WeeklyRecap) string {
	var sb strings.Builder
	if r.Week == 0 {
		sb.WriteString(fmt.Sprintf("No scores yet for %s %d.\n", r.League, r.Season))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("📊 *%s, Week %d Final Scores:*\n\n", r.League, r.Week))
	for _, m := range r.Scores {
		sb.WriteString(fmt.Sprintf("%s %.2f - %.2f %s\n", m.Home, m.HomePoints, m.AwayPoints, m.Away))
	}

	sb.WriteString("\n🏆 *Trophies:*\n")
	for _, t := range r.Trophies {
		switch t.Category {
		case "High Score":
			sb.WriteString(fmt.Sprintf("Highest Score: %s (%.2f)\n", t.Name, t.Value))
		case "Low Score":
			sb.WriteString(fmt.Sprintf("Lowest Score: %s (%.2f)\n", t.Name, t.Value))
		case "Biggest Win":
			sb.WriteString(fmt.Sprintf("Biggest Win: %s (Margin: %.2f)\n", t.Name, t.Value))
		case "Closest Win":
			sb.WriteString(fmt.Sprintf("Closest Win: %s (Margin: %.2f)\n", t.Name, t.Value))
		}
	}
	return sb.String()
}

func gradeLabel(b *grade.Band) string {
	if b == nil {
		return "ungraded"
	}
	return b.Label
}
