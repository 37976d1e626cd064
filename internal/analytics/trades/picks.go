package trades

import "github.com/omarshaarawi/legacybot/internal/models"

// ResolvePicks matches every traded pick against the lineage's draft for
// that season. Picks whose draft has run become resolved and carry the
// drafted player; picks whose draft order is set but not yet used gain a
// slot. The input is not modified.
func ResolvePicks(seasons []models.LeagueSeason) []models.LeagueSeason {
	bySeason := make(map[int]models.LeagueSeason, len(seasons))
	for _, s := range seasons {
		bySeason[s.Season] = s
	}

	out := make([]models.LeagueSeason, len(seasons))
	for i, s := range seasons {
		out[i] = s
		if len(s.Trades) == 0 {
			continue
		}
		trades := make([]models.Trade, len(s.Trades))
		for j, t := range s.Trades {
			assets := make([]models.Asset, len(t.Assets))
			for k, a := range t.Assets {
				if a.Kind == models.AssetPick {
					a = resolvePick(a, bySeason)
				}
				assets[k] = a
			}
			t.Assets = assets
			trades[j] = t
		}
		out[i].Trades = trades
	}
	return out
}

func resolvePick(a models.Asset, bySeason map[int]models.LeagueSeason) models.Asset {
	draftSeason, ok := bySeason[a.PickSeason]
	if !ok || a.PickRosterID == 0 {
		return a
	}
	slot, ok := draftSeason.DraftSlots[a.PickRosterID]
	if !ok || slot <= 0 {
		return a
	}
	a.PickSlot = &slot

	for _, p := range draftSeason.Draft {
		if p.Round == a.PickRound && p.Slot == slot && p.PlayerID != "" {
			a.PickStatus = models.PickResolved
			a.PlayerID = p.PlayerID
			a.Name = p.Name
			a.Position = p.Position
			break
		}
	}
	return a
}
