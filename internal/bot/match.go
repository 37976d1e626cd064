package bot

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/omarshaarawi/legacybot/internal/analytics/lineage"
)

const matchThreshold = 0.6

// matchLineage picks the lineage a chat user most likely meant. An exact
// name wins, then a name containing the query in order, then the closest
// name by edit distance above the threshold.
func matchLineage(lineages []lineage.Lineage, query string) (lineage.Lineage, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return lineage.Lineage{}, false
	}
	for _, l := range lineages {
		if strings.EqualFold(l.Name, query) {
			return l, true
		}
	}
	for _, l := range lineages {
		if fuzzy.MatchFold(query, l.Name) {
			return l, true
		}
	}

	var best *lineage.Lineage
	bestScore := matchThreshold
	for i, l := range lineages {
		distance := fuzzy.LevenshteinDistance(strings.ToLower(query), strings.ToLower(l.Name))
		maxLen := float64(max(len(query), len(l.Name)))
		similarity := 1 - float64(distance)/maxLen
		if similarity > bestScore {
			bestScore = similarity
			best = &lineages[i]
		}
	}
	if best == nil {
		return lineage.Lineage{}, false
	}
	return *best, true
}
