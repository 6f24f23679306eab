package aggregate

import "strings"

// Stat names used across requests, validated values, and prose.
const (
	StatPoints       = "points"
	StatRebounds     = "rebounds"
	StatAssists      = "assists"
	StatSteals       = "steals"
	StatBlocks       = "blocks"
	StatTripleDouble = "triple_double"
)

// statKeywords maps question phrasing to stat names. More specific phrases
// are listed first so "triple double" never falls through to "double".
var statKeywords = []struct {
	phrases []string
	stat    string
}{
	{[]string{"triple double", "triple-double", "triple doubles", "triple-doubles"}, StatTripleDouble},
	{[]string{"rebound", "board", "boards", "rpg"}, StatRebounds},
	{[]string{"assist", "dime", "dimes", "apg"}, StatAssists},
	{[]string{"steal", "steals", "spg"}, StatSteals},
	{[]string{"block", "blocks", "bpg", "swat"}, StatBlocks},
	{[]string{"point", "points", "score", "scoring", "ppg", "scored"}, StatPoints},
}

// DetectStat finds the stat a question asks about. Specific keywords always
// win over the points default; points is only assumed when no stat keyword
// appears at all.
func DetectStat(question string) string {
	lower := strings.ToLower(question)
	for _, entry := range statKeywords {
		for _, phrase := range entry.phrases {
			if strings.Contains(lower, phrase) {
				return entry.stat
			}
		}
	}
	return StatPoints
}
