package espn

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fortuna/courtside/internal/provider"
)

// ESPN stat labels for dynamic parsing (more robust than hardcoded indices).
const (
	statLabelPoints = "PTS"
	statLabelReb    = "REB"
	statLabelAst    = "AST"
	statLabelStl    = "STL"
	statLabelBlk    = "BLK"
)

// ParseScoreboardGames extracts finished and in-progress games from a
// scoreboard response. An empty events list is normal (off day), not an error.
func ParseScoreboardGames(scoreboardData map[string]interface{}) ([]provider.GameResult, error) {
	events := extractArray(scoreboardData, "events")
	games := make([]provider.GameResult, 0, len(events))

	for _, eventInterface := range events {
		event, ok := eventInterface.(map[string]interface{})
		if !ok {
			continue
		}
		game, err := parseGameFromEvent(event)
		if err != nil {
			continue
		}
		games = append(games, *game)
	}
	return games, nil
}

// FinalGames filters a parsed slate down to completed games. Scheduled and
// in-progress games must never be served as a team's "result": on a game day
// the scoreboard lists today's 0-0 tip-off ahead of yesterday's final.
func FinalGames(games []provider.GameResult) []provider.GameResult {
	finals := make([]provider.GameResult, 0, len(games))
	for _, game := range games {
		if strings.EqualFold(game.Status, "Final") {
			finals = append(finals, game)
		}
	}
	return finals
}

// GamesByEventID indexes a scoreboard's parseable games by event id, so a
// summary fetch can recover its game context even when other events on the
// slate failed to parse.
func GamesByEventID(scoreboardData map[string]interface{}) map[string]provider.GameResult {
	out := make(map[string]provider.GameResult)
	for _, eventInterface := range extractArray(scoreboardData, "events") {
		event, ok := eventInterface.(map[string]interface{})
		if !ok {
			continue
		}
		id := extractString(event, "id")
		if id == "" {
			continue
		}
		if game, err := parseGameFromEvent(event); err == nil {
			out[id] = *game
		}
	}
	return out
}

// EventIDs returns the scoreboard's event ids in page order, used to drive
// per-game summary fetches.
func EventIDs(scoreboardData map[string]interface{}) []string {
	events := extractArray(scoreboardData, "events")
	ids := make([]string, 0, len(events))
	for _, eventInterface := range events {
		if event, ok := eventInterface.(map[string]interface{}); ok {
			if id := extractString(event, "id"); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// EventDate extracts an event's game date, falling back to zero on garbage.
func EventDate(event map[string]interface{}) time.Time {
	dateStr := extractString(event, "date")
	if dateStr == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, dateStr); err == nil {
		return t
	}
	// ESPN sometimes drops the seconds.
	if t, err := time.Parse("2006-01-02T15:04Z", dateStr); err == nil {
		return t
	}
	return time.Time{}
}

func parseGameFromEvent(event map[string]interface{}) (*provider.GameResult, error) {
	competitions := extractArray(event, "competitions")
	if len(competitions) == 0 {
		return nil, fmt.Errorf("event %s has no competitions", extractString(event, "id"))
	}
	comp, ok := competitions[0].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("competition is not an object")
	}

	competitors := extractArray(comp, "competitors")
	if len(competitors) < 2 {
		return nil, fmt.Errorf("need two competitors, got %d", len(competitors))
	}

	game := &provider.GameResult{
		Matchup: extractString(event, "name"),
		Status:  parseGameStatus(extractMap(extractMap(event, "status"), "type")),
	}

	for _, ci := range competitors {
		side, ok := ci.(map[string]interface{})
		if !ok {
			continue
		}
		team := extractMap(side, "team")
		name := fallbackString(extractString(team, "displayName"), extractString(team, "abbreviation"))
		score := parseInt(side["score"])
		winner, _ := side["winner"].(bool)

		if extractString(side, "homeAway") == "home" {
			game.HomeTeam = name
			game.HomeScore = score
			if winner {
				game.Winner = name
			}
		} else {
			game.AwayTeam = name
			game.AwayScore = score
			if winner {
				game.Winner = name
			}
		}
	}

	if game.HomeTeam == "" && game.AwayTeam == "" {
		return nil, fmt.Errorf("no team names in event")
	}
	return game, nil
}

// ParseBoxScoreLines extracts every player line from a game summary. ESPN has
// shipped two shapes for this payload; both are walked, statistics-groups
// first and roster entries as the fallback.
func ParseBoxScoreLines(summaryData map[string]interface{}, game provider.GameResult, gameDate time.Time) []provider.PlayerLine {
	var lines []provider.PlayerLine

	boxscore := extractMap(summaryData, "boxscore")
	if boxscore == nil {
		return nil
	}

	for _, pi := range extractArray(boxscore, "players") {
		teamBlock, ok := pi.(map[string]interface{})
		if !ok {
			continue
		}
		teamMap := extractMap(teamBlock, "team")
		teamAbbr := extractString(teamMap, "abbreviation")
		teamName := fallbackString(extractString(teamMap, "displayName"), teamAbbr)

		for _, si := range extractArray(teamBlock, "statistics") {
			statGroup, ok := si.(map[string]interface{})
			if !ok {
				continue
			}
			statIndex := buildStatIndex(extractArray(statGroup, "labels"))

			for _, ai := range extractArray(statGroup, "athletes") {
				entry, ok := ai.(map[string]interface{})
				if !ok {
					continue
				}
				line := parseAthleteLine(entry, statIndex)
				if line == nil {
					continue
				}
				line.Team = teamAbbr
				line.Opponent = opponentOf(game, teamName)
				line.Matchup = game.Matchup
				line.GameDate = gameDate
				lines = append(lines, *line)
			}
		}
	}

	return lines
}

// parseGameStatus flattens ESPN's status.type object to a short status word.
func parseGameStatus(statusType map[string]interface{}) string {
	switch extractString(statusType, "name") {
	case "STATUS_FINAL":
		return "Final"
	case "STATUS_IN_PROGRESS", "STATUS_HALFTIME", "STATUS_END_PERIOD":
		return "In Progress"
	case "STATUS_SCHEDULED":
		return "Scheduled"
	}
	return fallbackString(extractString(statusType, "description"), extractString(statusType, "state"))
}

// buildStatIndex maps ESPN's label row to column positions.
func buildStatIndex(labels []interface{}) map[string]int {
	index := make(map[string]int, len(labels))
	for i, li := range labels {
		if s, ok := li.(string); ok {
			index[strings.ToUpper(s)] = i
		}
	}
	return index
}

func parseAthleteLine(entry map[string]interface{}, statIndex map[string]int) *provider.PlayerLine {
	athlete := extractMap(entry, "athlete")
	if athlete == nil {
		return nil
	}
	name := fallbackString(extractString(athlete, "fullName"), extractString(athlete, "displayName"))
	if name == "" {
		return nil
	}

	stats := extractArray(entry, "stats")
	statAt := func(label string) int {
		i, ok := statIndex[label]
		if !ok || i >= len(stats) {
			return 0
		}
		s, _ := stats[i].(string)
		return parseStatValue(s)
	}

	line := &provider.PlayerLine{
		PlayerName: name,
		Points:     statAt(statLabelPoints),
		Rebounds:   statAt(statLabelReb),
		Assists:    statAt(statLabelAst),
		Steals:     statAt(statLabelStl),
		Blocks:     statAt(statLabelBlk),
	}

	// An all-zero line means the player did not play; skip it so the
	// aggregator never averages DNPs into a window.
	if line.Points == 0 && line.Rebounds == 0 && line.Assists == 0 {
		return nil
	}
	return line
}

// ParseStandings extracts standing rows from the v2 standings payload, which
// groups teams by conference.
func ParseStandings(standingsData map[string]interface{}) []provider.StandingRow {
	var rows []provider.StandingRow

	for _, ci := range extractArray(standingsData, "children") {
		group, ok := ci.(map[string]interface{})
		if !ok {
			continue
		}
		conference := conferenceName(extractString(group, "name"))
		standings := extractMap(group, "standings")

		for _, ei := range extractArray(standings, "entries") {
			entry, ok := ei.(map[string]interface{})
			if !ok {
				continue
			}
			row := parseStandingEntry(entry, conference)
			if row != nil {
				rows = append(rows, *row)
			}
		}
	}
	return rows
}

func parseStandingEntry(entry map[string]interface{}, conference string) *provider.StandingRow {
	team := extractMap(entry, "team")
	name := fallbackString(extractString(team, "displayName"), extractString(team, "abbreviation"))
	if name == "" {
		return nil
	}

	row := &provider.StandingRow{Team: name, Conference: conference}
	for _, si := range extractArray(entry, "stats") {
		stat, ok := si.(map[string]interface{})
		if !ok {
			continue
		}
		switch strings.ToLower(extractString(stat, "name")) {
		case "wins":
			row.Wins = parseInt(stat["value"])
		case "losses":
			row.Losses = parseInt(stat["value"])
		case "playoffseed":
			row.Rank = parseInt(stat["value"])
		}
	}
	return row
}

func conferenceName(groupName string) string {
	lower := strings.ToLower(groupName)
	switch {
	case strings.Contains(lower, "west"):
		return "West"
	case strings.Contains(lower, "east"):
		return "East"
	}
	return groupName
}

func opponentOf(game provider.GameResult, teamAbbrOrName string) string {
	if teamMatches(game.HomeTeam, teamAbbrOrName) {
		return game.AwayTeam
	}
	return game.HomeTeam
}

func teamMatches(teamName, abbrOrName string) bool {
	if teamName == "" || abbrOrName == "" {
		return false
	}
	return strings.EqualFold(teamName, abbrOrName) ||
		strings.Contains(strings.ToLower(teamName), strings.ToLower(abbrOrName))
}

// Helper functions

func extractString(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func fallbackString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func extractMap(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

func extractArray(m map[string]interface{}, key string) []interface{} {
	if m == nil {
		return nil
	}
	if v, ok := m[key].([]interface{}); ok {
		return v
	}
	return nil
}

func parseInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return 0
}

// parseStatValue extracts a numeric value from stat strings like "5-10" or "15".
func parseStatValue(s string) int {
	s = strings.TrimSpace(s)
	if s == "" || s == "--" {
		return 0
	}
	if idx := strings.Index(s, "-"); idx > 0 {
		s = s[:idx]
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
