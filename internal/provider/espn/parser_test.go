package espn

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtside/internal/provider"
)

func decode(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

const scoreboardFixture = `{
	"events": [
		{
			"id": "401705123",
			"date": "2025-03-12T00:30Z",
			"name": "Orlando Magic at New York Knicks",
			"status": {"type": {"name": "STATUS_FINAL"}},
			"competitions": [
				{
					"competitors": [
						{
							"homeAway": "home",
							"winner": true,
							"score": "112",
							"team": {"displayName": "New York Knicks", "abbreviation": "NYK"}
						},
						{
							"homeAway": "away",
							"winner": false,
							"score": "98",
							"team": {"displayName": "Orlando Magic", "abbreviation": "ORL"}
						}
					]
				}
			]
		},
		{
			"id": "401705124",
			"date": "garbage",
			"name": "broken event",
			"competitions": []
		}
	]
}`

func TestParseScoreboardGames(t *testing.T) {
	games, err := ParseScoreboardGames(decode(t, scoreboardFixture))
	require.NoError(t, err)
	require.Len(t, games, 1)

	game := games[0]
	assert.Equal(t, "New York Knicks", game.HomeTeam)
	assert.Equal(t, "Orlando Magic", game.AwayTeam)
	assert.Equal(t, 112, game.HomeScore)
	assert.Equal(t, 98, game.AwayScore)
	assert.Equal(t, "New York Knicks", game.Winner)
	assert.Equal(t, "Final", game.Status)
	assert.Equal(t, "Orlando Magic at New York Knicks", game.Matchup)
}

func TestParseScoreboardEmptyIsOffDay(t *testing.T) {
	games, err := ParseScoreboardGames(decode(t, `{"events": []}`))
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestFinalGames(t *testing.T) {
	// A game-day scoreboard lists tonight's tip-off ahead of yesterday's
	// final; only completed games survive the filter.
	slate := []provider.GameResult{
		{HomeTeam: "New York Knicks", AwayTeam: "Boston Celtics", Status: "Scheduled"},
		{HomeTeam: "Orlando Magic", AwayTeam: "Miami Heat", Status: "In Progress"},
		{HomeTeam: "New York Knicks", AwayTeam: "Orlando Magic", HomeScore: 112, AwayScore: 98, Status: "Final"},
		{HomeTeam: "Boston Celtics", AwayTeam: "Miami Heat", HomeScore: 105, AwayScore: 99, Status: "final"},
	}

	finals := FinalGames(slate)
	require.Len(t, finals, 2)
	assert.Equal(t, "Orlando Magic", finals[0].AwayTeam)
	assert.Equal(t, "Boston Celtics", finals[1].HomeTeam)
}

func TestEventIDs(t *testing.T) {
	ids := EventIDs(decode(t, scoreboardFixture))
	assert.Equal(t, []string{"401705123", "401705124"}, ids)
}

func TestGamesByEventID(t *testing.T) {
	games := GamesByEventID(decode(t, scoreboardFixture))
	require.Len(t, games, 1)
	assert.Equal(t, "New York Knicks", games["401705123"].HomeTeam)
}

func TestEventDate(t *testing.T) {
	// ESPN drops the seconds on scoreboard dates.
	d := EventDate(map[string]interface{}{"date": "2025-03-12T00:30Z"})
	assert.Equal(t, time.Date(2025, 3, 12, 0, 30, 0, 0, time.UTC), d)

	d = EventDate(map[string]interface{}{"date": "2025-03-12T00:30:00Z"})
	assert.Equal(t, time.Date(2025, 3, 12, 0, 30, 0, 0, time.UTC), d)

	assert.True(t, EventDate(map[string]interface{}{"date": "not a date"}).IsZero())
}

const summaryFixture = `{
	"boxscore": {
		"players": [
			{
				"team": {"displayName": "New York Knicks", "abbreviation": "NYK"},
				"statistics": [
					{
						"labels": ["MIN", "FG", "PTS", "REB", "AST", "STL", "BLK"],
						"athletes": [
							{
								"athlete": {"fullName": "Jalen Brunson"},
								"stats": ["36", "12-21", "32", "4", "7", "2", "0"]
							},
							{
								"athlete": {"fullName": "Deep Bench Guy"},
								"stats": ["0", "0-0", "0", "0", "0", "0", "0"]
							}
						]
					}
				]
			}
		]
	}
}`

func TestParseBoxScoreLines(t *testing.T) {
	game, date := testGame(), time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	lines := ParseBoxScoreLines(decode(t, summaryFixture), game, date)

	// The DNP line must have been skipped.
	require.Len(t, lines, 1)
	line := lines[0]
	assert.Equal(t, "Jalen Brunson", line.PlayerName)
	assert.Equal(t, 32, line.Points)
	assert.Equal(t, 4, line.Rebounds)
	assert.Equal(t, 7, line.Assists)
	assert.Equal(t, 2, line.Steals)
	assert.Equal(t, "NYK", line.Team)
	assert.Equal(t, "Orlando Magic", line.Opponent)
	assert.Equal(t, date, line.GameDate)
}

func TestParseBoxScoreMissingBoxscore(t *testing.T) {
	lines := ParseBoxScoreLines(decode(t, `{"header": {}}`), testGame(), time.Now())
	assert.Empty(t, lines)
}

const standingsFixture = `{
	"children": [
		{
			"name": "Eastern Conference",
			"standings": {
				"entries": [
					{
						"team": {"displayName": "Boston Celtics"},
						"stats": [
							{"name": "wins", "value": 48},
							{"name": "losses", "value": 16},
							{"name": "playoffSeed", "value": 2}
						]
					}
				]
			}
		},
		{
			"name": "Western Conference",
			"standings": {
				"entries": [
					{
						"team": {"displayName": "Oklahoma City Thunder"},
						"stats": [
							{"name": "wins", "value": 52},
							{"name": "losses", "value": 12},
							{"name": "playoffSeed", "value": 1}
						]
					}
				]
			}
		}
	]
}`

func TestParseStandings(t *testing.T) {
	rows := ParseStandings(decode(t, standingsFixture))
	require.Len(t, rows, 2)

	assert.Equal(t, "Boston Celtics", rows[0].Team)
	assert.Equal(t, "East", rows[0].Conference)
	assert.Equal(t, 48, rows[0].Wins)
	assert.Equal(t, 16, rows[0].Losses)
	assert.Equal(t, 2, rows[0].Rank)

	assert.Equal(t, "Oklahoma City Thunder", rows[1].Team)
	assert.Equal(t, "West", rows[1].Conference)
	assert.Equal(t, 1, rows[1].Rank)
}

func TestParseStatValue(t *testing.T) {
	assert.Equal(t, 5, parseStatValue("5-10"))
	assert.Equal(t, 15, parseStatValue("15"))
	assert.Equal(t, 0, parseStatValue("--"))
	assert.Equal(t, 0, parseStatValue(""))
}

func testGame() provider.GameResult {
	return provider.GameResult{
		HomeTeam:  "New York Knicks",
		AwayTeam:  "Orlando Magic",
		HomeScore: 112,
		AwayScore: 98,
		Winner:    "New York Knicks",
		Matchup:   "Orlando Magic at New York Knicks",
		Status:    "Final",
	}
}
