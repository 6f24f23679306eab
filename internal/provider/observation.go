package provider

import "time"

// Observation is one provider's answer to one fetch call. ObservedAt is the
// real-world date the underlying game occurred, not the fetch time.
// Observations live for the duration of a single request and are never cached.
type Observation struct {
	SourceID     string
	ObservedAt   time.Time
	Payload      Payload
	FetchLatency time.Duration
}

// Payload is the tagged variant carried by an observation. Provider-specific
// shapes are normalized into one of these inside the adapter, so the
// coordinator and validator never see raw wire formats.
type Payload interface {
	PayloadKind() string
}

// GameResult is a single finished or in-progress game between two teams.
type GameResult struct {
	HomeTeam  string
	AwayTeam  string
	HomeScore int
	AwayScore int

	// Winner is the provider's declared winner. It may disagree with the
	// scores; the validator recomputes it when it does.
	Winner string

	// Matchup is the provider's combined matchup string (e.g.
	// "Knicks vs Magic"), kept so the validator can recover a missing
	// opponent field.
	Matchup string

	Status string
}

func (GameResult) PayloadKind() string { return "game_result" }

// PlayerLine is one player's box-score line for one game.
type PlayerLine struct {
	PlayerName string
	Team       string
	Opponent   string
	Matchup    string
	GameDate   time.Time

	Points   int
	Rebounds int
	Assists  int
	Steals   int
	Blocks   int
}

func (PlayerLine) PayloadKind() string { return "player_line" }

// Stat returns a counting stat by key, used by the aggregator.
func (p PlayerLine) Stat(key string) int {
	switch key {
	case "points":
		return p.Points
	case "rebounds":
		return p.Rebounds
	case "assists":
		return p.Assists
	case "steals":
		return p.Steals
	case "blocks":
		return p.Blocks
	}
	return 0
}

// StandingRow is one team's row in the conference standings.
type StandingRow struct {
	Team       string
	Conference string
	Rank       int
	Wins       int
	Losses     int
}

func (StandingRow) PayloadKind() string { return "standing_row" }
