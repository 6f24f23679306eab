package espn

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/entity"
	"github.com/fortuna/courtside/internal/provider"
)

const sourceID = "espn"

// maxSummariesPerDay bounds how many per-game summary fetches one day of the
// scan may cost. A slate is at most 15 games; most player queries hit within
// the first few.
const maxSummariesPerDay = 8

// Adapter is the primary provider: freshest data, name-based matching, no
// remote id lookup needed.
type Adapter struct {
	client *Client
	log    *logrus.Logger
}

// NewAdapter creates the ESPN adapter.
func NewAdapter(client *Client, log *logrus.Logger) *Adapter {
	if log == nil {
		log = logrus.New()
	}
	return &Adapter{client: client, log: log}
}

func (a *Adapter) SourceID() string { return sourceID }

func (a *Adapter) Supports(c provider.Capability) bool {
	switch c {
	case provider.CapRecentGames, provider.CapPlayerStats, provider.CapStandings,
		provider.CapTeamResult, provider.CapUpcomingGame:
		return true
	}
	return false
}

// RequiresProviderID is false: ESPN box scores carry full player names, so the
// adapter matches by name without a separate id discovery scan.
func (a *Adapter) RequiresProviderID() bool { return false }

// FetchRecentGames scans day by day from today backwards, newest first,
// collecting finished games that involve the subject (or all games when the
// subject is nil).
func (a *Adapter) FetchRecentGames(ctx context.Context, subject *entity.Entity, since time.Time, limit int) ([]provider.Observation, error) {
	start := time.Now()
	var observations []provider.Observation

	for day := time.Now(); !day.Before(since); day = day.AddDate(0, 0, -1) {
		if err := ctx.Err(); err != nil {
			return nil, a.wrapCtxErr(err)
		}

		scoreboard, err := a.client.FetchScoreboard(ctx, day)
		if err != nil {
			a.logFailure("scoreboard", day, err)
			continue
		}

		games, _ := ParseScoreboardGames(scoreboard)
		for _, game := range FinalGames(games) {
			if subject != nil && !gameInvolves(game, subject) {
				continue
			}
			observations = append(observations, provider.Observation{
				SourceID:     sourceID,
				ObservedAt:   day,
				Payload:      game,
				FetchLatency: time.Since(start),
			})
			if limit > 0 && len(observations) >= limit {
				return observations, nil
			}
		}
	}

	if len(observations) == 0 {
		return nil, provider.Errf(sourceID, provider.FailEmpty, "no games since %s", since.Format("2006-01-02"))
	}
	return observations, nil
}

// FetchPlayerStats walks recent scoreboards and their box scores looking for
// the subject's lines. A provider hint is unnecessary here but a nil subject
// switches to league-wide collection for the aggregator.
func (a *Adapter) FetchPlayerStats(ctx context.Context, subject *entity.Entity, providerHint string, windowDays int) ([]provider.Observation, error) {
	start := time.Now()
	if windowDays <= 0 {
		windowDays = 14
	}

	var observations []provider.Observation
	today := time.Now()

	for daysBack := 0; daysBack < windowDays; daysBack++ {
		if err := ctx.Err(); err != nil {
			return nil, a.wrapCtxErr(err)
		}

		day := today.AddDate(0, 0, -daysBack)
		scoreboard, err := a.client.FetchScoreboard(ctx, day)
		if err != nil {
			a.logFailure("scoreboard", day, err)
			continue
		}

		gamesByID := GamesByEventID(scoreboard)
		ids := EventIDs(scoreboard)

		fetched := 0
		for _, eventID := range ids {
			if fetched >= maxSummariesPerDay {
				break
			}
			if err := ctx.Err(); err != nil {
				return nil, a.wrapCtxErr(err)
			}

			summary, err := a.client.FetchGameSummary(ctx, eventID)
			if err != nil {
				a.logFailure("summary", day, err)
				continue
			}
			fetched++

			game := gamesByID[eventID]

			for _, line := range ParseBoxScoreLines(summary, game, day) {
				if subject != nil && !playerMatches(line.PlayerName, subject.CanonicalName) {
					continue
				}
				observations = append(observations, provider.Observation{
					SourceID:     sourceID,
					ObservedAt:   line.GameDate,
					Payload:      line,
					FetchLatency: time.Since(start),
				})
				if subject != nil {
					// One line per game is all a last-game query needs;
					// keep scanning days for windowed aggregates.
					break
				}
			}
		}
	}

	if len(observations) == 0 {
		name := "league"
		if subject != nil {
			name = subject.CanonicalName
		}
		return nil, provider.Errf(sourceID, provider.FailEmpty, "no box-score lines for %s in last %d days", name, windowDays)
	}
	return observations, nil
}

// FetchStandings fetches current standings, optionally one conference.
func (a *Adapter) FetchStandings(ctx context.Context, conference string) ([]provider.Observation, error) {
	start := time.Now()

	data, err := a.client.FetchStandings(ctx)
	if err != nil {
		return nil, a.classify(err)
	}

	rows := ParseStandings(data)
	observations := make([]provider.Observation, 0, len(rows))
	for _, row := range rows {
		if conference != "" && !strings.EqualFold(row.Conference, conference) {
			continue
		}
		observations = append(observations, provider.Observation{
			SourceID:     sourceID,
			ObservedAt:   time.Now(),
			Payload:      row,
			FetchLatency: time.Since(start),
		})
	}

	if len(observations) == 0 {
		return nil, provider.Errf(sourceID, provider.FailEmpty, "standings empty for conference %q", conference)
	}
	return observations, nil
}

// FetchTeamResult returns the subject team's most recent game in the window.
func (a *Adapter) FetchTeamResult(ctx context.Context, subject *entity.Entity, windowDays int) (*provider.Observation, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	since := time.Now().AddDate(0, 0, -windowDays)

	observations, err := a.FetchRecentGames(ctx, subject, since, 1)
	if err != nil {
		return nil, err
	}
	return &observations[0], nil
}

// FetchUpcomingGame scans forward day by day for the subject's next game that
// has not finished yet: today's scheduled or in-progress tip-off, or the next
// slate it appears on.
func (a *Adapter) FetchUpcomingGame(ctx context.Context, subject *entity.Entity, windowDays int) (*provider.Observation, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	start := time.Now()

	for daysAhead := 0; daysAhead <= windowDays; daysAhead++ {
		if err := ctx.Err(); err != nil {
			return nil, a.wrapCtxErr(err)
		}

		day := time.Now().AddDate(0, 0, daysAhead)
		scoreboard, err := a.client.FetchScoreboard(ctx, day)
		if err != nil {
			a.logFailure("scoreboard", day, err)
			continue
		}

		games, _ := ParseScoreboardGames(scoreboard)
		for _, game := range games {
			if !gameInvolves(game, subject) || strings.EqualFold(game.Status, "Final") {
				continue
			}
			return &provider.Observation{
				SourceID:     sourceID,
				ObservedAt:   day,
				Payload:      game,
				FetchLatency: time.Since(start),
			}, nil
		}
	}

	return nil, provider.Errf(sourceID, provider.FailEmpty, "no upcoming game for %s in next %d days", subject.CanonicalName, windowDays)
}

// classify converts a transport error into the failure taxonomy.
func (a *Adapter) classify(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "context deadline exceeded") || strings.Contains(msg, "signal: killed"):
		return &provider.FetchError{Source: sourceID, Reason: provider.FailTimeout, Err: err}
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate"):
		return &provider.FetchError{Source: sourceID, Reason: provider.FailRateLimited, Err: err}
	case strings.Contains(msg, "decoding") || strings.Contains(msg, "HTML"):
		return &provider.FetchError{Source: sourceID, Reason: provider.FailMalformed, Err: err}
	}
	return &provider.FetchError{Source: sourceID, Reason: provider.FailEmpty, Err: err}
}

func (a *Adapter) wrapCtxErr(err error) error {
	return &provider.FetchError{Source: sourceID, Reason: provider.FailTimeout, Err: err}
}

func (a *Adapter) logFailure(stage string, day time.Time, err error) {
	a.log.WithFields(logrus.Fields{
		"component": "espn-adapter",
		"stage":     stage,
		"date":      day.Format("2006-01-02"),
		"error":     err.Error(),
	}).Debug("fetch step failed, continuing scan")
}

// gameInvolves reports whether either side of a game is the subject team.
func gameInvolves(game provider.GameResult, team *entity.Entity) bool {
	for _, side := range []string{game.HomeTeam, game.AwayTeam} {
		if teamMatches(side, team.CanonicalName) || teamMatches(side, team.Abbreviation) {
			return true
		}
	}
	return false
}

// playerMatches requires every part of the canonical name to appear in the
// box-score name, so "LeBron James" matches "LeBron James Sr." but a lone
// surname never matches a teammate.
func playerMatches(boxScoreName, canonicalName string) bool {
	full := strings.ToLower(boxScoreName)
	for _, part := range strings.Fields(strings.ToLower(canonicalName)) {
		if !strings.Contains(full, part) {
			return false
		}
	}
	return canonicalName != ""
}
