package balldontlie

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/entity"
	"github.com/fortuna/courtside/internal/provider"
)

const sourceID = "balldontlie"

// teamIDs maps league abbreviations to Ball Don't Lie's stable team ids.
var teamIDs = map[string]int{
	"ATL": 1, "BOS": 2, "BKN": 3, "CHA": 4, "CHI": 5, "CLE": 6,
	"DAL": 7, "DEN": 8, "DET": 9, "GSW": 10, "HOU": 11, "IND": 12,
	"LAC": 13, "LAL": 14, "MEM": 15, "MIA": 16, "MIL": 17, "MIN": 18,
	"NOP": 19, "NYK": 20, "OKC": 21, "ORL": 22, "PHI": 23, "PHX": 24,
	"POR": 25, "SAC": 26, "SAS": 27, "TOR": 28, "UTA": 29, "WAS": 30,
}

// IDCache stores player ids discovered through the remote search so later
// requests can skip it. Implementations must be safe to call with a nil
// receiver semantics handled by the adapter (a nil cache disables caching).
type IDCache interface {
	GetPlayerID(ctx context.Context, source, canonicalName string) (string, bool)
	SetPlayerID(ctx context.Context, source, canonicalName, id string)
}

// Adapter is the secondary provider. Player queries need a numeric player id,
// which costs a remote search when no hint or cached id is available — that is
// why the coordinator's fast path may skip this adapter.
type Adapter struct {
	client  *Client
	idCache IDCache
	log     *logrus.Logger
}

// NewAdapter creates the Ball Don't Lie adapter. idCache may be nil.
func NewAdapter(client *Client, idCache IDCache, log *logrus.Logger) *Adapter {
	if log == nil {
		log = logrus.New()
	}
	return &Adapter{client: client, idCache: idCache, log: log}
}

func (a *Adapter) SourceID() string { return sourceID }

func (a *Adapter) Supports(c provider.Capability) bool {
	switch c {
	case provider.CapPlayerStats, provider.CapRecentGames, provider.CapTeamResult, provider.CapUpcomingGame:
		return true
	}
	return false
}

func (a *Adapter) RequiresProviderID() bool { return true }

// FetchPlayerStats resolves the player id (hint, cache, then remote search)
// and maps the season stat rows that fall inside the window.
func (a *Adapter) FetchPlayerStats(ctx context.Context, subject *entity.Entity, providerHint string, windowDays int) ([]provider.Observation, error) {
	if subject == nil {
		// League-wide scans are an ESPN-shaped operation; this API is
		// strictly per-player.
		return nil, provider.Errf(sourceID, provider.FailEmpty, "league-wide player stats not available")
	}
	if windowDays <= 0 {
		windowDays = 14
	}
	start := time.Now()

	playerID, err := a.resolvePlayerID(ctx, subject, providerHint)
	if err != nil {
		return nil, err
	}

	rows, err := a.client.PlayerStats(ctx, playerID, currentSeason(time.Now()), 25)
	if err != nil {
		return nil, a.classify(err)
	}

	cutoff := time.Now().AddDate(0, 0, -windowDays)
	var observations []provider.Observation
	for _, row := range rows {
		line, gameDate, ok := mapStatRow(row)
		if !ok || gameDate.Before(cutoff) {
			continue
		}
		// A hinted or cached id can be stale or belong to another provider's
		// id space; drop rows whose player is not the subject rather than
		// serving a stranger's line under the subject's name.
		if !lineMatchesSubject(line.PlayerName, subject.CanonicalName) {
			a.log.WithFields(logrus.Fields{
				"component": "balldontlie-adapter",
				"subject":   subject.CanonicalName,
				"row":       line.PlayerName,
			}).Warn("⚠️  stat row names a different player, dropping")
			continue
		}
		observations = append(observations, provider.Observation{
			SourceID:     sourceID,
			ObservedAt:   gameDate,
			Payload:      line,
			FetchLatency: time.Since(start),
		})
	}

	if len(observations) == 0 {
		return nil, provider.Errf(sourceID, provider.FailEmpty, "no stat rows for %s in last %d days", subject.CanonicalName, windowDays)
	}
	return observations, nil
}

// FetchRecentGames lists the subject team's games in the window, newest first.
func (a *Adapter) FetchRecentGames(ctx context.Context, subject *entity.Entity, since time.Time, limit int) ([]provider.Observation, error) {
	if subject == nil {
		return nil, provider.Errf(sourceID, provider.FailEmpty, "league-wide games not available")
	}
	teamID, ok := teamIDs[subject.Abbreviation]
	if !ok {
		return nil, provider.Errf(sourceID, provider.FailEmpty, "no team id for %q", subject.Abbreviation)
	}
	start := time.Now()

	rows, err := a.client.TeamGames(ctx, teamID, since, time.Now())
	if err != nil {
		return nil, a.classify(err)
	}

	var observations []provider.Observation
	for i := len(rows) - 1; i >= 0; i-- { // API pages oldest first
		game, gameDate, ok := mapGameRow(rows[i])
		if !ok {
			continue
		}
		observations = append(observations, provider.Observation{
			SourceID:     sourceID,
			ObservedAt:   gameDate,
			Payload:      game,
			FetchLatency: time.Since(start),
		})
		if limit > 0 && len(observations) >= limit {
			break
		}
	}

	if len(observations) == 0 {
		return nil, provider.Errf(sourceID, provider.FailEmpty, "no games for %s since %s", subject.CanonicalName, since.Format("2006-01-02"))
	}
	return observations, nil
}

// FetchStandings is not served by this API tier.
func (a *Adapter) FetchStandings(ctx context.Context, conference string) ([]provider.Observation, error) {
	return nil, provider.ErrUnsupported
}

// FetchUpcomingGame returns the team's next unfinished game in the forward
// window. The games endpoint serves future fixtures with the tip-off time in
// the status field until the game goes final.
func (a *Adapter) FetchUpcomingGame(ctx context.Context, subject *entity.Entity, windowDays int) (*provider.Observation, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	teamID, ok := teamIDs[subject.Abbreviation]
	if !ok {
		return nil, provider.Errf(sourceID, provider.FailEmpty, "no team id for %q", subject.Abbreviation)
	}
	start := time.Now()

	rows, err := a.client.TeamGames(ctx, teamID, time.Now(), time.Now().AddDate(0, 0, windowDays))
	if err != nil {
		return nil, a.classify(err)
	}

	for _, row := range rows {
		game, gameDate, ok := mapGameRow(row)
		if !ok || strings.EqualFold(game.Status, "Final") {
			continue
		}
		return &provider.Observation{
			SourceID:     sourceID,
			ObservedAt:   gameDate,
			Payload:      game,
			FetchLatency: time.Since(start),
		}, nil
	}

	return nil, provider.Errf(sourceID, provider.FailEmpty, "no upcoming game for %s in next %d days", subject.CanonicalName, windowDays)
}

// FetchTeamResult returns the most recent finished game for the team.
func (a *Adapter) FetchTeamResult(ctx context.Context, subject *entity.Entity, windowDays int) (*provider.Observation, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	observations, err := a.FetchRecentGames(ctx, subject, time.Now().AddDate(0, 0, -windowDays), 0)
	if err != nil {
		return nil, err
	}
	for i := range observations {
		if game, ok := observations[i].Payload.(provider.GameResult); ok && strings.EqualFold(game.Status, "Final") {
			return &observations[i], nil
		}
	}
	return nil, provider.Errf(sourceID, provider.FailEmpty, "no finished game for %s in window", subject.CanonicalName)
}

// resolvePlayerID prefers the request hint, then the cache, then a remote
// search whose result is written back to the cache. The hint must be one of
// this adapter's own ids; the coordinator strips foreign hints before they
// get here, and FetchPlayerStats drops mismatched rows as a backstop.
func (a *Adapter) resolvePlayerID(ctx context.Context, subject *entity.Entity, providerHint string) (int, error) {
	if providerHint != "" {
		if id, err := strconv.Atoi(providerHint); err == nil {
			return id, nil
		}
	}

	if a.idCache != nil {
		if cached, ok := a.idCache.GetPlayerID(ctx, sourceID, subject.CanonicalName); ok {
			if id, err := strconv.Atoi(cached); err == nil {
				return id, nil
			}
		}
	}

	players, err := a.client.SearchPlayers(ctx, subject.CanonicalName)
	if err != nil {
		return 0, a.classify(err)
	}

	target := strings.ToLower(subject.CanonicalName)
	for _, p := range players {
		full := strings.ToLower(strings.TrimSpace(p.FirstName + " " + p.LastName))
		if full == target {
			a.cacheID(ctx, subject.CanonicalName, p.ID)
			return p.ID, nil
		}
	}
	// Fall back to an all-parts match, same policy as the box-score matcher.
	parts := strings.Fields(target)
	for _, p := range players {
		full := strings.ToLower(p.FirstName + " " + p.LastName)
		matched := true
		for _, part := range parts {
			if !strings.Contains(full, part) {
				matched = false
				break
			}
		}
		if matched {
			a.cacheID(ctx, subject.CanonicalName, p.ID)
			return p.ID, nil
		}
	}

	return 0, provider.Errf(sourceID, provider.FailEmpty, "player %q not found in search", subject.CanonicalName)
}

func (a *Adapter) cacheID(ctx context.Context, canonicalName string, id int) {
	if a.idCache == nil {
		return
	}
	a.idCache.SetPlayerID(ctx, sourceID, canonicalName, strconv.Itoa(id))
	a.log.WithFields(logrus.Fields{
		"component": "balldontlie-adapter",
		"player":    canonicalName,
		"player_id": id,
	}).Debug("cached discovered player id")
}

func (a *Adapter) classify(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "rate limited"):
		return &provider.FetchError{Source: sourceID, Reason: provider.FailRateLimited, Err: err}
	case strings.Contains(msg, "context deadline exceeded") || strings.Contains(msg, "Client.Timeout"):
		return &provider.FetchError{Source: sourceID, Reason: provider.FailTimeout, Err: err}
	case strings.Contains(msg, "decoding"):
		return &provider.FetchError{Source: sourceID, Reason: provider.FailMalformed, Err: err}
	}
	return &provider.FetchError{Source: sourceID, Reason: provider.FailEmpty, Err: err}
}

// lineMatchesSubject requires every part of the canonical name to appear in
// the row's player name, the same policy the ESPN box-score matcher uses.
func lineMatchesSubject(rowName, canonicalName string) bool {
	if canonicalName == "" {
		return false
	}
	full := strings.ToLower(rowName)
	for _, part := range strings.Fields(strings.ToLower(canonicalName)) {
		if !strings.Contains(full, part) {
			return false
		}
	}
	return true
}

func mapStatRow(row statResponse) (provider.PlayerLine, time.Time, bool) {
	gameDate, err := time.Parse("2006-01-02", strings.SplitN(row.Game.Date, "T", 2)[0])
	if err != nil {
		return provider.PlayerLine{}, time.Time{}, false
	}

	opponent := row.Game.HomeTeam.FullName
	if row.Team.ID == row.Game.HomeTeam.ID {
		opponent = row.Game.VisitorTeam.FullName
	}

	line := provider.PlayerLine{
		PlayerName: strings.TrimSpace(row.Player.FirstName + " " + row.Player.LastName),
		Team:       row.Team.FullName,
		Opponent:   opponent,
		Matchup:    fmt.Sprintf("%s vs %s", row.Game.VisitorTeam.FullName, row.Game.HomeTeam.FullName),
		GameDate:   gameDate,
		Points:     row.Points,
		Rebounds:   row.Rebounds,
		Assists:    row.Assists,
		Steals:     row.Steals,
		Blocks:     row.Blocks,
	}

	// All-zero lines are DNPs.
	if line.Points == 0 && line.Rebounds == 0 && line.Assists == 0 {
		return provider.PlayerLine{}, time.Time{}, false
	}
	return line, gameDate, true
}

func mapGameRow(row gameResponse) (provider.GameResult, time.Time, bool) {
	gameDate, err := time.Parse("2006-01-02", strings.SplitN(row.Date, "T", 2)[0])
	if err != nil {
		return provider.GameResult{}, time.Time{}, false
	}

	game := provider.GameResult{
		HomeTeam:  row.HomeTeam.FullName,
		AwayTeam:  row.VisitorTeam.FullName,
		HomeScore: row.HomeTeamScore,
		AwayScore: row.VisitorTeamScore,
		Matchup:   fmt.Sprintf("%s vs %s", row.VisitorTeam.FullName, row.HomeTeam.FullName),
		Status:    strings.TrimSpace(row.Status),
	}
	if game.HomeScore > game.AwayScore {
		game.Winner = game.HomeTeam
	} else if game.AwayScore > game.HomeScore {
		game.Winner = game.AwayTeam
	}
	return game, gameDate, true
}

// currentSeason returns the Ball Don't Lie season number, which is the year
// the season tipped off.
func currentSeason(now time.Time) int {
	if now.Month() >= time.October {
		return now.Year()
	}
	return now.Year() - 1
}
