package scoreboard

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/entity"
	"github.com/fortuna/courtside/internal/provider"
)

const sourceID = "scoreboard"

// Adapter is the tertiary provider: a scrape of the rendered sports card. It
// only knows about games on or near the current day, so it serves team-result
// and recent-game queries and nothing else.
type Adapter struct {
	client *Client
	log    *logrus.Logger
}

// NewAdapter creates the scoreboard scrape adapter.
func NewAdapter(client *Client, log *logrus.Logger) *Adapter {
	if log == nil {
		log = logrus.New()
	}
	return &Adapter{client: client, log: log}
}

func (a *Adapter) SourceID() string { return sourceID }

func (a *Adapter) Supports(c provider.Capability) bool {
	switch c {
	case provider.CapRecentGames, provider.CapTeamResult:
		return true
	}
	return false
}

func (a *Adapter) RequiresProviderID() bool { return false }

// FetchRecentGames scrapes today's slate. The since/limit parameters trim the
// scraped set; the card never reaches further back than the current day.
func (a *Adapter) FetchRecentGames(ctx context.Context, subject *entity.Entity, since time.Time, limit int) ([]provider.Observation, error) {
	start := time.Now()

	html, err := a.client.FetchGamesHTML(ctx)
	if err != nil {
		return nil, a.classify(err)
	}
	doc, err := ParseHTML(html)
	if err != nil {
		return nil, &provider.FetchError{Source: sourceID, Reason: provider.FailMalformed, Err: err}
	}

	games := ParseGames(doc)
	var observations []provider.Observation
	for _, game := range games {
		if subject != nil && !involves(game, subject) {
			continue
		}
		observations = append(observations, provider.Observation{
			SourceID:     sourceID,
			ObservedAt:   cardDay(time.Now()),
			Payload:      game,
			FetchLatency: time.Since(start),
		})
		if limit > 0 && len(observations) >= limit {
			break
		}
	}

	if len(observations) == 0 {
		return nil, provider.Errf(sourceID, provider.FailEmpty, "no games on today's card")
	}
	return observations, nil
}

// FetchPlayerStats is not served: the card has no box scores.
func (a *Adapter) FetchPlayerStats(ctx context.Context, subject *entity.Entity, providerHint string, windowDays int) ([]provider.Observation, error) {
	return nil, provider.ErrUnsupported
}

// FetchStandings is not served.
func (a *Adapter) FetchStandings(ctx context.Context, conference string) ([]provider.Observation, error) {
	return nil, provider.ErrUnsupported
}

// FetchUpcomingGame is not served: the card only shows the current slate.
func (a *Adapter) FetchUpcomingGame(ctx context.Context, subject *entity.Entity, windowDays int) (*provider.Observation, error) {
	return nil, provider.ErrUnsupported
}

// FetchTeamResult scrapes the team's own card, which shows its latest game.
func (a *Adapter) FetchTeamResult(ctx context.Context, subject *entity.Entity, windowDays int) (*provider.Observation, error) {
	start := time.Now()

	html, err := a.client.FetchTeamHTML(ctx, subject.CanonicalName)
	if err != nil {
		return nil, a.classify(err)
	}
	doc, err := ParseHTML(html)
	if err != nil {
		return nil, &provider.FetchError{Source: sourceID, Reason: provider.FailMalformed, Err: err}
	}

	for _, game := range ParseGames(doc) {
		if !involves(game, subject) || !IsFinal(game.Status) {
			continue
		}
		return &provider.Observation{
			SourceID:     sourceID,
			ObservedAt:   cardDay(time.Now()),
			Payload:      game,
			FetchLatency: time.Since(start),
		}, nil
	}

	return nil, provider.Errf(sourceID, provider.FailEmpty, "no finished game on card for %s", subject.CanonicalName)
}

func (a *Adapter) classify(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "context deadline exceeded"):
		return &provider.FetchError{Source: sourceID, Reason: provider.FailTimeout, Err: err}
	case strings.Contains(msg, "empty HTML"):
		return &provider.FetchError{Source: sourceID, Reason: provider.FailEmpty, Err: err}
	}
	return &provider.FetchError{Source: sourceID, Reason: provider.FailMalformed, Err: err}
}

// cardDay pins a scrape to its day boundary. The card carries no game date of
// its own; what it shows is the current slate, so the observation date is the
// day of the game, not the second of the scrape.
func cardDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func involves(game provider.GameResult, team *entity.Entity) bool {
	for _, side := range []string{game.HomeTeam, game.AwayTeam} {
		lower := strings.ToLower(side)
		if strings.Contains(lower, strings.ToLower(team.CanonicalName)) ||
			strings.Contains(strings.ToLower(team.CanonicalName), lower) ||
			strings.EqualFold(side, team.Abbreviation) {
			return true
		}
	}
	return false
}
