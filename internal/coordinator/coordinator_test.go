package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtside/internal/aggregate"
	"github.com/fortuna/courtside/internal/domain"
	"github.com/fortuna/courtside/internal/entity"
	"github.com/fortuna/courtside/internal/provider"
	"github.com/fortuna/courtside/internal/validation"
)

// fakeAdapter scripts one source's behavior for a test.
type fakeAdapter struct {
	id             string
	requiresID     bool
	delay          time.Duration
	err            error
	observations   []provider.Observation
	teamResultCall int
	playerCalls    int
	upcomingCalls  int
	lastHint       string
}

func (f *fakeAdapter) SourceID() string                  { return f.id }
func (f *fakeAdapter) Supports(provider.Capability) bool { return true }
func (f *fakeAdapter) RequiresProviderID() bool          { return f.requiresID }

func (f *fakeAdapter) respond(ctx context.Context) ([]provider.Observation, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.observations, nil
}

func (f *fakeAdapter) FetchRecentGames(ctx context.Context, _ *entity.Entity, _ time.Time, _ int) ([]provider.Observation, error) {
	return f.respond(ctx)
}

func (f *fakeAdapter) FetchPlayerStats(ctx context.Context, _ *entity.Entity, hint string, _ int) ([]provider.Observation, error) {
	f.playerCalls++
	f.lastHint = hint
	return f.respond(ctx)
}

func (f *fakeAdapter) FetchStandings(ctx context.Context, _ string) ([]provider.Observation, error) {
	return f.respond(ctx)
}

func (f *fakeAdapter) FetchTeamResult(ctx context.Context, e *entity.Entity, _ int) (*provider.Observation, error) {
	f.teamResultCall++
	obs, err := f.respond(ctx)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, provider.Errf(f.id, provider.FailEmpty, "nothing found")
	}
	return &obs[0], nil
}

func (f *fakeAdapter) FetchUpcomingGame(ctx context.Context, _ *entity.Entity, _ int) (*provider.Observation, error) {
	f.upcomingCalls++
	obs, err := f.respond(ctx)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, provider.Errf(f.id, provider.FailEmpty, "nothing found")
	}
	return &obs[0], nil
}

func knicksWin(source string) provider.Observation {
	return provider.Observation{
		SourceID:   source,
		ObservedAt: time.Now().Add(-12 * time.Hour),
		Payload: provider.GameResult{
			HomeTeam:  "New York Knicks",
			AwayTeam:  "Orlando Magic",
			HomeScore: 112,
			AwayScore: 98,
			Winner:    "New York Knicks",
			Matchup:   "Knicks vs Magic",
			Status:    "Final",
		},
	}
}

func newTestCoordinator(t *testing.T, cfg Config, adapters ...provider.Adapter) *Coordinator {
	t.Helper()
	return newRegistryCoordinator(t, entity.SeededRegistry(), cfg, adapters...)
}

func newRegistryCoordinator(t *testing.T, registry *entity.Registry, cfg Config, adapters ...provider.Adapter) *Coordinator {
	t.Helper()
	resolver := entity.NewResolver(registry, nil)
	validator := validation.NewValidator(resolver, nil)
	aggregator := aggregate.New(validator, nil)
	return New(cfg, resolver, validator, aggregator, adapters, nil)
}

func TestAnswerFirstSourceShortCircuits(t *testing.T) {
	first := &fakeAdapter{id: "first", observations: []provider.Observation{knicksWin("first")}}
	second := &fakeAdapter{id: "second", observations: []provider.Observation{knicksWin("second")}}
	coord := newTestCoordinator(t, Config{}, first, second)

	outcome := coord.Answer(context.Background(), domain.StatRequest{
		Kind:        domain.KindTeamResult,
		SubjectText: "Knicks",
	})

	require.NotNil(t, outcome.Result)
	assert.Equal(t, "first", outcome.Result.Source)
	assert.Equal(t, 1, first.teamResultCall)
	// The second source must never have been consulted.
	assert.Equal(t, 0, second.teamResultCall)
}

func TestAnswerFallsThroughFailures(t *testing.T) {
	down := &fakeAdapter{id: "down", err: provider.Errf("down", provider.FailTimeout, "timed out")}
	empty := &fakeAdapter{id: "empty"}
	working := &fakeAdapter{id: "working", observations: []provider.Observation{knicksWin("working")}}
	coord := newTestCoordinator(t, Config{}, down, empty, working)

	outcome := coord.Answer(context.Background(), domain.StatRequest{
		Kind:        domain.KindTeamResult,
		SubjectText: "Knicks",
	})

	require.NotNil(t, outcome.Result)
	assert.Equal(t, "working", outcome.Result.Source)
	assert.Equal(t, float64(1), outcome.Result.Values["won"])
	assert.Equal(t, "Orlando Magic", outcome.Result.Opponent.CanonicalName)
}

func TestAnswerAllSourcesExhausted(t *testing.T) {
	down1 := &fakeAdapter{id: "down1", err: provider.Errf("down1", provider.FailTimeout, "timed out")}
	down2 := &fakeAdapter{id: "down2", err: provider.Errf("down2", provider.FailMalformed, "bad payload")}
	coord := newTestCoordinator(t, Config{}, down1, down2)

	outcome := coord.Answer(context.Background(), domain.StatRequest{
		Kind:        domain.KindTeamResult,
		SubjectText: "Knicks",
	})

	require.NotNil(t, outcome.Failure)
	assert.Equal(t, domain.ReasonAllSourcesExhausted, outcome.Failure.Reason)
	assert.Equal(t, []string{"down1", "down2"}, outcome.Failure.TriedSources)
	assert.Nil(t, outcome.Result)
}

func TestAnswerUnresolvedEntitySkipsAllSources(t *testing.T) {
	adapter := &fakeAdapter{id: "only", observations: []provider.Observation{knicksWin("only")}}
	coord := newTestCoordinator(t, Config{}, adapter)

	outcome := coord.Answer(context.Background(), domain.StatRequest{
		Kind:        domain.KindTeamResult,
		SubjectText: "Springfield Isotopes",
	})

	require.NotNil(t, outcome.Failure)
	assert.Equal(t, domain.ReasonUnresolvedEntity, outcome.Failure.Reason)
	assert.Empty(t, outcome.Failure.TriedSources)
	assert.Equal(t, 0, adapter.teamResultCall)
}

func TestAnswerDeadlineAbandonsSlowSource(t *testing.T) {
	slow := &fakeAdapter{
		id:           "slow",
		delay:        500 * time.Millisecond,
		observations: []provider.Observation{knicksWin("slow")},
	}
	coord := newTestCoordinator(t, Config{RequestDeadline: 50 * time.Millisecond}, slow)

	start := time.Now()
	outcome := coord.Answer(context.Background(), domain.StatRequest{
		Kind:        domain.KindTeamResult,
		SubjectText: "Knicks",
	})

	require.NotNil(t, outcome.Failure)
	assert.Equal(t, domain.ReasonDeadlineExceeded, outcome.Failure.Reason)
	// The answer must come back at the deadline, not after the slow fetch.
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestAnswerFastPathSkipsProviderIDSources(t *testing.T) {
	needsID := &fakeAdapter{id: "needs-id", requiresID: true}
	byName := &fakeAdapter{id: "by-name", observations: []provider.Observation{
		{
			SourceID:   "by-name",
			ObservedAt: time.Now().Add(-10 * time.Hour),
			Payload: provider.PlayerLine{
				PlayerName: "Jalen Brunson",
				Team:       "New York Knicks",
				Opponent:   "Orlando Magic",
				GameDate:   time.Now().Add(-10 * time.Hour),
				Points:     32, Rebounds: 4, Assists: 7,
			},
		},
	}}
	registry := entity.NewRegistry()
	require.NoError(t, registry.Add(&entity.Entity{
		CanonicalName:   "Jalen Brunson",
		Kind:            entity.KindPlayer,
		TeamAffiliation: "New York Knicks",
	}, "brunson"))
	for _, team := range []string{"New York Knicks", "Orlando Magic"} {
		require.NoError(t, registry.Add(&entity.Entity{CanonicalName: team, Kind: entity.KindTeam}))
	}
	coord := newRegistryCoordinator(t, registry, Config{}, needsID, byName)

	// An exact-alias hit with no provider id on record means id-discovery
	// round trips would be wasted, so the id-requiring source is skipped.
	outcome := coord.Answer(context.Background(), domain.StatRequest{
		Kind:        domain.KindPlayerStat,
		SubjectText: "Jalen Brunson",
		StatName:    "points",
	})

	require.NotNil(t, outcome.Result)
	assert.Equal(t, "by-name", outcome.Result.Source)
	assert.Equal(t, 0, needsID.playerCalls)
	assert.Equal(t, float64(32), outcome.Result.Values["points"])
}

func TestAnswerTeamResultTriesIDRequiringSources(t *testing.T) {
	// Player-id discovery only matters for player-stat fetches; a team-result
	// query must still fall through to a source that needs ids for players.
	down := &fakeAdapter{id: "down", err: provider.Errf("down", provider.FailTimeout, "timed out")}
	needsID := &fakeAdapter{id: "needs-id", requiresID: true, observations: []provider.Observation{knicksWin("needs-id")}}
	coord := newTestCoordinator(t, Config{}, down, needsID)

	outcome := coord.Answer(context.Background(), domain.StatRequest{
		Kind:        domain.KindTeamResult,
		SubjectText: "Knicks",
	})

	require.NotNil(t, outcome.Result)
	assert.Equal(t, "needs-id", outcome.Result.Source)
	assert.Equal(t, 1, needsID.teamResultCall)
}

func TestAnswerPlayerHintStaysInItsOwnIDSpace(t *testing.T) {
	// The seeded registry carries ESPN player ids. That id must reach the
	// espn source untouched and must never be handed to any other source, and
	// id-requiring sources without an id of their own stay skipped.
	needsID := &fakeAdapter{id: "needs-id", requiresID: true}
	espn := &fakeAdapter{id: "espn", observations: []provider.Observation{
		{
			SourceID:   "espn",
			ObservedAt: time.Now().Add(-10 * time.Hour),
			Payload: provider.PlayerLine{
				PlayerName: "Jalen Brunson",
				Team:       "New York Knicks",
				Opponent:   "Orlando Magic",
				GameDate:   time.Now().Add(-10 * time.Hour),
				Points:     32, Rebounds: 4, Assists: 7,
			},
		},
	}}
	coord := newTestCoordinator(t, Config{}, needsID, espn)

	outcome := coord.Answer(context.Background(), domain.StatRequest{
		Kind:        domain.KindPlayerStat,
		SubjectText: "Jalen Brunson",
		StatName:    "points",
	})

	require.NotNil(t, outcome.Result)
	assert.Equal(t, "espn", outcome.Result.Source)
	assert.Equal(t, "3934672", espn.lastHint)
	assert.Equal(t, 0, needsID.playerCalls)
}

func TestAnswerSchedule(t *testing.T) {
	upcoming := provider.Observation{
		SourceID:   "first",
		ObservedAt: time.Now().Add(26 * time.Hour),
		Payload: provider.GameResult{
			HomeTeam: "New York Knicks",
			AwayTeam: "Orlando Magic",
			Matchup:  "Orlando Magic at New York Knicks",
			Status:   "Scheduled",
		},
	}
	adapter := &fakeAdapter{id: "first", observations: []provider.Observation{upcoming}}
	coord := newTestCoordinator(t, Config{}, adapter)

	outcome := coord.Answer(context.Background(), domain.StatRequest{
		Kind:        domain.KindSchedule,
		SubjectText: "Knicks",
	})

	require.NotNil(t, outcome.Result)
	assert.Equal(t, 1, adapter.upcomingCalls)
	assert.Equal(t, "Orlando Magic", outcome.Result.Opponent.CanonicalName)
	assert.Equal(t, float64(1), outcome.Result.Values["home"])
}

func TestAnswerRejectedObservationFallsThrough(t *testing.T) {
	// A score of 3 fails plausibility; the next source should be tried.
	garbage := knicksWin("garbage")
	g := garbage.Payload.(provider.GameResult)
	g.HomeScore = 3
	garbage.Payload = g

	bad := &fakeAdapter{id: "garbage", observations: []provider.Observation{garbage}}
	good := &fakeAdapter{id: "good", observations: []provider.Observation{knicksWin("good")}}
	coord := newTestCoordinator(t, Config{}, bad, good)

	outcome := coord.Answer(context.Background(), domain.StatRequest{
		Kind:        domain.KindTeamResult,
		SubjectText: "Knicks",
	})

	require.NotNil(t, outcome.Result)
	assert.Equal(t, "good", outcome.Result.Source)
}
