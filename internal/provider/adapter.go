package provider

import (
	"context"
	"time"

	"github.com/fortuna/courtside/internal/entity"
)

// Capability names one fetch operation an adapter may support.
type Capability string

const (
	CapRecentGames  Capability = "recent_games"
	CapPlayerStats  Capability = "player_stats"
	CapStandings    Capability = "standings"
	CapTeamResult   Capability = "team_result"
	CapUpcomingGame Capability = "upcoming_game"
)

// Adapter wraps one external data provider behind a uniform capability
// surface. Adapters are deliberately dumb: each call is bounded by the
// adapter's own timeout, retries at most once internally, and signals failure
// as a *FetchError. All provider-specific parsing stays inside the adapter.
//
// An adapter that does not support a capability returns ErrUnsupported from
// that method; callers gate on Supports first.
type Adapter interface {
	// SourceID identifies the provider in logs and result provenance.
	SourceID() string

	// Supports reports whether the adapter implements a capability.
	Supports(c Capability) bool

	// RequiresProviderID reports whether FetchPlayerStats needs a remote id
	// discovery scan when no provider hint is supplied. The coordinator
	// skips such adapters on the known-entity fast path.
	RequiresProviderID() bool

	// FetchRecentGames returns finished games involving the subject team
	// since the given date, newest first. A nil subject means league-wide.
	FetchRecentGames(ctx context.Context, subject *entity.Entity, since time.Time, limit int) ([]Observation, error)

	// FetchPlayerStats returns per-game box-score lines for the subject
	// player over the window. providerHint, when non-empty, is a player id
	// in this adapter's own id space; callers must pass an empty hint when
	// the id on record belongs to another provider. A nil subject means
	// every player line seen in the window, which is what the aggregator's
	// leaderboard path consumes.
	FetchPlayerStats(ctx context.Context, subject *entity.Entity, providerHint string, windowDays int) ([]Observation, error)

	// FetchStandings returns current standing rows, optionally filtered to
	// one conference ("East"/"West"; empty means both).
	FetchStandings(ctx context.Context, conference string) ([]Observation, error)

	// FetchTeamResult returns the subject team's most recent result within
	// the window, or an empty-result failure if it played no games.
	FetchTeamResult(ctx context.Context, subject *entity.Entity, windowDays int) (*Observation, error)

	// FetchUpcomingGame returns the subject team's next not-yet-finished
	// game within the forward window, or an empty-result failure if none is
	// scheduled.
	FetchUpcomingGame(ctx context.Context, subject *entity.Entity, windowDays int) (*Observation, error)
}

// ErrUnsupported is returned by capability methods an adapter does not
// implement. The coordinator never triggers it when it gates on Supports.
var ErrUnsupported = Errf("adapter", FailEmpty, "capability not supported")
