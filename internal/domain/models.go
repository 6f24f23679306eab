package domain

import (
	"time"

	"github.com/fortuna/courtside/internal/entity"
)

// QueryKind classifies what a StatRequest is asking for.
type QueryKind string

const (
	KindTeamResult       QueryKind = "team_result"
	KindPlayerStat       QueryKind = "player_stat"
	KindStandings        QueryKind = "standings"
	KindDerivedAggregate QueryKind = "derived_aggregate"
	KindSchedule         QueryKind = "schedule"
)

// StatRequest is the classified form of a user question, handed to the
// coordinator by the intent classifier.
type StatRequest struct {
	Kind         QueryKind `json:"kind"`
	SubjectText  string    `json:"subject_text"`
	OpponentText string    `json:"opponent_text,omitempty"`
	DateRef      string    `json:"date_ref,omitempty"`
	StatName     string    `json:"stat_name,omitempty"`
	TopN         int       `json:"top_n,omitempty"`
}

// Confidence flags how a result was obtained.
type Confidence string

const (
	// ConfidenceHigh means the result came directly from a provider and
	// passed every validation check.
	ConfidenceHigh Confidence = "high"

	// ConfidenceDegraded means the result was derived from a bounded
	// recent window rather than full-season data.
	ConfidenceDegraded Confidence = "degraded"
)

// LeaderEntry is one row of a ranked aggregate (e.g. top-5 by assists).
type LeaderEntry struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ValidatedResult is the only success shape the pipeline hands to the
// renderer. Every ValidatedResult has passed all validator checks.
type ValidatedResult struct {
	Subject    *entity.Entity     `json:"subject"`
	Opponent   *entity.Entity     `json:"opponent,omitempty"`
	Values     map[string]float64 `json:"values"`
	Leaders    []LeaderEntry      `json:"leaders,omitempty"`
	AsOfDate   time.Time          `json:"as_of_date"`
	Source     string             `json:"source"`
	Confidence Confidence         `json:"confidence"`
}

// FailureReason is the terminal error taxonomy surfaced to the caller.
type FailureReason string

const (
	ReasonUnresolvedEntity    FailureReason = "unresolved_entity"
	ReasonDeadlineExceeded    FailureReason = "deadline_exceeded"
	ReasonAllSourcesExhausted FailureReason = "all_sources_exhausted"
)

// FetchFailure is the terminal outcome when no adapter produced a validated
// result. It is an ordinary return value, not an error: the renderer turns it
// into an honest "data not available" message, never into stale data.
type FetchFailure struct {
	Reason       FailureReason `json:"reason"`
	TriedSources []string      `json:"tried_sources"`
	Elapsed      time.Duration `json:"elapsed_ms"`
	SubjectText  string        `json:"subject_text,omitempty"`
	StatName     string        `json:"stat_name,omitempty"`
}

// Outcome bundles the two possible pipeline results. Exactly one of Result
// and Failure is set.
type Outcome struct {
	Result  *ValidatedResult `json:"result,omitempty"`
	Failure *FetchFailure    `json:"failure,omitempty"`
}
