package validation

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/domain"
	"github.com/fortuna/courtside/internal/entity"
	"github.com/fortuna/courtside/internal/provider"
)

// Sanity ranges. NBA team scores outside 50-200 have not happened in the
// shot-clock era; per-game counting stats above these ceilings are provider
// garbage, not records.
const (
	minTeamScore = 50
	maxTeamScore = 200

	maxPoints   = 150
	maxRebounds = 60
	maxAssists  = 50
	maxDefStat  = 20
)

// CheckError names the validator check that rejected an observation. The
// coordinator logs it and moves to the next adapter; it never reaches the
// caller.
type CheckError struct {
	Check  string
	Detail string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("validation failed: %s (%s)", e.Check, e.Detail)
}

func failCheck(check, format string, args ...interface{}) *CheckError {
	return &CheckError{Check: check, Detail: fmt.Sprintf(format, args...)}
}

// Validator is the boundary that converts "provider responded" into
// "provider responded usefully". Its checks are what keep wrong opponents,
// impossible scores, and dateless results away from the renderer.
type Validator struct {
	resolver *entity.Resolver
	log      *logrus.Logger
}

// NewValidator creates a validator that resolves opponents against the
// registry behind the given resolver.
func NewValidator(resolver *entity.Resolver, log *logrus.Logger) *Validator {
	if log == nil {
		log = logrus.New()
	}
	return &Validator{resolver: resolver, log: log}
}

// Validate runs every check against one observation. All checks must pass;
// the first failure short-circuits. On success the observation is promoted to
// a ValidatedResult with high confidence.
func (v *Validator) Validate(obs provider.Observation, subject *entity.Entity, req domain.StatRequest) (*domain.ValidatedResult, error) {
	switch payload := obs.Payload.(type) {
	case provider.GameResult:
		if req.Kind == domain.KindSchedule {
			return v.validateUpcomingGame(obs, payload, subject)
		}
		return v.validateGameResult(obs, payload, subject)
	case provider.PlayerLine:
		return v.validatePlayerLine(obs, payload, subject)
	case provider.StandingRow:
		return v.validateStandingRow(obs, payload, subject, req)
	}
	return nil, failCheck("payload_kind", "unhandled payload %T", obs.Payload)
}

func (v *Validator) validateGameResult(obs provider.Observation, game provider.GameResult, subject *entity.Entity) (*domain.ValidatedResult, error) {
	// Check 1: numeric plausibility.
	for _, score := range []int{game.HomeScore, game.AwayScore} {
		if score < minTeamScore || score > maxTeamScore {
			return nil, failCheck("score_plausibility", "score %d outside [%d,%d]", score, minTeamScore, maxTeamScore)
		}
	}

	// Check 2: logical consistency. The provider's declared winner must
	// agree with the score comparison; when it does not, the scores win.
	winner := game.Winner
	scoreWinner := game.HomeTeam
	if game.AwayScore > game.HomeScore {
		scoreWinner = game.AwayTeam
	}
	if game.HomeScore == game.AwayScore {
		return nil, failCheck("score_consistency", "tied score %d-%d in a final", game.HomeScore, game.AwayScore)
	}
	if !strings.EqualFold(winner, scoreWinner) {
		if winner != "" {
			v.log.WithFields(logrus.Fields{
				"component": "validator",
				"declared":  winner,
				"computed":  scoreWinner,
			}).Warn("⚠️  provider winner flag disagrees with scores, recomputing")
		}
		winner = scoreWinner
	}

	// Check 3: opponent distinctness, with matchup-string recovery. Recovery
	// only names the opponent; when the subject is on neither side the scores
	// cannot be attributed, so the observation is rejected rather than
	// guessed at.
	subjectSide, opponentSide := splitSides(game, subject)
	if opponentSide == "" || sameTeam(opponentSide, subject) {
		if subjectSide == "" {
			return nil, failCheck("subject_present", "%s on neither side of %q", subject.CanonicalName, game.Matchup)
		}
		recovered := recoverOpponent(game.Matchup, subject)
		if recovered == "" {
			return nil, failCheck("opponent_distinct", "no opponent distinct from %s", subject.CanonicalName)
		}
		opponentSide = recovered
	}
	opponentRes := v.resolver.Resolve(opponentSide, entity.KindTeam)
	if opponentRes.Entity == nil {
		return nil, failCheck("opponent_resolvable", "opponent %q not a known team", opponentSide)
	}
	if opponentRes.Entity.CanonicalName == subject.CanonicalName {
		return nil, failCheck("opponent_distinct", "opponent resolves to subject %s", subject.CanonicalName)
	}

	// Check 4: temporal completeness.
	if obs.ObservedAt.IsZero() {
		return nil, failCheck("date_present", "observation has no game date")
	}

	subjectScore, opponentScore := game.HomeScore, game.AwayScore
	if !strings.EqualFold(subjectSide, game.HomeTeam) {
		subjectScore, opponentScore = game.AwayScore, game.HomeScore
	}

	won := 0.0
	if strings.EqualFold(winner, subjectSide) {
		won = 1.0
	}

	return &domain.ValidatedResult{
		Subject:  subject,
		Opponent: opponentRes.Entity,
		Values: map[string]float64{
			"subject_score":  float64(subjectScore),
			"opponent_score": float64(opponentScore),
			"won":            won,
		},
		AsOfDate:   obs.ObservedAt,
		Source:     obs.SourceID,
		Confidence: domain.ConfidenceHigh,
	}, nil
}

func (v *Validator) validatePlayerLine(obs provider.Observation, line provider.PlayerLine, subject *entity.Entity) (*domain.ValidatedResult, error) {
	// Check 1: numeric plausibility.
	checks := []struct {
		name  string
		value int
		max   int
	}{
		{"points", line.Points, maxPoints},
		{"rebounds", line.Rebounds, maxRebounds},
		{"assists", line.Assists, maxAssists},
		{"steals", line.Steals, maxDefStat},
		{"blocks", line.Blocks, maxDefStat},
	}
	for _, c := range checks {
		if c.value < 0 || c.value > c.max {
			return nil, failCheck("stat_plausibility", "%s=%d outside [0,%d]", c.name, c.value, c.max)
		}
	}
	if line.Points == 0 && line.Rebounds == 0 && line.Assists == 0 {
		return nil, failCheck("stat_plausibility", "all-zero line for %s", line.PlayerName)
	}

	// Check 2: identity. A provider can hand back the wrong player's line
	// (stale cached id, id from another provider's id space); those stats
	// must never be attributed to the subject.
	if !playerNameMatches(line.PlayerName, subject.CanonicalName) {
		return nil, failCheck("player_identity", "line names %q, not %s", line.PlayerName, subject.CanonicalName)
	}

	// Check 3: opponent distinctness, with matchup-string recovery.
	opponent := line.Opponent
	if opponent == "" || strings.EqualFold(opponent, line.Team) {
		opponent = recoverOpponentFromTeams(line.Matchup, line.Team)
		if opponent == "" {
			return nil, failCheck("opponent_distinct", "no opponent for %s's line", line.PlayerName)
		}
	}
	var opponentEntity *entity.Entity
	if res := v.resolver.Resolve(opponent, entity.KindTeam); res.Entity != nil {
		opponentEntity = res.Entity
	}

	// Check 4: temporal completeness.
	asOf := line.GameDate
	if asOf.IsZero() {
		asOf = obs.ObservedAt
	}
	if asOf.IsZero() {
		return nil, failCheck("date_present", "player line has no game date")
	}

	return &domain.ValidatedResult{
		Subject:  subject,
		Opponent: opponentEntity,
		Values: map[string]float64{
			"points":   float64(line.Points),
			"rebounds": float64(line.Rebounds),
			"assists":  float64(line.Assists),
			"steals":   float64(line.Steals),
			"blocks":   float64(line.Blocks),
		},
		AsOfDate:   asOf,
		Source:     obs.SourceID,
		Confidence: domain.ConfidenceHigh,
	}, nil
}

func (v *Validator) validateStandingRow(obs provider.Observation, row provider.StandingRow, subject *entity.Entity, req domain.StatRequest) (*domain.ValidatedResult, error) {
	if row.Rank < 1 || row.Rank > 15 {
		return nil, failCheck("rank_plausibility", "rank %d outside [1,15]", row.Rank)
	}
	if row.Wins < 0 || row.Losses < 0 {
		return nil, failCheck("record_plausibility", "negative record %d-%d", row.Wins, row.Losses)
	}
	if obs.ObservedAt.IsZero() {
		return nil, failCheck("date_present", "standing row has no date")
	}

	values := map[string]float64{
		"rank":   float64(row.Rank),
		"wins":   float64(row.Wins),
		"losses": float64(row.Losses),
	}
	if req.TopN > 0 {
		values["top_n"] = float64(req.TopN)
		if row.Rank <= req.TopN {
			values["in_top_n"] = 1
		} else {
			values["in_top_n"] = 0
		}
	}

	return &domain.ValidatedResult{
		Subject:    subject,
		Values:     values,
		AsOfDate:   obs.ObservedAt,
		Source:     obs.SourceID,
		Confidence: domain.ConfidenceHigh,
	}, nil
}

// validateUpcomingGame checks a scheduled (or in-progress) game for the
// schedule query path. Scores are irrelevant here; what matters is that the
// game has not already finished, the opponent is real and distinct, and the
// date is known.
func (v *Validator) validateUpcomingGame(obs provider.Observation, game provider.GameResult, subject *entity.Entity) (*domain.ValidatedResult, error) {
	if strings.EqualFold(game.Status, "Final") {
		return nil, failCheck("game_pending", "game already final, not an upcoming game")
	}

	subjectSide, opponentSide := splitSides(game, subject)
	if opponentSide == "" || sameTeam(opponentSide, subject) {
		if subjectSide == "" {
			return nil, failCheck("subject_present", "%s on neither side of %q", subject.CanonicalName, game.Matchup)
		}
		recovered := recoverOpponent(game.Matchup, subject)
		if recovered == "" {
			return nil, failCheck("opponent_distinct", "no opponent distinct from %s", subject.CanonicalName)
		}
		opponentSide = recovered
	}
	opponentRes := v.resolver.Resolve(opponentSide, entity.KindTeam)
	if opponentRes.Entity == nil {
		return nil, failCheck("opponent_resolvable", "opponent %q not a known team", opponentSide)
	}
	if opponentRes.Entity.CanonicalName == subject.CanonicalName {
		return nil, failCheck("opponent_distinct", "opponent resolves to subject %s", subject.CanonicalName)
	}

	if obs.ObservedAt.IsZero() {
		return nil, failCheck("date_present", "upcoming game has no date")
	}

	home := 0.0
	if strings.EqualFold(subjectSide, game.HomeTeam) {
		home = 1.0
	}

	return &domain.ValidatedResult{
		Subject:  subject,
		Opponent: opponentRes.Entity,
		Values: map[string]float64{
			"home": home,
		},
		AsOfDate:   obs.ObservedAt,
		Source:     obs.SourceID,
		Confidence: domain.ConfidenceHigh,
	}, nil
}

// ValidateLine applies only the plausibility checks to one player line,
// letting the aggregator drop garbage rows before computing a window
// aggregate.
func (v *Validator) ValidateLine(line provider.PlayerLine) bool {
	if line.Points < 0 || line.Points > maxPoints ||
		line.Rebounds < 0 || line.Rebounds > maxRebounds ||
		line.Assists < 0 || line.Assists > maxAssists ||
		line.Steals < 0 || line.Steals > maxDefStat ||
		line.Blocks < 0 || line.Blocks > maxDefStat {
		return false
	}
	return !(line.Points == 0 && line.Rebounds == 0 && line.Assists == 0)
}

// splitSides returns (subject's side name, the other side's name). Empty
// strings mean the subject was not found on either side.
func splitSides(game provider.GameResult, subject *entity.Entity) (string, string) {
	if sameTeam(game.HomeTeam, subject) {
		return game.HomeTeam, game.AwayTeam
	}
	if sameTeam(game.AwayTeam, subject) {
		return game.AwayTeam, game.HomeTeam
	}
	return "", ""
}

// playerNameMatches requires every part of the canonical name to appear in
// the line's player name, mirroring the adapters' box-score matching.
func playerNameMatches(lineName, canonicalName string) bool {
	if canonicalName == "" {
		return false
	}
	full := strings.ToLower(lineName)
	for _, part := range strings.Fields(strings.ToLower(canonicalName)) {
		if !strings.Contains(full, part) {
			return false
		}
	}
	return true
}

func sameTeam(name string, team *entity.Entity) bool {
	if name == "" {
		return false
	}
	lower := strings.ToLower(name)
	return strings.Contains(lower, strings.ToLower(team.CanonicalName)) ||
		strings.Contains(strings.ToLower(team.CanonicalName), lower) ||
		strings.EqualFold(name, team.Abbreviation)
}

// recoverOpponent pulls the non-subject side out of a combined matchup string
// like "Knicks vs Magic".
func recoverOpponent(matchup string, subject *entity.Entity) string {
	for _, side := range splitMatchup(matchup) {
		if !sameTeam(side, subject) {
			return side
		}
	}
	return ""
}

func recoverOpponentFromTeams(matchup, team string) string {
	for _, side := range splitMatchup(matchup) {
		if !strings.EqualFold(side, team) && !strings.Contains(strings.ToLower(side), strings.ToLower(team)) {
			return side
		}
	}
	return ""
}

func splitMatchup(matchup string) []string {
	for _, sep := range []string{" vs ", " vs. ", " at ", " @ ", " versus "} {
		if idx := strings.Index(strings.ToLower(matchup), sep); idx >= 0 {
			left := strings.TrimSpace(matchup[:idx])
			right := strings.TrimSpace(matchup[idx+len(sep):])
			return []string{left, right}
		}
	}
	return nil
}
