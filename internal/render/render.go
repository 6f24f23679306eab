package render

import (
	"fmt"
	"strings"

	"github.com/fortuna/courtside/internal/aggregate"
	"github.com/fortuna/courtside/internal/domain"
)

// Answer renders one pipeline outcome as user-facing prose. Failures are
// rendered honestly: they name what could not be found and never dress up a
// miss as an answer.
func Answer(req domain.StatRequest, outcome domain.Outcome) string {
	if outcome.Failure != nil {
		return renderFailure(req, outcome.Failure)
	}
	result := outcome.Result
	var text string
	switch req.Kind {
	case domain.KindTeamResult:
		text = renderTeamResult(result)
	case domain.KindPlayerStat:
		text = renderPlayerStat(req, result)
	case domain.KindStandings:
		text = renderStandings(result)
	case domain.KindDerivedAggregate:
		text = renderAggregate(req, result)
	case domain.KindSchedule:
		text = renderSchedule(result)
	default:
		text = "I couldn't make sense of that question."
	}
	if result.Confidence == domain.ConfidenceDegraded {
		text += fmt.Sprintf(" (based on games through %s)", result.AsOfDate.Format("Jan 2"))
	}
	return text
}

func renderTeamResult(r *domain.ValidatedResult) string {
	subjectScore := int(r.Values["subject_score"])
	opponentScore := int(r.Values["opponent_score"])
	opponent := "their opponent"
	if r.Opponent != nil {
		opponent = "the " + shortName(r.Opponent.CanonicalName)
	}
	verb := "lost to"
	if r.Values["won"] == 1 {
		verb = "beat"
	}
	return fmt.Sprintf("The %s %s %s %d-%d on %s.",
		shortName(r.Subject.CanonicalName), verb, opponent,
		subjectScore, opponentScore, r.AsOfDate.Format("Jan 2"))
}

func renderSchedule(r *domain.ValidatedResult) string {
	opponent := "their next opponent"
	if r.Opponent != nil {
		opponent = "the " + shortName(r.Opponent.CanonicalName)
	}
	verb := "visit"
	if r.Values["home"] == 1 {
		verb = "host"
	}
	return fmt.Sprintf("The %s %s %s on %s.",
		shortName(r.Subject.CanonicalName), verb, opponent, r.AsOfDate.Format("Jan 2"))
}

func renderPlayerStat(req domain.StatRequest, r *domain.ValidatedResult) string {
	opponent := ""
	if r.Opponent != nil {
		opponent = " against the " + shortName(r.Opponent.CanonicalName)
	}
	stat := req.StatName
	if stat == "" {
		stat = aggregate.StatPoints
	}
	value, ok := r.Values[stat]
	if !ok {
		return fmt.Sprintf("%s played%s on %s, but I don't have %s for that game.",
			r.Subject.CanonicalName, opponent, r.AsOfDate.Format("Jan 2"), statNoun(stat))
	}
	return fmt.Sprintf("%s had %d %s%s on %s.",
		r.Subject.CanonicalName, int(value), statNoun(stat), opponent,
		r.AsOfDate.Format("Jan 2"))
}

func renderStandings(r *domain.ValidatedResult) string {
	rank := int(r.Values["rank"])
	wins := int(r.Values["wins"])
	losses := int(r.Values["losses"])
	base := fmt.Sprintf("The %s are the %s seed in the %s at %d-%d",
		shortName(r.Subject.CanonicalName), ordinal(rank), conferenceName(r.Subject.Conference), wins, losses)
	if topN, ok := r.Values["top_n"]; ok {
		if r.Values["in_top_n"] == 1 {
			return base + fmt.Sprintf(", inside the top %d.", int(topN))
		}
		return base + fmt.Sprintf(", outside the top %d.", int(topN))
	}
	return base + "."
}

func renderAggregate(req domain.StatRequest, r *domain.ValidatedResult) string {
	if len(r.Leaders) > 0 {
		parts := make([]string, 0, len(r.Leaders))
		for i, e := range r.Leaders {
			parts = append(parts, fmt.Sprintf("%d. %s (%.1f)", i+1, e.Name, e.Value))
		}
		return fmt.Sprintf("Recent %s leaders: %s.", statNoun(req.StatName), strings.Join(parts, ", "))
	}

	games := int(r.Values["games"])
	if req.StatName == aggregate.StatTripleDouble {
		count := int(r.Values[aggregate.StatTripleDouble])
		return fmt.Sprintf("%s has %d triple-double%s in their last %d games.",
			r.Subject.CanonicalName, count, plural(count), games)
	}
	value := r.Values[req.StatName]
	return fmt.Sprintf("%s is averaging %.1f %s over their last %d games.",
		r.Subject.CanonicalName, value, statNoun(req.StatName), games)
}

func renderFailure(req domain.StatRequest, f *domain.FetchFailure) string {
	subject := f.SubjectText
	if subject == "" {
		subject = "that"
	}
	switch f.Reason {
	case domain.ReasonUnresolvedEntity:
		return fmt.Sprintf("I don't recognize %q as an NBA team or player.", subject)
	case domain.ReasonDeadlineExceeded:
		return fmt.Sprintf("Sorry, looking up %s for %s took too long. Try again in a moment.",
			statNoun(f.StatName), subject)
	default:
		if req.Kind == domain.KindSchedule {
			return fmt.Sprintf("I couldn't find an upcoming game for %s right now.", subject)
		}
		return fmt.Sprintf("I couldn't find %s data for %s right now.",
			statNoun(f.StatName), subject)
	}
}

func statNoun(stat string) string {
	switch stat {
	case aggregate.StatTripleDouble:
		return "triple-doubles"
	case "":
		return "stat"
	default:
		return stat
	}
}

// shortName drops the city so prose reads "the Lakers", not "the Los Angeles
// Lakers".
func shortName(canonical string) string {
	parts := strings.Fields(canonical)
	if len(parts) <= 1 {
		return canonical
	}
	// Two-word nicknames.
	joined := strings.Join(parts[len(parts)-2:], " ")
	if joined == "Trail Blazers" {
		return joined
	}
	return parts[len(parts)-1]
}

func conferenceName(code string) string {
	switch strings.ToLower(code) {
	case "east", "eastern":
		return "East"
	case "west", "western":
		return "West"
	default:
		return "league"
	}
}

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
