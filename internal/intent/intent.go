package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/aggregate"
	"github.com/fortuna/courtside/internal/domain"
	"github.com/fortuna/courtside/internal/entity"
)

var topNPattern = regexp.MustCompile(`\btop\s+(\d{1,2})\b`)

// Classifier turns a free-text question into a StatRequest. It leans on the
// alias registry to find subjects, so it never invents an entity the resolver
// would not also know.
type Classifier struct {
	registry *entity.Registry
	log      *logrus.Logger
}

func NewClassifier(registry *entity.Registry, log *logrus.Logger) *Classifier {
	if log == nil {
		log = logrus.New()
	}
	return &Classifier{registry: registry, log: log}
}

// Classify decides the query kind, the subject text, and the stat the
// question is about. It is deliberately conservative: what it cannot place it
// leaves for the resolver to reject rather than guessing a kind.
func (c *Classifier) Classify(question string) domain.StatRequest {
	lower := strings.ToLower(question)
	req := domain.StatRequest{
		StatName: aggregate.DetectStat(question),
		DateRef:  detectDateRef(lower),
	}

	player := c.longestAliasIn(lower, entity.KindPlayer)
	team := c.longestAliasIn(lower, entity.KindTeam)

	switch {
	case isScheduleQuestion(lower):
		req.Kind = domain.KindSchedule
		req.SubjectText = team
	case isStandingsQuestion(lower):
		req.Kind = domain.KindStandings
		req.SubjectText = team
		req.TopN = parseTopN(lower)
	case isAggregateQuestion(lower):
		req.Kind = domain.KindDerivedAggregate
		req.SubjectText = player
		req.TopN = parseTopN(lower)
	case player != "":
		req.Kind = domain.KindPlayerStat
		req.SubjectText = player
	default:
		req.Kind = domain.KindTeamResult
		req.SubjectText = team
	}

	// Questions about a team with no known alias still carry whatever text
	// looks like the subject, so the resolver can report it as unresolved
	// by name instead of by nothing.
	if req.SubjectText == "" && req.Kind != domain.KindDerivedAggregate {
		req.SubjectText = guessSubject(lower)
	}

	if req.Kind == domain.KindTeamResult {
		req.OpponentText = opponentAfter(lower, req.SubjectText)
	}

	c.log.WithFields(logrus.Fields{
		"component": "intent",
		"kind":      string(req.Kind),
		"subject":   req.SubjectText,
		"stat":      req.StatName,
	}).Debug("question classified")
	return req
}

// longestAliasIn finds the longest registry alias of the given kind that
// appears in the question. Longest wins so "los angeles lakers" beats
// "lakers" and "anthony davis" beats "davis".
func (c *Classifier) longestAliasIn(lower string, kind entity.Kind) string {
	best := ""
	for _, alias := range c.registry.AllAliases(kind) {
		if len(alias) <= len(best) {
			continue
		}
		if containsPhrase(lower, alias) {
			best = alias
		}
	}
	return best
}

// containsPhrase is a word-boundary-aware contains, so the "heat" alias does
// not fire inside "cheated".
func containsPhrase(text, phrase string) bool {
	idx := 0
	for {
		pos := strings.Index(text[idx:], phrase)
		if pos < 0 {
			return false
		}
		pos += idx
		end := pos + len(phrase)
		beforeOK := pos == 0 || !isWordChar(text[pos-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = pos + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// isScheduleQuestion is checked before every other kind: "when do the Knicks
// play" must never fall through to a last-game lookup.
func isScheduleQuestion(lower string) bool {
	for _, kw := range []string{
		"when do", "when does", "play next", "next game",
		"upcoming", "schedule", "who do the",
	} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isStandingsQuestion(lower string) bool {
	for _, kw := range []string{"standings", "standing", "seed", "ranked", "conference", "what place", "record"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isAggregateQuestion(lower string) bool {
	for _, kw := range []string{
		"averag", "per game", "ppg", "rpg", "apg",
		"last two weeks", "past two weeks", "last 2 weeks",
		"leads the league", "league leader", "who leads", "most points", "most rebounds", "most assists",
		"top ", "triple double", "triple-double",
	} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func detectDateRef(lower string) string {
	for _, ref := range []string{"last night", "yesterday", "tonight", "today", "this week", "last week"} {
		if strings.Contains(lower, ref) {
			return ref
		}
	}
	return ""
}

func parseTopN(lower string) int {
	m := topNPattern.FindStringSubmatch(lower)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 30 {
		return 0
	}
	return n
}

// opponentAfter pulls the text following a versus marker, when present.
func opponentAfter(lower, subject string) string {
	for _, sep := range []string{" vs ", " vs. ", " against ", " versus "} {
		idx := strings.Index(lower, sep)
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(lower[idx+len(sep):])
		rest = strings.TrimRight(rest, "?!. ")
		if rest != "" && rest != subject {
			return rest
		}
	}
	return ""
}

// guessSubject strips question scaffolding and returns what is left, a crude
// fallback for subjects the registry does not know.
func guessSubject(lower string) string {
	cleaned := strings.TrimRight(lower, "?!. ")
	for _, prefix := range []string{
		"did the ", "did ", "how did the ", "how did ", "what was the ", "what did ",
		"how many points did ", "how many rebounds did ", "how many assists did ",
		"when do the ", "when does the ", "when do ", "when does ", "who do the ",
	} {
		if strings.HasPrefix(cleaned, prefix) {
			cleaned = cleaned[len(prefix):]
			break
		}
	}
	for _, suffix := range []string{" win last night", " win yesterday", " win", " play next", " play last night", " play again", " play", " score last night", " score", " do last night", " do"} {
		if strings.HasSuffix(cleaned, suffix) {
			cleaned = cleaned[:len(cleaned)-len(suffix)]
			break
		}
	}
	return strings.TrimSpace(cleaned)
}
