package entity

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Method records how a resolution was obtained. The coordinator uses it to
// decide whether the fast path applies.
type Method string

const (
	MethodExactAlias Method = "exact_alias"
	MethodFuzzyMatch Method = "fuzzy_match"
	MethodUnresolved Method = "unresolved"
)

// Resolution is the resolver's answer for one piece of text. Entity is nil
// when Method is MethodUnresolved.
type Resolution struct {
	Entity *Entity `json:"entity,omitempty"`
	Method Method  `json:"method"`

	// ProviderHint is an opaque id usable only by the adapter named in
	// HintSource; the same player has unrelated ids across providers. It is
	// populated only on the exact-alias path and may be absent even then;
	// adapters fall back to name matching without it.
	ProviderHint string `json:"provider_hint,omitempty"`

	// HintSource names the adapter whose id space ProviderHint belongs to.
	HintSource string `json:"hint_source,omitempty"`
}

// HintFor returns the provider hint when it belongs to the named source, and
// an empty string for every other source. Callers must never hand one
// provider's id to another.
func (r Resolution) HintFor(sourceID string) string {
	if r.HintSource == sourceID {
		return r.ProviderHint
	}
	return ""
}

// Resolver maps free-text name fragments onto registry entities. It never
// returns an error; the worst case is MethodUnresolved.
type Resolver struct {
	registry *Registry
	log      *logrus.Logger
}

// NewResolver creates a resolver over an immutable registry.
func NewResolver(registry *Registry, log *logrus.Logger) *Resolver {
	if log == nil {
		log = logrus.New()
	}
	return &Resolver{registry: registry, log: log}
}

// Resolve normalizes the text, tries the exact alias table, and falls back to
// the longest unambiguous fuzzy match. A tie between two canonical names is
// returned as unresolved rather than guessed.
func (r *Resolver) Resolve(text string, kind Kind) Resolution {
	normalized := Normalize(text)
	if normalized == "" {
		return Resolution{Method: MethodUnresolved}
	}

	if e, ok := r.registry.Lookup(normalized, kind); ok {
		res := Resolution{Entity: e, Method: MethodExactAlias}
		if kind == KindPlayer && e.ESPNID != "" {
			res.ProviderHint = e.ESPNID
			res.HintSource = "espn"
		}
		r.log.WithFields(logrus.Fields{
			"component": "resolver",
			"input":     text,
			"canonical": e.CanonicalName,
			"method":    MethodExactAlias,
		}).Debug("resolved via alias table")
		return res
	}

	best, bestScore, ambiguous := r.fuzzyMatch(normalized, kind)
	if best == nil || ambiguous {
		if ambiguous {
			r.log.WithFields(logrus.Fields{
				"component": "resolver",
				"input":     text,
			}).Warn("⚠️  ambiguous entity reference, refusing to guess")
		}
		return Resolution{Method: MethodUnresolved}
	}

	r.log.WithFields(logrus.Fields{
		"component": "resolver",
		"input":     text,
		"canonical": best.CanonicalName,
		"score":     bestScore,
		"method":    MethodFuzzyMatch,
	}).Debug("resolved via fuzzy match")

	// The fuzzy path never carries a provider hint: the entity was not one
	// of the seeded well-known names, so any id on record is not trusted.
	return Resolution{Entity: best, Method: MethodFuzzyMatch}
}

// fuzzyMatch scores every entity of the kind by its best alias overlap with
// the input and returns the single highest scorer. Entities are scanned in
// canonical-name order so repeated calls are deterministic.
func (r *Resolver) fuzzyMatch(normalized string, kind Kind) (best *Entity, bestScore int, ambiguous bool) {
	inputTokens := strings.Fields(normalized)

	for _, e := range r.registry.Entities(kind) {
		score := 0
		for _, alias := range r.registry.Aliases(e) {
			if s := overlapScore(normalized, inputTokens, alias); s > score {
				score = s
			}
		}
		if score == 0 {
			continue
		}
		switch {
		case score > bestScore:
			best, bestScore, ambiguous = e, score, false
		case score == bestScore && best != nil && best.CanonicalName != e.CanonicalName:
			ambiguous = true
		}
	}
	return best, bestScore, ambiguous
}

// overlapScore measures how strongly an alias matches the input: substring
// containment counts the length of the contained side, otherwise the summed
// length of shared tokens. Scoring the contained side keeps a short input
// from favoring whichever alias happens to be longest, so "los angeles"
// scores both LA teams equally and stays ambiguous.
func overlapScore(normalized string, inputTokens []string, alias string) int {
	if alias == "" {
		return 0
	}
	if strings.Contains(normalized, alias) {
		return len(alias)
	}
	if strings.Contains(alias, normalized) {
		return len(normalized)
	}

	aliasTokens := strings.Fields(alias)
	score := 0
	for _, it := range inputTokens {
		if len(it) < 2 {
			continue
		}
		for _, at := range aliasTokens {
			if it == at {
				score += len(it)
				break
			}
		}
	}
	return score
}
