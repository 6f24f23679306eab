package entity

import (
	"fmt"
	"sort"
	"strings"
)

// Kind distinguishes the two entity namespaces. Aliases must be unique within
// a kind but may collide across kinds ("magic" the team vs. a player nickname).
type Kind string

const (
	KindTeam   Kind = "team"
	KindPlayer Kind = "player"
)

// Entity is a canonical team or player known to the registry.
type Entity struct {
	CanonicalName string `json:"canonical_name"`
	Kind          Kind   `json:"kind"`

	// Abbreviation is the league abbreviation for teams (e.g. "OKC").
	Abbreviation string `json:"abbreviation,omitempty"`

	// TeamAffiliation references a player's team by canonical name. It is
	// seeded once and may be stale; nothing in the pipeline trusts it for
	// matching, only for display.
	TeamAffiliation string `json:"team_affiliation,omitempty"`

	// ESPNID is the provider-specific numeric id, when known at seed time.
	// Populating it lets the coordinator skip remote id discovery.
	ESPNID string `json:"-"`

	// Conference is set for teams ("East"/"West").
	Conference string `json:"conference,omitempty"`
}

// Registry is the process-wide entity table. It is built once at startup and
// read-only afterwards, so concurrent resolvers share it without locking.
type Registry struct {
	byAlias  map[Kind]map[string]*Entity
	entities map[Kind][]*Entity
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byAlias: map[Kind]map[string]*Entity{
			KindTeam:   {},
			KindPlayer: {},
		},
		entities: map[Kind][]*Entity{},
	}
}

// Add registers an entity under its canonical name plus the given aliases.
// An alias already claimed by another entity of the same kind is rejected,
// keeping alias sets disjoint per kind.
func (r *Registry) Add(e *Entity, aliases ...string) error {
	if e.CanonicalName == "" {
		return fmt.Errorf("entity has no canonical name")
	}

	table := r.byAlias[e.Kind]
	if table == nil {
		return fmt.Errorf("unknown entity kind %q", e.Kind)
	}

	keys := make([]string, 0, len(aliases)+2)
	keys = append(keys, Normalize(e.CanonicalName))
	if e.Abbreviation != "" {
		keys = append(keys, Normalize(e.Abbreviation))
	}
	for _, a := range aliases {
		keys = append(keys, Normalize(a))
	}

	// Verify disjointness before mutating anything.
	for _, k := range keys {
		if k == "" {
			continue
		}
		if existing, ok := table[k]; ok && existing.CanonicalName != e.CanonicalName {
			return fmt.Errorf("alias %q already claimed by %s %q", k, e.Kind, existing.CanonicalName)
		}
	}

	for _, k := range keys {
		if k != "" {
			table[k] = e
		}
	}
	r.entities[e.Kind] = append(r.entities[e.Kind], e)
	return nil
}

// Lookup returns the entity for an exact normalized alias, if any.
func (r *Registry) Lookup(text string, kind Kind) (*Entity, bool) {
	e, ok := r.byAlias[kind][Normalize(text)]
	return e, ok
}

// Entities returns all entities of a kind, sorted by canonical name so that
// every scan over them is deterministic.
func (r *Registry) Entities(kind Kind) []*Entity {
	out := make([]*Entity, len(r.entities[kind]))
	copy(out, r.entities[kind])
	sort.Slice(out, func(i, j int) bool {
		return out[i].CanonicalName < out[j].CanonicalName
	})
	return out
}

// Aliases returns the normalized aliases pointing at an entity, sorted.
func (r *Registry) Aliases(e *Entity) []string {
	var out []string
	for alias, owner := range r.byAlias[e.Kind] {
		if owner.CanonicalName == e.CanonicalName {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// AllAliases returns every normalized alias registered under a kind, sorted.
func (r *Registry) AllAliases(kind Kind) []string {
	out := make([]string, 0, len(r.byAlias[kind]))
	for alias := range r.byAlias[kind] {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// Normalize lowercases, strips punctuation, and collapses whitespace so that
// "L.A. Lakers!" and "la lakers" hit the same alias slot.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
