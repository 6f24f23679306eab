package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "la lakers", Normalize("L.A. Lakers!"))
	assert.Equal(t, "okc", Normalize("  OKC  "))
	assert.Equal(t, "lebron james", Normalize("LeBron   James"))
	assert.Equal(t, "", Normalize("?!."))
}

func TestRegistryRejectsDuplicateAlias(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(&Entity{CanonicalName: "Orlando Magic", Kind: KindTeam}, "magic"))

	err := r.Add(&Entity{CanonicalName: "Washington Wizards", Kind: KindTeam}, "magic")
	require.Error(t, err)

	// The failed Add must not have registered anything.
	_, ok := r.Lookup("washington wizards", KindTeam)
	assert.False(t, ok)
}

func TestRegistryAliasesDisjointAcrossKinds(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(&Entity{CanonicalName: "Orlando Magic", Kind: KindTeam}, "magic"))
	require.NoError(t, r.Add(&Entity{CanonicalName: "Magic Johnson", Kind: KindPlayer}, "magic"))

	team, ok := r.Lookup("magic", KindTeam)
	require.True(t, ok)
	assert.Equal(t, "Orlando Magic", team.CanonicalName)

	player, ok := r.Lookup("magic", KindPlayer)
	require.True(t, ok)
	assert.Equal(t, "Magic Johnson", player.CanonicalName)
}

func TestResolveExactAlias(t *testing.T) {
	resolver := NewResolver(SeededRegistry(), nil)

	res := resolver.Resolve("the Knicks", KindTeam)
	require.NotNil(t, res.Entity)
	assert.Equal(t, "New York Knicks", res.Entity.CanonicalName)
	assert.Equal(t, MethodExactAlias, res.Method)
}

func TestResolveExactAliasCarriesPlayerHint(t *testing.T) {
	resolver := NewResolver(SeededRegistry(), nil)

	res := resolver.Resolve("LeBron", KindPlayer)
	require.NotNil(t, res.Entity)
	assert.Equal(t, "LeBron James", res.Entity.CanonicalName)
	assert.Equal(t, MethodExactAlias, res.Method)
	assert.NotEmpty(t, res.ProviderHint)
}

func TestResolveNormalizesBeforeLookup(t *testing.T) {
	resolver := NewResolver(SeededRegistry(), nil)

	res := resolver.Resolve("  L.A. LAKERS!! ", KindTeam)
	require.NotNil(t, res.Entity)
	assert.Equal(t, "Los Angeles Lakers", res.Entity.CanonicalName)
	assert.Equal(t, MethodExactAlias, res.Method)
}

func TestResolveFuzzyMatch(t *testing.T) {
	resolver := NewResolver(SeededRegistry(), nil)

	// Not an exact alias, but overlaps exactly one team.
	res := resolver.Resolve("the oklahoma team", KindTeam)
	require.NotNil(t, res.Entity)
	assert.Equal(t, "Oklahoma City Thunder", res.Entity.CanonicalName)
	assert.Equal(t, MethodFuzzyMatch, res.Method)
	assert.Empty(t, res.ProviderHint)
}

func TestResolveAmbiguousTieIsUnresolved(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(&Entity{CanonicalName: "Los Angeles Lakers", Kind: KindTeam}, "lakers"))
	require.NoError(t, r.Add(&Entity{CanonicalName: "Los Angeles Clippers", Kind: KindTeam}, "clippers"))
	resolver := NewResolver(r, nil)

	// "los angeles" overlaps both entities with the same score. Refusing to
	// guess beats answering about the wrong team.
	res := resolver.Resolve("los angeles", KindTeam)
	assert.Nil(t, res.Entity)
	assert.Equal(t, MethodUnresolved, res.Method)
}

func TestResolveUnknownIsUnresolved(t *testing.T) {
	resolver := NewResolver(SeededRegistry(), nil)

	res := resolver.Resolve("the Springfield Isotopes", KindTeam)
	assert.Nil(t, res.Entity)
	assert.Equal(t, MethodUnresolved, res.Method)

	res = resolver.Resolve("", KindTeam)
	assert.Equal(t, MethodUnresolved, res.Method)
}

func TestSeededRegistryCoversLeague(t *testing.T) {
	r := SeededRegistry()
	assert.Len(t, r.Entities(KindTeam), 30)
	assert.NotEmpty(t, r.Entities(KindPlayer))
}
