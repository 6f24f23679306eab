package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fortuna/courtside/internal/aggregate"
	"github.com/fortuna/courtside/internal/domain"
	"github.com/fortuna/courtside/internal/entity"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	return NewClassifier(entity.SeededRegistry(), nil)
}

func TestClassifyTeamResult(t *testing.T) {
	c := newTestClassifier(t)

	req := c.Classify("Did the Knicks win last night?")
	assert.Equal(t, domain.KindTeamResult, req.Kind)
	assert.Equal(t, "knicks", req.SubjectText)
	assert.Equal(t, "last night", req.DateRef)
}

func TestClassifyPlayerStat(t *testing.T) {
	c := newTestClassifier(t)

	req := c.Classify("How many points did LeBron score?")
	assert.Equal(t, domain.KindPlayerStat, req.Kind)
	assert.Equal(t, "lebron", req.SubjectText)
	assert.Equal(t, aggregate.StatPoints, req.StatName)

	req = c.Classify("How many rebounds did Jokic grab last night?")
	assert.Equal(t, domain.KindPlayerStat, req.Kind)
	assert.Equal(t, "jokic", req.SubjectText)
	assert.Equal(t, aggregate.StatRebounds, req.StatName)
}

func TestClassifyLongestAliasWins(t *testing.T) {
	c := newTestClassifier(t)

	// "los angeles lakers" must beat the shorter "lakers" alias.
	req := c.Classify("did the los angeles lakers win")
	assert.Equal(t, domain.KindTeamResult, req.Kind)
	assert.Equal(t, "los angeles lakers", req.SubjectText)
}

func TestClassifyStandings(t *testing.T) {
	c := newTestClassifier(t)

	req := c.Classify("Are the Celtics top 4 in the East standings?")
	assert.Equal(t, domain.KindStandings, req.Kind)
	assert.Equal(t, "celtics", req.SubjectText)
	assert.Equal(t, 4, req.TopN)
}

func TestClassifyPlayerAggregate(t *testing.T) {
	c := newTestClassifier(t)

	req := c.Classify("What is Jokic averaging over the last two weeks?")
	assert.Equal(t, domain.KindDerivedAggregate, req.Kind)
	assert.Equal(t, "jokic", req.SubjectText)
}

func TestClassifyLeagueLeaders(t *testing.T) {
	c := newTestClassifier(t)

	req := c.Classify("Who leads the league in assists?")
	assert.Equal(t, domain.KindDerivedAggregate, req.Kind)
	assert.Empty(t, req.SubjectText)
	assert.Equal(t, aggregate.StatAssists, req.StatName)
}

func TestClassifySchedule(t *testing.T) {
	c := newTestClassifier(t)

	req := c.Classify("When do the Knicks play next?")
	assert.Equal(t, domain.KindSchedule, req.Kind)
	assert.Equal(t, "knicks", req.SubjectText)

	req = c.Classify("Who do the Celtics play next?")
	assert.Equal(t, domain.KindSchedule, req.Kind)
	assert.Equal(t, "celtics", req.SubjectText)

	req = c.Classify("What's the Magic's next game?")
	assert.Equal(t, domain.KindSchedule, req.Kind)
	assert.Equal(t, "magic", req.SubjectText)
}

func TestClassifyScheduleDoesNotEatLastNight(t *testing.T) {
	c := newTestClassifier(t)

	// "last night" questions are about a finished game, not the schedule.
	req := c.Classify("Did the Knicks win last night?")
	assert.Equal(t, domain.KindTeamResult, req.Kind)
}

func TestClassifyUnknownTeamKeepsSubjectText(t *testing.T) {
	c := newTestClassifier(t)

	// The subject is preserved so the failure can name what was asked about.
	req := c.Classify("Did the Springfield Isotopes win?")
	assert.Equal(t, domain.KindTeamResult, req.Kind)
	assert.Equal(t, "springfield isotopes", req.SubjectText)
}

func TestClassifyOpponent(t *testing.T) {
	c := newTestClassifier(t)

	req := c.Classify("Did the Knicks win against the Magic?")
	assert.Equal(t, domain.KindTeamResult, req.Kind)
	assert.Equal(t, "knicks", req.SubjectText)
	assert.Equal(t, "the magic", req.OpponentText)
}

func TestContainsPhraseRespectsWordBoundaries(t *testing.T) {
	assert.True(t, containsPhrase("did the heat win", "heat"))
	assert.False(t, containsPhrase("the crowd cheated loudly", "heat"))
	assert.True(t, containsPhrase("knicks vs magic", "magic"))
}
