package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/domain"
	"github.com/fortuna/courtside/internal/entity"
	"github.com/fortuna/courtside/internal/provider"
	"github.com/fortuna/courtside/internal/validation"
)

const defaultLeaderCount = 5

// Aggregator computes window statistics from per-game lines: per-player
// averages, triple-double counts, and league leaderboards. Every aggregate it
// emits is marked degraded, because a bounded window is an approximation of a
// season stat, never the real thing.
type Aggregator struct {
	validator *validation.Validator
	log       *logrus.Logger
}

func New(validator *validation.Validator, log *logrus.Logger) *Aggregator {
	if log == nil {
		log = logrus.New()
	}
	return &Aggregator{validator: validator, log: log}
}

// WindowAverage averages one player's lines across the window. For the
// triple-double stat it counts qualifying games instead of averaging.
func (a *Aggregator) WindowAverage(subject *entity.Entity, observations []provider.Observation, req domain.StatRequest) (*domain.ValidatedResult, error) {
	lines, latestDate, source := a.collectLines(observations)
	if len(lines) == 0 {
		return nil, fmt.Errorf("no usable lines for %s in window", subject.CanonicalName)
	}

	values := map[string]float64{
		"games": float64(len(lines)),
	}
	var pts, reb, ast, stl, blk, tripleDoubles float64
	for _, line := range lines {
		pts += float64(line.Points)
		reb += float64(line.Rebounds)
		ast += float64(line.Assists)
		stl += float64(line.Steals)
		blk += float64(line.Blocks)
		if isTripleDouble(line) {
			tripleDoubles++
		}
	}
	n := float64(len(lines))
	values[StatPoints] = round1(pts / n)
	values[StatRebounds] = round1(reb / n)
	values[StatAssists] = round1(ast / n)
	values[StatSteals] = round1(stl / n)
	values[StatBlocks] = round1(blk / n)
	values[StatTripleDouble] = tripleDoubles

	a.log.WithFields(logrus.Fields{
		"component": "aggregator",
		"player":    subject.CanonicalName,
		"games":     len(lines),
		"source":    source,
	}).Info("✓ window average computed")

	return &domain.ValidatedResult{
		Subject:    subject,
		Values:     values,
		AsOfDate:   latestDate,
		Source:     source,
		Confidence: domain.ConfidenceDegraded,
	}, nil
}

// Leaders ranks every player seen in the window by their per-game average of
// the requested stat. Ties break alphabetically so the ranking is stable
// across runs.
func (a *Aggregator) Leaders(observations []provider.Observation, req domain.StatRequest) (*domain.ValidatedResult, error) {
	lines, latestDate, source := a.collectLines(observations)
	if len(lines) == 0 {
		return nil, fmt.Errorf("no usable lines in window")
	}

	stat := req.StatName
	if stat == "" {
		stat = StatPoints
	}

	type tally struct {
		total float64
		games int
	}
	byPlayer := make(map[string]*tally)
	for _, line := range lines {
		t, ok := byPlayer[line.PlayerName]
		if !ok {
			t = &tally{}
			byPlayer[line.PlayerName] = t
		}
		t.games++
		if stat == StatTripleDouble {
			if isTripleDouble(line) {
				t.total++
			}
		} else {
			t.total += float64(line.Stat(stat))
		}
	}

	entries := make([]domain.LeaderEntry, 0, len(byPlayer))
	for name, t := range byPlayer {
		value := t.total
		if stat != StatTripleDouble {
			value = round1(t.total / float64(t.games))
		}
		entries = append(entries, domain.LeaderEntry{Name: name, Value: value})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Name < entries[j].Name
	})

	topN := req.TopN
	if topN <= 0 {
		topN = defaultLeaderCount
	}
	if len(entries) > topN {
		entries = entries[:topN]
	}

	a.log.WithFields(logrus.Fields{
		"component": "aggregator",
		"stat":      stat,
		"players":   len(byPlayer),
		"top_n":     topN,
	}).Info("✓ leaderboard computed")

	return &domain.ValidatedResult{
		Leaders:    entries,
		Values:     map[string]float64{"players_seen": float64(len(byPlayer))},
		AsOfDate:   latestDate,
		Source:     source,
		Confidence: domain.ConfidenceDegraded,
	}, nil
}

// collectLines flattens observations to plausible player lines, tracking the
// latest game date and the contributing source.
func (a *Aggregator) collectLines(observations []provider.Observation) ([]provider.PlayerLine, time.Time, string) {
	var lines []provider.PlayerLine
	var latest time.Time
	var source string
	for _, obs := range observations {
		line, ok := obs.Payload.(provider.PlayerLine)
		if !ok {
			continue
		}
		if a.validator != nil && !a.validator.ValidateLine(line) {
			a.log.WithFields(logrus.Fields{
				"component": "aggregator",
				"player":    line.PlayerName,
			}).Debug("dropping implausible line")
			continue
		}
		lines = append(lines, line)
		date := line.GameDate
		if date.IsZero() {
			date = obs.ObservedAt
		}
		if date.After(latest) {
			latest = date
		}
		source = obs.SourceID
	}
	return lines, latest, source
}

func isTripleDouble(line provider.PlayerLine) bool {
	categories := 0
	for _, v := range []int{line.Points, line.Rebounds, line.Assists, line.Steals, line.Blocks} {
		if v >= 10 {
			categories++
		}
	}
	return categories >= 3
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
