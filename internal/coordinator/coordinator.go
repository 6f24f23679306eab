package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/aggregate"
	"github.com/fortuna/courtside/internal/domain"
	"github.com/fortuna/courtside/internal/entity"
	"github.com/fortuna/courtside/internal/provider"
	"github.com/fortuna/courtside/internal/validation"
)

// Config tunes the fallback chain. Zero values fall back to defaults.
type Config struct {
	// RequestDeadline is the total wall-clock budget for one question,
	// shared by every adapter the chain tries.
	RequestDeadline time.Duration

	// TeamResultWindowDays bounds how far back "last game" lookups reach.
	TeamResultWindowDays int

	// AggregateWindowDays bounds window averages and leaderboards.
	AggregateWindowDays int

	// ScheduleWindowDays bounds how far forward "next game" lookups reach.
	ScheduleWindowDays int
}

func (c Config) withDefaults() Config {
	if c.RequestDeadline <= 0 {
		c.RequestDeadline = 8 * time.Second
	}
	if c.TeamResultWindowDays <= 0 {
		c.TeamResultWindowDays = 7
	}
	if c.AggregateWindowDays <= 0 {
		c.AggregateWindowDays = 14
	}
	if c.ScheduleWindowDays <= 0 {
		c.ScheduleWindowDays = 7
	}
	return c
}

// Coordinator walks sources freshest-first and stops at the first validated
// answer. It owns the failure taxonomy: adapter-level failures mean "try the
// next source", and only the terminal reasons in domain.FailureReason ever
// reach the caller.
type Coordinator struct {
	cfg        Config
	resolver   *entity.Resolver
	validator  *validation.Validator
	aggregator *aggregate.Aggregator
	adapters   []provider.Adapter
	breakers   *breakerSet
	log        *logrus.Logger
}

// New wires a coordinator over an ordered adapter slice. Order is freshness
// order: the first adapter supporting a capability is always tried first.
func New(cfg Config, resolver *entity.Resolver, validator *validation.Validator, aggregator *aggregate.Aggregator, adapters []provider.Adapter, log *logrus.Logger) *Coordinator {
	if log == nil {
		log = logrus.New()
	}
	ids := make([]string, 0, len(adapters))
	for _, a := range adapters {
		ids = append(ids, a.SourceID())
	}
	return &Coordinator{
		cfg:        cfg.withDefaults(),
		resolver:   resolver,
		validator:  validator,
		aggregator: aggregator,
		adapters:   adapters,
		breakers:   newBreakerSet(ids, log),
		log:        log,
	}
}

// Answer resolves the request's subject and runs the fallback chain for its
// query kind. Exactly one of Outcome.Result / Outcome.Failure is set.
func (c *Coordinator) Answer(ctx context.Context, req domain.StatRequest) domain.Outcome {
	start := time.Now()
	requestID := uuid.New().String()[:8]
	log := c.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"kind":       string(req.Kind),
		"subject":    req.SubjectText,
	})

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestDeadline)
	defer cancel()

	// League-wide leaderboards have no subject to resolve.
	if req.Kind == domain.KindDerivedAggregate && req.SubjectText == "" {
		return c.answerLeaders(ctx, req, log, start)
	}

	subjectKind := entity.KindTeam
	if req.Kind == domain.KindPlayerStat || req.Kind == domain.KindDerivedAggregate {
		subjectKind = entity.KindPlayer
	}
	res := c.resolver.Resolve(req.SubjectText, subjectKind)
	if res.Entity == nil {
		log.Info("entity unresolved, no sources consulted")
		return failure(domain.ReasonUnresolvedEntity, nil, start, req)
	}
	log = log.WithField("entity", res.Entity.CanonicalName)

	switch req.Kind {
	case domain.KindTeamResult:
		return c.answerTeamResult(ctx, req, res, log, start)
	case domain.KindPlayerStat:
		return c.answerPlayerStat(ctx, req, res, log, start)
	case domain.KindStandings:
		return c.answerStandings(ctx, req, res, log, start)
	case domain.KindDerivedAggregate:
		return c.answerPlayerAggregate(ctx, req, res, log, start)
	case domain.KindSchedule:
		return c.answerSchedule(ctx, req, res, log, start)
	}
	return failure(domain.ReasonAllSourcesExhausted, nil, start, req)
}

// chain walks eligible adapters in order, calling fetch through the source's
// breaker and validating what comes back. The first observation that survives
// validation short-circuits everything behind it.
func (c *Coordinator) chain(
	ctx context.Context,
	capability provider.Capability,
	res entity.Resolution,
	log *logrus.Entry,
	fetch func(context.Context, provider.Adapter) ([]provider.Observation, error),
	accept func([]provider.Observation) (*domain.ValidatedResult, error),
) (*domain.ValidatedResult, []string, domain.FailureReason) {
	var tried []string
	for _, adapter := range c.adapters {
		if !adapter.Supports(capability) {
			continue
		}
		// The known-entity fast path: on an exact alias hit, a player-stat
		// source that needs its own id would burn a discovery round trip
		// unless we already hold an id in its id space. Other capabilities
		// never need a player id, so they are exempt.
		if capability == provider.CapPlayerStats && adapter.RequiresProviderID() &&
			res.Method == entity.MethodExactAlias && res.HintFor(adapter.SourceID()) == "" {
			log.WithField("source", adapter.SourceID()).Debug("skipping source that needs a provider id lookup")
			continue
		}
		if c.breakers.open(adapter.SourceID()) {
			log.WithField("source", adapter.SourceID()).Warn("⚠️  source breaker open, skipping")
			tried = append(tried, adapter.SourceID())
			continue
		}
		if ctx.Err() != nil {
			return nil, tried, domain.ReasonDeadlineExceeded
		}

		observations, reason, ok := c.callAdapter(ctx, adapter, fetch, log)
		if !ok {
			tried = append(tried, adapter.SourceID())
			if reason == domain.ReasonDeadlineExceeded {
				return nil, tried, reason
			}
			continue
		}
		tried = append(tried, adapter.SourceID())

		result, err := accept(observations)
		if err != nil {
			log.WithFields(logrus.Fields{
				"source": adapter.SourceID(),
				"error":  err.Error(),
			}).Warn("⚠️  observation rejected, trying next source")
			continue
		}
		log.WithFields(logrus.Fields{
			"source": adapter.SourceID(),
			"as_of":  result.AsOfDate.Format("2006-01-02"),
		}).Info("✓ answer validated")
		return result, tried, ""
	}

	if ctx.Err() != nil {
		return nil, tried, domain.ReasonDeadlineExceeded
	}
	return nil, tried, domain.ReasonAllSourcesExhausted
}

// callAdapter runs one fetch in its own goroutine so an overdue source can be
// abandoned without waiting for it. A late write lands in the buffered
// channel and is dropped; the result never influences this request.
func (c *Coordinator) callAdapter(
	ctx context.Context,
	adapter provider.Adapter,
	fetch func(context.Context, provider.Adapter) ([]provider.Observation, error),
	log *logrus.Entry,
) ([]provider.Observation, domain.FailureReason, bool) {
	type fetchResult struct {
		observations []provider.Observation
		err          error
	}
	ch := make(chan fetchResult, 1)

	go func() {
		out, err := c.breakers.execute(adapter.SourceID(), func() (interface{}, error) {
			return fetch(ctx, adapter)
		})
		if err != nil {
			ch <- fetchResult{err: err}
			return
		}
		observations, _ := out.([]provider.Observation)
		ch <- fetchResult{observations: observations}
	}()

	select {
	case <-ctx.Done():
		log.WithField("source", adapter.SourceID()).Warn("⚠️  deadline hit mid-fetch, abandoning source")
		return nil, domain.ReasonDeadlineExceeded, false
	case r := <-ch:
		if r.err != nil {
			log.WithFields(logrus.Fields{
				"source": adapter.SourceID(),
				"error":  r.err.Error(),
			}).Warn("⚠️  source failed, falling through")
			return nil, "", false
		}
		if len(r.observations) == 0 {
			log.WithField("source", adapter.SourceID()).Info("source returned nothing, falling through")
			return nil, "", false
		}
		return r.observations, "", true
	}
}

func (c *Coordinator) answerTeamResult(ctx context.Context, req domain.StatRequest, res entity.Resolution, log *logrus.Entry, start time.Time) domain.Outcome {
	result, tried, reason := c.chain(ctx, provider.CapTeamResult, res, log,
		func(ctx context.Context, a provider.Adapter) ([]provider.Observation, error) {
			obs, err := a.FetchTeamResult(ctx, res.Entity, c.cfg.TeamResultWindowDays)
			if err != nil {
				return nil, err
			}
			return []provider.Observation{*obs}, nil
		},
		func(observations []provider.Observation) (*domain.ValidatedResult, error) {
			return c.validator.Validate(pickFreshest(observations), res.Entity, req)
		},
	)
	if result != nil {
		return domain.Outcome{Result: result}
	}
	return failure(reason, tried, start, req)
}

func (c *Coordinator) answerSchedule(ctx context.Context, req domain.StatRequest, res entity.Resolution, log *logrus.Entry, start time.Time) domain.Outcome {
	result, tried, reason := c.chain(ctx, provider.CapUpcomingGame, res, log,
		func(ctx context.Context, a provider.Adapter) ([]provider.Observation, error) {
			obs, err := a.FetchUpcomingGame(ctx, res.Entity, c.cfg.ScheduleWindowDays)
			if err != nil {
				return nil, err
			}
			return []provider.Observation{*obs}, nil
		},
		func(observations []provider.Observation) (*domain.ValidatedResult, error) {
			return c.validator.Validate(observations[0], res.Entity, req)
		},
	)
	if result != nil {
		return domain.Outcome{Result: result}
	}
	return failure(reason, tried, start, req)
}

func (c *Coordinator) answerPlayerStat(ctx context.Context, req domain.StatRequest, res entity.Resolution, log *logrus.Entry, start time.Time) domain.Outcome {
	result, tried, reason := c.chain(ctx, provider.CapPlayerStats, res, log,
		func(ctx context.Context, a provider.Adapter) ([]provider.Observation, error) {
			return a.FetchPlayerStats(ctx, res.Entity, res.HintFor(a.SourceID()), c.cfg.AggregateWindowDays)
		},
		func(observations []provider.Observation) (*domain.ValidatedResult, error) {
			return c.validator.Validate(pickFreshest(observations), res.Entity, req)
		},
	)
	if result != nil {
		return domain.Outcome{Result: result}
	}
	return failure(reason, tried, start, req)
}

func (c *Coordinator) answerStandings(ctx context.Context, req domain.StatRequest, res entity.Resolution, log *logrus.Entry, start time.Time) domain.Outcome {
	result, tried, reason := c.chain(ctx, provider.CapStandings, res, log,
		func(ctx context.Context, a provider.Adapter) ([]provider.Observation, error) {
			return a.FetchStandings(ctx, res.Entity.Conference)
		},
		func(observations []provider.Observation) (*domain.ValidatedResult, error) {
			obs, ok := findStandingRow(observations, res.Entity)
			if !ok {
				return nil, fmt.Errorf("no standings row for %s", res.Entity.CanonicalName)
			}
			return c.validator.Validate(obs, res.Entity, req)
		},
	)
	if result != nil {
		return domain.Outcome{Result: result}
	}
	return failure(reason, tried, start, req)
}

func (c *Coordinator) answerPlayerAggregate(ctx context.Context, req domain.StatRequest, res entity.Resolution, log *logrus.Entry, start time.Time) domain.Outcome {
	result, tried, reason := c.chain(ctx, provider.CapPlayerStats, res, log,
		func(ctx context.Context, a provider.Adapter) ([]provider.Observation, error) {
			return a.FetchPlayerStats(ctx, res.Entity, res.HintFor(a.SourceID()), c.cfg.AggregateWindowDays)
		},
		func(observations []provider.Observation) (*domain.ValidatedResult, error) {
			return c.aggregator.WindowAverage(res.Entity, observations, req)
		},
	)
	if result != nil {
		return domain.Outcome{Result: result}
	}
	return failure(reason, tried, start, req)
}

func (c *Coordinator) answerLeaders(ctx context.Context, req domain.StatRequest, log *logrus.Entry, start time.Time) domain.Outcome {
	// Leaderboards need every player's lines; only fuzzy-free, league-wide
	// capable sources apply, so pass a synthetic exact resolution.
	res := entity.Resolution{Method: entity.MethodExactAlias}
	result, tried, reason := c.chain(ctx, provider.CapPlayerStats, res, log,
		func(ctx context.Context, a provider.Adapter) ([]provider.Observation, error) {
			return a.FetchPlayerStats(ctx, nil, "", c.cfg.AggregateWindowDays)
		},
		func(observations []provider.Observation) (*domain.ValidatedResult, error) {
			return c.aggregator.Leaders(observations, req)
		},
	)
	if result != nil {
		return domain.Outcome{Result: result}
	}
	return failure(reason, tried, start, req)
}

func failure(reason domain.FailureReason, tried []string, start time.Time, req domain.StatRequest) domain.Outcome {
	return domain.Outcome{Failure: &domain.FetchFailure{
		Reason:       reason,
		TriedSources: tried,
		Elapsed:      time.Since(start),
		SubjectText:  req.SubjectText,
		StatName:     req.StatName,
	}}
}

func pickFreshest(observations []provider.Observation) provider.Observation {
	freshest := observations[0]
	for _, obs := range observations[1:] {
		if obs.ObservedAt.After(freshest.ObservedAt) {
			freshest = obs
		}
	}
	return freshest
}

func findStandingRow(observations []provider.Observation, team *entity.Entity) (provider.Observation, bool) {
	for _, obs := range observations {
		row, ok := obs.Payload.(provider.StandingRow)
		if !ok {
			continue
		}
		if row.Team == team.CanonicalName || row.Team == team.Abbreviation {
			return obs, true
		}
	}
	return provider.Observation{}, false
}
