package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/coordinator"
	"github.com/fortuna/courtside/internal/domain"
	"github.com/fortuna/courtside/internal/intent"
	"github.com/fortuna/courtside/internal/render"
)

// Pipeline runs one question end to end: classify, resolve and fetch, render.
// It is stateless per call, so both the REST and WebSocket surfaces share one
// instance.
type Pipeline struct {
	classifier  *intent.Classifier
	coordinator *coordinator.Coordinator
	log         *logrus.Logger
}

// Answer is the pipeline's response to one question.
type Answer struct {
	Question string             `json:"question"`
	Text     string             `json:"answer"`
	Request  domain.StatRequest `json:"request"`
	Outcome  domain.Outcome     `json:"outcome"`
	Elapsed  string             `json:"elapsed"`
}

func NewPipeline(classifier *intent.Classifier, coord *coordinator.Coordinator, log *logrus.Logger) *Pipeline {
	if log == nil {
		log = logrus.New()
	}
	return &Pipeline{classifier: classifier, coordinator: coord, log: log}
}

// Ask answers one free-text question. It never returns an error: a question
// that cannot be answered produces prose saying so.
func (p *Pipeline) Ask(ctx context.Context, question string) Answer {
	start := time.Now()
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{
			Question: question,
			Text:     "Ask me about an NBA team or player.",
			Elapsed:  time.Since(start).Round(time.Millisecond).String(),
		}
	}

	req := p.classifier.Classify(question)
	outcome := p.coordinator.Answer(ctx, req)
	text := render.Answer(req, outcome)

	fields := logrus.Fields{
		"component": "pipeline",
		"kind":      string(req.Kind),
		"elapsed":   time.Since(start).Round(time.Millisecond).String(),
	}
	if outcome.Failure != nil {
		fields["failure"] = string(outcome.Failure.Reason)
		fields["tried"] = strings.Join(outcome.Failure.TriedSources, ",")
		p.log.WithFields(fields).Info("question answered with a miss")
	} else {
		fields["source"] = outcome.Result.Source
		p.log.WithFields(fields).Info("✓ question answered")
	}

	return Answer{
		Question: question,
		Text:     text,
		Request:  req,
		Outcome:  outcome,
		Elapsed:  time.Since(start).Round(time.Millisecond).String(),
	}
}
