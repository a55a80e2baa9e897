// Package classify decides whether a text is an exam question on operating
// systems. Strategies are tried in order; the first one that returns without
// an error decides.
package classify

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

type Source string

const (
	SourceModel     Source = "model"
	SourceHeuristic Source = "heuristic"
)

type Result struct {
	IsQuestion bool
	Rationale  string
	Source     Source
}

// Strategy is one tier of classification.
type Strategy interface {
	Source() Source
	Classify(ctx context.Context, text string) (Result, error)
}

type Classifier struct {
	strategies []Strategy
	log        *zap.Logger
}

// New returns a classifier trying strategies in the given order. The last
// strategy is expected not to fail; if every strategy fails the verdict is
// "not a question" from the last one.
func New(log *zap.Logger, strategies ...Strategy) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{strategies: strategies, log: log}
}

// Classify never fails.
func (c *Classifier) Classify(ctx context.Context, text string) Result {
	var last Source = SourceHeuristic
	for _, s := range c.strategies {
		last = s.Source()
		res, err := safeClassify(ctx, s, text)
		if err != nil {
			c.log.Warn("classifier tier failed", zap.String("source", string(s.Source())), zap.Error(err))
			continue
		}
		res.Source = s.Source()
		c.log.Debug("classified",
			zap.String("source", string(res.Source)),
			zap.Bool("is_question", res.IsQuestion),
			zap.String("rationale", res.Rationale))
		return res
	}
	return Result{IsQuestion: false, Source: last}
}

func safeClassify(ctx context.Context, s Strategy, text string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("classifier panicked")
		}
	}()
	return s.Classify(ctx, text)
}
