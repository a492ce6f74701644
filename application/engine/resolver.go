package engine

import (
	"context"
	"fmt"
	"time"

	"bmc_collect/domain/entities"
	"bmc_collect/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// ResolvedElement is an element located for one target during one step
type ResolvedElement struct {
	Target  entities.Target
	Locator string
	Index   int
	Element interfaces.Element
}

// Resolver finds the first present candidate of a LocatorSet
type Resolver struct {
	driver interfaces.Driver
	poll   time.Duration
	logger *logrus.Logger
}

// NewResolver - creates a resolver polling the driver every poll interval
func NewResolver(driver interfaces.Driver, poll time.Duration, logger *logrus.Logger) *Resolver {
	if poll <= 0 {
		poll = entities.DefaultTimeouts().PollInterval
	}
	return &Resolver{
		driver: driver,
		poll:   poll,
		logger: logger,
	}
}

// Resolve tries candidates in priority order, each for at most perCandidate.
// When all miss, the primary candidate is polled again until overall has elapsed
// since the call started, so a slow page is told apart from a wrong selector.
// overall is a hard ceiling.
func (r *Resolver) Resolve(ctx context.Context, target entities.Target, set entities.LocatorSet, perCandidate, overall time.Duration) (*ResolvedElement, error) {
	if len(set) == 0 {
		return nil, &entities.LocatorNotFoundError{Target: target}
	}

	deadline := time.Now().Add(overall)
	failures := make([]entities.CandidateError, 0, len(set))

	for i, locator := range set {
		budget := min(perCandidate, time.Until(deadline))
		el, err := r.waitFor(ctx, locator, budget)
		if err == nil {
			r.logger.WithFields(logrus.Fields{
				"target":  target,
				"locator": locator,
				"index":   i,
			}).Info("Element resolved")
			return &ResolvedElement{Target: target, Locator: locator, Index: i, Element: el}, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("resolving %s: %w", target, ctx.Err())
		}
		r.logger.WithFields(logrus.Fields{
			"target":  target,
			"locator": locator,
		}).Debugf("Candidate missed: %v", err)
		failures = append(failures, entities.CandidateError{Locator: locator, Err: err})
	}

	primary := set.Primary()
	r.logger.WithFields(logrus.Fields{
		"target":    target,
		"locator":   primary,
		"remaining": time.Until(deadline).Round(time.Millisecond),
	}).Warn("No candidate matched, waiting on primary locator for the rest of the budget")

	el, err := r.waitFor(ctx, primary, time.Until(deadline))
	if err == nil {
		return &ResolvedElement{Target: target, Locator: primary, Index: 0, Element: el}, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("resolving %s: %w", target, ctx.Err())
	}
	failures[0].Err = err

	return nil, &entities.LocatorNotFoundError{Target: target, Candidates: failures}
}

// waitFor polls locator until it is present or budget runs out.
// At least one lookup is always made.
func (r *Resolver) waitFor(ctx context.Context, locator string, budget time.Duration) (interfaces.Element, error) {
	deadline := time.Now().Add(budget)
	for {
		el, err := r.driver.FindElement(ctx, locator)
		if err == nil {
			return el, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("not present after %s: %w", budget.Round(time.Millisecond), err)
		}
		if perr := Pause(ctx, min(r.poll, remaining)); perr != nil {
			return nil, perr
		}
	}
}
