package engine

import (
	"context"
	"fmt"
	"time"

	"bmc_collect/domain/entities"
	"bmc_collect/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// ClickStrategy is one rung of the click escalation ladder
type ClickStrategy struct {
	Name  string
	Apply func(ctx context.Context, driver interfaces.Driver, el interfaces.Element) error
}

// DirectClick clicks through the driver with its normal visibility checks
func DirectClick() ClickStrategy {
	return ClickStrategy{
		Name: "direct",
		Apply: func(ctx context.Context, driver interfaces.Driver, el interfaces.Element) error {
			return driver.Click(ctx, el)
		},
	}
}

// ScrollThenClick centres the element in the viewport, waits settle, then clicks
func ScrollThenClick(settle time.Duration) ClickStrategy {
	return ClickStrategy{
		Name: "scroll",
		Apply: func(ctx context.Context, driver interfaces.Driver, el interfaces.Element) error {
			if err := driver.RunScript(ctx, interfaces.ScriptScrollIntoView, el); err != nil {
				return fmt.Errorf("scroll into view: %w", err)
			}
			if err := Pause(ctx, settle); err != nil {
				return err
			}
			return driver.Click(ctx, el)
		},
	}
}

// ScriptClick fires the click from page script, bypassing overlap checks
func ScriptClick() ClickStrategy {
	return ClickStrategy{
		Name: "script",
		Apply: func(ctx context.Context, driver interfaces.Driver, el interfaces.Element) error {
			return driver.RunScript(ctx, interfaces.ScriptForceClick, el)
		},
	}
}

// DefaultStrategies returns direct, scroll and script clicks in that order
func DefaultStrategies(scrollSettle time.Duration) []ClickStrategy {
	return []ClickStrategy{
		DirectClick(),
		ScrollThenClick(scrollSettle),
		ScriptClick(),
	}
}

// Clicker clicks resolved elements, escalating through its strategies
type Clicker struct {
	driver     interfaces.Driver
	strategies []ClickStrategy
	logger     *logrus.Logger
	observer   Observer
}

// NewClicker - creates a clicker. Strategies are tried in slice order.
func NewClicker(driver interfaces.Driver, strategies []ClickStrategy, logger *logrus.Logger, observer Observer) *Clicker {
	if observer == nil {
		observer = NopObserver()
	}
	return &Clicker{
		driver:     driver,
		strategies: strategies,
		logger:     logger,
		observer:   observer,
	}
}

// Click runs each strategy until one succeeds. Every failure is kept for the
// ClickFailedError returned when the ladder is exhausted.
func (c *Clicker) Click(ctx context.Context, el *ResolvedElement) error {
	attempts := make([]entities.StrategyAttempt, 0, len(c.strategies))

	for _, s := range c.strategies {
		err := s.Apply(ctx, c.driver, el.Element)
		if err == nil {
			c.logger.WithFields(logrus.Fields{
				"target":   el.Target,
				"locator":  el.Locator,
				"strategy": s.Name,
			}).Info("Clicked")
			c.observer.ClickSucceeded(el.Target, s.Name)
			return nil
		}
		attempts = append(attempts, entities.StrategyAttempt{Strategy: s.Name, Err: err})
		if ctx.Err() != nil {
			break
		}
		c.logger.WithFields(logrus.Fields{
			"target":   el.Target,
			"strategy": s.Name,
		}).Warnf("Click strategy failed: %v", err)
	}

	return &entities.ClickFailedError{Target: el.Target, Locator: el.Locator, Attempts: attempts}
}
