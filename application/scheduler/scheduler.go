// Package scheduler triggers collection runs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bmc_collect/application/collector"
	"bmc_collect/domain/entities"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Trigger starts one collection run and waits for it
type Trigger interface {
	Run(ctx context.Context) (entities.RunResult, error)
}

// parser accepts 5 or 6 field expressions and descriptors such as @hourly or @every 30m
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Scheduler fires the trigger on every tick of its schedule.
// A tick that arrives while the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	entry   cron.EntryID
	spec    string
	trigger Trigger
	logger  *logrus.Logger
	ctx     context.Context
}

// ParseSchedule validates a schedule expression
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return schedule, nil
}

// New - creates a scheduler. Runs use ctx, so cancelling it interrupts an in-flight run.
func New(ctx context.Context, spec string, trigger Trigger, logger *logrus.Logger) (*Scheduler, error) {
	schedule, err := ParseSchedule(spec)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		spec:    spec,
		trigger: trigger,
		logger:  logger,
		ctx:     ctx,
	}
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cron.PrintfLogger(logger)), cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
	)
	s.entry = s.cron.Schedule(schedule, cron.FuncJob(s.tick))
	return s, nil
}

// Start begins firing in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"schedule": s.spec,
		"next":     s.Next(),
	}).Info("Scheduler started")
}

// Stop stops firing and returns a context done once the running job, if any, completes
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping scheduler")
	return s.cron.Stop()
}

// Next returns the next activation time, zero before Start
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

func (s *Scheduler) tick() {
	if s.ctx.Err() != nil {
		return
	}
	s.logger.WithField("schedule", s.spec).Info("Scheduled collection triggered")

	result, err := s.trigger.Run(s.ctx)
	switch {
	case errors.Is(err, collector.ErrBusy):
		s.logger.Warn("Skipping scheduled collection, a run is already in progress")
	case err != nil:
		s.logger.WithField("run_id", result.ID).Errorf("Scheduled collection failed: %v", err)
	default:
		s.logger.WithFields(logrus.Fields{
			"run_id": result.ID,
			"next":   s.Next(),
		}).Info("Scheduled collection finished")
	}
}
